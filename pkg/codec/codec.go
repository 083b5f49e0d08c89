// Package codec defines the opaque read/write functions attached to logical
// resources, plus a few shipped conveniences. Codecs are pluggable: the
// engine never inspects encoded bytes, it only moves them.
package codec

import (
	"encoding/json"
	"fmt"
	"reflect"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Codec encodes and decodes one value type to and from bytes. Type reports
// the Go type a Decode produces and an Encode consumes; the resource layer
// uses it as the erased type tag checked at access time.
type Codec interface {
	Type() reflect.Type
	Encode(v any) ([]byte, error)
	Decode(data []byte) (any, error)
}

type jsonCodec[T any] struct{}

// JSON returns a codec that marshals values of type T with encoding/json.
func JSON[T any]() Codec { return jsonCodec[T]{} }

func (jsonCodec[T]) Type() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func (jsonCodec[T]) Encode(v any) ([]byte, error) {
	tv, ok := v.(T)
	if !ok {
		var zero T
		return nil, fmt.Errorf("json codec: expected %T, got %T", zero, v)
	}
	return json.Marshal(tv)
}

func (jsonCodec[T]) Decode(data []byte) (any, error) {
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("json codec: %w", err)
	}
	return out, nil
}

type bytesCodec struct{}

// Bytes returns a pass-through codec for raw byte slices.
func Bytes() Codec { return bytesCodec{} }

func (bytesCodec) Type() reflect.Type { return reflect.TypeOf([]byte(nil)) }

func (bytesCodec) Encode(v any) ([]byte, error) {
	b, ok := v.([]byte)
	if !ok {
		return nil, fmt.Errorf("bytes codec: expected []byte, got %T", v)
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

func (bytesCodec) Decode(data []byte) (any, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

type textCodec struct{}

// Text returns a codec for UTF-8 text. Decoded strings are normalised to
// NFC so that byte-level differences between canonically equal inputs do
// not leak into pipeline values.
func Text() Codec { return textCodec{} }

func (textCodec) Type() reflect.Type { return reflect.TypeOf("") }

func (textCodec) Encode(v any) ([]byte, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("text codec: expected string, got %T", v)
	}
	return []byte(s), nil
}

func (textCodec) Decode(data []byte) (any, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("text codec: invalid UTF-8")
	}
	return norm.NFC.String(string(data)), nil
}
