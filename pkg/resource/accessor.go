package resource

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"go.uber.org/zap"

	"github.com/wehubfusion/Daedalus/pkg/codec"
	sdkerrors "github.com/wehubfusion/Daedalus/pkg/errors"
	"github.com/wehubfusion/Daedalus/pkg/location"
	"github.com/wehubfusion/Daedalus/pkg/storage"
)

// Accessor is the bound read/write capability of one physical tree leaf. It
// is a closure over immutable location templates, codec handles and the
// mount table; the caller supplies the current variable bindings per call,
// so one accessor is safely shared across concurrent repeated invocations.
//
// A leaf bound to several location layers writes to every layer in order
// and reads from the first.
type Accessor struct {
	path       []string
	templates  []location.Template
	readCodec  codec.Codec
	writeCodec codec.Codec
	repKeys    []string
	mounts     *storage.Mounts
	logger     *zap.Logger
}

// Path returns the logical path segments.
func (a *Accessor) Path() []string {
	out := make([]string, len(a.path))
	copy(out, a.path)
	return out
}

// PathString returns the slash-joined logical path.
func (a *Accessor) PathString() string { return strings.Join(a.path, "/") }

// CanRead reports read capability.
func (a *Accessor) CanRead() bool { return a.readCodec != nil }

// CanWrite reports write capability.
func (a *Accessor) CanWrite() bool { return a.writeCodec != nil }

// ReadType returns the bound read type, nil without read capability.
func (a *Accessor) ReadType() reflect.Type {
	if a.readCodec == nil {
		return nil
	}
	return a.readCodec.Type()
}

// WriteType returns the bound write type, nil without write capability.
func (a *Accessor) WriteType() reflect.Type {
	if a.writeCodec == nil {
		return nil
	}
	return a.writeCodec.Type()
}

// RepetitionKeys returns the bound ordered repetition keys.
func (a *Accessor) RepetitionKeys() []string {
	out := make([]string, len(a.repKeys))
	copy(out, a.repKeys)
	return out
}

// Templates returns the location templates with placeholders intact.
func (a *Accessor) Templates() []location.Template {
	out := make([]location.Template, len(a.templates))
	copy(out, a.templates)
	return out
}

// Locations resolves the concrete locations the accessor would touch under
// the given bindings, without performing any I/O.
func (a *Accessor) Locations(vars location.Variables) ([]location.Location, error) {
	out := make([]location.Location, 0, len(a.templates))
	for _, tpl := range a.templates {
		loc, err := tpl.Resolve(vars)
		if err != nil {
			return nil, sdkerrors.Binding(a.PathString(), "unresolved location template", err)
		}
		out = append(out, loc)
	}
	return out, nil
}

// Read resolves the primary location under vars, fetches its bytes and
// decodes them through the read codec.
func (a *Accessor) Read(ctx context.Context, vars location.Variables) (any, error) {
	if a.readCodec == nil {
		return nil, sdkerrors.NewError(sdkerrors.CodeTypeMismatch, a.PathString(),
			"read requested but resource declares no read capability", sdkerrors.ErrTypeMismatch)
	}
	locs, err := a.Locations(vars)
	if err != nil {
		return nil, err
	}
	data, err := a.mounts.Read(ctx, locs[0])
	if err != nil {
		return nil, sdkerrors.Access(a.PathString(), fmt.Errorf("read %s: %w", locs[0], err))
	}
	v, err := a.readCodec.Decode(data)
	if err != nil {
		return nil, sdkerrors.Access(a.PathString(), fmt.Errorf("decode %s: %w", locs[0], err))
	}
	a.logger.Debug("Read resource",
		zap.String("path", a.PathString()),
		zap.Stringer("location", locs[0]),
		zap.Int("size_bytes", len(data)))
	return v, nil
}

// Write encodes v through the write codec and stores the bytes at every
// bound location layer, in order. Layers written before a failure stay
// written; the engine is non-transactional by design.
func (a *Accessor) Write(ctx context.Context, vars location.Variables, v any) error {
	if a.writeCodec == nil {
		return sdkerrors.NewError(sdkerrors.CodeTypeMismatch, a.PathString(),
			"write requested but resource declares no write capability", sdkerrors.ErrTypeMismatch)
	}
	if got := reflect.TypeOf(v); got != nil && !got.AssignableTo(a.writeCodec.Type()) {
		return sdkerrors.TypeMismatch(a.PathString(), "write", a.writeCodec.Type(), got)
	}
	locs, err := a.Locations(vars)
	if err != nil {
		return err
	}
	data, err := a.writeCodec.Encode(v)
	if err != nil {
		return sdkerrors.Access(a.PathString(), fmt.Errorf("encode: %w", err))
	}
	for _, loc := range locs {
		if err := a.mounts.Write(ctx, loc, data); err != nil {
			return sdkerrors.Access(a.PathString(), fmt.Errorf("write %s: %w", loc, err))
		}
		a.logger.Debug("Wrote resource",
			zap.String("path", a.PathString()),
			zap.Stringer("location", loc),
			zap.Int("size_bytes", len(data)))
	}
	return nil
}

// Exists probes the primary location under vars without reading it.
func (a *Accessor) Exists(ctx context.Context, vars location.Variables) (bool, error) {
	locs, err := a.Locations(vars)
	if err != nil {
		return false, err
	}
	ok, err := a.mounts.Exists(ctx, locs[0])
	if err != nil {
		return false, sdkerrors.Access(a.PathString(), fmt.Errorf("probe %s: %w", locs[0], err))
	}
	return ok, nil
}
