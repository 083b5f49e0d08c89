// Package resource implements the logical resource tree and its resolved,
// location-bound counterpart. Virtual trees declare what a pipeline needs;
// binding a virtual tree against a location mapping yields a physical tree
// of accessors that perform the actual reads and writes.
package resource

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/wehubfusion/Daedalus/pkg/codec"
)

// VirtualFile is the logical, location-independent description of a
// readable and/or writable dataset: its original path, its read/write
// capabilities with their codec handles, and the ordered repetition keys
// spliced into its resolved location at access time.
//
// Read and write capabilities are independent; a file may be a write-only
// sink or a read-only source, and the two sides may deliberately carry
// different types.
type VirtualFile struct {
	path       []string
	readCodec  codec.Codec
	writeCodec codec.Codec
	repKeys    []string
}

// FileOption configures a VirtualFile at construction.
type FileOption func(*VirtualFile)

// WithCodec grants both read and write capability through the same codec.
func WithCodec(c codec.Codec) FileOption {
	return func(vf *VirtualFile) {
		vf.readCodec = c
		vf.writeCodec = c
	}
}

// WithReadCodec grants read capability through c.
func WithReadCodec(c codec.Codec) FileOption {
	return func(vf *VirtualFile) { vf.readCodec = c }
}

// WithWriteCodec grants write capability through c.
func WithWriteCodec(c codec.Codec) FileOption {
	return func(vf *VirtualFile) { vf.writeCodec = c }
}

// WithRepetitionKeys sets the ordered repetition-key names for the file.
func WithRepetitionKeys(keys ...string) FileOption {
	return func(vf *VirtualFile) {
		vf.repKeys = append([]string(nil), keys...)
	}
}

// NewVirtualFile declares a logical file at a slash-separated path, such as
// "out/result". At least one capability (a read or write codec) must be
// granted.
func NewVirtualFile(path string, opts ...FileOption) (*VirtualFile, error) {
	segments := splitPath(path)
	if len(segments) == 0 {
		return nil, fmt.Errorf("virtual file path cannot be empty")
	}
	for _, s := range segments {
		if s == "" {
			return nil, fmt.Errorf("virtual file path %q has an empty segment", path)
		}
	}
	vf := &VirtualFile{path: segments}
	for _, opt := range opts {
		opt(vf)
	}
	if vf.readCodec == nil && vf.writeCodec == nil {
		return nil, fmt.Errorf("virtual file %q declares no capability", path)
	}
	return vf, nil
}

// MustVirtualFile is NewVirtualFile panicking on error. Intended for fixed
// declarations and tests.
func MustVirtualFile(path string, opts ...FileOption) *VirtualFile {
	vf, err := NewVirtualFile(path, opts...)
	if err != nil {
		panic(err)
	}
	return vf
}

// Path returns the path segments.
func (vf *VirtualFile) Path() []string {
	out := make([]string, len(vf.path))
	copy(out, vf.path)
	return out
}

// PathString returns the slash-joined path.
func (vf *VirtualFile) PathString() string { return strings.Join(vf.path, "/") }

// DottedPath returns the dot-joined path used by location mappings.
func (vf *VirtualFile) DottedPath() string { return strings.Join(vf.path, ".") }

// CanRead reports whether the file has read capability.
func (vf *VirtualFile) CanRead() bool { return vf.readCodec != nil }

// CanWrite reports whether the file has write capability.
func (vf *VirtualFile) CanWrite() bool { return vf.writeCodec != nil }

// ReadType returns the type produced by reads, or nil without read
// capability.
func (vf *VirtualFile) ReadType() reflect.Type {
	if vf.readCodec == nil {
		return nil
	}
	return vf.readCodec.Type()
}

// WriteType returns the type consumed by writes, or nil without write
// capability.
func (vf *VirtualFile) WriteType() reflect.Type {
	if vf.writeCodec == nil {
		return nil
	}
	return vf.writeCodec.Type()
}

// ReadCodec returns the read codec handle, nil without read capability.
func (vf *VirtualFile) ReadCodec() codec.Codec { return vf.readCodec }

// WriteCodec returns the write codec handle, nil without write capability.
func (vf *VirtualFile) WriteCodec() codec.Codec { return vf.writeCodec }

// RepetitionKeys returns the ordered repetition-key names.
func (vf *VirtualFile) RepetitionKeys() []string {
	out := make([]string, len(vf.repKeys))
	copy(out, vf.repKeys)
	return out
}

func (vf *VirtualFile) clone() *VirtualFile {
	out := &VirtualFile{
		path:       append([]string(nil), vf.path...),
		readCodec:  vf.readCodec,
		writeCodec: vf.writeCodec,
		repKeys:    append([]string(nil), vf.repKeys...),
	}
	return out
}

// prefixKey prepends a repetition key; outer loops' variables precede
// inner loops' in the key list.
func (vf *VirtualFile) prefixKey(key string) *VirtualFile {
	out := vf.clone()
	out.repKeys = append([]string{key}, out.repKeys...)
	return out
}

// AppendRepetitionKeys returns a copy of the file with keys appended after
// the existing ones. Stream access endpoints use this for their innermost
// index variable.
func (vf *VirtualFile) AppendRepetitionKeys(keys ...string) *VirtualFile {
	out := vf.clone()
	out.repKeys = append(out.repKeys, keys...)
	return out
}

// sameDeclaration reports whether two declarations at the same path are
// interchangeable: same capability set, same read/write types, same
// repetition keys.
func sameDeclaration(a, b *VirtualFile) bool {
	if a.CanRead() != b.CanRead() || a.CanWrite() != b.CanWrite() {
		return false
	}
	if a.ReadType() != b.ReadType() || a.WriteType() != b.WriteType() {
		return false
	}
	if len(a.repKeys) != len(b.repKeys) {
		return false
	}
	for i := range a.repKeys {
		if a.repKeys[i] != b.repKeys[i] {
			return false
		}
	}
	return true
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}
