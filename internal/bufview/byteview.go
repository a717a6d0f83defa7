// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bufview provides the two low-level byte-stream primitives the
// classfile codec is built on: ByteView, a bounds-checked random-access
// reader over an immutable slice, and ByteBuf, an append-only writer that
// supports patching already-written fields. Every multi-byte field in the
// JVM classfile format is big-endian; both types assume that throughout.
package bufview

import (
	"encoding/binary"
	"fmt"
	"math"
)

// OutOfRange is returned by every ByteView accessor when the requested span
// falls outside the backing slice. Callers in the classfile package wrap
// it into a MalformedClassfile error carrying the offset at some call
// sites and return it unwrapped at others.
type OutOfRange struct {
	Offset, Length, Cap int
}

func (e OutOfRange) Error() string {
	return fmt.Sprintf("out of range: offset=%d length=%d cap=%d", e.Offset, e.Length, e.Cap)
}

// ByteView is a random-access reader over an immutable byte slice. It never
// copies on construction; callers that need the bytes to outlive a source
// (e.g. an mmap-ed file) must arrange that themselves.
type ByteView struct {
	b []byte
}

// New wraps b. b is never mutated or copied; the caller retains ownership.
func New(b []byte) ByteView {
	return ByteView{b: b}
}

// Len returns the number of bytes in the view.
func (v ByteView) Len() int { return len(v.b) }

func (v ByteView) check(off, n int) error {
	if off < 0 || n < 0 || off+n > len(v.b) {
		return OutOfRange{Offset: off, Length: n, Cap: len(v.b)}
	}
	return nil
}

// U1 reads an unsigned 8-bit field at off.
func (v ByteView) U1(off int) (uint8, error) {
	if err := v.check(off, 1); err != nil {
		return 0, err
	}
	return v.b[off], nil
}

// U2 reads a big-endian unsigned 16-bit field at off.
func (v ByteView) U2(off int) (uint16, error) {
	if err := v.check(off, 2); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(v.b[off:]), nil
}

// U4 reads a big-endian unsigned 32-bit field at off. Callers that need a
// signed interpretation narrow the result themselves (int32(v)).
func (v ByteView) U4(off int) (uint32, error) {
	if err := v.check(off, 4); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(v.b[off:]), nil
}

// S1 reads a sign-extended 8-bit field at off.
func (v ByteView) S1(off int) (int8, error) {
	u, err := v.U1(off)
	return int8(u), err
}

// S2 reads a sign-extended big-endian 16-bit field at off.
func (v ByteView) S2(off int) (int16, error) {
	u, err := v.U2(off)
	return int16(u), err
}

// S4 reads a sign-extended big-endian 32-bit field at off.
func (v ByteView) S4(off int) (int32, error) {
	u, err := v.U4(off)
	return int32(u), err
}

// S8 reads a big-endian signed 64-bit field at off.
func (v ByteView) S8(off int) (int64, error) {
	if err := v.check(off, 8); err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(v.b[off:])), nil
}

// F4 reads a big-endian IEEE-754 32-bit float at off.
func (v ByteView) F4(off int) (float32, error) {
	u, err := v.U4(off)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(u), nil
}

// F8 reads a big-endian IEEE-754 64-bit float at off.
func (v ByteView) F8(off int) (float64, error) {
	if err := v.check(off, 8); err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(v.b[off:])), nil
}

// ReadBytes returns a sub-slice of the backing buffer [off, off+n). The
// returned slice aliases the view's storage; callers that hand it outside
// the package and need immutability should copy.
func (v ByteView) ReadBytes(off, n int) ([]byte, error) {
	if err := v.check(off, n); err != nil {
		return nil, err
	}
	return v.b[off : off+n : off+n], nil
}
