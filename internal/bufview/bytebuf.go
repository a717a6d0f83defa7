// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bufview

import "encoding/binary"

// ByteBuf is an append-only big-endian writer. Already-written bytes can be
// changed in place through PatchU2/PatchU4 (used to fill in length-prefix
// fields discovered only after emission has continued past them) and
// through the lower-level SetByte and Splice.
type ByteBuf struct {
	b []byte
}

// NewByteBuf returns an empty buffer with capacity hint reserved up front.
func NewByteBuf(capHint int) *ByteBuf {
	return &ByteBuf{b: make([]byte, 0, capHint)}
}

// Mark returns the current length, a position token that can later be
// passed to PatchU2/PatchU4.
func (w *ByteBuf) Mark() int { return len(w.b) }

// Size returns the number of bytes written so far.
func (w *ByteBuf) Size() int { return len(w.b) }

// WriteU1 appends a single byte.
func (w *ByteBuf) WriteU1(v uint8) {
	w.b = append(w.b, v)
}

// WriteU2 appends a big-endian 16-bit field.
func (w *ByteBuf) WriteU2(v uint16) {
	w.b = append(w.b, byte(v>>8), byte(v))
}

// WriteU4 appends a big-endian 32-bit field.
func (w *ByteBuf) WriteU4(v uint32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	w.b = append(w.b, tmp[:]...)
}

// WriteS8 appends a big-endian signed 64-bit field.
func (w *ByteBuf) WriteS8(v int64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], uint64(v))
	w.b = append(w.b, tmp[:]...)
}

// WriteBytes appends a raw byte span verbatim.
func (w *ByteBuf) WriteBytes(p []byte) {
	w.b = append(w.b, p...)
}

// PatchU2 overwrites the 2 bytes at pos (obtained from an earlier Mark)
// with v. pos+2 must not exceed the buffer's current length.
func (w *ByteBuf) PatchU2(pos int, v uint16) {
	w.b[pos] = byte(v >> 8)
	w.b[pos+1] = byte(v)
}

// PatchU4 overwrites the 4 bytes at pos with v.
func (w *ByteBuf) PatchU4(pos int, v uint32) {
	binary.BigEndian.PutUint32(w.b[pos:pos+4], v)
}

// Byte returns the byte at i, for small in-place edits that don't fit the
// u2/u4 patch shape.
func (w *ByteBuf) Byte(i int) byte { return w.b[i] }

// SetByte overwrites the byte at i.
func (w *ByteBuf) SetByte(i int, v byte) { w.b[i] = v }

// Splice replaces the byte range [from, to) with repl, shifting everything
// after to accommodate a different length. The assembler does not use it:
// it settles branch widths before emitting any bytes.
func (w *ByteBuf) Splice(from, to int, repl []byte) {
	tail := append([]byte(nil), w.b[to:]...)
	w.b = append(w.b[:from], repl...)
	w.b = append(w.b, tail...)
}

// Into returns the accumulated bytes as an owned slice; the buffer must not
// be used afterward.
func (w *ByteBuf) Into() []byte {
	return w.b
}
