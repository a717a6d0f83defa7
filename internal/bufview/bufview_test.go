// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bufview

import "testing"

func TestByteViewReadsBigEndian(t *testing.T) {
	v := New([]byte{0x01, 0x02, 0x03, 0x04})
	u2, err := v.U2(0)
	if err != nil {
		t.Fatalf("U2: %v", err)
	}
	if u2 != 0x0102 {
		t.Errorf("U2 = %#04x, want 0x0102", u2)
	}
	u4, err := v.U4(0)
	if err != nil {
		t.Fatalf("U4: %v", err)
	}
	if u4 != 0x01020304 {
		t.Errorf("U4 = %#08x, want 0x01020304", u4)
	}
}

func TestByteViewOutOfRange(t *testing.T) {
	v := New([]byte{0x01, 0x02})
	if _, err := v.U4(0); err == nil {
		t.Error("expected an OutOfRange error reading U4 from a 2-byte view")
	}
	if _, err := v.U1(5); err == nil {
		t.Error("expected an OutOfRange error reading past the view's end")
	}
}

func TestByteViewReadBytesAliases(t *testing.T) {
	src := []byte{1, 2, 3, 4, 5}
	v := New(src)
	sub, err := v.ReadBytes(1, 3)
	if err != nil {
		t.Fatalf("ReadBytes: %v", err)
	}
	if len(sub) != 3 || sub[0] != 2 || sub[2] != 4 {
		t.Errorf("ReadBytes(1, 3) = %v, want [2 3 4]", sub)
	}
	src[2] = 42
	if sub[1] != 42 {
		t.Errorf("ReadBytes result does not alias the backing slice: sub[1] = %d after src[2] = 42", sub[1])
	}
}

func TestByteBufWriteAndPatch(t *testing.T) {
	buf := NewByteBuf(16)
	buf.WriteU1(0xFF)
	mark := buf.Mark()
	buf.WriteU2(0) // placeholder
	buf.WriteU1(0xAA)

	buf.PatchU2(mark, 0x1234)

	out := buf.Into()
	want := []byte{0xFF, 0x12, 0x34, 0xAA}
	if len(out) != len(want) {
		t.Fatalf("Into() = %v, want %v", out, want)
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("out[%d] = %#02x, want %#02x", i, out[i], want[i])
		}
	}
}

func TestByteBufSplice(t *testing.T) {
	buf := NewByteBuf(16)
	buf.WriteBytes([]byte{1, 2, 3, 4, 5})
	buf.Splice(1, 3, []byte{9, 9, 9}) // replace [2,3] with [9,9,9]
	out := buf.Into()
	want := []byte{1, 9, 9, 9, 4, 5}
	if len(out) != len(want) {
		t.Fatalf("Splice result = %v, want %v", out, want)
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("out[%d] = %d, want %d", i, out[i], want[i])
		}
	}
}
