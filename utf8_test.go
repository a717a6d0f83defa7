// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classfile

import (
	"bytes"
	"testing"
)

func TestModifiedUTF8RoundTrip(t *testing.T) {
	for _, s := range []string{
		"",
		"hello",
		"java/lang/Object",
		"snowman ☃",
		"emoji \U0001F600",
	} {
		enc := encodeModifiedUTF8(s)
		dec, err := decodeModifiedUTF8(enc)
		if err != nil {
			t.Fatalf("decodeModifiedUTF8(%q encoded): %v", s, err)
		}
		if dec != s {
			t.Errorf("round trip %q -> %x -> %q, want original", s, enc, dec)
		}
	}
}

func TestModifiedUTF8NullEncodingIsTwoBytes(t *testing.T) {
	enc := encodeModifiedUTF8("a\x00b")
	want := []byte{'a', 0xC0, 0x80, 'b'}
	if !bytes.Equal(enc, want) {
		t.Errorf("encodeModifiedUTF8(\"a\\x00b\") = %x, want %x", enc, want)
	}
}

func TestModifiedUTF8AstralSplitsToSurrogatePair(t *testing.T) {
	enc := encodeModifiedUTF8("\U0001F600")
	if len(enc) != 6 {
		t.Fatalf("encoded astral code point = %d bytes, want 6 (two 3-byte surrogate halves)", len(enc))
	}
}

func TestDecodeModifiedUTF8RejectsTruncated(t *testing.T) {
	if _, err := decodeModifiedUTF8([]byte{0xE0}); err == nil {
		t.Error("expected an error decoding a truncated 3-byte sequence")
	}
	if _, err := decodeModifiedUTF8([]byte{0xC0}); err == nil {
		t.Error("expected an error decoding a truncated 2-byte sequence")
	}
}
