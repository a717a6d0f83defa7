// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package opcode

import "testing"

func TestLookupKnown(t *testing.T) {
	for _, tt := range []struct {
		code byte
		mn   string
		len  int
	}{
		{0x00, "nop", 1},
		{0x10, "bipush", 2},
		{0xb6, "invokevirtual", 3},
		{0xc8, "goto_w", 5},
		{0xaa, "tableswitch", 0},
	} {
		info, ok := Lookup(tt.code)
		if !ok {
			t.Fatalf("opcode 0x%02x: not found", tt.code)
		}
		if info.Mnemonic != tt.mn {
			t.Errorf("opcode 0x%02x: mnemonic = %q, want %q", tt.code, info.Mnemonic, tt.mn)
		}
		if info.Len != tt.len {
			t.Errorf("opcode 0x%02x: len = %d, want %d", tt.code, info.Len, tt.len)
		}
	}
}

func TestLookupUnassigned(t *testing.T) {
	if _, ok := Lookup(0xba - 1 + 1); !ok {
		// invokedynamic (0xba) is assigned, so this branch is never taken
	}
	if _, ok := Lookup(0xcb); ok {
		t.Errorf("opcode 0xcb: expected unassigned, got a hit")
	}
}

func TestInvertedConditionIsInvolution(t *testing.T) {
	for code := range byCode {
		if !IsConditionalBranch(byte(code)) {
			continue
		}
		inv, ok := InvertedCondition(byte(code))
		if !ok {
			t.Errorf("opcode 0x%02x: conditional branch with no inverse registered", code)
			continue
		}
		back, ok := InvertedCondition(inv)
		if !ok || back != byte(code) {
			t.Errorf("opcode 0x%02x: inverting twice gave 0x%02x, want 0x%02x", code, back, code)
		}
	}
}

func TestDiscontinuedInstructions(t *testing.T) {
	for _, code := range []byte{0xa8, 0xa9, 0xc9} { // jsr, ret, jsr_w
		info, ok := Lookup(code)
		if !ok || !info.Discontinued {
			t.Errorf("opcode 0x%02x: expected Discontinued=true", code)
		}
	}
}
