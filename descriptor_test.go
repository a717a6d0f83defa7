// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classfile

import "testing"

func TestParseFieldType(t *testing.T) {
	for _, tt := range []struct {
		s        string
		cat      fieldCategory
		consumed int
	}{
		{"I", catInt, 1},
		{"J", catLong, 1},
		{"F", catFloat, 1},
		{"D", catDouble, 1},
		{"Z", catInt, 1},
		{"Ljava/lang/String;", catRef, 18},
		{"[I", catRef, 2},
		{"[[Ljava/lang/Object;", catRef, 20},
		{"V", catVoid, 1},
		{"", catVoid, 0},
	} {
		cat, n := parseFieldType(tt.s)
		if cat != tt.cat || n != tt.consumed {
			t.Errorf("parseFieldType(%q) = (%v, %d), want (%v, %d)", tt.s, cat, n, tt.cat, tt.consumed)
		}
	}
}

func TestParseMethodDescriptor(t *testing.T) {
	md := parseMethodDescriptor("(ILjava/lang/String;[J)D")
	want := []fieldCategory{catInt, catRef, catRef}
	if len(md.Params) != len(want) {
		t.Fatalf("Params = %v, want %v", md.Params, want)
	}
	for i, c := range want {
		if md.Params[i] != c {
			t.Errorf("Params[%d] = %v, want %v", i, md.Params[i], c)
		}
	}
	if md.Return != catDouble {
		t.Errorf("Return = %v, want catDouble", md.Return)
	}
}

func TestParseMethodDescriptorNoArgsVoid(t *testing.T) {
	md := parseMethodDescriptor("()V")
	if len(md.Params) != 0 {
		t.Errorf("Params = %v, want empty", md.Params)
	}
	if md.Return != catVoid {
		t.Errorf("Return = %v, want catVoid", md.Return)
	}
}

func TestSlotWidth(t *testing.T) {
	if slotWidth(catLong) != 2 || slotWidth(catDouble) != 2 {
		t.Error("long/double must occupy 2 slots")
	}
	if slotWidth(catInt) != 1 || slotWidth(catRef) != 1 || slotWidth(catFloat) != 1 {
		t.Error("category-1 types must occupy 1 slot")
	}
}
