// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classfile

import "testing"

func TestLabelBindAndResolve(t *testing.T) {
	lc := NewLabelContext()
	l := lc.NewLabel()
	if lc.IsBound(l) {
		t.Fatal("freshly allocated label should not be bound")
	}
	if err := lc.BindLabel(l, 10); err != nil {
		t.Fatalf("BindLabel: %v", err)
	}
	if !lc.IsBound(l) {
		t.Fatal("label should be bound after BindLabel")
	}
	bci, err := lc.LabelToBCI(l)
	if err != nil {
		t.Fatalf("LabelToBCI: %v", err)
	}
	if bci != 10 {
		t.Errorf("LabelToBCI = %d, want 10", bci)
	}
}

func TestLabelRebindSameBCIIsIdempotent(t *testing.T) {
	lc := NewLabelContext()
	l := lc.NewLabel()
	if err := lc.BindLabel(l, 5); err != nil {
		t.Fatalf("BindLabel: %v", err)
	}
	if err := lc.BindLabel(l, 5); err != nil {
		t.Errorf("rebinding to the same bci should be idempotent, got error: %v", err)
	}
}

func TestLabelRebindDifferentBCIFails(t *testing.T) {
	lc := NewLabelContext()
	l := lc.NewLabel()
	if err := lc.BindLabel(l, 5); err != nil {
		t.Fatalf("BindLabel: %v", err)
	}
	if err := lc.BindLabel(l, 6); err == nil {
		t.Error("expected an error rebinding a label to a different bci")
	}
}

func TestLabelToBCIUnboundFails(t *testing.T) {
	lc := NewLabelContext()
	l := lc.NewLabel()
	if _, err := lc.LabelToBCI(l); err == nil {
		t.Error("expected an error resolving an unbound label")
	}
}

func TestLabelIdentityNotValue(t *testing.T) {
	lc := NewLabelContext()
	a := lc.NewLabel()
	b := lc.NewLabel()
	lc.BindLabel(a, 1)
	lc.BindLabel(b, 1)
	if a == b {
		t.Fatal("two distinct NewLabel() calls must return distinct identities")
	}
}
