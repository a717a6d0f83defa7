// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classfile

// UnboundBCI is the sentinel bci value for a Label that has not yet been
// bound.
const UnboundBCI = -1

// Label is a logical location within a code stream. Its identity is the
// pointer itself (spec.md design notes: "Label identity is object
// identity, not value equality") — two distinct *Label values are always
// distinct labels even if they end up bound to the same bci. A Label may be
// referenced by a branch before it is bound, the forward-reference case the
// Assembler's two-pass emission exists to handle.
type Label struct {
	name string // optional, for diagnostics/disassembly only
}

// LabelContext owns the label -> bci binding for one code stream. It is
// created fresh per CodeModel decode and per code builder.
type LabelContext struct {
	labels []*Label
	bci    map[*Label]int
}

// NewLabelContext returns an empty context.
func NewLabelContext() *LabelContext {
	return &LabelContext{bci: make(map[*Label]int)}
}

// NewLabel allocates a fresh, unbound label.
func (lc *LabelContext) NewLabel() *Label {
	l := &Label{}
	lc.labels = append(lc.labels, l)
	lc.bci[l] = UnboundBCI
	return l
}

// BindLabel sets l's bci. Rebinding to the same bci is idempotent; rebinding
// to a different bci fails with IllegalState, matching the "label binding
// uniqueness" testable property in spec.md §8.
func (lc *LabelContext) BindLabel(l *Label, bci int) error {
	cur, ok := lc.bci[l]
	if !ok {
		lc.labels = append(lc.labels, l)
	} else if cur != UnboundBCI && cur != bci {
		return illegalState("label already bound to bci %d, cannot rebind to %d", cur, bci)
	}
	lc.bci[l] = bci
	return nil
}

// LabelToBCI resolves l's bci, or fails if it is unbound.
func (lc *LabelContext) LabelToBCI(l *Label) (int, error) {
	bci, ok := lc.bci[l]
	if !ok || bci == UnboundBCI {
		return 0, codeError("unbound label referenced")
	}
	return bci, nil
}

// IsBound reports whether l has been bound to a bci.
func (lc *LabelContext) IsBound(l *Label) bool {
	bci, ok := lc.bci[l]
	return ok && bci != UnboundBCI
}

// Labels returns every label this context has allocated, bound or not.
func (lc *LabelContext) Labels() []*Label {
	return lc.labels
}
