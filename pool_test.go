// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classfile

import "testing"

func TestIndexInterns(t *testing.T) {
	p := NewConstantPool()
	a, err := p.Utf8("java/lang/Object")
	if err != nil {
		t.Fatalf("Utf8: %v", err)
	}
	b, err := p.Utf8("java/lang/Object")
	if err != nil {
		t.Fatalf("Utf8: %v", err)
	}
	if a != b {
		t.Errorf("Utf8(%q) interned to different indexes: %d, %d", "java/lang/Object", a, b)
	}

	c, err := p.Utf8("java/lang/String")
	if err != nil {
		t.Fatalf("Utf8: %v", err)
	}
	if c == a {
		t.Errorf("distinct strings interned to the same index %d", a)
	}
}

func TestLongDoubleOccupyTwoSlots(t *testing.T) {
	p := NewConstantPool()
	idx, err := p.Long(42)
	if err != nil {
		t.Fatalf("Long: %v", err)
	}
	if _, err := p.Entry(idx + 1); err == nil {
		t.Errorf("index %d (reserved half of long) should not resolve", idx+1)
	}

	next, err := p.Integer(7)
	if err != nil {
		t.Fatalf("Integer: %v", err)
	}
	if next != idx+2 {
		t.Errorf("entry after a Long took index %d, want %d", next, idx+2)
	}
}

func TestEntryOutOfRange(t *testing.T) {
	p := NewConstantPool()
	if _, err := p.Entry(0); err == nil {
		t.Error("index 0 should always fail")
	}
	if _, err := p.Entry(1); err == nil {
		t.Error("index past the pool's size should fail")
	}
}

func TestMemberrefSharesClassAndNameAndType(t *testing.T) {
	p := NewConstantPool()
	a, err := p.Methodref("com/example/Foo", "bar", "()V")
	if err != nil {
		t.Fatalf("Methodref: %v", err)
	}
	b, err := p.Fieldref("com/example/Foo", "baz", "I")
	if err != nil {
		t.Fatalf("Fieldref: %v", err)
	}
	ea, _ := p.Entry(a)
	eb, _ := p.Entry(b)
	if ea.ClassIndex != eb.ClassIndex {
		t.Errorf("Methodref and Fieldref on the same owning class interned different Class entries: %d, %d", ea.ClassIndex, eb.ClassIndex)
	}
}

func TestMaybeCloneRecursivelyMigrates(t *testing.T) {
	src := NewConstantPool()
	m, err := src.Methodref("com/example/Foo", "bar", "()V")
	if err != nil {
		t.Fatalf("Methodref: %v", err)
	}

	dst := NewConstantPool()
	// seed dst with unrelated entries so indexes in dst differ from src.
	if _, err := dst.Utf8("unrelated"); err != nil {
		t.Fatalf("Utf8: %v", err)
	}

	migrated, err := dst.maybeClone(src, m)
	if err != nil {
		t.Fatalf("maybeClone: %v", err)
	}

	got, err := dst.Entry(migrated)
	if err != nil {
		t.Fatalf("Entry: %v", err)
	}
	cls, err := dst.Entry(got.ClassIndex)
	if err != nil {
		t.Fatalf("Entry(ClassIndex): %v", err)
	}
	name, err := dst.Utf8Text(cls.NameIndex)
	if err != nil {
		t.Fatalf("Utf8Text: %v", err)
	}
	if name != "com/example/Foo" {
		t.Errorf("migrated Methodref's class name = %q, want %q", name, "com/example/Foo")
	}

	// migrating the same index again must not duplicate entries.
	again, err := dst.maybeClone(src, m)
	if err != nil {
		t.Fatalf("maybeClone (second time): %v", err)
	}
	if again != migrated {
		t.Errorf("re-cloning the same source index produced a new entry: %d, want %d", again, migrated)
	}
}

func TestMaybeCloneSamePoolIsNoop(t *testing.T) {
	p := NewConstantPool()
	idx, err := p.Utf8("x")
	if err != nil {
		t.Fatalf("Utf8: %v", err)
	}
	got, err := p.maybeClone(p, idx)
	if err != nil {
		t.Fatalf("maybeClone: %v", err)
	}
	if got != idx {
		t.Errorf("maybeClone(p, p, idx) = %d, want %d unchanged", got, idx)
	}
}

func TestRawAppendPreservesSequentialIndexes(t *testing.T) {
	p := NewConstantPool()
	a := p.rawAppend(Entry{Kind: TagInteger, IntValue: 1})
	b := p.rawAppend(Entry{Kind: TagInteger, IntValue: 1}) // structurally equal, must NOT intern
	if b != a+1 {
		t.Errorf("rawAppend deduplicated structurally-equal entries: got index %d after %d, want %d", b, a, a+1)
	}
}
