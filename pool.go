// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classfile

import (
	"fmt"
	"math"
)

// Tag identifies a constant-pool entry's kind, matching the u1 tag byte
// JVMS 4.4 Table 4.4-A assigns to each constant_pool entry.
type Tag uint8

const (
	TagUtf8               Tag = 1
	TagInteger            Tag = 3
	TagFloat              Tag = 4
	TagLong               Tag = 5
	TagDouble             Tag = 6
	TagClass              Tag = 7
	TagString             Tag = 8
	TagFieldref           Tag = 9
	TagMethodref          Tag = 10
	TagInterfaceMethodref Tag = 11
	TagNameAndType        Tag = 12
	TagMethodHandle       Tag = 15
	TagMethodType         Tag = 16
	TagDynamic            Tag = 17
	TagInvokeDynamic      Tag = 18
	TagModule             Tag = 19
	TagPackage            Tag = 20

	// tagReserved marks the second slot occupied by a Long or Double entry;
	// JVMS 4.4.5: "In retrospect, making 8-byte constants take two constant
	// pool entries was a poor choice." The slot is never independently
	// resolvable.
	tagReserved Tag = 0
)

// Entry is a single constant-pool entry, represented as a tagged union: only
// the fields relevant to Kind are meaningful. Two entries with the same Kind
// and the same relevant fields are structurally equal and intern to the
// same index (spec: "equality across entries is structural on payload").
type Entry struct {
	Kind Tag

	// Utf8
	UTF8Bytes []byte

	lazyText    string
	lazyDecoded bool

	// Integer / Float
	IntValue   int32
	FloatValue float32

	// Long / Double
	LongValue   int64
	DoubleValue float64

	// Class.name_index, String.string_index, Module.name_index,
	// Package.name_index, MethodType.descriptor_index: all single-Utf8 (or
	// single-Class, for String it's actually a Utf8 index) references reuse
	// this field to avoid one struct field per tag.
	NameIndex uint16

	// Fieldref / Methodref / InterfaceMethodref
	ClassIndex       uint16
	NameAndTypeIndex uint16

	// NameAndType
	DescriptorIndex uint16

	// MethodHandle
	RefKind  uint8
	RefIndex uint16

	// Dynamic / InvokeDynamic
	BootstrapMethodAttrIndex uint16
}

// Width reports how many constant_pool slots this entry occupies: 2 for
// Long/Double, 1 otherwise.
func (e Entry) Width() int {
	if e.Kind == TagLong || e.Kind == TagDouble {
		return 2
	}
	return 1
}

func (e Entry) structKey() string {
	switch e.Kind {
	case TagUtf8:
		return fmt.Sprintf("utf8:%x", e.UTF8Bytes)
	case TagInteger:
		return fmt.Sprintf("int:%d", e.IntValue)
	case TagFloat:
		return fmt.Sprintf("float:%d", math.Float32bits(e.FloatValue))
	case TagLong:
		return fmt.Sprintf("long:%d", e.LongValue)
	case TagDouble:
		return fmt.Sprintf("double:%d", math.Float64bits(e.DoubleValue))
	case TagClass, TagString, TagModule, TagPackage:
		return fmt.Sprintf("%d:name=%d", e.Kind, e.NameIndex)
	case TagFieldref, TagMethodref, TagInterfaceMethodref:
		return fmt.Sprintf("%d:class=%d,nt=%d", e.Kind, e.ClassIndex, e.NameAndTypeIndex)
	case TagNameAndType:
		return fmt.Sprintf("nt:name=%d,desc=%d", e.NameIndex, e.DescriptorIndex)
	case TagMethodHandle:
		return fmt.Sprintf("mh:kind=%d,ref=%d", e.RefKind, e.RefIndex)
	case TagMethodType:
		return fmt.Sprintf("mt:desc=%d", e.NameIndex)
	case TagDynamic, TagInvokeDynamic:
		return fmt.Sprintf("%d:bsm=%d,nt=%d", e.Kind, e.BootstrapMethodAttrIndex, e.NameAndTypeIndex)
	default:
		return fmt.Sprintf("?%d", e.Kind)
	}
}

// ConstantPool is the per-classfile table of shared constants, indexed
// 1..N. Index 0 is never valid. A pool may be bound (decoded lazily from a
// ClassModel's source buffer — in this implementation pool entries other
// than Utf8 text are decoded eagerly at parse time since every later
// section references the pool, but Utf8 Modified-UTF-8 decoding to a Go
// string is deferred to first use and memoized) or unbound (built fresh by
// a ClassBuilder).
type ConstantPool struct {
	entries []Entry // entries[0] is an unused placeholder so index i lives at entries[i]
	index   map[string]uint16
}

// NewConstantPool returns an empty, unbound pool.
func NewConstantPool() *ConstantPool {
	return &ConstantPool{
		entries: []Entry{{}},
		index:   make(map[string]uint16),
	}
}

// Size returns the classfile header's constant_pool_count field: the
// number of slots including the unused index-0 placeholder.
func (p *ConstantPool) Size() uint16 {
	return uint16(len(p.entries))
}

// Entry resolves index to its entry. Index 0, an index at or past the
// pool's size, or the reserved second slot of a Long/Double all fail with
// ConstantPoolException.
func (p *ConstantPool) Entry(index uint16) (Entry, error) {
	if index == 0 || int(index) >= len(p.entries) {
		return Entry{}, poolError("index %d out of range (size %d)", index, len(p.entries))
	}
	e := p.entries[index]
	if e.Kind == tagReserved {
		return Entry{}, poolError("index %d references the reserved half of a long/double entry", index)
	}
	return e, nil
}

// rawAppend appends e at the next sequential index, bypassing interning.
// Used only while parsing: a source classfile's constant pool is copied
// verbatim, preserving any pre-existing structural duplicates, rather than
// deduplicated the way building/interning would. The interning map is still
// populated so a later SHARED_POOL transform sees this pool's entries as
// candidates for reuse.
func (p *ConstantPool) rawAppend(e Entry) uint16 {
	idx := uint16(len(p.entries))
	p.entries = append(p.entries, e)
	if _, exists := p.index[e.structKey()]; !exists {
		p.index[e.structKey()] = idx
	}
	if e.Width() == 2 {
		p.entries = append(p.entries, Entry{Kind: tagReserved})
	}
	return idx
}

// EntryOfKind resolves index and additionally checks that its tag matches
// want, the shape every typed accessor (Utf8Text and the like) needs.
func (p *ConstantPool) EntryOfKind(index uint16, want Tag) (Entry, error) {
	e, err := p.Entry(index)
	if err != nil {
		return Entry{}, err
	}
	if e.Kind != want {
		return Entry{}, poolError("index %d has tag %d, want %d", index, e.Kind, want)
	}
	return e, nil
}

// Index inserts e, or finds a structurally-equal existing entry, and
// returns its 1-based index. This is the build/transform-time interning
// path; parse-time population goes through rawAppend instead, which keeps
// the source's indices and duplicates.
func (p *ConstantPool) Index(e Entry) (uint16, error) {
	key := e.structKey()
	if idx, ok := p.index[key]; ok {
		return idx, nil
	}
	width := e.Width()
	if len(p.entries)+width-1 > 0xFFFF {
		return 0, poolError("pool full (would exceed 65535 entries)")
	}
	idx := uint16(len(p.entries))
	p.entries = append(p.entries, e)
	if width == 2 {
		p.entries = append(p.entries, Entry{Kind: tagReserved})
	}
	p.index[key] = idx
	return idx, nil
}

// Utf8Text returns the decoded Modified-UTF-8 string for a Utf8 entry,
// decoding and memoizing on first access (the lazy-decoding pattern spec.md
// design notes call for: "a single-assignment memoization slot per lazy
// field").
func (p *ConstantPool) Utf8Text(index uint16) (string, error) {
	e, err := p.EntryOfKind(index, TagUtf8)
	if err != nil {
		return "", err
	}
	if e.lazyDecoded {
		return e.lazyText, nil
	}
	text, err := decodeModifiedUTF8(e.UTF8Bytes)
	if err != nil {
		return "", err
	}
	e.lazyDecoded = true
	e.lazyText = text
	p.entries[index] = e
	return text, nil
}

// Utf8 interns a Go string as a Utf8 entry and returns its index.
func (p *ConstantPool) Utf8(s string) (uint16, error) {
	return p.Index(Entry{Kind: TagUtf8, UTF8Bytes: encodeModifiedUTF8(s), lazyText: s, lazyDecoded: true})
}

// Class interns a Class entry naming the given internal class/array name
// (e.g. "java/lang/Object") and returns its index.
func (p *ConstantPool) Class(internalName string) (uint16, error) {
	nameIdx, err := p.Utf8(internalName)
	if err != nil {
		return 0, err
	}
	return p.Index(Entry{Kind: TagClass, NameIndex: nameIdx})
}

// NameAndType interns a NameAndType entry.
func (p *ConstantPool) NameAndType(name, descriptor string) (uint16, error) {
	n, err := p.Utf8(name)
	if err != nil {
		return 0, err
	}
	d, err := p.Utf8(descriptor)
	if err != nil {
		return 0, err
	}
	return p.Index(Entry{Kind: TagNameAndType, NameIndex: n, DescriptorIndex: d})
}

// Fieldref interns a Fieldref entry (or Methodref/InterfaceMethodref via
// the sibling helpers below) given an owning class's internal name and the
// member's name/descriptor.
func (p *ConstantPool) Fieldref(class, name, descriptor string) (uint16, error) {
	return p.memberref(TagFieldref, class, name, descriptor)
}

// Methodref interns a Methodref entry.
func (p *ConstantPool) Methodref(class, name, descriptor string) (uint16, error) {
	return p.memberref(TagMethodref, class, name, descriptor)
}

// InterfaceMethodref interns an InterfaceMethodref entry.
func (p *ConstantPool) InterfaceMethodref(class, name, descriptor string) (uint16, error) {
	return p.memberref(TagInterfaceMethodref, class, name, descriptor)
}

func (p *ConstantPool) memberref(kind Tag, class, name, descriptor string) (uint16, error) {
	classIdx, err := p.Class(class)
	if err != nil {
		return 0, err
	}
	ntIdx, err := p.NameAndType(name, descriptor)
	if err != nil {
		return 0, err
	}
	return p.Index(Entry{Kind: kind, ClassIndex: classIdx, NameAndTypeIndex: ntIdx})
}

// String interns a String entry referencing s's Utf8 constant.
func (p *ConstantPool) String(s string) (uint16, error) {
	u, err := p.Utf8(s)
	if err != nil {
		return 0, err
	}
	return p.Index(Entry{Kind: TagString, NameIndex: u})
}

// Integer interns an Integer entry.
func (p *ConstantPool) Integer(v int32) (uint16, error) {
	return p.Index(Entry{Kind: TagInteger, IntValue: v})
}

// Float interns a Float entry.
func (p *ConstantPool) Float(v float32) (uint16, error) {
	return p.Index(Entry{Kind: TagFloat, FloatValue: v})
}

// Long interns a Long entry (occupies two pool slots).
func (p *ConstantPool) Long(v int64) (uint16, error) {
	return p.Index(Entry{Kind: TagLong, LongValue: v})
}

// Double interns a Double entry (occupies two pool slots).
func (p *ConstantPool) Double(v float64) (uint16, error) {
	return p.Index(Entry{Kind: TagDouble, DoubleValue: v})
}

// maybeClone re-interns e (sourced from another pool) against p and returns
// p's resident index, or, if e already came from p, returns it unchanged.
// This is AbstractPoolEntry.maybeClone from spec.md §4.2: the mechanism
// NEW_POOL transforms use to migrate referenced entries (and,
// recursively, their children) into the new pool; SHARED_POOL transforms
// keep source indices and never call it.
func (p *ConstantPool) maybeClone(src *ConstantPool, index uint16) (uint16, error) {
	if src == p {
		return index, nil
	}
	e, err := src.Entry(index)
	if err != nil {
		return 0, err
	}
	clone := e
	clone.lazyDecoded = false
	clone.lazyText = ""
	switch e.Kind {
	case TagClass, TagString, TagModule, TagPackage:
		idx, err := p.maybeClone(src, e.NameIndex)
		if err != nil {
			return 0, err
		}
		clone.NameIndex = idx
	case TagFieldref, TagMethodref, TagInterfaceMethodref:
		ci, err := p.maybeClone(src, e.ClassIndex)
		if err != nil {
			return 0, err
		}
		ni, err := p.maybeClone(src, e.NameAndTypeIndex)
		if err != nil {
			return 0, err
		}
		clone.ClassIndex, clone.NameAndTypeIndex = ci, ni
	case TagNameAndType:
		ni, err := p.maybeClone(src, e.NameIndex)
		if err != nil {
			return 0, err
		}
		di, err := p.maybeClone(src, e.DescriptorIndex)
		if err != nil {
			return 0, err
		}
		clone.NameIndex, clone.DescriptorIndex = ni, di
	case TagMethodHandle:
		ri, err := p.maybeClone(src, e.RefIndex)
		if err != nil {
			return 0, err
		}
		clone.RefIndex = ri
	case TagMethodType:
		ni, err := p.maybeClone(src, e.NameIndex)
		if err != nil {
			return 0, err
		}
		clone.NameIndex = ni
	case TagDynamic, TagInvokeDynamic:
		ni, err := p.maybeClone(src, e.NameAndTypeIndex)
		if err != nil {
			return 0, err
		}
		clone.NameAndTypeIndex = ni
		// BootstrapMethodAttrIndex indexes the BootstrapMethods attribute's
		// array, not the pool, and is copied verbatim by the attribute
		// itself when the class's attribute list is migrated.
	}
	return p.Index(clone)
}
