// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classfile

import "github.com/go-classfile/classfile/internal/bufview"

const classMagic = 0xCAFEBABE

// Parse decodes a classfile from an in-memory byte buffer using cf.Default
// (every option at its spec-mandated default). Parse([]byte) is the
// primary, allocation-agnostic entry point; ParseFile supplements it for
// disk-backed input.
func Parse(b []byte) (*ClassModel, error) {
	return Default.Parse(b)
}

// Parse decodes a classfile from b under c's configured options.
func (c *Classfile) Parse(b []byte) (*ClassModel, error) {
	view := bufview.New(b)

	magic, err := view.U4(0)
	if err != nil {
		return nil, malformed(0, "truncated magic number")
	}
	if magic != classMagic {
		return nil, malformed(0, "bad magic number 0x%08x, want 0x%08x", magic, uint32(classMagic))
	}
	minor, err := view.U2(4)
	if err != nil {
		return nil, malformed(4, "truncated minor_version")
	}
	major, err := view.U2(6)
	if err != nil {
		return nil, malformed(6, "truncated major_version")
	}
	if major < 45 || major > 66 {
		return nil, malformed(6, "unsupported major_version %d (supported: 45-66)", major)
	}

	pool, pos, err := decodeConstantPool(view, 8)
	if err != nil {
		return nil, err
	}

	access, err := view.U2(pos)
	if err != nil {
		return nil, malformed(pos, "truncated access_flags")
	}
	thisClass, err := view.U2(pos + 2)
	if err != nil {
		return nil, malformed(pos, "truncated this_class")
	}
	superClass, err := view.U2(pos + 4)
	if err != nil {
		return nil, malformed(pos, "truncated super_class")
	}
	pos += 6

	ifaceCount, err := view.U2(pos)
	if err != nil {
		return nil, malformed(pos, "truncated interfaces_count")
	}
	pos += 2
	interfaces := make([]uint16, ifaceCount)
	for i := range interfaces {
		v, err := view.U2(pos)
		if err != nil {
			return nil, malformed(pos, "truncated interfaces[%d]", i)
		}
		interfaces[i] = v
		pos += 2
	}

	fields, pos, err := decodeFields(view, pool, pos, major, c.opts)
	if err != nil {
		return nil, err
	}
	methods, pos, err := decodeMethods(view, pool, pos, major, c.opts)
	if err != nil {
		return nil, err
	}

	classAttrCount, err := view.U2(pos)
	if err != nil {
		return nil, malformed(pos, "truncated attributes_count")
	}
	classAttrs, _, err := decodeAttributeList(view, pool, pos+2, int(classAttrCount), major, c.opts)
	if err != nil {
		return nil, err
	}

	log.WithField("this_class", thisClass).WithField("major", major).Debug("parsed classfile")

	return &ClassModel{
		MinorVersion: minor,
		MajorVersion: major,
		AccessFlags:  access,
		ThisClass:    thisClass,
		SuperClass:   superClass,
		Interfaces:   interfaces,
		Fields:       fields,
		Methods:      methods,
		Attributes:   classAttrs,
		Pool:         pool,
	}, nil
}

func decodeConstantPool(view bufview.ByteView, off int) (*ConstantPool, int, error) {
	count, err := view.U2(off)
	if err != nil {
		return nil, 0, malformed(off, "truncated constant_pool_count")
	}
	pool := NewConstantPool()
	pos := off + 2
	// count is "number of entries plus one"; index 0 is never present on
	// the wire (ConstantPool.entries[0] is the same synthetic placeholder
	// NewConstantPool already seeded).
	for i := 1; i < int(count); i++ {
		tag, err := view.U1(pos)
		if err != nil {
			return nil, 0, malformed(pos, "truncated constant pool entry %d tag", i)
		}
		e, n, err := decodePoolEntry(view, pos, Tag(tag))
		if err != nil {
			return nil, 0, err
		}
		idx := pool.rawAppend(e)
		if int(idx) != i {
			return nil, 0, malformed(pos, "constant pool entry %d decoded to index %d", i, idx)
		}
		if e.Width() == 2 {
			i++ // the following index is the entry's reserved second slot
		}
		pos += n
	}
	return pool, pos, nil
}

func decodePoolEntry(view bufview.ByteView, off int, tag Tag) (Entry, int, error) {
	switch tag {
	case TagUtf8:
		n, err := view.U2(off + 1)
		if err != nil {
			return Entry{}, 0, malformed(off, "truncated Utf8 length")
		}
		b, err := view.ReadBytes(off+3, int(n))
		if err != nil {
			return Entry{}, 0, malformed(off, "truncated Utf8 bytes")
		}
		return Entry{Kind: TagUtf8, UTF8Bytes: append([]byte(nil), b...)}, 3 + int(n), nil
	case TagInteger:
		v, err := view.S4(off + 1)
		return Entry{Kind: TagInteger, IntValue: v}, 5, err
	case TagFloat:
		v, err := view.F4(off + 1)
		return Entry{Kind: TagFloat, FloatValue: v}, 5, err
	case TagLong:
		v, err := view.S8(off + 1)
		return Entry{Kind: TagLong, LongValue: v}, 9, err
	case TagDouble:
		v, err := view.F8(off + 1)
		return Entry{Kind: TagDouble, DoubleValue: v}, 9, err
	case TagClass:
		v, err := view.U2(off + 1)
		return Entry{Kind: TagClass, NameIndex: v}, 3, err
	case TagString:
		v, err := view.U2(off + 1)
		return Entry{Kind: TagString, NameIndex: v}, 3, err
	case TagFieldref, TagMethodref, TagInterfaceMethodref:
		cls, err := view.U2(off + 1)
		if err != nil {
			return Entry{}, 0, err
		}
		nt, err := view.U2(off + 3)
		return Entry{Kind: tag, ClassIndex: cls, NameAndTypeIndex: nt}, 5, err
	case TagNameAndType:
		n, err := view.U2(off + 1)
		if err != nil {
			return Entry{}, 0, err
		}
		d, err := view.U2(off + 3)
		return Entry{Kind: TagNameAndType, NameIndex: n, DescriptorIndex: d}, 5, err
	case TagMethodHandle:
		kind, err := view.U1(off + 1)
		if err != nil {
			return Entry{}, 0, err
		}
		ref, err := view.U2(off + 2)
		return Entry{Kind: TagMethodHandle, RefKind: kind, RefIndex: ref}, 4, err
	case TagMethodType:
		v, err := view.U2(off + 1)
		return Entry{Kind: TagMethodType, NameIndex: v}, 3, err
	case TagDynamic, TagInvokeDynamic:
		bsm, err := view.U2(off + 1)
		if err != nil {
			return Entry{}, 0, err
		}
		nt, err := view.U2(off + 3)
		return Entry{Kind: tag, BootstrapMethodAttrIndex: bsm, NameAndTypeIndex: nt}, 5, err
	case TagModule, TagPackage:
		v, err := view.U2(off + 1)
		return Entry{Kind: tag, NameIndex: v}, 3, err
	}
	return Entry{}, 0, malformed(off, "unknown constant pool tag %d", tag)
}

func decodeFields(view bufview.ByteView, pool *ConstantPool, off int, classVersion uint16, opts Options) ([]FieldModel, int, error) {
	count, err := view.U2(off)
	if err != nil {
		return nil, 0, malformed(off, "truncated fields_count")
	}
	pos := off + 2
	out := make([]FieldModel, count)
	for i := range out {
		access, err := view.U2(pos)
		if err != nil {
			return nil, 0, malformed(pos, "truncated field_info %d", i)
		}
		name, err := view.U2(pos + 2)
		if err != nil {
			return nil, 0, err
		}
		desc, err := view.U2(pos + 4)
		if err != nil {
			return nil, 0, err
		}
		attrCount, err := view.U2(pos + 6)
		if err != nil {
			return nil, 0, err
		}
		attrs, next, err := decodeAttributeList(view, pool, pos+8, int(attrCount), classVersion, opts)
		if err != nil {
			return nil, 0, err
		}
		out[i] = FieldModel{AccessFlags: access, NameIndex: name, DescriptorIndex: desc, Attributes: attrs, pool: pool}
		pos = next
	}
	return out, pos, nil
}

func decodeMethods(view bufview.ByteView, pool *ConstantPool, off int, classVersion uint16, opts Options) ([]MethodModel, int, error) {
	count, err := view.U2(off)
	if err != nil {
		return nil, 0, malformed(off, "truncated methods_count")
	}
	pos := off + 2
	out := make([]MethodModel, count)
	for i := range out {
		access, err := view.U2(pos)
		if err != nil {
			return nil, 0, malformed(pos, "truncated method_info %d", i)
		}
		name, err := view.U2(pos + 2)
		if err != nil {
			return nil, 0, err
		}
		desc, err := view.U2(pos + 4)
		if err != nil {
			return nil, 0, err
		}
		attrCount, err := view.U2(pos + 6)
		if err != nil {
			return nil, 0, err
		}
		attrs, next, err := decodeAttributeList(view, pool, pos+8, int(attrCount), classVersion, opts)
		if err != nil {
			return nil, 0, err
		}
		out[i] = MethodModel{AccessFlags: access, NameIndex: name, DescriptorIndex: desc, Attributes: attrs, pool: pool}
		pos = next
	}
	return out, pos, nil
}
