// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classfile

import "github.com/go-classfile/classfile/internal/bufview"

// AttributeKind discriminates the built-in attributes this codec
// understands structurally. AttrUnknown covers every attribute name the
// AttributeRegistry has no decoder for (or that the unknownAttributes
// option configures to pass through raw): its Raw field holds the
// attribute_content bytes verbatim.
type AttributeKind int

const (
	AttrUnknown AttributeKind = iota
	AttrConstantValue
	AttrCode
	AttrExceptions
	AttrSourceFile
	AttrLineNumberTable
	AttrLocalVariableTable
	AttrLocalVariableTypeTable
	AttrStackMapTable
	AttrSynthetic
	AttrDeprecated
	AttrSourceDebugExtension
	AttrBootstrapMethods
	AttrInnerClasses
	AttrEnclosingMethod
	AttrSignature
)

// attrNames maps every built-in AttributeKind to its canonical Utf8 name, the
// wire-format discriminant (JVMS 4.7 names attributes by Utf8, not by a
// fixed tag byte — unlike the constant pool, the attribute set is open).
var attrNames = map[AttributeKind]string{
	AttrConstantValue:          "ConstantValue",
	AttrCode:                   "Code",
	AttrExceptions:             "Exceptions",
	AttrSourceFile:             "SourceFile",
	AttrLineNumberTable:        "LineNumberTable",
	AttrLocalVariableTable:     "LocalVariableTable",
	AttrLocalVariableTypeTable: "LocalVariableTypeTable",
	AttrStackMapTable:          "StackMapTable",
	AttrSynthetic:              "Synthetic",
	AttrDeprecated:             "Deprecated",
	AttrSourceDebugExtension:   "SourceDebugExtension",
	AttrBootstrapMethods:       "BootstrapMethods",
	AttrInnerClasses:           "InnerClasses",
	AttrEnclosingMethod:        "EnclosingMethod",
	AttrSignature:              "Signature",
}

var attrKindByName = func() map[string]AttributeKind {
	m := make(map[string]AttributeKind, len(attrNames))
	for k, v := range attrNames {
		m[v] = k
	}
	return m
}()

// LineNumberRow is one row of a LineNumberTable attribute.
type LineNumberRow struct {
	StartPC uint16
	Line    uint16
}

// LocalVariableRow is one row of a LocalVariableTable attribute.
type LocalVariableRow struct {
	StartPC, Length           uint16
	NameIndex, DescriptorIndex uint16
	Slot                      uint16
}

// LocalVariableTypeRow is one row of a LocalVariableTypeTable attribute
// (same shape as LocalVariableRow with a generic-signature Utf8 in place
// of a descriptor).
type LocalVariableTypeRow struct {
	StartPC, Length         uint16
	NameIndex, SignatureIndex uint16
	Slot                    uint16
}

// InnerClassRow is one row of an InnerClasses attribute.
type InnerClassRow struct {
	InnerClassInfoIndex, OuterClassInfoIndex, InnerNameIndex uint16
	InnerClassAccessFlags                                   uint16
}

// BootstrapMethod is one entry of a BootstrapMethods attribute, referenced
// by a Dynamic/InvokeDynamic pool entry's BootstrapMethodAttrIndex.
type BootstrapMethod struct {
	MethodRefIndex uint16
	Arguments      []uint16
}

// Attribute is a decoded attribute_info structure. Exactly the fields
// relevant to Kind are populated; AttrUnknown (and any built-in kind under
// DROP_UNKNOWN_ATTRIBUTES/PASS_UNKNOWN_ATTRIBUTES misrouting) carries its
// payload as opaque Raw bytes instead.
type Attribute struct {
	Kind AttributeKind
	Name string // always populated, even for AttrUnknown

	Raw []byte // AttrUnknown, and any kind this build chose not to parse structurally

	ConstantValueIndex uint16 // AttrConstantValue

	Code *CodeModel // AttrCode

	ExceptionIndexTable []uint16 // AttrExceptions: Class entries of declared checked exceptions

	SourceFileIndex uint16 // AttrSourceFile

	LineNumbers        []LineNumberRow        // AttrLineNumberTable
	LocalVariables     []LocalVariableRow     // AttrLocalVariableTable
	LocalVariableTypes []LocalVariableTypeRow // AttrLocalVariableTypeTable

	StackMapFrames []StackMapFrame // AttrStackMapTable, decoded to absolute bci form

	BootstrapMethods []BootstrapMethod // AttrBootstrapMethods

	InnerClasses []InnerClassRow // AttrInnerClasses

	EnclosingClassIndex, EnclosingMethodIndex uint16 // AttrEnclosingMethod

	SignatureIndex uint16 // AttrSignature
}

// AttributeCodec is the decode/encode pair the AttributeRegistry dispatches
// to by name, per spec.md §4.3.
type AttributeCodec struct {
	Decode func(view bufview.ByteView, pool *ConstantPool, off, length int, classVersion uint16) (Attribute, error)
	Encode func(a Attribute, buf *bufview.ByteBuf, pool *ConstantPool) error
}

// decodeAttributeList reads count attribute_info structures starting at
// off, honoring the unknownAttributes policy and custom mapper in opts.
func decodeAttributeList(view bufview.ByteView, pool *ConstantPool, off int, count int, classVersion uint16, opts Options) ([]Attribute, int, error) {
	out := make([]Attribute, 0, count)
	pos := off
	for i := 0; i < count; i++ {
		nameIdx, err := view.U2(pos)
		if err != nil {
			return nil, 0, malformed(pos, "truncated attribute_name_index")
		}
		length, err := view.U4(pos + 2)
		if err != nil {
			return nil, 0, malformed(pos, "truncated attribute_length")
		}
		name, err := pool.Utf8Text(nameIdx)
		if err != nil {
			return nil, 0, err
		}
		contentOff := pos + 6
		a, err := decodeOneAttribute(view, pool, name, contentOff, int(length), classVersion, opts)
		if err != nil {
			return nil, 0, err
		}
		pos = contentOff + int(length)
		if a.Kind == AttrUnknown && a.Raw == nil && opts.UnknownAttributes == DropUnknownAttributes {
			continue // dropped unknown attribute: leave it out of the list
		}
		out = append(out, a)
	}
	return out, pos, nil
}

func decodeOneAttribute(view bufview.ByteView, pool *ConstantPool, name string, off, length int, classVersion uint16, opts Options) (Attribute, error) {
	if opts.AttributeMapper != nil {
		if codec, ok := opts.AttributeMapper(name); ok {
			return codec.Decode(view, pool, off, length, classVersion)
		}
	}
	kind, known := attrKindByName[name]
	if !known {
		if opts.UnknownAttributes == DropUnknownAttributes {
			return Attribute{Kind: AttrUnknown, Name: name}, nil
		}
		raw, err := view.ReadBytes(off, length)
		if err != nil {
			return Attribute{}, malformed(off, "truncated attribute %q", name)
		}
		return Attribute{Kind: AttrUnknown, Name: name, Raw: append([]byte(nil), raw...)}, nil
	}
	switch kind {
	case AttrConstantValue:
		v, err := view.U2(off)
		return Attribute{Kind: kind, Name: name, ConstantValueIndex: v}, err
	case AttrCode:
		return decodeCodeAttribute(view, pool, name, off, classVersion, opts)
	case AttrExceptions:
		return decodeExceptions(view, name, off)
	case AttrSourceFile:
		v, err := view.U2(off)
		return Attribute{Kind: kind, Name: name, SourceFileIndex: v}, err
	case AttrLineNumberTable:
		return decodeLineNumberTable(view, name, off)
	case AttrLocalVariableTable:
		return decodeLocalVariableTable(view, name, off)
	case AttrLocalVariableTypeTable:
		return decodeLocalVariableTypeTable(view, name, off)
	case AttrStackMapTable:
		return decodeStackMapTable(view, name, off)
	case AttrSynthetic, AttrDeprecated:
		return Attribute{Kind: kind, Name: name}, nil
	case AttrSourceDebugExtension:
		raw, err := view.ReadBytes(off, length)
		return Attribute{Kind: kind, Name: name, Raw: append([]byte(nil), raw...)}, err
	case AttrBootstrapMethods:
		return decodeBootstrapMethods(view, name, off)
	case AttrInnerClasses:
		return decodeInnerClasses(view, name, off)
	case AttrEnclosingMethod:
		cls, err := view.U2(off)
		if err != nil {
			return Attribute{}, err
		}
		meth, err := view.U2(off + 2)
		return Attribute{Kind: kind, Name: name, EnclosingClassIndex: cls, EnclosingMethodIndex: meth}, err
	case AttrSignature:
		v, err := view.U2(off)
		return Attribute{Kind: kind, Name: name, SignatureIndex: v}, err
	}
	raw, err := view.ReadBytes(off, length)
	return Attribute{Kind: AttrUnknown, Name: name, Raw: append([]byte(nil), raw...)}, err
}

func decodeExceptions(view bufview.ByteView, name string, off int) (Attribute, error) {
	n, err := view.U2(off)
	if err != nil {
		return Attribute{}, err
	}
	idx := make([]uint16, n)
	for i := range idx {
		v, err := view.U2(off + 2 + i*2)
		if err != nil {
			return Attribute{}, err
		}
		idx[i] = v
	}
	return Attribute{Kind: AttrExceptions, Name: name, ExceptionIndexTable: idx}, nil
}

func decodeLineNumberTable(view bufview.ByteView, name string, off int) (Attribute, error) {
	n, err := view.U2(off)
	if err != nil {
		return Attribute{}, err
	}
	rows := make([]LineNumberRow, n)
	for i := range rows {
		p := off + 2 + i*4
		start, err := view.U2(p)
		if err != nil {
			return Attribute{}, err
		}
		line, err := view.U2(p + 2)
		if err != nil {
			return Attribute{}, err
		}
		rows[i] = LineNumberRow{StartPC: start, Line: line}
	}
	return Attribute{Kind: AttrLineNumberTable, Name: name, LineNumbers: rows}, nil
}

func decodeLocalVariableTable(view bufview.ByteView, name string, off int) (Attribute, error) {
	n, err := view.U2(off)
	if err != nil {
		return Attribute{}, err
	}
	rows := make([]LocalVariableRow, n)
	for i := range rows {
		p := off + 2 + i*10
		start, _ := view.U2(p)
		length, _ := view.U2(p + 2)
		nameIdx, _ := view.U2(p + 4)
		descIdx, _ := view.U2(p + 6)
		slot, err := view.U2(p + 8)
		if err != nil {
			return Attribute{}, err
		}
		rows[i] = LocalVariableRow{StartPC: start, Length: length, NameIndex: nameIdx, DescriptorIndex: descIdx, Slot: slot}
	}
	return Attribute{Kind: AttrLocalVariableTable, Name: name, LocalVariables: rows}, nil
}

func decodeLocalVariableTypeTable(view bufview.ByteView, name string, off int) (Attribute, error) {
	n, err := view.U2(off)
	if err != nil {
		return Attribute{}, err
	}
	rows := make([]LocalVariableTypeRow, n)
	for i := range rows {
		p := off + 2 + i*10
		start, _ := view.U2(p)
		length, _ := view.U2(p + 2)
		nameIdx, _ := view.U2(p + 4)
		sigIdx, _ := view.U2(p + 6)
		slot, err := view.U2(p + 8)
		if err != nil {
			return Attribute{}, err
		}
		rows[i] = LocalVariableTypeRow{StartPC: start, Length: length, NameIndex: nameIdx, SignatureIndex: sigIdx, Slot: slot}
	}
	return Attribute{Kind: AttrLocalVariableTypeTable, Name: name, LocalVariableTypes: rows}, nil
}

func decodeInnerClasses(view bufview.ByteView, name string, off int) (Attribute, error) {
	n, err := view.U2(off)
	if err != nil {
		return Attribute{}, err
	}
	rows := make([]InnerClassRow, n)
	for i := range rows {
		p := off + 2 + i*8
		inner, _ := view.U2(p)
		outer, _ := view.U2(p + 2)
		innerName, _ := view.U2(p + 4)
		flags, err := view.U2(p + 6)
		if err != nil {
			return Attribute{}, err
		}
		rows[i] = InnerClassRow{InnerClassInfoIndex: inner, OuterClassInfoIndex: outer, InnerNameIndex: innerName, InnerClassAccessFlags: flags}
	}
	return Attribute{Kind: AttrInnerClasses, Name: name, InnerClasses: rows}, nil
}

func decodeBootstrapMethods(view bufview.ByteView, name string, off int) (Attribute, error) {
	n, err := view.U2(off)
	if err != nil {
		return Attribute{}, err
	}
	methods := make([]BootstrapMethod, n)
	p := off + 2
	for i := range methods {
		ref, err := view.U2(p)
		if err != nil {
			return Attribute{}, err
		}
		argc, err := view.U2(p + 2)
		if err != nil {
			return Attribute{}, err
		}
		args := make([]uint16, argc)
		for j := range args {
			v, err := view.U2(p + 4 + j*2)
			if err != nil {
				return Attribute{}, err
			}
			args[j] = v
		}
		methods[i] = BootstrapMethod{MethodRefIndex: ref, Arguments: args}
		p += 4 + int(argc)*2
	}
	return Attribute{Kind: AttrBootstrapMethods, Name: name, BootstrapMethods: methods}, nil
}

// decodeCodeAttribute decodes the Code attribute, including its own nested
// attribute list (LineNumberTable, LocalVariableTable(Type), StackMapTable,
// and anything else present).
func decodeCodeAttribute(view bufview.ByteView, pool *ConstantPool, name string, off int, classVersion uint16, opts Options) (Attribute, error) {
	maxStack, err := view.U2(off)
	if err != nil {
		return Attribute{}, malformed(off, "truncated Code.max_stack")
	}
	maxLocals, err := view.U2(off + 2)
	if err != nil {
		return Attribute{}, malformed(off, "truncated Code.max_locals")
	}
	codeLen, err := view.U4(off + 4)
	if err != nil {
		return Attribute{}, malformed(off, "truncated Code.code_length")
	}
	codeOff := off + 8
	code, err := view.ReadBytes(codeOff, int(codeLen))
	if err != nil {
		return Attribute{}, malformed(codeOff, "truncated Code.code")
	}
	etOff := codeOff + int(codeLen)
	etCount, err := view.U2(etOff)
	if err != nil {
		return Attribute{}, malformed(etOff, "truncated Code.exception_table_length")
	}
	et := make([]ExceptionTableEntry, etCount)
	p := etOff + 2
	for i := range et {
		start, _ := view.U2(p)
		end, _ := view.U2(p + 2)
		handler, _ := view.U2(p + 4)
		catch, err := view.U2(p + 6)
		if err != nil {
			return Attribute{}, malformed(p, "truncated exception_table entry %d", i)
		}
		et[i] = ExceptionTableEntry{StartPC: start, EndPC: end, HandlerPC: handler, CatchType: catch}
		p += 8
	}
	attrCount, err := view.U2(p)
	if err != nil {
		return Attribute{}, malformed(p, "truncated Code.attributes_count")
	}
	subAttrs, _, err := decodeAttributeList(view, pool, p+2, int(attrCount), classVersion, opts)
	if err != nil {
		return Attribute{}, err
	}

	cm := &CodeModel{
		MaxStack:       maxStack,
		MaxLocals:      maxLocals,
		Code:           append([]byte(nil), code...),
		ExceptionTable: et,
		Attributes:     subAttrs,
		pool:           pool,
	}
	return Attribute{Kind: AttrCode, Name: name, Code: cm}, nil
}

func decodeStackMapTable(view bufview.ByteView, name string, off int) (Attribute, error) {
	n, err := view.U2(off)
	if err != nil {
		return Attribute{}, err
	}
	pos := off + 2
	frames := make([]StackMapFrame, 0, n)
	bci := -1 // first frame's offset_delta is absolute; every later one is relative to the previous frame's bci + 1
	var prevLocals []VerificationType
	for i := 0; i < int(n); i++ {
		tag, err := view.U1(pos)
		if err != nil {
			return Attribute{}, malformed(pos, "truncated stack map frame %d", i)
		}
		pos++
		var delta int
		var locals, stack []VerificationType
		switch {
		case tag <= 63:
			delta = int(tag)
			locals = prevLocals
		case tag <= 127:
			delta = int(tag) - 64
			locals = prevLocals
			vt, n2, err := decodeVType(view, pos)
			if err != nil {
				return Attribute{}, err
			}
			stack = []VerificationType{vt}
			pos += n2
		case tag == 247: // same_locals_1_stack_item_frame_extended
			d, err := view.U2(pos)
			if err != nil {
				return Attribute{}, err
			}
			pos += 2
			delta = int(d)
			locals = prevLocals
			vt, n2, err := decodeVType(view, pos)
			if err != nil {
				return Attribute{}, err
			}
			stack = []VerificationType{vt}
			pos += n2
		case tag >= 248 && tag <= 250: // chop
			d, err := view.U2(pos)
			if err != nil {
				return Attribute{}, err
			}
			pos += 2
			delta = int(d)
			chop := int(251 - tag)
			if chop > len(prevLocals) {
				chop = len(prevLocals)
			}
			locals = append([]VerificationType(nil), prevLocals[:len(prevLocals)-chop]...)
		case tag == 251: // same_frame_extended
			d, err := view.U2(pos)
			if err != nil {
				return Attribute{}, err
			}
			pos += 2
			delta = int(d)
			locals = prevLocals
		case tag >= 252 && tag <= 254: // append
			d, err := view.U2(pos)
			if err != nil {
				return Attribute{}, err
			}
			pos += 2
			delta = int(d)
			extra := int(tag - 251)
			locals = append([]VerificationType(nil), prevLocals...)
			for k := 0; k < extra; k++ {
				vt, n2, err := decodeVType(view, pos)
				if err != nil {
					return Attribute{}, err
				}
				locals = append(locals, vt)
				pos += n2
			}
		case tag == 255: // full_frame
			d, err := view.U2(pos)
			if err != nil {
				return Attribute{}, err
			}
			pos += 2
			delta = int(d)
			nLocals, err := view.U2(pos)
			if err != nil {
				return Attribute{}, err
			}
			pos += 2
			locals = make([]VerificationType, nLocals)
			for k := range locals {
				vt, n2, err := decodeVType(view, pos)
				if err != nil {
					return Attribute{}, err
				}
				locals[k] = vt
				pos += n2
			}
			nStack, err := view.U2(pos)
			if err != nil {
				return Attribute{}, err
			}
			pos += 2
			stack = make([]VerificationType, nStack)
			for k := range stack {
				vt, n2, err := decodeVType(view, pos)
				if err != nil {
					return Attribute{}, err
				}
				stack[k] = vt
				pos += n2
			}
		default:
			return Attribute{}, malformed(pos, "reserved stack map frame tag %d", tag)
		}
		if bci < 0 {
			bci = delta
		} else {
			bci = bci + delta + 1
		}
		frames = append(frames, StackMapFrame{BCI: bci, Locals: locals, Stack: stack})
		prevLocals = locals
	}
	return Attribute{Kind: AttrStackMapTable, Name: name, StackMapFrames: frames}, nil
}

func decodeVType(view bufview.ByteView, off int) (VerificationType, int, error) {
	tag, err := view.U1(off)
	if err != nil {
		return VerificationType{}, 0, err
	}
	switch tag {
	case 0:
		return VTTop, 1, nil
	case 1:
		return VTInteger, 1, nil
	case 2:
		return VTFloat, 1, nil
	case 3:
		return VTDouble, 1, nil
	case 4:
		return VTLong, 1, nil
	case 5:
		return VTNull, 1, nil
	case 6:
		return VTUninitializedThis, 1, nil
	case 7:
		cls, err := view.U2(off + 1)
		return VTObject(cls), 3, err
	case 8:
		bci, err := view.U2(off + 1)
		return VTUninitialized(int(bci)), 3, err
	}
	return VerificationType{}, 0, malformed(off, "invalid verification_type_info tag %d", tag)
}

// encodeAttributeList writes a sequence of attributes with their u2 count
// prefix, using the AttributeRegistry's encoders (or Raw pass-through for
// AttrUnknown / unrecognized kinds).
func encodeAttributeList(buf *bufview.ByteBuf, pool *ConstantPool, attrs []Attribute) error {
	buf.WriteU2(uint16(len(attrs)))
	for _, a := range attrs {
		if err := encodeOneAttribute(buf, pool, a); err != nil {
			return err
		}
	}
	return nil
}

func encodeOneAttribute(buf *bufview.ByteBuf, pool *ConstantPool, a Attribute) error {
	nameIdx, err := pool.Utf8(a.Name)
	if err != nil {
		return err
	}
	buf.WriteU2(nameIdx)
	lenPos := buf.Mark()
	buf.WriteU4(0) // patched below once the payload length is known
	payloadStart := buf.Mark()

	switch a.Kind {
	case AttrConstantValue:
		buf.WriteU2(a.ConstantValueIndex)
	case AttrCode:
		if err := encodeCodeAttribute(buf, pool, a.Code); err != nil {
			return err
		}
	case AttrExceptions:
		buf.WriteU2(uint16(len(a.ExceptionIndexTable)))
		for _, idx := range a.ExceptionIndexTable {
			buf.WriteU2(idx)
		}
	case AttrSourceFile:
		buf.WriteU2(a.SourceFileIndex)
	case AttrLineNumberTable:
		buf.WriteU2(uint16(len(a.LineNumbers)))
		for _, row := range a.LineNumbers {
			buf.WriteU2(row.StartPC)
			buf.WriteU2(row.Line)
		}
	case AttrLocalVariableTable:
		buf.WriteU2(uint16(len(a.LocalVariables)))
		for _, row := range a.LocalVariables {
			buf.WriteU2(row.StartPC)
			buf.WriteU2(row.Length)
			buf.WriteU2(row.NameIndex)
			buf.WriteU2(row.DescriptorIndex)
			buf.WriteU2(row.Slot)
		}
	case AttrLocalVariableTypeTable:
		buf.WriteU2(uint16(len(a.LocalVariableTypes)))
		for _, row := range a.LocalVariableTypes {
			buf.WriteU2(row.StartPC)
			buf.WriteU2(row.Length)
			buf.WriteU2(row.NameIndex)
			buf.WriteU2(row.SignatureIndex)
			buf.WriteU2(row.Slot)
		}
	case AttrStackMapTable:
		encodeStackMapTable(buf, a.StackMapFrames)
	case AttrSynthetic, AttrDeprecated:
		// no payload
	case AttrSourceDebugExtension:
		buf.WriteBytes(a.Raw)
	case AttrBootstrapMethods:
		buf.WriteU2(uint16(len(a.BootstrapMethods)))
		for _, m := range a.BootstrapMethods {
			buf.WriteU2(m.MethodRefIndex)
			buf.WriteU2(uint16(len(m.Arguments)))
			for _, arg := range m.Arguments {
				buf.WriteU2(arg)
			}
		}
	case AttrInnerClasses:
		buf.WriteU2(uint16(len(a.InnerClasses)))
		for _, row := range a.InnerClasses {
			buf.WriteU2(row.InnerClassInfoIndex)
			buf.WriteU2(row.OuterClassInfoIndex)
			buf.WriteU2(row.InnerNameIndex)
			buf.WriteU2(row.InnerClassAccessFlags)
		}
	case AttrEnclosingMethod:
		buf.WriteU2(a.EnclosingClassIndex)
		buf.WriteU2(a.EnclosingMethodIndex)
	case AttrSignature:
		buf.WriteU2(a.SignatureIndex)
	default:
		buf.WriteBytes(a.Raw)
	}

	buf.PatchU4(lenPos, uint32(buf.Size()-payloadStart))
	return nil
}

func encodeStackMapTable(buf *bufview.ByteBuf, frames []StackMapFrame) {
	buf.WriteU2(uint16(len(frames)))
	prevBCI := -1
	var prevLocals []VerificationType
	for _, f := range frames {
		delta := f.BCI
		if prevBCI >= 0 {
			delta = f.BCI - prevBCI - 1
		}
		encodeOneFrame(buf, f, delta, prevLocals)
		prevBCI = f.BCI
		prevLocals = f.Locals
	}
}

func encodeOneFrame(buf *bufview.ByteBuf, f StackMapFrame, delta int, prevLocals []VerificationType) {
	sameLocals := len(f.Locals) == len(prevLocals) && vtypeSlicesEqual(f.Locals, prevLocals)
	switch {
	case sameLocals && len(f.Stack) == 0 && delta <= 63:
		buf.WriteU1(byte(delta))
	case sameLocals && len(f.Stack) == 1 && delta <= 63:
		buf.WriteU1(byte(64 + delta))
		encodeVType(buf, f.Stack[0])
	case sameLocals && len(f.Stack) == 1:
		buf.WriteU1(247)
		buf.WriteU2(uint16(delta))
		encodeVType(buf, f.Stack[0])
	case sameLocals && len(f.Stack) == 0:
		buf.WriteU1(251)
		buf.WriteU2(uint16(delta))
	case len(f.Stack) == 0 && len(prevLocals)-len(f.Locals) >= 1 && len(prevLocals)-len(f.Locals) <= 3 && localsArePrefix(f.Locals, prevLocals):
		chop := len(prevLocals) - len(f.Locals)
		buf.WriteU1(byte(251 - chop))
		buf.WriteU2(uint16(delta))
	case len(f.Stack) == 0 && len(f.Locals)-len(prevLocals) >= 1 && len(f.Locals)-len(prevLocals) <= 3 && localsArePrefix(prevLocals, f.Locals):
		extra := f.Locals[len(prevLocals):]
		buf.WriteU1(byte(251 + len(extra)))
		buf.WriteU2(uint16(delta))
		for _, vt := range extra {
			encodeVType(buf, vt)
		}
	default:
		buf.WriteU1(255)
		buf.WriteU2(uint16(delta))
		buf.WriteU2(uint16(len(f.Locals)))
		for _, vt := range f.Locals {
			encodeVType(buf, vt)
		}
		buf.WriteU2(uint16(len(f.Stack)))
		for _, vt := range f.Stack {
			encodeVType(buf, vt)
		}
	}
}

func vtypeSlicesEqual(a, b []VerificationType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func localsArePrefix(prefix, full []VerificationType) bool {
	if len(prefix) > len(full) {
		return false
	}
	for i := range prefix {
		if !prefix[i].Equal(full[i]) {
			return false
		}
	}
	return true
}

func encodeVType(buf *bufview.ByteBuf, vt VerificationType) {
	buf.WriteU1(byte(vt.Kind))
	switch vt.Kind {
	case VObject:
		buf.WriteU2(vt.ClassIndex)
	case VUninitialized:
		buf.WriteU2(uint16(vt.Offset))
	}
}

func encodeCodeAttribute(buf *bufview.ByteBuf, pool *ConstantPool, c *CodeModel) error {
	buf.WriteU2(c.MaxStack)
	buf.WriteU2(c.MaxLocals)
	buf.WriteU4(uint32(len(c.Code)))
	buf.WriteBytes(c.Code)
	buf.WriteU2(uint16(len(c.ExceptionTable)))
	for _, et := range c.ExceptionTable {
		buf.WriteU2(et.StartPC)
		buf.WriteU2(et.EndPC)
		buf.WriteU2(et.HandlerPC)
		buf.WriteU2(et.CatchType)
	}
	return encodeAttributeList(buf, pool, c.Attributes)
}
