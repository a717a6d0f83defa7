// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classfile

import (
	"github.com/go-classfile/classfile/internal/bufview"
	"github.com/go-classfile/classfile/opcode"
)

// ExceptionTableEntry is one row of a Code attribute's exception table:
// bytecode in [StartPC, EndPC) is guarded by a handler at HandlerPC; a zero
// CatchType means "catches everything" (used for finally blocks).
type ExceptionTableEntry struct {
	StartPC, EndPC, HandlerPC uint16
	CatchType                 uint16
}

// CodeModel is a method's Code attribute: the instruction stream, exception
// table, and debug/verification sub-attributes (LineNumberTable,
// LocalVariableTable, LocalVariableTypeTable, StackMapTable, and the two
// type-annotation attributes, which have no structured decoder and travel
// like any other unknown attribute, as raw bytes). A bound
// CodeModel holds a non-owning reference to the owning ClassModel's pool;
// an unbound one (built fresh) owns nothing beyond its own fields.
type CodeModel struct {
	MaxStack       uint16
	MaxLocals      uint16
	Code           []byte
	ExceptionTable []ExceptionTableEntry
	Attributes     []Attribute

	pool *ConstantPool
}

// CodeElement is the closed sum of element kinds a CodeModel's instruction
// stream decomposes into: Instruction | Label | ExceptionCatch | LineNumber
// | LocalVariable | LocalVariableType | PseudoInstruction (spec.md §3). The
// marker method keeps the set closed to this package's types, the idiomatic
// Go rendering of a sealed variant hierarchy (spec.md §9 design notes).
type CodeElement interface {
	isCodeElement()
}

// Instruction is one decoded bytecode instruction. Only the operand fields
// relevant to Opcode's opcode.Kind are meaningful; see opcode.Lookup.
type Instruction struct {
	BCI    int
	Opcode byte

	// PoolIndex: ldc/ldc_w/ldc2_w, getstatic/putstatic/getfield/putfield,
	// invoke* (except invokedynamic, which additionally needs
	// InvokeDynamicAttrIndex below), new, anewarray, checkcast, instanceof,
	// multianewarray.
	PoolIndex uint16

	// VarSlot: iload/istore/... (their _0.._3 forms decode with VarSlot set
	// to the implied slot while Opcode keeps the compact form), iinc, ret.
	VarSlot uint16

	// IntImmediate: bipush, sipush, newarray's atype.
	IntImmediate int32

	// IincConst is iinc's signed increment, in both the plain and the
	// wide-prefixed encoding.
	IincConst int16

	// Dimensions: multianewarray.
	Dimensions uint8

	// Target: the resolved branch destination for goto/jsr/if*/goto_w/
	// jsr_w/ifnull/ifnonnull.
	Target *Label

	// InvokeInterfaceCount: invokeinterface's count operand (number of
	// argument words + 1, redundant with the descriptor but present on the
	// wire and round-tripped verbatim).
	InvokeInterfaceCount uint8

	// Switch holds tableswitch/lookupswitch operands; nil otherwise.
	Switch *SwitchOperands
}

func (Instruction) isCodeElement() {}

// SwitchOperands is the variable-length operand payload of tableswitch and
// lookupswitch.
type SwitchOperands struct {
	Default *Label
	// TableLow/TableHigh and Targets are populated for tableswitch.
	TableLow, TableHigh int32
	Targets              []*Label
	// Pairs is populated for lookupswitch, sorted by Match ascending as
	// JVMS 4.9.1 requires.
	Pairs []LookupPair
}

// LookupPair is one (match, target) row of a lookupswitch.
type LookupPair struct {
	Match  int32
	Target *Label
}

// LabelElement marks a bound location in the stream; the Assembler treats
// it as "bind Label to the current output position."
type LabelElement struct {
	L *Label
}

func (LabelElement) isCodeElement() {}

// ExceptionCatchElement corresponds to one ExceptionTableEntry, expressed
// over labels instead of raw bci so it survives label-shifting transforms.
// By convention these are emitted first in a CodeModel's element stream
// (spec.md §4.4); the Assembler buffers them separately and reconstructs
// concrete bci values from their labels in its second pass.
type ExceptionCatchElement struct {
	Start, End, Handler *Label
	CatchType           uint16 // 0 = catches everything
}

func (ExceptionCatchElement) isCodeElement() {}

// LineNumberElement attaches a source line number to the instruction at L's
// bci (LineNumberTable).
type LineNumberElement struct {
	L    *Label
	Line uint16
}

func (LineNumberElement) isCodeElement() {}

// LocalVariableElement is one LocalVariableTable row: slot Slot holds a
// value of the named type for bci range [Start, End).
type LocalVariableElement struct {
	Start, End               *Label
	Slot                     uint16
	NameIndex, DescriptorIndex uint16
}

func (LocalVariableElement) isCodeElement() {}

// LocalVariableTypeElement is one LocalVariableTypeTable row (the generic
// Signature counterpart to LocalVariableElement's Descriptor).
type LocalVariableTypeElement struct {
	Start, End             *Label
	Slot                   uint16
	NameIndex, SignatureIndex uint16
}

func (LocalVariableTypeElement) isCodeElement() {}

// PseudoInstructionElement carries implementer-facing markers that don't
// correspond to a real opcode — currently unused by the decoder (which only
// ever emits real Instructions) but available for builders that want to
// leave an annotated no-op marker in a buffered code stream (e.g. "insert
// a stack-map frame boundary here" hints consumed by a transform).
type PseudoInstructionElement struct {
	Note string
}

func (PseudoInstructionElement) isCodeElement() {}

// Elements decodes the Code attribute's raw bytecode into the element
// stream described by spec.md §3/§4.4: exception-table entries first (each
// carrying freshly allocated labels), then a bci-ordered walk where a Label
// element precedes any Instruction, LineNumber, or local-variable-range
// marker anchored at that bci.
func (c *CodeModel) Elements() ([]CodeElement, *LabelContext, error) {
	lc := NewLabelContext()
	labelAt := make(map[int]*Label)
	labelFor := func(bci int) *Label {
		if l, ok := labelAt[bci]; ok {
			return l
		}
		l := lc.NewLabel()
		labelAt[bci] = l
		return l
	}

	var out []CodeElement
	for _, et := range c.ExceptionTable {
		out = append(out, ExceptionCatchElement{
			Start:     labelFor(int(et.StartPC)),
			End:       labelFor(int(et.EndPC)),
			Handler:   labelFor(int(et.HandlerPC)),
			CatchType: et.CatchType,
		})
	}

	lineAt, lvAt, lvtAt := c.debugMarkersByBCI(labelFor)

	view := bufview.New(c.Code)
	bci := 0
	var body []CodeElement
	for bci < len(c.Code) {
		if l, ok := labelAt[bci]; ok {
			body = append(body, LabelElement{L: l})
		} else if _, needed := lineAt[bci]; needed {
			body = append(body, LabelElement{L: labelFor(bci)})
		} else if _, needed := lvAt[bci]; needed {
			body = append(body, LabelElement{L: labelFor(bci)})
		} else if _, needed := lvtAt[bci]; needed {
			body = append(body, LabelElement{L: labelFor(bci)})
		}
		for _, ln := range lineAt[bci] {
			body = append(body, ln)
		}
		for _, lv := range lvAt[bci] {
			body = append(body, lv)
		}
		for _, lvt := range lvtAt[bci] {
			body = append(body, lvt)
		}

		instr, n, err := decodeInstruction(view, bci, labelFor)
		if err != nil {
			return nil, nil, err
		}
		body = append(body, instr)
		bci += n
	}
	if l, ok := labelAt[len(c.Code)]; ok {
		body = append(body, LabelElement{L: l}) // end-of-code label (exception range or local-variable end)
	}
	out = append(out, body...)
	return out, lc, nil
}

// debugMarkersByBCI groups LineNumberTable/LocalVariableTable/
// LocalVariableTypeTable sub-attribute rows by the bci a Label must be
// synthesized at, so Elements' single bci-ordered walk can interleave them.
// Each element's labels come from labelFor (start bci, and start+length for
// a local-variable range's end).
func (c *CodeModel) debugMarkersByBCI(labelFor func(int) *Label) (line map[int][]LineNumberElement, lv map[int][]LocalVariableElement, lvt map[int][]LocalVariableTypeElement) {
	line = make(map[int][]LineNumberElement)
	lv = make(map[int][]LocalVariableElement)
	lvt = make(map[int][]LocalVariableTypeElement)
	for _, a := range c.Attributes {
		switch a.Kind {
		case AttrLineNumberTable:
			for _, row := range a.LineNumbers {
				line[int(row.StartPC)] = append(line[int(row.StartPC)], LineNumberElement{L: labelFor(int(row.StartPC)), Line: row.Line})
			}
		case AttrLocalVariableTable:
			for _, row := range a.LocalVariables {
				lv[int(row.StartPC)] = append(lv[int(row.StartPC)], LocalVariableElement{
					Start: labelFor(int(row.StartPC)), End: labelFor(int(row.StartPC) + int(row.Length)),
					Slot: row.Slot, NameIndex: row.NameIndex, DescriptorIndex: row.DescriptorIndex,
				})
			}
		case AttrLocalVariableTypeTable:
			for _, row := range a.LocalVariableTypes {
				lvt[int(row.StartPC)] = append(lvt[int(row.StartPC)], LocalVariableTypeElement{
					Start: labelFor(int(row.StartPC)), End: labelFor(int(row.StartPC) + int(row.Length)),
					Slot: row.Slot, NameIndex: row.NameIndex, SignatureIndex: row.SignatureIndex,
				})
			}
		}
	}
	return
}

// decodeInstruction reads one instruction at bci from view, returning it
// and its encoded length in bytes. labelFor allocates/reuses the Label for
// an absolute target bci, used by every branch-carrying opcode.
func decodeInstruction(view bufview.ByteView, bci int, labelFor func(int) *Label) (Instruction, int, error) {
	op, err := view.U1(bci)
	if err != nil {
		return Instruction{}, 0, malformed(bci, "truncated instruction stream")
	}
	info, ok := opcode.Lookup(op)
	if !ok {
		return Instruction{}, 0, malformed(bci, "unassigned opcode 0x%02x", op)
	}
	instr := Instruction{BCI: bci, Opcode: op}

	switch info.Kind {
	case opcode.KindNone:
		return normalizeImplicitSlot(instr, op), info.Len, nil

	case opcode.KindImmU1:
		v, err := view.U1(bci + 1)
		if err != nil {
			return instr, 0, malformed(bci, "truncated operand for %s", info.Mnemonic)
		}
		switch op {
		case 0x12: // ldc
			instr.PoolIndex = uint16(v)
		case 0x15, 0x16, 0x17, 0x18, 0x19: // *load
			instr.VarSlot = uint16(v)
		case 0x36, 0x37, 0x38, 0x39, 0x3a: // *store
			instr.VarSlot = uint16(v)
		case 0xa9: // ret
			instr.VarSlot = uint16(v)
		case 0xbc: // newarray
			instr.IntImmediate = int32(v)
		}
		return instr, info.Len, nil

	case opcode.KindImmS1:
		v, err := view.S1(bci + 1)
		if err != nil {
			return instr, 0, malformed(bci, "truncated operand for %s", info.Mnemonic)
		}
		instr.IntImmediate = int32(v)
		return instr, info.Len, nil

	case opcode.KindImmU1U1:
		slot, err := view.U1(bci + 1)
		if err != nil {
			return instr, 0, malformed(bci, "truncated iinc")
		}
		c, err := view.S1(bci + 2)
		if err != nil {
			return instr, 0, malformed(bci, "truncated iinc")
		}
		instr.VarSlot = uint16(slot)
		instr.IincConst = int16(c)
		return instr, info.Len, nil

	case opcode.KindImmU2:
		v, err := view.U2(bci + 1)
		if err != nil {
			return instr, 0, malformed(bci, "truncated operand for %s", info.Mnemonic)
		}
		instr.PoolIndex = v
		return instr, info.Len, nil

	case opcode.KindImmS2:
		v, err := view.S2(bci + 1)
		if err != nil {
			return instr, 0, malformed(bci, "truncated branch operand for %s", info.Mnemonic)
		}
		if op == 0x11 { // sipush: a signed immediate, not a branch offset
			instr.IntImmediate = int32(v)
			return instr, info.Len, nil
		}
		instr.Target = labelFor(bci + int(v))
		return instr, info.Len, nil

	case opcode.KindImmS4:
		v, err := view.S4(bci + 1)
		if err != nil {
			return instr, 0, malformed(bci, "truncated wide branch operand for %s", info.Mnemonic)
		}
		instr.Target = labelFor(bci + int(v))
		return instr, info.Len, nil

	case opcode.KindImmU2U1:
		idx, err := view.U2(bci + 1)
		if err != nil {
			return instr, 0, malformed(bci, "truncated invokeinterface")
		}
		cnt, err := view.U1(bci + 3)
		if err != nil {
			return instr, 0, malformed(bci, "truncated invokeinterface")
		}
		instr.PoolIndex = idx
		instr.InvokeInterfaceCount = cnt
		return instr, info.Len, nil

	case opcode.KindImmU2U2:
		idx, err := view.U2(bci + 1)
		if err != nil {
			return instr, 0, malformed(bci, "truncated invokedynamic")
		}
		instr.PoolIndex = idx
		return instr, info.Len, nil

	case opcode.KindImmU2U1Zero:
		idx, err := view.U2(bci + 1)
		if err != nil {
			return instr, 0, malformed(bci, "truncated multianewarray")
		}
		dims, err := view.U1(bci + 3)
		if err != nil {
			return instr, 0, malformed(bci, "truncated multianewarray")
		}
		instr.PoolIndex = idx
		instr.Dimensions = dims
		return instr, info.Len, nil

	case opcode.KindTableSwitch:
		return decodeTableSwitch(view, bci, labelFor)

	case opcode.KindLookupSwitch:
		return decodeLookupSwitch(view, bci, labelFor)

	case opcode.KindWide:
		return decodeWide(view, bci, labelFor)
	}
	return instr, 0, malformed(bci, "unhandled opcode kind for %s", info.Mnemonic)
}

// normalizeImplicitSlot folds the compact iload_0..3/istore_0..3/etc forms
// into the single corresponding Instruction shape with VarSlot set, so a
// consumer never needs to special-case the four-opcode families.
func normalizeImplicitSlot(instr Instruction, op byte) Instruction {
	switch {
	case op >= 0x1a && op <= 0x1d: // iload_0..3
		instr.VarSlot = uint16(op - 0x1a)
	case op >= 0x1e && op <= 0x21: // lload_0..3
		instr.VarSlot = uint16(op - 0x1e)
	case op >= 0x22 && op <= 0x25: // fload_0..3
		instr.VarSlot = uint16(op - 0x22)
	case op >= 0x26 && op <= 0x29: // dload_0..3
		instr.VarSlot = uint16(op - 0x26)
	case op >= 0x2a && op <= 0x2d: // aload_0..3
		instr.VarSlot = uint16(op - 0x2a)
	case op >= 0x3b && op <= 0x3e: // istore_0..3
		instr.VarSlot = uint16(op - 0x3b)
	case op >= 0x3f && op <= 0x42: // lstore_0..3
		instr.VarSlot = uint16(op - 0x3f)
	case op >= 0x43 && op <= 0x46: // fstore_0..3
		instr.VarSlot = uint16(op - 0x43)
	case op >= 0x47 && op <= 0x4a: // dstore_0..3
		instr.VarSlot = uint16(op - 0x47)
	case op >= 0x4b && op <= 0x4e: // astore_0..3
		instr.VarSlot = uint16(op - 0x4b)
	}
	return instr
}

func decodeTableSwitch(view bufview.ByteView, bci int, labelFor func(int) *Label) (Instruction, int, error) {
	pos := bci + 1
	pad := (4 - pos%4) % 4
	pos += pad
	def, err := view.S4(pos)
	if err != nil {
		return Instruction{}, 0, malformed(bci, "truncated tableswitch default")
	}
	low, err := view.S4(pos + 4)
	if err != nil {
		return Instruction{}, 0, malformed(bci, "truncated tableswitch low")
	}
	high, err := view.S4(pos + 8)
	if err != nil {
		return Instruction{}, 0, malformed(bci, "truncated tableswitch high")
	}
	n := int(high-low) + 1
	if n < 0 {
		return Instruction{}, 0, malformed(bci, "tableswitch high < low")
	}
	targets := make([]*Label, n)
	p := pos + 12
	for i := 0; i < n; i++ {
		off, err := view.S4(p)
		if err != nil {
			return Instruction{}, 0, malformed(bci, "truncated tableswitch entry %d", i)
		}
		targets[i] = labelFor(bci + int(off))
		p += 4
	}
	instr := Instruction{
		BCI: bci, Opcode: 0xaa,
		Switch: &SwitchOperands{
			Default:   labelFor(bci + int(def)),
			TableLow:  low,
			TableHigh: high,
			Targets:   targets,
		},
	}
	return instr, p - bci, nil
}

func decodeLookupSwitch(view bufview.ByteView, bci int, labelFor func(int) *Label) (Instruction, int, error) {
	pos := bci + 1
	pad := (4 - pos%4) % 4
	pos += pad
	def, err := view.S4(pos)
	if err != nil {
		return Instruction{}, 0, malformed(bci, "truncated lookupswitch default")
	}
	npairs, err := view.S4(pos + 4)
	if err != nil || npairs < 0 {
		return Instruction{}, 0, malformed(bci, "truncated lookupswitch npairs")
	}
	pairs := make([]LookupPair, npairs)
	p := pos + 8
	for i := 0; i < int(npairs); i++ {
		match, err := view.S4(p)
		if err != nil {
			return Instruction{}, 0, malformed(bci, "truncated lookupswitch match %d", i)
		}
		off, err := view.S4(p + 4)
		if err != nil {
			return Instruction{}, 0, malformed(bci, "truncated lookupswitch offset %d", i)
		}
		pairs[i] = LookupPair{Match: match, Target: labelFor(bci + int(off))}
		p += 8
	}
	instr := Instruction{
		BCI: bci, Opcode: 0xab,
		Switch: &SwitchOperands{
			Default: labelFor(bci + int(def)),
			Pairs:   pairs,
		},
	}
	return instr, p - bci, nil
}

// decodeWide handles the 0xc4 prefix: iload/istore/fload/fstore/aload/
// astore/lload/lstore/dload/dstore/ret get a u2 slot, iinc additionally
// gets a s2 increment.
func decodeWide(view bufview.ByteView, bci int, labelFor func(int) *Label) (Instruction, int, error) {
	sub, err := view.U1(bci + 1)
	if err != nil {
		return Instruction{}, 0, malformed(bci, "truncated wide prefix")
	}
	slot, err := view.U2(bci + 2)
	if err != nil {
		return Instruction{}, 0, malformed(bci, "truncated wide operand")
	}
	instr := Instruction{BCI: bci, Opcode: sub, VarSlot: slot}
	if sub == 0x84 { // iinc
		c, err := view.S2(bci + 4)
		if err != nil {
			return Instruction{}, 0, malformed(bci, "truncated wide iinc const")
		}
		instr.IincConst = int16(c)
		return instr, 6, nil
	}
	return instr, 4, nil
}
