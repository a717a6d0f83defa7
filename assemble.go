// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classfile

import (
	"github.com/go-classfile/classfile/internal/bufview"
	"github.com/go-classfile/classfile/opcode"
)

// maxMethodCodeLength is the JVMS 4.11 ceiling on a Code attribute's
// code_length field; it also bounds how many rounds the widening fixed
// point below can possibly need, since every widening strictly grows the
// method and growth cannot continue past this size.
const maxMethodCodeLength = 65535

// asmItem is one element of the buffered stream annotated with the layout
// information the two-pass assembler accumulates as it converges.
type asmItem struct {
	element CodeElement
	bci     int // valid once the enclosing loop has stabilized
	length  int // encoded length, for Instruction elements; mutated by widening
	wide    bool
}

// assembleCode runs the two-pass assembler described in spec.md §4.5 over a
// buffered code builder's element stream: pass one tentatively lays out
// instructions (short branch forms, unpadded switches) and iterates to a
// fixed point as branch widening and switch padding shift later bcis; pass
// two binds every label to its final bci and emits the finished byte
// stream, exception table, and debug sub-attributes.
func assembleCode(s *codeBuilderState, classVersion uint16, opts Options) (*CodeModel, error) {
	var excCatches []ExceptionCatchElement
	var body []CodeElement
	for _, el := range s.elements {
		if ec, ok := el.(ExceptionCatchElement); ok {
			excCatches = append(excCatches, ec)
			continue
		}
		body = append(body, el)
	}

	items := make([]*asmItem, len(body))
	for i, el := range body {
		it := &asmItem{element: el}
		if instr, ok := el.(Instruction); ok {
			info, known := opcode.Lookup(instr.Opcode)
			if !known {
				return nil, codeError("unassigned opcode 0x%02x", instr.Opcode)
			}
			it.length = baseLength(info, instr)
		}
		items[i] = it
	}

	bciOf := make(map[*Label]int)

	layout := func() {
		pos := 0
		for _, it := range items {
			switch el := it.element.(type) {
			case LabelElement:
				bciOf[el.L] = pos
			case Instruction:
				it.bci = pos
				if el.Switch != nil {
					it.length = switchLength(el, pos)
				}
				pos += it.length
			}
		}
	}

	for round := 0; ; round++ {
		layout()
		changed := false
		for _, it := range items {
			instr, ok := it.element.(Instruction)
			if !ok || instr.Target == nil || it.wide {
				continue
			}
			if !opcode.IsBranch(instr.Opcode) || instr.Opcode == 0xaa || instr.Opcode == 0xab {
				continue // tableswitch/lookupswitch targets are already s4, never widened
			}
			target, ok := bciOf[instr.Target]
			if !ok {
				return nil, codeError("branch target label never bound")
			}
			delta := target - it.bci
			if delta >= -32768 && delta <= 32767 {
				continue
			}
			if opts.ShortJumps == FailOnShortJumps {
				return nil, codeError("branch at bci %d exceeds short-jump range (delta %d) and FAIL_ON_SHORT_JUMPS is set", it.bci, delta)
			}
			it.wide = true
			if opcode.IsConditionalBranch(instr.Opcode) {
				it.length = 8 // if<inverted> skip(3) + goto_w(5)
			} else {
				it.length = 5 // goto_w / jsr_w
			}
			changed = true
		}
		if !changed {
			break
		}
		if round > len(items)+4 {
			return nil, codeError("branch widening failed to converge")
		}
	}

	if pos := codeLength(items); pos > maxMethodCodeLength {
		return nil, codeError("assembled code length %d exceeds the %d byte limit", pos, maxMethodCodeLength)
	}

	patched, deadFrameBCIs, err := applyDeadCodePolicy(items, bciOf, opts)
	if err != nil {
		return nil, err
	}
	items = patched
	if err := checkDeadLabels(s.lc, bciOf, opts); err != nil {
		return nil, err
	}

	buf := bufview.NewByteBuf(codeLength(items))
	var lineRows []LineNumberRow
	var lvRows []LocalVariableRow
	var lvtRows []LocalVariableTypeRow
	var lvOpen []LocalVariableElement
	var lvtOpen []LocalVariableTypeElement

	for _, it := range items {
		switch el := it.element.(type) {
		case LabelElement:
			// already resolved in bciOf by layout(); nothing to emit
		case LineNumberElement:
			lineRows = append(lineRows, LineNumberRow{StartPC: uint16(bciOf[el.L]), Line: el.Line})
		case LocalVariableElement:
			lvOpen = append(lvOpen, el)
		case LocalVariableTypeElement:
			lvtOpen = append(lvtOpen, el)
		case PseudoInstructionElement:
			// carries no wire representation
		case Instruction:
			if err := emitInstruction(buf, el, it, bciOf); err != nil {
				return nil, err
			}
		}
	}

	for _, lv := range lvOpen {
		end, ok := bciOf[lv.End]
		if !ok {
			return nil, codeError("unbound LocalVariableElement end label")
		}
		start := bciOf[lv.Start]
		lvRows = append(lvRows, LocalVariableRow{
			StartPC: uint16(start), Length: uint16(end - start),
			NameIndex: lv.NameIndex, DescriptorIndex: lv.DescriptorIndex, Slot: lv.Slot,
		})
	}
	for _, lvt := range lvtOpen {
		end, ok := bciOf[lvt.End]
		if !ok {
			return nil, codeError("unbound LocalVariableTypeElement end label")
		}
		start := bciOf[lvt.Start]
		lvtRows = append(lvtRows, LocalVariableTypeRow{
			StartPC: uint16(start), Length: uint16(end - start),
			NameIndex: lvt.NameIndex, SignatureIndex: lvt.SignatureIndex, Slot: lvt.Slot,
		})
	}

	exceptionTable := make([]ExceptionTableEntry, len(excCatches))
	for i, ec := range excCatches {
		start, ok1 := bciOf[ec.Start]
		end, ok2 := bciOf[ec.End]
		handler, ok3 := bciOf[ec.Handler]
		if !ok1 || !ok2 || !ok3 {
			return nil, codeError("exception table entry %d references an unbound label", i)
		}
		exceptionTable[i] = ExceptionTableEntry{
			StartPC: uint16(start), EndPC: uint16(end), HandlerPC: uint16(handler), CatchType: ec.CatchType,
		}
	}

	var attrs []Attribute
	if len(lineRows) > 0 && opts.LineNumbers == PassLineNumbers {
		attrs = append(attrs, Attribute{Kind: AttrLineNumberTable, Name: "LineNumberTable", LineNumbers: lineRows})
	}
	if len(lvRows) > 0 && opts.DebugElements == PassDebug {
		attrs = append(attrs, Attribute{Kind: AttrLocalVariableTable, Name: "LocalVariableTable", LocalVariables: lvRows})
	}
	if len(lvtRows) > 0 && opts.DebugElements == PassDebug {
		attrs = append(attrs, Attribute{Kind: AttrLocalVariableTypeTable, Name: "LocalVariableTypeTable", LocalVariableTypes: lvtRows})
	}

	code := buf.Into()
	cm := &CodeModel{
		MaxStack:       s.maxStack,
		MaxLocals:      s.maxLocals,
		Code:           code,
		ExceptionTable: exceptionTable,
		Attributes:     attrs,
		pool:           s.pool,
	}

	wantFrames := opts.StackMaps == GenerateStackMaps || (opts.StackMaps == StackMapsWhenRequired && classVersion >= 50)
	if wantFrames {
		frames, err := generateStackMapTable(cm, opts.ClassHierarchyResolver, s.sig, deadFrameBCIs)
		if err != nil {
			return nil, err
		}
		if len(frames) > 0 {
			cm.Attributes = append(cm.Attributes, Attribute{Kind: AttrStackMapTable, Name: "StackMapTable", StackMapFrames: frames})
		}
	}

	return cm, nil
}

// baseLength returns an instruction's initial (pre-widening) encoded length:
// the wide-prefixed form when a var-slot or iinc operand doesn't fit its
// normal u1 field, ldc_w in place of ldc when the pool index doesn't fit its
// u1 field, the opcode table's fixed length otherwise. Switch instructions
// are sized later, once their bci is known.
func baseLength(info opcode.Info, instr Instruction) int {
	switch info.Kind {
	case opcode.KindImmU1:
		if isVarSlotOpcode(instr.Opcode) && instr.VarSlot > 255 {
			return 4 // wide, opcode, u2 slot
		}
		if instr.Opcode == 0x12 && instr.PoolIndex > 255 {
			return 3 // ldc_w: opcode, u2 index
		}
		return info.Len
	case opcode.KindImmU1U1: // iinc
		if instr.VarSlot > 255 || instr.IincConst < -128 || instr.IincConst > 127 {
			return 6 // wide, iinc, u2 slot, s2 const
		}
		return info.Len
	case opcode.KindTableSwitch, opcode.KindLookupSwitch:
		return 0 // computed by switchLength once bci is known
	default:
		return info.Len
	}
}

func isVarSlotOpcode(op byte) bool {
	switch op {
	case 0x15, 0x16, 0x17, 0x18, 0x19, // *load
		0x36, 0x37, 0x38, 0x39, 0x3a, // *store
		0xa9: // ret
		return true
	}
	return false
}

// switchLength computes tableswitch/lookupswitch's total encoded length at
// bci, including the 0-3 padding bytes that align the operand table to a
// 4-byte boundary.
func switchLength(instr Instruction, bci int) int {
	pad := (4 - (bci+1)%4) % 4
	if instr.Opcode == 0xaa {
		n := int(instr.Switch.TableHigh-instr.Switch.TableLow) + 1
		return 1 + pad + 12 + n*4
	}
	return 1 + pad + 8 + len(instr.Switch.Pairs)*8
}

func codeLength(items []*asmItem) int {
	pos := 0
	for _, it := range items {
		if _, ok := it.element.(Instruction); ok {
			pos += it.length
		}
	}
	return pos
}

// emitInstruction writes el's final wire form to buf, resolving any branch
// target through bciOf. it.bci/it.length/it.wide reflect the fixed-point
// layout already converged on.
func emitInstruction(buf *bufview.ByteBuf, el Instruction, it *asmItem, bciOf map[*Label]int) error {
	info, _ := opcode.Lookup(el.Opcode)
	start := buf.Mark()

	if el.Switch != nil {
		return emitSwitch(buf, el, bciOf)
	}

	if it.wide && opcode.IsBranch(el.Opcode) {
		return emitWidenedBranch(buf, el, it, bciOf)
	}

	switch info.Kind {
	case opcode.KindNone:
		buf.WriteU1(el.Opcode)
	case opcode.KindImmU1:
		if isVarSlotOpcode(el.Opcode) && el.VarSlot > 255 {
			buf.WriteU1(0xc4) // wide
			buf.WriteU1(el.Opcode)
			buf.WriteU2(el.VarSlot)
		} else {
			switch el.Opcode {
			case 0xbc: // newarray
				buf.WriteU1(el.Opcode)
				buf.WriteU1(byte(el.IntImmediate))
			case 0x12: // ldc
				if el.PoolIndex > 255 {
					buf.WriteU1(0x13) // ldc_w
					buf.WriteU2(el.PoolIndex)
				} else {
					buf.WriteU1(el.Opcode)
					buf.WriteU1(byte(el.PoolIndex))
				}
			default:
				buf.WriteU1(el.Opcode)
				buf.WriteU1(byte(el.VarSlot))
			}
		}
	case opcode.KindImmS1:
		buf.WriteU1(el.Opcode)
		buf.WriteU1(byte(int8(el.IntImmediate)))
	case opcode.KindImmU1U1: // iinc
		if el.VarSlot > 255 || el.IincConst < -128 || el.IincConst > 127 {
			buf.WriteU1(0xc4)
			buf.WriteU1(el.Opcode)
			buf.WriteU2(el.VarSlot)
			buf.WriteU2(uint16(el.IincConst))
		} else {
			buf.WriteU1(el.Opcode)
			buf.WriteU1(byte(el.VarSlot))
			buf.WriteU1(byte(int8(el.IincConst)))
		}
	case opcode.KindImmU2:
		buf.WriteU1(el.Opcode)
		buf.WriteU2(el.PoolIndex)
	case opcode.KindImmS2:
		if el.Opcode == 0x11 { // sipush
			buf.WriteU1(el.Opcode)
			buf.WriteU2(uint16(int16(el.IntImmediate)))
			break
		}
		target, ok := bciOf[el.Target]
		if !ok {
			return codeError("branch target label never bound")
		}
		buf.WriteU1(el.Opcode)
		buf.WriteU2(uint16(int16(target - it.bci)))
	case opcode.KindImmS4:
		target, ok := bciOf[el.Target]
		if !ok {
			return codeError("branch target label never bound")
		}
		buf.WriteU1(el.Opcode)
		buf.WriteU4(uint32(int32(target - it.bci)))
	case opcode.KindImmU2U1:
		buf.WriteU1(el.Opcode)
		buf.WriteU2(el.PoolIndex)
		buf.WriteU1(el.InvokeInterfaceCount)
		buf.WriteU1(0)
	case opcode.KindImmU2U2:
		buf.WriteU1(el.Opcode)
		buf.WriteU2(el.PoolIndex)
		buf.WriteU2(0)
	case opcode.KindImmU2U1Zero:
		buf.WriteU1(el.Opcode)
		buf.WriteU2(el.PoolIndex)
		buf.WriteU1(el.Dimensions)
	default:
		return codeError("unhandled opcode kind for 0x%02x during assembly", el.Opcode)
	}
	if got := buf.Size() - start; got != it.length {
		return codeError("internal assembler mismatch: opcode 0x%02x emitted %d bytes, layout reserved %d", el.Opcode, got, it.length)
	}
	return nil
}

func emitWidenedBranch(buf *bufview.ByteBuf, el Instruction, it *asmItem, bciOf map[*Label]int) error {
	target, ok := bciOf[el.Target]
	if !ok {
		return codeError("branch target label never bound")
	}
	if el.Opcode == 0xa7 || el.Opcode == 0xa8 { // goto, jsr -> goto_w, jsr_w
		op := byte(0xc8)
		if el.Opcode == 0xa8 {
			op = 0xc9
		}
		buf.WriteU1(op)
		buf.WriteU4(uint32(int32(target - it.bci)))
		return nil
	}
	inv, ok := opcode.InvertedCondition(el.Opcode)
	if !ok {
		return codeError("opcode 0x%02x has no wide form and cannot be inverted", el.Opcode)
	}
	buf.WriteU1(inv)
	buf.WriteU2(8) // skip straight over the goto_w below
	buf.WriteU1(0xc8)
	buf.WriteU4(uint32(int32(target - (it.bci + 3))))
	return nil
}

func emitSwitch(buf *bufview.ByteBuf, el Instruction, bciOf map[*Label]int) error {
	start := buf.Mark()
	bci := start // caller guarantees buf position == it.bci for this element
	buf.WriteU1(el.Opcode)
	pad := (4 - (bci+1)%4) % 4
	for i := 0; i < pad; i++ {
		buf.WriteU1(0)
	}
	def, ok := bciOf[el.Switch.Default]
	if !ok {
		return codeError("switch default label never bound")
	}
	buf.WriteU4(uint32(int32(def - bci)))
	if el.Opcode == 0xaa {
		buf.WriteU4(uint32(el.Switch.TableLow))
		buf.WriteU4(uint32(el.Switch.TableHigh))
		for _, t := range el.Switch.Targets {
			tb, ok := bciOf[t]
			if !ok {
				return codeError("tableswitch entry label never bound")
			}
			buf.WriteU4(uint32(int32(tb - bci)))
		}
	} else {
		buf.WriteU4(uint32(len(el.Switch.Pairs)))
		for _, p := range el.Switch.Pairs {
			tb, ok := bciOf[p.Target]
			if !ok {
				return codeError("lookupswitch entry label never bound")
			}
			buf.WriteU4(uint32(p.Match))
			buf.WriteU4(uint32(int32(tb - bci)))
		}
	}
	return nil
}

// applyDeadCodePolicy scans for instructions unreachable by fallthrough or
// branch (immediately following an unconditional terminator, with no label
// bound at their bci) and honors DeadCodePolicy for them. PatchDeadCode
// replaces each maximal dead run with nop filler terminated by a single
// athrow (JVMS 4.10.1's own recipe for making an otherwise-unreachable
// block independently well-typed), preserving the run's total byte length
// so bciOf — already fixed by the widening loop above — stays valid without
// a second layout() pass. It returns the bci of each patched run's first
// byte, so the caller can seed a [Throwable]-stack frame there.
func applyDeadCodePolicy(items []*asmItem, bciOf map[*Label]int, opts Options) ([]*asmItem, []int, error) {
	if opts.DeadCode == KeepDeadCode {
		return items, nil, nil
	}
	referenced := make(map[int]bool, len(bciOf))
	for _, bci := range bciOf {
		referenced[bci] = true
	}

	out := make([]*asmItem, 0, len(items))
	var run []*asmItem
	var deadFrames []int

	flushRun := func() {
		if len(run) == 0 {
			return
		}
		total := 0
		for _, it := range run {
			total += it.length
		}
		start := run[0].bci
		deadFrames = append(deadFrames, start)
		for k := 0; k < total; k++ {
			op := byte(0x00) // nop
			if k == total-1 {
				op = 0xbf // athrow
			}
			out = append(out, &asmItem{element: Instruction{Opcode: op}, bci: start + k, length: 1})
		}
		run = run[:0]
	}

	afterTerminator := false
	for _, it := range items {
		switch el := it.element.(type) {
		case LabelElement:
			flushRun()
			out = append(out, it)
			if referenced[bciOf[el.L]] {
				afterTerminator = false
			}
		case Instruction:
			if afterTerminator && !referenced[it.bci] {
				if opts.DeadCode == FailOnDeadCode {
					return nil, nil, codeError("unreachable instruction at bci %d", it.bci)
				}
				run = append(run, it)
			} else {
				flushRun()
				out = append(out, it)
			}
			afterTerminator = opcode.IsUnconditionalTerminator(el.Opcode)
		default:
			flushRun()
			out = append(out, it)
		}
	}
	flushRun()
	return out, deadFrames, nil
}

// checkDeadLabels enforces DeadLabelsPolicy: a label the builder allocated
// but never bound via a LabelElement is dead.
func checkDeadLabels(lc *LabelContext, bciOf map[*Label]int, opts Options) error {
	if opts.DeadLabels == DropDeadLabels {
		return nil
	}
	for _, l := range lc.Labels() {
		if _, bound := bciOf[l]; !bound {
			return codeError("label allocated but never bound, and FAIL_ON_DEAD_LABELS is set")
		}
	}
	return nil
}
