// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classfile

import (
	"github.com/go-classfile/classfile/internal/bufview"
	"github.com/go-classfile/classfile/opcode"
)

// generateStackMapTable computes the StackMapFrame sequence a verifier needs
// at every branch target and exception handler of cm's instruction stream,
// grounded on the worklist abstract-interpretation shape of wagon's
// validate package (validate.go's per-block frame tracking, vm.go's
// mockVM/operand stack), retargeted from WASM's single-type operand model
// onto the JVM's richer VerificationType lattice (JVMS 4.10.1).
//
// This is a best-effort verification-type tracker: the mainstream
// instruction set (loads/stores/constants/arithmetic/conversions/array
// ops/field and method access/object creation/casts) is modeled precisely;
// anything this pass cannot classify conservatively widens to VTop rather
// than guessing, which is safe for frame generation even though it would
// reject a real verifier (see DESIGN.md's Open Question on exact-vs-sound
// inference).
// methodSigInfo is the sliver of a method's own signature the stack-map
// generator needs to seed its bci-0 frame (spec.md §4.6: "seeded with bci 0
// and method-signature-derived locals"), threaded down from
// MethodBuilder.WithCode through codeBuilderState rather than re-derived
// from a MethodModel, since a builder under construction has no MethodModel
// yet.
type methodSigInfo struct {
	isStatic   bool
	isInit     bool // true for <init>: slot 0 starts UninitializedThis, not an Object
	descriptor string
	thisClass  uint16 // this class's own Class pool index; meaningless when isStatic
}

// initialLocals builds the bci-0 locals array a method's signature implies:
// slot 0 is the receiver (UninitializedThis for a constructor, this class's
// own type otherwise) unless the method is static, followed by one slot per
// declared parameter (two for long/double), and VTop padding out to
// maxLocals. Reference-typed parameters conservatively classify as
// VTObject(0) rather than their declared class — this generator tracks
// verification types well enough to place frames, not to re-derive a
// parameter's exact declared type from its descriptor (the descriptor
// names a Utf8 string, not an interned Class index, so recovering the pool
// index would require an extra intern on every call).
func initialLocals(sig methodSigInfo, maxLocals int) []VerificationType {
	locals := make([]VerificationType, maxLocals)
	for i := range locals {
		locals[i] = VTTop
	}
	slot := 0
	if !sig.isStatic {
		if slot < maxLocals {
			if sig.isInit {
				locals[slot] = VTUninitializedThis
			} else {
				locals[slot] = VTObject(sig.thisClass)
			}
		}
		slot++
	}
	md := parseMethodDescriptor(sig.descriptor)
	for _, cat := range md.Params {
		if slot >= maxLocals {
			break
		}
		locals[slot] = vtypeForCategory(cat)
		slot += slotWidth(cat)
	}
	return locals
}

func vtypeForCategory(cat fieldCategory) VerificationType {
	switch cat {
	case catInt:
		return VTInteger
	case catLong:
		return VTLong
	case catFloat:
		return VTFloat
	case catDouble:
		return VTDouble
	default: // catRef
		return VTObject(0)
	}
}

func generateStackMapTable(cm *CodeModel, resolver ClassHierarchyResolver, sig methodSigInfo, deadCodeBCIs []int) ([]StackMapFrame, error) {
	scan, err := scanCode(cm.Code)
	if err != nil {
		return nil, err
	}
	if len(scan) == 0 {
		return nil, nil
	}
	if resolver == nil {
		resolver = func(string) (ClassHierarchyInfo, bool) { return ClassHierarchyInfo{}, false }
	}

	mergePoint := make(map[int]bool)
	byBCI := make(map[int]*scannedInstr, len(scan))
	for _, si := range scan {
		byBCI[si.bci] = si
	}
	for _, si := range scan {
		for _, t := range si.targets {
			mergePoint[t] = true
		}
	}
	for _, et := range cm.ExceptionTable {
		mergePoint[int(et.HandlerPC)] = true
	}

	initLocals := initialLocals(sig, int(cm.MaxLocals))

	frameAt := make(map[int]*frameState)
	frameAt[0] = &frameState{locals: append([]VerificationType(nil), initLocals...), stack: nil}
	for _, et := range cm.ExceptionTable {
		h := int(et.HandlerPC)
		exType := VTObject(classIndexOrThrowable(cm.pool, et.CatchType))
		mergeInto(frameAt, h, &frameState{locals: append([]VerificationType(nil), initLocals...), stack: []VerificationType{exType}}, resolver)
	}
	for _, bci := range deadCodeBCIs {
		// PatchDeadCode rewrote this run to nop...athrow (see applyDeadCodePolicy):
		// it needs its own frame since nothing reachable falls into it or
		// branches to it.
		exType := VTObject(classIndexOrThrowable(cm.pool, 0))
		mergeInto(frameAt, bci, &frameState{locals: append([]VerificationType(nil), initLocals...), stack: []VerificationType{exType}}, resolver)
	}

	worklist := []int{0}
	for _, et := range cm.ExceptionTable {
		worklist = append(worklist, int(et.HandlerPC))
	}
	queued := make(map[int]bool)
	for _, b := range worklist {
		queued[b] = true
	}

	for len(worklist) > 0 {
		bci := worklist[0]
		worklist = worklist[1:]
		queued[bci] = false
		st := frameAt[bci]
		if st == nil {
			continue
		}
		locals := append([]VerificationType(nil), st.locals...)
		stack := append([]VerificationType(nil), st.stack...)

		for {
			si, ok := byBCI[bci]
			if !ok {
				break
			}
			next, fallsThrough, err := stepInstruction(si, locals, stack, cm.pool)
			if err != nil {
				return nil, err
			}
			for _, t := range si.targets {
				changed := mergeInto(frameAt, t, &frameState{locals: append([]VerificationType(nil), locals...), stack: append([]VerificationType(nil), next...)}, resolver)
				if changed && !queued[t] {
					worklist = append(worklist, t)
					queued[t] = true
				}
			}
			if !fallsThrough {
				break
			}
			stack = next
			nextBCI := si.bci + si.length
			if mergePoint[nextBCI] {
				changed := mergeInto(frameAt, nextBCI, &frameState{locals: append([]VerificationType(nil), locals...), stack: append([]VerificationType(nil), stack...)}, resolver)
				if changed && !queued[nextBCI] {
					worklist = append(worklist, nextBCI)
					queued[nextBCI] = true
				}
				break
			}
			bci = nextBCI
		}
	}

	var out []StackMapFrame
	for bci := range frameAt {
		if bci == 0 {
			continue // the implicit frame at bci 0 is never written to StackMapTable
		}
		for _, vts := range [][]VerificationType{frameAt[bci].locals, frameAt[bci].stack} {
			for i := range vts {
				if vts[i].Kind == VObject && vts[i].ClassIndex == 0 {
					if vts[i].ClassIndex, err = cm.pool.Class("java/lang/Object"); err != nil {
						return nil, err
					}
				}
			}
		}
		out = append(out, StackMapFrame{BCI: bci, Locals: trimTrailingTop(frameAt[bci].locals), Stack: frameAt[bci].stack})
	}
	sortFramesByBCI(out)
	return out, nil
}

// frameState is one bci's provisional (locals, stack) abstract state during
// the worklist fixed-point iteration.
type frameState struct {
	locals []VerificationType
	stack  []VerificationType
}

// mergeInto installs want at bci if no frame exists there yet, or joins it
// with the frame already there via a per-slot join (see joinType: distinct
// object types widen to VTObject(0) without consulting resolver, anything
// else that disagrees widens to VTop — the safe-but-imprecise fallback
// noted in DESIGN.md). Reports whether the stored frame changed, so the
// caller knows whether to re-queue bci for another pass.
func mergeInto(frameAt map[int]*frameState, bci int, want *frameState, resolver ClassHierarchyResolver) bool {
	cur, ok := frameAt[bci]
	if !ok {
		frameAt[bci] = want
		return true
	}
	changed := false
	n := len(cur.locals)
	if len(want.locals) < n {
		n = len(want.locals)
	}
	for i := 0; i < n; i++ {
		j := joinType(cur.locals[i], want.locals[i], resolver)
		if !j.Equal(cur.locals[i]) {
			cur.locals[i] = j
			changed = true
		}
	}
	for i := n; i < len(cur.locals); i++ {
		if cur.locals[i].Kind != VTop {
			cur.locals[i] = VTTop
			changed = true
		}
	}
	if len(cur.stack) == len(want.stack) {
		for i := range cur.stack {
			j := joinType(cur.stack[i], want.stack[i], resolver)
			if !j.Equal(cur.stack[i]) {
				cur.stack[i] = j
				changed = true
			}
		}
	}
	return changed
}

// joinType computes the least upper bound of two verification types for
// frame merging. Equal types join to themselves; a null reference joins
// with any object type to that object type; two distinct object types
// always join to VTObject(0), which generateStackMapTable writes out as
// java/lang/Object — resolver is not consulted, so no narrower common
// superclass is ever computed; anything else that disagrees is
// unrepresentable without a richer merge and widens to VTop.
func joinType(a, b VerificationType, resolver ClassHierarchyResolver) VerificationType {
	if a.Equal(b) {
		return a
	}
	if a.Kind == VNull && (b.Kind == VObject || b.Kind == VNull) {
		return b
	}
	if b.Kind == VNull && a.Kind == VObject {
		return a
	}
	if a.Kind == VObject && b.Kind == VObject {
		return VTObject(0) // unresolved common supertype; generateStackMapTable emits ClassIndex 0 as java/lang/Object
	}
	return VTTop
}

func sortFramesByBCI(frames []StackMapFrame) {
	for i := 1; i < len(frames); i++ {
		for j := i; j > 0 && frames[j].BCI < frames[j-1].BCI; j-- {
			frames[j], frames[j-1] = frames[j-1], frames[j]
		}
	}
}

func trimTrailingTop(locals []VerificationType) []VerificationType {
	n := len(locals)
	for n > 0 && locals[n-1].Kind == VTop {
		n--
	}
	return locals[:n]
}

func classIndexOrThrowable(pool *ConstantPool, catchType uint16) uint16 {
	if catchType != 0 {
		return catchType
	}
	idx, err := pool.Class("java/lang/Throwable")
	if err != nil {
		return 0
	}
	return idx
}

type scannedInstr struct {
	bci, length int
	opcode      byte
	poolIndex   uint16
	varSlot     uint16
	intImm      int32
	iincConst   int16
	dims        uint8
	targets     []int
}

// scanCode walks raw Code bytes into a flat slice of scannedInstr, resolving
// every branch target to an absolute bci. It duplicates a slice of
// decodeInstruction's dispatch rather than reusing the Label-based decoder,
// since the stack-map generator only needs bci-level facts and allocating a
// LabelContext for them would cost more than it returns.
func scanCode(code []byte) ([]*scannedInstr, error) {
	view := bufview.New(code)
	var out []*scannedInstr
	bci := 0
	for bci < len(code) {
		op, err := view.U1(bci)
		if err != nil {
			return nil, malformed(bci, "truncated instruction stream")
		}
		info, ok := opcode.Lookup(op)
		if !ok {
			return nil, malformed(bci, "unassigned opcode 0x%02x", op)
		}
		si := &scannedInstr{bci: bci, opcode: op}
		switch info.Kind {
		case opcode.KindNone:
			si.varSlot = implicitSlot(op)
			si.length = info.Len
		case opcode.KindImmU1:
			v, _ := view.U1(bci + 1)
			si.varSlot, si.poolIndex, si.intImm = uint16(v), uint16(v), int32(v)
			si.length = info.Len
		case opcode.KindImmS1:
			v, _ := view.S1(bci + 1)
			si.intImm = int32(v)
			si.length = info.Len
		case opcode.KindImmU1U1:
			slot, _ := view.U1(bci + 1)
			c, _ := view.S1(bci + 2)
			si.varSlot, si.iincConst = uint16(slot), int16(c)
			si.length = info.Len
		case opcode.KindImmU2:
			v, _ := view.U2(bci + 1)
			si.poolIndex = v
			si.length = info.Len
		case opcode.KindImmS2:
			v, err := view.S2(bci + 1)
			if err != nil {
				return nil, malformed(bci, "truncated branch operand")
			}
			if op == 0x11 { // sipush: a signed immediate, not a branch offset
				si.intImm = int32(v)
			} else {
				si.targets = []int{bci + int(v)}
			}
			si.length = info.Len
		case opcode.KindImmS4:
			v, err := view.S4(bci + 1)
			if err != nil {
				return nil, malformed(bci, "truncated wide branch operand")
			}
			si.targets = []int{bci + int(v)}
			si.length = info.Len
		case opcode.KindImmU2U1:
			idx, _ := view.U2(bci + 1)
			si.poolIndex = idx
			si.length = info.Len
		case opcode.KindImmU2U2:
			idx, _ := view.U2(bci + 1)
			si.poolIndex = idx
			si.length = info.Len
		case opcode.KindImmU2U1Zero:
			idx, _ := view.U2(bci + 1)
			dims, _ := view.U1(bci + 3)
			si.poolIndex, si.dims = idx, dims
			si.length = info.Len
		case opcode.KindTableSwitch:
			targets, length, err := scanTableSwitch(view, bci)
			if err != nil {
				return nil, err
			}
			si.targets = targets
			si.length = length
		case opcode.KindLookupSwitch:
			targets, length, err := scanLookupSwitch(view, bci)
			if err != nil {
				return nil, err
			}
			si.targets = targets
			si.length = length
		case opcode.KindWide:
			sub, _ := view.U1(bci + 1)
			slot, err := view.U2(bci + 2)
			if err != nil {
				return nil, malformed(bci, "truncated wide operand")
			}
			si.opcode = sub
			si.varSlot = slot
			if sub == 0x84 {
				c, err := view.S2(bci + 4)
				if err != nil {
					return nil, malformed(bci, "truncated wide iinc const")
				}
				si.iincConst = int16(c)
				si.length = 6
			} else {
				si.length = 4
			}
		default:
			return nil, malformed(bci, "unhandled opcode kind for 0x%02x", op)
		}
		out = append(out, si)
		bci += si.length
	}
	return out, nil
}

// implicitSlot recovers the local-variable slot baked into a compact
// *load_N/*store_N opcode, mirroring code.go's normalizeImplicitSlot.
func implicitSlot(op byte) uint16 {
	switch {
	case op >= 0x1a && op <= 0x1d:
		return uint16(op - 0x1a)
	case op >= 0x1e && op <= 0x21:
		return uint16(op - 0x1e)
	case op >= 0x22 && op <= 0x25:
		return uint16(op - 0x22)
	case op >= 0x26 && op <= 0x29:
		return uint16(op - 0x26)
	case op >= 0x2a && op <= 0x2d:
		return uint16(op - 0x2a)
	case op >= 0x3b && op <= 0x3e:
		return uint16(op - 0x3b)
	case op >= 0x3f && op <= 0x42:
		return uint16(op - 0x3f)
	case op >= 0x43 && op <= 0x46:
		return uint16(op - 0x43)
	case op >= 0x47 && op <= 0x4a:
		return uint16(op - 0x47)
	case op >= 0x4b && op <= 0x4e:
		return uint16(op - 0x4b)
	}
	return 0
}

func scanTableSwitch(view bufview.ByteView, bci int) ([]int, int, error) {
	pos := bci + 1
	pad := (4 - pos%4) % 4
	pos += pad
	def, err := view.S4(pos)
	if err != nil {
		return nil, 0, malformed(bci, "truncated tableswitch default")
	}
	low, err := view.S4(pos + 4)
	if err != nil {
		return nil, 0, malformed(bci, "truncated tableswitch low")
	}
	high, err := view.S4(pos + 8)
	if err != nil {
		return nil, 0, malformed(bci, "truncated tableswitch high")
	}
	n := int(high-low) + 1
	if n < 0 {
		return nil, 0, malformed(bci, "tableswitch high < low")
	}
	targets := make([]int, 0, n+1)
	targets = append(targets, bci+int(def))
	p := pos + 12
	for i := 0; i < n; i++ {
		off, err := view.S4(p)
		if err != nil {
			return nil, 0, malformed(bci, "truncated tableswitch entry %d", i)
		}
		targets = append(targets, bci+int(off))
		p += 4
	}
	return targets, p - bci, nil
}

func scanLookupSwitch(view bufview.ByteView, bci int) ([]int, int, error) {
	pos := bci + 1
	pad := (4 - pos%4) % 4
	pos += pad
	def, err := view.S4(pos)
	if err != nil {
		return nil, 0, malformed(bci, "truncated lookupswitch default")
	}
	npairs, err := view.S4(pos + 4)
	if err != nil || npairs < 0 {
		return nil, 0, malformed(bci, "truncated lookupswitch npairs")
	}
	targets := make([]int, 0, npairs+1)
	targets = append(targets, bci+int(def))
	p := pos + 8
	for i := 0; i < int(npairs); i++ {
		_, err := view.S4(p)
		if err != nil {
			return nil, 0, malformed(bci, "truncated lookupswitch match %d", i)
		}
		off, err := view.S4(p + 4)
		if err != nil {
			return nil, 0, malformed(bci, "truncated lookupswitch offset %d", i)
		}
		targets = append(targets, bci+int(off))
		p += 8
	}
	return targets, p - bci, nil
}

// stepInstruction applies si's effect to locals/stack and returns the
// resulting stack plus whether control can fall through to the next
// instruction in sequence. Stores write into locals in place, and some
// stack operations (swap, checkcast) rewrite entries of stack's backing
// array, so callers pass copies they own.
func stepInstruction(si *scannedInstr, locals []VerificationType, stack []VerificationType, pool *ConstantPool) ([]VerificationType, bool, error) {
	push := func(s []VerificationType, vt VerificationType) []VerificationType { return append(s, vt) }
	pop := func(s []VerificationType, n int) []VerificationType {
		if n > len(s) {
			n = len(s)
		}
		return s[:len(s)-n]
	}

	op := si.opcode
	switch {
	case op == 0x00: // nop
		return stack, true, nil
	case op == 0x01: // aconst_null
		return push(stack, VTNull), true, nil
	case op >= 0x02 && op <= 0x0f: // iconst/lconst/fconst/dconst
		switch {
		case op <= 0x08:
			return push(stack, VTInteger), true, nil
		case op <= 0x0a:
			return push(stack, VTLong), true, nil
		case op <= 0x0d:
			return push(stack, VTFloat), true, nil
		default:
			return push(stack, VTDouble), true, nil
		}
	case op == 0x10, op == 0x11: // bipush, sipush
		return push(stack, VTInteger), true, nil
	case op == 0x12, op == 0x13: // ldc, ldc_w
		return push(stack, ldcType(pool, si.poolIndex)), true, nil
	case op == 0x14: // ldc2_w
		e, err := pool.Entry(si.poolIndex)
		if err != nil {
			return push(stack, VTTop), true, nil
		}
		if e.Kind == TagDouble {
			return push(stack, VTDouble), true, nil
		}
		return push(stack, VTLong), true, nil
	case isLoadOpcode(op):
		return push(stack, loadType(op, si.varSlot, locals)), true, nil
	case isStoreOpcode(op):
		cat := storeCategory(op)
		storeLocal(locals, si.varSlot, cat)
		return pop(stack, slotWidth(cat)), true, nil
	case op >= 0x2e && op <= 0x35: // *aload
		return push(pop(stack, 2), arrayLoadType(op)), true, nil
	case op >= 0x4f && op <= 0x56: // *astore
		return pop(stack, arrayStorePop(op)), true, nil
	case op == 0x57: // pop
		return pop(stack, 1), true, nil
	case op == 0x58: // pop2
		return pop(stack, 2), true, nil
	case op == 0x59: // dup
		if len(stack) == 0 {
			return stack, true, nil
		}
		return push(stack, stack[len(stack)-1]), true, nil
	case op == 0x5f: // swap
		if len(stack) >= 2 {
			stack[len(stack)-1], stack[len(stack)-2] = stack[len(stack)-2], stack[len(stack)-1]
		}
		return stack, true, nil
	case op >= 0x5a && op <= 0x5e: // dup_x1/x2, dup2, dup2_x1/x2: conservative same-depth approximation
		return dupFamily(op, stack), true, nil
	case op >= 0x60 && op <= 0x83: // arithmetic/logic
		return arithResult(op, stack), true, nil
	case op == 0x84: // iinc
		return stack, true, nil
	case op >= 0x85 && op <= 0x93: // conversions
		return convResult(op, stack), true, nil
	case op >= 0x94 && op <= 0x98: // comparisons
		return push(pop(stack, cmpPop(op)), VTInteger), true, nil
	case opcode.IsConditionalBranch(op):
		return pop(stack, condPop(op)), true, nil
	case op == 0xa7: // goto
		return stack, false, nil
	case op == 0xa8, op == 0xa9: // jsr, ret (discontinued; tolerated for legacy round trip)
		return stack, op == 0xa8, nil
	case op == 0xaa, op == 0xab: // tableswitch, lookupswitch
		return pop(stack, 1), false, nil
	case op >= 0xac && op <= 0xb1: // *return
		return nil, false, nil
	case op == 0xb2: // getstatic
		return push(stack, fieldType(pool, si.poolIndex)), true, nil
	case op == 0xb3: // putstatic
		return pop(stack, slotWidth(fieldCategoryOf(pool, si.poolIndex))), true, nil
	case op == 0xb4: // getfield
		return push(pop(stack, 1), fieldType(pool, si.poolIndex)), true, nil
	case op == 0xb5: // putfield
		return pop(stack, 1+slotWidth(fieldCategoryOf(pool, si.poolIndex))), true, nil
	case op == 0xb6, op == 0xb7, op == 0xb8, op == 0xb9: // invoke{virtual,special,static,interface}
		return invokeResult(op, pool, si.poolIndex, stack), true, nil
	case op == 0xba: // invokedynamic
		return invokeDynamicResult(pool, si.poolIndex, stack), true, nil
	case op == 0xbb: // new
		return push(stack, VTUninitialized(si.bci)), true, nil
	case op == 0xbc, op == 0xbd: // newarray, anewarray
		return push(pop(stack, 1), VTObject(0)), true, nil
	case op == 0xbe: // arraylength
		return push(pop(stack, 1), VTInteger), true, nil
	case op == 0xbf: // athrow
		return nil, false, nil
	case op == 0xc0: // checkcast
		if len(stack) > 0 {
			stack[len(stack)-1] = VTObject(si.poolIndex)
		}
		return stack, true, nil
	case op == 0xc1: // instanceof
		return push(pop(stack, 1), VTInteger), true, nil
	case op == 0xc2, op == 0xc3: // monitorenter, monitorexit
		return pop(stack, 1), true, nil
	case op == 0xc5: // multianewarray
		return push(pop(stack, int(si.dims)), VTObject(si.poolIndex)), true, nil
	case op == 0xc8: // goto_w
		return stack, false, nil
	case op == 0xc9: // jsr_w
		return stack, true, nil
	}
	return stack, true, nil
}

func ldcType(pool *ConstantPool, idx uint16) VerificationType {
	e, err := pool.Entry(idx)
	if err != nil {
		return VTTop
	}
	switch e.Kind {
	case TagInteger:
		return VTInteger
	case TagFloat:
		return VTFloat
	case TagString:
		cls, _ := pool.Class("java/lang/String")
		return VTObject(cls)
	case TagClass:
		cls, _ := pool.Class("java/lang/Class")
		return VTObject(cls)
	default:
		return VTObject(0)
	}
}

func isLoadOpcode(op byte) bool {
	return (op >= 0x15 && op <= 0x19) || (op >= 0x1a && op <= 0x2d)
}

func isStoreOpcode(op byte) bool {
	return (op >= 0x36 && op <= 0x3a) || (op >= 0x3b && op <= 0x4e)
}

func loadCategory(op byte) fieldCategory {
	switch {
	case op == 0x15 || (op >= 0x1a && op <= 0x1d):
		return catInt
	case op == 0x16 || (op >= 0x1e && op <= 0x21):
		return catLong
	case op == 0x17 || (op >= 0x22 && op <= 0x25):
		return catFloat
	case op == 0x18 || (op >= 0x26 && op <= 0x29):
		return catDouble
	default:
		return catRef
	}
}

func storeCategory(op byte) fieldCategory {
	switch {
	case op == 0x36 || (op >= 0x3b && op <= 0x3e):
		return catInt
	case op == 0x37 || (op >= 0x3f && op <= 0x42):
		return catLong
	case op == 0x38 || (op >= 0x43 && op <= 0x46):
		return catFloat
	case op == 0x39 || (op >= 0x47 && op <= 0x4a):
		return catDouble
	default:
		return catRef
	}
}

func loadType(op byte, slot uint16, locals []VerificationType) VerificationType {
	if int(slot) < len(locals) {
		return locals[slot]
	}
	switch loadCategory(op) {
	case catLong:
		return VTLong
	case catFloat:
		return VTFloat
	case catDouble:
		return VTDouble
	case catRef:
		return VTObject(0)
	default:
		return VTInteger
	}
}

func storeLocal(locals []VerificationType, slot uint16, cat fieldCategory) {
	if int(slot) >= len(locals) {
		return
	}
	var vt VerificationType
	switch cat {
	case catLong:
		vt = VTLong
	case catFloat:
		vt = VTFloat
	case catDouble:
		vt = VTDouble
	case catRef:
		vt = VTObject(0)
	default:
		vt = VTInteger
	}
	locals[slot] = vt
	if slotWidth(cat) == 2 && int(slot)+1 < len(locals) {
		locals[slot+1] = VTTop
	}
}

func arrayLoadType(op byte) VerificationType {
	switch op {
	case 0x2f:
		return VTLong
	case 0x30:
		return VTFloat
	case 0x31:
		return VTDouble
	case 0x32:
		return VTObject(0)
	default:
		return VTInteger
	}
}

func arrayStorePop(op byte) int {
	switch op {
	case 0x50, 0x52: // lastore, dastore
		return 4
	default:
		return 3
	}
}

func dupFamily(op byte, stack []VerificationType) []VerificationType {
	n := len(stack)
	switch op {
	case 0x5a: // dup_x1
		if n < 2 {
			return stack
		}
		top := stack[n-1]
		out := append([]VerificationType{}, stack[:n-2]...)
		out = append(out, top, stack[n-2], top)
		return out
	case 0x5b: // dup_x2
		if n < 3 {
			return stack
		}
		top := stack[n-1]
		out := append([]VerificationType{}, stack[:n-3]...)
		out = append(out, top, stack[n-3], stack[n-2], top)
		return out
	case 0x5c: // dup2
		if n < 2 {
			return stack
		}
		return append(stack, stack[n-2], stack[n-1])
	case 0x5d: // dup2_x1
		if n < 3 {
			return stack
		}
		a, b := stack[n-2], stack[n-1]
		out := append([]VerificationType{}, stack[:n-3]...)
		out = append(out, a, b, stack[n-3], a, b)
		return out
	case 0x5e: // dup2_x2
		if n < 4 {
			return stack
		}
		a, b := stack[n-2], stack[n-1]
		out := append([]VerificationType{}, stack[:n-4]...)
		out = append(out, a, b, stack[n-4], stack[n-3], a, b)
		return out
	}
	return stack
}

func arithResult(op byte, stack []VerificationType) []VerificationType {
	cat1 := func(n int) []VerificationType {
		if n > len(stack) {
			n = len(stack)
		}
		s := stack[:len(stack)-n]
		return append(s, VTInteger)
	}
	switch {
	case op == 0x74 || op == 0x78 || op == 0x7a || op == 0x7c || op == 0x7e || op == 0x80 || op == 0x82: // int unary/shift/bitwise
		if op == 0x74 { // ineg: pop1 push1
			return cat1(1)
		}
		return cat1(2)
	case op == 0x75: // lneg
		if len(stack) >= 2 {
			return append(stack[:len(stack)-2], VTLong)
		}
		return stack
	case op == 0x76: // fneg
		if len(stack) >= 1 {
			return append(stack[:len(stack)-1], VTFloat)
		}
		return stack
	case op == 0x77: // dneg
		if len(stack) >= 2 {
			return append(stack[:len(stack)-2], VTDouble)
		}
		return stack
	}
	// binary int ops: iadd, isub, imul, idiv, irem
	switch op {
	case 0x60, 0x64, 0x68, 0x6c, 0x70:
		return cat1(2)
	case 0x61, 0x65, 0x69, 0x6d, 0x71, 0x7f, 0x81, 0x83: // long binary
		n := 4
		if n > len(stack) {
			n = len(stack)
		}
		return append(stack[:len(stack)-n], VTLong)
	case 0x79, 0x7b, 0x7d: // lshl, lshr, lushr: pop int shift amount + long
		n := 3
		if n > len(stack) {
			n = len(stack)
		}
		return append(stack[:len(stack)-n], VTLong)
	case 0x62, 0x66, 0x6a, 0x6e, 0x72: // float binary
		n := 2
		if n > len(stack) {
			n = len(stack)
		}
		return append(stack[:len(stack)-n], VTFloat)
	case 0x63, 0x67, 0x6b, 0x6f, 0x73: // double binary
		n := 4
		if n > len(stack) {
			n = len(stack)
		}
		return append(stack[:len(stack)-n], VTDouble)
	}
	return stack
}

func convResult(op byte, stack []VerificationType) []VerificationType {
	pop := func(n int) []VerificationType {
		if n > len(stack) {
			n = len(stack)
		}
		return stack[:len(stack)-n]
	}
	switch op {
	case 0x85:
		return append(pop(1), VTLong) // i2l
	case 0x86:
		return append(pop(1), VTFloat) // i2f
	case 0x87:
		return append(pop(1), VTDouble) // i2d
	case 0x88:
		return append(pop(2), VTInteger) // l2i
	case 0x89:
		return append(pop(2), VTFloat) // l2f
	case 0x8a:
		return append(pop(2), VTDouble) // l2d
	case 0x8b:
		return append(pop(1), VTInteger) // f2i
	case 0x8c:
		return append(pop(1), VTLong) // f2l
	case 0x8d:
		return append(pop(1), VTDouble) // f2d
	case 0x8e:
		return append(pop(2), VTInteger) // d2i
	case 0x8f:
		return append(pop(2), VTLong) // d2l
	case 0x90:
		return append(pop(2), VTFloat) // d2f
	case 0x91, 0x92, 0x93: // i2b, i2c, i2s
		return append(pop(1), VTInteger)
	}
	return stack
}

func cmpPop(op byte) int {
	if op == 0x94 || op == 0x97 || op == 0x98 { // lcmp, dcmpl, dcmpg
		return 4
	}
	return 2
}

func condPop(op byte) int {
	switch op {
	case 0x9f, 0xa0, 0xa1, 0xa2, 0xa3, 0xa4, 0xa5, 0xa6: // if_icmp*/if_acmp*
		return 2
	default:
		return 1
	}
}

func fieldCategoryOf(pool *ConstantPool, fieldrefIdx uint16) fieldCategory {
	e, err := pool.Entry(fieldrefIdx)
	if err != nil {
		return catRef
	}
	nt, err := pool.Entry(e.NameAndTypeIndex)
	if err != nil {
		return catRef
	}
	desc, err := pool.Utf8Text(nt.DescriptorIndex)
	if err != nil {
		return catRef
	}
	cat, _ := parseFieldType(desc)
	return cat
}

func fieldType(pool *ConstantPool, fieldrefIdx uint16) VerificationType {
	switch fieldCategoryOf(pool, fieldrefIdx) {
	case catLong:
		return VTLong
	case catFloat:
		return VTFloat
	case catDouble:
		return VTDouble
	case catRef:
		return VTObject(0)
	default:
		return VTInteger
	}
}

func invokeResult(op byte, pool *ConstantPool, idx uint16, stack []VerificationType) []VerificationType {
	e, err := pool.Entry(idx)
	if err != nil {
		return stack
	}
	nt, err := pool.Entry(e.NameAndTypeIndex)
	if err != nil {
		return stack
	}
	desc, err := pool.Utf8Text(nt.DescriptorIndex)
	if err != nil {
		return stack
	}
	md := parseMethodDescriptor(desc)
	popSlots := 0
	for _, p := range md.Params {
		popSlots += slotWidth(p)
	}
	if op != 0xb8 { // not invokestatic: an implicit objectref
		popSlots++
	}
	if popSlots > len(stack) {
		popSlots = len(stack)
	}
	stack = stack[:len(stack)-popSlots]
	switch md.Return {
	case catVoid:
		return stack
	case catLong:
		return append(stack, VTLong)
	case catFloat:
		return append(stack, VTFloat)
	case catDouble:
		return append(stack, VTDouble)
	case catRef:
		return append(stack, VTObject(0))
	default:
		return append(stack, VTInteger)
	}
}

func invokeDynamicResult(pool *ConstantPool, idx uint16, stack []VerificationType) []VerificationType {
	e, err := pool.Entry(idx)
	if err != nil {
		return stack
	}
	nt, err := pool.Entry(e.NameAndTypeIndex)
	if err != nil {
		return stack
	}
	desc, err := pool.Utf8Text(nt.DescriptorIndex)
	if err != nil {
		return stack
	}
	md := parseMethodDescriptor(desc)
	popSlots := 0
	for _, p := range md.Params {
		popSlots += slotWidth(p)
	}
	if popSlots > len(stack) {
		popSlots = len(stack)
	}
	stack = stack[:len(stack)-popSlots]
	switch md.Return {
	case catVoid:
		return stack
	case catLong:
		return append(stack, VTLong)
	case catFloat:
		return append(stack, VTFloat)
	case catDouble:
		return append(stack, VTDouble)
	case catRef:
		return append(stack, VTObject(0))
	default:
		return append(stack, VTInteger)
	}
}
