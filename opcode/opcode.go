// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package opcode is the single source of truth for JVM instruction metadata:
// mnemonic, base encoded length, stack effect, and operand shape for every
// opcode in the range 0x00 (nop) through 0xc9 (jsr_w, discontinued since
// classfile version 51). Both the decoder (cf's element stream) and the
// assembler key off this table instead of duplicating a opcode switch in
// each direction, keeping the two in lockstep by construction.
package opcode

// Kind classifies how an opcode's operands are encoded, which determines
// how many bytes follow the opcode byte and how a disassembler or
// assembler must special-case it.
type Kind int

const (
	// KindNone has no operands (e.g. iconst_0, iadd, return).
	KindNone Kind = iota
	// KindImmU1 has a single unsigned byte operand (ldc, newarray, a local slot).
	KindImmU1
	// KindImmU1U1 has two byte operands (iinc: unsigned index, signed const).
	KindImmU1U1
	// KindImmS1 has a single signed byte operand (bipush's immediate).
	KindImmS1
	// KindImmU2 has a single big-endian unsigned 2-byte operand (a pool
	// index for ldc_w/ldc2_w, or field/method refs).
	KindImmU2
	// KindImmS2 has a single big-endian signed 2-byte operand (sipush, or a
	// short-form branch offset).
	KindImmS2
	// KindImmU2U1 is invokeinterface's {index u2, count u1, 0 u1} shape.
	KindImmU2U1
	// KindImmU2U2 is invokedynamic's {index u2, 0 u2} shape, and
	// multianewarray's {index u2, dims u1} is handled as its own kind below.
	KindImmU2U2
	// KindImmU2U1Zero is multianewarray: index u2, dimensions u1.
	KindImmU2U1Zero
	// KindImmS4 is a long-form branch offset (goto_w, jsr_w).
	KindImmS4
	// KindTableSwitch and KindLookupSwitch have variable-length,
	// 4-byte-aligned operand tables and are handled structurally rather
	// than through the fixed-width fields above.
	KindTableSwitch
	KindLookupSwitch
	// KindWide is the wide-prefix modifier; its effective length depends on
	// the opcode it modifies (iinc takes 2 u2 fields, the rest take one).
	KindWide
)

// StackEffect describes an opcode's effect on the operand stack in terms of
// category-1 stack slots (category-2 values — long, double — occupy two).
// Effect is data-independent for most opcodes; a handful (the stack family:
// dup2, pop2; and the invoke family, whose effect depends on the resolved
// descriptor) are approximated here and refined by the caller using
// constant-pool-derived descriptor info.
type StackEffect struct {
	// Pop is the number of category-1-equivalent slots consumed; -1 means
	// "data-dependent, see the instruction's resolved descriptor."
	Pop int
	// Push is the number of category-1-equivalent slots produced; -1 means
	// data-dependent.
	Push int
}

// Info is the per-opcode metadata record.
type Info struct {
	Code    byte
	Mnemonic string
	// Len is the total encoded length in bytes including the opcode byte
	// itself, for fixed-length opcodes; 0 for the variable-length kinds
	// (KindTableSwitch, KindLookupSwitch, KindWide).
	Len   int
	Kind  Kind
	Stack StackEffect
	// Discontinued marks jsr/jsr_w/ret: discontinued for classfile major
	// version >= 51 per JVMS 4.9.1. It is informational only: parse,
	// transform and the assembler all accept these opcodes at any version.
	Discontinued bool
}

// byCode is indexed directly by opcode byte; a zero-value Info at index i
// with an empty Mnemonic means opcode i is unassigned/reserved.
var byCode [256]Info

func reg(i Info) { byCode[i.Code] = i }

func init() {
	reg(Info{Code: 0x00, Mnemonic: "nop", Len: 1, Kind: KindNone})
	reg(Info{Code: 0x01, Mnemonic: "aconst_null", Len: 1, Kind: KindNone, Stack: StackEffect{0, 1}})
	for i, m := range []string{"iconst_m1", "iconst_0", "iconst_1", "iconst_2", "iconst_3", "iconst_4", "iconst_5"} {
		reg(Info{Code: byte(0x02 + i), Mnemonic: m, Len: 1, Kind: KindNone, Stack: StackEffect{0, 1}})
	}
	reg(Info{Code: 0x09, Mnemonic: "lconst_0", Len: 1, Kind: KindNone, Stack: StackEffect{0, 2}})
	reg(Info{Code: 0x0a, Mnemonic: "lconst_1", Len: 1, Kind: KindNone, Stack: StackEffect{0, 2}})
	reg(Info{Code: 0x0b, Mnemonic: "fconst_0", Len: 1, Kind: KindNone, Stack: StackEffect{0, 1}})
	reg(Info{Code: 0x0c, Mnemonic: "fconst_1", Len: 1, Kind: KindNone, Stack: StackEffect{0, 1}})
	reg(Info{Code: 0x0d, Mnemonic: "fconst_2", Len: 1, Kind: KindNone, Stack: StackEffect{0, 1}})
	reg(Info{Code: 0x0e, Mnemonic: "dconst_0", Len: 1, Kind: KindNone, Stack: StackEffect{0, 2}})
	reg(Info{Code: 0x0f, Mnemonic: "dconst_1", Len: 1, Kind: KindNone, Stack: StackEffect{0, 2}})

	reg(Info{Code: 0x10, Mnemonic: "bipush", Len: 2, Kind: KindImmS1, Stack: StackEffect{0, 1}})
	reg(Info{Code: 0x11, Mnemonic: "sipush", Len: 3, Kind: KindImmS2, Stack: StackEffect{0, 1}})
	reg(Info{Code: 0x12, Mnemonic: "ldc", Len: 2, Kind: KindImmU1, Stack: StackEffect{0, 1}})
	reg(Info{Code: 0x13, Mnemonic: "ldc_w", Len: 3, Kind: KindImmU2, Stack: StackEffect{0, 1}})
	reg(Info{Code: 0x14, Mnemonic: "ldc2_w", Len: 3, Kind: KindImmU2, Stack: StackEffect{0, 2}})

	reg(Info{Code: 0x15, Mnemonic: "iload", Len: 2, Kind: KindImmU1, Stack: StackEffect{0, 1}})
	reg(Info{Code: 0x16, Mnemonic: "lload", Len: 2, Kind: KindImmU1, Stack: StackEffect{0, 2}})
	reg(Info{Code: 0x17, Mnemonic: "fload", Len: 2, Kind: KindImmU1, Stack: StackEffect{0, 1}})
	reg(Info{Code: 0x18, Mnemonic: "dload", Len: 2, Kind: KindImmU1, Stack: StackEffect{0, 2}})
	reg(Info{Code: 0x19, Mnemonic: "aload", Len: 2, Kind: KindImmU1, Stack: StackEffect{0, 1}})

	for i := 0; i < 4; i++ {
		reg(Info{Code: byte(0x1a + i), Mnemonic: "iload_" + string(rune('0'+i)), Len: 1, Kind: KindNone, Stack: StackEffect{0, 1}})
		reg(Info{Code: byte(0x1e + i), Mnemonic: "lload_" + string(rune('0'+i)), Len: 1, Kind: KindNone, Stack: StackEffect{0, 2}})
		reg(Info{Code: byte(0x22 + i), Mnemonic: "fload_" + string(rune('0'+i)), Len: 1, Kind: KindNone, Stack: StackEffect{0, 1}})
		reg(Info{Code: byte(0x26 + i), Mnemonic: "dload_" + string(rune('0'+i)), Len: 1, Kind: KindNone, Stack: StackEffect{0, 2}})
		reg(Info{Code: byte(0x2a + i), Mnemonic: "aload_" + string(rune('0'+i)), Len: 1, Kind: KindNone, Stack: StackEffect{0, 1}})
	}

	reg(Info{Code: 0x2e, Mnemonic: "iaload", Len: 1, Kind: KindNone, Stack: StackEffect{2, 1}})
	reg(Info{Code: 0x2f, Mnemonic: "laload", Len: 1, Kind: KindNone, Stack: StackEffect{2, 2}})
	reg(Info{Code: 0x30, Mnemonic: "faload", Len: 1, Kind: KindNone, Stack: StackEffect{2, 1}})
	reg(Info{Code: 0x31, Mnemonic: "daload", Len: 1, Kind: KindNone, Stack: StackEffect{2, 2}})
	reg(Info{Code: 0x32, Mnemonic: "aaload", Len: 1, Kind: KindNone, Stack: StackEffect{2, 1}})
	reg(Info{Code: 0x33, Mnemonic: "baload", Len: 1, Kind: KindNone, Stack: StackEffect{2, 1}})
	reg(Info{Code: 0x34, Mnemonic: "caload", Len: 1, Kind: KindNone, Stack: StackEffect{2, 1}})
	reg(Info{Code: 0x35, Mnemonic: "saload", Len: 1, Kind: KindNone, Stack: StackEffect{2, 1}})

	reg(Info{Code: 0x36, Mnemonic: "istore", Len: 2, Kind: KindImmU1, Stack: StackEffect{1, 0}})
	reg(Info{Code: 0x37, Mnemonic: "lstore", Len: 2, Kind: KindImmU1, Stack: StackEffect{2, 0}})
	reg(Info{Code: 0x38, Mnemonic: "fstore", Len: 2, Kind: KindImmU1, Stack: StackEffect{1, 0}})
	reg(Info{Code: 0x39, Mnemonic: "dstore", Len: 2, Kind: KindImmU1, Stack: StackEffect{2, 0}})
	reg(Info{Code: 0x3a, Mnemonic: "astore", Len: 2, Kind: KindImmU1, Stack: StackEffect{1, 0}})

	for i := 0; i < 4; i++ {
		reg(Info{Code: byte(0x3b + i), Mnemonic: "istore_" + string(rune('0'+i)), Len: 1, Kind: KindNone, Stack: StackEffect{1, 0}})
		reg(Info{Code: byte(0x3f + i), Mnemonic: "lstore_" + string(rune('0'+i)), Len: 1, Kind: KindNone, Stack: StackEffect{2, 0}})
		reg(Info{Code: byte(0x43 + i), Mnemonic: "fstore_" + string(rune('0'+i)), Len: 1, Kind: KindNone, Stack: StackEffect{1, 0}})
		reg(Info{Code: byte(0x47 + i), Mnemonic: "dstore_" + string(rune('0'+i)), Len: 1, Kind: KindNone, Stack: StackEffect{2, 0}})
		reg(Info{Code: byte(0x4b + i), Mnemonic: "astore_" + string(rune('0'+i)), Len: 1, Kind: KindNone, Stack: StackEffect{1, 0}})
	}

	reg(Info{Code: 0x4f, Mnemonic: "iastore", Len: 1, Kind: KindNone, Stack: StackEffect{3, 0}})
	reg(Info{Code: 0x50, Mnemonic: "lastore", Len: 1, Kind: KindNone, Stack: StackEffect{4, 0}})
	reg(Info{Code: 0x51, Mnemonic: "fastore", Len: 1, Kind: KindNone, Stack: StackEffect{3, 0}})
	reg(Info{Code: 0x52, Mnemonic: "dastore", Len: 1, Kind: KindNone, Stack: StackEffect{4, 0}})
	reg(Info{Code: 0x53, Mnemonic: "aastore", Len: 1, Kind: KindNone, Stack: StackEffect{3, 0}})
	reg(Info{Code: 0x54, Mnemonic: "bastore", Len: 1, Kind: KindNone, Stack: StackEffect{3, 0}})
	reg(Info{Code: 0x55, Mnemonic: "castore", Len: 1, Kind: KindNone, Stack: StackEffect{3, 0}})
	reg(Info{Code: 0x56, Mnemonic: "sastore", Len: 1, Kind: KindNone, Stack: StackEffect{3, 0}})

	reg(Info{Code: 0x57, Mnemonic: "pop", Len: 1, Kind: KindNone, Stack: StackEffect{1, 0}})
	reg(Info{Code: 0x58, Mnemonic: "pop2", Len: 1, Kind: KindNone, Stack: StackEffect{2, 0}})
	reg(Info{Code: 0x59, Mnemonic: "dup", Len: 1, Kind: KindNone, Stack: StackEffect{1, 2}})
	reg(Info{Code: 0x5a, Mnemonic: "dup_x1", Len: 1, Kind: KindNone, Stack: StackEffect{2, 3}})
	reg(Info{Code: 0x5b, Mnemonic: "dup_x2", Len: 1, Kind: KindNone, Stack: StackEffect{3, 4}})
	reg(Info{Code: 0x5c, Mnemonic: "dup2", Len: 1, Kind: KindNone, Stack: StackEffect{2, 4}})
	reg(Info{Code: 0x5d, Mnemonic: "dup2_x1", Len: 1, Kind: KindNone, Stack: StackEffect{3, 5}})
	reg(Info{Code: 0x5e, Mnemonic: "dup2_x2", Len: 1, Kind: KindNone, Stack: StackEffect{4, 6}})
	reg(Info{Code: 0x5f, Mnemonic: "swap", Len: 1, Kind: KindNone, Stack: StackEffect{2, 2}})

	arith := []struct {
		base byte
		name string
		n    int // operand slot count (1 for int/float, 2 for long/double)
	}{
		{0x60, "add", 1}, {0x61, "add", 2}, {0x62, "add", 1}, {0x63, "add", 2},
	}
	_ = arith
	type binOp struct {
		code byte
		mn   string
		cat  int
	}
	for _, o := range []binOp{
		{0x60, "iadd", 1}, {0x61, "ladd", 2}, {0x62, "fadd", 1}, {0x63, "dadd", 2},
		{0x64, "isub", 1}, {0x65, "lsub", 2}, {0x66, "fsub", 1}, {0x67, "dsub", 2},
		{0x68, "imul", 1}, {0x69, "lmul", 2}, {0x6a, "fmul", 1}, {0x6b, "dmul", 2},
		{0x6c, "idiv", 1}, {0x6d, "ldiv", 2}, {0x6e, "fdiv", 1}, {0x6f, "ddiv", 2},
		{0x70, "irem", 1}, {0x71, "lrem", 2}, {0x72, "frem", 1}, {0x73, "drem", 2},
	} {
		reg(Info{Code: o.code, Mnemonic: o.mn, Len: 1, Kind: KindNone, Stack: StackEffect{o.cat * 2, o.cat}})
	}
	for _, o := range []binOp{
		{0x74, "ineg", 1}, {0x75, "lneg", 2}, {0x76, "fneg", 1}, {0x77, "dneg", 2},
	} {
		reg(Info{Code: o.code, Mnemonic: o.mn, Len: 1, Kind: KindNone, Stack: StackEffect{o.cat, o.cat}})
	}
	for _, o := range []binOp{
		{0x78, "ishl", 1}, {0x79, "lshl", 2}, {0x7a, "ishr", 1}, {0x7b, "lshr", 2},
		{0x7c, "iushr", 1}, {0x7d, "lushr", 2},
	} {
		pop := o.cat + 1
		reg(Info{Code: o.code, Mnemonic: o.mn, Len: 1, Kind: KindNone, Stack: StackEffect{pop, o.cat}})
	}
	for _, o := range []binOp{
		{0x7e, "iand", 1}, {0x7f, "land", 2}, {0x80, "ior", 1}, {0x81, "lor", 2},
		{0x82, "ixor", 1}, {0x83, "lxor", 2},
	} {
		reg(Info{Code: o.code, Mnemonic: o.mn, Len: 1, Kind: KindNone, Stack: StackEffect{o.cat * 2, o.cat}})
	}
	reg(Info{Code: 0x84, Mnemonic: "iinc", Len: 3, Kind: KindImmU1U1, Stack: StackEffect{0, 0}})

	convs := []struct {
		code byte
		mn   string
		pop  int
		push int
	}{
		{0x85, "i2l", 1, 2}, {0x86, "i2f", 1, 1}, {0x87, "i2d", 1, 2},
		{0x88, "l2i", 2, 1}, {0x89, "l2f", 2, 1}, {0x8a, "l2d", 2, 2},
		{0x8b, "f2i", 1, 1}, {0x8c, "f2l", 1, 2}, {0x8d, "f2d", 1, 2},
		{0x8e, "d2i", 2, 1}, {0x8f, "d2l", 2, 2}, {0x90, "d2f", 2, 1},
		{0x91, "i2b", 1, 1}, {0x92, "i2c", 1, 1}, {0x93, "i2s", 1, 1},
	}
	for _, c := range convs {
		reg(Info{Code: c.code, Mnemonic: c.mn, Len: 1, Kind: KindNone, Stack: StackEffect{c.pop, c.push}})
	}

	reg(Info{Code: 0x94, Mnemonic: "lcmp", Len: 1, Kind: KindNone, Stack: StackEffect{4, 1}})
	reg(Info{Code: 0x95, Mnemonic: "fcmpl", Len: 1, Kind: KindNone, Stack: StackEffect{2, 1}})
	reg(Info{Code: 0x96, Mnemonic: "fcmpg", Len: 1, Kind: KindNone, Stack: StackEffect{2, 1}})
	reg(Info{Code: 0x97, Mnemonic: "dcmpl", Len: 1, Kind: KindNone, Stack: StackEffect{4, 1}})
	reg(Info{Code: 0x98, Mnemonic: "dcmpg", Len: 1, Kind: KindNone, Stack: StackEffect{4, 1}})

	branches1 := []struct {
		code byte
		mn   string
		pop  int
	}{
		{0x99, "ifeq", 1}, {0x9a, "ifne", 1}, {0x9b, "iflt", 1}, {0x9c, "ifge", 1},
		{0x9d, "ifgt", 1}, {0x9e, "ifle", 1},
		{0x9f, "if_icmpeq", 2}, {0xa0, "if_icmpne", 2}, {0xa1, "if_icmplt", 2},
		{0xa2, "if_icmpge", 2}, {0xa3, "if_icmpgt", 2}, {0xa4, "if_icmple", 2},
		{0xa5, "if_acmpeq", 2}, {0xa6, "if_acmpne", 2},
	}
	for _, b := range branches1 {
		reg(Info{Code: b.code, Mnemonic: b.mn, Len: 3, Kind: KindImmS2, Stack: StackEffect{b.pop, 0}})
	}
	reg(Info{Code: 0xa7, Mnemonic: "goto", Len: 3, Kind: KindImmS2, Stack: StackEffect{0, 0}})
	reg(Info{Code: 0xa8, Mnemonic: "jsr", Len: 3, Kind: KindImmS2, Stack: StackEffect{0, 1}, Discontinued: true})
	reg(Info{Code: 0xa9, Mnemonic: "ret", Len: 2, Kind: KindImmU1, Stack: StackEffect{0, 0}, Discontinued: true})

	reg(Info{Code: 0xaa, Mnemonic: "tableswitch", Kind: KindTableSwitch, Stack: StackEffect{1, 0}})
	reg(Info{Code: 0xab, Mnemonic: "lookupswitch", Kind: KindLookupSwitch, Stack: StackEffect{1, 0}})

	reg(Info{Code: 0xac, Mnemonic: "ireturn", Len: 1, Kind: KindNone, Stack: StackEffect{1, 0}})
	reg(Info{Code: 0xad, Mnemonic: "lreturn", Len: 1, Kind: KindNone, Stack: StackEffect{2, 0}})
	reg(Info{Code: 0xae, Mnemonic: "freturn", Len: 1, Kind: KindNone, Stack: StackEffect{1, 0}})
	reg(Info{Code: 0xaf, Mnemonic: "dreturn", Len: 1, Kind: KindNone, Stack: StackEffect{2, 0}})
	reg(Info{Code: 0xb0, Mnemonic: "areturn", Len: 1, Kind: KindNone, Stack: StackEffect{1, 0}})
	reg(Info{Code: 0xb1, Mnemonic: "return", Len: 1, Kind: KindNone, Stack: StackEffect{0, 0}})

	reg(Info{Code: 0xb2, Mnemonic: "getstatic", Len: 3, Kind: KindImmU2, Stack: StackEffect{0, -1}})
	reg(Info{Code: 0xb3, Mnemonic: "putstatic", Len: 3, Kind: KindImmU2, Stack: StackEffect{-1, 0}})
	reg(Info{Code: 0xb4, Mnemonic: "getfield", Len: 3, Kind: KindImmU2, Stack: StackEffect{1, -1}})
	reg(Info{Code: 0xb5, Mnemonic: "putfield", Len: 3, Kind: KindImmU2, Stack: StackEffect{-1, 0}})
	reg(Info{Code: 0xb6, Mnemonic: "invokevirtual", Len: 3, Kind: KindImmU2, Stack: StackEffect{-1, -1}})
	reg(Info{Code: 0xb7, Mnemonic: "invokespecial", Len: 3, Kind: KindImmU2, Stack: StackEffect{-1, -1}})
	reg(Info{Code: 0xb8, Mnemonic: "invokestatic", Len: 3, Kind: KindImmU2, Stack: StackEffect{-1, -1}})
	reg(Info{Code: 0xb9, Mnemonic: "invokeinterface", Len: 5, Kind: KindImmU2U1, Stack: StackEffect{-1, -1}})
	reg(Info{Code: 0xba, Mnemonic: "invokedynamic", Len: 5, Kind: KindImmU2U2, Stack: StackEffect{-1, -1}})

	reg(Info{Code: 0xbb, Mnemonic: "new", Len: 3, Kind: KindImmU2, Stack: StackEffect{0, 1}})
	reg(Info{Code: 0xbc, Mnemonic: "newarray", Len: 2, Kind: KindImmU1, Stack: StackEffect{1, 1}})
	reg(Info{Code: 0xbd, Mnemonic: "anewarray", Len: 3, Kind: KindImmU2, Stack: StackEffect{1, 1}})
	reg(Info{Code: 0xbe, Mnemonic: "arraylength", Len: 1, Kind: KindNone, Stack: StackEffect{1, 1}})
	reg(Info{Code: 0xbf, Mnemonic: "athrow", Len: 1, Kind: KindNone, Stack: StackEffect{1, 1}})
	reg(Info{Code: 0xc0, Mnemonic: "checkcast", Len: 3, Kind: KindImmU2, Stack: StackEffect{1, 1}})
	reg(Info{Code: 0xc1, Mnemonic: "instanceof", Len: 3, Kind: KindImmU2, Stack: StackEffect{1, 1}})
	reg(Info{Code: 0xc2, Mnemonic: "monitorenter", Len: 1, Kind: KindNone, Stack: StackEffect{1, 0}})
	reg(Info{Code: 0xc3, Mnemonic: "monitorexit", Len: 1, Kind: KindNone, Stack: StackEffect{1, 0}})

	reg(Info{Code: 0xc4, Mnemonic: "wide", Kind: KindWide})
	reg(Info{Code: 0xc5, Mnemonic: "multianewarray", Len: 4, Kind: KindImmU2U1Zero, Stack: StackEffect{-1, 1}})
	reg(Info{Code: 0xc6, Mnemonic: "ifnull", Len: 3, Kind: KindImmS2, Stack: StackEffect{1, 0}})
	reg(Info{Code: 0xc7, Mnemonic: "ifnonnull", Len: 3, Kind: KindImmS2, Stack: StackEffect{1, 0}})
	reg(Info{Code: 0xc8, Mnemonic: "goto_w", Len: 5, Kind: KindImmS4, Stack: StackEffect{0, 0}})
	reg(Info{Code: 0xc9, Mnemonic: "jsr_w", Len: 5, Kind: KindImmS4, Stack: StackEffect{0, 1}, Discontinued: true})
}

// Lookup returns the metadata for an opcode byte and whether it is an
// assigned opcode at all.
func Lookup(code byte) (Info, bool) {
	info := byCode[code]
	return info, info.Mnemonic != ""
}

// IsBranch reports whether an opcode carries a branch target operand
// (fixed-width s2/s4, or the switch families handled structurally).
func IsBranch(code byte) bool {
	switch code {
	case 0xa7, 0xa8, 0xc8, 0xc9: // goto, jsr, goto_w, jsr_w
		return true
	case 0xaa, 0xab: // tableswitch, lookupswitch
		return true
	}
	if code >= 0x99 && code <= 0xa6 { // ifeq..if_acmpne
		return true
	}
	if code == 0xc6 || code == 0xc7 { // ifnull, ifnonnull
		return true
	}
	return false
}

// IsConditionalBranch reports whether an opcode is a conditional branch
// (has a non-branching fallthrough successor), as opposed to goto/jsr which
// are unconditional. Used by the assembler to decide the "invert and skip
// over a goto_w" widening strategy, since no long conditional form exists.
func IsConditionalBranch(code byte) bool {
	if code >= 0x99 && code <= 0xa6 {
		return true
	}
	return code == 0xc6 || code == 0xc7
}

// InvertedCondition returns the opcode for the logical negation of a
// conditional branch, used when widening a short conditional branch: the
// assembler rewrites `if<cond> L` into `if<!cond> skip; goto_w L; skip:`.
func InvertedCondition(code byte) (byte, bool) {
	pairs := map[byte]byte{
		0x99: 0x9a, 0x9a: 0x99, // ifeq/ifne
		0x9b: 0x9c, 0x9c: 0x9b, // iflt/ifge
		0x9d: 0x9e, 0x9e: 0x9d, // ifgt/ifle
		0x9f: 0xa0, 0xa0: 0x9f, // if_icmpeq/ne
		0xa1: 0xa2, 0xa2: 0xa1, // if_icmplt/ge
		0xa3: 0xa4, 0xa4: 0xa3, // if_icmpgt/le
		0xa5: 0xa6, 0xa6: 0xa5, // if_acmpeq/ne
		0xc6: 0xc7, 0xc7: 0xc6, // ifnull/ifnonnull
	}
	inv, ok := pairs[code]
	return inv, ok
}

// IsUnconditionalTerminator reports whether control never falls through
// past this opcode (goto family, all returns, athrow, the switches). Used
// by dead-code reachability analysis.
func IsUnconditionalTerminator(code byte) bool {
	switch code {
	case 0xa7, 0xc8: // goto, goto_w
		return true
	case 0xac, 0xad, 0xae, 0xaf, 0xb0, 0xb1: // ireturn..return
		return true
	case 0xbf: // athrow
		return true
	case 0xaa, 0xab: // tableswitch, lookupswitch
		return true
	}
	return false
}
