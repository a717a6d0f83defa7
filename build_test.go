// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classfile

import (
	"fmt"
	"testing"
)

func TestBuildEmptyClassRoundTrip(t *testing.T) {
	out, err := Build("com/example/Empty", nil, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	model, err := Parse(out)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if name, _ := model.ThisClassName(); name != "com/example/Empty" {
		t.Errorf("ThisClassName = %q, want com/example/Empty", name)
	}
	if super, _ := model.SuperClassName(); super != "java/lang/Object" {
		t.Errorf("SuperClassName = %q, want java/lang/Object (implicit default)", super)
	}
	if len(model.Fields) != 0 || len(model.Methods) != 0 {
		t.Errorf("expected no fields/methods, got %d/%d", len(model.Fields), len(model.Methods))
	}
}

func TestBuildConstantValueField(t *testing.T) {
	out, err := Build("com/example/Consts", nil, func(cb *ClassBuilder) {
		idx, err := cb.Pool().Integer(42)
		if err != nil {
			t.Fatalf("Integer: %v", err)
		}
		cb.WithField(AccPublic|AccStatic|AccFinal, "ANSWER", "I", func(fb *FieldBuilder) {
			fb.WithConstantValue(idx)
		})
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	model, err := Parse(out)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(model.Fields) != 1 {
		t.Fatalf("Fields = %d, want 1", len(model.Fields))
	}
	attr, ok := attributeOfKind(model.Fields[0].Attributes, AttrConstantValue)
	if !ok {
		t.Fatal("field missing ConstantValue attribute")
	}
	entry, err := model.Pool.Entry(attr.ConstantValueIndex)
	if err != nil {
		t.Fatalf("Entry: %v", err)
	}
	if entry.Kind != TagInteger || entry.IntValue != 42 {
		t.Errorf("ConstantValue entry = %+v, want Integer(42)", entry)
	}
}

func TestBuildForwardConditionalBranch(t *testing.T) {
	// ifeq -> target; iconst_0; target: return
	out, err := Build("com/example/Branchy", nil, func(cb *ClassBuilder) {
		cb.WithMethod(AccPublic|AccStatic, "run", "()V", func(mb *MethodBuilder) {
			mb.WithCode(1, 0, func(code *CodeBuilder) {
				target := code.NewLabel()
				code.With(Instruction{Opcode: 0x03})               // iconst_0
				code.With(Instruction{Opcode: 0x99, Target: target}) // ifeq
				code.With(Instruction{Opcode: 0x03})               // iconst_0 (dead path filler)
				code.With(Instruction{Opcode: 0x57})               // pop
				code.With(LabelElement{L: target})
				code.With(Instruction{Opcode: 0xb1}) // return
			})
		})
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	model, err := Parse(out)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	cm := model.Methods[0].Code()
	if cm == nil {
		t.Fatal("no Code attribute")
	}
	// iconst_0(1) + ifeq(3) + iconst_0(1) + pop(1) + return(1) = 7 bytes, no widening needed.
	if len(cm.Code) != 7 {
		t.Errorf("code length = %d, want 7: %v", len(cm.Code), cm.Code)
	}
	if cm.Code[6] != 0xb1 {
		t.Errorf("last byte = 0x%02x, want 0xb1 (return)", cm.Code[6])
	}
}

func TestBuildLongBranchWidensToGotoW(t *testing.T) {
	out, err := Build("com/example/Wide", nil, func(cb *ClassBuilder) {
		cb.WithMethod(AccPublic|AccStatic, "run", "()V", func(mb *MethodBuilder) {
			mb.WithCode(0, 0, func(code *CodeBuilder) {
				target := code.NewLabel()
				code.With(Instruction{Opcode: 0xa7, Target: target}) // goto
				for i := 0; i < 40000; i++ {
					code.With(Instruction{Opcode: 0x00}) // nop, pads past the s2 branch range
				}
				code.With(LabelElement{L: target})
				code.With(Instruction{Opcode: 0xb1}) // return
			})
		})
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	model, err := Parse(out)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	cm := model.Methods[0].Code()
	if cm == nil {
		t.Fatal("no Code attribute")
	}
	if cm.Code[0] != 0xc8 { // goto_w
		t.Errorf("first opcode = 0x%02x, want 0xc8 (goto_w after widening)", cm.Code[0])
	}
	if len(cm.Code) != 5+40000+1 {
		t.Errorf("code length = %d, want %d", len(cm.Code), 5+40000+1)
	}
}

func TestBuildFailOnShortJumpsRejectsWideBranch(t *testing.T) {
	cf := WithOptions(WithShortJumps(FailOnShortJumps))
	_, err := cf.Build("com/example/Wide2", nil, func(cb *ClassBuilder) {
		cb.WithMethod(AccPublic|AccStatic, "run", "()V", func(mb *MethodBuilder) {
			mb.WithCode(0, 0, func(code *CodeBuilder) {
				target := code.NewLabel()
				code.With(Instruction{Opcode: 0xa7, Target: target})
				for i := 0; i < 40000; i++ {
					code.With(Instruction{Opcode: 0x00})
				}
				code.With(LabelElement{L: target})
				code.With(Instruction{Opcode: 0xb1})
			})
		})
	})
	if err == nil {
		t.Fatal("expected an error with FAIL_ON_SHORT_JUMPS and an out-of-range branch")
	}
}

func TestBuildPatchDeadCode(t *testing.T) {
	out, err := Build("com/example/Dead", nil, func(cb *ClassBuilder) {
		cb.WithMethod(AccPublic|AccStatic, "run", "()V", func(mb *MethodBuilder) {
			mb.WithCode(1, 0, func(code *CodeBuilder) {
				code.With(Instruction{Opcode: 0xb1}) // return: unconditional terminator
				code.With(Instruction{Opcode: 0x03}) // iconst_0: unreachable, not label-referenced
			})
		})
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	model, err := Parse(out)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	cm := model.Methods[0].Code()
	if len(cm.Code) != 2 {
		t.Fatalf("code length = %d, want 2", len(cm.Code))
	}
	// The 1-byte dead iconst_0 leaves no room for a preceding nop: the whole
	// run collapses to its terminating athrow.
	if cm.Code[1] != 0xbf {
		t.Errorf("dead instruction not patched to athrow: got 0x%02x", cm.Code[1])
	}
	var frames []StackMapFrame
	for _, a := range cm.Attributes {
		if a.Kind == AttrStackMapTable {
			frames = a.StackMapFrames
		}
	}
	if len(frames) != 1 {
		t.Fatalf("StackMapFrames = %d, want 1", len(frames))
	}
	if frames[0].BCI != 1 {
		t.Errorf("frame BCI = %d, want 1", frames[0].BCI)
	}
	if len(frames[0].Stack) != 1 || frames[0].Stack[0].Kind != VObject {
		t.Errorf("frame stack = %v, want a single Throwable object", frames[0].Stack)
	}
}

func TestBuildPatchDeadCodePreservesLength(t *testing.T) {
	// A dead multi-byte instruction (ldc) must not shrink bciOf for
	// anything laid out after it: the branch below targets a bci past the
	// dead run, and must still land correctly.
	out, err := Build("com/example/DeadWide", nil, func(cb *ClassBuilder) {
		cb.WithMethod(AccPublic|AccStatic, "run", "()V", func(mb *MethodBuilder) {
			mb.WithCode(1, 0, func(code *CodeBuilder) {
				after := code.NewLabel()
				code.With(Instruction{Opcode: 0xa7, Target: after}) // goto after
				code.With(Instruction{Opcode: 0x12, PoolIndex: 1})  // dead ldc: unreachable, 2 bytes
				code.With(LabelElement{L: after})
				code.With(Instruction{Opcode: 0xb1}) // return
			})
		})
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	model, err := Parse(out)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	cm := model.Methods[0].Code()
	// goto(3) + nop,athrow(2) + return(1) = 6 bytes; goto must still jump to bci 5.
	if len(cm.Code) != 6 {
		t.Fatalf("code length = %d, want 6", len(cm.Code))
	}
	if cm.Code[3] != 0x00 || cm.Code[4] != 0xbf {
		t.Errorf("dead ldc not patched to nop,athrow: got [%#02x %#02x]", cm.Code[3], cm.Code[4])
	}
	if cm.Code[5] != 0xb1 {
		t.Errorf("return landed at the wrong bci: code = %v", cm.Code)
	}
}

func TestBuildLdcWidensToLdcW(t *testing.T) {
	pool := NewConstantPool()
	for i := 0; i < 300; i++ {
		if _, err := pool.Utf8(fmt.Sprintf("s%d", i)); err != nil {
			t.Fatalf("Utf8: %v", err)
		}
	}
	str, err := pool.String("late")
	if err != nil {
		t.Fatalf("String: %v", err)
	}
	if str <= 255 {
		t.Fatalf("pool index %d too small to exercise ldc_w widening", str)
	}
	out, err := Build("com/example/Ldc", pool, func(cb *ClassBuilder) {
		cb.WithMethod(AccPublic|AccStatic, "run", "()V", func(mb *MethodBuilder) {
			mb.WithCode(1, 0, func(code *CodeBuilder) {
				code.With(Instruction{Opcode: 0x12, PoolIndex: str}) // ldc
				code.With(Instruction{Opcode: 0x57})                 // pop
				code.With(Instruction{Opcode: 0xb1})                 // return
			})
		})
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	model, err := Parse(out)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	cm := model.Methods[0].Code()
	if cm.Code[0] != 0x13 {
		t.Fatalf("ldc did not widen to ldc_w: got opcode 0x%02x", cm.Code[0])
	}
	gotIdx := uint16(cm.Code[1])<<8 | uint16(cm.Code[2])
	if gotIdx != str {
		t.Errorf("ldc_w pool index = %d, want %d", gotIdx, str)
	}
	if cm.Code[3] != 0x57 || cm.Code[4] != 0xb1 {
		t.Errorf("trailing instructions shifted: code = %v", cm.Code)
	}
}

func TestBuildFailOnDeadCodeRejectsUnreachable(t *testing.T) {
	cf := WithOptions(WithDeadCode(FailOnDeadCode))
	_, err := cf.Build("com/example/Dead2", nil, func(cb *ClassBuilder) {
		cb.WithMethod(AccPublic|AccStatic, "run", "()V", func(mb *MethodBuilder) {
			mb.WithCode(0, 0, func(code *CodeBuilder) {
				code.With(Instruction{Opcode: 0xb1})
				code.With(Instruction{Opcode: 0x03})
			})
		})
	})
	if err == nil {
		t.Fatal("expected an error with FAIL_ON_DEAD_CODE and unreachable code")
	}
}

func TestBuilderConsumedOnce(t *testing.T) {
	pool := NewConstantPool()
	cf := Default
	var captured *ClassBuilder
	_, err := cf.Build("com/example/Reuse", pool, func(cb *ClassBuilder) {
		captured = cb
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, err := captured.finish(); err == nil {
		t.Error("expected IllegalState calling finish() a second time on the same builder")
	}
}
