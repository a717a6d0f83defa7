// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classfile

import "testing"

// TestBuildGeneratesStackMapOnBranch builds a >=50 major-version method with
// a forward conditional branch merging two paths, and checks a
// StackMapTable attribute is generated for the merge point (spec.md §4.6:
// classfile major version >= 50 implies the WHEN_REQUIRED default emits
// frames at control-flow merge points).
func TestBuildGeneratesStackMapOnBranch(t *testing.T) {
	out, err := Build("com/example/Merge", nil, func(cb *ClassBuilder) {
		cb.WithMethod(AccPublic|AccStatic, "run", "(I)I", func(mb *MethodBuilder) {
			mb.WithCode(1, 1, func(code *CodeBuilder) {
				target := code.NewLabel()
				code.With(Instruction{Opcode: 0x1a})                 // iload_0
				code.With(Instruction{Opcode: 0x99, Target: target}) // ifeq -> target
				code.With(Instruction{Opcode: 0x04})                 // iconst_1
				code.With(Instruction{Opcode: 0xac})                 // ireturn
				code.With(LabelElement{L: target})
				code.With(Instruction{Opcode: 0x03}) // iconst_0
				code.With(Instruction{Opcode: 0xac}) // ireturn
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
	attr, ok := attributeOfKind(cm.Attributes, AttrStackMapTable)
	if !ok {
		t.Fatal("expected a StackMapTable attribute at the branch merge point")
	}
	if len(attr.StackMapFrames) == 0 {
		t.Fatal("StackMapTable has no frames")
	}
}

// TestBuildNoStackMapWhenNoBranching confirms straight-line code (no merge
// points) generates an empty StackMapTable, which is then omitted entirely
// (assemble.go only appends the attribute when len(frames) > 0).
func TestBuildNoStackMapWhenNoBranching(t *testing.T) {
	out, err := Build("com/example/Straight", nil, func(cb *ClassBuilder) {
		cb.WithMethod(AccPublic|AccStatic, "run", "()V", func(mb *MethodBuilder) {
			mb.WithCode(0, 0, func(code *CodeBuilder) {
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
	if _, ok := attributeOfKind(cm.Attributes, AttrStackMapTable); ok {
		t.Error("expected no StackMapTable attribute for straight-line code")
	}
}

func TestInitialLocalsSeedsReceiverAndParams(t *testing.T) {
	sig := methodSigInfo{isStatic: false, isInit: false, descriptor: "(I)V", thisClass: 7}
	locals := initialLocals(sig, 3)
	if len(locals) != 3 {
		t.Fatalf("len(locals) = %d, want 3", len(locals))
	}
	if locals[0].Kind != VObject || locals[0].ClassIndex != 7 {
		t.Errorf("locals[0] = %+v, want VTObject(7) (this)", locals[0])
	}
	if locals[1] != VTInteger {
		t.Errorf("locals[1] = %+v, want VTInteger (int param)", locals[1])
	}
	if locals[2] != VTTop {
		t.Errorf("locals[2] = %+v, want VTTop (padding)", locals[2])
	}
}

func TestInitialLocalsInitUsesUninitializedThis(t *testing.T) {
	sig := methodSigInfo{isStatic: false, isInit: true, descriptor: "()V", thisClass: 7}
	locals := initialLocals(sig, 1)
	if locals[0] != VTUninitializedThis {
		t.Errorf("locals[0] = %+v, want VTUninitializedThis for <init>", locals[0])
	}
}

func TestInitialLocalsStaticHasNoReceiver(t *testing.T) {
	sig := methodSigInfo{isStatic: true, descriptor: "(I)V"}
	locals := initialLocals(sig, 2)
	if locals[0] != VTInteger {
		t.Errorf("locals[0] = %+v, want VTInteger (first param, no receiver slot)", locals[0])
	}
}
