// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classfile

import "testing"

func TestCodeElementsRoundTripsExceptionTable(t *testing.T) {
	out, err := Build("com/example/Try", nil, func(cb *ClassBuilder) {
		catch, err := cb.Pool().Class("java/lang/Exception")
		if err != nil {
			t.Fatalf("Class: %v", err)
		}
		cb.WithMethod(AccPublic|AccStatic, "run", "()V", func(mb *MethodBuilder) {
			mb.WithCode(1, 0, func(code *CodeBuilder) {
				start := code.NewLabel()
				end := code.NewLabel()
				handler := code.NewLabel()
				code.With(LabelElement{L: start})
				code.With(Instruction{Opcode: 0x00}) // nop
				code.With(LabelElement{L: end})
				code.With(Instruction{Opcode: 0xa7, Target: end}) // goto end: end is bound here, so this jumps to itself; the handler is reached only via the exception table
				code.With(LabelElement{L: handler})
				code.With(Instruction{Opcode: 0x57}) // pop (the thrown exception)
				code.With(Instruction{Opcode: 0xb1}) // return
				code.With(ExceptionCatchElement{Start: start, End: end, Handler: handler, CatchType: catch})
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
	if len(cm.ExceptionTable) != 1 {
		t.Fatalf("ExceptionTable = %d entries, want 1", len(cm.ExceptionTable))
	}

	elements, _, err := cm.Elements()
	if err != nil {
		t.Fatalf("Elements: %v", err)
	}
	var sawCatch bool
	var instrCount int
	for _, el := range elements {
		switch el.(type) {
		case ExceptionCatchElement:
			sawCatch = true
		case Instruction:
			instrCount++
		}
	}
	if !sawCatch {
		t.Error("Elements() did not produce an ExceptionCatchElement")
	}
	if instrCount != 4 { // nop, goto, pop, return
		t.Errorf("instruction count = %d, want 4", instrCount)
	}
}

func TestCodeElementsPreservesLineNumbers(t *testing.T) {
	out, err := Build("com/example/Lines", nil, func(cb *ClassBuilder) {
		cb.WithMethod(AccPublic|AccStatic, "run", "()V", func(mb *MethodBuilder) {
			mb.WithCode(0, 0, func(code *CodeBuilder) {
				l := code.NewLabel()
				code.With(LabelElement{L: l})
				code.With(LineNumberElement{L: l, Line: 10})
				code.With(Instruction{Opcode: 0xb1})
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
	elements, _, err := cm.Elements()
	if err != nil {
		t.Fatalf("Elements: %v", err)
	}
	var found bool
	for _, el := range elements {
		if ln, ok := el.(LineNumberElement); ok {
			if ln.Line != 10 {
				t.Errorf("LineNumberElement.Line = %d, want 10", ln.Line)
			}
			found = true
		}
	}
	if !found {
		t.Error("expected a LineNumberElement in the decoded stream")
	}
}
