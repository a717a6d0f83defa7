// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classfile

import "testing"

func buildSampleClass(t *testing.T) []byte {
	t.Helper()
	out, err := Build("com/example/Sample", nil, func(cb *ClassBuilder) {
		cb.WithField(AccPrivate, "count", "I", nil)
		cb.WithMethod(AccPublic|AccStatic, "main", "([Ljava/lang/String;)V", func(mb *MethodBuilder) {
			mb.WithCode(1, 1, func(code *CodeBuilder) {
				code.With(Instruction{Opcode: 0xb1}) // return
			})
		})
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return out
}

func TestTransformIdentityPreservesShape(t *testing.T) {
	src := buildSampleClass(t)
	model, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	out, err := Transform(model, "", nil)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}

	got, err := Parse(out)
	if err != nil {
		t.Fatalf("Parse(transformed): %v", err)
	}

	if name, _ := got.ThisClassName(); name != "com/example/Sample" {
		t.Errorf("ThisClassName = %q, want com/example/Sample", name)
	}
	if len(got.Fields) != 1 {
		t.Fatalf("Fields = %d, want 1", len(got.Fields))
	}
	if fn, _ := got.Fields[0].Name(); fn != "count" {
		t.Errorf("field name = %q, want count", fn)
	}
	if len(got.Methods) != 1 {
		t.Fatalf("Methods = %d, want 1", len(got.Methods))
	}
	m := got.Methods[0]
	if mn, _ := m.Name(); mn != "main" {
		t.Errorf("method name = %q, want main", mn)
	}
	cm := m.Code()
	if cm == nil {
		t.Fatal("method has no Code attribute after transform")
	}
	if len(cm.Code) != 1 || cm.Code[0] != 0xb1 {
		t.Errorf("code = %v, want [0xb1]", cm.Code)
	}
}

func TestTransformRename(t *testing.T) {
	src := buildSampleClass(t)
	model, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	out, err := Transform(model, "com/example/Renamed", nil)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	got, err := Parse(out)
	if err != nil {
		t.Fatalf("Parse(transformed): %v", err)
	}
	if name, _ := got.ThisClassName(); name != "com/example/Renamed" {
		t.Errorf("ThisClassName = %q, want com/example/Renamed", name)
	}
}

func TestTransformDropField(t *testing.T) {
	src := buildSampleClass(t)
	model, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	out, err := Transform(model, "", func(b *ClassTransformBuilder, el ClassElement) {
		if _, ok := el.(FieldElement); ok {
			return // drop every field
		}
		b.With(el)
	})
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	got, err := Parse(out)
	if err != nil {
		t.Fatalf("Parse(transformed): %v", err)
	}
	if len(got.Fields) != 0 {
		t.Errorf("Fields = %d, want 0 after dropping", len(got.Fields))
	}
	if len(got.Methods) != 1 {
		t.Errorf("Methods = %d, want 1", len(got.Methods))
	}
}

func TestTransformNewPoolReinterns(t *testing.T) {
	src := buildSampleClass(t)
	model, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	cf := WithOptions(WithConstantPoolSharing(NewPool))
	out, err := cf.Transform(model, "", nil)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	got, err := Parse(out)
	if err != nil {
		t.Fatalf("Parse(transformed): %v", err)
	}
	if name, _ := got.ThisClassName(); name != "com/example/Sample" {
		t.Errorf("ThisClassName = %q, want com/example/Sample", name)
	}
	if len(got.Methods) != 1 {
		t.Fatalf("Methods = %d, want 1", len(got.Methods))
	}
	cm := got.Methods[0].Code()
	if cm == nil || len(cm.Code) != 1 || cm.Code[0] != 0xb1 {
		t.Errorf("code not preserved under NEW_POOL transform")
	}
}
