// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classfile

import "testing"

func TestSourceFileAttributeRoundTrip(t *testing.T) {
	out, err := Build("com/example/Src", nil, func(cb *ClassBuilder) {
		idx, err := cb.Pool().Utf8("Src.java")
		if err != nil {
			t.Fatalf("Utf8: %v", err)
		}
		cb.WithAttribute(Attribute{Kind: AttrSourceFile, Name: "SourceFile", SourceFileIndex: idx})
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	model, err := Parse(out)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	attr, ok := attributeOfKind(model.Attributes, AttrSourceFile)
	if !ok {
		t.Fatal("missing SourceFile attribute")
	}
	name, err := model.Pool.Utf8Text(attr.SourceFileIndex)
	if err != nil {
		t.Fatalf("Utf8Text: %v", err)
	}
	if name != "Src.java" {
		t.Errorf("SourceFile = %q, want Src.java", name)
	}
}

func TestBootstrapMethodsAttributeRoundTrip(t *testing.T) {
	out, err := Build("com/example/Indy", nil, func(cb *ClassBuilder) {
		mh, err := cb.Pool().Index(Entry{Kind: TagMethodHandle, RefKind: 6, RefIndex: mustMethodref(t, cb.Pool())})
		if err != nil {
			t.Fatalf("Index: %v", err)
		}
		cb.WithAttribute(Attribute{
			Kind: AttrBootstrapMethods, Name: "BootstrapMethods",
			BootstrapMethods: []BootstrapMethod{{MethodRefIndex: mh, Arguments: nil}},
		})
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	model, err := Parse(out)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	attr, ok := attributeOfKind(model.Attributes, AttrBootstrapMethods)
	if !ok {
		t.Fatal("missing BootstrapMethods attribute")
	}
	if len(attr.BootstrapMethods) != 1 {
		t.Fatalf("BootstrapMethods = %d entries, want 1", len(attr.BootstrapMethods))
	}
}

func mustMethodref(t *testing.T, pool *ConstantPool) uint16 {
	t.Helper()
	idx, err := pool.Methodref("java/lang/invoke/LambdaMetafactory", "metafactory",
		"(Ljava/lang/invoke/MethodHandles$Lookup;Ljava/lang/String;Ljava/lang/invoke/MethodType;Ljava/lang/invoke/MethodType;Ljava/lang/invoke/MethodHandle;Ljava/lang/invoke/MethodType;)Ljava/lang/invoke/CallSite;")
	if err != nil {
		t.Fatalf("Methodref: %v", err)
	}
	return idx
}
