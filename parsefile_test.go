// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classfile

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseFileRoundTrip(t *testing.T) {
	src := buildSampleClass(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "Sample.class")
	if err := os.WriteFile(path, src, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	fm, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	defer fm.Close()

	if name, _ := fm.ThisClassName(); name != "com/example/Sample" {
		t.Errorf("ThisClassName = %q, want com/example/Sample", name)
	}
	if len(fm.Methods) != 1 {
		t.Errorf("Methods = %d, want 1", len(fm.Methods))
	}
}

func TestParseFileRejectsEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Empty.class")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := ParseFile(path); err == nil {
		t.Error("expected an error parsing an empty file")
	}
}

func TestParseFileMissing(t *testing.T) {
	if _, err := ParseFile(filepath.Join(t.TempDir(), "missing.class")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
