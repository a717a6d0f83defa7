// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classfile

import (
	"os"

	"github.com/edsrzf/mmap-go"
)

// FileModel bundles a parsed ClassModel with the memory-mapped file backing
// it. ParseFile's caller must call Close to release the mapping and the
// file descriptor. Parse copies every byte span it keeps, so the model and
// its descendants do not alias the mapping and stay valid after Close.
type FileModel struct {
	*ClassModel

	mapping mmap.MMap
	file    *os.File
}

// ParseFile memory-maps name and parses it as a classfile under cf.Default.
// This supplements the buffer-oriented Parse: the file is read through the
// kernel's page cache rather than a separate heap copy of the whole file,
// though Parse still decodes eagerly and copies the spans it keeps —
// grounded on saferwall/pe's File.New, which maps its input the same way
// (see DESIGN.md).
func ParseFile(name string) (*FileModel, error) {
	return Default.ParseFile(name)
}

// ParseFile memory-maps name and parses it under c's configured options.
func (c *Classfile) ParseFile(name string) (*FileModel, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.Size() == 0 {
		f.Close()
		return nil, malformed(0, "empty file %q", name)
	}
	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, err
	}
	model, err := c.Parse(m)
	if err != nil {
		m.Unmap()
		f.Close()
		return nil, err
	}
	log.WithField("file", name).WithField("size", info.Size()).Debug("mmap-parsed classfile")
	return &FileModel{ClassModel: model, mapping: m, file: f}, nil
}

// Close unmaps the backing file and closes its descriptor, mirroring
// saferwall/pe's File.Close unmap-then-close sequence.
func (fm *FileModel) Close() error {
	if err := fm.mapping.Unmap(); err != nil {
		return err
	}
	return fm.file.Close()
}
