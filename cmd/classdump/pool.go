// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/go-classfile/classfile"
	"github.com/spf13/cobra"
)

func newPoolCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pool file1.class [file2.class ...]",
		Short: "Print a classfile's constant pool, one entry per line",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for i, fname := range args {
				if i > 0 {
					fmt.Println()
				}
				if err := printPool(fname); err != nil {
					return fmt.Errorf("%s: %w", fname, err)
				}
			}
			return nil
		},
	}
}

func printPool(fname string) error {
	fm, err := classfile.ParseFile(fname)
	if err != nil {
		return err
	}
	defer fm.Close()

	fmt.Printf("%s: constant pool (%d entries)\n\n", fname, fm.Pool.Size())
	for i := uint16(1); i < fm.Pool.Size(); i++ {
		e, err := fm.Pool.Entry(i)
		if err != nil {
			continue // reserved second slot of a Long/Double
		}
		fmt.Printf("  #%-5d %s\n", i, describePoolEntry(e))
		if e.Width() == 2 {
			i++
		}
	}
	return nil
}

func describePoolEntry(e classfile.Entry) string {
	switch e.Kind {
	case classfile.TagUtf8:
		return fmt.Sprintf("Utf8              %q", string(e.UTF8Bytes))
	case classfile.TagInteger:
		return fmt.Sprintf("Integer           %d", e.IntValue)
	case classfile.TagFloat:
		return fmt.Sprintf("Float             %g", e.FloatValue)
	case classfile.TagLong:
		return fmt.Sprintf("Long              %d", e.LongValue)
	case classfile.TagDouble:
		return fmt.Sprintf("Double            %g", e.DoubleValue)
	case classfile.TagClass:
		return fmt.Sprintf("Class             #%d", e.NameIndex)
	case classfile.TagString:
		return fmt.Sprintf("String            #%d", e.NameIndex)
	case classfile.TagFieldref:
		return fmt.Sprintf("Fieldref          #%d.#%d", e.ClassIndex, e.NameAndTypeIndex)
	case classfile.TagMethodref:
		return fmt.Sprintf("Methodref         #%d.#%d", e.ClassIndex, e.NameAndTypeIndex)
	case classfile.TagInterfaceMethodref:
		return fmt.Sprintf("InterfaceMethodref #%d.#%d", e.ClassIndex, e.NameAndTypeIndex)
	case classfile.TagNameAndType:
		return fmt.Sprintf("NameAndType       #%d:#%d", e.NameIndex, e.DescriptorIndex)
	case classfile.TagMethodHandle:
		return fmt.Sprintf("MethodHandle      kind=%d #%d", e.RefKind, e.RefIndex)
	case classfile.TagMethodType:
		return fmt.Sprintf("MethodType        #%d", e.NameIndex)
	case classfile.TagDynamic:
		return fmt.Sprintf("Dynamic           bsm=#%d #%d", e.BootstrapMethodAttrIndex, e.NameAndTypeIndex)
	case classfile.TagInvokeDynamic:
		return fmt.Sprintf("InvokeDynamic     bsm=#%d #%d", e.BootstrapMethodAttrIndex, e.NameAndTypeIndex)
	case classfile.TagModule:
		return fmt.Sprintf("Module            #%d", e.NameIndex)
	case classfile.TagPackage:
		return fmt.Sprintf("Package           #%d", e.NameIndex)
	default:
		return "unknown"
	}
}
