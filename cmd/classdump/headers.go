// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/go-classfile/classfile"
	"github.com/spf13/cobra"
)

func newHeadersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "headers file1.class [file2.class ...]",
		Short: "Print a classfile's version, access flags, and member counts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				classfile.SetLogLevel(debugLevel())
			}
			for i, fname := range args {
				if i > 0 {
					fmt.Println()
				}
				if err := printHeaders(fname); err != nil {
					return fmt.Errorf("%s: %w", fname, err)
				}
			}
			return nil
		},
	}
}

func printHeaders(fname string) error {
	fm, err := classfile.ParseFile(fname)
	if err != nil {
		return err
	}
	defer fm.Close()

	thisName, err := fm.ThisClassName()
	if err != nil {
		return err
	}
	superName, err := fm.SuperClassName()
	if err != nil {
		return err
	}
	ifNames, err := fm.InterfaceNames()
	if err != nil {
		return err
	}

	fmt.Printf("%s: class version %d.%d\n\n", fname, fm.MajorVersion, fm.MinorVersion)
	fmt.Printf("this class:  %s\n", thisName)
	if superName != "" {
		fmt.Printf("super class: %s\n", superName)
	}
	fmt.Printf("access:      %#04x\n", fm.AccessFlags)
	if len(ifNames) > 0 {
		fmt.Printf("interfaces:  %v\n", ifNames)
	}
	fmt.Printf("fields:      %d\n", len(fm.Fields))
	fmt.Printf("methods:     %d\n", len(fm.Methods))
	fmt.Printf("attributes:  %d\n", len(fm.Attributes))
	for _, a := range fm.Attributes {
		fmt.Printf(" - %s\n", a.Name)
	}
	return nil
}
