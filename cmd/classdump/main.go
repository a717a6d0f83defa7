// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command classdump inspects and disassembles JVM classfiles, in the
// spirit of wagon's wasm-dump but structured as cobra subcommands the way
// saferwall/pe's pedumper is (see DESIGN.md).
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var verbose bool

func debugLevel() logrus.Level { return logrus.DebugLevel }

func main() {
	rootCmd := &cobra.Command{
		Use:   "classdump",
		Short: "Inspect and disassemble JVM classfiles",
		Long:  "classdump parses one or more .class files and prints their structure.",
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(newHeadersCmd())
	rootCmd.AddCommand(newDisasmCmd())
	rootCmd.AddCommand(newPoolCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
