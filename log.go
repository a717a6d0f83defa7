// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classfile

import "github.com/sirupsen/logrus"

// log is the package-level trace logger shared by the parser, assembler,
// and stack-map generator. wagon gates an equivalent *log.Logger behind a
// PrintDebugInfo bool, writing to io.Discard otherwise; this repository
// generalizes that to logrus's level gate instead, silent at the default
// PanicLevel and raised with SetLogLevel.
var log = logrus.New()

func init() {
	log.SetLevel(logrus.PanicLevel)
}

// SetLogLevel raises or lowers the package's trace verbosity. Pass
// logrus.DebugLevel to see per-instruction assembler and stack-map-frame
// tracing; the default (PanicLevel) is effectively silent.
func SetLogLevel(level logrus.Level) {
	log.SetLevel(level)
}
