// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classfile

import "fmt"

// MalformedClassfile is returned when the byte stream does not conform to
// the JVM classfile format: truncated input, a bad magic number, an unknown
// constant-pool tag, a length mismatch, or an offset outside the buffer.
type MalformedClassfile struct {
	Reason string
	Offset int
}

func (e MalformedClassfile) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("malformed classfile at offset %d: %s", e.Offset, e.Reason)
	}
	return fmt.Sprintf("malformed classfile: %s", e.Reason)
}

func malformed(offset int, format string, args ...interface{}) error {
	return MalformedClassfile{Reason: fmt.Sprintf(format, args...), Offset: offset}
}

// ConstantPoolException covers invalid constant-pool index references: index
// zero, an index past the pool's count, a tag mismatch for the entry kind
// requested by a typed accessor, or pool overflow past 65535 entries.
type ConstantPoolException struct {
	Reason string
}

func (e ConstantPoolException) Error() string {
	return fmt.Sprintf("constant pool: %s", e.Reason)
}

func poolError(format string, args ...interface{}) error {
	return ConstantPoolException{Reason: fmt.Sprintf(format, args...)}
}

// InvalidCodeException is returned by the assembler and stack-map generator:
// a dead label under FAIL_ON_DEAD_LABELS, a short-jump overflow under
// FAIL_ON_SHORT_JUMPS, dead code under FAIL_ON_DEAD_CODE, a branch to an
// unbound label, or a stack-map frame that disagrees with a predecessor.
type InvalidCodeException struct {
	Reason string
}

func (e InvalidCodeException) Error() string {
	return fmt.Sprintf("invalid code: %s", e.Reason)
}

func codeError(format string, args ...interface{}) error {
	return InvalidCodeException{Reason: fmt.Sprintf(format, args...)}
}

// IllegalArgument is returned when a caller constructs an element with an
// opcode/kind mismatch, a negative slot, or another argument the API
// rejects outright rather than deferring to parse-time diagnosis.
type IllegalArgument struct {
	Reason string
}

func (e IllegalArgument) Error() string {
	return fmt.Sprintf("illegal argument: %s", e.Reason)
}

func illegalArg(format string, args ...interface{}) error {
	return IllegalArgument{Reason: fmt.Sprintf(format, args...)}
}

// IllegalState is returned when a single-use builder is reused, or a label
// is rebound to a bci different from the one it was already bound to.
type IllegalState struct {
	Reason string
}

func (e IllegalState) Error() string {
	return fmt.Sprintf("illegal state: %s", e.Reason)
}

func illegalState(format string, args ...interface{}) error {
	return IllegalState{Reason: fmt.Sprintf(format, args...)}
}
