// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classfile

// VerificationTypeKind enumerates the abstract types JVMS 4.10.1.2 uses in
// stack-map frames.
type VerificationTypeKind uint8

// Numeric values match JVMS 4.7.4 Table 4.7.4-A's verification_type_info
// tag byte exactly, since encode/decode write Kind directly as that tag.
const (
	VTop VerificationTypeKind = iota
	VInteger
	VFloat
	VDouble
	VLong
	VNull
	VUninitializedThis
	VObject        // carries ClassIndex: a Class constant-pool index
	VUninitialized // carries Offset: the bci of the 'new' instruction
)

// VerificationType is one stack or local-variable slot's abstract type in a
// stack-map frame.
type VerificationType struct {
	Kind       VerificationTypeKind
	ClassIndex uint16 // valid when Kind == VObject
	Offset     int    // valid when Kind == VUninitialized; bci of the originating 'new'
}

// Category-1 helpers for the common singleton cases.
var (
	VTTop               = VerificationType{Kind: VTop}
	VTInteger           = VerificationType{Kind: VInteger}
	VTFloat             = VerificationType{Kind: VFloat}
	VTLong              = VerificationType{Kind: VLong}
	VTDouble            = VerificationType{Kind: VDouble}
	VTNull              = VerificationType{Kind: VNull}
	VTUninitializedThis = VerificationType{Kind: VUninitializedThis}
)

// VTObject returns the verification type for a reference to the class named
// by classIndex (a Class constant-pool entry).
func VTObject(classIndex uint16) VerificationType {
	return VerificationType{Kind: VObject, ClassIndex: classIndex}
}

// VTUninitialized returns the verification type for the result of a 'new'
// at the given bci, before its constructor has run.
func VTUninitialized(newBCI int) VerificationType {
	return VerificationType{Kind: VUninitialized, Offset: newBCI}
}

// Equal reports structural equality between two verification types.
func (v VerificationType) Equal(o VerificationType) bool {
	return v.Kind == o.Kind && v.ClassIndex == o.ClassIndex && v.Offset == o.Offset
}

// FrameKind selects a StackMapTable entry's delta-encoding family, per
// JVMS 4.7.4.
type FrameKind uint8

const (
	FrameSame               FrameKind = iota // tags 0-63
	FrameSameLocals1StackItem                // tags 64-127
	FrameSameLocals1StackItemExtended        // tag 247
	FrameChop                                 // tags 248-250
	FrameSameExtended                         // tag 251
	FrameAppend                                // tags 252-254
	FrameFull                                  // tag 255
)

// StackMapFrame is one entry of a decoded StackMapTable attribute, already
// resolved from its delta encoding to explicit locals/stack vectors and an
// absolute bci (BCI), rather than the wire's offset_delta. Frame encoding
// (picking the most compact tag for a given pair of consecutive frames) is
// re-derived at emission time from the sequence of Frames plus their BCIs.
type StackMapFrame struct {
	BCI    int
	Locals []VerificationType
	Stack  []VerificationType
}
