// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classfile

// StackMapsPolicy controls whether and when transform/build regenerate a
// method's StackMapTable attribute.
type StackMapsPolicy int

const (
	StackMapsWhenRequired StackMapsPolicy = iota // only for classfile major version >= 50
	GenerateStackMaps                            // always
	DropStackMaps                                // never
)

// DebugElementsPolicy controls LocalVariableTable/LocalVariableTypeTable
// pass-through.
type DebugElementsPolicy int

const (
	PassDebug DebugElementsPolicy = iota
	DropDebug
)

// LineNumbersPolicy controls LineNumberTable pass-through.
type LineNumbersPolicy int

const (
	PassLineNumbers LineNumbersPolicy = iota
	DropLineNumbers
)

// UnknownAttributesPolicy controls what happens to an attribute whose name
// the AttributeRegistry does not recognize.
type UnknownAttributesPolicy int

const (
	PassUnknownAttributes UnknownAttributesPolicy = iota
	DropUnknownAttributes
)

// ConstantPoolSharingPolicy selects how transform seeds the output pool.
type ConstantPoolSharingPolicy int

const (
	SharedPool ConstantPoolSharingPolicy = iota
	NewPool
)

// ShortJumpsPolicy controls what the assembler does when a branch's target
// does not fit a 16-bit offset.
type ShortJumpsPolicy int

const (
	FixShortJumps ShortJumpsPolicy = iota
	FailOnShortJumps
)

// DeadCodePolicy controls how the assembler handles bytecode unreachable
// from any predecessor.
type DeadCodePolicy int

const (
	PatchDeadCode DeadCodePolicy = iota
	KeepDeadCode
	FailOnDeadCode
)

// DeadLabelsPolicy controls the assembler's check for labels that were
// allocated from the code builder's LabelContext but never bound by a
// LabelElement, whether or not anything references them. FailOnDeadLabels
// rejects such a label; DropDeadLabels skips the check, but a branch,
// switch, or exception entry that references an unbound label still fails
// assembly.
type DeadLabelsPolicy int

const (
	FailOnDeadLabels DeadLabelsPolicy = iota
	DropDeadLabels
)

// ClassHierarchyInfo is the minimal superclass/interface-ness information
// the stack-map generator needs to compute a least-upper-bound between two
// reference types.
type ClassHierarchyInfo struct {
	IsInterface  bool
	SuperClass   string // internal name, empty for java/lang/Object
}

// ClassHierarchyResolver looks up hierarchy info for an internal class
// name; returning ok=false means "unknown". The stack-map generator
// accepts one but does not call it: it joins any two distinct object types
// to java/lang/Object.
type ClassHierarchyResolver func(internalName string) (info ClassHierarchyInfo, ok bool)

// AttributeMapper lets a caller intercept attribute-name dispatch before
// the built-in AttributeRegistry, mirroring spec.md §4.3's "a custom mapper
// function Utf8Entry -> Mapper? is consulted first."
type AttributeMapper func(name string) (AttributeCodec, bool)

// Options is the classfile library's immutable configuration record,
// shaped like saferwall/pe's Options struct (a plain field bag, here
// defaulted by defaultOptions), but populated through functional setters
// passed to WithOptions so the public surface
// stays a closed, self-documenting list rather than requiring callers to
// know field names and zero values.
type Options struct {
	StackMaps              StackMapsPolicy
	DebugElements          DebugElementsPolicy
	LineNumbers            LineNumbersPolicy
	UnknownAttributes      UnknownAttributesPolicy
	ConstantPoolSharing    ConstantPoolSharingPolicy
	ShortJumps             ShortJumpsPolicy
	DeadCode               DeadCodePolicy
	DeadLabels             DeadLabelsPolicy
	ClassHierarchyResolver ClassHierarchyResolver
	AttributeMapper        AttributeMapper
}

// defaultOptions returns the spec-mandated defaults: WHEN_REQUIRED stack
// maps, pass-through debug/line-number/unknown-attribute elements, a
// shared/interning pool, FIX_SHORT_JUMPS, PATCH_DEAD_CODE, and
// FAIL_ON_DEAD_LABELS.
func defaultOptions() Options {
	return Options{
		StackMaps:           StackMapsWhenRequired,
		DebugElements:       PassDebug,
		LineNumbers:         PassLineNumbers,
		UnknownAttributes:   PassUnknownAttributes,
		ConstantPoolSharing: SharedPool,
		ShortJumps:          FixShortJumps,
		DeadCode:            PatchDeadCode,
		DeadLabels:          FailOnDeadLabels,
	}
}

// Option mutates an Options value in place; WithOptions applies a sequence
// of Options to a copy of the defaults, so WithOptions(...) composes without
// callers ever touching a zero value directly.
type Option func(*Options)

// WithStackMaps sets the StackMapsPolicy.
func WithStackMaps(p StackMapsPolicy) Option { return func(o *Options) { o.StackMaps = p } }

// WithDebugElements sets the DebugElementsPolicy.
func WithDebugElements(p DebugElementsPolicy) Option { return func(o *Options) { o.DebugElements = p } }

// WithLineNumbers sets the LineNumbersPolicy.
func WithLineNumbers(p LineNumbersPolicy) Option { return func(o *Options) { o.LineNumbers = p } }

// WithUnknownAttributes sets the UnknownAttributesPolicy.
func WithUnknownAttributes(p UnknownAttributesPolicy) Option {
	return func(o *Options) { o.UnknownAttributes = p }
}

// WithConstantPoolSharing sets the ConstantPoolSharingPolicy.
func WithConstantPoolSharing(p ConstantPoolSharingPolicy) Option {
	return func(o *Options) { o.ConstantPoolSharing = p }
}

// WithShortJumps sets the ShortJumpsPolicy.
func WithShortJumps(p ShortJumpsPolicy) Option { return func(o *Options) { o.ShortJumps = p } }

// WithDeadCode sets the DeadCodePolicy.
func WithDeadCode(p DeadCodePolicy) Option { return func(o *Options) { o.DeadCode = p } }

// WithDeadLabels sets the DeadLabelsPolicy.
func WithDeadLabels(p DeadLabelsPolicy) Option { return func(o *Options) { o.DeadLabels = p } }

// WithClassHierarchyResolver stores r in Options.ClassHierarchyResolver.
// The stack-map generator receives it but does not call it (see
// ClassHierarchyResolver).
func WithClassHierarchyResolver(r ClassHierarchyResolver) Option {
	return func(o *Options) { o.ClassHierarchyResolver = r }
}

// WithAttributeMapper installs a custom attribute-name dispatch hook
// consulted before the built-in registry.
func WithAttributeMapper(m AttributeMapper) Option {
	return func(o *Options) { o.AttributeMapper = m }
}

// Classfile is the immutable, configured entry point returned by
// withOptions(...): parse/build/transform are methods on it so every
// derived operation sees the same option set.
type Classfile struct {
	opts Options
}

// WithOptions returns a new Classfile configured by opts, starting from the
// spec-mandated defaults. Each call produces a fresh, independent value;
// Classfile itself is never mutated after construction.
func WithOptions(opts ...Option) *Classfile {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Classfile{opts: o}
}

// Default is the Classfile configured with every default policy, equivalent
// to WithOptions() with no overrides.
var Default = WithOptions()
