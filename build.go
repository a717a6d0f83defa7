// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classfile

import (
	"math"

	"github.com/go-classfile/classfile/internal/bufview"
)

// ClassBuilder accumulates a class under construction. It is created fresh
// per Build/Transform invocation and consumed exactly once: serializing a
// builder that has already been finalized into bytes fails with
// IllegalState (spec.md §3: "builders are created per build/transform
// invocation and consumed exactly once"). The With* methods themselves do
// not check for finalization.
type ClassBuilder struct {
	pool        *ConstantPool
	minor, major uint16
	access      uint16
	thisClass   uint16
	superClass  uint16
	interfaces  []uint16
	fields      []FieldModel
	methods     []MethodModel
	attributes  []Attribute
	opts        Options
	finalized   bool
}

// Pool returns the builder's constant pool, the shared write surface every
// With* call and every nested FieldBuilder/MethodBuilder/CodeBuilder
// interns through.
func (b *ClassBuilder) Pool() *ConstantPool { return b.pool }

// WithVersion sets the classfile's minor/major version (default 0.52 — the
// lowest version that always requires StackMapTable frames, matching
// modern javac output).
func (b *ClassBuilder) WithVersion(minor, major uint16) *ClassBuilder {
	b.minor, b.major = minor, major
	return b
}

// WithAccessFlags sets the class's access_flags.
func (b *ClassBuilder) WithAccessFlags(flags uint16) *ClassBuilder {
	b.access = flags
	return b
}

// WithSuperclass sets the superclass by internal name; pass "" only for
// java/lang/Object itself.
func (b *ClassBuilder) WithSuperclass(internalName string) *ClassBuilder {
	if internalName == "" {
		b.superClass = 0
		return b
	}
	idx, err := b.pool.Class(internalName)
	if err != nil {
		panic(err) // pool overflow during build is a programmer error, not a runtime one
	}
	b.superClass = idx
	return b
}

// WithInterface appends an implemented interface by internal name.
func (b *ClassBuilder) WithInterface(internalName string) *ClassBuilder {
	idx, err := b.pool.Class(internalName)
	if err != nil {
		panic(err)
	}
	b.interfaces = append(b.interfaces, idx)
	return b
}

// WithAttribute appends a class-level attribute verbatim.
func (b *ClassBuilder) WithAttribute(a Attribute) *ClassBuilder {
	b.attributes = append(b.attributes, a)
	return b
}

// WithField appends a field, configured by fn over a fresh FieldBuilder.
func (b *ClassBuilder) WithField(access uint16, name, descriptor string, fn func(*FieldBuilder)) *ClassBuilder {
	nameIdx, err := b.pool.Utf8(name)
	if err != nil {
		panic(err)
	}
	descIdx, err := b.pool.Utf8(descriptor)
	if err != nil {
		panic(err)
	}
	fb := &FieldBuilder{pool: b.pool, access: access, nameIdx: nameIdx, descIdx: descIdx}
	if fn != nil {
		fn(fb)
	}
	b.fields = append(b.fields, FieldModel{
		AccessFlags: fb.access, NameIndex: fb.nameIdx, DescriptorIndex: fb.descIdx,
		Attributes: fb.attributes, pool: b.pool,
	})
	return b
}

// WithMethod appends a method, configured by fn over a fresh MethodBuilder.
func (b *ClassBuilder) WithMethod(access uint16, name, descriptor string, fn func(*MethodBuilder)) *ClassBuilder {
	nameIdx, err := b.pool.Utf8(name)
	if err != nil {
		panic(err)
	}
	descIdx, err := b.pool.Utf8(descriptor)
	if err != nil {
		panic(err)
	}
	mb := &MethodBuilder{
		pool: b.pool, access: access, nameIdx: nameIdx, descIdx: descIdx, opts: b.opts,
		thisClass: b.thisClass, name: name, descriptor: descriptor,
	}
	if fn != nil {
		fn(mb)
	}
	attrs := mb.attributes
	if mb.code != nil {
		assembled, err := mb.code.assemble(b.major, mb.opts)
		if err != nil {
			panic(err)
		}
		attrs = append(attrs, Attribute{Kind: AttrCode, Name: "Code", Code: assembled})
	}
	b.methods = append(b.methods, MethodModel{
		AccessFlags: mb.access, NameIndex: mb.nameIdx, DescriptorIndex: mb.descIdx,
		Attributes: attrs, pool: b.pool,
	})
	return b
}

// FieldBuilder configures one field_info under construction.
type FieldBuilder struct {
	pool       *ConstantPool
	access     uint16
	nameIdx    uint16
	descIdx    uint16
	attributes []Attribute
}

// WithConstantValue attaches a ConstantValue attribute referencing an
// already-interned pool index (Integer/Float/Long/Double/String).
func (fb *FieldBuilder) WithConstantValue(poolIndex uint16) *FieldBuilder {
	fb.attributes = append(fb.attributes, Attribute{Kind: AttrConstantValue, Name: "ConstantValue", ConstantValueIndex: poolIndex})
	return fb
}

// WithAttribute appends a field-level attribute verbatim.
func (fb *FieldBuilder) WithAttribute(a Attribute) *FieldBuilder {
	fb.attributes = append(fb.attributes, a)
	return fb
}

// MethodBuilder configures one method_info under construction.
type MethodBuilder struct {
	pool       *ConstantPool
	access     uint16
	nameIdx    uint16
	descIdx    uint16
	attributes []Attribute
	code       *codeBuilderState
	opts       Options

	// thisClass, name, and descriptor let WithCode seed the stack-map
	// generator's initial frame from the method's own signature (spec.md
	// §4.6: "seeded with bci 0 and method-signature-derived locals"),
	// without needing a second lookup back through the owning ClassBuilder.
	thisClass  uint16
	name       string
	descriptor string
}

// WithCode attaches a Code attribute, staged into a CodeBuilder that fn
// populates via With(element). maxStack/maxLocals are stored exactly as
// given and never computed, matching spec.md §3's CodeModel shape
// (max_stack/max_locals are CodeModel fields, not derived).
func (mb *MethodBuilder) WithCode(maxStack, maxLocals uint16, fn func(*CodeBuilder)) *MethodBuilder {
	lc := NewLabelContext()
	cb := &CodeBuilder{pool: mb.pool, lc: lc}
	if fn != nil {
		fn(cb)
	}
	mb.code = &codeBuilderState{
		maxStack: maxStack, maxLocals: maxLocals,
		elements: cb.elements, lc: lc, debug: cb.debug, pool: mb.pool,
		sig: methodSigInfo{
			isStatic:   mb.access&AccStatic != 0,
			isInit:     mb.name == "<init>",
			descriptor: mb.descriptor,
			thisClass:  mb.thisClass,
		},
	}
	return mb
}

// WithAttribute appends a method-level attribute verbatim (e.g. Exceptions,
// Synthetic, Deprecated).
func (mb *MethodBuilder) WithAttribute(a Attribute) *MethodBuilder {
	mb.attributes = append(mb.attributes, a)
	return mb
}

// CodeBuilder is the buffered, single-writer element sink a method body is
// built or transformed through (spec.md §4.7's "buffered code builder").
// Buffering — rather than assembling incrementally — is necessary because
// an emitted branch may reference a label bound later in the same stream.
type CodeBuilder struct {
	pool     *ConstantPool
	lc       *LabelContext
	elements []CodeElement
	debug    []Attribute // any non-element-stream sub-attributes a transform wants to carry forward untouched (rare: used by identity transform's fast path)
}

// NewLabel allocates a fresh, unbound label scoped to this code builder.
func (cb *CodeBuilder) NewLabel() *Label { return cb.lc.NewLabel() }

// With appends element to the buffered stream. This is the builder's sole
// mutation, matching spec.md §4.7: "the consumer may call builder.with(...)
// zero or more times to replace or drop the element."
func (cb *CodeBuilder) With(element CodeElement) *CodeBuilder {
	cb.elements = append(cb.elements, element)
	return cb
}

// Pool returns the constant pool this builder (and its owning method/class)
// interns through.
func (cb *CodeBuilder) Pool() *ConstantPool { return cb.pool }

// codeBuilderState is the fully-populated, not-yet-assembled form a
// MethodBuilder hands to the Assembler.
type codeBuilderState struct {
	maxStack, maxLocals uint16
	elements            []CodeElement
	lc                  *LabelContext
	debug               []Attribute
	pool                *ConstantPool
	sig                 methodSigInfo
}

// assemble delegates to assembleCode, the two-pass Assembler in
// assemble.go, which also runs generateStackMapTable (verify.go) when
// required by policy, producing a finished CodeModel.
func (s *codeBuilderState) assemble(classVersion uint16, opts Options) (*CodeModel, error) {
	return assembleCode(s, classVersion, opts)
}

// Build instantiates a ClassBuilder for thisClass backed by pool (or a
// fresh pool if nil), runs fn, and serializes the result to bytes.
func Build(thisClassName string, pool *ConstantPool, fn func(*ClassBuilder)) ([]byte, error) {
	return Default.Build(thisClassName, pool, fn)
}

// Build is the Classfile-scoped counterpart of the package-level Build.
// Errors raised while fn runs (WithMethod panics when a Code attribute fails
// to assemble) are recovered and returned as err.
func (c *Classfile) Build(thisClassName string, pool *ConstantPool, fn func(*ClassBuilder)) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			if e, ok := r.(error); ok {
				err = e
			} else {
				err = illegalState("build failed: %v", r)
			}
		}
	}()
	if pool == nil {
		pool = NewConstantPool()
	}
	thisIdx, err := pool.Class(thisClassName)
	if err != nil {
		return nil, err
	}
	b := &ClassBuilder{
		pool: pool, major: 52, thisClass: thisIdx,
		access: AccPublic | AccSuper, opts: c.opts,
	}
	b.WithSuperclass("java/lang/Object")
	if fn != nil {
		fn(b)
	}
	return b.finish()
}

func (b *ClassBuilder) finish() ([]byte, error) {
	if b.finalized {
		return nil, illegalState("builder already consumed")
	}
	b.finalized = true

	// Encoding an attribute interns its name (and any nested attribute
	// names) into the pool, so encode every attribute list once up front:
	// the pool written below must already hold those entries.
	scratch := bufview.NewByteBuf(1024)
	for _, f := range b.fields {
		if err := encodeAttributeList(scratch, b.pool, f.Attributes); err != nil {
			return nil, err
		}
	}
	for _, m := range b.methods {
		if err := encodeAttributeList(scratch, b.pool, m.Attributes); err != nil {
			return nil, err
		}
	}
	if err := encodeAttributeList(scratch, b.pool, b.attributes); err != nil {
		return nil, err
	}

	buf := bufview.NewByteBuf(1024)
	buf.WriteU4(classMagic)
	buf.WriteU2(b.minor)
	buf.WriteU2(b.major)

	buf.WriteU2(b.pool.Size())
	if err := encodeConstantPoolBody(buf, b.pool); err != nil {
		return nil, err
	}

	buf.WriteU2(b.access)
	buf.WriteU2(b.thisClass)
	buf.WriteU2(b.superClass)

	buf.WriteU2(uint16(len(b.interfaces)))
	for _, idx := range b.interfaces {
		buf.WriteU2(idx)
	}

	buf.WriteU2(uint16(len(b.fields)))
	for _, f := range b.fields {
		buf.WriteU2(f.AccessFlags)
		buf.WriteU2(f.NameIndex)
		buf.WriteU2(f.DescriptorIndex)
		if err := encodeAttributeList(buf, b.pool, f.Attributes); err != nil {
			return nil, err
		}
	}

	buf.WriteU2(uint16(len(b.methods)))
	for _, m := range b.methods {
		buf.WriteU2(m.AccessFlags)
		buf.WriteU2(m.NameIndex)
		buf.WriteU2(m.DescriptorIndex)
		if err := encodeAttributeList(buf, b.pool, m.Attributes); err != nil {
			return nil, err
		}
	}

	if err := encodeAttributeList(buf, b.pool, b.attributes); err != nil {
		return nil, err
	}

	return buf.Into(), nil
}

// encodeConstantPoolBody writes every pool entry (indices 1..size-1,
// skipping reserved Long/Double second slots) in wire order.
func encodeConstantPoolBody(buf *bufview.ByteBuf, pool *ConstantPool) error {
	for i := uint16(1); i < pool.Size(); i++ {
		e, err := pool.Entry(i)
		if err != nil {
			continue // reserved second slot of a Long/Double
		}
		encodePoolEntry(buf, e)
		if e.Width() == 2 {
			i++
		}
	}
	return nil
}

func encodePoolEntry(buf *bufview.ByteBuf, e Entry) {
	buf.WriteU1(byte(e.Kind))
	switch e.Kind {
	case TagUtf8:
		buf.WriteU2(uint16(len(e.UTF8Bytes)))
		buf.WriteBytes(e.UTF8Bytes)
	case TagInteger:
		buf.WriteU4(uint32(e.IntValue))
	case TagFloat:
		buf.WriteU4(math.Float32bits(e.FloatValue))
	case TagLong:
		buf.WriteS8(e.LongValue)
	case TagDouble:
		buf.WriteS8(int64(math.Float64bits(e.DoubleValue)))
	case TagClass, TagString, TagModule, TagPackage:
		buf.WriteU2(e.NameIndex)
	case TagFieldref, TagMethodref, TagInterfaceMethodref:
		buf.WriteU2(e.ClassIndex)
		buf.WriteU2(e.NameAndTypeIndex)
	case TagNameAndType:
		buf.WriteU2(e.NameIndex)
		buf.WriteU2(e.DescriptorIndex)
	case TagMethodHandle:
		buf.WriteU1(e.RefKind)
		buf.WriteU2(e.RefIndex)
	case TagMethodType:
		buf.WriteU2(e.NameIndex)
	case TagDynamic, TagInvokeDynamic:
		buf.WriteU2(e.BootstrapMethodAttrIndex)
		buf.WriteU2(e.NameAndTypeIndex)
	}
}
