// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classfile

// ClassElement is the closed sum of items a class-level transform observes,
// one per field, method, and class-level attribute of the source model
// (spec.md §4.7).
type ClassElement interface {
	isClassElement()
}

// FieldElement wraps one source field.
type FieldElement struct{ Field FieldModel }

func (FieldElement) isClassElement() {}

// MethodElement wraps one source method.
type MethodElement struct{ Method MethodModel }

func (MethodElement) isClassElement() {}

// ClassAttributeElement wraps one source class-level attribute.
type ClassAttributeElement struct{ Attr Attribute }

func (ClassAttributeElement) isClassElement() {}

// ClassTransformFunc is "a function (builder, element) -> ()" (spec.md
// §4.7): called once per element of the source class, in field, then
// method, then class-attribute order. The default behavior for any element
// it doesn't otherwise handle is to pass it through unchanged by calling
// b.With(el); a transform that wants to replace or drop an element calls
// b.With zero or more times instead, and one that wants to rewrite a
// method's instruction stream calls b.TransformMethod with a
// CodeTransformFunc.
type ClassTransformFunc func(b *ClassTransformBuilder, el ClassElement)

// CodeTransformFunc is the code-level counterpart of ClassTransformFunc,
// applied to one CodeElement (Instruction, Label, ExceptionCatch,
// LineNumber, LocalVariable(Type)) at a time from a method body.
type CodeTransformFunc func(b *CodeBuilder, el CodeElement)

// Transform parses nothing itself; it rebuilds model under cf.Default,
// renaming the class to newName (or keeping its existing name if newName
// is ""), running fn over every field, method, and class attribute.
func Transform(model *ClassModel, newName string, fn ClassTransformFunc) ([]byte, error) {
	return Default.Transform(model, newName, fn)
}

// Transform is the Classfile-scoped counterpart of the package-level
// Transform. The output pool is seeded per c's ConstantPoolSharingPolicy:
// SharedPool clones model's pool verbatim (preserving indices, so
// unreferenced or unmigrated entries still carry over byte-identically —
// spec.md §4.2's AbstractPoolEntry.maybeClone is then a no-op for every
// index fn leaves untouched) and NewPool starts empty, re-interning only
// what's actually reachable from the elements fn keeps.
func (c *Classfile) Transform(model *ClassModel, newName string, fn ClassTransformFunc) (out []byte, err error) {
	if fn == nil {
		fn = func(b *ClassTransformBuilder, el ClassElement) { b.With(el) }
	}
	defer func() {
		if r := recover(); r != nil {
			out = nil
			if e, ok := r.(error); ok {
				err = e
			} else {
				err = illegalState("transform failed: %v", r)
			}
		}
	}()

	thisName := newName
	if thisName == "" {
		thisName, err = model.ThisClassName()
		if err != nil {
			return nil, err
		}
	}

	var pool *ConstantPool
	if c.opts.ConstantPoolSharing == NewPool {
		pool = NewConstantPool()
	} else {
		pool = clonePoolVerbatim(model.Pool)
	}

	return c.Build(thisName, pool, func(cb *ClassBuilder) {
		cb.WithVersion(model.MinorVersion, model.MajorVersion)
		cb.WithAccessFlags(model.AccessFlags)
		if superName, serr := model.SuperClassName(); serr == nil && superName != "" {
			cb.WithSuperclass(superName)
		}
		if ifNames, ierr := model.InterfaceNames(); ierr == nil {
			for _, ifName := range ifNames {
				cb.WithInterface(ifName)
			}
		}

		tb := &ClassTransformBuilder{cb: cb, srcPool: model.Pool, opts: c.opts}
		for _, f := range model.Fields {
			fn(tb, FieldElement{Field: f})
		}
		for _, m := range model.Methods {
			fn(tb, MethodElement{Method: m})
		}
		for _, a := range model.Attributes {
			fn(tb, ClassAttributeElement{Attr: a})
		}
		if tb.err != nil {
			panic(tb.err)
		}
	})
}

// clonePoolVerbatim copies every live entry of src into a fresh pool at the
// same indices, the way parsing populates a pool in the first place
// (rawAppend both preserves position and seeds the interning map, so the
// clone is immediately usable as a SHARED_POOL's migration target).
func clonePoolVerbatim(src *ConstantPool) *ConstantPool {
	dst := NewConstantPool()
	for i := uint16(1); i < src.Size(); i++ {
		e, err := src.Entry(i)
		if err != nil {
			continue // reserved second slot of a Long/Double
		}
		dst.rawAppend(e)
		if e.Width() == 2 {
			i++
		}
	}
	return dst
}

// ClassTransformBuilder is the chained builder a ClassTransformFunc
// receives: a thin wrapper around the terminal ClassBuilder that also knows
// the source pool and sharing policy needed to migrate pool indices
// reachable from whatever elements the transform keeps.
type ClassTransformBuilder struct {
	cb      *ClassBuilder
	srcPool *ConstantPool
	opts    Options
	err     error
}

// Pool returns the output class's constant pool.
func (b *ClassTransformBuilder) Pool() *ConstantPool { return b.cb.pool }

// ClassBuilder exposes the underlying terminal builder for callers that
// need to set something the per-element API doesn't cover (an extra
// attribute, a different superclass).
func (b *ClassTransformBuilder) ClassBuilder() *ClassBuilder { return b.cb }

// With appends el to the output class unchanged, migrating any pool
// indices it carries per the builder's sharing policy. This is the default
// pass-through spec.md §4.7 describes; a ClassTransformFunc calls it
// directly for elements it doesn't want to touch.
func (b *ClassTransformBuilder) With(el ClassElement) {
	if b.err != nil {
		return
	}
	switch e := el.(type) {
	case FieldElement:
		b.transformField(e.Field)
	case MethodElement:
		b.TransformMethod(e.Method, nil)
	case ClassAttributeElement:
		ra, err := b.remapAttribute(e.Attr)
		if err != nil {
			b.err = err
			return
		}
		b.cb.WithAttribute(ra)
	}
}

func (b *ClassTransformBuilder) transformField(f FieldModel) {
	name, err := f.Name()
	if err != nil {
		b.err = err
		return
	}
	desc, err := f.Descriptor()
	if err != nil {
		b.err = err
		return
	}
	b.cb.WithField(f.AccessFlags, name, desc, func(fb *FieldBuilder) {
		for _, a := range f.Attributes {
			ra, rerr := b.remapAttribute(a)
			if rerr != nil {
				b.err = rerr
				return
			}
			fb.WithAttribute(ra)
		}
	})
}

// TransformMethod appends a copy of m to the output class. Its Code
// attribute, if any, is run through transformCode with codeFn (nil means
// every CodeElement is passed through unchanged, after index migration);
// every other attribute is migrated via remapAttribute. This is
// spec.md §4.7's nested "transformCode(code, codeTransform)", reached from
// the class level because only the class transform knows which method it
// belongs to.
func (b *ClassTransformBuilder) TransformMethod(m MethodModel, codeFn CodeTransformFunc) {
	if b.err != nil {
		return
	}
	name, err := m.Name()
	if err != nil {
		b.err = err
		return
	}
	desc, err := m.Descriptor()
	if err != nil {
		b.err = err
		return
	}
	sig := methodSigInfo{
		isStatic: m.AccessFlags&AccStatic != 0, isInit: name == "<init>",
		descriptor: desc, thisClass: b.cb.thisClass,
	}
	b.cb.WithMethod(m.AccessFlags, name, desc, func(mb *MethodBuilder) {
		for _, a := range m.Attributes {
			if a.Kind == AttrCode {
				cm, cerr := b.transformCode(a.Code, codeFn, sig)
				if cerr != nil {
					b.err = cerr
					return
				}
				mb.WithAttribute(Attribute{Kind: AttrCode, Name: "Code", Code: cm})
				continue
			}
			ra, rerr := b.remapAttribute(a)
			if rerr != nil {
				b.err = rerr
				return
			}
			mb.WithAttribute(ra)
		}
	})
}

// transformCode decodes code into its element stream (spec.md §4.4's
// exception-entries-first, bci-ordered walk), feeds each element — already
// migrated to the output pool — through codeFn (or straight onto the
// builder, for a plain pass-through), and reassembles the result through
// the same two-pass Assembler a fresh WithCode build uses. Buffering the
// whole stream first, rather than assembling as codeFn runs, is what lets a
// transform reorder or duplicate elements that reference labels bound
// later in the stream.
func (b *ClassTransformBuilder) transformCode(code *CodeModel, codeFn CodeTransformFunc, sig methodSigInfo) (*CodeModel, error) {
	elements, lc, err := code.Elements()
	if err != nil {
		return nil, err
	}
	out := &CodeBuilder{pool: b.cb.pool, lc: lc}
	for _, el := range elements {
		re, rerr := b.remapCodeElement(el)
		if rerr != nil {
			return nil, rerr
		}
		if codeFn != nil {
			codeFn(out, re)
		} else {
			out.With(re)
		}
	}
	state := &codeBuilderState{
		maxStack: code.MaxStack, maxLocals: code.MaxLocals,
		elements: out.elements, lc: lc, debug: out.debug, pool: b.cb.pool,
		sig: sig,
	}
	return state.assemble(b.cb.major, b.opts)
}

// migrateIndex resolves idx (a constant-pool index in b.srcPool, or 0 for
// "no entry") to its counterpart in the output pool. Under SharedPool the
// output pool is a verbatim clone of the source, so indices carry over
// unchanged; under NewPool only entries actually reached from a kept
// element get interned, via ConstantPool.maybeClone.
func (b *ClassTransformBuilder) migrateIndex(idx uint16) (uint16, error) {
	if idx == 0 {
		return 0, nil
	}
	if b.opts.ConstantPoolSharing == SharedPool {
		return idx, nil
	}
	return b.cb.pool.maybeClone(b.srcPool, idx)
}

func (b *ClassTransformBuilder) remapVType(vt VerificationType) (VerificationType, error) {
	if vt.Kind != VObject {
		return vt, nil
	}
	idx, err := b.migrateIndex(vt.ClassIndex)
	if err != nil {
		return vt, err
	}
	vt.ClassIndex = idx
	return vt, nil
}

// remapCodeElement migrates every constant-pool index a CodeElement
// carries; labels, line numbers, and slot numbers need no migration and
// pass through by value.
func (b *ClassTransformBuilder) remapCodeElement(el CodeElement) (CodeElement, error) {
	switch e := el.(type) {
	case Instruction:
		idx, err := b.migrateIndex(e.PoolIndex)
		if err != nil {
			return nil, err
		}
		e.PoolIndex = idx
		return e, nil
	case ExceptionCatchElement:
		idx, err := b.migrateIndex(e.CatchType)
		if err != nil {
			return nil, err
		}
		e.CatchType = idx
		return e, nil
	case LocalVariableElement:
		n, err := b.migrateIndex(e.NameIndex)
		if err != nil {
			return nil, err
		}
		d, err := b.migrateIndex(e.DescriptorIndex)
		if err != nil {
			return nil, err
		}
		e.NameIndex, e.DescriptorIndex = n, d
		return e, nil
	case LocalVariableTypeElement:
		n, err := b.migrateIndex(e.NameIndex)
		if err != nil {
			return nil, err
		}
		s, err := b.migrateIndex(e.SignatureIndex)
		if err != nil {
			return nil, err
		}
		e.NameIndex, e.SignatureIndex = n, s
		return e, nil
	default:
		return el, nil // LabelElement, LineNumberElement, PseudoInstructionElement
	}
}

// remapAttribute migrates every constant-pool index an attribute carries
// (recursing into its rows), producing an equivalent Attribute whose
// indices are valid in the output pool. AttrCode is handled separately by
// TransformMethod/transformCode, since a Code attribute's indices live
// inside its raw instruction stream rather than in simple struct fields.
// AttrUnknown attributes (and any raw-passthrough one under
// PASS_UNKNOWN_ATTRIBUTES) are carried verbatim: a name this build doesn't
// structurally understand may embed pool indices of its own, which only an
// AttributeMapper registered for that name could migrate correctly.
func (b *ClassTransformBuilder) remapAttribute(a Attribute) (Attribute, error) {
	var err error
	switch a.Kind {
	case AttrConstantValue:
		a.ConstantValueIndex, err = b.migrateIndex(a.ConstantValueIndex)
	case AttrExceptions:
		out := make([]uint16, len(a.ExceptionIndexTable))
		for i, idx := range a.ExceptionIndexTable {
			if out[i], err = b.migrateIndex(idx); err != nil {
				break
			}
		}
		a.ExceptionIndexTable = out
	case AttrSourceFile:
		a.SourceFileIndex, err = b.migrateIndex(a.SourceFileIndex)
	case AttrLocalVariableTable:
		out := make([]LocalVariableRow, len(a.LocalVariables))
		for i, row := range a.LocalVariables {
			if row.NameIndex, err = b.migrateIndex(row.NameIndex); err != nil {
				break
			}
			if row.DescriptorIndex, err = b.migrateIndex(row.DescriptorIndex); err != nil {
				break
			}
			out[i] = row
		}
		a.LocalVariables = out
	case AttrLocalVariableTypeTable:
		out := make([]LocalVariableTypeRow, len(a.LocalVariableTypes))
		for i, row := range a.LocalVariableTypes {
			if row.NameIndex, err = b.migrateIndex(row.NameIndex); err != nil {
				break
			}
			if row.SignatureIndex, err = b.migrateIndex(row.SignatureIndex); err != nil {
				break
			}
			out[i] = row
		}
		a.LocalVariableTypes = out
	case AttrStackMapTable:
		out := make([]StackMapFrame, len(a.StackMapFrames))
		for i, f := range a.StackMapFrames {
			nf := f
			if nf.Locals, err = b.remapVTypeSlice(f.Locals); err != nil {
				break
			}
			if nf.Stack, err = b.remapVTypeSlice(f.Stack); err != nil {
				break
			}
			out[i] = nf
		}
		a.StackMapFrames = out
	case AttrBootstrapMethods:
		out := make([]BootstrapMethod, len(a.BootstrapMethods))
		for i, bm := range a.BootstrapMethods {
			if bm.MethodRefIndex, err = b.migrateIndex(bm.MethodRefIndex); err != nil {
				break
			}
			args := make([]uint16, len(bm.Arguments))
			for j, idx := range bm.Arguments {
				if args[j], err = b.migrateIndex(idx); err != nil {
					break
				}
			}
			bm.Arguments = args
			out[i] = bm
		}
		a.BootstrapMethods = out
	case AttrInnerClasses:
		out := make([]InnerClassRow, len(a.InnerClasses))
		for i, row := range a.InnerClasses {
			if row.InnerClassInfoIndex, err = b.migrateIndex(row.InnerClassInfoIndex); err != nil {
				break
			}
			if row.OuterClassInfoIndex, err = b.migrateIndex(row.OuterClassInfoIndex); err != nil {
				break
			}
			if row.InnerNameIndex, err = b.migrateIndex(row.InnerNameIndex); err != nil {
				break
			}
			out[i] = row
		}
		a.InnerClasses = out
	case AttrEnclosingMethod:
		if a.EnclosingClassIndex, err = b.migrateIndex(a.EnclosingClassIndex); err == nil {
			a.EnclosingMethodIndex, err = b.migrateIndex(a.EnclosingMethodIndex)
		}
	case AttrSignature:
		a.SignatureIndex, err = b.migrateIndex(a.SignatureIndex)
	}
	if err != nil {
		return Attribute{}, err
	}
	return a, nil
}

func (b *ClassTransformBuilder) remapVTypeSlice(in []VerificationType) ([]VerificationType, error) {
	if in == nil {
		return nil, nil
	}
	out := make([]VerificationType, len(in))
	for i, vt := range in {
		rv, err := b.remapVType(vt)
		if err != nil {
			return nil, err
		}
		out[i] = rv
	}
	return out, nil
}
