// Copyright (c) 2021 Uber Technologies, Inc.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package thrift

import (
	"reflect"
	"strconv"

	"go.uber.org/multierr"
)

// Converter bridges a wire-shape value and a user-shape value with a pair
// of pure functions. Converters are attached per field/parameter/return at
// descriptor-build time; the core keeps no global registry (§4.6 of the
// design: "this keeps the codec engine total over its inputs").
type Converter struct {
	WireType reflect.Type
	UserType reflect.Type
	ToUser   func(wire interface{}) (interface{}, error)
	ToWire   func(user interface{}) (interface{}, error)
}

// FieldDescriptor describes one numbered slot of a struct.
type FieldDescriptor struct {
	ID           int16
	Name         string
	Required     bool
	DefaultValue interface{} // meaningful only when HasDefault is true
	HasDefault   bool
	Converter    *Converter
	WireType     ThriftType

	// fieldIndex locates the backing struct field by reflect.Type.FieldByIndex,
	// resolved once at descriptor-build time so the hot codec path never
	// re-resolves a field by name.
	fieldIndex []int
}

// StructDescriptor describes a struct's name, backing Go type, and ordered
// field list. Instances are immutable once returned by Build.
type StructDescriptor struct {
	Name        string
	BackingType reflect.Type
	Fields      []*FieldDescriptor
}

// FieldByID returns the field with the given id, or nil if none matches.
func (d *StructDescriptor) FieldByID(id int16) *FieldDescriptor {
	for _, f := range d.Fields {
		if f.ID == id {
			return f
		}
	}
	return nil
}

// ParameterDescriptor describes one positional method argument.
type ParameterDescriptor struct {
	ID       int16
	Name     string
	WireType ThriftType
}

// ReturnValueDescriptor describes a method's return value. A void method has
// no ReturnValueDescriptor (MethodDescriptor.Return is nil).
type ReturnValueDescriptor struct {
	WireType  ThriftType
	Converter *Converter
}

// ThrowsClauseDescriptor describes one declared exception type a method may
// raise, carried as a numbered field of the reply struct.
type ThrowsClauseDescriptor struct {
	ID       int16
	Name     string
	WireType ThriftType
}

// MethodDescriptor describes one RPC method: its parameters, optional return
// value, and declared throws clauses.
type MethodDescriptor struct {
	Name       string
	IsOneWay   bool
	Return     *ReturnValueDescriptor
	Throws     []*ThrowsClauseDescriptor
	Parameters []*ParameterDescriptor
}

// ServiceDescriptor describes a named collection of methods.
type ServiceDescriptor struct {
	Name    string
	Methods map[string]*MethodDescriptor
}

// MethodByName looks up a method by its user-facing name.
func (d *ServiceDescriptor) MethodByName(name string) (*MethodDescriptor, bool) {
	m, ok := d.Methods[name]
	return m, ok
}

// --- Fluent builders (Design Notes: "explicit builders" for annotation-free hosts) ---

// FieldOption configures a field constructed by StructBuilder.Field.
type FieldOption func(*FieldDescriptor)

// WithDefault declares the field's default value; the struct writer elides
// an optional field equal (by reflect.DeepEqual) to this value, and the
// reader applies it when the field is absent on the wire.
func WithDefault(v interface{}) FieldOption {
	return func(f *FieldDescriptor) {
		f.DefaultValue = v
		f.HasDefault = true
	}
}

// WithFieldConverter attaches a Converter to the field.
func WithFieldConverter(c *Converter) FieldOption {
	return func(f *FieldDescriptor) {
		f.Converter = c
	}
}

// StructBuilder incrementally assembles a StructDescriptor.
type StructBuilder struct {
	name        string
	backingType reflect.Type
	fields      []*FieldDescriptor
	seenIDs     map[int16]bool
	errs        error
}

// NewStructBuilder starts building a StructDescriptor named name, backed by
// the Go type backingType (normally obtained via reflect.TypeOf on a zero
// value, or reflect.TypeOf((*T)(nil)).Elem()).
func NewStructBuilder(name string, backingType reflect.Type) *StructBuilder {
	return &StructBuilder{
		name:        name,
		backingType: backingType,
		seenIDs:     make(map[int16]bool),
	}
}

// Field adds a numbered field. fieldName must name an exported field of the
// builder's backing struct type.
func (b *StructBuilder) Field(id int16, fieldName string, required bool, wireType ThriftType, opts ...FieldOption) *StructBuilder {
	if b.seenIDs[id] {
		b.errs = multierr.Append(b.errs, &SchemaError{
			Kind:   SchemaConflictingIDs,
			Detail: "duplicate field id " + strconv.Itoa(int(id)) + " in struct " + b.name,
		})
		return b
	}
	b.seenIDs[id] = true

	sf, ok := b.backingType.FieldByName(fieldName)
	if !ok {
		b.errs = multierr.Append(b.errs, &SchemaError{
			Kind:   SchemaInvalidAnnotation,
			Detail: "no such field " + fieldName + " on " + b.backingType.String(),
		})
		return b
	}

	fd := &FieldDescriptor{
		ID:         id,
		Name:       fieldName,
		Required:   required,
		WireType:   wireType,
		fieldIndex: sf.Index,
	}
	for _, opt := range opts {
		opt(fd)
	}
	b.fields = append(b.fields, fd)
	return b
}

// Build finalizes the StructDescriptor, or returns the accumulated
// validation errors (each field-level problem is reported independently via
// multierr rather than stopping at the first).
func (b *StructBuilder) Build() (*StructDescriptor, error) {
	if b.errs != nil {
		return nil, b.errs
	}
	return &StructDescriptor{
		Name:        b.name,
		BackingType: b.backingType,
		Fields:      b.fields,
	}, nil
}

// MethodBuilder incrementally assembles a MethodDescriptor.
type MethodBuilder struct {
	name     string
	oneWay   bool
	ret      *ReturnValueDescriptor
	throws   []*ThrowsClauseDescriptor
	params   []*ParameterDescriptor
	seenThID map[int16]bool
	errs     error
}

// NewMethodBuilder starts building a MethodDescriptor named name.
func NewMethodBuilder(name string) *MethodBuilder {
	return &MethodBuilder{name: name, seenThID: make(map[int16]bool)}
}

// OneWay marks the method as one-way: it must not be given a return value or
// throws clauses.
func (b *MethodBuilder) OneWay() *MethodBuilder {
	b.oneWay = true
	return b
}

// Returns declares the method's return type.
func (b *MethodBuilder) Returns(wireType ThriftType, opts ...FieldOption) *MethodBuilder {
	fd := &FieldDescriptor{WireType: wireType}
	for _, opt := range opts {
		opt(fd)
	}
	b.ret = &ReturnValueDescriptor{WireType: fd.WireType, Converter: fd.Converter}
	return b
}

// Parameter appends a positional argument, ordered by call order.
func (b *MethodBuilder) Parameter(id int16, name string, wireType ThriftType) *MethodBuilder {
	b.params = append(b.params, &ParameterDescriptor{ID: id, Name: name, WireType: wireType})
	return b
}

// Throws declares an exception type the method may raise.
func (b *MethodBuilder) Throws(id int16, name string, wireType ThriftType) *MethodBuilder {
	if b.seenThID[id] {
		b.errs = multierr.Append(b.errs, &SchemaError{
			Kind:   SchemaConflictingIDs,
			Detail: "duplicate throws id " + strconv.Itoa(int(id)) + " in method " + b.name,
		})
		return b
	}
	b.seenThID[id] = true
	b.throws = append(b.throws, &ThrowsClauseDescriptor{ID: id, Name: name, WireType: wireType})
	return b
}

// Build finalizes the MethodDescriptor, validating the one-way invariant:
// isOneWay implies a void return and no throws clauses.
func (b *MethodBuilder) Build() (*MethodDescriptor, error) {
	if b.errs != nil {
		return nil, b.errs
	}
	if b.oneWay && (b.ret != nil || len(b.throws) > 0) {
		return nil, &SchemaError{
			Kind:   SchemaInvalidAnnotation,
			Detail: "one-way method " + b.name + " must not declare a return value or throws clauses",
		}
	}
	return &MethodDescriptor{
		Name:       b.name,
		IsOneWay:   b.oneWay,
		Return:     b.ret,
		Throws:     b.throws,
		Parameters: b.params,
	}, nil
}

// NewServiceBuilder and Register live in register.go, which also validates
// cross-method invariants (duplicate method names) at registration time.
