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
)

// WireField is the uniform adapter the struct codec engine (structcodec.go)
// is written against exactly once, regardless of whether the slot being
// read or written is a struct property, a method parameter, a return
// value, or a throws clause. Each constructor below (ForProperty,
// ForParameter, ForReturnValue, ForThrowsClause) produces a WireField that
// locates its slot within a "carrier" reflect.Value by field index — for
// properties the carrier is the real backing struct; for the synthetic
// args/result structs the message codec builds (message.go), the carrier
// is a struct type synthesized on first use via reflect.StructOf and
// cached alongside its compiled codec.
//
// WireField values are built during codec compilation and kept by the
// compiled codec (its reader/writer closures and the structCodec/
// methodCodec field lists). They hold only field index and wire-type
// metadata, never per-call values.
type WireField struct {
	ID           int16
	Name         string
	WireType     ThriftType
	Required     bool
	HasDefault   bool
	DefaultValue interface{}
	Converter    *Converter

	fieldIndex []int
}

// ForProperty adapts a struct FieldDescriptor into a WireField whose
// carrier is the struct's own backing value.
func ForProperty(fd *FieldDescriptor) WireField {
	return WireField{
		ID:           fd.ID,
		Name:         fd.Name,
		WireType:     fd.WireType,
		Required:     fd.Required,
		HasDefault:   fd.HasDefault,
		DefaultValue: fd.DefaultValue,
		Converter:    fd.Converter,
		fieldIndex:   fd.fieldIndex,
	}
}

// ForParameter adapts a ParameterDescriptor into a WireField whose carrier
// is the synthetic args-struct the message codec builds for a call.
// Parameters are always present: arguments are serialized from a closed
// argument tuple, never from an optional slot.
func ForParameter(pd *ParameterDescriptor, position int) WireField {
	return WireField{
		ID:         pd.ID,
		Name:       pd.Name,
		WireType:   pd.WireType,
		Required:   true,
		fieldIndex: []int{position},
	}
}

// ForReturnValue adapts a ReturnValueDescriptor into a WireField whose
// carrier is the synthetic result-struct the message codec builds to
// decode a Reply. Its presence is tracked by the struct reader's own
// seen-field bookkeeping (not by nullness), because nil may itself be a
// legal return value.
func ForReturnValue(rd *ReturnValueDescriptor, position int) WireField {
	return WireField{
		ID:         0,
		Name:       "success",
		WireType:   rd.WireType,
		Required:   false,
		Converter:  rd.Converter,
		fieldIndex: []int{position},
	}
}

// ForThrowsClause adapts a ThrowsClauseDescriptor into a WireField whose
// carrier is the synthetic result-struct. A throws-clause field being
// present on the wire means the call raised that exception.
func ForThrowsClause(td *ThrowsClauseDescriptor, position int) WireField {
	return WireField{
		ID:         td.ID,
		Name:       td.Name,
		WireType:   td.WireType,
		Required:   false,
		fieldIndex: []int{position},
	}
}

// get reads the current value out of carrier. For a nullable (pointer)
// slot, ok is false when the pointer is nil. For a non-nullable slot, ok
// is always true (required enforcement of "absent" is driven by the
// caller's seen-bit bookkeeping, not by this method).
func (f WireField) get(carrier reflect.Value) (value interface{}, ok bool) {
	fv := carrier.FieldByIndex(f.fieldIndex)
	if fv.Kind() == reflect.Ptr {
		if fv.IsNil() {
			return nil, false
		}
		return fv.Elem().Interface(), true
	}
	if fv.Kind() == reflect.Interface {
		if fv.IsNil() {
			return nil, false
		}
		return fv.Interface(), true
	}
	return fv.Interface(), true
}

// set stores a decoded value into carrier, wrapping it in a pointer if the
// slot's static type is a pointer (the nullable-value-type representation).
func (f WireField) set(carrier reflect.Value, value interface{}) {
	fv := carrier.FieldByIndex(f.fieldIndex)
	switch fv.Kind() {
	case reflect.Ptr:
		ptr := reflect.New(fv.Type().Elem())
		if value != nil {
			ptr.Elem().Set(reflect.ValueOf(value).Convert(fv.Type().Elem()))
		}
		fv.Set(ptr)
	case reflect.Interface:
		if value == nil {
			fv.Set(reflect.Zero(fv.Type()))
			return
		}
		fv.Set(reflect.ValueOf(value))
	default:
		if value == nil {
			fv.Set(reflect.Zero(fv.Type()))
			return
		}
		fv.Set(reflect.ValueOf(value).Convert(fv.Type()))
	}
}

// syntheticCarrierType builds a struct type with one exported interface{}
// field per WireField, named positionally (F0, F1, ...), used as the
// carrier for the message codec's args and result structs.
func syntheticCarrierType(n int) reflect.Type {
	var anyType = reflect.TypeOf((*interface{})(nil)).Elem()
	sf := make([]reflect.StructField, n)
	for i := 0; i < n; i++ {
		sf[i] = reflect.StructField{
			Name: fieldName(i),
			Type: anyType,
		}
	}
	return reflect.StructOf(sf)
}

func fieldName(i int) string {
	return "F" + strconv.Itoa(i)
}
