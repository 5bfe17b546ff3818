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
)

// ThriftSet is a marker interface a named Go type can implement to tell the
// classifier that, despite being backed by a slice or map, it should be
// treated as a Thrift set rather than a list or map. Types backed by
// map[T]struct{} are recognized as sets without implementing this marker.
type ThriftSet interface {
	isThriftSet()
}

var byteSliceType = reflect.TypeOf([]byte(nil))

// ClassifyType maps a Go reflect.Type to its ThriftType, applying the rules
// in §4.2: a converter (if non-nil) takes over classification using its own
// wire shape; everything else is driven off the Go type's Kind.
//
// structs is consulted to resolve nested struct types to their already-built
// StructDescriptor; a struct type with no matching entry is a SchemaError.
func ClassifyType(t reflect.Type, converter *Converter, structs map[reflect.Type]*StructDescriptor) (ThriftType, error) {
	if converter != nil {
		wt, err := ClassifyType(converter.WireType, nil, structs)
		if err != nil {
			return ThriftType{}, err
		}
		return wt.WithConverter(converter), nil
	}

	nullable := false
	for t.Kind() == reflect.Ptr {
		nullable = true
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.Bool:
		return withNullable(Bool(), nullable), nil
	case reflect.Int8, reflect.Uint8:
		return withNullable(Byte(), nullable), nil
	case reflect.Int16, reflect.Uint16:
		return withNullable(Int16(), nullable), nil
	case reflect.Int32, reflect.Uint32, reflect.Int:
		return withNullable(Int32(), nullable), nil
	case reflect.Int64, reflect.Uint64:
		return withNullable(Int64(), nullable), nil
	case reflect.Float32, reflect.Float64:
		return withNullable(Double(), nullable), nil
	case reflect.String:
		return withNullable(String(), nullable), nil
	case reflect.Struct:
		desc, ok := structs[t]
		if !ok {
			return ThriftType{}, &SchemaError{
				Kind:   SchemaUnsupportedType,
				Detail: "unregistered struct type " + t.String(),
			}
		}
		return withNullable(Struct(desc), nullable), nil
	case reflect.Slice, reflect.Array:
		if t == byteSliceType {
			return withNullable(String(), nullable), nil
		}
		if isSetType(t) {
			elem, err := ClassifyType(t.Elem(), nil, structs)
			if err != nil {
				return ThriftType{}, err
			}
			return withNullable(Set(elem, ShapeSlice), nullable), nil
		}
		elem, err := ClassifyType(t.Elem(), nil, structs)
		if err != nil {
			return ThriftType{}, err
		}
		shape := ShapeSlice
		if t.Kind() == reflect.Array {
			shape = ShapeArray
		}
		return withNullable(List(elem, shape), nullable), nil
	case reflect.Map:
		if isSetMapType(t) {
			elem, err := ClassifyType(t.Key(), nil, structs)
			if err != nil {
				return ThriftType{}, err
			}
			return withNullable(Set(elem, ShapeMap), nullable), nil
		}
		key, err := ClassifyType(t.Key(), nil, structs)
		if err != nil {
			return ThriftType{}, err
		}
		val, err := ClassifyType(t.Elem(), nil, structs)
		if err != nil {
			return ThriftType{}, err
		}
		return withNullable(Map(key, val, ShapeMap), nullable), nil
	default:
		return ThriftType{}, &SchemaError{
			Kind:   SchemaUnsupportedType,
			Detail: "unsupported Go type " + t.String(),
		}
	}
}

var thriftSetType = reflect.TypeOf((*ThriftSet)(nil)).Elem()

// isSetType reports whether a slice/array type represents a Thrift set: it
// implements the ThriftSet marker interface.
func isSetType(t reflect.Type) bool {
	return reflect.PtrTo(t).Implements(thriftSetType) || t.Implements(thriftSetType)
}

// isSetMapType reports whether a map type represents a Thrift set encoded
// as map[T]struct{} (the conventional Go set representation).
func isSetMapType(t reflect.Type) bool {
	return t.Elem().Kind() == reflect.Struct && t.Elem().NumField() == 0
}

func withNullable(t ThriftType, nullable bool) ThriftType {
	if nullable {
		return t.AsNullable()
	}
	return t
}
