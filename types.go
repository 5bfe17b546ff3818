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
	"fmt"

	"github.com/apache/thrift/lib/go/thrift"
)

// Kind is a closed tag over the wire shapes a ThriftType can take.
type Kind int

const (
	// KindBool is the Thrift bool wire type.
	KindBool Kind = iota
	// KindByte is the Thrift byte (i08) wire type.
	KindByte
	// KindInt16 is the Thrift i16 wire type.
	KindInt16
	// KindInt32 is the Thrift i32 wire type.
	KindInt32
	// KindInt64 is the Thrift i64 wire type.
	KindInt64
	// KindDouble is the Thrift double wire type.
	KindDouble
	// KindString is the Thrift string/binary wire type.
	KindString
	// KindStruct is a nested struct wire type.
	KindStruct
	// KindList is an ordered collection wire type.
	KindList
	// KindSet is an unordered, duplicate-free collection wire type.
	KindSet
	// KindMap is a keyed collection wire type.
	KindMap
)

// String renders the Kind for diagnostics.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindByte:
		return "byte"
	case KindInt16:
		return "i16"
	case KindInt32:
		return "i32"
	case KindInt64:
		return "i64"
	case KindDouble:
		return "double"
	case KindString:
		return "string"
	case KindStruct:
		return "struct"
	case KindList:
		return "list"
	case KindSet:
		return "set"
	case KindMap:
		return "map"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// CollectionShape records the user-facing container shape a List/Set/Map
// ThriftType should materialize into on read: a Go slice, array, or a
// user-defined set/map-like type.
type CollectionShape int

const (
	// ShapeSlice materializes into a Go slice.
	ShapeSlice CollectionShape = iota
	// ShapeArray materializes into a fixed-size Go array.
	ShapeArray
	// ShapeMap materializes into a Go map (used for both Map and Set,
	// where a Set's user shape is map[T]struct{}).
	ShapeMap
)

// ThriftType is a normalized, immutable classification of a value's wire
// shape. Exactly one of the type-specific fields is meaningful, selected by
// Kind; this is Go's idiom for the tagged-union Design Note (prefer a closed
// sum type with exhaustive switches over open polymorphism).
type ThriftType struct {
	Kind Kind

	// Nullable is true when an absent/nil value is a legal encoding for
	// this type. ClassifyType sets it for pointer types; StructFromType
	// also sets it for optional non-pointer fields. Slices, maps and
	// structs are not marked nullable by ClassifyType.
	Nullable bool

	// Converter is non-nil when a user-pluggable conversion applies to
	// values of this type before they reach the wire.
	Converter *Converter

	// Struct is populated when Kind == KindStruct.
	Struct *StructDescriptor

	// Elem is populated when Kind == KindList or KindSet: the element type.
	Elem *ThriftType

	// Key and Elem are populated when Kind == KindMap.
	Key *ThriftType

	// Shape records how a List/Set/Map's user-facing representation
	// should be materialized on read.
	Shape CollectionShape
}

// WireTag returns the apache/thrift TType tag byte for this ThriftType,
// resolving through a Converter's wire shape first per the classifier rule
// that converter-bearing fields classify by their wire shape.
func (t ThriftType) WireTag() thrift.TType {
	switch t.Kind {
	case KindBool:
		return thrift.BOOL
	case KindByte:
		return thrift.BYTE
	case KindInt16:
		return thrift.I16
	case KindInt32:
		return thrift.I32
	case KindInt64:
		return thrift.I64
	case KindDouble:
		return thrift.DOUBLE
	case KindString:
		return thrift.STRING
	case KindStruct:
		return thrift.STRUCT
	case KindList:
		return thrift.LIST
	case KindSet:
		return thrift.SET
	case KindMap:
		return thrift.MAP
	default:
		return thrift.STOP
	}
}

// Bool, Byte, Int16, Int32, Int64, Double and String construct the scalar
// ThriftType variants.
func Bool() ThriftType   { return ThriftType{Kind: KindBool} }
func Byte() ThriftType   { return ThriftType{Kind: KindByte} }
func Int16() ThriftType  { return ThriftType{Kind: KindInt16} }
func Int32() ThriftType  { return ThriftType{Kind: KindInt32} }
func Int64() ThriftType  { return ThriftType{Kind: KindInt64} }
func Double() ThriftType { return ThriftType{Kind: KindDouble} }
func String() ThriftType { return ThriftType{Kind: KindString} }

// Struct constructs a ThriftType wrapping a registered StructDescriptor.
func Struct(d *StructDescriptor) ThriftType {
	return ThriftType{Kind: KindStruct, Struct: d}
}

// List constructs an ordered-collection ThriftType.
func List(elem ThriftType, shape CollectionShape) ThriftType {
	return ThriftType{Kind: KindList, Elem: &elem, Shape: shape}
}

// Set constructs an unordered, duplicate-free collection ThriftType.
func Set(elem ThriftType, shape CollectionShape) ThriftType {
	return ThriftType{Kind: KindSet, Elem: &elem, Shape: shape}
}

// Map constructs a keyed-collection ThriftType.
func Map(key, value ThriftType, shape CollectionShape) ThriftType {
	return ThriftType{Kind: KindMap, Key: &key, Elem: &value, Shape: shape}
}

// AsNullable returns a copy of t marked nullable, used for optional
// value-type fields that carry an explicit presence flag rather than a nil
// sentinel (see Design Notes: nullable value-type semantics).
func (t ThriftType) AsNullable() ThriftType {
	t.Nullable = true
	return t
}

// WithConverter returns a copy of t carrying the given Converter. Per the
// classifier, the converter's WireType determines the wire-shape
// classification; this method only attaches metadata used by the codec
// engine to invoke ToWire/ToUser around the otherwise-unchanged reader and
// writer for t.
func (t ThriftType) WithConverter(c *Converter) ThriftType {
	t.Converter = c
	return t
}
