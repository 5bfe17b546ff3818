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

	"github.com/fatih/structtag"
	"go.uber.org/multierr"
)

// structTagKey is the struct tag this package reads to recover field
// descriptors without a fluent builder. A field tagged
//
//	Name string `thrift:"1,required"`
//
// becomes field id 1, required. A field tagged `thrift:"2,optional"` or
// just `thrift:"2"` becomes an optional field. A field with no "thrift" tag
// is skipped (it is not part of the wire struct).
const structTagKey = "thrift"

// StructFromType builds a StructDescriptor by reflecting over t's exported
// fields and their `thrift` struct tags. This is the Go-native analogue of
// the upstream attribute/annotation parser that spec.md places out of
// scope: instead of CLR/Java attributes, Go code carries the same
// information in struct tags, parsed here with structtag the same way the
// teacher's go.mod already vendors it for tag inspection.
//
// structs provides already-built descriptors for any nested struct types
// referenced by t's fields; pass an empty map for structs with no struct-
// typed fields.
func StructFromType(t reflect.Type, structs map[reflect.Type]*StructDescriptor) (*StructDescriptor, error) {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, &SchemaError{Kind: SchemaUnsupportedType, Detail: "StructFromType requires a struct type, got " + t.String()}
	}

	b := NewStructBuilder(t.Name(), t)
	var errs error
	seen := make(map[int16]bool)

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.PkgPath != "" {
			continue // unexported
		}
		raw := string(sf.Tag)
		if raw == "" {
			continue
		}
		tags, err := structtag.Parse(raw)
		if err != nil {
			errs = multierr.Append(errs, &SchemaError{Kind: SchemaInvalidAnnotation, Detail: "field " + sf.Name + ": " + err.Error()})
			continue
		}
		tag, err := tags.Get(structTagKey)
		if err != nil {
			continue // no thrift tag on this field; not part of the wire struct
		}

		id, err := strconv.ParseInt(tag.Name, 10, 16)
		if err != nil {
			errs = multierr.Append(errs, &SchemaError{Kind: SchemaInvalidAnnotation, Detail: "field " + sf.Name + ": invalid field id " + tag.Name})
			continue
		}
		if seen[int16(id)] {
			errs = multierr.Append(errs, &SchemaError{Kind: SchemaConflictingIDs, Detail: "duplicate field id " + tag.Name + " in struct " + t.Name()})
			continue
		}
		seen[int16(id)] = true

		required := hasOption(tag.Options, "required")
		fieldType := sf.Type
		nullableByDecl := fieldType.Kind() == reflect.Ptr
		wireType, err := ClassifyType(fieldType, nil, structs)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		// A value-typed field marked optional (and not itself a pointer
		// or reference type) still needs nullable wire semantics: the
		// field-presence mechanism, not the Go value, carries absence.
		if !required && !nullableByDecl {
			wireType = wireType.AsNullable()
		}

		b.Field(int16(id), sf.Name, required, wireType)
	}

	if errs != nil {
		return nil, errs
	}
	return b.Build()
}

func hasOption(opts []string, name string) bool {
	for _, o := range opts {
		if o == name {
			return true
		}
	}
	return false
}
