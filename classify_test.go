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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type intSet []int32

func (intSet) isThriftSet() {}

func TestClassifyTypeScalars(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want Kind
	}{
		{"bool", bool(false), KindBool},
		{"int8", int8(0), KindByte},
		{"uint8", uint8(0), KindByte},
		{"int16", int16(0), KindInt16},
		{"int32", int32(0), KindInt32},
		{"int", int(0), KindInt32},
		{"int64", int64(0), KindInt64},
		{"float64", float64(0), KindDouble},
		{"string", "", KindString},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wt, err := ClassifyType(reflect.TypeOf(tt.in), nil, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, wt.Kind)
			assert.False(t, wt.Nullable)
		})
	}
}

func TestClassifyTypePointerIsNullable(t *testing.T) {
	var p *int32
	wt, err := ClassifyType(reflect.TypeOf(p), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, KindInt32, wt.Kind)
	assert.True(t, wt.Nullable)
}

func TestClassifyTypeByteSliceIsString(t *testing.T) {
	wt, err := ClassifyType(reflect.TypeOf([]byte(nil)), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, KindString, wt.Kind)
}

func TestClassifyTypeSlice(t *testing.T) {
	wt, err := ClassifyType(reflect.TypeOf([]int32(nil)), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, KindList, wt.Kind)
	assert.Equal(t, KindInt32, wt.Elem.Kind)
}

func TestClassifyTypeMarkedSet(t *testing.T) {
	wt, err := ClassifyType(reflect.TypeOf(intSet(nil)), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, KindSet, wt.Kind)
	assert.Equal(t, ShapeSlice, wt.Shape)
}

func TestClassifyTypeMapSet(t *testing.T) {
	wt, err := ClassifyType(reflect.TypeOf(map[string]struct{}(nil)), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, KindSet, wt.Kind)
	assert.Equal(t, ShapeMap, wt.Shape)
	assert.Equal(t, KindString, wt.Elem.Kind)
}

func TestClassifyTypeMap(t *testing.T) {
	wt, err := ClassifyType(reflect.TypeOf(map[string]int32(nil)), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, KindMap, wt.Kind)
	assert.Equal(t, KindString, wt.Key.Kind)
	assert.Equal(t, KindInt32, wt.Elem.Kind)
}

func TestClassifyTypeUnregisteredStructFails(t *testing.T) {
	type unknown struct{ X int32 }
	_, err := ClassifyType(reflect.TypeOf(unknown{}), nil, map[reflect.Type]*StructDescriptor{})
	require.Error(t, err)
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, SchemaUnsupportedType, schemaErr.Kind)
}

func TestClassifyTypeConverterShortCircuits(t *testing.T) {
	conv := &Converter{
		WireType: reflect.TypeOf(""),
		UserType: reflect.TypeOf(timestamp{}),
	}
	wt, err := ClassifyType(reflect.TypeOf(timestamp{}), conv, nil)
	require.NoError(t, err)
	assert.Equal(t, KindString, wt.Kind)
	assert.Same(t, conv, wt.Converter)
}

type timestamp struct{ unixNano int64 }

func TestClassifyTypeUnsupportedKind(t *testing.T) {
	_, err := ClassifyType(reflect.TypeOf(make(chan int)), nil, nil)
	require.Error(t, err)
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, SchemaUnsupportedType, schemaErr.Kind)
}
