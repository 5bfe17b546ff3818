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

type taggedAccount struct {
	ID      int64  `thrift:"1,required"`
	Name    string `thrift:"2,required"`
	Nick    string `thrift:"3"`
	private string
	Ignored bool
}

func TestStructFromTypeParsesTags(t *testing.T) {
	desc, err := StructFromType(reflect.TypeOf(taggedAccount{}), map[reflect.Type]*StructDescriptor{})
	require.NoError(t, err)
	assert.Equal(t, "taggedAccount", desc.Name)
	require.Len(t, desc.Fields, 3)

	id := desc.FieldByID(1)
	require.NotNil(t, id)
	assert.True(t, id.Required)
	assert.Equal(t, "ID", id.Name)

	nick := desc.FieldByID(3)
	require.NotNil(t, nick)
	assert.False(t, nick.Required)
	assert.True(t, nick.WireType.Nullable)

	assert.Nil(t, desc.FieldByID(4))
}

type duplicateIDStruct struct {
	A int32 `thrift:"1"`
	B int32 `thrift:"1"`
}

func TestStructFromTypeRejectsDuplicateIDs(t *testing.T) {
	_, err := StructFromType(reflect.TypeOf(duplicateIDStruct{}), map[reflect.Type]*StructDescriptor{})
	require.Error(t, err)
}

func TestStructFromTypeRejectsNonStruct(t *testing.T) {
	_, err := StructFromType(reflect.TypeOf(42), nil)
	require.Error(t, err)
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
}

func TestStructFromTypeUnwrapsPointer(t *testing.T) {
	desc, err := StructFromType(reflect.TypeOf(&taggedAccount{}), map[reflect.Type]*StructDescriptor{})
	require.NoError(t, err)
	assert.Equal(t, "taggedAccount", desc.Name)
}
