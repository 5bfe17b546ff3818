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
	"context"
	"reflect"

	"github.com/apache/thrift/lib/go/thrift"
)

// structCodec is a compiled, cached reader/writer pair for one
// StructDescriptor. It is produced once by compileStruct and memoized in
// the process-lifetime codecCache (cache.go); every subsequent call for the
// same descriptor reuses it.
type structCodec struct {
	desc   *StructDescriptor
	fields []WireField
	read   func(ctx context.Context, p thrift.TProtocol) (reflect.Value, error)
	write  func(ctx context.Context, p thrift.TProtocol, v reflect.Value) error
}

// compileStruct builds the WireFields for desc's properties and compiles
// them against the struct's own backing type. This is the descriptor-
// walking interpreter strategy named in the design notes (option c):
// rather than emitting code or expression trees, the compiled reader and
// writer close over the resolved field indices and wire types once, and
// walk them afresh on every call.
func compileStruct(desc *StructDescriptor) (*structCodec, error) {
	fields := make([]WireField, len(desc.Fields))
	for i, fd := range desc.Fields {
		fields[i] = ForProperty(fd)
	}

	innerRead, write := compileFields(fields, desc.BackingType, desc.Name)

	read := func(ctx context.Context, p thrift.TProtocol) (reflect.Value, error) {
		carrier, seen, err := innerRead(ctx, p)
		if err != nil {
			return reflect.Value{}, err
		}
		for i, f := range fields {
			if f.Required && !seen[i] {
				return reflect.Value{}, requiredFieldMissing(desc.Fields[i])
			}
		}
		return carrier, nil
	}

	return &structCodec{desc: desc, fields: fields, read: read, write: write}, nil
}

// compileFields compiles the generic struct reader/writer algorithm from
// §4.4 against an arbitrary WireField list and carrier type. Both the
// ordinary struct codec (compileStruct, above) and the message codec's
// synthetic args/result structs (message.go) route through this function,
// satisfying "the struct codec engine is written once."
//
// The returned reader additionally yields a seen[] slice, parallel to
// fields, reporting which fields were present on the wire — ordinary
// struct reads use it only to enforce required fields (and then discard
// it, see compileStruct.read above); the message codec inspects it
// directly to implement return-value/throws-clause dispatch, since a
// return/throws WireField's presence cannot be inferred from the decoded
// value alone (nil may be a legal return).
func compileFields(fields []WireField, carrierType reflect.Type, structName string) (
	reader func(ctx context.Context, p thrift.TProtocol) (reflect.Value, []bool, error),
	writer func(ctx context.Context, p thrift.TProtocol, v reflect.Value) error,
) {
	byID := make(map[int16]int, len(fields))
	for i, f := range fields {
		byID[f.ID] = i
	}

	reader = func(ctx context.Context, p thrift.TProtocol) (reflect.Value, []bool, error) {
		if _, err := p.ReadStructBegin(ctx); err != nil {
			return reflect.Value{}, nil, transportErrorf(err)
		}

		carrier := reflect.New(carrierType).Elem()
		seen := make([]bool, len(fields))

		for _, f := range fields {
			if !f.Required && f.HasDefault {
				f.set(carrier, f.DefaultValue)
			}
		}

		for {
			_, wireTag, id, err := p.ReadFieldBegin(ctx)
			if err != nil {
				return reflect.Value{}, nil, transportErrorf(err)
			}
			if wireTag == thrift.STOP {
				break
			}

			idx, ok := byID[id]
			if !ok {
				if err := p.Skip(ctx, wireTag); err != nil {
					return reflect.Value{}, nil, transportErrorf(err)
				}
				if err := p.ReadFieldEnd(ctx); err != nil {
					return reflect.Value{}, nil, transportErrorf(err)
				}
				continue
			}

			f := fields[idx]
			if wireTag != f.WireType.WireTag() {
				// Forward compatibility: a mismatched wire type for a
				// known id is skipped, not an error.
				if err := p.Skip(ctx, wireTag); err != nil {
					return reflect.Value{}, nil, transportErrorf(err)
				}
				if err := p.ReadFieldEnd(ctx); err != nil {
					return reflect.Value{}, nil, transportErrorf(err)
				}
				continue
			}

			value, err := readValue(ctx, p, f.WireType)
			if err != nil {
				return reflect.Value{}, nil, err
			}
			if f.Converter != nil {
				value, err = f.Converter.ToUser(value)
				if err != nil {
					return reflect.Value{}, nil, &SchemaError{Kind: SchemaInvalidAnnotation, Detail: "converter ToUser: " + err.Error()}
				}
			}
			f.set(carrier, value)
			seen[idx] = true // last-wins on duplicate ids, by construction

			if err := p.ReadFieldEnd(ctx); err != nil {
				return reflect.Value{}, nil, transportErrorf(err)
			}
		}

		if err := p.ReadStructEnd(ctx); err != nil {
			return reflect.Value{}, nil, transportErrorf(err)
		}
		return carrier, seen, nil
	}

	writer = func(ctx context.Context, p thrift.TProtocol, v reflect.Value) error {
		if err := p.WriteStructBegin(ctx, structName); err != nil {
			return transportErrorf(err)
		}

		for _, f := range fields {
			value, present := f.get(v)
			if present && f.HasDefault && reflect.DeepEqual(value, f.DefaultValue) && !f.Required {
				continue // default elision
			}
			if !present {
				if f.Required {
					return requiredFieldMissingByName(f)
				}
				continue
			}

			wireValue := value
			if f.Converter != nil {
				converted, err := f.Converter.ToWire(value)
				if err != nil {
					return &SchemaError{Kind: SchemaInvalidAnnotation, Detail: "converter ToWire: " + err.Error()}
				}
				wireValue = converted
			}

			if err := p.WriteFieldBegin(ctx, f.Name, f.WireType.WireTag(), f.ID); err != nil {
				return transportErrorf(err)
			}
			if err := writeValue(ctx, p, f.WireType, wireValue); err != nil {
				return err
			}
			if err := p.WriteFieldEnd(ctx); err != nil {
				return transportErrorf(err)
			}
		}

		if err := p.WriteFieldStop(ctx); err != nil {
			return transportErrorf(err)
		}
		return transportErrorf(p.WriteStructEnd(ctx))
	}

	return reader, writer
}

// requiredFieldMissingByName is used by the writer, which only has a
// WireField (not the owning FieldDescriptor) in hand.
func requiredFieldMissingByName(f WireField) error {
	return &ProtocolError{
		Kind: ProtocolRequiredFieldMissing,
		Field: &FieldDescriptor{
			ID:   f.ID,
			Name: f.Name,
		},
	}
}

// readValue decodes one wire-type-directed value, recursing into nested
// struct codecs (via the shared cache) and container element types.
func readValue(ctx context.Context, p thrift.TProtocol, wt ThriftType) (interface{}, error) {
	switch wt.Kind {
	case KindBool:
		v, err := p.ReadBool(ctx)
		return v, transportErrorf(err)
	case KindByte:
		v, err := p.ReadByte(ctx)
		return v, transportErrorf(err)
	case KindInt16:
		v, err := p.ReadI16(ctx)
		return v, transportErrorf(err)
	case KindInt32:
		v, err := p.ReadI32(ctx)
		return v, transportErrorf(err)
	case KindInt64:
		v, err := p.ReadI64(ctx)
		return v, transportErrorf(err)
	case KindDouble:
		v, err := p.ReadDouble(ctx)
		return v, transportErrorf(err)
	case KindString:
		v, err := p.ReadString(ctx)
		return v, transportErrorf(err)
	case KindStruct:
		codec, err := globalCache.loadOrCompileStruct(wt.Struct)
		if err != nil {
			return nil, err
		}
		v, err := codec.read(ctx, p)
		if err != nil {
			return nil, err
		}
		return v.Interface(), nil
	case KindList:
		_, size, err := p.ReadListBegin(ctx)
		if err != nil {
			return nil, transportErrorf(err)
		}
		out := reflect.MakeSlice(reflect.SliceOf(goTypeFor(*wt.Elem)), 0, maxPrealloc(size))
		for i := 0; i < size; i++ {
			ev, err := readValue(ctx, p, *wt.Elem)
			if err != nil {
				return nil, err
			}
			out = reflect.Append(out, reflect.ValueOf(ev).Convert(goTypeFor(*wt.Elem)))
		}
		return out.Interface(), transportErrorf(p.ReadListEnd(ctx))
	case KindSet:
		_, size, err := p.ReadSetBegin(ctx)
		if err != nil {
			return nil, transportErrorf(err)
		}
		if wt.Shape == ShapeMap {
			out := reflect.MakeMapWithSize(reflect.MapOf(goTypeFor(*wt.Elem), emptyStructType), maxPrealloc(size))
			for i := 0; i < size; i++ {
				ev, err := readValue(ctx, p, *wt.Elem)
				if err != nil {
					return nil, err
				}
				out.SetMapIndex(reflect.ValueOf(ev).Convert(goTypeFor(*wt.Elem)), reflect.ValueOf(struct{}{}))
			}
			return out.Interface(), transportErrorf(p.ReadSetEnd(ctx))
		}
		out := reflect.MakeSlice(reflect.SliceOf(goTypeFor(*wt.Elem)), 0, maxPrealloc(size))
		for i := 0; i < size; i++ {
			ev, err := readValue(ctx, p, *wt.Elem)
			if err != nil {
				return nil, err
			}
			out = reflect.Append(out, reflect.ValueOf(ev).Convert(goTypeFor(*wt.Elem)))
		}
		return out.Interface(), transportErrorf(p.ReadSetEnd(ctx))
	case KindMap:
		_, _, size, err := p.ReadMapBegin(ctx)
		if err != nil {
			return nil, transportErrorf(err)
		}
		out := reflect.MakeMapWithSize(reflect.MapOf(goTypeFor(*wt.Key), goTypeFor(*wt.Elem)), maxPrealloc(size))
		for i := 0; i < size; i++ {
			kv, err := readValue(ctx, p, *wt.Key)
			if err != nil {
				return nil, err
			}
			vv, err := readValue(ctx, p, *wt.Elem)
			if err != nil {
				return nil, err
			}
			out.SetMapIndex(reflect.ValueOf(kv).Convert(goTypeFor(*wt.Key)), reflect.ValueOf(vv).Convert(goTypeFor(*wt.Elem)))
		}
		return out.Interface(), transportErrorf(p.ReadMapEnd(ctx))
	default:
		return nil, &SchemaError{Kind: SchemaUnsupportedType, Detail: "cannot read unknown wire kind"}
	}
}

// writeValue encodes one wire-type-directed value, recursing into nested
// struct codecs and container elements exactly as readValue unwinds them.
func writeValue(ctx context.Context, p thrift.TProtocol, wt ThriftType, value interface{}) error {
	switch wt.Kind {
	case KindBool:
		return transportErrorf(p.WriteBool(ctx, value.(bool)))
	case KindByte:
		return transportErrorf(p.WriteByte(ctx, toInt8(value)))
	case KindInt16:
		return transportErrorf(p.WriteI16(ctx, toInt16(value)))
	case KindInt32:
		return transportErrorf(p.WriteI32(ctx, toInt32(value)))
	case KindInt64:
		return transportErrorf(p.WriteI64(ctx, toInt64(value)))
	case KindDouble:
		return transportErrorf(p.WriteDouble(ctx, toFloat64(value)))
	case KindString:
		if b, ok := value.([]byte); ok {
			return transportErrorf(p.WriteBinary(ctx, b))
		}
		return transportErrorf(p.WriteString(ctx, value.(string)))
	case KindStruct:
		codec, err := globalCache.loadOrCompileStruct(wt.Struct)
		if err != nil {
			return err
		}
		return codec.write(ctx, p, reflect.ValueOf(value))
	case KindList:
		rv := reflect.ValueOf(value)
		if err := p.WriteListBegin(ctx, wt.Elem.WireTag(), rv.Len()); err != nil {
			return transportErrorf(err)
		}
		for i := 0; i < rv.Len(); i++ {
			if err := writeValue(ctx, p, *wt.Elem, rv.Index(i).Interface()); err != nil {
				return err
			}
		}
		return transportErrorf(p.WriteListEnd(ctx))
	case KindSet:
		rv := reflect.ValueOf(value)
		if wt.Shape == ShapeMap {
			keys := rv.MapKeys()
			if err := p.WriteSetBegin(ctx, wt.Elem.WireTag(), len(keys)); err != nil {
				return transportErrorf(err)
			}
			for _, k := range keys {
				if err := writeValue(ctx, p, *wt.Elem, k.Interface()); err != nil {
					return err
				}
			}
			return transportErrorf(p.WriteSetEnd(ctx))
		}
		if err := p.WriteSetBegin(ctx, wt.Elem.WireTag(), rv.Len()); err != nil {
			return transportErrorf(err)
		}
		for i := 0; i < rv.Len(); i++ {
			if err := writeValue(ctx, p, *wt.Elem, rv.Index(i).Interface()); err != nil {
				return err
			}
		}
		return transportErrorf(p.WriteSetEnd(ctx))
	case KindMap:
		rv := reflect.ValueOf(value)
		keys := rv.MapKeys()
		if err := p.WriteMapBegin(ctx, wt.Key.WireTag(), wt.Elem.WireTag(), len(keys)); err != nil {
			return transportErrorf(err)
		}
		for _, k := range keys {
			if err := writeValue(ctx, p, *wt.Key, k.Interface()); err != nil {
				return err
			}
			if err := writeValue(ctx, p, *wt.Elem, rv.MapIndex(k).Interface()); err != nil {
				return err
			}
		}
		return transportErrorf(p.WriteMapEnd(ctx))
	default:
		return &SchemaError{Kind: SchemaUnsupportedType, Detail: "cannot write unknown wire kind"}
	}
}

var emptyStructType = reflect.TypeOf(struct{}{})

// goTypeFor returns a concrete Go type suitable for reflect.MakeSlice/
// MakeMap element storage for a scalar, struct or (recursively) container
// ThriftType. Containers read through readValue always produce values of
// this type so later Convert calls are no-ops in the common case.
func goTypeFor(wt ThriftType) reflect.Type {
	switch wt.Kind {
	case KindBool:
		return reflect.TypeOf(false)
	case KindByte:
		return reflect.TypeOf(int8(0))
	case KindInt16:
		return reflect.TypeOf(int16(0))
	case KindInt32:
		return reflect.TypeOf(int32(0))
	case KindInt64:
		return reflect.TypeOf(int64(0))
	case KindDouble:
		return reflect.TypeOf(float64(0))
	case KindString:
		return reflect.TypeOf("")
	case KindStruct:
		return wt.Struct.BackingType
	case KindList:
		return reflect.SliceOf(goTypeFor(*wt.Elem))
	case KindSet:
		if wt.Shape == ShapeMap {
			return reflect.MapOf(goTypeFor(*wt.Elem), emptyStructType)
		}
		return reflect.SliceOf(goTypeFor(*wt.Elem))
	case KindMap:
		return reflect.MapOf(goTypeFor(*wt.Key), goTypeFor(*wt.Elem))
	default:
		return reflect.TypeOf((*interface{})(nil)).Elem()
	}
}

func maxPrealloc(n int) int {
	const cap = 1 << 16
	if n < 0 || n > cap {
		return 0
	}
	return n
}

func toInt8(v interface{}) int8 {
	switch n := v.(type) {
	case int8:
		return n
	case int:
		return int8(n)
	default:
		return int8(reflect.ValueOf(v).Int())
	}
}

func toInt16(v interface{}) int16 {
	switch n := v.(type) {
	case int16:
		return n
	case int:
		return int16(n)
	default:
		return int16(reflect.ValueOf(v).Int())
	}
}

func toInt32(v interface{}) int32 {
	switch n := v.(type) {
	case int32:
		return n
	case int:
		return int32(n)
	default:
		return int32(reflect.ValueOf(v).Int())
	}
}

func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	default:
		return reflect.ValueOf(v).Int()
	}
}

func toFloat64(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	default:
		return reflect.ValueOf(v).Float()
	}
}
