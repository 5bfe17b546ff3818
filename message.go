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

// callSeqID is the sequence id written into every outbound message
// envelope. Replies are not correlated with calls by sequence id at all
// (see SPEC_FULL.md §9): ReadReply ignores the id it decodes, this engine is
// a single in-flight-call-at-a-time codec layer, and the transport above it
// is responsible for matching replies to calls if it multiplexes.
const callSeqID int32 = 0

// methodCodec is the compiled envelope codec for one MethodDescriptor: a
// synthetic args-struct codec for the call, and (for two-way methods) a
// synthetic result-struct codec for the reply, sharing the exact
// compileFields machinery structcodec.go builds for ordinary structs.
type methodCodec struct {
	method *MethodDescriptor

	argFields []WireField
	argType   reflect.Type
	writeArgs func(ctx context.Context, p thrift.TProtocol, v reflect.Value) error

	// Only populated for two-way methods.
	resultFields   []WireField
	resultType     reflect.Type
	readResult     func(ctx context.Context, p thrift.TProtocol) (reflect.Value, []bool, error)
	returnPosition int            // index into resultFields/result carrier for the success slot, or -1
	throwsByPos    map[int]*ThrowsClauseDescriptor // position -> originating clause, for Reply dispatch
}

// compileMethod builds the synthetic args/result carrier types for md and
// compiles their field codecs, mirroring compileStruct but against
// positionally-named synthetic fields instead of a real backing struct.
func compileMethod(md *MethodDescriptor) (*methodCodec, error) {
	argFields := make([]WireField, len(md.Parameters))
	for i, pd := range md.Parameters {
		argFields[i] = ForParameter(pd, i)
	}
	argType := syntheticCarrierType(len(argFields))
	_, writeArgs := compileFields(argFields, argType, md.Name+"_args")

	mc := &methodCodec{
		method:         md,
		argFields:      argFields,
		argType:        argType,
		writeArgs:      writeArgs,
		returnPosition: -1,
	}

	if md.IsOneWay {
		return mc, nil
	}

	n := len(md.Throws)
	if md.Return != nil {
		n++
	}
	resultFields := make([]WireField, 0, n)
	throwsByPos := make(map[int]*ThrowsClauseDescriptor, len(md.Throws))

	pos := 0
	if md.Return != nil {
		resultFields = append(resultFields, ForReturnValue(md.Return, pos))
		mc.returnPosition = pos
		pos++
	}
	for _, td := range md.Throws {
		resultFields = append(resultFields, ForThrowsClause(td, pos))
		throwsByPos[pos] = td
		pos++
	}

	resultType := syntheticCarrierType(len(resultFields))
	readResult, _ := compileFields(resultFields, resultType, md.Name+"_result")

	mc.resultFields = resultFields
	mc.resultType = resultType
	mc.readResult = readResult
	mc.throwsByPos = throwsByPos

	return mc, nil
}

// argsCarrier packs a positional argument list into the synthetic
// args-struct carrier compileMethod built, in call order.
func (mc *methodCodec) argsCarrier(args []interface{}) reflect.Value {
	carrier := reflect.New(mc.argType).Elem()
	for i, f := range mc.argFields {
		if i < len(args) {
			f.set(carrier, args[i])
		}
	}
	return carrier
}

// WriteCall writes a full Call (or OneWay) message envelope: message begin,
// the synthesized args struct, message end, and a flush. The caller selects
// which; IsOneWay on the method descriptor decides the wire message type.
func WriteCall(ctx context.Context, p thrift.TProtocol, method *MethodDescriptor, args []interface{}) error {
	mc, err := globalCache.loadOrCompileMethod(method)
	if err != nil {
		return err
	}

	msgType := thrift.CALL
	if method.IsOneWay {
		msgType = thrift.ONEWAY
	}

	if err := p.WriteMessageBegin(ctx, method.Name, msgType, callSeqID); err != nil {
		return transportErrorf(err)
	}
	if err := mc.writeArgs(ctx, p, mc.argsCarrier(args)); err != nil {
		return err
	}
	if err := p.WriteMessageEnd(ctx); err != nil {
		return transportErrorf(err)
	}
	return transportErrorf(p.Flush(ctx))
}

// ReadReply reads and dispatches a Reply envelope for a two-way method: a
// Reply-type message decodes the synthesized result struct and returns the
// success value, the originating UserException, or ProtocolMissingResult;
// an Exception-type message decodes an ApplicationException and returns it
// as an error; any other message type is ProtocolInvalidMessageType.
func ReadReply(ctx context.Context, p thrift.TProtocol, method *MethodDescriptor) (interface{}, error) {
	mc, err := globalCache.loadOrCompileMethod(method)
	if err != nil {
		return nil, err
	}
	if method.IsOneWay {
		return nil, &SchemaError{Kind: SchemaInvalidAnnotation, Detail: "ReadReply called for one-way method " + method.Name}
	}

	_, msgType, _, err := p.ReadMessageBegin(ctx)
	if err != nil {
		return nil, transportErrorf(err)
	}

	switch msgType {
	case thrift.EXCEPTION:
		exc, err := readApplicationException(ctx, p)
		if err != nil {
			return nil, err
		}
		if err := p.ReadMessageEnd(ctx); err != nil {
			return nil, transportErrorf(err)
		}
		return nil, exc

	case thrift.REPLY:
		carrier, seen, err := mc.readResult(ctx, p)
		if err != nil {
			return nil, err
		}
		if err := p.ReadMessageEnd(ctx); err != nil {
			return nil, transportErrorf(err)
		}
		return mc.dispatchResult(carrier, seen)

	default:
		return nil, &ProtocolError{Kind: ProtocolInvalidMessageType}
	}
}

// dispatchResult applies the Reply presence rules: a throws-clause field
// present on the wire outranks the success field (a call cannot both
// succeed and raise), a present success field is the return value, and
// neither present is ProtocolMissingResult for a non-void method.
func (mc *methodCodec) dispatchResult(carrier reflect.Value, seen []bool) (interface{}, error) {
	for pos, td := range mc.throwsByPos {
		if seen[pos] {
			f := mc.resultFields[pos]
			value, _ := f.get(carrier)
			return nil, &UserException{ClauseName: td.Name, Value: value}
		}
	}

	if mc.returnPosition < 0 {
		return nil, nil // void method, no throws raised
	}
	if !seen[mc.returnPosition] {
		return nil, &ProtocolError{Kind: ProtocolMissingResult}
	}

	// The success value was already converter-adjusted by compileFields'
	// reader (readValue + Converter.ToUser happen before f.set), so the
	// carrier already holds the user-shape value.
	value, _ := mc.resultFields[mc.returnPosition].get(carrier)
	return value, nil
}

// Call drives one full request/response cycle for method against proto: a
// call message with args, followed (for two-way methods) by reading and
// dispatching the reply. One-way methods return immediately after the call
// is flushed, with a nil result and nil error, matching the wire's own
// "do not expect a reply" contract.
//
// proto is not safe for concurrent use by multiple goroutines; callers that
// need concurrent calls must serialize access to proto themselves (see
// doc.go).
func Call(ctx context.Context, proto thrift.TProtocol, method *MethodDescriptor, args []interface{}) (interface{}, error) {
	if err := WriteCall(ctx, proto, method, args); err != nil {
		return nil, err
	}
	if method.IsOneWay {
		return nil, nil
	}
	return ReadReply(ctx, proto, method)
}
