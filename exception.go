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
	"fmt"

	"github.com/apache/thrift/lib/go/thrift"
)

// ApplicationExceptionType mirrors the restricted subset of
// thrift.TApplicationException type codes this engine surfaces to callers.
// It is a narrower enum than upstream's: codes this client never produces
// or needs to distinguish (e.g. UNSUPPORTED_CLIENT_TYPE) still round-trip
// through TypeID but are not named here.
type ApplicationExceptionType int32

const (
	ApplicationExceptionUnknown ApplicationExceptionType = iota
	ApplicationExceptionUnknownMethod
	ApplicationExceptionInvalidMessageType
	ApplicationExceptionWrongMethodName
	ApplicationExceptionBadSequenceID
	ApplicationExceptionMissingResult
	ApplicationExceptionInternalError
	ApplicationExceptionProtocolError
)

// ApplicationException is the Go name for the spec's ThriftProtocolException:
// the struct an Exception-type reply envelope carries. It predates the
// general struct codec engine on purpose — decoding an Exception-type reply
// is how this package first learns a method call failed, so its codec is
// hand-written here rather than derived through StructFromType/ClassifyType,
// which assume a fully built descriptor graph.
type ApplicationException struct {
	Message string
	TypeID  ApplicationExceptionType
}

func (e *ApplicationException) Error() string {
	return fmt.Sprintf("application exception: %s (type %d)", e.Message, e.TypeID)
}

// readApplicationException decodes a TApplicationException-shaped struct:
// field 1 optional string message, field 2 optional i32 type. Unknown
// fields are skipped for forward compatibility, matching the general
// struct reader's behavior without depending on it.
func readApplicationException(ctx context.Context, p thrift.TProtocol) (*ApplicationException, error) {
	if _, err := p.ReadStructBegin(ctx); err != nil {
		return nil, transportErrorf(err)
	}

	exc := &ApplicationException{}
	for {
		_, wireTag, id, err := p.ReadFieldBegin(ctx)
		if err != nil {
			return nil, transportErrorf(err)
		}
		if wireTag == thrift.STOP {
			break
		}
		switch {
		case id == 1 && wireTag == thrift.STRING:
			v, err := p.ReadString(ctx)
			if err != nil {
				return nil, transportErrorf(err)
			}
			exc.Message = v
		case id == 2 && wireTag == thrift.I32:
			v, err := p.ReadI32(ctx)
			if err != nil {
				return nil, transportErrorf(err)
			}
			exc.TypeID = ApplicationExceptionType(v)
		default:
			if err := p.Skip(ctx, wireTag); err != nil {
				return nil, transportErrorf(err)
			}
		}
		if err := p.ReadFieldEnd(ctx); err != nil {
			return nil, transportErrorf(err)
		}
	}

	return exc, transportErrorf(p.ReadStructEnd(ctx))
}

// writeApplicationException encodes exc in the same shape readApplicationException
// expects. Used only by test fakes and any server-side companion in this
// module; the client path only ever reads exceptions.
func writeApplicationException(ctx context.Context, p thrift.TProtocol, exc *ApplicationException) error {
	if err := p.WriteStructBegin(ctx, "TApplicationException"); err != nil {
		return transportErrorf(err)
	}
	if exc.Message != "" {
		if err := p.WriteFieldBegin(ctx, "message", thrift.STRING, 1); err != nil {
			return transportErrorf(err)
		}
		if err := p.WriteString(ctx, exc.Message); err != nil {
			return transportErrorf(err)
		}
		if err := p.WriteFieldEnd(ctx); err != nil {
			return transportErrorf(err)
		}
	}
	if err := p.WriteFieldBegin(ctx, "type", thrift.I32, 2); err != nil {
		return transportErrorf(err)
	}
	if err := p.WriteI32(ctx, int32(exc.TypeID)); err != nil {
		return transportErrorf(err)
	}
	if err := p.WriteFieldEnd(ctx); err != nil {
		return transportErrorf(err)
	}
	if err := p.WriteFieldStop(ctx); err != nil {
		return transportErrorf(err)
	}
	return transportErrorf(p.WriteStructEnd(ctx))
}
