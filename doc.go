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

// Package thrift implements a reflective, cached Thrift codec engine for the
// client side of an RPC call.
//
// Given descriptors built through the fluent builders (NewStructBuilder,
// NewMethodBuilder, NewServiceBuilder), with struct descriptors optionally
// obtained by reflecting over tagged Go structs (StructFromType), this
// package compiles and caches bidirectional wire-format readers and
// writers, and wraps them with the client-server message envelope:
//
//	reply, err := thrift.Call(ctx, protocol, method, args)
//
// The package does not implement a concrete Thrift protocol encoding or
// transport. It consumes github.com/apache/thrift/lib/go/thrift.TProtocol as
// its protocol contract, and expects the caller to own a protocol instance
// per in-flight request (protocols are not safe for concurrent calls).
package thrift
