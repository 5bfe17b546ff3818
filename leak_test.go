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
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// probePayload is the heap object whose collectability stands in for the
// no-reference-retention invariant: once a call's own stack frame is gone,
// nothing reachable from the codec cache (globalCache.structs, a compiled
// structCodec's closures) may still be holding it.
type probePayload struct{ Tag string }

type leakHolder struct {
	Ptr *probePayload
}

func buildLeakHolderDescriptor(t *testing.T) *StructDescriptor {
	t.Helper()

	payloadType := reflect.TypeOf(probePayload{})
	payloadDesc, err := NewStructBuilder("ProbePayload", payloadType).
		Field(1, "Tag", false, String()).
		Build()
	require.NoError(t, err)

	structs := map[reflect.Type]*StructDescriptor{payloadType: payloadDesc}

	holderType := reflect.TypeOf(leakHolder{})
	ptrType, err := ClassifyType(holderType.Field(0).Type, nil, structs)
	require.NoError(t, err)

	desc, err := NewStructBuilder("LeakHolder", holderType).
		Field(1, "Ptr", false, ptrType).
		Build()
	require.NoError(t, err)
	return desc
}

// TestNoReferenceRetentionAcrossCalls probes the no-reference-retention
// invariant (spec.md §8) the way Go code commonly probes for
// collectability: attach a finalizer to a value that only a single call's
// stack should reference, round-trip it through the compiled struct codec,
// drop every local reference, force a collection, and require the
// finalizer to run. If the codec cache or a compiled codec's closures kept
// a stray reference to the value (rather than only to the descriptor and
// field metadata), the finalizer would never fire and this test would time
// out.
func TestNoReferenceRetentionAcrossCalls(t *testing.T) {
	desc := buildLeakHolderDescriptor(t)
	codec, err := compileStruct(desc)
	require.NoError(t, err)

	done := make(chan struct{})
	proto := newMemoryProtocol()
	ctx := context.Background()

	func() {
		payload := &probePayload{Tag: "leak-probe"}
		runtime.SetFinalizer(payload, func(*probePayload) { close(done) })

		value := leakHolder{Ptr: payload}
		require.NoError(t, codec.write(ctx, proto, reflect.ValueOf(value)))

		got, err := codec.read(ctx, proto)
		require.NoError(t, err)
		roundTripped := got.Interface().(leakHolder)
		require.NotNil(t, roundTripped.Ptr)

		// value, payload, and roundTripped all go out of scope here;
		// the decoded copy is itself a freshly allocated struct, not
		// the original pointer, and only the descriptor and compiled
		// codec (neither of which holds per-call data) survive past
		// this closure.
	}()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		runtime.GC()
		select {
		case <-done:
			return
		case <-time.After(20 * time.Millisecond):
		}
	}

	t.Fatal("probe payload was not collected: something retained a reference across the call")
}
