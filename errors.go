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

import "fmt"

// SchemaErrorKind enumerates the ways a descriptor or type can fail to
// validate at build/first-compile time.
type SchemaErrorKind int

const (
	// SchemaUnsupportedType is raised by the wire-type classifier when a
	// Go type has no recognized Thrift wire shape.
	SchemaUnsupportedType SchemaErrorKind = iota
	// SchemaConflictingIDs is raised when two fields of the same struct
	// share a field id.
	SchemaConflictingIDs
	// SchemaInvalidAnnotation is raised for malformed struct tags or
	// builder calls that reference fields that do not exist.
	SchemaInvalidAnnotation
)

func (k SchemaErrorKind) String() string {
	switch k {
	case SchemaUnsupportedType:
		return "UnsupportedType"
	case SchemaConflictingIDs:
		return "ConflictingIDs"
	case SchemaInvalidAnnotation:
		return "InvalidAnnotation"
	default:
		return "Unknown"
	}
}

// SchemaError is raised at descriptor build or first codec compilation. It
// is fatal and is never retried: it indicates a programming error in the
// service definition, not a transient wire condition.
type SchemaError struct {
	Kind   SchemaErrorKind
	Detail string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error (%s): %s", e.Kind, e.Detail)
}

// ProtocolErrorKind enumerates the ways a read or write against the wire can
// fail without the process itself being at fault.
type ProtocolErrorKind int

const (
	// ProtocolInvalidData covers malformed token sequences and values
	// that do not match their declared wire type.
	ProtocolInvalidData ProtocolErrorKind = iota
	// ProtocolInvalidMessageType is raised when a reply envelope's type is
	// neither Reply nor Exception (a Call or OneWay type included).
	ProtocolInvalidMessageType
	// ProtocolRequiredFieldMissing is raised when a required field is
	// absent from the wire on read, or absent from the backing value on
	// write.
	ProtocolRequiredFieldMissing
	// ProtocolMissingResult is raised when a non-void, non-exceptional
	// reply carries no value in field 0.
	ProtocolMissingResult
	// ProtocolSizeLimitExceeded is raised when a collection or string
	// declares a size beyond what the protocol is willing to allocate.
	ProtocolSizeLimitExceeded
	// ProtocolUnknown covers any other wire-level failure.
	ProtocolUnknown
)

func (k ProtocolErrorKind) String() string {
	switch k {
	case ProtocolInvalidData:
		return "InvalidData"
	case ProtocolInvalidMessageType:
		return "InvalidMessageType"
	case ProtocolRequiredFieldMissing:
		return "RequiredFieldMissing"
	case ProtocolMissingResult:
		return "MissingResult"
	case ProtocolSizeLimitExceeded:
		return "SizeLimitExceeded"
	default:
		return "Unknown"
	}
}

// ProtocolError is raised during read/write against the wire. The
// connection is considered corrupt once one occurs; closing it is the
// transport layer's responsibility, not this package's.
type ProtocolError struct {
	Kind  ProtocolErrorKind
	Field *FieldDescriptor // non-nil for ProtocolRequiredFieldMissing
}

func (e *ProtocolError) Error() string {
	if e.Field != nil {
		return fmt.Sprintf("protocol error (%s): field %q (id %d)", e.Kind, e.Field.Name, e.Field.ID)
	}
	return fmt.Sprintf("protocol error (%s)", e.Kind)
}

// requiredFieldMissing builds the ProtocolRequiredFieldMissing variant.
func requiredFieldMissing(f *FieldDescriptor) error {
	return &ProtocolError{Kind: ProtocolRequiredFieldMissing, Field: f}
}

// UserException wraps a declared throws-clause value decoded from a Reply.
// Value holds the user-defined exception struct; callers that need the
// concrete type can errors.As into it directly, or unwrap once to recover
// Value as an error when the decoded struct itself implements error.
type UserException struct {
	ClauseName string
	Value      interface{}
}

func (e *UserException) Error() string {
	return fmt.Sprintf("thrift exception %s: %+v", e.ClauseName, e.Value)
}

// Unwrap exposes Value to errors.As/errors.Is when it implements error,
// letting callers recover their own declared exception type without a
// type switch on UserException itself.
func (e *UserException) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// TransportError wraps an I/O failure surfaced by the underlying
// thrift.TProtocol (most commonly a thrift.TTransportException). It is
// propagated to the caller unchanged in substance; this wrapper only adds
// a marker type so callers can distinguish transport failures from
// ProtocolError/UserException with errors.As.
type TransportError struct {
	Cause error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("thrift transport error: %s", e.Cause)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

func transportErrorf(cause error) error {
	if cause == nil {
		return nil
	}
	return &TransportError{Cause: cause}
}
