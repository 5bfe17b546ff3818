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

import "go.uber.org/multierr"

// ServiceBuilder incrementally assembles a ServiceDescriptor, rejecting
// duplicate method names the way the teacher's registry rejects duplicate
// procedure registrations.
type ServiceBuilder struct {
	name    string
	methods map[string]*MethodDescriptor
	errs    error
}

// NewServiceBuilder starts building a ServiceDescriptor named name.
func NewServiceBuilder(name string) *ServiceBuilder {
	return &ServiceBuilder{name: name, methods: make(map[string]*MethodDescriptor)}
}

// Method registers md under its own name, failing the eventual Build if the
// name was already registered.
func (b *ServiceBuilder) Method(md *MethodDescriptor) *ServiceBuilder {
	if _, exists := b.methods[md.Name]; exists {
		b.errs = multierr.Append(b.errs, &SchemaError{
			Kind:   SchemaConflictingIDs,
			Detail: "duplicate method name " + md.Name + " in service " + b.name,
		})
		return b
	}
	b.methods[md.Name] = md
	return b
}

// Build finalizes the ServiceDescriptor.
func (b *ServiceBuilder) Build() (*ServiceDescriptor, error) {
	if b.errs != nil {
		return nil, b.errs
	}
	return &ServiceDescriptor{Name: b.name, Methods: b.methods}, nil
}

// Register is a convenience wrapper building a ServiceDescriptor from a
// name and a flat list of already-built methods in one call.
func Register(name string, methods ...*MethodDescriptor) (*ServiceDescriptor, error) {
	b := NewServiceBuilder(name)
	for _, md := range methods {
		b.Method(md)
	}
	return b.Build()
}
