// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package namespace offers a uniform set of array operations over every array library registered in
// package backends.
//
// A Namespace wraps one backend. Operations the library implements natively (see the capability
// interfaces in package backends) are delegated to it, the others are computed on the host
// representation of the arrays and the results moved back to the library and device of the input:
//
//	ns, err := namespace.ArrayNamespace(x, y)
//	if err != nil { ... }
//	closeness, err := ns.IsClose(x, y, namespace.WithRTol(1e-3))
package namespace

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/gomlx/arrayapi/backends"
	"github.com/gomlx/arrayapi/pkg/core/shapes"
	"github.com/gomlx/arrayapi/pkg/core/tensors"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
)

// Namespace is the uniform view of one array library.
type Namespace struct {
	backend backends.Backend
}

var (
	namespacesMu sync.Mutex
	namespaces   = make(map[string]*Namespace)
)

// For returns the Namespace of the backend. The same instance is returned for the same backend.
//
// Namespaces are cached by backend name: a backend constructed again (e.g. after backends.Finalize)
// replaces the cached one. Backends of non-comparable types get a new Namespace on every call.
func For(backend backends.Backend) *Namespace {
	namespacesMu.Lock()
	defer namespacesMu.Unlock()
	name := backend.Name()
	if ns, found := namespaces[name]; found && sameBackend(ns.backend, backend) {
		return ns
	}
	ns := &Namespace{backend: backend}
	namespaces[name] = ns
	return ns
}

// sameBackend compares a and b without panicking on non-comparable types.
func sameBackend(a, b backends.Backend) bool {
	typeA := reflect.TypeOf(a)
	if typeA != reflect.TypeOf(b) || !typeA.Comparable() {
		return false
	}
	return a == b
}

// Get returns the Namespace of the backend registered under name (or one of its aliases).
func Get(name string) (*Namespace, error) {
	backend, err := backends.Get(name)
	if err != nil {
		return nil, err
	}
	return For(backend), nil
}

// Default returns the Namespace of the host backend.
func Default() *Namespace {
	return For(backends.Default())
}

// Name of the backend.
func (ns *Namespace) Name() string { return ns.backend.Name() }

// Library tag of the backend.
func (ns *Namespace) Library() backends.Library { return ns.backend.Library() }

// Backend wrapped by the namespace.
func (ns *Namespace) Backend() backends.Backend { return ns.backend }

// String implements fmt.Stringer.
func (ns *Namespace) String() string {
	return fmt.Sprintf("namespace(%s)", ns.backend.Name())
}

// Equal returns whether both namespaces are for the same library, even if they are distinct objects.
// Unknown libraries are compared by name.
func (ns *Namespace) Equal(other *Namespace) bool {
	if ns == nil || other == nil {
		return ns == other
	}
	if ns.Library() != other.Library() {
		return false
	}
	return ns.Library() != backends.LibraryUnknown || ns.Name() == other.Name()
}

// Devices of the library.
func (ns *Namespace) Devices() []backends.Device { return ns.backend.Devices() }

// Shape of the array x.
func (ns *Namespace) Shape(x any) (shapes.Shape, error) { return ns.backend.Shape(x) }

// Size returns the number of elements of x.
func (ns *Namespace) Size(x any) (int, error) {
	shape, err := ns.backend.Shape(x)
	if err != nil {
		return 0, err
	}
	return shape.Size(), nil
}

// DType of the array x.
func (ns *Namespace) DType(x any) (dtypes.DType, error) {
	shape, err := ns.backend.Shape(x)
	if err != nil {
		return dtypes.InvalidDType, err
	}
	return shape.DType, nil
}

// Device holding the array x.
func (ns *Namespace) Device(x any) (backends.Device, error) { return ns.backend.Device(x) }

// ToDevice moves x to the device, given as a string like "cpu" or "cuda:1".
func (ns *Namespace) ToDevice(x any, device string) (any, error) {
	d, err := backends.ParseDevice(device)
	if err != nil {
		return nil, err
	}
	return ns.backend.ToDevice(x, d)
}

// ArrayOption configures AsArray, Zeros and Ones.
type ArrayOption func(*arrayOptions)

type arrayOptions struct {
	device string
	dtype  dtypes.DType
}

// OnDevice places the new array on the device, given as a string like "cpu" or "cuda:1".
func OnDevice(device string) ArrayOption {
	return func(opts *arrayOptions) { opts.device = device }
}

// WithDType converts the values of the new array to dtype.
func WithDType(dtype dtypes.DType) ArrayOption {
	return func(opts *arrayOptions) { opts.dtype = dtype }
}

func parseArrayOptions(options []ArrayOption) (opts arrayOptions, device backends.Device, err error) {
	for _, option := range options {
		option(&opts)
	}
	if opts.device != "" {
		device, err = backends.ParseDevice(opts.device)
	}
	return
}

// AsArray converts value to an array of the library.
//
// The value can be an array of any library, a host tensor or a plain Go value (scalar or multidimensional
// slice). Arrays the library can't build from directly are converted through their host representation.
func (ns *Namespace) AsArray(value any, options ...ArrayOption) (any, error) {
	opts, device, err := parseArrayOptions(options)
	if err != nil {
		return nil, err
	}
	if opts.dtype == dtypes.InvalidDType {
		array, err := ns.backend.FromValue(value, device)
		if err == nil || !errors.Is(err, backends.ErrConversion) {
			return array, err
		}
	}
	t, err := HostTensor(value)
	if err != nil {
		return nil, errors.WithMessagef(err, "%s.AsArray(%T)", ns.Name(), value)
	}
	if opts.dtype != dtypes.InvalidDType && opts.dtype != t.DType() {
		if t, err = t.ConvertDType(opts.dtype); err != nil {
			return nil, err
		}
	}
	return ns.backend.FromHost(t, device)
}

// Zeros returns an array of the library filled with zeros.
func (ns *Namespace) Zeros(dtype dtypes.DType, dimensions []int, options ...ArrayOption) (any, error) {
	_, device, err := parseArrayOptions(options)
	if err != nil {
		return nil, err
	}
	return ns.backend.FromHost(tensors.Zeros(dtype, dimensions...), device)
}

// Ones returns an array of the library filled with ones.
func (ns *Namespace) Ones(dtype dtypes.DType, dimensions []int, options ...ArrayOption) (any, error) {
	_, device, err := parseArrayOptions(options)
	if err != nil {
		return nil, err
	}
	t, err := tensors.Ones(dtype, dimensions...)
	if err != nil {
		return nil, err
	}
	return ns.backend.FromHost(t, device)
}

// HostTensor returns the host representation of an array of any library (a copy, or the tensor itself for
// host arrays), or of a plain Go value.
func HostTensor(x any) (*tensors.Tensor, error) {
	if t, ok := x.(*tensors.Tensor); ok {
		return t, nil
	}
	if backends.IsPlainValue(x) {
		return tensors.FromAnyValue(x)
	}
	backend, err := backends.FromArray(x, false)
	if err != nil {
		return nil, err
	}
	return backend.ToHost(x)
}
