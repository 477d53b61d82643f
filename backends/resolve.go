// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package backends

import (
	"reflect"
	"strings"

	"github.com/gomlx/arrayapi/pkg/core/shapes"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
)

// Module is the Go import path of an array library package, e.g. "gonum.org/v1/gonum/mat".
// It's a distinct type so Resolve can tell it apart from a backend name.
type Module string

// Resolve returns the backend of data, which can be:
//
//   - a Backend: returned as is.
//   - a string: the name (or alias) of a registered backend. Unknown names are always an error (ErrInvalidName).
//   - a Module: see FromModule.
//   - an array: its exact type is looked up among the types registered with RegisterArrayType. Go scalars
//     and slices without shape belong to the host library. Arrays of other libraries resolve to an
//     Unknown backend if strict is false, or an error wrapping ErrUnrecognizedBackend otherwise.
func Resolve(data any, strict bool) (Backend, error) {
	switch v := data.(type) {
	case nil:
		return nil, errors.Wrap(ErrUnrecognizedBackend, "cannot resolve the backend of nil")
	case Backend:
		return v, nil
	case string:
		return FromName(v)
	case Module:
		return FromModule(v, strict)
	}
	return FromArray(data, strict)
}

// FromName returns the backend registered under name or one of its aliases.
func FromName(name string) (Backend, error) {
	return Get(name)
}

// FromModule returns the backend of the library implemented by the Go package modulePath.
//
// The last component of the path (split on "/" and ".") is looked up as a backend name or alias, and
// then the full path among the paths registered with RegisterModulePath. Unmapped modules are an error
// wrapping ErrUnrecognizedBackend if strict, or an Unknown backend named after the module otherwise.
func FromModule(modulePath Module, strict bool) (Backend, error) {
	path := string(modulePath)
	parts := strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '.' })
	if len(parts) > 0 {
		if _, found := CanonicalName(parts[len(parts)-1]); found {
			return Get(parts[len(parts)-1])
		}
	}
	registryMu.RLock()
	name, found := registeredModules[path]
	registryMu.RUnlock()
	if found {
		return Get(name)
	}
	if strict || path == "" {
		return nil, errors.Wrapf(ErrUnrecognizedBackend, "module %q", path)
	}
	return NewUnknown(path), nil
}

// FromArray returns the backend owning the array x, see Resolve.
func FromArray(x any, strict bool) (Backend, error) {
	if x == nil {
		return nil, errors.Wrap(ErrUnrecognizedBackend, "cannot resolve the backend of nil")
	}
	registryMu.RLock()
	name, found := registeredArrayTypes[reflect.TypeOf(x)]
	registryMu.RUnlock()
	if found {
		return Get(name)
	}
	if IsPlainValue(x) {
		return Get(HostName)
	}
	if strict {
		return nil, errors.Wrapf(ErrUnrecognizedBackend, "array of type %T", x)
	}
	return NewUnknown(PackagePath(x)), nil
}

// IsPlainValue reports whether x is a Go scalar or a (multidimensional) Go slice or array of a supported
// dtype. Plain values have no shape attribute of their own and belong to the host library.
func IsPlainValue(x any) bool {
	if x == nil {
		return false
	}
	if _, ok := x.(shapes.Shaped); ok {
		return false
	}
	t := reflect.TypeOf(x)
	for t.Kind() == reflect.Slice || t.Kind() == reflect.Array {
		t = t.Elem()
	}
	return dtypes.FromGoType(t) != dtypes.InvalidDType
}

// PackagePath returns the import path of the package defining the type of x (dereferencing pointers),
// or the type name for unnamed types.
func PackagePath(x any) string {
	t := reflect.TypeOf(x)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if path := t.PkgPath(); path != "" {
		return path
	}
	return t.String()
}
