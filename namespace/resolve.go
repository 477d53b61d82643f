// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package namespace

import (
	"github.com/gomlx/arrayapi/backends"
	"github.com/pkg/errors"
)

// ArrayNamespace returns the Namespace of the arrays in args.
//
// Arguments without a shape (nil, Go scalars and slices) are ignored. If there are no arrays left it returns
// the Default namespace. Arrays of libraries not registered get an Unknown passthrough namespace.
// Arrays of different libraries are an error wrapping backends.ErrAmbiguousNamespace.
func ArrayNamespace(args ...any) (*Namespace, error) {
	var found *Namespace
	for _, arg := range args {
		if arg == nil || backends.IsPlainValue(arg) {
			continue
		}
		backend, err := backends.FromArray(arg, false)
		if err != nil {
			return nil, err
		}
		ns := For(backend)
		if found == nil {
			found = ns
			continue
		}
		if !found.Equal(ns) {
			return nil, errors.Wrapf(backends.ErrAmbiguousNamespace, "arrays from libraries %q and %q", found.Name(), ns.Name())
		}
	}
	if found == nil {
		return Default(), nil
	}
	return found, nil
}
