// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package backends

import (
	"fmt"
	"sync"

	"github.com/gomlx/arrayapi/pkg/core/shapes"
	"github.com/gomlx/arrayapi/pkg/core/tensors"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
)

// Placed is implemented by arrays that report the device holding them.
type Placed interface {
	Device() Device
}

// Movable is implemented by arrays that can move themselves to another device.
type Movable interface {
	ToDevice(device Device) (any, error)
}

// Unknown is the passthrough backend of an array library arrayapi doesn't know about, named after
// the Go package defining the array type.
//
// It only relies on the protocols the arrays implement themselves: shapes.Shaped, Exportable,
// Placed and Movable.
type Unknown struct {
	name string
}

var unknownBackends sync.Map

// NewUnknown returns the Unknown backend for the given package path.
// The same instance is returned for the same name.
func NewUnknown(name string) *Unknown {
	backend, _ := unknownBackends.LoadOrStore(name, &Unknown{name: name})
	return backend.(*Unknown)
}

// Compile time check that Unknown implements Backend.
var _ Backend = (*Unknown)(nil)

// Name returns the package path the backend was created for.
func (b *Unknown) Name() string { return b.name }

// Library returns LibraryUnknown.
func (b *Unknown) Library() Library { return LibraryUnknown }

// Description implements Backend.
func (b *Unknown) Description() string {
	return fmt.Sprintf("unknown array library %q (passthrough)", b.name)
}

// ModulePath returns the package path.
func (b *Unknown) ModulePath() string { return b.name }

// Devices returns nil: the devices of an unknown library can't be listed.
func (b *Unknown) Devices() []Device { return nil }

// DTypes returns the dtypes with a Go representation.
func (b *Unknown) DTypes() map[string]dtypes.DType { return DTypesTable(HostDTypes...) }

// Sample is not supported for unknown libraries.
func (b *Unknown) Sample() (any, error) {
	return nil, errors.Wrapf(ErrUnrecognizedBackend, "cannot create arrays of %q", b.name)
}

// Owns reports whether x's type is defined in the package of the backend.
func (b *Unknown) Owns(x any) bool {
	return x != nil && PackagePath(x) == b.name
}

// Shape returns the shape of arrays implementing shapes.Shaped or Exportable.
func (b *Unknown) Shape(x any) (shapes.Shape, error) {
	if shaped, ok := x.(shapes.Shaped); ok {
		return shaped.Shape(), nil
	}
	if exportable, ok := x.(Exportable); ok {
		ex, err := exportable.ExportBuffer()
		if err != nil {
			return shapes.Invalid(), err
		}
		return ex.Shape, nil
	}
	return shapes.Invalid(), errors.Wrapf(ErrUnrecognizedBackend, "%T has no shape", x)
}

// Device returns the device of arrays implementing Placed, and CPU otherwise.
func (b *Unknown) Device(x any) (Device, error) {
	if placed, ok := x.(Placed); ok {
		return placed.Device(), nil
	}
	return CPU, nil
}

// ToHost converts arrays implementing Exportable.
func (b *Unknown) ToHost(x any) (*tensors.Tensor, error) {
	exportable, ok := x.(Exportable)
	if !ok {
		return nil, errors.Wrapf(ErrConversion, "%T (library %q) doesn't export its buffer", x, b.name)
	}
	ex, err := exportable.ExportBuffer()
	if err != nil {
		return nil, err
	}
	if err := ex.Validate(); err != nil {
		return nil, err
	}
	return tensors.FromFlatData(ex.Flat, ex.Shape.Dimensions...)
}

// FromHost is not supported: arrayapi can't create arrays of an unknown library.
func (b *Unknown) FromHost(t *tensors.Tensor, device Device) (any, error) {
	return nil, errors.Wrapf(ErrConversion, "cannot create arrays of unknown library %q", b.name)
}

// FromValue accepts only arrays of the library itself.
func (b *Unknown) FromValue(v any, device Device) (any, error) {
	if !b.Owns(v) {
		return nil, errors.Wrapf(ErrConversion, "cannot create arrays of unknown library %q from %T", b.name, v)
	}
	return b.ToDevice(v, device)
}

// ToDevice moves arrays implementing Movable. Other arrays are returned as is if already on the device.
func (b *Unknown) ToDevice(x any, device Device) (any, error) {
	if movable, ok := x.(Movable); ok {
		return movable.ToDevice(device)
	}
	current, err := b.Device(x)
	if err != nil {
		return nil, err
	}
	if device.IsZero() || device == current {
		return x, nil
	}
	return nil, errors.Wrapf(ErrInvalidDevice, "%T can't be moved from %q to %q", x, current, device)
}
