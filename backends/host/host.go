// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package host implements the reference array library of arrayapi: arrays are *tensors.Tensor living in
// host memory, and Go scalars and (multidimensional) slices are accepted wherever an array is expected.
//
// It implements natively every numeric operation that other libraries fall back to.
//
// Simply import it with import _ "github.com/gomlx/arrayapi/backends/host" to make it available in your program.
// It will register itself as an available backend during initialization.
package host

import (
	"github.com/gomlx/arrayapi/backends"
	"github.com/gomlx/arrayapi/pkg/core/shapes"
	"github.com/gomlx/arrayapi/pkg/core/tensors"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
)

// BackendName to be used in Get.
const BackendName = backends.HostName

// ModulePath of the package implementing host arrays.
const ModulePath = "github.com/gomlx/arrayapi/pkg/core/tensors"

// Registers New as the constructor for the "host" backend.
func init() {
	backends.Register(BackendName, New)
	backends.RegisterAlias("numpy", BackendName)
	backends.RegisterArrayType((*tensors.Tensor)(nil), BackendName)
	backends.RegisterModulePath(ModulePath, BackendName)
}

// Backend implements backends.Backend for host tensors.
type Backend struct{}

// New returns the host backend. It never fails.
func New() (backends.Backend, error) {
	return &Backend{}, nil
}

// Compile time checks of the implemented capabilities.
var (
	_ backends.Backend      = (*Backend)(nil)
	_ backends.Exporter     = (*Backend)(nil)
	_ backends.Importer     = (*Backend)(nil)
	_ backends.Polyvaler    = (*Backend)(nil)
	_ backends.Percentiler  = (*Backend)(nil)
	_ backends.Histogrammer = (*Backend)(nil)
	_ backends.IsCloser     = (*Backend)(nil)
	_ backends.Signer       = (*Backend)(nil)
)

// Name implements backends.Backend.
func (b *Backend) Name() string { return BackendName }

// Library implements backends.Backend.
func (b *Backend) Library() backends.Library { return backends.LibraryHost }

// Description implements backends.Backend.
func (b *Backend) Description() string {
	return "host: reference CPU arrays (*tensors.Tensor, Go slices and scalars)"
}

// ModulePath implements backends.Backend.
func (b *Backend) ModulePath() string { return ModulePath }

// Devices returns only the CPU.
func (b *Backend) Devices() []backends.Device { return []backends.Device{backends.CPU} }

// DTypes implements backends.Backend.
func (b *Backend) DTypes() map[string]dtypes.DType {
	return backends.DTypesTable(backends.HostDTypes...)
}

// Sample implements backends.Backend.
func (b *Backend) Sample() (any, error) {
	return tensors.FromFlatDataAndDimensions([]float64{1, 1}, 2), nil
}

// Owns reports whether x is a *tensors.Tensor or a plain Go value (scalar or slice).
func (b *Backend) Owns(x any) bool {
	if _, ok := x.(*tensors.Tensor); ok {
		return true
	}
	return backends.IsPlainValue(x)
}

// AsTensor returns x as a tensor: tensors are returned as is, plain Go values are copied.
func AsTensor(x any) (*tensors.Tensor, error) {
	if t, ok := x.(*tensors.Tensor); ok {
		if !t.Ok() {
			return nil, errors.New("invalid host tensor")
		}
		return t, nil
	}
	if !backends.IsPlainValue(x) {
		return nil, errors.Wrapf(backends.ErrConversion, "%T is not a host array", x)
	}
	return tensors.FromAnyValue(x)
}

// Shape implements backends.Backend.
func (b *Backend) Shape(x any) (shapes.Shape, error) {
	t, err := AsTensor(x)
	if err != nil {
		return shapes.Invalid(), err
	}
	return t.Shape(), nil
}

// Device returns CPU for any host array.
func (b *Backend) Device(x any) (backends.Device, error) {
	if !b.Owns(x) {
		return backends.Device{}, errors.Wrapf(backends.ErrConversion, "%T is not a host array", x)
	}
	return backends.CPU, nil
}

// ToHost returns the tensor itself, or a new tensor for plain Go values.
func (b *Backend) ToHost(x any) (*tensors.Tensor, error) {
	return AsTensor(x)
}

// FromHost returns the tensor itself: host arrays are tensors.
func (b *Backend) FromHost(t *tensors.Tensor, device backends.Device) (any, error) {
	if err := backends.CheckCPUDevice(b, device); err != nil {
		return nil, err
	}
	return t, nil
}

// FromValue converts tensors, plain Go values and arrays exporting their buffer.
func (b *Backend) FromValue(v any, device backends.Device) (any, error) {
	if err := backends.CheckCPUDevice(b, device); err != nil {
		return nil, err
	}
	if exportable, ok := v.(backends.Exportable); ok {
		ex, err := exportable.ExportBuffer()
		if err != nil {
			return nil, err
		}
		return b.Import(ex)
	}
	return AsTensor(v)
}

// ToDevice only accepts the CPU device, and returns x unchanged.
func (b *Backend) ToDevice(x any, device backends.Device) (any, error) {
	if err := backends.CheckCPUDevice(b, device); err != nil {
		return nil, err
	}
	return x, nil
}

// Export shares the flat data of the tensor, without copying.
func (b *Backend) Export(x any) (backends.Exchange, error) {
	t, err := AsTensor(x)
	if err != nil {
		return backends.Exchange{}, err
	}
	var ex backends.Exchange
	t.ConstFlatData(func(flat any) {
		ex = backends.Exchange{Shape: t.Shape(), Flat: flat, Device: backends.CPU}
	})
	return ex, nil
}

// Import creates a tensor sharing the exchanged flat data, without copying.
func (b *Backend) Import(ex backends.Exchange) (any, error) {
	if err := ex.Validate(); err != nil {
		return nil, err
	}
	if !ex.Device.IsZero() && !ex.Device.IsCPU() {
		return nil, errors.Wrapf(backends.ErrInvalidDevice, "cannot import buffer from device %q", ex.Device)
	}
	return tensors.FromFlatData(ex.Flat, ex.Shape.Dimensions...)
}
