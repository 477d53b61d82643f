// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package gonum implements the arrayapi backend for gonum.org/v1/gonum/mat: vectors (*mat.VecDense) are
// arrays of rank 1, and matrices (*mat.Dense) arrays of rank 2. Values are always float64, and live on
// the CPU.
//
// Simply import it with import _ "github.com/gomlx/arrayapi/backends/gonum" to make it available in your program.
// It will register itself as an available backend during initialization.
package gonum

import (
	"github.com/gomlx/arrayapi/backends"
	"github.com/gomlx/arrayapi/pkg/core/shapes"
	"github.com/gomlx/arrayapi/pkg/core/tensors"
	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// BackendName to be used in Get.
const BackendName = backends.GonumName

// ModulePath of the gonum matrix package.
const ModulePath = "gonum.org/v1/gonum/mat"

func init() {
	backends.Register(BackendName, New)
	backends.RegisterAlias("torch", BackendName)
	backends.RegisterAlias("pytorch", BackendName)
	backends.RegisterArrayType((*mat.Dense)(nil), BackendName)
	backends.RegisterArrayType((*mat.VecDense)(nil), BackendName)
	backends.RegisterModulePath(ModulePath, BackendName)
}

// Backend implements backends.Backend for gonum matrices and vectors.
type Backend struct{}

// New returns the gonum backend.
func New() (backends.Backend, error) {
	return &Backend{}, nil
}

var (
	_ backends.Backend  = (*Backend)(nil)
	_ backends.Exporter = (*Backend)(nil)
	_ backends.Importer = (*Backend)(nil)
)

// Name implements backends.Backend.
func (b *Backend) Name() string { return BackendName }

// Library implements backends.Backend.
func (b *Backend) Library() backends.Library { return backends.LibraryGonum }

// Description implements backends.Backend.
func (b *Backend) Description() string {
	return "gonum: float64 vectors (*mat.VecDense) and matrices (*mat.Dense)"
}

// ModulePath implements backends.Backend.
func (b *Backend) ModulePath() string { return ModulePath }

// Devices returns only the CPU.
func (b *Backend) Devices() []backends.Device { return []backends.Device{backends.CPU} }

// DTypes returns only Float64.
func (b *Backend) DTypes() map[string]dtypes.DType { return backends.DTypesTable(dtypes.Float64) }

// Sample implements backends.Backend.
func (b *Backend) Sample() (any, error) {
	return mat.NewVecDense(2, []float64{1, 1}), nil
}

// Owns implements backends.Backend.
func (b *Backend) Owns(x any) bool {
	switch x.(type) {
	case *mat.Dense, *mat.VecDense:
		return true
	}
	return false
}

// Shape implements backends.Backend.
func (b *Backend) Shape(x any) (shapes.Shape, error) {
	switch m := x.(type) {
	case *mat.VecDense:
		return shapes.Make(dtypes.Float64, m.Len()), nil
	case *mat.Dense:
		rows, cols := m.Dims()
		return shapes.Make(dtypes.Float64, rows, cols), nil
	}
	return shapes.Invalid(), notGonum(x)
}

// Device returns CPU for any gonum array.
func (b *Backend) Device(x any) (backends.Device, error) {
	if !b.Owns(x) {
		return backends.Device{}, notGonum(x)
	}
	return backends.CPU, nil
}

// ToHost copies the values of the vector or matrix into a new Float64 tensor.
func (b *Backend) ToHost(x any) (*tensors.Tensor, error) {
	shape, err := b.Shape(x)
	if err != nil {
		return nil, err
	}
	flat := make([]float64, 0, shape.Size())
	switch m := x.(type) {
	case *mat.VecDense:
		for ii := range m.Len() {
			flat = append(flat, m.AtVec(ii))
		}
	case *mat.Dense:
		raw := m.RawMatrix()
		for row := range raw.Rows {
			flat = append(flat, raw.Data[row*raw.Stride:row*raw.Stride+raw.Cols]...)
		}
	}
	return tensors.FromFlatData(flat, shape.Dimensions...)
}

// FromHost creates a vector (rank 1) or matrix (rank 2) with a copy of the tensor values converted to float64.
//
// Scalars (rank 0) are returned as Go float64 values, since gonum has no scalar arrays.
// Other ranks and empty arrays return an error wrapping backends.ErrUnsupportedShape.
func (b *Backend) FromHost(t *tensors.Tensor, device backends.Device) (any, error) {
	if err := backends.CheckCPUDevice(b, device); err != nil {
		return nil, err
	}
	values, err := t.Float64s()
	if err != nil {
		return nil, errors.Wrapf(backends.ErrUnsupportedDType, "%s: %v", BackendName, err)
	}
	return fromFlat(values, t.Shape().Dimensions)
}

// fromFlat creates the gonum array using values as its backing data.
func fromFlat(values []float64, dims []int) (result any, err error) {
	switch len(dims) {
	case 0:
		return values[0], nil
	case 1, 2:
		for _, dim := range dims {
			if dim == 0 {
				return nil, errors.Wrapf(backends.ErrUnsupportedShape, "%s can't represent empty arrays, got dimensions %v", BackendName, dims)
			}
		}
	default:
		return nil, errors.Wrapf(backends.ErrUnsupportedShape, "%s supports only arrays of rank 1 or 2, got dimensions %v", BackendName, dims)
	}
	err = tryGonum(func() {
		if len(dims) == 1 {
			result = mat.NewVecDense(dims[0], values)
		} else {
			result = mat.NewDense(dims[0], dims[1], values)
		}
	})
	return
}

// FromValue converts gonum arrays (returned as is), other mat.Matrix implementations (copied into a
// *mat.Dense), host tensors, plain Go values and arrays exporting their buffer.
func (b *Backend) FromValue(v any, device backends.Device) (any, error) {
	if err := backends.CheckCPUDevice(b, device); err != nil {
		return nil, err
	}
	switch x := v.(type) {
	case *mat.Dense, *mat.VecDense:
		return x, nil
	case mat.Matrix:
		var dense *mat.Dense
		if err := tryGonum(func() { dense = mat.DenseCopyOf(x) }); err != nil {
			return nil, err
		}
		return dense, nil
	case *tensors.Tensor:
		return b.FromHost(x, device)
	case backends.Exportable:
		ex, err := x.ExportBuffer()
		if err != nil {
			return nil, err
		}
		return b.Import(ex)
	}
	if backends.IsPlainValue(v) {
		t, err := tensors.FromAnyValue(v)
		if err != nil {
			return nil, err
		}
		return b.FromHost(t, device)
	}
	return nil, errors.Wrapf(backends.ErrConversion, "%s can't convert %T", BackendName, v)
}

// ToDevice only accepts the CPU device, and returns x unchanged.
func (b *Backend) ToDevice(x any, device backends.Device) (any, error) {
	if err := backends.CheckCPUDevice(b, device); err != nil {
		return nil, err
	}
	if !b.Owns(x) {
		return nil, notGonum(x)
	}
	return x, nil
}

// Export shares the backing data of contiguous vectors and matrices, and copies otherwise.
func (b *Backend) Export(x any) (backends.Exchange, error) {
	shape, err := b.Shape(x)
	if err != nil {
		return backends.Exchange{}, err
	}
	var flat []float64
	switch m := x.(type) {
	case *mat.VecDense:
		if raw := m.RawVector(); raw.Inc == 1 {
			flat = raw.Data[:raw.N]
		}
	case *mat.Dense:
		if raw := m.RawMatrix(); raw.Stride == raw.Cols {
			flat = raw.Data[:raw.Rows*raw.Cols]
		}
	}
	if flat == nil {
		t, err := b.ToHost(x)
		if err != nil {
			return backends.Exchange{}, err
		}
		flat = tensors.CopyFlatData[float64](t)
	}
	return backends.Exchange{Shape: shape, Flat: flat, Device: backends.CPU}, nil
}

// Import creates a vector or matrix from the exchanged buffer: Float64 buffers are shared without copying,
// other dtypes are converted.
func (b *Backend) Import(ex backends.Exchange) (any, error) {
	if err := ex.Validate(); err != nil {
		return nil, err
	}
	if !ex.Device.IsZero() && !ex.Device.IsCPU() {
		return nil, errors.Wrapf(backends.ErrInvalidDevice, "cannot import buffer from device %q", ex.Device)
	}
	if flat, ok := ex.Flat.([]float64); ok {
		return fromFlat(flat, ex.Shape.Dimensions)
	}
	t, err := tensors.FromFlatData(ex.Flat, ex.Shape.Dimensions...)
	if err != nil {
		return nil, err
	}
	return b.FromHost(t, backends.Device{})
}

func notGonum(x any) error {
	return errors.Wrapf(backends.ErrConversion, "%T is not a gonum array", x)
}

// tryGonum converts gonum panics (e.g. mat.ErrShape) to errors.
func tryGonum(fn func()) error {
	exception := exceptions.Try(fn)
	if exception == nil {
		return nil
	}
	if err, ok := exception.(error); ok {
		return errors.Wrap(err, BackendName)
	}
	return errors.Errorf("%s: %v", BackendName, exception)
}
