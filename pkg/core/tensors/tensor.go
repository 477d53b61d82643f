// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package tensors implements a `Tensor`, the host (CPU) array of arrayapi: the reference representation
// every other supported array library converts to and from.
//
// A Tensor is a multidimensional array (from scalar with 0 dimensions, to arbitrarily large dimensions), defined
// by its shape (a data type and its axes dimensions) and its content, stored as a flat Go slice of the
// Go type corresponding to the dtype, in row-major order.
//
// There are various ways to construct a Tensor:
//
//   - FromShape(shape shapes.Shape): creates a tensor with the given shape, and zero values.
//
//   - FromScalarAndDimensions[T dtypes.Supported](value T, dimensions ...int): creates a Tensor with the
//     given dimensions, filled with the scalar value given.
//
//   - FromFlatDataAndDimensions[T dtypes.Supported](data []T, dimensions ...int): creates a Tensor with the
//     given dimensions, and set the flattened values with a copy of the given data. Example:
//
//     t := FromFlatDataAndDimensions([]int8{1, 2, 3, 4}, 2, 2}) // Tensor with [[1,2], [3,4]]
//
//   - FromFlatData(flat any, dimensions ...int): same as above, but the tensor takes ownership of the
//     given slice, without copying. This is what the buffer exchange between libraries uses.
//
//   - FromAnyValue(value any): a scalar or an arbitrary multidimensional slice of the supported dtypes.
//     Slices of rank > 1 must be regular, that is all the sub-slices must have the same shape. Example:
//
//     t, err := FromAnyValue([][]float64{{1,2}, {3, 5}, {7, 11}})
package tensors

import (
	"sync"

	"github.com/gomlx/arrayapi/pkg/core/shapes"
	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
)

// Tensor is the host array: a shape and a flat slice holding the values in row-major order.
//
// The shape is immutable. The flat data is protected by a mutex, see ConstFlatData and MutableFlatData.
type Tensor struct {
	// shape of the tensor.
	shape shapes.Shape

	// mu protects flat.
	mu sync.Mutex

	// flat is a slice of the Go type for shape.DType, with shape.Size() elements.
	flat any
}

// newTensor returns a Tensor initialized only with the shape, without storage.
func newTensor(shape shapes.Shape) *Tensor {
	return &Tensor{shape: shape}
}

// Shape of the tensor.
func (t *Tensor) Shape() shapes.Shape { return t.shape }

// DType returns the DType of the tensor's shape.
func (t *Tensor) DType() dtypes.DType {
	return t.shape.DType
}

// Rank returns the rank of the tensor's shape.
func (t *Tensor) Rank() int { return t.shape.Rank() }

// IsScalar returns whether the tensor represents a scalar value.
func (t *Tensor) IsScalar() bool { return t.shape.IsScalar() }

// Size returns the number of elements in the tensor.
func (t *Tensor) Size() int { return t.shape.Size() }

// Memory returns the number of bytes used to store the tensor values.
func (t *Tensor) Memory() uintptr { return t.shape.Memory() }

// Ok returns whether the Tensor is valid: it has a valid shape and storage.
func (t *Tensor) Ok() bool {
	return t != nil && t.shape.Ok() && t.flat != nil
}

// AssertValid panics if the tensor is nil or has no storage.
func (t *Tensor) AssertValid() {
	if t == nil {
		exceptions.Panicf("tensor is nil")
	}
	if !t.shape.Ok() {
		exceptions.Panicf("tensor shape is invalid")
	}
	if t.flat == nil {
		exceptions.Panicf("tensor has no data")
	}
}

// ConstFlatData calls accessFn with the flattened data as a slice of the Go type corresponding to the DType type.
// Even scalar values have a flattened data representation of one element.
// It locks the Tensor until accessFn returns.
//
// The slice is the actual Tensor data (not a copy) and should not be changed, see MutableFlatData.
func (t *Tensor) ConstFlatData(accessFn func(flat any)) {
	t.AssertValid()
	t.mu.Lock()
	defer t.mu.Unlock()
	accessFn(t.flat)
}

// MutableFlatData calls accessFn with the flattened data as a slice of the Go type corresponding to the DType type.
// It locks the Tensor until accessFn returns.
//
// Notice that arrays of other libraries created from this tensor by zero-copy exchange share this memory.
func (t *Tensor) MutableFlatData(accessFn func(flat any)) {
	t.AssertValid()
	t.mu.Lock()
	defer t.mu.Unlock()
	accessFn(t.flat)
}

// ConstFlatData is the generics version of Tensor.ConstFlatData.
//
// It panics if T doesn't match the tensor's Go type.
func ConstFlatData[T dtypes.Supported](t *Tensor, accessFn func(flat []T)) {
	t.ConstFlatData(func(flatAny any) {
		flat, ok := flatAny.([]T)
		if !ok {
			exceptions.Panicf("ConstFlatData[%T] called for %s tensor", flat, t.shape)
		}
		accessFn(flat)
	})
}

// MutableFlatData is the generics version of Tensor.MutableFlatData.
//
// It panics if T doesn't match the tensor's Go type.
func MutableFlatData[T dtypes.Supported](t *Tensor, accessFn func(flat []T)) {
	t.MutableFlatData(func(flatAny any) {
		flat, ok := flatAny.([]T)
		if !ok {
			exceptions.Panicf("MutableFlatData[%T] called for %s tensor", flat, t.shape)
		}
		accessFn(flat)
	})
}

// CopyFlatData returns a copy of the flat data of the Tensor.
//
// It panics if T doesn't match the tensor's Go type.
func CopyFlatData[T dtypes.Supported](t *Tensor) []T {
	var result []T
	ConstFlatData(t, func(flat []T) {
		result = make([]T, len(flat))
		copy(result, flat)
	})
	return result
}

// ToScalar returns the scalar value of the Tensor.
//
// It panics if the tensor is not a scalar or if T doesn't match the tensor's Go type.
func ToScalar[T dtypes.Supported](t *Tensor) T {
	if !t.IsScalar() {
		exceptions.Panicf("ToScalar[%T] called for non-scalar tensor %s", *new(T), t.shape)
	}
	var v T
	ConstFlatData(t, func(flat []T) { v = flat[0] })
	return v
}
