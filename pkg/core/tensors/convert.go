// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package tensors

import (
	"github.com/gomlx/arrayapi/pkg/core/shapes"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/gopjrt/dtypes/bfloat16"
	"github.com/pkg/errors"
	"github.com/x448/float16"
	"golang.org/x/exp/constraints"
)

// number is any Go type that converts to and from float64 with a plain conversion.
type number interface {
	constraints.Integer | constraints.Float
}

func convertSlice[From, To number](src []From) []To {
	dst := make([]To, len(src))
	for ii, v := range src {
		dst[ii] = To(v)
	}
	return dst
}

// Float64s returns a copy of the tensor values converted to float64.
// Booleans convert to 0 and 1.
func (t *Tensor) Float64s() (values []float64, err error) {
	t.ConstFlatData(func(flat any) {
		values, err = flatToFloat64s(flat)
	})
	return
}

func flatToFloat64s(flat any) ([]float64, error) {
	switch src := flat.(type) {
	case []float64:
		return convertSlice[float64, float64](src), nil
	case []float32:
		return convertSlice[float32, float64](src), nil
	case []int64:
		return convertSlice[int64, float64](src), nil
	case []int32:
		return convertSlice[int32, float64](src), nil
	case []int16:
		return convertSlice[int16, float64](src), nil
	case []int8:
		return convertSlice[int8, float64](src), nil
	case []uint64:
		return convertSlice[uint64, float64](src), nil
	case []uint32:
		return convertSlice[uint32, float64](src), nil
	case []uint16:
		return convertSlice[uint16, float64](src), nil
	case []uint8:
		return convertSlice[uint8, float64](src), nil
	case []float16.Float16:
		dst := make([]float64, len(src))
		for ii, v := range src {
			dst[ii] = float64(v.Float32())
		}
		return dst, nil
	case []bfloat16.BFloat16:
		dst := make([]float64, len(src))
		for ii, v := range src {
			dst[ii] = float64(v.Float32())
		}
		return dst, nil
	case []bool:
		dst := make([]float64, len(src))
		for ii, v := range src {
			if v {
				dst[ii] = 1
			}
		}
		return dst, nil
	}
	return nil, errors.Errorf("cannot convert values of type %T to float64", flat)
}

func float64sToFlat(values []float64, dtype dtypes.DType) (any, error) {
	switch dtype {
	case dtypes.Float64:
		return convertSlice[float64, float64](values), nil
	case dtypes.Float32:
		return convertSlice[float64, float32](values), nil
	case dtypes.Int64:
		return convertSlice[float64, int64](values), nil
	case dtypes.Int32:
		return convertSlice[float64, int32](values), nil
	case dtypes.Int16:
		return convertSlice[float64, int16](values), nil
	case dtypes.Int8:
		return convertSlice[float64, int8](values), nil
	case dtypes.Uint64:
		return convertSlice[float64, uint64](values), nil
	case dtypes.Uint32:
		return convertSlice[float64, uint32](values), nil
	case dtypes.Uint16:
		return convertSlice[float64, uint16](values), nil
	case dtypes.Uint8:
		return convertSlice[float64, uint8](values), nil
	case dtypes.Float16:
		dst := make([]float16.Float16, len(values))
		for ii, v := range values {
			dst[ii] = float16.Fromfloat32(float32(v))
		}
		return dst, nil
	case dtypes.BFloat16:
		dst := make([]bfloat16.BFloat16, len(values))
		for ii, v := range values {
			dst[ii] = bfloat16.FromFloat32(float32(v))
		}
		return dst, nil
	case dtypes.Bool:
		dst := make([]bool, len(values))
		for ii, v := range values {
			dst[ii] = v != 0
		}
		return dst, nil
	}
	return nil, errors.Errorf("cannot convert float64 values to dtype %s", dtype)
}

// FromFloat64s creates a tensor of the given dtype and dimensions from float64 values.
// Values are converted with Go's conversion rules (truncation for integers).
func FromFloat64s(values []float64, dtype dtypes.DType, dimensions ...int) (*Tensor, error) {
	flat, err := float64sToFlat(values, dtype)
	if err != nil {
		return nil, err
	}
	return FromFlatData(flat, dimensions...)
}

// ConvertDType returns a new tensor with the values converted to dtype.
// If the tensor already has the dtype, a clone is returned.
func (t *Tensor) ConvertDType(dtype dtypes.DType) (*Tensor, error) {
	if t.DType() == dtype {
		return t.Clone(), nil
	}
	values, err := t.Float64s()
	if err != nil {
		return nil, err
	}
	converted, err := FromFloat64s(values, dtype, t.shape.Dimensions...)
	if err != nil {
		return nil, errors.WithMessagef(err, "converting %s to %s", t.shape, dtype)
	}
	return converted, nil
}

// Zeros returns a tensor of zeros.
func Zeros(dtype dtypes.DType, dimensions ...int) *Tensor {
	return FromShape(shapes.Make(dtype, dimensions...))
}

// Ones returns a tensor filled with ones.
func Ones(dtype dtypes.DType, dimensions ...int) (*Tensor, error) {
	shape := shapes.Make(dtype, dimensions...)
	values := make([]float64, shape.Size())
	for ii := range values {
		values[ii] = 1
	}
	return FromFloat64s(values, dtype, dimensions...)
}
