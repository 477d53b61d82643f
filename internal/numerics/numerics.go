// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package numerics implements, on host tensors, the numeric operations that not every array library
// provides with the same semantics: polynomial evaluation, percentiles, multidimensional histograms,
// closeness tests, a NaN-propagating sign and angle conversions.
//
// Inputs are read as float64. Results keep the floating point dtype of the input, and integer or boolean
// inputs yield Float64 results.
package numerics

import (
	"math"

	"github.com/gomlx/arrayapi/pkg/core/tensors"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
)

// ResultDType returns the dtype of the result of a numeric operation on an input of the given dtype:
// floating point dtypes are kept, anything else becomes Float64.
func ResultDType(dtype dtypes.DType) dtypes.DType {
	switch dtype {
	case dtypes.Float16, dtypes.BFloat16, dtypes.Float32, dtypes.Float64:
		return dtype
	default:
		return dtypes.Float64
	}
}

// fromValues builds the result tensor with the dtype derived from the input dtype.
func fromValues(values []float64, inputDType dtypes.DType, dimensions ...int) (*tensors.Tensor, error) {
	return tensors.FromFloat64s(values, ResultDType(inputDType), dimensions...)
}

// mapValues applies fn to every element of x.
func mapValues(x *tensors.Tensor, fn func(v float64) float64) (*tensors.Tensor, error) {
	values, err := x.Float64s()
	if err != nil {
		return nil, err
	}
	for ii, v := range values {
		values[ii] = fn(v)
	}
	return fromValues(values, x.DType(), x.Shape().Dimensions...)
}

// Polyval evaluates the polynomial c[0] + c[1]*x + ... + c[n]*x^n for every element of x, using Horner's scheme.
// The result has the shape of x. With no coefficients the result is all zeros.
func Polyval(x *tensors.Tensor, c []float64) (*tensors.Tensor, error) {
	return mapValues(x, func(v float64) float64 {
		if len(c) == 0 {
			return 0
		}
		acc := c[len(c)-1]
		for ii := len(c) - 2; ii >= 0; ii-- {
			acc = c[ii] + acc*v
		}
		return acc
	})
}

// Sign returns -1, 0 or +1 according to the sign of each element. NaN values are propagated.
func Sign(x *tensors.Tensor) (*tensors.Tensor, error) {
	return mapValues(x, func(v float64) float64 {
		switch {
		case math.IsNaN(v):
			return v
		case v > 0:
			return 1
		case v < 0:
			return -1
		default:
			return 0
		}
	})
}

// Radian is the number of radians in one degree.
const Radian = math.Pi / 180

// Degree is the number of degrees in one radian.
const Degree = 180 / math.Pi

// Deg2Rad converts angles from degrees to radians.
func Deg2Rad(x *tensors.Tensor) (*tensors.Tensor, error) {
	return mapValues(x, func(v float64) float64 { return v * Radian })
}

// Rad2Deg converts angles from radians to degrees.
func Rad2Deg(x *tensors.Tensor) (*tensors.Tensor, error) {
	return mapValues(x, func(v float64) float64 { return v * Degree })
}

// IsClose returns a Bool tensor with |x-y| <= atol + rtol*|y| for every element.
// Equal values (including matching infinities) are always close. If equalNaN, NaN is close to NaN.
//
// x and y must have the same dimensions, or one of them must be a scalar.
func IsClose(x, y *tensors.Tensor, rtol, atol float64, equalNaN bool) (*tensors.Tensor, error) {
	xValues, yValues, dims, err := broadcastPair(x, y)
	if err != nil {
		return nil, err
	}
	result := make([]bool, len(xValues))
	for ii := range result {
		result[ii] = isClose(xValues[ii], yValues[ii], rtol, atol, equalNaN)
	}
	return tensors.FromFlatData(result, dims...)
}

// AllClose reports whether all elements of x and y are close, see IsClose.
func AllClose(x, y *tensors.Tensor, rtol, atol float64, equalNaN bool) (bool, error) {
	xValues, yValues, _, err := broadcastPair(x, y)
	if err != nil {
		return false, err
	}
	for ii := range xValues {
		if !isClose(xValues[ii], yValues[ii], rtol, atol, equalNaN) {
			return false, nil
		}
	}
	return true, nil
}

func isClose(x, y, rtol, atol float64, equalNaN bool) bool {
	if x == y {
		return true
	}
	if math.IsNaN(x) || math.IsNaN(y) {
		return equalNaN && math.IsNaN(x) && math.IsNaN(y)
	}
	return math.Abs(x-y) <= atol+rtol*math.Abs(y)
}

// broadcastPair returns the float64 values of x and y with a scalar operand broadcast to the other's size.
func broadcastPair(x, y *tensors.Tensor) (xValues, yValues []float64, dims []int, err error) {
	if xValues, err = x.Float64s(); err != nil {
		return
	}
	if yValues, err = y.Float64s(); err != nil {
		return
	}
	switch {
	case x.Shape().EqualDimensions(y.Shape()):
		dims = x.Shape().Dimensions
	case y.IsScalar():
		yValues = repeat(yValues[0], len(xValues))
		dims = x.Shape().Dimensions
	case x.IsScalar():
		xValues = repeat(xValues[0], len(yValues))
		dims = y.Shape().Dimensions
	default:
		err = errors.Errorf("operands could not be broadcast together with shapes %v and %v",
			x.Shape().Dimensions, y.Shape().Dimensions)
	}
	return
}

func repeat(v float64, n int) []float64 {
	values := make([]float64, n)
	for ii := range values {
		values[ii] = v
	}
	return values
}
