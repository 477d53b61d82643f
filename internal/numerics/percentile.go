// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package numerics

import (
	"math"
	"slices"

	"github.com/gomlx/arrayapi/pkg/core/tensors"
	"github.com/pkg/errors"
)

// Percentile computes the q-th percentile (q in [0, 100]) of a, using linear interpolation between the
// two closest ranks: the values are sorted, rank = (q/100)*(n-1), and the result interpolates the values
// at floor(rank) and ceil(rank).
//
// If no axis is given, a is flattened and the result is a scalar. Otherwise, the result has the shape of
// a with the given axis removed. Negative axes count from the end. A NaN in a lane yields NaN.
func Percentile(a *tensors.Tensor, q float64, axis ...int) (*tensors.Tensor, error) {
	if math.IsNaN(q) || q < 0 || q > 100 {
		return nil, errors.Errorf("percentile q=%g must be in the range [0, 100]", q)
	}
	if len(axis) > 1 {
		return nil, errors.Errorf("percentile over more than one axis (%v) is not supported", axis)
	}
	values, err := a.Float64s()
	if err != nil {
		return nil, err
	}

	// Lanes along the reduced axis: outer x n x inner.
	dims := a.Shape().Dimensions
	outer, n, inner := 1, len(values), 1
	var resultDims []int
	if len(axis) == 1 {
		reduced, ok := a.Shape().AdjustAxis(axis[0])
		if !ok {
			return nil, errors.Errorf("axis %d is out of bounds for array of rank %d", axis[0], a.Rank())
		}
		for ii, dim := range dims {
			switch {
			case ii < reduced:
				outer *= dim
			case ii > reduced:
				inner *= dim
			}
		}
		n = dims[reduced]
		resultDims = slices.Concat(dims[:reduced], dims[reduced+1:])
	}
	if n == 0 {
		return nil, errors.New("cannot compute percentile of an empty array")
	}

	result := make([]float64, outer*inner)
	lane := make([]float64, n)
	for o := range outer {
		for in := range inner {
			for ii := range n {
				lane[ii] = values[o*n*inner+ii*inner+in]
			}
			result[o*inner+in] = sortedPercentile(lane, q)
		}
	}
	return fromValues(result, a.DType(), resultDims...)
}

// sortedPercentile sorts lane in place and interpolates the q-th percentile.
func sortedPercentile(lane []float64, q float64) float64 {
	if slices.ContainsFunc(lane, math.IsNaN) {
		return math.NaN()
	}
	slices.Sort(lane)
	rank := (q / 100) * float64(len(lane)-1)
	low, high := math.Floor(rank), math.Ceil(rank)
	weight := rank - low
	return (1-weight)*lane[int(low)] + weight*lane[int(high)]
}

// Quantile is like Percentile with q in [0, 1].
func Quantile(a *tensors.Tensor, q float64, axis ...int) (*tensors.Tensor, error) {
	if math.IsNaN(q) || q < 0 || q > 1 {
		return nil, errors.Errorf("quantile q=%g must be in the range [0, 1]", q)
	}
	return Percentile(a, q*100, axis...)
}
