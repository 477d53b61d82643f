// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package numerics

import (
	"math"
	"slices"

	"github.com/gomlx/arrayapi/pkg/core/tensors"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// DefaultBins is the number of bins per dimension used when none is given.
const DefaultBins = 10

// HistogramDD computes the multidimensional histogram of sample, shaped (N, D): N points of D coordinates.
//
// bins is empty (DefaultBins for every dimension), a single value used for every dimension, or one value per
// dimension. Each dimension is split into uniform bins spanning the minimum and maximum of its coordinates;
// a dimension where all coordinates are equal spans [v-0.5, v+0.5].
//
// It returns the counts as a Float64 tensor shaped bins, and the D edges tensors with bins[d]+1 values each.
func HistogramDD(sample *tensors.Tensor, bins ...int) (hist *tensors.Tensor, edges []*tensors.Tensor, err error) {
	if sample.Rank() != 2 {
		return nil, nil, errors.Errorf("histogramdd requires a sample shaped (N, D), got %s", sample.Shape())
	}
	numPoints, numDims := sample.Shape().Dimensions[0], sample.Shape().Dimensions[1]
	switch len(bins) {
	case 0:
		bins = repeatInt(DefaultBins, numDims)
	case 1:
		bins = repeatInt(bins[0], numDims)
	case numDims:
	default:
		return nil, nil, errors.New("bins must have length equal to number of dimensions")
	}
	for _, b := range bins {
		if b <= 0 {
			return nil, nil, errors.Errorf("number of bins must be positive, got %v", bins)
		}
	}
	values, err := sample.Float64s()
	if err != nil {
		return nil, nil, err
	}

	edgeValues := make([][]float64, numDims)
	column := make([]float64, numPoints)
	for d := range numDims {
		for ii := range numPoints {
			column[ii] = values[ii*numDims+d]
		}
		if slices.ContainsFunc(column, math.IsNaN) {
			return nil, nil, errors.Errorf("histogram range of dimension %d is not finite: sample contains NaN", d)
		}
		low, high := 0.0, 1.0
		if numPoints > 0 {
			low, high = floats.Min(column), floats.Max(column)
		}
		if math.IsNaN(low) || math.IsNaN(high) || math.IsInf(low, 0) || math.IsInf(high, 0) {
			return nil, nil, errors.Errorf("histogram range [%g, %g] of dimension %d is not finite", low, high, d)
		}
		if low == high {
			low, high = low-0.5, high+0.5
		}
		edgeValues[d] = floats.Span(make([]float64, bins[d]+1), low, high)
	}

	// Row-major strides of the counts.
	strides := make([]int, numDims)
	size := 1
	for d := numDims - 1; d >= 0; d-- {
		strides[d] = size
		size *= bins[d]
	}
	counts := make([]float64, size)
	for ii := range numPoints {
		pos := 0
		for d := range numDims {
			e := edgeValues[d]
			width := e[1] - e[0]
			idx := int(math.Floor((values[ii*numDims+d] - e[0]) / width))
			idx = max(0, min(idx, bins[d]-1))
			pos += idx * strides[d]
		}
		counts[pos]++
	}

	hist, err = tensors.FromFlatData(counts, bins...)
	if err != nil {
		return nil, nil, err
	}
	edges = make([]*tensors.Tensor, numDims)
	for d, e := range edgeValues {
		if edges[d], err = tensors.FromFloat64s(e, dtypes.Float64, len(e)); err != nil {
			return nil, nil, err
		}
	}
	return hist, edges, nil
}

// Histogram2D computes the histogram of the points (x[i], y[i]), see HistogramDD.
// x and y must have the same number of elements, and are flattened.
func Histogram2D(x, y *tensors.Tensor, bins ...int) (hist *tensors.Tensor, edges []*tensors.Tensor, err error) {
	sample, err := StackColumns(x, y)
	if err != nil {
		return nil, nil, err
	}
	return HistogramDD(sample, bins...)
}

// StackColumns returns the Float64 tensor shaped (N, 2) with the flattened x and y as columns.
func StackColumns(x, y *tensors.Tensor) (*tensors.Tensor, error) {
	if x.Size() != y.Size() {
		return nil, errors.Errorf("histogram2d requires x and y of the same size, got %s and %s", x.Shape(), y.Shape())
	}
	xValues, err := x.Float64s()
	if err != nil {
		return nil, err
	}
	yValues, err := y.Float64s()
	if err != nil {
		return nil, err
	}
	stacked := make([]float64, 0, 2*len(xValues))
	for ii := range xValues {
		stacked = append(stacked, xValues[ii], yValues[ii])
	}
	return tensors.FromFlatData(stacked, len(xValues), 2)
}

func repeatInt(v, n int) []int {
	values := make([]int, n)
	for ii := range values {
		values[ii] = v
	}
	return values
}
