// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package numerics

import (
	"math"
	"testing"

	"github.com/gomlx/arrayapi/pkg/core/tensors"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolyval(t *testing.T) {
	x := tensors.FromFlatDataAndDimensions([]float64{1, 2, 3}, 3)
	got := must.M1(Polyval(x, []float64{1, 2, 3}))
	require.Equal(t, []float64{6, 17, 34}, tensors.CopyFlatData[float64](got))

	// Float32 is kept, integers become Float64.
	x32 := tensors.FromFlatDataAndDimensions([]float32{0, 1}, 2)
	got = must.M1(Polyval(x32, []float64{2, 1}))
	require.Equal(t, []float32{2, 3}, tensors.CopyFlatData[float32](got))
	xInt := tensors.FromFlatDataAndDimensions([]int32{2}, 1)
	got = must.M1(Polyval(xInt, []float64{0, 0, 1}))
	require.Equal(t, []float64{4}, tensors.CopyFlatData[float64](got))

	got = must.M1(Polyval(x, nil))
	require.Equal(t, []float64{0, 0, 0}, tensors.CopyFlatData[float64](got))
}

func TestPercentile(t *testing.T) {
	a := tensors.FromFlatDataAndDimensions([]float64{3, 1, 2}, 3)
	got := must.M1(Percentile(a, 50))
	require.True(t, got.IsScalar())
	require.Equal(t, 2.0, tensors.ToScalar[float64](got))

	got = must.M1(Percentile(tensors.FromFlatDataAndDimensions([]float64{1, 2, 3, 4}, 4), 25))
	require.InDelta(t, 1.75, tensors.ToScalar[float64](got), 1e-12)

	m := tensors.FromFlatDataAndDimensions([]float64{
		1, 10,
		2, 20,
		3, 30,
	}, 3, 2)
	got = must.M1(Percentile(m, 100, 0))
	require.Equal(t, []float64{3, 30}, tensors.CopyFlatData[float64](got))
	got = must.M1(Percentile(m, 0, -1))
	require.Equal(t, []float64{1, 2, 3}, tensors.CopyFlatData[float64](got))

	got = must.M1(Quantile(m, 0.5))
	require.Equal(t, 6.5, tensors.ToScalar[float64](got))

	nan := tensors.FromFlatDataAndDimensions([]float64{1, math.NaN()}, 2)
	require.True(t, math.IsNaN(tensors.ToScalar[float64](must.M1(Percentile(nan, 50)))))

	_, err := Percentile(a, 101)
	require.Error(t, err)
	_, err = Quantile(a, 50)
	require.Error(t, err)
	_, err = Percentile(a, 50, 1)
	require.Error(t, err)
	_, err = Percentile(tensors.Zeros(dtypes.Float64, 0), 50)
	require.Error(t, err)
}

func TestHistogramDD(t *testing.T) {
	sample := tensors.FromFlatDataAndDimensions([]float64{
		0, 0,
		1, 1,
		2, 2,
		4, 0,
	}, 4, 2)
	hist, edges := must.M2(HistogramDD(sample, 2))
	require.Equal(t, []int{2, 2}, hist.Shape().Dimensions)
	require.Equal(t, []float64{1, 1, 1, 1}, tensors.CopyFlatData[float64](hist))
	require.Len(t, edges, 2)
	require.Equal(t, []float64{0, 2, 4}, tensors.CopyFlatData[float64](edges[0]))
	require.Equal(t, []float64{0, 1, 2}, tensors.CopyFlatData[float64](edges[1]))

	hist, _ = must.M2(HistogramDD(sample))
	require.Equal(t, []int{10, 10}, hist.Shape().Dimensions)
	total := 0.0
	for _, v := range tensors.CopyFlatData[float64](hist) {
		total += v
	}
	require.Equal(t, 4.0, total)

	_, _, err := HistogramDD(sample, 2, 3, 4)
	require.ErrorContains(t, err, "bins must have length equal to number of dimensions")

	// Degenerate range.
	constant := tensors.FromFlatDataAndDimensions([]float64{5, 5, 5}, 3, 1)
	hist, edges = must.M2(HistogramDD(constant, 2))
	require.Equal(t, []float64{0, 3}, tensors.CopyFlatData[float64](hist))
	require.Equal(t, []float64{4.5, 5, 5.5}, tensors.CopyFlatData[float64](edges[0]))

	// Non-finite values anywhere in a column.
	for _, bad := range []float64{math.NaN(), math.Inf(1)} {
		_, _, err = HistogramDD(tensors.FromFlatDataAndDimensions([]float64{0, 1, 2, bad}, 4, 1), 2)
		require.ErrorContains(t, err, "not finite", "value %g", bad)
		_, _, err = HistogramDD(tensors.FromFlatDataAndDimensions([]float64{bad, 1, 2, 0}, 4, 1), 2)
		require.ErrorContains(t, err, "not finite", "value %g", bad)
	}
}

func TestHistogram2D(t *testing.T) {
	x := tensors.FromFlatDataAndDimensions([]float64{0, 1, 2, 4}, 4)
	y := tensors.FromFlatDataAndDimensions([]float64{0, 1, 2, 0}, 4)
	hist, _ := must.M2(Histogram2D(x, y, 2, 2))
	require.Equal(t, []float64{1, 1, 1, 1}, tensors.CopyFlatData[float64](hist))
	_, _, err := Histogram2D(x, tensors.FromFlatDataAndDimensions([]float64{0}, 1))
	require.Error(t, err)
}

func TestIsClose(t *testing.T) {
	one := tensors.FromScalar(1.0)
	assert.True(t, must.M1(AllClose(one, tensors.FromScalar(1.0+1e-9), 1e-5, 1e-8, false)))
	assert.False(t, must.M1(AllClose(one, tensors.FromScalar(1.1), 1e-5, 1e-8, false)))

	x := tensors.FromFlatDataAndDimensions([]float64{1, math.NaN(), math.Inf(1)}, 3)
	y := tensors.FromFlatDataAndDimensions([]float64{1.001, math.NaN(), math.Inf(1)}, 3)
	got := must.M1(IsClose(x, y, 1e-5, 1e-8, false))
	assert.Equal(t, []bool{false, false, true}, tensors.CopyFlatData[bool](got))
	got = must.M1(IsClose(x, y, 1e-2, 0, true))
	assert.Equal(t, []bool{true, true, true}, tensors.CopyFlatData[bool](got))

	// Scalar broadcast.
	got = must.M1(IsClose(x, one, 1e-5, 1e-8, false))
	assert.Equal(t, []bool{true, false, false}, tensors.CopyFlatData[bool](got))

	_, err := IsClose(x, tensors.FromFlatDataAndDimensions([]float64{1, 2}, 2), 1e-5, 1e-8, false)
	require.Error(t, err)
}

func TestSignAndAngles(t *testing.T) {
	x := tensors.FromFlatDataAndDimensions([]float64{-2, 0, 3, math.NaN()}, 4)
	got := tensors.CopyFlatData[float64](must.M1(Sign(x)))
	assert.Equal(t, []float64{-1, 0, 1}, got[:3])
	assert.True(t, math.IsNaN(got[3]))

	deg := tensors.FromFlatDataAndDimensions([]float32{180, 90}, 2)
	rad := must.M1(Deg2Rad(deg))
	require.Equal(t, dtypes.Float32, rad.DType())
	assert.InDeltaSlice(t, []float32{math.Pi, math.Pi / 2}, tensors.CopyFlatData[float32](rad), 1e-6)
	back := must.M1(Rad2Deg(rad))
	assert.InDeltaSlice(t, []float32{180, 90}, tensors.CopyFlatData[float32](back), 1e-4)
}
