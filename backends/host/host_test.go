// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package host

import (
	"testing"

	"github.com/gomlx/arrayapi/backends"
	"github.com/gomlx/arrayapi/pkg/core/tensors"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistration(t *testing.T) {
	b := must.M1(backends.Get("numpy"))
	require.Equal(t, BackendName, b.Name())
	require.True(t, b == backends.Default())
	require.Equal(t, backends.LibraryHost, b.Library())

	// Plain Go values and tensors resolve to host.
	for _, x := range []any{1.5, []float32{1, 2}, [][]int{{1}}, tensors.FromScalar(int8(3))} {
		resolved := must.M1(backends.FromArray(x, true))
		assert.Equal(t, BackendName, resolved.Name(), "resolving %T", x)
	}
	resolved := must.M1(backends.FromModule(ModulePath, true))
	require.Equal(t, BackendName, resolved.Name())
	require.True(t, backends.IsCPUOnly(b))
}

func TestArrays(t *testing.T) {
	b := must.M1(New())
	sample := must.M1(b.Sample())
	require.Equal(t, []int{2}, must.M1(b.Shape(sample)).Dimensions)

	shape := must.M1(b.Shape([][]float32{{1, 2, 3}, {4, 5, 6}}))
	require.Equal(t, dtypes.Float32, shape.DType)
	require.Equal(t, []int{2, 3}, shape.Dimensions)
	require.Equal(t, backends.CPU, must.M1(b.Device(sample)))
	_, err := b.Device("not an array")
	require.Error(t, err)

	x := must.M1(b.FromValue([]float64{1, 2}, backends.Device{}))
	require.IsType(t, &tensors.Tensor{}, x)
	_, err = b.FromValue([]float64{1, 2}, backends.MustParseDevice("cuda:0"))
	require.True(t, errors.Is(err, backends.ErrInvalidDevice))
	_, err = b.ToDevice(x, backends.MustParseDevice("gpu"))
	require.True(t, errors.Is(err, backends.ErrInvalidDevice))
	same := must.M1(b.ToDevice(x, backends.CPU))
	require.True(t, same == x)
	require.Equal(t, dtypes.Float16, must.M1(backends.DType(b, "float16")))
}

func TestExchange(t *testing.T) {
	b := must.M1(New()).(*Backend)
	src := tensors.FromFlatDataAndDimensions([]int32{1, 2, 3, 4}, 2, 2)
	ex := must.M1(b.Export(src))
	require.NoError(t, ex.Validate())
	imported := must.M1(b.Import(ex)).(*tensors.Tensor)
	require.True(t, imported.Equal(src))

	// Zero copy: both share the same data.
	tensors.MutableFlatData(src, func(flat []int32) { flat[0] = 100 })
	require.Equal(t, int32(100), tensors.CopyFlatData[int32](imported)[0])

	_, err := b.Import(backends.Exchange{Shape: ex.Shape, Flat: []int32{1}})
	require.True(t, errors.Is(err, backends.ErrConversion))
	_, err = b.Import(backends.Exchange{Shape: ex.Shape, Flat: ex.Flat, Device: backends.MustParseDevice("cuda:0")})
	require.True(t, errors.Is(err, backends.ErrInvalidDevice))
}

func TestNatives(t *testing.T) {
	b := must.M1(New()).(*Backend)
	got := must.M1(b.Polyval([]float64{1, 2, 3}, []float64{1, 2, 3})).(*tensors.Tensor)
	require.Equal(t, []float64{6, 17, 34}, tensors.CopyFlatData[float64](got))

	got = must.M1(b.Percentile([]float64{1, 2, 3}, 50)).(*tensors.Tensor)
	require.Equal(t, 2.0, tensors.ToScalar[float64](got))

	hist, edges := must.M2(b.HistogramDD([][]float64{{0}, {1}}, 2))
	require.Equal(t, []float64{1, 1}, tensors.CopyFlatData[float64](hist.(*tensors.Tensor)))
	require.Len(t, edges, 1)

	closeness := must.M1(b.IsClose(1.0, 1.0+1e-9, backends.Tolerance{RTol: 1e-5, ATol: 1e-8})).(*tensors.Tensor)
	require.True(t, tensors.ToScalar[bool](closeness))

	sign := must.M1(b.Sign([]int32{-3, 0, 4})).(*tensors.Tensor)
	require.Equal(t, []float64{-1, 0, 1}, tensors.CopyFlatData[float64](sign))
}
