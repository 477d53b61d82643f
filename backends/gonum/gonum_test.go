// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package gonum

import (
	"testing"

	"github.com/gomlx/arrayapi/backends"
	"github.com/gomlx/arrayapi/pkg/core/tensors"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestRegistration(t *testing.T) {
	for _, name := range []string{"gonum", "torch", "pytorch"} {
		b := must.M1(backends.Get(name))
		require.Equal(t, BackendName, b.Name())
	}
	b := must.M1(backends.FromArray(mat.NewDense(1, 1, nil), true))
	require.Equal(t, backends.LibraryGonum, b.Library())
	b = must.M1(backends.FromModule(ModulePath, true))
	require.Equal(t, BackendName, b.Name())
}

func TestToAndFromHost(t *testing.T) {
	b := must.M1(New())
	m := mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})
	shape := must.M1(b.Shape(m))
	require.Equal(t, []int{2, 3}, shape.Dimensions)
	require.Equal(t, dtypes.Float64, shape.DType)

	host := must.M1(b.ToHost(m))
	require.Equal(t, [][]float64{{1, 2, 3}, {4, 5, 6}}, host.Value())

	// Sub-matrices are not contiguous.
	sub := m.Slice(0, 2, 1, 3).(*mat.Dense)
	host = must.M1(b.ToHost(sub))
	require.Equal(t, [][]float64{{2, 3}, {5, 6}}, host.Value())

	back := must.M1(b.FromHost(tensors.FromFlatDataAndDimensions([]float32{1, 2}, 2), backends.Device{}))
	vec := back.(*mat.VecDense)
	require.Equal(t, 2, vec.Len())
	require.Equal(t, 2.0, vec.AtVec(1))

	scalar := must.M1(b.FromHost(tensors.FromScalar(int32(7)), backends.CPU))
	require.Equal(t, 7.0, scalar)

	_, err := b.FromHost(tensors.Zeros(dtypes.Float64, 2, 2, 2), backends.Device{})
	require.True(t, errors.Is(err, backends.ErrUnsupportedShape))
	_, err = b.FromHost(tensors.Zeros(dtypes.Float64, 0), backends.Device{})
	require.True(t, errors.Is(err, backends.ErrUnsupportedShape))
	_, err = b.FromHost(host, backends.MustParseDevice("cuda:0"))
	require.True(t, errors.Is(err, backends.ErrInvalidDevice))
}

func TestFromValue(t *testing.T) {
	b := must.M1(New())
	m := must.M1(b.FromValue([][]int{{1, 2}, {3, 4}}, backends.Device{})).(*mat.Dense)
	require.Equal(t, 4.0, m.At(1, 1))

	sym := mat.NewSymDense(2, []float64{1, 2, 2, 1})
	dense := must.M1(b.FromValue(sym, backends.CPU)).(*mat.Dense)
	require.Equal(t, 2.0, dense.At(1, 0))

	same := must.M1(b.FromValue(m, backends.Device{}))
	require.True(t, same == m)

	_, err := b.FromValue("not an array", backends.Device{})
	require.True(t, errors.Is(err, backends.ErrConversion))
}

func TestExchange(t *testing.T) {
	b := must.M1(New()).(*Backend)
	m := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	ex := must.M1(b.Export(m))
	require.Equal(t, []int{2, 2}, ex.Shape.Dimensions)

	// Zero copy round trip.
	imported := must.M1(b.Import(ex)).(*mat.Dense)
	m.Set(0, 0, 100)
	require.Equal(t, 100.0, imported.At(0, 0))

	// Non-contiguous views are copied.
	sub := m.Slice(0, 2, 1, 2).(*mat.Dense)
	ex = must.M1(b.Export(sub))
	require.Equal(t, []float64{2, 4}, ex.Flat)

	// Other dtypes are converted.
	ints := backends.Exchange{Shape: tensors.FromScalar(int32(0)).Shape(), Flat: []int32{5}}
	got := must.M1(b.Import(ints))
	require.Equal(t, 5.0, got)
}

func TestDeviceMoves(t *testing.T) {
	b := must.M1(New())
	v := must.M1(b.Sample())
	_, err := b.ToDevice(v, backends.MustParseDevice("mps:0"))
	require.True(t, errors.Is(err, backends.ErrInvalidDevice))
	same := must.M1(b.ToDevice(v, backends.CPU))
	require.True(t, same == v)
	require.True(t, backends.IsCPUOnly(b))
}
