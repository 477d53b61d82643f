// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package namespace

import (
	"math"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/gomlx/arrayapi/backends"
	_ "github.com/gomlx/arrayapi/backends/gonum"
	_ "github.com/gomlx/arrayapi/backends/host"
	"github.com/gomlx/arrayapi/pkg/core/shapes"
	"github.com/gomlx/arrayapi/pkg/core/tensors"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"k8s.io/klog/v2"
)

func init() {
	klog.InitFlags(nil)
}

// shapedArray is an array of a library arrayapi doesn't know about.
type shapedArray struct{}

func (shapedArray) Shape() shapes.Shape { return shapes.Make(dtypes.Float32, 2) }

func TestGetAndEqual(t *testing.T) {
	host := Default()
	require.True(t, host == must.M1(Get("numpy")))
	require.Equal(t, backends.LibraryHost, host.Library())
	require.True(t, host.Equal(&Namespace{backend: host.Backend()}))

	gonum := must.M1(Get("torch"))
	require.Equal(t, "gonum", gonum.Name())
	require.False(t, host.Equal(gonum))
	require.False(t, host.Equal(nil))

	a := For(backends.NewUnknown("example.com/a"))
	require.True(t, a.Equal(For(backends.NewUnknown("example.com/a"))))
	require.False(t, a.Equal(For(backends.NewUnknown("example.com/b"))))

	_, err := Get("tensorflow")
	require.True(t, errors.Is(err, backends.ErrInvalidName))
}

// sliceBackend is a backend with a non-comparable value type.
type sliceBackend struct {
	*backends.Unknown
	tags []string
}

func TestForCache(t *testing.T) {
	b := sliceBackend{Unknown: backends.NewUnknown("example.com/slices"), tags: []string{"a"}}
	var ns *Namespace
	require.NotPanics(t, func() { ns = For(b) })
	require.Equal(t, "example.com/slices", ns.Name())
	require.True(t, ns.Equal(For(b)))

	unknown := backends.NewUnknown("example.com/cached")
	require.True(t, For(unknown) == For(unknown))

	// A backend constructed again replaces the cached namespace.
	host := Default()
	require.True(t, host == Default())
	backends.Finalize()
	again := Default()
	require.True(t, again.Backend() == backends.Default())
	require.True(t, again.Equal(host))
}

func TestAsArray(t *testing.T) {
	host := Default()
	gonum := must.M1(Get("gonum"))

	x := must.M1(host.AsArray([]float64{1, 2}))
	require.IsType(t, &tensors.Tensor{}, x)
	x32 := must.M1(host.AsArray([]float64{1, 2}, WithDType(dtypes.Float32))).(*tensors.Tensor)
	require.Equal(t, []float32{1, 2}, x32.Value())

	vec := must.M1(gonum.AsArray(x))
	require.IsType(t, &mat.VecDense{}, vec)

	// Host can't build from gonum arrays directly: it goes through gonum's host representation.
	m := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	fromGonum := must.M1(host.AsArray(m)).(*tensors.Tensor)
	require.Equal(t, [][]float64{{1, 2}, {3, 4}}, fromGonum.Value())
	fromGonum = must.M1(host.AsArray(m, WithDType(dtypes.Int32))).(*tensors.Tensor)
	require.Equal(t, [][]int32{{1, 2}, {3, 4}}, fromGonum.Value())

	_, err := host.AsArray([]float64{1}, OnDevice("cuda:0"))
	require.True(t, errors.Is(err, backends.ErrInvalidDevice))
	_, err = host.AsArray([]float64{1}, OnDevice("cuda:x"))
	require.True(t, errors.Is(err, backends.ErrInvalidDevice))
	_, err = host.AsArray(struct{}{})
	require.Error(t, err)

	zeros := must.M1(gonum.Zeros(dtypes.Float64, []int{2, 3})).(*mat.Dense)
	require.Equal(t, 0.0, zeros.At(1, 2))
	ones := must.M1(host.Ones(dtypes.Int8, []int{3}, OnDevice("cpu"))).(*tensors.Tensor)
	require.Equal(t, []int8{1, 1, 1}, ones.Value())
}

func TestAccessors(t *testing.T) {
	gonum := must.M1(Get("gonum"))
	m := mat.NewDense(2, 3, nil)
	require.Equal(t, []int{2, 3}, must.M1(gonum.Shape(m)).Dimensions)
	require.Equal(t, 6, must.M1(gonum.Size(m)))
	require.Equal(t, dtypes.Float64, must.M1(gonum.DType(m)))
	require.Equal(t, backends.CPU, must.M1(gonum.Device(m)))
	require.True(t, must.M1(gonum.ToDevice(m, "cpu")) == m)
	_, err := gonum.ToDevice(m, "mps:0")
	require.True(t, errors.Is(err, backends.ErrInvalidDevice))
	require.Equal(t, []backends.Device{backends.CPU}, gonum.Devices())

	host := Default()
	require.Equal(t, 4, must.M1(host.Size([][]int{{1, 2}, {3, 4}})))
	require.Equal(t, dtypes.Int64, must.M1(host.DType(int64(3))))
}

func TestArrayNamespace(t *testing.T) {
	host := Default()
	gonum := must.M1(Get("gonum"))

	require.True(t, must.M1(ArrayNamespace()) == host)
	require.True(t, must.M1(ArrayNamespace(1.0, []float32{1, 2}, nil)) == host)
	require.True(t, must.M1(ArrayNamespace(tensors.FromScalar(1.0))) == host)
	require.True(t, must.M1(ArrayNamespace(mat.NewVecDense(1, nil), 2.0)) == gonum)

	_, err := ArrayNamespace(tensors.FromScalar(1.0), mat.NewVecDense(1, nil))
	require.True(t, errors.Is(err, backends.ErrAmbiguousNamespace))

	unknown := must.M1(ArrayNamespace(shapedArray{}))
	require.Equal(t, backends.LibraryUnknown, unknown.Library())
	require.Equal(t, []int{2}, must.M1(unknown.Shape(shapedArray{})).Dimensions)
}

func TestDatasetNamespace(t *testing.T) {
	host := Default()
	gonum := must.M1(Get("gonum"))

	ns, err := DatasetNamespace(NewDataset())
	require.NoError(t, err)
	require.Nil(t, ns)

	ds := NewDataset().
		Set("a", mat.NewVecDense(2, []float64{1, 2})).
		Set("b", mat.NewDense(1, 1, []float64{3})).
		Set("c", 5.0)
	require.Equal(t, []string{"a", "b", "c"}, ds.Names())
	require.True(t, must.M1(DatasetNamespace(ds)) == gonum)

	ds.Set("d", tensors.FromScalar(int32(1)))
	_, err = DatasetNamespace(ds)
	require.True(t, errors.Is(err, backends.ErrAmbiguousNamespace))

	converted := must.M1(ds.Convert(host, "cpu"))
	require.Equal(t, ds.Names(), converted.Names())
	require.True(t, must.M1(DatasetNamespace(converted)) == host)
	require.Equal(t, []float64{1, 2}, converted.Get("a").(*tensors.Tensor).Value())

	df := dataframe.New(
		series.New([]float64{1.5, 2.5}, series.Float, "x"),
		series.New([]int{1, 2}, series.Int, "n"),
		series.New([]string{"a", "b"}, series.String, "label"),
	)
	require.True(t, must.M1(DatasetNamespace(df)) == host)
	require.True(t, must.M1(DatasetNamespace(&df)) == host)
	fromDF := must.M1(FromDataFrame(df))
	require.Equal(t, []string{"x", "n"}, fromDF.Names())
	require.Equal(t, []int64{1, 2}, fromDF.Get("n").(*tensors.Tensor).Value())

	_, err = DatasetNamespace("not a dataset")
	require.True(t, errors.Is(err, backends.ErrUnsupportedDataObject))
}

func TestPolyval(t *testing.T) {
	x := []float64{1, 2, 3}
	c := []float64{1, 2, 3}
	got := must.M1(Default().Polyval(x, c)).(*tensors.Tensor)
	require.Equal(t, []float64{6, 17, 34}, got.Value())

	gonum := must.M1(Get("gonum"))
	vec := must.M1(gonum.Polyval(mat.NewVecDense(3, x), c)).(*mat.VecDense)
	require.Equal(t, []float64{6, 17, 34}, vec.RawVector().Data)
}

func TestPercentile(t *testing.T) {
	host := Default()
	got := must.M1(host.Percentile([]float64{1, 2, 3}, 50)).(*tensors.Tensor)
	require.Equal(t, 2.0, tensors.ToScalar[float64](got))
	got = must.M1(host.Quantile([]float64{1, 2, 3}, 0.25)).(*tensors.Tensor)
	require.Equal(t, 1.5, tensors.ToScalar[float64](got))
	_, err := host.Percentile([]float64{1}, 101)
	require.Error(t, err)
	_, err = host.Quantile([]float64{1}, 50)
	require.Error(t, err)

	// gonum has no scalars: the result is a Go float64.
	gonum := must.M1(Get("gonum"))
	median := must.M1(gonum.Percentile(mat.NewVecDense(3, []float64{3, 1, 2}), 50))
	require.Equal(t, 2.0, median)
	columns := must.M1(gonum.Percentile(mat.NewDense(2, 2, []float64{1, 2, 3, 4}), 50, 0)).(*mat.VecDense)
	require.Equal(t, []float64{2, 3}, columns.RawVector().Data)
}

func TestHistogram(t *testing.T) {
	gonum := must.M1(Get("gonum"))
	x := mat.NewVecDense(4, []float64{0, 1, 2, 3})
	hist, edges := must.M2(gonum.Histogram2D(x, x, 2))
	counts := hist.(*mat.Dense)
	assert.Equal(t, 2.0, counts.At(0, 0))
	assert.Equal(t, 0.0, counts.At(0, 1))
	assert.Equal(t, 2.0, counts.At(1, 1))
	require.Len(t, edges, 2)
	require.Equal(t, []float64{0, 1.5, 3}, edges[0].(*mat.VecDense).RawVector().Data)

	_, _, err := gonum.Histogram2D(x, x, 1, 2, 3)
	require.Error(t, err)
	_, _, err = gonum.Histogram2D(x, mat.NewVecDense(1, nil))
	require.Error(t, err)

	host := Default()
	hist, _ = must.M2(host.Histogram2D([]float64{0, 1, 2, 3}, []float64{0, 1, 2, 3}, 2))
	require.Equal(t, [][]float64{{2, 0}, {0, 2}}, hist.(*tensors.Tensor).Value())

	// Rank 3 histograms can't be held by gonum: a host tensor is returned.
	sample := mat.NewDense(2, 3, []float64{0, 0, 0, 1, 1, 1})
	hist, edges = must.M2(gonum.HistogramDD(sample, 2))
	require.Equal(t, []int{2, 2, 2}, hist.(*tensors.Tensor).Shape().Dimensions)
	require.Len(t, edges, 3)
}

func TestIsClose(t *testing.T) {
	for _, ns := range []*Namespace{Default(), must.M1(Get("gonum"))} {
		assert.True(t, must.M1(ns.AllClose(1.0, 1.0+1e-9)), "namespace %s", ns)
		assert.False(t, must.M1(ns.AllClose(1.0, 1.1)), "namespace %s", ns)
		assert.True(t, must.M1(ns.AllClose(1.0, 1.1, WithATol(0.2))), "namespace %s", ns)
		assert.True(t, must.M1(ns.AllClose(1.0, 1.1, WithRTol(0.1))), "namespace %s", ns)
		assert.False(t, must.M1(ns.AllClose(math.NaN(), math.NaN())), "namespace %s", ns)
		assert.True(t, must.M1(ns.AllClose(math.NaN(), math.NaN(), WithEqualNaN())), "namespace %s", ns)
	}

	gonum := must.M1(Get("gonum"))
	x := mat.NewVecDense(3, []float64{1, 2, 3})
	closeness := must.M1(gonum.IsClose(x, []float64{1, 2.5, 3})).(*mat.VecDense)
	require.Equal(t, []float64{1, 0, 1}, closeness.RawVector().Data)

	host := Default()
	isClose := must.M1(host.IsClose([]float64{1, 2}, 2.0)).(*tensors.Tensor)
	require.Equal(t, []bool{false, true}, isClose.Value())
}

func TestSignAndAngles(t *testing.T) {
	gonum := must.M1(Get("gonum"))
	sign := must.M1(gonum.Sign(mat.NewVecDense(4, []float64{-2, math.NaN(), 0, 3}))).(*mat.VecDense)
	require.Equal(t, -1.0, sign.AtVec(0))
	require.True(t, math.IsNaN(sign.AtVec(1)))
	require.Equal(t, 0.0, sign.AtVec(2))
	require.Equal(t, 1.0, sign.AtVec(3))

	host := Default()
	radians := must.M1(host.Deg2Rad([]float64{180, 90})).(*tensors.Tensor)
	require.InDeltaSlice(t, []float64{math.Pi, math.Pi / 2}, radians.Value(), 1e-12)
	degrees := must.M1(gonum.Rad2Deg(mat.NewVecDense(1, []float64{math.Pi}))).(*mat.VecDense)
	require.InDelta(t, 180.0, degrees.AtVec(0), 1e-12)
}
