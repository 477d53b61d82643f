// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package xla

import (
	"flag"
	"fmt"
	"runtime"
	"slices"
	"testing"

	"github.com/gomlx/arrayapi/backends"
	"github.com/gomlx/arrayapi/pkg/core/tensors"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/gopjrt/pjrt"
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"k8s.io/klog/v2"
)

var flagPlugin = flag.String("plugin", "cpu", "Plugin to use for testing for xla backend")

func init() {
	klog.InitFlags(nil)
}

// newTestBackend returns a new backend, or skips the test if the plugin is not available.
func newTestBackend(t *testing.T) *Backend {
	backend, err := New()
	if errors.Is(err, backends.ErrBackendUnavailable) {
		t.Skipf("Skipping xla tests: %v", err)
	}
	require.NoError(t, err)
	b := backend.(*Backend)
	if slices.Index(b.plugins, *flagPlugin) == -1 {
		t.Skipf("Skipping xla tests: plugin %q not in available plugins %q", *flagPlugin, b.plugins)
	}
	return b
}

func TestRegistration(t *testing.T) {
	newTestBackend(t)
	for _, name := range []string{"xla", "pjrt", "jax"} {
		canonical, found := backends.CanonicalName(name)
		require.True(t, found)
		require.Equal(t, BackendName, canonical)
	}
	b := must.M1(backends.FromModule(ModulePath, true))
	require.Equal(t, BackendName, b.Name())
	b = must.M1(backends.FromArray((*pjrt.Buffer)(nil), true))
	require.Equal(t, backends.LibraryXLA, b.Library())
}

func TestRepeatedClients(t *testing.T) {
	b := newTestBackend(t)
	device := backends.Device{Kind: *flagPlugin}
	fmt.Println("Creating and destroying 10 clients: one at a time")
	for ii := range 10 {
		buf := must.M1(b.FromHost(tensors.FromFlatDataAndDimensions([]float64{7, 2, float64(ii)}, 3), device))
		host := must.M1(b.ToHost(buf))
		require.Equal(t, []float64{7, 2, float64(ii)}, host.Value())
		require.NoError(t, buf.(*pjrt.Buffer).Destroy())
		for range 10 {
			runtime.GC()
		}
		b.Finalize()
	}
}

func TestBuffers(t *testing.T) {
	b := newTestBackend(t)
	defer b.Finalize()
	device := backends.Device{Kind: *flagPlugin}

	x := must.M1(b.FromValue([][]int32{{1, 2, 3}, {4, 5, 6}}, device))
	require.True(t, b.Owns(x))
	shape := must.M1(b.Shape(x))
	require.Equal(t, dtypes.Int32, shape.DType)
	require.Equal(t, []int{2, 3}, shape.Dimensions)
	require.Equal(t, device, must.M1(b.Device(x)))
	require.Equal(t, [][]int32{{1, 2, 3}, {4, 5, 6}}, must.M1(b.ToHost(x)).Value())

	// Scalars and empty arrays.
	scalar := must.M1(b.FromValue(float32(3), device))
	require.Equal(t, float32(3), must.M1(b.ToHost(scalar)).Value())
	empty := must.M1(b.FromHost(tensors.Zeros(dtypes.Float32, 0, 2), device))
	require.Equal(t, 0, must.M1(b.Shape(empty)).Size())

	// Already on the device: returned as is.
	same := must.M1(b.ToDevice(x, device))
	require.True(t, same == x)

	_, err := b.FromValue([]float32{1}, backends.Device{Kind: *flagPlugin, Index: 1000})
	require.True(t, errors.Is(err, backends.ErrInvalidDevice))
	_, err = b.FromValue([]float32{1}, backends.MustParseDevice("nonexistent:0"))
	require.True(t, errors.Is(err, backends.ErrInvalidDevice))
	_, err = b.Shape("not a buffer")
	require.True(t, errors.Is(err, backends.ErrConversion))
}

func TestDevices(t *testing.T) {
	b := newTestBackend(t)
	defer b.Finalize()
	devices := b.Devices()
	require.NotEmpty(t, devices)
	require.Contains(t, devices, backends.Device{Kind: *flagPlugin, Index: 0})
	require.Equal(t, len(b.plugins) == 1 && b.plugins[0] == "cpu", backends.IsCPUOnly(b))
}
