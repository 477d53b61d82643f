// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package backends defines the interface an array library needs to implement to be used by arrayapi,
// the registry of the available libraries, and the resolution of arrays, names and modules to them.
//
// Each supported library lives in its own sub-package (host, gonum, xla, webgpu) and registers itself
// during initialization. Include them all with:
//
//	import _ "github.com/gomlx/arrayapi/backends/default"
//
// Backends are process-wide singletons, constructed lazily on the first Get.
package backends

import (
	"github.com/gomlx/arrayapi/pkg/core/shapes"
	"github.com/gomlx/arrayapi/pkg/core/tensors"
	"github.com/gomlx/gopjrt/dtypes"
)

// Backend describes one array library: its identity, devices and dtypes, and how its arrays are
// inspected and moved to and from the host representation (*tensors.Tensor).
//
// Arrays are passed around as `any`: each backend only accepts the array types it Owns.
type Backend interface {
	// Name returns the tag of the library, e.g. "xla". For the builtin libraries it is Library().String().
	Name() string

	// Library returns the Library enum of the backend, LibraryUnknown for user registered libraries.
	Library() Library

	// Description is a longer description of the Backend that can be used to pretty-print.
	Description() string

	// ModulePath returns the Go import path of the library package, e.g. "gonum.org/v1/gonum/mat".
	ModulePath() string

	// Devices lists the devices currently available to the library.
	Devices() []Device

	// DTypes returns the dtypes supported by the library, indexed by their lower-case name.
	DTypes() map[string]dtypes.DType

	// Sample returns a small array of the library (two ones), useful for tests and diagnostics.
	Sample() (any, error)

	// Owns reports whether x is an array of this library.
	Owns(x any) bool

	// Shape returns the shape of an array of this library.
	Shape(x any) (shapes.Shape, error)

	// Device returns the device holding an array of this library.
	Device(x any) (Device, error)

	// ToHost copies (or shares, when possible) an array of this library into a host tensor.
	ToHost(x any) (*tensors.Tensor, error)

	// FromHost creates an array of this library from a host tensor, on the given device.
	// The zero Device selects the library's default device.
	FromHost(t *tensors.Tensor, device Device) (any, error)

	// FromValue creates an array of this library from any value it understands: its own arrays (returned
	// unchanged if already on the device), host tensors, Go slices and scalars.
	FromValue(v any, device Device) (any, error)

	// ToDevice moves an array of this library to the given device.
	ToDevice(x any, device Device) (any, error)
}

// Constructor creates a Backend. It is called at most once successfully per registered name.
type Constructor func() (Backend, error)

// Tolerance configures closeness tests: |x-y| <= ATol + RTol*|y|.
type Tolerance struct {
	RTol, ATol float64

	// EqualNaN makes NaN values close to each other.
	EqualNaN bool
}

// Polyvaler is implemented by backends with a native polynomial evaluation:
// c[0] + c[1]*x + ... + c[n]*x^n.
type Polyvaler interface {
	Polyval(x any, c []float64) (any, error)
}

// Percentiler is implemented by backends with a native percentile, interpolating linearly between ranks.
type Percentiler interface {
	Percentile(a any, q float64, axis ...int) (any, error)
}

// Histogrammer is implemented by backends with a native multidimensional histogram.
type Histogrammer interface {
	HistogramDD(sample any, bins ...int) (hist any, edges []any, err error)
}

// IsCloser is implemented by backends with a native element-wise closeness test.
type IsCloser interface {
	IsClose(x, y any, tol Tolerance) (any, error)
}

// Signer is implemented by backends with a native sign function that propagates NaNs.
type Signer interface {
	Sign(x any) (any, error)
}

// Finalizer is implemented by backends holding resources (clients, GPU devices) that can be released.
type Finalizer interface {
	Finalize()
}
