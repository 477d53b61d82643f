// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package backends

// Library identifies an array library supported by arrayapi.
//
// Its string form (see LibraryString) is the tag the library is registered under.
type Library int

//go:generate go tool enumer -type=Library -trimprefix=Library -transform=lower -json -text -output=gen_library_enumer.go library.go

const (
	// LibraryUnknown is any array library not known to arrayapi: its arrays are handled through the
	// Shaped and Exportable protocols only.
	LibraryUnknown Library = iota

	// LibraryHost is the reference CPU implementation: tensors.Tensor, Go slices and scalars.
	LibraryHost

	// LibraryGonum is gonum.org/v1/gonum/mat: *mat.Dense and *mat.VecDense.
	LibraryGonum

	// LibraryXLA is the XLA JIT compiled accelerator through PJRT plugins: *pjrt.Buffer.
	LibraryXLA

	// LibraryWebGPU is the WebGPU backed GPU library: *webgpu.Array.
	LibraryWebGPU
)

// Names of the builtin backends, matching Library.String.
const (
	HostName   = "host"
	GonumName  = "gonum"
	XLAName    = "xla"
	WebGPUName = "webgpu"
)
