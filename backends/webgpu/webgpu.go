// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package webgpu implements the arrayapi backend for arrays stored in WebGPU storage buffers, using the
// zero-CGO bindings of github.com/go-webgpu/webgpu.
//
// Arrays hold 32-bit elements: float32, int32 and uint32. Booleans are stored as uint32 0/1, and wider
// or narrower dtypes are converted to the 32-bit dtype of the same kind (float64 to float32, int64 to int32).
//
// Only the first adapter is used, as device "gpu" (or "gpu:0", "webgpu:0"). The WebGPU instance, adapter,
// device and queue are created on first use.
//
// Simply import it with import _ "github.com/gomlx/arrayapi/backends/webgpu" to make it available in your program.
// It will register itself as an available backend during initialization.
package webgpu

import (
	"fmt"
	"unsafe"

	"github.com/gomlx/arrayapi/backends"
	"github.com/gomlx/arrayapi/pkg/core/shapes"
	"github.com/gomlx/arrayapi/pkg/core/tensors"
	"github.com/gomlx/arrayapi/pkg/support/xsync"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// BackendName to be used in Get.
const BackendName = backends.WebGPUName

// ModulePath of the package defining Array.
const ModulePath = "github.com/gomlx/arrayapi/backends/webgpu"

// DeviceKind of the only supported device.
const DeviceKind = "gpu"

// elementSize in bytes of every stored dtype.
const elementSize = 4

func init() {
	backends.Register(BackendName, New)
	backends.RegisterAlias("cupy", BackendName)
	backends.RegisterArrayType((*Array)(nil), BackendName)
	backends.RegisterModulePath(ModulePath, BackendName)
}

// Array is an array stored in a WebGPU storage buffer.
type Array struct {
	shape  shapes.Shape
	buffer *deviceBuffer
}

// Shape of the array, with its stored dtype.
func (a *Array) Shape() shapes.Shape { return a.shape }

// Device where the array is stored.
func (a *Array) Device() backends.Device { return backends.Device{Kind: DeviceKind} }

// Release the GPU buffer. The array can no longer be used.
func (a *Array) Release() {
	if a.buffer != nil {
		a.buffer.release()
		a.buffer = nil
	}
}

// String implements fmt.Stringer.
func (a *Array) String() string {
	return fmt.Sprintf("webgpu.Array%s", a.shape)
}

// Backend implements backends.Backend for WebGPU arrays.
type Backend struct {
	gpu *xsync.Lazy[*gpu]
}

// New returns the webgpu backend. The WebGPU native library is only loaded when the first array is created.
func New() (backends.Backend, error) {
	return &Backend{gpu: xsync.NewLazy(newGPU)}, nil
}

var (
	_ backends.Backend   = (*Backend)(nil)
	_ backends.Finalizer = (*Backend)(nil)
	_ shapes.Shaped      = (*Array)(nil)
	_ backends.Placed    = (*Array)(nil)
)

// Name implements backends.Backend.
func (b *Backend) Name() string { return BackendName }

// Library implements backends.Backend.
func (b *Backend) Library() backends.Library { return backends.LibraryWebGPU }

// Description implements backends.Backend. It doesn't initialize the GPU.
func (b *Backend) Description() string {
	if !b.gpu.Initialized() {
		return "webgpu: 32 bits arrays in WebGPU storage buffers (not initialized)"
	}
	g, _ := b.gpu.Get()
	return fmt.Sprintf("webgpu: 32 bits arrays in WebGPU storage buffers on %s", g.description)
}

// ModulePath implements backends.Backend.
func (b *Backend) ModulePath() string { return ModulePath }

// Devices returns the "gpu:0" device, or nothing if WebGPU is not available.
func (b *Backend) Devices() []backends.Device {
	if _, err := b.gpu.Get(); err != nil {
		klog.Warningf("arrayapi: no devices for backend %q: %v", BackendName, err)
		return nil
	}
	return []backends.Device{{Kind: DeviceKind}}
}

// DTypes returns the stored dtypes.
func (b *Backend) DTypes() map[string]dtypes.DType {
	return backends.DTypesTable(dtypes.Float32, dtypes.Int32, dtypes.Uint32, dtypes.Bool)
}

// Sample implements backends.Backend.
func (b *Backend) Sample() (any, error) {
	return b.FromHost(tensors.FromFlatDataAndDimensions([]float32{1, 1}, 2), backends.Device{})
}

// Owns implements backends.Backend.
func (b *Backend) Owns(x any) bool {
	_, ok := x.(*Array)
	return ok
}

func castToArray(x any) (*Array, error) {
	a, ok := x.(*Array)
	if !ok || a == nil {
		return nil, errors.Wrapf(backends.ErrConversion, "%T is not a %q array", x, BackendName)
	}
	if a.buffer == nil {
		return nil, errors.Errorf("%s array already released", BackendName)
	}
	return a, nil
}

// Shape implements backends.Backend.
func (b *Backend) Shape(x any) (shapes.Shape, error) {
	a, err := castToArray(x)
	if err != nil {
		return shapes.Invalid(), err
	}
	return a.shape, nil
}

// Device implements backends.Backend.
func (b *Backend) Device(x any) (backends.Device, error) {
	a, err := castToArray(x)
	if err != nil {
		return backends.Device{}, err
	}
	return a.Device(), nil
}

// checkDevice accepts the zero Device, "gpu:0" and "webgpu:0".
func checkDevice(device backends.Device) error {
	if device.IsZero() || ((device.Kind == DeviceKind || device.Kind == BackendName) && device.Index == 0) {
		return nil
	}
	return errors.Wrapf(backends.ErrInvalidDevice, "%s only supports device %q, got %q",
		BackendName, backends.Device{Kind: DeviceKind}, device)
}

// ToHost reads the buffer back into a new tensor with the stored dtype.
func (b *Backend) ToHost(x any) (*tensors.Tensor, error) {
	a, err := castToArray(x)
	if err != nil {
		return nil, err
	}
	g, err := b.gpu.Get()
	if err != nil {
		return nil, err
	}
	data, err := g.download(a.buffer)
	if err != nil {
		return nil, errors.WithMessagef(err, "%s: ToHost(%s)", BackendName, a.shape)
	}
	return unpack(a.shape, data)
}

// FromHost uploads a copy of the tensor, converted to its stored dtype.
func (b *Backend) FromHost(t *tensors.Tensor, device backends.Device) (any, error) {
	if err := checkDevice(device); err != nil {
		return nil, err
	}
	shape, data, err := pack(t)
	if err != nil {
		return nil, err
	}
	g, err := b.gpu.Get()
	if err != nil {
		return nil, err
	}
	buffer, err := g.upload(data)
	if err != nil {
		return nil, errors.WithMessagef(err, "%s: FromHost(%s)", BackendName, t.Shape())
	}
	return &Array{shape: shape, buffer: buffer}, nil
}

// FromValue converts webgpu arrays (returned as is), host tensors, plain Go values and arrays exporting
// their buffer.
func (b *Backend) FromValue(v any, device backends.Device) (any, error) {
	switch x := v.(type) {
	case *Array:
		return b.ToDevice(x, device)
	case *tensors.Tensor:
		return b.FromHost(x, device)
	case backends.Exportable:
		ex, err := x.ExportBuffer()
		if err != nil {
			return nil, err
		}
		if err := ex.Validate(); err != nil {
			return nil, err
		}
		t, err := tensors.FromFlatData(ex.Flat, ex.Shape.Dimensions...)
		if err != nil {
			return nil, err
		}
		return b.FromHost(t, device)
	}
	if backends.IsPlainValue(v) {
		t, err := tensors.FromAnyValue(v)
		if err != nil {
			return nil, err
		}
		return b.FromHost(t, device)
	}
	return nil, errors.Wrapf(backends.ErrConversion, "%s can't convert %T", BackendName, v)
}

// ToDevice returns x, since there is only one device.
func (b *Backend) ToDevice(x any, device backends.Device) (any, error) {
	if err := checkDevice(device); err != nil {
		return nil, err
	}
	if _, err := castToArray(x); err != nil {
		return nil, err
	}
	return x, nil
}

// Finalize releases the WebGPU device. Arrays created before become invalid.
func (b *Backend) Finalize() {
	if g, wasInitialized := b.gpu.Reset(); wasInitialized && g != nil {
		g.release()
	}
}

// StorageDType returns the dtype used to store arrays of the given dtype.
func StorageDType(dtype dtypes.DType) (dtypes.DType, error) {
	switch dtype {
	case dtypes.Float32, dtypes.Float64, dtypes.Float16, dtypes.BFloat16:
		return dtypes.Float32, nil
	case dtypes.Int32, dtypes.Int64, dtypes.Int16, dtypes.Int8:
		return dtypes.Int32, nil
	case dtypes.Uint32, dtypes.Uint64, dtypes.Uint16, dtypes.Uint8:
		return dtypes.Uint32, nil
	case dtypes.Bool:
		return dtypes.Bool, nil
	}
	return dtypes.InvalidDType, errors.Wrapf(backends.ErrUnsupportedDType, "%s can't store dtype %s", BackendName, dtype)
}

// bufferSize in bytes for numElements: WebGPU buffers can't be empty, and are aligned to 4 bytes.
func bufferSize(numElements int) uint64 {
	return uint64(max(numElements, 1)) * elementSize
}

// pack returns the stored shape and the bytes to upload for t.
func pack(t *tensors.Tensor) (shape shapes.Shape, data []byte, err error) {
	storage, err := StorageDType(t.DType())
	if err != nil {
		return
	}
	if storage == dtypes.Bool {
		storage = dtypes.Uint32
	}
	converted := t
	if t.DType() != storage {
		converted, err = t.ConvertDType(storage)
		if err != nil {
			return
		}
	}
	data = make([]byte, bufferSize(t.Size()))
	converted.ConstFlatData(func(flat any) {
		copy(data, flatBytes(flat))
	})
	shape = t.Shape().WithDType(storage)
	if t.DType() == dtypes.Bool {
		shape = shape.WithDType(dtypes.Bool)
	}
	return shape, data, nil
}

// unpack decodes the downloaded bytes into a tensor of the given shape.
func unpack(shape shapes.Shape, data []byte) (*tensors.Tensor, error) {
	size := shape.Size()
	if len(data) < size*elementSize {
		return nil, errors.Errorf("%s: read %d bytes for shape %s", BackendName, len(data), shape)
	}
	wordsShape := shape
	if shape.DType == dtypes.Bool {
		wordsShape = shape.WithDType(dtypes.Uint32)
	}
	t := tensors.FromShape(wordsShape)
	t.MutableFlatData(func(flat any) {
		copy(flatBytes(flat), data)
	})
	if shape.DType == dtypes.Bool {
		return t.ConvertDType(dtypes.Bool)
	}
	return t, nil
}

// flatBytes returns the bytes backing a flat slice of 32 bits values, without copying.
func flatBytes(flat any) []byte {
	switch f := flat.(type) {
	case []float32:
		if len(f) > 0 {
			return unsafe.Slice((*byte)(unsafe.Pointer(&f[0])), len(f)*elementSize)
		}
	case []int32:
		if len(f) > 0 {
			return unsafe.Slice((*byte)(unsafe.Pointer(&f[0])), len(f)*elementSize)
		}
	case []uint32:
		if len(f) > 0 {
			return unsafe.Slice((*byte)(unsafe.Pointer(&f[0])), len(f)*elementSize)
		}
	}
	return nil
}
