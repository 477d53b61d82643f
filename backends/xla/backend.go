// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package xla

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"sync"
	"unsafe"

	"github.com/gomlx/arrayapi/backends"
	"github.com/gomlx/arrayapi/pkg/core/shapes"
	"github.com/gomlx/arrayapi/pkg/core/tensors"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/gopjrt/pjrt"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Backend implements backends.Backend for PJRT buffers.
type Backend struct {
	plugins []string

	mu      sync.Mutex
	clients map[string]*pluginClient
}

var (
	_ backends.Backend   = (*Backend)(nil)
	_ backends.Finalizer = (*Backend)(nil)
)

// Name implements backends.Backend.
func (b *Backend) Name() string { return BackendName }

// Library implements backends.Backend.
func (b *Backend) Library() backends.Library { return backends.LibraryXLA }

// Description is a longer description of the Backend that can be used to pretty-print.
func (b *Backend) Description() string {
	return fmt.Sprintf("%s: PJRT buffers, plugins %s", BackendName, strings.Join(b.plugins, ", "))
}

// ModulePath implements backends.Backend.
func (b *Backend) ModulePath() string { return ModulePath }

// Devices lists the addressable devices of every available plugin, creating their clients if needed.
// Plugins that fail to create a client are skipped.
func (b *Backend) Devices() []backends.Device {
	var devices []backends.Device
	for _, pluginName := range b.plugins {
		pc, err := b.clientFor(pluginName)
		if err != nil {
			klog.Warningf("arrayapi: skipping devices of PJRT plugin %q: %v", pluginName, err)
			continue
		}
		for ii := range pc.client.AddressableDevices() {
			devices = append(devices, backends.Device{Kind: pluginName, Index: ii})
		}
	}
	return devices
}

// DTypes implements backends.Backend.
func (b *Backend) DTypes() map[string]dtypes.DType {
	return backends.DTypesTable(backends.HostDTypes...)
}

// Sample returns two Float32 ones on the default device.
func (b *Backend) Sample() (any, error) {
	return b.FromHost(tensors.FromFlatDataAndDimensions([]float32{1, 1}, 2), backends.Device{})
}

// Owns implements backends.Backend.
func (b *Backend) Owns(x any) bool {
	_, ok := x.(*pjrt.Buffer)
	return ok
}

// castToPJRT casts x to a *pjrt.Buffer.
func castToPJRT(x any) (*pjrt.Buffer, error) {
	buf, ok := x.(*pjrt.Buffer)
	if !ok || buf == nil {
		return nil, errors.Wrapf(backends.ErrConversion, "%T is not a %q backend (pjrt) buffer", x, BackendName)
	}
	return buf, nil
}

// Shape returns the shape of the buffer.
func (b *Backend) Shape(x any) (shapes.Shape, error) {
	buf, err := castToPJRT(x)
	if err != nil {
		return shapes.Invalid(), err
	}
	dtype, err := buf.DType()
	if err != nil {
		return shapes.Invalid(), errors.WithMessagef(err, "backend %q", BackendName)
	}
	dims, err := buf.Dimensions()
	if err != nil {
		return shapes.Invalid(), errors.WithMessagef(err, "backend %q", BackendName)
	}
	return shapes.Make(dtype, dims...), nil
}

// Device returns the device holding the buffer, named after the plugin of its client.
func (b *Backend) Device(x any) (backends.Device, error) {
	buf, err := castToPJRT(x)
	if err != nil {
		return backends.Device{}, err
	}
	device, err := buf.Device()
	if err != nil {
		return backends.Device{}, errors.WithMessagef(err, "backend %q", BackendName)
	}
	client := buf.Client()
	num := client.NumForDevice(device)
	if num == -1 {
		return backends.Device{}, errors.Errorf("backend %q: pjrt buffer stored on an unknown device", BackendName)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for name, pc := range b.clients {
		if pc.client == client {
			return backends.Device{Kind: name, Index: num}, nil
		}
	}
	return backends.Device{}, errors.Errorf("backend %q: pjrt buffer from a client not created by arrayapi", BackendName)
}

// ToHost transfers the buffer values to a new host tensor.
func (b *Backend) ToHost(x any) (*tensors.Tensor, error) {
	shape, err := b.Shape(x)
	if err != nil {
		return nil, err
	}
	buf, _ := castToPJRT(x)
	t := tensors.FromShape(shape)
	if shape.Size() == 0 {
		return t, nil
	}
	t.MutableFlatData(func(flat any) {
		flatV := reflect.ValueOf(flat)
		element0 := flatV.Index(0)
		flatValuesPtr := element0.Addr().UnsafePointer()
		sizeBytes := uintptr(flatV.Len()) * element0.Type().Size()

		var pinner runtime.Pinner
		pinner.Pin(buf)
		pinner.Pin(flatValuesPtr)
		defer pinner.Unpin()
		dst := unsafe.Slice((*byte)(flatValuesPtr), sizeBytes)
		err = buf.ToHost(dst)
	})
	if err != nil {
		return nil, errors.WithMessagef(err, "backend %q: ToHost", BackendName)
	}
	return t, nil
}

// FromHost transfers the tensor values to a new buffer on the device.
func (b *Backend) FromHost(t *tensors.Tensor, device backends.Device) (any, error) {
	pc, deviceNum, err := b.resolveDevice(device)
	if err != nil {
		return nil, err
	}
	var buffer *pjrt.Buffer
	t.ConstFlatData(func(flat any) {
		buffer, err = pc.client.BufferFromHost().
			FromFlatDataWithDimensions(flat, t.Shape().Dimensions).
			ToDeviceNum(deviceNum).
			Done()
	})
	if err != nil {
		return nil, errors.WithMessagef(err, "backend %q: FromHost(%s) to %q", BackendName, t.Shape(), device)
	}
	return buffer, nil
}

// FromValue converts buffers (moved to the device if needed), host tensors, plain Go values and arrays
// exporting their buffer.
func (b *Backend) FromValue(v any, device backends.Device) (any, error) {
	switch x := v.(type) {
	case *pjrt.Buffer:
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

// ToDevice returns x if it's already on the device, otherwise it copies it through the host.
func (b *Backend) ToDevice(x any, device backends.Device) (any, error) {
	current, err := b.Device(x)
	if err != nil {
		return nil, err
	}
	if device.IsZero() || device == current ||
		(DeviceKindAliases[device.Kind] == current.Kind && device.Index == current.Index) {
		return x, nil
	}
	t, err := b.ToHost(x)
	if err != nil {
		return nil, err
	}
	return b.FromHost(t, device)
}

// Finalize destroys the clients created so far. The backend creates new ones if used again.
func (b *Backend) Finalize() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for name, pc := range b.clients {
		if err := pc.client.Destroy(); err != nil {
			klog.Warningf("Failure while destroying PJRT client for plugin %q: %+v", name, err)
		}
	}
	clear(b.clients)
}
