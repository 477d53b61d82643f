// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

//go:build windows

package webgpu

import (
	"fmt"
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"
	"github.com/gomlx/arrayapi/backends"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// gpu holds the WebGPU objects of the first adapter.
type gpu struct {
	instance    *wgpu.Instance
	adapter     *wgpu.Adapter
	device      *wgpu.Device
	queue       *wgpu.Queue
	description string
}

// deviceBuffer is a storage buffer and its size in bytes.
type deviceBuffer struct {
	buffer *wgpu.Buffer
	size   uint64
}

func (buf *deviceBuffer) release() {
	buf.buffer.Release()
}

// newGPU creates the instance, adapter, device and queue.
// The bindings panic if the wgpu_native library is not found: that is converted to an error.
func newGPU() (g *gpu, err error) {
	defer func() {
		if r := recover(); r != nil {
			g = nil
			err = errors.Wrapf(backends.ErrBackendUnavailable, "%s: native library not available: %v", BackendName, r)
		}
	}()

	instance := wgpu.CreateInstance(nil)
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		instance.Release()
		return nil, errors.Wrapf(backends.ErrBackendUnavailable, "%s: failed to request adapter: %v", BackendName, err)
	}
	device, err := adapter.RequestDevice(nil)
	if err != nil {
		adapter.Release()
		instance.Release()
		return nil, errors.Wrapf(backends.ErrBackendUnavailable, "%s: failed to request device: %v", BackendName, err)
	}
	queue := device.GetQueue()
	if queue == nil {
		device.Release()
		adapter.Release()
		instance.Release()
		return nil, errors.Wrapf(backends.ErrBackendUnavailable, "%s: failed to get queue", BackendName)
	}
	info := adapter.GetInfo()
	g = &gpu{
		instance:    instance,
		adapter:     adapter,
		device:      device,
		queue:       queue,
		description: fmt.Sprintf("%s (%s)", info.Device, info.Vendor),
	}
	klog.V(1).Infof("arrayapi: initialized %s backend on %s", BackendName, g.description)
	return g, nil
}

// upload creates a storage buffer with a copy of data.
func (g *gpu) upload(data []byte) (*deviceBuffer, error) {
	size := uint64(len(data))
	buffer := g.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})
	if buffer == nil {
		return nil, errors.Errorf("failed to create buffer of %d bytes", size)
	}
	mapped := unsafe.Slice((*byte)(buffer.GetMappedRange(0, size)), size)
	copy(mapped, data)
	buffer.Unmap()
	return &deviceBuffer{buffer: buffer, size: size}, nil
}

// download copies the contents of the buffer to the host, through a staging buffer since storage
// buffers can't be mapped.
func (g *gpu) download(buf *deviceBuffer) ([]byte, error) {
	staging := g.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  buf.size,
	})
	defer staging.Release()

	encoder := g.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(buf.buffer, 0, staging, 0, buf.size)
	g.queue.Submit(encoder.Finish(nil))

	if err := staging.MapAsync(g.device, wgpu.MapModeRead, 0, buf.size); err != nil {
		return nil, errors.Wrap(err, "failed to map staging buffer")
	}
	mapped := unsafe.Slice((*byte)(staging.GetMappedRange(0, buf.size)), buf.size)
	result := make([]byte, buf.size)
	copy(result, mapped)
	staging.Unmap()
	return result, nil
}

func (g *gpu) release() {
	g.queue.Release()
	g.device.Release()
	g.adapter.Release()
	g.instance.Release()
}
