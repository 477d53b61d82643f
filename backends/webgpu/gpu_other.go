// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

//go:build !windows

package webgpu

import (
	"runtime"

	"github.com/gomlx/arrayapi/backends"
	"github.com/pkg/errors"
)

// gpu is never created on this platform.
type gpu struct {
	description string
}

type deviceBuffer struct{}

func (buf *deviceBuffer) release() {}

func newGPU() (*gpu, error) {
	return nil, errors.Wrapf(backends.ErrBackendUnavailable, "%s: WebGPU bindings not supported on %s",
		BackendName, runtime.GOOS)
}

func (g *gpu) upload([]byte) (*deviceBuffer, error) {
	return nil, errors.WithStack(backends.ErrBackendUnavailable)
}

func (g *gpu) download(*deviceBuffer) ([]byte, error) {
	return nil, errors.WithStack(backends.ErrBackendUnavailable)
}

func (g *gpu) release() {}
