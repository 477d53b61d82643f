// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package convert

import (
	"github.com/gomlx/arrayapi/backends"
	"github.com/pkg/errors"
)

// DefaultTarget returns the library to move arrays of source to when no library is given:
//
//   - "cpu": the host library.
//   - other devices: if source only has CPUs, the accelerator library (see backends.Accelerator),
//     otherwise source itself.
func DefaultTarget(source backends.Backend, device backends.Device) (backends.Backend, error) {
	if device.IsZero() {
		return source, nil
	}
	if device.IsCPU() {
		return backends.Get(backends.HostName)
	}
	if source.Library() == backends.LibraryHost || backends.IsCPUOnly(source) {
		accelerator, err := backends.Get(backends.Accelerator())
		if err != nil {
			return nil, errors.WithMessagef(err, "moving %s array to device %q", source.Name(), device)
		}
		return accelerator, nil
	}
	return source, nil
}

// ToDevice moves x to the device, given as a string like "cpu", "cuda:1" or "gpu".
//
// The target library is the first of library (a name, backends.Backend, *namespace.Namespace or
// backends.Module) if given, or else chosen by DefaultTarget.
func ToDevice(x any, device string, library ...any) (any, error) {
	if device == "" {
		return nil, errors.Wrap(backends.ErrInvalidDevice, "ToDevice requires a device")
	}
	if len(library) > 0 && library[0] != nil {
		return Convert(x, library[0], device)
	}
	return Convert(x, nil, device)
}
