// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package backends

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Device identifies where an array is stored: a kind (e.g. "cpu", "cuda", "gpu", "mps") and an index
// among the devices of that kind.
//
// The zero Device means "the library's default device".
type Device struct {
	Kind  string
	Index int
}

// CPU is the host device.
var CPU = Device{Kind: "cpu"}

// ParseDevice parses device strings like "cpu", "cuda", "cuda:1" or "gpu:0".
// Only the prefix and the trailing index are interpreted, the meaning of the kind is up to each library.
// An empty string returns the zero Device.
func ParseDevice(device string) (Device, error) {
	device = strings.TrimSpace(device)
	if device == "" {
		return Device{}, nil
	}
	kind, indexStr, hasIndex := strings.Cut(device, ":")
	kind = strings.ToLower(kind)
	if kind == "" {
		return Device{}, errors.Wrapf(ErrInvalidDevice, "device %q has no kind", device)
	}
	d := Device{Kind: kind}
	if hasIndex {
		index, err := strconv.Atoi(indexStr)
		if err != nil || index < 0 {
			return Device{}, errors.Wrapf(ErrInvalidDevice, "device %q has an invalid index", device)
		}
		d.Index = index
	}
	return d, nil
}

// MustParseDevice is like ParseDevice, but panics on error.
func MustParseDevice(device string) Device {
	d, err := ParseDevice(device)
	if err != nil {
		panic(err)
	}
	return d
}

// IsZero reports whether d is the zero Device, that is, the library's default device.
func (d Device) IsZero() bool { return d.Kind == "" }

// IsCPU reports whether d is a host device.
func (d Device) IsCPU() bool { return d.Kind == CPU.Kind }

// String returns "<kind>:<index>", except for the first CPU, which is simply "cpu".
func (d Device) String() string {
	if d.IsZero() {
		return ""
	}
	if d.IsCPU() && d.Index == 0 {
		return d.Kind
	}
	return fmt.Sprintf("%s:%d", d.Kind, d.Index)
}
