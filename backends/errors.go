// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package backends

import "github.com/pkg/errors"

// Errors returned (wrapped) by arrayapi. Match them with errors.Is.
var (
	// ErrUnrecognizedBackend is returned by strict resolution of an array or module of an unknown library.
	ErrUnrecognizedBackend = errors.New("unrecognized array backend")

	// ErrInvalidName is returned when resolving a name that is not registered.
	ErrInvalidName = errors.New("invalid array backend name")

	// ErrAmbiguousNamespace is returned when arrays of different libraries are mixed.
	ErrAmbiguousNamespace = errors.New("arrays from different libraries")

	// ErrConversion is returned when no conversion strategy could convert an array.
	ErrConversion = errors.New("cannot convert array")

	// ErrInvalidDevice is returned for malformed devices or devices a library doesn't support.
	ErrInvalidDevice = errors.New("invalid device")

	// ErrBackendUnavailable is returned when the runtime of a library (PJRT plugin, GPU adapter) is not available.
	ErrBackendUnavailable = errors.New("array backend not available")

	// ErrUnsupportedDataObject is returned for labeled data containers that are not supported.
	ErrUnsupportedDataObject = errors.New("unsupported data object")

	// ErrUnsupportedDType is returned when a library can't represent a dtype.
	ErrUnsupportedDType = errors.New("unsupported dtype")

	// ErrUnsupportedShape is returned when a library can't represent a shape (e.g. gonum arrays of rank > 2).
	ErrUnsupportedShape = errors.New("unsupported shape")
)
