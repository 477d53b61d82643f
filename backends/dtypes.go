// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package backends

import (
	"strings"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
)

// HostDTypes are the dtypes with a Go representation, all supported by the host library.
var HostDTypes = []dtypes.DType{
	dtypes.Bool,
	dtypes.Int8, dtypes.Int16, dtypes.Int32, dtypes.Int64,
	dtypes.Uint8, dtypes.Uint16, dtypes.Uint32, dtypes.Uint64,
	dtypes.Float16, dtypes.BFloat16, dtypes.Float32, dtypes.Float64,
}

// DTypeName returns the lower-case name of the dtype, e.g. "float32".
func DTypeName(dtype dtypes.DType) string {
	return strings.ToLower(dtype.String())
}

// DTypesTable returns the table of the given dtypes indexed by DTypeName.
func DTypesTable(list ...dtypes.DType) map[string]dtypes.DType {
	table := make(map[string]dtypes.DType, len(list))
	for _, dtype := range list {
		table[DTypeName(dtype)] = dtype
	}
	return table
}

// DType returns the dtype of the backend with the given name (case-insensitive).
// It returns an error wrapping ErrUnsupportedDType if the backend doesn't support it.
func DType(backend Backend, name string) (dtypes.DType, error) {
	dtype, found := backend.DTypes()[strings.ToLower(name)]
	if !found {
		return dtypes.InvalidDType, errors.Wrapf(ErrUnsupportedDType, "%s doesn't support dtype %q", backend.Name(), name)
	}
	return dtype, nil
}

// CheckDType returns an error wrapping ErrUnsupportedDType if the backend doesn't support dtype.
func CheckDType(backend Backend, dtype dtypes.DType) error {
	_, err := DType(backend, DTypeName(dtype))
	return err
}
