// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package backends

import (
	"encoding/json"
	"testing"

	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDevice(t *testing.T) {
	for _, tc := range []struct {
		input string
		want  Device
		str   string
	}{
		{"cpu", CPU, "cpu"},
		{"cpu:0", CPU, "cpu"},
		{"CUDA:1", Device{Kind: "cuda", Index: 1}, "cuda:1"},
		{"gpu", Device{Kind: "gpu"}, "gpu:0"},
		{"mps:2", Device{Kind: "mps", Index: 2}, "mps:2"},
		{"", Device{}, ""},
	} {
		d := must.M1(ParseDevice(tc.input))
		assert.Equal(t, tc.want, d, "ParseDevice(%q)", tc.input)
		assert.Equal(t, tc.str, d.String())
	}
	require.True(t, Device{}.IsZero())

	for _, bad := range []string{":1", "cuda:x", "cuda:-1"} {
		_, err := ParseDevice(bad)
		require.Error(t, err, "ParseDevice(%q)", bad)
		require.True(t, errors.Is(err, ErrInvalidDevice))
	}
	require.Panics(t, func() { _ = MustParseDevice("gpu:one") })
}

func TestLibraryEnum(t *testing.T) {
	require.Equal(t, []string{"unknown", "host", "gonum", "xla", "webgpu"}, LibraryStrings())
	for _, lib := range LibraryValues() {
		parsed := must.M1(LibraryString(lib.String()))
		require.Equal(t, lib, parsed)
		require.True(t, lib.IsALibrary())
	}
	lib := must.M1(LibraryString("WebGPU"))
	require.Equal(t, LibraryWebGPU, lib)
	_, err := LibraryString("numpy")
	require.Error(t, err)

	data := must.M1(json.Marshal(LibraryXLA))
	require.Equal(t, `"xla"`, string(data))
	var decoded Library
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, LibraryXLA, decoded)
	require.Equal(t, "Library(17)", Library(17).String())
}

func TestCheckCPUDevice(t *testing.T) {
	backend := NewUnknown("example.com/arrays")
	require.NoError(t, CheckCPUDevice(backend, Device{}))
	require.NoError(t, CheckCPUDevice(backend, CPU))
	err := CheckCPUDevice(backend, Device{Kind: "cuda"})
	require.True(t, errors.Is(err, ErrInvalidDevice))
}
