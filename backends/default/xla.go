// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

//go:build (linux || darwin) && !noxla

// PJRT plugins are only loaded on linux and darwin.

package _default

import _ "github.com/gomlx/arrayapi/backends/xla"
