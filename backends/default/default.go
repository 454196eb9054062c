// Copyright 2025-2026 The gondl Authors. SPDX-License-Identifier: Apache-2.0

// Package _default includes the default backends available in gondl.
//
// Importing it (with import _ "github.com/gondl/gondl/backends/default")
// registers both the pure Go "go" backend and the "onednn" backend. On
// platforms where the oneDNN native library cannot be bound, the "onednn"
// registration resolves to a stub whose operations fail with
// backends.ErrNotSupported, so the import is always safe.
//
// Use GONDL_BACKEND to select which backend to use at runtime.
package _default

import (
	_ "github.com/gondl/gondl/backends/gohost"
	_ "github.com/gondl/gondl/backends/onednn"
)
