// Copyright 2025-2026 The gondl Authors. SPDX-License-Identifier: Apache-2.0

// Package onednn implements a gondl backend whose buffers live in opaque
// memory objects managed by the oneDNN (formerly MKL-DNN) native library.
//
// Simply import it with import _ "github.com/gondl/gondl/backends/onednn" to
// make it available in your program. It will register itself as an available
// backend during initialization.
//
// oneDNN memory objects carry their own layout metadata (blocking scheme,
// format tag) that generic tensor code never interprets: all data movement,
// including the in-place copy between buffers of different internal layouts,
// is delegated to the library's reorder primitive.
//
// The native library is bound at runtime through purego (no cgo). Building
// with the "noonednn" tag, or on a platform without dynamic loading support,
// replaces the whole backend with a stub that keeps the same registration and
// call surface but fails every operation with backends.ErrNotSupported.
package onednn

import (
	"github.com/gondl/gondl/backends"
)

// BackendName to be used in GONDL_BACKEND to specify this backend.
const BackendName = "onednn"

// GONDL_DNNL_LIB is the environment variable naming the oneDNN shared
// library to load. If unset, the standard sonames are searched in the
// system's library path.
const GONDL_DNNL_LIB = "GONDL_DNNL_LIB"

// Registers New() as the constructor for the "onednn" backend.
// Which New gets linked in depends on the build: the real adapter on
// platforms with oneDNN support, the failing stub otherwise.
func init() {
	backends.Register(BackendName, New)
}
