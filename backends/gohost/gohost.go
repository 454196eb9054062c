// Copyright 2025-2026 The gondl Authors. SPDX-License-Identifier: Apache-2.0

// Package gohost implements the plain strided host-memory backend for gondl.
//
// Buffers are flat Go slices of the shape's dtype, laid out row-major. It is
// always available and serves as the reference implementation of the
// backends.DataInterface contract.
package gohost

import (
	"sync"

	"github.com/gondl/gondl/backends"
)

// BackendName to be used in GONDL_BACKEND to specify this backend.
const BackendName = "go"

// Registers New() as the default constructor for the "go" backend.
func init() {
	backends.Register(BackendName, New)
}

// New constructs a new gohost Backend.
// There are no configurations, the string is simply ignored.
func New(_ string) backends.Backend {
	return &Backend{}
}

// Backend implements the backends.Backend interface with plain host memory.
type Backend struct {
	// bufferPools are a map to pools of buffers that can be reused.
	// The underlying type is map[bufferPoolKey]*sync.Pool.
	bufferPools sync.Map
}

// Compile-time check that gohost.Backend implements backends.Backend.
var _ backends.Backend = &Backend{}

// Name returns the short name of the backend.
func (b *Backend) Name() string {
	return BackendName
}

// String implements fmt.Stringer.
func (b *Backend) String() string { return BackendName }

// Description is a longer description of the Backend that can be used to pretty-print.
func (b *Backend) Description() string {
	return "Plain Go host-memory backend"
}

// NumDevices returns the number of devices available for this Backend.
// Host memory is a single device.
func (b *Backend) NumDevices() backends.DeviceNum {
	return 1
}

// Capabilities returns information about what is supported by this backend.
func (b *Backend) Capabilities() backends.Capabilities {
	return Capabilities.Clone()
}

// Finalize releases all the associated resources immediately, and makes the backend invalid.
func (b *Backend) Finalize() {}
