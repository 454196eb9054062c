// Copyright 2025-2026 The gondl Authors. SPDX-License-Identifier: Apache-2.0

package backends

import (
	"maps"

	"github.com/gomlx/gopjrt/dtypes"
)

// Capabilities holds mappings of what is supported by a backend.
type Capabilities struct {
	// DTypes lists the data types the backend can store.
	// If not listed, it's assumed to be false, hence not supported.
	DTypes map[dtypes.DType]bool
}

// HasCapabilities is implemented by backends that can report their
// Capabilities. All backends in this repository do.
type HasCapabilities interface {
	Capabilities() Capabilities
}

// Clone makes a deep copy of the Capabilities.
func (c Capabilities) Clone() Capabilities {
	var c2 Capabilities
	c2.DTypes = make(map[dtypes.DType]bool, len(c.DTypes))
	maps.Copy(c2.DTypes, c.DTypes)
	return c2
}
