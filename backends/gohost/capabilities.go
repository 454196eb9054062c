// Copyright 2025-2026 The gondl Authors. SPDX-License-Identifier: Apache-2.0

package gohost

import (
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gondl/gondl/backends"
)

// Capabilities of the gohost backend: it can store any dtype with a Go
// representation.
var Capabilities = backends.Capabilities{
	DTypes: map[dtypes.DType]bool{
		dtypes.Bool:     true,
		dtypes.Int8:     true,
		dtypes.Int16:    true,
		dtypes.Int32:    true,
		dtypes.Int64:    true,
		dtypes.Uint8:    true,
		dtypes.Uint16:   true,
		dtypes.Uint32:   true,
		dtypes.Uint64:   true,
		dtypes.Float16:  true,
		dtypes.BFloat16: true,
		dtypes.Float32:  true,
		dtypes.Float64:  true,
	},
}
