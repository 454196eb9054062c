// Copyright 2025-2026 The gondl Authors. SPDX-License-Identifier: Apache-2.0

package onednn

import (
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gondl/gondl/backends"
)

// Capabilities of the onednn backend: the dtypes oneDNN memory objects can
// hold. Notably there is no 16/64-bit integer support in the native library.
var Capabilities = backends.Capabilities{
	DTypes: map[dtypes.DType]bool{
		dtypes.Float16:  true,
		dtypes.BFloat16: true,
		dtypes.Float32:  true,
		dtypes.Float64:  true,
		dtypes.Int32:    true,
		dtypes.Int8:     true,
		dtypes.Uint8:    true,
	},
}
