// Copyright 2025-2026 The gondl Authors. SPDX-License-Identifier: Apache-2.0

//go:build (linux || darwin) && !noonednn

package onednn

import (
	"fmt"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gondl/gondl/backends"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Backend implements backends.Backend on top of the oneDNN native library.
//
// It holds one CPU engine and one in-order stream; every native call made on
// behalf of a buffer operation is submitted to that stream and waited on
// before returning, so all operations are synchronous from the caller's
// perspective.
type Backend struct {
	lib    *library
	engine uintptr
	stream uintptr
}

var _ backends.Backend = (*Backend)(nil)

// New returns a Backend using the config as a configuration.
// The config string, if not empty, is the path of the oneDNN shared library
// to load.
//
// It panics if the native library cannot be loaded or is too old -- use
// IsAvailable to probe first.
func New(config string) backends.Backend {
	lib, err := loadLibrary(config)
	if err != nil {
		panic(errors.WithMessagef(err, "backend %q", BackendName))
	}
	var engine uintptr
	if err := statusToError("dnnl_engine_create", lib.engineCreate(&engine, engineKindCPU, 0)); err != nil {
		panic(errors.WithMessagef(err, "backend %q", BackendName))
	}
	var stream uintptr
	if err := statusToError("dnnl_stream_create", lib.streamCreate(&stream, engine, streamDefaultFlags)); err != nil {
		_ = lib.engineDestroy(engine)
		panic(errors.WithMessagef(err, "backend %q", BackendName))
	}
	return &Backend{lib: lib, engine: engine, stream: stream}
}

// AssertValid panics if the backend is not valid: if it's nil or has already
// been finalized.
func (b *Backend) AssertValid() {
	if b == nil {
		exceptions.Panicf("%q backend is nil", BackendName)
	}
	if b.engine == 0 {
		exceptions.Panicf("%q backend's engine is nil, has it already been finalized?", BackendName)
	}
}

// Name returns the short name of the backend.
func (b *Backend) Name() string {
	return BackendName
}

// String implements fmt.Stringer.
func (b *Backend) String() string { return BackendName }

// Description is a longer description of the Backend that can be used to pretty-print.
func (b *Backend) Description() string {
	b.AssertValid()
	return fmt.Sprintf("%s - oneDNN %s (%s)", BackendName, b.lib.version, b.lib.path)
}

// NumDevices returns the number of CPU engines the native library reports.
func (b *Backend) NumDevices() backends.DeviceNum {
	b.AssertValid()
	return backends.DeviceNum(b.lib.engineGetCount(engineKindCPU))
}

// Capabilities returns information about what is supported by this backend.
func (b *Backend) Capabilities() backends.Capabilities {
	return Capabilities.Clone()
}

// Finalize releases the engine and stream immediately, and makes the backend
// invalid. Buffers created by the backend must be finalized beforehand.
func (b *Backend) Finalize() {
	if b == nil || b.engine == 0 {
		return
	}
	if b.stream != 0 {
		if err := statusToError("dnnl_stream_destroy", b.lib.streamDestroy(b.stream)); err != nil {
			klog.Warningf("Failure while destroying oneDNN stream: %+v", err)
		}
		b.stream = 0
	}
	if err := statusToError("dnnl_engine_destroy", b.lib.engineDestroy(b.engine)); err != nil {
		klog.Warningf("Failure while destroying oneDNN engine: %+v", err)
	}
	b.engine = 0
}

// dataTypeForDType maps a gondl dtype to the dnnl_data_type_t enum.
func dataTypeForDType(dtype dtypes.DType) (int32, error) {
	switch dtype {
	case dtypes.Float16:
		return 1, nil // dnnl_f16
	case dtypes.BFloat16:
		return 2, nil // dnnl_bf16
	case dtypes.Float32:
		return 3, nil // dnnl_f32
	case dtypes.Int32:
		return 4, nil // dnnl_s32
	case dtypes.Int8:
		return 5, nil // dnnl_s8
	case dtypes.Uint8:
		return 6, nil // dnnl_u8
	case dtypes.Float64:
		return 7, nil // dnnl_f64
	default:
		return 0, errors.Wrapf(backends.ErrInvalidArgument,
			"dtype %s is not supported by the %q backend", dtype, BackendName)
	}
}

// plainFormatTag returns the dnnl_format_tag_t for a dense row-major layout
// of the given rank: dnnl_a, dnnl_ab, dnnl_abc, ... Scalars are stored as a
// single-element rank-1 buffer.
func plainFormatTag(rank int) (int32, error) {
	if rank == 0 {
		rank = 1
	}
	if rank > 6 {
		return 0, errors.Wrapf(backends.ErrInvalidArgument,
			"rank %d is beyond the maximum (6) supported by the %q backend", rank, BackendName)
	}
	// dnnl_format_tag_undef=0, dnnl_format_tag_any=1, dnnl_a=2, dnnl_ab=3, ...
	return int32(rank + 1), nil
}
