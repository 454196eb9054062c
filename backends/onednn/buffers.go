// Copyright 2025-2026 The gondl Authors. SPDX-License-Identifier: Apache-2.0

//go:build (linux || darwin) && !noonednn

package onednn

import (
	"reflect"
	"runtime"
	"unsafe"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gondl/gondl/backends"
	"github.com/gondl/gondl/types/shapes"
	"github.com/pkg/errors"
)

// Compile-time check:
var _ backends.DataInterface = (*Backend)(nil)

// Buffer wraps an opaque oneDNN memory object. The library owns the bytes
// and the layout metadata; gondl only tracks the logical shape and the two
// native handles needed to operate on it.
type Buffer struct {
	shape shapes.Shape

	// mem is the dnnl_memory_t handle; desc its dnnl_memory_desc_t.
	// Both are owned by the Buffer and released by BufferFinalize.
	mem  uintptr
	desc uintptr
}

// castBuffer casts a backends.Buffer to a live onednn *Buffer.
func castBuffer(buffer backends.Buffer) (*Buffer, error) {
	buf, ok := buffer.(*Buffer)
	if !ok {
		return nil, errors.Wrapf(backends.ErrInvalidArgument, "buffer is not a %q backend buffer", BackendName)
	}
	if buf == nil || buf.mem == 0 {
		return nil, errors.Wrapf(backends.ErrInvalidArgument, "%q backend buffer was already finalized", BackendName)
	}
	return buf, nil
}

// plainDesc creates a dense row-major memory descriptor for the shape.
// The caller owns the returned descriptor.
func (b *Backend) plainDesc(shape shapes.Shape) (uintptr, error) {
	dataType, err := dataTypeForDType(shape.DType)
	if err != nil {
		return 0, err
	}
	tag, err := plainFormatTag(shape.Rank())
	if err != nil {
		return 0, err
	}
	dims := make([]int64, max(shape.Rank(), 1))
	dims[0] = 1
	for axis, dim := range shape.Dimensions {
		dims[axis] = int64(dim)
	}
	var desc uintptr
	status := b.lib.memoryDescCreateWithTag(&desc, int32(len(dims)), &dims[0], dataType, tag)
	if err := statusToError("dnnl_memory_desc_create_with_tag", status); err != nil {
		return 0, err
	}
	return desc, nil
}

// newBuffer allocates an opaque memory object for the shape, with the
// library owning the underlying bytes.
func (b *Backend) newBuffer(shape shapes.Shape) (*Buffer, error) {
	desc, err := b.plainDesc(shape)
	if err != nil {
		return nil, err
	}
	var mem uintptr
	if err := statusToError("dnnl_memory_create", b.lib.memoryCreate(&mem, desc, b.engine, memoryAllocate)); err != nil {
		_ = b.lib.memoryDescDestroy(desc)
		return nil, err
	}
	return &Buffer{shape: shape.Clone(), mem: mem, desc: desc}, nil
}

// BufferFinalize releases the native memory object and descriptor.
//
// A finalized buffer should never be used again. Preferably, the caller
// should set its references to it to nil.
func (b *Backend) BufferFinalize(backendBuffer backends.Buffer) error {
	b.AssertValid()
	buf, err := castBuffer(backendBuffer)
	if err != nil {
		return errors.WithMessage(err, "BufferFinalize")
	}
	memErr := statusToError("dnnl_memory_destroy", b.lib.memoryDestroy(buf.mem))
	descErr := statusToError("dnnl_memory_desc_destroy", b.lib.memoryDescDestroy(buf.desc))
	buf.mem = 0
	buf.desc = 0
	if memErr != nil {
		return memErr
	}
	return descErr
}

// BufferShape returns the shape for the buffer.
func (b *Backend) BufferShape(buffer backends.Buffer) (shapes.Shape, error) {
	buf, err := castBuffer(buffer)
	if err != nil {
		return shapes.Invalid(), err
	}
	return buf.shape, nil
}

// BufferDeviceNum returns the deviceNum for the buffer. The backend uses a
// single CPU engine, so it is always 0.
func (b *Backend) BufferDeviceNum(buffer backends.Buffer) (backends.DeviceNum, error) {
	if _, err := castBuffer(buffer); err != nil {
		return 0, err
	}
	return 0, nil
}

// checkFlat validates that flat is a slice of the Go type matching the
// shape's dtype with exactly shape.Size() elements, and returns its base
// pointer.
func checkFlat(flat any, shape shapes.Shape) (unsafe.Pointer, error) {
	flatV := reflect.ValueOf(flat)
	if flatV.Kind() != reflect.Slice {
		return nil, errors.Wrapf(backends.ErrInvalidArgument, "flat is not a slice, instead it is %T", flat)
	}
	if dtypes.FromGoType(flatV.Type().Elem()) != shape.DType {
		return nil, errors.Wrapf(backends.ErrInvalidArgument,
			"flat data type (%T) is incompatible with shape %s", flat, shape)
	}
	if flatV.Len() != shape.Size() {
		return nil, errors.Wrapf(backends.ErrInvalidArgument,
			"flat has %d elements, shape %s requires %d", flatV.Len(), shape, shape.Size())
	}
	return flatV.Index(0).Addr().UnsafePointer(), nil
}

// withUserMemory creates a temporary dense memory object wrapping the given
// host pointer, runs fn with it, and destroys it. The host memory is pinned
// for the duration.
func (b *Backend) withUserMemory(shape shapes.Shape, ptr unsafe.Pointer, fn func(desc, mem uintptr) error) error {
	desc, err := b.plainDesc(shape)
	if err != nil {
		return err
	}
	defer func() { _ = b.lib.memoryDescDestroy(desc) }()

	var pinner runtime.Pinner
	pinner.Pin(ptr)
	defer pinner.Unpin()

	var mem uintptr
	if err := statusToError("dnnl_memory_create", b.lib.memoryCreate(&mem, desc, b.engine, uintptr(ptr))); err != nil {
		return err
	}
	defer func() { _ = b.lib.memoryDestroy(mem) }()
	return fn(desc, mem)
}

// BufferToFlatData transfers the flat values of buffer to the Go flat array.
// The slice flat must have the exact number of elements required to store the Buffer shape.
//
// If the buffer's internal layout is not plain row-major, the native reorder
// primitive converts it on the way out.
func (b *Backend) BufferToFlatData(buffer backends.Buffer, flat any) error {
	b.AssertValid()
	buf, err := castBuffer(buffer)
	if err != nil {
		return err
	}
	ptr, err := checkFlat(flat, buf.shape)
	if err != nil {
		return errors.WithMessage(err, "BufferToFlatData")
	}
	return b.withUserMemory(buf.shape, ptr, func(hostDesc, hostMem uintptr) error {
		return b.reorderCopy(buf.desc, buf.mem, hostDesc, hostMem)
	})
}

// BufferFromFlatData transfers data from Go given as a flat slice (of the
// type corresponding to the shape DType) and returns the corresponding
// Buffer, stored in an opaque memory object owned by the native library.
func (b *Backend) BufferFromFlatData(deviceNum backends.DeviceNum, flat any, shape shapes.Shape) (backends.Buffer, error) {
	b.AssertValid()
	if deviceNum != 0 {
		return nil, errors.Wrapf(backends.ErrInvalidArgument,
			"backend %q only supports deviceNum 0, cannot create buffer on deviceNum %d (shape=%s)",
			BackendName, deviceNum, shape)
	}
	ptr, err := checkFlat(flat, shape)
	if err != nil {
		return nil, errors.WithMessage(err, "BufferFromFlatData")
	}
	buf, err := b.newBuffer(shape)
	if err != nil {
		return nil, err
	}
	err = b.withUserMemory(shape, ptr, func(hostDesc, hostMem uintptr) error {
		return b.reorderCopy(hostDesc, hostMem, buf.desc, buf.mem)
	})
	if err != nil {
		_ = b.BufferFinalize(buf)
		return nil, err
	}
	return buf, nil
}

// HasSharedBuffers returns false: oneDNN owns its buffers and their layout
// is opaque, so no direct host view is offered.
func (b *Backend) HasSharedBuffers() bool {
	return false
}

// NewSharedBuffer fails: the backend doesn't support shared buffers -- see
// HasSharedBuffers.
func (b *Backend) NewSharedBuffer(deviceNum backends.DeviceNum, shape shapes.Shape) (buffer backends.Buffer, flat any, err error) {
	return nil, nil, errors.Wrapf(backends.ErrNotSupported,
		"backend %q does not support shared buffers", BackendName)
}

// BufferData fails: the backend doesn't support shared buffers -- see
// HasSharedBuffers.
func (b *Backend) BufferData(buffer backends.Buffer) (flat any, err error) {
	return nil, errors.Wrapf(backends.ErrNotSupported,
		"backend %q does not support shared buffers", BackendName)
}
