// Copyright 2025-2026 The gondl Authors. SPDX-License-Identifier: Apache-2.0

package gohost

import (
	"reflect"
	"sync"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gondl/gondl/backends"
	"github.com/gondl/gondl/types/shapes"
	"github.com/pkg/errors"
)

// Compile-time check:
var _ backends.DataInterface = (*Backend)(nil)

// Buffer for the gohost backend holds a shape and a reference to the flat
// data, a row-major slice of the shape's dtype.
type Buffer struct {
	shape shapes.Shape
	valid bool

	// flat is always a slice of the underlying data type (shape.DType).
	flat any
}

type bufferPoolKey struct {
	dtype  dtypes.DType
	length int
}

// getBufferPool for given dtype/length.
func (b *Backend) getBufferPool(dtype dtypes.DType, length int) *sync.Pool {
	key := bufferPoolKey{dtype: dtype, length: length}
	poolInterface, ok := b.bufferPools.Load(key)
	if !ok {
		poolInterface, _ = b.bufferPools.LoadOrStore(key, &sync.Pool{
			New: func() any {
				return &Buffer{
					flat:  reflect.MakeSlice(reflect.SliceOf(dtype.GoType()), length, length).Interface(),
					shape: shapes.Make(dtype, length),
				}
			},
		})
	}
	return poolInterface.(*sync.Pool)
}

// getBuffer from the backend pool of buffers.
func (b *Backend) getBuffer(dtype dtypes.DType, length int) *Buffer {
	pool := b.getBufferPool(dtype, length)
	buf := pool.Get().(*Buffer)
	buf.valid = true
	return buf
}

// putBuffer back into the backend pool of buffers.
// After this any references to buffer should be dropped.
func (b *Backend) putBuffer(buffer *Buffer) {
	if buffer == nil || !buffer.shape.Ok() {
		return
	}
	buffer.valid = false
	pool := b.getBufferPool(buffer.shape.DType, buffer.shape.Size())
	pool.Put(buffer)
}

// copyFlat assumes both flat slices are of the same underlying type.
func copyFlat(flatDst, flatSrc any) {
	reflect.Copy(reflect.ValueOf(flatDst), reflect.ValueOf(flatSrc))
}

// checkFlat validates that flat is a slice of the Go type matching the
// shape's dtype with exactly shape.Size() elements.
func checkFlat(flat any, shape shapes.Shape) error {
	flatV := reflect.ValueOf(flat)
	if flatV.Kind() != reflect.Slice {
		return errors.Wrapf(backends.ErrInvalidArgument, "flat is not a slice, instead it is %T", flat)
	}
	if dtypes.FromGoType(flatV.Type().Elem()) != shape.DType {
		return errors.Wrapf(backends.ErrInvalidArgument,
			"flat data type (%T) is incompatible with shape %s", flat, shape)
	}
	if flatV.Len() != shape.Size() {
		return errors.Wrapf(backends.ErrInvalidArgument,
			"flat has %d elements, shape %s requires %d", flatV.Len(), shape, shape.Size())
	}
	return nil
}

// castBuffer casts a backends.Buffer to a live gohost *Buffer.
func castBuffer(buffer backends.Buffer) (*Buffer, error) {
	buf, ok := buffer.(*Buffer)
	if !ok {
		return nil, errors.Wrapf(backends.ErrInvalidArgument, "buffer is not a %q backend buffer", BackendName)
	}
	if buf == nil || buf.flat == nil || !buf.shape.Ok() || !buf.valid {
		return nil, errors.Wrapf(backends.ErrInvalidArgument, "%q backend buffer was already finalized", BackendName)
	}
	return buf, nil
}

// NewBuffer creates a buffer with a newly allocated (or pooled) flat space.
func (b *Backend) NewBuffer(shape shapes.Shape) *Buffer {
	buffer := b.getBuffer(shape.DType, shape.Size())
	buffer.shape = shape.Clone()
	return buffer
}

// BufferFinalize allows the client to inform backend that buffer is no longer needed and associated resources can be
// freed immediately.
//
// A finalized buffer should never be used again. Preferably, the caller should set its references to it to nil.
func (b *Backend) BufferFinalize(backendBuffer backends.Buffer) error {
	buffer, err := castBuffer(backendBuffer)
	if err != nil {
		return errors.WithMessage(err, "BufferFinalize")
	}
	b.putBuffer(buffer)
	return nil
}

// BufferShape returns the shape for the buffer.
func (b *Backend) BufferShape(buffer backends.Buffer) (shapes.Shape, error) {
	buf, err := castBuffer(buffer)
	if err != nil {
		return shapes.Invalid(), err
	}
	return buf.shape, nil
}

// BufferDeviceNum returns the deviceNum for the buffer. Host memory is always
// device 0.
func (b *Backend) BufferDeviceNum(buffer backends.Buffer) (backends.DeviceNum, error) {
	if _, err := castBuffer(buffer); err != nil {
		return 0, err
	}
	return 0, nil
}

// BufferToFlatData transfers the flat values of the buffer to the Go flat array.
// The slice flat must have the exact number of elements required to store the backends.Buffer shape.
func (b *Backend) BufferToFlatData(backendBuffer backends.Buffer, flat any) error {
	buf, err := castBuffer(backendBuffer)
	if err != nil {
		return err
	}
	if err := checkFlat(flat, buf.shape); err != nil {
		return errors.WithMessage(err, "BufferToFlatData")
	}
	copyFlat(flat, buf.flat)
	return nil
}

// BufferFromFlatData transfers data from Go given as a flat slice (of the type corresponding to the shape DType)
// to the deviceNum, and returns the corresponding backends.Buffer.
func (b *Backend) BufferFromFlatData(deviceNum backends.DeviceNum, flat any, shape shapes.Shape) (backends.Buffer, error) {
	if deviceNum != 0 {
		return nil, errors.Wrapf(backends.ErrInvalidArgument,
			"backend %q only supports deviceNum 0, cannot create buffer on deviceNum %d (shape=%s)",
			BackendName, deviceNum, shape)
	}
	if err := checkFlat(flat, shape); err != nil {
		return nil, errors.WithMessage(err, "BufferFromFlatData")
	}
	buffer := b.NewBuffer(shape)
	copyFlat(buffer.flat, flat)
	return buffer, nil
}

// HasSharedBuffers returns true: gohost buffers live in host memory and can
// be read or mutated directly by the client.
func (b *Backend) HasSharedBuffers() bool {
	return true
}

// NewSharedBuffer returns a buffer that can be both held by a tensor and
// directly read or mutated by the client.
//
// When done, to release the memory, call BufferFinalize on the returned buffer.
//
// It returns a handle to the buffer and a slice of the corresponding data type
// pointing to the shared data.
func (b *Backend) NewSharedBuffer(deviceNum backends.DeviceNum, shape shapes.Shape) (buffer backends.Buffer, flat any, err error) {
	if deviceNum != 0 {
		return nil, nil, errors.Wrapf(backends.ErrInvalidArgument,
			"backend %q only supports deviceNum 0, cannot create buffer on deviceNum %d (shape=%s)",
			BackendName, deviceNum, shape)
	}
	goBuffer := b.NewBuffer(shape)
	return goBuffer, goBuffer.flat, nil
}

// BufferData returns a slice pointing to the buffer storage memory directly.
//
// The returned slice becomes invalid after the buffer is destroyed.
func (b *Backend) BufferData(buffer backends.Buffer) (flat any, err error) {
	buf, err := castBuffer(buffer)
	if err != nil {
		return nil, err
	}
	return buf.flat, nil
}
