// Copyright 2025-2026 The gondl Authors. SPDX-License-Identifier: Apache-2.0

package tensors

import (
	"reflect"

	"github.com/gomlx/exceptions"
	"github.com/gondl/gondl/backends"
	"github.com/pkg/errors"
)

// onDevice representation of a Tensor: an opaque buffer owned by a backend.
type onDevice struct {
	buffer    backends.Buffer
	deviceNum backends.DeviceNum
}

// FromBuffer creates a Tensor from a backend buffer. The tensor takes
// ownership of the buffer: it is finalized with the tensor.
func FromBuffer(backend backends.Backend, buffer backends.Buffer) *Tensor {
	shape, err := backend.BufferShape(buffer)
	if err != nil {
		panic(errors.WithMessage(err, "tensors.FromBuffer"))
	}
	deviceNum, err := backend.BufferDeviceNum(buffer)
	if err != nil {
		panic(errors.WithMessage(err, "tensors.FromBuffer"))
	}
	t := newTensor(shape)
	t.backend = backend
	t.onDevices[deviceNum] = &onDevice{buffer: buffer, deviceNum: deviceNum}
	return t
}

// checkBackend panics if the tensor is already attached to a different
// backend: a tensor's on-device representations all live in one backend.
func (t *Tensor) checkBackend(backend backends.Backend) {
	if backend == nil {
		exceptions.Panicf("backend is nil")
	}
	if t.backend != nil && t.backend != backend {
		exceptions.Panicf("tensor's on-device data is held by backend %q, cannot also use backend %q -- "+
			"transfer through the local representation instead (see Tensor.Clone)",
			t.backend.Name(), backend.Name())
	}
}

// Buffer returns the backend buffer with the tensor's data on the given
// device, materializing it (uploading the local data) if needed.
//
// The buffer remains owned by the tensor. Mutating it through the backend
// directly leaves the tensor's local representation stale -- prefer
// Tensor.CopyFrom or MutableFlatData.
func (t *Tensor) Buffer(backend backends.Backend, deviceNum ...backends.DeviceNum) backends.Buffer {
	t.AssertValid()
	device := backends.DeviceNum(0)
	if len(deviceNum) > 1 {
		exceptions.Panicf("Tensor.Buffer takes at most one deviceNum, got %v", deviceNum)
	} else if len(deviceNum) == 1 {
		device = deviceNum[0]
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.checkBackend(backend)
	t.lockedMaterializeOnDevice(backend, device)
	return t.onDevices[device].buffer
}

// MaterializeOnDevice makes sure the tensor has an on-device representation
// in the given backend (device 0), uploading the local data if needed.
func (t *Tensor) MaterializeOnDevice(backend backends.Backend) {
	_ = t.Buffer(backend)
}

// lockedMaterializeOnDevice implements MaterializeOnDevice. It must be called
// with t.mu held and after checkBackend.
//
// For backends with shared buffers the local representation is re-pointed to
// the new buffer's memory, so local and on-device become one allocation.
func (t *Tensor) lockedMaterializeOnDevice(backend backends.Backend, deviceNum backends.DeviceNum) {
	if _, found := t.onDevices[deviceNum]; found {
		return
	}
	t.lockedMaterializeLocal()
	if backend.HasSharedBuffers() && !t.isShared {
		buffer, flat, err := backend.NewSharedBuffer(deviceNum, t.shape)
		if err != nil {
			panic(errors.WithMessagef(err, "materializing tensor (shape %s) on device %d of backend %q",
				t.shape, deviceNum, backend.Name()))
		}
		reflect.Copy(reflect.ValueOf(flat), reflect.ValueOf(t.local.flat))
		t.local = &local{flat: flat}
		t.isShared = true
		t.backend = backend
		t.onDevices[deviceNum] = &onDevice{buffer: buffer, deviceNum: deviceNum}
		return
	}
	buffer, err := backend.BufferFromFlatData(deviceNum, t.local.flat, t.shape)
	if err != nil {
		panic(errors.WithMessagef(err, "materializing tensor (shape %s) on device %d of backend %q",
			t.shape, deviceNum, backend.Name()))
	}
	t.backend = backend
	t.onDevices[deviceNum] = &onDevice{buffer: buffer, deviceNum: deviceNum}
}

// MaterializeLocal makes sure the tensor has a local representation,
// downloading it from a device buffer if needed.
func (t *Tensor) MaterializeLocal() {
	t.AssertValid()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lockedMaterializeLocal()
}

// lockedMaterializeLocal implements MaterializeLocal. It must be called with
// t.mu held.
//
// For backends with shared buffers the local representation aliases the
// buffer's memory instead of copying it out.
func (t *Tensor) lockedMaterializeLocal() {
	if t.local != nil {
		return
	}
	var onDevice *onDevice
	for _, d := range t.onDevices {
		onDevice = d
		break
	}
	if onDevice == nil {
		exceptions.Panicf("tensor has no representation to materialize the local data from")
	}
	if t.backend.HasSharedBuffers() {
		flat, err := t.backend.BufferData(onDevice.buffer)
		if err != nil {
			panic(errors.WithMessagef(err, "materializing local data for tensor (shape %s) from backend %q",
				t.shape, t.backend.Name()))
		}
		t.local = &local{flat: flat}
		t.isShared = true
		return
	}
	flat := reflect.MakeSlice(reflect.SliceOf(t.shape.DType.GoType()), t.shape.Size(), t.shape.Size()).Interface()
	if err := t.backend.BufferToFlatData(onDevice.buffer, flat); err != nil {
		panic(errors.WithMessagef(err, "materializing local data for tensor (shape %s) from backend %q",
			t.shape, t.backend.Name()))
	}
	t.local = &local{flat: flat}
}

// InvalidateOnDevice finalizes all on-device representations of the tensor,
// materializing the local representation first so no data is lost.
func (t *Tensor) InvalidateOnDevice() {
	t.AssertValid()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lockedMaterializeLocal()
	t.lockedDetachLocal()
	t.lockedFinalizeOnDevices()
	t.backend = nil
}

// lockedDetachLocal replaces a local representation that aliases a shared
// buffer with an owned copy, so the buffer can be finalized without losing
// the data. It must be called with t.mu held.
func (t *Tensor) lockedDetachLocal() {
	if !t.isShared {
		return
	}
	owned := reflect.MakeSlice(reflect.SliceOf(t.shape.DType.GoType()), t.shape.Size(), t.shape.Size())
	reflect.Copy(owned, reflect.ValueOf(t.local.flat))
	t.local = &local{flat: owned.Interface()}
	t.isShared = false
}

// OnDeviceClone returns a deep copy of the tensor whose data lives on the
// given backend (device 0). The data is duplicated buffer-to-buffer with the
// backend's copy primitive, so it never needs to pass through host memory
// once both tensors are on the device.
func (t *Tensor) OnDeviceClone(backend backends.Backend) *Tensor {
	t.AssertValid()
	srcBuffer := t.Buffer(backend)
	clone := FromShape(t.shape)
	clone.MaterializeOnDevice(backend)
	if err := backend.BufferCopyInPlace(clone.Buffer(backend), srcBuffer, false); err != nil {
		panic(errors.WithMessage(err, "Tensor.OnDeviceClone"))
	}
	clone.mu.Lock()
	if !clone.isShared {
		// The local zeros don't reflect the copied buffer anymore.
		clone.local = nil
	}
	clone.mu.Unlock()
	return clone
}

// FinalizeLocal immediately frees the local representation. The tensor
// remains valid if it has an on-device representation.
func (t *Tensor) FinalizeLocal() {
	t.AssertValid()
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.onDevices) == 0 {
		exceptions.Panicf("cannot finalize the local representation, the tensor has no on-device data left")
	}
	t.local = nil
	t.isShared = false
}
