// Copyright 2025-2026 The gondl Authors. SPDX-License-Identifier: Apache-2.0

// Package tensors implements a `Tensor`, a multi-dimensional array of values
// of a fixed data type (see dtypes.DType).
//
// A Tensor has up to two representations at any time, kept in sync lazily:
//
//   - local: a flat Go slice in row-major order, directly accessible.
//   - on-device: an opaque backends.Buffer owned by a backend (see
//     backends.Backend), whose internal layout the tensor never interprets.
//
// Conversions between the two happen on demand and are cached. For backends
// with shared buffers (see backends.DataInterface.HasSharedBuffers) the two
// representations are one allocation and stay in sync for free; otherwise
// mutating one representation invalidates the other.
//
// The tensors API panics on errors, in the style of exceptions.Panicf: the
// panic values are Go errors wrapping the typed sentinels in backends
// (backends.ErrInvalidArgument, backends.ErrNotSupported, ...), so callers
// that need to handle them programmatically can recover and inspect with
// errors.Is -- see exceptions.TryCatch.
package tensors

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gondl/gondl/backends"
	"github.com/gondl/gondl/types/shapes"
	"k8s.io/klog/v2"
)

// Tensor represents a multi-dimensional array of one of the supported dtypes.
//
// It can have a local (host Go slice) and an on-device (backend buffer)
// representation. The creation and device<->local transfers are lazy.
//
// Tensor is not thread-safe for concurrent mutation, but concurrent reads of
// materialized representations are fine.
type Tensor struct {
	shape shapes.Shape

	mu sync.Mutex

	// local representation, nil if not materialized locally.
	local *local

	// isShared indicates local.flat aliases the memory of a shared backend
	// buffer (see backends.DataInterface.NewSharedBuffer): local and
	// on-device are then one allocation, and local mutations are directly
	// visible to the backend.
	isShared bool

	// backend that owns the on-device representations, nil if none.
	backend   backends.Backend
	onDevices map[backends.DeviceNum]*onDevice
}

// newTensor returns a Tensor without any representation materialized yet.
func newTensor(shape shapes.Shape) *Tensor {
	if !shape.Ok() {
		exceptions.Panicf("cannot create tensor from invalid shape %s", shape)
	}
	return &Tensor{
		shape:     shape.Clone(),
		onDevices: make(map[backends.DeviceNum]*onDevice),
	}
}

// Shape of the tensor.
func (t *Tensor) Shape() shapes.Shape {
	t.AssertValid()
	return t.shape
}

// DType of the tensor's shape.
func (t *Tensor) DType() dtypes.DType {
	t.AssertValid()
	return t.shape.DType
}

// Rank of the tensor's shape.
func (t *Tensor) Rank() int {
	t.AssertValid()
	return t.shape.Rank()
}

// Size returns the number of elements of the tensor.
func (t *Tensor) Size() int {
	t.AssertValid()
	return t.shape.Size()
}

// Memory returns the number of bytes used to store the tensor data.
func (t *Tensor) Memory() uintptr {
	t.AssertValid()
	return t.shape.Memory()
}

// Ok returns whether the tensor is valid: neither nil nor finalized, and with
// at least one usable representation.
func (t *Tensor) Ok() bool {
	if t == nil || !t.shape.Ok() {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.local != nil || len(t.onDevices) > 0
}

// AssertValid panics if the tensor is nil, finalized, or has no
// representation left.
func (t *Tensor) AssertValid() {
	if t == nil {
		exceptions.Panicf("tensor is nil")
	}
	if !t.shape.Ok() {
		exceptions.Panicf("tensor shape is invalid, has it been finalized?")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.local == nil && len(t.onDevices) == 0 {
		exceptions.Panicf("tensor has no local or on-device representation left, was its data finalized?")
	}
}

// maxStringValues is the largest tensor Size for which String prints values.
const maxStringValues = 16

// String prints the shape and, for small tensors, the values.
func (t *Tensor) String() string {
	if t == nil || !t.shape.Ok() {
		return "Tensor<finalized or invalid>"
	}
	if t.Size() > maxStringValues {
		return fmt.Sprintf("Tensor(%s)", t.shape)
	}
	var sb strings.Builder
	_, _ = fmt.Fprintf(&sb, "Tensor(%s):", t.shape)
	t.ConstFlatData(func(flat any) {
		flatV := reflect.ValueOf(flat)
		for ii := 0; ii < flatV.Len(); ii++ {
			_, _ = fmt.Fprintf(&sb, " %v", flatV.Index(ii).Interface())
		}
	})
	return sb.String()
}

// IsFinalized returns true if the tensor has already been "finalized", and
// its data freed.
func (t *Tensor) IsFinalized() bool {
	return t == nil || !t.Ok()
}

// FinalizeAll immediately frees the local and all on-device representations,
// and makes the tensor invalid.
func (t *Tensor) FinalizeAll() {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lockedFinalizeOnDevices()
	t.local = nil
	t.backend = nil
	t.shape = shapes.Invalid()
}

// lockedFinalizeOnDevices frees every on-device buffer. It must be called
// with t.mu held. If the local representation aliased a shared buffer, it is
// dropped along with the buffer that owned its memory.
func (t *Tensor) lockedFinalizeOnDevices() {
	for deviceNum, onDevice := range t.onDevices {
		if err := t.backend.BufferFinalize(onDevice.buffer); err != nil {
			klog.Warningf("Failure while finalizing tensor buffer on device %d: %+v", deviceNum, err)
		}
		delete(t.onDevices, deviceNum)
	}
	if t.isShared {
		t.local = nil
		t.isShared = false
	}
}
