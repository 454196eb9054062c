// Copyright 2025-2026 The gondl Authors. SPDX-License-Identifier: Apache-2.0

package tensors

import (
	"reflect"
	"unsafe"

	"github.com/gondl/gondl/backends"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// CopyFrom overwrites the tensor's values with src's values, element for
// element, and returns the tensor itself. Both tensors must have identical
// shapes (dimensions and dtype): on mismatch it panics with an error wrapping
// backends.ErrInvalidArgument before either tensor is touched.
//
// When both tensors hold a buffer on the same device of the same backend, the
// copy is delegated to the backend's copy primitive, which reconciles any
// internal layout difference between the buffers without going through host
// memory. Otherwise the copy goes through the local representation.
//
// The copy always completes before CopyFrom returns. The nonBlocking flag is
// accepted for API uniformity and has no effect on the result: it is forwarded
// to the backend, but the backends in this repository complete synchronously
// regardless.
func (t *Tensor) CopyFrom(src *Tensor, nonBlocking bool) *Tensor {
	t.AssertValid()
	src.AssertValid()
	if t == src {
		return t
	}
	if !t.shape.Equal(src.shape) {
		panic(errors.Wrapf(backends.ErrInvalidArgument,
			"Tensor.CopyFrom only supports tensors with the same shape, got dst=%s and src=%s",
			t.shape, src.shape))
	}

	// Lock both tensors in address order.
	first, second := t, src
	if uintptr(unsafe.Pointer(src)) < uintptr(unsafe.Pointer(t)) {
		first, second = src, t
	}
	first.mu.Lock()
	defer first.mu.Unlock()
	second.mu.Lock()
	defer second.mu.Unlock()

	// Fast path: both tensors hold a buffer on the same device of the same
	// backend.
	if t.backend != nil && t.backend == src.backend {
		for deviceNum, dstOn := range t.onDevices {
			srcOn, found := src.onDevices[deviceNum]
			if !found {
				continue
			}
			if err := t.backend.BufferCopyInPlace(dstOn.buffer, srcOn.buffer, nonBlocking); err != nil {
				panic(errors.WithMessage(err, "Tensor.CopyFrom"))
			}
			// The other representations of the destination are now stale. A
			// shared local aliases the buffer just written, so it stays.
			if !t.isShared {
				t.local = nil
			}
			for otherNum, other := range t.onDevices {
				if otherNum == deviceNum {
					continue
				}
				if err := t.backend.BufferFinalize(other.buffer); err != nil {
					klog.Warningf("Failure while finalizing stale tensor buffer on device %d: %+v", otherNum, err)
				}
				delete(t.onDevices, otherNum)
			}
			return t
		}
	}

	// General path, through the local representation.
	src.lockedMaterializeLocal()
	if t.local == nil {
		if len(t.onDevices) > 0 {
			t.lockedMaterializeLocal()
		} else {
			t.local = &local{
				flat: reflect.MakeSlice(reflect.SliceOf(t.shape.DType.GoType()), t.shape.Size(), t.shape.Size()).Interface(),
			}
		}
	}
	reflect.Copy(reflect.ValueOf(t.local.flat), reflect.ValueOf(src.local.flat))
	if !t.isShared {
		// Writing a shared local already updated the backend buffer; a plain
		// local leaves any on-device representation stale.
		t.lockedFinalizeOnDevices()
		t.backend = nil
	}
	return t
}
