// Copyright 2025-2026 The gondl Authors. SPDX-License-Identifier: Apache-2.0

package backends

import "github.com/gondl/gondl/types/shapes"

// Buffer represents actual tensor data stored by a backend.
// A Buffer is always associated to a DeviceNum, even if there is only one.
//
// It is opaque from gondl's perspective: for the onednn backend it wraps a
// native memory descriptor whose internal blocking/format is only meaningful
// to the native library. Generic code must not assume anything about its
// layout beyond what BufferShape reports.
type Buffer any

// DataInterface is the Backend's sub-interface that defines the API to
// create, inspect, transfer and copy Buffers for the backend.
type DataInterface interface {
	// BufferFinalize allows the client to inform backend that buffer is no longer needed and associated resources can be
	// freed immediately -- as opposed to waiting for a GC.
	//
	// A finalized buffer should never be used again. Preferably, the caller should set its references to it to nil.
	BufferFinalize(buffer Buffer) error

	// BufferShape returns the shape for the buffer.
	BufferShape(buffer Buffer) (shapes.Shape, error)

	// BufferDeviceNum returns the deviceNum for the buffer.
	BufferDeviceNum(buffer Buffer) (DeviceNum, error)

	// BufferToFlatData transfers the flat values of buffer to the Go flat array.
	// The slice flat must have the exact number of elements required to store the Buffer shape.
	//
	// See also BufferFromFlatData, BufferShape, and shapes.Shape.Size.
	BufferToFlatData(buffer Buffer, flat any) error

	// BufferFromFlatData transfers data from Go given as a flat slice (of the type corresponding to the shape DType)
	// to the deviceNum, and returns the corresponding Buffer.
	BufferFromFlatData(deviceNum DeviceNum, flat any, shape shapes.Shape) (Buffer, error)

	// BufferCopyInPlace overwrites dst's contents with src's contents, element
	// for element. Both buffers must belong to this backend and report
	// identical shapes; it fails with ErrInvalidArgument before any byte is
	// written otherwise. Internal layout differences between the two buffers
	// (e.g. blocking formats of an accelerated backend) are reconciled by the
	// backend's native copy primitive, never by the caller.
	//
	// The copy is synchronous: dst is fully updated when the call returns and
	// src is never modified. The call mutates dst's existing storage -- it
	// allocates and frees nothing, and dst's handle remains valid.
	//
	// nonBlocking is accepted for uniformity of the call surface across
	// backends; the backends in this repository always complete synchronously
	// regardless of its value.
	BufferCopyInPlace(dst, src Buffer, nonBlocking bool) error

	// HasSharedBuffers returns whether the backend supports "shared buffers": these are buffers
	// that can be used directly by the engine and have a local address that can be read or mutated
	// directly by the client.
	HasSharedBuffers() bool

	// NewSharedBuffer returns a "shared buffer" that can be directly read or
	// mutated by the client while remaining usable by the backend.
	//
	// It fails if the backend doesn't support shared buffers -- see HasSharedBuffers.
	//
	// When done, to release the memory, call BufferFinalize on the returned buffer.
	//
	// It returns a handle to the buffer and a flat slice of the corresponding
	// data type pointing to the shared data.
	NewSharedBuffer(deviceNum DeviceNum, shape shapes.Shape) (buffer Buffer, flat any, err error)

	// BufferData returns a slice pointing to the buffer storage memory directly.
	//
	// This only works if HasSharedBuffers is true, that is, if the backend engine runs on CPU, or
	// shares CPU memory.
	//
	// The returned slice becomes invalid after the buffer is destroyed.
	BufferData(buffer Buffer) (flat any, err error)
}
