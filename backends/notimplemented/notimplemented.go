// Copyright 2025-2026 The gondl Authors. SPDX-License-Identifier: Apache-2.0

// Package notimplemented implements a backends.Backend that returns a
// "not implemented" error for every data operation.
//
// It can be embedded to bootstrap a new backend implementation, and it doubles
// as a mock backend for tests that only care about error propagation.
package notimplemented

import (
	"fmt"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gondl/gondl/backends"
	"github.com/gondl/gondl/types/shapes"
	"github.com/pkg/errors"
)

// NotImplementedError is returned by every method.
//
// It doesn't contain a stack; attach one with errors.Wrapf(NotImplementedError, "...") when using it.
var NotImplementedError = backends.ErrNotImplemented

// Backend is a dummy backend that can be embedded to create mock backends.
type Backend struct{}

var _ backends.Backend = Backend{}

// Name returns the short name of the backend.
func (b Backend) Name() string {
	return "notimplemented"
}

// String returns the same as Name.
func (b Backend) String() string {
	return b.Name()
}

// Description is a longer description of the Backend.
func (b Backend) Description() string {
	return "Not Implemented Backend (mock backend for testing)"
}

// NumDevices returns 1 as the number of devices available.
func (b Backend) NumDevices() backends.DeviceNum {
	return 1
}

// DeviceDescription returns a description of the device.
func (b Backend) DeviceDescription(deviceNum backends.DeviceNum) string {
	return fmt.Sprintf("Not Implemented Device %d", deviceNum)
}

// Capabilities returns empty capabilities.
func (b Backend) Capabilities() backends.Capabilities {
	return backends.Capabilities{
		DTypes: make(map[dtypes.DType]bool),
	}
}

// BufferFinalize returns NotImplementedError.
func (b Backend) BufferFinalize(buffer backends.Buffer) error {
	return errors.Wrapf(NotImplementedError, "in BufferFinalize()")
}

// BufferShape returns NotImplementedError.
func (b Backend) BufferShape(buffer backends.Buffer) (shapes.Shape, error) {
	return shapes.Invalid(), errors.Wrapf(NotImplementedError, "in BufferShape()")
}

// BufferDeviceNum returns NotImplementedError.
func (b Backend) BufferDeviceNum(buffer backends.Buffer) (backends.DeviceNum, error) {
	return 0, errors.Wrapf(NotImplementedError, "in BufferDeviceNum()")
}

// BufferToFlatData returns NotImplementedError.
func (b Backend) BufferToFlatData(buffer backends.Buffer, flat any) error {
	return errors.Wrapf(NotImplementedError, "in BufferToFlatData()")
}

// BufferFromFlatData returns NotImplementedError.
func (b Backend) BufferFromFlatData(
	deviceNum backends.DeviceNum,
	flat any,
	shape shapes.Shape,
) (backends.Buffer, error) {
	return nil, errors.Wrapf(NotImplementedError, "in BufferFromFlatData()")
}

// BufferCopyInPlace returns NotImplementedError.
func (b Backend) BufferCopyInPlace(dst, src backends.Buffer, nonBlocking bool) error {
	return errors.Wrapf(NotImplementedError, "in BufferCopyInPlace()")
}

// HasSharedBuffers returns false.
func (b Backend) HasSharedBuffers() bool {
	return false
}

// NewSharedBuffer returns NotImplementedError, as shared buffers are not supported.
func (b Backend) NewSharedBuffer(
	deviceNum backends.DeviceNum,
	shape shapes.Shape,
) (buffer backends.Buffer, flat any, err error) {
	return nil, nil, errors.Wrapf(NotImplementedError, "in NewSharedBuffer()")
}

// BufferData returns NotImplementedError.
func (b Backend) BufferData(buffer backends.Buffer) (flat any, err error) {
	return nil, errors.Wrapf(NotImplementedError, "in BufferData()")
}

// Finalize does nothing for this dummy backend.
func (b Backend) Finalize() {}

// IsFinalized always returns false for this dummy backend.
func (b Backend) IsFinalized() bool {
	return false
}
