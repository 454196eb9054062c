// Copyright 2025-2026 The gondl Authors. SPDX-License-Identifier: Apache-2.0

//go:build noonednn || !(linux || darwin)

package onednn

import (
	"github.com/gondl/gondl/backends"
	"github.com/gondl/gondl/types/shapes"
	"github.com/pkg/errors"
)

// errNotCompiled is returned by every operation of the stub backend. It wraps
// backends.ErrNotSupported so callers can test with errors.Is.
var errNotCompiled = errors.Wrap(backends.ErrNotSupported,
	"gondl compiled without oneDNN support, rebuild without the noonednn tag on a supported platform")

// IsAvailable always returns false in builds without oneDNN support.
func IsAvailable() bool { return false }

// New returns the stub version of the backend: it registers under the usual
// name, but every operation fails with backends.ErrNotSupported. This keeps
// programs that merely import the backend linking and running on platforms
// where the native library cannot be used.
func New(config string) backends.Backend {
	return stubBackend{}
}

type stubBackend struct{}

var _ backends.Backend = stubBackend{}

func (stubBackend) Name() string        { return BackendName }
func (stubBackend) String() string      { return BackendName }
func (stubBackend) Description() string { return BackendName + " - compiled without oneDNN support" }

func (stubBackend) NumDevices() backends.DeviceNum { return 0 }

func (stubBackend) Capabilities() backends.Capabilities { return Capabilities.Clone() }

func (stubBackend) Finalize() {}

// The data methods fail unconditionally, before looking at any argument:
// there is no native library behind them to validate anything against.

func (stubBackend) BufferFinalize(buffer backends.Buffer) error {
	return errNotCompiled
}

func (stubBackend) BufferShape(buffer backends.Buffer) (shapes.Shape, error) {
	return shapes.Invalid(), errNotCompiled
}

func (stubBackend) BufferDeviceNum(buffer backends.Buffer) (backends.DeviceNum, error) {
	return 0, errNotCompiled
}

func (stubBackend) BufferToFlatData(buffer backends.Buffer, flat any) error {
	return errNotCompiled
}

func (stubBackend) BufferFromFlatData(deviceNum backends.DeviceNum, flat any, shape shapes.Shape) (backends.Buffer, error) {
	return nil, errNotCompiled
}

func (stubBackend) BufferCopyInPlace(dst, src backends.Buffer, nonBlocking bool) error {
	return errNotCompiled
}

func (stubBackend) HasSharedBuffers() bool { return false }

func (stubBackend) NewSharedBuffer(deviceNum backends.DeviceNum, shape shapes.Shape) (backends.Buffer, any, error) {
	return nil, nil, errNotCompiled
}

func (stubBackend) BufferData(buffer backends.Buffer) (any, error) {
	return nil, errNotCompiled
}
