// Copyright 2025-2026 The gondl Authors. SPDX-License-Identifier: Apache-2.0

//go:build (linux || darwin) && !noonednn

package onednn

import (
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gondl/gondl/backends"
	"github.com/gondl/gondl/types/shapes"
	"github.com/gondl/gondl/types/xslices"
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

// testBackend creates the backend, skipping the test if the native library is
// not installed on the machine running the tests.
func testBackend(t *testing.T) *Backend {
	if !IsAvailable() {
		t.Skipf("oneDNN shared library not found, set %s to enable these tests", GONDL_DNNL_LIB)
	}
	backend := New("").(*Backend)
	t.Cleanup(backend.Finalize)
	return backend
}

func TestBufferRoundtrip(t *testing.T) {
	backend := testBackend(t)
	shape := shapes.Make(dtypes.Float32, 3, 2)
	want := []float32{1, 2, 3, 4, 5, 6}
	buffer := must.M1(backend.BufferFromFlatData(0, want, shape))
	defer func() { require.NoError(t, backend.BufferFinalize(buffer)) }()

	require.True(t, shape.Equal(must.M1(backend.BufferShape(buffer))))
	require.Equal(t, backends.DeviceNum(0), must.M1(backend.BufferDeviceNum(buffer)))

	got := make([]float32, shape.Size())
	require.NoError(t, backend.BufferToFlatData(buffer, got))
	require.Equal(t, want, got)
}

func TestBufferRoundtripScalar(t *testing.T) {
	backend := testBackend(t)
	shape := shapes.Make(dtypes.Float64)
	buffer := must.M1(backend.BufferFromFlatData(0, []float64{13}, shape))
	defer func() { require.NoError(t, backend.BufferFinalize(buffer)) }()
	got := make([]float64, 1)
	require.NoError(t, backend.BufferToFlatData(buffer, got))
	require.Equal(t, []float64{13}, got)
}

func TestBufferCopyInPlace(t *testing.T) {
	backend := testBackend(t)
	shape := shapes.Make(dtypes.Float32, 2, 3)
	srcData := xslices.Iota(float32(1), shape.Size())
	dstData := xslices.Iota(float32(100), shape.Size())
	src := must.M1(backend.BufferFromFlatData(0, srcData, shape))
	dst := must.M1(backend.BufferFromFlatData(0, dstData, shape))
	defer func() {
		require.NoError(t, backend.BufferFinalize(src))
		require.NoError(t, backend.BufferFinalize(dst))
	}()

	require.NoError(t, backend.BufferCopyInPlace(dst, src, false))

	got := make([]float32, shape.Size())
	require.NoError(t, backend.BufferToFlatData(dst, got))
	require.Equal(t, srcData, got)

	// The source must not have been touched.
	require.NoError(t, backend.BufferToFlatData(src, got))
	require.Equal(t, srcData, got)
}

func TestBufferCopyInPlaceShapeMismatch(t *testing.T) {
	backend := testBackend(t)
	src := must.M1(backend.BufferFromFlatData(0, xslices.Iota(int32(0), 6), shapes.Make(dtypes.Int32, 2, 3)))
	dstData := xslices.Iota(int32(100), 8)
	dst := must.M1(backend.BufferFromFlatData(0, dstData, shapes.Make(dtypes.Int32, 2, 4)))
	defer func() {
		require.NoError(t, backend.BufferFinalize(src))
		require.NoError(t, backend.BufferFinalize(dst))
	}()

	err := backend.BufferCopyInPlace(dst, src, false)
	require.True(t, errors.Is(err, backends.ErrInvalidArgument), "got error %+v", err)

	// Destination contents must be intact after the failed copy.
	got := make([]int32, 8)
	require.NoError(t, backend.BufferToFlatData(dst, got))
	require.Equal(t, dstData, got)
}

func TestBufferCopyInPlaceNonBlocking(t *testing.T) {
	// The nonBlocking flag must not change the outcome in any way.
	backend := testBackend(t)
	shape := shapes.Make(dtypes.Float32, 5)
	srcData := xslices.Iota(float32(1), shape.Size())
	src := must.M1(backend.BufferFromFlatData(0, srcData, shape))
	defer func() { require.NoError(t, backend.BufferFinalize(src)) }()

	for _, nonBlocking := range []bool{false, true} {
		dst := must.M1(backend.BufferFromFlatData(0, make([]float32, shape.Size()), shape))
		require.NoError(t, backend.BufferCopyInPlace(dst, src, nonBlocking))
		got := make([]float32, shape.Size())
		require.NoError(t, backend.BufferToFlatData(dst, got))
		require.Equal(t, srcData, got, "nonBlocking=%v", nonBlocking)
		require.NoError(t, backend.BufferFinalize(dst))
	}
}

func TestBufferFromFlatDataErrors(t *testing.T) {
	backend := testBackend(t)
	shape := shapes.Make(dtypes.Float32, 2)

	_, err := backend.BufferFromFlatData(1, []float32{1, 2}, shape)
	require.True(t, errors.Is(err, backends.ErrInvalidArgument), "got error %+v", err)

	_, err = backend.BufferFromFlatData(0, []float64{1, 2}, shape)
	require.True(t, errors.Is(err, backends.ErrInvalidArgument), "got error %+v", err)

	_, err = backend.BufferFromFlatData(0, []float32{1, 2, 3}, shape)
	require.True(t, errors.Is(err, backends.ErrInvalidArgument), "got error %+v", err)
}

func TestSharedBuffersNotSupported(t *testing.T) {
	backend := testBackend(t)
	require.False(t, backend.HasSharedBuffers())
	_, _, err := backend.NewSharedBuffer(0, shapes.Make(dtypes.Float32, 2))
	require.True(t, errors.Is(err, backends.ErrNotSupported), "got error %+v", err)
	_, err = backend.BufferData(nil)
	require.True(t, errors.Is(err, backends.ErrNotSupported), "got error %+v", err)
}

func TestPlainFormatTag(t *testing.T) {
	for rank, want := range map[int]int32{0: 2, 1: 2, 2: 3, 3: 4, 6: 7} {
		got, err := plainFormatTag(rank)
		require.NoError(t, err)
		require.Equal(t, want, got, "rank %d", rank)
	}
	_, err := plainFormatTag(7)
	require.True(t, errors.Is(err, backends.ErrInvalidArgument))
}
