// Copyright 2025-2026 The gondl Authors. SPDX-License-Identifier: Apache-2.0

package gohost

import (
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gondl/gondl/backends"
	"github.com/gondl/gondl/types/shapes"
	"github.com/gondl/gondl/types/xslices"
	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/require"
)

func readFlat[T dtypes.Supported](t *testing.T, b *Backend, buffer backends.Buffer) []T {
	shape := must.M1(b.BufferShape(buffer))
	flat := make([]T, shape.Size())
	require.NoError(t, b.BufferToFlatData(buffer, flat))
	return flat
}

func TestBufferCopyInPlace(t *testing.T) {
	b := New("").(*Backend)
	shape := shapes.Make(dtypes.Float32, 2, 3)
	dst := must.M1(b.BufferFromFlatData(0, make([]float32, shape.Size()), shape))
	src := must.M1(b.BufferFromFlatData(0, xslices.FillSlice(make([]float32, shape.Size()), 1), shape))

	require.NoError(t, b.BufferCopyInPlace(dst, src, false))
	require.Equal(t, []float32{1, 1, 1, 1, 1, 1}, readFlat[float32](t, b, dst))

	// Source is left untouched.
	require.Equal(t, []float32{1, 1, 1, 1, 1, 1}, readFlat[float32](t, b, src))

	// Idempotence: copying again yields the same final state.
	require.NoError(t, b.BufferCopyInPlace(dst, src, false))
	require.Equal(t, []float32{1, 1, 1, 1, 1, 1}, readFlat[float32](t, b, dst))
}

func TestBufferCopyInPlaceShapeMismatch(t *testing.T) {
	b := New("").(*Backend)
	dstValues := xslices.Iota(float32(0), 6)
	dst := must.M1(b.BufferFromFlatData(0, dstValues, shapes.Make(dtypes.Float32, 2, 3)))
	src := must.M1(b.BufferFromFlatData(0, xslices.FillSlice(make([]float32, 6), 100), shapes.Make(dtypes.Float32, 3, 2)))

	err := b.BufferCopyInPlace(dst, src, false)
	require.ErrorIs(t, err, backends.ErrInvalidArgument)

	// No partial write: dst keeps its original contents.
	require.Equal(t, xslices.Iota(float32(0), 6), readFlat[float32](t, b, dst))
}

func TestBufferCopyInPlaceDTypeMismatch(t *testing.T) {
	b := New("").(*Backend)
	dst := must.M1(b.BufferFromFlatData(0, make([]float32, 4), shapes.Make(dtypes.Float32, 4)))
	src := must.M1(b.BufferFromFlatData(0, make([]float64, 4), shapes.Make(dtypes.Float64, 4)))
	require.ErrorIs(t, b.BufferCopyInPlace(dst, src, false), backends.ErrInvalidArgument)
}

func TestBufferCopyInPlaceNonBlockingInvariance(t *testing.T) {
	b := New("").(*Backend)
	shape := shapes.Make(dtypes.Int64, 5)
	src := must.M1(b.BufferFromFlatData(0, xslices.Iota(int64(1), 5), shape))
	for _, nonBlocking := range []bool{false, true} {
		dst := must.M1(b.BufferFromFlatData(0, make([]int64, 5), shape))
		require.NoError(t, b.BufferCopyInPlace(dst, src, nonBlocking))
		require.Equal(t, xslices.Iota(int64(1), 5), readFlat[int64](t, b, dst))
	}
}

func TestBufferCopyInPlaceFinalizedBuffer(t *testing.T) {
	b := New("").(*Backend)
	shape := shapes.Make(dtypes.Float32, 2)
	dst := must.M1(b.BufferFromFlatData(0, []float32{1, 2}, shape))
	src := must.M1(b.BufferFromFlatData(0, []float32{3, 4}, shape))
	require.NoError(t, b.BufferFinalize(src))
	require.ErrorIs(t, b.BufferCopyInPlace(dst, src, false), backends.ErrInvalidArgument)
	require.Equal(t, []float32{1, 2}, readFlat[float32](t, b, dst))
}
