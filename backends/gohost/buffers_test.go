// Copyright 2025-2026 The gondl Authors. SPDX-License-Identifier: Apache-2.0

package gohost

import (
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gondl/gondl/backends"
	"github.com/gondl/gondl/types/shapes"
	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"
)

func TestBufferRoundTrip(t *testing.T) {
	b := New("").(*Backend)
	shape := shapes.Make(dtypes.Float32, 2, 3)
	values := []float32{0, 1, 2, 3, 4, 11}

	buffer := must.M1(b.BufferFromFlatData(0, values, shape))
	gotShape := must.M1(b.BufferShape(buffer))
	require.True(t, shape.Equal(gotShape))
	require.Equal(t, backends.DeviceNum(0), must.M1(b.BufferDeviceNum(buffer)))

	flat := make([]float32, shape.Size())
	require.NoError(t, b.BufferToFlatData(buffer, flat))
	require.Equal(t, values, flat)

	require.NoError(t, b.BufferFinalize(buffer))
	require.Error(t, b.BufferToFlatData(buffer, flat))
}

func TestBufferFromFlatDataErrors(t *testing.T) {
	b := New("").(*Backend)
	shape := shapes.Make(dtypes.Float32, 2)

	_, err := b.BufferFromFlatData(1, []float32{1, 2}, shape)
	require.ErrorIs(t, err, backends.ErrInvalidArgument)

	_, err = b.BufferFromFlatData(0, []float64{1, 2}, shape)
	require.ErrorIs(t, err, backends.ErrInvalidArgument)

	_, err = b.BufferFromFlatData(0, []float32{1, 2, 3}, shape)
	require.ErrorIs(t, err, backends.ErrInvalidArgument)

	_, err = b.BufferFromFlatData(0, "not a slice", shape)
	require.ErrorIs(t, err, backends.ErrInvalidArgument)
}

func TestBufferToFlatDataErrors(t *testing.T) {
	b := New("").(*Backend)
	shape := shapes.Make(dtypes.Float32, 3)
	buffer := must.M1(b.BufferFromFlatData(0, []float32{1, 2, 3}, shape))

	// Wrong length, wrong dtype, and non-slice targets all fail without
	// writing anything.
	require.ErrorIs(t, b.BufferToFlatData(buffer, make([]float32, 2)), backends.ErrInvalidArgument)
	require.ErrorIs(t, b.BufferToFlatData(buffer, make([]float64, 3)), backends.ErrInvalidArgument)
	require.ErrorIs(t, b.BufferToFlatData(buffer, 17), backends.ErrInvalidArgument)

	flat := make([]float32, 3)
	require.NoError(t, b.BufferToFlatData(buffer, flat))
	require.Equal(t, []float32{1, 2, 3}, flat)
}

func TestSharedBuffer(t *testing.T) {
	b := New("").(*Backend)
	require.True(t, b.HasSharedBuffers())
	shape := shapes.Make(dtypes.Int32, 3)
	buffer, flatAny, err := b.NewSharedBuffer(0, shape)
	require.NoError(t, err)

	flat := flatAny.([]int32)
	flat[0], flat[1], flat[2] = 7, 8, 9

	// BufferData must see the mutation: the memory is shared.
	data := must.M1(b.BufferData(buffer)).([]int32)
	require.Equal(t, []int32{7, 8, 9}, data)
	require.NoError(t, b.BufferFinalize(buffer))
}

func TestBufferFloat16(t *testing.T) {
	b := New("").(*Backend)
	shape := shapes.Make(dtypes.Float16, 2)
	values := []float16.Float16{float16.Fromfloat32(1.5), float16.Fromfloat32(-2)}
	buffer := must.M1(b.BufferFromFlatData(0, values, shape))
	flat := make([]float16.Float16, 2)
	require.NoError(t, b.BufferToFlatData(buffer, flat))
	require.Equal(t, float32(1.5), flat[0].Float32())
	require.Equal(t, float32(-2), flat[1].Float32())
}
