// Copyright 2025-2026 The gondl Authors. SPDX-License-Identifier: Apache-2.0

package shapes

import (
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/stretchr/testify/require"
)

func TestShape(t *testing.T) {
	s0 := Scalar[float64]()
	require.True(t, s0.Ok())
	require.True(t, s0.IsScalar())
	require.Equal(t, 0, s0.Rank())
	require.Equal(t, 1, s0.Size())
	require.Equal(t, 8, int(s0.Memory()))

	s1 := Make(dtypes.Float32, 4, 3, 2)
	require.Equal(t, 3, s1.Rank())
	require.Equal(t, 4*3*2, s1.Size())
	require.Equal(t, 4*4*3*2, int(s1.Memory()))
	require.Equal(t, 2, s1.Dim(-1))
	require.Equal(t, 4, s1.Dim(0))
	require.Equal(t, "(Float32)[4 3 2]", s1.String())

	require.NoError(t, s1.Check(dtypes.Float32, 4, 3, 2))
	require.Error(t, s1.Check(dtypes.Float64, 4, 3, 2))
	require.Error(t, s1.Check(dtypes.Float32, 4, 3))
}

func TestShapeEqual(t *testing.T) {
	a := Make(dtypes.Float32, 2, 3)
	b := Make(dtypes.Float32, 2, 3)
	c := Make(dtypes.Float32, 3, 2)
	d := Make(dtypes.Int32, 2, 3)

	require.True(t, a.Equal(b))
	require.False(t, a.Equal(c))
	require.False(t, a.Equal(d))
	require.True(t, a.EqualDimensions(d))

	clone := a.Clone()
	require.True(t, a.Equal(clone))
	clone.Dimensions[0] = 7
	require.Equal(t, 2, a.Dimensions[0])
}

func TestShapeInvalid(t *testing.T) {
	require.False(t, Invalid().Ok())
	require.False(t, Shape{}.Ok())
	require.Panics(t, func() { Make(dtypes.Float32, 2, 0) })
	require.Panics(t, func() { Make(dtypes.Float32, -1) })
	require.Panics(t, func() { Make(dtypes.Float32, 2).Dim(2) })
}
