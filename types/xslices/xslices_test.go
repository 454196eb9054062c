// Copyright 2025-2026 The gondl Authors. SPDX-License-Identifier: Apache-2.0

package xslices

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeys(t *testing.T) {
	m := map[string]int{"b": 1, "a": 2, "c": 3}
	require.ElementsMatch(t, []string{"a", "b", "c"}, Keys(m))
	require.Equal(t, []string{"a", "b", "c"}, SortedKeys(m))
}

func TestMap(t *testing.T) {
	require.Equal(t, []int{2, 4, 6}, Map([]int{1, 2, 3}, func(e int) int { return 2 * e }))
}

func TestIota(t *testing.T) {
	require.Equal(t, []float32{3, 4, 5}, Iota(float32(3), 3))
	require.Equal(t, []int32{0, 1}, Iota(int32(0), 2))
}

func TestFillSlice(t *testing.T) {
	require.Equal(t, []float64{7, 7, 7}, FillSlice(make([]float64, 3), 7.0))
}
