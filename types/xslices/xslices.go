// Copyright 2025-2026 The gondl Authors. SPDX-License-Identifier: Apache-2.0

// Package xslices provides small slice and map helpers missing from the
// standard slices package.
package xslices

import (
	"cmp"
	"sort"

	"golang.org/x/exp/constraints"
)

// Keys returns the keys of a map in the form of a slice.
func Keys[K comparable, V any](m map[K]V) []K {
	s := make([]K, 0, len(m))
	for k := range m {
		s = append(s, k)
	}
	return s
}

// SortedKeys returns the sorted keys of a map in the form of a slice.
func SortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	s := Keys(m)
	sort.Slice(s, func(i, j int) bool {
		return s[i] < s[j]
	})
	return s
}

// Map executes the given function sequentially for every element of in, and
// returns the mapped slice.
func Map[In, Out any](in []In, fn func(e In) Out) (out []Out) {
	out = make([]Out, len(in))
	for ii, e := range in {
		out[ii] = fn(e)
	}
	return
}

// Iota returns a slice of the given size with incrementing values starting
// with start.
func Iota[T constraints.Integer | constraints.Float](start T, size int) (slice []T) {
	slice = make([]T, size)
	for ii := range slice {
		slice[ii] = start + T(ii)
	}
	return
}

// FillSlice fills every element of the slice with the given value and
// returns it.
func FillSlice[T any](slice []T, value T) []T {
	for ii := range slice {
		slice[ii] = value
	}
	return slice
}
