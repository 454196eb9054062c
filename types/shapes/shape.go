// Copyright 2025-2026 The gondl Authors. SPDX-License-Identifier: Apache-2.0

// Package shapes defines Shape, the metadata describing a tensor: a data type
// (DType) and the dimensions of its axes.
//
// Shape is used both by the tensors package and by the storage backends: a
// backend buffer always reports its Shape, whatever its internal layout.
//
// The DType enumeration comes from github.com/gomlx/gopjrt/dtypes; float16
// values use the github.com/x448/float16 implementation.
//
// Glossary:
//
//   - Rank: number of axes (dimensions) of a tensor.
//   - Axis: the index of a dimension. A scalar has rank 0.
//   - Dimension: the size of a tensor along one axis.
//   - DType: the data type of the unit element of a tensor.
package shapes

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
)

// Shape represents the shape of a tensor: its DType and the dimensions of
// its axes. A rank-0 shape is a scalar.
//
// Use Make to create a new Shape.
type Shape struct {
	DType      dtypes.DType
	Dimensions []int
}

// Make returns a Shape with the given dtype and dimensions.
// It panics if any dimension is <= 0 -- use Invalid() for a sentinel shape.
func Make(dtype dtypes.DType, dimensions ...int) Shape {
	s := Shape{DType: dtype, Dimensions: slices.Clone(dimensions)}
	for _, dim := range dimensions {
		if dim <= 0 {
			exceptions.Panicf("shapes.Make(%s): cannot create a shape with an axis with dimension <= 0", s)
		}
	}
	return s
}

// Scalar returns a scalar (rank-0) Shape for the given type.
func Scalar[T dtypes.Number]() Shape {
	return Shape{DType: dtypes.FromGenericsType[T]()}
}

// Invalid returns an invalid shape. Invalid().Ok() == false.
func Invalid() Shape {
	return Shape{DType: dtypes.InvalidDType}
}

// Ok returns whether this is a valid Shape.
// The zero value Shape{} is invalid.
func (s Shape) Ok() bool { return s.DType != dtypes.InvalidDType }

// Rank of the shape, that is, the number of axes.
func (s Shape) Rank() int { return len(s.Dimensions) }

// IsScalar returns whether the shape represents a scalar: a valid shape of
// rank 0.
func (s Shape) IsScalar() bool { return s.Ok() && s.Rank() == 0 }

// Dim returns the dimension of the given axis. Negative axis values count
// from the end, so Dim(-1) is the last axis. It panics for out-of-bound axes.
func (s Shape) Dim(axis int) int {
	adjustedAxis := axis
	if adjustedAxis < 0 {
		adjustedAxis += s.Rank()
	}
	if adjustedAxis < 0 || adjustedAxis >= s.Rank() {
		exceptions.Panicf("Shape.Dim(%d) out-of-bounds for rank %d (shape=%s)", axis, s.Rank(), s)
	}
	return s.Dimensions[adjustedAxis]
}

// Shape returns a shallow copy of itself. It implements the HasShape interface.
func (s Shape) Shape() Shape { return s }

// String implements fmt.Stringer, pretty-printing the shape.
func (s Shape) String() string {
	if s.Rank() == 0 {
		return fmt.Sprintf("(%s)", s.DType)
	}
	return fmt.Sprintf("(%s)%v", s.DType, s.Dimensions)
}

// Size returns the number of elements of DType needed for this shape: the
// product of all dimensions. A scalar has size 1.
func (s Shape) Size() (size int) {
	size = 1
	for _, d := range s.Dimensions {
		size *= d
	}
	return
}

// Memory returns the number of bytes needed to store a flat array of this
// shape.
func (s Shape) Memory() uintptr {
	return s.DType.Memory() * uintptr(s.Size())
}

// Equal compares two shapes for equality: dtype and dimensions must match.
func (s Shape) Equal(s2 Shape) bool {
	if s.DType != s2.DType {
		return false
	}
	return s.EqualDimensions(s2)
}

// EqualDimensions compares the dimensions of two shapes. DTypes can differ.
func (s Shape) EqualDimensions(s2 Shape) bool {
	if s.Rank() != s2.Rank() {
		return false
	}
	if s.IsScalar() {
		return true
	}
	return slices.Equal(s.Dimensions, s2.Dimensions)
}

// Clone returns a deep copy of the shape.
func (s Shape) Clone() (s2 Shape) {
	s2.DType = s.DType
	s2.Dimensions = slices.Clone(s.Dimensions)
	return
}

// Check returns an error if the shape doesn't match the given dtype and
// dimensions.
func (s Shape) Check(dtype dtypes.DType, dimensions ...int) error {
	if s.DType != dtype {
		return errors.Errorf("shape %s: expected dtype %s", s, dtype)
	}
	if !slices.Equal(s.Dimensions, dimensions) {
		return errors.Errorf("shape %s: expected dimensions %v", s, dimensions)
	}
	return nil
}

// AssertDims panics if the shape doesn't have the given dimensions.
// A -1 dimension is unchecked.
func (s Shape) AssertDims(dimensions ...int) {
	if s.Rank() != len(dimensions) {
		exceptions.Panicf("shape %s: expected rank %d", s, len(dimensions))
	}
	for axis, dim := range dimensions {
		if dim != -1 && s.Dimensions[axis] != dim {
			exceptions.Panicf("shape %s: expected dimensions %s", s, dimsToStr(dimensions))
		}
	}
}

func dimsToStr(dimensions []int) string {
	parts := make([]string, len(dimensions))
	for ii, dim := range dimensions {
		if dim == -1 {
			parts[ii] = "*"
		} else {
			parts[ii] = fmt.Sprintf("%d", dim)
		}
	}
	return "[" + strings.Join(parts, " ") + "]"
}
