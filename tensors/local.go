// Copyright 2025-2026 The gondl Authors. SPDX-License-Identifier: Apache-2.0

package tensors

import (
	"reflect"
	"unsafe"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gondl/gondl/types/shapes"
)

// local representation of a Tensor: a flat Go slice in row-major order.
type local struct {
	// flat is a slice of the Go type corresponding to the tensor's dtype,
	// with exactly Shape.Size() elements.
	flat any
}

// FromShape returns a Tensor with the given shape, with the data initialized
// with zeros.
func FromShape(shape shapes.Shape) *Tensor {
	t := newTensor(shape)
	t.local = &local{
		flat: reflect.MakeSlice(reflect.SliceOf(shape.DType.GoType()), shape.Size(), shape.Size()).Interface(),
	}
	return t
}

// FromScalarAndDimensions creates a tensor with the given dimensions, filled
// with the scalar value given. The dtype is inferred from the type T.
func FromScalarAndDimensions[T dtypes.Supported](value T, dimensions ...int) *Tensor {
	shape := shapes.Make(dtypes.FromGenericsType[T](), dimensions...)
	t := FromShape(shape)
	MutableFlatData(t, func(flat []T) {
		for ii := range flat {
			flat[ii] = value
		}
	})
	return t
}

// FromFlatDataAndDimensions creates a tensor with the given dimensions,
// initialized with the flat data given, which must have exactly the number of
// elements the dimensions require. The data is copied, the caller keeps
// ownership of the slice. The dtype is inferred from the type T.
func FromFlatDataAndDimensions[T dtypes.Supported](data []T, dimensions ...int) *Tensor {
	shape := shapes.Make(dtypes.FromGenericsType[T](), dimensions...)
	if len(data) != shape.Size() {
		exceptions.Panicf("FromFlatDataAndDimensions(%s): data has %d elements, shape requires %d",
			shape, len(data), shape.Size())
	}
	t := FromShape(shape)
	MutableFlatData(t, func(flat []T) {
		copy(flat, data)
	})
	return t
}

// FromValue creates a tensor from a Go value: a scalar of a supported dtype,
// or (multi-dimensionally) nested slices of them. All nested slices at the
// same depth must have the same length.
func FromValue(value any) *Tensor {
	shape, baseType := shapeForValue(value)
	if shape.DType == dtypes.InvalidDType {
		exceptions.Panicf("FromValue: cannot create a tensor from %T (base type %s)", value, baseType)
	}
	t := FromShape(shape)
	flatV := reflect.ValueOf(t.local.flat)
	fillFromValue(flatV, 0, reflect.ValueOf(value), shape.Dimensions)
	return t
}

// shapeForValue infers the shape of a scalar-or-nested-slices Go value.
func shapeForValue(value any) (shapes.Shape, reflect.Type) {
	valueT := reflect.TypeOf(value)
	var dims []int
	valueV := reflect.ValueOf(value)
	for valueT.Kind() == reflect.Slice {
		if valueV.Len() == 0 {
			return shapes.Invalid(), valueT
		}
		dims = append(dims, valueV.Len())
		valueT = valueT.Elem()
		valueV = valueV.Index(0)
	}
	dtype := dtypes.FromGoType(valueT)
	if dtype == dtypes.InvalidDType {
		return shapes.Invalid(), valueT
	}
	return shapes.Make(dtype, dims...), valueT
}

// fillFromValue recursively copies the nested-slices value into the flat
// slice starting at flatIdx, returning the next free index. Each level's
// length is validated against the dimensions inferred from the first
// sub-slices, before anything is written, so ragged input panics with a clear
// message instead of overrunning the flat slice.
func fillFromValue(flatV reflect.Value, flatIdx int, valueV reflect.Value, dimensions []int) int {
	if len(dimensions) == 0 {
		if valueV.Kind() == reflect.Slice {
			exceptions.Panicf("FromValue: nested slices have inconsistent depths")
		}
		flatV.Index(flatIdx).Set(valueV)
		return flatIdx + 1
	}
	if valueV.Kind() != reflect.Slice {
		exceptions.Panicf("FromValue: nested slices have inconsistent depths")
	}
	if valueV.Len() != dimensions[0] {
		exceptions.Panicf("FromValue: nested slices have inconsistent lengths, expected %d elements, got %d",
			dimensions[0], valueV.Len())
	}
	for ii := 0; ii < valueV.Len(); ii++ {
		flatIdx = fillFromValue(flatV, flatIdx, valueV.Index(ii), dimensions[1:])
	}
	return flatIdx
}

// ConstFlatData calls accessFn with the tensor's local flat data. It
// materializes the local representation from a device buffer if needed.
//
// The flat data must not be modified inside accessFn -- see MutableFlatData.
// It must also not be kept after accessFn returns.
func (t *Tensor) ConstFlatData(accessFn func(flat any)) {
	t.AssertValid()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lockedMaterializeLocal()
	accessFn(t.local.flat)
}

// MutableFlatData calls accessFn with the tensor's local flat data, which may
// be modified in place. If the local data is shared with a backend buffer the
// mutation is directly visible to the backend; otherwise any on-device
// representation is invalidated, since it would no longer reflect the local
// values.
//
// The flat slice must not be kept after accessFn returns.
func (t *Tensor) MutableFlatData(accessFn func(flat any)) {
	t.AssertValid()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lockedMaterializeLocal()
	if !t.isShared {
		// A shared local writes through to the backend buffer; anything else
		// on-device no longer reflects the local values.
		t.lockedFinalizeOnDevices()
	}
	accessFn(t.local.flat)
}

// ConstFlatData is the generic version of Tensor.ConstFlatData: it gives
// accessFn the flat data as a []T. It panics if T doesn't match the tensor's
// dtype.
func ConstFlatData[T dtypes.Supported](t *Tensor, accessFn func(flat []T)) {
	t.ConstFlatData(func(anyFlat any) {
		accessFn(castFlat[T](t, anyFlat))
	})
}

// MutableFlatData is the generic version of Tensor.MutableFlatData: it gives
// accessFn the flat data as a []T that may be modified in place. It panics if
// T doesn't match the tensor's dtype.
func MutableFlatData[T dtypes.Supported](t *Tensor, accessFn func(flat []T)) {
	t.MutableFlatData(func(anyFlat any) {
		accessFn(castFlat[T](t, anyFlat))
	})
}

func castFlat[T dtypes.Supported](t *Tensor, anyFlat any) []T {
	flat, ok := anyFlat.([]T)
	if !ok {
		var v T
		exceptions.Panicf("tensor has dtype %s, cannot access it as a flat slice of %T", t.shape.DType, v)
	}
	return flat
}

// CopyFlatData returns a copy of the flat data of the tensor as a []T. It
// panics if T doesn't match the tensor's dtype.
func CopyFlatData[T dtypes.Supported](t *Tensor) []T {
	var data []T
	ConstFlatData(t, func(flat []T) {
		data = make([]T, len(flat))
		copy(data, flat)
	})
	return data
}

// ToScalar returns the single value of a scalar (or single-element) tensor.
func ToScalar[T dtypes.Supported](t *Tensor) T {
	if t.Size() != 1 {
		exceptions.Panicf("ToScalar requires a single-element tensor, got shape %s", t.Shape())
	}
	var value T
	ConstFlatData(t, func(flat []T) { value = flat[0] })
	return value
}

// ConstBytes calls accessFn with the local flat data as a raw byte slice.
// Same rules as ConstFlatData: don't modify, don't keep.
func (t *Tensor) ConstBytes(accessFn func(data []byte)) {
	t.ConstFlatData(func(flat any) {
		accessFn(flatBytes(t.shape, flat))
	})
}

// MutableBytes calls accessFn with the local flat data as a raw byte slice
// that may be modified in place. Same rules as MutableFlatData.
func (t *Tensor) MutableBytes(accessFn func(data []byte)) {
	t.MutableFlatData(func(flat any) {
		accessFn(flatBytes(t.shape, flat))
	})
}

func flatBytes(shape shapes.Shape, flat any) []byte {
	flatV := reflect.ValueOf(flat)
	return unsafe.Slice((*byte)(flatV.Index(0).Addr().UnsafePointer()), shape.Memory())
}

// Value returns the tensor data as a Go value: a scalar for rank-0 tensors,
// nested slices otherwise. The returned value is a copy, detached from the
// tensor's storage.
func (t *Tensor) Value() any {
	t.AssertValid()
	var value any
	t.ConstFlatData(func(flat any) {
		flatV := reflect.ValueOf(flat)
		if t.shape.IsScalar() {
			value = flatV.Index(0).Interface()
			return
		}
		value = nestedFromFlat(flatV, t.shape.Dimensions).Interface()
	})
	return value
}

func nestedFromFlat(flatV reflect.Value, dimensions []int) reflect.Value {
	elemType := flatV.Type().Elem()
	for range dimensions[1:] {
		elemType = reflect.SliceOf(elemType)
	}
	out := reflect.MakeSlice(reflect.SliceOf(elemType), dimensions[0], dimensions[0])
	if len(dimensions) == 1 {
		reflect.Copy(out, flatV)
		return out
	}
	subSize := 1
	for _, dim := range dimensions[1:] {
		subSize *= dim
	}
	for ii := 0; ii < dimensions[0]; ii++ {
		out.Index(ii).Set(nestedFromFlat(flatV.Slice(ii*subSize, (ii+1)*subSize), dimensions[1:]))
	}
	return out
}

// LocalClone returns a deep copy of the tensor with only a local
// representation, detached from any backend.
func (t *Tensor) LocalClone() *Tensor {
	t.AssertValid()
	clone := FromShape(t.shape)
	t.ConstFlatData(func(flat any) {
		reflect.Copy(reflect.ValueOf(clone.local.flat), reflect.ValueOf(flat))
	})
	return clone
}

// Clone is an alias for LocalClone.
func (t *Tensor) Clone() *Tensor { return t.LocalClone() }
