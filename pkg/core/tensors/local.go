// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package tensors

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/gomlx/arrayapi/pkg/core/shapes"
	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
)

// MaxStringSize is the largest tensor size (number of elements) that String prints in full.
var MaxStringSize = 1000

// FromShape returns a Tensor with the given shape, with the data initialized with zeros.
func FromShape(shape shapes.Shape) (t *Tensor) {
	if !shape.Ok() {
		panic(errors.New("invalid shape"))
	}
	goType := shape.DType.GoType()
	if goType == nil {
		exceptions.Panicf("tensors.FromShape(%s): dtype has no Go representation", shape)
	}
	t = newTensor(shape)
	t.flat = reflect.MakeSlice(reflect.SliceOf(goType), t.Size(), t.Size()).Interface()
	return
}

// FromFlatData creates a tensor that takes ownership of the given flat slice (no copy is made).
// The dtype is inferred from the slice element type.
//
// Arrays exchanged from other libraries use this to share the same memory.
func FromFlatData(flat any, dimensions ...int) (*Tensor, error) {
	flatT := reflect.TypeOf(flat)
	if flatT == nil || flatT.Kind() != reflect.Slice {
		return nil, errors.Errorf("tensors.FromFlatData requires a slice, got %T", flat)
	}
	dtype := dtypes.FromGoType(flatT.Elem())
	if dtype == dtypes.InvalidDType || dtype.GoType() != flatT.Elem() {
		return nil, errors.Errorf("tensors.FromFlatData: unsupported element type %s", flatT.Elem())
	}
	for _, dim := range dimensions {
		if dim < 0 {
			return nil, errors.Errorf("tensors.FromFlatData: negative dimension in %v", dimensions)
		}
	}
	shape := shapes.Make(dtype, dimensions...)
	if n := reflect.ValueOf(flat).Len(); n != shape.Size() {
		return nil, errors.Errorf("tensors.FromFlatData(%s): data size is %d, but dimensions size is %d", shape, n, shape.Size())
	}
	t := newTensor(shape)
	t.flat = flat
	return t, nil
}

// FromScalar creates a local tensor with the given scalar.
// The `DType` is inferred from the value.
func FromScalar[T dtypes.Supported](value T) (t *Tensor) {
	return FromScalarAndDimensions(value)
}

// FromScalarAndDimensions creates a local tensor with the given dimensions, filled with the
// given scalar value replicated everywhere.
// The `DType` is inferred from the value.
func FromScalarAndDimensions[T dtypes.Supported](value T, dimensions ...int) (t *Tensor) {
	dtype := dtypes.FromGenericsType[T]()
	t = FromShape(shapes.Make(dtype, dimensions...))
	t.MutableFlatData(func(flatAny any) {
		flatV := reflect.ValueOf(flatAny)
		valueV := reflect.ValueOf(value).Convert(flatV.Type().Elem())
		for ii := range flatV.Len() {
			flatV.Index(ii).Set(valueV)
		}
	})
	return
}

// FromFlatDataAndDimensions creates a tensor with the given dimensions, filled with the flattened values given in `data`.
// The data is copied to the Tensor.
// The `DType` is inferred from the `data` type.
func FromFlatDataAndDimensions[T dtypes.Supported](data []T, dimensions ...int) (t *Tensor) {
	dtype := dtypes.FromGenericsType[T]()
	shape := shapes.Make(dtype, dimensions...)
	if len(data) != shape.Size() {
		exceptions.Panicf("FromFlatDataAndDimensions(%s): data size is %d, but dimensions size is %d", shape, len(data), shape.Size())
	}
	t = FromShape(shape)
	t.MutableFlatData(func(flatAny any) {
		if flat, ok := flatAny.([]T); ok {
			copy(flat, data)
			return
		}
		// Go `int` and `uint` are stored as their sized counterparts.
		flatV := reflect.ValueOf(flatAny)
		elemT := flatV.Type().Elem()
		for ii, v := range data {
			flatV.Index(ii).Set(reflect.ValueOf(v).Convert(elemT))
		}
	})
	return
}

// FromAnyValue returns a tensor constructed from the given multidimensional slice (or scalar).
// If the rank of the `value` is larger than 1, the shape of all sub-slices must be the same.
// If the input is a *Tensor already, it is simply returned.
//
// Empty slices are accepted and yield axes of dimension 0.
// It returns an error if the `value` type is unsupported or the shape is not regular.
func FromAnyValue(value any) (t *Tensor, err error) {
	if valueT, ok := value.(*Tensor); ok {
		return valueT, nil
	}
	if value == nil {
		return nil, errors.New("cannot create tensor from nil")
	}
	shape, err := shapeForValue(value)
	if err != nil {
		return nil, errors.WithMessagef(err, "cannot create shape from %T", value)
	}
	t = FromShape(shape)
	t.MutableFlatData(func(flatAny any) {
		flatV := reflect.ValueOf(flatAny)
		elemT := flatV.Type().Elem()
		if shape.IsScalar() {
			flatV.Index(0).Set(reflect.ValueOf(value).Convert(elemT))
			return
		}
		copySlicesRecursively(flatV, reflect.ValueOf(value), shape.Strides())
	})
	return t, nil
}

// copySlicesRecursively copy values on a multi-dimension slice to a flat data slice
// assuming the strides for each dimension.
func copySlicesRecursively(data reflect.Value, mdSlice reflect.Value, strides []int) {
	if len(strides) == 1 {
		if mdSlice.Type().Elem() == data.Type().Elem() {
			reflect.Copy(data, mdSlice)
			return
		}
		elemT := data.Type().Elem()
		for ii := range mdSlice.Len() {
			data.Index(ii).Set(mdSlice.Index(ii).Convert(elemT))
		}
		return
	}

	numElements := mdSlice.Len()
	subStrides := strides[1:]
	for ii := 0; ii < numElements; ii++ {
		start := ii * strides[0]
		end := (ii + 1) * strides[0]
		copySlicesRecursively(data.Slice(start, end), mdSlice.Index(ii), subStrides)
	}
}

func shapeForValue(v any) (shape shapes.Shape, err error) {
	err = shapeForValueRecursive(&shape, reflect.ValueOf(v), reflect.TypeOf(v))
	return
}

func shapeForValueRecursive(shape *shapes.Shape, v reflect.Value, t reflect.Type) error {
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		t = t.Elem()
		shape.Dimensions = append(shape.Dimensions, v.Len())
		shapePrefix := shape.Clone()
		if v.Len() == 0 {
			// Remaining axes of an empty slice can't be inferred: only the dtype is taken from the base type.
			shape.DType = dtypes.FromGoType(baseType(t))
			if shape.DType == dtypes.InvalidDType {
				return errors.Errorf("cannot convert type %s to a tensor dtype", baseType(t))
			}
			return nil
		}

		// The first element is the reference
		if err := shapeForValueRecursive(shape, v.Index(0), t); err != nil {
			return err
		}

		// Test that other elements have the same shape as the first one.
		for ii := 1; ii < v.Len(); ii++ {
			shapeTest := shapePrefix.Clone()
			if err := shapeForValueRecursive(&shapeTest, v.Index(ii), t); err != nil {
				return err
			}
			if !shape.Equal(shapeTest) {
				return errors.Errorf("sub-slices have irregular shapes, found shapes %q, and %q", shape, shapeTest)
			}
		}
	case reflect.Pointer, reflect.Interface:
		return errors.Errorf("cannot convert %s to a concrete value for tensors", t)
	default:
		shape.DType = dtypes.FromGoType(t)
		if shape.DType == dtypes.InvalidDType {
			return errors.Errorf("cannot convert type %s to a tensor dtype (maybe type not supported yet?)", t)
		}
	}
	return nil
}

// baseType returns the underlying type of a multi-dimension array/slice. So `baseType([][]int{})` would return the
// type `int`.
func baseType(valueType reflect.Type) reflect.Type {
	for valueType.Kind() == reflect.Slice || valueType.Kind() == reflect.Array {
		valueType = valueType.Elem()
	}
	return valueType
}

// Value returns a multidimensional slice (except if shape is a scalar) containing a copy of the values stored
// in the tensor.
// This is expensive, and usually only used for smaller tensors in tests and to print results.
func (t *Tensor) Value() any {
	var mdSlice any
	t.ConstFlatData(func(flat any) {
		srcV := reflect.ValueOf(flat)
		if t.shape.IsScalar() {
			mdSlice = srcV.Index(0).Interface()
			return
		}
		flatCopyV := reflect.MakeSlice(srcV.Type(), t.Size(), t.Size())
		reflect.Copy(flatCopyV, srcV)
		mdSlice = convertDataToSlices(flatCopyV, t.shape.Dimensions...).Interface()
	})
	return mdSlice
}

// convertDataToSlices takes data as a flat slice, and creates a multidimensional slices with the given dimensions that
// points to the given data.
func convertDataToSlices(dataV reflect.Value, dimensions ...int) reflect.Value {
	if len(dimensions) <= 1 {
		return dataV
	}
	resultT := dataV.Type().Elem()
	for range dimensions {
		resultT = reflect.SliceOf(resultT)
	}
	strides := shapes.Make(dtypes.Int8, dimensions...).Strides()
	return createSlicesRecursively(resultT, dataV, dimensions, strides)
}

func createSlicesRecursively(resultT reflect.Type, data reflect.Value, dimensions []int, strides []int) reflect.Value {
	if len(strides) == 1 {
		return data
	}
	numElements := dimensions[0]
	slice := reflect.MakeSlice(resultT, numElements, numElements)
	for ii := 0; ii < numElements; ii++ {
		start := ii * strides[0]
		end := (ii + 1) * strides[0]
		subSlice := createSlicesRecursively(resultT.Elem(), data.Slice(start, end), dimensions[1:], strides[1:])
		slice.Index(ii).Set(subSlice)
	}
	return slice
}

// Clone returns a deep copy of the tensor.
func (t *Tensor) Clone() *Tensor {
	var clone *Tensor
	t.ConstFlatData(func(flat any) {
		clone = newTensor(t.shape.Clone())
		flatV := reflect.ValueOf(flat)
		cloneFlatV := reflect.MakeSlice(flatV.Type(), flatV.Len(), flatV.Len())
		reflect.Copy(cloneFlatV, flatV)
		clone.flat = cloneFlatV.Interface()
	})
	return clone
}

// Reshape returns a tensor with the new dimensions sharing the same flat data.
// The total size must be preserved.
func (t *Tensor) Reshape(dimensions ...int) (*Tensor, error) {
	t.AssertValid()
	for _, dim := range dimensions {
		if dim < 0 {
			return nil, errors.Errorf("Reshape(%v): negative dimension", dimensions)
		}
	}
	newShape := shapes.Make(t.shape.DType, dimensions...)
	if newShape.Size() != t.Size() {
		return nil, errors.Errorf("cannot reshape %s to %v: sizes differ", t.shape, dimensions)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	reshaped := newTensor(newShape)
	reshaped.flat = t.flat
	return reshaped, nil
}

// Equal checks weather t == otherTensor.
// If they are the same pointer they are considered equal.
// If the shapes are different it returns false.
// If either are invalid (nil) it panics.
//
// Slow implementation: fine for small tensors, but write something specialized for the DType if speed is desired.
func (t *Tensor) Equal(otherTensor *Tensor) bool {
	t.AssertValid()
	otherTensor.AssertValid()
	if t == otherTensor {
		return true
	}
	if !t.shape.Equal(otherTensor.shape) {
		return false
	}
	equal := true
	t.ConstFlatData(func(flat0 any) {
		otherTensor.ConstFlatData(func(flat1 any) {
			t0V := reflect.ValueOf(flat0)
			t1V := reflect.ValueOf(flat1)
			for ii := range t0V.Len() {
				if !t0V.Index(ii).Equal(t1V.Index(ii)) {
					equal = false
					return
				}
			}
		})
	})
	return equal
}

// InDelta checks weather Abs(t - otherTensor) <= delta for every element, after converting both to float64.
// If the shapes' dimensions are different it returns false. Dtypes are allowed to differ.
func (t *Tensor) InDelta(otherTensor *Tensor, delta float64) bool {
	t.AssertValid()
	otherTensor.AssertValid()
	if t == otherTensor {
		return true
	}
	if !t.shape.EqualDimensions(otherTensor.shape) {
		return false
	}
	v0, err := t.Float64s()
	if err != nil {
		return false
	}
	v1, err := otherTensor.Float64s()
	if err != nil {
		return false
	}
	return slices.EqualFunc(v0, v1, func(a, b float64) bool {
		if a == b {
			return true
		}
		diff := a - b
		return diff <= delta && -diff <= delta
	})
}

// String converts to string, if not too large.
func (t *Tensor) String() string {
	if t == nil {
		return "<nil tensor>"
	}
	if !t.Ok() {
		return "<invalid tensor>"
	}
	if t.Size() > MaxStringSize {
		return fmt.Sprintf("%s: (%d elements, too large to print)", t.shape, t.Size())
	}
	var sb strings.Builder
	sb.WriteString(t.shape.String())
	sb.WriteString(": ")
	fmt.Fprintf(&sb, "%v", t.Value())
	return sb.String()
}
