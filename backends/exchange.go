// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package backends

import (
	"reflect"

	"github.com/gomlx/arrayapi/pkg/core/shapes"
	"github.com/pkg/errors"
)

// Exchange is the buffer exchange protocol between array libraries living in host memory: a flat slice in
// row-major order, its shape and the device holding it.
//
// The Flat slice may be shared by the exporter: importers that keep it without copying create arrays that
// alias the exported one.
type Exchange struct {
	Shape  shapes.Shape
	Flat   any
	Device Device
}

// Validate checks that Flat is a slice of the Go type of the shape's dtype, with the right number of elements.
func (ex Exchange) Validate() error {
	if !ex.Shape.Ok() {
		return errors.Wrapf(ErrConversion, "exchange with invalid shape")
	}
	flatV := reflect.ValueOf(ex.Flat)
	if flatV.Kind() != reflect.Slice || flatV.Type().Elem() != ex.Shape.DType.GoType() {
		return errors.Wrapf(ErrConversion, "exchange of shape %s with flat data of type %T", ex.Shape, ex.Flat)
	}
	if flatV.Len() != ex.Shape.Size() {
		return errors.Wrapf(ErrConversion, "exchange of shape %s with %d elements", ex.Shape, flatV.Len())
	}
	return nil
}

// Exportable is implemented by arrays that can export their buffer themselves.
type Exportable interface {
	ExportBuffer() (Exchange, error)
}

// Exporter is implemented by backends that can export the buffer of their arrays.
type Exporter interface {
	Export(x any) (Exchange, error)
}

// Importer is implemented by backends that can create arrays from an exported buffer.
type Importer interface {
	Import(ex Exchange) (any, error)
}

// Export exports the buffer of x, using the backend Exporter if available, or the array's own ExportBuffer.
// It returns an error wrapping ErrConversion if neither is supported.
func Export(backend Backend, x any) (Exchange, error) {
	if exporter, ok := backend.(Exporter); ok {
		return exporter.Export(x)
	}
	if exportable, ok := x.(Exportable); ok {
		return exportable.ExportBuffer()
	}
	return Exchange{}, errors.Wrapf(ErrConversion, "%s arrays (%T) don't support buffer exchange", backend.Name(), x)
}

// CanExport reports whether Export may succeed for x.
func CanExport(backend Backend, x any) bool {
	if _, ok := backend.(Exporter); ok {
		return true
	}
	_, ok := x.(Exportable)
	return ok
}
