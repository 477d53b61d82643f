// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package namespace

import (
	"slices"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/gomlx/arrayapi/backends"
	"github.com/gomlx/arrayapi/pkg/core/tensors"
	"github.com/pkg/errors"
)

// Dataset is a collection of named arrays (variables), possibly of different libraries.
type Dataset struct {
	names     []string
	variables map[string]any
}

// NewDataset returns an empty Dataset.
func NewDataset() *Dataset {
	return &Dataset{variables: make(map[string]any)}
}

// Set the variable name to array. It returns the dataset, so calls can be chained.
func (ds *Dataset) Set(name string, array any) *Dataset {
	if _, found := ds.variables[name]; !found {
		ds.names = append(ds.names, name)
	}
	ds.variables[name] = array
	return ds
}

// Get returns the variable name, or nil if not set.
func (ds *Dataset) Get(name string) any { return ds.variables[name] }

// Names of the variables, in the order they were first set.
func (ds *Dataset) Names() []string { return slices.Clone(ds.names) }

// Len returns the number of variables.
func (ds *Dataset) Len() int { return len(ds.names) }

// Convert returns a new Dataset with every variable converted to the target namespace, on the given
// device (empty for the library's default).
func (ds *Dataset) Convert(target *Namespace, device string) (*Dataset, error) {
	var options []ArrayOption
	if device != "" {
		options = append(options, OnDevice(device))
	}
	converted := NewDataset()
	for _, name := range ds.names {
		array, err := target.AsArray(ds.variables[name], options...)
		if err != nil {
			return nil, errors.WithMessagef(err, "converting variable %q to %s", name, target.Name())
		}
		converted.Set(name, array)
	}
	return converted, nil
}

// DatasetNamespace returns the Namespace shared by all variables of a labeled dataset:
//
//   - *Dataset: the namespace of its variables; variables of different libraries are an error wrapping
//     backends.ErrAmbiguousNamespace. An empty dataset returns nil.
//   - dataframe.DataFrame (or a pointer to one): numeric columns are host arrays, so it is the Default
//     namespace. A dataframe without columns returns nil.
//
// Other types are an error wrapping backends.ErrUnsupportedDataObject.
func DatasetNamespace(data any) (*Namespace, error) {
	switch ds := data.(type) {
	case *Dataset:
		if ds.Len() == 0 {
			return nil, nil
		}
		args := make([]any, 0, ds.Len())
		for _, name := range ds.names {
			args = append(args, ds.variables[name])
		}
		ns, err := ArrayNamespace(args...)
		if err != nil {
			return nil, errors.WithMessage(err, "dataset variables")
		}
		return ns, nil
	case dataframe.DataFrame:
		return dataFrameNamespace(&ds)
	case *dataframe.DataFrame:
		return dataFrameNamespace(ds)
	}
	return nil, errors.Wrapf(backends.ErrUnsupportedDataObject, "%T", data)
}

func dataFrameNamespace(df *dataframe.DataFrame) (*Namespace, error) {
	if df.Err != nil {
		return nil, errors.Wrap(df.Err, "invalid dataframe")
	}
	if df.Ncol() == 0 {
		return nil, nil
	}
	return Default(), nil
}

// FromDataFrame returns a Dataset with one host array per numeric (float, int or bool) column of df.
// String columns are skipped.
func FromDataFrame(df dataframe.DataFrame) (*Dataset, error) {
	if df.Err != nil {
		return nil, errors.Wrap(df.Err, "invalid dataframe")
	}
	ds := NewDataset()
	for _, name := range df.Names() {
		col := df.Col(name)
		var (
			t   *tensors.Tensor
			err error
		)
		switch col.Type() {
		case series.Float:
			t = tensors.FromFlatDataAndDimensions(col.Float(), col.Len())
		case series.Int:
			var values []int
			if values, err = col.Int(); err == nil {
				t = tensors.FromFlatDataAndDimensions(values, col.Len())
			}
		case series.Bool:
			var values []bool
			if values, err = col.Bool(); err == nil {
				t = tensors.FromFlatDataAndDimensions(values, col.Len())
			}
		default:
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "column %q", name)
		}
		ds.Set(name, t)
	}
	return ds, nil
}
