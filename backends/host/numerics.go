// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package host

import (
	"github.com/gomlx/arrayapi/backends"
	"github.com/gomlx/arrayapi/internal/numerics"
)

// Polyval implements backends.Polyvaler.
func (b *Backend) Polyval(x any, c []float64) (any, error) {
	t, err := AsTensor(x)
	if err != nil {
		return nil, err
	}
	return numerics.Polyval(t, c)
}

// Percentile implements backends.Percentiler.
func (b *Backend) Percentile(a any, q float64, axis ...int) (any, error) {
	t, err := AsTensor(a)
	if err != nil {
		return nil, err
	}
	return numerics.Percentile(t, q, axis...)
}

// HistogramDD implements backends.Histogrammer.
func (b *Backend) HistogramDD(sample any, bins ...int) (hist any, edges []any, err error) {
	t, err := AsTensor(sample)
	if err != nil {
		return nil, nil, err
	}
	h, e, err := numerics.HistogramDD(t, bins...)
	if err != nil {
		return nil, nil, err
	}
	edges = make([]any, len(e))
	for ii, edge := range e {
		edges[ii] = edge
	}
	return h, edges, nil
}

// IsClose implements backends.IsCloser.
func (b *Backend) IsClose(x, y any, tol backends.Tolerance) (any, error) {
	tx, err := AsTensor(x)
	if err != nil {
		return nil, err
	}
	ty, err := AsTensor(y)
	if err != nil {
		return nil, err
	}
	return numerics.IsClose(tx, ty, tol.RTol, tol.ATol, tol.EqualNaN)
}

// Sign implements backends.Signer.
func (b *Backend) Sign(x any) (any, error) {
	t, err := AsTensor(x)
	if err != nil {
		return nil, err
	}
	return numerics.Sign(t)
}
