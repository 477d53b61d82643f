// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package namespace

import (
	"github.com/gomlx/arrayapi/backends"
	"github.com/gomlx/arrayapi/internal/numerics"
	"github.com/gomlx/arrayapi/pkg/core/tensors"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Default tolerances of IsClose and AllClose.
const (
	DefaultRTol = 1e-5
	DefaultATol = 1e-8
)

// toHost returns the host representation of x and the device holding it.
// Plain Go values and host tensors are accepted by any namespace, and report the zero Device.
func (ns *Namespace) toHost(x any) (*tensors.Tensor, backends.Device, error) {
	if ns.backend.Owns(x) {
		device, err := ns.backend.Device(x)
		if err != nil {
			return nil, device, err
		}
		t, err := ns.backend.ToHost(x)
		return t, device, err
	}
	if t, ok := x.(*tensors.Tensor); ok {
		return t, backends.Device{}, nil
	}
	if backends.IsPlainValue(x) {
		t, err := tensors.FromAnyValue(x)
		return t, backends.Device{}, err
	}
	return nil, backends.Device{}, errors.Wrapf(backends.ErrConversion, "%T is not a %s array", x, ns.Name())
}

// fromHost moves a result computed on the host back to the library and the device of the input.
// Results the library can't represent (e.g. rank 3 for gonum) are returned as host tensors.
func (ns *Namespace) fromHost(t *tensors.Tensor, device backends.Device) (any, error) {
	result, err := ns.backend.FromHost(t, device)
	if errors.Is(err, backends.ErrUnsupportedShape) {
		klog.V(1).Infof("arrayapi: %s can't hold result of shape %s, returning a host tensor", ns.Name(), t.Shape())
		return t, nil
	}
	return result, err
}

// unary runs fn on the host representation of x.
func (ns *Namespace) unary(x any, fn func(t *tensors.Tensor) (*tensors.Tensor, error)) (any, error) {
	t, device, err := ns.toHost(x)
	if err != nil {
		return nil, err
	}
	result, err := fn(t)
	if err != nil {
		return nil, err
	}
	return ns.fromHost(result, device)
}

// Polyval evaluates the polynomial c[0] + c[1]*x + ... + c[n]*x^n, element-wise.
// The result has the shape of x.
func (ns *Namespace) Polyval(x any, c []float64) (any, error) {
	if p, ok := ns.backend.(backends.Polyvaler); ok {
		return p.Polyval(x, c)
	}
	return ns.unary(x, func(t *tensors.Tensor) (*tensors.Tensor, error) {
		return numerics.Polyval(t, c)
	})
}

// Percentile returns the q-th percentile (q in [0, 100]) of a, interpolating linearly between the
// closest ranks. With no axis the array is flattened and the result is a scalar.
func (ns *Namespace) Percentile(a any, q float64, axis ...int) (any, error) {
	if q < 0 || q > 100 {
		return nil, errors.Errorf("percentile q=%g must be in the range [0, 100]", q)
	}
	if p, ok := ns.backend.(backends.Percentiler); ok {
		return p.Percentile(a, q, axis...)
	}
	return ns.unary(a, func(t *tensors.Tensor) (*tensors.Tensor, error) {
		return numerics.Percentile(t, q, axis...)
	})
}

// Quantile is like Percentile, but with q in [0, 1].
func (ns *Namespace) Quantile(a any, q float64, axis ...int) (any, error) {
	if q < 0 || q > 1 {
		return nil, errors.Errorf("quantile q=%g must be in the range [0, 1]", q)
	}
	return ns.Percentile(a, q*100, axis...)
}

// HistogramDD counts the rows of sample, shaped (N, D), in a D-dimensional grid of uniform bins spanning
// the range of each dimension.
//
// bins is empty (10 bins per dimension), one value for all dimensions or one value per dimension.
// It returns the counts, shaped like the bins, and the D arrays of bin edges.
func (ns *Namespace) HistogramDD(sample any, bins ...int) (hist any, edges []any, err error) {
	if h, ok := ns.backend.(backends.Histogrammer); ok {
		return h.HistogramDD(sample, bins...)
	}
	t, device, err := ns.toHost(sample)
	if err != nil {
		return nil, nil, err
	}
	hostHist, hostEdges, err := numerics.HistogramDD(t, bins...)
	if err != nil {
		return nil, nil, err
	}
	return ns.histogramFromHost(hostHist, hostEdges, device)
}

// Histogram2D is HistogramDD for the pairs (x[i], y[i]).
func (ns *Namespace) Histogram2D(x, y any, bins ...int) (hist any, edges []any, err error) {
	tx, device, err := ns.toHost(x)
	if err != nil {
		return nil, nil, err
	}
	ty, _, err := ns.toHost(y)
	if err != nil {
		return nil, nil, err
	}
	if h, ok := ns.backend.(backends.Histogrammer); ok {
		sample, err := numerics.StackColumns(tx, ty)
		if err != nil {
			return nil, nil, err
		}
		nativeSample, err := ns.backend.FromHost(sample, device)
		if err != nil {
			return nil, nil, err
		}
		return h.HistogramDD(nativeSample, bins...)
	}
	hostHist, hostEdges, err := numerics.Histogram2D(tx, ty, bins...)
	if err != nil {
		return nil, nil, err
	}
	return ns.histogramFromHost(hostHist, hostEdges, device)
}

func (ns *Namespace) histogramFromHost(hostHist *tensors.Tensor, hostEdges []*tensors.Tensor, device backends.Device) (hist any, edges []any, err error) {
	hist, err = ns.fromHost(hostHist, device)
	if err != nil {
		return nil, nil, err
	}
	edges = make([]any, len(hostEdges))
	for ii, edge := range hostEdges {
		if edges[ii], err = ns.fromHost(edge, device); err != nil {
			return nil, nil, err
		}
	}
	return hist, edges, nil
}

// CloseOption configures IsClose and AllClose.
type CloseOption func(*backends.Tolerance)

// WithRTol sets the relative tolerance. Default is DefaultRTol.
func WithRTol(rtol float64) CloseOption {
	return func(tol *backends.Tolerance) { tol.RTol = rtol }
}

// WithATol sets the absolute tolerance. Default is DefaultATol.
func WithATol(atol float64) CloseOption {
	return func(tol *backends.Tolerance) { tol.ATol = atol }
}

// WithEqualNaN makes NaNs compare as close to each other.
func WithEqualNaN() CloseOption {
	return func(tol *backends.Tolerance) { tol.EqualNaN = true }
}

func tolerance(options []CloseOption) backends.Tolerance {
	tol := backends.Tolerance{RTol: DefaultRTol, ATol: DefaultATol}
	for _, option := range options {
		option(&tol)
	}
	return tol
}

// IsClose returns element-wise whether |x-y| <= atol + rtol*|y|.
// Scalars are broadcast, and plain Go values are promoted to arrays.
func (ns *Namespace) IsClose(x, y any, options ...CloseOption) (any, error) {
	tol := tolerance(options)
	if c, ok := ns.backend.(backends.IsCloser); ok {
		return c.IsClose(x, y, tol)
	}
	tx, device, err := ns.toHost(x)
	if err != nil {
		return nil, err
	}
	ty, deviceY, err := ns.toHost(y)
	if err != nil {
		return nil, err
	}
	if device.IsZero() {
		device = deviceY
	}
	result, err := numerics.IsClose(tx, ty, tol.RTol, tol.ATol, tol.EqualNaN)
	if err != nil {
		return nil, err
	}
	return ns.fromHost(result, device)
}

// AllClose returns whether all elements of x and y are close, see IsClose.
func (ns *Namespace) AllClose(x, y any, options ...CloseOption) (bool, error) {
	closeness, err := ns.IsClose(x, y, options...)
	if err != nil {
		return false, err
	}
	t, _, err := ns.toHost(closeness)
	if err != nil {
		return false, err
	}
	values, err := t.Float64s()
	if err != nil {
		return false, err
	}
	for _, v := range values {
		if v == 0 {
			return false, nil
		}
	}
	return true, nil
}

// Sign returns -1, 0 or 1 for each element of x. NaNs are propagated.
func (ns *Namespace) Sign(x any) (any, error) {
	if s, ok := ns.backend.(backends.Signer); ok {
		return s.Sign(x)
	}
	return ns.unary(x, numerics.Sign)
}

// Deg2Rad converts angles from degrees to radians.
func (ns *Namespace) Deg2Rad(x any) (any, error) {
	return ns.unary(x, numerics.Deg2Rad)
}

// Rad2Deg converts angles from radians to degrees.
func (ns *Namespace) Rad2Deg(x any) (any, error) {
	return ns.unary(x, numerics.Rad2Deg)
}
