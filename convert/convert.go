// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package convert converts arrays between the libraries registered in package backends, and moves them
// between devices.
//
// Conversions between the builtin libraries use a static table of converters. Conversions involving
// libraries arrayapi doesn't know about try, in order, the strategies in FallbackStrategies.
package convert

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gomlx/arrayapi/backends"
	"github.com/gomlx/arrayapi/namespace"
	"github.com/gomlx/arrayapi/pkg/core/tensors"
	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Converter converts x, an array of source, to an array of target. If device is not the zero Device,
// the converter may create the array directly on it.
type Converter func(x any, source, target backends.Backend, device backends.Device) (any, error)

// Strategy is a named Converter, tried as part of a fallback chain.
type Strategy struct {
	Name      string
	Converter Converter
}

// FallbackStrategies are tried in order for pairs of libraries without a direct converter.
var FallbackStrategies = []Strategy{
	{Name: "exchange", Converter: Exchange},
	{Name: "asarray", Converter: AsArray},
	{Name: "via-host", Converter: ViaHost},
}

type libraryPair struct {
	source, target backends.Library
}

type namePair struct {
	source, target string
}

var (
	builtinLibraries = []backends.Library{
		backends.LibraryHost, backends.LibraryGonum, backends.LibraryXLA, backends.LibraryWebGPU}

	// directConverters covers every ordered pair of builtin libraries.
	directConverters = make(map[libraryPair]Converter)

	convertersMu        sync.RWMutex
	registeredConverter = make(map[namePair]Converter)
)

func init() {
	for _, source := range builtinLibraries {
		for _, target := range builtinLibraries {
			var converter Converter
			switch {
			case source == target:
				converter = Identity
			case source == backends.LibraryHost:
				converter = FromHost
			case target == backends.LibraryHost:
				converter = ToHostConverter
			default:
				converter = ViaHost
			}
			directConverters[libraryPair{source, target}] = converter
		}
	}
	// Both sides share float64 buffers without copying.
	directConverters[libraryPair{backends.LibraryHost, backends.LibraryGonum}] = Exchange
	directConverters[libraryPair{backends.LibraryGonum, backends.LibraryHost}] = Exchange
}

// RegisterConverter registers a converter from arrays of the backend named source to the backend named
// target. It takes precedence over the builtin converters and the fallback strategies.
func RegisterConverter(source, target string, converter Converter) {
	convertersMu.Lock()
	defer convertersMu.Unlock()
	registeredConverter[namePair{source, target}] = converter
}

// lookupConverter returns the converter for the pair, or nil if the fallback chain should be used.
func lookupConverter(source, target backends.Backend) Converter {
	convertersMu.RLock()
	converter, found := registeredConverter[namePair{source.Name(), target.Name()}]
	convertersMu.RUnlock()
	if found {
		return converter
	}
	return directConverters[libraryPair{source.Library(), target.Library()}]
}

// Identity returns x itself.
func Identity(x any, _, _ backends.Backend, _ backends.Device) (any, error) {
	return x, nil
}

// FromHost creates the target array from the host array x.
func FromHost(x any, source, target backends.Backend, device backends.Device) (any, error) {
	t, err := source.ToHost(x)
	if err != nil {
		return nil, err
	}
	return target.FromHost(t, device)
}

// ToHostConverter returns the host representation of x.
func ToHostConverter(x any, source, _ backends.Backend, _ backends.Device) (any, error) {
	return source.ToHost(x)
}

// Exchange shares the buffer exported by the source with the target, without copying when both
// libraries support it. Exchanged buffers are always in CPU memory: device placement happens afterwards.
func Exchange(x any, source, target backends.Backend, _ backends.Device) (any, error) {
	importer, ok := target.(backends.Importer)
	if !ok {
		return nil, errors.Wrapf(backends.ErrConversion, "%s doesn't import exchanged buffers", target.Name())
	}
	ex, err := backends.Export(source, x)
	if err != nil {
		return nil, err
	}
	return importer.Import(ex)
}

// AsArray builds the target array directly from the value x.
func AsArray(x any, _, target backends.Backend, device backends.Device) (any, error) {
	return target.FromValue(x, device)
}

// ViaHost materializes x on the host and creates the target array from it.
// If the source can't provide the host representation, the host library is asked to build it.
func ViaHost(x any, source, target backends.Backend, device backends.Device) (any, error) {
	t, err := source.ToHost(x)
	if err != nil {
		klog.V(2).Infof("arrayapi: %s.ToHost(%T) failed, trying host: %v", source.Name(), x, err)
		v, hostErr := backends.Default().FromValue(x, backends.Device{})
		if hostErr != nil {
			return nil, errors.WithMessagef(err, "and host failed with %v", hostErr)
		}
		t = v.(*tensors.Tensor)
	}
	return target.FromHost(t, device)
}

// try runs the converter, and converts panics of third-party libraries to errors.
func try(converter Converter, x any, source, target backends.Backend, device backends.Device) (result any, err error) {
	exception := exceptions.Try(func() {
		result, err = converter(x, source, target, device)
	})
	if exception != nil {
		if e, ok := exception.(error); ok {
			return nil, errors.Wrap(e, "panic")
		}
		return nil, errors.Errorf("panic: %v", exception)
	}
	return
}

// fallback tries each of the FallbackStrategies in order, and returns the first success.
// If all fail, it returns an error wrapping backends.ErrConversion listing the attempts, or
// backends.ErrInvalidDevice if any of them was rejected for the device.
func fallback(x any, source, target backends.Backend, device backends.Device) (any, error) {
	var attempts []string
	sentinel := backends.ErrConversion
	for _, strategy := range FallbackStrategies {
		result, err := try(strategy.Converter, x, source, target, device)
		if err == nil {
			klog.V(2).Infof("arrayapi: converted %T from %s to %s with strategy %q", x, source.Name(), target.Name(), strategy.Name)
			return result, nil
		}
		klog.V(2).Infof("arrayapi: strategy %q failed converting %T from %s to %s: %v", strategy.Name, x, source.Name(), target.Name(), err)
		attempts = append(attempts, fmt.Sprintf("%s: %v", strategy.Name, err))
		if errors.Is(err, backends.ErrInvalidDevice) {
			sentinel = backends.ErrInvalidDevice
		}
	}
	return nil, errors.Wrapf(sentinel, "converting %T from %s to %s, all strategies failed: [%s]",
		x, source.Name(), target.Name(), strings.Join(attempts, "; "))
}

// ResolveTarget returns the backend of target, which can be a library name, a backends.Backend, a
// *namespace.Namespace or a backends.Module.
func ResolveTarget(target any) (backends.Backend, error) {
	if ns, ok := target.(*namespace.Namespace); ok {
		return ns.Backend(), nil
	}
	switch target.(type) {
	case string, backends.Backend, backends.Module:
		return backends.Resolve(target, true)
	}
	return nil, errors.Wrapf(backends.ErrUnrecognizedBackend, "invalid conversion target of type %T", target)
}

// Convert returns x converted to the target library and placed on the device.
//
// The target can be a library name (e.g. "gonum"), a backends.Backend, a *namespace.Namespace or a
// backends.Module. The device is a string like "cpu", "cuda:1" or "gpu", or empty for the library default.
//
// A nil target with no device returns x unchanged. A nil target with a device selects the target library
// as ToDevice does.
func Convert(x any, target any, device string) (any, error) {
	if target == nil && device == "" {
		return x, nil
	}
	var d backends.Device
	if device != "" {
		var err error
		if d, err = backends.ParseDevice(device); err != nil {
			return nil, err
		}
	}
	source, err := backends.FromArray(x, false)
	if err != nil {
		return nil, err
	}
	var targetBackend backends.Backend
	if target == nil {
		targetBackend, err = DefaultTarget(source, d)
	} else {
		targetBackend, err = ResolveTarget(target)
	}
	if err != nil {
		return nil, err
	}
	return convert(x, source, targetBackend, d)
}

func convert(x any, source, target backends.Backend, device backends.Device) (any, error) {
	var (
		result any
		err    error
	)
	if converter := lookupConverter(source, target); converter != nil {
		result, err = try(converter, x, source, target, device)
		if err != nil {
			return nil, errors.WithMessagef(err, "converting %T from %s to %s", x, source.Name(), target.Name())
		}
	} else {
		if result, err = fallback(x, source, target, device); err != nil {
			return nil, err
		}
	}
	if device.IsZero() {
		return result, nil
	}
	return target.ToDevice(result, device)
}

// ToHost converts x, an array of any library, to a host tensor.
func ToHost(x any) (*tensors.Tensor, error) {
	result, err := Convert(x, backends.HostName, "")
	if err != nil {
		return nil, err
	}
	return namespace.HostTensor(result)
}
