// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package backends

import (
	"os"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/gomlx/arrayapi/pkg/support/xsync"
	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

var (
	registryMu           sync.RWMutex
	registeredBackends   = make(map[string]*xsync.Lazy[Backend])
	registeredAliases    = make(map[string]string)
	registeredArrayTypes = make(map[reflect.Type]string)
	registeredModules    = make(map[string]string)
)

// Register backend constructor with the given name. The backend is only constructed on the first call to Get.
//
// To be safe, call Register during initialization of a package.
func Register(name string, constructor Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registeredBackends[name] = xsync.NewLazy(func() (Backend, error) {
		klog.V(1).Infof("arrayapi: initializing backend %q", name)
		return constructor()
	})
}

// RegisterAlias registers an alternative name for a registered backend, e.g. "numpy" for "host".
func RegisterAlias(alias, name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registeredAliases[alias] = name
}

// RegisterArrayType registers the type of sample as an array type owned by the backend name.
// Resolution of arrays is by exact type.
func RegisterArrayType(sample any, name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registeredArrayTypes[reflect.TypeOf(sample)] = name
}

// RegisterModulePath registers the Go import path of the package implementing the backend name.
func RegisterModulePath(modulePath, name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registeredModules[modulePath] = name
}

// CanonicalName returns the registered name for name or one of its aliases, and whether it was found.
func CanonicalName(name string) (string, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return lockedCanonicalName(name)
}

func lockedCanonicalName(name string) (string, bool) {
	name = strings.ToLower(name)
	if _, found := registeredBackends[name]; found {
		return name, true
	}
	if target, found := registeredAliases[name]; found {
		if _, found := registeredBackends[target]; found {
			return target, true
		}
	}
	return "", false
}

// Get returns the process-wide backend registered under name (or an alias of it).
// The backend is constructed on the first call, and all callers observe the same instance.
//
// It returns an error wrapping ErrInvalidName for unregistered names. Construction errors are returned
// as is, and construction is attempted again on the next call.
func Get(name string) (Backend, error) {
	registryMu.RLock()
	canonical, found := lockedCanonicalName(name)
	lazy := registeredBackends[canonical]
	registryMu.RUnlock()
	if !found {
		return nil, errors.Wrapf(ErrInvalidName, "%q is not one of the registered array backends %q", name, Names())
	}
	backend, err := lazy.Get()
	if err != nil {
		return nil, errors.WithMessagef(err, "backend %q", canonical)
	}
	return backend, nil
}

// MustGet is like Get, but panics on error.
func MustGet(name string) Backend {
	backend, err := Get(name)
	if err != nil {
		panic(err)
	}
	return backend
}

// Default returns the host backend, the reference implementation.
//
// It panics if the host backend was not registered.
func Default() Backend {
	backend, err := Get(HostName)
	if err != nil {
		exceptions.Panicf(`no host array backend registered -- maybe import the default ones with import _ "github.com/gomlx/arrayapi/backends/default"?`)
	}
	return backend
}

// Names returns the sorted names of the registered backends (aliases excluded).
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registeredBackends))
	for name := range registeredBackends {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Aliases returns a copy of the registered aliases, mapping alias to backend name.
func Aliases() map[string]string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	aliases := make(map[string]string, len(registeredAliases))
	for alias, name := range registeredAliases {
		aliases[alias] = name
	}
	return aliases
}

// IsInitialized reports whether the backend registered under name was already constructed.
func IsInitialized(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	canonical, found := lockedCanonicalName(name)
	return found && registeredBackends[canonical].Initialized()
}

// Finalize releases the resources of every constructed backend that implements Finalizer.
// Backends are constructed again on the next Get.
func Finalize() {
	registryMu.RLock()
	lazies := make([]*xsync.Lazy[Backend], 0, len(registeredBackends))
	for _, lazy := range registeredBackends {
		lazies = append(lazies, lazy)
	}
	registryMu.RUnlock()
	for _, lazy := range lazies {
		backend, wasInitialized := lazy.Reset()
		if !wasInitialized {
			continue
		}
		if finalizer, ok := backend.(Finalizer); ok {
			finalizer.Finalize()
		}
	}
}

// DefaultAccelerator is the name of the library selected when moving arrays of a CPU-only library
// to a non-CPU device without naming the target library.
//
// The environment variable ARRAYAPI_ACCELERATOR, if set, takes precedence.
var DefaultAccelerator = XLAName

// ARRAYAPI_ACCELERATOR is the environment variable with the name of the default accelerator library.
const ARRAYAPI_ACCELERATOR = "ARRAYAPI_ACCELERATOR"

// Accelerator returns the name of the default accelerator library, see DefaultAccelerator.
func Accelerator() string {
	if name, found := os.LookupEnv(ARRAYAPI_ACCELERATOR); found && name != "" {
		return name
	}
	return DefaultAccelerator
}

// IsCPUOnly reports whether all the devices of the backend are CPUs.
func IsCPUOnly(backend Backend) bool {
	devices := backend.Devices()
	if len(devices) == 0 {
		return false
	}
	for _, device := range devices {
		if !device.IsCPU() {
			return false
		}
	}
	return true
}

// CheckCPUDevice returns an error wrapping ErrInvalidDevice if device is not the zero Device or a CPU.
// It is used by CPU-only libraries.
func CheckCPUDevice(backend Backend, device Device) error {
	if device.IsZero() || (device.IsCPU() && device.Index == 0) {
		return nil
	}
	return errors.Wrapf(ErrInvalidDevice, "%s arrays can only be on the %q device, got %q", backend.Name(), CPU, device)
}
