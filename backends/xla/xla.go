// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package xla implements the arrayapi backend for XLA (https://openxla.org/) arrays: device buffers
// (*pjrt.Buffer) of the PJRT plugins (e.g. "cpu", "cuda") found in the system.
//
// Devices are named after the plugin, e.g. "cuda:1" is the second addressable device of the "cuda" plugin.
// The device kind "gpu" is an alias for "cuda". One client per plugin is created on first use and
// reused until Finalize.
//
// Simply import it with import _ "github.com/gomlx/arrayapi/backends/xla" to make it available in your program.
// It will register itself as an available backend during initialization.
package xla

import (
	"maps"
	"slices"
	"sync"

	"github.com/gomlx/arrayapi/backends"
	"github.com/gomlx/gopjrt/pjrt"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// BackendName to be used in Get.
const BackendName = backends.XLAName

// ModulePath of the PJRT package holding the buffers.
const ModulePath = "github.com/gomlx/gopjrt/pjrt"

// Registers New as the constructor for the "xla" backend.
func init() {
	backends.Register(BackendName, New)
	backends.RegisterAlias("pjrt", BackendName)
	backends.RegisterAlias("jax", BackendName)
	backends.RegisterArrayType((*pjrt.Buffer)(nil), BackendName)
	backends.RegisterModulePath(ModulePath, BackendName)
}

var (
	// DefaultPlugins is the list of plugins to use in preference order, if not otherwise specified.
	DefaultPlugins = []string{"cuda", "cpu"}

	// DeviceKindAliases maps generic device kinds to plugin names.
	DeviceKindAliases = map[string]string{"gpu": "cuda"}

	availablePluginsMu   sync.Mutex
	availablePluginsList []string
)

// GetAvailablePlugins lists the available PJRT plugins, DefaultPlugins first -- it caches and reuses the result
// in future calls.
//
// Plugins are searched in the PJRT_PLUGIN_LIBRARY_PATH directory -- or directories, if it is a ":" separated list.
// If it is not set it will search in "/usr/local/lib/gomlx/pjrt" and the standard libraries directories of the
// system. See details in pjrt.AvailablePlugins.
func GetAvailablePlugins() []string {
	availablePluginsMu.Lock()
	defer availablePluginsMu.Unlock()
	if len(availablePluginsList) > 0 {
		return availablePluginsList
	}

	available := maps.Clone(pjrt.AvailablePlugins())
	klog.V(1).Infof("arrayapi: found PJRT plugins %v", slices.Collect(maps.Keys(available)))
	availablePluginsList = make([]string, 0, len(available))
	for _, pluginName := range DefaultPlugins {
		if _, found := available[pluginName]; found {
			availablePluginsList = append(availablePluginsList, pluginName)
			delete(available, pluginName)
		}
	}
	availablePluginsList = append(availablePluginsList, slices.Sorted(maps.Keys(available))...)
	return availablePluginsList
}

// New returns the xla backend. It fails with an error wrapping backends.ErrBackendUnavailable if no PJRT
// plugin is found. Clients are only created when a device of the plugin is used.
func New() (backends.Backend, error) {
	plugins := GetAvailablePlugins()
	if len(plugins) == 0 {
		return nil, errors.Wrapf(backends.ErrBackendUnavailable, "no PJRT plugins found for backend %q -- set "+
			"PJRT_PLUGIN_LIBRARY_PATH to the path where to search for PJRT plugins", BackendName)
	}
	return &Backend{
		plugins: plugins,
		clients: make(map[string]*pluginClient),
	}, nil
}

// pluginClient holds the client of one plugin.
type pluginClient struct {
	name   string
	plugin *pjrt.Plugin
	client *pjrt.Client
}

// clientFor returns the client for the plugin, creating it on first use.
func (b *Backend) clientFor(pluginName string) (*pluginClient, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if pc, found := b.clients[pluginName]; found {
		return pc, nil
	}
	if slices.Index(b.plugins, pluginName) == -1 {
		return nil, errors.Wrapf(backends.ErrInvalidDevice, "PJRT plugin %q not found: available plugins are %q",
			pluginName, b.plugins)
	}
	plugin, err := pjrt.GetPlugin(pluginName)
	if err != nil {
		return nil, errors.Wrapf(backends.ErrBackendUnavailable, "backend %q, plugin %q: %v", BackendName, pluginName, err)
	}
	client, err := plugin.NewClient(nil)
	if err != nil {
		return nil, errors.Wrapf(backends.ErrBackendUnavailable, "backend %q, plugin %q: %v", BackendName, pluginName, err)
	}
	klog.V(1).Infof("arrayapi: created PJRT client for plugin %q with %d devices", pluginName, len(client.AddressableDevices()))
	pc := &pluginClient{name: pluginName, plugin: plugin, client: client}
	b.clients[pluginName] = pc
	return pc, nil
}

// resolveDevice returns the plugin client and device number for device.
// The zero Device selects the first device of the preferred plugin.
func (b *Backend) resolveDevice(device backends.Device) (*pluginClient, int, error) {
	pluginName := device.Kind
	if device.IsZero() {
		pluginName = b.plugins[0]
	} else if alias, found := DeviceKindAliases[pluginName]; found {
		pluginName = alias
	}
	pc, err := b.clientFor(pluginName)
	if err != nil {
		return nil, 0, err
	}
	numDevices := len(pc.client.AddressableDevices())
	if device.Index >= numDevices {
		return nil, 0, errors.Wrapf(backends.ErrInvalidDevice, "device %q not available, plugin %q has %d devices",
			device, pluginName, numDevices)
	}
	return pc, device.Index, nil
}
