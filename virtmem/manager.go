// Copyright (c) 2026 The VirtRunner Authors
//
// SPDX-License-Identifier: Apache-2.0
//

package virtmem

import (
	"errors"

	"github.com/sirupsen/logrus"
)

// Hypervisor is the subset of VMM operations the memory device manager
// drives. The concrete implementation talks to the running hypervisor
// process; NewMockHypervisor is used for testing.
type Hypervisor interface {
	// HotplugAddMemory plugs the device into the running guest.
	HotplugAddMemory(dev *MemoryDevice) error
}

// managerLogger returns a logrus logger appropriate for logging device
// manager messages.
func managerLogger() *logrus.Entry {
	return virtmemLog.WithField("subsystem", "device-manager")
}

// Manager walks the registry to plug registered memory devices into the
// guest and to apply resize requests. It decides nothing about ordering
// beyond the registry's own insertion order.
type Manager struct {
	registry   *Registry
	hypervisor Hypervisor
}

// NewManager creates a device manager driving the given hypervisor.
func NewManager(registry *Registry, hypervisor Hypervisor) *Manager {
	return &Manager{
		registry:   registry,
		hypervisor: hypervisor,
	}
}

// ActivateDevices plugs every registered device that is not active yet
// into the guest, in insertion order. It stops at the first hotplug
// failure, leaving already activated devices active.
func (m *Manager) ActivateDevices() error {
	for _, dev := range m.registry.Devices() {
		if dev.Active() {
			continue
		}

		if err := m.hypervisor.HotplugAddMemory(dev); err != nil {
			managerLogger().WithField("device-id", dev.ID()).WithError(err).Error("memory hotplug failed")
			return err
		}

		dev.Activate()
	}

	return nil
}

// ApplyUpdate applies a resize request to the device with the given id.
func (m *Manager) ApplyUpdate(id string, cfg MemoryUpdateConfig) error {
	return m.registry.UpdateRequestedSize(id, cfg)
}

var errMockHotplug = errors.New("mock hotplug failure")

type mockHypervisor struct {
	hotplugged []string
	failOn     string
}

// NewMockHypervisor returns a hypervisor that records hotplug requests,
// for testing purposes.
func NewMockHypervisor() Hypervisor {
	return &mockHypervisor{}
}

func (h *mockHypervisor) HotplugAddMemory(dev *MemoryDevice) error {
	id := dev.ID()
	if h.failOn != "" && h.failOn == id {
		return errMockHotplug
	}

	h.hotplugged = append(h.hotplugged, id)
	return nil
}
