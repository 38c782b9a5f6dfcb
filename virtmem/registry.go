// Copyright (c) 2026 The VirtRunner Authors
//
// SPDX-License-Identifier: Apache-2.0
//

package virtmem

import (
	"github.com/sirupsen/logrus"
)

// registryLogger returns a logrus logger appropriate for logging memory
// registry messages.
func registryLogger() *logrus.Entry {
	return virtmemLog.WithField("subsystem", "memory-registry")
}

// Registry owns the ordered set of memory devices configured for one VM.
// Devices are appended in insertion order and ids are pairwise distinct at
// every observable point.
//
// The registry performs no locking of its own list: it expects to be driven
// by a single control path, typically the VM's management thread. Device
// contents may still be read or mutated concurrently through handle copies
// held by other subsystems; each device carries its own lock for that.
type Registry struct {
	devices []*MemoryDevice
}

// NewRegistry creates an empty memory device registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// buildMemoryDevice creates a memory device from its configuration. A zero
// node id means no NUMA affinity was requested; this is the only place the
// sentinel is translated.
func buildMemoryDevice(cfg MemoryDeviceConfig) (*MemoryDevice, error) {
	var numaNode *uint16
	if cfg.NodeID != 0 {
		node := cfg.NodeID
		numaNode = &node
	}

	dev, err := NewMemoryDevice(cfg.ID, cfg.BlockSize, numaNode, cfg.RegionSize, cfg.RequestedSize)
	if err != nil {
		return nil, &CreateError{Inner: err}
	}

	return dev, nil
}

// Insert creates a memory device from the provided configuration and
// registers it. It fails with a *CreateError if the configuration is
// rejected, or with ErrDeviceWithThisIDExists if the id is already taken.
func (r *Registry) Insert(cfg MemoryDeviceConfig) error {
	dev, err := buildMemoryDevice(cfg)
	if err != nil {
		registryLogger().WithField("device-id", cfg.ID).WithError(err).Error("could not create memory device")
		return err
	}

	return r.AddDevice(dev)
}

// AddDevice registers an existing memory device, preserving insertion
// order. Each registered device's lock is held only long enough to read
// its id for the uniqueness check.
func (r *Registry) AddDevice(dev *MemoryDevice) error {
	id := dev.ID()

	for _, registered := range r.devices {
		if registered.ID() == id {
			return ErrDeviceWithThisIDExists
		}
	}

	r.devices = append(r.devices, dev)

	registryLogger().WithFields(logrus.Fields{
		"device-id": id,
		"devices":   len(r.devices),
	}).Debug("memory device registered")

	return nil
}

// Devices returns the registered device handles in insertion order. The
// returned slice is a fresh copy so callers cannot disturb the registry's
// list; the handles themselves are shared.
func (r *Registry) Devices() []*MemoryDevice {
	devices := make([]*MemoryDevice, len(r.devices))
	copy(devices, r.devices)

	return devices
}

// Len returns the number of registered devices.
func (r *Registry) Len() int {
	return len(r.devices)
}

// UpdateRequestedSize applies a resize request to the registered device
// with the given id. It fails with ErrDeviceNotFound for an unknown id and
// with ErrDeviceNotActive if the device has not been activated.
func (r *Registry) UpdateRequestedSize(id string, cfg MemoryUpdateConfig) error {
	for _, dev := range r.devices {
		if dev.ID() == id {
			return dev.Resize(cfg.RequestedSize)
		}
	}

	return ErrDeviceNotFound
}
