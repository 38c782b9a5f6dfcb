// Copyright (c) 2026 The VirtRunner Authors
//
// SPDX-License-Identifier: Apache-2.0
//

package virtmem

import (
	"errors"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var virtmemLog = logrus.WithField("source", "virtmem")

// deviceLogger returns a logrus logger appropriate for logging memory
// device messages.
func deviceLogger() *logrus.Entry {
	return virtmemLog.WithField("subsystem", "memory-device")
}

// Validation failures reported when building a memory device. They reach
// callers wrapped in a *CreateError.
var (
	// ErrEmptyDeviceID means the configuration carried no device id.
	ErrEmptyDeviceID = errors.New("device id must not be empty")

	// ErrInvalidBlockSize means the block size is zero, not a power of
	// two, or smaller than the host page size.
	ErrInvalidBlockSize = errors.New("block size must be a power of two no smaller than the page size")

	// ErrUnalignedRegionSize means the region size is zero or not a
	// multiple of the block size.
	ErrUnalignedRegionSize = errors.New("region size must be a non-zero multiple of the block size")

	// ErrUnalignedRequestedSize means the requested size is not a
	// multiple of the block size.
	ErrUnalignedRequestedSize = errors.New("requested size must be a multiple of the block size")

	// ErrRequestedSizeTooBig means the requested size exceeds the region
	// size.
	ErrRequestedSizeTooBig = errors.New("requested size must not exceed the region size")
)

// MemoryDevice is a hot-pluggable, guest-visible block of addressable
// memory. A device handle is shared between the registry and any other
// holder (device manager, polling thread); its internal state is protected
// by its own lock so concurrent readers and writers of one device never
// race. The registry's list structure itself is not protected by this lock.
type MemoryDevice struct {
	mu sync.Mutex

	id            string
	blockSize     uint64
	numaNode      uint16
	hasNumaNode   bool
	regionSize    uint64
	requestedSize uint64
	activated     bool
}

// NewMemoryDevice builds a memory device after validating its geometry.
// numaNode is nil when no NUMA affinity was requested.
func NewMemoryDevice(id string, blockSize uint64, numaNode *uint16, regionSize, requestedSize uint64) (*MemoryDevice, error) {
	if id == "" {
		return nil, ErrEmptyDeviceID
	}

	pageSize := uint64(os.Getpagesize())
	if blockSize < pageSize || blockSize&(blockSize-1) != 0 {
		return nil, ErrInvalidBlockSize
	}

	if regionSize == 0 || regionSize%blockSize != 0 {
		return nil, ErrUnalignedRegionSize
	}

	if requestedSize%blockSize != 0 {
		return nil, ErrUnalignedRequestedSize
	}

	if requestedSize > regionSize {
		return nil, ErrRequestedSizeTooBig
	}

	m := &MemoryDevice{
		id:            id,
		blockSize:     blockSize,
		regionSize:    regionSize,
		requestedSize: requestedSize,
	}

	if numaNode != nil {
		m.numaNode = *numaNode
		m.hasNumaNode = true
	}

	return m, nil
}

// ID returns the device id.
func (m *MemoryDevice) ID() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.id
}

// BlockSize returns the resize granularity in bytes.
func (m *MemoryDevice) BlockSize() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.blockSize
}

// RegionSize returns the maximum addressable extent in bytes.
func (m *MemoryDevice) RegionSize() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.regionSize
}

// RequestedSize returns the current guest-visible size in bytes.
func (m *MemoryDevice) RequestedSize() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.requestedSize
}

// NUMANode returns the NUMA node the device memory is associated with.
// The second return value is false when no affinity was requested.
func (m *MemoryDevice) NUMANode() (uint16, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.numaNode, m.hasNumaNode
}

// Activate marks the device as plugged into the guest. Resizes are only
// accepted afterwards.
func (m *MemoryDevice) Activate() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.activated = true

	deviceLogger().WithField("device-id", m.id).Debug("memory device activated")
}

// Active reports whether the device has been activated.
func (m *MemoryDevice) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.activated
}

// Resize changes the guest-visible size of the device. The device must be
// active and the new size must respect the device geometry.
func (m *MemoryDevice) Resize(requestedSize uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.activated {
		return ErrDeviceNotActive
	}

	if requestedSize%m.blockSize != 0 {
		return ErrUnalignedRequestedSize
	}

	if requestedSize > m.regionSize {
		return ErrRequestedSizeTooBig
	}

	deviceLogger().WithFields(logrus.Fields{
		"device-id":      m.id,
		"requested-size": requestedSize,
	}).Debug("memory device resized")

	m.requestedSize = requestedSize

	return nil
}
