// Copyright (c) 2026 The VirtRunner Authors
//
// SPDX-License-Identifier: Apache-2.0
//

package virtmem

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func pageSize() uint64 {
	return uint64(os.Getpagesize())
}

func defaultConfig() MemoryDeviceConfig {
	return MemoryDeviceConfig{
		ID:            "memory-dev",
		BlockSize:     pageSize(),
		NodeID:        0,
		RegionSize:    8 * pageSize(),
		RequestedSize: 0,
	}
}

func brokenConfig() MemoryDeviceConfig {
	return MemoryDeviceConfig{
		ID:            "broken-config",
		BlockSize:     pageSize() + 1,
		NodeID:        0,
		RegionSize:    pageSize() + 2,
		RequestedSize: 0,
	}
}

func TestInsertDuplicate(t *testing.T) {
	assert := assert.New(t)

	registry := NewRegistry()

	// adding one memory device should work
	assert.NoError(registry.Insert(defaultConfig()))

	// adding a second memory device with the same id should fail
	err := registry.Insert(defaultConfig())
	assert.Equal(ErrDeviceWithThisIDExists, err)

	assert.Equal(1, registry.Len())
}

func TestInsertBrokenConfig(t *testing.T) {
	assert := assert.New(t)

	registry := NewRegistry()

	// building a memory device from an ill-formed config should fail
	err := registry.Insert(brokenConfig())
	assert.Error(err)

	var createErr *CreateError
	assert.True(errors.As(err, &createErr))
	assert.Error(createErr.Inner)

	// the failed attempt must not have added anything
	assert.Equal(0, registry.Len())

	// adding a valid one afterwards should work
	assert.NoError(registry.Insert(defaultConfig()))
	assert.Equal(1, registry.Len())
}

func TestInsertPreservesOrder(t *testing.T) {
	assert := assert.New(t)

	registry := NewRegistry()

	for _, id := range []string{"a", "b", "c"} {
		cfg := defaultConfig()
		cfg.ID = id
		assert.NoError(registry.Insert(cfg))
	}

	var ids []string
	for _, dev := range registry.Devices() {
		ids = append(ids, dev.ID())
	}

	assert.Equal([]string{"a", "b", "c"}, ids)
}

func TestInsertNUMANodeTranslation(t *testing.T) {
	assert := assert.New(t)

	registry := NewRegistry()

	// node id 0 means no NUMA affinity was requested
	assert.NoError(registry.Insert(defaultConfig()))

	_, ok := registry.Devices()[0].NUMANode()
	assert.False(ok)

	// any nonzero node id passes through verbatim
	cfg := defaultConfig()
	cfg.ID = "memory-dev-numa"
	cfg.NodeID = 3
	assert.NoError(registry.Insert(cfg))

	node, ok := registry.Devices()[1].NUMANode()
	assert.True(ok)
	assert.Equal(uint16(3), node)
}

func TestEmptyRegistryDevices(t *testing.T) {
	assert := assert.New(t)

	registry := NewRegistry()

	assert.Equal(0, registry.Len())
	assert.Empty(registry.Devices())
}

func TestAddDevice(t *testing.T) {
	assert := assert.New(t)

	registry := NewRegistry()

	dev, err := buildMemoryDevice(defaultConfig())
	assert.NoError(err)
	assert.NoError(registry.AddDevice(dev))

	// a distinct handle with the same id must be rejected
	clone, err := buildMemoryDevice(defaultConfig())
	assert.NoError(err)
	err = registry.AddDevice(clone)
	assert.Equal(ErrDeviceWithThisIDExists, err)

	assert.Equal(1, registry.Len())
}

func TestDevicesReturnsSharedHandles(t *testing.T) {
	assert := assert.New(t)

	registry := NewRegistry()
	assert.NoError(registry.Insert(defaultConfig()))

	// mutating through one traversal must be visible through another
	devices := registry.Devices()
	devices[0].Activate()

	assert.True(registry.Devices()[0].Active())
}

func TestUpdateRequestedSizeNotFound(t *testing.T) {
	assert := assert.New(t)

	registry := NewRegistry()

	err := registry.UpdateRequestedSize("memory-dev", MemoryUpdateConfig{RequestedSize: pageSize()})
	assert.Equal(ErrDeviceNotFound, err)
}

func TestUpdateRequestedSizeNotActive(t *testing.T) {
	assert := assert.New(t)

	registry := NewRegistry()
	assert.NoError(registry.Insert(defaultConfig()))

	err := registry.UpdateRequestedSize("memory-dev", MemoryUpdateConfig{RequestedSize: pageSize()})
	assert.Equal(ErrDeviceNotActive, err)
}

func TestUpdateRequestedSize(t *testing.T) {
	assert := assert.New(t)

	registry := NewRegistry()
	assert.NoError(registry.Insert(defaultConfig()))

	dev := registry.Devices()[0]
	dev.Activate()

	err := registry.UpdateRequestedSize("memory-dev", MemoryUpdateConfig{RequestedSize: 2 * pageSize()})
	assert.NoError(err)
	assert.Equal(2*pageSize(), dev.RequestedSize())
}
