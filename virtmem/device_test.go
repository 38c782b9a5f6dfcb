// Copyright (c) 2026 The VirtRunner Authors
//
// SPDX-License-Identifier: Apache-2.0
//

package virtmem

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewMemoryDeviceValidation(t *testing.T) {
	assert := assert.New(t)

	page := pageSize()

	testCases := []struct {
		id            string
		blockSize     uint64
		regionSize    uint64
		requestedSize uint64
		expected      error
	}{
		{"", page, 8 * page, 0, ErrEmptyDeviceID},
		{"mem0", 0, 8 * page, 0, ErrInvalidBlockSize},
		{"mem0", page + 1, page + 2, 0, ErrInvalidBlockSize},
		{"mem0", page / 2, 8 * page, 0, ErrInvalidBlockSize},
		{"mem0", page, 0, 0, ErrUnalignedRegionSize},
		{"mem0", page, 8*page + 1, 0, ErrUnalignedRegionSize},
		{"mem0", page, 8 * page, page + 1, ErrUnalignedRequestedSize},
		{"mem0", page, 8 * page, 16 * page, ErrRequestedSizeTooBig},
		{"mem0", page, 8 * page, 0, nil},
		{"mem0", page, 8 * page, 8 * page, nil},
	}

	for _, tc := range testCases {
		dev, err := NewMemoryDevice(tc.id, tc.blockSize, nil, tc.regionSize, tc.requestedSize)
		if tc.expected == nil {
			assert.NoError(err)
			assert.NotNil(dev)
		} else {
			assert.Equal(tc.expected, err)
			assert.Nil(dev)
		}
	}
}

func TestMemoryDeviceAccessors(t *testing.T) {
	assert := assert.New(t)

	page := pageSize()
	node := uint16(2)

	dev, err := NewMemoryDevice("mem0", page, &node, 8*page, 2*page)
	assert.NoError(err)

	assert.Equal("mem0", dev.ID())
	assert.Equal(page, dev.BlockSize())
	assert.Equal(8*page, dev.RegionSize())
	assert.Equal(2*page, dev.RequestedSize())

	got, ok := dev.NUMANode()
	assert.True(ok)
	assert.Equal(node, got)

	assert.False(dev.Active())
}

func TestMemoryDeviceResizeNotActive(t *testing.T) {
	assert := assert.New(t)

	page := pageSize()

	dev, err := NewMemoryDevice("mem0", page, nil, 8*page, 0)
	assert.NoError(err)

	err = dev.Resize(page)
	assert.Equal(ErrDeviceNotActive, err)

	// the failed resize must not have changed the size
	assert.Equal(uint64(0), dev.RequestedSize())
}

func TestMemoryDeviceResize(t *testing.T) {
	assert := assert.New(t)

	page := pageSize()

	dev, err := NewMemoryDevice("mem0", page, nil, 8*page, 0)
	assert.NoError(err)

	dev.Activate()
	assert.True(dev.Active())

	assert.NoError(dev.Resize(4 * page))
	assert.Equal(4*page, dev.RequestedSize())

	// shrinking back to zero is a valid resize
	assert.NoError(dev.Resize(0))
	assert.Equal(uint64(0), dev.RequestedSize())

	err = dev.Resize(16 * page)
	assert.Equal(ErrRequestedSizeTooBig, err)

	err = dev.Resize(page + 1)
	assert.Equal(ErrUnalignedRequestedSize, err)
}
