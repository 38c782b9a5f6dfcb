// Copyright (c) 2026 The VirtRunner Authors
//
// SPDX-License-Identifier: Apache-2.0
//

package virtmem

import (
	"encoding/json"
	"io"

	"github.com/mitchellh/mapstructure"
)

// MemoryDeviceConfig is the strongly typed equivalent of the JSON body of
// memory device creation requests. Validity of the values is enforced when
// the device is built, not here.
type MemoryDeviceConfig struct {
	// ID of the device. Must be unique across the VM.
	ID string `json:"id"`

	// BlockSize is the resize granularity in bytes.
	BlockSize uint64 `json:"block_size"`

	// NodeID is the NUMA node the backing memory should be associated
	// with. Zero means no affinity was requested.
	NodeID uint16 `json:"node_id"`

	// RegionSize is the maximum addressable extent in bytes.
	RegionSize uint64 `json:"region_size"`

	// RequestedSize is the initial guest-visible size in bytes.
	RequestedSize uint64 `json:"requested_size"`
}

// MemoryUpdateConfig is the body of a memory device update request. The
// only thing that can be modified is the requested size of the region.
type MemoryUpdateConfig struct {
	// RequestedSize is the new guest-visible size in bytes.
	RequestedSize uint64 `json:"requested_size"`
}

// DecodeMemoryDeviceConfig decodes a device creation request body,
// rejecting unrecognized fields.
func DecodeMemoryDeviceConfig(r io.Reader) (MemoryDeviceConfig, error) {
	var cfg MemoryDeviceConfig

	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&cfg); err != nil {
		return MemoryDeviceConfig{}, err
	}

	return cfg, nil
}

// DecodeMemoryUpdateConfig decodes a device update request body,
// rejecting unrecognized fields.
func DecodeMemoryUpdateConfig(r io.Reader) (MemoryUpdateConfig, error) {
	var cfg MemoryUpdateConfig

	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&cfg); err != nil {
		return MemoryUpdateConfig{}, err
	}

	return cfg, nil
}

// MemoryDeviceConfigFromMap builds a device configuration from a generic
// key/value map, as found in annotations. Keys not belonging to the
// configuration are rejected.
func MemoryDeviceConfigFromMap(m map[string]interface{}) (MemoryDeviceConfig, error) {
	var cfg MemoryDeviceConfig

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &cfg,
		TagName:     "json",
		ErrorUnused: true,
	})
	if err != nil {
		return MemoryDeviceConfig{}, err
	}

	if err := decoder.Decode(m); err != nil {
		return MemoryDeviceConfig{}, err
	}

	return cfg, nil
}
