// Copyright (c) 2026 The VirtRunner Authors
//
// SPDX-License-Identifier: Apache-2.0
//

package vmutils

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/docker/go-units"
	multierror "github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/virtrunner/runtime/virtmem"
)

// defaultMemoryBackingDir is where device backing files live unless the
// configuration says otherwise.
const defaultMemoryBackingDir = "/run/virtrunner/memory"

var vmutilsLog = logrus.WithField("source", "vmutils")

// memoryDeviceTOML is one [[memory_device]] stanza. Sizes are expressed in
// human readable units ("4KiB", "1GiB").
type memoryDeviceTOML struct {
	ID            string `toml:"id"`
	BlockSize     string `toml:"block_size"`
	NodeID        uint16 `toml:"node_id"`
	RegionSize    string `toml:"region_size"`
	RequestedSize string `toml:"requested_size"`
}

type runtimeTOML struct {
	Runtime struct {
		MemoryBackingDir string `toml:"memory_backing_dir"`
	} `toml:"runtime"`

	MemoryDevices []memoryDeviceTOML `toml:"memory_device"`
}

// RuntimeConfig is the parsed runtime configuration.
type RuntimeConfig struct {
	// MemoryBackingDir is the host directory holding memory device
	// backing files.
	MemoryBackingDir string

	// MemoryDevices are the memory devices to configure, in file order.
	MemoryDevices []virtmem.MemoryDeviceConfig
}

// ParseMemorySize converts a human readable memory size ("128MiB") into
// bytes. An empty string means the field was omitted and parses to zero.
func ParseMemorySize(value string) (uint64, error) {
	if value == "" {
		return 0, nil
	}

	size, err := units.RAMInBytes(value)
	if err != nil {
		return 0, fmt.Errorf("invalid memory size %q: %v", value, err)
	}

	return uint64(size), nil
}

func (m memoryDeviceTOML) config() (virtmem.MemoryDeviceConfig, error) {
	blockSize, err := ParseMemorySize(m.BlockSize)
	if err != nil {
		return virtmem.MemoryDeviceConfig{}, err
	}

	regionSize, err := ParseMemorySize(m.RegionSize)
	if err != nil {
		return virtmem.MemoryDeviceConfig{}, err
	}

	requestedSize, err := ParseMemorySize(m.RequestedSize)
	if err != nil {
		return virtmem.MemoryDeviceConfig{}, err
	}

	return virtmem.MemoryDeviceConfig{
		ID:            m.ID,
		BlockSize:     blockSize,
		NodeID:        m.NodeID,
		RegionSize:    regionSize,
		RequestedSize: requestedSize,
	}, nil
}

// LoadRuntimeConfig reads and parses the runtime configuration file.
// Stanza errors are collected so a single run reports every bad device.
func LoadRuntimeConfig(configPath string) (RuntimeConfig, error) {
	var tomlConf runtimeTOML

	if _, err := toml.DecodeFile(configPath, &tomlConf); err != nil {
		return RuntimeConfig{}, errors.Wrapf(err, "could not load runtime config %s", configPath)
	}

	config := RuntimeConfig{
		MemoryBackingDir: tomlConf.Runtime.MemoryBackingDir,
	}
	if config.MemoryBackingDir == "" {
		config.MemoryBackingDir = defaultMemoryBackingDir
	}

	var stanzaErrs *multierror.Error

	for i, stanza := range tomlConf.MemoryDevices {
		cfg, err := stanza.config()
		if err != nil {
			stanzaErrs = multierror.Append(stanzaErrs,
				errors.Wrapf(err, "memory_device stanza %d (%q)", i, stanza.ID))
			continue
		}

		config.MemoryDevices = append(config.MemoryDevices, cfg)
	}

	if err := stanzaErrs.ErrorOrNil(); err != nil {
		return RuntimeConfig{}, err
	}

	vmutilsLog.WithFields(logrus.Fields{
		"config-path": configPath,
		"devices":     len(config.MemoryDevices),
	}).Debug("runtime config loaded")

	return config, nil
}

// BuildRegistry constructs the memory device registry described by the
// configuration. Device construction errors are collected per device; the
// returned registry holds every device that was accepted.
func BuildRegistry(config RuntimeConfig) (*virtmem.Registry, error) {
	registry := virtmem.NewRegistry()

	var insertErrs *multierror.Error

	for _, cfg := range config.MemoryDevices {
		if err := registry.Insert(cfg); err != nil {
			insertErrs = multierror.Append(insertErrs,
				errors.Wrapf(err, "memory device %q", cfg.ID))
		}
	}

	return registry, insertErrs.ErrorOrNil()
}
