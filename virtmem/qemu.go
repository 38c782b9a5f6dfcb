// Copyright (c) 2026 The VirtRunner Authors
//
// SPDX-License-Identifier: Apache-2.0
//

package virtmem

import (
	"fmt"
	"path/filepath"

	govmmQemu "github.com/intel/govmm/qemu"
)

// maxDevIDSize is the qemu limit on device id length.
const maxDevIDSize = 31

// MemoryTopology computes the qemu memory knobs for a VM whose boot memory
// is memoryMb, leaving room up to hostMemoryMb for hotplugged devices.
func MemoryTopology(memoryMb, hostMemoryMb uint64, slots uint8) govmmQemu.Memory {
	return govmmQemu.Memory{
		Size:   fmt.Sprintf("%dM", memoryMb),
		Slots:  slots,
		MaxMem: fmt.Sprintf("%dM", hostMemoryMb),
	}
}

// AppendMemoryDevices translates the registered memory devices into the
// file-backed qemu objects backing them. backingDir is the host directory
// holding one backing file per device.
func AppendMemoryDevices(devices []govmmQemu.Device, registry *Registry, backingDir string) []govmmQemu.Device {
	for _, dev := range registry.Devices() {
		id := dev.ID()

		deviceID := fmt.Sprintf("nv-%s", id)
		if len(deviceID) > maxDevIDSize {
			deviceID = deviceID[:maxDevIDSize]
		}

		devices = append(devices,
			govmmQemu.Object{
				Driver:   govmmQemu.NVDIMM,
				Type:     govmmQemu.MemoryBackendFile,
				DeviceID: deviceID,
				ID:       id,
				MemPath:  filepath.Join(backingDir, id),
				Size:     dev.RegionSize(),
			},
		)
	}

	return devices
}
