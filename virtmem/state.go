// Copyright (c) 2026 The VirtRunner Authors
//
// SPDX-License-Identifier: Apache-2.0
//

package virtmem

// MemoryDeviceState is the serialized form of a memory device, used by the
// snapshot/restore path. The node id uses the wire convention: zero means
// no NUMA affinity.
type MemoryDeviceState struct {
	ID            string `json:"id"`
	BlockSize     uint64 `json:"block_size"`
	NodeID        uint16 `json:"node_id"`
	RegionSize    uint64 `json:"region_size"`
	RequestedSize uint64 `json:"requested_size"`
	Activated     bool   `json:"activated"`
}

// Save captures the state of every registered device, in insertion order,
// so a restored VM reconstructs the same device layout.
func (r *Registry) Save() []MemoryDeviceState {
	states := make([]MemoryDeviceState, 0, len(r.devices))

	for _, dev := range r.devices {
		dev.mu.Lock()
		state := MemoryDeviceState{
			ID:            dev.id,
			BlockSize:     dev.blockSize,
			RegionSize:    dev.regionSize,
			RequestedSize: dev.requestedSize,
			Activated:     dev.activated,
		}
		if dev.hasNumaNode {
			state.NodeID = dev.numaNode
		}
		dev.mu.Unlock()

		states = append(states, state)
	}

	return states
}

// Restore rebuilds the registry from saved device states. Devices are
// recreated through the regular build path so a tampered snapshot cannot
// bypass validation or the id uniqueness check.
func (r *Registry) Restore(states []MemoryDeviceState) error {
	for _, state := range states {
		cfg := MemoryDeviceConfig{
			ID:            state.ID,
			BlockSize:     state.BlockSize,
			NodeID:        state.NodeID,
			RegionSize:    state.RegionSize,
			RequestedSize: state.RequestedSize,
		}

		dev, err := buildMemoryDevice(cfg)
		if err != nil {
			return err
		}

		if err := r.AddDevice(dev); err != nil {
			return err
		}

		if state.Activated {
			dev.Activate()
		}
	}

	return nil
}
