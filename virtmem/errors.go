// Copyright (c) 2026 The VirtRunner Authors
//
// SPDX-License-Identifier: Apache-2.0
//

package virtmem

import (
	"errors"
	"fmt"
)

// Errors returned by the memory device registry and its consumers. The set
// is closed: every fallible operation in this package reports one of these
// or a *CreateError.
var (
	// ErrDeviceNotFound is returned when a request references a memory
	// device id that was never registered.
	ErrDeviceNotFound = errors.New("memory device not found")

	// ErrDeviceNotActive is returned when an operation requires an
	// activated memory device and the device has not been activated yet.
	ErrDeviceNotActive = errors.New("memory device not activated yet")

	// ErrDeviceWithThisIDExists is returned when registering a memory
	// device whose id is already taken by a registered device.
	ErrDeviceWithThisIDExists = errors.New("memory device with this id already exists")
)

// CreateError indicates the construction of a memory device from its
// configuration was rejected. The underlying validation failure is kept
// for diagnostics, e.g. an API error body.
type CreateError struct {
	Inner error
}

func (e *CreateError) Error() string {
	return fmt.Sprintf("failed to create memory device: %v", e.Inner)
}

// Unwrap returns the validation failure that caused the rejection.
func (e *CreateError) Unwrap() error {
	return e.Inner
}
