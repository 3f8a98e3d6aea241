// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSpec means a draft device record failed validation before
	// it ever reached the registry (missing container path, bad dev_type).
	ErrInvalidSpec = errors.New("invalid device record")

	// ErrUnsupportedBlockDriver means NewDeviceManager was asked for a
	// block driver outside {virtio-mmio, virtio-blk}.
	ErrUnsupportedBlockDriver = errors.New("unsupported block driver")

	// ErrIdExhausted means five random id draws in a row all collided
	// with an existing device id.
	ErrIdExhausted = errors.New("exhausted id space: too many id collisions")

	// ErrAttachOverflow means a device's attach count would wrap past its
	// maximum representable value.
	ErrAttachOverflow = errors.New("device attach count overflow")

	// ErrNotAttached means Detach was called on a device whose attach
	// count is already zero.
	ErrNotAttached = errors.New("device not attached")

	// ErrEmptyPath means GetHostPath was asked to resolve a record with
	// no container path set.
	ErrEmptyPath = errors.New("empty device path")

	// ErrSysfsError wraps an I/O failure reading the sysfs uevent file.
	ErrSysfsError = errors.New("sysfs read error")

	// ErrSysfsMalformed wraps a sysfs uevent file that parsed but carried
	// no DEVNAME key.
	ErrSysfsMalformed = errors.New("malformed sysfs uevent file")

	// ErrNegativeIndex means driveName was asked to name a negative slot.
	ErrNegativeIndex = errors.New("negative drive index")

	// ErrIndexOverflow means driveName was asked to name a slot beyond
	// the naming scheme's capacity.
	ErrIndexOverflow = errors.New("drive index exceeds naming capacity")

	// ErrNoFreeCid means the bounded vsock context-id search exhausted
	// its attempt budget without finding a free id.
	ErrNoFreeCid = errors.New("no free vsock context id available")
)

// UnknownDeviceError is returned when a device id doesn't name a record
// the registry holds.
type UnknownDeviceError struct {
	ID string
}

func (e *UnknownDeviceError) Error() string {
	return fmt.Sprintf("unknown device %q", e.ID)
}

// AttachFailedError wraps the hypervisor-side cause of a failed attach.
type AttachFailedError struct {
	Cause error
}

func (e *AttachFailedError) Error() string {
	return fmt.Sprintf("attach failed: %v", e.Cause)
}

func (e *AttachFailedError) Unwrap() error {
	return e.Cause
}

// DetachFailedError wraps the hypervisor-side cause of a failed detach.
type DetachFailedError struct {
	Cause error
}

func (e *DetachFailedError) Error() string {
	return fmt.Sprintf("detach failed: %v", e.Cause)
}

func (e *DetachFailedError) Unwrap() error {
	return e.Cause
}
