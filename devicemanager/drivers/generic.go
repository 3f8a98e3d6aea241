// SPDX-License-Identifier: Apache-2.0

package drivers

import (
	"context"
	"math"
	"sync"

	"github.com/sandboxvm/runtime/devicemanager/api"
	"github.com/sandboxvm/runtime/devicemanager/config"
)

const maxAttachCount = math.MaxUint64

// GenericDevice refers to a device that is neither a Block nor a VFIO
// device: a plain char device or FIFO whose presence matters for sysfs
// propagation but not for hypervisor plumbing.
type GenericDevice struct {
	mu sync.Mutex

	DeviceInfo *config.DeviceInfo

	ID          string
	AttachCount uint64
}

// NewGenericDevice creates a new GenericDevice.
func NewGenericDevice(devInfo *config.DeviceInfo) *GenericDevice {
	return &GenericDevice{
		ID:         devInfo.ID,
		DeviceInfo: devInfo,
	}
}

// Attach is the standard api.Device interface. A Generic device's presence
// matters for sysfs propagation only, so attaching one never reaches the
// hypervisor: it just advances the counter.
func (device *GenericDevice) Attach(ctx context.Context, h api.Hypervisor) error {
	_, err := device.bumpAttachCount(true)
	return err
}

// Detach is the standard api.Device interface; symmetric with Attach.
func (device *GenericDevice) Detach(ctx context.Context, h api.Hypervisor) error {
	_, err := device.bumpAttachCount(false)
	return err
}

// DeviceType is the standard api.Device interface.
func (device *GenericDevice) DeviceType() config.DeviceType {
	return config.DeviceGeneric
}

// GetDeviceInfo returns the device's common record.
func (device *GenericDevice) GetDeviceInfo() interface{} {
	return device.DeviceInfo
}

// GetAttachCount returns how many times the device has been attached.
func (device *GenericDevice) GetAttachCount() uint64 {
	device.mu.Lock()
	defer device.mu.Unlock()
	return device.AttachCount
}

// DeviceID returns the device id minted by the manager.
func (device *GenericDevice) DeviceID() string {
	return device.ID
}

// GetMajorMinor returns the device's major and minor numbers.
func (device *GenericDevice) GetMajorMinor() (int64, int64) {
	return device.DeviceInfo.Major, device.DeviceInfo.Minor
}

// GetHostPath returns the device's path on the host.
func (device *GenericDevice) GetHostPath() string {
	if device.DeviceInfo != nil {
		return device.DeviceInfo.HostPath
	}
	return ""
}

// Info returns the device's common record. Kinds that embed GenericDevice
// inherit this, giving the manager a uniform way to reach DeviceInfo
// regardless of kind without widening the api.Device interface.
func (device *GenericDevice) Info() *config.DeviceInfo {
	return device.DeviceInfo
}

// bumpAttachCount drives the per-device lifecycle state machine. attach
// true means attach, false means detach. skip reports whether the caller
// must skip the real hot-(un)plug step because this call didn't cross a
// 0<->1 boundary.
func (device *GenericDevice) bumpAttachCount(attach bool) (skip bool, err error) {
	device.mu.Lock()
	defer device.mu.Unlock()

	if attach {
		switch device.AttachCount {
		case 0:
			device.AttachCount = 1
			return false, nil
		case maxAttachCount:
			return true, config.ErrAttachOverflow
		default:
			device.AttachCount++
			return true, nil
		}
	}

	switch device.AttachCount {
	case 0:
		return true, config.ErrNotAttached
	case 1:
		device.AttachCount = 0
		return false, nil
	default:
		device.AttachCount--
		return true, nil
	}
}
