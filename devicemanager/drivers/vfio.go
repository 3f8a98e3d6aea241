// SPDX-License-Identifier: Apache-2.0

package drivers

import (
	"context"

	"github.com/sandboxvm/runtime/devicemanager/api"
	"github.com/sandboxvm/runtime/devicemanager/config"
)

// VFIODevice is a PCI passthrough device. It's listed for interface
// completeness: the container-device attach/detach flow this package
// drives end to end covers Block and Generic only, so VFIODevice carries
// just enough to round-trip through the registry and the lifecycle state
// machine.
type VFIODevice struct {
	*GenericDevice
	VFIODevs []*config.VFIODev
}

// NewVFIODevice creates a new VFIO device from devInfo.
func NewVFIODevice(devInfo *config.DeviceInfo) *VFIODevice {
	return &VFIODevice{
		GenericDevice: &GenericDevice{
			ID:         devInfo.ID,
			DeviceInfo: devInfo,
		},
	}
}

// Attach is the standard api.Device interface.
func (device *VFIODevice) Attach(ctx context.Context, h api.Hypervisor) (err error) {
	skip, err := device.bumpAttachCount(true)
	if err != nil || skip {
		return err
	}

	defer func() {
		if err != nil {
			device.bumpAttachCount(false)
		}
	}()

	return h.HotplugAddDevice(ctx, device, config.DeviceVFIO)
}

// Detach is the standard api.Device interface.
func (device *VFIODevice) Detach(ctx context.Context, h api.Hypervisor) (err error) {
	skip, err := device.bumpAttachCount(false)
	if err != nil || skip {
		return err
	}

	defer func() {
		if err != nil {
			device.bumpAttachCount(true)
		}
	}()

	return h.HotplugRemoveDevice(ctx, device, config.DeviceVFIO)
}

// DeviceType is the standard api.Device interface.
func (device *VFIODevice) DeviceType() config.DeviceType {
	return config.DeviceVFIO
}

// GetDeviceInfo returns the VFIO-specific attach payload.
func (device *VFIODevice) GetDeviceInfo() interface{} {
	return device.VFIODevs
}
