// SPDX-License-Identifier: Apache-2.0

package drivers

import (
	"context"

	"github.com/sandboxvm/runtime/devicemanager/api"
	"github.com/sandboxvm/runtime/devicemanager/config"
)

// MaxDevIDSize bounds the drive id passed on the hypervisor command line.
const MaxDevIDSize = 31

// BlockDevice refers to a block storage device implementation. Its ordinal
// (BlockDrive.Index) and guest virt_path are assigned by the manager before
// Attach is called, not by the device itself: slot assignment is a
// registry-wide concern, not a per-device one.
type BlockDevice struct {
	*GenericDevice
	BlockDrive *config.BlockDrive
}

// NewBlockDevice creates a new block device from devInfo.
func NewBlockDevice(devInfo *config.DeviceInfo) *BlockDevice {
	return &BlockDevice{
		GenericDevice: &GenericDevice{
			ID:         devInfo.ID,
			DeviceInfo: devInfo,
		},
	}
}

// Attach is the standard api.Device interface. The caller (the manager) is
// responsible for populating BlockDrive with this attach's ordinal before
// calling Attach, whenever it knows the attach count is about to cross
// 0->1.
func (device *BlockDevice) Attach(ctx context.Context, h api.Hypervisor) (err error) {
	skip, err := device.bumpAttachCount(true)
	if err != nil {
		return err
	}
	if skip {
		return nil
	}

	defer func() {
		if err != nil {
			device.bumpAttachCount(false)
		}
	}()

	deviceLogger().WithField("device", device.DeviceInfo.HostPath).
		WithField("virt-path", device.DeviceInfo.VirtPath).
		Info("attaching block device")

	if err = h.HotplugAddDevice(ctx, device, config.DeviceBlock); err != nil {
		return err
	}
	return nil
}

// Detach is the standard api.Device interface.
func (device *BlockDevice) Detach(ctx context.Context, h api.Hypervisor) (err error) {
	skip, err := device.bumpAttachCount(false)
	if err != nil {
		return err
	}
	if skip {
		return nil
	}

	defer func() {
		if err != nil {
			device.bumpAttachCount(true)
		}
	}()

	deviceLogger().WithField("device", device.DeviceInfo.HostPath).Info("detaching block device")

	if err = h.HotplugRemoveDevice(ctx, device, config.DeviceBlock); err != nil {
		deviceLogger().WithError(err).Error("failed to detach block device")
		return err
	}
	return nil
}

// DeviceType is the standard api.Device interface.
func (device *BlockDevice) DeviceType() config.DeviceType {
	return config.DeviceBlock
}

// GetDeviceInfo returns the block-specific attach payload.
func (device *BlockDevice) GetDeviceInfo() interface{} {
	return device.BlockDrive
}
