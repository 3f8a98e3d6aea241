// SPDX-License-Identifier: Apache-2.0

package drivers

import (
	"context"

	"github.com/sandboxvm/runtime/devicemanager/api"
	"github.com/sandboxvm/runtime/devicemanager/config"
)

// NetworkDevice is a vhost-user network endpoint. Listed for interface
// completeness only; see VFIODevice's doc comment for why.
type NetworkDevice struct {
	*GenericDevice
}

// NewNetworkDevice creates a new network device from devInfo.
func NewNetworkDevice(devInfo *config.DeviceInfo) *NetworkDevice {
	return &NetworkDevice{GenericDevice: &GenericDevice{ID: devInfo.ID, DeviceInfo: devInfo}}
}

func (device *NetworkDevice) Attach(ctx context.Context, h api.Hypervisor) (err error) {
	skip, err := device.bumpAttachCount(true)
	if err != nil || skip {
		return err
	}
	return h.HotplugAddDevice(ctx, device, config.DeviceNetwork)
}

func (device *NetworkDevice) Detach(ctx context.Context, h api.Hypervisor) (err error) {
	skip, err := device.bumpAttachCount(false)
	if err != nil || skip {
		return err
	}
	return h.HotplugRemoveDevice(ctx, device, config.DeviceNetwork)
}

func (device *NetworkDevice) DeviceType() config.DeviceType { return config.DeviceNetwork }

// ShareFSDevice is the virtio-fs daemon-backed share, one per sandbox.
type ShareFSDevice struct {
	*GenericDevice
}

// NewShareFSDevice creates a new share-fs daemon device from devInfo.
func NewShareFSDevice(devInfo *config.DeviceInfo) *ShareFSDevice {
	return &ShareFSDevice{GenericDevice: &GenericDevice{ID: devInfo.ID, DeviceInfo: devInfo}}
}

func (device *ShareFSDevice) Attach(ctx context.Context, h api.Hypervisor) (err error) {
	skip, err := device.bumpAttachCount(true)
	if err != nil || skip {
		return err
	}
	return h.HotplugAddDevice(ctx, device, config.DeviceShareFSDevice)
}

func (device *ShareFSDevice) Detach(ctx context.Context, h api.Hypervisor) (err error) {
	skip, err := device.bumpAttachCount(false)
	if err != nil || skip {
		return err
	}
	return h.HotplugRemoveDevice(ctx, device, config.DeviceShareFSDevice)
}

func (device *ShareFSDevice) DeviceType() config.DeviceType { return config.DeviceShareFSDevice }

// ShareFSMount is a single bind mount surfaced over an already-running
// share-fs daemon; it never itself triggers a hypervisor hotplug.
type ShareFSMount struct {
	*GenericDevice
}

// NewShareFSMount creates a new share-fs mount from devInfo.
func NewShareFSMount(devInfo *config.DeviceInfo) *ShareFSMount {
	return &ShareFSMount{GenericDevice: &GenericDevice{ID: devInfo.ID, DeviceInfo: devInfo}}
}

func (device *ShareFSMount) DeviceType() config.DeviceType { return config.DeviceShareFSMount }
