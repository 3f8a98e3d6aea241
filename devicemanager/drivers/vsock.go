// SPDX-License-Identifier: Apache-2.0

package drivers

import (
	"context"
	"errors"
	"os"

	"github.com/sandboxvm/runtime/devicemanager/api"
	"github.com/sandboxvm/runtime/devicemanager/config"
	"github.com/sandboxvm/runtime/internal/idgen"
)

// findContextID negotiates a guest CID and re-expresses idgen's exhaustion
// error in the public error taxonomy, the same translation driveName does
// for idgen's naming errors.
func findContextID() (*os.File, uint64, error) {
	fd, cid, err := idgen.FindContextID()
	if err != nil {
		if errors.Is(err, idgen.ErrNoFreeCid) {
			return nil, 0, config.ErrNoFreeCid
		}
		return nil, 0, err
	}
	return fd, cid, nil
}

// VsockDevice is a vhost-vsock device. Listed for interface completeness:
// the container-device flow this package drives end to end is Block and
// Generic only, so VsockDevice's job is limited to negotiating a guest
// context id and round-tripping through the registry.
type VsockDevice struct {
	*GenericDevice

	VhostFd   *os.File
	ContextID uint64
}

// NewVsockDevice creates a new vsock device and negotiates its guest
// context id immediately, the way a real vsock endpoint must hold its fd
// open for the lifetime of the sandbox to keep the CID reserved.
func NewVsockDevice(devInfo *config.DeviceInfo) (*VsockDevice, error) {
	fd, cid, err := findContextID()
	if err != nil {
		return nil, err
	}

	return &VsockDevice{
		GenericDevice: &GenericDevice{
			ID:         devInfo.ID,
			DeviceInfo: devInfo,
		},
		VhostFd:   fd,
		ContextID: cid,
	}, nil
}

// Attach is the standard api.Device interface.
func (device *VsockDevice) Attach(ctx context.Context, h api.Hypervisor) (err error) {
	skip, err := device.bumpAttachCount(true)
	if err != nil || skip {
		return err
	}

	defer func() {
		if err != nil {
			device.bumpAttachCount(false)
		}
	}()

	return h.HotplugAddDevice(ctx, device, config.DeviceVsock)
}

// Detach is the standard api.Device interface.
func (device *VsockDevice) Detach(ctx context.Context, h api.Hypervisor) (err error) {
	skip, err := device.bumpAttachCount(false)
	if err != nil || skip {
		return err
	}

	defer func() {
		if err != nil {
			device.bumpAttachCount(true)
		}
	}()

	if err = h.HotplugRemoveDevice(ctx, device, config.DeviceVsock); err != nil {
		return err
	}
	if device.VhostFd != nil {
		device.VhostFd.Close()
	}
	return nil
}

// DeviceType is the standard api.Device interface.
func (device *VsockDevice) DeviceType() config.DeviceType {
	return config.DeviceVsock
}

// GetDeviceInfo returns the negotiated guest context id.
func (device *VsockDevice) GetDeviceInfo() interface{} {
	return device.ContextID
}

// HybridVsockDevice multiplexes vsock over a UNIX socket exposed to the
// hypervisor. It shares VsockDevice's CID negotiation, so it also opens and
// holds a vhost-vsock fd, alongside the UNIX socket path.
type HybridVsockDevice struct {
	*GenericDevice

	VhostFd   *os.File
	ContextID uint64
	UdsPath   string
}

// NewHybridVsockDevice creates a new hybrid-vsock device.
func NewHybridVsockDevice(devInfo *config.DeviceInfo, udsPath string) (*HybridVsockDevice, error) {
	fd, cid, err := findContextID()
	if err != nil {
		return nil, err
	}

	return &HybridVsockDevice{
		GenericDevice: &GenericDevice{
			ID:         devInfo.ID,
			DeviceInfo: devInfo,
		},
		VhostFd:   fd,
		ContextID: cid,
		UdsPath:   udsPath,
	}, nil
}

// Attach is the standard api.Device interface.
func (device *HybridVsockDevice) Attach(ctx context.Context, h api.Hypervisor) (err error) {
	skip, err := device.bumpAttachCount(true)
	if err != nil || skip {
		return err
	}

	defer func() {
		if err != nil {
			device.bumpAttachCount(false)
		}
	}()

	return h.HotplugAddDevice(ctx, device, config.DeviceHybridVsock)
}

// Detach is the standard api.Device interface.
func (device *HybridVsockDevice) Detach(ctx context.Context, h api.Hypervisor) (err error) {
	skip, err := device.bumpAttachCount(false)
	if err != nil || skip {
		return err
	}

	defer func() {
		if err != nil {
			device.bumpAttachCount(true)
		}
	}()

	if err = h.HotplugRemoveDevice(ctx, device, config.DeviceHybridVsock); err != nil {
		return err
	}
	if device.VhostFd != nil {
		device.VhostFd.Close()
	}
	return nil
}

// DeviceType is the standard api.Device interface.
func (device *HybridVsockDevice) DeviceType() config.DeviceType {
	return config.DeviceHybridVsock
}

// GetDeviceInfo returns the UNIX socket path the hypervisor dials.
func (device *HybridVsockDevice) GetDeviceInfo() interface{} {
	return device.UdsPath
}
