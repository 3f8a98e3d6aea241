// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/sandboxvm/runtime/devicemanager/agent"
	"github.com/sandboxvm/runtime/devicemanager/config"
)

var devLogger = logrus.WithField("subsystem", "device")

// SetLogger sets the logger for the device api package.
func SetLogger(logger *logrus.Entry) {
	fields := devLogger.Data
	devLogger = logger.WithFields(fields)
}

// DeviceLogger returns the logger used throughout device management.
func DeviceLogger() *logrus.Entry {
	return devLogger
}

// Hypervisor is the collaborator a device attaches to or detaches from.
type Hypervisor interface {
	HotplugAddDevice(context.Context, Device, config.DeviceType) error
	HotplugRemoveDevice(context.Context, Device, config.DeviceType) error

	// GetHypervisorType reports the concrete hypervisor backend name. No
	// kind-specific driver in this module consults it.
	GetHypervisorType() string

	// AppendDevice adds a device to the hypervisor's boot parameters,
	// used for devices that must be present at guest boot rather than
	// hot-plugged afterward.
	AppendDevice(context.Context, Device) error

	// Capabilities reports what this hypervisor backend supports, letting
	// callers outside the manager (e.g. a volume layer deciding whether to
	// request a ShareFsDevice) adapt to the concrete backend in use.
	Capabilities(context.Context) Capabilities
}

// Capabilities describes what a Hypervisor backend supports.
type Capabilities struct {
	FsSharingSupported bool
}

// Device is the common device interface every kind implements.
type Device interface {
	Attach(context.Context, Hypervisor) error
	Detach(context.Context, Hypervisor) error

	// DeviceID returns the device identifier minted by the manager.
	DeviceID() string

	// DeviceType indicates which kind of device it is.
	DeviceType() config.DeviceType

	// GetMajorMinor returns the device's major and minor numbers.
	GetMajorMinor() (int64, int64)

	// GetHostPath returns the device's path on the host.
	GetHostPath() string

	// GetDeviceInfo returns device-specific data used for hotplugging by
	// the hypervisor. Callers cast the return value to the kind-specific
	// struct, e.g. Block devices return *config.BlockDrive.
	GetDeviceInfo() interface{}

	// GetAttachCount returns how many times the device has been attached.
	GetAttachCount() uint64
}

// DeviceManager creates, removes and drives the attach/detach lifecycle of
// devices.
type DeviceManager interface {
	NewDevice(config.DeviceInfo) (Device, error)
	RemoveDevice(string) error
	AttachDevice(context.Context, string, Hypervisor) error
	DetachDevice(context.Context, string, Hypervisor) error
	IsDeviceAttached(string) bool
	GetDeviceByID(string) Device
	GetAllDevices() []Device

	// GenerateAgentDevice composes the descriptor the in-guest agent needs
	// to mount or open id.
	GenerateAgentDevice(id string) (*agent.Device, error)

	// GetDeviceGuestPath returns id's guest-side path, if one has been
	// assigned.
	GetDeviceGuestPath(id string) (string, bool)

	// GetBlockDriver returns the block driver fixed at construction.
	GetBlockDriver() string
}
