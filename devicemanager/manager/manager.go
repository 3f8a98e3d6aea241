// SPDX-License-Identifier: Apache-2.0

// Package manager implements the device registry: deduplication,
// id minting, the attach/detach lifecycle, block ordinal allocation and
// the guest-path adapter the in-VM agent consumes.
package manager

import (
	"context"
	"errors"
	"sync"

	"github.com/sandboxvm/runtime/devicemanager/agent"
	"github.com/sandboxvm/runtime/devicemanager/api"
	"github.com/sandboxvm/runtime/devicemanager/config"
	"github.com/sandboxvm/runtime/devicemanager/drivers"
	"github.com/sandboxvm/runtime/internal/idgen"
)

// ErrDeviceNotAttached is returned by DetachDevice when the device's
// attach count is already zero.
var ErrDeviceNotAttached = config.ErrNotAttached

const maxIDAttempts = 5

type deviceInfoGetter interface {
	Info() *config.DeviceInfo
}

func infoOf(dev api.Device) *config.DeviceInfo {
	if g, ok := dev.(deviceInfoGetter); ok {
		return g.Info()
	}
	return nil
}

// deviceManager is ManagerState: the registry of live devices plus the
// block ordinal allocator, guarded by a single manager-wide lock. The
// spec's design notes explicitly sanction this over a per-device-mutex
// split, since the registry's critical sections are short; the per-device
// mutex inside drivers.GenericDevice still protects state reached via a
// cloned handle returned by GetDeviceByID.
type deviceManager struct {
	mu sync.RWMutex

	blockDriver string
	devices     map[string]api.Device
	slots       slotAllocator
}

// NewDeviceManager constructs a manager fixed to blockDriver, one of
// "virtio-mmio" or "virtio-blk".
func NewDeviceManager(blockDriver string) (api.DeviceManager, error) {
	switch blockDriver {
	case config.VirtioMmio, config.VirtioBlock:
	default:
		return nil, config.ErrUnsupportedBlockDriver
	}

	return &deviceManager{
		blockDriver: blockDriver,
		devices:     make(map[string]api.Device),
	}, nil
}

func validateDraft(devInfo config.DeviceInfo) error {
	switch devInfo.DevType {
	case "c", "u", "b", "p":
	default:
		return config.ErrInvalidSpec
	}
	if devInfo.ContainerPath == "" {
		return config.ErrInvalidSpec
	}
	return nil
}

// NewDevice is add_device's registry half: it resolves the host path,
// looks the draft up by identity, and on a miss mints an id, classifies
// the kind and inserts a fresh record with attach count zero. Attaching
// it — the lifecycle half of add_device — is a separate call to
// AttachDevice, mirroring how a caller may look a device up once and
// attach it many times across containers sharing the sandbox.
func (m *deviceManager) NewDevice(devInfo config.DeviceInfo) (api.Device, error) {
	if err := validateDraft(devInfo); err != nil {
		return nil, err
	}

	if devInfo.Major != 0 || devInfo.Minor != 0 {
		hostPath, err := config.GetHostPathFunc(devInfo)
		if err != nil {
			return nil, err
		}
		if hostPath != "" {
			devInfo.HostPath = hostPath
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if existing := m.findDuplicateLocked(devInfo); existing != nil {
		return existing, nil
	}

	id, err := m.mintIDLocked()
	if err != nil {
		return nil, err
	}
	devInfo.ID = id

	var dev api.Device
	switch {
	case isVFIODevice(devInfo.HostPath):
		dev = drivers.NewVFIODevice(&devInfo)
	case isVFIOControlDevice(devInfo.HostPath):
		dev = drivers.NewGenericDevice(&devInfo)
	case isBlock(devInfo):
		if devInfo.DriverOptions == nil {
			devInfo.DriverOptions = map[string]string{}
		}
		devInfo.DriverOptions[config.BlockDriverOpt] = m.blockDriver
		dev = drivers.NewBlockDevice(&devInfo)
	default:
		dev = drivers.NewGenericDevice(&devInfo)
	}

	m.devices[id] = dev
	return dev, nil
}

// findDuplicateLocked implements §4.1's dedup priority order: by
// (major,minor), then by bdf, then by host_path.
func (m *deviceManager) findDuplicateLocked(devInfo config.DeviceInfo) api.Device {
	switch {
	case devInfo.Major >= 0 && devInfo.Minor >= 0:
		for _, d := range m.devices {
			maj, min := d.GetMajorMinor()
			if maj == devInfo.Major && min == devInfo.Minor {
				return d
			}
		}
	case devInfo.BDF != "":
		for _, d := range m.devices {
			if info := infoOf(d); info != nil && info.BDF == devInfo.BDF {
				return d
			}
		}
	default:
		if devInfo.HostPath != "" {
			for _, d := range m.devices {
				if d.GetHostPath() == devInfo.HostPath {
					return d
				}
			}
		}
	}
	return nil
}

func (m *deviceManager) mintIDLocked() (string, error) {
	for i := 0; i < maxIDAttempts; i++ {
		id, err := idgen.NewDeviceID()
		if err != nil {
			return "", err
		}
		if _, exists := m.devices[id]; !exists {
			return id, nil
		}
	}
	return "", config.ErrIdExhausted
}

// RemoveDevice deletes id from the registry without touching the
// hypervisor. It's a registry-only primitive; DetachDevice removes a
// record on its 1->0 transition by itself and does not call it. Callers
// normally reach device removal through DetachDevice instead.
func (m *deviceManager) RemoveDevice(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.devices[id]; !ok {
		return &config.UnknownDeviceError{ID: id}
	}
	delete(m.devices, id)
	return nil
}

// AttachDevice is add_device's lifecycle half. It bumps id's attach
// count; on a 0->1 transition it assigns a block device its ordinal and
// drive name before asking the hypervisor to hot-plug, rolling the
// record back entirely on failure.
//
// The manager lock is held for the full call, including the hypervisor
// round trip. The spec's design notes explicitly allow this over a
// finer-grained scheme, since the registry's own critical sections are
// short; this keeps the 0->1 transition, the ordinal assignment and the
// hotplug call from racing against a concurrent attach of the same id.
func (m *deviceManager) AttachDevice(ctx context.Context, id string, h api.Hypervisor) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	dev, ok := m.devices[id]
	if !ok {
		return &config.UnknownDeviceError{ID: id}
	}

	willAttach := dev.GetAttachCount() == 0

	var ordinal int
	var assignedOrdinal bool
	if willAttach {
		if block, ok := dev.(*drivers.BlockDevice); ok {
			var err error
			ordinal, err = m.prepareBlockAttachLocked(block)
			if err != nil {
				return err
			}
			assignedOrdinal = true
		}
	}

	if err := dev.Attach(ctx, h); err != nil {
		if willAttach {
			if assignedOrdinal {
				m.slots.release(ordinal)
			}
			delete(m.devices, id)
		}
		return &config.AttachFailedError{Cause: err}
	}

	return nil
}

// prepareBlockAttachLocked acquires an ordinal, derives its drive name,
// and populates block's attach payload, per §4.6. Called only when the
// attach about to happen is a genuine 0->1 transition.
func (m *deviceManager) prepareBlockAttachLocked(block *drivers.BlockDevice) (int, error) {
	ordinal := m.slots.acquire()

	name, err := driveName(ordinal)
	if err != nil {
		m.slots.release(ordinal)
		return 0, err
	}

	drive := &config.BlockDrive{
		PathOnHost: block.DeviceInfo.HostPath,
		Format:     "raw",
		ID:         idgen.MakeNameID("drive", block.DeviceInfo.ID, drivers.MaxDevIDSize),
		Index:      ordinal,
		IsReadonly: block.DeviceInfo.ReadOnly,
	}
	if fs, ok := block.DeviceInfo.DriverOptions[config.FsTypeOpt]; ok {
		drive.Format = fs
	}
	block.BlockDrive = drive

	if block.DeviceInfo.DriverOptions[config.BlockDriverOpt] != config.Nvdimm {
		block.DeviceInfo.VirtPath = "/dev/" + name
	}

	return ordinal, nil
}

// DetachDevice is remove_device's hypervisor-facing half: it decrements
// id's attach count, hot-unplugging and releasing the record's ordinal
// (if any) on a 1->0 transition. A failed detach restores the count.
func (m *deviceManager) DetachDevice(ctx context.Context, id string, h api.Hypervisor) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	dev, ok := m.devices[id]
	if !ok {
		return &config.UnknownDeviceError{ID: id}
	}

	if err := dev.Detach(ctx, h); err != nil {
		if errors.Is(err, config.ErrNotAttached) {
			return err
		}
		return &config.DetachFailedError{Cause: err}
	}

	if dev.GetAttachCount() == 0 {
		if block, ok := dev.(*drivers.BlockDevice); ok && block.BlockDrive != nil {
			m.slots.release(block.BlockDrive.Index)
		}
		delete(m.devices, id)
	}

	return nil
}

// IsDeviceAttached reports whether id's attach count is non-zero.
func (m *deviceManager) IsDeviceAttached(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	dev, ok := m.devices[id]
	return ok && dev.GetAttachCount() > 0
}

// GetDeviceByID returns the live device registered under id, or nil.
func (m *deviceManager) GetDeviceByID(id string) api.Device {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.devices[id]
}

// GetAllDevices returns every device currently registered.
func (m *deviceManager) GetAllDevices() []api.Device {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := make([]api.Device, 0, len(m.devices))
	for _, d := range m.devices {
		all = append(all, d)
	}
	return all
}

// GetBlockDriver returns the block driver fixed at construction. It's the
// sole input needed to reconstruct the manager across a sandbox restore.
func (m *deviceManager) GetBlockDriver() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.blockDriver
}

// GetDeviceGuestPath returns id's virt_path, if one has been assigned.
func (m *deviceManager) GetDeviceGuestPath(id string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	dev, ok := m.devices[id]
	if !ok {
		return "", false
	}
	info := infoOf(dev)
	if info == nil || info.VirtPath == "" {
		return "", false
	}
	return info.VirtPath, true
}

// GenerateAgentDevice composes the descriptor the in-guest agent needs
// for id, per §4.1's guest-path adapter.
func (m *deviceManager) GenerateAgentDevice(id string) (*agent.Device, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	dev, ok := m.devices[id]
	if !ok {
		return nil, &config.UnknownDeviceError{ID: id}
	}

	info := infoOf(dev)
	ad := &agent.Device{ID: id}
	if info == nil {
		return ad, nil
	}
	ad.ContainerPath = info.ContainerPath

	switch {
	case m.blockDriver == config.VirtioMmio && info.VirtPath != "":
		ad.Type = "mmioblk"
		ad.VMPath = info.VirtPath
	case m.blockDriver == config.VirtioBlock && info.PCIAddr != "":
		ad.Type = "blk"
		ad.VMPath = info.PCIAddr
	}

	return ad, nil
}
