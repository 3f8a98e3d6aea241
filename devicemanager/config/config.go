// SPDX-License-Identifier: Apache-2.0

// Package config holds the data model shared by every device kind: the
// common device record, the block-specific attach payload, and the sysfs
// resolver that fills in a device's host path.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-ini/ini"
)

// DeviceType indicates which kind of device a record describes.
type DeviceType string

const (
	// DeviceBlock is the block device kind.
	DeviceBlock DeviceType = "block"

	// DeviceGeneric is a char/FIFO device kind that needs no hypervisor
	// attach payload of its own.
	DeviceGeneric DeviceType = "generic"

	// DeviceVFIO is a PCI passthrough device kind.
	DeviceVFIO DeviceType = "vfio"

	// DeviceNetwork is a vhost-user network device kind.
	DeviceNetwork DeviceType = "network"

	// DeviceVsock is a vhost-vsock device kind.
	DeviceVsock DeviceType = "vsock"

	// DeviceHybridVsock is a hybrid-vsock device kind.
	DeviceHybridVsock DeviceType = "hybrid-vsock"

	// DeviceShareFSDevice is the virtio-fs daemon-backed share.
	DeviceShareFSDevice DeviceType = "share-fs-device"

	// DeviceShareFSMount is a single bind mount surfaced over an
	// already-running share-fs daemon.
	DeviceShareFSMount DeviceType = "share-fs-mount"
)

const (
	// VirtioMmio means block drives hot-plug as virtio-mmio devices and
	// surface a virtual path (e.g. /dev/vda) in the guest.
	VirtioMmio = "virtio-mmio"

	// VirtioBlock means block drives hot-plug as virtio-blk-pci devices
	// and surface a guest PCI address.
	VirtioBlock = "virtio-blk"

	// Nvdimm is a non-hotplug block attach mode; drives attached this way
	// never get a virt_path computed for them.
	Nvdimm = "nvdimm"
)

const (
	// BlockDriverOpt is the DriverOptions key carrying the manager's
	// fixed block driver onto a Block device record.
	BlockDriverOpt = "block-driver"

	// FsTypeOpt overrides the on-disk format reported to the hypervisor.
	FsTypeOpt = "fstype"
)

// SysDevPrefix is the root of the sysfs device tree. It's a var, not a
// const, so tests can point it at a scratch directory.
var SysDevPrefix = "/sys/dev"

var getSysDevPath = getSysDevPathImpl

// IOLimits caps a block device's I/O rate. A nil *IOLimits means
// unconstrained.
type IOLimits struct {
	ReadBPS   int64
	WriteBPS  int64
	ReadIOPS  int64
	WriteIOPS int64
}

// DeviceInfo is the common record shared by every device kind (spec's
// DeviceRecord). Kind-specific attach state (BlockDrive, VFIODev, ...)
// lives alongside it in the driver that wraps it.
type DeviceInfo struct {
	// DriverOptions is specific options for each device driver, e.g.
	// DriverOptions["block-driver"] = "virtio-blk" for a Block device.
	DriverOptions map[string]string

	// ID is minted by the manager on insertion; callers never set it.
	ID string

	// HostPath is the device's path on the host, resolved via sysfs.
	HostPath string

	// ContainerPath is the path as it should appear inside the container.
	ContainerPath string `json:"-"`

	// DevType is one of "c", "u", "b", "p".
	DevType string

	// Major, Minor are the kernel device numbers. -1 means unset.
	Major int64
	Minor int64

	// FileMode, UID, GID are the POSIX permissions for the in-guest node.
	FileMode os.FileMode
	UID      uint32
	GID      uint32

	// BDF is the PCI bus:device.function string, set when the device is
	// a VFIO passthrough.
	BDF string

	// IOLimits optionally caps this device's I/O rate.
	IOLimits *IOLimits

	// PCIAddr is the guest-side PCI address, set by the hypervisor driver
	// after a successful attach.
	PCIAddr string

	// VirtPath is the guest-side path (e.g. /dev/vdb), set after attach.
	VirtPath string

	// ColdPlug specifies whether the device must be cold plugged (true)
	// or hot plugged (false). Only meaningful for VFIO.
	ColdPlug bool

	// ReadOnly marks the in-guest node read-only.
	ReadOnly bool
}

// VFIODev identifies a single PCI endpoint inside a passed-through IOMMU
// group. VFIO is interface-complete only: nothing in this module derives
// VFIODev values from the host beyond what a caller hands the manager.
type VFIODev struct {
	ID       string
	BDF      string
	SysfsDev string
}

// BlockDrive is Block's kind-specific attach payload (spec's
// BlockSpecific).
type BlockDrive struct {
	// PathOnHost is the backing file or block device on the host.
	PathOnHost string

	// Format of the backing file, "raw" unless DriverOptions overrides it.
	Format string

	// ID identifies this drive in the hypervisor's device list.
	ID string

	// Index is the per-sandbox block ordinal assigned at attach.
	Index int

	// IsReadonly mirrors DeviceInfo.ReadOnly at attach time.
	IsReadonly bool

	// NoDrop keeps the backing file open on drop instead of closing it.
	NoDrop bool
}

// GetHostPathFunc is a function pointer used to mock GetHostPath in tests.
var GetHostPathFunc = GetHostPath

// GetHostPath resolves devInfo's host path via the kernel's sysfs uevent
// file, falling back to ContainerPath for devices sysfs knows nothing
// about (the /dev/fuse, /dev/cuse pass-through convention).
func GetHostPath(devInfo DeviceInfo) (string, error) {
	if devInfo.ContainerPath == "" {
		return "", fmt.Errorf("%w: empty container path", ErrEmptyPath)
	}

	sysDevPath := getSysDevPath(devInfo)
	if sysDevPath == "" {
		return "", nil
	}

	ueventPath := filepath.Join(sysDevPath, "uevent")
	if _, err := os.Stat(ueventPath); err != nil {
		if os.IsNotExist(err) {
			return devInfo.ContainerPath, nil
		}
		return "", fmt.Errorf("%w: %v", ErrSysfsError, err)
	}

	content, err := ini.Load(ueventPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSysfsMalformed, err)
	}

	devName, err := content.Section("").GetKey("DEVNAME")
	if err != nil {
		return "", fmt.Errorf("%w: missing DEVNAME in %s", ErrSysfsMalformed, ueventPath)
	}

	return filepath.Join("/dev", devName.String()), nil
}

func getSysDevPathImpl(devInfo DeviceInfo) string {
	var pathComp string

	switch devInfo.DevType {
	case "c", "u":
		pathComp = "char"
	case "b":
		pathComp = "block"
	default:
		// Unsupported device types don't get a sysfs lookup; callers
		// that don't require a host path treat "" as the sentinel.
		return ""
	}

	format := strconv.FormatInt(devInfo.Major, 10) + ":" + strconv.FormatInt(devInfo.Minor, 10)
	return filepath.Join(SysDevPrefix, pathComp, format)
}
