// SPDX-License-Identifier: Apache-2.0

// Package agent holds the descriptors the in-guest agent needs, composed
// by the manager from a device record and the sandbox's block driver mode.
package agent

// Device is what the agent needs to locate a device inside the guest.
type Device struct {
	ID            string
	ContainerPath string

	// Type is one of "mmioblk", "blk", or "" for kinds the guest-path
	// adapter has nothing specific to say about.
	Type string

	// VMPath is the virt_path (mmioblk) or pci_addr (blk) the guest
	// should look for, depending on Type.
	VMPath string
}

// Storage describes a volume or rootfs mount the agent should set up,
// backed by a block device already attached to the sandbox.
type Storage struct {
	FSType     string
	MountPoint string
	Options    []string
	Driver     string
	Source     string
}
