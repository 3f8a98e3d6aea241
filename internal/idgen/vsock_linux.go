// SPDX-License-Identifier: Apache-2.0

package idgen

import (
	"errors"
	"fmt"
	"os"
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"
)

// VHostVSockDevicePath is the vhost-vsock control device.
var VHostVSockDevicePath = "/dev/vhost-vsock"

// ioctlVhostVsockSetGuestCid is VHOST_VSOCK_SET_GUEST_CID from
// <linux/vhost.h>: _IOW(VHOST_VIRTIO, 0x60, __u64).
const ioctlVhostVsockSetGuestCid = 0x4008AF60

// firstContextID is the first non-reserved vsock context id; 0, 1 and 2
// are reserved by the kernel.
const firstContextID = 0x3

// maxCidAttempts bounds the guest-cid search: beyond this many rejected
// ioctls, the vsock device is treated as exhausted rather than scanned
// indefinitely.
const maxCidAttempts = 50

var ErrNoFreeCid = errors.New("no free vsock context id available")

var ioctlFunc = ioctl

func ioctl(fd uintptr, request, data uintptr) error {
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, request, data); errno != 0 {
		return os.NewSyscallError("ioctl", fmt.Errorf("%d", int(errno)))
	}
	return nil
}

// FindContextID opens the vhost-vsock device and tries up to
// maxCidAttempts random context ids, issuing VHOST_VSOCK_SET_GUEST_CID
// until the kernel accepts one. It's the caller's responsibility to close
// the returned file once the guest CID is no longer needed.
func FindContextID() (*os.File, uint64, error) {
	vsockFd, err := os.OpenFile(VHostVSockDevicePath, syscall.O_RDWR, 0666)
	if err != nil {
		return nil, 0, err
	}

	for attempt := 0; attempt < maxCidAttempts; attempt++ {
		cid, err := NewContextID()
		if err != nil {
			vsockFd.Close()
			return nil, 0, err
		}

		if err := ioctlFunc(vsockFd.Fd(), ioctlVhostVsockSetGuestCid, uintptr(unsafe.Pointer(&cid))); err == nil {
			return vsockFd, cid, nil
		}
	}

	vsockFd.Close()
	return nil, 0, ErrNoFreeCid
}
