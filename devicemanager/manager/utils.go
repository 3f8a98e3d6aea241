// SPDX-License-Identifier: Apache-2.0

package manager

import (
	"path/filepath"
	"strings"

	"github.com/sandboxvm/runtime/devicemanager/config"
)

const vfioPath = "/dev/vfio/"

// isVFIOControlDevice reports whether path is the vfio control device
// rather than a vfio group.
func isVFIOControlDevice(path string) bool {
	return path == filepath.Join(vfioPath, "vfio")
}

// isVFIODevice reports whether hostPath names a vfio group.
func isVFIODevice(hostPath string) bool {
	if strings.HasPrefix(hostPath, filepath.Join(vfioPath, "vfio")) {
		return false
	}
	return strings.HasPrefix(hostPath, vfioPath) && len(hostPath) > len(vfioPath)
}

// isBlock reports whether devInfo describes a block device.
func isBlock(devInfo config.DeviceInfo) bool {
	return devInfo.DevType == "b"
}
