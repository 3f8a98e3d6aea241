// SPDX-License-Identifier: Apache-2.0

package drivers

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
	"github.com/prometheus/procfs"
)

const taskDir = "task"

// ReadTaskIDs lists the kernel thread ids (tids) belonging to pid, other
// than pid's own main thread (whose tid equals pid), the stable /proc
// contract the host filesystem surface exposes alongside the
// sysfs uevent resolver. Hypervisor drivers that need to pin or affine a
// guest's vCPU threads after a hotplug walk this to find them.
func ReadTaskIDs(pid int) ([]int, error) {
	if _, err := procfs.NewProc(pid); err != nil {
		return nil, errors.Wrapf(err, "invalid pid %d", pid)
	}

	parent := strconv.Itoa(pid)
	infos, err := os.ReadDir(filepath.Join(procfs.DefaultMountPoint, parent, taskDir))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read pid %d task dir", pid)
	}

	tids := make([]int, 0, len(infos))
	for _, info := range infos {
		if !info.IsDir() || info.Name() == parent {
			continue
		}
		tid, err := strconv.Atoi(info.Name())
		if err != nil {
			return nil, errors.Wrapf(err, "invalid task id %q", info.Name())
		}
		tids = append(tids, tid)
	}

	return tids, nil
}
