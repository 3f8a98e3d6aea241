// SPDX-License-Identifier: Apache-2.0

package drivers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandboxvm/runtime/devicemanager/api"
	"github.com/sandboxvm/runtime/devicemanager/config"
)

func TestBlockDeviceAttachRollsBackAttachCountOnHypervisorError(t *testing.T) {
	dev := NewBlockDevice(&config.DeviceInfo{ID: "b1", HostPath: "/dev/sda"})
	dev.BlockDrive = &config.BlockDrive{PathOnHost: "/dev/sda", Index: 0}

	hv := &api.MockHypervisor{FailAddCount: 1, AddErr: assert.AnError}

	err := dev.Attach(context.Background(), hv)
	require.Error(t, err)
	assert.Equal(t, uint64(0), dev.GetAttachCount())
}

func TestBlockDeviceDetachRollsBackAttachCountOnHypervisorError(t *testing.T) {
	dev := NewBlockDevice(&config.DeviceInfo{ID: "b2", HostPath: "/dev/sdb"})
	dev.BlockDrive = &config.BlockDrive{PathOnHost: "/dev/sdb", Index: 1}

	hv := &api.MockHypervisor{}
	require.NoError(t, dev.Attach(context.Background(), hv))

	hv.FailRemoveCount = 1
	hv.RemoveErr = assert.AnError

	err := dev.Detach(context.Background(), hv)
	require.Error(t, err)
	assert.Equal(t, uint64(1), dev.GetAttachCount())
}

func TestBlockDeviceGetDeviceInfoReturnsBlockDrive(t *testing.T) {
	drive := &config.BlockDrive{Index: 3}
	dev := NewBlockDevice(&config.DeviceInfo{ID: "b3"})
	dev.BlockDrive = drive

	assert.Same(t, drive, dev.GetDeviceInfo())
}
