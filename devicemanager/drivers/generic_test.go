// SPDX-License-Identifier: Apache-2.0

package drivers

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandboxvm/runtime/devicemanager/api"
	"github.com/sandboxvm/runtime/devicemanager/config"
)

// R2: increase on counter k in {0,1,MaxUint64-1,MaxUint64}.
func TestBumpAttachCountIncrease(t *testing.T) {
	cases := []struct {
		start    uint64
		wantNew  uint64
		wantSkip bool
		wantErr  error
	}{
		{0, 1, false, nil},
		{1, 2, true, nil},
		{math.MaxUint64 - 1, math.MaxUint64, true, nil},
		{math.MaxUint64, math.MaxUint64, true, config.ErrAttachOverflow},
	}

	for _, c := range cases {
		dev := &GenericDevice{AttachCount: c.start, DeviceInfo: &config.DeviceInfo{}}
		skip, err := dev.bumpAttachCount(true)

		if c.wantErr != nil {
			assert.ErrorIs(t, err, c.wantErr)
		} else {
			assert.NoError(t, err)
		}
		assert.Equal(t, c.wantSkip, skip)
		assert.Equal(t, c.wantNew, dev.AttachCount)
	}
}

// R3: decrease on counter k in {0,1,MaxUint64}.
func TestBumpAttachCountDecrease(t *testing.T) {
	cases := []struct {
		start    uint64
		wantNew  uint64
		wantSkip bool
		wantErr  error
	}{
		{0, 0, true, config.ErrNotAttached},
		{1, 0, false, nil},
		{math.MaxUint64, math.MaxUint64 - 1, true, nil},
	}

	for _, c := range cases {
		dev := &GenericDevice{AttachCount: c.start, DeviceInfo: &config.DeviceInfo{}}
		skip, err := dev.bumpAttachCount(false)

		if c.wantErr != nil {
			assert.ErrorIs(t, err, c.wantErr)
		} else {
			assert.NoError(t, err)
		}
		assert.Equal(t, c.wantSkip, skip)
		assert.Equal(t, c.wantNew, dev.AttachCount)
	}
}

// Generic's Attach/Detach only advance the counter; a char device or FIFO's
// presence matters for sysfs propagation, not hypervisor plumbing.
func TestGenericDeviceAttachDetachNeverCallsHypervisor(t *testing.T) {
	dev := NewGenericDevice(&config.DeviceInfo{ID: "g1"})
	hv := &api.MockHypervisor{}
	ctx := context.Background()

	require.NoError(t, dev.Attach(ctx, hv))
	require.NoError(t, dev.Attach(ctx, hv))
	assert.Equal(t, uint64(2), dev.GetAttachCount())
	assert.Empty(t, hv.Added)

	require.NoError(t, dev.Detach(ctx, hv))
	require.NoError(t, dev.Detach(ctx, hv))
	assert.Equal(t, uint64(0), dev.GetAttachCount())
	assert.Empty(t, hv.Removed)
}

func TestGenericDeviceInfoAccessor(t *testing.T) {
	info := &config.DeviceInfo{ID: "g2", HostPath: "/dev/null"}
	dev := NewGenericDevice(info)
	assert.Same(t, info, dev.Info())
}
