// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"testing"

	specs "github.com/opencontainers/runtime-spec/specs-go"
	"github.com/stretchr/testify/assert"
)

func TestFromOCIDevice(t *testing.T) {
	mode := os.FileMode(0644)
	uid := uint32(10)
	gid := uint32(20)

	dev := specs.LinuxDevice{
		Path:     "/dev/foo",
		Type:     "c",
		Major:    1,
		Minor:    3,
		FileMode: &mode,
		UID:      &uid,
		GID:      &gid,
	}

	info := FromOCIDevice(dev)
	assert.Equal(t, "/dev/foo", info.ContainerPath)
	assert.Equal(t, "c", info.DevType)
	assert.Equal(t, int64(1), info.Major)
	assert.Equal(t, int64(3), info.Minor)
	assert.Equal(t, mode, info.FileMode)
	assert.Equal(t, uid, info.UID)
	assert.Equal(t, gid, info.GID)
}

func TestFromOCISpecNilSafe(t *testing.T) {
	assert.Nil(t, FromOCISpec(nil))
	assert.Nil(t, FromOCISpec(&specs.Spec{}))
}

func TestFromOCISpecListsDevices(t *testing.T) {
	spec := &specs.Spec{
		Linux: &specs.Linux{
			Devices: []specs.LinuxDevice{
				{Path: "/dev/a", Type: "c", Major: 1, Minor: 1},
				{Path: "/dev/b", Type: "b", Major: 8, Minor: 0},
			},
		},
	}

	infos := FromOCISpec(spec)
	assert.Len(t, infos, 2)
	assert.Equal(t, "/dev/a", infos[0].ContainerPath)
	assert.Equal(t, "/dev/b", infos[1].ContainerPath)
}
