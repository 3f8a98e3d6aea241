// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHostPathEmptyContainerPath(t *testing.T) {
	_, err := GetHostPath(DeviceInfo{})
	assert.ErrorIs(t, err, ErrEmptyPath)
}

func TestGetHostPathUnsupportedDevTypeReturnsEmpty(t *testing.T) {
	host, err := GetHostPath(DeviceInfo{ContainerPath: "/dev/fuse", DevType: "p"})
	require.NoError(t, err)
	assert.Empty(t, host)
}

func TestGetHostPathMissingSysfsFallsBackToContainerPath(t *testing.T) {
	saved := SysDevPrefix
	SysDevPrefix = t.TempDir()
	defer func() { SysDevPrefix = saved }()

	host, err := GetHostPath(DeviceInfo{ContainerPath: "/dev/fuse", DevType: "c", Major: 10, Minor: 229})
	require.NoError(t, err)
	assert.Equal(t, "/dev/fuse", host)
}

func TestGetHostPathResolvesFromUevent(t *testing.T) {
	saved := SysDevPrefix
	SysDevPrefix = t.TempDir()
	defer func() { SysDevPrefix = saved }()

	major, minor := int64(8), int64(0)
	format := strconv.FormatInt(major, 10) + ":" + strconv.FormatInt(minor, 10)
	dir := filepath.Join(SysDevPrefix, "block", format)
	require.NoError(t, os.MkdirAll(dir, 0750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "uevent"), []byte("MAJOR=8\nMINOR=0\nDEVNAME=sda\n"), 0640))

	host, err := GetHostPath(DeviceInfo{ContainerPath: "/dev/sda", DevType: "b", Major: major, Minor: minor})
	require.NoError(t, err)
	assert.Equal(t, "/dev/sda", host)
}

func TestGetHostPathMalformedUevent(t *testing.T) {
	saved := SysDevPrefix
	SysDevPrefix = t.TempDir()
	defer func() { SysDevPrefix = saved }()

	major, minor := int64(8), int64(1)
	format := strconv.FormatInt(major, 10) + ":" + strconv.FormatInt(minor, 10)
	dir := filepath.Join(SysDevPrefix, "block", format)
	require.NoError(t, os.MkdirAll(dir, 0750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "uevent"), []byte("MAJOR=8\n"), 0640))

	_, err := GetHostPath(DeviceInfo{ContainerPath: "/dev/sdb", DevType: "b", Major: major, Minor: minor})
	assert.ErrorIs(t, err, ErrSysfsMalformed)
}
