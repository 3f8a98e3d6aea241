// SPDX-License-Identifier: Apache-2.0

package idgen

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindContextIDGivesUpAfterMaxAttempts(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "vhost-vsock")
	require.NoError(t, err)
	defer f.Close()

	savedPath := VHostVSockDevicePath
	VHostVSockDevicePath = f.Name()
	defer func() { VHostVSockDevicePath = savedPath }()

	savedIoctl := ioctlFunc
	attempts := 0
	ioctlFunc = func(fd, request, data uintptr) error {
		attempts++
		return errors.New("EBUSY")
	}
	defer func() { ioctlFunc = savedIoctl }()

	_, _, err = FindContextID()
	assert.ErrorIs(t, err, ErrNoFreeCid)
	assert.Equal(t, maxCidAttempts, attempts)
}

func TestFindContextIDSucceedsOnFirstAcceptedCID(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "vhost-vsock")
	require.NoError(t, err)
	defer f.Close()

	savedPath := VHostVSockDevicePath
	VHostVSockDevicePath = f.Name()
	defer func() { VHostVSockDevicePath = savedPath }()

	savedIoctl := ioctlFunc
	attempts := 0
	ioctlFunc = func(fd, request, data uintptr) error {
		attempts++
		if attempts < 3 {
			return errors.New("EBUSY")
		}
		return nil
	}
	defer func() { ioctlFunc = savedIoctl }()

	fd, cid, err := FindContextID()
	require.NoError(t, err)
	defer fd.Close()

	assert.Equal(t, 3, attempts)
	assert.GreaterOrEqual(t, cid, uint64(3))
}
