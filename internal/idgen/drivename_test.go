// SPDX-License-Identifier: Apache-2.0

package idgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDriveName(t *testing.T) {
	vectors := map[int]string{
		0:     "vda",
		25:    "vdz",
		27:    "vdab",
		704:   "vdaac",
		18277: "vdzzz",
	}

	for index, want := range vectors {
		got, err := DriveName(index)
		assert.NoError(t, err, "index %d", index)
		assert.Equal(t, want, got, "index %d", index)
	}
}

func TestDriveNameNegativeIndex(t *testing.T) {
	_, err := DriveName(-1)
	assert.ErrorIs(t, err, ErrNegativeIndex)
}

// The 30-letter suffix holds every non-negative int, so even the largest
// one gets a name rather than ErrIndexOverflow.
func TestDriveNameMaxIntFitsSuffixCapacity(t *testing.T) {
	name, err := DriveName(int(^uint(0) >> 1))
	assert.NoError(t, err)
	assert.LessOrEqual(t, len(name), diskNameLen)
}
