// SPDX-License-Identifier: Apache-2.0

package manager

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// P4/P5: released ordinals are handed back before fresh ones, largest first.
func TestSlotAllocatorAcquireRelease(t *testing.T) {
	var s slotAllocator

	assert.Equal(t, 0, s.acquire())
	assert.Equal(t, 1, s.acquire())
	assert.Equal(t, 2, s.acquire())

	s.release(0)
	s.release(2)

	assert.Equal(t, 2, s.acquire())
	assert.Equal(t, 0, s.acquire())
	assert.Equal(t, 3, s.acquire())
}

func TestSlotAllocatorReleaseOrderIndependent(t *testing.T) {
	var s slotAllocator

	for i := 0; i < 5; i++ {
		s.acquire()
	}

	s.release(1)
	s.release(4)
	s.release(0)

	assert.Equal(t, 4, s.acquire())
	assert.Equal(t, 1, s.acquire())
	assert.Equal(t, 0, s.acquire())
	assert.Equal(t, 5, s.acquire())
}
