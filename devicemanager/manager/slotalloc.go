// SPDX-License-Identifier: Apache-2.0

package manager

import "sort"

// slotAllocator hands out block-device ordinals, recycling released ones
// with a sorted-descending LIFO discipline: newly-freed large ordinals are
// reused first, which keeps low ordinals - and therefore guest-visible
// /dev/vd* names - stable for long-lived devices.
//
// The teacher's equivalent (Sandbox.getAndSetSandboxBlockIndex) is a
// sandbox-owned linear scan over a map with no such ordering guarantee;
// this type moves ordinal ownership into the manager and adds the
// sorted-descending release discipline.
type slotAllocator struct {
	next     int
	released []int // kept sorted descending
}

// acquire returns the largest released ordinal if one exists, otherwise
// the next never-issued ordinal.
func (s *slotAllocator) acquire() int {
	if n := len(s.released); n > 0 {
		ord := s.released[0]
		s.released = s.released[1:]
		return ord
	}

	ord := s.next
	s.next++
	return ord
}

// release pushes ord back onto the released set. No check is made that
// ord was previously acquired; callers must uphold that invariant.
func (s *slotAllocator) release(ord int) {
	s.released = append(s.released, ord)
	sort.Sort(sort.Reverse(sort.IntSlice(s.released)))
}
