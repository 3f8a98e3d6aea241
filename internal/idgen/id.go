// SPDX-License-Identifier: Apache-2.0

// Package idgen collects the low-level random-identifier, virtio
// drive-naming and vhost-vsock context-id generators the device manager
// builds its higher-level minting policy on top of.
package idgen

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// GenerateRandomBytes returns n cryptographically random bytes.
func GenerateRandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// NewDeviceID draws a random 64-bit value and renders it as lowercase hex,
// the draw the registry retries (bounded) on id collision.
func NewDeviceID() (string, error) {
	b, err := GenerateRandomBytes(8)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// NewContextID draws a random vsock context id in [3, MaxUint32], the
// range valid CIDs occupy; the upper 32 bits of the kernel's CID field are
// reserved and always zero.
func NewContextID() (uint64, error) {
	b, err := GenerateRandomBytes(4)
	if err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(b)
	if v < 3 {
		v += 3
	}
	return uint64(v), nil
}

// MakeNameID builds a name suitable for passing on a hypervisor command
// line, truncated to maxLen.
func MakeNameID(namedType, id string, maxLen int) string {
	name := fmt.Sprintf("%s-%s", namedType, id)
	if len(name) > maxLen {
		name = name[:maxLen]
	}
	return name
}
