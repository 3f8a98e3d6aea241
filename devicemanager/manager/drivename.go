// SPDX-License-Identifier: Apache-2.0

package manager

import (
	"errors"

	"github.com/sandboxvm/runtime/devicemanager/config"
	"github.com/sandboxvm/runtime/internal/idgen"
)

// driveName maps a block ordinal to its virtio-blk guest drive name
// (e.g. 0 -> "vda"), grounded on idgen.DriveName and re-expressed in the
// public error taxonomy.
func driveName(index int) (string, error) {
	name, err := idgen.DriveName(index)
	if err == nil {
		return name, nil
	}

	switch {
	case errors.Is(err, idgen.ErrNegativeIndex):
		return "", config.ErrNegativeIndex
	case errors.Is(err, idgen.ErrIndexOverflow):
		return "", config.ErrIndexOverflow
	default:
		return "", err
	}
}
