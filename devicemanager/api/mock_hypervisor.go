// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"sync"

	"github.com/sandboxvm/runtime/devicemanager/config"
)

// MockHypervisor is a fake Hypervisor implementation for tests. It can be
// configured to fail the next N hotplug add/remove calls, to exercise
// attach/detach rollback behavior.
type MockHypervisor struct {
	mu sync.Mutex

	HypervisorType string

	FailAddCount    int
	FailRemoveCount int
	AddErr          error
	RemoveErr       error

	Added   []Device
	Removed []Device

	Caps Capabilities
}

func (m *MockHypervisor) HotplugAddDevice(_ context.Context, dev Device, _ config.DeviceType) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailAddCount > 0 {
		m.FailAddCount--
		return m.AddErr
	}
	m.Added = append(m.Added, dev)
	return nil
}

func (m *MockHypervisor) HotplugRemoveDevice(_ context.Context, dev Device, _ config.DeviceType) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailRemoveCount > 0 {
		m.FailRemoveCount--
		return m.RemoveErr
	}
	m.Removed = append(m.Removed, dev)
	return nil
}

func (m *MockHypervisor) AppendDevice(context.Context, Device) error {
	return nil
}

func (m *MockHypervisor) GetHypervisorType() string {
	return m.HypervisorType
}

func (m *MockHypervisor) Capabilities(context.Context) Capabilities {
	return m.Caps
}
