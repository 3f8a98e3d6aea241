// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"

	"github.com/container-orchestrated-devices/container-device-interface/pkg/cdi"
	specs "github.com/opencontainers/runtime-spec/specs-go"
)

// FromOCIDevice drafts a DeviceInfo from a single OCI linux device entry.
// The record still needs an id; the registry mints one on insertion.
func FromOCIDevice(dev specs.LinuxDevice) DeviceInfo {
	info := DeviceInfo{
		ContainerPath: dev.Path,
		DevType:       dev.Type,
		Major:         dev.Major,
		Minor:         dev.Minor,
	}

	if dev.FileMode != nil {
		info.FileMode = *dev.FileMode
	}
	if dev.UID != nil {
		info.UID = *dev.UID
	}
	if dev.GID != nil {
		info.GID = *dev.GID
	}

	return info
}

// FromOCISpec drafts one DeviceInfo per device listed under spec.Linux.Devices.
func FromOCISpec(spec *specs.Spec) []DeviceInfo {
	if spec == nil || spec.Linux == nil {
		return nil
	}

	devices := make([]DeviceInfo, 0, len(spec.Linux.Devices))
	for _, d := range spec.Linux.Devices {
		devices = append(devices, FromOCIDevice(d))
	}
	return devices
}

// WithCDI resolves CDI-qualified device annotations (e.g.
// "cdi.k8s.io/vendor.com_gpu=vendor.com/gpu=0") against the configured CDI
// spec directories and returns the drafted devices to feed into the
// registry, alongside the injected OCI spec (CDI injection may also add
// env vars, hooks and mounts to spec, so it's handed back unmodified
// otherwise).
func WithCDI(annotations map[string]string, cdiSpecDirs []string, spec *specs.Spec) ([]DeviceInfo, *specs.Spec, error) {
	_, devsFromAnnotations, err := cdi.ParseAnnotations(annotations)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse CDI device annotations: %w", err)
	}

	if len(devsFromAnnotations) == 0 {
		return nil, spec, nil
	}

	var registry cdi.Registry
	if len(cdiSpecDirs) > 0 {
		registry = cdi.GetRegistry(cdi.WithSpecDirs(cdiSpecDirs...))
	} else {
		registry = cdi.GetRegistry()
	}

	if err := registry.Refresh(); err != nil {
		// Any refresh error, even one caused by a single vendor's broken
		// CDI spec, aborts the call: no devices are injected and the
		// error is returned to the caller.
		return nil, nil, fmt.Errorf("CDI registry refresh failed: %w", err)
	}

	before := len(spec.Linux.Devices)
	if _, err := registry.InjectDevices(spec, devsFromAnnotations...); err != nil {
		return nil, nil, fmt.Errorf("CDI device injection failed: %w", err)
	}

	injected := make([]DeviceInfo, 0, len(spec.Linux.Devices)-before)
	for _, d := range spec.Linux.Devices[before:] {
		injected = append(injected, FromOCIDevice(d))
	}

	return injected, spec, nil
}
