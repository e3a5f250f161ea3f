package platform

import (
	"context"
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v3/host"
)

// HostFacts summarises the machine for diagnostics.
type HostFacts struct {
	Hostname        string
	OS              string
	Platform        string
	PlatformVersion string
	KernelVersion   string
	// WSLKernel is true when the kernel identifies itself as a WSL kernel.
	WSLKernel bool
}

// Describe collects host facts.
func Describe(ctx context.Context) (HostFacts, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return HostFacts{}, fmt.Errorf("failed to read host info: %w", err)
	}

	return HostFacts{
		Hostname:        info.Hostname,
		OS:              info.OS,
		Platform:        info.Platform,
		PlatformVersion: info.PlatformVersion,
		KernelVersion:   info.KernelVersion,
		WSLKernel:       strings.Contains(strings.ToLower(info.KernelVersion), "microsoft"),
	}, nil
}
