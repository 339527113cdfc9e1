package builtin

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
)

// hostInfo renders a host identity and capacity snapshot. Individual
// readings that fail are reported inline; a single bad reading must not
// sink the whole probe.
func hostInfo(ctx context.Context) ([]byte, error) {
	var buf bytes.Buffer

	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("read host info: %w", err)
	}
	fmt.Fprintf(&buf, "Hostname:        %s\n", info.Hostname)
	fmt.Fprintf(&buf, "OS:              %s %s (%s)\n", info.Platform, info.PlatformVersion, info.PlatformFamily)
	fmt.Fprintf(&buf, "Kernel:          %s %s\n", info.KernelVersion, info.KernelArch)
	fmt.Fprintf(&buf, "Uptime:          %s\n", (time.Duration(info.Uptime) * time.Second).String())
	fmt.Fprintf(&buf, "Processes:       %d\n", info.Procs)
	if info.VirtualizationSystem != "" {
		fmt.Fprintf(&buf, "Virtualization:  %s (%s)\n", info.VirtualizationSystem, info.VirtualizationRole)
	} else {
		fmt.Fprintf(&buf, "Virtualization:  none detected\n")
	}

	if physical, err := cpu.CountsWithContext(ctx, false); err == nil {
		logical, _ := cpu.CountsWithContext(ctx, true)
		fmt.Fprintf(&buf, "CPU cores:       %d physical, %d logical\n", physical, logical)
	} else {
		fmt.Fprintf(&buf, "CPU cores:       unavailable (%v)\n", err)
	}
	if infos, err := cpu.InfoWithContext(ctx); err == nil && len(infos) > 0 {
		fmt.Fprintf(&buf, "CPU model:       %s\n", strings.TrimSpace(infos[0].ModelName))
	}
	if avg, err := load.AvgWithContext(ctx); err == nil {
		fmt.Fprintf(&buf, "Load average:    %.2f %.2f %.2f\n", avg.Load1, avg.Load5, avg.Load15)
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		fmt.Fprintf(&buf, "Memory:          %d MiB total, %d MiB available (%.1f%% used)\n",
			vm.Total/1024/1024, vm.Available/1024/1024, vm.UsedPercent)
	} else {
		fmt.Fprintf(&buf, "Memory:          unavailable (%v)\n", err)
	}

	if parts, err := disk.PartitionsWithContext(ctx, false); err == nil {
		fmt.Fprintf(&buf, "Partitions:\n")
		for _, p := range parts {
			fmt.Fprintf(&buf, "  %-24s %-16s %s\n", p.Device, p.Fstype, p.Mountpoint)
		}
	}

	return buf.Bytes(), nil
}
