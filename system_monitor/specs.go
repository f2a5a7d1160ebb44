package systemmonitor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Octogonapus/ForcPerf/report"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
)

// CollectSystemSpecs takes a one-shot snapshot of the host. CPU, memory and host identity are required; load
// averages are best effort since some platforms don't provide them.
func CollectSystemSpecs(ctx context.Context) (*report.SystemSpecs, error) {
	specs := &report.SystemSpecs{}

	infos, err := cpu.InfoWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading cpu info failed: %w", err)
	}
	perCPU, err := cpu.PercentWithContext(ctx, 0, true)
	if err != nil {
		slog.Debug("SystemMonitor: per-cpu usage unavailable", slog.String("error", err.Error()))
	}
	for i, info := range infos {
		c := report.CPU{
			Name:      fmt.Sprintf("cpu%d", i),
			VendorID:  info.VendorID,
			Brand:     strings.TrimSpace(info.ModelName),
			Frequency: int64(info.Mhz),
		}
		if i < len(perCPU) {
			c.CPUUsage = perCPU[i]
		}
		specs.CPUs = append(specs.CPUs, c)
	}
	if global, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(global) > 0 {
		specs.GlobalCPUUsage = global[0]
	}

	physical, err := cpu.CountsWithContext(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("counting physical cores failed: %w", err)
	}
	specs.PhysicalCoreCount = int64(physical)

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading memory info failed: %w", err)
	}
	specs.TotalMemory = int64(vm.Total)
	specs.FreeMemory = int64(vm.Free)
	specs.AvailableMemory = int64(vm.Available)
	specs.UsedMemory = int64(vm.Used)

	swap, err := mem.SwapMemoryWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading swap info failed: %w", err)
	}
	specs.TotalSwap = int64(swap.Total)
	specs.FreeSwap = int64(swap.Free)
	specs.UsedSwap = int64(swap.Used)

	hi, err := host.InfoWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading host info failed: %w", err)
	}
	specs.Uptime = int64(hi.Uptime)
	specs.BootTime = int64(hi.BootTime)
	specs.Name = hi.Platform
	specs.KernelVersion = hi.KernelVersion
	specs.OSVersion = hi.PlatformVersion
	specs.LongOSVersion = strings.Join(strings.Fields(fmt.Sprintf("%s %s %s", hi.OS, hi.Platform, hi.PlatformVersion)), " ")
	specs.DistributionID = hi.Platform
	specs.HostName = hi.Hostname

	avg, err := load.AvgWithContext(ctx)
	if err != nil {
		slog.Warn("SystemMonitor: load averages unavailable", slog.String("error", err.Error()))
	} else {
		specs.LoadAverage = report.LoadAverage{One: avg.Load1, Five: avg.Load5, Fifteen: avg.Load15}
	}

	return specs, nil
}
