package optimizer

import (
	"context"
	"fmt"
	"sort"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// MemoryInfo is a snapshot of RAM and swap usage in bytes.
type MemoryInfo struct {
	Total       uint64  `json:"total"`
	Used        uint64  `json:"used"`
	Free        uint64  `json:"free"`
	Available   uint64  `json:"available"`
	UsedPercent float64 `json:"used_percent"`
	SwapTotal   uint64  `json:"swap_total"`
	SwapUsed    uint64  `json:"swap_used"`
}

// PartitionUsage describes one mounted filesystem.
type PartitionUsage struct {
	Device      string  `json:"device"`
	Mountpoint  string  `json:"mountpoint"`
	Fstype      string  `json:"fstype"`
	Total       uint64  `json:"total"`
	Used        uint64  `json:"used"`
	Free        uint64  `json:"free"`
	UsedPercent float64 `json:"used_percent"`
}

// ProcessInfo is one entry of the memory consumer list.
type ProcessInfo struct {
	PID        int32   `json:"pid"`
	User       string  `json:"user"`
	Name       string  `json:"name"`
	MemPercent float32 `json:"mem_percent"`
	RSS        uint64  `json:"rss"`
}

// Status combines the headline system figures.
type Status struct {
	Hostname      string     `json:"hostname"`
	Platform      string     `json:"platform"`
	Kernel        string     `json:"kernel"`
	UptimeSeconds uint64     `json:"uptime_seconds"`
	Load1         float64    `json:"load1"`
	Load5         float64    `json:"load5"`
	Load15        float64    `json:"load15"`
	CPUModel      string     `json:"cpu_model"`
	CPUCount      int        `json:"cpu_count"`
	Memory        MemoryInfo `json:"memory"`
}

// SystemProbe reads live system metrics.
type SystemProbe interface {
	Memory(ctx context.Context) (*MemoryInfo, error)
	Partitions(ctx context.Context) ([]PartitionUsage, error)
	Usage(ctx context.Context, path string) (*PartitionUsage, error)
	TopProcesses(ctx context.Context, n int) ([]ProcessInfo, error)
	Status(ctx context.Context) (*Status, error)
}

// HostProbe implements SystemProbe with gopsutil.
type HostProbe struct{}

func (HostProbe) Memory(ctx context.Context) (*MemoryInfo, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read memory: %w", err)
	}

	info := &MemoryInfo{
		Total:       vm.Total,
		Used:        vm.Used,
		Free:        vm.Free,
		Available:   vm.Available,
		UsedPercent: vm.UsedPercent,
	}

	if swap, err := mem.SwapMemoryWithContext(ctx); err == nil {
		info.SwapTotal = swap.Total
		info.SwapUsed = swap.Used
	}

	return info, nil
}

func (p HostProbe) Partitions(ctx context.Context) ([]PartitionUsage, error) {
	partitions, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list partitions: %w", err)
	}

	var usages []PartitionUsage

	for _, part := range partitions {
		usage, err := p.Usage(ctx, part.Mountpoint)
		if err != nil {
			continue
		}

		usage.Device = part.Device
		usages = append(usages, *usage)
	}

	return usages, nil
}

func (HostProbe) Usage(ctx context.Context, path string) (*PartitionUsage, error) {
	usage, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read usage of %s: %w", path, err)
	}

	return &PartitionUsage{
		Mountpoint:  path,
		Fstype:      usage.Fstype,
		Total:       usage.Total,
		Used:        usage.Used,
		Free:        usage.Free,
		UsedPercent: usage.UsedPercent,
	}, nil
}

func (HostProbe) TopProcesses(ctx context.Context, n int) ([]ProcessInfo, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}

	infos := make([]ProcessInfo, 0, len(procs))

	for _, p := range procs {
		pct, err := p.MemoryPercentWithContext(ctx)
		if err != nil {
			continue // process exited or is not readable
		}

		info := ProcessInfo{PID: p.Pid, MemPercent: pct}

		if name, err := p.NameWithContext(ctx); err == nil {
			info.Name = name
		}

		if user, err := p.UsernameWithContext(ctx); err == nil {
			info.User = user
		}

		if mi, err := p.MemoryInfoWithContext(ctx); err == nil {
			info.RSS = mi.RSS
		}

		infos = append(infos, info)
	}

	sort.SliceStable(infos, func(i, j int) bool {
		return infos[i].MemPercent > infos[j].MemPercent
	})

	if n > 0 && len(infos) > n {
		infos = infos[:n]
	}

	return infos, nil
}

func (p HostProbe) Status(ctx context.Context) (*Status, error) {
	status := &Status{}

	if info, err := host.InfoWithContext(ctx); err == nil {
		status.Hostname = info.Hostname
		status.Platform = info.Platform + " " + info.PlatformVersion
		status.Kernel = info.KernelVersion
		status.UptimeSeconds = info.Uptime
	}

	if avg, err := load.AvgWithContext(ctx); err == nil {
		status.Load1, status.Load5, status.Load15 = avg.Load1, avg.Load5, avg.Load15
	}

	if infos, err := cpu.InfoWithContext(ctx); err == nil && len(infos) > 0 {
		status.CPUModel = infos[0].ModelName
	}

	if count, err := cpu.CountsWithContext(ctx, true); err == nil {
		status.CPUCount = count
	}

	memory, err := p.Memory(ctx)
	if err != nil {
		return nil, err
	}

	status.Memory = *memory

	return status, nil
}
