// Package collector samples host and process resource usage.
package collector

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/fitcoach/perfmon/model"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/net"
	"github.com/shirou/gopsutil/v4/process"
)

// Gopsutil reads system counters through gopsutil.
type Gopsutil struct {
	DiskPath    string        // mount point whose usage is reported
	CPUInterval time.Duration // measuring window for CPU percent
}

func NewGopsutil(diskPath string) *Gopsutil {
	if diskPath == "" {
		diskPath = "/"
	}
	return &Gopsutil{DiskPath: diskPath, CPUInterval: time.Second}
}

// Collect returns a snapshot. CPU, memory and disk are required; network and
// process counters are left zero when the platform does not expose them.
func (g *Gopsutil) Collect(ctx context.Context) (model.SystemSnapshot, error) {
	snap := model.SystemSnapshot{Timestamp: time.Now()}

	cpus, err := cpu.PercentWithContext(ctx, g.CPUInterval, false)
	if err != nil {
		return snap, fmt.Errorf("cpu percent: %w", err)
	}
	if len(cpus) == 0 {
		return snap, errors.New("cpu percent: no data")
	}
	snap.CPUUsage = cpus[0]

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return snap, fmt.Errorf("virtual memory: %w", err)
	}
	snap.MemoryUsage = vm.UsedPercent
	snap.MemoryTotal = vm.Total
	snap.MemoryUsed = vm.Used

	du, err := disk.UsageWithContext(ctx, g.DiskPath)
	if err != nil {
		return snap, fmt.Errorf("disk usage %s: %w", g.DiskPath, err)
	}
	snap.DiskTotal = du.Total
	snap.DiskUsed = du.Used
	if du.Total > 0 {
		snap.DiskUsage = float64(du.Used) / float64(du.Total) * 100
	}

	if counters, err := net.IOCountersWithContext(ctx, false); err == nil && len(counters) > 0 {
		snap.NetworkBytesSent = counters[0].BytesSent
		snap.NetworkBytesRecv = counters[0].BytesRecv
	}

	if p, err := process.NewProcessWithContext(ctx, int32(os.Getpid())); err == nil {
		if mi, err := p.MemoryInfoWithContext(ctx); err == nil {
			snap.ProcessRSS = mi.RSS
			snap.ProcessVMS = mi.VMS
		}
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	snap.HeapAlloc = ms.HeapAlloc
	snap.Goroutines = runtime.NumGoroutine()

	return snap, nil
}

// FreeDisk returns free bytes and used percent of path.
func FreeDisk(ctx context.Context, path string) (uint64, float64, error) {
	du, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return 0, 0, err
	}
	return du.Free, du.UsedPercent, nil
}
