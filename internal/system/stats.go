// Package system holds host-facing helpers: project discovery, encoder
// probing, process statistics and frame buffer reuse.
package system

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"
)

// ProcessStats is a snapshot of the running process.
type ProcessStats struct {
	RSS        uint64
	CPUPercent float64
	LogicalCPU int
}

// ReadProcessStats samples the current process.
func ReadProcessStats(ctx context.Context) (ProcessStats, error) {
	proc, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	if err != nil {
		return ProcessStats{}, fmt.Errorf("system: process: %w", err)
	}

	mem, err := proc.MemoryInfoWithContext(ctx)
	if err != nil {
		return ProcessStats{}, fmt.Errorf("system: memory: %w", err)
	}
	pct, err := proc.CPUPercentWithContext(ctx)
	if err != nil {
		return ProcessStats{}, fmt.Errorf("system: cpu: %w", err)
	}
	cores, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		return ProcessStats{}, fmt.Errorf("system: cpu count: %w", err)
	}

	return ProcessStats{
		RSS:        mem.RSS,
		CPUPercent: pct,
		LogicalCPU: cores,
	}, nil
}

// PerformanceReport formats a playback summary.
func PerformanceReport(build string, frames int, elapsed time.Duration, ps ProcessStats) string {
	fps := 0.0
	if elapsed > 0 {
		fps = float64(frames) / elapsed.Seconds()
	}
	return fmt.Sprintf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Frames: %d\n"+
			"Total Time: %.2fs\n"+
			"Effective FPS: %.2f\n"+
			"RSS: %.1f MiB\n"+
			"CPU: %.1f%% of %d cores\n"+
			"----------------------------\n",
		build, frames, elapsed.Seconds(), fps,
		float64(ps.RSS)/(1<<20), ps.CPUPercent, ps.LogicalCPU,
	)
}
