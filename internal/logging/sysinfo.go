package logging

import (
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/procfs"
)

// userHz is the kernel clock tick rate assumed for starttime math.
const userHz = 100

// SystemSnapshot captures point-in-time process resource usage. It is
// attached to records at ERROR severity and above, and served by the
// monitoring surface.
type SystemSnapshot struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	MemoryMB      float64 `json:"memory_mb"`
	OpenFiles     int     `json:"open_files"`
	Connections   int     `json:"connections"`
}

// CaptureSystem reads the current process stats from procfs. Callers
// must treat a non-nil error as "omit the system block": a failed
// snapshot never fails the log call that requested it.
func CaptureSystem() (*SystemSnapshot, error) {
	fs, err := procfs.NewDefaultFS()
	if err != nil {
		return nil, fmt.Errorf("open procfs: %w", err)
	}
	proc, err := fs.Self()
	if err != nil {
		return nil, fmt.Errorf("read self: %w", err)
	}
	stat, err := proc.Stat()
	if err != nil {
		return nil, fmt.Errorf("read stat: %w", err)
	}

	snapshot := &SystemSnapshot{
		MemoryMB: round2(float64(stat.ResidentMemory()) / 1024 / 1024),
	}

	if meminfo, err := fs.Meminfo(); err == nil && meminfo.MemTotal != nil && *meminfo.MemTotal > 0 {
		totalBytes := float64(*meminfo.MemTotal) * 1024
		snapshot.MemoryPercent = round2(float64(stat.ResidentMemory()) / totalBytes * 100)
	}

	if sysStat, err := fs.Stat(); err == nil && sysStat.BootTime > 0 {
		startedAt := time.Unix(int64(sysStat.BootTime), 0).
			Add(time.Duration(stat.Starttime/userHz) * time.Second)
		if alive := time.Since(startedAt).Seconds(); alive > 0 {
			snapshot.CPUPercent = round2(stat.CPUTime() / alive * 100)
		}
	}

	if n, err := proc.FileDescriptorsLen(); err == nil {
		snapshot.OpenFiles = n
	}
	if targets, err := proc.FileDescriptorTargets(); err == nil {
		for _, target := range targets {
			if strings.HasPrefix(target, "socket:") {
				snapshot.Connections++
			}
		}
	}

	return snapshot, nil
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
