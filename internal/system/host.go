package system

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// HostStats снимок машины для отчета о производительности.
type HostStats struct {
	LogicalCPUs  int
	PhysicalCPUs int
	TotalMemory  uint64
	UsedMemory   uint64
	UsedPercent  float64
}

// Snapshot собирает HostStats. Частичные ошибки не фатальны: поля остаются нулевыми.
func Snapshot() (HostStats, error) {
	var s HostStats
	var firstErr error

	if vm, err := mem.VirtualMemory(); err == nil {
		s.TotalMemory = vm.Total
		s.UsedMemory = vm.Used
		s.UsedPercent = vm.UsedPercent
	} else {
		firstErr = err
	}

	if n, err := cpu.Counts(true); err == nil {
		s.LogicalCPUs = n
	} else if firstErr == nil {
		firstErr = err
	}
	if n, err := cpu.Counts(false); err == nil {
		s.PhysicalCPUs = n
	}
	return s, firstErr
}

func (s HostStats) String() string {
	return fmt.Sprintf("CPU: %d logical / %d physical | RAM: %s / %s (%.1f%%)",
		s.LogicalCPUs, s.PhysicalCPUs, humanBytes(s.UsedMemory), humanBytes(s.TotalMemory), s.UsedPercent)
}

func humanBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
