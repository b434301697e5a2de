package service

import (
	"fmt"
	"strings"
)

// ModuleMemoryStat is one module's contribution to ModuleMemoryStats,
// grounded on original_source/core/src/memory_statistic.rs's
// per-module size-plus-rejects shape.
type ModuleMemoryStat struct {
	Name              string
	MemorySize        uint32
	AllocationRejects uint64
}

// MemoryStats is the full module_memory_stats report.
type MemoryStats struct {
	Modules []ModuleMemoryStat
}

// String renders the report the way memory_statistic.rs's Display
// impl does: one line per module, human-readable byte size plus the
// allocation-rejects counter so a caller can see back-pressure, not
// just a size number.
func (ms MemoryStats) String() string {
	var b strings.Builder
	for _, m := range ms.Modules {
		fmt.Fprintf(&b, "%s: %s (allocation rejects: %d)\n", m.Name, humanBytes(m.MemorySize), m.AllocationRejects)
	}
	return b.String()
}

func humanBytes(n uint32) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := int64(n) / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
