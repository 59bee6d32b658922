package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// SysHealth represents real-time process and storage metrics.
type SysHealth struct {
	AllocMB      uint64 `json:"alloc_mb"`
	TotalAllocMB uint64 `json:"total_alloc_mb"`
	SysMB        uint64 `json:"sys_mb"`
	NumGC        uint32 `json:"num_gc"`
	Goroutines   int    `json:"goroutines"`
	DataDiskSize string `json:"data_disk_size"`
}

// GetSysHealth collects real-time health data. dataPath is the directory
// holding the database and cache files.
func GetSysHealth(dataPath string) SysHealth {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return SysHealth{
		AllocMB:      m.Alloc / 1024 / 1024,
		TotalAllocMB: m.TotalAlloc / 1024 / 1024,
		SysMB:        m.Sys / 1024 / 1024,
		NumGC:        m.NumGC,
		Goroutines:   runtime.NumGoroutine(),
		DataDiskSize: calculateDirSize(dataPath),
	}
}

// Report renders health and recent usage as a plain-text block for chat
// clients.
func Report(health SysHealth, usage []DailyUsage) string {
	var sb strings.Builder
	sb.WriteString("System\n")
	fmt.Fprintf(&sb, "Memory: %d MB in use, %d MB from OS\n", health.AllocMB, health.SysMB)
	fmt.Fprintf(&sb, "Goroutines: %d, GC runs: %d\n", health.Goroutines, health.NumGC)
	fmt.Fprintf(&sb, "Data on disk: %s\n", health.DataDiskSize)

	sb.WriteString("\nToken usage\n")
	if len(usage) == 0 {
		sb.WriteString("No model calls recorded.\n")
	}
	for _, day := range usage {
		fmt.Fprintf(&sb, "%s: %d calls, %d prompt + %d completion tokens\n", day.Date, day.TotalExecution, day.TotalPrompt, day.TotalCompletion)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func calculateDirSize(path string) string {
	var size int64
	_ = filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})

	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
