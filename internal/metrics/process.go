package metrics

import (
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"
)

// ProcessSample снимок показателей процесса песочницы
type ProcessSample struct {
	Uptime     time.Duration
	CPUPercent float64
	AllocMB    float64
	Goroutines int
}

// ProcessStats снимает показатели текущего процесса
type ProcessStats struct {
	start time.Time
	proc  *process.Process
}

// NewProcessStats создаёт источник показателей процесса
func NewProcessStats() *ProcessStats {
	ps := &ProcessStats{start: time.Now()}
	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		ps.proc = proc
	}
	return ps
}

// Sample возвращает текущий снимок. Ошибка CPU не фатальна: процент остаётся 0.
func (ps *ProcessStats) Sample() ProcessSample {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return ProcessSample{
		Uptime:     time.Since(ps.start),
		CPUPercent: ps.cpuPercent(),
		AllocMB:    float64(m.Alloc) / 1024 / 1024,
		Goroutines: runtime.NumGoroutine(),
	}
}

func (ps *ProcessStats) cpuPercent() float64 {
	if ps.proc != nil {
		if p, err := ps.proc.CPUPercent(); err == nil {
			return p
		}
	}
	// Если не удалось получить метрику процесса, берём системную без ожидания
	percents, err := cpu.Percent(0, false)
	if err != nil || len(percents) == 0 {
		return 0
	}
	return percents[0]
}
