package collector

import (
	"log/slog"
	"runtime"
	"sync"
	"syscall"
	"time"
)

// Performance records request timings and process resource usage for the
// end-of-run summary. It is purely diagnostic and never influences control
// flow.
type Performance struct {
	start      time.Time
	startAlloc uint64
	startCPU   time.Duration

	mu           sync.Mutex
	requestTimes []time.Duration
}

// NewPerformance captures baseline process metrics.
func NewPerformance() *Performance {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return &Performance{
		start:      time.Now(),
		startAlloc: mem.Alloc,
		startCPU:   processCPUTime(),
	}
}

// ObserveRequest records one HTTP request's wall-clock duration.
func (p *Performance) ObserveRequest(d time.Duration) {
	p.mu.Lock()
	p.requestTimes = append(p.requestTimes, d)
	p.mu.Unlock()
}

// RequestStats reports count, average, minimum, and maximum request times.
func (p *Performance) RequestStats() (count int, avg, min, max time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	count = len(p.requestTimes)
	if count == 0 {
		return 0, 0, 0, 0
	}

	min = p.requestTimes[0]
	max = p.requestTimes[0]
	var total time.Duration
	for _, d := range p.requestTimes {
		total += d
		if d < min {
			min = d
		}
		if d > max {
			max = d
		}
	}
	return count, total / time.Duration(count), min, max
}

// MemoryUsage reports heap and process memory in megabytes: current
// allocation, total obtained from the OS, and growth since baseline.
func (p *Performance) MemoryUsage() (currentMB, sysMB, increaseMB float64) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	const mb = 1024 * 1024
	currentMB = float64(mem.Alloc) / mb
	sysMB = float64(mem.Sys) / mb
	increaseMB = (float64(mem.Alloc) - float64(p.startAlloc)) / mb
	return currentMB, sysMB, increaseMB
}

// CPUPercent reports process CPU utilization since baseline.
func (p *Performance) CPUPercent() float64 {
	elapsed := p.Elapsed()
	if elapsed <= 0 {
		return 0
	}
	used := processCPUTime() - p.startCPU
	if used < 0 {
		return 0
	}
	return used.Seconds() / elapsed.Seconds() * 100
}

// Elapsed reports wall time since construction.
func (p *Performance) Elapsed() time.Duration {
	return time.Since(p.start)
}

// LogSummary writes the performance summary to the default logger.
func (p *Performance) LogSummary() {
	elapsed := p.Elapsed()
	currentMB, sysMB, increaseMB := p.MemoryUsage()
	count, avg, min, max := p.RequestStats()

	slog.Info("performance summary",
		slog.Duration("elapsed", elapsed.Round(10*time.Millisecond)),
		slog.Float64("memory_current_mb", currentMB),
		slog.Float64("memory_sys_mb", sysMB),
		slog.Float64("memory_increase_mb", increaseMB),
		slog.Float64("cpu_percent", p.CPUPercent()),
	)

	if count == 0 {
		slog.Info("request summary", slog.Int("requests", 0))
		return
	}

	requestsPerSec := 0.0
	if elapsed.Seconds() > 0 {
		requestsPerSec = float64(count) / elapsed.Seconds()
	}
	slog.Info("request summary",
		slog.Int("requests", count),
		slog.Duration("avg", avg.Round(time.Millisecond)),
		slog.Duration("min", min.Round(time.Millisecond)),
		slog.Duration("max", max.Round(time.Millisecond)),
		slog.Float64("requests_per_sec", requestsPerSec),
	)
}

func processCPUTime() time.Duration {
	var usage syscall.Rusage
	if err := syscall.Getrusage(syscall.RUSAGE_SELF, &usage); err != nil {
		return 0
	}
	return timevalDuration(usage.Utime) + timevalDuration(usage.Stime)
}

func timevalDuration(tv syscall.Timeval) time.Duration {
	return time.Duration(tv.Sec)*time.Second + time.Duration(tv.Usec)*time.Microsecond
}
