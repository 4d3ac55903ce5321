package profiler

import (
	"log"
	"runtime"
	"time"
)

// StatsFunc reports the number of pose transitions and effects running right now.
type StatsFunc func() (transitions, effects int)

// Profiler tracks tick rate, memory statistics and rig activity.
// Outputs stats to the log at a configurable interval.
type Profiler struct {
	tickCount      int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	stats          StatsFunc
}

// NewProfiler creates a new Profiler that logs once per interval.
//
// Parameters:
//   - interval: how often to log (values <= 0 default to 1 second)
//   - stats: optional source of rig activity counts, may be nil
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(interval time.Duration, stats StatsFunc) *Profiler {
	if interval <= 0 {
		interval = time.Second
	}
	return &Profiler{
		lastTime:       time.Now(),
		updateInterval: interval,
		memStats:       runtime.MemStats{},
		stats:          stats,
	}
}

// Tick should be called once per engine tick.
// Logs ticks per second, heap usage, allocation rate, GC count/pause times and, when a
// StatsFunc is set, the active transition and effect counts.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.tickCount++
	currentTime := time.Now()
	elapsed := currentTime.Sub(p.lastTime)

	if elapsed < p.updateInterval {
		return false
	}
	tps := float64(p.tickCount) / elapsed.Seconds()

	runtime.ReadMemStats(&p.memStats)
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	allocRateMB := float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		// PauseNs is a circular buffer of the last 256 pauses
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000
		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			if pause := p.memStats.PauseNs[i%256] / 1000; pause > maxPauseUs {
				maxPauseUs = pause
			}
		}
	}

	var transitions, effects int
	if p.stats != nil {
		transitions, effects = p.stats()
	}

	log.Printf("[Profiler] TPS: %.2f | Transitions: %d | Effects: %d | Heap: %.2f MB | Alloc Rate: %.2f MB/s | GC: %d (last: %d µs, max: %d µs)",
		tps, transitions, effects, allocMB, allocRateMB, gcCount, lastPauseUs, maxPauseUs)

	p.tickCount = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}
