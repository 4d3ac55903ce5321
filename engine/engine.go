package engine

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-xr/engine/profiler"
	"github.com/Carmen-Shannon/oxy-xr/engine/rig"
)

// engine implements the Engine interface.
// Coordinates the fixed-rate tick goroutine and shutdown.
type engine struct {
	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates

	running atomic.Bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	rig rig.Rig

	profiler         *profiler.Profiler
	profilingEnabled atomic.Bool

	mu             sync.Mutex
	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)
}

// Engine is the main entry point for the runtime.
// It advances a Rig at a fixed tick rate until Quit is called.
type Engine interface {
	// Rig returns the rig advanced by the engine.
	//
	// Returns:
	//   - rig.Rig: the rig instance
	Rig() rig.Rig

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickRate sets the engine tick rate in ticks per second.
	// If the engine is running, the change takes effect on the next tick.
	//
	// Parameters:
	//   - fps: target ticks per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// TickRate returns the configured tick interval.
	//
	// Returns:
	//   - time.Duration: time between ticks
	TickRate() time.Duration

	// SetTickCallback registers a function called each engine tick after the rig has been
	// advanced. Use this for host logic that reads the updated poses.
	//
	// Parameters:
	//   - callback: function to call at the configured tick rate, receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// Run starts the engine tick loop and blocks until Quit is called or the tick goroutine
	// recovers from a panic.
	Run()

	// Quit signals all engine goroutines to stop.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

// NewEngine creates a new Engine that drives the given rig.
// Panics if r is nil.
//
// Parameters:
//   - r: the rig to advance each tick (must not be nil)
//   - options: functional options for engine configuration (profiling, tick rate, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(r rig.Rig, options ...EngineBuilderOption) Engine {
	if r == nil {
		panic("engine: NewEngine requires a non-nil Rig")
	}
	e := &engine{
		tickRateChannel: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
		rig:             r,
		engineTickRate:  time.Second / 60,
	}
	e.profiler = profiler.NewProfiler(time.Second, func() (int, int) {
		st := e.rig.Stats()
		return st.ActiveTransitions, st.ActiveEffects
	})

	for _, opt := range options {
		opt(e)
	}

	return e
}

func (e *engine) Rig() rig.Rig {
	return e.rig
}

func (e *engine) Run() {
	e.running.Store(true)
	e.handle()
	e.wg.Wait()
	e.running.Store(false)
}

// Quit signals all engine goroutines to stop and shuts down the engine.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
// Uses sync.Once to ensure the channel is only closed once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

// handle launches the engine and quit goroutines.
// Each goroutine is tracked by the engine's WaitGroup.
func (e *engine) handle() {
	e.wg.Add(2)
	go e.handleEngine()
	go e.handleQuit()
}

// handleEngine runs the fixed-rate tick loop in its own goroutine.
// Advances the rig, fires the tick callback and listens for dynamic rate changes via
// tickRateChannel. Exits when the quit channel is closed. Recovers from panics and signals
// quit so Run returns instead of crashing the process.
func (e *engine) handleEngine() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Engine] tick goroutine recovered from panic: %v", r)
			e.signalQuit()
		}
	}()

	ticker := time.NewTicker(e.TickRate())
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now

			e.rig.Tick(dt)

			e.mu.Lock()
			cb := e.tickCallback
			e.mu.Unlock()
			if cb != nil {
				cb(dt)
			}

			if e.profilingEnabled.Load() && e.profiler != nil {
				e.profiler.Tick()
			}
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.mu.Lock()
			e.engineTickRate = newRate
			e.mu.Unlock()
		}
	}
}

// handleQuit blocks until the quit channel is closed, then decrements the WaitGroup.
func (e *engine) handleQuit() {
	defer e.wg.Done()
	<-e.quitChannel
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled.Store(true)
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled.Store(false)
}

// SetTickRate sets the engine tick rate in ticks per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	newRate := tickInterval(fps)

	if e.running.Load() {
		// Non-blocking send - if channel is full, replace the pending value
		select {
		case e.tickRateChannel <- newRate:
		default:
			select {
			case <-e.tickRateChannel:
			default:
			}
			e.tickRateChannel <- newRate
		}
		return
	}
	e.mu.Lock()
	e.engineTickRate = newRate
	e.mu.Unlock()
}

func (e *engine) TickRate() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.engineTickRate
}

// SetTickCallback registers the function called each engine tick.
func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tickCallback = callback
}

// tickInterval converts a rate in ticks per second to a ticker interval, defaulting to 60.
func tickInterval(fps float64) time.Duration {
	if fps <= 0 {
		fps = 60
	}
	return time.Duration(float64(time.Second) / fps)
}
