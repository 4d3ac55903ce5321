package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxy-xr/engine/profiler"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled.Store(enabled)
	}
}

// WithProfilerInterval sets how often profiling stats are logged.
//
// Parameters:
//   - interval: the logging interval (values <= 0 default to 1 second)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfilerInterval(interval time.Duration) EngineBuilderOption {
	return func(e *engine) {
		e.profiler = profiler.NewProfiler(interval, func() (int, int) {
			st := e.rig.Stats()
			return st.ActiveTransitions, st.ActiveEffects
		})
	}
}

// WithTickRate sets the engine tick rate in ticks per second.
// Values <= 0 will be treated as the default (60Hz).
//
// Parameters:
//   - fps: target ticks per second (default 60)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		e.engineTickRate = tickInterval(fps)
	}
}

// WithTickCallback registers the tick callback during construction.
//
// Parameters:
//   - callback: function called after each rig tick
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickCallback(callback func(deltaTime float32)) EngineBuilderOption {
	return func(e *engine) {
		e.tickCallback = callback
	}
}
