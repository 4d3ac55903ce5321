// Package scenario runs tengo scripts that drive a rig: grabbing and releasing objects,
// advancing time and inspecting hand poses. Scenarios are used for scripted demos and for
// checking pose assets without a headset.
package scenario

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/Carmen-Shannon/oxy-xr/engine/rig"
	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
)

// scenario is the implementation of the Scenario interface.
type scenario struct {
	mu *sync.Mutex

	name     string
	rig      rig.Rig
	compiled *tengo.Compiled
	last     *tengo.Compiled

	logf         func(format string, args ...any)
	fadeDuration float32
	ticks        int
}

// Scenario is a compiled script bound to a rig.
type Scenario interface {
	// Name returns the scenario name, usually its file name.
	Name() string

	// Run executes the script from the top. Each run starts from fresh script globals; the
	// rig keeps whatever state earlier runs left it in.
	//
	// Parameters:
	//   - ctx: cancels a running script
	//
	// Returns:
	//   - error: a compile-time or runtime script error, or ctx.Err() on cancellation
	Run(ctx context.Context) error

	// Get returns a global variable from the last run.
	//
	// Parameters:
	//   - name: the global's name
	//
	// Returns:
	//   - any: the value converted to Go (nil for undefined)
	//   - bool: false if the script defines no such global or has not run
	Get(name string) (any, bool)

	// Ticks returns how many times the script has called tick().
	Ticks() int
}

var _ Scenario = &scenario{}

// NewScenario compiles a script against a rig. The script sees the rig functions as globals
// and may import any tengo standard library module.
// Panics if r is nil.
//
// Parameters:
//   - name: the scenario name used in logs and errors
//   - r: the rig the script drives (must not be nil)
//   - src: the tengo source
//   - options: functional options to configure the scenario
//
// Returns:
//   - Scenario: the compiled scenario
//   - error: error if the script does not compile
func NewScenario(name string, r rig.Rig, src []byte, options ...ScenarioBuilderOption) (Scenario, error) {
	if r == nil {
		panic("scenario: NewScenario requires a non-nil Rig")
	}
	s := &scenario{
		mu:           &sync.Mutex{},
		name:         name,
		rig:          r,
		logf:         log.Printf,
		fadeDuration: 2,
	}
	for _, opt := range options {
		opt(s)
	}

	script := tengo.NewScript(src)
	for fnName, fn := range s.builtins() {
		if err := script.Add(fnName, fn); err != nil {
			return nil, fmt.Errorf("scenario: %s: add %s: %w", name, fnName, err)
		}
	}
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("scenario: %s: %w", name, err)
	}
	s.compiled = compiled
	return s, nil
}

// LoadScenario reads and compiles a script file.
//
// Parameters:
//   - path: the script file
//   - r: the rig the script drives
//   - options: functional options to configure the scenario
//
// Returns:
//   - Scenario: the compiled scenario
//   - error: error if the file cannot be read or does not compile
func LoadScenario(path string, r rig.Rig, options ...ScenarioBuilderOption) (Scenario, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scenario: load %s: %w", path, err)
	}
	return NewScenario(path, r, src, options...)
}

func (s *scenario) Name() string {
	return s.name
}

func (s *scenario) Run(ctx context.Context) error {
	c := s.compiled.Clone()
	err := c.RunContext(ctx)

	s.mu.Lock()
	s.last = c
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("scenario: %s: %w", s.name, err)
	}
	return nil
}

func (s *scenario) Get(name string) (any, bool) {
	s.mu.Lock()
	c := s.last
	s.mu.Unlock()
	if c == nil || !c.IsDefined(name) {
		return nil, false
	}
	return c.Get(name).Value(), true
}

func (s *scenario) Ticks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticks
}
