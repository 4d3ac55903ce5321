package scenario

// ScenarioBuilderOption is a functional option for configuring a Scenario during construction.
type ScenarioBuilderOption func(*scenario)

// WithLogf sets where the script's log() calls and the runtime's own messages go.
// Defaults to log.Printf.
//
// Parameters:
//   - logf: a printf-style sink
//
// Returns:
//   - ScenarioBuilderOption: option function to apply
func WithLogf(logf func(format string, args ...any)) ScenarioBuilderOption {
	return func(s *scenario) {
		if logf != nil {
			s.logf = logf
		}
	}
}

// WithFadeDuration sets the fade length used when a script calls fade() without seconds.
//
// Parameters:
//   - seconds: the default fade length (values <= 0 keep the default of 2 seconds)
//
// Returns:
//   - ScenarioBuilderOption: option function to apply
func WithFadeDuration(seconds float32) ScenarioBuilderOption {
	return func(s *scenario) {
		if seconds > 0 {
			s.fadeDuration = seconds
		}
	}
}
