package effect

import (
	"fmt"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-xr/common"
	"github.com/go-gl/mathgl/mgl32"
)

// DefaultFadeDuration is the fade length used by callers that do not pick one.
const DefaultFadeDuration = 2

var (
	// White is the unfiltered screen color.
	White = mgl32.Vec4{1, 1, 1, 1}
	// Black is opaque black scaled by -5, which drives a color filter fully dark.
	Black = mgl32.Vec4{0, 0, 0, 1}.Mul(-5)
)

// FadeDirection selects which way a Fader moves.
type FadeDirection int

const (
	// FadeIn goes from black to white.
	FadeIn FadeDirection = iota
	// FadeOut goes from white to black.
	FadeOut
)

func (d FadeDirection) String() string {
	switch d {
	case FadeIn:
		return "in"
	case FadeOut:
		return "out"
	default:
		return fmt.Sprintf("FadeDirection(%d)", int(d))
	}
}

// ParseFadeDirection converts "in" or "out" (case-insensitive) to a FadeDirection.
//
// Parameters:
//   - s: the direction name
//
// Returns:
//   - FadeDirection: the parsed direction
//   - error: error if s names no direction
func ParseFadeDirection(s string) (FadeDirection, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "in":
		return FadeIn, nil
	case "out":
		return FadeOut, nil
	default:
		return 0, fmt.Errorf("effect: unknown fade direction %q", s)
	}
}

// fader is the implementation of the Fader interface.
type fader struct {
	mu *sync.Mutex

	name string

	from, to mgl32.Vec4
	color    mgl32.Vec4
	elapsed  float32
	duration float32
	active   bool
	started  bool
}

// Fader animates a screen color filter between white and black.
type Fader interface {
	// Name returns the fader's registry name.
	Name() string

	// Fade starts a fade in the given direction. The first fade starts from the direction's
	// canonical color; later fades, including ones that interrupt a running fade, start from
	// the current color. A non-positive duration snaps straight to the target.
	//
	// Parameters:
	//   - dir: FadeIn or FadeOut
	//   - seconds: the fade length
	Fade(dir FadeDirection, seconds float32)

	// FadeIn is Fade(FadeIn, seconds).
	FadeIn(seconds float32)

	// FadeOut is Fade(FadeOut, seconds).
	FadeOut(seconds float32)

	// Active reports whether a fade is in progress.
	Active() bool

	// Tick advances the fade linearly.
	//
	// Parameters:
	//   - deltaTime: elapsed time in seconds
	//
	// Returns:
	//   - mgl32.Vec4: the current filter color
	Tick(deltaTime float32) mgl32.Vec4

	// Color returns the current filter color.
	Color() mgl32.Vec4
}

var _ Fader = &fader{}

// NewFader creates an idle Fader showing White.
//
// Parameters:
//   - name: the registry name
//
// Returns:
//   - Fader: the newly created fader
func NewFader(name string) Fader {
	return &fader{
		mu:    &sync.Mutex{},
		name:  name,
		color: White,
	}
}

func (f *fader) Name() string {
	return f.name
}

func (f *fader) Fade(dir FadeDirection, seconds float32) {
	f.mu.Lock()
	defer f.mu.Unlock()

	from, to := White, Black
	if dir == FadeIn {
		from, to = Black, White
	}
	if f.started {
		from = f.color
	}
	f.started = true

	if !(seconds > 0) {
		f.color = to
		f.active = false
		return
	}
	f.from, f.to = from, to
	f.color = from
	f.elapsed = 0
	f.duration = seconds
	f.active = true
}

func (f *fader) FadeIn(seconds float32) {
	f.Fade(FadeIn, seconds)
}

func (f *fader) FadeOut(seconds float32) {
	f.Fade(FadeOut, seconds)
}

func (f *fader) Active() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

func (f *fader) Tick(deltaTime float32) mgl32.Vec4 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.active {
		return f.color
	}
	if deltaTime > 0 {
		f.elapsed += deltaTime
	}
	if f.elapsed >= f.duration {
		f.color = f.to
		f.active = false
		return f.color
	}
	f.color = common.LerpVec4(f.from, f.to, f.elapsed/f.duration)
	return f.color
}

func (f *fader) Color() mgl32.Vec4 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.color
}
