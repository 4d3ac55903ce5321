package effect

import (
	"math/rand"

	"github.com/chewxy/math32"
	"github.com/ojrac/opensimplex-go"
)

// JitterSource produces per-axis shake samples in [-1, 1]. Sources are not safe for concurrent
// use; each Shaker owns its own.
type JitterSource interface {
	// Sample returns the jitter for one axis at the given time into the shake.
	//
	// Parameters:
	//   - axis: 0, 1 or 2 for X, Y, Z
	//   - elapsed: seconds since the shake started
	//
	// Returns:
	//   - float32: a value in [-1, 1]
	Sample(axis int, elapsed float32) float32
}

// UniformJitter draws independent uniform samples each call, giving a hard per-frame rattle.
type UniformJitter struct {
	rng *rand.Rand
}

var _ JitterSource = &UniformJitter{}

// NewUniformJitter creates a uniform source from a seed.
//
// Parameters:
//   - seed: the random seed
//
// Returns:
//   - *UniformJitter: the jitter source
func NewUniformJitter(seed int64) *UniformJitter {
	return &UniformJitter{rng: rand.New(rand.NewSource(seed))}
}

func (u *UniformJitter) Sample(_ int, _ float32) float32 {
	return u.rng.Float32()*2 - 1
}

// simplexFrequency is how many noise units pass per second of shake.
const simplexFrequency = 25

// SimplexJitter samples OpenSimplex noise along time, one row per axis, for a smooth shake
// that is reproducible for a given seed.
type SimplexJitter struct {
	noise opensimplex.Noise
}

var _ JitterSource = &SimplexJitter{}

// NewSimplexJitter creates a noise source from a seed.
//
// Parameters:
//   - seed: the noise seed
//
// Returns:
//   - *SimplexJitter: the jitter source
func NewSimplexJitter(seed int64) *SimplexJitter {
	return &SimplexJitter{noise: opensimplex.New(seed)}
}

func (s *SimplexJitter) Sample(axis int, elapsed float32) float32 {
	v := float32(s.noise.Eval2(float64(elapsed*simplexFrequency), float64(axis)*17.3))
	return math32.Max(-1, math32.Min(1, v))
}
