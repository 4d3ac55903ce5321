// Package config loads the runtime configuration from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Carmen-Shannon/oxy-xr/common"
	"gopkg.in/yaml.v3"
)

// Defaults applied to fields left unset.
const (
	DefaultTickRate           = 90
	DefaultPoseDir            = "poses"
	DefaultTransitionDuration = 0.2
	DefaultHandSpeed          = 5
	DefaultShakeName          = "camera"
	DefaultShakeDuration      = 0.5
	DefaultShakeIntensity     = 0.1
	DefaultShakeSource        = SourceUniform
	DefaultFadeName           = "screen"
	DefaultFadeDuration       = 2
	DefaultShowGhostDistance  = 0.05
	DefaultColliderDelay      = 0.5
	DefaultHoverDwell         = 0.8
)

// Jitter source names accepted by ShakeConfig.Source.
const (
	SourceUniform = "uniform"
	SourceSimplex = "simplex"
)

// Config is the full runtime configuration.
type Config struct {
	TickRate           float64 `yaml:"tick_rate"`
	Workers            int     `yaml:"workers"`
	PoseDir            string  `yaml:"pose_dir"`
	Watch              bool    `yaml:"watch"`
	Profile            bool    `yaml:"profile"`
	TransitionDuration float32 `yaml:"transition_duration"`

	Hand     HandConfig     `yaml:"hand"`
	Shake    ShakeConfig    `yaml:"shake"`
	Fade     FadeConfig     `yaml:"fade"`
	Follow   FollowConfig   `yaml:"follow"`
	Interact InteractConfig `yaml:"interact"`
}

// HandConfig configures both hands.
type HandConfig struct {
	Speed float32 `yaml:"speed"`

	// Joints is the joint count of the default rest pose, used when no <hand>_rest asset exists.
	Joints int `yaml:"joints"`
}

// ShakeConfig configures the rig's shaker.
type ShakeConfig struct {
	Name      string  `yaml:"name"`
	Duration  float32 `yaml:"duration"`
	Intensity float32 `yaml:"intensity"`
	X         *bool   `yaml:"x"`
	Y         *bool   `yaml:"y"`
	Z         *bool   `yaml:"z"`
	Source    string  `yaml:"source"`
	Seed      int64   `yaml:"seed"`
}

// FadeConfig configures the rig's screen fader.
type FadeConfig struct {
	Name     string  `yaml:"name"`
	Duration float32 `yaml:"duration"`
}

// FollowConfig configures the physics hand followers.
type FollowConfig struct {
	ShowGhostDistance float32     `yaml:"show_ghost_distance"`
	RotationOffset    *[3]float32 `yaml:"rotation_offset,flow"`
	ColliderDelay     *float32    `yaml:"collider_delay"`
}

// InteractConfig configures hovering.
type InteractConfig struct {
	// HoverDwell is how long a hand hovers an object before grabbing it. 0 turns it off.
	HoverDwell *float32 `yaml:"hover_dwell"`
}

// Default returns a Config with every field at its default.
//
// Returns:
//   - Config: the default configuration
func Default() Config {
	var c Config
	c.applyDefaults()
	return c
}

// Load reads and parses a YAML config file. Unset fields take their defaults.
//
// Parameters:
//   - path: the config file
//
// Returns:
//   - Config: the parsed configuration
//   - error: error if the file cannot be read, parsed or validated
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: load %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a YAML config document. Unknown keys are rejected.
//
// Parameters:
//   - data: the YAML document
//
// Returns:
//   - Config: the parsed configuration
//   - error: error if the document cannot be parsed or validated
func Parse(data []byte) (Config, error) {
	var c Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks values that have no sensible default.
//
// Returns:
//   - error: the first invalid field
func (c Config) Validate() error {
	switch {
	case c.TickRate < 0:
		return fmt.Errorf("tick_rate must be positive, got %v", c.TickRate)
	case c.Workers < 0:
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	case c.TransitionDuration < 0:
		return fmt.Errorf("transition_duration must be positive, got %v", c.TransitionDuration)
	case c.Interact.HoverDwell != nil && *c.Interact.HoverDwell < 0:
		return fmt.Errorf("interact.hover_dwell must not be negative, got %v", *c.Interact.HoverDwell)
	case c.Hand.Joints < 0:
		return fmt.Errorf("hand.joints must not be negative, got %d", c.Hand.Joints)
	case c.Shake.Source != SourceUniform && c.Shake.Source != SourceSimplex:
		return fmt.Errorf("shake.source must be %q or %q, got %q", SourceUniform, SourceSimplex, c.Shake.Source)
	}
	return nil
}

func (c *Config) applyDefaults() {
	c.TickRate = common.Coalesce(c.TickRate, DefaultTickRate)
	c.PoseDir = common.Coalesce(c.PoseDir, DefaultPoseDir)
	c.TransitionDuration = common.Coalesce(c.TransitionDuration, DefaultTransitionDuration)

	c.Hand.Speed = common.Coalesce(c.Hand.Speed, DefaultHandSpeed)

	c.Shake.Name = common.Coalesce(c.Shake.Name, DefaultShakeName)
	c.Shake.Duration = common.Coalesce(c.Shake.Duration, DefaultShakeDuration)
	c.Shake.Intensity = common.Coalesce(c.Shake.Intensity, DefaultShakeIntensity)
	c.Shake.Source = strings.ToLower(common.Coalesce(c.Shake.Source, DefaultShakeSource))
	c.Shake.X = common.Coalesce(c.Shake.X, boolPtr(true))
	c.Shake.Y = common.Coalesce(c.Shake.Y, boolPtr(true))
	c.Shake.Z = common.Coalesce(c.Shake.Z, boolPtr(false))
	c.Shake.Seed = common.Coalesce(c.Shake.Seed, 1)

	c.Fade.Name = common.Coalesce(c.Fade.Name, DefaultFadeName)
	c.Fade.Duration = common.Coalesce(c.Fade.Duration, DefaultFadeDuration)

	c.Follow.ShowGhostDistance = common.Coalesce(c.Follow.ShowGhostDistance, DefaultShowGhostDistance)
	c.Follow.RotationOffset = common.Coalesce(c.Follow.RotationOffset, &[3]float32{0, 0, 90})
	delay := float32(DefaultColliderDelay)
	c.Follow.ColliderDelay = common.Coalesce(c.Follow.ColliderDelay, &delay)

	dwell := float32(DefaultHoverDwell)
	c.Interact.HoverDwell = common.Coalesce(c.Interact.HoverDwell, &dwell)
}

func boolPtr(b bool) *bool {
	return &b
}
