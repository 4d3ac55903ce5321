package rig

import "github.com/google/uuid"

// DefaultHoverDwell is how long, in seconds, a hand must hover an object before it is grabbed.
const DefaultHoverDwell = 0.8

// hoverDwell tracks how long a hand has hovered one grabbable.
type hoverDwell struct {
	target  uuid.UUID
	elapsed float32
	armed   bool
}

// advance adds deltaTime to the timer and reports true once, on the tick the elapsed time
// first exceeds limit. The timer then disarms until the hand hovers again.
func (d *hoverDwell) advance(deltaTime, limit float32) bool {
	if !d.armed || deltaTime <= 0 {
		return false
	}
	d.elapsed += deltaTime
	if d.elapsed <= limit {
		return false
	}
	d.armed = false
	d.elapsed = 0
	return true
}
