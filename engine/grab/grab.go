// Package grab applies per-object hand poses when a hand grabs and releases an object.
package grab

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-xr/engine/hand"
	"github.com/Carmen-Shannon/oxy-xr/engine/pose"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// DefaultTransitionDuration is the pose blend length used when none is configured.
const DefaultTransitionDuration = 0.2

// DefaultHighlightWidth is the outline width shown while a free object is hovered.
const DefaultHighlightWidth = 10

var (
	// DefaultLeftHandColor is the outline colour for objects hovered by the left hand.
	DefaultLeftHandColor = mgl32.Vec4{0, 1, 0, 1}

	// DefaultRightHandColor is the outline colour for objects hovered by the right hand.
	DefaultRightHandColor = mgl32.Vec4{0, 0, 1, 1}
)

// ErrNoPose is returned when a grabbable has no pose configured for the grabbing hand.
var ErrNoPose = errors.New("no pose for hand")

// InteractorKind distinguishes how a hand selects an object.
type InteractorKind int

const (
	// InteractorDirect selects by touching the object with the hand.
	InteractorDirect InteractorKind = iota
	// InteractorRay selects from a distance with a pointer ray.
	InteractorRay
	// InteractorSocket attaches the object to a fixed socket; it has no hand.
	InteractorSocket
)

func (k InteractorKind) String() string {
	switch k {
	case InteractorDirect:
		return "direct"
	case InteractorRay:
		return "ray"
	case InteractorSocket:
		return "socket"
	default:
		return fmt.Sprintf("InteractorKind(%d)", int(k))
	}
}

// Interactor is the hand or socket that hovered, selected or released an object. Hand is nil
// for sockets.
type Interactor struct {
	Kind InteractorKind
	Hand hand.Hand
}

// Highlight is the outline state of a grabbable. A zero Width means no outline.
type Highlight struct {
	Color mgl32.Vec4
	Width float32
}

// grabbable is the implementation of the Grabbable interface.
type grabbable struct {
	mu *sync.Mutex

	id       uuid.UUID
	name     string
	duration float32

	poses map[pose.Handedness]pose.ArticulatedPose
	start map[pose.Handedness]pose.ArticulatedPose // live pose captured on select, per holding hand

	highlightWidth float32
	handColors     map[pose.Handedness]mgl32.Vec4
	outline        Highlight

	holder   *Interactor
	attached bool
}

// Grabbable holds the right and left hand poses for one object and drives a hand's pose
// blender toward them while the object is held.
//
// Lock order is grabbable then hand, so hand callbacks must not call into a Grabbable.
type Grabbable interface {
	// ID returns the grabbable's unique identifier.
	ID() uuid.UUID

	// Name returns the grabbable's display name.
	Name() string

	// Duration returns the pose transition length in seconds.
	Duration() float32

	// HandPose returns a copy of the pose stored for a hand.
	//
	// Parameters:
	//   - h: the handedness
	//
	// Returns:
	//   - pose.ArticulatedPose: the stored pose
	//   - bool: false if no pose is configured for h
	HandPose(h pose.Handedness) (pose.ArticulatedPose, bool)

	// SetHandPose replaces the pose stored for a hand.
	//
	// Parameters:
	//   - h: the handedness
	//   - p: the pose (copied)
	SetHandPose(h pose.Handedness, p pose.ArticulatedPose)

	// MirrorRightPose mirrors the right pose onto the left hand, overwriting the left pose.
	//
	// Returns:
	//   - error: ErrNoPose if no right pose is configured
	MirrorRightPose() error

	// MirrorLeftPose mirrors the left pose onto the right hand, overwriting the right pose.
	//
	// Returns:
	//   - error: ErrNoPose if no left pose is configured
	MirrorLeftPose() error

	// SelectEntered reacts to a hand grabbing the object. Direct interactors get their
	// animator disabled, their current live pose captured, and a transition toward the
	// grabbable's pose for that hand. Ray interactors only record the holding hand and socket
	// interactors mark the object attached. Any successful select clears the outline.
	//
	// Parameters:
	//   - interactor: the selecting hand or socket
	//
	// Returns:
	//   - bool: true if a transition was started
	//   - error: ErrNoPose or a blender error, wrapped with the grabbable name
	SelectEntered(interactor Interactor) (bool, error)

	// SelectEnteredFrom is SelectEntered with an explicit pose to return to on release,
	// used when a hand moves straight from one object to another.
	//
	// Parameters:
	//   - interactor: the selecting hand
	//   - start: the pose restored by SelectExited (copied)
	//
	// Returns:
	//   - bool: true if a transition was started
	//   - error: ErrNoPose or a blender error, wrapped with the grabbable name
	SelectEnteredFrom(interactor Interactor, start pose.ArticulatedPose) (bool, error)

	// SelectExited reacts to a hand releasing the object. Direct interactors get their animator
	// re-enabled and transition back to the pose captured on SelectEntered. Releasing a hand
	// that never entered only re-enables the animator. Socket interactors detach the object.
	//
	// Parameters:
	//   - interactor: the releasing hand or socket
	//
	// Returns:
	//   - bool: true if a transition was started
	//   - error: a blender error, wrapped with the grabbable name
	SelectExited(interactor Interactor) (bool, error)

	// Holding reports whether the given hand currently holds the object with a direct grab.
	Holding(h pose.Handedness) bool

	// StartPose returns the pose a hand will return to when it releases the object.
	//
	// Returns:
	//   - pose.ArticulatedPose: a copy of the captured pose
	//   - bool: false if the hand is not holding the object
	StartPose(h pose.Handedness) (pose.ArticulatedPose, bool)

	// HeldInHand returns the hand that selected the object, direct or ray.
	//
	// Returns:
	//   - pose.Handedness: the holding hand
	//   - bool: false if no hand holds the object
	HeldInHand() (pose.Handedness, bool)

	// Attached reports whether a socket holds the object.
	Attached() bool

	// HoverEntered outlines the object in the hovering hand's colour. Objects that are held or
	// attached are not outlined.
	//
	// Parameters:
	//   - interactor: the hovering hand
	//
	// Returns:
	//   - bool: true if the outline was turned on
	HoverEntered(interactor Interactor) bool

	// HoverExited clears the outline unless a hand holds the object outside a socket.
	//
	// Parameters:
	//   - interactor: the hand that stopped hovering
	HoverExited(interactor Interactor)

	// Highlight returns the current outline.
	Highlight() Highlight

	// DropObject releases the object from whichever hand or socket holds it.
	//
	// Returns:
	//   - bool: true if a release transition was started
	//   - error: a SelectExited error
	DropObject() (bool, error)
}

var _ Grabbable = &grabbable{}

func (g *grabbable) ID() uuid.UUID {
	return g.id
}

func (g *grabbable) Name() string {
	return g.name
}

func (g *grabbable) Duration() float32 {
	return g.duration
}

func (g *grabbable) HandPose(h pose.Handedness) (pose.ArticulatedPose, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.poses[h]
	if !ok {
		return pose.ArticulatedPose{}, false
	}
	return p.Clone(), true
}

func (g *grabbable) SetHandPose(h pose.Handedness, p pose.ArticulatedPose) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.poses[h] = p.Clone()
}

func (g *grabbable) MirrorRightPose() error {
	return g.mirror(pose.HandRight, pose.HandLeft)
}

func (g *grabbable) MirrorLeftPose() error {
	return g.mirror(pose.HandLeft, pose.HandRight)
}

func (g *grabbable) mirror(from, to pose.Handedness) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	src, ok := g.poses[from]
	if !ok {
		return fmt.Errorf("grab: %s: mirror %s pose: %w", g.name, from, ErrNoPose)
	}
	m := pose.Mirror(src)
	if prev, ok := g.poses[to]; ok && prev.Name != "" {
		m.Name = prev.Name
	} else {
		m.Name = g.name + "_" + to.String()
	}
	g.poses[to] = m
	return nil
}

func (g *grabbable) SelectEntered(interactor Interactor) (bool, error) {
	return g.selectEntered(interactor, nil)
}

func (g *grabbable) SelectEnteredFrom(interactor Interactor, start pose.ArticulatedPose) (bool, error) {
	return g.selectEntered(interactor, &start)
}

func (g *grabbable) selectEntered(interactor Interactor, start *pose.ArticulatedPose) (bool, error) {
	if interactor.Kind == InteractorSocket {
		g.mu.Lock()
		defer g.mu.Unlock()
		g.holder = &interactor
		g.attached = true
		g.outline.Width = 0
		return false, nil
	}
	if interactor.Hand == nil {
		return false, fmt.Errorf("grab: %s: select entered with nil hand", g.name)
	}
	h := interactor.Hand.Handedness()

	g.mu.Lock()
	defer g.mu.Unlock()
	if interactor.Kind != InteractorDirect {
		g.holder = &interactor
		g.outline.Width = 0
		return false, nil
	}

	target, ok := g.poses[h]
	if !ok {
		return false, fmt.Errorf("grab: %s: %s hand: %w", g.name, h, ErrNoPose)
	}

	interactor.Hand.SetAnimatorEnabled(false)
	var from pose.ArticulatedPose
	if start != nil {
		from = start.Clone()
	} else {
		from = interactor.Hand.Pose()
	}
	if err := interactor.Hand.BeginTransition(target, g.duration); err != nil {
		interactor.Hand.SetAnimatorEnabled(true)
		return false, fmt.Errorf("grab: %s: %w", g.name, err)
	}
	g.start[h] = from
	g.holder = &interactor
	g.outline.Width = 0
	return true, nil
}

func (g *grabbable) SelectExited(interactor Interactor) (bool, error) {
	if interactor.Kind == InteractorSocket {
		g.mu.Lock()
		defer g.mu.Unlock()
		g.attached = false
		g.holder = nil
		return false, nil
	}
	if interactor.Hand == nil {
		return false, fmt.Errorf("grab: %s: select exited with nil hand", g.name)
	}
	h := interactor.Hand.Handedness()

	g.mu.Lock()
	defer g.mu.Unlock()
	g.holder = nil
	if interactor.Kind != InteractorDirect {
		return false, nil
	}

	interactor.Hand.SetAnimatorEnabled(true)
	start, ok := g.start[h]
	if !ok {
		return false, nil
	}
	delete(g.start, h)
	if err := interactor.Hand.BeginTransition(start, g.duration); err != nil {
		return false, fmt.Errorf("grab: %s: %w", g.name, err)
	}
	return true, nil
}

func (g *grabbable) Holding(h pose.Handedness) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.start[h]
	return ok
}

func (g *grabbable) StartPose(h pose.Handedness) (pose.ArticulatedPose, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.start[h]
	if !ok {
		return pose.ArticulatedPose{}, false
	}
	return p.Clone(), true
}

func (g *grabbable) HeldInHand() (pose.Handedness, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.holder == nil || g.holder.Hand == nil {
		return 0, false
	}
	return g.holder.Hand.Handedness(), true
}

func (g *grabbable) Attached() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.attached
}

func (g *grabbable) HoverEntered(interactor Interactor) bool {
	if interactor.Hand == nil {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.holder != nil || g.attached {
		return false
	}
	g.outline = Highlight{Color: g.handColors[interactor.Hand.Handedness()], Width: g.highlightWidth}
	return true
}

func (g *grabbable) HoverExited(_ Interactor) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.holder == nil || g.attached {
		g.outline.Width = 0
	}
}

func (g *grabbable) Highlight() Highlight {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.outline
}

func (g *grabbable) DropObject() (bool, error) {
	g.mu.Lock()
	holder := g.holder
	g.mu.Unlock()
	if holder == nil {
		return false, nil
	}
	return g.SelectExited(*holder)
}
