// Package rig ties a player's hands, the grabbable objects they can pick up and the ambient
// effects into one unit that is advanced once per engine tick.
package rig

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-xr/engine/blender"
	"github.com/Carmen-Shannon/oxy-xr/engine/effect"
	"github.com/Carmen-Shannon/oxy-xr/engine/grab"
	"github.com/Carmen-Shannon/oxy-xr/engine/hand"
	"github.com/Carmen-Shannon/oxy-xr/engine/pose"
	"github.com/google/uuid"
)

var (
	// ErrUnknownHand is returned when the rig has no hand of the requested handedness.
	ErrUnknownHand = errors.New("unknown hand")

	// ErrUnknownGrabbable is returned when no grabbable matches the requested ID or name.
	ErrUnknownGrabbable = errors.New("unknown grabbable")

	// ErrUnknownEffect is returned when no shaker or fader is registered under a name.
	ErrUnknownEffect = errors.New("unknown effect")

	// ErrNotHeld is returned when releasing an object the hand is not holding.
	ErrNotHeld = errors.New("object not held")
)

// Stats is a snapshot of the rig's contents.
type Stats struct {
	Hands             int
	Grabbables        int
	Held              int
	Hovering          int
	ActiveTransitions int
	ActiveEffects     int
	Ticks             uint64
}

// rigHand pairs a hand with the follower that drives its physics body.
type rigHand struct {
	hand     hand.Hand
	follower hand.Follower
}

// rig is the implementation of the Rig interface.
type rig struct {
	mu *sync.RWMutex

	name string

	hands      map[pose.Handedness]*rigHand
	grabbables map[uuid.UUID]grab.Grabbable
	byName     map[string]uuid.UUID
	held       map[pose.Handedness]uuid.UUID
	hovers     map[pose.Handedness]*hoverDwell

	shakers map[string]effect.Shaker
	faders  map[string]effect.Fader

	colliderDelay float32
	dwellTime     float32
	ticks         atomic.Uint64

	// tickPool runs each hand's per-tick work. Workers persist across ticks.
	tickPool    worker.DynamicWorkerPool
	tickWorkers int
}

// Rig owns the hands, grabbables and effects of one player and advances them together.
// Thread-safe for concurrent access.
type Rig interface {
	// Name returns the rig's identifier.
	Name() string

	// AddHand registers a hand, replacing any hand of the same handedness. A nil follower is
	// replaced with a default one.
	//
	// Parameters:
	//   - h: the hand to register
	//   - f: the hand's physics follower, or nil
	AddHand(h hand.Hand, f hand.Follower)

	// Hand returns the hand of the given handedness.
	//
	// Parameters:
	//   - h: the handedness
	//
	// Returns:
	//   - hand.Hand: the hand
	//   - error: ErrUnknownHand if none is registered
	Hand(h pose.Handedness) (hand.Hand, error)

	// Follower returns the physics follower of the given hand.
	//
	// Parameters:
	//   - h: the handedness
	//
	// Returns:
	//   - hand.Follower: the follower
	//   - error: ErrUnknownHand if none is registered
	Follower(h pose.Handedness) (hand.Follower, error)

	// AddGrabbable registers a grabbable, replacing any with the same ID or name.
	//
	// Parameters:
	//   - g: the grabbable to register
	//
	// Returns:
	//   - uuid.UUID: the grabbable's ID
	AddGrabbable(g grab.Grabbable) uuid.UUID

	// Grabbable looks up a grabbable by ID.
	//
	// Parameters:
	//   - id: the grabbable ID
	//
	// Returns:
	//   - grab.Grabbable: the grabbable
	//   - error: ErrUnknownGrabbable if none matches
	Grabbable(id uuid.UUID) (grab.Grabbable, error)

	// GrabbableByName looks up a grabbable by name.
	//
	// Parameters:
	//   - name: the grabbable name
	//
	// Returns:
	//   - grab.Grabbable: the grabbable
	//   - error: ErrUnknownGrabbable if none matches
	GrabbableByName(name string) (grab.Grabbable, error)

	// RemoveGrabbable unregisters a grabbable. A hand holding it keeps its current pose.
	//
	// Parameters:
	//   - id: the grabbable ID
	RemoveGrabbable(id uuid.UUID)

	// Grabbables returns the registered grabbables sorted by name.
	Grabbables() []grab.Grabbable

	// AddShaker registers a shaker under its name.
	AddShaker(s effect.Shaker)

	// Shaker looks up a shaker by name.
	//
	// Returns:
	//   - effect.Shaker: the shaker
	//   - error: ErrUnknownEffect if none matches
	Shaker(name string) (effect.Shaker, error)

	// AddFader registers a fader under its name.
	AddFader(f effect.Fader)

	// Fader looks up a fader by name.
	//
	// Returns:
	//   - effect.Fader: the fader
	//   - error: ErrUnknownEffect if none matches
	Fader(name string) (effect.Fader, error)

	// Grab makes a hand grab a grabbable with a direct interactor. A hand already holding a
	// different object releases it first; grabbing the held object again does nothing. The
	// hand's colliders are disabled while holding.
	//
	// Parameters:
	//   - h: the grabbing hand
	//   - id: the grabbable ID
	//
	// Returns:
	//   - error: ErrUnknownHand, ErrUnknownGrabbable or the grabbable's error
	Grab(h pose.Handedness, id uuid.UUID) error

	// Release makes a hand let go of a grabbable. The hand's colliders come back on after the
	// rig's collider delay.
	//
	// Parameters:
	//   - h: the releasing hand
	//   - id: the grabbable ID
	//
	// Returns:
	//   - error: ErrUnknownHand, ErrUnknownGrabbable, ErrNotHeld or the grabbable's error
	Release(h pose.Handedness, id uuid.UUID) error

	// Held returns the ID of the grabbable a hand is holding.
	//
	// Returns:
	//   - uuid.UUID: the held grabbable
	//   - bool: false if the hand holds nothing
	Held(h pose.Handedness) (uuid.UUID, bool)

	// Drop releases a grabbable from whichever hand holds it.
	//
	// Parameters:
	//   - id: the grabbable ID
	//
	// Returns:
	//   - error: ErrUnknownGrabbable, ErrNotHeld or the grabbable's error
	Drop(id uuid.UUID) error

	// Hover points a hand at a grabbable, outlining it and starting the hand's dwell timer. A
	// hand hovering another object leaves it first. A hover that lasts longer than the rig's
	// dwell time grabs the object on the next tick.
	//
	// Parameters:
	//   - h: the hovering hand
	//   - id: the grabbable ID
	//
	// Returns:
	//   - error: ErrUnknownHand or ErrUnknownGrabbable
	Hover(h pose.Handedness, id uuid.UUID) error

	// Unhover ends a hand's hover and resets its dwell timer. Does nothing if the hand hovers
	// nothing.
	//
	// Parameters:
	//   - h: the hand
	//
	// Returns:
	//   - error: ErrUnknownHand
	Unhover(h pose.Handedness) error

	// Hovered returns the ID of the grabbable a hand is hovering.
	//
	// Returns:
	//   - uuid.UUID: the hovered grabbable
	//   - bool: false if the hand hovers nothing
	Hovered(h pose.Handedness) (uuid.UUID, bool)

	// Tick advances every hand in parallel on the rig's worker pool, waits for them, then
	// advances the dwell timers and the effects.
	//
	// Parameters:
	//   - deltaTime: elapsed time since the previous tick in seconds
	Tick(deltaTime float32)

	// Stats returns a snapshot of the rig's contents.
	Stats() Stats

	// Close stops the rig's worker pool. The rig must not be ticked afterwards.
	Close()
}

var _ Rig = &rig{}

func (r *rig) Name() string {
	return r.name
}

func (r *rig) AddHand(h hand.Hand, f hand.Follower) {
	if h == nil {
		panic("rig: AddHand requires a non-nil Hand")
	}
	if f == nil {
		f = hand.NewFollower()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hands[h.Handedness()] = &rigHand{hand: h, follower: f}
	delete(r.held, h.Handedness())
	delete(r.hovers, h.Handedness())
}

func (r *rig) Hand(h pose.Handedness) (hand.Hand, error) {
	rh, err := r.lookupHand(h)
	if err != nil {
		return nil, err
	}
	return rh.hand, nil
}

func (r *rig) Follower(h pose.Handedness) (hand.Follower, error) {
	rh, err := r.lookupHand(h)
	if err != nil {
		return nil, err
	}
	return rh.follower, nil
}

func (r *rig) lookupHand(h pose.Handedness) (*rigHand, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rh, ok := r.hands[h]
	if !ok {
		return nil, fmt.Errorf("rig: %s hand: %w", h, ErrUnknownHand)
	}
	return rh, nil
}

func (r *rig) AddGrabbable(g grab.Grabbable) uuid.UUID {
	if g == nil {
		panic("rig: AddGrabbable requires a non-nil Grabbable")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.byName[g.Name()]; ok && prev != g.ID() {
		delete(r.grabbables, prev)
	}
	r.grabbables[g.ID()] = g
	r.byName[g.Name()] = g.ID()
	return g.ID()
}

func (r *rig) Grabbable(id uuid.UUID) (grab.Grabbable, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.grabbables[id]
	if !ok {
		return nil, fmt.Errorf("rig: grabbable %s: %w", id, ErrUnknownGrabbable)
	}
	return g, nil
}

func (r *rig) GrabbableByName(name string) (grab.Grabbable, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("rig: grabbable %q: %w", name, ErrUnknownGrabbable)
	}
	return r.grabbables[id], nil
}

func (r *rig) RemoveGrabbable(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.grabbables[id]
	if !ok {
		return
	}
	delete(r.grabbables, id)
	delete(r.byName, g.Name())
	for h, held := range r.held {
		if held == id {
			delete(r.held, h)
		}
	}
	for h, hv := range r.hovers {
		if hv.target == id {
			delete(r.hovers, h)
		}
	}
}

func (r *rig) Grabbables() []grab.Grabbable {
	r.mu.RLock()
	out := make([]grab.Grabbable, 0, len(r.grabbables))
	for _, g := range r.grabbables {
		out = append(out, g)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

func (r *rig) AddShaker(s effect.Shaker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shakers[s.Name()] = s
}

func (r *rig) Shaker(name string) (effect.Shaker, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.shakers[name]
	if !ok {
		return nil, fmt.Errorf("rig: shaker %q: %w", name, ErrUnknownEffect)
	}
	return s, nil
}

func (r *rig) AddFader(f effect.Fader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.faders[f.Name()] = f
}

func (r *rig) Fader(name string) (effect.Fader, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.faders[name]
	if !ok {
		return nil, fmt.Errorf("rig: fader %q: %w", name, ErrUnknownEffect)
	}
	return f, nil
}

func (r *rig) Grab(h pose.Handedness, id uuid.UUID) error {
	rh, err := r.lookupHand(h)
	if err != nil {
		return err
	}
	g, err := r.Grabbable(id)
	if err != nil {
		return err
	}

	// Switching objects hands the first object's start pose to the second, so releasing the
	// second returns the hand to where it was before either grab.
	var carried *pose.ArticulatedPose
	if prev, ok := r.Held(h); ok {
		if prev == id {
			return nil
		}
		if pg, err := r.Grabbable(prev); err == nil {
			if start, ok := pg.StartPose(h); ok {
				carried = &start
			}
		}
		if err := r.Release(h, prev); err != nil && !errors.Is(err, ErrUnknownGrabbable) {
			return err
		}
	}

	interactor := grab.Interactor{Kind: grab.InteractorDirect, Hand: rh.hand}
	var started bool
	if carried != nil {
		started, err = g.SelectEnteredFrom(interactor, *carried)
	} else {
		started, err = g.SelectEntered(interactor)
	}
	if err != nil {
		return err
	}
	rh.follower.DisableColliders()

	r.mu.Lock()
	r.held[h] = id
	r.mu.Unlock()
	if started {
		log.Printf("[Rig] %s hand grabbed %q", h, g.Name())
	}
	return nil
}

func (r *rig) Release(h pose.Handedness, id uuid.UUID) error {
	rh, err := r.lookupHand(h)
	if err != nil {
		return err
	}
	if held, ok := r.Held(h); !ok || held != id {
		return fmt.Errorf("rig: %s hand releasing %s: %w", h, id, ErrNotHeld)
	}

	r.mu.Lock()
	delete(r.held, h)
	g, ok := r.grabbables[id]
	r.mu.Unlock()
	rh.follower.EnableCollidersAfter(r.colliderDelay)
	if !ok {
		rh.hand.SetAnimatorEnabled(true)
		return fmt.Errorf("rig: grabbable %s: %w", id, ErrUnknownGrabbable)
	}

	if _, err := g.SelectExited(grab.Interactor{Kind: grab.InteractorDirect, Hand: rh.hand}); err != nil {
		return err
	}
	log.Printf("[Rig] %s hand released %q", h, g.Name())
	return nil
}

func (r *rig) Held(h pose.Handedness) (uuid.UUID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.held[h]
	return id, ok
}

func (r *rig) Drop(id uuid.UUID) error {
	g, err := r.Grabbable(id)
	if err != nil {
		return err
	}

	r.mu.RLock()
	holder, found := pose.Handedness(0), false
	for h, held := range r.held {
		if held == id {
			holder, found = h, true
			break
		}
	}
	r.mu.RUnlock()
	if found {
		return r.Release(holder, id)
	}

	// Not held by a rig hand; a socket may still have it.
	if !g.Attached() {
		return fmt.Errorf("rig: drop %q: %w", g.Name(), ErrNotHeld)
	}
	if _, err := g.DropObject(); err != nil {
		return err
	}
	log.Printf("[Rig] %q dropped from its socket", g.Name())
	return nil
}

func (r *rig) Hover(h pose.Handedness, id uuid.UUID) error {
	rh, err := r.lookupHand(h)
	if err != nil {
		return err
	}
	g, err := r.Grabbable(id)
	if err != nil {
		return err
	}

	r.mu.Lock()
	prev, hovering := r.hovers[h]
	if hovering && prev.target == id {
		r.mu.Unlock()
		return nil
	}
	r.hovers[h] = &hoverDwell{target: id, armed: r.dwellTime > 0}
	var prevG grab.Grabbable
	if hovering {
		prevG = r.grabbables[prev.target]
	}
	r.mu.Unlock()

	interactor := grab.Interactor{Kind: grab.InteractorRay, Hand: rh.hand}
	if prevG != nil {
		prevG.HoverExited(interactor)
	}
	g.HoverEntered(interactor)
	return nil
}

func (r *rig) Unhover(h pose.Handedness) error {
	rh, err := r.lookupHand(h)
	if err != nil {
		return err
	}
	r.mu.Lock()
	hv, ok := r.hovers[h]
	delete(r.hovers, h)
	var g grab.Grabbable
	if ok {
		g = r.grabbables[hv.target]
	}
	r.mu.Unlock()

	if g != nil {
		g.HoverExited(grab.Interactor{Kind: grab.InteractorRay, Hand: rh.hand})
	}
	return nil
}

func (r *rig) Hovered(h pose.Handedness) (uuid.UUID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	hv, ok := r.hovers[h]
	if !ok {
		return uuid.Nil, false
	}
	return hv.target, true
}

// advanceDwell steps every armed hover timer and grabs the objects whose dwell has elapsed.
func (r *rig) advanceDwell(deltaTime float32) {
	type dwellGrab struct {
		hand pose.Handedness
		id   uuid.UUID
	}
	var due []dwellGrab

	r.mu.Lock()
	for h, hv := range r.hovers {
		if hv.advance(deltaTime, r.dwellTime) {
			due = append(due, dwellGrab{hand: h, id: hv.target})
		}
	}
	r.mu.Unlock()

	for _, d := range due {
		if err := r.Grab(d.hand, d.id); err != nil {
			log.Printf("[Rig] %s hand dwell grab failed: %v", d.hand, err)
		}
	}
}

func (r *rig) Tick(deltaTime float32) {
	r.mu.RLock()
	hands := make([]*rigHand, 0, len(r.hands))
	for _, rh := range r.hands {
		hands = append(hands, rh)
	}
	shakers := make([]effect.Shaker, 0, len(r.shakers))
	for _, s := range r.shakers {
		shakers = append(shakers, s)
	}
	faders := make([]effect.Fader, 0, len(r.faders))
	for _, f := range r.faders {
		faders = append(faders, f)
	}
	r.mu.RUnlock()

	// The WaitGroup is the per-tick barrier; pool.Wait() only returns once workers go idle.
	var wg sync.WaitGroup
	for i, rh := range hands {
		wg.Add(1)
		r.tickPool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()
				rh.hand.Tick(deltaTime)
				rh.follower.Tick(deltaTime)
				return nil, nil
			},
		})
	}
	wg.Wait()

	r.advanceDwell(deltaTime)
	for _, s := range shakers {
		s.Tick(deltaTime)
	}
	for _, f := range faders {
		f.Tick(deltaTime)
	}
	r.ticks.Add(1)
}

func (r *rig) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st := Stats{
		Hands:      len(r.hands),
		Grabbables: len(r.grabbables),
		Held:       len(r.held),
		Hovering:   len(r.hovers),
		Ticks:      r.ticks.Load(),
	}
	for _, rh := range r.hands {
		if rh.hand.PoseState() == blender.StateTransitioning {
			st.ActiveTransitions++
		}
	}
	for _, s := range r.shakers {
		if s.Active() {
			st.ActiveEffects++
		}
	}
	for _, f := range r.faders {
		if f.Active() {
			st.ActiveEffects++
		}
	}
	return st
}

func (r *rig) Close() {
	r.tickPool.Stop()
}
