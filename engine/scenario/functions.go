package scenario

import (
	"strings"

	"github.com/Carmen-Shannon/oxy-xr/common"
	"github.com/Carmen-Shannon/oxy-xr/engine/effect"
	"github.com/Carmen-Shannon/oxy-xr/engine/pose"
	"github.com/d5/tengo/v2"
)

// builtins returns the rig functions exposed to scripts as globals.
//
// Failures caused by the rig (unknown objects, bad poses) come back to the script as error
// values so it can test them with is_error; malformed calls abort the script.
func (s *scenario) builtins() map[string]*tengo.UserFunction {
	return map[string]*tengo.UserFunction{
		"grab":      {Name: "grab", Value: s.grabFn},
		"release":   {Name: "release", Value: s.releaseFn},
		"tick":      {Name: "tick", Value: s.tickFn},
		"pose":      {Name: "pose", Value: s.poseFn},
		"progress":  {Name: "progress", Value: s.progressFn},
		"held":      {Name: "held", Value: s.heldFn},
		"drop":      {Name: "drop", Value: s.dropFn},
		"hover":     {Name: "hover", Value: s.hoverFn},
		"unhover":   {Name: "unhover", Value: s.unhoverFn},
		"highlight": {Name: "highlight", Value: s.highlightFn},
		"shake":     {Name: "shake", Value: s.shakeFn},
		"fade":      {Name: "fade", Value: s.fadeFn},
		"log":       {Name: "log", Value: s.logFn},
	}
}

// grab(hand, object) grabs a grabbable by name.
func (s *scenario) grabFn(args ...tengo.Object) (tengo.Object, error) {
	if len(args) != 2 {
		return nil, tengo.ErrWrongNumArguments
	}
	h, err := handArg(args[0])
	if err != nil {
		return nil, err
	}
	name, err := stringArg("object", args[1])
	if err != nil {
		return nil, err
	}
	g, err := s.rig.GrabbableByName(name)
	if err != nil {
		return errorObject(err), nil
	}
	if err := s.rig.Grab(h, g.ID()); err != nil {
		return errorObject(err), nil
	}
	return tengo.TrueValue, nil
}

// release(hand, object) releases a grabbable by name.
func (s *scenario) releaseFn(args ...tengo.Object) (tengo.Object, error) {
	if len(args) != 2 {
		return nil, tengo.ErrWrongNumArguments
	}
	h, err := handArg(args[0])
	if err != nil {
		return nil, err
	}
	name, err := stringArg("object", args[1])
	if err != nil {
		return nil, err
	}
	g, err := s.rig.GrabbableByName(name)
	if err != nil {
		return errorObject(err), nil
	}
	if err := s.rig.Release(h, g.ID()); err != nil {
		return errorObject(err), nil
	}
	return tengo.TrueValue, nil
}

// tick(dt) advances the rig by dt seconds.
func (s *scenario) tickFn(args ...tengo.Object) (tengo.Object, error) {
	if len(args) != 1 {
		return nil, tengo.ErrWrongNumArguments
	}
	dt, err := floatArg("dt", args[0])
	if err != nil {
		return nil, err
	}
	s.rig.Tick(dt)
	s.mu.Lock()
	s.ticks++
	s.mu.Unlock()
	return tengo.UndefinedValue, nil
}

// pose(hand) returns the hand's live pose as a map.
func (s *scenario) poseFn(args ...tengo.Object) (tengo.Object, error) {
	if len(args) != 1 {
		return nil, tengo.ErrWrongNumArguments
	}
	h, err := handArg(args[0])
	if err != nil {
		return nil, err
	}
	hd, err := s.rig.Hand(h)
	if err != nil {
		return errorObject(err), nil
	}
	p := hd.Pose()

	joints := make([]tengo.Object, len(p.Joints))
	for i, j := range p.Joints {
		xyzw := common.QuatToXYZW(j)
		joints[i] = floatArray(xyzw[:]...)
	}
	rot := common.QuatToXYZW(p.RootRotation)
	return &tengo.ImmutableMap{Value: map[string]tengo.Object{
		"name":     &tengo.String{Value: p.Name},
		"position": floatArray(p.RootPosition[:]...),
		"rotation": floatArray(rot[:]...),
		"joints":   &tengo.ImmutableArray{Value: joints},
		"state":    &tengo.String{Value: hd.PoseState().String()},
		"progress": &tengo.Float{Value: float64(hd.PoseProgress())},
	}}, nil
}

// progress(hand) returns the hand's blend factor, 0 when idle.
func (s *scenario) progressFn(args ...tengo.Object) (tengo.Object, error) {
	if len(args) != 1 {
		return nil, tengo.ErrWrongNumArguments
	}
	h, err := handArg(args[0])
	if err != nil {
		return nil, err
	}
	hd, err := s.rig.Hand(h)
	if err != nil {
		return errorObject(err), nil
	}
	return &tengo.Float{Value: float64(hd.PoseProgress())}, nil
}

// held(hand) returns the name of the object the hand holds, or undefined.
func (s *scenario) heldFn(args ...tengo.Object) (tengo.Object, error) {
	if len(args) != 1 {
		return nil, tengo.ErrWrongNumArguments
	}
	h, err := handArg(args[0])
	if err != nil {
		return nil, err
	}
	id, ok := s.rig.Held(h)
	if !ok {
		return tengo.UndefinedValue, nil
	}
	g, err := s.rig.Grabbable(id)
	if err != nil {
		return tengo.UndefinedValue, nil
	}
	return &tengo.String{Value: g.Name()}, nil
}

// drop(object) releases an object from whichever hand or socket holds it.
func (s *scenario) dropFn(args ...tengo.Object) (tengo.Object, error) {
	if len(args) != 1 {
		return nil, tengo.ErrWrongNumArguments
	}
	name, err := stringArg("object", args[0])
	if err != nil {
		return nil, err
	}
	g, err := s.rig.GrabbableByName(name)
	if err != nil {
		return errorObject(err), nil
	}
	if err := s.rig.Drop(g.ID()); err != nil {
		return errorObject(err), nil
	}
	return tengo.TrueValue, nil
}

// hover(hand, object) points a hand at an object.
func (s *scenario) hoverFn(args ...tengo.Object) (tengo.Object, error) {
	if len(args) != 2 {
		return nil, tengo.ErrWrongNumArguments
	}
	h, err := handArg(args[0])
	if err != nil {
		return nil, err
	}
	name, err := stringArg("object", args[1])
	if err != nil {
		return nil, err
	}
	g, err := s.rig.GrabbableByName(name)
	if err != nil {
		return errorObject(err), nil
	}
	if err := s.rig.Hover(h, g.ID()); err != nil {
		return errorObject(err), nil
	}
	return tengo.TrueValue, nil
}

// unhover(hand) ends a hand's hover.
func (s *scenario) unhoverFn(args ...tengo.Object) (tengo.Object, error) {
	if len(args) != 1 {
		return nil, tengo.ErrWrongNumArguments
	}
	h, err := handArg(args[0])
	if err != nil {
		return nil, err
	}
	if err := s.rig.Unhover(h); err != nil {
		return errorObject(err), nil
	}
	return tengo.TrueValue, nil
}

// highlight(object) returns an object's outline as {width, color}.
func (s *scenario) highlightFn(args ...tengo.Object) (tengo.Object, error) {
	if len(args) != 1 {
		return nil, tengo.ErrWrongNumArguments
	}
	name, err := stringArg("object", args[0])
	if err != nil {
		return nil, err
	}
	g, err := s.rig.GrabbableByName(name)
	if err != nil {
		return errorObject(err), nil
	}
	hl := g.Highlight()
	return &tengo.ImmutableMap{Value: map[string]tengo.Object{
		"width": &tengo.Float{Value: float64(hl.Width)},
		"color": floatArray(hl.Color[:]...),
	}}, nil
}

// shake(name) starts or restarts a shaker.
func (s *scenario) shakeFn(args ...tengo.Object) (tengo.Object, error) {
	if len(args) != 1 {
		return nil, tengo.ErrWrongNumArguments
	}
	name, err := stringArg("name", args[0])
	if err != nil {
		return nil, err
	}
	sh, err := s.rig.Shaker(name)
	if err != nil {
		return errorObject(err), nil
	}
	sh.Shake()
	return tengo.TrueValue, nil
}

// fade(name, dir[, seconds]) starts a fade "in" or "out".
func (s *scenario) fadeFn(args ...tengo.Object) (tengo.Object, error) {
	if len(args) < 2 || len(args) > 3 {
		return nil, tengo.ErrWrongNumArguments
	}
	name, err := stringArg("name", args[0])
	if err != nil {
		return nil, err
	}
	dirName, err := stringArg("dir", args[1])
	if err != nil {
		return nil, err
	}
	dir, err := effect.ParseFadeDirection(dirName)
	if err != nil {
		return nil, tengo.ErrInvalidArgumentType{Name: "dir", Expected: "in|out", Found: dirName}
	}
	seconds := s.fadeDuration
	if len(args) == 3 {
		if seconds, err = floatArg("seconds", args[2]); err != nil {
			return nil, err
		}
	}
	f, err := s.rig.Fader(name)
	if err != nil {
		return errorObject(err), nil
	}
	f.Fade(dir, seconds)
	return tengo.TrueValue, nil
}

// log(args...) writes its arguments, space separated, to the scenario log.
func (s *scenario) logFn(args ...tengo.Object) (tengo.Object, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		str, ok := tengo.ToString(a)
		if !ok {
			str = a.String()
		}
		parts[i] = str
	}
	s.logf("[Scenario] %s: %s", s.name, strings.Join(parts, " "))
	return tengo.UndefinedValue, nil
}

func handArg(o tengo.Object) (pose.Handedness, error) {
	str, ok := tengo.ToString(o)
	if !ok {
		return 0, tengo.ErrInvalidArgumentType{Name: "hand", Expected: "string", Found: o.TypeName()}
	}
	h, err := pose.ParseHandedness(str)
	if err != nil {
		return 0, tengo.ErrInvalidArgumentType{Name: "hand", Expected: "left|right", Found: str}
	}
	return h, nil
}

func stringArg(name string, o tengo.Object) (string, error) {
	if str, ok := o.(*tengo.String); ok {
		return str.Value, nil
	}
	return "", tengo.ErrInvalidArgumentType{Name: name, Expected: "string", Found: o.TypeName()}
}

func floatArg(name string, o tengo.Object) (float32, error) {
	f, ok := tengo.ToFloat64(o)
	if !ok {
		return 0, tengo.ErrInvalidArgumentType{Name: name, Expected: "float", Found: o.TypeName()}
	}
	return float32(f), nil
}

func floatArray(values ...float32) tengo.Object {
	out := make([]tengo.Object, len(values))
	for i, v := range values {
		out[i] = &tengo.Float{Value: float64(v)}
	}
	return &tengo.ImmutableArray{Value: out}
}

func errorObject(err error) tengo.Object {
	return &tengo.Error{Value: &tengo.String{Value: err.Error()}}
}
