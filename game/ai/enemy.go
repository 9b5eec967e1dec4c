package ai

import "math"

// State enumerates the high-level behavior states of an enemy.
type State int

const (
	StateIdle State = iota
	StatePatrol
	StateChase
	StateAttack
	StateStunned
)

var stateNames = map[State]string{
	StateIdle:    "idle",
	StatePatrol:  "patrol",
	StateChase:   "chase",
	StateAttack:  "attack",
	StateStunned: "stunned",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

// Vec2 is a planar position or direction.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

// Len returns the euclidean length.
func (v Vec2) Len() float64 { return math.Hypot(v.X, v.Y) }

// Normalized returns the unit vector, or the zero vector for zero length.
func (v Vec2) Normalized() Vec2 {
	l := v.Len()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{v.X / l, v.Y / l}
}

// Config holds the tunable parameters of one enemy archetype. Radii and
// timings are content, not code.
type Config struct {
	DetectionRange float64 `json:"detection_range"`
	AttackRange    float64 `json:"attack_range"`
	AttackCooldown float64 `json:"attack_cooldown"` // seconds between attacks
	WaypointWait   float64 `json:"waypoint_wait"`   // pause at each waypoint, seconds
	WaypointRadius float64 `json:"waypoint_radius"` // "reached" threshold
	Waypoints      []Vec2  `json:"waypoints"`
	Flying         bool    `json:"flying"`
}

// Input is the per-tick sensory snapshot supplied by the host. The host
// owns positions and physics; the FSM only compares distances.
type Input struct {
	Self      Vec2
	Target    Vec2
	HasTarget bool
	Grounded  bool
}

// Decision is the outcome of one tick: the state after transitions, the
// desired unit movement direction, and whether an attack fired.
type Decision struct {
	State    State
	Move     Vec2
	Attacked bool
}

// Enemy is the behavior state machine for one actor. It holds no position
// of its own; the host feeds positions in and applies movement out.
type Enemy struct {
	cfg Config

	state         State
	waypointIdx   int
	waitTimer     float64
	cooldownTimer float64
	stunTimer     float64
}

// NewEnemy creates an enemy in its initial state: Patrol when waypoints
// are configured, Idle otherwise. A patrol archetype without waypoints
// degrades to Idle rather than failing.
func NewEnemy(cfg Config) *Enemy {
	if cfg.WaypointRadius <= 0 {
		cfg.WaypointRadius = 0.25
	}
	e := &Enemy{cfg: cfg, state: StateIdle}
	if len(cfg.Waypoints) > 0 {
		e.state = StatePatrol
	}
	return e
}

// State returns the current behavior state.
func (e *Enemy) State() State { return e.state }

// Stun forces the Stunned state for the given duration in seconds. Any
// pending attack cooldown keeps counting; the wait timer is discarded.
func (e *Enemy) Stun(duration float64) {
	if duration <= 0 {
		return
	}
	e.state = StateStunned
	e.stunTimer = duration
	e.waitTimer = 0
}

// Tick advances the machine by dt seconds. Transitions are evaluated
// before movement is derived, so the returned Move always reflects the
// post-transition state.
func (e *Enemy) Tick(dt float64, in Input) Decision {
	if dt < 0 {
		dt = 0
	}
	if e.cooldownTimer > 0 {
		e.cooldownTimer -= dt
	}

	e.transition(dt, in)

	d := Decision{State: e.state}
	switch e.state {
	case StatePatrol:
		d.Move = e.cfg.Waypoints[e.waypointIdx].Sub(in.Self).Normalized()
	case StateChase:
		d.Move = in.Target.Sub(in.Self).Normalized()
	case StateAttack:
		if e.cooldownTimer <= 0 {
			d.Attacked = true
			e.cooldownTimer = e.cfg.AttackCooldown
		}
	}

	// Ground-bound actors do not move horizontally while airborne.
	if !e.cfg.Flying && !in.Grounded {
		d.Move = Vec2{}
	}
	return d
}

func (e *Enemy) transition(dt float64, in Input) {
	targetDist := math.Inf(1)
	if in.HasTarget {
		targetDist = in.Target.Sub(in.Self).Len()
	}

	switch e.state {
	case StateIdle:
		if targetDist <= e.cfg.DetectionRange {
			e.state = StateChase
		}

	case StatePatrol:
		if targetDist <= e.cfg.DetectionRange {
			e.state = StateChase
			return
		}
		wp := e.cfg.Waypoints[e.waypointIdx]
		if wp.Sub(in.Self).Len() <= e.cfg.WaypointRadius {
			e.waitTimer += dt
			if e.waitTimer >= e.cfg.WaypointWait {
				e.waitTimer = 0
				e.waypointIdx = (e.waypointIdx + 1) % len(e.cfg.Waypoints)
			}
		} else {
			e.waitTimer = 0
		}

	case StateChase:
		if targetDist > e.cfg.DetectionRange {
			e.state = e.restState()
		} else if targetDist <= e.cfg.AttackRange {
			e.state = StateAttack
		}

	case StateAttack:
		if targetDist > e.cfg.AttackRange {
			e.state = StateChase
		}

	case StateStunned:
		e.stunTimer -= dt
		if e.stunTimer <= 0 {
			e.stunTimer = 0
			e.state = StateIdle
		}
	}
}

// restState is where the enemy settles when it loses its target.
func (e *Enemy) restState() State {
	if len(e.cfg.Waypoints) > 0 {
		return StatePatrol
	}
	return StateIdle
}
