package physics

import (
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"citysim/internal/config"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// contactPair identifies a touching pair, smaller ID first.
type contactPair struct {
	A, B BodyID
}

func makePair(a, b *Body) contactPair {
	if a.ID > b.ID {
		return contactPair{A: b.ID, B: a.ID}
	}
	return contactPair{A: a.ID, B: b.ID}
}

// Stats is a snapshot of the world taken at the end of the last tick.
type Stats struct {
	Ticks      uint64
	Statics    int
	Dynamics   int
	Cells      int
	Collisions int
	LastTick   time.Duration
}

// Option customizes a World.
type Option func(*World)

// WithGround replaces the flat ground at height 0.
func WithGround(fn GroundFunc) Option {
	return func(w *World) {
		if fn != nil {
			w.ground = fn
		}
	}
}

// WithMetrics attaches prometheus collectors.
func WithMetrics(m *Metrics) Option {
	return func(w *World) { w.metrics = m }
}

// WithLogger replaces log.Default().
func WithLogger(l *log.Logger) Option {
	return func(w *World) {
		if l != nil {
			w.logger = l
		}
	}
}

// World owns every body, the broad-phase grid and the tick loop.
//
// World is not safe for concurrent use; Stats may be called from any goroutine.
type World struct {
	cfg     config.Physics
	grid    *Grid
	ground  GroundFunc
	metrics *Metrics
	logger  *log.Logger

	bodies   map[BodyID]*Body
	dynamics []*Body // dynamic bodies, registration order
	statics  []*Body // static bodies, registration order
	nextID   BodyID

	// Collision tracking for callbacks
	activeCollisions  map[contactPair]bool // collisions from last tick
	currentCollisions map[contactPair]bool // collisions this tick
	tickCollisions    int
	pairs             []contactPair // dispatch scratch

	scratch []*Body

	// horizontal reach and top of the largest static, for raycast broad phase
	staticReach float32
	staticTop   float32

	slowLog *rate.Limiter
	nanLog  *rate.Limiter

	statsMu sync.Mutex
	stats   Stats
}

// NewWorld validates cfg and returns an empty world.
func NewWorld(cfg config.Physics, opts ...Option) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("physics: %w", err)
	}
	w := &World{
		cfg:               cfg,
		grid:              NewGrid(cfg.GridSize, cfg.MultiCell),
		ground:            FlatGround(0),
		logger:            log.Default(),
		bodies:            make(map[BodyID]*Body),
		activeCollisions:  make(map[contactPair]bool),
		currentCollisions: make(map[contactPair]bool),
		slowLog:           rate.NewLimiter(rate.Every(5*time.Second), 1),
		nanLog:            rate.NewLimiter(rate.Every(time.Second), 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger.Printf("Physics: world ready (grid %.1fm, multi-cell %v, workers %d, gravity %.1f)",
		cfg.GridSize, cfg.MultiCell, cfg.Workers, cfg.Gravity)
	return w, nil
}

// Config returns the tuning the world was built with.
func (w *World) Config() config.Physics {
	return w.cfg
}

// Grid exposes the broad phase for read-only queries.
func (w *World) Grid() *Grid {
	return w.grid
}

// AddBody registers a dynamic body.
func (w *World) AddBody(def BodyDef) (*Body, error) {
	return w.addBody(def, false)
}

// AddStaticBody registers an immovable obstacle. Its position never changes
// until it is removed.
func (w *World) AddStaticBody(def BodyDef) (*Body, error) {
	return w.addBody(def, true)
}

func (w *World) addBody(def BodyDef, static bool) (*Body, error) {
	if err := def.Collider.Validate(); err != nil {
		w.metrics.rejected()
		return nil, fmt.Errorf("add body %q: %w", def.Tag, err)
	}
	if !finite(def.Position) || !finite(def.Velocity) {
		w.metrics.rejected()
		return nil, fmt.Errorf("add body %q: position and velocity must be finite", def.Tag)
	}

	w.nextID++
	b := &Body{
		ID:          w.nextID,
		Tag:         def.Tag,
		Position:    def.Position,
		Velocity:    def.Velocity,
		Mass:        def.Mass,
		Friction:    fillUnit(def.Friction, w.cfg.DefaultFriction),
		Restitution: fillUnit(def.Restitution, w.cfg.DefaultRestitution),
		Collider:    def.Collider,
		IsStatic:    static,
		UseGravity:  !def.DisableGravity,
		Handler:     def.Handler,
	}
	if !(b.Mass > 0) {
		b.Mass = 1
	}
	if static {
		b.Velocity = rl.Vector3{}
		b.UseGravity = false
		w.statics = append(w.statics, b)
		w.trackStaticExtent(b)
	} else {
		w.dynamics = append(w.dynamics, b)
	}
	b.tentative = b.Position
	w.bodies[b.ID] = b
	w.grid.Insert(b)
	w.metrics.setPopulation(len(w.statics), len(w.dynamics), w.grid.CellCount())
	return b, nil
}

// fillUnit applies the zero-means-default rule and clamps into [0,1].
func fillUnit(v, fallback float32) float32 {
	if v == 0 {
		v = fallback
	}
	return clamp(v, 0, 1)
}

func (w *World) trackStaticExtent(b *Body) {
	half := b.Collider.BoxHalfExtents()
	if reach := max(half.X, half.Z); reach > w.staticReach {
		w.staticReach = reach
	}
	if top := b.Position.Y + half.Y; top > w.staticTop {
		w.staticTop = top
	}
}

// RemoveBody unregisters b. Removing a body twice, or one that belongs to
// another world, is a no-op.
func (w *World) RemoveBody(b *Body) {
	if b == nil || w.bodies[b.ID] != b {
		return
	}
	w.grid.Remove(b)
	delete(w.bodies, b.ID)
	if b.IsStatic {
		w.statics = removeOrdered(w.statics, b)
	} else {
		w.dynamics = removeOrdered(w.dynamics, b)
	}
	for pair := range w.activeCollisions {
		if pair.A == b.ID || pair.B == b.ID {
			delete(w.activeCollisions, pair)
		}
	}
	for pair := range w.currentCollisions {
		if pair.A == b.ID || pair.B == b.ID {
			delete(w.currentCollisions, pair)
		}
	}
	w.metrics.setPopulation(len(w.statics), len(w.dynamics), w.grid.CellCount())
}

func removeOrdered(list []*Body, b *Body) []*Body {
	for i, other := range list {
		if other == b {
			copy(list[i:], list[i+1:])
			list[len(list)-1] = nil
			return list[:len(list)-1]
		}
	}
	return list
}

// Body looks up a registered body.
func (w *World) Body(id BodyID) (*Body, bool) {
	b, ok := w.bodies[id]
	return b, ok
}

// Bodies returns every registered body ordered by ID.
func (w *World) Bodies() []*Body {
	out := make([]*Body, 0, len(w.bodies))
	out = append(out, w.statics...)
	out = append(out, w.dynamics...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Dynamics returns the dynamic bodies in registration order. The slice is
// owned by the world.
func (w *World) Dynamics() []*Body {
	return w.dynamics
}

// Statics returns the static bodies in registration order. The slice is owned
// by the world.
func (w *World) Statics() []*Body {
	return w.statics
}

// SetPosition moves a dynamic body outside the tick (spawn, respawn) and keeps
// the grid in step. Static bodies are immutable; false is returned for them
// and for unregistered bodies.
func (w *World) SetPosition(b *Body, p rl.Vector3) bool {
	if b == nil || b.IsStatic || w.bodies[b.ID] != b || !finite(p) {
		return false
	}
	b.Position = p
	b.tentative = p
	w.grid.Resync(b)
	return true
}

// SetVelocity replaces the velocity of a dynamic body.
func (w *World) SetVelocity(b *Body, v rl.Vector3) bool {
	if b == nil || b.IsStatic || w.bodies[b.ID] != b || !finite(v) {
		return false
	}
	b.Velocity = v
	return true
}

// ApplyForce accumulates f/mass into the body's acceleration for the next tick.
func (w *World) ApplyForce(b *Body, f rl.Vector3) {
	if b == nil || b.IsStatic || w.bodies[b.ID] != b || !finite(f) {
		return
	}
	b.Acceleration = rl.Vector3Add(b.Acceleration, rl.Vector3Scale(f, 1/b.Mass))
}

// ApplyImpulse changes the body's velocity by j/mass immediately.
func (w *World) ApplyImpulse(b *Body, j rl.Vector3) {
	if b == nil || b.IsStatic || w.bodies[b.ID] != b || !finite(j) {
		return
	}
	b.Velocity = rl.Vector3Add(b.Velocity, rl.Vector3Scale(j, 1/b.Mass))
}

// Query returns bodies near p, see Grid.Query.
func (w *World) Query(p rl.Vector3, radius float32) []*Body {
	return w.grid.Query(p, radius)
}

// Stats returns the snapshot taken at the end of the last Update.
func (w *World) Stats() Stats {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	return w.stats
}

// Update advances the simulation by dt seconds. dt is clamped to MaxDelta;
// non-positive values do nothing.
//
// Integration of every dynamic body completes before any resolution starts,
// and every body resolves against the committed positions of the previous
// tick and the integrated velocities of this one, so the outcome does not
// depend on body order.
func (w *World) Update(dt float32) {
	if !(dt > 0) {
		return
	}
	if dt > w.cfg.MaxDelta {
		dt = w.cfg.MaxDelta
	}
	start := time.Now()
	clear(w.currentCollisions)
	w.tickCollisions = 0

	// 1. Gravity, forces, friction, tentative position, ground snap
	w.integrateAll(dt)

	// 2. Static and dynamic collision correction
	for _, b := range w.dynamics {
		w.resolve(b)
	}

	// 3. Commit and keep the grid in step
	for _, b := range w.dynamics {
		w.commit(b)
	}

	// 4. Dispatch collision callbacks
	w.dispatchCollisionCallbacks()

	elapsed := time.Since(start)
	w.metrics.observeTick(elapsed, w.tickCollisions)
	w.metrics.setPopulation(len(w.statics), len(w.dynamics), w.grid.CellCount())

	w.statsMu.Lock()
	w.stats.Ticks++
	w.stats.Statics = len(w.statics)
	w.stats.Dynamics = len(w.dynamics)
	w.stats.Cells = w.grid.CellCount()
	w.stats.Collisions = w.tickCollisions
	w.stats.LastTick = elapsed
	w.statsMu.Unlock()

	if elapsed > w.cfg.TickBudget && w.slowLog.Allow() {
		w.logger.Printf("Physics: slow tick %v (budget %v, %d dynamic, %d static)",
			elapsed, w.cfg.TickBudget, len(w.dynamics), len(w.statics))
	}
}

func (w *World) commit(b *Body) {
	if !finite(b.tentative) || !finite(b.Velocity) {
		if w.nanLog.Allow() {
			w.logger.Printf("Physics: body %d (%s) produced a non-finite state, restoring %v",
				b.ID, b.Tag, b.Position)
		}
		b.tentative = b.Position
		b.Velocity = rl.Vector3{}
	}
	b.Position = b.tentative
	b.Acceleration = rl.Vector3{}
	w.grid.Resync(b)
}

// recordCollision marks a pair as touching this tick.
func (w *World) recordCollision(a, b *Body) {
	w.currentCollisions[makePair(a, b)] = true
	w.tickCollisions++
}

// dispatchCollisionCallbacks sends OnCollisionEnter/Exit to handlers. Enters
// go out before exits, each in pair order.
func (w *World) dispatchCollisionCallbacks() {
	// Find new collisions (enter)
	w.pairs = w.pairs[:0]
	for pair := range w.currentCollisions {
		if !w.activeCollisions[pair] {
			w.pairs = append(w.pairs, pair)
		}
	}
	w.notifyAll(true)

	// Find ended collisions (exit)
	w.pairs = w.pairs[:0]
	for pair := range w.activeCollisions {
		if !w.currentCollisions[pair] {
			w.pairs = append(w.pairs, pair)
		}
	}
	w.notifyAll(false)

	// Swap buffers
	w.activeCollisions, w.currentCollisions = w.currentCollisions, w.activeCollisions
}

func (w *World) notifyAll(enter bool) {
	sort.Slice(w.pairs, func(i, j int) bool {
		if w.pairs[i].A != w.pairs[j].A {
			return w.pairs[i].A < w.pairs[j].A
		}
		return w.pairs[i].B < w.pairs[j].B
	})
	for _, pair := range w.pairs {
		w.notify(pair, enter)
	}
}

func (w *World) notify(pair contactPair, enter bool) {
	a, okA := w.bodies[pair.A]
	b, okB := w.bodies[pair.B]
	if !okA || !okB {
		return
	}
	for _, self := range [2]*Body{a, b} {
		other := b
		if self == b {
			other = a
		}
		if self.Handler == nil {
			continue
		}
		if enter {
			self.Handler.OnCollisionEnter(self, other)
		} else {
			self.Handler.OnCollisionExit(self, other)
		}
	}
}

// Touching reports whether a and b were in contact during the last tick.
func (w *World) Touching(a, b *Body) bool {
	if a == nil || b == nil {
		return false
	}
	return w.activeCollisions[makePair(a, b)]
}
