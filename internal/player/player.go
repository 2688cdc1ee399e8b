// Package player drives generator instances frame by frame. Each frame runs
// queued timeline edits, resolves the active clips and updates their
// generators, always on the calling goroutine.
package player

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ivlev/demoseq/internal/logging"
	"github.com/ivlev/demoseq/internal/property"
	"github.com/ivlev/demoseq/internal/resolve"
	"github.com/ivlev/demoseq/internal/schema"
	"github.com/ivlev/demoseq/internal/timeline"
)

// ErrInvalidRange is returned by Run for an empty or negative frame range.
var ErrInvalidRange = errors.New("player: invalid frame range")

// Mutation is a timeline edit applied at the start of the next frame.
type Mutation func(tl *timeline.Timeline) error

type instance struct {
	schema     *schema.Schema
	gen        schema.Generator
	checkedOut bool
}

// Stats summarises a Run.
type Stats struct {
	Frames        int
	Updates       int
	PeakInstances int
	Elapsed       time.Duration
}

// FPS returns the effective playback rate.
func (s Stats) FPS() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.Frames) / s.Elapsed.Seconds()
}

// Player owns one generator instance per generator clip it has seen active.
type Player struct {
	tl        *timeline.Timeline
	instances map[property.ClipID]*instance
	pending   []Mutation
	stats     Stats
}

// New creates a player for tl.
func New(tl *timeline.Timeline) *Player {
	return &Player{
		tl:        tl,
		instances: make(map[property.ClipID]*instance),
	}
}

// Timeline returns the played timeline.
func (p *Player) Timeline() *timeline.Timeline {
	return p.tl
}

// Queue schedules m for the start of the next Step.
func (p *Player) Queue(m Mutation) {
	p.pending = append(p.pending, m)
}

// Instances returns the number of live generator instances.
func (p *Player) Instances() int {
	return len(p.instances)
}

// Step advances to frame and returns the resolved clips. Failed mutations
// are logged and skipped.
func (p *Player) Step(frame int) *resolve.ActiveClipMap {
	log := logging.Logger()

	for _, m := range p.pending {
		if err := m(p.tl); err != nil {
			log.Warn("timeline edit failed", "frame", frame, "error", err)
		}
	}
	p.pending = p.pending[:0]

	active := resolve.Resolve(p.tl, frame)
	p.sync(active)

	for _, a := range active.All() {
		in := p.checkout(a.ID)
		in.gen.Update(a.LocalTime, a.Values())
		p.checkin(a.ID, in)
		p.stats.Updates++
	}

	p.stats.Frames++
	if n := len(p.instances); n > p.stats.PeakInstances {
		p.stats.PeakInstances = n
	}
	return active
}

// With lends the generator of clip id to fn. It reports false when the clip
// has no instance.
func (p *Player) With(id property.ClipID, fn func(schema.Generator)) bool {
	if _, ok := p.instances[id]; !ok {
		return false
	}
	in := p.checkout(id)
	defer p.checkin(id, in)
	fn(in.gen)
	return true
}

// Run steps through [from, to) and calls each after every frame. It stops
// early when ctx is done or each fails.
func (p *Player) Run(ctx context.Context, from, to int, each func(frame int, active *resolve.ActiveClipMap) error) (Stats, error) {
	if from < 0 || to <= from {
		return Stats{}, fmt.Errorf("%w: [%d, %d)", ErrInvalidRange, from, to)
	}

	p.stats = Stats{}
	start := time.Now()

	logging.Logger().Debug("playback started", "from", from, "to", to)
	for frame := from; frame < to; frame++ {
		if err := ctx.Err(); err != nil {
			return p.finish(start), err
		}
		active := p.Step(frame)
		if each == nil {
			continue
		}
		if err := each(frame, active); err != nil {
			return p.finish(start), fmt.Errorf("player: frame %d: %w", frame, err)
		}
	}

	stats := p.finish(start)
	logging.Logger().Debug("playback finished", "frames", stats.Frames, "elapsed", stats.Elapsed)
	return stats, nil
}

func (p *Player) finish(start time.Time) Stats {
	p.stats.Elapsed = time.Since(start)
	return p.stats
}

// sync creates instances for newly active clips and drops those whose clip
// left the timeline or changed schema.
func (p *Player) sync(active *resolve.ActiveClipMap) {
	log := logging.Logger()

	for _, a := range active.All() {
		in, ok := p.instances[a.ID]
		if ok && in.schema == a.Schema {
			continue
		}
		if ok && in.checkedOut {
			panic(fmt.Sprintf("player: replacing checked out generator of clip %d", a.ID))
		}
		p.instances[a.ID] = &instance{schema: a.Schema, gen: a.Schema.New()}
		log.Debug("generator created", "clip", a.ID, "schema", a.Schema.Name)
	}

	if len(p.instances) == active.Len() {
		return
	}
	for id, in := range p.instances {
		if _, ok := active.Get(id); ok {
			continue
		}
		pl, ok := p.tl.Find(id)
		if ok && pl.Clip.Schema == in.schema {
			continue
		}
		delete(p.instances, id)
		log.Debug("generator dropped", "clip", id)
	}
}

func (p *Player) checkout(id property.ClipID) *instance {
	in := p.instances[id]
	if in.checkedOut {
		panic(fmt.Sprintf("player: generator of clip %d already checked out", id))
	}
	in.checkedOut = true
	return in
}

func (p *Player) checkin(id property.ClipID, in *instance) {
	if !in.checkedOut {
		panic(fmt.Sprintf("player: generator of clip %d was not checked out", id))
	}
	in.checkedOut = false
}
