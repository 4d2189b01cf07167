// Package engine owns the set of streams in a relay, validates the graph
// they form, wires their output edges, and orchestrates their lifecycle
// (spec.md §4.4).
package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jangala-dev/logflux-relay/config"
	"github.com/jangala-dev/logflux-relay/core"
	"github.com/jangala-dev/logflux-relay/errcode"
	"github.com/jangala-dev/logflux-relay/stream"
)

// Engine owns the streams of a single relay instance.
type Engine struct {
	tick time.Duration
	log  logrus.FieldLogger

	order   []uuid.UUID
	streams map[uuid.UUID]stream.Adapter
}

// New builds an empty engine. tick <= 0 defaults to 10ms (spec.md §5).
func New(tick time.Duration, log logrus.FieldLogger) *Engine {
	if tick <= 0 {
		tick = 10 * time.Millisecond
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Engine{
		tick:    tick,
		log:     log,
		streams: make(map[uuid.UUID]stream.Adapter),
	}
}

// FromConfig builds and adds every stream in cfg.
func FromConfig(cfg *config.EngineConfig, log logrus.FieldLogger) (*Engine, error) {
	e := New(cfg.Tick(), log)
	for _, sc := range cfg.StreamConfigs {
		if err := e.AddStream(sc); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// AddStream constructs the adapter variant named by cfg's type tag and
// stores it (spec.md §4.4). Fails with Unsupported if the tag has no
// registered adapter.
func (e *Engine) AddStream(cfg config.StreamConfig) error {
	a, err := stream.New(cfg, e.tick, e.log)
	if err != nil {
		return err
	}
	e.order = append(e.order, cfg.UUID)
	e.streams[cfg.UUID] = a
	e.log.WithField("stream", cfg.Name).WithField("uuid", cfg.UUID).Info("engine: stream added")
	return nil
}

// Initialise validates the graph then wires output edges in two phases
// (spec.md §4.4): Phase A collects sink handles read-only across all
// streams; Phase B appends them to each stream's core. Splitting the walk
// this way avoids overlapping mutable/immutable access to the same
// collection within a single pass.
func (e *Engine) Initialise() error {
	if err := e.checkUniqueness(); err != nil {
		return err
	}
	if err := e.checkReferences(); err != nil {
		return err
	}

	type linkage struct {
		from  uuid.UUID
		sinks []core.Sink
	}
	var links []linkage

	// Phase A: walk all streams read-only, collecting a fresh
	// external-input sender from each downstream peer.
	for _, id := range e.order {
		a := e.streams[id]
		var sinks []core.Sink
		for _, downstream := range a.Config().OutputStreams {
			peer := e.streams[downstream]
			sinks = append(sinks, peer.ExternalInputSender())
		}
		links = append(links, linkage{from: id, sinks: sinks})
	}

	// Phase B: mutate.
	for _, l := range links {
		if len(l.sinks) == 0 {
			continue
		}
		if err := e.streams[l.from].AddOutputs(l.sinks); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) checkUniqueness() error {
	seen := make(map[uuid.UUID]bool, len(e.order))
	for _, id := range e.order {
		if seen[id] {
			return &errcode.E{C: errcode.DuplicateIdentity, Op: "engine.Initialise", Msg: id.String()}
		}
		seen[id] = true
	}
	return nil
}

func (e *Engine) checkReferences() error {
	for _, id := range e.order {
		a := e.streams[id]
		for _, downstream := range a.Config().OutputStreams {
			if _, ok := e.streams[downstream]; !ok {
				return &errcode.E{C: errcode.DanglingEdge, Op: "engine.Initialise", Msg: fmt.Sprintf("%s -> %s", id, downstream)}
			}
		}
	}
	return nil
}

// Start starts every stream in insertion order, stopping and returning on
// the first failure. Streams already started remain running; the caller
// is expected to call Stop to clean up (spec.md §4.4).
func (e *Engine) Start() error {
	for _, id := range e.order {
		a := e.streams[id]
		if err := a.Start(); err != nil {
			e.log.WithField("uuid", id).WithError(err).Error("engine: stream failed to start")
			return err
		}
		e.log.WithField("stream", a.Config().Name).Info("engine: stream started")
	}
	return nil
}

// Stop stops every stream in insertion order, collecting but not
// aborting on errors, and returns the first one encountered.
func (e *Engine) Stop() error {
	var first error
	for _, id := range e.order {
		a := e.streams[id]
		if err := a.Stop(); err != nil {
			e.log.WithField("uuid", id).WithError(err).Error("engine: stream failed to stop cleanly")
			if first == nil {
				first = err
			}
			continue
		}
		e.log.WithField("stream", a.Config().Name).Info("engine: stream stopped")
	}
	return first
}
