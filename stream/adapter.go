// Package stream implements the polymorphic stream adapter contract of
// spec.md §4.2: one variant per endpoint type, each pairing a core.Core
// with an endpoint-specific I/O worker.
package stream

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jangala-dev/logflux-relay/config"
	"github.com/jangala-dev/logflux-relay/core"
	"github.com/jangala-dev/logflux-relay/errcode"
)

// Adapter is the capability every stream variant implements
// (spec.md §4.2).
type Adapter interface {
	Start() error
	Stop() error
	Config() config.StreamConfig
	UUID() uuid.UUID
	AddOutput(sink core.Sink) error
	AddOutputs(sinks []core.Sink) error

	// ExternalInputSender hands out a fresh handle onto this stream's
	// external-input queue, for the engine's two-phase graph linking
	// (spec.md §4.4).
	ExternalInputSender() core.Sink
}

// base carries the fields and forwarding methods common to every variant.
// Embedding it gives each concrete adapter Config/UUID/AddOutput(s) for
// free; each variant supplies its own Start/Stop that layers I/O-worker
// lifecycle around base.core.
type base struct {
	cfg  config.StreamConfig
	tick time.Duration
	core *core.Core
	log  logrus.FieldLogger

	stopIO chan struct{}
	wgIO   sync.WaitGroup
}

func newBase(cfg config.StreamConfig, tick time.Duration, log logrus.FieldLogger) base {
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("stream", cfg.Name)
	return base{
		cfg:    cfg,
		tick:   tick,
		core:   core.New(cfg.Name, tick, 0, cfg.InputFilter, log),
		log:    log,
		stopIO: make(chan struct{}),
	}
}

func (b *base) Config() config.StreamConfig        { return b.cfg }
func (b *base) UUID() uuid.UUID                    { return b.cfg.UUID }
func (b *base) AddOutput(sink core.Sink) error     { return b.core.AddExternalOutput(sink) }
func (b *base) AddOutputs(sinks []core.Sink) error { return b.core.AddExternalOutputs(sinks) }
func (b *base) ExternalInputSender() core.Sink     { return b.core.ExternalInputSender() }

// startCore is the tail of every variant's Start(): once the I/O worker
// goroutine has been launched, hand control to the core. On failure the
// I/O worker that was just started is unwound before returning.
func (b *base) startCore() error {
	if err := b.core.Start(); err != nil {
		close(b.stopIO)
		b.wgIO.Wait()
		return err
	}
	return nil
}

// stopIOAndCore signals the I/O worker, joins it, then stops the core —
// the shared tail of every variant's Stop().
func (b *base) stopIOAndCore() error {
	close(b.stopIO)
	b.wgIO.Wait()
	if err := b.core.Stop(); err != nil {
		return &errcode.E{C: errcode.ShutdownFailure, Op: "stream.Stop", Err: err}
	}
	return nil
}
