// Package core implements the per-stream routing substrate described in
// spec.md §4.1: two input queues, a fan-out sink list, a routing worker
// and a small state machine. It owns no endpoint I/O — that is the
// adapter's job (package stream).
//
// The non-blocking, try-send-or-drop delivery idiom below is grounded on
// the teacher's bus package (bus.trySend/bus.tryDeliver): a full sink
// queue means a slow or stopped peer, and delivery to every other sink
// must still proceed.
package core

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jangala-dev/logflux-relay/errcode"
	"github.com/jangala-dev/logflux-relay/filter"
	"github.com/jangala-dev/logflux-relay/message"
)

const defaultQueueLen = 64

// State is the stream core's lifecycle state machine (spec.md §3).
type State int32

const (
	StateInitialised State = iota
	StateStarted
	StatePaused
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateInitialised:
		return "initialised"
	case StateStarted:
		return "started"
	case StatePaused:
		return "paused"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Sink is a handle onto some peer stream's external-input queue.
type Sink = chan<- message.Message

// Core is the per-stream routing substrate.
type Core struct {
	name string
	tick time.Duration
	flt  filter.Filter
	log  logrus.FieldLogger

	extIn  chan message.Message
	intIn  chan message.Message
	intOut chan message.Message

	intOutTaken atomic.Bool

	sinksMu sync.Mutex
	sinks   []Sink
	frozen  bool

	state  atomic.Int32
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New allocates a core's queues and empty sink list. State = Initialised.
// queueLen <= 0 falls back to a sane default, mirroring bus.NewBus's
// handling of a non-positive queue length.
func New(name string, tick time.Duration, queueLen int, flt filter.Filter, log logrus.FieldLogger) *Core {
	if queueLen <= 0 {
		queueLen = defaultQueueLen
	}
	if tick <= 0 {
		tick = 10 * time.Millisecond
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Core{
		name:   name,
		tick:   tick,
		flt:    flt,
		log:    log,
		extIn:  make(chan message.Message, queueLen),
		intIn:  make(chan message.Message, queueLen),
		intOut: make(chan message.Message, queueLen),
		stopCh: make(chan struct{}),
	}
}

// State returns the core's current lifecycle state.
func (c *Core) State() State { return State(c.state.Load()) }

// ExternalInputSender returns a handle peers use to enqueue messages onto
// this core. Safe to hand to any number of peers; callable in any state.
func (c *Core) ExternalInputSender() Sink { return c.extIn }

// InternalInputSender returns the handle the owning adapter uses to
// publish self-originated messages. Callable in any state.
func (c *Core) InternalInputSender() Sink { return c.intIn }

// InternalOutputReceiver yields the consumer endpoint of the
// internal-output queue to the adapter. Callable exactly once.
func (c *Core) InternalOutputReceiver() (<-chan message.Message, error) {
	if !c.intOutTaken.CompareAndSwap(false, true) {
		return nil, &errcode.E{C: errcode.LifecycleViolation, Op: "core.InternalOutputReceiver", Msg: "already taken"}
	}
	return c.intOut, nil
}

// AddExternalOutput appends a single sink. Fails once the core has
// started, since the sink list is consumed at that point.
func (c *Core) AddExternalOutput(sink Sink) error {
	return c.AddExternalOutputs([]Sink{sink})
}

// AddExternalOutputs appends sinks in order. Append-only during
// Initialised; fails afterwards (spec.md §3 invariants).
func (c *Core) AddExternalOutputs(sinks []Sink) error {
	c.sinksMu.Lock()
	defer c.sinksMu.Unlock()
	if c.frozen {
		return &errcode.E{C: errcode.LifecycleViolation, Op: "core.AddExternalOutputs", Msg: "sink list frozen after start"}
	}
	c.sinks = append(c.sinks, sinks...)
	return nil
}

// Start transitions Initialised -> Started: freezes the sink list, takes
// ownership of the drain side of both input queues, and spawns the
// routing worker.
func (c *Core) Start() error {
	if !c.state.CompareAndSwap(int32(StateInitialised), int32(StateStarted)) {
		return &errcode.E{C: errcode.LifecycleViolation, Op: "core.Start", Msg: "not in initialised state"}
	}

	c.sinksMu.Lock()
	c.frozen = true
	sinks := append([]Sink(nil), c.sinks...)
	c.sinksMu.Unlock()

	c.wg.Add(1)
	go c.routingLoop(sinks)
	return nil
}

// Stop signals the routing worker to exit at the next cycle boundary and
// joins it. Returns a LifecycleViolation if the core was never started or
// has already been stopped (stop is not idempotent: spec.md §9 leaves the
// choice to the implementation, see DESIGN.md).
func (c *Core) Stop() error {
	if !c.state.CompareAndSwap(int32(StateStarted), int32(StateEnded)) {
		return &errcode.E{C: errcode.LifecycleViolation, Op: "core.Stop", Msg: "not in started state"}
	}
	close(c.stopCh)
	c.wg.Wait()
	return nil
}

func (c *Core) routingLoop(sinks []Sink) {
	defer c.wg.Done()
	ticker := time.NewTicker(c.tick)
	defer ticker.Stop()

	for {
		c.drainExternal(sinks)
		c.drainInternal(sinks)

		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
		}
	}
}

// drainExternal handles spec.md §4.1 step 1: peer-originated messages are
// filtered, mirrored to the adapter via internal-output, and fanned out.
func (c *Core) drainExternal(sinks []Sink) {
	for {
		select {
		case m := <-c.extIn:
			if !c.flt.Match(m.Text) {
				continue
			}
			c.deliverToAdapter(m)
			c.fanOut(sinks, m)
		default:
			return
		}
	}
}

// drainInternal handles spec.md §4.1 step 2: self-originated messages are
// filtered and fanned out, but never echoed back to the adapter.
func (c *Core) drainInternal(sinks []Sink) {
	for {
		select {
		case m := <-c.intIn:
			if !c.flt.Match(m.Text) {
				continue
			}
			c.fanOut(sinks, m)
		default:
			return
		}
	}
}

func (c *Core) deliverToAdapter(m message.Message) {
	select {
	case c.intOut <- m:
	default:
		c.log.WithField("stream", c.name).Warn("core: internal-output queue full, dropping message to adapter")
	}
}

func (c *Core) fanOut(sinks []Sink, m message.Message) {
	for _, sink := range sinks {
		select {
		case sink <- m:
		default:
			c.log.WithField("stream", c.name).Warn("core: sink queue full, dropping fan-out message")
		}
	}
}
