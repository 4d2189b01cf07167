package stream

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jangala-dev/logflux-relay/config"
	"github.com/jangala-dev/logflux-relay/errcode"
	"github.com/jangala-dev/logflux-relay/message"
)

func init() {
	RegisterAdapter(config.TypeTerminal, newTerminalStream)
}

// terminalStream optionally synthesizes messages on a timer and
// optionally prints inbound messages to stdout (spec.md §4.2). The
// ticker-driven worker loop is grounded on the teacher's
// services/heartbeat/service.go (ticker + context-style select).
type terminalStream struct {
	base
	tcfg config.TerminalConfig
	seq  atomic.Int64
}

func newTerminalStream(cfg config.StreamConfig, tick time.Duration, log logrus.FieldLogger) (Adapter, error) {
	if cfg.TypeConfig.Terminal == nil {
		return nil, &errcode.E{C: errcode.ConfigurationInvalid, Op: "stream.newTerminalStream", Msg: "missing Terminal payload"}
	}
	return &terminalStream{base: newBase(cfg, tick, log), tcfg: *cfg.TypeConfig.Terminal}, nil
}

func (s *terminalStream) Start() error {
	out, err := s.core.InternalOutputReceiver()
	if err != nil {
		return err
	}
	in := s.core.InternalInputSender()

	s.wgIO.Add(1)
	go s.runIO(out, in)
	return s.startCore()
}

func (s *terminalStream) Stop() error { return s.stopIOAndCore() }

func (s *terminalStream) runIO(out <-chan message.Message, in chan<- message.Message) {
	defer s.wgIO.Done()

	var genC <-chan time.Time
	if s.tcfg.GeneratesMessages {
		period := time.Duration(s.tcfg.InterMessageGenerationPeriodMs) * time.Millisecond
		if period <= 0 {
			period = time.Second
		}
		genTick := time.NewTicker(period)
		defer genTick.Stop()
		genC = genTick.C
	}

	for {
		select {
		case <-s.stopIO:
			return
		case m := <-out:
			if s.tcfg.PrintToStandardOut {
				s.print(m)
			}
		case <-genC:
			n := s.seq.Add(1)
			msg := message.New(s.cfg.Name, fmt.Sprintf("New message %d", n))
			select {
			case in <- msg:
			case <-s.stopIO:
				return
			}
		}
	}
}

func (s *terminalStream) print(m message.Message) {
	fmt.Printf("'%s' - %s - '%s' - '%s'\n",
		s.cfg.Name, message.FormatTimestamp(m.TimestampMs), m.Originator, m.Text)
}
