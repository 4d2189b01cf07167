package stream

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jangala-dev/logflux-relay/config"
)

func init() {
	RegisterAdapter(config.TypeNone, newNoneStream)
}

// noneStream is a pure routing node: no endpoint I/O, only a worker that
// drains internal-output and discards it so nothing backs up
// (spec.md §4.2b).
type noneStream struct {
	base
}

func newNoneStream(cfg config.StreamConfig, tick time.Duration, log logrus.FieldLogger) (Adapter, error) {
	return &noneStream{base: newBase(cfg, tick, log)}, nil
}

func (s *noneStream) Start() error {
	out, err := s.core.InternalOutputReceiver()
	if err != nil {
		return err
	}
	s.wgIO.Add(1)
	go func() {
		defer s.wgIO.Done()
		for {
			select {
			case <-s.stopIO:
				return
			case <-out:
				// No endpoint to write to; discard.
			}
		}
	}()
	return s.startCore()
}

func (s *noneStream) Stop() error { return s.stopIOAndCore() }
