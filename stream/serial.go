package stream

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.bug.st/serial"

	"github.com/jangala-dev/logflux-relay/config"
	"github.com/jangala-dev/logflux-relay/errcode"
	"github.com/jangala-dev/logflux-relay/message"
	"github.com/jangala-dev/logflux-relay/reassemble"
)

const serialReadBufSize = 10 * 1024 // 10 KiB, per spec.md §4.2

func init() {
	RegisterAdapter(config.TypeSerial, newSerialStream)
}

// serialStream opens the configured port, polls it for readability with
// each read bounded by the tick period (an edge-triggered poll emulated
// here with a short read timeout so the worker still notices stop
// requests promptly), and feeds chunks through the line reassembler
// (spec.md §4.2, §4.3).
type serialStream struct {
	base
	scfg config.SerialConfig
}

func newSerialStream(cfg config.StreamConfig, tick time.Duration, log logrus.FieldLogger) (Adapter, error) {
	if cfg.TypeConfig.Serial == nil {
		return nil, &errcode.E{C: errcode.ConfigurationInvalid, Op: "stream.newSerialStream", Msg: "missing Serial payload"}
	}
	return &serialStream{base: newBase(cfg, tick, log), scfg: *cfg.TypeConfig.Serial}, nil
}

func (s *serialStream) Start() error {
	out, err := s.core.InternalOutputReceiver()
	if err != nil {
		return err
	}
	in := s.core.InternalInputSender()

	mode := &serial.Mode{BaudRate: s.scfg.Baud}
	port, err := serial.Open(s.scfg.Port, mode)
	if err != nil {
		return &errcode.E{C: errcode.EndpointFailure, Op: "stream.serial.Start", Msg: fmt.Sprintf("open %s: %v", s.scfg.Port, err), Err: err}
	}

	s.wgIO.Add(1)
	go s.runIO(out, in, port)
	return s.startCore()
}

func (s *serialStream) Stop() error { return s.stopIOAndCore() }

func (s *serialStream) runIO(out <-chan message.Message, in chan<- message.Message, port serial.Port) {
	defer s.wgIO.Done()
	defer port.Close()

	_ = port.SetReadTimeout(s.tick)
	buf := make([]byte, serialReadBufSize)
	residue := ""
	delim := s.cfg.Delimiter()

	for {
		select {
		case <-s.stopIO:
			return
		case m := <-out:
			// TODO: implement writing inbound messages to the port; the
			// original source left outbound serial writes unimplemented.
			_ = m
		default:
		}

		n, err := port.Read(buf)
		if err != nil {
			select {
			case <-s.stopIO:
				return
			default:
				s.log.WithError(err).Warn("serial stream: fatal read error, worker exiting")
				return
			}
		}
		if n == 0 {
			continue
		}
		chunk := strings.ToValidUTF8(string(buf[:n]), "�")
		var lines []string
		if delim == "\n" {
			lines, residue = reassemble.Lines(chunk, residue)
		} else {
			lines, residue = splitOnDelimiter(residue+chunk, delim)
		}
		for _, line := range lines {
			msg := message.New(s.cfg.Name, line)
			select {
			case in <- msg:
			case <-s.stopIO:
				return
			}
		}
	}
}

// splitOnDelimiter generalizes reassemble.Lines to an arbitrary
// configured delimiter (spec.md §3: delimiter defaults to "\n" but is
// configurable per stream).
func splitOnDelimiter(combined, delim string) (parts []string, residue string) {
	if combined == "" {
		return nil, ""
	}
	segs := strings.Split(combined, delim)
	residue = segs[len(segs)-1]
	return segs[:len(segs)-1], residue
}
