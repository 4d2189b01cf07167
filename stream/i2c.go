package stream

import (
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jangala-dev/logflux-relay/config"
	"github.com/jangala-dev/logflux-relay/errcode"
	"github.com/jangala-dev/logflux-relay/message"
)

func init() {
	RegisterAdapter(config.TypeI2C, newI2CStream)
}

// Transaction is one decoded I2C transaction, as produced by whatever
// vendor analyzer backend is linked in.
type Transaction struct {
	Restart bool // false => Start, true => ReStart
	Addr    byte
	Write   bool
	Data    []byte
	NAKAt   int // index of first NAK'd byte, or -1 if none
}

// String renders a transaction as "Start|ReStart <addr> RD|WR <byte>*
// Stop [NAK: n]" (spec.md §4.2).
func (t Transaction) String() string {
	var b strings.Builder
	if t.Restart {
		b.WriteString("ReStart ")
	} else {
		b.WriteString("Start ")
	}
	b.WriteByte('0')
	b.WriteByte('x')
	const hex = "0123456789abcdef"
	b.WriteByte(hex[t.Addr>>4])
	b.WriteByte(hex[t.Addr&0xf])
	if t.Write {
		b.WriteString(" WR")
	} else {
		b.WriteString(" RD")
	}
	for _, d := range t.Data {
		b.WriteByte(' ')
		b.WriteByte(hex[d>>4])
		b.WriteByte(hex[d&0xf])
	}
	b.WriteString(" Stop")
	if t.NAKAt >= 0 {
		b.WriteString(" [NAK: ")
		b.WriteString(strconv.Itoa(t.NAKAt))
		b.WriteString("]")
	}
	return b.String()
}

// Analyzer is the vendor boundary: capture decoded I2C traffic off some
// bound device. Concrete implementations bind to the vendor SDK (e.g. the
// Digilent WaveForms library) via cgo; none of that belongs in this
// module, so it is injected rather than imported (see OpenAnalyzer),
// mirroring the teacher's injected UARTDial hook in
// services/bridge/bridge.go.
type Analyzer interface {
	Next() (Transaction, error) // blocks until a transaction is captured
	Close() error
}

// OpenAnalyzer opens a named analyzer device. The default implementation
// always fails; a real deployment sets this in its main package once the
// vendor SDK binding is linked in.
var OpenAnalyzer = func(device string) (Analyzer, error) {
	return nil, &errcode.E{C: errcode.EndpointFailure, Op: "stream.OpenAnalyzer", Msg: "no analyzer backend linked; set stream.OpenAnalyzer"}
}

type i2cStream struct {
	base
	icfg config.I2CConfig
}

func newI2CStream(cfg config.StreamConfig, tick time.Duration, log logrus.FieldLogger) (Adapter, error) {
	icfg := config.I2CConfig{}
	if cfg.TypeConfig.I2C != nil {
		icfg = *cfg.TypeConfig.I2C
	}
	return &i2cStream{base: newBase(cfg, tick, log), icfg: icfg}, nil
}

func (s *i2cStream) Start() error {
	in := s.core.InternalInputSender()
	az, err := OpenAnalyzer(s.icfg.Device)
	if err != nil {
		return err
	}

	s.wgIO.Add(1)
	go s.runIO(in, az)
	return s.startCore()
}

func (s *i2cStream) Stop() error { return s.stopIOAndCore() }

func (s *i2cStream) runIO(in chan<- message.Message, az Analyzer) {
	defer s.wgIO.Done()
	defer az.Close()

	for {
		select {
		case <-s.stopIO:
			return
		default:
		}
		txn, err := az.Next()
		if err != nil {
			select {
			case <-s.stopIO:
				return
			default:
				s.log.WithError(err).Warn("i2c analyzer stream: fatal capture error, worker exiting")
				return
			}
		}
		msg := message.New(s.cfg.Name, txn.String())
		select {
		case in <- msg:
		case <-s.stopIO:
			return
		}
	}
}
