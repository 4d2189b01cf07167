package stream

import (
	"fmt"
	"net"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jangala-dev/logflux-relay/config"
	"github.com/jangala-dev/logflux-relay/errcode"
	"github.com/jangala-dev/logflux-relay/message"
)

func init() {
	RegisterAdapter(config.TypeUDP, newUDPStream)
}

// udpStream is unidirectional, either output-only (sends each inbound
// message to a configured destination) or input-only (emits one message
// per received datagram) per spec.md §4.2: duplex requires two streams.
type udpStream struct {
	base
	ucfg config.UDPConfig
}

func newUDPStream(cfg config.StreamConfig, tick time.Duration, log logrus.FieldLogger) (Adapter, error) {
	if cfg.TypeConfig.UDP == nil {
		return nil, &errcode.E{C: errcode.ConfigurationInvalid, Op: "stream.newUDPStream", Msg: "missing Udp payload"}
	}
	ucfg := *cfg.TypeConfig.UDP
	switch ucfg.Direction {
	case "output":
		if ucfg.Destination == "" {
			return nil, &errcode.E{C: errcode.ConfigurationInvalid, Op: "stream.newUDPStream", Msg: "output direction requires destination"}
		}
	case "input":
		// LocalPort of 0 is valid (OS-assigned), though unusual for an
		// input stream meant to receive on a known port.
	default:
		return nil, &errcode.E{C: errcode.ConfigurationInvalid, Op: "stream.newUDPStream", Msg: fmt.Sprintf("unknown udp direction %q", ucfg.Direction)}
	}
	return &udpStream{base: newBase(cfg, tick, log), ucfg: ucfg}, nil
}

func (s *udpStream) Start() error {
	if s.ucfg.Direction == "output" {
		return s.startOutput()
	}
	return s.startInput()
}

func (s *udpStream) startOutput() error {
	out, err := s.core.InternalOutputReceiver()
	if err != nil {
		return err
	}
	dest, err := net.ResolveUDPAddr("udp", s.ucfg.Destination)
	if err != nil {
		return fmt.Errorf("udp stream %q: resolve %s: %w", s.cfg.Name, s.ucfg.Destination, err)
	}
	conn, err := net.ListenUDP("udp", &net.UDPAddr{})
	if err != nil {
		return fmt.Errorf("udp stream %q: bind ephemeral port: %w", s.cfg.Name, err)
	}

	s.wgIO.Add(1)
	go s.runOutput(out, conn, dest)
	return s.startCore()
}

func (s *udpStream) runOutput(out <-chan message.Message, conn *net.UDPConn, dest *net.UDPAddr) {
	defer s.wgIO.Done()
	defer conn.Close()

	for {
		select {
		case <-s.stopIO:
			return
		case m := <-out:
			payload := formatUDPPayload(m)
			if _, err := conn.WriteToUDP([]byte(payload), dest); err != nil {
				s.log.WithError(err).Warn("udp stream: write failed")
			}
		}
	}
}

func (s *udpStream) startInput() error {
	in := s.core.InternalInputSender()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: s.ucfg.LocalPort})
	if err != nil {
		return fmt.Errorf("udp stream %q: listen on port %d: %w", s.cfg.Name, s.ucfg.LocalPort, err)
	}

	s.wgIO.Add(1)
	go s.runInput(in, conn)
	return s.startCore()
}

func (s *udpStream) runInput(in chan<- message.Message, conn *net.UDPConn) {
	defer s.wgIO.Done()
	defer conn.Close()

	buf := make([]byte, 64*1024)
	for {
		select {
		case <-s.stopIO:
			return
		default:
		}
		_ = conn.SetReadDeadline(time.Now().Add(s.tick))
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			select {
			case <-s.stopIO:
				return
			default:
				s.log.WithError(err).Warn("udp stream: read failed")
				return
			}
		}
		msg := message.New(s.cfg.Name, string(buf[:n]))
		select {
		case in <- msg:
		case <-s.stopIO:
			return
		}
	}
}

func (s *udpStream) Stop() error { return s.stopIOAndCore() }

// formatUDPPayload renders one outbound message as a UDP datagram payload
// (spec.md §4.2).
func formatUDPPayload(m message.Message) string {
	return fmt.Sprintf("'%s' - %d - '%s'\n", m.Originator, m.TimestampMs, m.Text)
}
