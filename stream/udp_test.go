package stream

import (
	"testing"
	"time"

	"github.com/jangala-dev/logflux-relay/config"
	"github.com/jangala-dev/logflux-relay/errcode"
	"github.com/jangala-dev/logflux-relay/message"
)

func TestFormatUDPPayload(t *testing.T) {
	m := message.Message{TimestampMs: 1700000000123, Originator: "peer", Text: "hello"}
	got := formatUDPPayload(m)
	want := "'peer' - 1700000000123 - 'hello'\n"
	if got != want {
		t.Errorf("formatUDPPayload = %q, want %q", got, want)
	}
}

func TestNewUDPStream_RejectsOutputWithoutDestination(t *testing.T) {
	cfg := config.StreamConfig{
		Name:       "out",
		TypeConfig: config.TypeConfig{Type: config.TypeUDP, UDP: &config.UDPConfig{Direction: "output"}},
	}
	_, err := newUDPStream(cfg, time.Millisecond, nil)
	if err == nil {
		t.Fatal("expected an error for an output direction with no destination")
	}
	if got := errcode.Of(err); got != errcode.ConfigurationInvalid {
		t.Errorf("code = %v, want %v", got, errcode.ConfigurationInvalid)
	}
}

func TestNewUDPStream_RejectsUnknownDirection(t *testing.T) {
	cfg := config.StreamConfig{
		Name:       "weird",
		TypeConfig: config.TypeConfig{Type: config.TypeUDP, UDP: &config.UDPConfig{Direction: "sideways"}},
	}
	_, err := newUDPStream(cfg, time.Millisecond, nil)
	if err == nil {
		t.Fatal("expected an error for an unknown direction")
	}
	if got := errcode.Of(err); got != errcode.ConfigurationInvalid {
		t.Errorf("code = %v, want %v", got, errcode.ConfigurationInvalid)
	}
}
