package stream

import (
	"testing"
	"time"

	"github.com/jangala-dev/logflux-relay/config"
	"github.com/jangala-dev/logflux-relay/errcode"
	"github.com/jangala-dev/logflux-relay/message"
)

func TestFormatMQTTPayload(t *testing.T) {
	m := message.Message{TimestampMs: 1700000000123, Originator: "peer", Text: "hello"}
	got := formatMQTTPayload(m)
	want := "'peer' - 1700000000123 - 'hello'"
	if got != want {
		t.Errorf("formatMQTTPayload = %q, want %q", got, want)
	}
}

func TestNewMQTTStream_RejectsUnknownDirection(t *testing.T) {
	cfg := config.StreamConfig{
		Name: "bad",
		TypeConfig: config.TypeConfig{Type: config.TypeMQTT, MQTT: &config.MQTTConfig{
			Broker: "tcp://localhost:1883", Topic: "x", Direction: "sideways",
		}},
	}
	_, err := newMQTTStream(cfg, time.Millisecond, nil)
	if err == nil {
		t.Fatal("expected an error for an unknown direction")
	}
	if got := errcode.Of(err); got != errcode.ConfigurationInvalid {
		t.Errorf("code = %v, want %v", got, errcode.ConfigurationInvalid)
	}
}

func TestNewMQTTStream_RejectsMissingPayload(t *testing.T) {
	cfg := config.StreamConfig{Name: "bad", TypeConfig: config.TypeConfig{Type: config.TypeMQTT}}
	_, err := newMQTTStream(cfg, time.Millisecond, nil)
	if err == nil {
		t.Fatal("expected an error for a missing Mqtt payload")
	}
	if got := errcode.Of(err); got != errcode.ConfigurationInvalid {
		t.Errorf("code = %v, want %v", got, errcode.ConfigurationInvalid)
	}
}
