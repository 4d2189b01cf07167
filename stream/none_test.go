package stream

import (
	"testing"
	"time"

	"github.com/jangala-dev/logflux-relay/config"
	"github.com/jangala-dev/logflux-relay/message"
)

// TestNoneStream_DrainsWithoutBlockingAndStopsPromptly pins spec.md §4.2b's
// pure routing node: external input still fans out normally, and whatever
// lands on internal-output (there is no endpoint to write it to) is
// discarded rather than backing up the core.
func TestNoneStream_DrainsWithoutBlockingAndStopsPromptly(t *testing.T) {
	cfg := config.StreamConfig{Name: "junction", TypeConfig: config.TypeConfig{Type: config.TypeNone}}
	a, err := newNoneStream(cfg, time.Millisecond, nil)
	if err != nil {
		t.Fatalf("newNoneStream: %v", err)
	}

	sinkCh := make(chan message.Message, 8)
	if err := a.AddOutput(sinkCh); err != nil {
		t.Fatalf("AddOutput: %v", err)
	}
	if err := a.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	in := a.ExternalInputSender()
	for i := 0; i < 4; i++ {
		in <- message.New("peer", "routed")
	}

	for i := 0; i < 4; i++ {
		select {
		case <-sinkCh:
		case <-time.After(200 * time.Millisecond):
			t.Fatalf("message %d never reached the fanned-out sink", i)
		}
	}

	done := make(chan error, 1)
	go func() { done <- a.Stop() }()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Stop: %v", err)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Stop did not return within the bounded window")
	}
}
