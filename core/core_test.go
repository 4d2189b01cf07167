package core

import (
	"testing"
	"time"

	"github.com/jangala-dev/logflux-relay/filter"
	"github.com/jangala-dev/logflux-relay/message"
)

const testTick = time.Millisecond

func recvWithin(t *testing.T, ch <-chan message.Message, d time.Duration) message.Message {
	t.Helper()
	select {
	case m := <-ch:
		return m
	case <-time.After(d):
		t.Fatal("timed out waiting for message")
		return message.Message{}
	}
}

func expectNone(t *testing.T, ch <-chan message.Message, d time.Duration) {
	t.Helper()
	select {
	case m := <-ch:
		t.Fatalf("expected no message, got %#v", m)
	case <-time.After(d):
	}
}

func TestCore_ExternalInputFansOutAndEchoesToAdapter(t *testing.T) {
	c := New("c1", testTick, 4, filter.Filter{}, nil)
	sinkCh := make(chan message.Message, 4)
	if err := c.AddExternalOutput(sinkCh); err != nil {
		t.Fatalf("AddExternalOutput: %v", err)
	}
	out, err := c.InternalOutputReceiver()
	if err != nil {
		t.Fatalf("InternalOutputReceiver: %v", err)
	}
	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer c.Stop()

	in := c.ExternalInputSender()
	msg := message.New("peer", "hello")
	in <- msg

	got := recvWithin(t, sinkCh, 200*time.Millisecond)
	if got != msg {
		t.Errorf("sink got %#v, want %#v", got, msg)
	}
	got2 := recvWithin(t, out, 200*time.Millisecond)
	if got2 != msg {
		t.Errorf("internal-output got %#v, want %#v", got2, msg)
	}
}

func TestCore_InternalInputFansOutButNeverEchoes(t *testing.T) {
	c := New("c2", testTick, 4, filter.Filter{}, nil)
	sinkCh := make(chan message.Message, 4)
	if err := c.AddExternalOutput(sinkCh); err != nil {
		t.Fatalf("AddExternalOutput: %v", err)
	}
	out, err := c.InternalOutputReceiver()
	if err != nil {
		t.Fatalf("InternalOutputReceiver: %v", err)
	}
	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer c.Stop()

	in := c.InternalInputSender()
	msg := message.New("self", "self-originated")
	in <- msg

	got := recvWithin(t, sinkCh, 200*time.Millisecond)
	if got != msg {
		t.Errorf("sink got %#v, want %#v", got, msg)
	}
	expectNone(t, out, 50*time.Millisecond)
}

func TestCore_ZeroSinksIsLegal(t *testing.T) {
	c := New("c3", testTick, 4, filter.Filter{}, nil)
	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer c.Stop()

	in := c.ExternalInputSender()
	in <- message.New("peer", "vanishes")
	// Nothing to assert other than that this does not hang or panic.
	time.Sleep(20 * time.Millisecond)
}

func TestCore_AddExternalOutputsTwiceDuplicatesDelivery(t *testing.T) {
	c := New("c4", testTick, 4, filter.Filter{}, nil)
	sinkCh := make(chan message.Message, 8)
	if err := c.AddExternalOutput(sinkCh); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if err := c.AddExternalOutput(sinkCh); err != nil {
		t.Fatalf("second add: %v", err)
	}
	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer c.Stop()

	in := c.ExternalInputSender()
	in <- message.New("peer", "dup")

	recvWithin(t, sinkCh, 200*time.Millisecond)
	recvWithin(t, sinkCh, 200*time.Millisecond)
}

func TestCore_StartTwiceFails(t *testing.T) {
	c := New("c5", testTick, 4, filter.Filter{}, nil)
	if err := c.Start(); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	defer c.Stop()
	if err := c.Start(); err == nil {
		t.Error("expected second Start to fail")
	}
}

func TestCore_StopWithoutStartFails(t *testing.T) {
	c := New("c6", testTick, 4, filter.Filter{}, nil)
	if err := c.Stop(); err == nil {
		t.Error("expected Stop without Start to fail")
	}
}

func TestCore_AddExternalOutputAfterStartFails(t *testing.T) {
	c := New("c7", testTick, 4, filter.Filter{}, nil)
	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer c.Stop()
	if err := c.AddExternalOutput(make(chan message.Message, 1)); err == nil {
		t.Error("expected AddExternalOutput to fail after Start")
	}
}

func TestCore_InternalOutputReceiverOnlyOnce(t *testing.T) {
	c := New("c8", testTick, 4, filter.Filter{}, nil)
	if _, err := c.InternalOutputReceiver(); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if _, err := c.InternalOutputReceiver(); err == nil {
		t.Error("expected second call to fail")
	}
}

func TestCore_StopIsBoundedEvenUnderLoad(t *testing.T) {
	c := New("c9", testTick, 64, filter.Filter{}, nil)
	for i := 0; i < 5; i++ {
		sinkCh := make(chan message.Message, 64)
		if err := c.AddExternalOutput(sinkCh); err != nil {
			t.Fatalf("AddExternalOutput: %v", err)
		}
	}
	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	in := c.ExternalInputSender()
	stop := make(chan struct{})
	go func() {
		defer close(stop)
		for i := 0; i < 200; i++ {
			select {
			case in <- message.New("peer", "flood"):
			default:
			}
		}
	}()
	<-stop

	done := make(chan error, 1)
	go func() { done <- c.Stop() }()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Stop: %v", err)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Stop did not return within the bounded window")
	}
}
