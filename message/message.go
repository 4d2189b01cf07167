// Package message defines the value type that flows through every stream
// core's queues.
package message

import (
	"fmt"
	"time"

	"github.com/jangala-dev/logflux-relay/x/timex"
)

// Message is an immutable, value-copy record. Every fan-out branch that
// receives one over a channel gets its own copy for free, since Go copies
// struct values on send.
type Message struct {
	TimestampMs int64  // epoch milliseconds, set once at ingestion/synthesis
	Originator  string // display name of the stream that created it
	Text        string
}

// New stamps the message with the current time. Adapters call this at the
// point they ingest or synthesize a message; the timestamp is never
// rewritten afterwards.
func New(originator, text string) Message {
	return Message{
		TimestampMs: timex.NowMs(),
		Originator:  originator,
		Text:        text,
	}
}

// FormatTimestamp renders a millisecond epoch as "YYYY-MM-DD HH:MM:SS:mmm"
// in local time, the format shared by the Terminal and File adapters.
func FormatTimestamp(tsMs int64) string {
	t := time.UnixMilli(tsMs).Local()
	return fmt.Sprintf("%s:%03d", t.Format("2006-01-02 15:04:05"), tsMs%1000)
}
