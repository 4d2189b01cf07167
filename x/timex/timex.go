// Package timex collects small time helpers shared across the relay.
package timex

import "time"

// NowMs returns Unix milliseconds as int64. Used to stamp messages at the
// point an adapter ingests or synthesizes them.
func NowMs() int64 { return time.Now().UnixMilli() }
