package stream

import (
	"testing"

	"github.com/jangala-dev/logflux-relay/errcode"
)

func TestTransaction_String(t *testing.T) {
	cases := []struct {
		name string
		txn  Transaction
		want string
	}{
		{
			name: "start write no nak",
			txn:  Transaction{Restart: false, Addr: 0x50, Write: true, Data: []byte{0x01, 0xff}, NAKAt: -1},
			want: "Start 0x50 WR 01 ff Stop",
		},
		{
			name: "restart read",
			txn:  Transaction{Restart: true, Addr: 0x3a, Write: false, Data: []byte{0x00}, NAKAt: -1},
			want: "ReStart 0x3a RD 00 Stop",
		},
		{
			name: "single digit nak",
			txn:  Transaction{Restart: false, Addr: 0x10, Write: true, Data: []byte{0x01, 0x02, 0x03}, NAKAt: 2},
			want: "Start 0x10 WR 01 02 03 Stop [NAK: 2]",
		},
		{
			name: "multi digit nak is not truncated to one digit",
			txn:  Transaction{Restart: false, Addr: 0x10, Write: true, Data: make([]byte, 13), NAKAt: 12},
			want: "Start 0x10 WR 00 00 00 00 00 00 00 00 00 00 00 00 00 Stop [NAK: 12]",
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.txn.String(); got != c.want {
				t.Errorf("String() = %q, want %q", got, c.want)
			}
		})
	}
}

func TestOpenAnalyzer_DefaultFailsClosed(t *testing.T) {
	_, err := OpenAnalyzer("any-device")
	if err == nil {
		t.Fatal("expected the default OpenAnalyzer to fail without a linked backend")
	}
	if got := errcode.Of(err); got != errcode.EndpointFailure {
		t.Errorf("code = %v, want %v", got, errcode.EndpointFailure)
	}
}
