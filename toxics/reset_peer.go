package toxics

import "github.com/faultline-io/toxiproxy-client/validate"

// ResetPeer resets the TCP connection (RST) after Timeout milliseconds.
// With a timeout of 0 the connection is reset immediately.
type ResetPeer struct {
	// Time in milliseconds
	Timeout int64 `json:"timeout"`
}

func (*ResetPeer) Kind() string { return "reset_peer" }

func (t *ResetPeer) Validate() error {
	return validate.NonNegative("Timeout", t.Timeout)
}

func init() {
	Register("reset_peer", func() Toxic { return new(ResetPeer) })
}
