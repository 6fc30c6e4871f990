package toxics

import "github.com/faultline-io/toxiproxy-client/validate"

// Timeout stops all data and closes the connection after Timeout
// milliseconds. With a timeout of 0 the connection is never closed and
// data is silently dropped.
type Timeout struct {
	// Time in milliseconds
	Timeout int64 `json:"timeout"`
}

func (*Timeout) Kind() string { return "timeout" }

func (t *Timeout) Validate() error {
	return validate.NonNegative("Timeout", t.Timeout)
}

func init() {
	Register("timeout", func() Toxic { return new(Timeout) })
}
