package toxics

import "github.com/faultline-io/toxiproxy-client/validate"

// SlowClose keeps the TCP connection from closing until Delay milliseconds
// have elapsed.
type SlowClose struct {
	// Time in milliseconds
	Delay int64 `json:"delay"`
}

func (*SlowClose) Kind() string { return "slow_close" }

func (t *SlowClose) Validate() error {
	return validate.NonNegative("Delay", t.Delay)
}

func init() {
	Register("slow_close", func() Toxic { return new(SlowClose) })
}
