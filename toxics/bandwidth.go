package toxics

import "github.com/faultline-io/toxiproxy-client/validate"

// Bandwidth caps the throughput of the stream at Rate KB/s.
type Bandwidth struct {
	// Rate in KB/s
	Rate int64 `json:"rate"`
}

func (*Bandwidth) Kind() string { return "bandwidth" }

func (t *Bandwidth) Validate() error {
	return validate.NonNegative("Rate", t.Rate)
}

func init() {
	Register("bandwidth", func() Toxic { return new(Bandwidth) })
}
