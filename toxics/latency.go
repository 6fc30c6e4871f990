package toxics

import "github.com/faultline-io/toxiproxy-client/validate"

// Latency delays all data flowing through the proxy by Latency
// milliseconds, +/- up to Jitter milliseconds per packet.
type Latency struct {
	// Times in milliseconds
	Latency int64 `json:"latency"`
	Jitter  int64 `json:"jitter"`
}

func (*Latency) Kind() string { return "latency" }

func (t *Latency) Validate() error {
	if err := validate.NonNegative("Latency", t.Latency); err != nil {
		return err
	}
	return validate.NonNegative("Jitter", t.Jitter)
}

func init() {
	Register("latency", func() Toxic { return new(Latency) })
}
