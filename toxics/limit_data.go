package toxics

import "github.com/faultline-io/toxiproxy-client/validate"

// LimitData closes the connection after Bytes bytes have been transmitted.
type LimitData struct {
	Bytes int64 `json:"bytes"`
}

func (*LimitData) Kind() string { return "limit_data" }

func (t *LimitData) Validate() error {
	return validate.NonNegative("Bytes", t.Bytes)
}

func init() {
	Register("limit_data", func() Toxic { return new(LimitData) })
}
