package toxics

import "github.com/faultline-io/toxiproxy-client/validate"

// Slicer slices data into packets of AverageSize bytes, varying by up to
// SizeVariation bytes, with Delay microseconds between each packet.
type Slicer struct {
	// Average number of bytes to slice at
	AverageSize int64 `json:"average_size"`
	// +/- bytes to vary sliced amounts. Must be less than the average size
	SizeVariation int64 `json:"size_variation"`
	// Microseconds to delay each packet
	Delay int64 `json:"delay"`
}

func (*Slicer) Kind() string { return "slicer" }

func (t *Slicer) Validate() error {
	if err := validate.NonNegative("AverageSize", t.AverageSize); err != nil {
		return err
	}
	if err := validate.NonNegative("SizeVariation", t.SizeVariation); err != nil {
		return err
	}
	if err := validate.NonNegative("Delay", t.Delay); err != nil {
		return err
	}
	if t.SizeVariation >= t.AverageSize {
		return validate.Errorf("SizeVariation",
			"%d must be strictly less than AverageSize %d",
			t.SizeVariation, t.AverageSize)
	}
	return nil
}

func init() {
	Register("slicer", func() Toxic { return new(Slicer) })
}
