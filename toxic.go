package toxiproxy

import (
	"context"
	"fmt"

	"github.com/faultline-io/toxiproxy-client/toxics"
)

// Stream direction values for a toxic.
const (
	Upstream   = "upstream"
	Downstream = "downstream"
)

// Attributes is the untyped wire form of a toxic's parameters.
type Attributes = toxics.Attributes

// Toxic is the generic wire record of a toxic attached to a proxy. Use
// Typed or GetToxic to turn it into a concrete variant from the toxics
// package.
type Toxic struct {
	Name       string     `json:"name"`
	Type       string     `json:"type"`
	Stream     string     `json:"stream,omitempty"`
	Toxicity   float32    `json:"toxicity"`
	Attributes Attributes `json:"attributes"`
}

type Toxics []Toxic

// Typed decodes the record's attribute map into its registered variant.
func (t *Toxic) Typed() (toxics.Toxic, error) {
	return toxics.Decode(t.Type, t.Attributes)
}

// GetToxic fetches the named toxic from a proxy and decodes it as the
// concrete variant T. The second return value is false when no toxic with
// that name exists; plain absence is not an error.
func GetToxic[T toxics.Toxic](ctx context.Context, proxy *Proxy, name string) (T, bool, error) {
	var zero T

	record, err := proxy.Toxic(ctx, name)
	if err != nil {
		return zero, false, err
	}
	if record == nil {
		return zero, false, nil
	}

	toxic, err := record.Typed()
	if err != nil {
		return zero, false, err
	}
	typed, err := toxics.As[T](toxic)
	if err != nil {
		return zero, false, fmt.Errorf("toxic %q: %w", name, err)
	}
	return typed, true, nil
}
