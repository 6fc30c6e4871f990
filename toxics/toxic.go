// Package toxics defines the typed variants of the toxics a toxiproxy
// server knows how to run, and the registry translating between a variant
// and its wire-level attribute map.
//
// A toxic on the wire is a type discriminator plus a flat attribute
// object. Each variant here owns its parameters as plain struct fields;
// Encode flattens them back to the attribute map and Decode fills a fresh
// variant from one. The registry is the only place that knows which
// discriminator maps to which shape.
package toxics

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Attributes is the wire representation of a toxic's parameters. Value
// types are whatever the JSON decoder produced, usually float64 for
// anything numeric.
type Attributes map[string]interface{}

// Toxic is implemented by every toxic variant.
type Toxic interface {
	// Kind returns the wire type discriminator, e.g. "latency".
	Kind() string

	// Validate checks the variant's attribute-level invariants.
	Validate() error
}

var (
	registryMutex sync.RWMutex
	registry      = make(map[string]func() Toxic)
)

// Register adds a toxic constructor under the given type name. It is
// called from init in each variant's file.
func Register(kind string, ctor func() Toxic) {
	registryMutex.Lock()
	defer registryMutex.Unlock()

	registry[strings.ToLower(kind)] = ctor
}

// Kinds returns the sorted list of registered type names.
func Kinds() []string {
	registryMutex.RLock()
	defer registryMutex.RUnlock()

	kinds := make([]string, 0, len(registry))
	for kind := range registry {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// New instantiates a zero-valued variant for the given type name. The
// lookup is case-insensitive. An unknown name is a hard error rather than
// a fallback: it usually means the server supports a toxic set this client
// has never heard of.
func New(kind string) (Toxic, error) {
	registryMutex.RLock()
	ctor, ok := registry[strings.ToLower(kind)]
	registryMutex.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unrecognized toxic type %q", kind)
	}
	return ctor(), nil
}

// Decode builds a typed variant from a wire attribute map. Attribute
// values that are missing or of an unusable type leave the corresponding
// field at its zero value; the map comes from untyped JSON, so a strict
// decode would make the client brittle against harmless server additions.
func Decode(kind string, attrs Attributes) (Toxic, error) {
	toxic, err := New(kind)
	if err != nil {
		return nil, err
	}
	decodeAttributes(attrs, toxic)
	return toxic, nil
}

// As asserts that toxic is the concrete variant T.
func As[T Toxic](toxic Toxic) (T, error) {
	typed, ok := toxic.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("cannot cast toxic of type %q to %T",
			toxic.Kind(), zero)
	}
	return typed, nil
}
