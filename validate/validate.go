// Package validate holds the field-level checks shared by proxies and
// toxics. Every check runs client-side, before a request is built, so an
// invalid resource is never sent over the wire.
package validate

import (
	"fmt"
	"net"
	"regexp"
	"strconv"
)

// Error reports a configuration value that violates one of the client's
// invariants. Field names the offending field as the caller knows it.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func Errorf(field, format string, args ...interface{}) *Error {
	return &Error{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ipv4Shaped matches hosts made up of digits and dots only. Such a host is
// claiming to be an IPv4 address and has to parse as a canonical one;
// "10.11.12" is not a hostname that happens to look numeric, it is a broken
// address.
var ipv4Shaped = regexp.MustCompile(`^[0-9.]+$`)

var hostnamePattern = regexp.MustCompile(
	`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?` +
		`(\.[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)

// NonEmpty checks that a required string field is present.
func NonEmpty(field, value string) error {
	if value == "" {
		return Errorf(field, "must not be empty")
	}
	return nil
}

// Address checks that value is a host:port string. The port has to be an
// integer in [1, 65535]. The host is accepted either as a canonical
// four-octet IPv4 address or as a syntactically valid hostname.
func Address(field, value string) error {
	if err := NonEmpty(field, value); err != nil {
		return err
	}

	host, port, err := net.SplitHostPort(value)
	if err != nil {
		return Errorf(field, "%q is not a host:port address", value)
	}
	if host == "" {
		return Errorf(field, "%q is missing a host", value)
	}

	n, err := strconv.Atoi(port)
	if err != nil || n < 1 || n > 65535 {
		return Errorf(field, "port %q must be an integer between 1 and 65535", port)
	}

	if ipv4Shaped.MatchString(host) {
		if ip := net.ParseIP(host); ip == nil || ip.To4() == nil {
			return Errorf(field, "%q is not a valid IPv4 address", host)
		}
		return nil
	}
	if !hostnamePattern.MatchString(host) {
		return Errorf(field, "%q is not a valid hostname", host)
	}
	return nil
}

// Toxicity checks the [0.0, 1.0] probability range.
func Toxicity(field string, value float32) error {
	if value < 0.0 || value > 1.0 {
		return Errorf(field, "%v is outside the range [0.0, 1.0]", value)
	}
	return nil
}

// NonNegative rejects negative counts, durations and sizes.
func NonNegative(field string, value int64) error {
	if value < 0 {
		return Errorf(field, "must not be negative, got %d", value)
	}
	return nil
}

// Stream checks a toxic's direction value.
func Stream(field, value string) error {
	if value != "upstream" && value != "downstream" {
		return Errorf(field, "%q must be either %q or %q",
			value, "upstream", "downstream")
	}
	return nil
}
