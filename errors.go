package toxiproxy

import (
	"errors"
	"fmt"

	"github.com/faultline-io/toxiproxy-client/validate"
)

// ConfigError is a locally detected invariant violation. It is always
// returned before any network call is made, and names the offending field.
type ConfigError = validate.Error

// ApiError is the error document the server attaches to a non-2xx
// response.
type ApiError struct {
	Message string `json:"error"`
	Status  int    `json:"status"`
}

func (e *ApiError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Message)
}

// RequestError is a connection-class failure: the transport could not
// reach the server, the server rejected the request, or the response body
// did not decode into the expected shape. It carries the attempted
// operation and the resource it targeted.
type RequestError struct {
	Op       string
	Resource string
	Err      error
}

func (e *RequestError) Error() string {
	if e.Resource == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Resource, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// UnsupportedVersionError is returned by Connect when the server is older
// than the minimum this client speaks.
type UnsupportedVersionError struct {
	Server  ServerVersion
	Minimum ServerVersion
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("server version %s is older than the minimum supported version %s",
		e.Server, e.Minimum)
}

var (
	// ErrNotFound marks a 404 from the server. Read operations translate
	// it into an absent result; it only surfaces from operations where the
	// resource was expected to exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists marks a 409 conflict on create.
	ErrAlreadyExists = errors.New("already exists")

	// ErrProxyDeleted is returned by operations on a proxy that has been
	// deleted through this client.
	ErrProxyDeleted = errors.New("proxy has been deleted")
)
