// Package toxiproxy provides a client for the Toxiproxy HTTP API, used to
// simulate network conditions when testing the resiliency of Go
// applications.
//
// For use with Toxiproxy 2.x servers.
package toxiproxy

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/faultline-io/toxiproxy-client/validate"
)

// Client communicates with one toxiproxy server. The zero value is not
// usable; construct it with NewClient. A Client is safe for concurrent use
// and performs no background work of its own: every operation is a single
// round trip bound to the caller's context.
type Client struct {
	// UserAgent is sent with every request when non-empty.
	UserAgent string

	endpoint string
	http     *http.Client
	log      zerolog.Logger
	metrics  *clientMetrics

	mu      sync.Mutex
	version *ServerVersion
}

// Option configures a Client at construction time.
type Option func(*Client)

// WithHTTPClient replaces the transport. Timeouts and TLS belong to the
// *http.Client passed here, not to this library.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger attaches a logger; requests are logged at debug level. The
// default logger discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithMetrics registers request counters and latency histograms with the
// given registerer.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *Client) { c.metrics = newClientMetrics(reg) }
}

// NewClient creates a client for the toxiproxy server at endpoint, e.g.
// "localhost:8474". A missing scheme defaults to http.
func NewClient(endpoint string, opts ...Option) *Client {
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "http://" + endpoint
	}

	client := &Client{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		http:     http.DefaultClient,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Version fetches the server's version. The result is not cached; use
// Connect for the negotiated session version.
func (c *Client) Version(ctx context.Context) (ServerVersion, error) {
	var body struct {
		Version string `json:"version"`
	}
	err := c.send(ctx, http.MethodGet, "/version", nil, &body,
		http.StatusOK, "version", "")
	if err != nil {
		return ServerVersion{}, err
	}

	version, err := ParseServerVersion(body.Version)
	if err != nil {
		return ServerVersion{}, &RequestError{Op: "version", Err: err}
	}
	return version, nil
}

// Connect negotiates with the server: it fetches the version once, rejects
// servers older than MinimumServerVersion, and records the result for the
// lifetime of the client. Operations that depend on the server version
// call Connect implicitly on first use; calling it up front just fails
// faster.
func (c *Client) Connect(ctx context.Context) (ServerVersion, error) {
	return c.serverVersion(ctx)
}

func (c *Client) serverVersion(ctx context.Context) (ServerVersion, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.version != nil {
		return *c.version, nil
	}

	version, err := c.Version(ctx)
	if err != nil {
		return ServerVersion{}, err
	}
	if !version.AtLeast(MinimumServerVersion) {
		return ServerVersion{}, &UnsupportedVersionError{
			Server:  version,
			Minimum: MinimumServerVersion,
		}
	}

	c.version = &version
	c.log.Debug().Stringer("version", version).Msg("connected")
	return version, nil
}

// NewProxy returns an unsaved proxy bound to this client. Set its fields
// and call Save to create it on the server.
func (c *Client) NewProxy() *Proxy {
	return &Proxy{Enabled: true, client: c}
}

// CreateProxy creates a proxy on the server. It is shorthand for NewProxy,
// field assignment and Save.
func (c *Client) CreateProxy(ctx context.Context, name, listen, upstream string) (*Proxy, error) {
	proxy := c.NewProxy()
	proxy.Name = name
	proxy.Listen = listen
	proxy.Upstream = upstream

	if err := proxy.Save(ctx); err != nil {
		return nil, err
	}
	return proxy, nil
}

// Proxies lists all proxies on the server, keyed by name.
func (c *Client) Proxies(ctx context.Context) (map[string]*Proxy, error) {
	proxies := make(map[string]*Proxy)
	err := c.send(ctx, http.MethodGet, "/proxies", nil, &proxies,
		http.StatusOK, "list proxies", "")
	if err != nil {
		return nil, err
	}

	for _, proxy := range proxies {
		proxy.client = c
		proxy.created = true
	}
	return proxies, nil
}

// Proxy fetches a single proxy by name. A proxy that does not exist yields
// a nil result, not an error.
func (c *Client) Proxy(ctx context.Context, name string) (*Proxy, error) {
	proxy := &Proxy{}
	err := c.send(ctx, http.MethodGet, "/proxies/"+url.PathEscape(name), nil, proxy,
		http.StatusOK, "get proxy", name)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	proxy.client = c
	proxy.created = true
	return proxy, nil
}

// Populate creates a set of proxies in one call. Proxies that already
// exist with the same name, listen and upstream addresses are left
// untouched; mismatched ones are replaced. The returned proxies reflect
// server state.
func (c *Client) Populate(ctx context.Context, proxies []Proxy) ([]*Proxy, error) {
	for i := range proxies {
		if err := validateProxy(&proxies[i]); err != nil {
			return nil, err
		}
	}

	var response struct {
		Proxies []*Proxy `json:"proxies"`
	}
	err := c.send(ctx, http.MethodPost, "/populate", proxies, &response,
		http.StatusCreated, "populate", "")
	if err != nil {
		return nil, err
	}

	for _, proxy := range response.Proxies {
		proxy.client = c
		proxy.created = true
	}
	return response.Proxies, nil
}

// AllToxics lists every toxic on the server, across all proxies.
func (c *Client) AllToxics(ctx context.Context) (Toxics, error) {
	proxies, err := c.Proxies(ctx)
	if err != nil {
		return nil, err
	}

	toxics := make(Toxics, 0)
	for _, proxy := range proxies {
		toxics = append(toxics, proxy.ActiveToxics...)
	}
	return toxics, nil
}

// ResetState re-enables all proxies and removes all toxics on the server.
func (c *Client) ResetState(ctx context.Context) error {
	return c.send(ctx, http.MethodPost, "/reset", nil, nil,
		http.StatusNoContent, "reset", "")
}

func validateProxy(proxy *Proxy) error {
	if err := validate.NonEmpty("Name", proxy.Name); err != nil {
		return err
	}
	if err := validate.Address("Listen", proxy.Listen); err != nil {
		return err
	}
	return validate.Address("Upstream", proxy.Upstream)
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
