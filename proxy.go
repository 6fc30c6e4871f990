package toxiproxy

import (
	"context"
	"net/http"
	"net/url"
	"sync"

	"github.com/faultline-io/toxiproxy-client/toxics"
	"github.com/faultline-io/toxiproxy-client/validate"
)

// Proxy is the client-side view of one proxy resource on the server. The
// server copy is authoritative: every mutation here is a full round trip,
// and the local fields are refreshed from the response. Enable, Disable,
// SetListen and SetUpstream set the local field before the round trip; if
// the call fails the optimistic local value is kept, and the caller should
// re-fetch to learn the actual server state.
type Proxy struct {
	Name     string `json:"name"`     // The name of the proxy
	Listen   string `json:"listen"`   // The address the proxy listens on
	Upstream string `json:"upstream"` // The upstream address to proxy to
	Enabled  bool   `json:"enabled"`  // Whether the proxy is enabled

	ActiveToxics Toxics `json:"toxics,omitempty"` // The toxics active on this proxy

	client  *Client
	created bool // True if this proxy exists on the server
	deleted bool
}

func (p *Proxy) path() string {
	return "/proxies/" + url.PathEscape(p.Name)
}

func (p *Proxy) guard() error {
	if p.deleted {
		return ErrProxyDeleted
	}
	return nil
}

// Save validates the proxy and writes it to the server: a create for a
// proxy the server has not seen yet, otherwise a full-resource update
// using the verb the server's version calls for.
func (p *Proxy) Save(ctx context.Context) error {
	if err := p.guard(); err != nil {
		return err
	}
	if err := validateProxy(p); err != nil {
		return err
	}

	if !p.created {
		err := p.client.send(ctx, http.MethodPost, "/proxies", p, p,
			http.StatusCreated, "create proxy", p.Name)
		if err != nil {
			return err
		}
		p.created = true
		return nil
	}

	verb, err := p.client.updateVerb(ctx)
	if err != nil {
		return err
	}
	return p.client.send(ctx, verb, p.path(), p, p,
		http.StatusOK, "update proxy", p.Name)
}

// Enable a proxy again after it has been disabled.
func (p *Proxy) Enable(ctx context.Context) error {
	p.Enabled = true
	return p.Save(ctx)
}

// Disable a proxy so that no connections can pass through. This drops all
// active connections.
func (p *Proxy) Disable(ctx context.Context) error {
	p.Enabled = false
	return p.Save(ctx)
}

// SetListen moves the proxy to a new listen address.
func (p *Proxy) SetListen(ctx context.Context, listen string) error {
	if err := validate.Address("Listen", listen); err != nil {
		return err
	}
	p.Listen = listen
	return p.Save(ctx)
}

// SetUpstream points the proxy at a new upstream address.
func (p *Proxy) SetUpstream(ctx context.Context, upstream string) error {
	if err := validate.Address("Upstream", upstream); err != nil {
		return err
	}
	p.Upstream = upstream
	return p.Save(ctx)
}

// Delete removes the proxy from the server and closes all connections
// through it. Deleting a proxy that is already gone is not an error.
// Every other operation on a deleted proxy fails with ErrProxyDeleted.
func (p *Proxy) Delete(ctx context.Context) error {
	if p.deleted {
		return nil
	}

	err := p.client.send(ctx, http.MethodDelete, p.path(), nil, nil,
		http.StatusNoContent, "delete proxy", p.Name)
	if err != nil && !isNotFound(err) {
		return err
	}
	p.deleted = true
	return nil
}

// Toxics fetches the authoritative toxic list for this proxy and refreshes
// the local copy.
func (p *Proxy) Toxics(ctx context.Context) (Toxics, error) {
	if err := p.guard(); err != nil {
		return nil, err
	}

	list := make(Toxics, 0)
	err := p.client.send(ctx, http.MethodGet, p.path()+"/toxics", nil, &list,
		http.StatusOK, "list toxics", p.Name)
	if err != nil {
		return nil, err
	}

	p.ActiveToxics = list
	return list, nil
}

// Toxic fetches one toxic by name. Absence yields a nil record, not an
// error.
func (p *Proxy) Toxic(ctx context.Context, name string) (*Toxic, error) {
	if err := p.guard(); err != nil {
		return nil, err
	}

	record := &Toxic{}
	err := p.client.send(ctx, http.MethodGet,
		p.path()+"/toxics/"+url.PathEscape(name), nil, record,
		http.StatusOK, "get toxic", name)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return record, nil
}

// AddToxic validates the typed toxic and creates it on the given stream
// direction of this proxy. An empty name defaults to "<type>_<stream>" and
// an empty stream to downstream; toxicity is the [0, 1] probability the
// toxic applies to a connection. A name collision surfaces as
// ErrAlreadyExists. On success the server's record is appended to the
// local toxic list.
func (p *Proxy) AddToxic(
	ctx context.Context,
	name, stream string,
	toxicity float32,
	toxic toxics.Toxic,
) (*Toxic, error) {
	if err := p.guard(); err != nil {
		return nil, err
	}

	if stream == "" {
		stream = Downstream
	}
	if err := validate.Stream("Stream", stream); err != nil {
		return nil, err
	}
	if err := validate.Toxicity("Toxicity", toxicity); err != nil {
		return nil, err
	}
	if err := toxic.Validate(); err != nil {
		return nil, err
	}
	if name == "" {
		name = toxic.Kind() + "_" + stream
	}

	record := &Toxic{
		Name:       name,
		Type:       toxic.Kind(),
		Stream:     stream,
		Toxicity:   toxicity,
		Attributes: toxics.Encode(toxic),
	}

	result := &Toxic{}
	err := p.client.send(ctx, http.MethodPost, p.path()+"/toxics", record, result,
		http.StatusOK, "add toxic", name)
	if err != nil {
		return nil, err
	}

	p.ActiveToxics = append(p.ActiveToxics, *result)
	return result, nil
}

// UpdateToxic rewrites the parameters of an existing toxic. A toxicity of
// -1 keeps the server's current value. The verb follows the server version
// the same way proxy updates do.
func (p *Proxy) UpdateToxic(
	ctx context.Context,
	name string,
	toxicity float32,
	attrs Attributes,
) (*Toxic, error) {
	if err := p.guard(); err != nil {
		return nil, err
	}

	body := map[string]interface{}{
		"attributes": attrs,
	}
	if toxicity != -1 {
		if err := validate.Toxicity("Toxicity", toxicity); err != nil {
			return nil, err
		}
		body["toxicity"] = toxicity
	}

	verb, err := p.client.updateVerb(ctx)
	if err != nil {
		return nil, err
	}

	result := &Toxic{}
	err = p.client.send(ctx, verb,
		p.path()+"/toxics/"+url.PathEscape(name), body, result,
		http.StatusOK, "update toxic", name)
	if err != nil {
		return nil, err
	}

	for i := range p.ActiveToxics {
		if p.ActiveToxics[i].Name == result.Name {
			p.ActiveToxics[i] = *result
		}
	}
	return result, nil
}

// RemoveToxic removes the toxic with the given name. Removing a name that
// does not exist is not an error. The local toxic list is refreshed from
// the server afterwards rather than filtered in place, so concurrent
// external changes are not papered over.
func (p *Proxy) RemoveToxic(ctx context.Context, name string) error {
	if err := p.guard(); err != nil {
		return err
	}

	if err := p.deleteToxic(ctx, name); err != nil {
		return err
	}
	_, err := p.Toxics(ctx)
	return err
}

// RemoveAllToxics removes every toxic on the proxy, one delete per toxic
// issued concurrently. The operation is not atomic: on failure some toxics
// may already be gone, and the first error is reported.
func (p *Proxy) RemoveAllToxics(ctx context.Context) error {
	list, err := p.Toxics(ctx)
	if err != nil {
		return err
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for _, toxic := range list {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			if err := p.deleteToxic(ctx, name); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}(toxic.Name)
	}
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	_, err = p.Toxics(ctx)
	return err
}

func (p *Proxy) deleteToxic(ctx context.Context, name string) error {
	err := p.client.send(ctx, http.MethodDelete,
		p.path()+"/toxics/"+url.PathEscape(name), nil, nil,
		http.StatusNoContent, "remove toxic", name)
	if err != nil && !isNotFound(err) {
		return err
	}
	return nil
}
