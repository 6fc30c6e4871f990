package toxiproxy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// send issues one HTTP round trip against the server and decodes the
// response. in, when non-nil, is marshaled as the JSON request body; out,
// when non-nil, receives the decoded response body. A response status
// other than expect is classified into the client's error taxonomy and
// wrapped with the operation and resource for diagnosability.
func (c *Client) send(
	ctx context.Context,
	method, path string,
	in, out interface{},
	expect int,
	op, resource string,
) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return &RequestError{Op: op, Resource: resource, Err: err}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, body)
	if err != nil {
		return &RequestError{Op: op, Resource: resource, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.log.Debug().Err(err).Str("method", method).Str("path", path).
			Msg("request failed")
		c.metrics.observe(op, 0, elapsed)
		return &RequestError{Op: op, Resource: resource, Err: err}
	}
	defer resp.Body.Close()

	c.log.Debug().Str("method", method).Str("path", path).
		Int("status", resp.StatusCode).Dur("elapsed", elapsed).
		Msg("request")
	c.metrics.observe(op, resp.StatusCode, elapsed)

	if resp.StatusCode != expect {
		return &RequestError{Op: op, Resource: resource, Err: classify(resp)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &RequestError{
				Op:       op,
				Resource: resource,
				Err:      fmt.Errorf("decoding response: %w", err),
			}
		}
	}
	return nil
}

// classify turns an unexpected response status into a typed error. 404 and
// 409 are folded onto the ErrNotFound and ErrAlreadyExists sentinels so
// callers can branch with errors.Is instead of matching message strings.
func classify(resp *http.Response) error {
	apiErr := &ApiError{}
	if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	if apiErr.Status == 0 {
		apiErr.Status = resp.StatusCode
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, apiErr.Message)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", ErrAlreadyExists, apiErr.Message)
	default:
		return apiErr
	}
}

// updateVerb picks the HTTP verb for updating an existing resource. The
// wire protocol switched from POST to PATCH at patchUpdateVersion; an old
// server answers PATCH with 405 and a new one deprecates POST, so the verb
// has to follow the version the server declared at connect time.
func (c *Client) updateVerb(ctx context.Context) (string, error) {
	version, err := c.serverVersion(ctx)
	if err != nil {
		return "", err
	}
	if version.AtLeast(patchUpdateVersion) {
		return http.MethodPatch, nil
	}
	return http.MethodPost, nil
}
