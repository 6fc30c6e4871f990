package toxiproxy_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	toxiproxy "github.com/faultline-io/toxiproxy-client"
	"github.com/faultline-io/toxiproxy-client/toxitest"
)

func TestConnectNegotiatesVersion(t *testing.T) {
	t.Parallel()

	server := toxitest.NewServer("2.6.0")
	defer server.Close()

	client := toxiproxy.NewClient(server.URL())
	version, err := client.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2.6.0", version.String())

	// The negotiated version is cached; a second Connect does not hit the
	// server again.
	before := server.RequestCount()
	_, err = client.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, before, server.RequestCount())
}

func TestConnectRejectsOldServer(t *testing.T) {
	t.Parallel()

	server := toxitest.NewServer("1.2.0")
	defer server.Close()

	client := toxiproxy.NewClient(server.URL())
	_, err := client.Connect(context.Background())
	require.Error(t, err)

	var versionErr *toxiproxy.UnsupportedVersionError
	require.True(t, errors.As(err, &versionErr))
	assert.Equal(t, toxiproxy.MinimumServerVersion, versionErr.Minimum)
}

func TestCreateProxyValidation(t *testing.T) {
	t.Parallel()

	server := toxitest.NewServer("2.6.0")
	defer server.Close()

	client := toxiproxy.NewClient(server.URL())
	ctx := context.Background()

	cases := []struct {
		field                  string
		name, listen, upstream string
	}{
		{"Name", "", "127.0.0.1:11111", "example.org:80"},
		{"Listen", "p1", "", "example.org:80"},
		{"Listen", "p1", "10.11.12:80", "example.org:80"},
		{"Upstream", "p1", "127.0.0.1:11111", "example.org:0"},
	}

	for _, tc := range cases {
		_, err := client.CreateProxy(ctx, tc.name, tc.listen, tc.upstream)
		require.Error(t, err)

		var cfgErr *toxiproxy.ConfigError
		require.True(t, errors.As(err, &cfgErr))
		assert.Equal(t, tc.field, cfgErr.Field)
	}

	// Configuration errors are raised before any request is built.
	assert.Equal(t, 0, server.RequestCount())
}

func TestCreateProxyConflict(t *testing.T) {
	t.Parallel()

	server := toxitest.NewServer("2.6.0")
	defer server.Close()

	client := toxiproxy.NewClient(server.URL())
	ctx := context.Background()

	_, err := client.CreateProxy(ctx, "p1", "127.0.0.1:11111", "example.org:80")
	require.NoError(t, err)

	_, err = client.CreateProxy(ctx, "p1", "127.0.0.1:22222", "example.org:80")
	require.Error(t, err)
	assert.True(t, errors.Is(err, toxiproxy.ErrAlreadyExists))
}

func TestProxyAbsence(t *testing.T) {
	t.Parallel()

	server := toxitest.NewServer("2.6.0")
	defer server.Close()

	client := toxiproxy.NewClient(server.URL())

	proxy, err := client.Proxy(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, proxy)
}

func TestProxiesList(t *testing.T) {
	t.Parallel()

	server := toxitest.NewServer("2.6.0")
	defer server.Close()

	client := toxiproxy.NewClient(server.URL())
	ctx := context.Background()

	_, err := client.CreateProxy(ctx, "a", "127.0.0.1:11111", "example.org:80")
	require.NoError(t, err)
	_, err = client.CreateProxy(ctx, "b", "127.0.0.1:22222", "example.org:81")
	require.NoError(t, err)

	proxies, err := client.Proxies(ctx)
	require.NoError(t, err)
	require.Len(t, proxies, 2)
	assert.Equal(t, "127.0.0.1:11111", proxies["a"].Listen)
	assert.Equal(t, "127.0.0.1:22222", proxies["b"].Listen)
}

func TestPopulate(t *testing.T) {
	t.Parallel()

	server := toxitest.NewServer("2.6.0")
	defer server.Close()

	client := toxiproxy.NewClient(server.URL())

	proxies, err := client.Populate(context.Background(), []toxiproxy.Proxy{
		{Name: "one", Listen: "127.0.0.1:11111", Upstream: "example.org:80", Enabled: true},
		{Name: "two", Listen: "127.0.0.1:22222", Upstream: "example.org:81", Enabled: true},
	})
	require.NoError(t, err)
	require.Len(t, proxies, 2)

	// Returned proxies are live: mutations round trip to the server.
	require.NoError(t, proxies[0].Disable(context.Background()))
	fetched, err := client.Proxy(context.Background(), "one")
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.False(t, fetched.Enabled)
}

func TestResetState(t *testing.T) {
	t.Parallel()

	server := toxitest.NewServer("2.6.0")
	defer server.Close()

	client := toxiproxy.NewClient(server.URL())
	ctx := context.Background()

	proxy, err := client.CreateProxy(ctx, "p1", "127.0.0.1:11111", "example.org:80")
	require.NoError(t, err)
	require.NoError(t, proxy.Disable(ctx))
	_, err = proxy.AddToxic(ctx, "", "", 1.0, &latency1000)
	require.NoError(t, err)

	require.NoError(t, client.ResetState(ctx))

	fetched, err := client.Proxy(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.True(t, fetched.Enabled)
	assert.Empty(t, fetched.ActiveToxics)
}

func TestRequestCancellation(t *testing.T) {
	t.Parallel()

	server := toxitest.NewServer("2.6.0")
	defer server.Close()

	client := toxiproxy.NewClient(server.URL())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Proxies(ctx)
	require.Error(t, err)

	var reqErr *toxiproxy.RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestClientHeaders(t *testing.T) {
	t.Parallel()

	expected := "toxiproxy-cli/1.0.0 (linux/amd64)"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != expected {
			t.Errorf("User-Agent for %s %s: want %q, got %q", r.Method, r.URL, expected, ua)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type for %s %s: want application/json, got %q", r.Method, r.URL, ct)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := toxiproxy.NewClient(server.URL)
	client.UserAgent = expected

	ctx := context.Background()
	client.Version(ctx)
	client.Proxies(ctx)
	client.Proxy(ctx, "foo")
}
