package toxiproxy_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	toxiproxy "github.com/faultline-io/toxiproxy-client"
	"github.com/faultline-io/toxiproxy-client/toxics"
	"github.com/faultline-io/toxiproxy-client/toxitest"
)

var latency1000 = toxics.Latency{Latency: 1000, Jitter: 10}

func setup(t *testing.T, version string) (*toxitest.Server, *toxiproxy.Client, *toxiproxy.Proxy) {
	t.Helper()

	server := toxitest.NewServer(version)
	t.Cleanup(server.Close)

	client := toxiproxy.NewClient(server.URL())
	proxy, err := client.CreateProxy(context.Background(),
		"p1", "127.0.0.1:11111", "example.org:80")
	require.NoError(t, err)

	return server, client, proxy
}

func TestAddAndFetchToxic(t *testing.T) {
	t.Parallel()

	_, _, proxy := setup(t, "2.6.0")
	ctx := context.Background()

	created, err := proxy.AddToxic(ctx, "", "", 1.0, &latency1000)
	require.NoError(t, err)
	assert.Equal(t, "latency_downstream", created.Name)
	assert.Equal(t, "latency", created.Type)
	assert.Equal(t, "downstream", created.Stream)

	fetched, ok, err := toxiproxy.GetToxic[*toxics.Latency](ctx, proxy, "latency_downstream")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(1000), fetched.Latency)
	assert.Equal(t, int64(10), fetched.Jitter)
}

func TestGetToxicWrongShape(t *testing.T) {
	t.Parallel()

	_, _, proxy := setup(t, "2.6.0")
	ctx := context.Background()

	_, err := proxy.AddToxic(ctx, "lat", "", 1.0, &latency1000)
	require.NoError(t, err)

	_, _, err = toxiproxy.GetToxic[*toxics.Bandwidth](ctx, proxy, "lat")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot cast")
}

func TestGetToxicAbsent(t *testing.T) {
	t.Parallel()

	_, _, proxy := setup(t, "2.6.0")

	_, ok, err := toxiproxy.GetToxic[*toxics.Latency](context.Background(), proxy, "ghost")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEnableDisable(t *testing.T) {
	t.Parallel()

	_, client, proxy := setup(t, "2.6.0")
	ctx := context.Background()

	require.NoError(t, proxy.Disable(ctx))
	fetched, err := client.Proxy(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.False(t, fetched.Enabled)

	require.NoError(t, proxy.Enable(ctx))
	fetched, err = client.Proxy(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.True(t, fetched.Enabled)
}

func TestSetListenAndUpstream(t *testing.T) {
	t.Parallel()

	_, client, proxy := setup(t, "2.6.0")
	ctx := context.Background()

	require.NoError(t, proxy.SetListen(ctx, "127.0.0.1:22222"))
	require.NoError(t, proxy.SetUpstream(ctx, "example.net:81"))

	fetched, err := client.Proxy(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.Equal(t, "127.0.0.1:22222", fetched.Listen)
	assert.Equal(t, "example.net:81", fetched.Upstream)

	err = proxy.SetListen(ctx, "10.11.12:80")
	var cfgErr *toxiproxy.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "Listen", cfgErr.Field)
	// The local field is untouched on a validation failure.
	assert.Equal(t, "127.0.0.1:22222", proxy.Listen)
}

func TestUpdateVerbDispatch(t *testing.T) {
	t.Parallel()

	cases := []struct {
		version string
		verb    string
	}{
		{"2.5.0", "POST"},
		{"2.6.0", "PATCH"},
		{"2.9.1", "PATCH"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.version, func(t *testing.T) {
			t.Parallel()

			server, _, proxy := setup(t, tc.version)
			require.NoError(t, proxy.Disable(context.Background()))

			var updates []toxitest.Request
			for _, r := range server.Requests() {
				if r.Path == "/proxies/p1" && r.Method != "GET" {
					updates = append(updates, r)
				}
			}
			require.Len(t, updates, 1)
			assert.Equal(t, tc.verb, updates[0].Method)
		})
	}
}

func TestUpdateToxicVerbDispatch(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		version string
		verb    string
	}{
		{"2.5.0", "POST"},
		{"2.7.0", "PATCH"},
	} {
		tc := tc
		t.Run(tc.version, func(t *testing.T) {
			t.Parallel()

			server, _, proxy := setup(t, tc.version)
			ctx := context.Background()

			_, err := proxy.AddToxic(ctx, "lat", "", 1.0, &latency1000)
			require.NoError(t, err)

			updated, err := proxy.UpdateToxic(ctx, "lat", -1,
				toxiproxy.Attributes{"jitter": float64(25)})
			require.NoError(t, err)
			assert.Equal(t, float32(1.0), updated.Toxicity)

			var verbs []string
			for _, r := range server.Requests() {
				if r.Path == "/proxies/p1/toxics/lat" {
					verbs = append(verbs, r.Method)
				}
			}
			require.Len(t, verbs, 1)
			assert.Equal(t, tc.verb, verbs[0])
		})
	}
}

func TestAddToxicValidation(t *testing.T) {
	t.Parallel()

	server, _, proxy := setup(t, "2.6.0")
	ctx := context.Background()
	before := server.RequestCount()

	_, err := proxy.AddToxic(ctx, "", "", 1.5, &latency1000)
	var cfgErr *toxiproxy.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "Toxicity", cfgErr.Field)

	_, err = proxy.AddToxic(ctx, "", "sideways", 1.0, &latency1000)
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "Stream", cfgErr.Field)

	_, err = proxy.AddToxic(ctx, "", "", 1.0,
		&toxics.Slicer{AverageSize: 10, SizeVariation: 20})
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "SizeVariation", cfgErr.Field)

	assert.Equal(t, before, server.RequestCount())
}

func TestAddToxicConflict(t *testing.T) {
	t.Parallel()

	_, _, proxy := setup(t, "2.6.0")
	ctx := context.Background()

	_, err := proxy.AddToxic(ctx, "lat", "", 1.0, &latency1000)
	require.NoError(t, err)

	_, err = proxy.AddToxic(ctx, "lat", "", 1.0, &latency1000)
	require.Error(t, err)
	assert.True(t, errors.Is(err, toxiproxy.ErrAlreadyExists))
}

func TestRemoveToxicIdempotent(t *testing.T) {
	t.Parallel()

	_, _, proxy := setup(t, "2.6.0")

	assert.NoError(t, proxy.RemoveToxic(context.Background(), "never-existed"))
}

func TestRemoveToxicRefreshesList(t *testing.T) {
	t.Parallel()

	_, _, proxy := setup(t, "2.6.0")
	ctx := context.Background()

	_, err := proxy.AddToxic(ctx, "lat", "", 1.0, &latency1000)
	require.NoError(t, err)
	_, err = proxy.AddToxic(ctx, "band", "upstream", 1.0, &toxics.Bandwidth{Rate: 100})
	require.NoError(t, err)

	require.NoError(t, proxy.RemoveToxic(ctx, "lat"))
	require.Len(t, proxy.ActiveToxics, 1)
	assert.Equal(t, "band", proxy.ActiveToxics[0].Name)
}

func TestRemoveAllToxics(t *testing.T) {
	t.Parallel()

	_, _, proxy := setup(t, "2.6.0")
	ctx := context.Background()

	_, err := proxy.AddToxic(ctx, "", "", 1.0, &latency1000)
	require.NoError(t, err)
	_, err = proxy.AddToxic(ctx, "", "upstream", 1.0, &toxics.Bandwidth{Rate: 100})
	require.NoError(t, err)
	_, err = proxy.AddToxic(ctx, "", "", 0.5, &toxics.Timeout{Timeout: 100})
	require.NoError(t, err)

	require.NoError(t, proxy.RemoveAllToxics(ctx))
	assert.Empty(t, proxy.ActiveToxics)
}

func TestDeletedProxyOperationsFail(t *testing.T) {
	t.Parallel()

	_, _, proxy := setup(t, "2.6.0")
	ctx := context.Background()

	require.NoError(t, proxy.Delete(ctx))

	assert.ErrorIs(t, proxy.Enable(ctx), toxiproxy.ErrProxyDeleted)
	_, err := proxy.Toxics(ctx)
	assert.ErrorIs(t, err, toxiproxy.ErrProxyDeleted)
	_, err = proxy.AddToxic(ctx, "", "", 1.0, &latency1000)
	assert.ErrorIs(t, err, toxiproxy.ErrProxyDeleted)

	// Deleting twice is fine; so is deleting a proxy someone else already
	// removed.
	assert.NoError(t, proxy.Delete(ctx))
}

func TestDeleteAbsentProxyIdempotent(t *testing.T) {
	t.Parallel()

	_, client, proxy := setup(t, "2.6.0")
	ctx := context.Background()

	other, err := client.Proxy(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, other)
	require.NoError(t, other.Delete(ctx))

	// The server no longer has p1, but deleting through the stale handle
	// still succeeds.
	assert.NoError(t, proxy.Delete(ctx))
}
