package validate_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faultline-io/toxiproxy-client/validate"
)

func TestAddressValid(t *testing.T) {
	t.Parallel()

	for _, addr := range []string{
		"127.0.0.1:11111",
		"10.0.0.1:65535",
		"example.org:80",
		"localhost:8474",
		"foo-bar.example.com:1",
		"a.b.c.example:443",
	} {
		assert.NoError(t, validate.Address("Listen", addr), addr)
	}
}

func TestAddressInvalid(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		addr string
	}{
		{"empty", ""},
		{"missing port", "127.0.0.1"},
		{"missing host", ":80"},
		{"port zero", "example.org:0"},
		{"port too large", "example.org:65536"},
		{"port not numeric", "example.org:http"},
		{"too many segments", "example.org:80:81"},
		{"non-canonical ipv4", "10.11.12:80"},
		{"ipv4 octet out of range", "256.1.1.1:80"},
		{"hostname leading dash", "-foo.example:80"},
		{"hostname illegal char", "foo_bar.example:80"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := validate.Address("Listen", tc.addr)
			require.Error(t, err)

			var cfgErr *validate.Error
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, "Listen", cfgErr.Field)
		})
	}
}

func TestToxicity(t *testing.T) {
	t.Parallel()

	for _, v := range []float32{0.0, 0.5, 1.0} {
		assert.NoError(t, validate.Toxicity("Toxicity", v))
	}
	for _, v := range []float32{-0.01, -1, 1.01, 2} {
		err := validate.Toxicity("Toxicity", v)
		require.Error(t, err)

		var cfgErr *validate.Error
		require.True(t, errors.As(err, &cfgErr))
		assert.Equal(t, "Toxicity", cfgErr.Field)
	}
}

func TestNonNegative(t *testing.T) {
	t.Parallel()

	assert.NoError(t, validate.NonNegative("Rate", 0))
	assert.NoError(t, validate.NonNegative("Rate", 100))

	err := validate.NonNegative("Rate", -1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Rate")
}

func TestStream(t *testing.T) {
	t.Parallel()

	assert.NoError(t, validate.Stream("Stream", "upstream"))
	assert.NoError(t, validate.Stream("Stream", "downstream"))
	assert.Error(t, validate.Stream("Stream", "sideways"))
	assert.Error(t, validate.Stream("Stream", ""))
}
