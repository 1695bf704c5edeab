package kevals

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ukwa/kevals.go/pkg/constants"
)

func TestNew(t *testing.T) {
	c, err := New("http://localhost:8983/solr/tracking/")
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8983/solr/tracking", c.BaseURL())
	require.Equal(t, constants.DefaultBatchSize, c.BatchSize())
	require.True(t, c.asUpdates)
	require.Nil(t, c.limiter)

	c, err = New("https://solr.example.org/solr/t", WithBatchSize(10), WithAsUpdates(false), WithBatchRate(5, 0))
	require.NoError(t, err)
	require.Equal(t, 10, c.BatchSize())
	require.False(t, c.asUpdates)
	require.NotNil(t, c.limiter)
	require.Equal(t, 1, c.limiter.Burst())
}

func TestNewRequiresBaseURL(t *testing.T) {
	for _, u := range []string{"", "   "} {
		c, err := New(u)
		require.Nil(t, c)
		require.ErrorIs(t, err, ErrNoBaseURL)
	}
}

func TestNewRejectsInvalidBaseURL(t *testing.T) {
	for _, u := range []string{"localhost:8983/solr", "ftp://solr/x", "http://", "http://%zz"} {
		_, err := New(u)
		require.ErrorIs(t, err, constants.ErrInvalidBaseURL, u)
	}
}

func TestNewRejectsInvalidBatchSize(t *testing.T) {
	for _, n := range []int{0, -1} {
		_, err := New("http://localhost:8983/solr/tracking", WithBatchSize(n))
		require.ErrorIs(t, err, ErrInvalidBatchSize)
	}
}

func TestHTTPClientFor(t *testing.T) {
	require.Nil(t, httpClientFor(nil, 0))
	require.Equal(t, 5*time.Second, httpClientFor(nil, 5*time.Second).Timeout)

	own := &http.Client{Timeout: time.Minute}
	require.Same(t, own, httpClientFor(own, 0))

	copied := httpClientFor(own, time.Second)
	require.NotSame(t, own, copied)
	require.Equal(t, time.Second, copied.Timeout)
	require.Equal(t, time.Minute, own.Timeout)
}
