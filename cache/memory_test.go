package cache

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"jobflow/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_TTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)
	c := NewMemoryCache()
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "balance:1", []byte("a"), time.Minute))
	require.NoError(t, c.Set(ctx, "forever", []byte("b"), 0))

	got, err := c.Get(ctx, "balance:1")
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), got)

	now = now.Add(time.Minute)
	_, err = c.Get(ctx, "balance:1")
	assert.ErrorIs(t, err, ErrMiss)
	assert.Equal(t, 1, c.Len())

	_, err = c.Get(ctx, "forever")
	assert.NoError(t, err)
}

func TestMemoryCache_ExpiryKeepsNewerSet(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)
	c := NewMemoryCache()
	c.now = func() time.Time { return now }
	require.NoError(t, c.Set(ctx, "balance:1", []byte("old"), time.Minute))
	now = now.Add(time.Minute)

	// a Set lands after Get saw the expired item but before it deletes it
	replaced := false
	c.now = func() time.Time {
		if !replaced {
			replaced = true
			require.NoError(t, c.Set(ctx, "balance:1", []byte("new"), time.Hour))
		}
		return now
	}

	_, err := c.Get(ctx, "balance:1")
	assert.ErrorIs(t, err, ErrMiss)

	got, err := c.Get(ctx, "balance:1")
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), got)
}

func TestMemoryCache_DeletePrefix(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	for _, k := range []string{"balance:1:a", "balance:1:b", "balance:2:a"} {
		require.NoError(t, c.Set(ctx, k, []byte("x"), 0))
	}

	require.NoError(t, c.DeletePrefix(ctx, "balance:1:"))
	assert.Equal(t, 1, c.Len())

	require.NoError(t, c.Delete(ctx, "balance:2:a", "missing"))
	assert.Equal(t, 0, c.Len())
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	type payload struct {
		Hours float64 `json:"hours"`
	}

	var out payload
	hit, err := GetJSON(ctx, c, "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, SetJSON(ctx, c, "k", payload{Hours: 7.5}, time.Minute))
	hit, err = GetJSON(ctx, c, "k", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 7.5, out.Hours)

	require.NoError(t, c.Set(ctx, "bad", []byte("{"), 0))
	_, err = GetJSON(ctx, c, "bad", &out)
	assert.Error(t, err)
}

func TestWithMetrics(t *testing.T) {
	ctx := context.Background()
	m := metrics.New()
	c := WithMetrics(NewMemoryCache(), m)

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	_, err = c.Get(ctx, "k")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "jobflow_cache_hits_total 1")
	assert.Contains(t, rec.Body.String(), "jobflow_cache_misses_total 1")
}
