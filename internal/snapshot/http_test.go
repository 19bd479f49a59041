package snapshot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUpstream(t *testing.T, token string, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	snap := sample()
	bodies := map[string]any{
		pathDefects:     map[string]any{"success": true, "data": snap.Defects},
		pathOrders:      snap.Orders,
		pathWashRecipes: map[string]any{"success": true, "data": snap.WashRecipes},
		pathDefectTypes: snap.DefectTypes,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		body, ok := bodies[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPSource_Load(t *testing.T) {
	var hits atomic.Int32
	srv := newUpstream(t, "s3cret", &hits)

	src, err := NewHTTPSource(HTTPConfig{BaseURL: srv.URL + "/", Token: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, srv.URL, src.Describe())

	snap, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Defects, 3)
	assert.Len(t, snap.Orders, 2)
	assert.Len(t, snap.WashRecipes, 2)
	assert.Equal(t, "laundry Defects", snap.DefectTypes[0].Name)
	assert.EqualValues(t, 4, hits.Load())
}

func TestHTTPSource_Cache(t *testing.T) {
	var hits atomic.Int32
	srv := newUpstream(t, "", &hits)

	src, err := NewHTTPSource(HTTPConfig{BaseURL: srv.URL, CacheTTL: time.Minute})
	require.NoError(t, err)

	for range 3 {
		_, err := src.Load(context.Background())
		require.NoError(t, err)
	}
	assert.EqualValues(t, 4, hits.Load(), "cached collections should not be refetched")
}

func TestHTTPSource_Errors(t *testing.T) {
	var hits atomic.Int32
	srv := newUpstream(t, "s3cret", &hits)

	src, err := NewHTTPSource(HTTPConfig{BaseURL: srv.URL, Token: "wrong"})
	require.NoError(t, err)
	_, err = src.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "authentication failed")

	_, err = NewHTTPSource(HTTPConfig{})
	assert.Error(t, err)
}

func TestDecodeCollection(t *testing.T) {
	var out []string
	require.NoError(t, decodeCollection([]byte(`["a","b"]`), &out))
	assert.Equal(t, []string{"a", "b"}, out)

	out = nil
	require.NoError(t, decodeCollection([]byte(`{"success":true,"data":["c"]}`), &out))
	assert.Equal(t, []string{"c"}, out)

	err := decodeCollection([]byte(`{"success":false,"message":"maintenance"}`), &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maintenance")
}

func TestOpenSource_HTTP(t *testing.T) {
	var hits atomic.Int32
	srv := newUpstream(t, "", &hits)

	src, err := OpenSource(context.Background(), SourceConfig{Driver: DriverHTTP, HTTP: HTTPConfig{BaseURL: srv.URL}})
	require.NoError(t, err)

	store := NewStore(src)
	require.NoError(t, store.Reload(context.Background()))
	assert.Equal(t, 3, store.Counts().Orders, "embedded order is promoted after an HTTP load")
}
