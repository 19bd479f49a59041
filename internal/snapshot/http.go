package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// HTTPConfig configures a source that pulls records from an upstream QA
// system's REST export.
type HTTPConfig struct {
	BaseURL string
	// Token is sent as a bearer token when set.
	Token string
	// CacheTTL keeps responses for repeated reloads. Zero disables caching.
	CacheTTL time.Duration
	Timeout  time.Duration
}

// Collection paths under the base URL.
const (
	pathDefects     = "/api/defects"
	pathOrders      = "/api/orders"
	pathWashRecipes = "/api/wash-recipes"
	pathDefectTypes = "/api/defect-types"
)

// HTTPSource loads the four collections concurrently.
type HTTPSource struct {
	cfg        HTTPConfig
	httpClient *http.Client

	cacheMutex sync.Mutex
	cache      map[string]*cacheEntry
}

type cacheEntry struct {
	body       []byte
	expiration time.Time
}

// NewHTTPSource creates an HTTP source.
func NewHTTPSource(cfg HTTPConfig) (*HTTPSource, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("http snapshot source requires a base URL")
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout == 0 {
		cfg.Timeout = 90 * time.Second
	}
	return &HTTPSource{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cache:      make(map[string]*cacheEntry),
	}, nil
}

func (h *HTTPSource) Describe() string { return h.cfg.BaseURL }

// Load fetches every collection; any failure fails the load.
func (h *HTTPSource) Load(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return h.fetch(ctx, pathDefects, &snap.Defects) })
	g.Go(func() error { return h.fetch(ctx, pathOrders, &snap.Orders) })
	g.Go(func() error { return h.fetch(ctx, pathWashRecipes, &snap.WashRecipes) })
	g.Go(func() error { return h.fetch(ctx, pathDefectTypes, &snap.DefectTypes) })
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func (h *HTTPSource) fetch(ctx context.Context, path string, into any) error {
	body, err := h.get(ctx, path)
	if err != nil {
		return err
	}
	if err := decodeCollection(body, into); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

func (h *HTTPSource) get(ctx context.Context, path string) ([]byte, error) {
	if body, ok := h.getFromCache(path); ok {
		return body, nil
	}

	url := h.cfg.BaseURL + path
	log.Debug().Str("url", url).Msg("Requesting records")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if h.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+h.cfg.Token)
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return nil, fmt.Errorf("upstream authentication failed (%d) for %s: check the token", resp.StatusCode, path)
		case http.StatusTooManyRequests:
			if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
				return nil, fmt.Errorf("upstream rate limit exceeded (429) for %s: retry after %s seconds", path, retryAfter)
			}
			return nil, fmt.Errorf("upstream rate limit exceeded (429) for %s", path)
		default:
			return nil, fmt.Errorf("upstream returned status %d for %s", resp.StatusCode, path)
		}
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	h.addToCache(path, buf.Bytes())
	return buf.Bytes(), nil
}

func (h *HTTPSource) getFromCache(key string) ([]byte, bool) {
	if h.cfg.CacheTTL <= 0 {
		return nil, false
	}
	h.cacheMutex.Lock()
	defer h.cacheMutex.Unlock()

	entry, ok := h.cache[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiration) {
		delete(h.cache, key)
		return nil, false
	}
	log.Debug().Str("key", key).Msg("Cache hit")
	return entry.body, true
}

func (h *HTTPSource) addToCache(key string, body []byte) {
	if h.cfg.CacheTTL <= 0 {
		return
	}
	h.cacheMutex.Lock()
	defer h.cacheMutex.Unlock()
	h.cache[key] = &cacheEntry{body: body, expiration: time.Now().Add(h.cfg.CacheTTL)}
}

// decodeCollection accepts a bare JSON array or a {"success":..,"data":[..]}
// envelope.
func decodeCollection(body []byte, into any) error {
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '{' {
		var env struct {
			Success *bool           `json:"success"`
			Data    json.RawMessage `json:"data"`
			Message string          `json:"message"`
		}
		if err := json.Unmarshal(body, &env); err != nil {
			return err
		}
		if env.Success != nil && !*env.Success {
			return fmt.Errorf("upstream error: %s", env.Message)
		}
		body = env.Data
	}
	if len(body) == 0 || string(body) == "null" {
		return nil
	}
	return json.Unmarshal(body, into)
}
