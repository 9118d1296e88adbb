package fetch

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/paulmach/orb/maptile"

	"tilestitch/internal/provider"
	"tilestitch/internal/ratelimit"
)

func testProvider(baseURL string) provider.Provider {
	return provider.Provider{
		Name:        "test",
		URLTemplate: baseURL + "/{z}/{x}/{y}.png",
		TileExt:     "png",
	}
}

func TestFetchTile(t *testing.T) {
	var gotUA, gotAuth, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		w.Write([]byte("tile-data"))
	}))
	defer srv.Close()

	c := NewClient("", time.Second, nil, nil)
	data, err := c.FetchTile(context.Background(), testProvider(srv.URL), "", maptile.New(534, 356, 10))
	if err != nil {
		t.Fatalf("FetchTile: %v", err)
	}

	if !bytes.Equal(data, []byte("tile-data")) {
		t.Errorf("body = %q", data)
	}
	if gotPath != "/10/534/356.png" {
		t.Errorf("path = %q, want /10/534/356.png", gotPath)
	}
	if gotUA != DefaultUserAgent {
		t.Errorf("User-Agent = %q", gotUA)
	}
	if gotAuth != "" {
		t.Errorf("unexpected Authorization header %q", gotAuth)
	}
}

func TestFetchTileBearerAuth(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := NewClient("", time.Second, nil, nil)
	if _, err := c.FetchTile(context.Background(), testProvider(srv.URL), "secret", maptile.New(0, 0, 0)); err != nil {
		t.Fatalf("FetchTile: %v", err)
	}

	if gotAuth != "Bearer secret" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer secret")
	}
}

func TestFetchTileNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewClient("", time.Second, nil, nil)
	if _, err := c.FetchTile(context.Background(), testProvider(srv.URL), "", maptile.New(0, 0, 0)); err == nil {
		t.Error("non-200 response did not produce an error")
	}
}

func TestFetchTileRecordsRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	limiter := ratelimit.NewLimiter(0, nil)
	c := NewClient("", time.Second, limiter, nil)

	if _, err := c.FetchTile(context.Background(), testProvider(srv.URL), "", maptile.New(0, 0, 0)); err == nil {
		t.Fatal("429 response did not produce an error")
	}
	if !limiter.IsRateLimited("test") {
		t.Error("429 response not recorded as rate limit")
	}
}

func TestFetchTileClearsRateLimitOnSuccess(t *testing.T) {
	var requests int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&requests, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	limiter := ratelimit.NewLimiter(0, nil)
	c := NewClient("", time.Second, limiter, nil)
	p := testProvider(srv.URL)

	if _, err := c.FetchTile(context.Background(), p, "", maptile.New(0, 0, 0)); err == nil {
		t.Fatal("429 response did not produce an error")
	}
	if !limiter.IsRateLimited("test") {
		t.Fatal("429 response not recorded as rate limit")
	}

	if _, err := c.FetchTile(context.Background(), p, "", maptile.New(1, 0, 1)); err != nil {
		t.Fatalf("FetchTile after recovery: %v", err)
	}
	if limiter.IsRateLimited("test") {
		t.Error("successful response did not clear the rate limit flag")
	}
}

func TestFetchTileCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient("", time.Second, nil, nil)
	if _, err := c.FetchTile(ctx, testProvider(srv.URL), "", maptile.New(0, 0, 0)); err == nil {
		t.Error("cancelled context did not produce an error")
	}
}
