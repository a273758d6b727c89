package util

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"
)

func robotsServer(t *testing.T, status int, body string, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			w.WriteHeader(http.StatusOK)
			return
		}
		if hits != nil {
			hits.Add(1)
		}
		w.WriteHeader(status)
		_, _ = fmt.Fprint(w, body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestRobotsChecker_Disallow(t *testing.T) {
	server := robotsServer(t, http.StatusOK, "User-agent: *\nDisallow: /w/\n", nil)
	checker := NewRobotsChecker(server.Client(), "freebase2wikidata/0.1 (+https://example.org)")

	allowed, _, err := checker.CanFetch(context.Background(), server.URL+"/wiki/Wikidata:WikiProject_Freebase/Mapping")
	if err != nil {
		t.Fatalf("CanFetch failed: %v", err)
	}
	if !allowed {
		t.Error("expected /wiki/ to be allowed")
	}

	err = checker.Check(context.Background(), server.URL+"/w/index.php")
	if !errors.Is(err, ErrDisallowed) {
		t.Errorf("expected ErrDisallowed, got %v", err)
	}
}

func TestRobotsChecker_CachesPerHost(t *testing.T) {
	var hits atomic.Int32
	server := robotsServer(t, http.StatusOK, "User-agent: *\nAllow: /\n", &hits)
	checker := NewRobotsChecker(server.Client(), "freebase2wikidata")

	for i := 0; i < 3; i++ {
		if err := checker.Check(context.Background(), server.URL+"/wiki/Page"); err != nil {
			t.Fatalf("Check failed: %v", err)
		}
	}
	if hits.Load() != 1 {
		t.Errorf("expected robots.txt fetched once, got %d", hits.Load())
	}

	checker.Clear()
	_ = checker.Check(context.Background(), server.URL+"/wiki/Page")
	if hits.Load() != 2 {
		t.Errorf("expected refetch after Clear, got %d", hits.Load())
	}
}

func TestRobotsChecker_MissingRobotsAllows(t *testing.T) {
	server := robotsServer(t, http.StatusNotFound, "", nil)
	checker := NewRobotsChecker(server.Client(), "freebase2wikidata")

	if err := checker.Check(context.Background(), server.URL+"/w/anything"); err != nil {
		t.Errorf("expected missing robots.txt to allow, got %v", err)
	}
}

func TestRobotsChecker_CrawlDelayHonorsContext(t *testing.T) {
	server := robotsServer(t, http.StatusOK, "User-agent: *\nCrawl-delay: 60\n", nil)
	checker := NewRobotsChecker(server.Client(), "freebase2wikidata")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := checker.Check(ctx, server.URL+"/wiki/Page"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestRobotsChecker_InvalidURL(t *testing.T) {
	checker := NewRobotsChecker(nil, "freebase2wikidata")
	if _, _, err := checker.CanFetch(context.Background(), "not a url"); err == nil {
		t.Error("expected error for URL without host")
	}
}

func TestNormalizeUserAgent(t *testing.T) {
	tests := map[string]string{
		"freebase2wikidata/0.1 (+https://example.org)": "freebase2wikidata",
		"curl":     "curl",
		"":         "",
		"  bot/2 ": "bot",
	}
	for in, want := range tests {
		if got := NormalizeUserAgent(in); got != want {
			t.Errorf("NormalizeUserAgent(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewProxyFunc(t *testing.T) {
	proxy := NewProxyFunc("http://proxy:3128", "http://secure-proxy:3128", "localhost,.internal")

	tests := []struct {
		target string
		want   string
	}{
		{"http://www.wikidata.org/w/api.php", "http://proxy:3128"},
		{"https://www.wikidata.org/w/api.php", "http://secure-proxy:3128"},
		{"http://localhost:8080/x", ""},
		{"https://api.internal/x", ""},
	}

	for _, tt := range tests {
		u, _ := url.Parse(tt.target)
		got, err := proxy(&http.Request{URL: u})
		if err != nil {
			t.Fatalf("proxy(%s) failed: %v", tt.target, err)
		}
		gotStr := ""
		if got != nil {
			gotStr = got.String()
		}
		if gotStr != tt.want {
			t.Errorf("proxy(%s) = %q, want %q", tt.target, gotStr, tt.want)
		}
	}
}
