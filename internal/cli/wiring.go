package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ppiankov/freebase2wikidata/internal/cache"
	"github.com/ppiankov/freebase2wikidata/internal/model"
	"github.com/ppiankov/freebase2wikidata/internal/stats"
	"github.com/ppiankov/freebase2wikidata/internal/util"
	"github.com/ppiankov/freebase2wikidata/internal/wikidata"
	"github.com/ppiankov/freebase2wikidata/internal/worker"
)

// newWikidataClient builds the rate-limited, cached Wikidata client
func newWikidataClient(cfg *model.Config) *wikidata.Client {
	var robots *util.RobotsChecker
	if cfg.Wikidata.RespectRobots {
		robots = util.NewRobotsChecker(util.NewHTTPClient(cfg.Wikidata), cfg.Wikidata.UserAgent)
	}
	return wikidata.NewClient(
		cfg.Wikidata,
		cfg.Concurrency.FetchWorkers,
		cache.New(cfg.Cache),
		worker.NewLimiter(cfg.RateLimiting),
		robots,
	)
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// serveMetrics exposes the run counters on addr/metrics until the returned stop is called
func serveMetrics(addr string, counters *stats.Counters, log *slog.Logger) (func(), error) {
	registry := prometheus.NewRegistry()
	if err := registry.Register(counters); err != nil {
		return nil, fmt.Errorf("register counters: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server stopped", "error", err)
		}
	}()
	log.Info("serving metrics", "addr", ln.Addr().String())

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}

func printHeader(title string) {
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  %s\n", title)
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
}
