// cmd/web/serve.go
//
// `web serve` boot sequence
// -------------------------
//
//  1. Install a console logger so config errors are visible.
//  2. Load configuration (.env → global.yaml → CONTACT_* env → vault:).
//  3. Start the rotating file logger (tees to console in a TTY).
//  4. Open the optional GeoLite2 database.
//  5. Build shared services: CSRF signer, session store, view engine.
//  6. Mount middleware, /metrics, /healthz, and every component.
//  7. Serve until SIGINT or SIGTERM, then drain.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yanizio/contactform/internal/component"
	"github.com/yanizio/contactform/internal/config"
	"github.com/yanizio/contactform/internal/form"
	"github.com/yanizio/contactform/internal/logger"
	"github.com/yanizio/contactform/internal/middleware"
	"github.com/yanizio/contactform/internal/requestinfo"
	"github.com/yanizio/contactform/internal/server"
	"github.com/yanizio/contactform/internal/session"
	"github.com/yanizio/contactform/internal/vault"
	"github.com/yanizio/contactform/internal/view"
)

func newServeCmd() *cobra.Command {
	var confFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the contact form HTTP service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, confFile)
		},
	}
	cmd.Flags().StringVar(&confFile, "config", "", "path to global.yaml (default <root>/conf/global.yaml)")
	return cmd
}

func serve(ctx context.Context, confFile string) error {
	logger.Bootstrap()

	//
	// ── 1.  Configuration ───────────────────────────────────────────────
	//
	cfg, err := config.Load(ctx, config.Options{
		File: confFile,
		NewResolver: func(context.Context) (config.SecretResolver, error) {
			return vault.New()
		},
	})
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.Paths.Root, cfg.Log.Level, runningInTTY())
	if err != nil {
		return fmt.Errorf("start logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	//
	// ── 2.  Optional GeoIP ──────────────────────────────────────────────
	//
	var geo requestinfo.GeoDB
	if cfg.Geo.DBPath != "" {
		rdr, err := requestinfo.OpenGeo(cfg.Geo.DBPath)
		if err != nil {
			return err
		}
		defer rdr.Close()
		geo = rdr
	}

	//
	// ── 3.  Shared services ─────────────────────────────────────────────
	//
	csrf, err := newCSRF(cfg.Form)
	if err != nil {
		return err
	}

	store := session.New(session.Options{
		CookieName:    cfg.Session.CookieName,
		IdleTTL:       cfg.Session.IdleTTL,
		MaxEntries:    cfg.Session.MaxEntries,
		EvictInterval: cfg.Session.EvictInterval,
		Secure:        cfg.HTTP.ForceHTTPS,
	})
	defer store.Close()

	env := component.Env{
		Views:    view.New(cfg.Paths.Templates),
		Sessions: store,
		CSRF:     csrf,
	}

	//
	// ── 4.  Router ──────────────────────────────────────────────────────
	//
	r := chi.NewRouter()
	r.Use(
		chimw.RequestID,
		middleware.Logger,
		chimw.Recoverer,
		middleware.Security,
		middleware.ForceHTTPS(cfg.HTTP.ForceHTTPS),
		requestinfo.Enrich(geo),
	)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	if err := component.Mount(r, env); err != nil {
		return fmt.Errorf("mount components: %w", err)
	}

	//
	// ── 5.  Serve ───────────────────────────────────────────────────────
	//
	return server.Run(ctx, server.New(cfg.HTTP, r))
}

// newCSRF decodes the configured key, or generates a process-local one.
func newCSRF(fc config.Form) (*form.CSRF, error) {
	if fc.CSRFKey != "" {
		key, err := form.DecodeKey(fc.CSRFKey)
		if err != nil {
			return nil, fmt.Errorf("form.csrf_key: %w", err)
		}
		return form.NewCSRF(key, fc.CSRFMaxAge)
	}

	zap.S().Warnw("form.csrf_key unset, tokens will not survive a restart")
	key, err := form.RandomKey()
	if err != nil {
		return nil, err
	}
	return form.NewCSRF(key, fc.CSRFMaxAge)
}

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
