// cmd/web/main.go
//
// averyquinn.com – HTTP entry point.
//
// Boot sequence
// -------------
//
//  1. Load configuration (conf/.env → conf/global.yaml → AVERY_ env
//     overlay) and validate it.
//
//  2. Start the daily rotating logger (tees to console when on a TTY).
//
//  3. Resolve `vault:` secret references when VAULT_ADDR is set.
//
//  4. Open the database pool, ping-on-open.
//
//  5. Open the GeoLite2 database; a miss degrades leads to IP-only.
//
//  6. Load form definitions and the view engine, wire repositories and
//     services, and serve the chi router behind hardened timeouts.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/AveryQuinnMedia/avery-site/internal/config"
	"github.com/AveryQuinnMedia/avery-site/internal/content"
	"github.com/AveryQuinnMedia/avery-site/internal/database"
	"github.com/AveryQuinnMedia/avery-site/internal/email"
	"github.com/AveryQuinnMedia/avery-site/internal/form"
	"github.com/AveryQuinnMedia/avery-site/internal/leads"
	"github.com/AveryQuinnMedia/avery-site/internal/logger"
	"github.com/AveryQuinnMedia/avery-site/internal/requestinfo"
	"github.com/AveryQuinnMedia/avery-site/internal/server"
	"github.com/AveryQuinnMedia/avery-site/internal/vault"
	"github.com/AveryQuinnMedia/avery-site/internal/view"
	"github.com/AveryQuinnMedia/avery-site/internal/web"
)

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func main() {
	ctx := context.Background()

	//
	// ── 1.  Configuration ───────────────────────────────────────────────
	//
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	//
	// ── 2.  Logger ──────────────────────────────────────────────────────
	//
	logOut, err := logger.New(cfg.Paths.Root, runningInTTY())
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}
	defer func() { _ = logOut.Sync() }()

	//
	// ── 3.  Secrets ─────────────────────────────────────────────────────
	//
	if os.Getenv("VAULT_ADDR") != "" {
		vc, err := vault.New(ctx, logOut.Infof)
		if err != nil {
			logOut.Fatalf("vault client: %v", err)
		}
		if err := cfg.ResolveSecrets(ctx, vc); err != nil {
			logOut.Fatalf("resolve secrets: %v", err)
		}
	}

	//
	// ── 4.  Database ────────────────────────────────────────────────────
	//
	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		logOut.Fatalf("connect database: %v", err)
	}
	defer db.Close()
	logOut.Infow("database online")

	//
	// ── 5.  Geo lookup ──────────────────────────────────────────────────
	//
	if cfg.Geo.DBPath != "" {
		if err := requestinfo.InitGeo(cfg.Geo.DBPath); err != nil {
			logOut.Warnw("geo database unavailable, leads carry IP only",
				"path", cfg.Geo.DBPath, "err", err)
		}
	}

	//
	// ── 6.  Wiring ──────────────────────────────────────────────────────
	//
	forms, err := form.Load(filepath.Join(cfg.Paths.Root, "conf", "forms"))
	if err != nil {
		logOut.Fatalf("load forms: %v", err)
	}
	logOut.Infow("forms loaded", "ids", forms.IDs())

	dev := os.Getenv("AVERY_DEV") == "1"
	engine := view.New(filepath.Join(cfg.Paths.Root, "templates"), dev)

	contentRepo := content.New(db)

	emailSvc := email.NewService(
		email.NewRepository(db),
		email.NewResendProvider(cfg.Email.APIKey),
		engine.EmailRenderer(),
		email.Options{
			From:             cfg.Email.From,
			ReplyTo:          cfg.Email.ReplyTo,
			NotifyTo:         cfg.Email.NotifyTo,
			MaxRetries:       cfg.Email.MaxRetries,
			RetryWindowHours: cfg.Email.RetryWindowHours,
			RetryBatchCap:    cfg.Email.RetryBatchCap,
		})

	leadSvc := leads.NewService(leads.NewRepository(db), emailSvc)

	handler := web.NewHandler(cfg, engine, contentRepo, leadSvc, emailSvc, forms)

	// SIGHUP drops cached template sets and re-reads configuration, so
	// template or YAML edits land without a restart.  Wiring keeps the
	// boot-time pointers; secrets and the DB pool need a full restart.
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	go func() {
		for range hup {
			engine.Purge()
			if err := config.Reload(); err != nil {
				logOut.Errorw("config reload failed", "err", err)
				continue
			}
			c := config.Get()
			logOut.Infow("reloaded on SIGHUP",
				"max_retries", c.Email.MaxRetries, "force_https", c.HTTP.ForceHTTPS)
		}
	}()

	//
	// ── 7.  Serve ───────────────────────────────────────────────────────
	//
	srv := server.New(cfg.HTTP.ListenAddr, handler.Router())
	zap.S().Infow("listening", "addr", cfg.HTTP.ListenAddr, "dev", dev)
	if err := srv.ListenAndServe(); err != nil {
		logOut.Fatalf("http server: %v", err)
	}
}
