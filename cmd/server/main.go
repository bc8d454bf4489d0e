package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	_ "modernc.org/sqlite"

	"gymdesk/internal/adapters/backup"
	emailPkg "gymdesk/internal/adapters/email"
	web "gymdesk/internal/adapters/http"
	"gymdesk/internal/adapters/http/perf"
	"gymdesk/internal/adapters/storage"
	accountStore "gymdesk/internal/adapters/storage/account"
	attendanceStore "gymdesk/internal/adapters/storage/attendance"
	memberStore "gymdesk/internal/adapters/storage/member"
	outboxStorePkg "gymdesk/internal/adapters/storage/outbox"
	"gymdesk/internal/application/books"
	"gymdesk/internal/application/orchestrators"
	"gymdesk/internal/config"
	"gymdesk/internal/domain/outbox"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	if cfg.IsProduction() {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
	}

	// WAL mode, foreign keys and busy timeout
	dsn := cfg.DBPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	if err := db.Ping(); err != nil {
		log.Fatalf("database unreachable: %v", err)
	}
	if err := storage.MigrateDB(db, cfg.DBPath); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	collector := perf.NewCollector(perf.DefaultRingSize)
	timedDB := storage.NewTimedDB(db, collector, cfg.SlowQuery)

	credStore := accountStore.NewSQLiteStore(timedDB)
	outboxStore := outboxStorePkg.NewSQLiteStore(timedDB)

	ctx := context.Background()
	b, err := books.Open(ctx, memberStore.NewSQLiteStore(timedDB), attendanceStore.NewSQLiteStore(timedDB))
	if err != nil {
		log.Fatalf("failed to load registry: %v", err)
	}

	if _, err := orchestrators.ExecuteSeedAdmin(ctx, orchestrators.SeedAdminInput{
		Username: cfg.AdminUsername,
		Password: cfg.AdminPassword,
	}, orchestrators.SeedAdminDeps{CredentialStore: credStore, Now: time.Now}); err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}

	// Spreadsheet backup
	var notifier backup.Notifier = backup.NoopNotifier{}
	if cfg.BackupURL != "" {
		notifier = backup.NewSheetsNotifier(cfg.BackupURL, &http.Client{Timeout: cfg.BackupTimeout})
		slog.Info("backup_event", "event", "backup_configured")
	} else {
		slog.Info("backup_event", "event", "backup_disabled", "reason", "GYMDESK_BACKUP_URL is not set")
	}
	dispatcher := orchestrators.NewBackupDispatcher(notifier, outboxStore, cfg.BackupTimeout)

	// Email sender
	var sender emailPkg.Sender
	if cfg.ResendKey != "" {
		sender = emailPkg.NewResendSender(cfg.ResendKey, cfg.EmailFrom)
		slog.Info("digest_event", "event", "sender_configured", "provider", "resend")
	} else {
		sender = emailPkg.NewNoopSender()
		if cfg.IsProduction() {
			slog.Warn("digest_event", "event", "sender_disabled", "reason", "GYMDESK_RESEND_KEY is not set")
		}
	}

	// Outbox worker retries parked backups and digests
	outboxStopCh := make(chan struct{})
	processor := orchestrators.NewOutboxProcessor(outboxStore, map[string]orchestrators.ActionExecutor{
		outbox.ActionTypeSheetBackup:  &orchestrators.BackupExecutor{Notifier: notifier},
		outbox.ActionTypeExpiryDigest: &orchestrators.DigestExecutor{Sender: sender},
	})
	orchestrators.StartBackgroundWorker(processor, cfg.OutboxInterval, outboxStopCh)

	// Daily expiry digest
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.DigestSchedule, func() {
		runCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		res, err := orchestrators.ExecuteExpiryDigest(runCtx, orchestrators.ExpiryDigestDeps{
			Books:       b,
			Sender:      sender,
			OutboxStore: outboxStore,
			To:          cfg.DigestTo,
			From:        cfg.EmailFrom,
			Now:         time.Now,
			GenerateID:  uuid.NewString,
		})
		if err != nil {
			slog.Error("digest_event", "event", "digest_failed", "error", err.Error())
			return
		}
		slog.Info("digest_event", "event", "digest_run", "due_today", res.DueToday, "due_soon", res.DueSoon, "sent", res.Sent, "parked", res.Parked)
	}); err != nil {
		log.Fatalf("invalid GYMDESK_DIGEST_SCHEDULE %q: %v", cfg.DigestSchedule, err)
	}
	scheduler.Start()

	csrfKey := []byte(cfg.CSRFKey)
	if len(csrfKey) != 32 {
		// Dev only; config.Load rejects this in production. Forms break across restarts.
		csrfKey = make([]byte, 32)
		if _, err := rand.Read(csrfKey); err != nil {
			log.Fatalf("failed to generate csrf key: %v", err)
		}
		slog.Warn("config_event", "event", "csrf_key_generated", "reason", "GYMDESK_CSRF_KEY is not 32 bytes")
	}

	handler, stopMux := web.NewMux(&web.Services{
		Books:       b,
		Credentials: credStore,
		OutboxStore: outboxStore,
		Outbox:      processor,
		Backup:      dispatcher,
		Perf:        collector,
	}, web.Options{
		CSRFKey:         csrfKey,
		SecureCookies:   cfg.IsProduction(),
		TrustedOrigins:  cfg.TrustedOrigins,
		LoginRatePerMin: cfg.LoginRatePerMin,
		SessionTTL:      time.Duration(cfg.SessionIdleHours) * time.Hour,
		SlowRequest:     cfg.SlowRequest,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server_starting", "version", version, "addr", cfg.Addr, "env", cfg.Env, "schema", storage.LatestSchemaVersion())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("server_stopping")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server_shutdown_failed", "error", err.Error())
	}
	stopMux()
	<-scheduler.Stop().Done()
	close(outboxStopCh)
	dispatcher.Wait()
}
