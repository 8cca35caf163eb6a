package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"cuims-backend/lib/configutil"
	configlibsql "cuims-backend/lib/configutil/libsql"
	"cuims-backend/lib/ocrspace"
	"cuims-backend/lib/scrapers/cuims"
	"cuims-backend/lib/serviceutil"
	"cuims-backend/lib/sessionstore"
	"cuims-backend/lib/telemetry"
	"cuims-backend/services/studentdata"
	"cuims-backend/services/studentdata/db"
)

type UserConfig struct {
	Uid      string `json:"uid"`
	Password string `json:"password"`
}

type Config struct {
	Database   configlibsql.Struct `json:"database"`
	SessionDir string              `json:"session_dir"`
	OcrKey     string              `json:"ocr_key"`
	BaseUrl    string              `json:"base_url"`
	// defaults to "initial"
	Domain string `json:"domain"`
	// defaults to 60
	IntervalMinutes int          `json:"interval_minutes"`
	Users           []UserConfig `json:"users"`
}

func main() {
	ctx := serviceutil.SignalContext()
	telemetry.InitSlog(true)

	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	domain := cfg.Domain
	if domain == "" {
		domain = studentdata.DomainInitial
	}
	interval := time.Duration(cfg.IntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = time.Hour
	}

	database, err := cfg.Database.OpenDB(db.Schema)
	if err != nil {
		serviceutil.Fatal("failed to open database", err)
	}
	defer database.Close()
	sessions, err := sessionstore.Open(cfg.SessionDir)
	if err != nil {
		serviceutil.Fatal("failed to open session store", err)
	}
	defer sessions.Close()

	t, err := telemetry.SetupFromEnv(ctx, "studentdatad")
	if os.IsNotExist(err) {
		slog.Warn("no telemetry.json5 found, telemetry export disabled")
	} else if err != nil {
		serviceutil.Fatal("failed to setup telemetry", err)
	} else {
		defer t.Shutdown(context.Background())
		telemetry.InstrumentPerfStats(ctx)
	}

	service := studentdata.NewService(studentdata.Options{
		DB:           database,
		SessionStore: sessions,
		Solver:       ocrspace.NewClient(cfg.OcrKey),
		BaseUrl:      cfg.BaseUrl,
		Login:        cuims.LoginOptions{},
	})

	refreshAll := func() {
		for _, user := range cfg.Users {
			t1 := time.Now()
			err := service.Refresh(ctx, user.Uid, user.Password, domain)
			if err != nil {
				slog.ErrorContext(ctx, "refresh failed", "uid", user.Uid, "err", err)
				continue
			}
			slog.InfoContext(
				ctx, "refresh complete",
				"uid", user.Uid,
				"domain", domain,
				"seconds", time.Since(t1).Seconds(),
			)
		}
	}

	refreshAll()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refreshAll()
		}
	}
}
