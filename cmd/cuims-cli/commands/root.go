package commands

import (
	"context"
	"fmt"
	"os"

	"cuims-backend/lib/configutil"
	configlibsql "cuims-backend/lib/configutil/libsql"
	"cuims-backend/lib/ocrspace"
	"cuims-backend/lib/restyutil"
	"cuims-backend/lib/scrapers/cuims"
	"cuims-backend/lib/serviceutil"
	"cuims-backend/lib/sessionstore"
	"cuims-backend/services/studentdata"
	"cuims-backend/services/studentdata/db"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cuims-cli",
	Short: "cuims-cli refreshes and inspects student data scraped off the CUIMS portal.",
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type Config struct {
	Database   configlibsql.Struct `json:"database"`
	SessionDir string              `json:"session_dir"`
	OcrKey     string              `json:"ocr_key"`
	BaseUrl    string              `json:"base_url"`
	Uid        string              `json:"uid"`
	Password   string              `json:"password"`
	// dump portal traffic to this directory, for selector debugging
	HttpDumpDir string `json:"http_dump_dir"`
}

func openService() (studentdata.Service, Config, func()) {
	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}

	database, err := cfg.Database.OpenDB(db.Schema)
	if err != nil {
		serviceutil.Fatal("failed to open database", err)
	}
	sessions, err := sessionstore.Open(cfg.SessionDir)
	if err != nil {
		serviceutil.Fatal("failed to open session store", err)
	}

	var httpDump restyutil.InstrumentOutput
	if cfg.HttpDumpDir != "" {
		httpDump = restyutil.NewFilesystemOutput(cfg.HttpDumpDir)
	}
	service := studentdata.NewService(studentdata.Options{
		DB:           database,
		SessionStore: sessions,
		Solver:       ocrspace.NewClient(cfg.OcrKey),
		BaseUrl:      cfg.BaseUrl,
		Login:        cuims.LoginOptions{},
		HttpDump:     httpDump,
	})
	cleanup := func() {
		sessions.Close()
		database.Close()
	}
	return service, cfg, cleanup
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}
