package commands

import (
	"log/slog"
	"time"

	"cuims-backend/lib/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(refreshCmd)
}

var refreshCmd = &cobra.Command{
	Use:   "refresh <domain>",
	Short: "Logs into the portal and refreshes the stored records for a domain ('initial', 'all' or a single extractor name).",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		service, cfg, cleanup := openService()
		defer cleanup()

		t1 := time.Now()
		err := service.Refresh(cmd.Context(), cfg.Uid, cfg.Password, args[0])
		if err != nil {
			serviceutil.Fatal("refresh failed", err)
		}
		t2 := time.Now()

		slog.Info("refresh complete", "domain", args[0], "seconds", t2.Sub(t1).Seconds())
	},
}
