package commands

import (
	"fmt"

	"cuims-backend/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Shows the last refresh status and what is stored per domain.",
	Run: func(cmd *cobra.Command, args []string) {
		service, cfg, cleanup := openService()
		defer cleanup()

		status, err := service.Status(cmd.Context(), cfg.Uid)
		if err != nil {
			serviceutil.Fatal("failed to read the refresh status", err)
		}
		if status == "" {
			status = "never refreshed"
		}
		fmt.Printf("last refresh: %s\n", status)

		records, err := service.Records(cmd.Context(), cfg.Uid)
		if err != nil {
			serviceutil.Fatal("failed to list stored records", err)
		}
		if len(records) == 0 {
			return
		}

		t := newTable()
		t.AppendHeader(table.Row{"Domain", "Scraped At", "Bytes"})
		for _, record := range records {
			t.AppendRow(table.Row{record.Domain, record.ScrapedAt, len(record.Payload)})
		}
		t.Render()
	},
}
