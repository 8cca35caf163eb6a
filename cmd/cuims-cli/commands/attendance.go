package commands

import (
	"encoding/json"
	"fmt"

	"cuims-backend/lib/serviceutil"
	"cuims-backend/services/studentdata"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(attendanceCmd)
}

var attendanceCmd = &cobra.Command{
	Use:   "attendance",
	Short: "Shows the stored attendance projections.",
	Run: func(cmd *cobra.Command, args []string) {
		service, cfg, cleanup := openService()
		defer cleanup()

		record, err := service.Record(cmd.Context(), cfg.Uid, studentdata.DomainAttendance)
		if err != nil {
			serviceutil.Fatal("no attendance stored, run 'refresh attendance' first", err)
		}
		var projections []studentdata.CourseProjection
		err = json.Unmarshal([]byte(record.Payload), &projections)
		if err != nil {
			serviceutil.Fatal("failed to decode the stored attendance record", err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"Code", "Course", "Attended", "Total", "%", "Status", ""})
		for _, p := range projections {
			t.AppendRow(table.Row{
				p.Code, p.Name,
				p.Attended, p.Total,
				fmt.Sprintf("%.2f", p.Percentage),
				p.Status, p.Message,
			})
		}
		t.Render()
	},
}
