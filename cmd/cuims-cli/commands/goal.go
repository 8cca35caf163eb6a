package commands

import (
	"fmt"
	"strconv"

	"cuims-backend/lib/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(goalCmd)
}

var goalCmd = &cobra.Command{
	Use:   "goal [percentage]",
	Short: "Shows or sets the attendance goal percentage.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		service, cfg, cleanup := openService()
		defer cleanup()

		if len(args) == 0 {
			goal, err := service.AttendanceGoal(cmd.Context(), cfg.Uid)
			if err != nil {
				serviceutil.Fatal("failed to read the attendance goal", err)
			}
			fmt.Printf("%v%%\n", goal)
			return
		}

		goal, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			serviceutil.Fatal("the goal must be a number", err)
		}
		err = service.SetAttendanceGoal(cmd.Context(), cfg.Uid, goal)
		if err != nil {
			serviceutil.Fatal("failed to set the attendance goal", err)
		}
		fmt.Printf("attendance goal set to %v%%, run 'refresh attendance' to reproject\n", goal)
	},
}
