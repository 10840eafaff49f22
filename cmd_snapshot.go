package main

import (
	"fmt"

	"jobflow/scheduler"
	"jobflow/timetracking"

	"github.com/spf13/cobra"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Snapshot last week's balances now instead of waiting for the schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		sched, err := scheduler.New(a.service,
			scheduler.WithSchedule(a.cfg.SnapshotSchedule),
			scheduler.WithLocation(a.cfg.Location()),
			scheduler.WithLogger(a.log))
		if err != nil {
			return err
		}
		res, err := sched.RunNow(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "week %s: %d snapshots, %d alerts, %s forfeited\n",
			res.Period.Start.Format("2006-01-02"), res.Snapshots, len(res.Alerts),
			timetracking.FormatDuration(res.Forfeited))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
}
