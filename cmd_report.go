package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"jobflow/models"
	"jobflow/permissions"
	"jobflow/timetracking"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	reportStart string
	reportEnd   string
	reportJSON  bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the time report for a period (default: last week)",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		period := a.service.PreviousWeek()
		if reportStart != "" || reportEnd != "" {
			loc := a.cfg.Location()
			start, err := time.ParseInLocation("2006-01-02", reportStart, loc)
			if err != nil {
				return fmt.Errorf("invalid --start: %w", err)
			}
			end, err := time.ParseInLocation("2006-01-02", reportEnd, loc)
			if err != nil {
				return fmt.Errorf("invalid --end: %w", err)
			}
			period = timetracking.Period{Start: start, End: end.AddDate(0, 0, 1).Add(-time.Second)}
		}

		// the CLI reports on everyone
		viewer := &models.User{Username: "cli", Role: permissions.RoleAdmin}
		report, err := a.service.Report(cmd.Context(), viewer, period)
		if err != nil {
			return err
		}

		if reportJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}
		printReport(cmd.OutOrStdout(), period, report)
		return nil
	},
}

func printReport(w io.Writer, p timetracking.Period, r timetracking.TimeReport) {
	pr := message.NewPrinter(language.Dutch)
	pr.Fprintf(w, "Urenrapport %s t/m %s\n\n", p.Start.Format("02-01-2006"), p.End.Format("02-01-2006"))
	pr.Fprintf(w, "Medewerkers:          %d\n", r.Summary.UserCount)
	pr.Fprintf(w, "Reguliere uren:       %s\n", timetracking.FormatDuration(r.Summary.TotalRegularHours))
	pr.Fprintf(w, "Overuren:             %s\n", timetracking.FormatDuration(r.Summary.TotalOvertimeHours))
	pr.Fprintf(w, "Tijd-voor-tijd saldo: %s\n", timetracking.FormatDuration(r.Summary.TotalCompensationBalance))
	pr.Fprintf(w, "Tekort:               %s\n", timetracking.FormatDuration(r.Summary.TotalShortageHours))
	pr.Fprintf(w, "Productiviteit:       %.1f%%\n", r.Summary.AverageProductivity)

	if len(r.Alerts) > 0 {
		pr.Fprintf(w, "\nTekorten:\n")
		for _, alert := range r.Alerts {
			pr.Fprintf(w, "- medewerker %d: %s (%s, %d week/weken)\n",
				alert.UserID, timetracking.FormatDuration(alert.ShortageHours), alert.Severity, alert.ConsecutiveWeeksShort)
		}
	}
	if len(r.Recommendations) > 0 {
		pr.Fprintf(w, "\nAanbevelingen:\n")
		for _, rec := range r.Recommendations {
			pr.Fprintf(w, "- %s\n", rec)
		}
	}
}

func init() {
	reportCmd.Flags().StringVar(&reportStart, "start", "", "first day of the period (YYYY-MM-DD)")
	reportCmd.Flags().StringVar(&reportEnd, "end", "", "last day of the period (YYYY-MM-DD)")
	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "print the report as JSON")
	reportCmd.MarkFlagsRequiredTogether("start", "end")
	rootCmd.AddCommand(reportCmd)
}
