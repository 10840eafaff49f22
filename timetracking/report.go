package timetracking

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	reportShortageWarningHours  = 20
	reportOvertimeShare         = 0.2
	reportCompensationHighHours = 200
	reportMinProductivity       = 80
)

type ReportSummary struct {
	UserCount                int     `json:"user_count"`
	TotalRegularHours        float64 `json:"total_regular_hours"`
	TotalOvertimeHours       float64 `json:"total_overtime_hours"`
	TotalCompensationBalance float64 `json:"total_compensation_balance"`
	TotalShortageHours       float64 `json:"total_shortage_hours"`
	// AverageProductivity is actual/expected in percent, averaged over
	// balances with expected hours.
	AverageProductivity float64 `json:"average_productivity"`
}

type TimeReport struct {
	Summary         ReportSummary   `json:"summary"`
	Balances        []TimeBalance   `json:"balances"`
	Alerts          []ShortageAlert `json:"alerts"`
	Recommendations []string        `json:"recommendations"`
}

// GenerateTimeReport summarises balances, detects shortages and derives
// recommendations.
func (c *Calculator) GenerateTimeReport(balances, history []TimeBalance) TimeReport {
	var s ReportSummary
	var productivitySum float64
	var productivityCount int

	for _, b := range balances {
		s.TotalRegularHours += b.RegularHours
		s.TotalOvertimeHours += b.OvertimeHours
		s.TotalCompensationBalance += b.NetCompensation()
		s.TotalShortageHours += b.ShortageHours
		if b.ExpectedHours > 0 {
			productivitySum += b.ActualHours / b.ExpectedHours * 100
			productivityCount++
		}
	}
	s.UserCount = len(balances)
	if productivityCount > 0 {
		s.AverageProductivity = productivitySum / float64(productivityCount)
	}

	return TimeReport{
		Summary:         s,
		Balances:        balances,
		Alerts:          c.DetectShortages(balances, history),
		Recommendations: recommendations(s, productivityCount > 0),
	}
}

func recommendations(s ReportSummary, hasProductivity bool) []string {
	var recs []string
	if s.TotalShortageHours > reportShortageWarningHours {
		recs = append(recs, dutch("Totaal tekort van %.1f uur: plan extra diensten of herverdeel het werk",
			s.TotalShortageHours))
	}
	if s.TotalRegularHours > 0 && s.TotalOvertimeHours > s.TotalRegularHours*reportOvertimeShare {
		recs = append(recs, "Overuren bedragen meer dan 20% van de reguliere uren: overweeg extra personeel")
	}
	if s.TotalCompensationBalance > reportCompensationHighHours {
		recs = append(recs, dutch("Hoog tijd-voor-tijd saldo van %.1f uur: moedig medewerkers aan om vrij te nemen",
			s.TotalCompensationBalance))
	}
	if hasProductivity && s.AverageProductivity < reportMinProductivity {
		recs = append(recs, dutch("Gemiddelde productiviteit van %.1f%% is laag: onderzoek de oorzaak",
			s.AverageProductivity))
	}
	if len(recs) == 0 {
		recs = append(recs, "Geen bijzonderheden: de urenbalans is in orde")
	}
	return recs
}

// FormatDuration renders hours as "Xu Ym", e.g. 7.5 -> "7u 30m".
func FormatDuration(hours float64) string {
	minutes := int(math.Round(math.Abs(hours) * 60))
	sign := ""
	if hours < 0 && minutes > 0 {
		sign = "-"
	}
	return fmt.Sprintf("%s%du %dm", sign, minutes/60, minutes%60)
}

// dutch formats user-facing text with Dutch number formatting.
func dutch(format string, args ...any) string {
	return message.NewPrinter(language.Dutch).Sprintf(format, args...)
}
