package timetracking

import (
	"sort"
	"time"
)

type Severity string

const (
	SeverityWarning  Severity = "WARNING"
	SeverityCritical Severity = "CRITICAL"
)

const (
	criticalShortageHours  = 8
	structuralShortWeeks   = 2
	managerEscalationWeeks = 3
)

type ShortageAlert struct {
	UserID                uint     `json:"user_id"`
	Period                Period   `json:"period"`
	ShortageHours         float64  `json:"shortage_hours"`
	ExpectedHours         float64  `json:"expected_hours"`
	ActualHours           float64  `json:"actual_hours"`
	Severity              Severity `json:"severity"`
	ConsecutiveWeeksShort int      `json:"consecutive_weeks_short"`
	ManagerNotified       bool     `json:"manager_notified"`
	SuggestedActions      []string `json:"suggested_actions"`
}

// DetectShortages returns an alert for every balance whose shortage reaches
// the configured threshold. history holds earlier balances of any users and
// is used to count consecutive short periods.
func (c *Calculator) DetectShortages(balances []TimeBalance, history []TimeBalance) []ShortageAlert {
	var alerts []ShortageAlert
	for _, b := range balances {
		if b.ShortageHours < c.rules.ShortageThreshold {
			continue
		}

		weeks := c.consecutiveWeeksShort(b, history)
		severity := SeverityWarning
		if b.ShortageHours >= criticalShortageHours {
			severity = SeverityCritical
		}

		alerts = append(alerts, ShortageAlert{
			UserID:                b.UserID,
			Period:                b.Period,
			ShortageHours:         b.ShortageHours,
			ExpectedHours:         b.ExpectedHours,
			ActualHours:           b.ActualHours,
			Severity:              severity,
			ConsecutiveWeeksShort: weeks,
			ManagerNotified:       weeks >= managerEscalationWeeks,
			SuggestedActions:      suggestedActions(b.ShortageHours, weeks),
		})
	}
	return alerts
}

// consecutiveWeeksShort counts the current period plus the unbroken run of
// earlier short periods for the same user, newest first. A period only
// continues the run when it ends where the next one starts; a missing week
// breaks it.
func (c *Calculator) consecutiveWeeksShort(current TimeBalance, history []TimeBalance) int {
	var prior []TimeBalance
	for _, h := range history {
		if h.UserID == current.UserID && h.Period.Start.Before(current.Period.Start) {
			prior = append(prior, h)
		}
	}
	sort.Slice(prior, func(i, j int) bool {
		return prior[i].Period.Start.After(prior[j].Period.Start)
	})

	weeks := 1
	next := current.Period.Start
	for _, h := range prior {
		if gap := next.Sub(h.Period.End); gap < 0 || gap > time.Second {
			break
		}
		if h.ShortageHours < c.rules.ShortageThreshold {
			break
		}
		weeks++
		next = h.Period.Start
	}
	return weeks
}

func suggestedActions(shortage float64, weeks int) []string {
	var actions []string
	switch {
	case shortage <= 4:
		actions = append(actions,
			"Plan extra uren in de komende week",
			"Controleer of alle gewerkte uren zijn geregistreerd",
		)
	case shortage <= criticalShortageHours:
		actions = append(actions,
			"Plan een inhaaldag",
			"Gebruik opgebouwde tijd-voor-tijd uren om het tekort aan te vullen",
		)
	default:
		actions = append(actions,
			"Urgent: neem direct contact op met je leidinggevende",
			"Stel samen met je leidinggevende een herstelplan op",
		)
	}
	if weeks >= structuralShortWeeks {
		actions = append(actions, "Structureel probleem: bespreek het rooster en de contracturen")
	}
	if weeks >= managerEscalationWeeks {
		actions = append(actions, "Escaleer naar het management")
	}
	return actions
}
