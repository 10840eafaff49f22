package handlers

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"jobflow/calendar"
	"jobflow/middleware"
	"jobflow/models"
	"jobflow/service"
	"jobflow/timetracking"

	"github.com/xuri/excelize/v2"
)

const reportSheet = "Urenrapport"

var reportHeader = []string{
	"Medewerker", "Team", "Van", "Tot", "Verwacht", "Gewerkt", "Regulier",
	"Overuren", "Tijd-voor-tijd", "Opgenomen", "Tekort", "Weekend", "Avond",
	"Nacht", "Feestdag",
}

type ReportHandler struct {
	svc      *service.TimeService
	holidays *calendar.HolidayCalendar
	log      *slog.Logger
}

func NewReportHandler(svc *service.TimeService, holidays *calendar.HolidayCalendar, log *slog.Logger) *ReportHandler {
	return &ReportHandler{svc: svc, holidays: holidays, log: log}
}

func (h *ReportHandler) period(w http.ResponseWriter, r *http.Request) (timetracking.Period, bool) {
	p, err := parsePeriod(r, h.svc.Now().Location(), h.svc.PreviousWeek())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return p, false
	}
	return p, true
}

func (h *ReportHandler) TimeReport(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	p, ok := h.period(w, r)
	if !ok {
		return
	}
	report, err := h.svc.Report(r.Context(), user, p)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *ReportHandler) Shortages(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	p, ok := h.period(w, r)
	if !ok {
		return
	}
	alerts, err := h.svc.Shortages(r.Context(), user, p)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if alerts == nil {
		alerts = []timetracking.ShortageAlert{}
	}
	writeJSON(w, http.StatusOK, alerts)
}

func reportRow(u *models.User, b timetracking.TimeBalance) []string {
	team := ""
	if u.Team != nil {
		team = u.Team.Name
	}
	hours := func(v float64) string { return fmt.Sprintf("%.2f", v) }
	return []string{
		u.DisplayName(),
		team,
		b.Period.Start.Format(dateLayout),
		b.Period.End.Format(dateLayout),
		hours(b.ExpectedHours),
		hours(b.ActualHours),
		hours(b.RegularHours),
		hours(b.OvertimeHours),
		hours(b.CompensationHours),
		hours(b.UsedCompensationHours),
		hours(b.ShortageHours),
		hours(b.WeekendHours),
		hours(b.EveningHours),
		hours(b.NightHours),
		hours(b.HolidayHours),
	}
}

func reportFilename(p timetracking.Period, ext string) string {
	return fmt.Sprintf("urenrapport_%s_%s.%s", p.Start.Format(dateLayout), p.End.Format(dateLayout), ext)
}

func (h *ReportHandler) TimeCSV(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	p, ok := h.period(w, r)
	if !ok {
		return
	}
	users, balances, err := h.svc.ReportRows(r.Context(), user, p)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", reportFilename(p, "csv")))

	writer := csv.NewWriter(w)
	defer writer.Flush()

	writer.Write(reportHeader)
	for i := range users {
		writer.Write(reportRow(&users[i], balances[i]))
	}
}

func (h *ReportHandler) TimeXLSX(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	p, ok := h.period(w, r)
	if !ok {
		return
	}
	users, balances, err := h.svc.ReportRows(r.Context(), user, p)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	f, err := buildWorkbook(users, balances)
	if err != nil {
		h.log.Error("failed to build workbook", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build report")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", reportFilename(p, "xlsx")))
	if err := f.Write(w); err != nil {
		h.log.Error("failed to write workbook", "error", err)
	}
}

// buildWorkbook writes one row per user with numeric hour cells.
func buildWorkbook(users []models.User, balances []timetracking.TimeBalance) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		f.Close()
		return nil, err
	}

	header := make([]any, len(reportHeader))
	for i, v := range reportHeader {
		header[i] = v
	}
	if err := f.SetSheetRow(reportSheet, "A1", &header); err != nil {
		f.Close()
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(reportHeader))
	if err := f.SetCellStyle(reportSheet, "A1", lastCol+"1", bold); err != nil {
		f.Close()
		return nil, err
	}

	for i := range users {
		u, b := &users[i], balances[i]
		team := ""
		if u.Team != nil {
			team = u.Team.Name
		}
		row := []any{
			u.DisplayName(), team,
			b.Period.Start.Format(dateLayout), b.Period.End.Format(dateLayout),
			b.ExpectedHours, b.ActualHours, b.RegularHours, b.OvertimeHours,
			b.CompensationHours, b.UsedCompensationHours, b.ShortageHours,
			b.WeekendHours, b.EveningHours, b.NightHours, b.HolidayHours,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(reportSheet, cell, &row); err != nil {
			f.Close()
			return nil, err
		}
	}
	if err := f.SetColWidth(reportSheet, "A", "B", 24); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// Holidays lists the public holidays of ?year= (default: this year).
func (h *ReportHandler) Holidays(w http.ResponseWriter, r *http.Request) {
	year := h.svc.Now().Year()
	if s := r.URL.Query().Get("year"); s != "" {
		y, err := strconv.Atoi(s)
		if err != nil || y < 2000 || y > 2100 {
			writeError(w, http.StatusBadRequest, "invalid year")
			return
		}
		year = y
	}
	writeJSON(w, http.StatusOK, h.holidays.Holidays(year))
}
