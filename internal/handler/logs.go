package handler

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/freighthos/eld-engine/internal/domain"
)

// logDateFormat is the wire format for log-day path parameters.
const logDateFormat = "2006-01-02"

// csvHeaders defines the column names written as the first row of a log export.
var csvHeaders = []string{
	"log_date", "duty_status", "start_time", "end_time",
	"location", "remarks", "is_certified",
}

func (s *Server) handleLogToday(w http.ResponseWriter, r *http.Request) {
	log, err := s.logs.Today(r.Context(), driverID(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, log)
}

func (s *Server) handleLogWeek(w http.ResponseWriter, r *http.Request) {
	logs, err := s.logs.Week(r.Context(), driverID(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, logs)
}

func (s *Server) handleHOSSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.logs.Summary(r.Context(), driverID(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

func (s *Server) handleLogByDate(w http.ResponseWriter, r *http.Request) {
	date, err := pathDate(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	log, err := s.logs.Daily(r.Context(), driverID(r), date)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, log)
}

func (s *Server) handleCertifyLog(w http.ResponseWriter, r *http.Request) {
	date, err := pathDate(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	log, err := s.logs.Certify(r.Context(), driverID(r), date)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, log)
}

// handleLogExport returns the logs for a date range as JSON or, with
// ?format=csv, as a flat CSV table with one row per log entry.
func (s *Server) handleLogExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := parseDate(q.Get("from"), "from")
	if err != nil {
		respondError(w, r, err)
		return
	}
	to, err := parseDate(q.Get("to"), "to")
	if err != nil {
		respondError(w, r, err)
		return
	}

	logs, err := s.logs.Range(r.Context(), driverID(r), from, to)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if q.Get("format") == "csv" {
		writeLogCSV(w, logs)
		return
	}
	respondJSON(w, http.StatusOK, logs)
}

// writeLogCSV encodes daily logs as CSV, one row per grid entry.
func writeLogCSV(w http.ResponseWriter, logs []domain.DailyLog) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	//nolint:errcheck // bytes.Buffer writes never fail
	cw.Write(csvHeaders)
	for _, log := range logs {
		for _, e := range log.Entries {
			//nolint:errcheck
			cw.Write([]string{
				log.Date.Format(logDateFormat),
				string(e.Status),
				e.Start.Format(time.RFC3339),
				e.End.Format(time.RFC3339),
				e.Location.Address,
				e.Notes,
				strconv.FormatBool(log.IsCertified),
			})
		}
	}
	cw.Flush()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="daily_logs.csv"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes()) //nolint:errcheck
}

// pathDate parses the {date} path parameter as a UTC calendar day.
func pathDate(r *http.Request) (time.Time, error) {
	return parseDate(chi.URLParam(r, "date"), "date")
}

func parseDate(raw, name string) (time.Time, error) {
	t, err := time.ParseInLocation(logDateFormat, raw, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be a YYYY-MM-DD date", domain.ErrValidation, name)
	}
	return t, nil
}
