package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"cohort-portal-service/internal/domain"
	"cohort-portal-service/internal/report"
)

func (s *Server) reportProposals(r *http.Request) (domain.ReportKind, []domain.Proposal, error) {
	kind := domain.ReportKind(r.PathValue("kind"))
	proposals, err := s.svc.Reports.Proposals(r.Context(), kind, s.now().UTC())
	return kind, proposals, err
}

func (s *Server) downloadReport(w http.ResponseWriter, r *http.Request, user domain.UserProfile) {
	kind, proposals, err := s.reportProposals(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	// Render fully before writing headers so a failure can still be a JSON error.
	var buf bytes.Buffer
	if err := report.WritePDF(&buf, kind, proposals); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("report generated",
		zap.String("kind", string(kind)),
		zap.String("user_id", user.UserID),
		zap.Int("proposals", len(proposals)),
	)
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename(kind)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

type reportSummary struct {
	Kind  domain.ReportKind `json:"kind"`
	Title string            `json:"title"`
	Count int               `json:"count"`
	Rows  [][]string        `json:"rows"`
}

func (s *Server) reportSummary(w http.ResponseWriter, r *http.Request, _ domain.UserProfile) {
	kind, proposals, err := s.reportProposals(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rows := make([][]string, 0, len(proposals))
	for _, p := range proposals {
		rows = append(rows, report.Row(p))
	}
	writeJSON(w, http.StatusOK, reportSummary{
		Kind:  kind,
		Title: report.Title(kind),
		Count: len(proposals),
		Rows:  rows,
	})
}
