// Package report renders coordinator project reports. It only formats the
// proposals it is given and never touches storage.
package report

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"

	"cohort-portal-service/internal/domain"
)

var columns = []struct {
	header string
	width  float64
}{
	{"Title", 50},
	{"Status", 25},
	{"Group", 35},
	{"Progress", 50},
	{"Date", 30},
}

const rowHeight = 7.0

// Title returns the document heading for kind.
func Title(kind domain.ReportKind) string {
	if kind == domain.ReportMonthly {
		return "Monthly Project Report"
	}
	return "Weekly Project Report"
}

// Filename returns the download name for kind.
func Filename(kind domain.ReportKind) string {
	if kind == domain.ReportMonthly {
		return "monthly_project_report.pdf"
	}
	return "weekly_project_report.pdf"
}

// Row is one table row as rendered.
func Row(p domain.Proposal) []string {
	progress := "N/A"
	if p.Progress != nil && *p.Progress != "" {
		progress = *p.Progress
	}
	date := "-"
	if !p.CreatedAt.IsZero() {
		date = p.CreatedAt.Format("2006-01-02")
	}
	return []string{p.Title, string(p.Status), p.GroupID, progress, date}
}

// WritePDF writes the report for proposals to w.
func WritePDF(w io.Writer, kind domain.ReportKind, proposals []domain.Proposal) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(Title(kind), true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, Title(kind))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(41, 128, 185)
	pdf.SetTextColor(255, 255, 255)
	for _, col := range columns {
		pdf.CellFormat(col.width, rowHeight, col.header, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(0, 0, 0)
	for _, p := range proposals {
		for i, cell := range Row(p) {
			text := fit(pdf, tr(cell), columns[i].width-2)
			pdf.CellFormat(columns[i].width, rowHeight, text, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render %s report: %w", kind, err)
	}
	return nil
}

// fit shortens s with an ellipsis until it fits in width.
func fit(pdf *fpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"...") > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}
