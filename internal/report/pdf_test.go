package report_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cohort-portal-service/internal/domain"
	"cohort-portal-service/internal/report"
)

func TestNamesPerKind(t *testing.T) {
	assert.Equal(t, "weekly_project_report.pdf", report.Filename(domain.ReportWeekly))
	assert.Equal(t, "monthly_project_report.pdf", report.Filename(domain.ReportMonthly))
	assert.Equal(t, "Weekly Project Report", report.Title(domain.ReportWeekly))
	assert.Equal(t, "Monthly Project Report", report.Title(domain.ReportMonthly))
}

func TestRow(t *testing.T) {
	progress := "Prototype flying"
	created := time.Date(2026, 10, 12, 15, 4, 0, 0, time.UTC)

	assert.Equal(t,
		[]string{"Drone Navigator", "pending", "g1", "N/A", "2026-10-12"},
		report.Row(domain.Proposal{Title: "Drone Navigator", Status: domain.StatusPending, GroupID: "g1", CreatedAt: created}))
	assert.Equal(t,
		[]string{"Drone Navigator", "accepted", "g1", progress, "-"},
		report.Row(domain.Proposal{Title: "Drone Navigator", Status: domain.StatusAccepted, GroupID: "g1", Progress: &progress}))
}

func TestWritePDF(t *testing.T) {
	progress := "Halfway there"
	proposals := []domain.Proposal{
		{Title: "Drone Navigator", Status: domain.StatusPending, GroupID: "g1", CreatedAt: time.Now()},
		{Title: strings.Repeat("Very long title ", 20), Status: domain.StatusAccepted, GroupID: "g2", Progress: &progress},
	}

	var buf bytes.Buffer
	require.NoError(t, report.WritePDF(&buf, domain.ReportMonthly, proposals))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))

	var empty bytes.Buffer
	require.NoError(t, report.WritePDF(&empty, domain.ReportWeekly, nil))
	assert.True(t, bytes.HasPrefix(empty.Bytes(), []byte("%PDF-")))
}
