package app

import (
	"context"
	"fmt"
	"time"

	"cohort-portal-service/internal/domain"
)

// ReportService selects the proposals that go into a coordinator report.
type ReportService struct {
	proposals *ProposalService
}

func NewReportService(proposals *ProposalService) *ReportService {
	return &ReportService{proposals: proposals}
}

// Proposals returns the proposals created inside kind's window ending at now.
func (s *ReportService) Proposals(ctx context.Context, kind domain.ReportKind, now time.Time) ([]domain.Proposal, error) {
	if !kind.Valid() {
		return nil, fieldError("kind", fmt.Sprintf("unknown report kind %q", kind))
	}
	return s.proposals.Since(ctx, kind.WindowStart(now))
}
