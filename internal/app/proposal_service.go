package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"cohort-portal-service/internal/docstore"
	"cohort-portal-service/internal/domain"
)

// ProposalService drives a group's project proposal through
// pending -> accepted|rejected.
//
// One proposal per group is enforced by querying before insert, so two members
// submitting at the same moment can both succeed. Progress updates do not
// check that the caller owns the proposal, and status changes accept any of
// the three states from any state.
type ProposalService struct {
	store  docstore.Store
	logger *zap.Logger
	now    func() time.Time
}

func NewProposalService(store docstore.Store, logger *zap.Logger) *ProposalService {
	return &ProposalService{store: store, logger: orNop(logger), now: utcNow}
}

// NewProposal is the proposal submission form.
type NewProposal struct {
	CoordinatorID string `json:"coordinatorId" validate:"notblank"`
	Title         string `json:"title" validate:"notblank,max=200"`
	Description   string `json:"description" validate:"notblank"`
}

// Validate checks the form without touching storage.
func (in NewProposal) Validate() error {
	return validateInput(in)
}

// Submit files a pending proposal for group on behalf of participantID.
func (s *ProposalService) Submit(ctx context.Context, group *domain.Group, participantID string, in NewProposal) (domain.Proposal, error) {
	if err := in.Validate(); err != nil {
		return domain.Proposal{}, err
	}
	if group == nil {
		return domain.Proposal{}, domain.ErrNoGroup
	}

	existing, err := s.ForGroup(ctx, group.ID)
	if err != nil {
		return domain.Proposal{}, err
	}
	if existing != nil {
		return domain.Proposal{}, domain.ErrProposalExists
	}

	now := s.now()
	p := domain.Proposal{
		GroupID:       group.ID,
		ParticipantID: participantID,
		CoordinatorID: strings.TrimSpace(in.CoordinatorID),
		Title:         strings.TrimSpace(in.Title),
		Description:   strings.TrimSpace(in.Description),
		Status:        domain.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	id, err := s.store.Create(ctx, docstore.Proposals, docstore.Doc{
		"groupId":       p.GroupID,
		"participantId": p.ParticipantID,
		"coordinatorId": p.CoordinatorID,
		"title":         p.Title,
		"description":   p.Description,
		"status":        string(p.Status),
		"progress":      nil,
		"createdAt":     p.CreatedAt,
		"updatedAt":     p.UpdatedAt,
	})
	if err != nil {
		return domain.Proposal{}, fmt.Errorf("create proposal: %w", err)
	}
	p.ID = id
	s.logger.Info("proposal submitted",
		zap.String("proposal_id", id),
		zap.String("group_id", group.ID),
		zap.String("user_id", participantID))
	return p, nil
}

// UpdateProgress overwrites the progress note of a proposal.
func (s *ProposalService) UpdateProgress(ctx context.Context, proposalID, text, participantID string) (domain.Proposal, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Proposal{}, domain.ErrProgressRequired
	}
	if proposalID == "" {
		return domain.Proposal{}, domain.ErrNoActiveProposal
	}
	err := s.store.Update(ctx, docstore.Proposals, proposalID, docstore.Doc{
		"progress":  text,
		"updatedAt": s.now(),
	})
	if errors.Is(err, docstore.ErrNotFound) {
		return domain.Proposal{}, domain.ErrNoActiveProposal
	}
	if err != nil {
		return domain.Proposal{}, fmt.Errorf("update progress: %w", err)
	}
	s.logger.Debug("progress updated", zap.String("proposal_id", proposalID), zap.String("user_id", participantID))
	return s.Get(ctx, proposalID)
}

// SetStatus sets the review status. No transition is refused, and the caller
// is not checked against the proposal's coordinatorId: any coordinator can
// review any proposal. Reopening an accepted or rejected proposal is logged.
func (s *ProposalService) SetStatus(ctx context.Context, proposalID string, status domain.ProposalStatus, coordinatorID string) (domain.Proposal, error) {
	if !status.Valid() {
		return domain.Proposal{}, fieldError("status", "status must be pending, accepted or rejected")
	}
	prev, err := s.Get(ctx, proposalID)
	if err != nil {
		return domain.Proposal{}, err
	}
	err = s.store.Update(ctx, docstore.Proposals, proposalID, docstore.Doc{"status": string(status)})
	if errors.Is(err, docstore.ErrNotFound) {
		return domain.Proposal{}, domain.NotFound("proposal", proposalID)
	}
	if err != nil {
		return domain.Proposal{}, fmt.Errorf("set status: %w", err)
	}
	fields := []zap.Field{
		zap.String("proposal_id", proposalID),
		zap.String("from", string(prev.Status)),
		zap.String("status", string(status)),
		zap.String("user_id", coordinatorID),
	}
	if prev.Status.Terminal() && !status.Terminal() {
		s.logger.Warn("reviewed proposal reopened", fields...)
	} else {
		s.logger.Info("proposal status changed", fields...)
	}
	return s.Get(ctx, proposalID)
}

// Get returns one proposal.
func (s *ProposalService) Get(ctx context.Context, proposalID string) (domain.Proposal, error) {
	doc, err := s.store.Get(ctx, docstore.Proposals, proposalID)
	if errors.Is(err, docstore.ErrNotFound) {
		return domain.Proposal{}, domain.NotFound("proposal", proposalID)
	}
	if err != nil {
		return domain.Proposal{}, fmt.Errorf("get proposal: %w", err)
	}
	return proposalFromDoc(doc), nil
}

// ForGroup returns the group's earliest proposal, or nil.
func (s *ProposalService) ForGroup(ctx context.Context, groupID string) (*domain.Proposal, error) {
	docs, err := s.store.Query(ctx, docstore.Proposals, docstore.Query{
		Filters: []docstore.Filter{docstore.Where("groupId", groupID)},
		Order:   &docstore.Order{Field: "createdAt"},
	})
	if err != nil {
		return nil, fmt.Errorf("find group proposal: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	p := proposalFromDoc(docs[0])
	return &p, nil
}

// Assigned lists proposals reviewed by coordinatorID.
func (s *ProposalService) Assigned(ctx context.Context, coordinatorID string) ([]domain.Proposal, error) {
	docs, err := s.store.Query(ctx, docstore.Proposals, docstore.Query{
		Filters: []docstore.Filter{docstore.Where("coordinatorId", coordinatorID)},
	})
	if err != nil {
		return nil, fmt.Errorf("list assigned proposals: %w", err)
	}
	out := make([]domain.Proposal, 0, len(docs))
	for _, doc := range docs {
		out = append(out, proposalFromDoc(doc))
	}
	return out, nil
}

// Since lists proposals created at or after start, oldest first.
func (s *ProposalService) Since(ctx context.Context, start time.Time) ([]domain.Proposal, error) {
	docs, err := s.store.Query(ctx, docstore.Proposals, docstore.Query{
		Filters: []docstore.Filter{docstore.AtLeast("createdAt", start)},
		Order:   &docstore.Order{Field: "createdAt"},
	})
	if err != nil {
		return nil, fmt.Errorf("list proposals since: %w", err)
	}
	out := make([]domain.Proposal, 0, len(docs))
	for _, doc := range docs {
		out = append(out, proposalFromDoc(doc))
	}
	return out, nil
}
