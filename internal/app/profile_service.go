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

// ProfileService resolves identities to stored profiles and manages them.
type ProfileService struct {
	store  docstore.Store
	logger *zap.Logger
	now    func() time.Time
}

func NewProfileService(store docstore.Store, logger *zap.Logger) *ProfileService {
	return &ProfileService{store: store, logger: orNop(logger), now: utcNow}
}

// Resolve returns the profile for id, creating a participant profile on first
// sight. A nil identity resolves to nil. Any storage failure is ErrLookup.
//
// The existence check and the write are not atomic: two first sign-ins racing
// for the same user both write the same default profile, and the later Put
// simply overwrites the earlier one.
func (s *ProfileService) Resolve(ctx context.Context, id *domain.Identity) (*domain.UserProfile, error) {
	if id == nil {
		return nil, nil
	}
	doc, err := s.store.Get(ctx, docstore.Users, id.UserID)
	switch {
	case err == nil:
		p := profileFromDoc(doc)
		return &p, nil
	case !errors.Is(err, docstore.ErrNotFound):
		return nil, fmt.Errorf("%w: %v", domain.ErrLookup, err)
	}

	p := domain.UserProfile{
		UserID:      id.UserID,
		Email:       id.Email,
		DisplayName: id.DisplayName,
		Role:        domain.RoleParticipant,
		CreatedAt:   s.now(),
	}
	if err := s.store.Put(ctx, docstore.Users, id.UserID, profileDoc(p)); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrLookup, err)
	}
	s.logger.Info("profile created", zap.String("user_id", id.UserID))
	return &p, nil
}

// Get returns the stored profile for userID.
func (s *ProfileService) Get(ctx context.Context, userID string) (domain.UserProfile, error) {
	doc, err := s.store.Get(ctx, docstore.Users, userID)
	if errors.Is(err, docstore.ErrNotFound) {
		return domain.UserProfile{}, domain.NotFound("user", userID)
	}
	if err != nil {
		return domain.UserProfile{}, fmt.Errorf("get profile: %w", err)
	}
	return profileFromDoc(doc), nil
}

// DisplayNameInput is the editable part of a profile.
type DisplayNameInput struct {
	DisplayName string `json:"displayName" validate:"notblank,max=80"`
}

func (s *ProfileService) UpdateDisplayName(ctx context.Context, userID string, in DisplayNameInput) (domain.UserProfile, error) {
	if err := validateInput(in); err != nil {
		return domain.UserProfile{}, err
	}
	err := s.store.Update(ctx, docstore.Users, userID, docstore.Doc{
		"displayName": strings.TrimSpace(in.DisplayName),
	})
	if errors.Is(err, docstore.ErrNotFound) {
		return domain.UserProfile{}, domain.NotFound("user", userID)
	}
	if err != nil {
		return domain.UserProfile{}, fmt.Errorf("update profile: %w", err)
	}
	return s.Get(ctx, userID)
}

// Coordinators lists every profile with the coordinator role.
func (s *ProfileService) Coordinators(ctx context.Context) ([]domain.UserProfile, error) {
	docs, err := s.store.Query(ctx, docstore.Users, docstore.Query{
		Filters: []docstore.Filter{docstore.Where("role", string(domain.RoleCoordinator))},
	})
	if err != nil {
		return nil, fmt.Errorf("list coordinators: %w", err)
	}
	out := make([]domain.UserProfile, 0, len(docs))
	for _, doc := range docs {
		out = append(out, profileFromDoc(doc))
	}
	return out, nil
}

// SetRole assigns role to an existing user. Only operators reach this,
// through the promote command.
func (s *ProfileService) SetRole(ctx context.Context, userID string, role domain.Role) error {
	if !role.Valid() {
		return fieldError("role", "role must be participant or coordinator")
	}
	err := s.store.Update(ctx, docstore.Users, userID, docstore.Doc{"role": string(role)})
	if errors.Is(err, docstore.ErrNotFound) {
		return domain.NotFound("user", userID)
	}
	if err != nil {
		return fmt.Errorf("set role: %w", err)
	}
	s.logger.Info("role changed", zap.String("user_id", userID), zap.String("role", string(role)))
	return nil
}

func orNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
