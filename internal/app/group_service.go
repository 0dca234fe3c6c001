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

// GroupService manages group membership. A user is meant to be in at most one
// group, but none of the read-then-write sequences here are atomic:
//   - two StartGroup calls by the same user can both pass the FindMyGroup
//     check and leave the user in two groups;
//   - two concurrent JoinGroup calls on one group read the same member list
//     and the later write drops the earlier joiner.
type GroupService struct {
	store  docstore.Store
	logger *zap.Logger
	now    func() time.Time
}

func NewGroupService(store docstore.Store, logger *zap.Logger) *GroupService {
	return &GroupService{store: store, logger: orNop(logger), now: utcNow}
}

// NewGroup is the create-group form.
type NewGroup struct {
	Name string `json:"groupName" validate:"notblank,max=120"`
}

// ListGroups returns every group in creation order.
func (s *GroupService) ListGroups(ctx context.Context) ([]domain.Group, error) {
	docs, err := s.store.Query(ctx, docstore.Groups, docstore.Query{})
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	groups := make([]domain.Group, 0, len(docs))
	for _, doc := range docs {
		groups = append(groups, groupFromDoc(doc))
	}
	return groups, nil
}

// FindMyGroup returns the first group listing userID, or nil.
func (s *GroupService) FindMyGroup(ctx context.Context, userID string) (*domain.Group, error) {
	groups, err := s.ListGroups(ctx)
	if err != nil {
		return nil, err
	}
	for i := range groups {
		if groups[i].HasMember(userID) {
			return &groups[i], nil
		}
	}
	return nil, nil
}

// CreateGroup creates a group whose only member is userID. It does not check
// whether userID already belongs to a group; see StartGroup.
func (s *GroupService) CreateGroup(ctx context.Context, name, userID string) (domain.Group, error) {
	if err := validateInput(NewGroup{Name: name}); err != nil {
		return domain.Group{}, err
	}
	g := domain.Group{
		Name:      strings.TrimSpace(name),
		Members:   []string{userID},
		CreatedAt: s.now(),
	}
	id, err := s.store.Create(ctx, docstore.Groups, docstore.Doc{
		"groupName": g.Name,
		"members":   g.Members,
		"createdAt": g.CreatedAt,
	})
	if err != nil {
		return domain.Group{}, fmt.Errorf("create group: %w", err)
	}
	g.ID = id
	s.logger.Info("group created", zap.String("group_id", id), zap.String("user_id", userID))
	return g, nil
}

// JoinGroup appends userID to the group's members. The member list is taken
// from a fresh listing of all groups and written back whole.
func (s *GroupService) JoinGroup(ctx context.Context, groupID, userID string) (domain.Group, error) {
	groups, err := s.ListGroups(ctx)
	if err != nil {
		return domain.Group{}, err
	}
	var target *domain.Group
	for i := range groups {
		if groups[i].ID == groupID {
			target = &groups[i]
			break
		}
	}
	if target == nil {
		return domain.Group{}, domain.NotFound("group", groupID)
	}
	if target.HasMember(userID) {
		return domain.Group{}, domain.ErrAlreadyMember
	}

	members := append(append([]string{}, target.Members...), userID)
	err = s.store.Update(ctx, docstore.Groups, groupID, docstore.Doc{"members": members})
	if errors.Is(err, docstore.ErrNotFound) {
		return domain.Group{}, domain.NotFound("group", groupID)
	}
	if err != nil {
		return domain.Group{}, fmt.Errorf("join group: %w", err)
	}
	target.Members = members
	s.logger.Info("group joined", zap.String("group_id", groupID), zap.String("user_id", userID))
	return *target, nil
}

// StartGroup creates a group for a user who has none.
func (s *GroupService) StartGroup(ctx context.Context, name, userID string) (domain.Group, error) {
	if err := validateInput(NewGroup{Name: name}); err != nil {
		return domain.Group{}, err
	}
	mine, err := s.FindMyGroup(ctx, userID)
	if err != nil {
		return domain.Group{}, err
	}
	if mine != nil {
		return domain.Group{}, domain.ErrAlreadyInGroup
	}
	return s.CreateGroup(ctx, name, userID)
}

// EnterGroup joins groupID unless the user already belongs to a different group.
func (s *GroupService) EnterGroup(ctx context.Context, groupID, userID string) (domain.Group, error) {
	mine, err := s.FindMyGroup(ctx, userID)
	if err != nil {
		return domain.Group{}, err
	}
	if mine != nil && mine.ID != groupID {
		return domain.Group{}, domain.ErrAlreadyInGroup
	}
	return s.JoinGroup(ctx, groupID, userID)
}
