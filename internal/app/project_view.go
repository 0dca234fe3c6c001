package app

import (
	"context"
	"fmt"

	"cohort-portal-service/internal/domain"
)

// ProjectView is the project portal for one role. Exactly one of the
// implementations below is produced, chosen once from the resolved role.
type ProjectView interface {
	Kind() string
	projectView()
}

// ParticipantProjectView is what a participant sees: their group, the group's
// proposal (if any) and the coordinators they can submit to.
type ParticipantProjectView struct {
	Group        *domain.Group        `json:"group"`
	Proposal     *domain.Proposal     `json:"proposal"`
	Coordinators []domain.UserProfile `json:"coordinators"`
	Message      string               `json:"message,omitempty"`
}

// CoordinatorProjectView lists the proposals assigned to a coordinator.
type CoordinatorProjectView struct {
	Proposals []domain.Proposal `json:"proposals"`
}

func (ParticipantProjectView) Kind() string { return string(domain.RoleParticipant) }
func (CoordinatorProjectView) Kind() string { return string(domain.RoleCoordinator) }
func (ParticipantProjectView) projectView() {}
func (CoordinatorProjectView) projectView() {}

// Portal assembles role-specific views.
type Portal struct {
	profiles  *ProfileService
	groups    *GroupService
	proposals *ProposalService
}

func NewPortal(profiles *ProfileService, groups *GroupService, proposals *ProposalService) *Portal {
	return &Portal{profiles: profiles, groups: groups, proposals: proposals}
}

// ProjectView loads the project portal for user.
func (p *Portal) ProjectView(ctx context.Context, user domain.UserProfile) (ProjectView, error) {
	switch user.Role {
	case domain.RoleCoordinator:
		proposals, err := p.proposals.Assigned(ctx, user.UserID)
		if err != nil {
			return nil, err
		}
		return CoordinatorProjectView{Proposals: proposals}, nil
	case domain.RoleParticipant:
		return p.participantView(ctx, user.UserID)
	default:
		return nil, fmt.Errorf("no project view for role %q", user.Role)
	}
}

func (p *Portal) participantView(ctx context.Context, userID string) (ParticipantProjectView, error) {
	var (
		view ParticipantProjectView
		err  error
	)
	if view.Coordinators, err = p.profiles.Coordinators(ctx); err != nil {
		return view, err
	}
	if view.Group, err = p.groups.FindMyGroup(ctx, userID); err != nil {
		return view, err
	}
	if view.Group == nil {
		view.Message = domain.ErrNoGroup.Reason
		return view, nil
	}
	view.Proposal, err = p.proposals.ForGroup(ctx, view.Group.ID)
	return view, err
}
