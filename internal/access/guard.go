// Package access decides whether a session may see a protected view.
package access

import (
	"cohort-portal-service/internal/domain"
	"cohort-portal-service/internal/session"
)

// LandingRoute is where failed checks send the client.
const LandingRoute = "/"

// Policy is a predicate over a settled session.
type Policy struct {
	name string
	role domain.Role // empty: any signed-in user
}

var (
	Authenticated = Policy{name: "authenticated"}
	Participant   = RequireRole(domain.RoleParticipant)
	Coordinator   = RequireRole(domain.RoleCoordinator)
)

// RequireRole passes signed-in users holding role.
func RequireRole(role domain.Role) Policy {
	return Policy{name: "role:" + string(role), role: role}
}

func (p Policy) String() string { return p.name }

// Role returns the required role, or "" for Authenticated.
func (p Policy) Role() domain.Role { return p.role }

type Outcome int

const (
	// Pending means the first identity resolution has not completed; nothing
	// should be rendered yet.
	Pending Outcome = iota
	Allow
	Redirect
)

func (o Outcome) String() string {
	switch o {
	case Pending:
		return "pending"
	case Allow:
		return "allow"
	case Redirect:
		return "redirect"
	}
	return "unknown"
}

// Decision is the result of evaluating a policy.
type Decision struct {
	Outcome Outcome
	// Target is set for Redirect.
	Target string
	// SignedIn distinguishes a missing user from a role mismatch on Redirect.
	SignedIn bool
}

// Evaluate is pure: the same policy and state always give the same decision.
func Evaluate(p Policy, st session.State) Decision {
	if st.Loading {
		return Decision{Outcome: Pending}
	}
	if st.CurrentUser == nil {
		return Decision{Outcome: Redirect, Target: LandingRoute}
	}
	if p.role != "" && st.Role != p.role {
		return Decision{Outcome: Redirect, Target: LandingRoute, SignedIn: true}
	}
	return Decision{Outcome: Allow, SignedIn: true}
}
