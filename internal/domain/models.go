package domain

import "time"

// Role partitions users into the participant and coordinator views.
type Role string

const (
	RoleParticipant Role = "participant"
	RoleCoordinator Role = "coordinator"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleParticipant || r == RoleCoordinator
}

// Identity is what the identity provider hands back after sign-in.
type Identity struct {
	UserID      string `json:"userId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

// UserProfile is the stored profile keyed by the provider's user id.
type UserProfile struct {
	UserID      string    `json:"userId"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	Role        Role      `json:"role"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Group is a set of participants collaborating on one proposal.
type Group struct {
	ID        string    `json:"id"`
	Name      string    `json:"groupName"`
	Members   []string  `json:"members"`
	CreatedAt time.Time `json:"createdAt"`
}

// HasMember reports whether userID is in the group.
func (g Group) HasMember(userID string) bool {
	for _, m := range g.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// ProposalStatus is the review state of a proposal.
type ProposalStatus string

const (
	StatusPending  ProposalStatus = "pending"
	StatusAccepted ProposalStatus = "accepted"
	StatusRejected ProposalStatus = "rejected"
)

// Valid reports whether s is one of the three known states.
func (s ProposalStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// Terminal reports whether s is accepted or rejected.
func (s ProposalStatus) Terminal() bool {
	return s == StatusAccepted || s == StatusRejected
}

// Proposal is a group's project proposal.
type Proposal struct {
	ID            string         `json:"id"`
	GroupID       string         `json:"groupId"`
	ParticipantID string         `json:"participantId"`
	CoordinatorID string         `json:"coordinatorId"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	Status        ProposalStatus `json:"status"`
	Progress      *string        `json:"progress"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// LessonLevel is the difficulty band of a lesson.
type LessonLevel string

const (
	LevelBeginner     LessonLevel = "beginner"
	LevelIntermediate LessonLevel = "intermediate"
	LevelAdvanced     LessonLevel = "advanced"
)

// Lesson is coordinator-authored learning content.
type Lesson struct {
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	Level         LessonLevel `json:"level"`
	Content       string      `json:"content"`
	Resource      string      `json:"resource,omitempty"`
	CoordinatorID string      `json:"coordinatorId"`
	CreatedAt     time.Time   `json:"createdAt"`
}

// Question is a multiple-choice question. Answer holds the text of the correct option.
type Question struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
}

// Quiz is the set of questions attached to a lesson.
type Quiz struct {
	ID        string     `json:"id"`
	LessonID  string     `json:"lessonId"`
	Questions []Question `json:"questions"`
	CreatedAt time.Time  `json:"createdAt"`
}

// QuizResult is a single scored submission.
type QuizResult struct {
	ID            string    `json:"id"`
	ParticipantID string    `json:"participantId"`
	LessonID      string    `json:"lessonId"`
	QuizID        string    `json:"quizId"`
	Answers       []string  `json:"answers"`
	Score         int       `json:"score"`
	SubmittedAt   time.Time `json:"submittedAt"`
}

// ReportKind selects the reporting window.
type ReportKind string

const (
	ReportWeekly  ReportKind = "weekly"
	ReportMonthly ReportKind = "monthly"
)

// Valid reports whether k is weekly or monthly.
func (k ReportKind) Valid() bool {
	return k == ReportWeekly || k == ReportMonthly
}

// WindowStart returns the earliest createdAt included in a report generated at now.
func (k ReportKind) WindowStart(now time.Time) time.Time {
	if k == ReportMonthly {
		return now.AddDate(0, -1, 0)
	}
	return now.AddDate(0, 0, -7)
}
