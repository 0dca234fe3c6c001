package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound matches any NotFoundError via errors.Is.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyMember is returned when a user joins a group they already belong to.
	ErrAlreadyMember = errors.New("you are already in this group")
	// ErrAuth indicates the identity provider rejected the sign-in.
	ErrAuth = errors.New("authentication failed")
	// ErrLookup indicates the profile for a signed-in identity could not be fetched.
	ErrLookup = errors.New("profile lookup failed")
)

var (
	// ErrNoGroup is returned when a participant without a group tries to submit a proposal.
	ErrNoGroup = NewPreconditionError("You must be in a group to submit a project proposal.")
	// ErrAlreadyInGroup is returned when a participant who already has a group tries to start or join another.
	ErrAlreadyInGroup = NewPreconditionError("You are already in a group.")
	// ErrProposalExists is returned when the group already has a proposal.
	ErrProposalExists = NewPreconditionError("Your group has already submitted a proposal.")
	// ErrNoActiveProposal is returned when progress is posted without a proposal to attach it to.
	ErrNoActiveProposal = NewPreconditionError("There is no active proposal to update.")
	// ErrProgressRequired is returned when the progress text is blank.
	ErrProgressRequired = NewPreconditionError("Progress text is required.")
)

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned for malformed or missing input, always before any storage call.
type ValidationError struct {
	Fields []FieldError
}

// NewValidationError builds a ValidationError from field errors.
func NewValidationError(fields ...FieldError) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "invalid input"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// PreconditionError is returned when an action needs state the caller does not have yet.
type PreconditionError struct {
	Reason string
}

// NewPreconditionError builds a PreconditionError.
func NewPreconditionError(reason string) *PreconditionError {
	return &PreconditionError{Reason: reason}
}

func (e *PreconditionError) Error() string {
	return e.Reason
}

// NotFoundError names the missing entity.
type NotFoundError struct {
	Entity string
	ID     string
}

// NotFound builds a NotFoundError for entity/id.
func NotFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

// Is lets errors.Is(err, ErrNotFound) match.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsPrecondition reports whether err is (or wraps) a PreconditionError.
func IsPrecondition(err error) bool {
	var pe *PreconditionError
	return errors.As(err, &pe)
}
