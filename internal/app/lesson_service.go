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

// LessonService manages lesson content. Mutations are coordinator-only; the
// HTTP layer enforces that before calling in.
type LessonService struct {
	store  docstore.Store
	logger *zap.Logger
	now    func() time.Time
}

func NewLessonService(store docstore.Store, logger *zap.Logger) *LessonService {
	return &LessonService{store: store, logger: orNop(logger), now: utcNow}
}

// NewLesson is the create/edit lesson form.
type NewLesson struct {
	Title    string             `json:"title" validate:"notblank,max=200"`
	Level    domain.LessonLevel `json:"level" validate:"oneof=beginner intermediate advanced"`
	Content  string             `json:"content" validate:"notblank"`
	Resource string             `json:"resource" validate:"omitempty,url"`
}

func (in NewLesson) doc() docstore.Doc {
	return docstore.Doc{
		"title":    strings.TrimSpace(in.Title),
		"level":    string(in.Level),
		"content":  in.Content,
		"resource": strings.TrimSpace(in.Resource),
	}
}

// List returns all lessons, newest first.
func (s *LessonService) List(ctx context.Context) ([]domain.Lesson, error) {
	docs, err := s.store.Query(ctx, docstore.Lessons, docstore.Query{
		Order: &docstore.Order{Field: "createdAt", Desc: true},
	})
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	out := make([]domain.Lesson, 0, len(docs))
	for _, doc := range docs {
		out = append(out, lessonFromDoc(doc))
	}
	return out, nil
}

func (s *LessonService) Get(ctx context.Context, id string) (domain.Lesson, error) {
	doc, err := s.store.Get(ctx, docstore.Lessons, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return domain.Lesson{}, domain.NotFound("lesson", id)
	}
	if err != nil {
		return domain.Lesson{}, fmt.Errorf("get lesson: %w", err)
	}
	return lessonFromDoc(doc), nil
}

func (s *LessonService) Create(ctx context.Context, coordinatorID string, in NewLesson) (domain.Lesson, error) {
	if err := validateInput(in); err != nil {
		return domain.Lesson{}, err
	}
	doc := in.doc()
	doc["coordinatorId"] = coordinatorID
	doc["createdAt"] = s.now()

	id, err := s.store.Create(ctx, docstore.Lessons, doc)
	if err != nil {
		return domain.Lesson{}, fmt.Errorf("create lesson: %w", err)
	}
	s.logger.Info("lesson created", zap.String("lesson_id", id), zap.String("user_id", coordinatorID))
	return s.Get(ctx, id)
}

// Update replaces the editable fields; author and creation time are kept.
func (s *LessonService) Update(ctx context.Context, id string, in NewLesson) (domain.Lesson, error) {
	if err := validateInput(in); err != nil {
		return domain.Lesson{}, err
	}
	err := s.store.Update(ctx, docstore.Lessons, id, in.doc())
	if errors.Is(err, docstore.ErrNotFound) {
		return domain.Lesson{}, domain.NotFound("lesson", id)
	}
	if err != nil {
		return domain.Lesson{}, fmt.Errorf("update lesson: %w", err)
	}
	return s.Get(ctx, id)
}

// Delete removes a lesson. Deleting a missing lesson is not an error.
func (s *LessonService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, docstore.Lessons, id); err != nil {
		return fmt.Errorf("delete lesson: %w", err)
	}
	s.logger.Info("lesson deleted", zap.String("lesson_id", id))
	return nil
}
