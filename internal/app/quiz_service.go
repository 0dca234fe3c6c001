package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"cohort-portal-service/internal/docstore"
	"cohort-portal-service/internal/domain"
)

// QuizCache returns the quiz attached to a lesson (memory or Redis backed).
type QuizCache interface {
	GetQuiz(ctx context.Context, lessonID string) (domain.Quiz, error)
}

// QuizLoader reads lesson quizzes straight from the document store. It is the
// fill function behind a QuizCache.
type QuizLoader struct {
	store docstore.Store
}

func NewQuizLoader(store docstore.Store) *QuizLoader {
	return &QuizLoader{store: store}
}

// LoadQuiz returns the earliest quiz authored for lessonID. More than one quiz
// per lesson is possible; later ones are ignored.
func (l *QuizLoader) LoadQuiz(ctx context.Context, lessonID string) (domain.Quiz, error) {
	docs, err := l.store.Query(ctx, docstore.Quizzes, docstore.Query{
		Filters: []docstore.Filter{docstore.Where("lessonId", lessonID)},
		Order:   &docstore.Order{Field: "createdAt"},
	})
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	if len(docs) == 0 {
		return domain.Quiz{}, domain.NotFound("quiz for lesson", lessonID)
	}
	return quizFromDoc(docs[0])
}

// QuizService contains the quiz use cases.
type QuizService struct {
	store   docstore.Store
	quizzes QuizCache
	logger  *zap.Logger
	now     func() time.Time
}

func NewQuizService(store docstore.Store, quizzes QuizCache, logger *zap.Logger) *QuizService {
	return &QuizService{store: store, quizzes: quizzes, logger: orNop(logger), now: utcNow}
}

// QuestionInput is one authored question. Answer must be one of Options.
type QuestionInput struct {
	Question string   `json:"question" validate:"notblank"`
	Options  []string `json:"options" validate:"min=2,dive,notblank"`
	Answer   string   `json:"answer" validate:"notblank"`
}

// NewQuiz is the quiz authoring form.
type NewQuiz struct {
	LessonID  string          `json:"lessonId" validate:"notblank"`
	Questions []QuestionInput `json:"questions" validate:"min=1,dive"`
}

// Author stores a quiz for an existing lesson.
func (s *QuizService) Author(ctx context.Context, in NewQuiz) (domain.Quiz, error) {
	if err := validateInput(in); err != nil {
		return domain.Quiz{}, err
	}
	if _, err := s.store.Get(ctx, docstore.Lessons, in.LessonID); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return domain.Quiz{}, domain.NotFound("lesson", in.LessonID)
		}
		return domain.Quiz{}, fmt.Errorf("author quiz: %w", err)
	}

	quiz := domain.Quiz{
		LessonID:  in.LessonID,
		Questions: make([]domain.Question, 0, len(in.Questions)),
		CreatedAt: s.now(),
	}
	for _, q := range in.Questions {
		opts := make([]string, len(q.Options))
		for i, o := range q.Options {
			opts[i] = strings.TrimSpace(o)
		}
		quiz.Questions = append(quiz.Questions, domain.Question{
			Question: strings.TrimSpace(q.Question),
			Options:  opts,
			Answer:   strings.TrimSpace(q.Answer),
		})
	}

	id, err := s.store.Create(ctx, docstore.Quizzes, docstore.Doc{
		"lessonId":  quiz.LessonID,
		"questions": questionDocs(quiz.Questions),
		"createdAt": quiz.CreatedAt,
	})
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("author quiz: %w", err)
	}
	quiz.ID = id
	s.logger.Info("quiz authored", zap.String("quiz_id", id), zap.String("lesson_id", in.LessonID))
	return quiz, nil
}

// ForLesson returns the lesson's quiz through the cache.
func (s *QuizService) ForLesson(ctx context.Context, lessonID string) (domain.Quiz, error) {
	return s.quizzes.GetQuiz(ctx, lessonID)
}

// Take scores answers against the lesson's quiz and stores the result.
// answers[i] answers question i; missing answers count as unanswered.
func (s *QuizService) Take(ctx context.Context, participantID, lessonID string, answers []string) (domain.QuizResult, error) {
	quiz, err := s.ForLesson(ctx, lessonID)
	if err != nil {
		return domain.QuizResult{}, err
	}
	if len(answers) > len(quiz.Questions) {
		return domain.QuizResult{}, fieldError("answers",
			fmt.Sprintf("answers must contain at most %d items", len(quiz.Questions)))
	}
	aligned := make([]string, len(quiz.Questions))
	copy(aligned, answers)

	result := domain.QuizResult{
		ParticipantID: participantID,
		LessonID:      lessonID,
		QuizID:        quiz.ID,
		Answers:       aligned,
		Score:         Score(quiz, aligned),
		SubmittedAt:   s.now(),
	}
	id, err := s.store.Create(ctx, docstore.QuizResults, docstore.Doc{
		"participantId": result.ParticipantID,
		"lessonId":      result.LessonID,
		"quizId":        result.QuizID,
		"answers":       result.Answers,
		"score":         result.Score,
		"submittedAt":   result.SubmittedAt,
	})
	if err != nil {
		return domain.QuizResult{}, fmt.Errorf("save quiz result: %w", err)
	}
	result.ID = id
	s.logger.Info("quiz submitted",
		zap.String("result_id", id),
		zap.String("user_id", participantID),
		zap.Int("score", result.Score))
	return result, nil
}

// Score counts answers that equal the question's answer after trimming and
// lowercasing. An empty or missing answer never matches.
func Score(quiz domain.Quiz, answers []string) int {
	score := 0
	for i, q := range quiz.Questions {
		if i >= len(answers) {
			break
		}
		given := normalizeAnswer(answers[i])
		if given != "" && given == normalizeAnswer(q.Answer) {
			score++
		}
	}
	return score
}

func normalizeAnswer(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ResultView is a stored result together with the quiz it was taken against.
type ResultView struct {
	domain.QuizResult
	Questions []domain.Question `json:"questions"`
}

// Results lists participantID's results, newest first. Quizzes are fetched
// concurrently; a result whose quiz is gone comes back without questions.
func (s *QuizService) Results(ctx context.Context, participantID string) ([]ResultView, error) {
	docs, err := s.store.Query(ctx, docstore.QuizResults, docstore.Query{
		Filters: []docstore.Filter{docstore.Where("participantId", participantID)},
		Order:   &docstore.Order{Field: "submittedAt", Desc: true},
	})
	if err != nil {
		return nil, fmt.Errorf("list quiz results: %w", err)
	}

	views := make([]ResultView, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, doc := range docs {
		i, doc := i, doc
		views[i] = ResultView{QuizResult: resultFromDoc(doc), Questions: []domain.Question{}}
		quizID := views[i].QuizID
		if quizID == "" {
			continue
		}
		g.Go(func() error {
			qdoc, err := s.store.Get(gctx, docstore.Quizzes, quizID)
			if errors.Is(err, docstore.ErrNotFound) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("load quiz %s: %w", quizID, err)
			}
			quiz, err := quizFromDoc(qdoc)
			if err != nil {
				return err
			}
			if quiz.Questions != nil {
				views[i].Questions = quiz.Questions
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return views, nil
}

// QuizSheet is a quiz as handed to a participant: no answers.
type QuizSheet struct {
	ID        string          `json:"id"`
	LessonID  string          `json:"lessonId"`
	Questions []SheetQuestion `json:"questions"`
}

// SheetQuestion is a question without its answer.
type SheetQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// NewQuizSheet strips the answers from quiz.
func NewQuizSheet(quiz domain.Quiz) QuizSheet {
	sheet := QuizSheet{ID: quiz.ID, LessonID: quiz.LessonID, Questions: make([]SheetQuestion, 0, len(quiz.Questions))}
	for _, q := range quiz.Questions {
		sheet.Questions = append(sheet.Questions, SheetQuestion{
			Question: q.Question,
			Options:  append([]string(nil), q.Options...),
		})
	}
	return sheet
}
