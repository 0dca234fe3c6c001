package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"cohort-portal-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// QuizLoader fetches the quiz attached to a lesson from the document store.
type QuizLoader interface {
	LoadQuiz(ctx context.Context, lessonID string) (domain.Quiz, error)
}

// QuizCache keeps lesson quizzes with a TTL to avoid repeated store scans.
// Quizzes are immutable once authored, so a cached entry is never stale;
// the TTL only bounds memory.
type QuizCache struct {
	loader QuizLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu    sync.RWMutex
	rnd   *rand.Rand
	cache map[string]cachedQuiz
}

type cachedQuiz struct {
	quiz      domain.Quiz
	expiresAt time.Time
}

func NewQuizCache(loader QuizLoader, ttl time.Duration) *QuizCache {
	return &QuizCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedQuiz),
	}
}

func (c *QuizCache) GetQuiz(ctx context.Context, lessonID string) (domain.Quiz, error) {
	if quiz, ok := c.lookup(lessonID); ok {
		return quiz, nil
	}

	result, err, _ := c.sf.Do(lessonID, func() (interface{}, error) {
		if quiz, ok := c.lookup(lessonID); ok {
			return quiz, nil
		}

		quiz, err := c.loader.LoadQuiz(ctx, lessonID)
		if err != nil {
			return domain.Quiz{}, err
		}

		c.mu.Lock()
		c.cache[lessonID] = cachedQuiz{
			quiz:      quiz,
			expiresAt: c.clock().Add(c.ttlWithJitterLocked()),
		}
		c.mu.Unlock()
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

func (c *QuizCache) lookup(lessonID string) (domain.Quiz, bool) {
	now := c.clock()
	c.mu.RLock()
	defer c.mu.RUnlock()
	if entry, ok := c.cache[lessonID]; ok && entry.expiresAt.After(now) {
		return entry.quiz, true
	}
	return domain.Quiz{}, false
}

func (c *QuizCache) ttlWithJitterLocked() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
