package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"kibaro-cli/internal/domain"
)

// ChapterCache keeps chapter quizzes in process memory with a jittered TTL.
type ChapterCache struct {
	ttl   time.Duration
	clock func() time.Time
	rnd   *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedChapter
}

type cachedChapter struct {
	quiz      domain.ChapterQuiz
	expiresAt time.Time
}

// NewChapterCache creates a cache. A ttl of zero keeps entries forever.
func NewChapterCache(ttl time.Duration) *ChapterCache {
	return NewChapterCacheWithClock(ttl, time.Now)
}

// NewChapterCacheWithClock allows deterministic expiry in tests.
func NewChapterCacheWithClock(ttl time.Duration, clock func() time.Time) *ChapterCache {
	return &ChapterCache{
		ttl:   ttl,
		clock: clock,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
		cache: make(map[string]cachedChapter),
	}
}

func (c *ChapterCache) Get(_ context.Context, chapterID string) (domain.ChapterQuiz, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[chapterID]
	if !ok {
		return domain.ChapterQuiz{}, domain.ErrCacheMiss
	}
	if !entry.expiresAt.IsZero() && !entry.expiresAt.After(c.clock()) {
		return domain.ChapterQuiz{}, domain.ErrCacheMiss
	}
	return entry.quiz, nil
}

func (c *ChapterCache) Put(_ context.Context, quiz domain.ChapterQuiz) error {
	var expiresAt time.Time
	c.mu.Lock()
	defer c.mu.Unlock()
	if ttl := c.ttlWithJitterLocked(); ttl > 0 {
		expiresAt = c.clock().Add(ttl)
	}
	c.cache[quiz.Chapter.ID] = cachedChapter{quiz: quiz, expiresAt: expiresAt}
	return nil
}

// Len reports how many chapters are held, expired or not.
func (c *ChapterCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

func (c *ChapterCache) ttlWithJitterLocked() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
