package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"kibaro-cli/internal/domain"

	"github.com/uptrace/bun"
)

type cachedChapter struct {
	bun.BaseModel `bun:"table:chapter_cache"`

	ChapterID string     `bun:"chapter_id,pk"`
	Payload   string     `bun:"payload,notnull"`
	CachedAt  time.Time  `bun:"cached_at,notnull"`
	ExpiresAt *time.Time `bun:"expires_at"`
}

// ChapterCache keeps the last good copy of each chapter quiz in the offline
// store so a quiz can be replayed in a later run without the backend.
type ChapterCache struct {
	db  *bun.DB
	ttl time.Duration
	now func() time.Time
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewChapterCache creates a cache. A ttl of zero keeps entries forever.
func NewChapterCache(db *bun.DB, ttl time.Duration) *ChapterCache {
	return NewChapterCacheWithClock(db, ttl, time.Now)
}

func NewChapterCacheWithClock(db *bun.DB, ttl time.Duration, now func() time.Time) *ChapterCache {
	return &ChapterCache{
		db:  db,
		ttl: ttl,
		now: now,
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *ChapterCache) Get(ctx context.Context, chapterID string) (domain.ChapterQuiz, error) {
	var row cachedChapter
	err := c.db.NewSelect().
		Model(&row).
		Where("chapter_id = ?", chapterID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ChapterQuiz{}, domain.ErrCacheMiss
	}
	if err != nil {
		return domain.ChapterQuiz{}, fmt.Errorf("select cached chapter: %w", err)
	}
	if row.ExpiresAt != nil && !row.ExpiresAt.After(c.now().UTC()) {
		return domain.ChapterQuiz{}, domain.ErrCacheMiss
	}

	var quiz domain.ChapterQuiz
	if err := json.Unmarshal([]byte(row.Payload), &quiz); err != nil {
		return domain.ChapterQuiz{}, fmt.Errorf("decode cached chapter %s: %w", chapterID, err)
	}
	return quiz, nil
}

func (c *ChapterCache) Put(ctx context.Context, quiz domain.ChapterQuiz) error {
	payload, err := json.Marshal(quiz)
	if err != nil {
		return fmt.Errorf("encode chapter %s: %w", quiz.Chapter.ID, err)
	}
	now := c.now().UTC()
	row := cachedChapter{ChapterID: quiz.Chapter.ID, Payload: string(payload), CachedAt: now}
	if ttl := c.ttlWithJitter(); ttl > 0 {
		expires := now.Add(ttl)
		row.ExpiresAt = &expires
	}

	_, err = c.db.NewInsert().
		Model(&row).
		On("CONFLICT (chapter_id) DO UPDATE").
		Set("payload = EXCLUDED.payload").
		Set("cached_at = EXCLUDED.cached_at").
		Set("expires_at = EXCLUDED.expires_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert cached chapter: %w", err)
	}
	return nil
}

// ttlWithJitter adds up to 10% so entries written together do not expire together.
func (c *ChapterCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(int64(c.ttl)/10+1))
}
