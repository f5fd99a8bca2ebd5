package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"kibaro-cli/internal/domain"

	"github.com/redis/go-redis/v9"
)

// ChapterCache keeps chapter quizzes in Redis, one hash per chapter:
//
//	HSET kibaro:chapter:{id} chapter {json} questions {json}
type ChapterCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewChapterCache(client *redis.Client, ttl time.Duration) *ChapterCache {
	return &ChapterCache{
		client: client,
		prefix: "kibaro:chapter:",
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *ChapterCache) Get(ctx context.Context, chapterID string) (domain.ChapterQuiz, error) {
	fields, err := c.client.HGetAll(ctx, c.key(chapterID)).Result()
	if err != nil {
		return domain.ChapterQuiz{}, fmt.Errorf("read chapter cache: %w", err)
	}
	if len(fields) == 0 {
		return domain.ChapterQuiz{}, domain.ErrCacheMiss
	}

	var quiz domain.ChapterQuiz
	if err := json.Unmarshal([]byte(fields["chapter"]), &quiz.Chapter); err != nil {
		return domain.ChapterQuiz{}, fmt.Errorf("decode cached chapter: %w", err)
	}
	if raw, ok := fields["questions"]; ok {
		if err := json.Unmarshal([]byte(raw), &quiz.Questions); err != nil {
			return domain.ChapterQuiz{}, fmt.Errorf("decode cached questions: %w", err)
		}
	}
	return quiz, nil
}

func (c *ChapterCache) Put(ctx context.Context, quiz domain.ChapterQuiz) error {
	chapter, err := json.Marshal(quiz.Chapter)
	if err != nil {
		return err
	}
	questions, err := json.Marshal(quiz.Questions)
	if err != nil {
		return err
	}

	key := c.key(quiz.Chapter.ID)
	pipe := c.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, "chapter", chapter, "questions", questions)
	if ttl := c.ttlWithJitter(); ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("write chapter cache: %w", err)
	}
	return nil
}

func (c *ChapterCache) key(chapterID string) string {
	return c.prefix + chapterID
}

func (c *ChapterCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
