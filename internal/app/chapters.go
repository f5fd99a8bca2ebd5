package app

import (
	"context"
	"errors"

	"kibaro-cli/internal/domain"
	"kibaro-cli/internal/logger"

	"golang.org/x/sync/singleflight"
)

// ChapterQuizzes loads chapter quizzes over the network and keeps the last good
// copy in a cache. The cache only answers when the backend is unreachable.
type ChapterQuizzes struct {
	loader ChapterLoader
	cache  ChapterCache
	sf     singleflight.Group
}

func NewChapterQuizzes(loader ChapterLoader, cache ChapterCache) *ChapterQuizzes {
	return &ChapterQuizzes{loader: loader, cache: cache}
}

// Load returns the quiz and whether it came from the cache.
func (c *ChapterQuizzes) Load(ctx context.Context, chapterID string) (domain.ChapterQuiz, bool, error) {
	log := logger.FromContext(ctx).WithField("chapter_id", chapterID)

	v, err, _ := c.sf.Do(chapterID, func() (interface{}, error) {
		return c.loader.ChapterQuiz(ctx, chapterID)
	})
	if err == nil {
		quiz := v.(domain.ChapterQuiz)
		if quiz.Chapter.ID == "" {
			quiz.Chapter.ID = chapterID
		}
		if c.cache != nil {
			if perr := c.cache.Put(ctx, quiz); perr != nil {
				log.WithError(perr).Warn("chapter cache write failed")
			}
		}
		return quiz, false, nil
	}

	if c.cache == nil || !errors.Is(err, domain.ErrUnreachable) {
		return domain.ChapterQuiz{}, false, err
	}
	quiz, cerr := c.cache.Get(ctx, chapterID)
	if cerr != nil {
		if !errors.Is(cerr, domain.ErrCacheMiss) {
			log.WithError(cerr).Warn("chapter cache read failed")
		}
		return domain.ChapterQuiz{}, false, err
	}
	log.Info("serving cached chapter quiz")
	return quiz, true, nil
}
