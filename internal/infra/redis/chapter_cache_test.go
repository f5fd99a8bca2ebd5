package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"kibaro-cli/internal/domain"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestChapterCacheStoresHashWithTTL(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	cache := NewChapterCache(newClient(mr), time.Minute)

	if _, err := cache.Get(context.Background(), "c1"); !errors.Is(err, domain.ErrCacheMiss) {
		t.Fatalf("expected miss, got %v", err)
	}
	if err := cache.Put(context.Background(), sampleChapter()); err != nil {
		t.Fatalf("put: %v", err)
	}
	if !mr.Exists("kibaro:chapter:c1") {
		t.Fatalf("expected redis hash to be set")
	}
	if ttl := mr.TTL("kibaro:chapter:c1"); ttl < time.Minute || ttl > 66*time.Second {
		t.Fatalf("expected jittered ttl, got %v", ttl)
	}

	got, err := cache.Get(context.Background(), "c1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Chapter.Title != "Empire songhaï" || len(got.Questions) != 1 || !got.Questions[0].Answers[0].IsCorrect {
		t.Fatalf("unexpected cached quiz %+v", got)
	}

	mr.FastForward(2 * time.Minute)
	if _, err := cache.Get(context.Background(), "c1"); !errors.Is(err, domain.ErrCacheMiss) {
		t.Fatalf("expected miss after expiry, got %v", err)
	}
}

func TestChapterCacheSurfacesRedisErrors(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	client := newClient(mr)
	mr.Close()

	_, err = NewChapterCache(client, time.Minute).Get(context.Background(), "c1")
	if err == nil || errors.Is(err, domain.ErrCacheMiss) {
		t.Fatalf("expected connection error, got %v", err)
	}
}

func sampleChapter() domain.ChapterQuiz {
	return domain.ChapterQuiz{
		Chapter: domain.Chapter{ID: "c1", Title: "Empire songhaï", Period: "XVe-XVIe"},
		Questions: []domain.Question{
			{
				ID:   "q1",
				Text: "Capitale de l'empire songhaï ?",
				Answers: []domain.Answer{
					{ID: "a1", Text: "Gao", IsCorrect: true},
					{ID: "a2", Text: "Kankan"},
				},
			},
		},
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
