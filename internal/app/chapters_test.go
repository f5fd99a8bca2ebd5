package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"kibaro-cli/internal/app"
	"kibaro-cli/internal/domain"
	"kibaro-cli/internal/infra/memory"
	"kibaro-cli/internal/transport/rest"
)

func TestChapterQuizzesFallsBackToCacheOffline(t *testing.T) {
	client, api := newClient(t)
	cache := memory.NewChapterCache(time.Hour)
	chapters := app.NewChapterQuizzes(client, cache)

	quiz, cached, err := chapters.Load(context.Background(), "c1")
	if err != nil || cached {
		t.Fatalf("online load: cached=%v err=%v", cached, err)
	}
	if len(quiz.Questions) != 2 || cache.Len() != 1 {
		t.Fatalf("expected quiz cached after load, got %d questions, %d cached", len(quiz.Questions), cache.Len())
	}

	api.Close()
	quiz, cached, err = chapters.Load(context.Background(), "c1")
	if err != nil || !cached {
		t.Fatalf("offline load: cached=%v err=%v", cached, err)
	}
	if quiz.Chapter.Title != "Empire du Ghana" {
		t.Fatalf("unexpected cached chapter %+v", quiz.Chapter)
	}

	if _, _, err := chapters.Load(context.Background(), "c9"); !errors.Is(err, domain.ErrUnreachable) {
		t.Fatalf("uncached chapter offline should report unreachable, got %v", err)
	}
}

func TestChapterQuizzesDoesNotMaskServerErrors(t *testing.T) {
	client, _ := newClient(t)
	cache := memory.NewChapterCache(time.Hour)
	_ = cache.Put(context.Background(), domain.ChapterQuiz{Chapter: domain.Chapter{ID: "missing"}})
	chapters := app.NewChapterQuizzes(client, cache)

	_, cached, err := chapters.Load(context.Background(), "missing")
	var apiErr *rest.APIError
	if !errors.As(err, &apiErr) || cached {
		t.Fatalf("expected 404 from backend, got cached=%v err=%v", cached, err)
	}
	if apiErr.Message != "Chapitre introuvable" {
		t.Fatalf("unexpected message %q", apiErr.Message)
	}
}
