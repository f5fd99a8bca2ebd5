package app

import (
	"context"

	"kibaro-cli/internal/domain"
)

// AuthAPI is the slice of the backend the session store needs.
type AuthAPI interface {
	Login(ctx context.Context, in domain.LoginInput) (domain.AuthResponse, error)
	Register(ctx context.Context, in domain.RegisterInput) (domain.AuthResponse, error)
	MyScores(ctx context.Context) ([]domain.Score, error)
}

// CredentialStore abstracts where {token, user} survive between runs (file, memory, Redis).
type CredentialStore interface {
	Load(ctx context.Context) (domain.Credentials, bool, error)
	Save(ctx context.Context, creds domain.Credentials) error
	Clear(ctx context.Context) error
}

// DuelAPI is the duel lifecycle on the backend.
type DuelAPI interface {
	CreateGame(ctx context.Context, req domain.CreateMatchRequest) (domain.Game, error)
	JoinGame(ctx context.Context, id string) error
	Game(ctx context.Context, id string) (domain.Game, error)
	GameQuestions(ctx context.Context, id string) ([]domain.Question, error)
	SubmitGame(ctx context.Context, id string, res domain.Result) error
}

// RoomAPI is the room lifecycle on the backend.
type RoomAPI interface {
	CreateRoom(ctx context.Context, req domain.CreateMatchRequest) (domain.Room, error)
	JoinRoom(ctx context.Context, joinCode string) (domain.Room, error)
	Room(ctx context.Context, id string) (domain.Room, error)
	StartRoom(ctx context.Context, id string) error
	RoomQuestions(ctx context.Context, id string) ([]domain.Question, error)
	SubmitRoom(ctx context.Context, id string, res domain.Result) error
}

// ChapterLoader fetches chapter quizzes from the backend.
type ChapterLoader interface {
	ChapterQuiz(ctx context.Context, chapterID string) (domain.ChapterQuiz, error)
}

// ChapterCache keeps the last fetched copy of chapter quizzes for offline play.
type ChapterCache interface {
	Get(ctx context.Context, chapterID string) (domain.ChapterQuiz, error)
	Put(ctx context.Context, quiz domain.ChapterQuiz) error
}

// ScoreSyncer posts score batches.
type ScoreSyncer interface {
	SyncScores(ctx context.Context, scores []domain.ScoreSubmission) error
}

// OfflineQueue stores scores that could not be posted.
type OfflineQueue interface {
	Enqueue(ctx context.Context, sub domain.ScoreSubmission) (domain.OfflineScore, error)
	Pending(ctx context.Context, limit int) ([]domain.OfflineScore, error)
	MarkSynced(ctx context.Context, ids []string) error
}

// PointsRefresher updates the displayed points after a score lands.
type PointsRefresher interface {
	RefreshPoints(ctx context.Context) error
}
