package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"kibaro-cli/internal/domain"
)

// Duels drives the two-player match screens.
type Duels struct {
	api       DuelAPI
	intervals Intervals
}

func NewDuels(api DuelAPI, intervals Intervals) *Duels {
	return &Duels{api: api, intervals: intervals}
}

// Create opens a duel and returns the route of its waiting screen.
func (d *Duels) Create(ctx context.Context, chapterIDs []string, questionCount int) (domain.Game, string, error) {
	req := domain.NewCreateMatchRequest(compactIDs(chapterIDs), questionCount)
	if err := domain.Validate(req); err != nil {
		return domain.Game{}, "", domain.NewValidationError("select at least one chapter")
	}
	game, err := d.api.CreateGame(ctx, req)
	if err != nil {
		return domain.Game{}, "", err
	}
	if game.ID == "" {
		return domain.Game{}, "", errors.New("invalid server response (missing id)")
	}
	return game, DuelWaitRoute(game.ID), nil
}

// Join enters an existing duel by id and goes straight to play.
func (d *Duels) Join(ctx context.Context, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", domain.NewValidationError("game id is required")
	}
	if err := d.api.JoinGame(ctx, id); err != nil {
		return "", err
	}
	return DuelPlayRoute(id), nil
}

// Wait polls the duel until an opponent joins or the game is over.
func (d *Duels) Wait(ctx context.Context, id string, onSnapshot func(domain.Game), onError func(error)) (Outcome[domain.Game], error) {
	return Watch[domain.Game]{
		Fetch:      func(ctx context.Context) (domain.Game, error) { return d.api.Game(ctx, id) },
		Status:     func(g domain.Game) string { return g.Status },
		Interval:   d.intervals.DuelWait,
		OnSnapshot: onSnapshot,
		OnError:    onError,
		Table: StatusTable{
			domain.GameRunning:  {Route: DuelPlayRoute(id)},
			domain.GameFinished: {Route: DuelResultRoute(id)},
		},
	}.Run(ctx)
}

// Play loads a running duel's questions. A finished duel yields its result
// route instead of an attempt.
func (d *Duels) Play(ctx context.Context, id string) (*Attempt, string, error) {
	game, err := d.api.Game(ctx, id)
	if err != nil {
		return nil, "", err
	}
	switch game.Status {
	case domain.GameRunning:
	case domain.GameFinished:
		return nil, DuelResultRoute(id), nil
	default:
		return nil, "", fmt.Errorf("duel is %s: %w", strings.ToLower(game.Status), domain.ErrNotReady)
	}

	questions, err := d.api.GameQuestions(ctx, id)
	if err != nil {
		return nil, "", err
	}
	attempt, err := NewAttempt(questions, func(ctx context.Context, res domain.Result) error {
		return d.api.SubmitGame(ctx, id, res)
	})
	if err != nil {
		return nil, "", err
	}
	return attempt, DuelResultRoute(id), nil
}

// Result polls the duel until it is finished.
func (d *Duels) Result(ctx context.Context, id string, onSnapshot func(domain.Game), onError func(error)) (domain.Game, error) {
	out, err := Watch[domain.Game]{
		Fetch:      func(ctx context.Context) (domain.Game, error) { return d.api.Game(ctx, id) },
		Status:     func(g domain.Game) string { return g.Status },
		Interval:   d.intervals.DuelResult,
		OnSnapshot: onSnapshot,
		OnError:    onError,
		Table:      StatusTable{domain.GameFinished: {}},
	}.Run(ctx)
	return out.Value, err
}

func compactIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
