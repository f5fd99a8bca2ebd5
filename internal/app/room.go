package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"kibaro-cli/internal/domain"
)

// RoomView is a room snapshot as shown to one user. Ranking is recomputed per snapshot.
type RoomView struct {
	Room         domain.Room     `json:"room"`
	Ranking      []domain.Player `json:"ranking"`
	AllSubmitted bool            `json:"allSubmitted"`
	IsHost       bool            `json:"isHost"`
	Me           *domain.Player  `json:"me,omitempty"`
}

// ViewOf derives the per-user view of a room.
func ViewOf(room domain.Room, userID string) RoomView {
	v := RoomView{
		Room:         room,
		Ranking:      domain.RankPlayers(room.Players),
		AllSubmitted: room.AllSubmitted(),
		IsHost:       room.IsHost(userID),
	}
	if p, ok := room.Player(userID); ok {
		v.Me = &p
	}
	return v
}

// Rooms drives the multiplayer screens.
type Rooms struct {
	api       RoomAPI
	intervals Intervals
}

func NewRooms(api RoomAPI, intervals Intervals) *Rooms {
	return &Rooms{api: api, intervals: intervals}
}

// Create opens a room. The caller shows its join code and QR before going to the lobby.
func (r *Rooms) Create(ctx context.Context, chapterIDs []string, questionCount int) (domain.Room, error) {
	req := domain.NewCreateMatchRequest(compactIDs(chapterIDs), questionCount)
	if err := domain.Validate(req); err != nil {
		return domain.Room{}, domain.NewValidationError("select at least one chapter")
	}
	room, err := r.api.CreateRoom(ctx, req)
	if err != nil {
		return domain.Room{}, err
	}
	if room.ID == "" || room.JoinCode == "" {
		return domain.Room{}, errors.New("invalid server response (missing id or join code)")
	}
	return room, nil
}

// Join enters a room by join code and returns its lobby route.
func (r *Rooms) Join(ctx context.Context, joinCode string) (domain.Room, string, error) {
	joinCode = strings.TrimSpace(joinCode)
	if joinCode == "" {
		return domain.Room{}, "", domain.NewValidationError("join code is required")
	}
	room, err := r.api.JoinRoom(ctx, joinCode)
	if err != nil {
		return domain.Room{}, "", err
	}
	if room.ID == "" {
		return domain.Room{}, "", errors.New("invalid server response (missing id)")
	}
	return room, RoomLobbyRoute(room.ID), nil
}

// Start is refused locally for non-hosts.
func (r *Rooms) Start(ctx context.Context, room domain.Room, userID string) (string, error) {
	if !room.IsHost(userID) {
		return "", domain.ErrNotHost
	}
	if err := r.api.StartRoom(ctx, room.ID); err != nil {
		return "", err
	}
	return RoomPlayRoute(room.ID), nil
}

// Lobby polls the room until the host starts it or it is over.
func (r *Rooms) Lobby(ctx context.Context, id string, onSnapshot func(domain.Room), onError func(error)) (Outcome[domain.Room], error) {
	return r.watch(id, r.intervals.RoomLobby, onSnapshot, onError, StatusTable{
		domain.RoomRunning:  {Route: RoomPlayRoute(id)},
		domain.RoomFinished: {Route: RoomResultRoute(id)},
	}).Run(ctx)
}

// Play waits for the room to run, then loads its questions. A finished room
// yields its result route instead of an attempt.
func (r *Rooms) Play(ctx context.Context, id string, onSnapshot func(domain.Room), onError func(error)) (*Attempt, string, error) {
	out, err := r.watch(id, r.intervals.RoomPlay, onSnapshot, onError, StatusTable{
		domain.RoomRunning:  {},
		domain.RoomFinished: {Route: RoomResultRoute(id)},
	}).Run(ctx)
	if err != nil {
		return nil, "", err
	}
	if out.Route != "" {
		return nil, out.Route, nil
	}

	questions, err := r.api.RoomQuestions(ctx, id)
	if err != nil {
		return nil, "", err
	}
	attempt, err := NewAttempt(questions, func(ctx context.Context, res domain.Result) error {
		return r.api.SubmitRoom(ctx, id, res)
	})
	if err != nil {
		return nil, "", err
	}
	return attempt, RoomResultRoute(id), nil
}

// Result polls the leaderboard until the room is finished.
func (r *Rooms) Result(ctx context.Context, id string, onSnapshot func(domain.Room), onError func(error)) (domain.Room, error) {
	out, err := r.watch(id, r.intervals.RoomResult, onSnapshot, onError, StatusTable{
		domain.RoomFinished: {},
	}).Run(ctx)
	return out.Value, err
}

func (r *Rooms) watch(id string, every time.Duration, onSnapshot func(domain.Room), onError func(error), table StatusTable) Watch[domain.Room] {
	return Watch[domain.Room]{
		Fetch:      func(ctx context.Context) (domain.Room, error) { return r.api.Room(ctx, id) },
		Status:     func(room domain.Room) string { return room.Status },
		Interval:   every,
		OnSnapshot: onSnapshot,
		OnError:    onError,
		Table:      table,
	}
}
