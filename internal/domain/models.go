package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"time"
)

// Role is the authorization level the backend assigns to a user.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// User is the identity returned by the auth endpoints.
type User struct {
	ID       string `json:"id" yaml:"id"`
	Username string `json:"username" yaml:"username"`
	Email    string `json:"email,omitempty" yaml:"email,omitempty"`
	Role     Role   `json:"role" yaml:"role"`
	Points   int    `json:"points" yaml:"points"`
	Level    int    `json:"level" yaml:"level"`
}

// IsAdmin reports whether the user carries the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Credentials is what gets persisted between runs.
type Credentials struct {
	Token string `json:"token" yaml:"token"`
	User  *User  `json:"user,omitempty" yaml:"user,omitempty"`
}

// AuthResponse is the body of /auth/login and /auth/register.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Ref is the {id, title} or {id, username} stub embedded in many payloads.
type Ref struct {
	ID       string `json:"id"`
	Title    string `json:"title,omitempty"`
	Username string `json:"username,omitempty"`
}

// Chapter is a unit of history content.
type Chapter struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Period  string `json:"period"`
	Content string `json:"content"`
	Order   int    `json:"order"`
}

// Answer is one option of a question. IsCorrect is trusted as sent by the server.
type Answer struct {
	ID        string `json:"id,omitempty"`
	Text      string `json:"text" validate:"required"`
	IsCorrect bool   `json:"isCorrect"`
}

// Question is a multiple choice question.
type Question struct {
	ID        string   `json:"id,omitempty"`
	ChapterID string   `json:"chapterId,omitempty"`
	Text      string   `json:"text"`
	Answers   []Answer `json:"answers"`
}

// ChapterQuiz is a chapter together with its questions.
type ChapterQuiz struct {
	Chapter   Chapter    `json:"chapter"`
	Questions []Question `json:"questions"`
}

// UnmarshalJSON accepts both {chapter, questions} and a bare chapter with
// questions embedded.
func (q *ChapterQuiz) UnmarshalJSON(data []byte) error {
	var wrapped struct {
		Chapter *struct {
			Chapter
			Questions []Question `json:"questions"`
		} `json:"chapter"`
		Questions []Question `json:"questions"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	if wrapped.Chapter != nil {
		q.Chapter = wrapped.Chapter.Chapter
		q.Questions = wrapped.Questions
		if q.Questions == nil {
			q.Questions = wrapped.Chapter.Questions
		}
		return nil
	}

	var flat Chapter
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}
	q.Chapter = flat
	q.Questions = wrapped.Questions
	return nil
}

// Points is a score value. Anything that is not a JSON number decodes to 0.
// Fractional values round half away from zero and magnitudes beyond
// math.MaxInt32 saturate, so a sum over a score history stays in range.
type Points int

func (p *Points) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		*p = 0
		return nil
	}
	f = math.Round(f)
	switch {
	case f > math.MaxInt32:
		f = math.MaxInt32
	case f < -math.MaxInt32:
		f = -math.MaxInt32
	}
	*p = Points(f)
	return nil
}

// Score is an append-only record created after a quiz completes.
type Score struct {
	ID        string    `json:"id"`
	Points    Points    `json:"points"`
	QuizType  string    `json:"quizType"`
	ChapterID string    `json:"chapterId,omitempty"`
	Chapter   *Ref      `json:"chapter,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// QuizTypeChapter tags scores coming from a single player chapter quiz.
const QuizTypeChapter = "chapter"

// ScoreSubmission is one entry of a /scores/sync-offline batch.
type ScoreSubmission struct {
	Points    int    `json:"points"`
	QuizType  string `json:"quizType"`
	ChapterID string `json:"chapterId,omitempty"`
}

// LeaderboardEntry is one row of the global leaderboard.
type LeaderboardEntry struct {
	UserID      string `json:"userId"`
	Username    string `json:"username"`
	TotalPoints int    `json:"totalPoints"`
}

// Badge is an achievement definition. Condition is free text evaluated server-side.
type Badge struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Condition   string `json:"condition"`
}

// UserBadge is a badge awarded to the current user.
type UserBadge struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Date        string `json:"date"`
}

// GameStatus is the lifecycle of a duel.
type GameStatus = string

const (
	GamePending  GameStatus = "PENDING"
	GameRunning  GameStatus = "RUNNING"
	GameFinished GameStatus = "FINISHED"
)

// Game is a two player duel.
type Game struct {
	ID                 string     `json:"id"`
	Status             GameStatus `json:"status"`
	ChapterID          string     `json:"chapterId,omitempty"`
	Chapter            *Ref       `json:"chapter,omitempty"`
	Player1ID          string     `json:"player1Id"`
	Player2ID          string     `json:"player2Id,omitempty"`
	Player1Score       *int       `json:"player1Score,omitempty"`
	Player2Score       *int       `json:"player2Score,omitempty"`
	Player1Time        *int       `json:"player1Time,omitempty"`
	Player2Time        *int       `json:"player2Time,omitempty"`
	Player1            *Ref       `json:"player1,omitempty"`
	Player2            *Ref       `json:"player2,omitempty"`
	QuestionCount      *int       `json:"questionCount,omitempty"`
	QuestionsPicked    *int       `json:"questionsPicked,omitempty"`
	QuestionsAvailable *int       `json:"questionsAvailable,omitempty"`
	ChaptersSelected   *int       `json:"chaptersSelected,omitempty"`
	CreatedAt          *time.Time `json:"createdAt,omitempty"`
}

// RoomStatus is the lifecycle of an N player room.
type RoomStatus = string

const (
	RoomWaiting  RoomStatus = "WAITING"
	RoomRunning  RoomStatus = "RUNNING"
	RoomFinished RoomStatus = "FINISHED"
)

// Player is a room participant.
type Player struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	JoinedAt    *time.Time `json:"joinedAt,omitempty"`
	SubmittedAt *time.Time `json:"submittedAt,omitempty"`
	Score       *int       `json:"score,omitempty"`
	Time        *int       `json:"time,omitempty"`
	User        *Ref       `json:"user,omitempty"`
}

// DisplayName falls back to the user id when the username is not embedded.
func (p Player) DisplayName() string {
	if p.User != nil && p.User.Username != "" {
		return p.User.Username
	}
	return p.UserID
}

// Room is the N player analogue of Game.
type Room struct {
	ID            string     `json:"id"`
	JoinCode      string     `json:"joinCode"`
	Status        RoomStatus `json:"status"`
	ChapterID     string     `json:"chapterId,omitempty"`
	QuestionCount *int       `json:"questionCount,omitempty"`
	Chapter       *Ref       `json:"chapter,omitempty"`
	Host          *Ref       `json:"host,omitempty"`
	Players       []Player   `json:"players"`
}

// UnmarshalJSON accepts the chapter under either "chapter" or "Chapter".
func (r *Room) UnmarshalJSON(data []byte) error {
	type plain Room
	var aux struct {
		plain
		UpperChapter *Ref `json:"Chapter,omitempty"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = Room(aux.plain)
	if r.Chapter == nil && aux.UpperChapter != nil {
		// encoding/json matches keys case-insensitively, so only an
		// explicit "Chapter" key lands here when "chapter" is absent.
		r.Chapter = aux.UpperChapter
	}
	return nil
}

// IsHost reports whether userID is the room host.
func (r Room) IsHost(userID string) bool {
	return r.Host != nil && r.Host.ID != "" && userID != "" && r.Host.ID == userID
}

// Player returns the participant entry for userID.
func (r Room) Player(userID string) (Player, bool) {
	for _, p := range r.Players {
		if p.UserID == userID {
			return p, true
		}
	}
	return Player{}, false
}

// AllSubmitted reports whether every known player has submitted. An empty room has not.
func (r Room) AllSubmitted() bool {
	if len(r.Players) == 0 {
		return false
	}
	for _, p := range r.Players {
		if p.SubmittedAt == nil {
			return false
		}
	}
	return true
}

// CreateMatchRequest is the body of POST /games and POST /rooms.
// ChapterID repeats the first selected chapter for older backends.
type CreateMatchRequest struct {
	ChapterIDs    []string `json:"chapterIds" validate:"required,min=1,dive,required"`
	ChapterID     string   `json:"chapterId"`
	QuestionCount int      `json:"questionCount"`
}

// Question count bounds accepted by the create forms.
const (
	MinQuestionCount     = 5
	MaxQuestionCount     = 30
	DefaultQuestionCount = 10
)

// NewCreateMatchRequest builds a create payload with the count clamped to the accepted range.
func NewCreateMatchRequest(chapterIDs []string, questionCount int) CreateMatchRequest {
	req := CreateMatchRequest{
		ChapterIDs:    chapterIDs,
		QuestionCount: ClampQuestionCount(questionCount),
	}
	if len(chapterIDs) > 0 {
		req.ChapterID = chapterIDs[0]
	}
	return req
}

// ClampQuestionCount bounds n to [MinQuestionCount, MaxQuestionCount].
func ClampQuestionCount(n int) int {
	return min(max(n, MinQuestionCount), MaxQuestionCount)
}

// Result is the body of POST /games/:id/submit and /rooms/:id/submit.
// Time is elapsed whole seconds.
type Result struct {
	Score int `json:"score"`
	Time  int `json:"time"`
}

// AdminDashboard aggregates platform metrics for admins.
type AdminDashboard struct {
	Users struct {
		Total        int `json:"total"`
		NewLast7d    int `json:"newLast7d"`
		ActiveLast7d int `json:"activeLast7d"`
	} `json:"users"`
	ActivityLast7d struct {
		QuizPlays int `json:"quizPlays"`
		Duels     int `json:"duels"`
		Rooms     int `json:"rooms"`
	} `json:"activityLast7d"`
	Leaderboard []DashboardUser `json:"leaderboard"`
	Frequency   struct {
		QuizPlaysPerDay map[string]int `json:"quizPlaysPerDay"`
	} `json:"frequency"`
	RecentUsers []DashboardUser `json:"recentUsers,omitempty"`
}

// DashboardUser is a user row in the admin dashboard.
type DashboardUser struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	Points    int       `json:"points"`
	Level     int       `json:"level"`
	CreatedAt time.Time `json:"createdAt"`
}

// OfflineScore is a score waiting to be pushed through /scores/sync-offline.
type OfflineScore struct {
	ID        string
	Points    int
	QuizType  string
	ChapterID string
	CreatedAt time.Time
	SyncedAt  *time.Time
}

// Submission converts the queued record to its wire form.
func (s OfflineScore) Submission() ScoreSubmission {
	return ScoreSubmission{Points: s.Points, QuizType: s.QuizType, ChapterID: s.ChapterID}
}

// DecodeList decodes either a bare JSON array or an object holding the array under key.
func DecodeList[T any](data []byte, key string) ([]T, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []T{}, nil
	}
	if trimmed[0] == '[' {
		var out []T
		if err := json.Unmarshal(trimmed, &out); err != nil {
			return nil, err
		}
		return out, nil
	}
	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, err
	}
	raw, ok := wrapped[key]
	if !ok {
		return []T{}, nil
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}
