package rest

import (
	"context"
	"net/http"
	"net/url"

	"kibaro-cli/internal/domain"
)

func esc(s string) string { return url.PathEscape(s) }

// Login calls POST /auth/login.
func (c *Client) Login(ctx context.Context, in domain.LoginInput) (domain.AuthResponse, error) {
	var out domain.AuthResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", in, &out)
	return out, err
}

// Register calls POST /auth/register.
func (c *Client) Register(ctx context.Context, in domain.RegisterInput) (domain.AuthResponse, error) {
	var out domain.AuthResponse
	err := c.do(ctx, http.MethodPost, "/auth/register", in, &out)
	return out, err
}

func (c *Client) ListChapters(ctx context.Context) ([]domain.Chapter, error) {
	return getList[domain.Chapter](ctx, c, "/chapters", "chapters")
}

// ChapterQuiz fetches a chapter together with its questions.
func (c *Client) ChapterQuiz(ctx context.Context, chapterID string) (domain.ChapterQuiz, error) {
	var out domain.ChapterQuiz
	err := c.do(ctx, http.MethodGet, "/chapters/"+esc(chapterID), nil, &out)
	return out, err
}

func (c *Client) CreateChapter(ctx context.Context, in domain.ChapterInput) error {
	return c.do(ctx, http.MethodPost, "/chapters", in, nil)
}

func (c *Client) QuestionsByChapter(ctx context.Context, chapterID string) ([]domain.Question, error) {
	return getList[domain.Question](ctx, c, "/questions/by-chapter/"+esc(chapterID), "questions")
}

func (c *Client) CreateQuestion(ctx context.Context, in domain.QuestionInput) error {
	return c.do(ctx, http.MethodPost, "/questions", in, nil)
}

// UpdateQuestion sends only text and answers; the chapter cannot move.
func (c *Client) UpdateQuestion(ctx context.Context, id string, in domain.QuestionInput) error {
	body := struct {
		Text    string          `json:"text"`
		Answers []domain.Answer `json:"answers"`
	}{in.Text, in.Answers}
	return c.do(ctx, http.MethodPut, "/questions/"+esc(id), body, nil)
}

func (c *Client) DeleteQuestion(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/questions/"+esc(id), nil, nil)
}

func (c *Client) ListBadges(ctx context.Context) ([]domain.Badge, error) {
	return getList[domain.Badge](ctx, c, "/badges", "badges")
}

func (c *Client) CreateBadge(ctx context.Context, in domain.BadgeInput) error {
	return c.do(ctx, http.MethodPost, "/badges", in, nil)
}

func (c *Client) UpdateBadge(ctx context.Context, id string, in domain.BadgeInput) error {
	return c.do(ctx, http.MethodPut, "/badges/"+esc(id), in, nil)
}

func (c *Client) DeleteBadge(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/badges/"+esc(id), nil, nil)
}

func (c *Client) MyBadges(ctx context.Context) ([]domain.UserBadge, error) {
	return getList[domain.UserBadge](ctx, c, "/badges/me", "badges")
}

// RefreshBadges asks the server to re-evaluate award conditions.
func (c *Client) RefreshBadges(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/badges/refresh", nil, nil)
}

func (c *Client) MyScores(ctx context.Context) ([]domain.Score, error) {
	return getList[domain.Score](ctx, c, "/scores/me", "scores")
}

func (c *Client) Leaderboard(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	return getList[domain.LeaderboardEntry](ctx, c, "/scores/leaderboard", "leaderboard")
}

// SyncScores posts a batch of scores to /scores/sync-offline.
func (c *Client) SyncScores(ctx context.Context, scores []domain.ScoreSubmission) error {
	body := struct {
		Scores []domain.ScoreSubmission `json:"scores"`
	}{scores}
	return c.do(ctx, http.MethodPost, "/scores/sync-offline", body, nil)
}

func (c *Client) CreateGame(ctx context.Context, req domain.CreateMatchRequest) (domain.Game, error) {
	var out domain.Game
	err := c.do(ctx, http.MethodPost, "/games", req, &out)
	return out, err
}

func (c *Client) JoinGame(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/games/"+esc(id)+"/join", nil, nil)
}

func (c *Client) Game(ctx context.Context, id string) (domain.Game, error) {
	var out domain.Game
	err := c.do(ctx, http.MethodGet, "/games/"+esc(id), nil, &out)
	return out, err
}

func (c *Client) GameQuestions(ctx context.Context, id string) ([]domain.Question, error) {
	return getList[domain.Question](ctx, c, "/games/"+esc(id)+"/questions", "questions")
}

func (c *Client) SubmitGame(ctx context.Context, id string, res domain.Result) error {
	return c.do(ctx, http.MethodPost, "/games/"+esc(id)+"/submit", res, nil)
}

func (c *Client) CreateRoom(ctx context.Context, req domain.CreateMatchRequest) (domain.Room, error) {
	var out domain.Room
	err := c.do(ctx, http.MethodPost, "/rooms", req, &out)
	return out, err
}

// JoinRoom joins by the short join code and returns the room.
func (c *Client) JoinRoom(ctx context.Context, joinCode string) (domain.Room, error) {
	var out domain.Room
	err := c.do(ctx, http.MethodPost, "/rooms/join/"+esc(joinCode), nil, &out)
	return out, err
}

func (c *Client) Room(ctx context.Context, id string) (domain.Room, error) {
	var out domain.Room
	err := c.do(ctx, http.MethodGet, "/rooms/"+esc(id), nil, &out)
	return out, err
}

func (c *Client) StartRoom(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/rooms/"+esc(id)+"/start", nil, nil)
}

func (c *Client) RoomQuestions(ctx context.Context, id string) ([]domain.Question, error) {
	return getList[domain.Question](ctx, c, "/rooms/"+esc(id)+"/questions", "questions")
}

func (c *Client) SubmitRoom(ctx context.Context, id string, res domain.Result) error {
	return c.do(ctx, http.MethodPost, "/rooms/"+esc(id)+"/submit", res, nil)
}

func (c *Client) AdminDashboard(ctx context.Context) (domain.AdminDashboard, error) {
	var out domain.AdminDashboard
	err := c.do(ctx, http.MethodGet, "/admin/dashboard", nil, &out)
	return out, err
}
