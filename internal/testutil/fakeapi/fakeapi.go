// Package fakeapi is an in-memory stand-in for the Kibaro History backend used by tests.
package fakeapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"kibaro-cli/internal/domain"

	"github.com/go-chi/chi/v5"
)

// Request is a recorded call.
type Request struct {
	Method string
	Path   string
	Auth   string
	Body   []byte
}

// Server serves the REST routes the client uses from mutable fixtures.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	Token     string
	User      domain.User
	Chapters  map[string]domain.ChapterQuiz
	Scores    []domain.Score
	Synced    [][]domain.ScoreSubmission
	Games     map[string]domain.Game
	Rooms     map[string]domain.Room
	Questions []domain.Question
	Badges    []domain.Badge
	fail      map[string]int
	requests  []Request
}

// New starts a server seeded with one user, one chapter with two questions, and no matches.
func New() *Server {
	s := &Server{
		Token: "tok-awa",
		User:  domain.User{ID: "u1", Username: "awa", Email: "awa@kibaro.gn", Role: domain.RoleUser, Level: 1},
		Chapters: map[string]domain.ChapterQuiz{
			"c1": {
				Chapter: domain.Chapter{ID: "c1", Title: "Empire du Ghana", Period: "IIIe-XIIIe", Order: 1},
				Questions: []domain.Question{
					{ID: "q1", Text: "Capitale du Ghana ?", Answers: []domain.Answer{{ID: "a1", Text: "Koumbi Saleh", IsCorrect: true}, {ID: "a2", Text: "Niani"}}},
					{ID: "q2", Text: "Fondateur de l'empire du Mali ?", Answers: []domain.Answer{{ID: "a3", Text: "Soundiata Keïta", IsCorrect: true}, {ID: "a4", Text: "Samory Touré"}}},
				},
			},
		},
		Games: map[string]domain.Game{},
		Rooms: map[string]domain.Room{},
		fail:  map[string]int{},
	}

	r := chi.NewRouter()
	r.Use(s.record)
	r.Post("/api/auth/login", s.auth)
	r.Post("/api/auth/register", s.auth)
	r.Get("/api/chapters", s.listChapters)
	r.Get("/api/chapters/{id}", s.getChapter)
	r.Post("/api/chapters", s.accept)
	r.Get("/api/questions/by-chapter/{id}", s.listQuestions)
	r.Post("/api/questions", s.accept)
	r.Put("/api/questions/{id}", s.accept)
	r.Delete("/api/questions/{id}", s.accept)
	r.Get("/api/badges", s.listBadges)
	r.Post("/api/badges", s.accept)
	r.Put("/api/badges/{id}", s.accept)
	r.Delete("/api/badges/{id}", s.accept)
	r.Get("/api/badges/me", s.myBadges)
	r.Post("/api/badges/refresh", s.accept)
	r.Get("/api/scores/me", s.myScores)
	r.Get("/api/scores/leaderboard", s.leaderboard)
	r.Post("/api/scores/sync-offline", s.syncScores)
	r.Post("/api/games", s.createGame)
	r.Post("/api/games/{id}/join", s.accept)
	r.Get("/api/games/{id}", s.getGame)
	r.Get("/api/games/{id}/questions", s.matchQuestions)
	r.Post("/api/games/{id}/submit", s.accept)
	r.Post("/api/rooms", s.createRoom)
	r.Post("/api/rooms/join/{code}", s.joinRoom)
	r.Get("/api/rooms/{id}", s.getRoom)
	r.Post("/api/rooms/{id}/start", s.startRoom)
	r.Get("/api/rooms/{id}/questions", s.matchQuestions)
	r.Post("/api/rooms/{id}/submit", s.accept)
	r.Get("/api/admin/dashboard", s.dashboard)

	s.Server = httptest.NewServer(r)
	return s
}

// BaseURL is the API prefix to hand to rest.New.
func (s *Server) BaseURL() string {
	return s.URL + "/api"
}

// Fail makes method+path answer status with a {msg} body until cleared with status 0.
func (s *Server) Fail(method, path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := method + " " + path
	if status == 0 {
		delete(s.fail, key)
		return
	}
	s.fail[key] = status
}

// Requests returns a copy of the recorded calls.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Count returns how many calls matched method and path.
func (s *Server) Count(method, path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// SetGame replaces a game fixture.
func (s *Server) SetGame(g domain.Game) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Games[g.ID] = g
}

// SetRoom replaces a room fixture.
func (s *Server) SetRoom(r domain.Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Rooms[r.ID] = r
}

// SyncedBatches returns the bodies received on /scores/sync-offline.
func (s *Server) SyncedBatches() [][]domain.ScoreSubmission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]domain.ScoreSubmission(nil), s.Synced...)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method: r.Method,
			Path:   strings.TrimPrefix(r.URL.Path, "/api"),
			Auth:   r.Header.Get("Authorization"),
			Body:   body,
		})
		status, failing := s.fail[r.Method+" "+strings.TrimPrefix(r.URL.Path, "/api")]
		s.mu.Unlock()

		if failing {
			writeJSON(w, status, map[string]string{"msg": fmt.Sprintf("forced %d", status)})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) authorized(r *http.Request) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return r.Header.Get("Authorization") == "Bearer "+s.Token
}

func (s *Server) accept(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) auth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, domain.AuthResponse{Token: s.Token, User: s.User})
}

func (s *Server) listChapters(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]domain.Chapter, 0, len(s.Chapters))
	for _, c := range s.Chapters {
		list = append(list, c.Chapter)
	}
	writeJSON(w, http.StatusOK, map[string]any{"chapters": list})
}

func (s *Server) getChapter(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.Chapters[chi.URLParam(r, "id")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"msg": "Chapitre introuvable"})
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *Server) listQuestions(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := s.Chapters[chi.URLParam(r, "id")]
	writeJSON(w, http.StatusOK, q.Questions)
}

func (s *Server) listBadges(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.Badges)
}

func (s *Server) myBadges(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, []domain.UserBadge{{ID: "b1", Title: "Griot", Icon: "📜", Date: "2026-01-01"}})
}

func (s *Server) myScores(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": "Token invalide"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	scores := s.Scores
	if scores == nil {
		scores = []domain.Score{}
	}
	writeJSON(w, http.StatusOK, scores)
}

func (s *Server) leaderboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, []domain.LeaderboardEntry{{UserID: "u2", Username: "mamadi", TotalPoints: 42}})
}

func (s *Server) syncScores(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Scores []domain.ScoreSubmission `json:"scores"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "payload invalide"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Synced = append(s.Synced, body.Scores)
	for _, sc := range body.Scores {
		s.Scores = append(s.Scores, domain.Score{
			ID:        fmt.Sprintf("s%d", len(s.Scores)+1),
			Points:    domain.Points(sc.Points),
			QuizType:  sc.QuizType,
			ChapterID: sc.ChapterID,
			CreatedAt: time.Now(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]int{"synced": len(body.Scores)})
}

func (s *Server) createGame(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := fmt.Sprintf("g%d", len(s.Games)+1)
	g := domain.Game{ID: id, Status: domain.GamePending, Player1ID: s.User.ID}
	s.Games[id] = g
	writeJSON(w, http.StatusCreated, g)
}

func (s *Server) getGame(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.Games[chi.URLParam(r, "id")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"msg": "Partie introuvable"})
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) matchQuestions(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	questions := s.Questions
	if questions == nil {
		questions = s.Chapters["c1"].Questions
	}
	writeJSON(w, http.StatusOK, map[string]any{"questions": questions})
}

func (s *Server) createRoom(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := fmt.Sprintf("r%d", len(s.Rooms)+1)
	room := domain.Room{
		ID:       id,
		JoinCode: "KIB" + id,
		Status:   domain.RoomWaiting,
		Host:     &domain.Ref{ID: s.User.ID, Username: s.User.Username},
		Players:  []domain.Player{{ID: "p-" + s.User.ID, UserID: s.User.ID}},
	}
	s.Rooms[id] = room
	writeJSON(w, http.StatusCreated, room)
}

func (s *Server) joinRoom(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code := chi.URLParam(r, "code")
	for _, room := range s.Rooms {
		if room.JoinCode == code {
			writeJSON(w, http.StatusOK, room)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"msg": "Code invalide"})
}

func (s *Server) getRoom(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.Rooms[chi.URLParam(r, "id")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"msg": "Room introuvable"})
		return
	}
	writeJSON(w, http.StatusOK, room)
}

func (s *Server) startRoom(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "id")
	if room, ok := s.Rooms[id]; ok {
		room.Status = domain.RoomRunning
		s.Rooms[id] = room
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	var d domain.AdminDashboard
	d.Users.Total = 12
	d.ActivityLast7d.QuizPlays = 30
	d.Frequency.QuizPlaysPerDay = map[string]int{"2026-10-13": 4}
	writeJSON(w, http.StatusOK, d)
}
