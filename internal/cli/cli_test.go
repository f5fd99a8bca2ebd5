package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"kibaro-cli/internal/domain"
	"kibaro-cli/internal/testutil/fakeapi"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	t      *testing.T
	api    *fakeapi.Server
	config string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	api := fakeapi.New()
	t.Cleanup(api.Close)

	dir := t.TempDir()
	config := filepath.Join(dir, "kibaro.yaml")
	yaml := fmt.Sprintf(`session:
  backend: file
  path: %s
offline:
  driver: sqlite
  dsn: file:%s
quiz:
  reveal_delay: 0s
poll:
  duel_wait: 5ms
  duel_result: 5ms
  room_lobby: 5ms
  room_play: 5ms
  room_result: 5ms
log:
  level: error
`, filepath.Join(dir, "session.yaml"), filepath.Join(dir, "offline.db"))
	require.NoError(t, os.WriteFile(config, []byte(yaml), 0o600))
	return &harness{t: t, api: api, config: config}
}

func (h *harness) run(stdin string, args ...string) (string, error) {
	h.t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(strings.NewReader(stdin), &out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--config", h.config, "--api", h.api.BaseURL()}, args...))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func (h *harness) login() {
	h.t.Helper()
	_, err := h.run("", "login", "--email", "awa@kibaro.gn", "--password", "secret")
	require.NoError(h.t, err)
}

func TestLoginThenWhoami(t *testing.T) {
	h := newHarness(t)
	h.api.Scores = []domain.Score{{ID: "s1", Points: 5}}

	out, err := h.run("awa@kibaro.gn\nsecret\n", "login")
	require.NoError(t, err)
	assert.Contains(t, out, "signed in as awa (5 points)")

	out, err = h.run("", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "awa <awa@kibaro.gn>")
	assert.Contains(t, out, "points: 5")

	_, err = h.run("", "logout")
	require.NoError(t, err)
	_, err = h.run("", "whoami")
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
}

func TestGuardedCommandsNeedSession(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("", "quiz", "c1")
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
	_, err = h.run("", "room", "result", "r1")
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
	assert.Empty(t, h.api.Requests())

	h.login()
	_, err = h.run("", "admin", "dashboard")
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Equal(t, 0, h.api.Count(http.MethodGet, "/admin/dashboard"))
}

func TestChapterQuizPostsFinalScore(t *testing.T) {
	h := newHarness(t)
	h.login()

	out, err := h.run("1\n2\n", "quiz", "c1")
	require.NoError(t, err)
	assert.Contains(t, out, "correct!")
	assert.Contains(t, out, "wrong, the answer was: Soundiata Keïta")
	assert.Contains(t, out, "final score 1/2")

	batches := h.api.SyncedBatches()
	require.Len(t, batches, 1)
	assert.Equal(t, []domain.ScoreSubmission{{Points: 1, QuizType: domain.QuizTypeChapter, ChapterID: "c1"}}, batches[0])
}

func TestQuizFinishEarly(t *testing.T) {
	h := newHarness(t)
	h.login()

	out, err := h.run("1\nq\n", "quiz", "c1")
	require.NoError(t, err)
	assert.Contains(t, out, "final score 1/2")
	require.Len(t, h.api.SyncedBatches(), 1)
}

func TestUnknownChapterShowsServerMessage(t *testing.T) {
	h := newHarness(t)
	h.login()

	_, err := h.run("", "quiz", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Chapitre introuvable")
}

func TestChaptersAndSync(t *testing.T) {
	h := newHarness(t)
	h.login()

	out, err := h.run("", "chapters")
	require.NoError(t, err)
	assert.Contains(t, out, "Empire du Ghana")

	out, err = h.run("", "sync")
	require.NoError(t, err)
	assert.Contains(t, out, "synced 0 scores, 0 pending")
}

func TestScoresShowsTotalAndLeaderboard(t *testing.T) {
	h := newHarness(t)
	h.api.Scores = []domain.Score{{ID: "s1", Points: 3, QuizType: "chapter"}, {ID: "s2", Points: 4, QuizType: "duel"}}
	h.login()

	out, err := h.run("", "scores")
	require.NoError(t, err)
	assert.Contains(t, out, "total 7")
	assert.Contains(t, out, "mamadi")
}

func TestDuelResultNamesWinner(t *testing.T) {
	h := newHarness(t)
	h.login()
	three, two := 3, 2
	h.api.SetGame(domain.Game{
		ID: "g1", Status: domain.GameFinished, Player1ID: "u1", Player2ID: "u2",
		Player1Score: &three, Player2Score: &two,
	})

	out, err := h.run("", "duel", "result", "g1")
	require.NoError(t, err)
	assert.Contains(t, out, "you win!")
}

func TestDuelPlayFollowsToResult(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.api.SetGame(domain.Game{ID: "g1", Status: domain.GameRunning, Player1ID: "u1", Player2ID: "u2"})

	out, err := h.run("1\n1\n", "duel", "play", "g1", "--once")
	require.NoError(t, err)
	assert.Contains(t, out, "submitted 2/2")
	assert.Contains(t, out, "next: /duel/result/g1")
	assert.Equal(t, 1, h.api.Count(http.MethodPost, "/games/g1/submit"))
}

func TestRoomResultMarksCurrentUser(t *testing.T) {
	h := newHarness(t)
	h.login()
	now := time.Now()
	four, six := 4, 6
	h.api.SetRoom(domain.Room{
		ID: "r1", JoinCode: "KIB1", Status: domain.RoomFinished,
		Players: []domain.Player{
			{ID: "p1", UserID: "u1", Score: &four, SubmittedAt: &now, User: &domain.Ref{Username: "awa"}},
			{ID: "p2", UserID: "u2", Score: &six, SubmittedAt: &now, User: &domain.Ref{Username: "mamadi"}},
		},
	})

	out, err := h.run("", "room", "result", "r1")
	require.NoError(t, err)
	assert.Regexp(t, `1\s+mamadi`, out)
	assert.Regexp(t, `2\s+awa\s+4.*<- you`, out)
}

func TestRoomCreatePrintsJoinLink(t *testing.T) {
	h := newHarness(t)
	h.login()

	out, err := h.run("", "room", "create", "-c", "c1", "--auto-start", "1", "--once")
	require.NoError(t, err)
	assert.Contains(t, out, "room code: KIBr1")
	assert.Contains(t, out, "join link: http://localhost:5173/room/KIBr1")
	assert.Contains(t, out, "1 player(s) in the lobby")
	assert.Contains(t, out, "next: /room/play/r1")
	assert.Equal(t, 1, h.api.Count(http.MethodPost, "/rooms/r1/start"))
}

func TestAdminQuestionForms(t *testing.T) {
	h := newHarness(t)
	h.api.User.Role = domain.RoleAdmin
	h.login()

	_, err := h.run("", "admin", "question", "create", "--chapter", "c1", "--text", "Qui ?", "-a", "Sundiata", "-a", "Samory")
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 0, h.api.Count(http.MethodPost, "/questions"))

	_, err = h.run("", "admin", "question", "create", "--chapter", "c1", "--text", "Qui ?", "-a", "Sundiata", "-a", "Samory", "--correct", "1")
	require.NoError(t, err)
	assert.Equal(t, 1, h.api.Count(http.MethodPost, "/questions"))

	out, err := h.run("n\n", "admin", "question", "delete", "q1")
	require.NoError(t, err)
	assert.Contains(t, out, "cancelled")
	assert.Equal(t, 0, h.api.Count(http.MethodDelete, "/questions/q1"))

	_, err = h.run("", "admin", "question", "delete", "q1", "--yes")
	require.NoError(t, err)
	assert.Equal(t, 1, h.api.Count(http.MethodDelete, "/questions/q1"))
}

func TestWhoamiRefreshesPoints(t *testing.T) {
	h := newHarness(t)
	h.api.Scores = []domain.Score{{ID: "s1", Points: 5}}
	h.login()

	h.api.Scores = append(h.api.Scores, domain.Score{ID: "s2", Points: 4})
	out, err := h.run("", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "points: 9")

	h.api.Scores = append(h.api.Scores, domain.Score{ID: "s3", Points: 1})
	out, err = h.run("", "whoami", "--no-refresh")
	require.NoError(t, err)
	assert.Contains(t, out, "points: 9")

	h.api.Close()
	out, err = h.run("", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "points: 9")
}

func TestChapterReplaysOfflineCopy(t *testing.T) {
	h := newHarness(t)
	h.login()

	out, err := h.run("", "chapters", "c1")
	require.NoError(t, err)
	assert.Contains(t, out, "Empire du Ghana")
	assert.NotContains(t, out, "(offline copy)")

	h.api.Close()

	out, err = h.run("", "chapters", "c1")
	require.NoError(t, err)
	assert.Contains(t, out, "Empire du Ghana")
	assert.Contains(t, out, "(offline copy)")

	out, err = h.run("1\n1\n", "quiz", "c1")
	require.NoError(t, err)
	assert.Contains(t, out, "playing the offline copy")
	assert.Contains(t, out, "final score 2/2")
	assert.Contains(t, out, "saved offline")
}

func TestAdminRejectsBlankBadge(t *testing.T) {
	h := newHarness(t)
	h.api.User.Role = domain.RoleAdmin
	h.login()

	_, err := h.run("", "admin", "badge", "create", "--title", "   ", "--description", "Dix chapitres")
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"title is required"}, verr.Problems)

	_, err = h.run("", "admin", "chapter", "create", "--title", "\t")
	require.ErrorAs(t, err, &verr)

	assert.Equal(t, 0, h.api.Count(http.MethodPost, "/badges"))
	assert.Equal(t, 0, h.api.Count(http.MethodPost, "/chapters"))
}
