package http

import (
	"bytes"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"kibaro-cli/internal/app"
	"kibaro-cli/internal/domain"

	"github.com/gorilla/websocket"
)

func newRelay(t *testing.T) (*app.LobbyFeed, *httptest.Server) {
	t.Helper()
	feed := app.NewLobbyFeed()
	server := httptest.NewServer(NewRouter(NewLobbyHandler(feed, "http://kibaro.test/"), feed))
	t.Cleanup(server.Close)
	return feed, server
}

func TestRelayStreamsRoomSnapshots(t *testing.T) {
	feed, server := newRelay(t)
	feed.Publish(app.ViewOf(sampleRoom(domain.RoomWaiting), "u1"))

	u := "ws" + server.URL[len("http"):] + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Expect the current snapshot first.
	typ, payload := readNext(conn, t, "room")
	if room := payload["room"].(map[string]any); room["status"] != "WAITING" {
		t.Fatalf("expected waiting snapshot, got %s %+v", typ, payload)
	}

	feed.Publish(app.ViewOf(sampleRoom(domain.RoomRunning), "u1"))
	_, payload = readNext(conn, t, "room")
	if room := payload["room"].(map[string]any); room["status"] != "RUNNING" {
		t.Fatalf("expected running snapshot, got %+v", payload)
	}

	if err := conn.WriteJSON(map[string]any{"type": "join"}); err != nil {
		t.Fatalf("write join: %v", err)
	}
	_, payload = readNext(conn, t, "join")
	if payload["url"] != "http://kibaro.test/room/KIB42" {
		t.Fatalf("unexpected join url %+v", payload)
	}

	if err := conn.WriteJSON(map[string]any{"type": "shout"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	readNext(conn, t, "error")
}

func TestRelayServesQRCode(t *testing.T) {
	feed, server := newRelay(t)

	resp, err := http.Get(server.URL + "/qr.png")
	if err != nil {
		t.Fatalf("get qr: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 before any room, got %d", resp.StatusCode)
	}

	feed.Publish(app.ViewOf(sampleRoom(domain.RoomWaiting), "u1"))
	resp, err = http.Get(server.URL + "/qr.png")
	if err != nil {
		t.Fatalf("get qr: %v", err)
	}
	defer resp.Body.Close()
	if resp.Header.Get("Content-Type") != "image/png" {
		t.Fatalf("expected png, got %q", resp.Header.Get("Content-Type"))
	}
	body, _ := io.ReadAll(resp.Body)
	if _, err := png.Decode(bytes.NewReader(body)); err != nil {
		t.Fatalf("decode png: %v", err)
	}
}

func TestHealthz(t *testing.T) {
	_, server := newRelay(t)
	resp, err := http.Get(server.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s", expect, msg.Type)
	}
	return msg.Type, msg.Payload
}

func sampleRoom(status domain.RoomStatus) domain.Room {
	score := 4
	return domain.Room{
		ID:       "r42",
		JoinCode: "KIB42",
		Status:   status,
		Host:     &domain.Ref{ID: "u1", Username: "awa"},
		Players: []domain.Player{
			{ID: "p1", UserID: "u1", Score: &score, User: &domain.Ref{ID: "u1", Username: "awa"}},
			{ID: "p2", UserID: "u2", User: &domain.Ref{ID: "u2", Username: "mamadi"}},
		},
	}
}
