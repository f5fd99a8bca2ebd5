package http

import (
	"encoding/json"
	"net/http"

	"kibaro-cli/internal/app"
	"kibaro-cli/internal/logger"

	"github.com/gorilla/websocket"
	qrcode "github.com/skip2/go-qrcode"
)

// LobbyHandler relays the host's room snapshots to browsers and projectors.
type LobbyHandler struct {
	feed      *app.LobbyFeed
	publicURL string
	upgrader  websocket.Upgrader
}

func NewLobbyHandler(feed *app.LobbyFeed, publicURL string) *LobbyHandler {
	return &LobbyHandler{
		feed:      feed,
		publicURL: publicURL,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type joinPayload struct {
	JoinCode string `json:"joinCode"`
	URL      string `json:"url"`
}

// ServeWS streams {"type":"room"} messages, starting with the current snapshot.
func (h *LobbyHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	log := logger.WithComponent("relay").WithField("remote", r.RemoteAddr)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("ws upgrade failed")
		return
	}
	defer conn.Close()

	updates, cancel := h.feed.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.WithError(err).Debug("ws write error")
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case view, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "room", Payload: view}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "ping":
			send <- outboundMessage[any]{Type: "pong", Payload: struct{}{}}
		case "join":
			view, ok := h.feed.Latest()
			if !ok {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "no room yet"}}
				continue
			}
			code := view.Room.JoinCode
			send <- outboundMessage[any]{Type: "join", Payload: joinPayload{JoinCode: code, URL: app.JoinURL(h.publicURL, code)}}
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// ServeQR renders the room's join link as a PNG. ?code= overrides the current room.
func (h *LobbyHandler) ServeQR(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		view, ok := h.feed.Latest()
		if !ok {
			http.Error(w, "no room yet", http.StatusNotFound)
			return
		}
		code = view.Room.JoinCode
	}
	png, err := qrcode.Encode(app.JoinURL(h.publicURL, code), qrcode.Medium, 256)
	if err != nil {
		http.Error(w, "qr encode failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}
