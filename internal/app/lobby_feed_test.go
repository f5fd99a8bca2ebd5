package app

import (
	"testing"

	"kibaro-cli/internal/domain"
)

func TestLobbyFeedPrimesAndDropsStale(t *testing.T) {
	feed := NewLobbyFeed()
	feed.Publish(RoomView{Room: domain.Room{ID: "r1", Status: domain.RoomWaiting}})

	ch, cancel := feed.Subscribe()
	defer cancel()

	if v := <-ch; v.Room.Status != domain.RoomWaiting {
		t.Fatalf("expected current view first, got %+v", v.Room)
	}

	// nobody reads between these; only the newest survives
	feed.Publish(RoomView{Room: domain.Room{ID: "r1", Status: domain.RoomRunning}})
	feed.Publish(RoomView{Room: domain.Room{ID: "r1", Status: domain.RoomFinished}})
	if v := <-ch; v.Room.Status != domain.RoomFinished {
		t.Fatalf("expected newest view, got %+v", v.Room)
	}
	if feed.Subscribers() != 1 {
		t.Fatalf("expected one subscriber")
	}
}

func TestLobbyFeedCancelCloses(t *testing.T) {
	feed := NewLobbyFeed()
	ch, cancel := feed.Subscribe()
	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Fatalf("expected closed channel")
	}
	if feed.Subscribers() != 0 {
		t.Fatalf("expected no subscribers")
	}
	feed.Publish(RoomView{})
}
