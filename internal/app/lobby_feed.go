package app

import "sync"

// LobbyFeed fans the latest room view out to relay subscribers.
type LobbyFeed struct {
	mu          sync.RWMutex
	last        *RoomView
	subscribers map[chan RoomView]struct{}
}

func NewLobbyFeed() *LobbyFeed {
	return &LobbyFeed{subscribers: make(map[chan RoomView]struct{})}
}

// Publish replaces the current view and pushes it to every subscriber.
// A slow subscriber loses its stale view rather than blocking the publisher.
func (f *LobbyFeed) Publish(v RoomView) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.last = &v
	for ch := range f.subscribers {
		select {
		case ch <- v:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- v
		}
	}
}

// Latest returns the last published view.
func (f *LobbyFeed) Latest() (RoomView, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.last == nil {
		return RoomView{}, false
	}
	return *f.last, true
}

// Subscribe returns a channel primed with the current view, if any.
// The caller must invoke the returned cancel function.
func (f *LobbyFeed) Subscribe() (<-chan RoomView, func()) {
	ch := make(chan RoomView, 1)

	f.mu.Lock()
	f.subscribers[ch] = struct{}{}
	if f.last != nil {
		ch <- *f.last
	}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if _, ok := f.subscribers[ch]; ok {
			delete(f.subscribers, ch)
			close(ch)
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

// Subscribers reports how many relay clients are attached.
func (f *LobbyFeed) Subscribers() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subscribers)
}
