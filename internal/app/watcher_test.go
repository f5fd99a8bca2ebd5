package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type snapshot struct {
	Status string
}

func statusOf(s snapshot) string { return s.Status }

func TestWatchNavigatesOnce(t *testing.T) {
	var calls atomic.Int32
	navigations := 0

	out, err := Watch[snapshot]{
		Fetch: func(ctx context.Context) (snapshot, error) {
			if calls.Add(1) < 3 {
				return snapshot{Status: "PENDING"}, nil
			}
			return snapshot{Status: "RUNNING"}, nil
		},
		Status:   statusOf,
		Interval: 2 * time.Millisecond,
		Table: StatusTable{
			"RUNNING":  {Route: "/duel/play/g1"},
			"FINISHED": {Route: "/duel/result/g1"},
		},
		Navigate: func(string) { navigations++ },
	}.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.Route != "/duel/play/g1" || out.Status != "RUNNING" {
		t.Fatalf("unexpected outcome %+v", out)
	}

	// later ticks must not navigate again
	time.Sleep(10 * time.Millisecond)
	if navigations != 1 {
		t.Fatalf("expected exactly one navigation, got %d", navigations)
	}
}

func TestWatchDropsStaleResponses(t *testing.T) {
	release := make(chan struct{})
	var running atomic.Bool
	var calls atomic.Int32
	firstApplied := make(chan struct{})
	var once sync.Once
	var seen []string

	done := make(chan Outcome[snapshot], 1)
	go func() {
		out, err := Watch[snapshot]{
			Fetch: func(ctx context.Context) (snapshot, error) {
				if calls.Add(1) == 1 {
					// slow first request that would end the watch if applied
					select {
					case <-release:
					case <-ctx.Done():
					}
					return snapshot{Status: "FINISHED"}, nil
				}
				if running.Load() {
					return snapshot{Status: "RUNNING"}, nil
				}
				return snapshot{Status: "PENDING"}, nil
			},
			Status:   statusOf,
			Interval: 2 * time.Millisecond,
			Table: StatusTable{
				"RUNNING":  {Route: "play"},
				"FINISHED": {Route: "result"},
			},
			OnSnapshot: func(s snapshot) {
				seen = append(seen, s.Status)
				once.Do(func() { close(firstApplied) })
			},
		}.Run(context.Background())
		if err != nil {
			t.Errorf("run: %v", err)
		}
		done <- out
	}()

	<-firstApplied
	close(release)
	time.Sleep(20 * time.Millisecond)
	running.Store(true)

	select {
	case out := <-done:
		if out.Route != "play" {
			t.Fatalf("stale FINISHED response was applied: %+v", out)
		}
		for _, s := range seen {
			if s == "FINISHED" {
				t.Fatalf("stale snapshot reached OnSnapshot: %v", seen)
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("watch did not finish")
	}
}

func TestWatchKeepsPollingThroughErrors(t *testing.T) {
	var calls atomic.Int32
	var errs []error

	out, err := Watch[snapshot]{
		Fetch: func(ctx context.Context) (snapshot, error) {
			if calls.Add(1) <= 2 {
				return snapshot{}, errors.New("boom")
			}
			return snapshot{Status: "FINISHED"}, nil
		},
		Status:   statusOf,
		Interval: 2 * time.Millisecond,
		Table:    StatusTable{"FINISHED": {}},
		OnError:  func(err error) { errs = append(errs, err) },
		Navigate: func(string) { t.Fatalf("empty route must not navigate") },
	}.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.Status != "FINISHED" || out.Route != "" {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if len(errs) == 0 {
		t.Fatalf("expected errors to be reported")
	}
}

func TestWatchStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	var snapshots atomic.Int32

	go func() {
		time.Sleep(15 * time.Millisecond)
		cancel()
	}()

	_, err := Watch[snapshot]{
		Fetch: func(ctx context.Context) (snapshot, error) {
			calls.Add(1)
			return snapshot{Status: "WAITING"}, nil
		},
		Status:     statusOf,
		Interval:   2 * time.Millisecond,
		Table:      StatusTable{"RUNNING": {Route: "play"}},
		OnSnapshot: func(snapshot) { snapshots.Add(1) },
	}.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}

	afterSnapshots := snapshots.Load()
	// let goroutines spawned by the last tick settle
	time.Sleep(5 * time.Millisecond)
	afterCalls := calls.Load()
	time.Sleep(20 * time.Millisecond)
	if calls.Load() != afterCalls {
		t.Fatalf("fetches continued after cancel: %d -> %d", afterCalls, calls.Load())
	}
	if snapshots.Load() != afterSnapshots {
		t.Fatalf("callbacks ran after cancel")
	}
}

func TestWatchDiscardsInFlightFetchOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	var applied atomic.Bool

	go func() {
		<-started
		cancel()
	}()

	_, err := Watch[snapshot]{
		Fetch: func(fctx context.Context) (snapshot, error) {
			close(started)
			time.Sleep(20 * time.Millisecond)
			return snapshot{Status: "RUNNING"}, nil
		},
		Status:     statusOf,
		Interval:   time.Hour,
		Table:      StatusTable{"RUNNING": {Route: "play"}},
		OnSnapshot: func(snapshot) { applied.Store(true) },
	}.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	time.Sleep(40 * time.Millisecond)
	if applied.Load() {
		t.Fatalf("response arriving after cancel was applied")
	}
}
