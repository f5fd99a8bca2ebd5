package app

import (
	"context"
	"time"
)

// Transition is what the watcher does when a status is observed.
// An empty Route stops observing without navigating.
type Transition struct {
	Route string
}

// StatusTable maps observed status values to transitions. Statuses not in the
// table keep the watch running.
type StatusTable map[string]Transition

// Watch observes a server-owned resource until its status matches the table.
type Watch[T any] struct {
	Fetch    func(ctx context.Context) (T, error)
	Status   func(T) string
	Table    StatusTable
	Interval time.Duration

	// Callbacks run on the goroutine calling Run, never after Run returns.
	OnSnapshot func(T)
	OnError    func(error)
	Navigate   func(route string)
}

// Outcome is the snapshot that ended a watch.
type Outcome[T any] struct {
	Status string
	Route  string
	Value  T
}

type fetchResult[T any] struct {
	seq   uint64
	value T
	err   error
}

// Run fetches immediately, then once per interval without waiting for earlier
// fetches to finish. A response older than the newest applied one is dropped.
// Failures go to OnError and polling continues. The first applied snapshot whose
// status is in the table ends the watch; Navigate is called at most once.
// Cancelling ctx stops the ticker and any in-flight fetch; their results are discarded.
func (w Watch[T]) Run(ctx context.Context) (Outcome[T], error) {
	interval := w.Interval
	if interval <= 0 {
		interval = time.Second
	}

	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan fetchResult[T])
	var issued, applied uint64

	issue := func() {
		issued++
		seq := issued
		go func() {
			v, err := w.Fetch(fetchCtx)
			select {
			case results <- fetchResult[T]{seq: seq, value: v, err: err}:
			case <-fetchCtx.Done():
			}
		}()
	}

	issue()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return Outcome[T]{}, ctx.Err()
		case <-ticker.C:
			issue()
		case r := <-results:
			if ctx.Err() != nil {
				return Outcome[T]{}, ctx.Err()
			}
			if r.seq <= applied {
				continue
			}
			if r.err != nil {
				if w.OnError != nil {
					w.OnError(r.err)
				}
				continue
			}
			applied = r.seq
			if w.OnSnapshot != nil {
				w.OnSnapshot(r.value)
			}
			status := w.Status(r.value)
			tr, ok := w.Table[status]
			if !ok {
				continue
			}
			if tr.Route != "" && w.Navigate != nil {
				w.Navigate(tr.Route)
			}
			return Outcome[T]{Status: status, Route: tr.Route, Value: r.value}, nil
		}
	}
}
