package cli

import (
	"context"
	"fmt"
	"io"

	"kibaro-cli/internal/app"
	"kibaro-cli/internal/logger"
)

// follow walks match screens from route until a screen has no successor.
// With once set it stops after the first screen.
func (d *deps) follow(ctx context.Context, route string, once bool) error {
	for route != "" {
		r := app.ParseRoute(route)
		logger.FromContext(ctx).WithField("route", route).Debug("screen")

		var (
			next string
			err  error
		)
		switch r.Screen {
		case app.ScreenDuelWait:
			next, err = d.duelWait(ctx, r.Param)
		case app.ScreenDuelPlay:
			next, err = d.duelPlay(ctx, r.Param)
		case app.ScreenDuelResult:
			err = d.duelResult(ctx, r.Param)
		case app.ScreenRoomLobby:
			next, err = d.roomLobby(ctx, r.Param)
		case app.ScreenRoomPlay:
			next, err = d.roomPlay(ctx, r.Param)
		case app.ScreenRoomResult:
			err = d.roomResult(ctx, r.Param)
		default:
			return fmt.Errorf("no terminal screen for route %s", route)
		}
		if err != nil {
			return err
		}
		if once && next != "" {
			fmt.Fprintf(d.out, "next: %s\n", next)
			return nil
		}
		route = next
	}
	return nil
}

// pollReporter reports the first failure of a run of failed polls. A good
// snapshot ends the run, so a later outage is reported again.
type pollReporter struct {
	out     io.Writer
	failing bool
}

func (d *deps) pollReporter() *pollReporter {
	return &pollReporter{out: d.out}
}

func (r *pollReporter) errored(err error) {
	if r.failing {
		return
	}
	r.failing = true
	fmt.Fprintf(r.out, "connection problem, still retrying: %v\n", err)
}

func (r *pollReporter) recovered() {
	if r.failing {
		r.failing = false
		fmt.Fprintln(r.out, "connection restored")
	}
}

// tracked wraps a snapshot callback so every snapshot marks the connection as
// healthy. fn may be nil.
func tracked[T any](r *pollReporter, fn func(T)) func(T) {
	return func(v T) {
		r.recovered()
		if fn != nil {
			fn(v)
		}
	}
}
