package cli

import (
	"context"
	"errors"
	"fmt"

	"kibaro-cli/internal/app"
	"kibaro-cli/internal/domain"
	"kibaro-cli/internal/logger"
	transporthttp "kibaro-cli/internal/transport/http"

	qrcode "github.com/skip2/go-qrcode"
	"github.com/spf13/cobra"
)

func newRoomCmd(d *deps) *cobra.Command {
	var once bool
	var serve string
	cmd := guarded(&cobra.Command{
		Use:   "room",
		Short: "Play a multiplayer room",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// cobra only runs the nearest PersistentPreRunE
			if err := cmd.Root().PersistentPreRunE(cmd, args); err != nil {
				return err
			}
			if serve != "" {
				d.startRelay(cmd, serve)
			}
			return nil
		},
	}, guardAuth)
	cmd.PersistentFlags().BoolVar(&once, "once", false, "stop after this screen instead of following the room")
	cmd.PersistentFlags().IntVar(&d.autoStart, "auto-start", 0, "as host, start from the lobby once this many players are in")
	cmd.PersistentFlags().StringVar(&serve, "serve", "", "also serve the lobby relay (websocket + QR) on this address")

	var chapters []string
	var count int
	create := &cobra.Command{
		Use:   "create",
		Short: "Open a room and show its join code",
		RunE: func(cmd *cobra.Command, args []string) error {
			room, err := d.rooms().Create(cmd.Context(), chapters, count)
			if err != nil {
				return failure(err, "could not create room")
			}
			d.printJoinInfo(room)
			d.publish(room)
			return d.follow(cmd.Context(), app.RoomLobbyRoute(room.ID), once)
		},
	}
	create.Flags().StringSliceVarP(&chapters, "chapter", "c", nil, "chapter id, repeatable")
	create.Flags().IntVarP(&count, "questions", "n", domain.DefaultQuestionCount, "number of questions (5-30)")

	join := &cobra.Command{
		Use:   "join <joinCode>",
		Short: "Join a room by its code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			room, route, err := d.rooms().Join(cmd.Context(), args[0])
			if err != nil {
				return failure(err, "could not join room")
			}
			fmt.Fprintf(d.out, "joined room %s\n", room.JoinCode)
			return d.follow(cmd.Context(), route, once)
		},
	}

	start := &cobra.Command{
		Use:   "start <roomId>",
		Short: "Start the room (host only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			room, err := d.client.Room(ctx, args[0])
			if err != nil {
				return failure(err, "could not load room")
			}
			route, err := d.rooms().Start(ctx, room, d.session.UserID())
			if err != nil {
				return failure(err, "could not start room")
			}
			return d.follow(ctx, route, once)
		},
	}

	screen := func(use, short string, route func(string) string) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <roomId>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return d.follow(cmd.Context(), route(args[0]), once)
			},
		}
	}

	cmd.AddCommand(
		create,
		join,
		screen("lobby", "Wait in the room lobby", app.RoomLobbyRoute),
		start,
		screen("play", "Answer the room questions", app.RoomPlayRoute),
		screen("result", "Show the room leaderboard", app.RoomResultRoute),
	)
	return cmd
}

func (d *deps) printJoinInfo(room domain.Room) {
	url := app.JoinURL(d.cfg.Lobby.PublicURL, room.JoinCode)
	fmt.Fprintf(d.out, "room code: %s\njoin link: %s\n", room.JoinCode, url)
	qr, err := qrcode.New(url, qrcode.Medium)
	if err != nil {
		return
	}
	fmt.Fprintln(d.out, qr.ToSmallString(false))
}

// startRelay serves the lobby relay until the command context ends.
func (d *deps) startRelay(cmd *cobra.Command, addr string) {
	d.feed = app.NewLobbyFeed()
	handler := transporthttp.NewRouter(transporthttp.NewLobbyHandler(d.feed, d.cfg.Lobby.PublicURL), d.feed)
	ctx := cmd.Context()
	go func() {
		if err := transporthttp.Serve(ctx, addr, handler); err != nil {
			logger.FromContext(ctx).WithError(err).Error("lobby relay stopped")
		}
	}()
	fmt.Fprintf(d.out, "lobby relay on %s\n", addr)
}

func (d *deps) publish(room domain.Room) {
	if d.feed != nil {
		d.feed.Publish(app.ViewOf(room, d.session.UserID()))
	}
}

func (d *deps) roomLobby(ctx context.Context, id string) (string, error) {
	lastCount := -1
	starting := false
	var startErr error
	polls := d.pollReporter()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	out, err := d.rooms().Lobby(ctx, id, tracked(polls, func(room domain.Room) {
		d.publish(room)
		if n := len(room.Players); n != lastCount {
			lastCount = n
			fmt.Fprintf(d.out, "%d player(s) in the lobby:", n)
			for _, p := range room.Players {
				fmt.Fprintf(d.out, " %s", p.DisplayName())
			}
			fmt.Fprintln(d.out)
		}
		if starting || d.autoStart <= 0 || len(room.Players) < d.autoStart || !room.IsHost(d.session.UserID()) {
			return
		}
		starting = true
		if _, err := d.rooms().Start(ctx, room, d.session.UserID()); err != nil {
			startErr = err
			cancel()
		}
	}), polls.errored)
	if startErr != nil {
		return "", failure(startErr, "could not start room")
	}
	if err != nil {
		return "", err
	}
	return out.Route, nil
}

func (d *deps) roomPlay(ctx context.Context, id string) (string, error) {
	waiting := false
	polls := d.pollReporter()
	attempt, next, err := d.rooms().Play(ctx, id, tracked(polls, func(room domain.Room) {
		d.publish(room)
		if room.Status == domain.RoomWaiting && !waiting {
			waiting = true
			fmt.Fprintln(d.out, "waiting for the host to start...")
		}
	}), polls.errored)
	switch {
	case errors.Is(err, domain.ErrNoQuestions):
		return "", errors.New("this room has no questions")
	case err != nil:
		return "", failure(err, "could not load room")
	}
	if attempt == nil {
		return next, nil
	}
	res, err := d.runAttempt(ctx, attempt)
	if err != nil {
		return "", err
	}
	fmt.Fprintf(d.out, "\nsubmitted %d/%d in %ds\n", res.Score, attempt.Total(), res.Time)
	return next, nil
}

func (d *deps) roomResult(ctx context.Context, id string) error {
	me := d.session.UserID()
	submitted := -1
	polls := d.pollReporter()
	room, err := d.rooms().Result(ctx, id, tracked(polls, func(room domain.Room) {
		d.publish(room)
		view := app.ViewOf(room, me)
		n := 0
		for _, p := range room.Players {
			if p.SubmittedAt != nil {
				n++
			}
		}
		if n != submitted && !view.AllSubmitted {
			submitted = n
			fmt.Fprintf(d.out, "%d/%d players submitted\n", n, len(room.Players))
		}
	}), polls.errored)
	if err != nil {
		return err
	}

	view := app.ViewOf(room, me)
	tw := newTable(d.out, "#", "PLAYER", "SCORE", "TIME", "")
	for i, p := range view.Ranking {
		mark := ""
		if p.UserID == me {
			mark = "<- you"
		}
		row(tw, i+1, p.DisplayName(), orDash(p.Score), orDash(p.Time), mark)
	}
	return tw.Flush()
}
