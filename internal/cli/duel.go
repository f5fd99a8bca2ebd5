package cli

import (
	"context"
	"errors"
	"fmt"

	"kibaro-cli/internal/app"
	"kibaro-cli/internal/domain"

	"github.com/spf13/cobra"
)

func newDuelCmd(d *deps) *cobra.Command {
	var once bool
	cmd := guarded(&cobra.Command{
		Use:   "duel",
		Short: "Play a one-on-one duel",
	}, guardAuth)
	cmd.PersistentFlags().BoolVar(&once, "once", false, "stop after this screen instead of following the duel")

	var chapters []string
	var count int
	create := &cobra.Command{
		Use:   "create",
		Short: "Open a duel and wait for an opponent",
		RunE: func(cmd *cobra.Command, args []string) error {
			game, route, err := d.duels().Create(cmd.Context(), chapters, count)
			if err != nil {
				return failure(err, "could not create duel")
			}
			fmt.Fprintf(d.out, "duel %s created, share this id with your opponent\n", game.ID)
			if game.QuestionsPicked != nil {
				fmt.Fprintf(d.out, "%d questions picked from %d available\n",
					*game.QuestionsPicked, derefOr(game.QuestionsAvailable, *game.QuestionsPicked))
			}
			return d.follow(cmd.Context(), route, once)
		},
	}
	create.Flags().StringSliceVarP(&chapters, "chapter", "c", nil, "chapter id, repeatable")
	create.Flags().IntVarP(&count, "questions", "n", domain.DefaultQuestionCount, "number of questions (5-30)")

	join := &cobra.Command{
		Use:   "join <gameId>",
		Short: "Join a duel by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			route, err := d.duels().Join(cmd.Context(), args[0])
			if err != nil {
				return failure(err, "could not join duel")
			}
			return d.follow(cmd.Context(), route, once)
		},
	}

	screen := func(use, short string, route func(string) string) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <gameId>",
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
		screen("wait", "Wait for the opponent", app.DuelWaitRoute),
		screen("play", "Answer the duel questions", app.DuelPlayRoute),
		screen("result", "Show the duel result", app.DuelResultRoute),
	)
	return cmd
}

func (d *deps) duelWait(ctx context.Context, id string) (string, error) {
	fmt.Fprintf(d.out, "waiting for an opponent on duel %s (Ctrl-C to leave)\n", id)
	polls := d.pollReporter()
	out, err := d.duels().Wait(ctx, id, tracked[domain.Game](polls, nil), polls.errored)
	if err != nil {
		return "", err
	}
	return out.Route, nil
}

func (d *deps) duelPlay(ctx context.Context, id string) (string, error) {
	attempt, next, err := d.duels().Play(ctx, id)
	switch {
	case errors.Is(err, domain.ErrNotReady):
		fmt.Fprintln(d.out, "the duel has not started yet")
		return app.DuelWaitRoute(id), nil
	case errors.Is(err, domain.ErrNoQuestions):
		return "", errors.New("this duel has no questions")
	case err != nil:
		return "", failure(err, "could not load duel")
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

func (d *deps) duelResult(ctx context.Context, id string) error {
	shown := false
	polls := d.pollReporter()
	game, err := d.duels().Result(ctx, id, tracked(polls, func(g domain.Game) {
		if g.Status != domain.GameFinished && !shown {
			shown = true
			fmt.Fprintln(d.out, "waiting for your opponent to finish...")
		}
	}), polls.errored)
	if err != nil {
		return err
	}

	tw := newTable(d.out, "SEAT", "PLAYER", "SCORE", "TIME")
	row(tw, 1, refName(game.Player1, game.Player1ID), orDash(game.Player1Score), orDash(game.Player1Time))
	row(tw, 2, refName(game.Player2, game.Player2ID), orDash(game.Player2Score), orDash(game.Player2Time))
	if err := tw.Flush(); err != nil {
		return err
	}

	seat := game.Seat(d.session.UserID())
	switch w := game.Winner(); {
	case w == domain.WinnerPending:
		fmt.Fprintln(d.out, "scores are not all in yet")
	case w == domain.WinnerDraw:
		fmt.Fprintln(d.out, "draw")
	case (w == domain.WinnerPlayer1 && seat == 1) || (w == domain.WinnerPlayer2 && seat == 2):
		fmt.Fprintln(d.out, "you win!")
	case seat == 0:
		fmt.Fprintf(d.out, "winner: %s\n", w)
	default:
		fmt.Fprintln(d.out, "you lose")
	}
	return nil
}

func refName(r *domain.Ref, fallback string) string {
	if r != nil && r.Username != "" {
		return r.Username
	}
	return fallback
}

func derefOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}
