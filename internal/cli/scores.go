package cli

import (
	"fmt"

	"kibaro-cli/internal/domain"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newScoresCmd(d *deps) *cobra.Command {
	return guarded(&cobra.Command{
		Use:   "scores",
		Short: "Show your scores and the leaderboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				mine  []domain.Score
				board []domain.LeaderboardEntry
			)
			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() (err error) {
				mine, err = d.client.MyScores(ctx)
				return err
			})
			g.Go(func() (err error) {
				board, err = d.client.Leaderboard(ctx)
				return err
			})
			if err := g.Wait(); err != nil {
				return failure(err, "could not load scores")
			}

			fmt.Fprintf(d.out, "Your scores (total %d)\n", domain.TotalPoints(mine))
			tw := newTable(d.out, "DATE", "TYPE", "CHAPTER", "POINTS")
			for _, s := range mine {
				chapter := s.ChapterID
				if s.Chapter != nil && s.Chapter.Title != "" {
					chapter = s.Chapter.Title
				}
				row(tw, s.CreatedAt.Format("2006-01-02"), s.QuizType, chapter, int(s.Points))
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			fmt.Fprintln(d.out, "\nLeaderboard")
			tw = newTable(d.out, "#", "PLAYER", "POINTS")
			for i, e := range board {
				row(tw, i+1, e.Username, e.TotalPoints)
			}
			return tw.Flush()
		},
	}, guardAuth)
}

func newBadgesCmd(d *deps) *cobra.Command {
	var refresh bool
	cmd := guarded(&cobra.Command{
		Use:   "badges",
		Short: "Show the badges you earned",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if refresh {
				if err := d.client.RefreshBadges(ctx); err != nil {
					return failure(err, "could not refresh badges")
				}
			}
			badges, err := d.client.MyBadges(ctx)
			if err != nil {
				return failure(err, "could not load badges")
			}
			if len(badges) == 0 {
				fmt.Fprintln(d.out, "no badges yet, play a quiz to earn one")
				return nil
			}
			tw := newTable(d.out, "ICON", "TITLE", "DESCRIPTION", "DATE")
			for _, b := range badges {
				row(tw, b.Icon, b.Title, b.Description, b.Date)
			}
			return tw.Flush()
		},
	}, guardAuth)
	cmd.Flags().BoolVar(&refresh, "refresh", false, "ask the backend to re-evaluate badge conditions first")
	return cmd
}

func newSyncCmd(d *deps) *cobra.Command {
	var batch int
	cmd := guarded(&cobra.Command{
		Use:   "sync",
		Short: "Push scores saved while offline",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			queue, err := d.offlineQueue(ctx)
			if err != nil {
				return err
			}
			sent, err := d.scoreRecorder(ctx).Flush(ctx, batch)
			if err != nil {
				return failure(err, fmt.Sprintf("sync stopped after %d scores", sent))
			}
			left, err := queue.PendingCount(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(d.out, "synced %d scores, %d pending\n", sent, left)
			return nil
		},
	}, guardAuth)
	cmd.Flags().IntVar(&batch, "batch", 50, "scores per request")
	return cmd
}
