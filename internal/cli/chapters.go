package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"kibaro-cli/internal/app"
	"kibaro-cli/internal/domain"

	"github.com/spf13/cobra"
)

func newChaptersCmd(d *deps) *cobra.Command {
	return &cobra.Command{
		Use:   "chapters [chapterId]",
		Short: "List chapters, or show one chapter's content",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return d.showChapter(cmd.Context(), args[0])
			}
			chapters, err := d.client.ListChapters(cmd.Context())
			if err != nil {
				return failure(err, "could not load chapters")
			}
			sort.SliceStable(chapters, func(i, j int) bool { return chapters[i].Order < chapters[j].Order })

			tw := newTable(d.out, "ORDER", "ID", "TITLE", "PERIOD")
			for _, c := range chapters {
				row(tw, c.Order, c.ID, c.Title, c.Period)
			}
			return tw.Flush()
		},
	}
}

func (d *deps) showChapter(ctx context.Context, id string) error {
	quiz, cached, err := app.NewChapterQuizzes(d.client, d.chapterCache(ctx)).Load(ctx, id)
	if err != nil {
		return failure(err, "could not load chapter")
	}
	c := quiz.Chapter
	fmt.Fprintf(d.out, "%s (%s)\n\n%s\n\n%d questions, start with `kibaro quiz %s`\n",
		c.Title, c.Period, c.Content, len(quiz.Questions), c.ID)
	if cached {
		fmt.Fprintln(d.out, "(offline copy)")
	}
	return nil
}

func newQuizCmd(d *deps) *cobra.Command {
	return guarded(&cobra.Command{
		Use:   "quiz <chapterId>",
		Short: "Play a chapter quiz",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			quiz, cached, err := app.NewChapterQuizzes(d.client, d.chapterCache(ctx)).Load(ctx, args[0])
			if err != nil {
				return failure(err, "could not load quiz")
			}
			if cached {
				fmt.Fprintln(d.out, "backend unreachable, playing the offline copy")
			}

			recorder := d.scoreRecorder(ctx)
			queued := false
			attempt, err := app.NewAttempt(quiz.Questions, func(ctx context.Context, res domain.Result) error {
				q, err := recorder.RecordChapter(ctx, quiz.Chapter.ID, res.Score)
				queued = q
				return err
			})
			if errors.Is(err, domain.ErrNoQuestions) {
				fmt.Fprintln(d.out, "this chapter has no questions yet")
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(d.out, "Quiz: %s\n", quiz.Chapter.Title)
			res, err := d.runAttempt(ctx, attempt)
			if err != nil {
				return err
			}
			fmt.Fprintf(d.out, "\nfinal score %d/%d in %ds\n", res.Score, attempt.Total(), res.Time)
			if queued {
				fmt.Fprintln(d.out, "saved offline, run `kibaro sync` once you are back online")
			} else if user, ok := d.session.User(); ok {
				fmt.Fprintf(d.out, "total points: %d\n", user.Points)
			}
			return nil
		},
	}, guardAuth)
}
