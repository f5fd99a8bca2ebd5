package cli

import (
	"context"
	"fmt"
	"sort"

	"kibaro-cli/internal/domain"

	"github.com/spf13/cobra"
)

func newAdminCmd(d *deps) *cobra.Command {
	cmd := guarded(&cobra.Command{
		Use:   "admin",
		Short: "Administration (admin role required)",
	}, guardAdmin)

	cmd.AddCommand(
		newAdminDashboardCmd(d),
		newAdminChapterCmd(d),
		newAdminQuestionCmd(d),
		newAdminBadgeCmd(d),
	)
	return cmd
}

func newAdminDashboardCmd(d *deps) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show platform metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			dash, err := d.client.AdminDashboard(cmd.Context())
			if err != nil {
				return failure(err, "could not load dashboard")
			}
			fmt.Fprintf(d.out, "users: %d total, %d new and %d active in the last 7 days\n",
				dash.Users.Total, dash.Users.NewLast7d, dash.Users.ActiveLast7d)
			fmt.Fprintf(d.out, "last 7 days: %d quiz plays, %d duels, %d rooms\n\n",
				dash.ActivityLast7d.QuizPlays, dash.ActivityLast7d.Duels, dash.ActivityLast7d.Rooms)

			tw := newTable(d.out, "#", "USER", "POINTS", "LEVEL")
			for i, u := range dash.Leaderboard {
				row(tw, i+1, u.Username, u.Points, u.Level)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			days := make([]string, 0, len(dash.Frequency.QuizPlaysPerDay))
			for day := range dash.Frequency.QuizPlaysPerDay {
				days = append(days, day)
			}
			sort.Strings(days)
			fmt.Fprintln(d.out, "\nquiz plays per day")
			tw = newTable(d.out, "DAY", "PLAYS")
			for _, day := range days {
				row(tw, day, dash.Frequency.QuizPlaysPerDay[day])
			}
			return tw.Flush()
		},
	}
}

func newAdminChapterCmd(d *deps) *cobra.Command {
	cmd := &cobra.Command{Use: "chapter", Short: "Manage chapters"}

	var in domain.ChapterInput
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a chapter",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := domain.Validate(in); err != nil {
				return err
			}
			if err := d.client.CreateChapter(cmd.Context(), in); err != nil {
				return failure(err, "could not create chapter")
			}
			fmt.Fprintf(d.out, "chapter %q created\n", in.Title)
			return nil
		},
	}
	create.Flags().StringVar(&in.Title, "title", "", "chapter title")
	create.Flags().StringVar(&in.Content, "content", "", "chapter text")
	create.Flags().StringVar(&in.Period, "period", "", "historical period")
	create.Flags().IntVar(&in.Order, "order", 0, "display order")

	cmd.AddCommand(create)
	return cmd
}

func newAdminQuestionCmd(d *deps) *cobra.Command {
	cmd := &cobra.Command{Use: "question", Short: "Manage questions"}

	list := &cobra.Command{
		Use:   "list <chapterId>",
		Short: "List a chapter's questions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			questions, err := d.client.QuestionsByChapter(cmd.Context(), args[0])
			if err != nil {
				return failure(err, "could not load questions")
			}
			for _, q := range questions {
				fmt.Fprintf(d.out, "%s  %s\n", q.ID, q.Text)
				for i, a := range q.Answers {
					mark := " "
					if a.IsCorrect {
						mark = "*"
					}
					fmt.Fprintf(d.out, "    %s %d. %s\n", mark, i+1, a.Text)
				}
			}
			return nil
		},
	}

	var form questionForm
	create := &cobra.Command{
		Use:   "create",
		Short: "Add a question to a chapter",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := domain.PrepareQuestion(form.input(), true)
			if err != nil {
				return err
			}
			if err := d.client.CreateQuestion(cmd.Context(), in); err != nil {
				return failure(err, "could not create question")
			}
			fmt.Fprintln(d.out, "question created")
			return nil
		},
	}
	form.bind(create, true)

	var updateForm questionForm
	update := &cobra.Command{
		Use:   "update <questionId>",
		Short: "Replace a question's text and answers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := domain.PrepareQuestion(updateForm.input(), false)
			if err != nil {
				return err
			}
			if err := d.client.UpdateQuestion(cmd.Context(), args[0], in); err != nil {
				return failure(err, "could not update question")
			}
			fmt.Fprintln(d.out, "question updated")
			return nil
		},
	}
	updateForm.bind(update, false)

	cmd.AddCommand(list, create, update, newDeleteCmd(d, "question", func(ctx context.Context, id string) error {
		return d.client.DeleteQuestion(ctx, id)
	}))
	return cmd
}

// questionForm collects answers as repeated --answer flags, with --correct
// holding the 1-based positions of the right ones.
type questionForm struct {
	chapterID string
	text      string
	answers   []string
	correct   []int
}

func (f *questionForm) bind(cmd *cobra.Command, withChapter bool) {
	if withChapter {
		cmd.Flags().StringVar(&f.chapterID, "chapter", "", "chapter id")
	}
	cmd.Flags().StringVar(&f.text, "text", "", "question text")
	cmd.Flags().StringArrayVarP(&f.answers, "answer", "a", nil, "answer text, repeatable")
	cmd.Flags().IntSliceVar(&f.correct, "correct", nil, "1-based positions of correct answers")
}

func (f *questionForm) input() domain.QuestionInput {
	right := make(map[int]bool, len(f.correct))
	for _, c := range f.correct {
		right[c-1] = true
	}
	answers := make([]domain.Answer, 0, len(f.answers))
	for i, text := range f.answers {
		answers = append(answers, domain.Answer{Text: text, IsCorrect: right[i]})
	}
	return domain.QuestionInput{ChapterID: f.chapterID, Text: f.text, Answers: answers}
}

func newAdminBadgeCmd(d *deps) *cobra.Command {
	cmd := &cobra.Command{Use: "badge", Short: "Manage badges"}

	list := &cobra.Command{
		Use:   "list",
		Short: "List badge definitions",
		RunE: func(cmd *cobra.Command, args []string) error {
			badges, err := d.client.ListBadges(cmd.Context())
			if err != nil {
				return failure(err, "could not load badges")
			}
			tw := newTable(d.out, "ID", "ICON", "TITLE", "CONDITION")
			for _, b := range badges {
				row(tw, b.ID, b.Icon, b.Title, b.Condition)
			}
			return tw.Flush()
		},
	}

	var createIn domain.BadgeInput
	create := &cobra.Command{
		Use:   "create",
		Short: "Define a badge",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := domain.Validate(createIn); err != nil {
				return err
			}
			if err := d.client.CreateBadge(cmd.Context(), createIn); err != nil {
				return failure(err, "could not create badge")
			}
			fmt.Fprintf(d.out, "badge %q created\n", createIn.Title)
			return nil
		},
	}
	bindBadge(create, &createIn)

	var updateIn domain.BadgeInput
	update := &cobra.Command{
		Use:   "update <badgeId>",
		Short: "Replace a badge definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := domain.Validate(updateIn); err != nil {
				return err
			}
			if err := d.client.UpdateBadge(cmd.Context(), args[0], updateIn); err != nil {
				return failure(err, "could not update badge")
			}
			fmt.Fprintln(d.out, "badge updated")
			return nil
		},
	}
	bindBadge(update, &updateIn)

	cmd.AddCommand(list, create, update, newDeleteCmd(d, "badge", func(ctx context.Context, id string) error {
		return d.client.DeleteBadge(ctx, id)
	}))
	return cmd
}

func bindBadge(cmd *cobra.Command, in *domain.BadgeInput) {
	cmd.Flags().StringVar(&in.Title, "title", "", "badge title")
	cmd.Flags().StringVar(&in.Description, "description", "", "badge description")
	cmd.Flags().StringVar(&in.Icon, "icon", "", "emoji or icon name")
	cmd.Flags().StringVar(&in.Condition, "condition", "", "award condition evaluated by the backend")
}

// newDeleteCmd asks for confirmation unless --yes is given.
func newDeleteCmd(d *deps, noun string, remove func(context.Context, string) error) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <" + noun + "Id>",
		Short: "Delete a " + noun,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				ok, err := d.prompt.confirm(fmt.Sprintf("delete %s %s?", noun, args[0]))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(d.out, "cancelled")
					return nil
				}
			}
			if err := remove(cmd.Context(), args[0]); err != nil {
				return failure(err, "could not delete "+noun)
			}
			fmt.Fprintf(d.out, "%s deleted\n", noun)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return cmd
}
