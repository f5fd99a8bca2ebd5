package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kibaro-cli/internal/app"
	"kibaro-cli/internal/domain"
)

// runAttempt drives an attempt from the terminal until it is submitted.
// A failed submit can be retried; declining leaves the attempt unsubmitted.
func (d *deps) runAttempt(ctx context.Context, attempt *app.Attempt) (domain.Result, error) {
	reveal := d.revealDelay()
	for {
		q, idx, ok := attempt.Current()
		if !ok {
			// all answered but the last submit failed
			return d.retryFinish(ctx, attempt)
		}
		fmt.Fprintf(d.out, "\nQuestion %d/%d  score %d\n%s\n", idx+1, attempt.Total(), attempt.Score(), q.Text)
		for i, a := range q.Answers {
			fmt.Fprintf(d.out, "  %d. %s\n", i+1, a.Text)
		}

		choice, err := d.prompt.choice(len(q.Answers))
		if errors.Is(err, errQuit) {
			res, err := attempt.Finish(ctx)
			if err != nil {
				fmt.Fprintf(d.out, "submit failed: %v\n", err)
				return d.retryFinish(ctx, attempt)
			}
			return res, nil
		}
		if err != nil {
			return domain.Result{}, err
		}

		res, err := attempt.Answer(ctx, choice)
		var verr *domain.ValidationError
		switch {
		case errors.As(err, &verr):
			fmt.Fprintln(d.out, verr.Error())
			continue
		case errors.Is(err, domain.ErrFinished), errors.Is(err, domain.ErrSubmitting):
			return domain.Result{}, err
		}
		if res.Correct {
			fmt.Fprintln(d.out, "correct!")
		} else {
			fmt.Fprintf(d.out, "wrong, the answer was: %s\n", res.CorrectText)
		}
		if err != nil {
			fmt.Fprintf(d.out, "submit failed: %v\n", err)
			continue
		}
		if res.Submitted {
			return res.Result, nil
		}
		if err := sleepCtx(ctx, reveal); err != nil {
			return domain.Result{}, err
		}
	}
}

func (d *deps) retryFinish(ctx context.Context, attempt *app.Attempt) (domain.Result, error) {
	for {
		again, err := d.prompt.confirm("retry submitting your score?")
		if err != nil {
			return domain.Result{}, err
		}
		if !again {
			return domain.Result{}, errors.New("score not submitted")
		}
		res, err := attempt.Finish(ctx)
		if err == nil {
			return res, nil
		}
		fmt.Fprintf(d.out, "submit failed: %v\n", err)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
