package app

import (
	"context"
	"sync"
	"time"

	"kibaro-cli/internal/domain"
)

// Submitter posts a finished attempt.
type Submitter func(ctx context.Context, res domain.Result) error

type attemptState int

const (
	attemptAnswering attemptState = iota
	attemptSubmitting
	attemptFinished
)

// AnswerResult is the feedback for one answered question.
type AnswerResult struct {
	Correct     bool
	CorrectText string
	Score       int
	// Submitted is set once the final answer (or a finish) landed on the server.
	Submitted bool
	Result    domain.Result
}

// Attempt runs a fixed list of questions once and submits exactly one result.
// Input is rejected while a submission is in flight and after it succeeds.
type Attempt struct {
	questions []domain.Question
	submit    Submitter
	now       func() time.Time

	mu      sync.Mutex
	started time.Time
	idx     int
	score   int
	state   attemptState
}

func NewAttempt(questions []domain.Question, submit Submitter) (*Attempt, error) {
	return NewAttemptWithClock(questions, submit, time.Now)
}

// NewAttemptWithClock is used by tests for deterministic elapsed times.
func NewAttemptWithClock(questions []domain.Question, submit Submitter, now func() time.Time) (*Attempt, error) {
	if len(questions) == 0 {
		return nil, domain.ErrNoQuestions
	}
	return &Attempt{
		questions: questions,
		submit:    submit,
		now:       now,
		started:   now(),
	}, nil
}

// Current returns the question to answer and its index. ok is false once all
// questions are answered.
func (a *Attempt) Current() (domain.Question, int, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.idx >= len(a.questions) || a.state == attemptFinished {
		return domain.Question{}, a.idx, false
	}
	return a.questions[a.idx], a.idx, true
}

func (a *Attempt) Total() int { return len(a.questions) }

func (a *Attempt) Score() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.score
}

// Elapsed is whole seconds since the attempt started.
func (a *Attempt) Elapsed() int {
	return int(a.now().Sub(a.started) / time.Second)
}

// Finished reports whether the result has been accepted.
func (a *Attempt) Finished() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state == attemptFinished
}

// Answer records the choice for the current question. The final answer submits
// the tally computed here, including this answer.
func (a *Attempt) Answer(ctx context.Context, choice int) (AnswerResult, error) {
	a.mu.Lock()
	if err := a.checkOpenLocked(); err != nil {
		a.mu.Unlock()
		return AnswerResult{}, err
	}
	if a.idx >= len(a.questions) {
		a.mu.Unlock()
		return AnswerResult{}, domain.ErrFinished
	}
	q := a.questions[a.idx]
	if choice < 0 || choice >= len(q.Answers) {
		a.mu.Unlock()
		return AnswerResult{}, domain.NewValidationError("choice out of range")
	}

	res := AnswerResult{Correct: q.Answers[choice].IsCorrect, CorrectText: correctText(q)}
	next := a.score
	if res.Correct {
		next++
	}
	a.score = next
	a.idx++
	res.Score = next
	last := a.idx == len(a.questions)
	a.mu.Unlock()

	if !last {
		return res, nil
	}
	result, err := a.finish(ctx, next)
	if err != nil {
		return res, err
	}
	res.Submitted = true
	res.Result = result
	return res, nil
}

// Finish submits the running tally without answering the remaining questions.
// It also retries a final submission that failed.
func (a *Attempt) Finish(ctx context.Context) (domain.Result, error) {
	a.mu.Lock()
	if err := a.checkOpenLocked(); err != nil {
		a.mu.Unlock()
		return domain.Result{}, err
	}
	score := a.score
	a.mu.Unlock()
	return a.finish(ctx, score)
}

func (a *Attempt) checkOpenLocked() error {
	switch a.state {
	case attemptSubmitting:
		return domain.ErrSubmitting
	case attemptFinished:
		return domain.ErrFinished
	}
	return nil
}

func (a *Attempt) finish(ctx context.Context, score int) (domain.Result, error) {
	a.mu.Lock()
	if err := a.checkOpenLocked(); err != nil {
		a.mu.Unlock()
		return domain.Result{}, err
	}
	a.state = attemptSubmitting
	a.mu.Unlock()

	result := domain.Result{Score: score, Time: a.Elapsed()}
	err := a.submit(ctx, result)

	a.mu.Lock()
	defer a.mu.Unlock()
	if err != nil {
		a.state = attemptAnswering
		return result, err
	}
	a.state = attemptFinished
	return result, nil
}

func correctText(q domain.Question) string {
	for _, ans := range q.Answers {
		if ans.IsCorrect {
			return ans.Text
		}
	}
	return ""
}
