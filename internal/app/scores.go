package app

import (
	"context"
	"errors"
	"fmt"

	"kibaro-cli/internal/domain"
	"kibaro-cli/internal/logger"
)

// DefaultFlushBatch bounds one /scores/sync-offline call.
const DefaultFlushBatch = 50

// ScoreRecorder posts chapter scores, queueing them locally when the backend
// cannot be reached. Points are refreshed after every accepted post.
type ScoreRecorder struct {
	api    ScoreSyncer
	queue  OfflineQueue
	points PointsRefresher
}

func NewScoreRecorder(api ScoreSyncer, queue OfflineQueue, points PointsRefresher) *ScoreRecorder {
	return &ScoreRecorder{api: api, queue: queue, points: points}
}

// RecordChapter submits one chapter result. queued reports that the score was
// stored for a later sync instead.
func (r *ScoreRecorder) RecordChapter(ctx context.Context, chapterID string, points int) (queued bool, err error) {
	sub := domain.ScoreSubmission{Points: points, QuizType: domain.QuizTypeChapter, ChapterID: chapterID}
	log := logger.FromContext(ctx).WithField("chapter_id", chapterID)

	err = r.api.SyncScores(ctx, []domain.ScoreSubmission{sub})
	if err != nil {
		if r.queue == nil || !errors.Is(err, domain.ErrUnreachable) {
			return false, err
		}
		rec, qerr := r.queue.Enqueue(ctx, sub)
		if qerr != nil {
			return false, fmt.Errorf("queue score: %w", qerr)
		}
		log.WithField("offline_id", rec.ID).Info("score queued for later sync")
		return true, nil
	}

	r.refresh(ctx)
	return false, nil
}

// Flush pushes queued scores in batches until the queue is empty or a post fails.
// It returns how many scores were accepted.
func (r *ScoreRecorder) Flush(ctx context.Context, batch int) (int, error) {
	if r.queue == nil {
		return 0, nil
	}
	if batch <= 0 {
		batch = DefaultFlushBatch
	}
	sent := 0
	for {
		pending, err := r.queue.Pending(ctx, batch)
		if err != nil {
			return sent, fmt.Errorf("read offline queue: %w", err)
		}
		if len(pending) == 0 {
			break
		}
		subs := make([]domain.ScoreSubmission, 0, len(pending))
		ids := make([]string, 0, len(pending))
		for _, p := range pending {
			subs = append(subs, p.Submission())
			ids = append(ids, p.ID)
		}
		if err := r.api.SyncScores(ctx, subs); err != nil {
			return sent, err
		}
		if err := r.queue.MarkSynced(ctx, ids); err != nil {
			return sent, fmt.Errorf("mark synced: %w", err)
		}
		sent += len(pending)
		if len(pending) < batch {
			break
		}
	}
	if sent > 0 {
		logger.FromContext(ctx).WithField("count", sent).Info("offline scores synced")
		r.refresh(ctx)
	}
	return sent, nil
}

func (r *ScoreRecorder) refresh(ctx context.Context) {
	if r.points == nil {
		return
	}
	if err := r.points.RefreshPoints(ctx); err != nil {
		logger.FromContext(ctx).WithError(err).Warn("points refresh failed")
	}
}
