package sqlstore

import (
	"context"
	"fmt"
	"time"

	"kibaro-cli/internal/domain"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type offlineScore struct {
	bun.BaseModel `bun:"table:offline_scores"`

	ID        string     `bun:"id,pk"`
	Points    int        `bun:"points,notnull"`
	QuizType  string     `bun:"quiz_type,notnull"`
	ChapterID string     `bun:"chapter_id,notnull"`
	CreatedAt time.Time  `bun:"created_at,notnull"`
	SyncedAt  *time.Time `bun:"synced_at"`
}

func (m offlineScore) toDomain() domain.OfflineScore {
	return domain.OfflineScore{
		ID:        m.ID,
		Points:    m.Points,
		QuizType:  m.QuizType,
		ChapterID: m.ChapterID,
		CreatedAt: m.CreatedAt,
		SyncedAt:  m.SyncedAt,
	}
}

// OfflineQueue is the bun-backed store for scores awaiting sync.
type OfflineQueue struct {
	db  *bun.DB
	now func() time.Time
}

func NewOfflineQueue(db *bun.DB) *OfflineQueue {
	return NewOfflineQueueWithClock(db, time.Now)
}

// NewOfflineQueueWithClock is test-only for deterministic ordering.
func NewOfflineQueueWithClock(db *bun.DB, now func() time.Time) *OfflineQueue {
	return &OfflineQueue{db: db, now: now}
}

func (q *OfflineQueue) Enqueue(ctx context.Context, sub domain.ScoreSubmission) (domain.OfflineScore, error) {
	m := offlineScore{
		ID:        uuid.NewString(),
		Points:    sub.Points,
		QuizType:  sub.QuizType,
		ChapterID: sub.ChapterID,
		CreatedAt: q.now().UTC(),
	}
	if _, err := q.db.NewInsert().Model(&m).Exec(ctx); err != nil {
		return domain.OfflineScore{}, fmt.Errorf("insert offline score: %w", err)
	}
	return m.toDomain(), nil
}

// Pending returns unsynced scores, oldest first.
func (q *OfflineQueue) Pending(ctx context.Context, limit int) ([]domain.OfflineScore, error) {
	var rows []offlineScore
	query := q.db.NewSelect().
		Model(&rows).
		Where("synced_at IS NULL").
		Order("created_at ASC", "id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Scan(ctx); err != nil {
		return nil, fmt.Errorf("select offline scores: %w", err)
	}
	out := make([]domain.OfflineScore, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// PendingCount reports how many scores still wait for a sync.
func (q *OfflineQueue) PendingCount(ctx context.Context) (int, error) {
	return q.db.NewSelect().
		Model((*offlineScore)(nil)).
		Where("synced_at IS NULL").
		Count(ctx)
}

func (q *OfflineQueue) MarkSynced(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := q.db.NewUpdate().
		Model((*offlineScore)(nil)).
		Set("synced_at = ?", q.now().UTC()).
		Where("id IN (?)", bun.In(ids)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("mark offline scores synced: %w", err)
	}
	return nil
}

// Purge drops synced rows older than cutoff.
func (q *OfflineQueue) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := q.db.NewDelete().
		Model((*offlineScore)(nil)).
		Where("synced_at IS NOT NULL").
		Where("synced_at < ?", cutoff.UTC()).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("purge offline scores: %w", err)
	}
	return res.RowsAffected()
}
