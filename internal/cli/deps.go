package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"kibaro-cli/internal/app"
	"kibaro-cli/internal/config"
	"kibaro-cli/internal/domain"
	"kibaro-cli/internal/infra/file"
	"kibaro-cli/internal/infra/memory"
	redisinfra "kibaro-cli/internal/infra/redis"
	"kibaro-cli/internal/infra/sqlstore"
	"kibaro-cli/internal/logger"
	"kibaro-cli/internal/transport/rest"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
)

const (
	guardKey   = "guard"
	guardAuth  = "auth"
	guardAdmin = "admin"
)

// deps is built once per invocation in the root PersistentPreRunE.
type deps struct {
	configPath string
	apiURL     string

	out    io.Writer
	prompt *prompter

	cfg     config.Config
	client  *rest.Client
	session *app.SessionStore

	redis *redis.Client
	db    *bun.DB
	queue *sqlstore.OfflineQueue
	cache app.ChapterCache

	feed      *app.LobbyFeed
	autoStart int
}

func newDeps(in io.Reader, out io.Writer) *deps {
	return &deps{out: out, prompt: newPrompter(in, out)}
}

func (d *deps) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(d.configPath)
	if err != nil {
		return err
	}
	if d.apiURL != "" {
		cfg.API.BaseURL = d.apiURL
	}
	d.cfg = cfg
	logger.Setup(cmd.ErrOrStderr(), cfg.Log.Level)

	ctx := logger.NewContext(cmd.Context(), logger.WithComponent("cli").WithField("command", cmd.Name()))
	cmd.SetContext(ctx)

	creds, err := d.credentialStore()
	if err != nil {
		return err
	}
	d.client = rest.New(cfg.API.BaseURL,
		rest.TokenFunc(func() string { return d.session.Token() }),
		rest.WithTimeout(config.TTLDuration(cfg.API.Timeout, 15*time.Second)),
	)
	d.session = app.NewSessionStore(d.client, creds)
	if err := d.session.Load(ctx); err != nil {
		logger.FromContext(ctx).WithError(err).Warn("stored session unreadable, continuing signed out")
	}
	return d.guard(cmd)
}

func (d *deps) close() error {
	var errs []error
	if d.db != nil {
		errs = append(errs, d.db.Close())
		d.db = nil
	}
	if d.redis != nil {
		errs = append(errs, d.redis.Close())
		d.redis = nil
	}
	return errors.Join(errs...)
}

// guard applies the nearest guard annotation on the command or its parents.
func (d *deps) guard(cmd *cobra.Command) error {
	level := ""
	for c := cmd; c != nil && level == ""; c = c.Parent() {
		level = c.Annotations[guardKey]
	}

	var decision app.Decision
	switch level {
	case guardAuth:
		decision = app.RequireAuth(d.session)
	case guardAdmin:
		decision = app.RequireAdmin(d.session)
	default:
		return nil
	}
	switch decision.Kind {
	case app.Allow:
		return nil
	case app.Wait:
		return errors.New("session is still loading")
	}
	if decision.Target == app.RouteLogin {
		return fmt.Errorf("%w: run `kibaro login` first", domain.ErrNotAuthenticated)
	}
	return domain.ErrForbidden
}

func guarded(cmd *cobra.Command, level string) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[guardKey] = level
	return cmd
}

func (d *deps) redisClient() *redis.Client {
	if d.redis == nil && d.cfg.Redis.Addr != "" {
		d.redis = redis.NewClient(&redis.Options{
			Addr:     d.cfg.Redis.Addr,
			Password: d.cfg.Redis.Password,
			DB:       d.cfg.Redis.DB,
		})
	}
	return d.redis
}

func (d *deps) credentialStore() (app.CredentialStore, error) {
	switch d.cfg.Session.Backend {
	case config.SessionMemory:
		return memory.NewCredentialStore(), nil
	case config.SessionRedis:
		ttl := config.TTLDuration(d.cfg.Redis.TTL, 720*time.Hour)
		return redisinfra.NewCredentialStore(d.redisClient(), d.cfg.Session.Key, ttl), nil
	case config.SessionFile:
		return file.NewCredentialStore(d.cfg.Session.Path), nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", d.cfg.Session.Backend)
	}
}

// chapterCache is Redis-backed when Redis is configured, otherwise it lives in
// the offline store so a later run can replay a quiz without the backend.
func (d *deps) chapterCache(ctx context.Context) app.ChapterCache {
	if d.cache != nil {
		return d.cache
	}
	ttl := config.TTLDuration(d.cfg.Cache.TTL, 168*time.Hour)
	if client := d.redisClient(); client != nil {
		d.cache = redisinfra.NewChapterCache(client, ttl)
		return d.cache
	}
	if _, err := d.offlineQueue(ctx); err != nil {
		logger.FromContext(ctx).WithError(err).Warn("offline store unavailable, chapter cache kept in memory")
		d.cache = memory.NewChapterCache(ttl)
		return d.cache
	}
	d.cache = sqlstore.NewChapterCache(d.db, ttl)
	return d.cache
}

// offlineQueue opens and migrates the offline store on first use.
func (d *deps) offlineQueue(ctx context.Context) (*sqlstore.OfflineQueue, error) {
	if d.queue != nil {
		return d.queue, nil
	}
	db, err := d.openOfflineDB()
	if err != nil {
		return nil, err
	}
	if err := sqlstore.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate offline store: %w", err)
	}
	d.db = db
	d.queue = sqlstore.NewOfflineQueue(db)
	return d.queue, nil
}

func (d *deps) openOfflineDB() (*bun.DB, error) {
	if d.cfg.Offline.Driver == config.OfflineSQLite {
		if err := ensureDir(d.cfg.Offline.DSN); err != nil {
			return nil, err
		}
	}
	return sqlstore.Open(d.cfg.Offline.Driver, d.cfg.Offline.DSN)
}

func (d *deps) intervals() app.Intervals {
	def := app.DefaultIntervals()
	p := d.cfg.Poll
	return app.Intervals{
		DuelWait:   config.TTLDuration(p.DuelWait, def.DuelWait),
		DuelResult: config.TTLDuration(p.DuelResult, def.DuelResult),
		RoomLobby:  config.TTLDuration(p.RoomLobby, def.RoomLobby),
		RoomPlay:   config.TTLDuration(p.RoomPlay, def.RoomPlay),
		RoomResult: config.TTLDuration(p.RoomResult, def.RoomResult),
	}
}

func (d *deps) revealDelay() time.Duration {
	return config.TTLDuration(d.cfg.Quiz.RevealDelay, 900*time.Millisecond)
}

func (d *deps) duels() *app.Duels { return app.NewDuels(d.client, d.intervals()) }

func (d *deps) rooms() *app.Rooms { return app.NewRooms(d.client, d.intervals()) }

// scoreRecorder falls back to posting without a queue when the offline store cannot be opened.
func (d *deps) scoreRecorder(ctx context.Context) *app.ScoreRecorder {
	queue, err := d.offlineQueue(ctx)
	if err != nil {
		logger.FromContext(ctx).WithError(err).Warn("offline queue unavailable")
		return app.NewScoreRecorder(d.client, nil, d.session)
	}
	return app.NewScoreRecorder(d.client, queue, d.session)
}
