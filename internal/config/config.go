package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Session backends.
const (
	SessionFile   = "file"
	SessionMemory = "memory"
	SessionRedis  = "redis"
)

// Offline queue drivers.
const (
	OfflineSQLite   = "sqlite"
	OfflinePostgres = "postgres"
)

type Config struct {
	API struct {
		BaseURL string `yaml:"base_url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"api"`
	Session struct {
		Backend string `yaml:"backend"`
		Path    string `yaml:"path"`
		Key     string `yaml:"key"`
	} `yaml:"session"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Offline struct {
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
	} `yaml:"offline"`
	Cache struct {
		TTL string `yaml:"ttl"`
	} `yaml:"cache"`
	Poll struct {
		DuelWait   string `yaml:"duel_wait"`
		DuelResult string `yaml:"duel_result"`
		RoomLobby  string `yaml:"room_lobby"`
		RoomPlay   string `yaml:"room_play"`
		RoomResult string `yaml:"room_result"`
	} `yaml:"poll"`
	Quiz struct {
		RevealDelay string `yaml:"reveal_delay"`
	} `yaml:"quiz"`
	Lobby struct {
		Addr      string `yaml:"addr"`
		PublicURL string `yaml:"public_url"`
	} `yaml:"lobby"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	cfg := Config{}
	cfg.API.BaseURL = "http://localhost:4001/api"
	cfg.API.Timeout = "15s"
	cfg.Session.Backend = SessionFile
	cfg.Session.Path = defaultSessionPath()
	cfg.Session.Key = "kibaro:session:default"
	cfg.Redis.TTL = "720h"
	cfg.Offline.Driver = OfflineSQLite
	cfg.Offline.DSN = "file:" + filepath.Join(filepath.Dir(cfg.Session.Path), "offline.db")
	cfg.Cache.TTL = "168h"
	cfg.Poll.DuelWait = "1500ms"
	cfg.Poll.DuelResult = "2s"
	cfg.Poll.RoomLobby = "1500ms"
	cfg.Poll.RoomPlay = "1200ms"
	cfg.Poll.RoomResult = "1200ms"
	cfg.Quiz.RevealDelay = "900ms"
	cfg.Lobby.Addr = ":8090"
	cfg.Lobby.PublicURL = "http://localhost:5173"
	cfg.Log.Level = "info"
	return cfg
}

// Load reads an optional .env file, then the YAML config at path on top of the
// defaults, then environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, err
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}
	applyEnv(&cfg)
	return cfg, cfg.Validate()
}

func applyEnv(cfg *Config) {
	setString := func(key string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	setString("KIBARO_API_URL", &cfg.API.BaseURL)
	setString("KIBARO_SESSION_BACKEND", &cfg.Session.Backend)
	setString("KIBARO_SESSION_PATH", &cfg.Session.Path)
	setString("REDIS_ADDR", &cfg.Redis.Addr)
	setString("REDIS_PASSWORD", &cfg.Redis.Password)
	setString("KIBARO_OFFLINE_DRIVER", &cfg.Offline.Driver)
	setString("KIBARO_OFFLINE_DSN", &cfg.Offline.DSN)
	setString("LOG_LEVEL", &cfg.Log.Level)
	if v := os.Getenv("REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Redis.DB = db
		}
	}
}

// Validate rejects configurations the CLI cannot run with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return errors.New("api.base_url cannot be empty")
	}
	switch c.Session.Backend {
	case SessionFile:
		if c.Session.Path == "" {
			return errors.New("session.path cannot be empty for the file backend")
		}
	case SessionMemory:
	case SessionRedis:
		if c.Redis.Addr == "" {
			return errors.New("redis.addr must be set for the redis session backend")
		}
	default:
		return fmt.Errorf("unknown session backend %q", c.Session.Backend)
	}
	switch c.Offline.Driver {
	case OfflineSQLite, OfflinePostgres:
	default:
		return fmt.Errorf("unknown offline driver %q", c.Offline.Driver)
	}
	return nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "kibaro", "session.yaml")
}
