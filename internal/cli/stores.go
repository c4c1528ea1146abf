package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/apc/internal/adapters/file"
	"github.com/aretw0/apc/internal/adapters/sqlite"
	"github.com/aretw0/apc/internal/config"
	"github.com/aretw0/apc/pkg/adapters/memory"
	"github.com/aretw0/apc/pkg/adapters/redis"
	"github.com/aretw0/apc/pkg/domain"
	"github.com/aretw0/apc/pkg/persistence/middleware"
	"github.com/aretw0/apc/pkg/ports"
	"github.com/aretw0/apc/pkg/session"
	backend "github.com/redis/go-redis/v9"
)

// Default locations, relative to the project directory.
var (
	defaultSessionsDir = filepath.Join(".apc", "sessions")
	defaultDatabase    = filepath.Join(".apc", "apc.db")
)

// openStore creates the configured context store and a func that releases it.
func openStore(cfg *config.Config, dir string) (ports.ContextStore, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Store.Driver {
	case config.DriverMemory:
		return memory.NewStore(), noop, nil

	case config.DriverFile:
		path := cfg.Store.Path
		if path == "" {
			path = defaultSessionsDir
		}
		return file.New(joinDir(dir, path)), noop, nil

	case config.DriverSQLite:
		path := cfg.Store.Path
		if path == "" {
			path = defaultDatabase
		}
		path = joinDir(dir, path)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, noop, fmt.Errorf("create database dir: %w", err)
		}
		store, err := sqlite.Open(path)
		if err != nil {
			return nil, noop, err
		}
		return store, store.Close, nil

	case config.DriverRedis:
		rc := cfg.Store.Redis
		var opts []redis.Option
		if rc.Prefix != "" {
			opts = append(opts, redis.WithPrefix(rc.Prefix))
		}
		if rc.TTL > 0 {
			opts = append(opts, redis.WithTTL(rc.TTL))
		}
		store := redis.New(rc.Addr, rc.Password, rc.DB, opts...)
		return store, store.Close, nil
	}
	return nil, noop, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

// wrapStore applies redaction and then encryption to what reaches store.
func wrapStore(cfg *config.Config, store ports.ContextStore) (ports.ContextStore, error) {
	var mws []middleware.Middleware
	if len(cfg.Store.Redact) > 0 {
		mw, err := middleware.NewRedactMiddleware(cfg.Store.Redact)
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	key, err := cfg.Store.Key()
	if err != nil {
		return nil, err
	}
	if key != nil {
		mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	return middleware.Chain(store, mws...), nil
}

// openSessions wraps the configured store in a session manager, adding the
// redis locker when enabled. newContext seeds sessions that do not exist yet.
func openSessions(cfg *config.Config, dir string, logger *slog.Logger, newContext func() *domain.Context) (*session.Manager, func() error, error) {
	raw, closeStore, err := openStore(cfg, dir)
	if err != nil {
		return nil, nil, err
	}
	store, err := wrapStore(cfg, raw)
	if err != nil {
		_ = closeStore()
		return nil, nil, err
	}

	opts := []session.Option{
		session.WithLogger(logger),
		session.WithContextFactory(newContext),
	}
	closers := []func() error{closeStore}

	if cfg.Locker.Redis {
		var client *backend.Client
		if rs, ok := raw.(*redis.Store); ok {
			client = rs.Client()
		} else {
			rc := cfg.Store.Redis
			client = backend.NewClient(&backend.Options{Addr: rc.Addr, Password: rc.Password, DB: rc.DB})
			closers = append(closers, client.Close)
		}
		prefix := cfg.Store.Redis.Prefix
		if prefix == "" {
			prefix = redis.DefaultPrefix
		}
		opts = append(opts, session.WithLocker(redis.NewLocker(client, prefix)))
		if cfg.Locker.TTL > 0 {
			opts = append(opts, session.WithLockTTL(cfg.Locker.TTL))
		}
	}

	closeAll := func() error {
		var first error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil && first == nil {
				first = err
			}
		}
		return first
	}
	return session.NewManager(store, opts...), closeAll, nil
}
