package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"phishsim/internal/audit"
	"phishsim/internal/platform/config"
	"phishsim/internal/platform/kafka"
	"phishsim/internal/platform/postgres"
	"phishsim/internal/platform/redis"
	"phishsim/internal/platform/sqlite"
	"phishsim/internal/store"
)

// openPersister selects the snapshot backend. The returned close func is
// always safe to call.
func openPersister(ctx context.Context, cfg config.Server, log *slog.Logger) (store.Persister, func(), error) {
	noop := func() {}
	switch cfg.Store.Backend {
	case config.StoreMemory:
		log.Warn("using in-memory store; state is lost on restart")
		return store.NewMemoryPersister(), noop, nil
	case config.StoreFile:
		return store.NewFilePersister(cfg.Store.FilePath), noop, nil
	case config.StorePostgres:
		db, err := postgres.Open(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, noop, fmt.Errorf("open postgres: %w", err)
		}
		return sqlPersister(ctx, db, store.NewPostgresPersister(db, store.DefaultDocumentName))
	case config.StoreSQLite:
		db, err := sqlite.Open(ctx, cfg.Store.SQLitePath)
		if err != nil {
			return nil, noop, fmt.Errorf("open sqlite: %w", err)
		}
		return sqlPersister(ctx, db, store.NewSQLitePersister(db, store.DefaultDocumentName))
	case config.StoreRedis:
		client, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, noop, err
		}
		return store.NewRedisPersister(client, cfg.Store.RedisKey), func() { _ = client.Close() }, nil
	}
	return nil, noop, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}

func sqlPersister(ctx context.Context, db *sql.DB, p *store.SQLPersister) (store.Persister, func(), error) {
	closeDB := func() { _ = db.Close() }
	if err := p.EnsureSchema(ctx); err != nil {
		closeDB()
		return nil, func() {}, fmt.Errorf("ensure snapshot schema: %w", err)
	}
	return p, closeDB, nil
}

// auditSinks always logs committed audit entries and also streams them to
// Kafka when brokers are configured.
func auditSinks(ctx context.Context, cfg config.Server, log *slog.Logger) ([]audit.Sink, func(), error) {
	sinks := []audit.Sink{audit.NewLogSink(log)}
	if len(cfg.Kafka.Brokers) == 0 {
		return sinks, func() {}, nil
	}
	client, err := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
	if err != nil {
		return nil, func() {}, err
	}
	if err := kafka.EnsureTopic(ctx, client, cfg.Kafka.AuditTopic, 3); err != nil {
		log.Warn("audit topic not ensured", "topic", cfg.Kafka.AuditTopic, "error", err)
	}
	return append(sinks, audit.NewKafkaSink(client, cfg.Kafka.AuditTopic)), client.Close, nil
}
