package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"knowledge-quiz/internal/app"
	"knowledge-quiz/internal/bank"
	"knowledge-quiz/internal/config"
	"knowledge-quiz/internal/infra/amqp"
	"knowledge-quiz/internal/infra/memory"
	"knowledge-quiz/internal/infra/postgres"
	redisinfra "knowledge-quiz/internal/infra/redis"
	"knowledge-quiz/internal/infra/sqlite"
)

// deps is everything the commands build from configuration.
type deps struct {
	redis     *redis.Client
	pool      *pgxpool.Pool
	records   app.RecordStore
	topics    app.TopicRepository
	sessions  app.SessionRepository
	publisher *amqp.Publisher
	closers   []func()
}

func (d *deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

// buildDeps connects the configured backends. The caller must Close the result.
func buildDeps(ctx context.Context, cfg config.Config, logger *zap.Logger, withPublisher bool) (*deps, error) {
	d := &deps{}
	ok := false
	defer func() {
		if !ok {
			d.Close()
		}
	}()

	if cfg.Redis.Addr != "" {
		d.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		d.closers = append(d.closers, func() { _ = d.redis.Close() })
		if err := d.redis.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
	}

	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		d.pool = pool
		d.closers = append(d.closers, pool.Close)
	}

	loader, err := topicLoader(cfg, d.pool)
	if err != nil {
		return nil, err
	}
	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	if d.redis != nil {
		d.topics = redisinfra.NewTopicRepository(d.redis, loader, quizTTL)
		d.sessions = redisinfra.NewSessionStore(d.redis, config.TTLDuration(cfg.Redis.TTL, 10*time.Minute))
	} else {
		d.topics = memory.NewTopicRepository(loader, quizTTL)
		d.sessions = memory.NewSessionStore()
	}

	switch cfg.Storage.Backend {
	case config.BackendRedis:
		d.records = redisinfra.NewRecordStore(d.redis, cfg.Redis.Prefix)
	case config.BackendPostgres:
		d.records = postgres.NewRecordStore(d.pool)
	case config.BackendSQLite:
		store, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		d.records = store
		d.closers = append(d.closers, func() { _ = store.Close() })
	default:
		d.records = memory.NewRecordStore()
	}
	logger.Info("storage ready",
		zap.String("backend", cfg.Storage.Backend),
		zap.Bool("redisCache", d.redis != nil),
		zap.Bool("postgresBank", d.pool != nil),
	)

	if withPublisher && cfg.AMQP.URL != "" {
		pub, err := amqp.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange, logger.Named("amqp"))
		if err != nil {
			// events are optional; the quiz runs without them
			logger.Warn("event publisher disabled", zap.Error(err))
		} else {
			d.publisher = pub
			d.closers = append(d.closers, pub.Close)
		}
	}

	ok = true
	return d, nil
}

// topicLoader picks the bank source: Postgres, then a bank file, then the built-in bank.
func topicLoader(cfg config.Config, pool *pgxpool.Pool) (memory.TopicLoader, error) {
	if pool != nil {
		return postgres.NewTopicLoader(pool), nil
	}
	if cfg.Quiz.BankPath != "" {
		topics, err := bank.LoadFile(cfg.Quiz.BankPath)
		if err != nil {
			return nil, err
		}
		return memory.NewStaticTopicLoader(topics), nil
	}
	return memory.NewStaticTopicLoader(bank.Default()), nil
}

func quizSettings(cfg config.Config) app.Settings {
	d := app.DefaultSettings()
	return app.Settings{
		QuestionTime: config.TTLDuration(cfg.Quiz.QuestionTime, d.QuestionTime),
		WarningAt:    config.TTLDuration(cfg.Quiz.WarningAt, d.WarningAt),
		Tick:         config.TTLDuration(cfg.Quiz.Tick, d.Tick),
		AdvanceDelay: config.TTLDuration(cfg.Quiz.AdvanceDelay, d.AdvanceDelay),
		Capacity:     cfg.Leaderboard.Capacity,
		PreviewSize:  cfg.Leaderboard.PreviewSize,
	}
}

// loadConfig reads the config and builds the matching logger.
func loadConfig(path string) (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, nil, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, logger, nil
}
