// internal/app/app.go
package app

import (
	"context"
	"fmt"
	"log/slog"
	"paycheck-tracker/internal/auth"
	"paycheck-tracker/internal/config"
	"paycheck-tracker/internal/events"
	"paycheck-tracker/internal/events/amqp"
	"paycheck-tracker/internal/events/kafka"
	"paycheck-tracker/internal/finance"
	"paycheck-tracker/internal/realtime"
	"paycheck-tracker/internal/storage"
	"paycheck-tracker/internal/storage/memory"
	"paycheck-tracker/internal/storage/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
)

// App holds the services every front end shares.
type App struct {
	Config    config.Config
	Store     storage.Store
	Hub       *realtime.Hub
	Publisher events.Publisher
	Auth      *auth.Service
	Finance   *finance.Service

	pool     *pgxpool.Pool
	listener *postgres.Listener
}

// Open connects the store and the event publisher selected by cfg.
func Open(ctx context.Context, cfg config.Config) (*App, error) {
	a := &App{Config: cfg, Hub: realtime.NewHub()}

	switch cfg.Store {
	case config.StoreMemory:
		slog.Warn("Using the in-memory store; data is lost on exit")
		a.Store = memory.NewStore(a.Hub)
	default:
		pool, err := pgxpool.New(ctx, cfg.DBConn)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ping database: %w", err)
		}
		slog.Info("Connected to PostgreSQL")
		a.pool = pool
		a.Store = postgres.NewStorage(pool, a.Hub)
		a.listener = postgres.NewListener(cfg.DBConn, a.Hub)
	}

	pub, err := newPublisher(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Publisher = pub

	a.Auth = auth.NewService(a.Store, a.Store, auth.NewTokenService(cfg))
	a.Finance = finance.NewService(a.Store, pub)
	return a, nil
}

func newPublisher(cfg config.Config) (events.Publisher, error) {
	switch cfg.EventsBackend {
	case config.EventsKafka:
		slog.Info("Publishing change events to Kafka", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
		return kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic), nil
	case config.EventsAMQP:
		pub, err := amqp.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return nil, fmt.Errorf("connect to AMQP: %w", err)
		}
		slog.Info("Publishing change events to AMQP", "exchange", cfg.AMQPExchange)
		return pub, nil
	default:
		return events.Nop{}, nil
	}
}

// Run feeds database change notifications to subscribers until ctx is done.
// With the memory store writes signal the hub directly and Run only waits.
func (a *App) Run(ctx context.Context) error {
	if a.listener == nil {
		<-ctx.Done()
		return nil
	}
	return a.listener.Run(ctx)
}

func (a *App) Close() {
	if a.Publisher != nil {
		if err := a.Publisher.Close(); err != nil {
			slog.Warn("Failed to close event publisher", "error", err)
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
}
