// internal/storage/postgres/listener.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"paycheck-tracker/internal/domain"
	"paycheck-tracker/internal/realtime"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ChangesChannel is the LISTEN channel the table triggers notify on.
const ChangesChannel = "record_changes"

// Listener turns postgres change notifications into hub signals, so a
// subscriber sees writes made by any process sharing the database.
type Listener struct {
	dsn string
	hub *realtime.Hub

	minBackoff time.Duration
	maxBackoff time.Duration
}

func NewListener(dsn string, hub *realtime.Hub) *Listener {
	return &Listener{dsn: dsn, hub: hub, minBackoff: 500 * time.Millisecond, maxBackoff: 30 * time.Second}
}

// Run listens until ctx is done, reconnecting after connection failures.
func (l *Listener) Run(ctx context.Context) error {
	backoff := l.minBackoff
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			return nil
		}
		slog.Warn("Change listener disconnected", "error", err, "retry_in", backoff)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, l.maxBackoff)
	}
}

func (l *Listener) listen(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, l.dsn)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+ChangesChannel); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	slog.Info("Listening for record changes", "channel", ChangesChannel)

	// Anything written while disconnected was missed, so wake every subscriber.
	l.hub.NotifyAll()

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		l.dispatch(n)
	}
}

func (l *Listener) dispatch(n *pgconn.Notification) {
	c, owner, err := parsePayload(n.Payload)
	if err != nil {
		slog.Warn("Ignoring change notification", "payload", n.Payload, "error", err)
		return
	}
	l.hub.Notify(owner, c)
}

func parsePayload(payload string) (domain.Collection, string, error) {
	table, owner, ok := strings.Cut(payload, ":")
	if !ok || owner == "" {
		return "", "", errors.New("payload must be <table>:<user_id>")
	}
	c := domain.Collection(table)
	if !c.Valid() {
		return "", "", fmt.Errorf("unknown table %q", table)
	}
	return c, owner, nil
}
