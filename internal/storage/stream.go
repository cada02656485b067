package storage

import (
	"context"
	"log/slog"
	"paycheck-tracker/internal/domain"
)

// Snapshot is the full ordered content of a collection at one point in time.
// A snapshot with Err set is the last one on its channel.
type Snapshot[T any] struct {
	Records []T
	Err     error
}

// ListFunc lists one collection of a user, in the collection's order.
type ListFunc[T any] func(ctx context.Context, userID string) ([]T, error)

// Subscribe emits the current content of a collection right away and again
// after each change, until ctx is done. The channel is closed when the
// subscription ends.
func Subscribe[T any](ctx context.Context, w Watcher, userID string, c domain.Collection, list ListFunc[T]) <-chan Snapshot[T] {
	out := make(chan Snapshot[T])
	// watch before the first list so a write in between is not missed
	changes, cancel := w.Watch(userID, c)

	go func() {
		defer close(out)
		defer cancel()

		for {
			records, err := list(ctx, userID)
			if err != nil && ctx.Err() != nil {
				return
			}
			if err != nil {
				slog.Error("Snapshot listing failed", "error", err, "user_id", userID, "collection", c)
			}
			select {
			case out <- Snapshot[T]{Records: records, Err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}

			select {
			case _, ok := <-changes:
				if !ok {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
