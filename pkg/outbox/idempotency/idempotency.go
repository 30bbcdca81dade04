package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/stn-picking/pkg/env"
	"github.com/angelmondragon/stn-picking/pkg/redis"
)

// ErrAlreadyProcessed is returned by Guard when the event was handled before.
var ErrAlreadyProcessed = errors.New("event already processed")

const processedScope = "evt:processed:"

// Manager remembers which events a consumer has handled. A mark is a Redis
// key holding the instance that claimed it and when; it expires after ttl,
// which bounds how late a Pub/Sub redelivery can still be recognised.
type Manager struct {
	store    redis.IdempotencyStore
	ttl      time.Duration
	instance string
	now      func() time.Time
}

func NewManager(store redis.IdempotencyStore, ttl time.Duration) (*Manager, error) {
	switch {
	case store == nil:
		return nil, errors.New("idempotency store is required")
	case ttl < 0:
		return nil, errors.New("ttl must be non-negative")
	}
	return &Manager{
		store:    store,
		ttl:      ttl,
		instance: env.Instance(),
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// CheckAndMarkProcessed claims eventID for consumer. It reports true when
// another delivery already holds the mark.
func (m *Manager) CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error) {
	key, err := m.key(consumer, eventID)
	if err != nil {
		return false, err
	}
	mark := m.instance + "@" + m.now().Format(time.RFC3339)
	claimed, err := m.store.SetNX(ctx, key, mark, m.ttl)
	if err != nil {
		return false, fmt.Errorf("mark %s processed: %w", eventID, err)
	}
	return !claimed, nil
}

// Delete drops the mark so the next delivery is handled again.
func (m *Manager) Delete(ctx context.Context, consumer string, eventID uuid.UUID) error {
	key, err := m.key(consumer, eventID)
	if err != nil {
		return err
	}
	return m.store.Del(ctx, key)
}

// Guard runs fn at most once per event. A failing fn releases the mark.
func (m *Manager) Guard(ctx context.Context, consumer string, eventID uuid.UUID, fn func(context.Context) error) error {
	seen, err := m.CheckAndMarkProcessed(ctx, consumer, eventID)
	if err != nil {
		return err
	}
	if seen {
		return ErrAlreadyProcessed
	}
	if runErr := fn(ctx); runErr != nil {
		if delErr := m.Delete(ctx, consumer, eventID); delErr != nil {
			return errors.Join(runErr, fmt.Errorf("release mark: %w", delErr))
		}
		return runErr
	}
	return nil
}

func (m *Manager) key(consumer string, eventID uuid.UUID) (string, error) {
	if consumer == "" {
		return "", errors.New("consumer name is required")
	}
	if eventID == uuid.Nil {
		return "", errors.New("event id is required")
	}
	return m.store.IdempotencyKey(processedScope+consumer, eventID.String()), nil
}
