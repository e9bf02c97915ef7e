package pushsub

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryDirectory is an in-process Directory.
type MemoryDirectory struct {
	mu   sync.RWMutex
	subs map[string]Subscription
	now  func() time.Time
}

// NewMemoryDirectory creates an empty directory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		subs: make(map[string]Subscription),
		now:  time.Now,
	}
}

func (d *MemoryDirectory) Upsert(ctx context.Context, sub Subscription) (Subscription, error) {
	if err := sub.Validate(); err != nil {
		return Subscription{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now().UTC()
	if existing, ok := d.subs[sub.Endpoint]; ok {
		existing.UserID = sub.UserID
		existing.Keys = sub.Keys
		existing.UpdatedAt = now
		d.subs[sub.Endpoint] = existing
		return existing, nil
	}

	sub.ID = uuid.NewString()
	sub.CreatedAt = now
	sub.UpdatedAt = now
	d.subs[sub.Endpoint] = sub
	return sub, nil
}

func (d *MemoryDirectory) Get(ctx context.Context, endpoint string) (Subscription, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	sub, ok := d.subs[endpoint]
	if !ok {
		return Subscription{}, ErrNotFound
	}
	return sub, nil
}

func (d *MemoryDirectory) ListByUser(ctx context.Context, userID string) ([]Subscription, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []Subscription
	for _, sub := range d.subs {
		if sub.UserID == userID {
			out = append(out, sub)
		}
	}
	slices.SortFunc(out, func(a, b Subscription) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return compareStrings(a.Endpoint, b.Endpoint)
	})
	return out, nil
}

func (d *MemoryDirectory) DeleteByEndpoint(ctx context.Context, userID, endpoint string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	sub, ok := d.subs[endpoint]
	if !ok || sub.UserID != userID {
		return ErrNotFound
	}
	delete(d.subs, endpoint)
	return nil
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
