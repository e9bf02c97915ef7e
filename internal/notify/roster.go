package notify

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrymomot/campusnotify/pkg/geo"
)

// Candidate is a user with a last known position.
type Candidate struct {
	UserID    string         `json:"userId"`
	Role      string         `json:"role"`
	Location  geo.Coordinate `json:"location"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// Roster lists users that may be targeted by proximity notifications.
type Roster interface {
	Candidates(ctx context.Context) ([]Candidate, error)
}

// MemoryRoster keeps the latest reported position per user. Positions older
// than the configured staleness are not returned.
type MemoryRoster struct {
	mu     sync.RWMutex
	byUser map[string]Candidate
	maxAge time.Duration
	now    func() time.Time
}

// NewMemoryRoster creates a roster. maxAge <= 0 keeps positions forever.
func NewMemoryRoster(maxAge time.Duration) *MemoryRoster {
	return &MemoryRoster{
		byUser: make(map[string]Candidate),
		maxAge: maxAge,
		now:    time.Now,
	}
}

// Report records the user's position, replacing any previous one.
func (r *MemoryRoster) Report(userID, role string, loc geo.Coordinate) error {
	if userID == "" {
		return ErrRecipientRequired
	}
	if err := loc.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.byUser[userID] = Candidate{
		UserID:    userID,
		Role:      role,
		Location:  loc,
		UpdatedAt: r.now().UTC(),
	}
	return nil
}

// Forget drops the user's position.
func (r *MemoryRoster) Forget(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byUser, userID)
}

func (r *MemoryRoster) Candidates(ctx context.Context) ([]Candidate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	now := r.now()
	out := make([]Candidate, 0, len(r.byUser))
	for _, c := range r.byUser {
		if r.maxAge > 0 && now.Sub(c.UpdatedAt) > r.maxAge {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}
