package sim

import (
	"sync"

	"github.com/iamasit07/code-clash/client/internal/domain"
)

const defaultRating = 1000

// Registry indexes live match sessions and keeps the in-memory rating
// table. Finished matches stay resolvable so late snapshot polls and
// match-data fetches still succeed.
type Registry struct {
	mu      sync.RWMutex
	byMatch map[string]*MatchSession
	byRoom  map[string]*MatchSession
	ratings map[int64]int
}

func NewRegistry() *Registry {
	return &Registry{
		byMatch: make(map[string]*MatchSession),
		byRoom:  make(map[string]*MatchSession),
		ratings: make(map[int64]int),
	}
}

func (r *Registry) Add(ms *MatchSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byMatch[ms.MatchID] = ms
	r.byRoom[ms.RoomID] = ms
}

func (r *Registry) ByMatch(matchID string) (*MatchSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ms, ok := r.byMatch[matchID]
	return ms, ok
}

func (r *Registry) ByRoom(roomID string) (*MatchSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ms, ok := r.byRoom[roomID]
	return ms, ok
}

// Rating returns the user's current rating, seeding newcomers at the
// default.
func (r *Registry) Rating(userID int64) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if rating, ok := r.ratings[userID]; ok {
		return rating
	}
	return defaultRating
}

func (r *Registry) applyRatings(changes map[int64]domain.RatingChange) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for userID, change := range changes {
		r.ratings[userID] = change.New
	}
}
