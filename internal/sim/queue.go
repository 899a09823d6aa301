package sim

import (
	"context"
	"log"
	"sync"

	"github.com/iamasit07/code-clash/client/internal/domain"
	"github.com/iamasit07/code-clash/client/pkg/uid"
)

// JoinResult is what a queued player sees when polling. Authenticated
// players redeem the reservation endpoint once matched; guests get their
// join coordinates inline because no reservation is stored for them.
type JoinResult struct {
	Status  string `json:"status"` // "waiting" or "matched"
	UserID  int64  `json:"userId,omitempty"`
	RoomID  string `json:"roomId,omitempty"`
	MatchID string `json:"matchId,omitempty"`
}

// Queue pairs players two at a time. One waiting slot is enough for a dev
// tool; the first player to arrive waits for the second.
type Queue struct {
	mu       sync.Mutex
	waiting  *Player
	results  map[int64]JoinResult
	nextProb int

	store    ReservationStore
	registry *Registry
	conns    *ConnectionManager
	archive  MatchArchive
	problems []SimProblem
}

func NewQueue(store ReservationStore, registry *Registry, conns *ConnectionManager, archive MatchArchive, problems []SimProblem) *Queue {
	if len(problems) == 0 {
		problems = DefaultProblems
	}
	return &Queue{
		results:  make(map[int64]JoinResult),
		store:    store,
		registry: registry,
		conns:    conns,
		archive:  archive,
		problems: problems,
	}
}

// Join enqueues the player, pairing immediately when someone is waiting.
func (q *Queue) Join(ctx context.Context, identity domain.Identity) (JoinResult, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.waiting != nil && q.waiting.Identity.UserID == identity.UserID {
		return JoinResult{Status: "waiting"}, nil
	}

	player := Player{Identity: identity, Rating: q.registry.Rating(identity.UserID)}

	if q.waiting == nil {
		q.waiting = &player
		q.results[identity.UserID] = JoinResult{Status: "waiting"}
		log.Printf("[SIM] %s waiting in queue", identity.Username)
		return JoinResult{Status: "waiting"}, nil
	}

	opponent := *q.waiting
	q.waiting = nil

	matchID := uid.GenerateMatchID()
	roomID := uid.GenerateRoomID()
	problem := q.problems[q.nextProb%len(q.problems)]
	q.nextProb++

	ms := NewMatchSession(matchID, roomID, opponent, player, problem, q.conns, q.archive, q.registry)
	q.registry.Add(ms)
	log.Printf("[SIM] paired %s vs %s (match %s, room %s)",
		opponent.Identity.Username, player.Identity.Username, matchID, roomID)

	for _, p := range []Player{opponent, player} {
		result := JoinResult{Status: "matched", UserID: p.Identity.UserID}
		if p.Identity.IsGuest {
			result.RoomID = roomID
			result.MatchID = matchID
		} else {
			err := q.store.Put(ctx, p.Identity.UserID, domain.Reservation{RoomID: roomID, MatchID: matchID})
			if err != nil {
				log.Printf("[SIM] storing reservation for %d: %v", p.Identity.UserID, err)
				// fall back to inline coordinates rather than stranding the player
				result.RoomID = roomID
				result.MatchID = matchID
			}
		}
		q.results[p.Identity.UserID] = result
	}

	return q.results[identity.UserID], nil
}

// Status reports the caller's current queue state.
func (q *Queue) Status(userID int64) JoinResult {
	q.mu.Lock()
	defer q.mu.Unlock()
	if result, ok := q.results[userID]; ok {
		return result
	}
	return JoinResult{Status: "idle"}
}

// Leave withdraws a still-waiting player. A player already matched cannot
// back out through the queue.
func (q *Queue) Leave(userID int64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.waiting != nil && q.waiting.Identity.UserID == userID {
		q.waiting = nil
		delete(q.results, userID)
	}
}
