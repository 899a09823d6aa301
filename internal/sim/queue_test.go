package sim

import (
	"context"
	"testing"

	"github.com/iamasit07/code-clash/client/internal/domain"
)

func newTestQueue() (*Queue, ReservationStore) {
	store := NewMemoryReservationStore()
	registry := NewRegistry()
	return NewQueue(store, registry, NewConnectionManager(), NopArchive{}, nil), store
}

func TestQueuePairsTwoPlayers(t *testing.T) {
	q, store := newTestQueue()
	ctx := context.Background()

	first, err := q.Join(ctx, domain.Identity{UserID: 1, Username: "alpha"})
	if err != nil {
		t.Fatalf("first join: %v", err)
	}
	if first.Status != "waiting" {
		t.Fatalf("first status = %q, want waiting", first.Status)
	}

	second, err := q.Join(ctx, domain.Identity{UserID: 2, Username: "beta"})
	if err != nil {
		t.Fatalf("second join: %v", err)
	}
	if second.Status != "matched" {
		t.Fatalf("second status = %q, want matched", second.Status)
	}

	// Both authenticated players redeem reservations, not inline data.
	if second.RoomID != "" {
		t.Error("authenticated player got inline join data")
	}
	for _, userID := range []int64{1, 2} {
		res, err := store.Consume(ctx, userID)
		if err != nil || res == nil {
			t.Fatalf("reservation for %d = %+v, %v", userID, res, err)
		}
		if res.RoomID == "" || res.MatchID == "" {
			t.Errorf("reservation for %d incomplete: %+v", userID, res)
		}
	}

	if status := q.Status(1); status.Status != "matched" {
		t.Errorf("first player status = %q, want matched", status.Status)
	}
}

func TestQueueGuestsGetInlineJoinData(t *testing.T) {
	q, store := newTestQueue()
	ctx := context.Background()

	q.Join(ctx, domain.Identity{UserID: -1, Username: "guest-0001", IsGuest: true})
	result, err := q.Join(ctx, domain.Identity{UserID: -2, Username: "guest-0002", IsGuest: true})
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if result.Status != "matched" || result.RoomID == "" || result.MatchID == "" {
		t.Fatalf("guest result = %+v, want inline join data", result)
	}

	// No reservation is ever stored for a guest.
	if res, _ := store.Consume(ctx, -1); res != nil {
		t.Error("guest had a stored reservation")
	}
}

func TestQueueDuplicateJoinKeepsWaiting(t *testing.T) {
	q, _ := newTestQueue()
	ctx := context.Background()

	q.Join(ctx, domain.Identity{UserID: 1, Username: "alpha"})
	result, err := q.Join(ctx, domain.Identity{UserID: 1, Username: "alpha"})
	if err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	if result.Status != "waiting" {
		t.Errorf("rejoin status = %q, a player cannot match themselves", result.Status)
	}
}

func TestQueueLeaveWhileWaiting(t *testing.T) {
	q, _ := newTestQueue()
	ctx := context.Background()

	q.Join(ctx, domain.Identity{UserID: 1, Username: "alpha"})
	q.Leave(1)

	if status := q.Status(1); status.Status != "idle" {
		t.Errorf("status after leave = %q, want idle", status.Status)
	}

	// The next player starts a fresh wait instead of pairing with the
	// withdrawn one.
	result, _ := q.Join(ctx, domain.Identity{UserID: 2, Username: "beta"})
	if result.Status != "waiting" {
		t.Errorf("status = %q, want waiting", result.Status)
	}
}
