package sim

import (
	"context"
	"testing"

	"github.com/iamasit07/code-clash/client/internal/domain"
)

func testPlayers() (Player, Player) {
	p1 := Player{Identity: domain.Identity{UserID: 1, Username: "alpha"}, Rating: 1000}
	p2 := Player{Identity: domain.Identity{UserID: 2, Username: "beta"}, Rating: 1000}
	return p1, p2
}

// newTestMatch builds a started session with no live sockets; outbound
// messages to disconnected players are dropped by the connection manager.
func newTestMatch(t *testing.T) (*MatchSession, *Registry) {
	t.Helper()
	p1, p2 := testPlayers()
	registry := NewRegistry()
	ms := NewMatchSession("match-1", "room-1", p1, p2, DefaultProblems[0],
		NewConnectionManager(), NopArchive{}, registry)
	registry.Add(ms)
	ms.HandleJoin(1)
	ms.HandleJoin(2)
	return ms, registry
}

func TestMatchStartsWhenBothJoin(t *testing.T) {
	p1, p2 := testPlayers()
	registry := NewRegistry()
	ms := NewMatchSession("match-1", "room-1", p1, p2, DefaultProblems[0],
		NewConnectionManager(), NopArchive{}, registry)

	ms.HandleJoin(1)
	if ms.started {
		t.Fatal("match started with one player")
	}
	ms.HandleJoin(2)
	if !ms.started {
		t.Fatal("match did not start with both players")
	}
	if ms.startedAt.IsZero() {
		t.Error("start time not set")
	}
}

func TestSubmitWinningSolutionResolvesMatch(t *testing.T) {
	ms, registry := newTestMatch(t)

	ms.HandleSubmit(1, "python", "[0,1] [1,2]")

	if !ms.finished {
		t.Fatal("fully passing submission did not finish the match")
	}
	if got := registry.Rating(1); got != 1016 {
		t.Errorf("winner rating = %d, want 1016", got)
	}
	if got := registry.Rating(2); got != 984 {
		t.Errorf("loser rating = %d, want 984", got)
	}

	_, subs := ms.Snapshot()
	if len(subs[1]) != 1 || !subs[1][0].Passed {
		t.Errorf("submission history = %+v", subs)
	}
}

func TestSubmitFailingSolutionKeepsMatchLive(t *testing.T) {
	ms, registry := newTestMatch(t)

	ms.HandleSubmit(1, "python", "[0,1]") // passes 2 of 3

	if ms.finished {
		t.Fatal("partial submission finished the match")
	}
	if got := registry.Rating(1); got != defaultRating {
		t.Errorf("rating moved on a live match: %d", got)
	}
	_, subs := ms.Snapshot()
	if len(subs[1]) != 1 || subs[1][0].Passed {
		t.Errorf("submission history = %+v", subs)
	}
}

func TestSubmitBruteForcePassesTestsButFailsComplexity(t *testing.T) {
	ms, _ := newTestMatch(t)

	ms.HandleSubmit(1, "python", "@@brute [0,1] [1,2]")

	if ms.finished {
		t.Fatal("complexity-failed submission must not win the match")
	}
	_, subs := ms.Snapshot()
	rec := subs[1][0]
	if !rec.Passed || !rec.ComplexityFailed {
		t.Errorf("record = %+v, want passed with complexity flag", rec)
	}
	if rec.DerivedComplexity != "O(n^2)" || rec.ExpectedComplexity != "O(n)" {
		t.Errorf("complexities = %q vs %q", rec.DerivedComplexity, rec.ExpectedComplexity)
	}
}

func TestDisconnectForfeitsToOpponent(t *testing.T) {
	ms, registry := newTestMatch(t)

	ms.HandleDisconnect(1)

	if !ms.finished {
		t.Fatal("disconnect did not finish the match")
	}
	if got := registry.Rating(2); got <= defaultRating {
		t.Errorf("remaining player rating = %d, want a gain", got)
	}
}

func TestDisconnectBeforeStartDoesNotForfeit(t *testing.T) {
	p1, p2 := testPlayers()
	registry := NewRegistry()
	ms := NewMatchSession("match-1", "room-1", p1, p2, DefaultProblems[0],
		NewConnectionManager(), NopArchive{}, registry)

	ms.HandleJoin(1)
	ms.HandleDisconnect(1)
	if ms.finished {
		t.Error("pre-start disconnect resolved the match")
	}
}

func TestClockExpiryDecidesByBestCount(t *testing.T) {
	ms, _ := newTestMatch(t)

	ms.HandleSubmit(1, "python", "[0,1]") // best 2 of 3
	ms.handleClockExpiry()

	if !ms.finished {
		t.Fatal("clock expiry did not finish the match")
	}
	// Second resolution attempt is a no-op.
	ms.HandleSubmit(2, "python", "[0,1] [1,2]")
	_, subs := ms.Snapshot()
	if len(subs[2]) != 0 {
		t.Error("submission accepted after the match finished")
	}
}

func TestClockExpiryEqualCountsDraw(t *testing.T) {
	ms, registry := newTestMatch(t)

	ms.handleClockExpiry()

	if !ms.finished {
		t.Fatal("clock expiry did not finish the match")
	}
	if registry.Rating(1) != defaultRating || registry.Rating(2) != defaultRating {
		t.Errorf("draw moved even ratings: %d vs %d", registry.Rating(1), registry.Rating(2))
	}
}

func TestCodeUpdateVisibleInSnapshot(t *testing.T) {
	ms, _ := newTestMatch(t)

	ms.HandleCodeUpdate(1, "python", "x = 1\n", 1)

	code, _ := ms.Snapshot()
	if code[1]["python"] != "x = 1\n" {
		t.Errorf("snapshot code = %+v", code)
	}
}

func TestMatchDataPerspective(t *testing.T) {
	ms, _ := newTestMatch(t)

	problem, opponent, stats := ms.MatchData(1)
	if problem.ID != "two-sum" {
		t.Errorf("problem = %q", problem.ID)
	}
	if opponent.UserID != 2 || opponent.Username != "beta" {
		t.Errorf("opponent = %+v", opponent)
	}
	if stats.Rating != 1000 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestReservationStoreConsumeOnce(t *testing.T) {
	store := NewMemoryReservationStore()
	ctx := context.Background()

	res := domain.Reservation{RoomID: "room-1", MatchID: "match-1"}
	if err := store.Put(ctx, 42, res); err != nil {
		t.Fatalf("Put: %v", err)
	}

	first, err := store.Consume(ctx, 42)
	if err != nil || first == nil || first.RoomID != "room-1" {
		t.Fatalf("first consume = %+v, %v", first, err)
	}
	second, err := store.Consume(ctx, 42)
	if err != nil {
		t.Fatalf("second consume: %v", err)
	}
	if second != nil {
		t.Error("reservation consumed twice")
	}
}

func TestReservationStoreClear(t *testing.T) {
	store := NewMemoryReservationStore()
	ctx := context.Background()

	store.Put(ctx, 42, domain.Reservation{RoomID: "room-1", MatchID: "match-1"})
	store.Clear(ctx, 42)

	res, err := store.Consume(ctx, 42)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if res != nil {
		t.Error("cleared reservation was still consumable")
	}
}
