package session

import (
	"context"
	"errors"
	"testing"

	"github.com/iamasit07/code-clash/client/internal/domain"
	"github.com/iamasit07/code-clash/client/internal/matchdata"
)

type fakeData struct {
	data    matchdata.MatchData
	dataErr error
	snap    matchdata.Snapshot
	snapErr error
}

func (f *fakeData) GetMatchDataRetry(ctx context.Context, matchID string, userID int64) (matchdata.MatchData, error) {
	return f.data, f.dataErr
}

func (f *fakeData) GetMatchSnapshot(ctx context.Context, matchID string) (matchdata.Snapshot, error) {
	return f.snap, f.snapErr
}

func TestReconcileLoadsMatchDataAndSnapshot(t *testing.T) {
	c, _ := newTestController(selfIdentity(), &recordingFrontend{}, Options{})
	c.data = &fakeData{
		data: matchdata.MatchData{
			Problem:   domain.Problem{ID: "two-sum", TotalTests: 3},
			Opponent:  domain.Opponent{UserID: opponentID, Username: "rival"},
			UserStats: domain.UserStats{Rating: 1000},
		},
		snap: matchdata.Snapshot{
			PlayersCode: map[int64]map[string]string{
				opponentID: {"python": "print(2)\n"},
			},
			Submissions: map[int64][]domain.SubmissionRecord{
				opponentID: {*fullPassRecord(100, 2, 3)},
			},
		},
	}

	if err := c.reconcile(context.Background(), true); err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	v := c.View()
	if v.Problem.ID != "two-sum" || v.Opponent.Username != "rival" {
		t.Errorf("match data not applied: %+v", v)
	}
	if v.TotalTests != 3 {
		t.Errorf("totalTests = %d, want 3", v.TotalTests)
	}
	if len(v.Submissions[opponentID]) != 1 {
		t.Errorf("snapshot submissions not merged")
	}
	if v.BestByUser[opponentID] != 2 || v.TestsPassedByUser[opponentID] != 2 {
		t.Errorf("best not recomputed: best=%d passed=%d", v.BestByUser[opponentID], v.TestsPassedByUser[opponentID])
	}
}

func TestReconcileSnapshotFailureNotTerminal(t *testing.T) {
	c, _ := newTestController(selfIdentity(), &recordingFrontend{}, Options{})
	c.data = &fakeData{
		data:    matchdata.MatchData{Problem: domain.Problem{ID: "two-sum"}},
		snapErr: errors.New("snapshot endpoint down"),
	}

	if err := c.reconcile(context.Background(), true); err != nil {
		t.Fatalf("reconcile must tolerate a snapshot miss, got %v", err)
	}
	if c.View().Problem.ID != "two-sum" {
		t.Error("match data lost when snapshot failed")
	}
}

func TestReconcileMatchDataFailureIsTerminal(t *testing.T) {
	c, _ := newTestController(selfIdentity(), &recordingFrontend{}, Options{})
	c.data = &fakeData{dataErr: domain.ErrMatchNotFound}

	if err := c.reconcile(context.Background(), true); err != domain.ErrMatchNotFound {
		t.Errorf("err = %v, want ErrMatchNotFound", err)
	}
}

func TestSnapshotNeverClobbersEditedLanguage(t *testing.T) {
	c, _ := newTestController(selfIdentity(), &recordingFrontend{}, Options{})

	if err := c.UpdateCode("python", "my live edit\n"); err != nil {
		t.Fatalf("UpdateCode: %v", err)
	}

	c.applySnapshot(nil, matchdata.Snapshot{
		PlayersCode: map[int64]map[string]string{
			selfID: {
				"python":     "stale saved code\n",
				"javascript": "saved js\n",
			},
		},
	})

	c.mu.Lock()
	python, _ := c.state.code(selfID, "python")
	js, _ := c.state.code(selfID, "javascript")
	c.mu.Unlock()

	if python != "my live edit\n" {
		t.Errorf("edited language clobbered: %q", python)
	}
	if js != "saved js\n" {
		t.Errorf("untouched language not filled: %q", js)
	}
}

func TestSnapshotOnlyFillsOpponentGaps(t *testing.T) {
	c, _ := newTestController(selfIdentity(), &recordingFrontend{}, Options{})

	// Live channel already delivered opponent code.
	c.Dispatch(domain.ServerMessage{
		Type: domain.MsgCodeUpdate, SenderID: opponentID,
		Language: "python", Code: "live opponent code\n", Lines: 1,
	})

	c.applySnapshot(nil, matchdata.Snapshot{
		PlayersCode: map[int64]map[string]string{
			opponentID: {
				"python": "older snapshot code\n",
				"go":     "snapshot go code\n",
			},
		},
	})

	c.mu.Lock()
	python, _ := c.state.code(opponentID, "python")
	goCode, _ := c.state.code(opponentID, "go")
	c.mu.Unlock()

	if python != "live opponent code\n" {
		t.Errorf("live opponent code clobbered: %q", python)
	}
	if goCode != "snapshot go code\n" {
		t.Errorf("gap not filled: %q", goCode)
	}
}

func TestSnapshotMergesSubmissionsByTimestamp(t *testing.T) {
	c, _ := newTestController(selfIdentity(), &recordingFrontend{}, Options{})

	c.Dispatch(domain.ServerMessage{
		Type: domain.MsgNewSubmission, SenderID: selfID, Submission: fullPassRecord(200, 3, 3),
	})

	c.applySnapshot(nil, matchdata.Snapshot{
		Submissions: map[int64][]domain.SubmissionRecord{
			selfID: {*fullPassRecord(100, 1, 3), *fullPassRecord(200, 3, 3)},
		},
	})

	v := c.View()
	if len(v.Submissions[selfID]) != 2 {
		t.Fatalf("submissions = %d, want union of 2", len(v.Submissions[selfID]))
	}
	if v.Submissions[selfID][0].Timestamp != 100 {
		t.Error("merged history not ascending by timestamp")
	}
	if v.BestByUser[selfID] != 3 {
		t.Errorf("best = %d, want 3", v.BestByUser[selfID])
	}
}

func TestSnapshotDiscardedAfterTeardown(t *testing.T) {
	c, _ := newTestController(selfIdentity(), &recordingFrontend{}, Options{})
	c.Stop()

	c.applySnapshot(&matchdata.MatchData{
		Problem: domain.Problem{ID: "two-sum"},
	}, matchdata.Snapshot{})

	if c.View().Problem.ID != "" {
		t.Error("snapshot applied after teardown")
	}
}
