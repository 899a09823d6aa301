package matchdata

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/iamasit07/code-clash/client/internal/domain"
)

func matchDataBody() map[string]any {
	return map[string]any{
		"success":   true,
		"problem":   domain.Problem{ID: "two-sum", Title: "Two Sum", TotalTests: 3},
		"opponent":  domain.Opponent{UserID: 7, Username: "rival", Rating: 1100},
		"userStats": domain.UserStats{Rating: 1000},
	}
}

func TestGetMatchData(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/match/match-1" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.URL.Query().Get("userId") != "42" {
			t.Errorf("userId = %q", r.URL.Query().Get("userId"))
		}
		json.NewEncoder(w).Encode(matchDataBody())
	}))
	defer ts.Close()

	client := NewClient(ts.URL, RetryPolicy{})
	data, err := client.GetMatchData(context.Background(), "match-1", 42)
	if err != nil {
		t.Fatalf("GetMatchData: %v", err)
	}
	if data.Problem.ID != "two-sum" || data.Opponent.UserID != 7 || data.UserStats.Rating != 1000 {
		t.Errorf("data = %+v", data)
	}
}

func TestGetMatchDataNotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "match_not_found"})
	}))
	defer ts.Close()

	client := NewClient(ts.URL, RetryPolicy{})
	_, err := client.GetMatchData(context.Background(), "missing", 42)
	if err != domain.ErrMatchNotFound {
		t.Errorf("err = %v, want ErrMatchNotFound", err)
	}
}

func TestGetMatchDataRetryEventualSuccess(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "match_not_found"})
			return
		}
		json.NewEncoder(w).Encode(matchDataBody())
	}))
	defer ts.Close()

	client := NewClient(ts.URL, RetryPolicy{Attempts: 5, Delay: time.Millisecond})
	data, err := client.GetMatchDataRetry(context.Background(), "match-1", 42)
	if err != nil {
		t.Fatalf("GetMatchDataRetry: %v", err)
	}
	if data.Problem.ID != "two-sum" {
		t.Errorf("data = %+v", data)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestGetMatchDataRetryBounded(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "match_not_found"})
	}))
	defer ts.Close()

	client := NewClient(ts.URL, RetryPolicy{Attempts: 4, Delay: time.Millisecond})
	_, err := client.GetMatchDataRetry(context.Background(), "missing", 42)
	if err != domain.ErrMatchNotFound {
		t.Errorf("err = %v, want ErrMatchNotFound", err)
	}
	if calls.Load() != 4 {
		t.Errorf("calls = %d, want exactly 4", calls.Load())
	}
}

func TestGetMatchDataRetryOtherErrorsNotRetried(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "internal"})
	}))
	defer ts.Close()

	client := NewClient(ts.URL, RetryPolicy{Attempts: 5, Delay: time.Millisecond})
	_, err := client.GetMatchDataRetry(context.Background(), "match-1", 42)
	if err == nil || err == domain.ErrMatchNotFound {
		t.Errorf("err = %v, want a non-retryable failure", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestGetMatchSnapshot(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/match/match-1/snapshot" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(Snapshot{
			PlayersCode: map[int64]map[string]string{42: {"python": "print(1)\n"}},
			Submissions: map[int64][]domain.SubmissionRecord{42: {{Timestamp: 100}}},
		})
	}))
	defer ts.Close()

	client := NewClient(ts.URL, RetryPolicy{})
	snap, err := client.GetMatchSnapshot(context.Background(), "match-1")
	if err != nil {
		t.Fatalf("GetMatchSnapshot: %v", err)
	}
	if snap.PlayersCode[42]["python"] != "print(1)\n" {
		t.Errorf("playersCode = %+v", snap.PlayersCode)
	}
	if len(snap.Submissions[42]) != 1 {
		t.Errorf("submissions = %+v", snap.Submissions)
	}
}
