package matchdata

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/iamasit07/code-clash/client/internal/domain"
)

// MatchData is the point-in-time read of a match from persistence.
type MatchData struct {
	Problem   domain.Problem   `json:"problem"`
	Opponent  domain.Opponent  `json:"opponent"`
	UserStats domain.UserStats `json:"userStats"`
}

// Snapshot is the polling-safe read of saved code and submission history.
type Snapshot struct {
	PlayersCode map[int64]map[string]string         `json:"playersCode"` // userID → language → source
	Submissions map[int64][]domain.SubmissionRecord `json:"submissions"`
}

// RetryPolicy bounds the match-not-found retry loop. The backing match
// record may not exist yet when the room was just created; that race is
// transient and worth a few bounded retries before giving up.
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
}

type Client struct {
	baseURL string
	http    *http.Client
	retry   RetryPolicy
}

func NewClient(baseURL string, retry RetryPolicy) *Client {
	if retry.Attempts <= 0 {
		retry.Attempts = 5
	}
	if retry.Delay <= 0 {
		retry.Delay = time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		retry:   retry,
	}
}

type matchDataResponse struct {
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	Problem   *domain.Problem   `json:"problem,omitempty"`
	Opponent  *domain.Opponent  `json:"opponent,omitempty"`
	UserStats *domain.UserStats `json:"userStats,omitempty"`
}

// GetMatchData fetches the match record once. Returns ErrMatchNotFound when
// the record does not exist yet.
func (c *Client) GetMatchData(ctx context.Context, matchID string, userID int64) (MatchData, error) {
	url := fmt.Sprintf("%s/api/match/%s?userId=%d", c.baseURL, matchID, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return MatchData{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return MatchData{}, fmt.Errorf("get match data: %w", err)
	}
	defer resp.Body.Close()

	var parsed matchDataResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return MatchData{}, fmt.Errorf("get match data: bad response: %w", err)
	}

	if !parsed.Success {
		if parsed.Error == "match_not_found" {
			return MatchData{}, domain.ErrMatchNotFound
		}
		return MatchData{}, fmt.Errorf("get match data: %s", parsed.Error)
	}
	if parsed.Problem == nil || parsed.Opponent == nil {
		return MatchData{}, fmt.Errorf("get match data: incomplete response")
	}

	data := MatchData{Problem: *parsed.Problem, Opponent: *parsed.Opponent}
	if parsed.UserStats != nil {
		data.UserStats = *parsed.UserStats
	}
	return data, nil
}

// GetMatchDataRetry wraps GetMatchData with the bounded retry loop for the
// room-creation/persistence race. Only match_not_found is retried; any
// other failure is returned immediately.
func (c *Client) GetMatchDataRetry(ctx context.Context, matchID string, userID int64) (MatchData, error) {
	var lastErr error
	for attempt := 1; attempt <= c.retry.Attempts; attempt++ {
		data, err := c.GetMatchData(ctx, matchID, userID)
		if err == nil {
			return data, nil
		}
		if err != domain.ErrMatchNotFound {
			return MatchData{}, err
		}
		lastErr = err

		if attempt < c.retry.Attempts {
			log.Printf("[MATCHDATA] match %s not found yet (attempt %d/%d), retrying", matchID, attempt, c.retry.Attempts)
			select {
			case <-ctx.Done():
				return MatchData{}, ctx.Err()
			case <-time.After(c.retry.Delay):
			}
		}
	}
	return MatchData{}, lastErr
}

// GetMatchSnapshot fetches saved code and submission history. Safe to call
// repeatedly; stale reads are tolerated and reconciled by the caller.
func (c *Client) GetMatchSnapshot(ctx context.Context, matchID string) (Snapshot, error) {
	url := fmt.Sprintf("%s/api/match/%s/snapshot", c.baseURL, matchID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Snapshot{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Snapshot{}, fmt.Errorf("get match snapshot: %w", err)
	}
	defer resp.Body.Close()

	var snap Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return Snapshot{}, fmt.Errorf("get match snapshot: bad response: %w", err)
	}
	return snap, nil
}
