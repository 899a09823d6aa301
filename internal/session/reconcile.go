package session

import (
	"context"
	"log"

	"github.com/iamasit07/code-clash/client/internal/domain"
	"github.com/iamasit07/code-clash/client/internal/matchdata"
)

// reconcile pulls the persisted snapshot and merges it with live state.
// Called once on connect and again on every language switch. Safe to call
// any number of times; the precedence rule is explicit: live beats
// snapshot for any field once live data has arrived.
func (c *Controller) reconcile(ctx context.Context, withMatchData bool) error {
	c.mu.Lock()
	matchID := c.matchID
	c.mu.Unlock()

	var data *matchdata.MatchData
	if withMatchData {
		d, err := c.data.GetMatchDataRetry(ctx, matchID, c.identity.UserID)
		if err != nil {
			return err
		}
		data = &d
	}

	snap, err := c.data.GetMatchSnapshot(ctx, matchID)
	if err != nil {
		// The snapshot endpoint is polling-safe; a miss here is not
		// terminal when the match record itself loaded.
		log.Printf("[SESSION] snapshot load for match %s: %v", matchID, err)
		snap = matchdata.Snapshot{}
	}

	c.applySnapshot(data, snap)
	return nil
}

// applySnapshot merges a point-in-time read into live state without
// overwriting more-recent live data.
func (c *Controller) applySnapshot(data *matchdata.MatchData, snap matchdata.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// The fetch may have raced teardown; discard the result.
	if c.closed {
		return
	}

	if data != nil {
		c.state.problem = data.Problem
		c.state.opponent = data.Opponent
		c.state.userStats = data.UserStats
		if data.Problem.TotalTests > c.state.totalTests {
			c.state.totalTests = data.Problem.TotalTests
		}
	}

	// Code text: snapshot only fills languages the local user has not
	// actively edited since connecting. Opponent code is live-channel
	// territory too, but a snapshot may predate our connect, so it only
	// fills gaps.
	for userID, byLang := range snap.PlayersCode {
		for language, source := range byLang {
			if userID == c.identity.UserID && c.state.editedLanguages[language] {
				continue
			}
			if _, exists := c.state.code(userID, language); exists && userID != c.identity.UserID {
				continue
			}
			c.state.setCode(userID, language, source)
		}
	}

	// Submissions: union by timestamp, never wholesale replacement.
	for userID, recs := range snap.Submissions {
		c.state.submissions[userID] = domain.MergeSubmissions(c.state.submissions[userID], recs)
	}

	// Best attempt is recomputed over the full merged history: the most
	// recent submission is not guaranteed to be the best one.
	for userID, recs := range c.state.submissions {
		best := domain.BestSubmission(recs)
		c.state.bestByUser[userID] = best
		if best > c.state.testsPassedByUser[userID] {
			c.state.testsPassedByUser[userID] = best
		}
	}
}
