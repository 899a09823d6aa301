package session

import (
	"log"
	"time"

	"github.com/iamasit07/code-clash/client/internal/domain"
)

// handlerFunc applies one inbound message to the controller. Handlers run
// with the controller mutex held, apply state synchronously, and never
// block: strict arrival order is what guard clearing and classification
// depend on.
type handlerFunc func(*Controller, domain.ServerMessage)

// handlers is the protocol surface: every inbound message kind the room
// server can send, in one declarative registration point.
var handlers = map[string]handlerFunc{
	domain.MsgCodeUpdate:           (*Controller).handleCodeUpdate,
	domain.MsgMatchInit:            (*Controller).handleMatchInit,
	domain.MsgNewSubmission:        (*Controller).handleNewSubmission,
	domain.MsgTestSubmissionResult: (*Controller).handleTestSubmissionResult,
	domain.MsgSubmissionResult:     (*Controller).handleSubmissionResult,
	domain.MsgComplexityFailed:     (*Controller).handleComplexityFailed,
	domain.MsgTestProgressUpdate:   (*Controller).handleTestProgressUpdate,
	domain.MsgMatchWinner:          (*Controller).handleMatchWinner,
	domain.MsgMatchDraw:            (*Controller).handleMatchDraw,
	domain.MsgRateLimit:            (*Controller).handleRateLimit,
	domain.MsgKicked:               (*Controller).handleKicked,
}

// Dispatch routes one inbound message to its handler. Messages arriving
// after teardown are discarded.
func (c *Controller) Dispatch(msg domain.ServerMessage) {
	handler, ok := handlers[msg.Type]
	if !ok {
		log.Printf("[SESSION] unknown message type %q, ignoring", msg.Type)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	handler(c, msg)
}

// handleCodeUpdate tracks the opponent's line count. The local user's own
// echoes are ignored: local edits are authoritative for self.
func (c *Controller) handleCodeUpdate(msg domain.ServerMessage) {
	if msg.SenderID == c.identity.UserID {
		return
	}
	c.state.linesByUser[msg.SenderID] = msg.Lines
	if msg.Language != "" && msg.Code != "" {
		c.state.setCode(msg.SenderID, msg.Language, msg.Code)
	}
}

// handleMatchInit records the authoritative match start time and triggers
// the opening matchup transition, exactly once. A repeat match_init is
// ignored for timing, but its line-count map still applies.
func (c *Controller) handleMatchInit(msg domain.ServerMessage) {
	for userID, lines := range msg.LinesWritten {
		c.state.linesByUser[userID] = lines
	}
	if msg.TotalTests > 0 {
		c.state.totalTests = msg.TotalTests
	}

	if c.state.matchInitSeen {
		return
	}
	c.state.matchInitSeen = true
	if msg.StartedAt > 0 {
		c.state.matchStartTime = time.UnixMilli(msg.StartedAt)
	}
	c.frontend.ShowMatchup(c.state.opponent)
}

// handleNewSubmission appends a submission to the sender's history and
// updates their tests-passed count from the classification.
func (c *Controller) handleNewSubmission(msg domain.ServerMessage) {
	if msg.Submission == nil {
		log.Printf("[SESSION] new_submission without a record, ignoring")
		return
	}

	rec := *msg.Submission
	c.state.submissions[msg.SenderID] = append(c.state.submissions[msg.SenderID], rec)

	classified := domain.Classify(&rec)
	c.state.testsPassedByUser[msg.SenderID] = classified.PassedCount
	if classified.TotalCount > c.state.totalTests {
		c.state.totalTests = classified.TotalCount
	}
	if classified.PassedCount > c.state.bestByUser[msg.SenderID] {
		c.state.bestByUser[msg.SenderID] = classified.PassedCount
	}

	if msg.SenderID == c.identity.UserID {
		c.frontend.FocusSubmissions()
	}
}

// handleTestSubmissionResult clears the running guard and stores the
// ephemeral per-test output. Run results are never persisted as a
// SubmissionRecord.
func (c *Controller) handleTestSubmissionResult(msg domain.ServerMessage) {
	userID := msg.SenderID
	if userID == 0 {
		userID = c.identity.UserID
	}
	if userID == c.identity.UserID {
		c.guard.clearRunning()
	}
	c.state.runResults[userID] = msg.TestResults
	c.frontend.ShowTestResults(userID, msg.TestResults)
}

// handleSubmissionResult clears the submitting guard and, when the
// submission failed, surfaces the classified failure for inspection.
// Acceptance alone does not open a result popup.
func (c *Controller) handleSubmissionResult(msg domain.ServerMessage) {
	c.guard.clearSubmitting()

	rec := msg.Submission
	if rec == nil {
		rec = &domain.SubmissionRecord{
			TestResults: msg.TestResults,
			Passed:      msg.TestsPassed == msg.TotalTests && msg.TotalTests > 0,
		}
	}

	classified := domain.Classify(rec)
	if classified.Kind != domain.KindAccepted {
		c.frontend.ShowFailure(classified)
	}
}

// handleComplexityFailed is only meaningful for self: every functional
// test passed but the solution's complexity did not meet the bar.
func (c *Controller) handleComplexityFailed(msg domain.ServerMessage) {
	c.guard.clearSubmitting()

	total := msg.TotalTests
	if total == 0 {
		total = c.state.totalTests
	}
	c.frontend.ShowFailure(domain.ClassifiedResult{
		Kind:        domain.KindComplexityFailed,
		PassedCount: total,
		TotalCount:  total,
	})
}

// handleTestProgressUpdate is the opponent's partial in-progress signal:
// a live tests-passed count without a full submission record.
func (c *Controller) handleTestProgressUpdate(msg domain.ServerMessage) {
	if msg.SenderID == c.identity.UserID {
		return
	}
	c.state.testsPassedByUser[msg.SenderID] = msg.TestsPassed
	if msg.TotalTests > c.state.totalTests {
		c.state.totalTests = msg.TotalTests
	}
}

func (c *Controller) handleMatchWinner(msg domain.ServerMessage) {
	winnerID := msg.WinnerID
	c.resolve(domain.MatchResult{WinnerID: &winnerID, RatingChanges: msg.RatingChanges})
}

func (c *Controller) handleMatchDraw(msg domain.ServerMessage) {
	c.resolve(domain.MatchResult{RatingChanges: msg.RatingChanges})
}

// handleRateLimit surfaces the server's throttling notice. Advisory only:
// it never touches the run/submit guard.
func (c *Controller) handleRateLimit(msg domain.ServerMessage) {
	c.frontend.ShowRateLimit(msg.Message)
}

// handleKicked means another connection for the same identity superseded
// this one: terminal, with forced disconnect.
func (c *Controller) handleKicked(msg domain.ServerMessage) {
	log.Printf("[SESSION] kicked from room: %s", msg.Message)
	c.guard.freeze()
	c.closed = true
	go c.leaveRoom()
	c.frontend.ReturnToMatchmaking("superseded by another connection")
}

// resolve applies a terminal match event. First one wins; a second
// resolution for an already-resolved match is a no-op.
func (c *Controller) resolve(result domain.MatchResult) {
	if c.state.result != nil {
		return
	}
	c.state.result = &result
	c.guard.freeze()

	if c.identity.IsGuest {
		// Let the in-place result be visually acknowledged before the
		// conversion prompt appears.
		delay := c.opts.GuestPromptDelay
		time.AfterFunc(delay, func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if c.closed {
				return
			}
			c.frontend.ShowSignupPrompt(result)
		})
		return
	}
	c.frontend.ShowResult(result)
}
