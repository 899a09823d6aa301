package sim

import (
	"log"
	"sync"
	"time"

	"github.com/iamasit07/code-clash/client/internal/domain"
)

const matchDuration = 10 * time.Minute

type Player struct {
	Identity domain.Identity
	Rating   int
}

// MatchSession is the authoritative room for one head-to-head match. The
// server owns the clock and the terminal events; clients only ever react.
type MatchSession struct {
	MatchID string
	RoomID  string
	Players [2]Player
	Problem SimProblem

	mu          sync.Mutex
	createdAt   time.Time
	startedAt   time.Time
	started     bool
	connected   map[int64]bool
	languages   map[int64]string
	code        map[int64]map[string]string
	lines       map[int64]int
	submissions map[int64][]domain.SubmissionRecord
	finished    bool
	clock       *time.Timer

	conns    *ConnectionManager
	archive  MatchArchive
	registry *Registry
}

func NewMatchSession(matchID, roomID string, p1, p2 Player, problem SimProblem,
	conns *ConnectionManager, archive MatchArchive, registry *Registry) *MatchSession {

	return &MatchSession{
		MatchID:     matchID,
		RoomID:      roomID,
		Players:     [2]Player{p1, p2},
		Problem:     problem,
		createdAt:   time.Now(),
		connected:   make(map[int64]bool),
		languages:   make(map[int64]string),
		code:        make(map[int64]map[string]string),
		lines:       make(map[int64]int),
		submissions: make(map[int64][]domain.SubmissionRecord),
		conns:       conns,
		archive:     archive,
		registry:    registry,
	}
}

func (ms *MatchSession) isPlayer(userID int64) bool {
	return ms.Players[0].Identity.UserID == userID || ms.Players[1].Identity.UserID == userID
}

func (ms *MatchSession) opponentOf(userID int64) Player {
	if ms.Players[0].Identity.UserID == userID {
		return ms.Players[1]
	}
	return ms.Players[0]
}

func (ms *MatchSession) playerOf(userID int64) Player {
	if ms.Players[0].Identity.UserID == userID {
		return ms.Players[0]
	}
	return ms.Players[1]
}

// HandleJoin marks a player connected. When both sides are present the
// match starts: match_init carries the authoritative start time and the
// line counts so a reconnecting player is restored. Reconnects after the
// start receive match_init again; the client treats repeats as idempotent.
func (ms *MatchSession) HandleJoin(userID int64) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if !ms.isPlayer(userID) {
		return
	}
	ms.connected[userID] = true

	if !ms.started {
		if len(ms.connected) < 2 {
			return
		}
		ms.started = true
		ms.startedAt = time.Now()
		ms.clock = time.AfterFunc(matchDuration, ms.handleClockExpiry)
		log.Printf("[SIM] match %s started: %s vs %s", ms.MatchID,
			ms.Players[0].Identity.Username, ms.Players[1].Identity.Username)

		for _, p := range ms.Players {
			ms.conns.SendMessage(p.Identity.UserID, ms.initMessage())
		}
		return
	}

	ms.conns.SendMessage(userID, ms.initMessage())
}

func (ms *MatchSession) initMessage() domain.ServerMessage {
	linesWritten := make(map[int64]int, len(ms.lines))
	for id, n := range ms.lines {
		linesWritten[id] = n
	}
	return domain.ServerMessage{
		Type:         domain.MsgMatchInit,
		StartedAt:    ms.startedAt.UnixMilli(),
		LinesWritten: linesWritten,
		TotalTests:   len(ms.Problem.Tests),
	}
}

// HandleCodeUpdate stores the edit and fans the line count out to the
// opponent. The sender's own update is not echoed back.
func (ms *MatchSession) HandleCodeUpdate(userID int64, language, code string, lines int) {
	ms.mu.Lock()
	if ms.finished || !ms.isPlayer(userID) {
		ms.mu.Unlock()
		return
	}
	if ms.code[userID] == nil {
		ms.code[userID] = make(map[string]string)
	}
	ms.code[userID][language] = code
	ms.lines[userID] = lines
	opponent := ms.opponentOf(userID)
	ms.mu.Unlock()

	ms.conns.SendMessage(opponent.Identity.UserID, domain.ServerMessage{
		Type:     domain.MsgCodeUpdate,
		SenderID: userID,
		Language: language,
		Lines:    lines,
	})
}

// HandleSetLanguage records the player's working language; it becomes the
// default when a later run or submit omits one.
func (ms *MatchSession) HandleSetLanguage(userID int64, language string) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if ms.isPlayer(userID) {
		ms.languages[userID] = language
	}
}

func (ms *MatchSession) languageFor(userID int64, requested string) string {
	if requested != "" {
		return requested
	}
	if lang, ok := ms.languages[userID]; ok {
		return lang
	}
	return "python"
}

// HandleTestSubmit runs the sample subset (first two tests) and answers
// with test_submission_result. The opponent gets a progress ping so their
// display stays live without seeing a full record.
func (ms *MatchSession) HandleTestSubmit(userID int64, language, code string) {
	ms.mu.Lock()
	if ms.finished || !ms.isPlayer(userID) {
		ms.mu.Unlock()
		return
	}
	sample := ms.Problem.Tests
	if len(sample) > 2 {
		sample = sample[:2]
	}
	opponent := ms.opponentOf(userID)
	ms.mu.Unlock()

	results := runJudge(code, sample)

	ms.conns.SendMessage(userID, domain.ServerMessage{
		Type:        domain.MsgTestSubmissionResult,
		SenderID:    userID,
		TestResults: results,
	})
	ms.conns.SendMessage(opponent.Identity.UserID, domain.ServerMessage{
		Type:        domain.MsgTestProgressUpdate,
		SenderID:    userID,
		TestsPassed: passedCount(results),
		TotalTests:  len(ms.Problem.Tests),
	})
}

// HandleSubmit runs the full test set, records the submission, and either
// resolves the match (first fully-correct submission wins, complexity
// permitting) or reports the failure back to the submitter.
func (ms *MatchSession) HandleSubmit(userID int64, language, code string) {
	ms.mu.Lock()
	if ms.finished || !ms.isPlayer(userID) {
		ms.mu.Unlock()
		return
	}
	tests := ms.Problem.Tests
	expected := ms.Problem.ExpectedComplexity
	language = ms.languageFor(userID, language)
	opponent := ms.opponentOf(userID)
	ms.mu.Unlock()

	results := runJudge(code, tests)
	passed := allPassed(results)
	derived := deriveComplexity(code)
	complexityFailed := passed && expected != "" && derived != expected

	rec := domain.SubmissionRecord{
		Timestamp:          time.Now().UnixMilli(),
		Language:           language,
		Code:               code,
		TestResults:        results,
		Passed:             passed,
		ComplexityFailed:   complexityFailed,
		DerivedComplexity:  derived,
		ExpectedComplexity: expected,
	}

	ms.mu.Lock()
	if ms.finished {
		ms.mu.Unlock()
		return
	}
	ms.submissions[userID] = append(ms.submissions[userID], rec)
	ms.mu.Unlock()

	go func() {
		if err := ms.archive.SaveSubmission(ms.MatchID, userID, rec); err != nil {
			log.Printf("[SIM] archiving submission for match %s: %v", ms.MatchID, err)
		}
	}()

	// The submitter's guard is waiting on exactly one of submission_result
	// or complexity_failed for this temporal slot.
	if complexityFailed {
		ms.conns.SendMessage(userID, domain.ServerMessage{
			Type:               domain.MsgComplexityFailed,
			SenderID:           userID,
			TotalTests:         len(tests),
			DerivedComplexity:  derived,
			ExpectedComplexity: expected,
		})
	} else {
		ms.conns.SendMessage(userID, domain.ServerMessage{
			Type:        domain.MsgSubmissionResult,
			SenderID:    userID,
			Submission:  &rec,
			TestsPassed: passedCount(results),
			TotalTests:  len(tests),
		})
	}

	// Both sides get the record appended to history.
	for _, p := range ms.Players {
		ms.conns.SendMessage(p.Identity.UserID, domain.ServerMessage{
			Type:       domain.MsgNewSubmission,
			SenderID:   userID,
			Submission: &rec,
		})
	}

	if passed && !complexityFailed {
		ms.finishWith(&userID, "solved")
		return
	}

	ms.conns.SendMessage(opponent.Identity.UserID, domain.ServerMessage{
		Type:        domain.MsgTestProgressUpdate,
		SenderID:    userID,
		TestsPassed: passedCount(results),
		TotalTests:  len(tests),
	})
}

// HandleDisconnect forfeits an unfinished match to the remaining player.
func (ms *MatchSession) HandleDisconnect(userID int64) {
	ms.mu.Lock()
	delete(ms.connected, userID)
	finished := ms.finished
	started := ms.started
	ms.mu.Unlock()

	if finished || !started || !ms.isPlayer(userID) {
		return
	}

	opponentID := ms.opponentOf(userID).Identity.UserID
	log.Printf("[SIM] player %d disconnected from match %s, forfeiting", userID, ms.MatchID)
	ms.finishWith(&opponentID, "abandonment")
}

// handleClockExpiry resolves the match when the authoritative clock runs
// out: higher best-submission count wins, equal counts draw.
func (ms *MatchSession) handleClockExpiry() {
	ms.mu.Lock()
	if ms.finished {
		ms.mu.Unlock()
		return
	}
	best1 := domain.BestSubmission(ms.submissions[ms.Players[0].Identity.UserID])
	best2 := domain.BestSubmission(ms.submissions[ms.Players[1].Identity.UserID])
	ms.mu.Unlock()

	switch {
	case best1 > best2:
		id := ms.Players[0].Identity.UserID
		ms.finishWith(&id, "time_expired")
	case best2 > best1:
		id := ms.Players[1].Identity.UserID
		ms.finishWith(&id, "time_expired")
	default:
		ms.finishWith(nil, "time_expired")
	}
}

// finishWith applies the terminal event exactly once, computes rating
// changes, notifies both players, and archives the match.
func (ms *MatchSession) finishWith(winnerID *int64, reason string) {
	ms.mu.Lock()
	if ms.finished {
		ms.mu.Unlock()
		return
	}
	ms.finished = true
	if ms.clock != nil {
		ms.clock.Stop()
	}
	finishedAt := time.Now()
	p1, p2 := ms.Players[0], ms.Players[1]
	ms.mu.Unlock()

	score1 := 0.5
	if winnerID != nil {
		if *winnerID == p1.Identity.UserID {
			score1 = 1.0
		} else {
			score1 = 0.0
		}
	}

	changes := map[int64]domain.RatingChange{
		p1.Identity.UserID: domain.EloChange(p1.Rating, p2.Rating, score1),
		p2.Identity.UserID: domain.EloChange(p2.Rating, p1.Rating, 1.0-score1),
	}
	ms.registry.applyRatings(changes)

	msg := domain.ServerMessage{Type: domain.MsgMatchDraw, RatingChanges: changes}
	if winnerID != nil {
		msg = domain.ServerMessage{
			Type:          domain.MsgMatchWinner,
			WinnerID:      *winnerID,
			RatingChanges: changes,
		}
	}
	for _, p := range ms.Players {
		ms.conns.SendMessage(p.Identity.UserID, msg)
	}

	log.Printf("[SIM] match %s finished (%s)", ms.MatchID, reason)

	duration := int(finishedAt.Sub(ms.createdAt).Seconds())
	go func() {
		err := ms.archive.SaveMatch(ms.MatchID, p1.Identity.UserID, p2.Identity.UserID,
			winnerID, reason, duration, ms.createdAt, finishedAt)
		if err != nil {
			log.Printf("[SIM] archiving match %s: %v", ms.MatchID, err)
		}
	}()
}

// MatchData builds the persistence view of this match for one player.
func (ms *MatchSession) MatchData(userID int64) (domain.Problem, domain.Opponent, domain.UserStats) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	opp := ms.opponentOf(userID)
	self := ms.playerOf(userID)
	opponent := domain.Opponent{
		UserID:    opp.Identity.UserID,
		Username:  opp.Identity.Username,
		AvatarRef: opp.Identity.AvatarRef,
		Rating:    opp.Rating,
	}
	return ms.Problem.Problem, opponent, domain.UserStats{Rating: self.Rating}
}

// Snapshot builds the polling-safe read of saved code and submissions.
func (ms *MatchSession) Snapshot() (map[int64]map[string]string, map[int64][]domain.SubmissionRecord) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	code := make(map[int64]map[string]string, len(ms.code))
	for userID, byLang := range ms.code {
		code[userID] = make(map[string]string, len(byLang))
		for lang, src := range byLang {
			code[userID][lang] = src
		}
	}
	subs := make(map[int64][]domain.SubmissionRecord, len(ms.submissions))
	for userID, recs := range ms.submissions {
		subs[userID] = append([]domain.SubmissionRecord(nil), recs...)
	}
	return code, subs
}
