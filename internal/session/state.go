package session

import (
	"time"

	"github.com/iamasit07/code-clash/client/internal/domain"
)

// liveState is everything the controller learns over the live channel.
// It is created empty, grows monotonically, and is frozen once a match
// result arrives. Mutated only by dispatch handlers and local user actions
// under the controller mutex; the snapshot reconciler never overwrites a
// field that live data has already populated.
type liveState struct {
	matchStartTime time.Time
	matchInitSeen  bool

	problem   domain.Problem
	opponent  domain.Opponent
	userStats domain.UserStats

	linesByUser       map[int64]int
	testsPassedByUser map[int64]int
	totalTests        int

	// playersCode mirrors each side's latest source per language.
	playersCode map[int64]map[string]string

	// editedLanguages marks languages the local user has touched since
	// connecting; snapshot code never overwrites these.
	editedLanguages map[string]bool

	// submissions is append-only per user, ascending by timestamp.
	submissions map[int64][]domain.SubmissionRecord
	bestByUser  map[int64]int

	// runResults holds the latest ephemeral test-run output per user.
	// Never persisted as a SubmissionRecord.
	runResults map[int64][]domain.TestResult

	result *domain.MatchResult
}

func newLiveState() liveState {
	return liveState{
		linesByUser:       make(map[int64]int),
		testsPassedByUser: make(map[int64]int),
		playersCode:       make(map[int64]map[string]string),
		editedLanguages:   make(map[string]bool),
		submissions:       make(map[int64][]domain.SubmissionRecord),
		bestByUser:        make(map[int64]int),
		runResults:        make(map[int64][]domain.TestResult),
	}
}

func (s *liveState) setCode(userID int64, language, code string) {
	if s.playersCode[userID] == nil {
		s.playersCode[userID] = make(map[string]string)
	}
	s.playersCode[userID][language] = code
}

func (s *liveState) code(userID int64, language string) (string, bool) {
	byLang, ok := s.playersCode[userID]
	if !ok {
		return "", false
	}
	code, ok := byLang[language]
	return code, ok
}

// View is a copy of the observable session state, safe to hand to a UI.
type View struct {
	MatchStartTime    time.Time
	Problem           domain.Problem
	Opponent          domain.Opponent
	UserStats         domain.UserStats
	LinesByUser       map[int64]int
	TestsPassedByUser map[int64]int
	BestByUser        map[int64]int
	TotalTests        int
	Submissions       map[int64][]domain.SubmissionRecord
	Result            *domain.MatchResult
}

func (s *liveState) view() View {
	v := View{
		MatchStartTime:    s.matchStartTime,
		Problem:           s.problem,
		Opponent:          s.opponent,
		UserStats:         s.userStats,
		LinesByUser:       make(map[int64]int, len(s.linesByUser)),
		TestsPassedByUser: make(map[int64]int, len(s.testsPassedByUser)),
		BestByUser:        make(map[int64]int, len(s.bestByUser)),
		TotalTests:        s.totalTests,
		Submissions:       make(map[int64][]domain.SubmissionRecord, len(s.submissions)),
	}
	for id, n := range s.linesByUser {
		v.LinesByUser[id] = n
	}
	for id, n := range s.testsPassedByUser {
		v.TestsPassedByUser[id] = n
	}
	for id, n := range s.bestByUser {
		v.BestByUser[id] = n
	}
	for id, recs := range s.submissions {
		v.Submissions[id] = append([]domain.SubmissionRecord(nil), recs...)
	}
	if s.result != nil {
		res := *s.result
		v.Result = &res
	}
	return v
}
