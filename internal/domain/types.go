package domain

// Identity describes the local participant for the lifetime of one
// controller instance. Guests get a synthetic negative UserID.
type Identity struct {
	UserID    int64  `json:"user_id"`
	Username  string `json:"username"`
	AvatarRef string `json:"avatar_ref,omitempty"`
	IsGuest   bool   `json:"is_guest"`
}

// Reservation is the one-time token binding a user to a room and match.
// It is consumed at most once; a failed consumption is terminal.
type Reservation struct {
	RoomID  string `json:"roomId"`
	MatchID string `json:"matchId"`
}

type Problem struct {
	ID                 string            `json:"id"`
	Title              string            `json:"title"`
	Description        string            `json:"description"`
	Difficulty         string            `json:"difficulty"`
	StarterCode        map[string]string `json:"starterCode"` // language → template
	TotalTests         int               `json:"totalTests"`
	ExpectedComplexity string            `json:"expectedComplexity,omitempty"`
}

type Opponent struct {
	UserID    int64  `json:"userId"`
	Username  string `json:"username"`
	AvatarRef string `json:"avatarRef,omitempty"`
	Rating    int    `json:"rating"`
}

type UserStats struct {
	Rating int `json:"rating"`
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
	Draws  int `json:"draws"`
}

// MatchResult is terminal: once set, the controller accepts no further
// run/submit actions. WinnerID is nil for a draw.
type MatchResult struct {
	WinnerID      *int64                 `json:"winnerId,omitempty"`
	RatingChanges map[int64]RatingChange `json:"ratingChanges,omitempty"`
}

// TestStatus is the per-test status code reported by the judge.
// StatusPassed is the single canonical success code; everything else
// counts as a failure for classification.
type TestStatus string

const (
	StatusPassed       TestStatus = "passed"
	StatusWrongAnswer  TestStatus = "wrong_answer"
	StatusCompileError TestStatus = "compilation_error"
	StatusRuntimeError TestStatus = "runtime_error"
	StatusTimeLimit    TestStatus = "time_limit_exceeded"
	StatusMemoryLimit  TestStatus = "memory_limit_exceeded"
	StatusSystemError  TestStatus = "system_error"
)

// ResultKind is the fixed taxonomy a submission classifies into.
type ResultKind string

const (
	KindAccepted         ResultKind = "accepted"
	KindWrongAnswer      ResultKind = "wrong_answer"
	KindCompileError     ResultKind = "compile_error"
	KindRuntimeError     ResultKind = "runtime_error"
	KindTimeLimit        ResultKind = "time_limit_exceeded"
	KindMemoryLimit      ResultKind = "memory_limit_exceeded"
	KindSystemError      ResultKind = "system_error"
	KindComplexityFailed ResultKind = "complexity_failed"
)

// basic error that can occur
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	ErrReservationExpired Error = "reservation expired"
	ErrMatchNotFound      Error = "match not found"
	ErrRunInFlight        Error = "test run already in flight"
	ErrSubmitInFlight     Error = "submission already in flight"
	ErrMatchResolved      Error = "match already resolved"
	ErrNotConnected       Error = "not connected to a room"
)
