package domain

// Inbound (room server → controller) message kinds.
const (
	MsgCodeUpdate           = "code_update"
	MsgMatchInit            = "match_init"
	MsgNewSubmission        = "new_submission"
	MsgTestSubmissionResult = "test_submission_result"
	MsgSubmissionResult     = "submission_result"
	MsgComplexityFailed     = "complexity_failed"
	MsgTestProgressUpdate   = "test_progress_update"
	MsgMatchWinner          = "match_winner"
	MsgMatchDraw            = "match_draw"
	MsgRateLimit            = "rate_limit"
	MsgKicked               = "kicked"
)

// Outbound (controller → room server) command kinds. All fire-and-forget;
// correctness depends on the local guard, not on acknowledgment.
const (
	CmdUpdateCode     = "update_code"
	CmdSetLanguage    = "set_language"
	CmdTestSubmitCode = "test_submit_code"
	CmdSubmitCode     = "submit_code"
)

// Init message types for the websocket handshake.
const (
	CmdInit      = "init"
	CmdGuestInit = "guest_init"
)

type ClientMessage struct {
	Type     string `json:"type"`
	JWT      string `json:"jwt,omitempty"`
	RoomID   string `json:"roomId,omitempty"`   // guest_init only
	MatchID  string `json:"matchId,omitempty"`  // init / guest_init
	Username string `json:"username,omitempty"` // guest_init only
	Language string `json:"language,omitempty"`
	Code     string `json:"code,omitempty"`
	Lines    int    `json:"lines,omitempty"`
}

type ServerMessage struct {
	Type               string                 `json:"type"`
	SenderID           int64                  `json:"senderId,omitempty"`
	Language           string                 `json:"language,omitempty"`
	Code               string                 `json:"code,omitempty"`
	Lines              int                    `json:"lines,omitempty"`
	StartedAt          int64                  `json:"startedAt,omitempty"` // unix millis, authoritative clock
	LinesWritten       map[int64]int          `json:"linesWritten,omitempty"`
	Submission         *SubmissionRecord      `json:"submission,omitempty"`
	TestResults        []TestResult           `json:"testResults,omitempty"`
	TestsPassed        int                    `json:"testsPassed,omitempty"`
	TotalTests         int                    `json:"totalTests,omitempty"`
	WinnerID           int64                  `json:"winnerId,omitempty"`
	RatingChanges      map[int64]RatingChange `json:"ratingChanges,omitempty"`
	DerivedComplexity  string                 `json:"derivedComplexity,omitempty"`
	ExpectedComplexity string                 `json:"expectedComplexity,omitempty"`
	Message            string                 `json:"message,omitempty"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
