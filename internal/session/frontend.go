package session

import (
	"github.com/iamasit07/code-clash/client/internal/domain"
)

// Frontend receives the UI-relevant effects of protocol handling.
// Rendering itself is out of scope; the controller only reports what
// happened. All calls are made synchronously from the handler that
// produced them, so implementations must not block.
type Frontend interface {
	// ShowMatchup runs the opening transition. Called exactly once per
	// controller lifetime.
	ShowMatchup(opponent domain.Opponent)

	// FocusSubmissions switches the active view to the submission history
	// after the local user's own submission lands.
	FocusSubmissions()

	// ShowTestResults surfaces ephemeral per-test run output.
	ShowTestResults(userID int64, results []domain.TestResult)

	// ShowFailure surfaces a classified failed submission for inspection.
	// Accepted submissions never open a popup.
	ShowFailure(result domain.ClassifiedResult)

	// ShowRateLimit surfaces an advisory throttling notice.
	ShowRateLimit(message string)

	// ShowResult presents the terminal match outcome (authenticated flow).
	ShowResult(result domain.MatchResult)

	// ShowSignupPrompt presents the guest conversion prompt (guest flow,
	// after a fixed delay).
	ShowSignupPrompt(result domain.MatchResult)

	// ReturnToMatchmaking is the single terminal exit for session errors.
	ReturnToMatchmaking(reason string)
}

// NopFrontend discards every effect. Useful as an embedding default.
type NopFrontend struct{}

func (NopFrontend) ShowMatchup(domain.Opponent)                {}
func (NopFrontend) FocusSubmissions()                          {}
func (NopFrontend) ShowTestResults(int64, []domain.TestResult) {}
func (NopFrontend) ShowFailure(domain.ClassifiedResult)        {}
func (NopFrontend) ShowRateLimit(string)                       {}
func (NopFrontend) ShowResult(domain.MatchResult)              {}
func (NopFrontend) ShowSignupPrompt(domain.MatchResult)        {}
func (NopFrontend) ReturnToMatchmaking(string)                 {}
