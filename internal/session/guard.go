package session

import "github.com/iamasit07/code-clash/client/internal/domain"

// guard prevents overlapping run/submit actions for the local session.
// The opponent's guard state is invisible and irrelevant. Flags are set at
// the moment a command is sent and cleared only by the matching inbound
// result message, never by a timeout: a delayed result must still find the
// flag held.
type guard struct {
	running    bool
	submitting bool
	frozen     bool // set on match resolution, never cleared
}

// tryRun claims the running flag, or reports why it cannot.
func (g *guard) tryRun() error {
	if g.frozen {
		return domain.ErrMatchResolved
	}
	if g.running {
		return domain.ErrRunInFlight
	}
	if g.submitting {
		return domain.ErrSubmitInFlight
	}
	g.running = true
	return nil
}

// trySubmit claims the submitting flag, or reports why it cannot.
func (g *guard) trySubmit() error {
	if g.frozen {
		return domain.ErrMatchResolved
	}
	if g.submitting {
		return domain.ErrSubmitInFlight
	}
	if g.running {
		return domain.ErrRunInFlight
	}
	g.submitting = true
	return nil
}

func (g *guard) clearRunning()    { g.running = false }
func (g *guard) clearSubmitting() { g.submitting = false }

// freeze permanently rejects further run/submit actions regardless of
// flag state. rate_limit messages never reach this; they are advisory.
func (g *guard) freeze() { g.frozen = true }
