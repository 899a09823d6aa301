package session

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/iamasit07/code-clash/client/internal/domain"
	"github.com/iamasit07/code-clash/client/internal/matchdata"
	"github.com/iamasit07/code-clash/client/internal/room"
)

const DefaultLanguage = "python"

// MatchDataService is the persistence read side the reconciler pulls from.
type MatchDataService interface {
	GetMatchDataRetry(ctx context.Context, matchID string, userID int64) (matchdata.MatchData, error)
	GetMatchSnapshot(ctx context.Context, matchID string) (matchdata.Snapshot, error)
}

// commandSender is the outbound half of the room connection.
type commandSender interface {
	Send(msg domain.ClientMessage) error
}

type Options struct {
	// GuestPromptDelay is how long a guest sees the in-place result
	// before the sign-up prompt appears.
	GuestPromptDelay time.Duration

	// Language initially selected; defaults to DefaultLanguage.
	Language string
}

// Controller is the match session state machine: it converts a reservation
// into a live room connection, speaks the room protocol, reconciles server
// snapshots against live state, guards run/submit concurrency, and applies
// match resolution. One instance per mounted session.
type Controller struct {
	identity domain.Identity
	opts     Options

	rooms    *room.Manager
	data     MatchDataService
	frontend Frontend

	mu       sync.Mutex
	state    liveState
	guard    guard
	conn     commandSender
	language string
	matchID  string
	closed   bool
}

func NewController(identity domain.Identity, rooms *room.Manager, data MatchDataService, frontend Frontend, opts Options) *Controller {
	if opts.GuestPromptDelay <= 0 {
		opts.GuestPromptDelay = 2 * time.Second
	}
	if opts.Language == "" {
		opts.Language = DefaultLanguage
	}
	if frontend == nil {
		frontend = NopFrontend{}
	}
	return &Controller{
		identity: identity,
		opts:     opts,
		rooms:    rooms,
		data:     data,
		frontend: frontend,
		state:    newLiveState(),
		language: opts.Language,
	}
}

// Start consumes the reservation (or guest join data), joins the room,
// starts the reader, and reconciles the initial snapshot. Terminal
// failures funnel through the single return-to-matchmaking exit.
func (c *Controller) Start(ctx context.Context) error {
	handle, err := c.rooms.EnsureConnected(ctx)
	if err != nil {
		// A join failure has already released the reservation inside the
		// room manager; an expired reservation had nothing to release.
		c.fail(err.Error())
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return domain.ErrNotConnected
	}
	c.conn = handle
	c.matchID = handle.MatchID
	c.mu.Unlock()

	go c.readLoop(handle)

	if err := c.reconcile(ctx, true); err != nil {
		log.Printf("[SESSION] initial load for match %s: %v", c.matchID, err)
		c.fail("match data unavailable")
		return err
	}
	return nil
}

// readLoop is the single reader: inbound messages are processed strictly
// in arrival order, with no batching or reordering.
func (c *Controller) readLoop(handle *room.Handle) {
	for {
		msg, err := handle.Read()
		if err != nil {
			c.mu.Lock()
			closed := c.closed
			c.mu.Unlock()
			if !closed {
				log.Printf("[SESSION] room connection lost: %v", err)
			}
			return
		}
		c.Dispatch(msg)
	}
}

// Stop tears the session down: best-effort room leave, no error surfaced.
// In-flight fetch results are discarded by the closed check.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.leaveRoom()
}

// fail is the single terminal-error exit: every terminal error guarantees
// room cleanup before the caller navigates back to matchmaking.
func (c *Controller) fail(reason string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.leaveRoom()
	c.frontend.ReturnToMatchmaking(reason)
}

func (c *Controller) leaveRoom() {
	if c.rooms != nil {
		c.rooms.Leave()
	}
}

// SetLanguage switches the working language, notifies the room, and
// re-reconciles so saved code for the new language appears. The snapshot
// never clobbers languages edited live.
func (c *Controller) SetLanguage(ctx context.Context, language string) error {
	c.mu.Lock()
	if c.closed || c.conn == nil {
		c.mu.Unlock()
		return domain.ErrNotConnected
	}
	c.language = language
	conn := c.conn
	c.mu.Unlock()

	if err := conn.Send(domain.ClientMessage{Type: domain.CmdSetLanguage, Language: language}); err != nil {
		return err
	}

	go func() {
		if err := c.reconcile(ctx, false); err != nil {
			log.Printf("[SESSION] reconcile after language switch: %v", err)
		}
	}()
	return nil
}

// UpdateCode records a local edit and streams it to the room so the
// opponent's line counter stays live.
func (c *Controller) UpdateCode(language, code string) error {
	lines := countLines(code)

	c.mu.Lock()
	if c.closed || c.conn == nil {
		c.mu.Unlock()
		return domain.ErrNotConnected
	}
	c.state.setCode(c.identity.UserID, language, code)
	c.state.editedLanguages[language] = true
	c.state.linesByUser[c.identity.UserID] = lines
	conn := c.conn
	c.mu.Unlock()

	return conn.Send(domain.ClientMessage{
		Type:     domain.CmdUpdateCode,
		Language: language,
		Code:     code,
		Lines:    lines,
	})
}

// RunTests sends the current code for a sample-test run. Rejected locally,
// with no outbound message, while another run or submit is in flight.
func (c *Controller) RunTests() error {
	return c.sendGuarded(domain.CmdTestSubmitCode)
}

// Submit sends the current code for full judging. Rejected locally while
// another run or submit is in flight, and permanently after resolution.
func (c *Controller) Submit() error {
	return c.sendGuarded(domain.CmdSubmitCode)
}

func (c *Controller) sendGuarded(cmd string) error {
	c.mu.Lock()
	if c.closed || c.conn == nil {
		c.mu.Unlock()
		return domain.ErrNotConnected
	}

	var claimErr error
	if cmd == domain.CmdTestSubmitCode {
		claimErr = c.guard.tryRun()
	} else {
		claimErr = c.guard.trySubmit()
	}
	if claimErr != nil {
		c.mu.Unlock()
		return claimErr
	}

	language := c.language
	code, ok := c.state.code(c.identity.UserID, language)
	if !ok {
		code = c.state.problem.StarterCode[language]
	}
	conn := c.conn
	c.mu.Unlock()

	err := conn.Send(domain.ClientMessage{Type: cmd, Language: language, Code: code})
	if err != nil {
		// The command never left; release the claim so the session is
		// not wedged waiting for a result that cannot arrive.
		c.mu.Lock()
		if cmd == domain.CmdTestSubmitCode {
			c.guard.clearRunning()
		} else {
			c.guard.clearSubmitting()
		}
		c.mu.Unlock()
	}
	return err
}

// View returns a copy of the observable session state.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.view()
}

// Language returns the currently selected language.
func (c *Controller) Language() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.language
}

func countLines(code string) int {
	if code == "" {
		return 0
	}
	return strings.Count(code, "\n") + 1
}
