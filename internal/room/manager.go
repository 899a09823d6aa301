package room

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/iamasit07/code-clash/client/internal/domain"
)

// ReservationSource redeems a matchmaking reservation for join data.
// Authenticated sessions use the reservation service client; guest
// sessions bypass it entirely.
type ReservationSource interface {
	Consume(ctx context.Context, userID int64) (domain.Reservation, error)
}

// ReservationReleaser releases an outstanding reservation, best effort.
type ReservationReleaser interface {
	Clear(ctx context.Context, userID int64)
}

// Handle is the opaque live connection plus its match identity. It is
// exclusively owned by one Manager and never shared across controller
// instances.
type Handle struct {
	RoomID  string
	MatchID string

	conn    *websocket.Conn
	writeMu sync.Mutex // conn.WriteJSON is not safe for concurrent use
}

// Send writes one command to the room. Fire-and-forget from the caller's
// perspective: there is no acknowledgment protocol.
func (h *Handle) Send(msg domain.ClientMessage) error {
	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	h.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return h.conn.WriteJSON(msg)
}

// Read blocks for the next inbound message. Called from a single reader
// goroutine only.
func (h *Handle) Read() (domain.ServerMessage, error) {
	var msg domain.ServerMessage
	if err := h.conn.ReadJSON(&msg); err != nil {
		return domain.ServerMessage{}, err
	}
	return msg, nil
}

// Manager owns at most one live room connection for one controller
// instance and deduplicates concurrent join attempts.
type Manager struct {
	wsURL    string
	identity domain.Identity
	token    string

	source   ReservationSource   // nil for guest sessions
	releaser ReservationReleaser // nil for guest sessions
	guest    *domain.Reservation // pre-supplied join data for guests

	dialer *websocket.Dialer

	mu      sync.Mutex
	handle  *Handle
	joining chan struct{} // non-nil while a join attempt is in flight
	joinErr error
}

// NewManager builds a manager for an authenticated session. The token is
// sent in the init handshake so the room can verify identity.
func NewManager(wsURL string, identity domain.Identity, token string, source ReservationSource, releaser ReservationReleaser) *Manager {
	return &Manager{
		wsURL:    wsURL,
		identity: identity,
		token:    token,
		source:   source,
		releaser: releaser,
		dialer:   &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}
}

// NewGuestManager builds a manager from pre-supplied join data. No HTTP
// reservation call is ever made; the rest of the contract is identical.
func NewGuestManager(wsURL string, identity domain.Identity, join domain.Reservation) *Manager {
	return &Manager{
		wsURL:    wsURL,
		identity: identity,
		guest:    &join,
		dialer:   &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}
}

// EnsureConnected returns the live handle, joining the room first if
// needed. A handle that already exists is returned without a network round
// trip. A second concurrent call awaits the in-flight join rather than
// issuing a duplicate one.
func (m *Manager) EnsureConnected(ctx context.Context) (*Handle, error) {
	m.mu.Lock()
	if m.handle != nil {
		h := m.handle
		m.mu.Unlock()
		return h, nil
	}
	if m.joining != nil {
		done := m.joining
		m.mu.Unlock()

		select {
		case <-done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		m.mu.Lock()
		h, err := m.handle, m.joinErr
		m.mu.Unlock()
		if h != nil {
			return h, nil
		}
		return nil, err
	}

	done := make(chan struct{})
	m.joining = done
	m.mu.Unlock()

	h, err := m.join(ctx)

	m.mu.Lock()
	m.handle = h
	m.joinErr = err
	m.joining = nil
	m.mu.Unlock()
	close(done)

	return h, err
}

func (m *Manager) join(ctx context.Context) (*Handle, error) {
	join := m.guest
	consumed := false

	if join == nil {
		res, err := m.source.Consume(ctx, m.identity.UserID)
		if err != nil {
			// Consumption itself failed: there is nothing to clear.
			return nil, err
		}
		join = &res
		consumed = true
	}

	handle, err := m.dial(ctx, *join)
	if err != nil {
		// Release the reservation before surfacing the error so it
		// isn't orphaned in a state where it can never be consumed.
		if consumed && m.releaser != nil {
			m.releaser.Clear(ctx, m.identity.UserID)
		}
		return nil, err
	}
	return handle, nil
}

func (m *Manager) dial(ctx context.Context, join domain.Reservation) (*Handle, error) {
	url := fmt.Sprintf("%s?roomId=%s", m.wsURL, join.RoomID)
	conn, _, err := m.dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("join room %s: %w", join.RoomID, err)
	}

	init := domain.ClientMessage{
		Type:    domain.CmdInit,
		JWT:     m.token,
		MatchID: join.MatchID,
	}
	if m.identity.IsGuest {
		init = domain.ClientMessage{
			Type:     domain.CmdGuestInit,
			RoomID:   join.RoomID,
			MatchID:  join.MatchID,
			Username: m.identity.Username,
		}
	}

	conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := conn.WriteJSON(init); err != nil {
		conn.Close()
		return nil, fmt.Errorf("join room %s: init: %w", join.RoomID, err)
	}

	log.Printf("[ROOM] joined room %s (match %s) as %s", join.RoomID, join.MatchID, m.identity.Username)
	return &Handle{RoomID: join.RoomID, MatchID: join.MatchID, conn: conn}, nil
}

// Leave tears the connection down, best effort. Failures are swallowed so
// teardown can never block process exit.
func (m *Manager) Leave() {
	m.mu.Lock()
	h := m.handle
	m.handle = nil
	m.mu.Unlock()

	if h == nil {
		return
	}

	deadline := time.Now().Add(time.Second)
	_ = h.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "leaving"), deadline)
	_ = h.conn.Close()
	log.Printf("[ROOM] left room %s", h.RoomID)
}
