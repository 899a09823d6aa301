package sim

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/iamasit07/code-clash/client/internal/domain"
	"github.com/iamasit07/code-clash/client/pkg/auth"
	"github.com/iamasit07/code-clash/client/pkg/uid"
)

// Server is the development room simulator: the matchmaking queue, the
// reservation endpoints, the persistence reads, and the room WebSocket,
// all on one port so a session controller can run against it unchanged.
type Server struct {
	queue    *Queue
	registry *Registry
	conns    *ConnectionManager
	store    ReservationStore
	limiter  *RateLimiter
	upgrader websocket.Upgrader
}

func NewServer(store ReservationStore, archive MatchArchive, ratePerMinute int) *Server {
	registry := NewRegistry()
	conns := NewConnectionManager()
	return &Server{
		queue:    NewQueue(store, registry, conns, archive, nil),
		registry: registry,
		conns:    conns,
		store:    store,
		limiter:  NewRateLimiter(ratePerMinute),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// StartCleanup sweeps stale rate-limiter state on an interval until ctx
// is done. Run it as a background goroutine alongside the HTTP server.
func (s *Server) StartCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.limiter.Cleanup()
		}
	}
}

// Router wires every simulator endpoint onto a gin engine.
func (s *Server) Router() *gin.Engine {
	router := gin.Default()

	api := router.Group("/api")
	{
		api.POST("/queue/join", s.handleQueueJoin)
		api.GET("/queue/status", s.handleQueueStatus)
		api.POST("/queue/leave", s.handleQueueLeave)
		api.POST("/reservation/consume", s.handleReservationConsume)
		api.POST("/reservation/clear", s.handleReservationClear)
		api.GET("/match/:matchId", s.handleMatchData)
		api.GET("/match/:matchId/snapshot", s.handleMatchSnapshot)
	}
	router.GET("/ws", s.handleWebSocket)

	return router
}

type queueJoinRequest struct {
	Token    string `json:"token,omitempty"`    // authenticated players
	Guest    bool   `json:"guest,omitempty"`    // guest players
	Username string `json:"username,omitempty"` // guest display name
}

func (s *Server) handleQueueJoin(c *gin.Context) {
	var req queueJoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}

	var identity domain.Identity
	switch {
	case req.Token != "":
		id, err := auth.IdentityFromToken(req.Token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "invalid token"})
			return
		}
		identity = id
	case req.Guest:
		identity = domain.Identity{UserID: uid.GenerateGuestID(), IsGuest: true}
		identity.Username = req.Username
		if identity.Username == "" {
			identity.Username = uid.GuestUsername(identity.UserID)
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "token or guest flag required"})
		return
	}

	result, err := s.queue.Join(c.Request.Context(), identity)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "queue join failed"})
		return
	}
	result.UserID = identity.UserID
	c.JSON(http.StatusOK, gin.H{"success": true, "result": result})
}

func (s *Server) handleQueueStatus(c *gin.Context) {
	userID, ok := parseUserID(c.Query("userId"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "userId required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "result": s.queue.Status(userID)})
}

func (s *Server) handleQueueLeave(c *gin.Context) {
	var req struct {
		UserID int64 `json:"userId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}
	s.queue.Leave(req.UserID)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleReservationConsume(c *gin.Context) {
	var req struct {
		UserID int64 `json:"userId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}

	res, err := s.store.Consume(c.Request.Context(), req.UserID)
	if err != nil {
		log.Printf("[SIM] consuming reservation for %d: %v", req.UserID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "reservation store error"})
		return
	}
	if res == nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": "reservation_expired"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "reservation": res})
}

func (s *Server) handleReservationClear(c *gin.Context) {
	var req struct {
		UserID int64 `json:"userId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}
	if err := s.store.Clear(c.Request.Context(), req.UserID); err != nil {
		log.Printf("[SIM] clearing reservation for %d: %v", req.UserID, err)
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleMatchData(c *gin.Context) {
	matchID := c.Param("matchId")
	userID, ok := parseUserID(c.Query("userId"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "userId required"})
		return
	}

	ms, exists := s.registry.ByMatch(matchID)
	if !exists || !ms.isPlayer(userID) {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": "match_not_found"})
		return
	}

	problem, opponent, stats := ms.MatchData(userID)
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"problem":   problem,
		"opponent":  opponent,
		"userStats": stats,
	})
}

func (s *Server) handleMatchSnapshot(c *gin.Context) {
	ms, exists := s.registry.ByMatch(c.Param("matchId"))
	if !exists {
		c.JSON(http.StatusOK, gin.H{"playersCode": gin.H{}, "submissions": gin.H{}})
		return
	}
	code, submissions := ms.Snapshot()
	c.JSON(http.StatusOK, gin.H{"playersCode": code, "submissions": submissions})
}

// handleWebSocket upgrades the connection and runs the per-player read
// loop. The first frame must be init or guest_init; everything after is a
// room command routed to the player's match session.
func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[SIM] websocket upgrade: %v", err)
		return
	}

	identity, ms, ok := s.handshake(conn, c.Query("roomId"))
	if !ok {
		conn.Close()
		return
	}

	s.conns.AddConnection(identity.UserID, conn, identity.Username)
	ms.HandleJoin(identity.UserID)

	// Only the user's current connection may forfeit on exit: a superseded
	// socket's cleanup must not abandon the match the player just rejoined.
	defer func() {
		username, _ := s.conns.GetUsername(identity.UserID)
		if s.conns.RemoveConnectionIfMatching(identity.UserID, conn) {
			log.Printf("[SIM] %s left room %s", username, ms.RoomID)
			ms.HandleDisconnect(identity.UserID)
		}
	}()

	for {
		var msg domain.ClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		s.dispatch(identity.UserID, ms, msg)
	}
}

// handshake reads and validates the init frame, resolving the player's
// identity and match session.
func (s *Server) handshake(conn *websocket.Conn, roomID string) (domain.Identity, *MatchSession, bool) {
	var init domain.ClientMessage
	if err := conn.ReadJSON(&init); err != nil {
		return domain.Identity{}, nil, false
	}

	ms, exists := s.registry.ByRoom(roomID)
	if !exists {
		s.rejectHandshake(conn, "room not found")
		return domain.Identity{}, nil, false
	}

	switch init.Type {
	case domain.CmdInit:
		identity, err := auth.IdentityFromToken(init.JWT)
		if err != nil {
			s.rejectHandshake(conn, "invalid token")
			return domain.Identity{}, nil, false
		}
		if !ms.isPlayer(identity.UserID) || ms.MatchID != init.MatchID {
			s.rejectHandshake(conn, "not a participant of this match")
			return domain.Identity{}, nil, false
		}
		return identity, ms, true

	case domain.CmdGuestInit:
		if ms.MatchID != init.MatchID {
			s.rejectHandshake(conn, "not a participant of this match")
			return domain.Identity{}, nil, false
		}
		// Guests carry no token; resolve them by display name among the
		// session's guest players.
		for _, p := range ms.Players {
			if p.Identity.IsGuest && p.Identity.Username == init.Username {
				return p.Identity, ms, true
			}
		}
		s.rejectHandshake(conn, "not a participant of this match")
		return domain.Identity{}, nil, false

	default:
		s.rejectHandshake(conn, "expected init")
		return domain.Identity{}, nil, false
	}
}

func (s *Server) rejectHandshake(conn *websocket.Conn, reason string) {
	_ = conn.WriteJSON(domain.ErrorMessage{Type: "error", Message: reason})
}

// dispatch routes one room command. Only code updates are rate limited:
// run and submit are already serialized by the client's own guard, and
// dropping one would wedge that guard until a result arrives.
func (s *Server) dispatch(userID int64, ms *MatchSession, msg domain.ClientMessage) {
	switch msg.Type {
	case domain.CmdUpdateCode:
		if !s.limiter.Allow(userID) {
			s.conns.SendMessage(userID, domain.ServerMessage{
				Type:    domain.MsgRateLimit,
				Message: "too many updates, slow down",
			})
			return
		}
		ms.HandleCodeUpdate(userID, msg.Language, msg.Code, msg.Lines)
	case domain.CmdSetLanguage:
		ms.HandleSetLanguage(userID, msg.Language)
	case domain.CmdTestSubmitCode:
		ms.HandleTestSubmit(userID, msg.Language, msg.Code)
	case domain.CmdSubmitCode:
		ms.HandleSubmit(userID, msg.Language, msg.Code)
	default:
		log.Printf("[SIM] unknown command %q from %d", msg.Type, userID)
	}
}

func parseUserID(raw string) (int64, bool) {
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return userID, true
}
