package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/iamasit07/code-clash/client/internal/config"
	"github.com/iamasit07/code-clash/client/internal/domain"
	"github.com/iamasit07/code-clash/client/internal/matchdata"
	"github.com/iamasit07/code-clash/client/internal/reservation"
	"github.com/iamasit07/code-clash/client/internal/room"
	"github.com/iamasit07/code-clash/client/internal/session"
	"github.com/iamasit07/code-clash/client/pkg/auth"
	"github.com/iamasit07/code-clash/client/pkg/uid"
	"github.com/joho/godotenv"
)

// duel is the terminal harness for the session controller: it queues for a
// match against a running room server and drives the controller from stdin.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.LoadConfig()

	token := os.Getenv("CODECLASH_TOKEN")
	identity := resolveIdentity(token)
	log.Printf("Playing as %s (user %d)", identity.Username, identity.UserID)

	join, err := queueForMatch(cfg.MatchmakingURL, identity, token)
	if err != nil {
		log.Fatalf("Matchmaking failed: %v", err)
	}
	if identity.IsGuest {
		// Guest IDs are assigned by the matchmaking service; the
		// controller must see itself under that ID.
		identity.UserID = join.UserID
	}
	log.Printf("Matched into match %s", join.MatchID)

	var rooms *room.Manager
	if identity.IsGuest {
		rooms = room.NewGuestManager(cfg.RoomWSURL, identity,
			domain.Reservation{RoomID: join.RoomID, MatchID: join.MatchID})
	} else {
		resClient := reservation.NewClient(cfg.MatchmakingURL)
		rooms = room.NewManager(cfg.RoomWSURL, identity, token, resClient, resClient)
	}

	data := matchdata.NewClient(cfg.MatchDataURL, matchdata.RetryPolicy{
		Attempts: cfg.SnapshotRetryAttempts,
		Delay:    cfg.SnapshotRetryDelay,
	})

	done := make(chan struct{})
	frontend := &terminalFrontend{done: done}
	ctrl := session.NewController(identity, rooms, data, frontend, session.Options{
		GuestPromptDelay: cfg.GuestPromptDelay,
	})

	ctx := context.Background()
	if err := ctrl.Start(ctx); err != nil {
		log.Fatalf("Session start failed: %v", err)
	}
	defer ctrl.Stop()

	go readCommands(ctx, ctrl, done)
	<-done
}

func resolveIdentity(token string) domain.Identity {
	if token != "" {
		identity, err := auth.IdentityFromToken(token)
		if err != nil {
			log.Fatalf("Invalid CODECLASH_TOKEN: %v", err)
		}
		return identity
	}
	guestID := uid.GenerateGuestID()
	return domain.Identity{
		UserID:   guestID,
		Username: uid.GuestUsername(guestID),
		IsGuest:  true,
	}
}

type joinResult struct {
	Status  string `json:"status"`
	UserID  int64  `json:"userId"`
	RoomID  string `json:"roomId"`
	MatchID string `json:"matchId"`
}

type queueResponse struct {
	Success bool       `json:"success"`
	Error   string     `json:"error,omitempty"`
	Result  joinResult `json:"result"`
}

// queueForMatch joins the queue and polls until paired.
func queueForMatch(baseURL string, identity domain.Identity, token string) (joinResult, error) {
	client := &http.Client{Timeout: 10 * time.Second}

	body, _ := json.Marshal(map[string]any{
		"token":    token,
		"guest":    identity.IsGuest,
		"username": identity.Username,
	})
	resp, err := client.Post(baseURL+"/api/queue/join", "application/json", bytes.NewReader(body))
	if err != nil {
		return joinResult{}, err
	}
	var joined queueResponse
	err = json.NewDecoder(resp.Body).Decode(&joined)
	resp.Body.Close()
	if err != nil {
		return joinResult{}, err
	}
	if !joined.Success {
		return joinResult{}, fmt.Errorf("queue join rejected: %s", joined.Error)
	}
	if joined.Result.Status == "matched" {
		return joined.Result, nil
	}

	// The join response carries the service-assigned user ID; poll under it.
	assignedID := joined.Result.UserID

	log.Println("Waiting for an opponent...")
	for {
		time.Sleep(time.Second)

		url := fmt.Sprintf("%s/api/queue/status?userId=%d", baseURL, assignedID)
		resp, err := client.Get(url)
		if err != nil {
			return joinResult{}, err
		}
		var status queueResponse
		err = json.NewDecoder(resp.Body).Decode(&status)
		resp.Body.Close()
		if err != nil {
			return joinResult{}, err
		}
		if status.Result.Status == "matched" {
			if status.Result.UserID == 0 {
				status.Result.UserID = assignedID
			}
			return status.Result, nil
		}
	}
}

// readCommands drives the controller from stdin. Code is accumulated line
// by line and streamed on every edit, like an editor would.
func readCommands(ctx context.Context, ctrl *session.Controller, done chan struct{}) {
	var buffer strings.Builder
	scanner := bufio.NewScanner(os.Stdin)

	fmt.Println("Commands: lang <name> | type <code line> | reset | run | submit | view | quit")
	for scanner.Scan() {
		line := scanner.Text()
		cmd, arg, _ := strings.Cut(line, " ")

		var err error
		switch cmd {
		case "lang":
			err = ctrl.SetLanguage(ctx, arg)
			buffer.Reset()
		case "type":
			buffer.WriteString(arg)
			buffer.WriteString("\n")
			err = ctrl.UpdateCode(ctrl.Language(), buffer.String())
		case "reset":
			buffer.Reset()
			err = ctrl.UpdateCode(ctrl.Language(), "")
		case "run":
			err = ctrl.RunTests()
		case "submit":
			err = ctrl.Submit()
		case "view":
			printView(ctrl.View())
		case "quit":
			close(done)
			return
		case "":
		default:
			fmt.Printf("unknown command %q\n", cmd)
		}
		if err != nil {
			fmt.Printf("error: %v\n", err)
		}
	}
}

func printView(v session.View) {
	fmt.Printf("problem: %s (%s)\n", v.Problem.Title, v.Problem.Difficulty)
	fmt.Printf("opponent: %s (rating %d)\n", v.Opponent.Username, v.Opponent.Rating)
	for userID, lines := range v.LinesByUser {
		fmt.Printf("  user %d: %d lines, best %d/%d tests\n",
			userID, lines, v.TestsPassedByUser[userID], v.TotalTests)
	}
	fmt.Printf("submissions: %d\n", len(v.Submissions))
	if v.Result != nil {
		if v.Result.WinnerID != nil {
			fmt.Printf("match over, winner %d\n", *v.Result.WinnerID)
		} else {
			fmt.Println("match over, draw")
		}
	}
}

// terminalFrontend renders controller effects as plain terminal output.
type terminalFrontend struct {
	done chan struct{}
}

func (f *terminalFrontend) ShowMatchup(opponent domain.Opponent) {
	fmt.Printf("\n=== Matched against %s (rating %d) ===\n", opponent.Username, opponent.Rating)
}

func (f *terminalFrontend) FocusSubmissions() {
	fmt.Println("[submission recorded]")
}

func (f *terminalFrontend) ShowTestResults(userID int64, results []domain.TestResult) {
	fmt.Printf("test run for user %d:\n", userID)
	for i, r := range results {
		fmt.Printf("  #%d %s\n", i+1, r.Status)
	}
}

func (f *terminalFrontend) ShowFailure(result domain.ClassifiedResult) {
	fmt.Printf("submission failed: %s (%d/%d tests)\n", result.Kind, result.PassedCount, result.TotalCount)
	if result.PrimaryFailure != nil {
		fmt.Printf("  first failure: input=%q expected=%q got=%q\n",
			result.PrimaryFailure.Input, result.PrimaryFailure.ExpectedOutput, result.PrimaryFailure.UserOutput)
	}
}

func (f *terminalFrontend) ShowRateLimit(message string) {
	fmt.Printf("rate limited: %s\n", message)
}

func (f *terminalFrontend) ShowResult(result domain.MatchResult) {
	f.printOutcome(result)
}

func (f *terminalFrontend) ShowSignupPrompt(result domain.MatchResult) {
	f.printOutcome(result)
	fmt.Println("Enjoyed the match? Sign up to keep your rating.")
}

func (f *terminalFrontend) printOutcome(result domain.MatchResult) {
	if result.WinnerID != nil {
		fmt.Printf("\n=== Match over: winner is user %d ===\n", *result.WinnerID)
	} else {
		fmt.Println("\n=== Match over: draw ===")
	}
	for userID, change := range result.RatingChanges {
		fmt.Printf("  user %d: %d -> %d (%+d)\n", userID, change.Old, change.New, change.Delta)
	}
}

func (f *terminalFrontend) ReturnToMatchmaking(reason string) {
	fmt.Printf("session ended: %s\n", reason)
	select {
	case <-f.done:
	default:
		close(f.done)
	}
}
