package reservation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/iamasit07/code-clash/client/internal/domain"
)

// Client exchanges a user identity for a one-time room handle issued by the
// matchmaking service. It keeps no local state: once a reservation is
// consumed (or the consumption fails) there is nothing to retain.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type consumeRequest struct {
	UserID int64 `json:"userId"`
}

type consumeResponse struct {
	Success     bool                `json:"success"`
	Reservation *domain.Reservation `json:"reservation,omitempty"`
}

// Consume redeems the outstanding reservation for userID. Single use: a
// second call for the same reservation fails with ErrReservationExpired.
// The caller must not retry; an expired reservation means re-entering
// matchmaking.
func (c *Client) Consume(ctx context.Context, userID int64) (domain.Reservation, error) {
	body, err := json.Marshal(consumeRequest{UserID: userID})
	if err != nil {
		return domain.Reservation{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/reservation/consume", bytes.NewReader(body))
	if err != nil {
		return domain.Reservation{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("consume reservation: %w", err)
	}
	defer resp.Body.Close()

	var parsed consumeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return domain.Reservation{}, fmt.Errorf("consume reservation: bad response: %w", err)
	}

	if !parsed.Success || parsed.Reservation == nil {
		return domain.Reservation{}, domain.ErrReservationExpired
	}

	return *parsed.Reservation, nil
}

// Clear releases any outstanding reservation for userID. Best effort:
// it is called on the failure path to avoid orphaning a reservation that
// can never be consumed, and its own failure is only logged.
func (c *Client) Clear(ctx context.Context, userID int64) {
	body, _ := json.Marshal(consumeRequest{UserID: userID})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/reservation/clear", bytes.NewReader(body))
	if err != nil {
		log.Printf("[RESERVATION] clear request for user %d: %v", userID, err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		log.Printf("[RESERVATION] clear for user %d: %v", userID, err)
		return
	}
	resp.Body.Close()
}
