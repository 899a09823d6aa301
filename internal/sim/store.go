package sim

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/iamasit07/code-clash/client/internal/domain"
	"github.com/redis/go-redis/v9"
)

const reservationTTL = 60 * time.Second

// ReservationStore issues one-time reservations. Consume is atomic:
// exactly one consumer ever sees a given reservation.
type ReservationStore interface {
	Put(ctx context.Context, userID int64, res domain.Reservation) error
	Consume(ctx context.Context, userID int64) (*domain.Reservation, error)
	Clear(ctx context.Context, userID int64) error
}

// --- Redis-backed store ---

type redisReservationStore struct {
	client *redis.Client
}

// NewRedisReservationStore connects to Redis; when Redis is unreachable it
// falls back to the in-memory store rather than failing startup.
func NewRedisReservationStore(addr, password string) ReservationStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("[SIM] Warning: could not connect to Redis: %v. Using in-memory reservations.", err)
		client.Close()
		return NewMemoryReservationStore()
	}

	log.Println("[SIM] Redis reservation store connected")
	return &redisReservationStore{client: client}
}

func reservationKey(userID int64) string {
	return fmt.Sprintf("reservation:%d", userID)
}

func (s *redisReservationStore) Put(ctx context.Context, userID int64, res domain.Reservation) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, reservationKey(userID), payload, reservationTTL).Err()
}

// Consume uses GETDEL so a reservation can be redeemed exactly once.
func (s *redisReservationStore) Consume(ctx context.Context, userID int64) (*domain.Reservation, error) {
	payload, err := s.client.GetDel(ctx, reservationKey(userID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var res domain.Reservation
	if err := json.Unmarshal([]byte(payload), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *redisReservationStore) Clear(ctx context.Context, userID int64) error {
	return s.client.Del(ctx, reservationKey(userID)).Err()
}

// --- In-memory store ---

type memoryReservationStore struct {
	mu           sync.Mutex
	reservations map[int64]domain.Reservation
}

func NewMemoryReservationStore() ReservationStore {
	return &memoryReservationStore{reservations: make(map[int64]domain.Reservation)}
}

func (s *memoryReservationStore) Put(ctx context.Context, userID int64, res domain.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reservations[userID] = res
	return nil
}

func (s *memoryReservationStore) Consume(ctx context.Context, userID int64) (*domain.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, exists := s.reservations[userID]
	if !exists {
		return nil, nil
	}
	delete(s.reservations, userID)
	return &res, nil
}

func (s *memoryReservationStore) Clear(ctx context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.reservations, userID)
	return nil
}

// MatchArchive persists finished matches and submission history.
type MatchArchive interface {
	SaveMatch(matchID string, player1ID, player2ID int64, winnerID *int64, reason string,
		durationSeconds int, createdAt, finishedAt time.Time) error
	SaveSubmission(matchID string, userID int64, rec domain.SubmissionRecord) error
}

// --- Postgres archive ---

type postgresArchive struct {
	DB *sql.DB
}

// NewPostgresArchive opens the archive database. Caller decides whether a
// connection failure is fatal; the roomsim binary degrades to NopArchive.
func NewPostgresArchive(databaseURL string) (MatchArchive, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	if err := migrateArchive(db); err != nil {
		db.Close()
		return nil, err
	}
	return &postgresArchive{DB: db}, nil
}

func migrateArchive(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS matches (
		match_id TEXT PRIMARY KEY,
		player1_id BIGINT NOT NULL,
		player2_id BIGINT NOT NULL,
		winner_id BIGINT,
		reason TEXT NOT NULL,
		duration_seconds INT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ NOT NULL
	);
	CREATE TABLE IF NOT EXISTS submissions (
		match_id TEXT NOT NULL,
		user_id BIGINT NOT NULL,
		submitted_at BIGINT NOT NULL,
		language TEXT NOT NULL,
		code TEXT NOT NULL,
		passed BOOLEAN NOT NULL,
		test_results JSONB NOT NULL,
		PRIMARY KEY (match_id, user_id, submitted_at)
	);`
	_, err := db.Exec(schema)
	return err
}

// SaveMatch upserts the finished match record.
func (a *postgresArchive) SaveMatch(matchID string, player1ID, player2ID int64, winnerID *int64, reason string,
	durationSeconds int, createdAt, finishedAt time.Time) error {

	query := `
	INSERT INTO matches (match_id, player1_id, player2_id, winner_id, reason, duration_seconds, created_at, finished_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (match_id) DO UPDATE SET
		winner_id = EXCLUDED.winner_id,
		reason = EXCLUDED.reason,
		duration_seconds = EXCLUDED.duration_seconds,
		finished_at = EXCLUDED.finished_at;
	`
	_, err := a.DB.Exec(query, matchID, player1ID, player2ID, winnerID, reason, durationSeconds, createdAt, finishedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert match record: %v", err)
	}
	return nil
}

func (a *postgresArchive) SaveSubmission(matchID string, userID int64, rec domain.SubmissionRecord) error {
	results, err := json.Marshal(rec.TestResults)
	if err != nil {
		return fmt.Errorf("failed to marshal test results: %v", err)
	}

	query := `
	INSERT INTO submissions (match_id, user_id, submitted_at, language, code, passed, test_results)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (match_id, user_id, submitted_at) DO NOTHING;
	`
	_, err = a.DB.Exec(query, matchID, userID, rec.Timestamp, rec.Language, rec.Code, rec.Passed, results)
	if err != nil {
		return fmt.Errorf("failed to insert submission: %v", err)
	}
	return nil
}

// NopArchive discards everything. Used when no DATABASE_URL is configured.
type NopArchive struct{}

func (NopArchive) SaveMatch(string, int64, int64, *int64, string, int, time.Time, time.Time) error {
	return nil
}
func (NopArchive) SaveSubmission(string, int64, domain.SubmissionRecord) error { return nil }
