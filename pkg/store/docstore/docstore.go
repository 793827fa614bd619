// Package docstore persists transcripts per user in Postgres. Listing is
// ordered by save time descending with keyset cursor pagination.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/janahq/jana-core/pkg/core/types"
)

// PageSize is the number of transcripts returned per List page.
const PageSize = 30

// ErrNotFound is returned when a transcript identifier does not exist.
var ErrNotFound = errors.New("transcript not found")

// Store is the Postgres-backed transcript store.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to the database, runs pending migrations, and returns the
// store.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := Migrate(ctx, databaseURL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Create inserts a new transcript and returns it with the assigned
// identifier and save timestamp.
func (s *Store) Create(ctx context.Context, userID, title string, messages []types.ChatMessage) (*types.Transcript, error) {
	payload, err := json.Marshal(messages)
	if err != nil {
		return nil, fmt.Errorf("encode messages: %w", err)
	}

	t := &types.Transcript{
		ID:       uuid.NewString(),
		UserID:   userID,
		Title:    title,
		Messages: messages,
		SavedAt:  time.Now().UTC(),
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO transcripts (id, user_id, title, messages, saved_at)
		VALUES ($1, $2, $3, $4, $5)
	`, t.ID, t.UserID, t.Title, payload, t.SavedAt)
	if err != nil {
		return nil, fmt.Errorf("insert transcript: %w", err)
	}

	return t, nil
}

// Upsert replaces a transcript's messages and title wholesale and bumps
// its save timestamp.
func (s *Store) Upsert(ctx context.Context, t *types.Transcript) error {
	payload, err := json.Marshal(t.Messages)
	if err != nil {
		return fmt.Errorf("encode messages: %w", err)
	}

	savedAt := time.Now().UTC()
	_, err = s.pool.Exec(ctx, `
		INSERT INTO transcripts (id, user_id, title, messages, saved_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			title    = excluded.title,
			messages = excluded.messages,
			saved_at = excluded.saved_at
	`, t.ID, t.UserID, t.Title, payload, savedAt)
	if err != nil {
		return fmt.Errorf("upsert transcript: %w", err)
	}

	t.SavedAt = savedAt
	return nil
}

// Get loads a transcript by identifier.
func (s *Store) Get(ctx context.Context, id string) (*types.Transcript, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, user_id, title, messages, saved_at
		FROM transcripts
		WHERE id = $1
	`, id)

	t, err := scanTranscript(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get transcript: %w", err)
	}
	return t, nil
}

// Delete removes a transcript by identifier.
func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM transcripts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete transcript: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns one page of a user's transcripts, newest first. Pass the
// cursor from the previous page to continue; an empty next cursor means
// the listing is exhausted.
func (s *Store) List(ctx context.Context, userID, cursor string) ([]types.Transcript, string, error) {
	var rows pgx.Rows
	var err error

	if cursor == "" {
		rows, err = s.pool.Query(ctx, `
			SELECT id, user_id, title, messages, saved_at
			FROM transcripts
			WHERE user_id = $1
			ORDER BY saved_at DESC, id DESC
			LIMIT $2
		`, userID, PageSize+1)
	} else {
		var c pageCursor
		c, err = decodeCursor(cursor)
		if err != nil {
			return nil, "", fmt.Errorf("decode cursor: %w", err)
		}
		rows, err = s.pool.Query(ctx, `
			SELECT id, user_id, title, messages, saved_at
			FROM transcripts
			WHERE user_id = $1
			  AND (saved_at, id) < ($2, $3)
			ORDER BY saved_at DESC, id DESC
			LIMIT $4
		`, userID, c.SavedAt, c.ID, PageSize+1)
	}
	if err != nil {
		return nil, "", fmt.Errorf("list transcripts: %w", err)
	}
	defer rows.Close()

	var out []types.Transcript
	for rows.Next() {
		t, err := scanTranscript(rows)
		if err != nil {
			return nil, "", fmt.Errorf("scan transcript: %w", err)
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("list transcripts: %w", err)
	}

	var next string
	if len(out) > PageSize {
		out = out[:PageSize]
		last := out[len(out)-1]
		next = encodeCursor(pageCursor{SavedAt: last.SavedAt, ID: last.ID})
	}
	return out, next, nil
}

// rowScanner is satisfied by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTranscript(row rowScanner) (*types.Transcript, error) {
	var t types.Transcript
	var payload []byte
	if err := row.Scan(&t.ID, &t.UserID, &t.Title, &payload, &t.SavedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payload, &t.Messages); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	return &t, nil
}
