// Package transcript maintains the ordered message log of the active
// session and persists it: a synchronous local key-value snapshot on every
// append, plus a fire-and-forget upsert to the remote document store once
// the transcript has an identifier.
package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/janahq/jana-core/pkg/core/types"
	"github.com/janahq/jana-core/pkg/store/kv"
)

// titleLimit is how many characters of the first message become the
// default title.
const titleLimit = 50

// remoteTimeout bounds the background upsert so a dead document store
// cannot pile up goroutines.
const remoteTimeout = 10 * time.Second

// Remote is the document-store contract the transcript store writes
// through. A nil Remote disables remote persistence; the local snapshot
// still works.
type Remote interface {
	Create(ctx context.Context, userID, title string, messages []types.ChatMessage) (*types.Transcript, error)
	Upsert(ctx context.Context, t *types.Transcript) error
	Get(ctx context.Context, id string) (*types.Transcript, error)
}

// Store is the message log for one user's active session.
type Store struct {
	kv     kv.Store
	remote Remote
	userID string
	logger *slog.Logger

	mu       sync.Mutex
	id       string
	title    string
	messages []types.ChatMessage
	localAt  time.Time
}

// NewStore creates a transcript store for the given user.
func NewStore(kvStore kv.Store, remote Remote, userID string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		kv:     kvStore,
		remote: remote,
		userID: userID,
		logger: logger,
	}
}

// Restore reloads the active transcript identifier and message snapshot
// from local storage, picking up where the previous run left off.
func (s *Store) Restore() error {
	id, err := s.kv.Get(kv.KeyActiveTranscript)
	if err != nil {
		return fmt.Errorf("read active transcript: %w", err)
	}
	title, err := s.kv.Get(kv.KeyTranscriptTitle)
	if err != nil {
		return fmt.Errorf("read transcript title: %w", err)
	}
	raw, err := s.kv.Get(kv.KeyMessages)
	if err != nil {
		return fmt.Errorf("read message snapshot: %w", err)
	}

	var messages []types.ChatMessage
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &messages); err != nil {
			return fmt.Errorf("decode message snapshot: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = id
	s.title = title
	s.messages = messages
	return nil
}

// Messages returns a copy of the ordered message log.
func (s *Store) Messages() []types.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.ChatMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

// ActiveID returns the active transcript identifier, or "" for a fresh
// unsaved session.
func (s *Store) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// CreateIfNeeded persists a new transcript on the first message of a
// fresh session. A transcript with zero messages is never created; the
// call is a no-op when an identifier is already active.
func (s *Store) CreateIfNeeded(ctx context.Context, firstMessageText string) error {
	if s.remote == nil {
		return nil
	}

	s.mu.Lock()
	if s.id != "" {
		s.mu.Unlock()
		return nil
	}
	messages := make([]types.ChatMessage, len(s.messages))
	copy(messages, s.messages)
	s.mu.Unlock()

	created, err := s.remote.Create(ctx, s.userID, deriveTitle(firstMessageText), messages)
	if err != nil {
		return fmt.Errorf("create transcript: %w", err)
	}

	s.mu.Lock()
	s.id = created.ID
	s.title = created.Title
	s.mu.Unlock()

	if err := s.kv.Set(kv.KeyActiveTranscript, created.ID); err != nil {
		return fmt.Errorf("save active transcript: %w", err)
	}
	if err := s.kv.Set(kv.KeyTranscriptTitle, created.Title); err != nil {
		return fmt.Errorf("save transcript title: %w", err)
	}
	return nil
}

// Append adds a message to the log and persists: the local snapshot is
// written before returning; the remote upsert runs in the background and
// is not awaited by the next turn.
func (s *Store) Append(msg types.ChatMessage) error {
	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.localAt = time.Now().UTC()
	snapshot := make([]types.ChatMessage, len(s.messages))
	copy(snapshot, s.messages)
	id := s.id
	title := s.title
	localAt := s.localAt
	s.mu.Unlock()

	raw, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode message snapshot: %w", err)
	}
	if err := s.kv.Set(kv.KeyMessages, string(raw)); err != nil {
		return fmt.Errorf("save message snapshot: %w", err)
	}

	if id != "" && s.remote != nil {
		go s.upsertRemote(&types.Transcript{
			ID:           id,
			UserID:       s.userID,
			Title:        title,
			Messages:     snapshot,
			LocalSavedAt: localAt,
		})
	}
	return nil
}

// upsertRemote pushes the full transcript to the document store.
func (s *Store) upsertRemote(t *types.Transcript) {
	ctx, cancel := context.WithTimeout(context.Background(), remoteTimeout)
	defer cancel()

	if err := s.remote.Upsert(ctx, t); err != nil {
		s.logger.Warn("transcript upsert failed", "id", t.ID, "err", err)
	}
}

// Load replaces the in-memory log with a stored transcript and marks it
// active.
func (s *Store) Load(ctx context.Context, id string) error {
	if s.remote == nil {
		return fmt.Errorf("no document store configured")
	}
	t, err := s.remote.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("load transcript: %w", err)
	}

	s.mu.Lock()
	s.id = t.ID
	s.title = t.Title
	s.messages = append(s.messages[:0], t.Messages...)
	s.mu.Unlock()

	if err := s.kv.Set(kv.KeyActiveTranscript, t.ID); err != nil {
		return fmt.Errorf("save active transcript: %w", err)
	}
	if err := s.kv.Set(kv.KeyTranscriptTitle, t.Title); err != nil {
		return fmt.Errorf("save transcript title: %w", err)
	}

	raw, err := json.Marshal(t.Messages)
	if err != nil {
		return fmt.Errorf("encode message snapshot: %w", err)
	}
	return s.kv.Set(kv.KeyMessages, string(raw))
}

// Clear empties the log and starts a fresh, unsaved session.
func (s *Store) Clear() error {
	s.mu.Lock()
	s.id = ""
	s.title = ""
	s.messages = nil
	s.localAt = time.Time{}
	s.mu.Unlock()

	if err := s.kv.Set(kv.KeyActiveTranscript, ""); err != nil {
		return fmt.Errorf("clear active transcript: %w", err)
	}
	if err := s.kv.Set(kv.KeyTranscriptTitle, ""); err != nil {
		return fmt.Errorf("clear transcript title: %w", err)
	}
	return s.kv.Set(kv.KeyMessages, "")
}

// deriveTitle shortens the first message into a transcript title.
func deriveTitle(text string) string {
	runes := []rune(text)
	if len(runes) <= titleLimit {
		return text
	}
	return string(runes[:titleLimit])
}
