package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/janahq/jana-core/pkg/core/types"
	"github.com/janahq/jana-core/pkg/store/kv"
)

// fakeRemote is an in-memory document store.
type fakeRemote struct {
	mu        sync.Mutex
	nextID    int
	docs      map[string]*types.Transcript
	upserts   int
	createErr error
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{docs: make(map[string]*types.Transcript)}
}

func (f *fakeRemote) Create(_ context.Context, userID, title string, messages []types.ChatMessage) (*types.Transcript, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	t := &types.Transcript{
		ID:       fmt.Sprintf("t-%d", f.nextID),
		UserID:   userID,
		Title:    title,
		Messages: append([]types.ChatMessage(nil), messages...),
		SavedAt:  time.Now().UTC(),
	}
	f.docs[t.ID] = t
	return t, nil
}

func (f *fakeRemote) Upsert(_ context.Context, t *types.Transcript) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	stored := *t
	stored.Messages = append([]types.ChatMessage(nil), t.Messages...)
	f.docs[t.ID] = &stored
	return nil
}

func (f *fakeRemote) Get(_ context.Context, id string) (*types.Transcript, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.docs[id]
	if !ok {
		return nil, fmt.Errorf("transcript not found")
	}
	out := *t
	out.Messages = append([]types.ChatMessage(nil), t.Messages...)
	return &out, nil
}

func (f *fakeRemote) upsertCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.upserts
}

func newTestStore(t *testing.T) (*Store, *fakeRemote, kv.Store) {
	t.Helper()
	remote := newFakeRemote()
	kvStore := kv.NewMemoryStore()
	return NewStore(kvStore, remote, "user-1", nil), remote, kvStore
}

func TestAppendPreservesOrder(t *testing.T) {
	s, _, _ := newTestStore(t)

	for i := 0; i < 5; i++ {
		msg := types.NewUserMessage(fmt.Sprintf("message %d", i))
		if i%2 == 1 {
			msg = types.NewAssistantMessage(fmt.Sprintf("message %d", i))
		}
		if err := s.Append(msg); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	msgs := s.Messages()
	if len(msgs) != 5 {
		t.Fatalf("got %d messages, want 5", len(msgs))
	}
	for i, m := range msgs {
		if m.Content != fmt.Sprintf("message %d", i) {
			t.Errorf("messages[%d] = %q, out of order", i, m.Content)
		}
	}
}

func TestAppendWritesLocalSnapshot(t *testing.T) {
	s, _, kvStore := newTestStore(t)

	if err := s.Append(types.NewUserMessage("hello")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	raw, err := kvStore.Get(kv.KeyMessages)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	var snapshot []types.ChatMessage
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if len(snapshot) != 1 || snapshot[0].Content != "hello" {
		t.Errorf("snapshot = %+v", snapshot)
	}
}

func TestCreateIfNeeded(t *testing.T) {
	s, remote, kvStore := newTestStore(t)

	long := strings.Repeat("x", 80)
	if err := s.CreateIfNeeded(context.Background(), long); err != nil {
		t.Fatalf("CreateIfNeeded: %v", err)
	}

	id := s.ActiveID()
	if id == "" {
		t.Fatal("no active id after create")
	}

	remote.mu.Lock()
	created := remote.docs[id]
	remote.mu.Unlock()
	if len(created.Title) != 50 {
		t.Errorf("title length = %d, want 50", len(created.Title))
	}

	stored, _ := kvStore.Get(kv.KeyActiveTranscript)
	if stored != id {
		t.Errorf("stored active id = %q, want %q", stored, id)
	}

	// Second call is a no-op.
	if err := s.CreateIfNeeded(context.Background(), "other"); err != nil {
		t.Fatalf("CreateIfNeeded: %v", err)
	}
	if s.ActiveID() != id {
		t.Error("active id changed on second create")
	}
}

func TestAppendUpsertsRemoteWhenActive(t *testing.T) {
	s, remote, _ := newTestStore(t)

	if err := s.CreateIfNeeded(context.Background(), "hello"); err != nil {
		t.Fatalf("CreateIfNeeded: %v", err)
	}
	if err := s.Append(types.NewUserMessage("hello")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	// The upsert is fire-and-forget; wait for it to land.
	deadline := time.Now().Add(2 * time.Second)
	for remote.upsertCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("remote upsert never happened")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestAppendWithoutActiveIDSkipsRemote(t *testing.T) {
	s, remote, _ := newTestStore(t)

	if err := s.Append(types.NewUserMessage("hello")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	time.Sleep(20 * time.Millisecond)
	if got := remote.upsertCount(); got != 0 {
		t.Errorf("upserts = %d, want 0 for unsaved session", got)
	}
}

func TestLoadRoundTrip(t *testing.T) {
	s, remote, _ := newTestStore(t)

	if err := s.CreateIfNeeded(context.Background(), "first question"); err != nil {
		t.Fatalf("CreateIfNeeded: %v", err)
	}
	if err := s.Append(types.NewUserMessage("first question")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := s.Append(types.NewAssistantMessage("first answer")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	id := s.ActiveID()

	// The upsert is fire-and-forget; wait for both messages to land
	// remotely before reloading into a fresh store.
	deadline := time.Now().Add(2 * time.Second)
	for {
		fresh := NewStore(kv.NewMemoryStore(), remote, "user-1", nil)
		if err := fresh.Load(context.Background(), id); err == nil {
			msgs := fresh.Messages()
			if len(msgs) == 2 {
				if msgs[0].Content != "first question" || msgs[1].Content != "first answer" {
					t.Errorf("loaded messages = %+v", msgs)
				}
				if fresh.ActiveID() != id {
					t.Errorf("active id = %q, want %q", fresh.ActiveID(), id)
				}
				return
			}
		}
		if time.Now().After(deadline) {
			t.Fatal("loaded transcript never reached 2 messages")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRestorePreservesTitleOnUpsert(t *testing.T) {
	remote := newFakeRemote()
	kvStore := kv.NewMemoryStore()

	s := NewStore(kvStore, remote, "user-1", nil)
	if err := s.CreateIfNeeded(context.Background(), "how are the uplinks"); err != nil {
		t.Fatalf("CreateIfNeeded: %v", err)
	}
	if err := s.Append(types.NewUserMessage("how are the uplinks")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	id := s.ActiveID()

	// A new process restores from the same local store and keeps
	// appending; its upserts must not blank the remote title.
	fresh := NewStore(kvStore, remote, "user-1", nil)
	if err := fresh.Restore(); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if err := fresh.Append(types.NewAssistantMessage("both uplinks are up")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		remote.mu.Lock()
		doc := remote.docs[id]
		done := doc != nil && len(doc.Messages) == 2
		title := ""
		if doc != nil {
			title = doc.Title
		}
		remote.mu.Unlock()

		if done {
			if title != "how are the uplinks" {
				t.Errorf("remote title = %q after restored append, want preserved", title)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("restored append never reached the remote")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestClearStartsFreshSession(t *testing.T) {
	s, _, kvStore := newTestStore(t)

	if err := s.CreateIfNeeded(context.Background(), "hello"); err != nil {
		t.Fatalf("CreateIfNeeded: %v", err)
	}
	if err := s.Append(types.NewUserMessage("hello")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	if s.ActiveID() != "" {
		t.Error("active id survived clear")
	}
	if len(s.Messages()) != 0 {
		t.Error("messages survived clear")
	}
	if v, _ := kvStore.Get(kv.KeyActiveTranscript); v != "" {
		t.Errorf("stored active id = %q, want cleared", v)
	}
	if v, _ := kvStore.Get(kv.KeyMessages); v != "" {
		t.Errorf("stored snapshot = %q, want cleared", v)
	}
}

func TestRestore(t *testing.T) {
	kvStore := kv.NewMemoryStore()
	raw, _ := json.Marshal([]types.ChatMessage{
		types.NewUserMessage("restored question"),
		types.NewAssistantMessage("restored answer"),
	})
	_ = kvStore.Set(kv.KeyMessages, string(raw))
	_ = kvStore.Set(kv.KeyActiveTranscript, "t-9")

	s := NewStore(kvStore, newFakeRemote(), "user-1", nil)
	if err := s.Restore(); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	if s.ActiveID() != "t-9" {
		t.Errorf("active id = %q, want t-9", s.ActiveID())
	}
	msgs := s.Messages()
	if len(msgs) != 2 || msgs[0].Content != "restored question" {
		t.Errorf("messages = %+v", msgs)
	}
}
