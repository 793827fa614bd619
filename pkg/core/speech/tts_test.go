package speech

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	core "github.com/janahq/jana-core/pkg/core"
)

func TestSynthesize(t *testing.T) {
	audio := []byte("wav-bytes")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/tts" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req synthesizeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Text != "Port one is up." {
			t.Errorf("text = %q", req.Text)
		}
		if req.SpeakerID != "am_adam" {
			t.Errorf("speaker_id = %q, want am_adam", req.SpeakerID)
		}
		w.Write(audio)
	}))
	defer srv.Close()

	c := NewSynthesizeClient(srv.URL)
	got, err := c.Synthesize(context.Background(), "Port one is up.", "am_adam")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(got) != string(audio) {
		t.Errorf("audio = %q, want %q", got, audio)
	}
}

func TestSynthesizeUnknownSpeakerFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req synthesizeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.SpeakerID != "af_bella" {
			t.Errorf("speaker_id = %q, want default af_bella", req.SpeakerID)
		}
		w.Write([]byte("audio"))
	}))
	defer srv.Close()

	c := NewSynthesizeClient(srv.URL)
	if _, err := c.Synthesize(context.Background(), "hello", "unknown_voice"); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
}

func TestSynthesizeNormalizesText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req synthesizeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Text != "The H T T P session do not respond." {
			t.Errorf("text = %q, want normalized form", req.Text)
		}
		w.Write([]byte("audio"))
	}))
	defer srv.Close()

	c := NewSynthesizeClient(srv.URL)
	if _, err := c.Synthesize(context.Background(), "The HTTP session don't respond.", "af_bella"); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
}

func TestSynthesizeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "voice unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewSynthesizeClient(srv.URL)
	_, err := c.Synthesize(context.Background(), "hello", "af_bella")
	if err == nil {
		t.Fatal("expected error")
	}
	if !core.IsType(err, core.ErrSynthesisFailed) {
		t.Errorf("error type = %s, want synthesis_failed", core.TypeOf(err))
	}
}

func TestSynthesizeEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewSynthesizeClient(srv.URL)
	if _, err := c.Synthesize(context.Background(), "hello", "af_bella"); err == nil {
		t.Fatal("expected error for empty audio body")
	}
}
