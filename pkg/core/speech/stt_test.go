package speech

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	core "github.com/janahq/jana-core/pkg/core"
)

func TestTranscribe(t *testing.T) {
	wav := []byte("RIFF-payload")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/transcribe" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		file, header, err := r.FormFile("audio")
		if err != nil {
			t.Fatalf("FormFile: %v", err)
		}
		defer file.Close()
		if header.Filename != "recording.wav" {
			t.Errorf("filename = %q, want recording.wav", header.Filename)
		}
		got, _ := io.ReadAll(file)
		if string(got) != string(wav) {
			t.Errorf("audio payload = %q, want %q", got, wav)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"transcription": "  show me port one  "}`))
	}))
	defer srv.Close()

	c := NewTranscribeClient(srv.URL)
	text, err := c.Transcribe(context.Background(), wav)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "show me port one" {
		t.Errorf("transcript = %q, want trimmed text", text)
	}
}

func TestTranscribeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewTranscribeClient(srv.URL)
	_, err := c.Transcribe(context.Background(), []byte("audio"))
	if err == nil {
		t.Fatal("expected error")
	}
	if !core.IsType(err, core.ErrTranscriptionFailed) {
		t.Errorf("error type = %s, want transcription_failed", core.TypeOf(err))
	}
}

func TestTranscribeConnectionRefused(t *testing.T) {
	c := NewTranscribeClient("http://127.0.0.1:1")
	_, err := c.Transcribe(context.Background(), []byte("audio"))
	if err == nil {
		t.Fatal("expected error")
	}
	if !core.IsType(err, core.ErrTranscriptionFailed) {
		t.Errorf("error type = %s, want transcription_failed", core.TypeOf(err))
	}
}
