// Package speech holds the HTTP clients for the transcription and
// synthesis services, plus the spoken-text normalization applied before
// synthesis.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	core "github.com/janahq/jana-core/pkg/core"
)

// TranscribeClient submits finalized recordings to the speech-to-text
// service.
type TranscribeClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewTranscribeClient creates a transcription client for the given base
// URL.
func NewTranscribeClient(baseURL string) *TranscribeClient {
	return &TranscribeClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

// NewTranscribeClientWithClient creates a transcription client with a
// custom HTTP client.
func NewTranscribeClientWithClient(baseURL string, client *http.Client) *TranscribeClient {
	return &TranscribeClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

type transcribeResponse struct {
	Transcription string `json:"transcription"`
}

// Transcribe sends a WAV payload and returns the trimmed transcript. One
// attempt per turn; any failure is a TranscriptionFailed error.
func (c *TranscribeClient) Transcribe(ctx context.Context, wav []byte) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fw, err := mw.CreateFormFile("audio", "recording.wav")
	if err != nil {
		return "", core.WrapError(core.ErrTranscriptionFailed, "create form file", err)
	}
	if _, err := fw.Write(wav); err != nil {
		return "", core.WrapError(core.ErrTranscriptionFailed, "write audio data", err)
	}
	if err := mw.Close(); err != nil {
		return "", core.WrapError(core.ErrTranscriptionFailed, "close multipart writer", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transcribe", &buf)
	if err != nil {
		return "", core.WrapError(core.ErrTranscriptionFailed, "create request", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", core.WrapError(core.ErrTranscriptionFailed, "transcription request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", core.NewError(core.ErrTranscriptionFailed,
			"transcription service returned "+resp.Status+": "+string(body))
	}

	var out transcribeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", core.WrapError(core.ErrTranscriptionFailed, "parse response", err)
	}

	return strings.TrimSpace(out.Transcription), nil
}
