package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	core "github.com/janahq/jana-core/pkg/core"
	"github.com/janahq/jana-core/pkg/core/types"
)

// SynthesizeClient submits reply text to the text-to-speech service and
// returns the raw audio payload.
type SynthesizeClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewSynthesizeClient creates a synthesis client for the given base URL.
func NewSynthesizeClient(baseURL string) *SynthesizeClient {
	return &SynthesizeClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

// NewSynthesizeClientWithClient creates a synthesis client with a custom
// HTTP client.
func NewSynthesizeClientWithClient(baseURL string, client *http.Client) *SynthesizeClient {
	return &SynthesizeClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

type synthesizeRequest struct {
	Text      string `json:"text"`
	SpeakerID string `json:"speaker_id"`
}

// Synthesize converts text into playable audio. The text is normalized
// for speech first; an unknown speaker falls back to the default voice.
// Any failure is a SynthesisFailed error.
func (c *SynthesizeClient) Synthesize(ctx context.Context, text, speaker string) ([]byte, error) {
	body, err := json.Marshal(synthesizeRequest{
		Text:      strings.TrimSpace(SpeakableText(text)),
		SpeakerID: types.NormalizeSpeaker(speaker),
	})
	if err != nil {
		return nil, core.WrapError(core.ErrSynthesisFailed, "encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tts", bytes.NewReader(body))
	if err != nil {
		return nil, core.WrapError(core.ErrSynthesisFailed, "create request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, core.WrapError(core.ErrSynthesisFailed, "synthesis request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return nil, core.NewError(core.ErrSynthesisFailed,
			"synthesis service returned "+resp.Status+": "+string(msg))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, core.WrapError(core.ErrSynthesisFailed, "read audio", err)
	}
	if len(audio) == 0 {
		return nil, core.NewError(core.ErrSynthesisFailed, "synthesis service returned no audio")
	}

	return audio, nil
}
