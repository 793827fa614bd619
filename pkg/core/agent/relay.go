// Package agent holds the client for the task-execution service. The
// service answers over a server-sent event stream; the relay assembles
// the streamed chunks into one final reply.
package agent

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	core "github.com/janahq/jana-core/pkg/core"
	"github.com/janahq/jana-core/pkg/core/types"
)

// AssemblyMode controls how streamed chunks form the final reply.
type AssemblyMode string

const (
	// AssembleReplace treats each chunk as a complete snapshot of the
	// reply; the last one received wins. This matches a service that
	// streams progressively fuller results.
	AssembleReplace AssemblyMode = "replace"

	// AssembleAppend concatenates chunks, for a service that streams
	// partial tokens.
	AssembleAppend AssemblyMode = "append"
)

// Relay submits user tasks to the agent service and consumes its event
// stream.
type Relay struct {
	baseURL    string
	mode       AssemblyMode
	httpClient *http.Client
}

// NewRelay creates an agent relay for the given base URL. Chunks are
// assembled in replace mode by default.
func NewRelay(baseURL string) *Relay {
	return &Relay{
		baseURL:    strings.TrimRight(baseURL, "/"),
		mode:       AssembleReplace,
		httpClient: &http.Client{},
	}
}

// NewRelayWithClient creates an agent relay with a custom HTTP client.
func NewRelayWithClient(baseURL string, client *http.Client) *Relay {
	return &Relay{
		baseURL:    strings.TrimRight(baseURL, "/"),
		mode:       AssembleReplace,
		httpClient: client,
	}
}

// SetAssemblyMode changes how streamed chunks are assembled.
func (r *Relay) SetAssemblyMode(mode AssemblyMode) {
	if mode == AssembleAppend || mode == AssembleReplace {
		r.mode = mode
	}
}

type runTaskRequest struct {
	Task    string         `json:"task"`
	History []historyEntry `json:"history,omitempty"`
}

type historyEntry struct {
	Sender  string `json:"sender"`
	Content string `json:"content"`
}

// streamMessage is one decoded SSE data payload. Result chunks carry the
// reply; the completed marker terminates the stream.
type streamMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// Respond sends a task and the prior conversation to the agent and
// assembles the streamed reply. onUpdate receives each intermediate
// snapshot; it may be nil. Any failure is an AgentUnavailable error.
func (r *Relay) Respond(ctx context.Context, task string, history []types.ChatMessage, onUpdate func(partial string)) (string, error) {
	reqBody := runTaskRequest{Task: task}
	for _, m := range history {
		reqBody.History = append(reqBody.History, historyEntry{
			Sender:  string(m.Sender),
			Content: m.Content,
		})
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", core.WrapError(core.ErrAgentUnavailable, "encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/run_task", bytes.NewReader(payload))
	if err != nil {
		return "", core.WrapError(core.ErrAgentUnavailable, "create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", core.WrapError(core.ErrAgentUnavailable, "agent request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", core.NewError(core.ErrAgentUnavailable, "agent returned "+resp.Status)
	}

	var reply strings.Builder
	completed := false

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" {
			continue
		}

		var msg streamMessage
		if err := json.Unmarshal([]byte(data), &msg); err != nil {
			continue
		}

		if msg.Type == "Result" {
			text := strings.TrimSpace(msg.Message)
			if r.mode == AssembleReplace {
				reply.Reset()
			}
			reply.WriteString(text)
			if onUpdate != nil {
				onUpdate(reply.String())
			}
		}

		if msg.Status == "completed" {
			// Terminal marker: cancel the reader instead of waiting for
			// the server to close the stream.
			completed = true
			resp.Body.Close()
			break
		}
	}

	if err := scanner.Err(); err != nil && !completed {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", core.WrapError(core.ErrAgentUnavailable, "read stream", err)
	}

	final := reply.String()
	if final == "" {
		return "", core.NewError(core.ErrAgentUnavailable, "agent returned no reply")
	}

	return cleanReply(final), nil
}

// cleanReply unwraps a JSON-quoted reply one level and strips a markdown
// code fence if the whole reply is fenced.
func cleanReply(text string) string {
	var unwrapped string
	if err := json.Unmarshal([]byte(text), &unwrapped); err == nil {
		text = unwrapped
	}

	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "```") && strings.HasSuffix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimPrefix(trimmed, "markdown")
		trimmed = strings.TrimSuffix(trimmed, "```")
		return strings.TrimSpace(trimmed)
	}
	return strings.TrimSpace(text)
}
