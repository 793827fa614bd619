package session

import (
	core "github.com/janahq/jana-core/pkg/core"
	"github.com/janahq/jana-core/pkg/core/types"
)

// Event is the interface for all session events.
type Event interface {
	// EventType returns the event type string for serialization.
	EventType() string
}

// StateChangedEvent is emitted when the session state changes.
type StateChangedEvent struct {
	From State `json:"from"`
	To   State `json:"to"`
}

func (e *StateChangedEvent) EventType() string { return "state.changed" }

// ListeningStartedEvent is emitted when microphone capture begins.
type ListeningStartedEvent struct{}

func (e *ListeningStartedEvent) EventType() string { return "listening.started" }

// SilenceDetectedEvent is emitted when the silence detector commits a turn.
type SilenceDetectedEvent struct {
	DurationMs int `json:"duration_ms"`
}

func (e *SilenceDetectedEvent) EventType() string { return "silence.detected" }

// TranscriptReadyEvent is emitted when transcription of a turn completes.
type TranscriptReadyEvent struct {
	Text string `json:"text"`
}

func (e *TranscriptReadyEvent) EventType() string { return "transcript.ready" }

// EmptyTranscriptEvent is emitted when a turn transcribes to nothing.
// The session returns to idle without contacting the agent.
type EmptyTranscriptEvent struct{}

func (e *EmptyTranscriptEvent) EventType() string { return "transcript.empty" }

// MessageAppendedEvent is emitted when a message joins the conversation.
type MessageAppendedEvent struct {
	Message types.ChatMessage `json:"message"`
}

func (e *MessageAppendedEvent) EventType() string { return "message.appended" }

// AgentDeltaEvent is emitted as the in-flight agent response updates.
type AgentDeltaEvent struct {
	Text string `json:"text"`
}

func (e *AgentDeltaEvent) EventType() string { return "agent.delta" }

// AgentDoneEvent is emitted when the agent response is final.
type AgentDoneEvent struct {
	Text string `json:"text"`
}

func (e *AgentDoneEvent) EventType() string { return "agent.done" }

// SpeakingStartedEvent is emitted when playback of the response begins.
type SpeakingStartedEvent struct {
	Speaker string `json:"speaker"`
}

func (e *SpeakingStartedEvent) EventType() string { return "speaking.started" }

// PlaybackFinishedEvent is emitted when playback drains naturally.
type PlaybackFinishedEvent struct {
	AutoRestart bool `json:"auto_restart"`
}

func (e *PlaybackFinishedEvent) EventType() string { return "playback.finished" }

// InterruptedEvent is emitted when an interrupt halts the pipeline.
type InterruptedEvent struct{}

func (e *InterruptedEvent) EventType() string { return "interrupted" }

// SessionClosedEvent is emitted when the session ends.
type SessionClosedEvent struct {
	Reason string `json:"reason,omitempty"`
}

func (e *SessionClosedEvent) EventType() string { return "session.closed" }

// ErrorEvent is emitted when a pipeline stage fails. The session has
// already recovered to idle by the time this is observed.
type ErrorEvent struct {
	Code    core.ErrorType `json:"code"`
	Message string         `json:"message"`
}

func (e *ErrorEvent) EventType() string { return "error" }
