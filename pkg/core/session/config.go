package session

import (
	"github.com/janahq/jana-core/pkg/core/types"
)

// State represents the current state of the voice session.
type State int

const (
	// StateIdle is the rest state; no capture or playback is active.
	StateIdle State = iota
	// StateListening is when the microphone is capturing user speech.
	StateListening
	// StateTranscribing is when captured audio is being transcribed.
	StateTranscribing
	// StateWaitingForAgent is when the agent is generating a response.
	StateWaitingForAgent
	// StateSpeaking is when synthesized audio is being played.
	StateSpeaking
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateListening:
		return "LISTENING"
	case StateTranscribing:
		return "TRANSCRIBING"
	case StateWaitingForAgent:
		return "WAITING_FOR_AGENT"
	case StateSpeaking:
		return "SPEAKING"
	default:
		return "UNKNOWN"
	}
}

// SilenceConfig configures end-of-turn silence detection.
type SilenceConfig struct {
	// Threshold is the RMS energy level below which audio is considered
	// silence. Range: 0.0 to 1.0. Default: 0.02.
	Threshold float64 `json:"threshold"`

	// DurationMs is how long the level must stay below Threshold before
	// the turn is committed. Default: 3000.
	DurationMs int `json:"duration_ms"`
}

// DefaultSilenceConfig returns a SilenceConfig with sensible defaults.
func DefaultSilenceConfig() SilenceConfig {
	return SilenceConfig{
		Threshold:  0.02,
		DurationMs: 3000,
	}
}

// Config holds all configuration for a voice session.
type Config struct {
	// Speaker is the synthesis voice. Default: types.DefaultSpeaker.
	Speaker string `json:"speaker"`

	// AutoRestart re-enters listening after playback completes, for a
	// hands-free back-and-forth conversation.
	AutoRestart bool `json:"auto_restart"`

	// Silence configures end-of-turn silence detection.
	Silence SilenceConfig `json:"silence"`

	// TakeoverGraceMs is how long playback keeps going after the user
	// starts a new capture over it, so a stray tap does not cut the
	// response mid-word. Default: 250.
	TakeoverGraceMs int `json:"takeover_grace_ms"`

	// LevelIntervalMs is how often the microphone level is sampled while
	// listening. Default: 16 (roughly 60Hz).
	LevelIntervalMs int `json:"level_interval_ms"`

	// Messages are any pre-existing conversation history.
	Messages []types.ChatMessage `json:"messages,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Speaker:         types.DefaultSpeaker,
		AutoRestart:     true,
		Silence:         DefaultSilenceConfig(),
		TakeoverGraceMs: 250,
		LevelIntervalMs: 16,
	}
}
