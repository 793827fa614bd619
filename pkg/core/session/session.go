// Package session orchestrates the voice interaction loop: capture user
// speech, transcribe it, relay it to the agent, synthesize the reply, and
// play it back. The session is the sole owner of the capture and playback
// handles; callers drive it through StartListening, StopListening,
// Interrupt, and SendText, and observe it through the Events channel.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	core "github.com/janahq/jana-core/pkg/core"
	"github.com/janahq/jana-core/pkg/core/audio"
	"github.com/janahq/jana-core/pkg/core/types"
)

// Transcriber converts a WAV recording into text.
type Transcriber interface {
	Transcribe(ctx context.Context, wav []byte) (string, error)
}

// Responder sends a user task to the agent and returns the final reply.
// onUpdate is called with each intermediate snapshot of the reply as the
// agent streams; it may be nil.
type Responder interface {
	Respond(ctx context.Context, task string, history []types.ChatMessage, onUpdate func(partial string)) (string, error)
}

// Synthesizer converts reply text into playable WAV audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, speaker string) ([]byte, error)
}

// Session is the orchestrator for a voice conversation.
type Session struct {
	config Config
	logger *slog.Logger

	recorder audio.Recorder
	player   audio.Player
	stt      Transcriber
	agent    Responder
	tts      Synthesizer

	mu        sync.RWMutex
	state     State
	speaker   string
	messages  []types.ChatMessage
	silence   *SilenceDetector
	onMessage func(types.ChatMessage)

	events chan Event
	done   chan struct{}
	closed atomic.Bool

	ctx          context.Context
	cancel       context.CancelFunc
	turnCancel   context.CancelFunc
	listenCancel context.CancelFunc
}

// New creates a voice session. The recorder and player become owned by the
// session; nothing else may touch them while the session is open.
func New(config Config, recorder audio.Recorder, player audio.Player, stt Transcriber, agent Responder, tts Synthesizer, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	if config.LevelIntervalMs <= 0 {
		config.LevelIntervalMs = 16
	}

	s := &Session{
		config:   config,
		logger:   logger,
		recorder: recorder,
		player:   player,
		stt:      stt,
		agent:    agent,
		tts:      tts,
		state:    StateIdle,
		speaker:  types.NormalizeSpeaker(config.Speaker),
		messages: make([]types.ChatMessage, 0),
		events:   make(chan Event, 100),
		done:     make(chan struct{}),
	}
	if len(config.Messages) > 0 {
		s.messages = append(s.messages, config.Messages...)
	}
	s.silence = NewSilenceDetector(config.Silence, s.onSilence)
	return s
}

// Start binds the session to a context. Must be called before any other
// operation.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx != nil {
		return fmt.Errorf("session already started")
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	return nil
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Events returns the channel for receiving session events.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Messages returns a copy of the conversation so far.
func (s *Session) Messages() []types.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.ChatMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

// SetSpeaker changes the synthesis voice for subsequent turns. Unknown
// names fall back to the default speaker.
func (s *Session) SetSpeaker(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.speaker = types.NormalizeSpeaker(name)
}

// SetAutoRestart toggles hands-free mode for subsequent turns.
func (s *Session) SetAutoRestart(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config.AutoRestart = on
}

// SetMessageHandler registers a callback invoked synchronously for every
// message appended to the conversation. Unlike the events channel, the
// handler is never dropped; persistence hangs off it.
func (s *Session) SetMessageHandler(fn func(types.ChatMessage)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onMessage = fn
}

// StartListening begins capturing user speech. Starting over an in-flight
// response is a takeover: capture begins immediately and, after a short
// grace window, the pending agent work and playback are cancelled.
func (s *Session) StartListening() error {
	if s.closed.Load() {
		return fmt.Errorf("session closed")
	}

	s.mu.Lock()
	state := s.state
	s.mu.Unlock()

	switch state {
	case StateListening:
		return fmt.Errorf("already listening")
	case StateTranscribing:
		return fmt.Errorf("previous turn still transcribing")
	case StateSpeaking, StateWaitingForAgent:
		// Cancel the turn that is in flight right now, not whichever turn
		// is current when the timer fires.
		s.mu.Lock()
		cancelStale := s.turnCancel
		s.turnCancel = nil
		s.mu.Unlock()

		grace := time.Duration(s.config.TakeoverGraceMs) * time.Millisecond
		time.AfterFunc(grace, func() {
			if s.closed.Load() {
				return
			}
			if cancelStale != nil {
				cancelStale()
			}
			s.player.Stop()
		})
	}

	return s.beginListening()
}

// beginListening acquires the microphone and arms silence detection.
func (s *Session) beginListening() error {
	if err := s.recorder.Start(); err != nil {
		s.fail(err)
		return err
	}

	pumpCtx, pumpCancel := context.WithCancel(s.ctx)

	s.mu.Lock()
	s.listenCancel = pumpCancel
	s.mu.Unlock()

	s.silence.Begin()
	go s.levelPump(pumpCtx)

	s.setState(StateListening)
	s.emit(&ListeningStartedEvent{})
	return nil
}

// levelPump samples the microphone level and feeds the silence detector.
func (s *Session) levelPump(ctx context.Context) {
	ticker := time.NewTicker(time.Duration(s.config.LevelIntervalMs) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-ticker.C:
			s.silence.AddSample(s.recorder.Level())
		}
	}
}

// onSilence is the silence detector callback. It commits the turn.
func (s *Session) onSilence(durationMs int) {
	s.emit(&SilenceDetectedEvent{DurationMs: durationMs})
	if err := s.StopListening(); err != nil {
		s.logger.Debug("silence commit skipped", "err", err)
	}
}

// StopListening finalizes the capture and processes the turn. It is the
// manual commit; the silence detector calls it as well.
func (s *Session) StopListening() error {
	if s.closed.Load() {
		return fmt.Errorf("session closed")
	}

	s.mu.Lock()
	if s.state != StateListening {
		s.mu.Unlock()
		return fmt.Errorf("not listening")
	}
	if s.listenCancel != nil {
		s.listenCancel()
		s.listenCancel = nil
	}
	s.mu.Unlock()

	s.silence.Cancel()

	wav, err := s.recorder.Stop()
	if err != nil {
		s.fail(err)
		return err
	}

	turnCtx := s.newTurnContext()
	s.setState(StateTranscribing)
	go s.processRecording(turnCtx, wav)
	return nil
}

// processRecording transcribes a finished capture and hands the text to
// the agent turn. An interrupted turn is abandoned without appending
// anything.
func (s *Session) processRecording(ctx context.Context, wav []byte) {
	text, err := s.stt.Transcribe(ctx, wav)
	if ctx.Err() != nil {
		s.logger.Debug("transcription abandoned")
		return
	}
	if err != nil {
		s.fail(err)
		return
	}

	s.emit(&TranscriptReadyEvent{Text: text})

	if text == "" {
		s.emit(&EmptyTranscriptEvent{})
		s.setState(StateIdle)
		return
	}

	s.runTurn(ctx, text)
}

// SendText submits a typed message as a complete user turn, bypassing
// capture and transcription.
func (s *Session) SendText(text string) error {
	if s.closed.Load() {
		return fmt.Errorf("session closed")
	}
	if text == "" {
		return fmt.Errorf("text cannot be empty")
	}

	s.mu.Lock()
	state := s.state
	s.mu.Unlock()
	if state != StateIdle {
		return fmt.Errorf("cannot send text in state %s", state)
	}

	go s.runTurn(s.newTurnContext(), text)
	return nil
}

// runTurn relays a user task to the agent, then speaks the reply. ctx is
// the turn's own context; Interrupt, Close, and a takeover cancel it.
func (s *Session) runTurn(ctx context.Context, task string) {
	if ctx.Err() != nil {
		return
	}

	s.mu.Lock()
	history := make([]types.ChatMessage, len(s.messages))
	copy(history, s.messages)
	s.mu.Unlock()

	s.appendMessage(types.NewUserMessage(task))
	s.setState(StateWaitingForAgent)

	reply, err := s.agent.Respond(ctx, task, history, func(partial string) {
		s.emit(&AgentDeltaEvent{Text: partial})
	})
	if err != nil {
		if ctx.Err() != nil {
			s.logger.Debug("agent turn cancelled")
			return
		}
		// The failure stays visible in the transcript as an assistant turn.
		s.appendMessage(types.NewAssistantMessage(agentErrorReply))
		s.fail(err)
		return
	}

	// A takeover or interrupt may have moved the session on while the
	// agent was replying; the reply is stale then and must not stomp the
	// new state.
	if !s.transitionFrom(StateWaitingForAgent, StateSpeaking) {
		s.logger.Debug("stale agent reply dropped")
		return
	}

	s.emit(&AgentDoneEvent{Text: reply})
	s.appendMessage(types.NewAssistantMessage(reply))

	s.mu.RLock()
	speaker := s.speaker
	s.mu.RUnlock()
	s.emit(&SpeakingStartedEvent{Speaker: speaker})

	// A synthesis or playback failure ends the turn without audio; the
	// reply text is already in the transcript.
	wav, err := s.tts.Synthesize(ctx, reply, speaker)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.fail(err)
		return
	}

	if err := s.player.Play(wav, s.onPlaybackComplete); err != nil {
		s.fail(err)
	}
}

// appendMessage adds a message to the conversation, hands it to the
// registered handler, and emits the append event.
func (s *Session) appendMessage(msg types.ChatMessage) {
	s.mu.Lock()
	s.messages = append(s.messages, msg)
	handler := s.onMessage
	s.mu.Unlock()

	if handler != nil {
		handler(msg)
	}
	s.emit(&MessageAppendedEvent{Message: msg})
}

// agentErrorReply is what the transcript shows when the agent cannot be
// reached.
const agentErrorReply = "Sorry, I couldn't get a response from the assistant. Please try again."

// onPlaybackComplete runs when playback drains naturally. In hands-free
// mode the session goes straight back to listening.
func (s *Session) onPlaybackComplete() {
	if s.closed.Load() {
		return
	}

	s.mu.RLock()
	autoRestart := s.config.AutoRestart
	state := s.state
	s.mu.RUnlock()

	// A takeover or interrupt may have moved the session on already.
	if state != StateSpeaking {
		return
	}

	s.emit(&PlaybackFinishedEvent{AutoRestart: autoRestart})

	if autoRestart {
		if err := s.StartListening(); err != nil {
			s.logger.Debug("auto restart failed", "err", err)
			s.setState(StateIdle)
		}
		return
	}
	s.setState(StateIdle)
}

// Interrupt halts everything in flight and returns the session to idle.
// It is safe to call at any time, repeatedly, from any state.
func (s *Session) Interrupt() {
	if s.closed.Load() {
		return
	}

	s.cancelTurn()
	s.player.Stop()
	s.silence.Cancel()

	s.mu.Lock()
	if s.listenCancel != nil {
		s.listenCancel()
		s.listenCancel = nil
	}
	wasIdle := s.state == StateIdle
	s.mu.Unlock()

	if s.recorder.Recording() {
		// Discard the capture; an interrupted turn is never transcribed.
		if _, err := s.recorder.Stop(); err != nil {
			s.logger.Debug("interrupt capture stop", "err", err)
		}
	}

	if !wasIdle {
		s.emit(&InterruptedEvent{})
	}
	s.setState(StateIdle)
}

// Close shuts down the session.
func (s *Session) Close() error {
	if s.closed.Swap(true) {
		return nil
	}

	s.cancelTurn()
	s.silence.Cancel()
	s.player.Stop()
	if s.recorder.Recording() {
		_, _ = s.recorder.Stop()
	}

	s.mu.Lock()
	if s.listenCancel != nil {
		s.listenCancel()
		s.listenCancel = nil
	}
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	close(s.done)
	s.emit(&SessionClosedEvent{Reason: "closed"})
	close(s.events)
	return nil
}

// newTurnContext cancels any in-flight turn and returns a fresh context
// covering the next one, from transcription through playback.
func (s *Session) newTurnContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.turnCancel != nil {
		s.turnCancel()
	}
	ctx, cancel := context.WithCancel(s.ctx)
	s.turnCancel = cancel
	return ctx
}

// cancelTurn cancels the current turn, if any.
func (s *Session) cancelTurn() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.turnCancel != nil {
		s.turnCancel()
		s.turnCancel = nil
	}
}

// fail recovers from a pipeline error: everything stops and the session
// returns to idle with an error event. No stage retries.
func (s *Session) fail(err error) {
	s.logger.Warn("pipeline error", "type", core.TypeOf(err), "err", err)
	s.emit(&ErrorEvent{
		Code:    core.TypeOf(err),
		Message: err.Error(),
	})
	s.setState(StateIdle)
}

// transitionFrom moves to newState only when the session is still in
// from, reporting whether the transition happened.
func (s *Session) transitionFrom(from, to State) bool {
	s.mu.Lock()
	if s.state != from {
		s.mu.Unlock()
		return false
	}
	s.state = to
	s.mu.Unlock()

	s.logger.Debug("state changed", "from", from.String(), "to", to.String())
	s.emit(&StateChangedEvent{From: from, To: to})
	return true
}

// setState updates the session state and emits an event.
func (s *Session) setState(newState State) {
	s.mu.Lock()
	oldState := s.state
	s.state = newState
	s.mu.Unlock()

	if oldState != newState {
		s.logger.Debug("state changed", "from", oldState.String(), "to", newState.String())
		s.emit(&StateChangedEvent{From: oldState, To: newState})
	}
}

// emit sends an event to the events channel, dropping it if the consumer
// is not keeping up.
func (s *Session) emit(event Event) {
	if s.closed.Load() && event.EventType() != "session.closed" {
		return
	}
	select {
	case s.events <- event:
	default:
	}
}
