package audio

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	core "github.com/janahq/jana-core/pkg/core"
)

// Player is the playback contract the session orchestrator depends on.
// At most one playback is active; starting a new one tears down the
// previous one first.
type Player interface {
	// Play decodes a WAV payload and plays it through the active output.
	// onComplete runs once when playback drains naturally; it does not run
	// when playback is stopped early.
	Play(wav []byte, onComplete func()) error

	// Stop halts playback synchronously and releases the output handle.
	// Stopping an idle player is a no-op.
	Stop()

	// Playing reports whether audio is currently playing.
	Playing() bool
}

// SpeakerPlayer plays audio through the system output via oto.
//
// oto allows a single context per process, created with a fixed format.
// The context is initialized lazily from the first payload's format and
// reused afterwards.
type SpeakerPlayer struct {
	mu          sync.Mutex
	otoCtx      *oto.Context
	ctxRate     int
	ctxChannels int
	player      *oto.Player
	generation  int
}

// NewSpeakerPlayer creates an idle speaker player.
func NewSpeakerPlayer() *SpeakerPlayer {
	return &SpeakerPlayer{}
}

// Play implements Player.
func (p *SpeakerPlayer) Play(wav []byte, onComplete func()) error {
	pcm, cfg, err := DecodeWAV(wav)
	if err != nil {
		return core.WrapError(core.ErrSynthesisFailed, "decode audio", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// The output context is fixed at the first payload's format; a payload
	// in another format would play at the wrong speed.
	if p.ctxRate != 0 && (cfg.SampleRate != p.ctxRate || cfg.Channels != p.ctxChannels) {
		return core.NewError(core.ErrSynthesisFailed,
			fmt.Sprintf("audio format %dHz/%dch does not match output %dHz/%dch",
				cfg.SampleRate, cfg.Channels, p.ctxRate, p.ctxChannels))
	}

	// Tear down any active playback before acquiring a new handle.
	p.stopLocked()

	if p.otoCtx == nil {
		opts := &oto.NewContextOptions{
			SampleRate:   cfg.SampleRate,
			ChannelCount: cfg.Channels,
			Format:       oto.FormatSignedInt16LE,
		}
		otoCtx, ready, err := oto.NewContext(opts)
		if err != nil {
			return core.WrapError(core.ErrSynthesisFailed, "init audio output", err)
		}
		<-ready
		p.otoCtx = otoCtx
		p.ctxRate = cfg.SampleRate
		p.ctxChannels = cfg.Channels
	}

	player := p.otoCtx.NewPlayer(bytes.NewReader(pcm))
	player.Play()
	p.player = player
	p.generation++
	gen := p.generation

	go p.watchCompletion(player, gen, onComplete)
	return nil
}

// watchCompletion waits for playback to drain and fires onComplete unless
// the playback was superseded or stopped in the meantime.
func (p *SpeakerPlayer) watchCompletion(player *oto.Player, gen int, onComplete func()) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		p.mu.Lock()
		if p.generation != gen || p.player != player {
			p.mu.Unlock()
			return
		}
		if player.IsPlaying() {
			p.mu.Unlock()
			continue
		}
		p.player = nil
		p.mu.Unlock()

		_ = player.Close()
		if onComplete != nil {
			onComplete()
		}
		return
	}
}

// Stop implements Player.
func (p *SpeakerPlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

// stopLocked halts the active playback. Callers hold p.mu.
func (p *SpeakerPlayer) stopLocked() {
	if p.player == nil {
		return
	}
	p.generation++
	p.player.Pause()
	_ = p.player.Close()
	p.player = nil
}

// Playing implements Player.
func (p *SpeakerPlayer) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.player != nil && p.player.IsPlaying()
}
