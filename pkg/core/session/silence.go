package session

import (
	"sync"
	"time"
)

// SilenceDetector watches a stream of microphone level samples and fires
// once when the level stays below the threshold for the configured
// duration. A loud sample resets the quiet run. The detector is armed per
// listening turn; after firing it stays inert until the next Begin.
type SilenceDetector struct {
	cfg SilenceConfig

	mu         sync.Mutex
	armed      bool
	fired      bool
	quietSince time.Time

	onSilence func(durationMs int)
}

// NewSilenceDetector creates a detector that calls onSilence when the
// quiet duration is reached.
func NewSilenceDetector(cfg SilenceConfig, onSilence func(durationMs int)) *SilenceDetector {
	return &SilenceDetector{cfg: cfg, onSilence: onSilence}
}

// Begin arms the detector for a new listening turn.
func (d *SilenceDetector) Begin() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.armed = true
	d.fired = false
	d.quietSince = time.Time{}
}

// Cancel disarms the detector. Samples arriving afterwards are ignored
// until the next Begin.
func (d *SilenceDetector) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.armed = false
	d.quietSince = time.Time{}
}

// AddSample feeds one RMS level sample in [0, 1]. Samples are expected at
// a steady cadence while listening; the caller's pump provides that.
func (d *SilenceDetector) AddSample(level float64) {
	d.mu.Lock()

	if !d.armed || d.fired {
		d.mu.Unlock()
		return
	}

	if level > d.cfg.Threshold {
		d.quietSince = time.Time{}
		d.mu.Unlock()
		return
	}

	now := time.Now()
	if d.quietSince.IsZero() {
		d.quietSince = now
		d.mu.Unlock()
		return
	}

	elapsed := now.Sub(d.quietSince)
	if elapsed < time.Duration(d.cfg.DurationMs)*time.Millisecond {
		d.mu.Unlock()
		return
	}

	d.fired = true
	d.mu.Unlock()

	if d.onSilence != nil {
		go d.onSilence(int(elapsed.Milliseconds()))
	}
}

// Fired reports whether the detector has fired for the current turn.
func (d *SilenceDetector) Fired() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fired
}
