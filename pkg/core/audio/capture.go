package audio

import (
	"strings"
	"sync"

	"github.com/gen2brain/malgo"

	core "github.com/janahq/jana-core/pkg/core"
)

// Recorder is the capture contract the session orchestrator depends on.
// Implementations hold at most one device handle; Start while already
// recording and Stop while idle are caller errors.
type Recorder interface {
	// Start acquires the input device and begins buffering PCM chunks.
	Start() error

	// Stop finalizes the buffered chunks into a WAV payload and releases
	// the device. Returns a NotRecording error when no capture is active.
	Stop() ([]byte, error)

	// Level returns the RMS energy of the most recent frame, in [0, 1].
	Level() float64

	// Recording reports whether a capture handle is currently open.
	Recording() bool
}

// MicRecorder captures microphone audio through malgo (miniaudio).
type MicRecorder struct {
	cfg Config

	mu        sync.Mutex
	allocated *malgo.AllocatedContext
	device    *malgo.Device
	buf       []byte
	level     float64
	recording bool
}

// NewMicRecorder creates a microphone recorder with the given format.
func NewMicRecorder(cfg Config) *MicRecorder {
	return &MicRecorder{cfg: cfg}
}

// Start implements Recorder.
func (m *MicRecorder) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.recording {
		return core.NewError(core.ErrDeviceUnavailable, "capture already active")
	}

	allocated, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return core.WrapError(core.ErrDeviceUnavailable, "init audio context", err)
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = uint32(m.cfg.Channels)
	deviceConfig.SampleRate = uint32(m.cfg.SampleRate)
	deviceConfig.PeriodSizeInMilliseconds = 20

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, pInputSamples []byte, _ uint32) {
			m.mu.Lock()
			m.buf = append(m.buf, pInputSamples...)
			m.level = RMSLevel(pInputSamples)
			m.mu.Unlock()
		},
	}

	device, err := malgo.InitDevice(allocated.Context, deviceConfig, callbacks)
	if err != nil {
		_ = allocated.Uninit()
		allocated.Free()
		return classifyCaptureError(err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		_ = allocated.Uninit()
		allocated.Free()
		return classifyCaptureError(err)
	}

	m.allocated = allocated
	m.device = device
	m.buf = m.buf[:0]
	m.level = 0
	m.recording = true
	return nil
}

// Stop implements Recorder.
func (m *MicRecorder) Stop() ([]byte, error) {
	m.mu.Lock()
	if !m.recording {
		m.mu.Unlock()
		return nil, core.NewError(core.ErrNotRecording, "no recording in progress")
	}

	device := m.device
	allocated := m.allocated
	m.device = nil
	m.allocated = nil
	m.recording = false
	pcm := make([]byte, len(m.buf))
	copy(pcm, m.buf)
	m.buf = m.buf[:0]
	m.level = 0
	m.mu.Unlock()

	// Release outside the lock; the data callback may still be in flight.
	_ = device.Stop()
	device.Uninit()
	_ = allocated.Uninit()
	allocated.Free()

	return EncodeWAV(pcm, m.cfg), nil
}

// Level implements Recorder.
func (m *MicRecorder) Level() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.level
}

// Recording implements Recorder.
func (m *MicRecorder) Recording() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recording
}

// classifyCaptureError maps miniaudio failures onto the pipeline taxonomy.
// Permission failures surface with OS-specific wording; everything else is
// a missing or busy device.
func classifyCaptureError(err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "permission") || strings.Contains(msg, "access denied") {
		return core.WrapError(core.ErrPermissionDenied, "microphone access denied", err)
	}
	return core.WrapError(core.ErrDeviceUnavailable, "microphone unavailable", err)
}
