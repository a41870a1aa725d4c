package audio

import (
	"context"
	"io"
	"sync"

	"github.com/pkg/errors"
)

var (
	// ErrDeviceUnavailable marks a microphone that cannot be opened.
	ErrDeviceUnavailable = errors.New("audio device unavailable")

	// ErrCaptureBusy marks a capture attempt while another capture holds the
	// device.
	ErrCaptureBusy = errors.New("capture already in progress")
)

// Source provides PCM frames from an input device. Read fills the frame and
// returns the number of samples written; io.EOF ends the stream.
type Source interface {
	Read(frame []int16) (int, error)
	Close() error
}

// Clip is one captured utterance.
type Clip struct {
	SampleRate int
	Samples    []int16
}

// WAV encodes the clip as a PCM16 mono WAV blob.
func (c *Clip) WAV() []byte {
	return EncodeWAV(c.Samples, c.SampleRate)
}

// RecorderConfig tunes utterance capture.
type RecorderConfig struct {
	SampleRate int
	FrameSize  int
	Detector   DetectorConfig
	// MaxSamples bounds a single utterance. Zero means no bound.
	MaxSamples int
}

// DefaultRecorderConfig returns capture defaults: 16kHz mono with 20ms
// frames and a 60 second utterance cap.
func DefaultRecorderConfig() RecorderConfig {
	return RecorderConfig{
		SampleRate: 16000,
		FrameSize:  320,
		Detector:   DefaultDetectorConfig(),
		MaxSamples: 16000 * 60,
	}
}

// Recorder captures one utterance at a time from a Source, gated by voice
// activity detection. The device is held exclusively for the duration of a
// capture.
type Recorder struct {
	config RecorderConfig
	open   func() (Source, error)

	mu   sync.Mutex
	busy bool
}

// NewRecorder creates a Recorder. The open function is called once per
// capture and must return an exclusive handle on the input device.
func NewRecorder(config RecorderConfig, open func() (Source, error)) *Recorder {
	if config.SampleRate <= 0 {
		config.SampleRate = DefaultRecorderConfig().SampleRate
	}
	if config.FrameSize <= 0 {
		config.FrameSize = DefaultRecorderConfig().FrameSize
	}
	return &Recorder{
		config: config,
		open:   open,
	}
}

// SampleRate returns the configured capture rate.
func (r *Recorder) SampleRate() int {
	return r.config.SampleRate
}

// CaptureHandle tracks a capture started with Start.
type CaptureHandle struct {
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	samples []int16
	err     error
}

// Start opens the device and begins recording in the background. Recording
// ends when the detector reports end of speech, the source drains, or Stop is
// called. Only one capture may run at a time; concurrent calls fail with
// ErrCaptureBusy.
func (r *Recorder) Start() (*CaptureHandle, error) {
	r.mu.Lock()
	if r.busy {
		r.mu.Unlock()
		return nil, ErrCaptureBusy
	}
	r.busy = true
	r.mu.Unlock()

	source, err := r.open()
	if err != nil {
		r.mu.Lock()
		r.busy = false
		r.mu.Unlock()
		return nil, errors.Wrap(ErrDeviceUnavailable, err.Error())
	}

	h := &CaptureHandle{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go func() {
		defer close(h.done)
		defer func() {
			r.mu.Lock()
			r.busy = false
			r.mu.Unlock()
		}()
		defer source.Close()
		h.samples, h.err = r.record(source, h.stop)
	}()
	return h, nil
}

// Stop ends the capture and returns whatever was recorded so far as a clip.
func (r *Recorder) Stop(h *CaptureHandle) (*Clip, error) {
	h.stopOnce.Do(func() { close(h.stop) })
	<-h.done
	if h.err != nil {
		return nil, h.err
	}
	return &Clip{SampleRate: r.config.SampleRate, Samples: h.samples}, nil
}

// Capture records a single utterance and blocks until it ends or the context
// is cancelled.
func (r *Recorder) Capture(ctx context.Context) ([]int16, error) {
	h, err := r.Start()
	if err != nil {
		return nil, err
	}

	select {
	case <-h.done:
	case <-ctx.Done():
		_, _ = r.Stop(h)
		return nil, ctx.Err()
	}
	if h.err != nil {
		return nil, h.err
	}
	return h.samples, nil
}

func (r *Recorder) record(source Source, stop <-chan struct{}) ([]int16, error) {
	detector := NewDetector(r.config.Detector)
	frame := make([]int16, r.config.FrameSize)
	var samples []int16
	started := false

	for {
		select {
		case <-stop:
			return samples, nil
		default:
		}

		n, err := source.Read(frame)
		if n > 0 {
			speaking := detector.Process(frame[:n])
			if speaking {
				started = true
				samples = append(samples, frame[:n]...)
				if r.config.MaxSamples > 0 && len(samples) >= r.config.MaxSamples {
					return samples[:r.config.MaxSamples], nil
				}
			} else if started {
				// Utterance ended.
				return samples, nil
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return samples, nil
			}
			return nil, errors.Wrap(ErrDeviceUnavailable, err.Error())
		}
	}
}
