// Package audio provides microphone capture, voice activity detection, WAV
// encoding, and reply playback for the voice assistant loop.
package audio

import "math"

// DetectorConfig tunes voice activity detection.
type DetectorConfig struct {
	// Threshold is the normalized RMS energy above which a frame counts as
	// speech. Range 0..1.
	Threshold float64
	// HangoverFrames is how many consecutive silent frames are tolerated
	// before the detector reports end of speech. With 20ms frames, 50 frames
	// gives roughly one second of trailing silence.
	HangoverFrames int
}

// DefaultDetectorConfig returns detection defaults tuned for near-field
// speech at 16kHz with 20ms frames.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		Threshold:      0.02,
		HangoverFrames: 50,
	}
}

// Detector segments speech from a PCM stream by frame energy. It is not safe
// for concurrent use.
type Detector struct {
	config DetectorConfig

	active  bool
	silence int
}

// NewDetector creates a Detector.
func NewDetector(config DetectorConfig) *Detector {
	if config.Threshold <= 0 {
		config.Threshold = DefaultDetectorConfig().Threshold
	}
	if config.HangoverFrames <= 0 {
		config.HangoverFrames = DefaultDetectorConfig().HangoverFrames
	}
	return &Detector{config: config}
}

// Process feeds one frame of 16-bit PCM samples and reports whether an
// utterance is in progress. Speech onset activates immediately; the detector
// stays active through short pauses and deactivates only after the hangover
// runs out.
func (d *Detector) Process(frame []int16) bool {
	if RMS(frame) >= d.config.Threshold {
		d.active = true
		d.silence = 0
		return true
	}

	if !d.active {
		return false
	}

	d.silence++
	if d.silence > d.config.HangoverFrames {
		d.active = false
		d.silence = 0
		return false
	}
	return true
}

// Active reports whether the detector currently considers speech to be in
// progress.
func (d *Detector) Active() bool {
	return d.active
}

// Reset clears detector state between utterances.
func (d *Detector) Reset() {
	d.active = false
	d.silence = 0
}

// RMS computes the normalized root mean square energy of a PCM frame.
// The result is in 0..1, where 1 corresponds to a full-scale square wave.
func RMS(frame []int16) float64 {
	if len(frame) == 0 {
		return 0
	}
	var sum float64
	for _, sample := range frame {
		normalized := float64(sample) / math.MaxInt16
		sum += normalized * normalized
	}
	return math.Sqrt(sum / float64(len(frame)))
}
