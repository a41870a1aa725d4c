package audio

import (
	"context"
	"encoding/binary"
	"io"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loudFrame(size int) []int16 {
	frame := make([]int16, size)
	for i := range frame {
		frame[i] = int16(10000 * math.Sin(float64(i)/4))
	}
	return frame
}

func silentFrame(size int) []int16 {
	return make([]int16, size)
}

func TestRMS(t *testing.T) {
	assert.Zero(t, RMS(nil))
	assert.Zero(t, RMS(silentFrame(320)))
	assert.Greater(t, RMS(loudFrame(320)), 0.1)

	full := make([]int16, 8)
	for i := range full {
		full[i] = math.MaxInt16
	}
	assert.InDelta(t, 1.0, RMS(full), 0.001)
}

func TestDetectorHangover(t *testing.T) {
	detector := NewDetector(DetectorConfig{Threshold: 0.02, HangoverFrames: 3})

	assert.False(t, detector.Process(silentFrame(320)))
	assert.True(t, detector.Process(loudFrame(320)))

	// Short pause stays inside the hangover.
	assert.True(t, detector.Process(silentFrame(320)))
	assert.True(t, detector.Process(silentFrame(320)))
	assert.True(t, detector.Process(loudFrame(320)))

	// Sustained silence ends the utterance.
	for i := 0; i < 3; i++ {
		assert.True(t, detector.Process(silentFrame(320)))
	}
	assert.False(t, detector.Process(silentFrame(320)))
	assert.False(t, detector.Active())
}

type scriptedSource struct {
	frames [][]int16
	pos    int
	closed bool
}

func (s *scriptedSource) Read(frame []int16) (int, error) {
	if s.pos >= len(s.frames) {
		return 0, io.EOF
	}
	n := copy(frame, s.frames[s.pos])
	s.pos++
	return n, nil
}

func (s *scriptedSource) Close() error {
	s.closed = true
	return nil
}

func TestRecorderCapturesUtterance(t *testing.T) {
	source := &scriptedSource{
		frames: [][]int16{
			silentFrame(320),
			loudFrame(320),
			loudFrame(320),
			silentFrame(320), // inside hangover
			silentFrame(320),
			silentFrame(320), // hangover exhausted
		},
	}

	config := DefaultRecorderConfig()
	config.Detector = DetectorConfig{Threshold: 0.02, HangoverFrames: 1}
	recorder := NewRecorder(config, func() (Source, error) { return source, nil })

	samples, err := recorder.Capture(context.Background())
	require.NoError(t, err)
	// Two speech frames plus one hangover frame.
	assert.Len(t, samples, 320*3)
	assert.True(t, source.closed)
}

type repeatingSource struct {
	frame  []int16
	delay  time.Duration
	closed bool
}

func (s *repeatingSource) Read(frame []int16) (int, error) {
	time.Sleep(s.delay)
	return copy(frame, s.frame), nil
}

func (s *repeatingSource) Close() error {
	s.closed = true
	return nil
}

func TestRecorderStartStop(t *testing.T) {
	source := &repeatingSource{frame: loudFrame(320), delay: time.Millisecond}
	config := DefaultRecorderConfig()
	config.Detector = DetectorConfig{Threshold: 0.02, HangoverFrames: 1}
	recorder := NewRecorder(config, func() (Source, error) { return source, nil })

	handle, err := recorder.Start()
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)

	clip, err := recorder.Stop(handle)
	require.NoError(t, err)
	assert.Equal(t, 16000, clip.SampleRate)
	assert.NotEmpty(t, clip.Samples)
	assert.Zero(t, len(clip.Samples)%320)
	assert.Equal(t, "RIFF", string(clip.WAV()[0:4]))
	assert.True(t, source.closed)
}

func TestRecorderDeviceUnavailable(t *testing.T) {
	recorder := NewRecorder(DefaultRecorderConfig(), func() (Source, error) {
		return nil, errors.New("no such device")
	})

	_, err := recorder.Capture(context.Background())
	assert.ErrorIs(t, err, ErrDeviceUnavailable)
}

type blockingSource struct {
	release chan struct{}
	once    sync.Once
}

func (s *blockingSource) Read(frame []int16) (int, error) {
	<-s.release
	return 0, io.EOF
}

func (s *blockingSource) Close() error {
	s.once.Do(func() { close(s.release) })
	return nil
}

func TestRecorderExclusive(t *testing.T) {
	source := &blockingSource{release: make(chan struct{})}
	recorder := NewRecorder(DefaultRecorderConfig(), func() (Source, error) { return source, nil })

	started := make(chan struct{})
	go func() {
		close(started)
		recorder.Capture(context.Background())
	}()
	<-started
	time.Sleep(10 * time.Millisecond)

	_, err := recorder.Capture(context.Background())
	assert.ErrorIs(t, err, ErrCaptureBusy)

	source.Close()
}

func TestEncodeWAV(t *testing.T) {
	samples := []int16{0, 100, -100, 32000}
	data := EncodeWAV(samples, 16000)

	require.Greater(t, len(data), 44)
	assert.Equal(t, "RIFF", string(data[0:4]))
	assert.Equal(t, "WAVE", string(data[8:12]))
	assert.Equal(t, "fmt ", string(data[12:16]))
	assert.Equal(t, "data", string(data[36:40]))

	assert.Equal(t, uint32(16000), binary.LittleEndian.Uint32(data[24:28]))
	assert.Equal(t, uint32(len(samples)*2), binary.LittleEndian.Uint32(data[40:44]))
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(data[22:24]))
	assert.Len(t, data, 44+len(samples)*2)
}

type fakeSink struct {
	mu     sync.Mutex
	delay  time.Duration
	writes [][]byte
}

func (s *fakeSink) Write(audio []byte) error {
	time.Sleep(s.delay)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, audio)
	return nil
}

func (s *fakeSink) Close() error { return nil }

func TestPlayerPlayAndStop(t *testing.T) {
	sink := &fakeSink{delay: 200 * time.Millisecond}
	player := NewPlayer(func() (Sink, error) { return sink, nil })

	done := make(chan error, 1)
	go func() {
		done <- player.Play(context.Background(), []byte("reply-audio"))
	}()

	require.Eventually(t, player.Playing, time.Second, 5*time.Millisecond)
	player.Stop()

	err := <-done
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, player.Playing())
}

func TestPlayerCompletes(t *testing.T) {
	sink := &fakeSink{}
	player := NewPlayer(func() (Sink, error) { return sink, nil })

	err := player.Play(context.Background(), []byte("short"))
	require.NoError(t, err)
	assert.Len(t, sink.writes, 1)
	assert.False(t, player.Playing())
}

func TestDecodeWAV(t *testing.T) {
	samples := loudFrame(640)
	decoded, sampleRate, err := DecodeWAV(EncodeWAV(samples, 16000))
	require.NoError(t, err)
	assert.Equal(t, 16000, sampleRate)
	assert.Equal(t, samples, decoded)
}

func TestDecodeWAVRejectsGarbage(t *testing.T) {
	_, _, err := DecodeWAV([]byte("definitely not audio"))
	assert.Error(t, err)

	// A stereo fmt chunk is refused rather than misread.
	stereo := EncodeWAV(loudFrame(320), 16000)
	stereo[22] = 2
	_, _, err = DecodeWAV(stereo)
	assert.Error(t, err)
}
