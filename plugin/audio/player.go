package audio

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// Sink plays encoded audio. Write blocks until playback of the chunk is
// scheduled; Close stops the device.
type Sink interface {
	Write(audio []byte) error
	Close() error
}

// Player plays one reply at a time. Starting a new playback stops the
// current one.
type Player struct {
	open func() (Sink, error)

	mu      sync.Mutex
	playing bool
	cancel  context.CancelFunc
}

// NewPlayer creates a Player. The open function is called once per playback
// and must return a handle on the output device.
func NewPlayer(open func() (Sink, error)) *Player {
	return &Player{open: open}
}

// Play sends the audio to the output device. Any playback in progress is
// stopped first. Play blocks until the clip finishes, Stop is called, or the
// context is cancelled.
func (p *Player) Play(ctx context.Context, audio []byte) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	p.cancel = cancel
	p.playing = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.playing = false
		p.cancel = nil
		p.mu.Unlock()
	}()

	sink, err := p.open()
	if err != nil {
		return errors.Wrap(ErrDeviceUnavailable, err.Error())
	}
	defer sink.Close()

	done := make(chan error, 1)
	go func() {
		done <- sink.Write(audio)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

// Stop interrupts the current playback, if any.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
	}
}

// Playing reports whether a reply is currently being played.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}
