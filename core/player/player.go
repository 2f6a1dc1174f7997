// Package player keeps at most one beat sounding per page session.
package player

import (
	"errors"
	"fmt"
	"sync"

	"github.com/heronhoga/bars-fe/logger"
)

// ErrClosed is returned by Toggle after Close.
var ErrClosed = errors.New("player closed")

// State of the player.
type State int

const (
	Idle State = iota
	Playing
)

func (s State) String() string {
	if s == Playing {
		return "playing"
	}
	return "idle"
}

// Audio is one loaded track.
type Audio interface {
	Play() error
	Pause()
	Rewind()
	Release()
}

// AudioFactory loads the track at url.
type AudioFactory func(id, url string) (Audio, error)

// Player 单曲播放状态机
type Player struct {
	mu      sync.Mutex
	factory AudioFactory
	current string
	audio   Audio
	closed  bool
}

// New creates an idle player.
func New(factory AudioFactory) *Player {
	return &Player{factory: factory}
}

// Toggle stops id if it is playing; otherwise it stops the current track and starts id.
func (p *Player) Toggle(id, url string) (State, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return Idle, ErrClosed
	}
	if p.current == id && p.audio != nil {
		p.stopLocked()
		return Idle, nil
	}

	// 先停止当前播放，再开始新的
	p.stopLocked()

	audio, err := p.factory(id, url)
	if err != nil {
		return Idle, fmt.Errorf("load track %s: %w", id, err)
	}
	if err := audio.Play(); err != nil {
		audio.Release()
		logger.Warn("Playback failed", logger.String("beatID", id), logger.ErrorField(err))
		return Idle, fmt.Errorf("play track %s: %w", id, err)
	}
	p.current = id
	p.audio = audio
	return Playing, nil
}

// Ended handles natural completion. Ids other than the current one are ignored.
func (p *Player) Ended(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio == nil || p.current != id {
		return false
	}
	p.audio.Release()
	p.audio = nil
	p.current = ""
	return true
}

// Stop stops playback. It reports the id that was stopped, or "".
func (p *Player) Stop() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.current
	p.stopLocked()
	return id
}

// Navigate stops and releases the track when the page is left.
func (p *Player) Navigate() {
	p.Close()
}

// Close stops playback; the player refuses new tracks afterwards.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	p.closed = true
}

// Current returns the playing beat id, or "".
func (p *Player) Current() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// State returns Idle or Playing.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio == nil {
		return Idle
	}
	return Playing
}

func (p *Player) stopLocked() {
	if p.audio == nil {
		return
	}
	p.audio.Pause()
	p.audio.Rewind()
	p.audio.Release()
	p.audio = nil
	p.current = ""
}
