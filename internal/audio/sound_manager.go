// Package audio synthesizes the game's sound effects with beep and plays
// them through the system speaker.
package audio

import (
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

// SoundManager owns the speaker and mixes effects into it. All methods are
// no-ops until Initialize succeeds, so the game runs fine without a sound
// device.
type SoundManager struct {
	mu          sync.Mutex
	cfg         Config
	mixer       *beep.Mixer
	logger      *log.Logger
	initialized bool
}

// NewSoundManager creates a sound manager. A nil logger discards output.
func NewSoundManager(cfg Config, logger *log.Logger) *SoundManager {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &SoundManager{
		cfg:    cfg,
		mixer:  &beep.Mixer{},
		logger: logger,
	}
}

// Initialize opens the speaker. It is a no-op when audio is disabled or
// already running.
func (sm *SoundManager) Initialize() error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized || !sm.cfg.Enabled {
		return nil
	}

	rate := beep.SampleRate(sm.cfg.SampleRate)
	if err := speaker.Init(rate, rate.N(100*time.Millisecond)); err != nil {
		return err
	}
	speaker.Play(sm.mixer)
	sm.initialized = true
	sm.logger.Debug("audio initialized", "sample_rate", sm.cfg.SampleRate)
	return nil
}

// Enabled reports whether sounds will actually be heard.
func (sm *SoundManager) Enabled() bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.initialized
}

// Play starts a sound effect and returns false if it was not played.
func (sm *SoundManager) Play(s SoundType) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if !sm.initialized {
		return false
	}
	streamer := GetSoundEffect(s, sm.cfg)
	if streamer == nil {
		return false
	}

	// The mixer is read from the speaker goroutine.
	speaker.Lock()
	sm.mixer.Add(streamer)
	speaker.Unlock()
	return true
}

// PlayAll plays each cue in order.
func (sm *SoundManager) PlayAll(cues []SoundType) {
	for _, s := range cues {
		sm.Play(s)
	}
}

// Cleanup stops all sounds and closes the speaker.
func (sm *SoundManager) Cleanup() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if !sm.initialized {
		return
	}
	speaker.Lock()
	sm.mixer.Clear()
	speaker.Unlock()
	speaker.Close()
	sm.initialized = false
}
