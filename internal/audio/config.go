package audio

import (
	"github.com/tomz197/evade/internal/config"
)

// SoundType identifies a sound effect.
type SoundType int

const (
	SoundExplosion SoundType = iota // Player hit
	SoundDodge                      // Enemy left the arena during a run
	SoundStart                      // New run started
)

func (s SoundType) String() string {
	switch s {
	case SoundExplosion:
		return "explosion"
	case SoundDodge:
		return "dodge"
	case SoundStart:
		return "start"
	default:
		return "unknown"
	}
}

// Config holds audio settings.
type Config struct {
	Enabled       bool
	MasterVolume  float64 // 0.0 to 1.0
	SampleRate    int
	EffectVolumes map[SoundType]float64
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Enabled:      true,
		MasterVolume: 0.5,
		SampleRate:   44100,
		EffectVolumes: map[SoundType]float64{
			SoundExplosion: 0.9,
			SoundDodge:     0.25,
			SoundStart:     0.5,
		},
	}
}

// ConfigFromEnv reads AUDIO_ENABLED, AUDIO_VOLUME (0-100) and
// AUDIO_SAMPLE_RATE on top of DefaultConfig.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	cfg.Enabled = config.GetEnvBool("AUDIO_ENABLED", cfg.Enabled)

	volume := config.GetEnvInt("AUDIO_VOLUME", int(cfg.MasterVolume*100))
	cfg.MasterVolume = float64(min(max(volume, 0), 100)) / 100

	if rate := config.GetEnvInt("AUDIO_SAMPLE_RATE", cfg.SampleRate); rate > 0 {
		cfg.SampleRate = rate
	}
	return cfg
}

func (c Config) volume(s SoundType) float64 {
	return c.EffectVolumes[s] * c.MasterVolume
}
