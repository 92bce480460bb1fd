package audio

import (
	"math"
	"math/rand"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
)

// WaveType defines oscillator wave shapes.
type WaveType int

const (
	WaveSine WaveType = iota
	WaveSquare
	WaveNoise
)

// oscillator generates a finite raw wave.
type oscillator struct {
	freq     float64
	phase    float64
	duration int
	position int
	wave     WaveType
	rate     beep.SampleRate
	rng      *rand.Rand
}

// NewOscillator creates a wave generator that ends after duration.
func NewOscillator(freq float64, duration time.Duration, wave WaveType, rate beep.SampleRate) beep.Streamer {
	return &oscillator{
		freq:     freq,
		duration: rate.N(duration),
		wave:     wave,
		rate:     rate,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (o *oscillator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if o.position >= o.duration {
			return i, i > 0
		}

		var val float64
		switch o.wave {
		case WaveSine:
			val = math.Sin(2 * math.Pi * o.phase)
		case WaveSquare:
			val = 1
			if o.phase >= 0.5 {
				val = -1
			}
		case WaveNoise:
			val = o.rng.Float64()*2 - 1
		}
		samples[i][0] = val
		samples[i][1] = val

		o.phase += o.freq / float64(o.rate)
		o.phase -= math.Floor(o.phase)
		o.position++
	}
	return len(samples), true
}

func (o *oscillator) Err() error { return nil }

// decay shapes a stream with a short linear attack followed by an
// exponential fade.
type decay struct {
	streamer beep.Streamer
	rate     beep.SampleRate
	attack   int
	falloff  float64 // Per second
	position int
}

// NewDecay wraps s in an attack/exponential-decay envelope.
func NewDecay(s beep.Streamer, attack time.Duration, falloff float64, rate beep.SampleRate) beep.Streamer {
	return &decay{streamer: s, rate: rate, attack: rate.N(attack), falloff: falloff}
}

func (d *decay) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = d.streamer.Stream(samples)
	for i := 0; i < n; i++ {
		vol := math.Exp(-d.falloff * float64(d.position) / float64(d.rate))
		if d.position < d.attack {
			vol *= float64(d.position) / float64(d.attack)
		}
		samples[i][0] *= vol
		samples[i][1] *= vol
		d.position++
	}
	return n, ok
}

func (d *decay) Err() error { return d.streamer.Err() }

// math.Log2(0) is -Inf, so a zero volume becomes a silent stream.
func newVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Volume: 0, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol)}
}

const (
	explosionDuration = 600 * time.Millisecond
	dodgeDuration     = 40 * time.Millisecond
	startNoteDuration = 90 * time.Millisecond
)

// CreateExplosionSound mixes a noise burst with a low rumble.
func CreateExplosionSound(cfg Config) beep.Streamer {
	rate := beep.SampleRate(cfg.SampleRate)

	noise := NewDecay(NewOscillator(0, explosionDuration, WaveNoise, rate), 5*time.Millisecond, 7, rate)
	rumble := NewDecay(NewOscillator(55, explosionDuration, WaveSine, rate), 10*time.Millisecond, 4, rate)

	mixed := beep.Mix(newVolume(noise, 0.6), newVolume(rumble, 0.8))
	return newVolume(mixed, cfg.volume(SoundExplosion))
}

// CreateDodgeSound is a short high blip.
func CreateDodgeSound(cfg Config) beep.Streamer {
	rate := beep.SampleRate(cfg.SampleRate)

	tone, err := generators.SineTone(rate, 1320)
	if err != nil {
		// Only fails when the frequency is above the Nyquist limit.
		tone = NewOscillator(660, dodgeDuration, WaveSine, rate)
	}
	shaped := NewDecay(beep.Take(rate.N(dodgeDuration), tone), 2*time.Millisecond, 60, rate)
	return newVolume(shaped, cfg.volume(SoundDodge))
}

// CreateStartSound is a rising two-note chime.
func CreateStartSound(cfg Config) beep.Streamer {
	rate := beep.SampleRate(cfg.SampleRate)

	n1 := NewDecay(NewOscillator(523.25, startNoteDuration, WaveSquare, rate), 3*time.Millisecond, 12, rate)
	n2 := NewDecay(NewOscillator(783.99, 2*startNoteDuration, WaveSquare, rate), 3*time.Millisecond, 10, rate)

	return newVolume(beep.Seq(n1, n2), cfg.volume(SoundStart)*0.5)
}

// GetSoundEffect returns a fresh streamer for the given sound, or nil for an
// unknown type.
func GetSoundEffect(s SoundType, cfg Config) beep.Streamer {
	switch s {
	case SoundExplosion:
		return CreateExplosionSound(cfg)
	case SoundDodge:
		return CreateDodgeSound(cfg)
	case SoundStart:
		return CreateStartSound(cfg)
	default:
		return nil
	}
}
