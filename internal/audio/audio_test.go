package audio

import (
	"testing"
	"time"

	"github.com/gopxl/beep"

	"github.com/tomz197/evade/internal/loop/engine"
)

// drain streams s to completion and returns the number of samples produced.
func drain(t *testing.T, s beep.Streamer, limit int) int {
	t.Helper()
	buf := make([][2]float64, 512)
	total := 0
	for total < limit {
		n, ok := s.Stream(buf)
		for i := 0; i < n; i++ {
			if buf[i][0] < -1.5 || buf[i][0] > 1.5 {
				t.Fatalf("sample %d out of range: %f", total+i, buf[i][0])
			}
		}
		total += n
		if !ok {
			return total
		}
	}
	t.Fatalf("stream did not end within %d samples", limit)
	return total
}

func TestOscillatorLength(t *testing.T) {
	rate := beep.SampleRate(44100)
	for _, wave := range []WaveType{WaveSine, WaveSquare, WaveNoise} {
		osc := NewOscillator(440, 100*time.Millisecond, wave, rate)
		if got := drain(t, osc, rate.N(time.Second)); got != rate.N(100*time.Millisecond) {
			t.Errorf("wave %d: got %d samples, want %d", wave, got, rate.N(100*time.Millisecond))
		}
		if osc.Err() != nil {
			t.Errorf("wave %d: unexpected error %v", wave, osc.Err())
		}
	}
}

func TestSquareWaveValues(t *testing.T) {
	osc := NewOscillator(100, 50*time.Millisecond, WaveSquare, beep.SampleRate(44100))
	samples := make([][2]float64, 200)
	n, _ := osc.Stream(samples)
	for i := 0; i < n; i++ {
		if samples[i][0] != 1 && samples[i][0] != -1 {
			t.Fatalf("Expected +/-1 at sample %d, got %f", i, samples[i][0])
		}
	}
}

func TestDecayFadesOut(t *testing.T) {
	rate := beep.SampleRate(1000)
	env := NewDecay(NewOscillator(0, time.Second, WaveSquare, rate), 0, 10, rate)
	samples := make([][2]float64, 1000)
	n, _ := env.Stream(samples)
	if n != 1000 {
		t.Fatalf("got %d samples, want 1000", n)
	}
	if samples[0][0] != 1 {
		t.Errorf("Expected full volume at the start, got %f", samples[0][0])
	}
	if samples[999][0] > 0.001 {
		t.Errorf("Expected the tail to be nearly silent, got %f", samples[999][0])
	}
}

func TestEffectsTerminate(t *testing.T) {
	cfg := DefaultConfig()
	limit := beep.SampleRate(cfg.SampleRate).N(2 * time.Second)
	for _, s := range []SoundType{SoundExplosion, SoundDodge, SoundStart} {
		st := GetSoundEffect(s, cfg)
		if st == nil {
			t.Fatalf("%s: got nil streamer", s)
		}
		if n := drain(t, st, limit); n == 0 {
			t.Errorf("%s: produced no samples", s)
		}
	}
	if GetSoundEffect(SoundType(99), cfg) != nil {
		t.Error("Expected nil for an unknown sound")
	}
}

func TestSilentAtZeroVolume(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MasterVolume = 0
	st := CreateDodgeSound(cfg)
	samples := make([][2]float64, 256)
	n, _ := st.Stream(samples)
	for i := 0; i < n; i++ {
		if samples[i][0] != 0 {
			t.Fatalf("Expected silence, got %f at %d", samples[i][0], i)
		}
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("AUDIO_ENABLED", "false")
	t.Setenv("AUDIO_VOLUME", "150")
	t.Setenv("AUDIO_SAMPLE_RATE", "48000")

	cfg := ConfigFromEnv()
	if cfg.Enabled {
		t.Error("Expected audio to be disabled")
	}
	if cfg.MasterVolume != 1 {
		t.Errorf("Expected volume clamped to 1, got %f", cfg.MasterVolume)
	}
	if cfg.SampleRate != 48000 {
		t.Errorf("got sample rate %d, want 48000", cfg.SampleRate)
	}
}

func TestSoundManagerGracefulDegradation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = false
	sm := NewSoundManager(cfg, nil)

	if err := sm.Initialize(); err != nil {
		t.Fatalf("Initialize with audio disabled: %v", err)
	}
	if sm.Enabled() {
		t.Fatal("Expected the manager to stay disabled")
	}
	if sm.Play(SoundExplosion) {
		t.Error("Expected Play to report false when disabled")
	}
	sm.PlayAll([]SoundType{SoundDodge, SoundStart})
	sm.Cleanup()
}

func snapshot(active bool, start time.Time, dodges int) *engine.Snapshot {
	return &engine.Snapshot{
		Run:   engine.RunState{Active: active, StartTime: start, DeathCount: dodges},
		Score: engine.Score{Dodges: dodges},
	}
}

func TestTrackerCues(t *testing.T) {
	t0 := time.Unix(1000, 0)
	t1 := t0.Add(time.Minute)
	steps := []struct {
		snap *engine.Snapshot
		want []SoundType
	}{
		{snapshot(false, time.Time{}, 0), nil},
		{snapshot(true, t0, 0), []SoundType{SoundStart}},
		{snapshot(true, t0, 0), nil},
		{snapshot(true, t0, 2), []SoundType{SoundDodge}},
		{nil, nil},
		{snapshot(false, t0, 2), []SoundType{SoundExplosion}},
		{snapshot(false, t0, 2), nil},
		{snapshot(true, t1, 0), []SoundType{SoundStart}},
		{snapshot(true, t1.Add(time.Second), 0), []SoundType{SoundStart}},
	}

	var tr Tracker
	for i, step := range steps {
		got := tr.Observe(step.snap)
		if len(got) != len(step.want) {
			t.Fatalf("step %d: got %v, want %v", i, got, step.want)
		}
		for j := range got {
			if got[j] != step.want[j] {
				t.Fatalf("step %d: got %v, want %v", i, got, step.want)
			}
		}
	}
}

func TestFirstObservationIsSilent(t *testing.T) {
	var tr Tracker
	if cues := tr.Observe(snapshot(true, time.Unix(5, 0), 3)); len(cues) != 0 {
		t.Fatalf("got %v, want no cues", cues)
	}
}
