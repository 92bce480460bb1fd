package audio

import (
	"time"

	"github.com/tomz197/evade/internal/loop/engine"
)

// Tracker turns a stream of snapshots into sound cues. Snapshots may be
// skipped; cues come from state changes, not individual frames.
type Tracker struct {
	seen    bool
	active  bool
	started time.Time
	dodges  int
}

// Observe compares snap with the previously observed snapshot and returns
// the sounds to play. The first call only records state.
func (t *Tracker) Observe(snap *engine.Snapshot) []SoundType {
	if snap == nil {
		return nil
	}
	var cues []SoundType
	run := snap.Run
	if t.seen {
		switch {
		case run.Active && (!t.active || !run.StartTime.Equal(t.started)):
			cues = append(cues, SoundStart)
		case run.Active && snap.Score.Dodges > t.dodges:
			cues = append(cues, SoundDodge)
		case !run.Active && t.active:
			cues = append(cues, SoundExplosion)
		}
	}

	t.seen = true
	t.active = run.Active
	t.started = run.StartTime
	t.dodges = snap.Score.Dodges
	return cues
}
