package sensor

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// Simulator parameters for the pulse oximeter stand-in.
const (
	restingBPM        = 72
	bpmSwing          = 3.0
	simBPMMin         = 60
	simBPMMax         = 100
	restingSpO2       = 96
	episodeChance     = 0.1
	bradycardiaMinBPM = 40
	bradycardiaMaxBPM = 50
	tachycardiaMinBPM = 130
	tachycardiaMaxBPM = 180
)

// Simulator is a VitalsSource for rooms without a pulse oximeter. It produces
// a resting pulse that drifts slowly and, one read in ten, an episode of
// bradycardia or tachycardia so the alarm path is exercised.
type Simulator struct {
	rnd   *rand.Rand
	start time.Time
	now   func() time.Time
}

// NewSimulator creates a simulator. A nil rnd uses a randomly seeded generator.
func NewSimulator(rnd *rand.Rand) *Simulator {
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) //nolint:gosec // Simulated vitals.
	}

	return &Simulator{
		rnd:   rnd,
		start: time.Now(),
		now:   time.Now,
	}
}

// ReadVitals returns simulated heart rate and SpO2. It never fails.
func (s *Simulator) ReadVitals(context.Context) (int, int, error) {
	elapsed := s.now().Sub(s.start).Seconds()
	drift := math.Sin(elapsed) * bpmSwing
	bpm := max(simBPMMin, min(simBPMMax, int(restingBPM+drift)))
	spo2 := restingSpO2 + s.rnd.IntN(3) - 1

	if s.rnd.Float64() < episodeChance {
		if s.rnd.Float64() < 0.5 { //nolint:mnd // Even split between episode kinds.
			bpm = between(s.rnd, bradycardiaMinBPM, bradycardiaMaxBPM)
		} else {
			bpm = between(s.rnd, tachycardiaMinBPM, tachycardiaMaxBPM)
		}
	}

	return bpm, spo2, nil
}
