package sensor

import (
	"context"
	"errors"
	"math/rand/v2"

	"github.com/oshokin/ward-monitor/internal/domain/vitals"
)

// Fallback ranges used when a source fails.
const (
	fallbackTempMin = 22.0
	fallbackTempMax = 28.0
	fallbackHumMin  = 45.0
	fallbackHumMax  = 65.0
	fallbackBPMMin  = 60
	fallbackBPMMax  = 100
	fallbackSpO2Min = 95
	fallbackSpO2Max = 97
)

// Sample is the outcome of one sampling cycle.
type Sample struct {
	// Reading is always complete, either measured or simulated.
	Reading vitals.Reading
	// Simulated is true when at least one source failed and was replaced.
	Simulated bool
	// Err joins the source failures behind a simulated sample.
	Err error
}

// Sampler reads both sources and fills gaps with simulated values.
type Sampler struct {
	env    EnvironmentSource
	vitals VitalsSource
	rnd    *rand.Rand
}

// NewSampler creates a sampler. A nil rnd uses a randomly seeded generator.
func NewSampler(env EnvironmentSource, vitalsSource VitalsSource, rnd *rand.Rand) *Sampler {
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) //nolint:gosec // Filler data, not secrets.
	}

	return &Sampler{
		env:    env,
		vitals: vitalsSource,
		rnd:    rnd,
	}
}

// Sample reads every source once. It never fails; see Sample.Simulated.
func (s *Sampler) Sample(ctx context.Context) Sample {
	var (
		result Sample
		errs   []error
	)

	temp, hum, err := s.env.ReadEnvironment(ctx)
	if err != nil {
		errs = append(errs, err)
		temp = uniform(s.rnd, fallbackTempMin, fallbackTempMax)
		hum = uniform(s.rnd, fallbackHumMin, fallbackHumMax)
	}

	bpm, spo2, err := s.vitals.ReadVitals(ctx)
	if err != nil {
		errs = append(errs, err)
		bpm = between(s.rnd, fallbackBPMMin, fallbackBPMMax)
		spo2 = between(s.rnd, fallbackSpO2Min, fallbackSpO2Max)
	}

	result.Reading = vitals.Reading{
		TemperatureC: temp,
		HumidityPct:  hum,
		HeartRateBPM: bpm,
		SpO2Pct:      spo2,
	}

	if len(errs) > 0 {
		result.Simulated = true
		result.Err = errors.Join(errs...)
	}

	return result
}

// uniform returns a float in [lo, hi).
func uniform(rnd *rand.Rand, lo, hi float64) float64 {
	return lo + rnd.Float64()*(hi-lo)
}

// between returns an int in [lo, hi].
func between(rnd *rand.Rand, lo, hi int) int {
	return lo + rnd.IntN(hi-lo+1)
}
