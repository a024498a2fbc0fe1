package alarm

import "github.com/oshokin/ward-monitor/internal/domain/vitals"

// Thresholds are the limits each Kind is checked against.
// Limits are exclusive: a heart rate of exactly HeartRateLow is normal.
type Thresholds struct {
	HeartRateLow    int
	HeartRateHigh   int
	SpO2Low         int
	TemperatureHigh float64
	HumidityHigh    float64
}

// DefaultThresholds returns the clinical limits the controller ships with.
func DefaultThresholds() Thresholds {
	return Thresholds{
		HeartRateLow:    50,
		HeartRateHigh:   120,
		SpO2Low:         90,
		TemperatureHigh: 30,
		HumidityHigh:    70,
	}
}

// Check evaluates every predicate against r.
func (t Thresholds) Check(r vitals.Reading) Reasons {
	var reasons Reasons

	if r.HeartRateBPM < t.HeartRateLow {
		reasons = reasons.Add(HeartRateLow)
	}

	if r.HeartRateBPM > t.HeartRateHigh {
		reasons = reasons.Add(HeartRateHigh)
	}

	if r.SpO2Pct < t.SpO2Low {
		reasons = reasons.Add(SpO2Low)
	}

	if r.TemperatureC > t.TemperatureHigh {
		reasons = reasons.Add(TemperatureHigh)
	}

	if r.HumidityPct > t.HumidityHigh {
		reasons = reasons.Add(HumidityHigh)
	}

	return reasons
}
