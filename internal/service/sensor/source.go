package sensor

import (
	"context"
	"errors"
)

// EnvironmentSource reads ambient conditions.
type EnvironmentSource interface {
	ReadEnvironment(ctx context.Context) (temperatureC, humidityPct float64, err error)
}

// VitalsSource reads the pulse oximeter.
type VitalsSource interface {
	ReadVitals(ctx context.Context) (heartRateBPM, spo2Pct int, err error)
}

// ErrNoSensor is returned by Absent.
var ErrNoSensor = errors.New("sensor not attached")

// Absent is a source with no hardware behind it; every read fails, so the
// Sampler always falls back to simulated values.
type Absent struct{}

// ReadEnvironment always fails.
func (Absent) ReadEnvironment(context.Context) (float64, float64, error) {
	return 0, 0, ErrNoSensor
}

// ReadVitals always fails.
func (Absent) ReadVitals(context.Context) (int, int, error) {
	return 0, 0, ErrNoSensor
}
