package vitals

import "fmt"

// Reading is one sampled snapshot of the room and the patient.
type Reading struct {
	// TemperatureC is the ambient temperature in degrees Celsius.
	TemperatureC float64
	// HumidityPct is the relative humidity in percent.
	HumidityPct float64
	// HeartRateBPM is the pulse in beats per minute.
	HeartRateBPM int
	// SpO2Pct is the peripheral blood oxygen saturation in percent.
	SpO2Pct int
}

// String renders the reading the way it is logged after each sample.
func (r Reading) String() string {
	return fmt.Sprintf("temp=%.1fC hum=%.1f%% hr=%dbpm spo2=%d%%",
		r.TemperatureC, r.HumidityPct, r.HeartRateBPM, r.SpO2Pct)
}
