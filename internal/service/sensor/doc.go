// Package sensor samples the room and the patient.
//
// A Sampler combines an EnvironmentSource (temperature and humidity) with a
// VitalsSource (heart rate and SpO2). When either source fails it substitutes
// values drawn from a plausible resting range and marks the Sample as
// simulated, so monitoring keeps running on a flaky sensor bus and callers
// can still tell real data from filler.
package sensor
