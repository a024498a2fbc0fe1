// Package monitor wires the ward controller together and runs it.
//
// Run loads the settings, builds the sensors, alarm engine, actuators,
// command channel and telemetry sink around one ward.Ward, registers the
// periodic tasks and hands control to the scheduler until the context is
// canceled.
package monitor
