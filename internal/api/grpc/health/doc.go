// Package health exposes the alarm status over the standard gRPC health
// protocol.
//
// Service "ward.monitor" reports whether the control loop is running and
// "ward.alarm" is NOT_SERVING while a medical alarm is latched, so any
// health-aware tool can Watch it from the nurse station.
package health
