// Package actuator drives the curtain and door servos, the lamp and the
// alarm buzzer, and keeps the room.State in step with what was commanded.
//
// Servo moves block for a settle delay that models the time the horn needs
// to reach its target. Driver failures are logged; the state is updated
// regardless because there is no position feedback to consult.
package actuator
