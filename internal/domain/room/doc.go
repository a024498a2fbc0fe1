// Package room describes the actuator state of the patient room: curtain,
// door, lamp and buzzer. Only the actuator controller mutates it.
package room
