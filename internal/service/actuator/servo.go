package actuator

import "time"

// Servo timing for SG90-class servos driven at 50 Hz with a 10-bit duty.
const (
	minPulseMicros = 500
	maxPulseMicros = 2400
	periodMicros   = 1_000_000 / 50
	maxDuty        = 1023
	maxAngle       = 180.0
)

// Target angles and settle delays.
const (
	CurtainOpenAngle   = 180
	CurtainClosedAngle = 0
	DoorOpenAngle      = 90
	DoorClosedAngle    = 0

	CurtainSettle = 500 * time.Millisecond
	DoorSettle    = 300 * time.Millisecond
)

// DutyForAngle maps 0-180 degrees onto the 500-2400 us pulse and returns the
// matching fraction of the PWM period on a 0-1023 scale.
func DutyForAngle(angle float64) int {
	pulse := minPulseMicros + (angle/maxAngle)*(maxPulseMicros-minPulseMicros)
	duty := int(pulse / periodMicros * maxDuty)

	return max(0, min(maxDuty, duty))
}
