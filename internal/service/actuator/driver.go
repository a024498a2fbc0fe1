package actuator

import (
	"context"

	"github.com/oshokin/ward-monitor/internal/logger"
)

// Channel names a physical output.
type Channel string

// Outputs of the room controller board.
const (
	CurtainServo Channel = "curtain_servo"
	DoorServo    Channel = "door_servo"
	Lamp         Channel = "lamp"
	Buzzer       Channel = "buzzer"
)

// Driver programs the physical outputs.
type Driver interface {
	// SetServo writes a 10-bit duty to a 50 Hz servo channel.
	SetServo(ctx context.Context, ch Channel, duty int) error
	// SetPin drives a digital output.
	SetPin(ctx context.Context, ch Channel, on bool) error
	// SetTone sets a PWM tone; duty 0 silences it.
	SetTone(ctx context.Context, ch Channel, freqHz, duty int) error
}

// LogDriver is a Driver that only logs. It is used when the controller runs
// without a board attached.
type LogDriver struct{}

// NewLogDriver returns a Driver that logs every command at debug level.
func NewLogDriver() *LogDriver {
	return new(LogDriver)
}

// SetServo logs the servo duty.
func (*LogDriver) SetServo(ctx context.Context, ch Channel, duty int) error {
	logger.DebugKV(ctx, "Servo duty", "channel", ch, "duty", duty)

	return nil
}

// SetPin logs the pin level.
func (*LogDriver) SetPin(ctx context.Context, ch Channel, on bool) error {
	logger.DebugKV(ctx, "Pin level", "channel", ch, "on", on)

	return nil
}

// SetTone logs the tone.
func (*LogDriver) SetTone(ctx context.Context, ch Channel, freqHz, duty int) error {
	logger.DebugKV(ctx, "Tone", "channel", ch, "freq_hz", freqHz, "duty", duty)

	return nil
}
