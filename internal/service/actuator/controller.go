package actuator

import (
	"context"
	"time"

	"github.com/oshokin/ward-monitor/internal/domain/room"
	"github.com/oshokin/ward-monitor/internal/logger"
)

// Buzzer tone.
const (
	toneFrequencyHz = 800
	toneDuty        = 512
)

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration)

// Controller sequences the actuators and owns the room.State flags.
// It is not safe for concurrent use; the scheduler goroutine is its only caller.
type Controller struct {
	driver Driver
	state  *room.State
	sleep  Sleeper
}

// Option configures a Controller.
type Option func(*Controller)

// WithSleeper replaces the settle delay implementation.
func WithSleeper(s Sleeper) Option {
	return func(c *Controller) {
		if s != nil {
			c.sleep = s
		}
	}
}

// NewController binds driver to state.
func NewController(driver Driver, state *room.State, opts ...Option) *Controller {
	c := &Controller{
		driver: driver,
		state:  state,
		sleep:  sleepContext,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// State returns a copy of the actuator flags.
func (c *Controller) State() room.State {
	return *c.state
}

// OpenCurtain swings the curtain servo fully open.
func (c *Controller) OpenCurtain(ctx context.Context) {
	c.moveServo(ctx, CurtainServo, CurtainOpenAngle, CurtainSettle)
	c.state.CurtainOpen = true
	logger.Info(ctx, "Curtain opened")
}

// CloseCurtain swings the curtain servo closed.
func (c *Controller) CloseCurtain(ctx context.Context) {
	c.moveServo(ctx, CurtainServo, CurtainClosedAngle, CurtainSettle)
	c.state.CurtainOpen = false
	logger.Info(ctx, "Curtain closed")
}

// OpenDoor opens the door and switches the lamp on.
func (c *Controller) OpenDoor(ctx context.Context) {
	c.moveServo(ctx, DoorServo, DoorOpenAngle, DoorSettle)
	c.state.DoorOpen = true
	c.SetLamp(ctx, true)
	logger.Info(ctx, "Door opened")
}

// CloseDoor closes the door and switches the lamp off.
func (c *Controller) CloseDoor(ctx context.Context) {
	c.moveServo(ctx, DoorServo, DoorClosedAngle, DoorSettle)
	c.state.DoorOpen = false
	c.SetLamp(ctx, false)
	logger.Info(ctx, "Door closed")
}

// SetLamp switches the lamp.
func (c *Controller) SetLamp(ctx context.Context, on bool) {
	if err := c.driver.SetPin(ctx, Lamp, on); err != nil {
		logger.ErrorKV(ctx, "Lamp write failed", "error", err)
	}

	c.state.LampOn = on
}

// StartBuzzer starts the alarm tone at its audible phase.
func (c *Controller) StartBuzzer(ctx context.Context) {
	c.tone(ctx, toneDuty)
	c.state.BuzzerActive = true
	c.state.BuzzerPhase = true
}

// StopBuzzer silences the alarm tone.
func (c *Controller) StopBuzzer(ctx context.Context) {
	c.tone(ctx, 0)
	c.state.BuzzerActive = false
	c.state.BuzzerPhase = false
}

// BuzzerActive reports whether the tone is sounding.
func (c *Controller) BuzzerActive() bool {
	return c.state.BuzzerActive
}

// ToggleBuzzerPhase alternates the tone between audible and silent.
// It does nothing while the buzzer is stopped.
func (c *Controller) ToggleBuzzerPhase(ctx context.Context) {
	if !c.state.BuzzerActive {
		return
	}

	c.state.BuzzerPhase = !c.state.BuzzerPhase

	if c.state.BuzzerPhase {
		c.tone(ctx, toneDuty)
	} else {
		c.tone(ctx, 0)
	}
}

func (c *Controller) tone(ctx context.Context, duty int) {
	if err := c.driver.SetTone(ctx, Buzzer, toneFrequencyHz, duty); err != nil {
		logger.ErrorKV(ctx, "Buzzer write failed", "error", err)
	}
}

func (c *Controller) moveServo(ctx context.Context, ch Channel, angle float64, settle time.Duration) {
	duty := DutyForAngle(angle)
	if err := c.driver.SetServo(ctx, ch, duty); err != nil {
		logger.ErrorKV(ctx, "Servo write failed", "channel", ch, "angle", angle, "error", err)
	}

	c.sleep(ctx, settle)
}

func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
