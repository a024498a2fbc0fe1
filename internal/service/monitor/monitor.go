package monitor

import (
	"context"
	"errors"
	"time"

	"github.com/oshokin/ward-monitor/internal/config"
	domain "github.com/oshokin/ward-monitor/internal/domain/alarm"
	"github.com/oshokin/ward-monitor/internal/domain/ward"
	"github.com/oshokin/ward-monitor/internal/logger"
	"github.com/oshokin/ward-monitor/internal/service/actuator"
	alarmsvc "github.com/oshokin/ward-monitor/internal/service/alarm"
	"github.com/oshokin/ward-monitor/internal/service/command"
	"github.com/oshokin/ward-monitor/internal/service/scheduler"
	"github.com/oshokin/ward-monitor/internal/service/sensor"
	"github.com/oshokin/ward-monitor/internal/service/telemetry"
)

// Task names, in priority order.
const (
	TaskSense     = "sense"
	TaskCommands  = "commands"
	TaskTelemetry = "telemetry"
	TaskBuzzer    = "buzzer"
)

var errNoBot = errors.New("bot client is required")

// Monitor is one wired controller.
type Monitor struct {
	ward      *ward.Ward
	sampler   *sensor.Sampler
	engine    *alarmsvc.Engine
	actuators *actuator.Controller
	commands  *command.Channel
	sink      telemetry.Sink
	scheduler *scheduler.Scheduler
	now       func() time.Time
}

// components are the collaborators a Monitor is built from.
type components struct {
	bot       command.BotAPI
	driver    actuator.Driver
	sleeper   actuator.Sleeper
	env       sensor.EnvironmentSource
	vitals    sensor.VitalsSource
	sink      telemetry.Sink
	saver     command.OffsetSaver
	observers []alarmsvc.Observer
	offset    int64
	now       func() time.Time
}

// newMonitor builds the controller around a fresh ward.
func newMonitor(cfg *config.Config, c *components) (*Monitor, error) {
	if c.bot == nil {
		return nil, errNoBot
	}

	if c.now == nil {
		c.now = time.Now
	}

	m := &Monitor{
		ward: &ward.Ward{Offset: c.offset},
		sink: c.sink,
		now:  c.now,
	}

	if m.sink == nil {
		m.sink = telemetry.Discard{}
	}

	var actuatorOpts []actuator.Option
	if c.sleeper != nil {
		actuatorOpts = append(actuatorOpts, actuator.WithSleeper(c.sleeper))
	}

	m.actuators = actuator.NewController(c.driver, &m.ward.Room, actuatorOpts...)
	m.sampler = sensor.NewSampler(c.env, c.vitals, nil)

	channelOpts := []command.Option{
		command.WithRoom(cfg.Room),
		command.WithPollTimeout(cfg.Telegram.PollTimeout),
		command.WithAllowedChats(cfg.Telegram.AllowedChatIDs...),
	}

	if c.saver != nil {
		channelOpts = append(channelOpts, command.WithOffsetSaver(c.saver))
	}

	commands, err := command.NewChannel(c.bot, m.actuators, m.snapshot, &m.ward.Offset, cfg.Telegram.ChatID, channelOpts...)
	if err != nil {
		return nil, err
	}

	m.commands = commands

	engineOpts := []alarmsvc.Option{
		alarmsvc.WithRoom(cfg.Room),
		alarmsvc.WithClock(c.now),
	}

	for _, o := range c.observers {
		engineOpts = append(engineOpts, alarmsvc.WithObserver(o))
	}

	m.engine = alarmsvc.NewEngine(thresholds(cfg.Thresholds), m.actuators, m.commands, engineOpts...)

	// Sensing runs first so commands and telemetry in the same tick see
	// the fresh alarm state.
	tasks := []*scheduler.Task{
		{Name: TaskSense, Interval: millis(cfg.Schedule.Sense), Action: m.sense},
		{Name: TaskCommands, Interval: millis(cfg.Schedule.Commands), Action: m.pollCommands},
		{Name: TaskTelemetry, Interval: millis(cfg.Schedule.Telemetry), Action: m.pushTelemetry},
		{
			Name:     TaskBuzzer,
			Interval: millis(cfg.Schedule.Buzzer),
			Action:   m.toggleBuzzer,
			Enabled:  m.actuators.BuzzerActive,
		},
	}

	m.scheduler = scheduler.New(tasks,
		scheduler.WithPollInterval(cfg.Schedule.Tick),
		scheduler.WithRecoveryBackoff(cfg.Schedule.RecoveryBackoff),
	)

	return m, nil
}

// Ward exposes the state for tests and status tooling.
func (m *Monitor) Ward() *ward.Ward {
	return m.ward
}

func (m *Monitor) snapshot() ward.Snapshot {
	return m.ward.Snapshot(m.now())
}

// sense takes a sample and evaluates the alarm against it.
func (m *Monitor) sense(ctx context.Context) error {
	ctx = logger.WithName(ctx, TaskSense)

	sample := m.sampler.Sample(ctx)
	if sample.Simulated {
		logger.WarnKV(ctx, "Sensor read failed, using simulated values", "error", sample.Err)
	}

	m.ward.Reading = sample.Reading
	m.ward.Simulated = sample.Simulated
	m.ward.SampledAt = m.now()

	logger.DebugKV(ctx, "Sampled", "reading", sample.Reading.String(), "simulated", sample.Simulated)

	m.engine.Evaluate(ctx, sample.Reading, &m.ward.Alarm)

	return nil
}

func (m *Monitor) pollCommands(ctx context.Context) error {
	_, err := m.commands.Poll(ctx)
	return err
}

func (m *Monitor) pushTelemetry(ctx context.Context) error {
	return m.sink.Push(logger.WithName(ctx, TaskTelemetry), m.snapshot())
}

func (m *Monitor) toggleBuzzer(ctx context.Context) error {
	m.actuators.ToggleBuzzerPhase(ctx)
	return nil
}

// start sends the banner and parks the servos.
func (m *Monitor) start(ctx context.Context) {
	name, err := m.commands.VerifyBot(ctx)
	if err != nil {
		logger.ErrorKV(ctx, "Bot verification failed, check the token and chat id", "error", err)
	} else {
		logger.InfoKV(ctx, "Bot verified", "name", name)

		if err = m.commands.Notify(ctx, command.StartupText(m.snapshot())); err != nil {
			logger.ErrorKV(ctx, "Startup banner failed", "error", err)
		}
	}

	m.actuators.CloseCurtain(ctx)
	m.actuators.CloseDoor(ctx)
	logger.Info(ctx, "Servos initialized")
}

// stop silences the buzzer on the way out.
func (m *Monitor) stop(ctx context.Context) {
	if m.actuators.BuzzerActive() {
		m.actuators.StopBuzzer(ctx)
	}
}

func thresholds(t config.Thresholds) domain.Thresholds {
	return domain.Thresholds{
		HeartRateLow:    t.HeartRateLow,
		HeartRateHigh:   t.HeartRateHigh,
		SpO2Low:         t.SpO2Low,
		TemperatureHigh: t.TemperatureHigh,
		HumidityHigh:    t.HumidityHigh,
	}
}

func millis(d time.Duration) uint32 {
	return uint32(d.Milliseconds()) //nolint:gosec // Intervals are seconds long.
}
