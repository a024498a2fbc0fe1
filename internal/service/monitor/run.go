package monitor

import (
	"context"
	"errors"
	"fmt"

	"github.com/oshokin/ward-monitor/internal/api/grpc/health"
	"github.com/oshokin/ward-monitor/internal/api/telegram"
	"github.com/oshokin/ward-monitor/internal/config"
	"github.com/oshokin/ward-monitor/internal/logger"
	"github.com/oshokin/ward-monitor/internal/repository/offset"
	"github.com/oshokin/ward-monitor/internal/service/actuator"
	alarmsvc "github.com/oshokin/ward-monitor/internal/service/alarm"
	"github.com/oshokin/ward-monitor/internal/service/command"
	"github.com/oshokin/ward-monitor/internal/service/instance"
	"github.com/oshokin/ward-monitor/internal/service/scheduler"
	"github.com/oshokin/ward-monitor/internal/service/sensor"
	"github.com/oshokin/ward-monitor/internal/service/telemetry"
	"github.com/oshokin/ward-monitor/internal/version"
)

var errUnknownLogLevel = errors.New("unknown log level")

// Options controls the monitor process.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// LogLevel overrides the configured log level when set.
	LogLevel string
	// AllowMultiple skips the single-instance check.
	AllowMultiple bool
}

// Run starts the controller and blocks until ctx is canceled.
//
//nolint:cyclop,funlen // Startup sequence reads best top to bottom.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "ward-monitor")

	// Load settings from configuration file.
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	if err = applyLogLevel(cfg.LogLevel, opts.LogLevel); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Starting", "version", version.Short(), "room", cfg.Room)

	if !opts.AllowMultiple {
		if err = instance.EnsureSingle(ctx, ""); err != nil {
			return err
		}
	}

	bot, err := newBot(&cfg.Telegram)
	if err != nil {
		return err
	}

	comps := &components{
		bot:    bot,
		driver: actuator.NewLogDriver(),
		env:    sensor.Absent{},
		vitals: sensor.NewSimulator(nil),
	}

	// Restore the update offset so a restart does not replay old commands.
	if cfg.Telegram.OffsetFile != "" {
		repo := offset.NewFileRepository(cfg.Telegram.OffsetFile)

		comps.offset, err = repo.Load(ctx)

		switch {
		case errors.Is(err, offset.ErrNotFound):
			logger.InfoKV(ctx, "No offset checkpoint yet", "path", cfg.Telegram.OffsetFile)
		case err != nil:
			return fmt.Errorf("load offset checkpoint: %w", err)
		default:
			logger.InfoKV(ctx, "Offset restored", "offset", comps.offset)
		}

		comps.saver = repo
	}

	sink, closeSink, err := newSink(ctx, &cfg.Telemetry)
	if err != nil {
		return err
	}

	defer closeSink()

	comps.sink = sink

	status := health.NewPublisher()
	comps.observers = append(comps.observers, status)

	m, err := newMonitor(cfg, comps)
	if err != nil {
		return fmt.Errorf("initialise monitor: %w", err)
	}

	statusDone, err := startStatusEndpoint(ctx, cfg.Status.ListenAddress, status)
	if err != nil {
		return err
	}

	m.start(ctx)

	status.SetRunning(true)

	clock := scheduler.NewMonotonicClock()
	err = m.scheduler.Run(ctx, clock)

	status.SetRunning(false)
	m.stop(context.WithoutCancel(ctx))

	if statusErr := <-statusDone; statusErr != nil {
		logger.ErrorKV(ctx, "Alarm status endpoint failed", "error", statusErr)
	}

	logger.Info(ctx, "Stopped")

	return err
}

// applyLogLevel sets the global level, the CLI flag winning over the file.
func applyLogLevel(configured, override string) error {
	level := configured
	if override != "" {
		level = override
	}

	parsed, ok := logger.ParseLogLevel(level)
	if !ok {
		return fmt.Errorf("%w: %q", errUnknownLogLevel, level)
	}

	logger.SetLevel(parsed)

	return nil
}

func newBot(cfg *config.Telegram) (*telegram.Client, error) {
	bot, err := telegram.NewClient(cfg.Token,
		telegram.WithBaseURL(cfg.BaseURL),
		telegram.WithCallTimeout(cfg.RequestTimeout),
		telegram.WithSendTimeout(cfg.SendTimeout),
		telegram.WithRateLimit(cfg.MessagesPerSecond),
	)
	if err != nil {
		return nil, fmt.Errorf("create bot client: %w", err)
	}

	return bot, nil
}

// newSink builds the configured telemetry sink and its cleanup.
func newSink(ctx context.Context, cfg *config.Telemetry) (telemetry.Sink, func(), error) {
	noop := func() {}

	switch cfg.Transport {
	case config.TransportHTTP:
		sink, err := telemetry.NewHTTPSink(cfg.URL, cfg.APIKey, cfg.Timeout)
		if err != nil {
			return nil, noop, fmt.Errorf("create telemetry sink: %w", err)
		}

		return sink, noop, nil
	case config.TransportMQTT:
		sink, err := telemetry.NewMQTTSink(ctx, telemetry.MQTTOptions{
			Broker:    cfg.MQTT.Broker,
			ClientID:  cfg.MQTT.ClientID,
			Username:  cfg.MQTT.Username,
			Password:  cfg.MQTT.Password,
			ChannelID: cfg.MQTT.ChannelID,
			QoS:       cfg.MQTT.QoS,
			Timeout:   cfg.Timeout,
		})
		if err != nil {
			return nil, noop, fmt.Errorf("create telemetry sink: %w", err)
		}

		return sink, sink.Close, nil
	default:
		logger.Info(ctx, "Telemetry disabled")
		return telemetry.Discard{}, noop, nil
	}
}

// startStatusEndpoint serves the health service when an address is set.
// The returned channel yields the serve result once ctx is canceled.
func startStatusEndpoint(ctx context.Context, address string, status *health.Publisher) (<-chan error, error) {
	done := make(chan error, 1)

	if address == "" {
		done <- nil
		return done, nil
	}

	lis, err := health.Listen(ctx, address)
	if err != nil {
		return nil, err
	}

	go func() {
		done <- health.Serve(ctx, lis, status)
	}()

	return done, nil
}

// Compile-time checks that the concrete types fit the service interfaces.
var (
	_ command.BotAPI      = (*telegram.Client)(nil)
	_ alarmsvc.Observer   = (*health.Publisher)(nil)
	_ alarmsvc.Notifier   = (*command.Channel)(nil)
	_ command.Actuators   = (*actuator.Controller)(nil)
	_ command.OffsetSaver = (*offset.FileRepository)(nil)
)
