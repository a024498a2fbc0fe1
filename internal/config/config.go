package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/ward-monitor/internal/logger"
)

// Config holds every setting of the ward controller.
type Config struct {
	// Room is the human-readable label used in alerts.
	Room string `yaml:"room"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
	// Telegram configures the chat bot command channel.
	Telegram Telegram `yaml:"telegram"`
	// Telemetry configures the cloud dashboard sink.
	Telemetry Telemetry `yaml:"telemetry"`
	// Schedule holds the cadences of the control loop.
	Schedule Schedule `yaml:"schedule"`
	// Thresholds overrides the default vital-sign limits.
	Thresholds Thresholds `yaml:"thresholds"`
	// Status configures the gRPC alarm status endpoint.
	Status Status `yaml:"status"`
}

// Telegram configures the chat bot API client.
type Telegram struct {
	// Token is the bot token. WARD_TELEGRAM_TOKEN overrides it.
	Token string `yaml:"token"`
	// ChatID receives alerts and the startup banner.
	ChatID int64 `yaml:"chat_id"`
	// BaseURL is the bot API root.
	BaseURL string `yaml:"base_url"`
	// PollTimeout is the server-side long-poll timeout of getUpdates.
	PollTimeout time.Duration `yaml:"poll_timeout"`
	// RequestTimeout bounds getUpdates and getMe calls.
	RequestTimeout time.Duration `yaml:"request_timeout"`
	// SendTimeout bounds sendMessage calls.
	SendTimeout time.Duration `yaml:"send_timeout"`
	// MessagesPerSecond caps outbound messages.
	MessagesPerSecond float64 `yaml:"messages_per_second"`
	// AllowedChatIDs restricts who may issue commands. Empty allows everyone.
	AllowedChatIDs []int64 `yaml:"allowed_chat_ids"`
	// OffsetFile enables the update offset checkpoint when set.
	OffsetFile string `yaml:"offset_file"`
}

// Telemetry configures where snapshots are pushed.
type Telemetry struct {
	// Transport is http, mqtt or none.
	Transport string `yaml:"transport"`
	// URL is the HTTP update endpoint.
	URL string `yaml:"url"`
	// APIKey is the channel write key. WARD_TELEMETRY_API_KEY overrides it.
	APIKey string `yaml:"api_key"`
	// Timeout bounds a single push.
	Timeout time.Duration `yaml:"timeout"`
	// MQTT is used when Transport is mqtt.
	MQTT MQTT `yaml:"mqtt"`
}

// MQTT holds broker settings for the MQTT telemetry transport.
type MQTT struct {
	Broker    string `yaml:"broker"`
	ClientID  string `yaml:"client_id"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	ChannelID string `yaml:"channel_id"`
	QoS       byte   `yaml:"qos"`
}

// Schedule holds the cadences of the control loop.
type Schedule struct {
	// Tick is the sleep between scheduler iterations.
	Tick time.Duration `yaml:"tick"`
	// Sense is the sampling and alarm evaluation cadence.
	Sense time.Duration `yaml:"sense"`
	// Commands is the chat polling cadence.
	Commands time.Duration `yaml:"commands"`
	// Telemetry is the dashboard push cadence.
	Telemetry time.Duration `yaml:"telemetry"`
	// Buzzer is the intermittent tone half-period.
	Buzzer time.Duration `yaml:"buzzer"`
	// RecoveryBackoff is the pause after a failed iteration.
	RecoveryBackoff time.Duration `yaml:"recovery_backoff"`
}

// Thresholds holds vital-sign limits. Zero values take defaults.
type Thresholds struct {
	HeartRateLow    int     `yaml:"heart_rate_low"`
	HeartRateHigh   int     `yaml:"heart_rate_high"`
	SpO2Low         int     `yaml:"spo2_low"`
	TemperatureHigh float64 `yaml:"temperature_high"`
	HumidityHigh    float64 `yaml:"humidity_high"`
}

// Status configures the gRPC alarm status endpoint.
type Status struct {
	// ListenAddress enables the endpoint when set, e.g. ":7070".
	ListenAddress string `yaml:"listen_addr"`
}

const (
	// DefaultConfigFilename is the default settings filename.
	DefaultConfigFilename = "ward-monitor-settings.yaml"

	// DefaultFilePermissions is used for settings and checkpoint files.
	DefaultFilePermissions = 0o600

	// DefaultRoom labels alerts when no room is configured.
	DefaultRoom = "Habitación Paciente"

	// DefaultTelegramURL is the public bot API root.
	DefaultTelegramURL = "https://api.telegram.org"

	// DefaultTelemetryURL is the dashboard update endpoint.
	DefaultTelemetryURL = "https://api.thingspeak.com/update"

	// Telemetry transports.
	TransportHTTP = "http"
	TransportMQTT = "mqtt"
	TransportNone = "none"

	// EnvTelegramToken overrides Telegram.Token.
	EnvTelegramToken = "WARD_TELEGRAM_TOKEN"
	// EnvTelemetryAPIKey overrides Telemetry.APIKey.
	EnvTelemetryAPIKey = "WARD_TELEMETRY_API_KEY"
)

// Defaults of the control loop and remote calls.
const (
	DefaultPollTimeout       = 1 * time.Second
	DefaultRequestTimeout    = 5 * time.Second
	DefaultSendTimeout       = 10 * time.Second
	DefaultTelemetryTimeout  = 10 * time.Second
	DefaultMessagesPerSecond = 1.0
	DefaultTick              = 100 * time.Millisecond
	DefaultSenseInterval     = 3 * time.Second
	DefaultCommandsInterval  = 3 * time.Second
	DefaultTelemetryInterval = 30 * time.Second
	DefaultBuzzerInterval    = 500 * time.Millisecond
	DefaultRecoveryBackoff   = 5 * time.Second

	DefaultHeartRateLow    = 50
	DefaultHeartRateHigh   = 120
	DefaultSpO2Low         = 90
	DefaultTemperatureHigh = 30.0
	DefaultHumidityHigh    = 70.0
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errTokenRequired is returned when the bot token is missing.
	errTokenRequired = errors.New("telegram token must be provided")
	// errChatIDRequired is returned when there is no alert chat.
	errChatIDRequired = errors.New("telegram chat_id must be provided")
	// errUnknownTransport is returned for an unsupported telemetry transport.
	errUnknownTransport = errors.New("unknown telemetry transport")
	// errAPIKeyRequired is returned when HTTP telemetry has no write key.
	errAPIKeyRequired = errors.New("telemetry api_key must be provided")
	// errBrokerRequired is returned when MQTT telemetry has no broker.
	errBrokerRequired = errors.New("telemetry mqtt broker and channel_id must be provided")
	// errBadThresholds is returned when a low limit is not below its high limit.
	errBadThresholds = errors.New("heart_rate_low must be below heart_rate_high")
	// errUnknownLogLevel is returned for an unparseable log level.
	errUnknownLogLevel = errors.New("unknown log level")
)

// Load reads configuration from the provided path, applies environment
// overrides and validates it.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	applyEnv(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// The file holds the bot token, keep it private.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks required fields and fills defaults in place.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.Room == "" {
		cfg.Room = DefaultRoom
	}

	if _, ok := logger.ParseLogLevel(cfg.LogLevel); !ok {
		return fmt.Errorf("%w: %q", errUnknownLogLevel, cfg.LogLevel)
	}

	if err := validateTelegram(&cfg.Telegram); err != nil {
		return err
	}

	if err := validateTelemetry(&cfg.Telemetry); err != nil {
		return err
	}

	applyScheduleDefaults(&cfg.Schedule)

	if err := validateThresholds(&cfg.Thresholds); err != nil {
		return err
	}

	if cfg.Status.ListenAddress != "" {
		if _, err := net.ResolveTCPAddr("tcp", cfg.Status.ListenAddress); err != nil {
			return fmt.Errorf("invalid status listen address: %w", err)
		}
	}

	return nil
}

func validateTelegram(t *Telegram) error {
	if t.Token == "" {
		return errTokenRequired
	}

	if t.ChatID == 0 {
		return errChatIDRequired
	}

	if t.BaseURL == "" {
		t.BaseURL = DefaultTelegramURL
	}

	if _, err := url.ParseRequestURI(t.BaseURL); err != nil {
		return fmt.Errorf("invalid telegram base URL: %w", err)
	}

	setDefault(&t.PollTimeout, DefaultPollTimeout)
	setDefault(&t.RequestTimeout, DefaultRequestTimeout)
	setDefault(&t.SendTimeout, DefaultSendTimeout)

	// The request must outlive the long poll it carries.
	if t.RequestTimeout <= t.PollTimeout {
		t.RequestTimeout = t.PollTimeout + DefaultRequestTimeout
	}

	if t.MessagesPerSecond <= 0 {
		t.MessagesPerSecond = DefaultMessagesPerSecond
	}

	return nil
}

func validateTelemetry(t *Telemetry) error {
	t.Transport = strings.ToLower(strings.TrimSpace(t.Transport))
	if t.Transport == "" {
		t.Transport = TransportHTTP
	}

	setDefault(&t.Timeout, DefaultTelemetryTimeout)

	switch t.Transport {
	case TransportNone:
		return nil
	case TransportHTTP:
		if t.URL == "" {
			t.URL = DefaultTelemetryURL
		}

		if _, err := url.ParseRequestURI(t.URL); err != nil {
			return fmt.Errorf("invalid telemetry URL: %w", err)
		}

		if t.APIKey == "" {
			return errAPIKeyRequired
		}

		return nil
	case TransportMQTT:
		if t.MQTT.Broker == "" || t.MQTT.ChannelID == "" {
			return errBrokerRequired
		}

		if t.MQTT.ClientID == "" {
			t.MQTT.ClientID = "ward-monitor"
		}

		return nil
	default:
		return fmt.Errorf("%w: %q", errUnknownTransport, t.Transport)
	}
}

func applyScheduleDefaults(s *Schedule) {
	setDefault(&s.Tick, DefaultTick)
	setDefault(&s.Sense, DefaultSenseInterval)
	setDefault(&s.Commands, DefaultCommandsInterval)
	setDefault(&s.Telemetry, DefaultTelemetryInterval)
	setDefault(&s.Buzzer, DefaultBuzzerInterval)
	setDefault(&s.RecoveryBackoff, DefaultRecoveryBackoff)
}

func validateThresholds(t *Thresholds) error {
	if t.HeartRateLow == 0 {
		t.HeartRateLow = DefaultHeartRateLow
	}

	if t.HeartRateHigh == 0 {
		t.HeartRateHigh = DefaultHeartRateHigh
	}

	if t.SpO2Low == 0 {
		t.SpO2Low = DefaultSpO2Low
	}

	if t.TemperatureHigh == 0 {
		t.TemperatureHigh = DefaultTemperatureHigh
	}

	if t.HumidityHigh == 0 {
		t.HumidityHigh = DefaultHumidityHigh
	}

	if t.HeartRateLow >= t.HeartRateHigh {
		return errBadThresholds
	}

	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvTelegramToken); v != "" {
		cfg.Telegram.Token = v
	}

	if v := os.Getenv(EnvTelemetryAPIKey); v != "" {
		cfg.Telemetry.APIKey = v
	}
}

func setDefault(d *time.Duration, def time.Duration) {
	if *d <= 0 {
		*d = def
	}
}
