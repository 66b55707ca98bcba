package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds the settings shared by the scheduler, the orchestrator and the booking tool.
type Config struct {
	// Broker configures the durable queue connection.
	Broker Broker `yaml:"broker"`
	// Store configures the booking store and announcement ledger.
	Store Store `yaml:"store"`
	// Scheduler configures the announcement poller.
	Scheduler Scheduler `yaml:"scheduler"`
	// Workflow configures the room workflow orchestrator.
	Workflow Workflow `yaml:"workflow"`
	// Sensor configures the occupancy sensor client.
	Sensor Endpoint `yaml:"sensor"`
	// Actuator configures the hardware gateway; an empty URL only logs commands.
	Actuator Endpoint `yaml:"actuator"`
	// Telemetry configures trace export.
	Telemetry Telemetry `yaml:"telemetry"`
	// HealthAddress is the listen address of the gRPC health service; empty disables it.
	HealthAddress string `yaml:"health_addr" validate:"omitempty,hostname_port" split_words:"true"`
	// LogLevel is the minimum level of emitted log entries.
	LogLevel string `yaml:"log_level" validate:"omitempty,oneof=debug info warn warning error dpanic panic fatal" split_words:"true"`
}

// Broker holds the message queue settings.
type Broker struct {
	// URL is the AMQP connection URL.
	URL string `yaml:"url" validate:"omitempty,url"`
	// Queue is the durable queue carrying prepare-room events.
	Queue string `yaml:"queue"`
	// ReconnectDelay is the fixed wait between connection attempts.
	ReconnectDelay time.Duration `yaml:"reconnect_delay" validate:"gte=0s" split_words:"true"`
	// Prefetch bounds unacknowledged in-flight deliveries per consumer.
	Prefetch int `yaml:"prefetch" validate:"gte=0"`
}

// Store selects and configures the booking store.
type Store struct {
	// Driver is either "sqlite" or "postgres".
	Driver string `yaml:"driver" validate:"omitempty,oneof=sqlite postgres"`
	// Path is the SQLite database file.
	Path string `yaml:"path"`
	// DSN is the PostgreSQL connection string.
	DSN string `yaml:"dsn" validate:"required_if=Driver postgres"`
}

// Scheduler holds the announcement poller settings.
type Scheduler struct {
	// PollInterval is the period between ticks.
	PollInterval time.Duration `yaml:"poll_interval" validate:"gte=0s" split_words:"true"`
	// LookaheadWindow is how far ahead of now bookings are announced.
	LookaheadWindow time.Duration `yaml:"lookahead_window" validate:"gte=0s" split_words:"true"`
}

// Workflow holds the room workflow settings.
type Workflow struct {
	// LectureDuration is added to a booking start to get the lecture end.
	LectureDuration time.Duration `yaml:"lecture_duration" validate:"gte=0s" split_words:"true"`
	// OccupancyPollInterval is the period between occupancy queries.
	OccupancyPollInterval time.Duration `yaml:"occupancy_poll_interval" validate:"gte=0s" split_words:"true"`
}

// Endpoint is an HTTP collaborator.
type Endpoint struct {
	// URL is the base URL of the service.
	URL string `yaml:"url" validate:"omitempty,url"`
	// Timeout bounds a single request.
	Timeout time.Duration `yaml:"timeout" validate:"gte=0s"`
}

// Telemetry configures OpenTelemetry trace export.
type Telemetry struct {
	// OTLPEndpoint is the collector gRPC address; empty disables export.
	OTLPEndpoint string `yaml:"otlp_endpoint" split_words:"true"`
}

const (
	// DefaultConfigFilename is the default settings file name.
	DefaultConfigFilename = "room-automation.yaml"
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "ROOMS"

	// DefaultQueue is the durable queue carrying prepare-room events.
	DefaultQueue = "prepare_room_queue"
	// DefaultReconnectDelay is the wait between broker connection attempts.
	DefaultReconnectDelay = 5 * time.Second
	// DefaultPrefetch keeps a single unacknowledged delivery in flight.
	DefaultPrefetch = 1

	// DriverSQLite selects the embedded SQLite store.
	DriverSQLite = "sqlite"
	// DriverPostgres selects the PostgreSQL store.
	DriverPostgres = "postgres"
	// DefaultStorePath is the SQLite database file.
	DefaultStorePath = "room-automation.db"

	// DefaultPollInterval is the scheduler tick period.
	DefaultPollInterval = 30 * time.Second
	// DefaultLookaheadWindow is how early a booking is announced.
	DefaultLookaheadWindow = 15 * time.Minute

	// DefaultLectureDuration is the assumed length of every lecture.
	DefaultLectureDuration = 60 * time.Minute
	// DefaultOccupancyPollInterval is the period between occupancy queries.
	DefaultOccupancyPollInterval = 10 * time.Second

	// DefaultTimeout bounds sensor and actuator requests.
	DefaultTimeout = 5 * time.Second

	// DefaultFilePermissions restricts the saved settings file.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")

	// validate checks struct tags. It caches struct metadata and is safe for concurrent use.
	//nolint:gochecknoglobals // Shared validator instance, as recommended by the library.
	validate = validator.New(validator.WithRequiredStructEnabled())
)

// Load reads configuration from path, applies environment overrides and validates it.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err = yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err = envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("apply environment overrides: %w", err)
	}

	if err = Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes cfg to path in YAML format.
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

	if err = os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the settings and fills unset values with defaults.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	applyDefaults(cfg)

	return nil
}

// applyDefaults fills zero values with the documented defaults.
func applyDefaults(cfg *Config) {
	if cfg.Broker.Queue == "" {
		cfg.Broker.Queue = DefaultQueue
	}

	if cfg.Broker.ReconnectDelay <= 0 {
		cfg.Broker.ReconnectDelay = DefaultReconnectDelay
	}

	if cfg.Broker.Prefetch <= 0 {
		cfg.Broker.Prefetch = DefaultPrefetch
	}

	if cfg.Store.Driver == "" {
		cfg.Store.Driver = DriverSQLite
	}

	if cfg.Store.Driver == DriverSQLite && cfg.Store.Path == "" {
		cfg.Store.Path = DefaultStorePath
	}

	if cfg.Scheduler.PollInterval <= 0 {
		cfg.Scheduler.PollInterval = DefaultPollInterval
	}

	if cfg.Scheduler.LookaheadWindow <= 0 {
		cfg.Scheduler.LookaheadWindow = DefaultLookaheadWindow
	}

	if cfg.Workflow.LectureDuration <= 0 {
		cfg.Workflow.LectureDuration = DefaultLectureDuration
	}

	if cfg.Workflow.OccupancyPollInterval <= 0 {
		cfg.Workflow.OccupancyPollInterval = DefaultOccupancyPollInterval
	}

	if cfg.Sensor.Timeout <= 0 {
		cfg.Sensor.Timeout = DefaultTimeout
	}

	if cfg.Actuator.Timeout <= 0 {
		cfg.Actuator.Timeout = DefaultTimeout
	}
}
