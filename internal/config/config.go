package config

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/time/rate"

	"github.com/vango-dev/navroute/internal/errors"
	"github.com/vango-dev/navroute/pkg/history"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "navroute.json"

	// DefaultManifest is the route manifest used when none is configured.
	DefaultManifest = "routes.yaml"

	// DefaultPort is the default serve port.
	DefaultPort = 8080

	// DefaultHost is the default serve host.
	DefaultHost = "localhost"

	// DefaultMetricsPath is where serve exposes Prometheus metrics.
	DefaultMetricsPath = "/metrics"

	// DefaultNamespace prefixes metric names.
	DefaultNamespace = "navroute"

	// Socket defaults.
	DefaultHandshakeTimeout = "10s"
	DefaultWriteTimeout     = "10s"
	DefaultEventRate        = 20
	DefaultEventBurst       = 40

	// DefaultShutdownTimeout bounds graceful shutdown of serve.
	DefaultShutdownTimeout = "5s"
)

// Config represents navroute.json.
type Config struct {
	// Manifest is the route manifest: a path relative to the config file,
	// an absolute path or an s3://bucket/key URI.
	Manifest string `json:"manifest" validate:"required"`

	// MaxRedirects overrides the manifest's redirect limit when positive.
	MaxRedirects int `json:"maxRedirects,omitempty" validate:"gte=0,lte=100"`

	// Watch reloads a local manifest when it changes.
	Watch bool `json:"watch,omitempty"`

	// Server contains serve settings.
	Server ServerConfig `json:"server,omitempty"`

	// Socket contains history socket settings.
	Socket SocketConfig `json:"socket,omitempty"`

	// Metrics contains Prometheus settings.
	Metrics MetricsConfig `json:"metrics,omitempty"`

	// Tracing contains OpenTelemetry settings.
	Tracing TracingConfig `json:"tracing,omitempty"`

	// Log contains logging settings.
	Log LogConfig `json:"log,omitempty"`

	// AWS contains settings for s3:// manifests.
	AWS AWSConfig `json:"aws,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains serve settings.
type ServerConfig struct {
	// Host is the host to bind to.
	Host string `json:"host,omitempty"`

	// Port is the port to listen on.
	Port int `json:"port,omitempty" validate:"gte=0,lte=65535"`

	// Origins lists origins allowed to open history sockets. Empty allows
	// same-origin requests only.
	Origins []string `json:"origins,omitempty" validate:"dive,url"`

	// ShutdownTimeout bounds graceful shutdown (e.g., "5s").
	ShutdownTimeout string `json:"shutdownTimeout,omitempty" validate:"omitempty,duration"`
}

// SocketConfig contains history socket settings.
type SocketConfig struct {
	// HandshakeTimeout bounds the wait for the client's hello (e.g., "10s").
	HandshakeTimeout string `json:"handshakeTimeout,omitempty" validate:"omitempty,duration"`

	// WriteTimeout bounds every socket write.
	WriteTimeout string `json:"writeTimeout,omitempty" validate:"omitempty,duration"`

	// EventRate is the number of client events allowed per second.
	EventRate float64 `json:"eventRate,omitempty" validate:"gte=0"`

	// EventBurst is the client event burst size.
	EventBurst int `json:"eventBurst,omitempty" validate:"gte=0"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Enabled exposes metrics and records resolutions.
	Enabled bool `json:"enabled,omitempty"`

	// Namespace prefixes metric names.
	Namespace string `json:"namespace,omitempty"`

	// Path is the HTTP path of the metrics endpoint.
	Path string `json:"path,omitempty" validate:"omitempty,startswith=/"`
}

// TracingConfig contains OpenTelemetry settings.
type TracingConfig struct {
	// Enabled records a span per resolution.
	Enabled bool `json:"enabled,omitempty"`

	// Stdout exports spans to standard output.
	Stdout bool `json:"stdout,omitempty"`

	// TracerName names the tracer.
	TracerName string `json:"tracerName,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn or error.
	Level string `json:"level,omitempty" validate:"omitempty,oneof=debug info warn error"`

	// Format is text or json.
	Format string `json:"format,omitempty" validate:"omitempty,oneof=text json"`
}

// AWSConfig contains settings for s3:// manifests.
type AWSConfig struct {
	// Region overrides the region from the AWS environment.
	Region string `json:"region,omitempty"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterValidation("duration", func(fl validator.FieldLevel) bool {
		d, err := time.ParseDuration(fl.Field().String())
		return err == nil && d >= 0
	})
	return v
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Manifest: DefaultManifest,
		Server: ServerConfig{
			Host:            DefaultHost,
			Port:            DefaultPort,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Socket: SocketConfig{
			HandshakeTimeout: DefaultHandshakeTimeout,
			WriteTimeout:     DefaultWriteTimeout,
			EventRate:        DefaultEventRate,
			EventBurst:       DefaultEventBurst,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: DefaultNamespace,
			Path:      DefaultMetricsPath,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for navroute.json in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads and validates configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ConfigNotFound).
				WithDetail("No navroute.json found in " + filepath.Dir(path)).
				WithSuggestion("Run 'navroute init' to create one")
		}
		return nil, errors.New(errors.ConfigParse).Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		e := errors.New(errors.ConfigParse).
			WithDetail("Failed to parse navroute.json: " + err.Error()).
			WithSuggestion("Check that navroute.json is valid JSON")
		var syntax *json.SyntaxError
		if stderrors.As(err, &syntax) {
			line, col := position(data, syntax.Offset)
			e = e.WithLocation(path, line, col)
		}
		return nil, e
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New(errors.ConfigInvalid).Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Newf(errors.CategoryConfig, "write %s", path).Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Manifest == "" {
		c.Manifest = DefaultManifest
	}

	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	if c.Socket.HandshakeTimeout == "" {
		c.Socket.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.Socket.WriteTimeout == "" {
		c.Socket.WriteTimeout = DefaultWriteTimeout
	}
	if c.Socket.EventRate == 0 {
		c.Socket.EventRate = DefaultEventRate
	}
	if c.Socket.EventBurst == 0 {
		c.Socket.EventBurst = DefaultEventBurst
	}

	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.New(errors.ConfigInvalid).Wrap(err)
	}

	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		problems = append(problems, describe(fe))
	}
	e := errors.New(errors.ConfigInvalid).WithDetail(strings.Join(problems, "; "))
	if c.configPath != "" {
		e = e.WithLocation(c.configPath, 0, 0)
	}
	return e
}

func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "gte", "lte":
		return fmt.Sprintf("%s is out of range: %v", field, fe.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of %s, got %q", field, fe.Param(), fe.Value())
	case "duration":
		return fmt.Sprintf("%s must be a duration such as \"10s\", got %q", field, fe.Value())
	case "url":
		return fmt.Sprintf("%s must be an origin URL, got %q", field, fe.Value())
	case "startswith":
		return fmt.Sprintf("%s must start with %q", field, fe.Param())
	}
	return fmt.Sprintf("%s failed %q validation", field, fe.Tag())
}

// Address returns the listen address for serve.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// ManifestLocation returns the manifest location with relative paths
// resolved against the config directory.
func (c *Config) ManifestLocation() string {
	m := c.Manifest
	if strings.HasPrefix(m, "s3://") || filepath.IsAbs(m) {
		return m
	}
	return filepath.Join(c.Dir(), m)
}

// IsRemoteManifest reports whether the manifest lives in object storage.
func (c *Config) IsRemoteManifest() bool {
	return strings.HasPrefix(c.Manifest, "s3://")
}

// ShutdownTimeout returns the parsed Server.ShutdownTimeout.
func (c *Config) ShutdownTimeout() time.Duration {
	return parseDuration(c.Server.ShutdownTimeout, DefaultShutdownTimeout)
}

// HistorySocket returns the history socket settings.
func (c *Config) HistorySocket(logger *slog.Logger) *history.SocketConfig {
	return &history.SocketConfig{
		HandshakeTimeout: parseDuration(c.Socket.HandshakeTimeout, DefaultHandshakeTimeout),
		WriteTimeout:     parseDuration(c.Socket.WriteTimeout, DefaultWriteTimeout),
		EventRate:        rate.Limit(c.Socket.EventRate),
		EventBurst:       c.Socket.EventBurst,
		Logger:           logger,
	}
}

// SlogLevel returns the slog level for Level.
func (c LogConfig) SlogLevel() slog.Level {
	switch c.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// NewLogger returns a logger writing to w in the configured format.
func (c LogConfig) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.SlogLevel()}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseDuration(s, fallback string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

// position converts a byte offset into a 1-based line and column.
func position(data []byte, offset int64) (line, col int) {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	line, col = 1, 1
	for _, b := range data[:offset] {
		if b == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing navroute.json, or an error if not found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New(errors.ConfigNotFound).
				WithDetail("No navroute.json found in " + startDir + " or any parent directory").
				WithSuggestion("Run 'navroute init' to create one")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the current working directory
// or its nearest parent containing navroute.json.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}

	return Load(root)
}
