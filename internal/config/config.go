package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bryanwahyu/convodoc/internal/domain/artifacts"
)

// Supported database drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

type Config struct {
	Server struct {
		Port           int           `yaml:"port"`
		ReadTimeout    time.Duration `yaml:"readTimeout"`
		WriteTimeout   time.Duration `yaml:"writeTimeout"`
		AllowedOrigins []string      `yaml:"allowedOrigins"`
		MaxBodyBytes   int64         `yaml:"maxBodyBytes"`
	} `yaml:"server"`

	Database struct {
		Driver   string `yaml:"driver"`
		DSN      string `yaml:"dsn"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
	} `yaml:"database"`

	Minio struct {
		Endpoint      string        `yaml:"endpoint"`
		AccessKey     string        `yaml:"accessKey"`
		SecretKey     string        `yaml:"secretKey"`
		BucketName    string        `yaml:"bucketName"`
		Region        string        `yaml:"region"`
		UseSSL        bool          `yaml:"useSSL"`
		PresignExpiry time.Duration `yaml:"presignExpiry"`
	} `yaml:"minio"`

	AI struct {
		OpenAIKey      string        `yaml:"openaiKey"`
		OpenAIModel    string        `yaml:"openaiModel"`
		AnthropicKey   string        `yaml:"anthropicKey"`
		AnthropicModel string        `yaml:"anthropicModel"`
		Timeout        time.Duration `yaml:"timeout"`
		// HeuristicOnly skips the gateway; results carry no fallback marker.
		HeuristicOnly bool `yaml:"heuristicOnly"`
	} `yaml:"ai"`

	Output struct {
		Formats []string `yaml:"formats"`
	} `yaml:"output"`

	RateLimit struct {
		Capacity        int `yaml:"capacity"`
		RefillPerSecond int `yaml:"refillPerSecond"`
	} `yaml:"rateLimit"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`

	Telemetry struct {
		Endpoint    string `yaml:"endpoint"`
		ServiceName string `yaml:"serviceName"`
		Insecure    bool   `yaml:"insecure"`
	} `yaml:"telemetry"`
}

// Default returns a config that runs with no file and no environment.
func Default() *Config {
	var cfg Config
	cfg.Server.Port = 8080
	cfg.Server.ReadTimeout = 15 * time.Second
	cfg.Server.WriteTimeout = 30 * time.Second
	cfg.Server.MaxBodyBytes = 10 << 20
	cfg.Database.Driver = DriverMemory
	cfg.Minio.PresignExpiry = 24 * time.Hour
	cfg.AI.Timeout = 30 * time.Second
	cfg.RateLimit.Capacity = 10
	cfg.RateLimit.RefillPerSecond = 1
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	cfg.Telemetry.ServiceName = "convodoc"
	return &cfg
}

// Path returns CONFIG_PATH, else config.yaml when it exists, else "".
func Path() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	if _, err := os.Stat("config.yaml"); err == nil {
		return "config.yaml"
	}
	return ""
}

// Load baca file config.yaml (kalau ada), terus override dari env
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = cfg.defaultDSN()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	var errs []error
	envStr("CONVODOC_DB_DRIVER", &c.Database.Driver)
	envStr("DATABASE_DSN", &c.Database.DSN)
	envStr("OPENAI_API_KEY", &c.AI.OpenAIKey)
	envStr("OPENAI_MODEL", &c.AI.OpenAIModel)
	envStr("ANTHROPIC_API_KEY", &c.AI.AnthropicKey)
	envStr("ANTHROPIC_MODEL", &c.AI.AnthropicModel)
	envStr("MINIO_ENDPOINT", &c.Minio.Endpoint)
	envStr("MINIO_ACCESS_KEY", &c.Minio.AccessKey)
	envStr("MINIO_SECRET_KEY", &c.Minio.SecretKey)
	envStr("MINIO_BUCKET", &c.Minio.BucketName)
	envStr("MINIO_REGION", &c.Minio.Region)
	envStr("CONVODOC_LOG_LEVEL", &c.Log.Level)
	envStr("CONVODOC_LOG_FORMAT", &c.Log.Format)
	envStr("OTEL_EXPORTER_OTLP_ENDPOINT", &c.Telemetry.Endpoint)
	envStr("OTEL_SERVICE_NAME", &c.Telemetry.ServiceName)
	if v := os.Getenv("CONVODOC_OUTPUT_FORMATS"); v != "" {
		c.Output.Formats = splitList(v)
	}
	if v := os.Getenv("CONVODOC_ALLOWED_ORIGINS"); v != "" {
		c.Server.AllowedOrigins = splitList(v)
	}

	errs = append(errs,
		envInt("CONVODOC_PORT", &c.Server.Port),
		envBool("MINIO_USE_SSL", &c.Minio.UseSSL),
		envDuration("CONVODOC_AI_TIMEOUT", &c.AI.Timeout),
		envBool("CONVODOC_AI_HEURISTIC_ONLY", &c.AI.HeuristicOnly),
	)
	return errors.Join(errs...)
}

// defaultDSN fills the DSN from the database block, or a local file for SQLite.
func (c *Config) defaultDSN() string {
	switch c.Database.Driver {
	case DriverSQLite:
		return "convodoc.db"
	case DriverMySQL:
		if c.Database.Host != "" {
			return c.MySQLDSN()
		}
	case DriverPostgres:
		if c.Database.Host != "" {
			return c.PostgresDSN()
		}
	}
	return ""
}

// Validate checks that required configuration is present and consistent.
func (c *Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case DriverMemory, DriverSQLite:
	case DriverMySQL, DriverPostgres:
		if c.Database.DSN == "" {
			errs = append(errs, fmt.Errorf("config: database.dsn or DATABASE_DSN is required for %s", c.Database.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("config: unknown database driver %q", c.Database.Driver))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("config: server.port %d out of range", c.Server.Port))
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("config: server.maxBodyBytes must be positive"))
	}
	if c.AI.Timeout <= 0 {
		errs = append(errs, errors.New("config: ai.timeout must be positive"))
	}
	if c.RateLimit.Capacity <= 0 || c.RateLimit.RefillPerSecond < 0 {
		errs = append(errs, errors.New("config: rateLimit.capacity must be positive and refillPerSecond non-negative"))
	}
	if c.Minio.Endpoint != "" && c.Minio.BucketName == "" {
		errs = append(errs, errors.New("config: minio.bucketName is required when minio.endpoint is set"))
	}
	for _, f := range c.Output.Formats {
		if _, err := artifacts.ParseFormat(strings.ToLower(strings.TrimSpace(f))); err != nil {
			errs = append(errs, fmt.Errorf("config: output.formats: %w", err))
		}
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("config: log.format must be text or json, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// Helper untuk build DSN Postgres
func (c *Config) PostgresDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port),
		Path:     "/" + c.Database.Name,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

func envStr(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*dst = n
	return nil
}

func envBool(key string, dst *bool) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*dst = b
	return nil
}

func envDuration(key string, dst *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*dst = d
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
