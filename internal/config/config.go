package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix = "HEARTRISK_"
	// envNest separates nested keys in variable names,
	// e.g. HEARTRISK_ARTIFACTS__MODEL_PATH -> artifacts.model_path.
	envNest = "__"
)

type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Artifacts     ArtifactsConfig      `koanf:"artifacts" validate:"required"`
	Storage       *StorageConfig       `koanf:"storage"`
	Observability *ObservabilityConfig `koanf:"observability" validate:"required"`
}

type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

type ServerConfig struct {
	Host               string        `koanf:"host"`
	Port               string        `koanf:"port" validate:"required,numeric"`
	ReadTimeout        time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout       time.Duration `koanf:"write_timeout" validate:"gt=0"`
	IdleTimeout        time.Duration `koanf:"idle_timeout" validate:"gt=0"`
	ShutdownTimeout    time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	CORSAllowedOrigins []string      `koanf:"cors_allowed_origins" validate:"required,min=1"`
}

// Address returns the listen address, all interfaces when Host is empty.
func (s ServerConfig) Address() string {
	return net.JoinHostPort(s.Host, s.Port)
}

// ArtifactsConfig locates the three startup artifacts. Each location is a
// local path or an s3://bucket/key URI.
type ArtifactsConfig struct {
	PipelinePath string `koanf:"pipeline_path" validate:"required"`
	ModelPath    string `koanf:"model_path" validate:"required"`
	ColumnsPath  string `koanf:"columns_path" validate:"required"`
}

type StorageConfig struct {
	O3 *O3Config `koanf:"o3"`
}

// O3Config configures the S3-compatible object store artifacts may be read from.
type O3Config struct {
	Endpoint  string `koanf:"endpoint"`
	Region    string `koanf:"region"`
	Bucket    string `koanf:"bucket"`
	AccessKey string `koanf:"access_key"`
	SecretKey string `koanf:"secret_key"`
}

// Default returns the configuration used when no variables are set.
func Default() *Config {
	return &Config{
		Primary: Primary{Env: "development"},
		Server: ServerConfig{
			Host:               "0.0.0.0",
			Port:               "10000",
			ReadTimeout:        15 * time.Second,
			WriteTimeout:       30 * time.Second,
			IdleTimeout:        60 * time.Second,
			ShutdownTimeout:    10 * time.Second,
			CORSAllowedOrigins: []string{"*"},
		},
		Artifacts: ArtifactsConfig{
			PipelinePath: "artifacts/updated_preprocessing_pipeline.json",
			ModelPath:    "artifacts/heart_attack.json",
			ColumnsPath:  "artifacts/columns.json",
		},
		Observability: DefaultObservabilityConfig(),
	}
}

// LoadConfig loads the configuration from environment variables using koanf.
// HEARTRISK_* variables override the defaults; PORT overrides server.port.
func LoadConfig() (*Config, error) {
	k := koanf.New(".")
	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.ReplaceAll(key, envNest, ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load %s variables: %w", envPrefix, err)
	}

	err = k.Load(env.Provider("PORT", ".", func(s string) string {
		if s != "PORT" {
			return ""
		}
		return "server.port"
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load PORT: %w", err)
	}

	mainConfig := Default()
	if err := k.Unmarshal("", mainConfig); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validator.New().Struct(mainConfig); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	mainConfig.Observability.ServiceName = "heartrisk"
	mainConfig.Observability.Environment = mainConfig.Primary.Env

	if err := mainConfig.Observability.Validate(); err != nil {
		return nil, fmt.Errorf("invalid observability config: %w", err)
	}

	return mainConfig, nil
}

// O3 returns the object store settings, or nil when none are configured.
func (c *Config) O3() *O3Config {
	if c.Storage == nil {
		return nil
	}
	return c.Storage.O3
}
