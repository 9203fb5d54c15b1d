package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_EmptyPortRejected(t *testing.T) {
	t.Setenv("PORT", "")
	cfg, err := LoadConfig()
	require.Error(t, err)
	assert.Nil(t, cfg)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "10000", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:10000", cfg.Server.Address())
	assert.Equal(t, []string{"*"}, cfg.Server.CORSAllowedOrigins)
	assert.Nil(t, cfg.O3())
	assert.NoError(t, cfg.Observability.Validate())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("HEARTRISK_PRIMARY__ENV", "production")
	t.Setenv("HEARTRISK_SERVER__READ_TIMEOUT", "5s")
	t.Setenv("HEARTRISK_ARTIFACTS__MODEL_PATH", "s3://models/heart_attack.json")
	t.Setenv("HEARTRISK_STORAGE__O3__ENDPOINT", "https://o3.example.com")
	t.Setenv("HEARTRISK_STORAGE__O3__BUCKET", "models")
	t.Setenv("HEARTRISK_OBSERVABILITY__LOGGING__FORMAT", "json")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, "s3://models/heart_attack.json", cfg.Artifacts.ModelPath)
	assert.Equal(t, "artifacts/columns.json", cfg.Artifacts.ColumnsPath)
	require.NotNil(t, cfg.O3())
	assert.Equal(t, "https://o3.example.com", cfg.O3().Endpoint)
	assert.Equal(t, "models", cfg.O3().Bucket)
	assert.Equal(t, "json", cfg.Observability.Logging.Format)
	assert.Equal(t, "production", cfg.Observability.Environment)
	assert.Equal(t, "heartrisk", cfg.Observability.ServiceName)
}

func TestLoadConfig_PortBeatsPrefixedPort(t *testing.T) {
	t.Setenv("HEARTRISK_SERVER__PORT", "9000")
	t.Setenv("PORT", "9100")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "9100", cfg.Server.Port)
}

func TestLoadConfig_Invalid(t *testing.T) {
	cases := map[string][2]string{
		"port":      {"PORT", "http"},
		"log level": {"HEARTRISK_OBSERVABILITY__LOGGING__LEVEL", "loud"},
		"timeout":   {"HEARTRISK_SERVER__IDLE_TIMEOUT", "0s"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("PORT", "10000")
			t.Setenv(kv[0], kv[1])
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}
