package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CONVODOC_DB_DRIVER", "DATABASE_DSN", "OPENAI_API_KEY", "ANTHROPIC_API_KEY",
		"MINIO_ENDPOINT", "MINIO_BUCKET", "MINIO_USE_SSL", "CONVODOC_LOG_LEVEL",
		"CONVODOC_LOG_FORMAT", "CONVODOC_PORT", "CONVODOC_AI_TIMEOUT",
		"CONVODOC_AI_HEURISTIC_ONLY",
		"CONVODOC_OUTPUT_FORMATS", "OTEL_EXPORTER_OTLP_ENDPOINT", "CONFIG_PATH",
	} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, 30*time.Second, cfg.AI.Timeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.Database.DSN)
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
server:
  port: 9090
database:
  driver: mysql
  host: db
  port: 3306
  user: convo
  password: secret
  name: convodoc
ai:
  timeout: 10s
  openaiModel: gpt-4o
output:
  formats: [html, wiki]
`)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("CONVODOC_AI_TIMEOUT", "5s")
	t.Setenv("CONVODOC_AI_HEURISTIC_ONLY", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "convo:secret@tcp(db:3306)/convodoc?parseTime=true&charset=utf8mb4&loc=UTC", cfg.Database.DSN)
	assert.Equal(t, "sk-test", cfg.AI.OpenAIKey)
	assert.Equal(t, "gpt-4o", cfg.AI.OpenAIModel)
	assert.Equal(t, 5*time.Second, cfg.AI.Timeout)
	assert.True(t, cfg.AI.HeuristicOnly)
	assert.Equal(t, []string{"html", "wiki"}, cfg.Output.Formats)
}

func TestLoadSQLiteDefaultDSN(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONVODOC_DB_DRIVER", "sqlite")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "convodoc.db", cfg.Database.DSN)
}

func TestPostgresDSN(t *testing.T) {
	cfg := Default()
	cfg.Database.Host, cfg.Database.Port = "pg", 5432
	cfg.Database.User, cfg.Database.Password, cfg.Database.Name = "u", "p@ss", "convodoc"
	assert.Equal(t, "postgres://u:p%40ss@pg:5432/convodoc?sslmode=disable", cfg.PostgresDSN())
}

func TestLoadInvalid(t *testing.T) {
	clearEnv(t)

	t.Run("bad env int", func(t *testing.T) {
		t.Setenv("CONVODOC_PORT", "eighty")
		_, err := Load("")
		assert.ErrorContains(t, err, "CONVODOC_PORT")
	})

	t.Run("postgres without dsn", func(t *testing.T) {
		t.Setenv("CONVODOC_DB_DRIVER", "postgres")
		_, err := Load("")
		assert.ErrorContains(t, err, "DATABASE_DSN")
	})

	t.Run("validation collects every problem", func(t *testing.T) {
		path := writeFile(t, `
database:
  driver: oracle
output:
  formats: [pdf]
log:
  format: xml
minio:
  endpoint: localhost:9000
`)
		_, err := Load(path)
		require.Error(t, err)
		assert.ErrorContains(t, err, "oracle")
		assert.ErrorContains(t, err, "pdf")
		assert.ErrorContains(t, err, "log.format")
		assert.ErrorContains(t, err, "bucketName")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestPathPrefersEnv(t *testing.T) {
	t.Setenv("CONFIG_PATH", "/etc/convodoc.yaml")
	assert.Equal(t, "/etc/convodoc.yaml", Path())
}
