package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"AI_PROVIDER", "GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "AI_MODEL",
		"OPENAI_MODEL", "OPENAI_IMAGE_MODEL", "DATABASE_DRIVER", "DATABASE_URL", "LOG_LEVEL",
		"DREAMSCAPE_ADDR", "DREAMSCAPE_RECORDS", "DREAMSCAPE_STALE_AFTER",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ProviderGemini, cfg.Provider.Name)
	assert.Equal(t, 10, cfg.Loop.MaxIterations)
	assert.Equal(t, 5, cfg.World.Concurrency)
	assert.Equal(t, 30*time.Minute, cfg.World.StaleAfter)
	assert.Equal(t, 5*time.Minute, cfg.Provider.CallTimeout)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "dreamscape.db", cfg.Store.DSN)
}

func TestLoad_Precedence(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	chdir(t, dir)

	path := filepath.Join(dir, "dreamscape.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
provider:
  name: anthropic
  call_timeout: 90s
world:
  concurrency: 2
store:
  driver: memory
`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LOG_LEVEL=debug\n"), 0o600))
	// .env never overrides variables that are already present, even empty ones.
	require.NoError(t, os.Unsetenv("LOG_LEVEL"))

	t.Setenv("AI_PROVIDER", "openai")
	t.Setenv("OPENAI_MODEL", "gpt-4.1")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ProviderOpenAI, cfg.Provider.Name)
	assert.Equal(t, "gpt-4.1", cfg.Provider.Model)
	assert.Equal(t, 90*time.Second, cfg.Provider.CallTimeout)
	assert.Equal(t, 2, cfg.World.Concurrency)
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_StaleAfterEnv(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())
	t.Setenv("DREAMSCAPE_STALE_AFTER", "60")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, time.Minute, cfg.World.StaleAfter)
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("provider: [oops"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Provider.Name = " Mock "
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ProviderMock, cfg.Provider.Name)

	cfg.Provider.Name = "llama"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Store.Driver = "postgres"
	cfg.Store.DSN = ""
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Store.Driver = "mongo"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Loop.MaxIterations = 0
	assert.Error(t, cfg.Validate())
}
