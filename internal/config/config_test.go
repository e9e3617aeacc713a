package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, args []string, envFiles ...string) *Config {
	t.Helper()
	c := &Config{}
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(flags, c)
	require.NoError(t, flags.Parse(args))
	require.NoError(t, Load(flags, envFiles...))
	return c
}

func TestDefaults(t *testing.T) {
	c := load(t, nil)

	require.NoError(t, c.Validate())
	assert.Equal(t, "0.0.0.0:3001", c.Addr())
	assert.Equal(t, "connect.sid", c.SessionCookie)
	assert.Equal(t, 15, c.DefaultRoundSeconds)
	assert.Equal(t, 3*time.Second, c.GracePeriod)
	assert.Equal(t, 5000, c.ReplayLimit)
	assert.Empty(t, c.AllowedOrigins)
	assert.Empty(t, c.DatabaseURL)
}

func TestPrecedence(t *testing.T) {
	t.Setenv("ARTBATTLE_PORT", "4000")
	t.Setenv("ARTBATTLE_GRACE_PERIOD", "5s")
	t.Setenv("ARTBATTLE_ALLOWED_ORIGINS", "localhost:*,draw.example.com")

	c := load(t, []string{"--port", "5000"})

	assert.Equal(t, 5000, c.Port, "flags beat the environment")
	assert.Equal(t, 5*time.Second, c.GracePeriod)
	assert.Equal(t, []string{"localhost:*", "draw.example.com"}, c.AllowedOrigins)
}

func TestDotEnv(t *testing.T) {
	const key = "ARTBATTLE_SESSION_SECRET"
	t.Cleanup(func() { os.Unsetenv(key) })

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(key+"=from-dotenv\nARTBATTLE_LOG_LEVEL=debug\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("ARTBATTLE_LOG_LEVEL") })

	c := load(t, nil, path, filepath.Join(t.TempDir(), "missing.env"))
	assert.Equal(t, "from-dotenv", c.SessionSecret)
	assert.Equal(t, "debug", c.LogLevel)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "port zero", mutate: func(c *Config) { c.Port = 0 }},
		{name: "port too big", mutate: func(c *Config) { c.Port = 70000 }},
		{name: "unknown level", mutate: func(c *Config) { c.LogLevel = "chatty" }},
		{name: "unknown format", mutate: func(c *Config) { c.LogFormat = "xml" }},
		{name: "round too short", mutate: func(c *Config) { c.DefaultRoundSeconds = 1 }},
		{name: "negative replay limit", mutate: func(c *Config) { c.ReplayLimit = -1 }},
		{name: "zero grace", mutate: func(c *Config) { c.GracePeriod = 0 }},
		{name: "zero outbox", mutate: func(c *Config) { c.OutboxSize = 0 }},
		{name: "zero stroke rate", mutate: func(c *Config) { c.StrokeRate = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := load(t, nil)
			tc.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}
