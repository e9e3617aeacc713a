package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/DoyleJ11/art-battle-backend/internal/engine"
)

const EnvPrefix = "ARTBATTLE"

type Config struct {
	Bind           string
	Port           int
	PublicURL      string
	AllowedOrigins []string

	DatabaseURL   string
	SessionCookie string
	SessionSecret string

	LogLevel  string
	LogFormat string

	DefaultRoundSeconds int
	GracePeriod         time.Duration
	ReplayLimit         int

	StrokeRate   float64
	StrokeBurst  int
	OutboxSize   int
	ReadTimeout  time.Duration
	PingInterval time.Duration

	ShutdownTimeout time.Duration
	OutcomeTimeout  time.Duration
	OutcomeQueue    int
}

func (c *Config) Addr() string {
	return net.JoinHostPort(c.Bind, strconv.Itoa(c.Port))
}

func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	if c.LogFormat != "json" && c.LogFormat != "console" {
		return fmt.Errorf("invalid log format %q (json or console)", c.LogFormat)
	}
	if c.DefaultRoundSeconds < engine.MinRoundSeconds || c.DefaultRoundSeconds > engine.MaxRoundSeconds {
		return fmt.Errorf("default round length must be between %d and %d seconds: %d",
			engine.MinRoundSeconds, engine.MaxRoundSeconds, c.DefaultRoundSeconds)
	}
	if c.ReplayLimit < 0 {
		return errors.New("replay limit cannot be negative")
	}
	if c.StrokeRate <= 0 || c.StrokeBurst <= 0 {
		return errors.New("stroke rate and burst must be positive")
	}
	if c.OutboxSize <= 0 || c.OutcomeQueue <= 0 {
		return errors.New("queue sizes must be positive")
	}
	for name, d := range map[string]time.Duration{
		"grace-period":     c.GracePeriod,
		"read-timeout":     c.ReadTimeout,
		"ping-interval":    c.PingInterval,
		"shutdown-timeout": c.ShutdownTimeout,
		"outcome-timeout":  c.OutcomeTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive: %s", name, d)
		}
	}
	return nil
}

// RegisterFlags declares every setting with its default.
func RegisterFlags(flags *pflag.FlagSet, c *Config) {
	flags.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	flags.StringVarP(&c.Bind, "bind", "b", "0.0.0.0", "address to bind to (env: ARTBATTLE_BIND)")
	flags.IntVarP(&c.Port, "port", "p", 3001, "port to listen on (env: ARTBATTLE_PORT)")
	flags.StringVar(&c.PublicURL, "public-url", "http://localhost:3000", "web client URL used in share links (env: ARTBATTLE_PUBLIC_URL)")
	flags.StringSliceVar(&c.AllowedOrigins, "allowed-origins", nil, "websocket origin patterns; empty allows any (env: ARTBATTLE_ALLOWED_ORIGINS)")

	flags.StringVar(&c.DatabaseURL, "database-url", "", "postgres connection string; empty disables accounts (env: ARTBATTLE_DATABASE_URL)")
	flags.StringVar(&c.SessionCookie, "session-cookie", "connect.sid", "name of the login session cookie (env: ARTBATTLE_SESSION_COOKIE)")
	flags.StringVar(&c.SessionSecret, "session-secret", "", "secret used to verify signed session cookies (env: ARTBATTLE_SESSION_SECRET)")

	flags.StringVar(&c.LogLevel, "log-level", "info", "debug, info, warn or error (env: ARTBATTLE_LOG_LEVEL)")
	flags.StringVar(&c.LogFormat, "log-format", "json", "json or console (env: ARTBATTLE_LOG_FORMAT)")

	flags.IntVar(&c.DefaultRoundSeconds, "default-round-seconds", engine.DefaultRoundSeconds, "round length when the host gives none (env: ARTBATTLE_DEFAULT_ROUND_SECONDS)")
	flags.DurationVar(&c.GracePeriod, "grace-period", 3*time.Second, "time between round end and gallery (env: ARTBATTLE_GRACE_PERIOD)")
	flags.IntVar(&c.ReplayLimit, "replay-limit", 5000, "stroke segments kept per connection for replay; 0 is unlimited (env: ARTBATTLE_REPLAY_LIMIT)")

	flags.Float64Var(&c.StrokeRate, "stroke-rate", 120, "stroke and frame messages per second per connection (env: ARTBATTLE_STROKE_RATE)")
	flags.IntVar(&c.StrokeBurst, "stroke-burst", 240, "stroke and frame burst per connection (env: ARTBATTLE_STROKE_BURST)")
	flags.IntVar(&c.OutboxSize, "outbox-size", 256, "queued messages per connection before it is dropped (env: ARTBATTLE_OUTBOX_SIZE)")
	flags.DurationVar(&c.ReadTimeout, "read-timeout", 60*time.Second, "time to wait for a pong before disconnecting (env: ARTBATTLE_READ_TIMEOUT)")
	flags.DurationVar(&c.PingInterval, "ping-interval", 20*time.Second, "time between websocket pings (env: ARTBATTLE_PING_INTERVAL)")

	flags.DurationVar(&c.ShutdownTimeout, "shutdown-timeout", 5*time.Second, "time allowed for graceful shutdown (env: ARTBATTLE_SHUTDOWN_TIMEOUT)")
	flags.DurationVar(&c.OutcomeTimeout, "outcome-timeout", 5*time.Second, "timeout for each outcome write (env: ARTBATTLE_OUTCOME_TIMEOUT)")
	flags.IntVar(&c.OutcomeQueue, "outcome-queue", 1024, "outcomes buffered before new ones are dropped (env: ARTBATTLE_OUTCOME_QUEUE)")
}

// Load applies .env files and ARTBATTLE_* environment variables to every
// flag not set on the command line. Missing .env files are fine.
func Load(flags *pflag.FlagSet, envFiles ...string) error {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var errs []error
	flags.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			if err := flags.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name))); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", f.Name, err))
			}
		}
	})
	return errors.Join(errs...)
}
