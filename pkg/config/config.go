package config

import (
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	KindSynthetic = "synthetic"
	KindSQLite    = "sqlite"
)

// Config holds the resolved settings of one process. It is built once by the
// command line layer and handed to every component that needs it.
type Config struct {
	Datasource Datasource `mapstructure:",squash"`
	Server     Server     `mapstructure:",squash"`
	Log        Log        `mapstructure:",squash"`
	Render     Render     `mapstructure:",squash"`
	Replay     Replay     `mapstructure:",squash"`
	Notify     Notify     `mapstructure:",squash"`
}

type Datasource struct {
	Kind string `mapstructure:"datasource"` // synthetic or sqlite
	DB   string `mapstructure:"db"`         // path of the sqlite file
	Seed int64  `mapstructure:"seed"`       // seed of the synthetic source
}

type Server struct {
	Addr         string        `mapstructure:"addr"` // listen address of the REST service
	ReadTimeout  time.Duration `mapstructure:"read-timeout"`
	WriteTimeout time.Duration `mapstructure:"write-timeout"` // plain HTTP responses only, websockets set their own
}

type Log struct {
	Level  string `mapstructure:"log-level"`  // zap level name
	Format string `mapstructure:"log-format"` // json or text
}

type Render struct {
	Width    int     `mapstructure:"width"`
	Height   int     `mapstructure:"height"`
	Padding  float64 `mapstructure:"padding"`
	Flatness float64 `mapstructure:"flatness"` // curve flattening tolerance
}

type Replay struct {
	Race  int           `mapstructure:"replay-race"`  // race replayed on the live map
	Tick  time.Duration `mapstructure:"replay-tick"`  // interval between position updates
	Speed float64       `mapstructure:"replay-speed"` // race seconds per wall clock second
}

type Notify struct {
	Webhooks []string `mapstructure:"notify-webhook"` // URLs told when a replay finishes
}

func Default() Config {
	return Config{
		Datasource: Datasource{Kind: KindSynthetic, DB: "./f1dashboard.db", Seed: 2023},
		Server:     Server{Addr: "localhost:8080", ReadTimeout: 15 * time.Second, WriteTimeout: 15 * time.Second},
		Log:        Log{Level: "info", Format: "text"},
		Render:     Render{Width: 800, Height: 600, Padding: 30, Flatness: 1.0},
		Replay:     Replay{Race: 1, Tick: 100 * time.Millisecond, Speed: 10},
	}
}

// Load resolves a Config from viper, starting from the defaults.
func Load(v *viper.Viper) (Config, error) {
	cfg := Default()
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, errors.Wrap(err, "reading configuration")
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Datasource.Kind {
	case KindSynthetic:
	case KindSQLite:
		if c.Datasource.DB == "" {
			return errors.New("sqlite datasource needs a db path")
		}
	default:
		return errors.Errorf("unknown datasource %q", c.Datasource.Kind)
	}
	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		return errors.Errorf("invalid viewport %dx%d", c.Render.Width, c.Render.Height)
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		return errors.Errorf("invalid server timeouts: read %s, write %s", c.Server.ReadTimeout, c.Server.WriteTimeout)
	}
	if c.Replay.Tick <= 0 {
		return errors.Errorf("invalid replay tick %s", c.Replay.Tick)
	}
	return nil
}
