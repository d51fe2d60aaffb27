package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"fxfeed/pkg/confkit"
	"fxfeed/pkg/journal"
	"fxfeed/pkg/pricing"
)

// OutputConf controls where emitted ticks are written.
type OutputConf struct {
	// Path of the tick journal; "-" means stdout.
	Path   string `json:",default=-"`
	Format string `json:",default=json,options=json|msgpack"`
}

// FeedConf tunes how handlers are pumped.
type FeedConf struct {
	// Handlers to run; empty means the pricing default.
	Handlers []string `json:",optional"`
	// Limit stops each handler after this many ticks; zero is unlimited.
	Limit int `json:",default=0"`
	// Interval paces each handler, e.g. 100ms. Empty means as fast as possible.
	Interval string `json:",optional"`
	// Buffer is the capacity of the shared tick channel.
	Buffer int `json:",default=256"`
}

const (
	defaultOutputPath = "-"
	defaultFeedBuffer = 256
)

type Config struct {
	Name string `json:",default=fxfeed"`
	// Env indicates the running environment: test | dev | prod.
	Env string       `json:",default=test"`
	Log logx.LogConf `json:",optional"`

	Output OutputConf `json:",optional"`
	Feed   FeedConf   `json:",optional"`

	Pricing confkit.Section[pricing.Config] `json:",optional"`

	mainPath string
	baseDir  string
	interval time.Duration
}

func (c *Config) IsTestEnv() bool {
	return c.Env == "test" || c.Env == ""
}

func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

func Load(path string) (*Config, error) {
	cfg, absPath, err := confkit.LoadFile[Config](path)
	if err != nil {
		return nil, err
	}

	cfg.mainPath = absPath
	cfg.baseDir = filepath.Dir(absPath)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Pricing.Hydrate(cfg.baseDir, pricing.LoadConfig); err != nil {
		return nil, fmt.Errorf("load pricing config: %w", err)
	}
	if err := cfg.validateFeed(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	env := strings.ToLower(strings.TrimSpace(c.Env))
	switch env {
	case "":
		c.Env = "test"
	case "test", "dev", "prod":
		c.Env = env
	default:
		return errors.New("config: env must be one of test|dev|prod")
	}
	c.applyDefaults()
	if _, err := journal.ParseFormat(c.Output.Format); err != nil {
		return fmt.Errorf("config: output: %w", err)
	}
	if c.Feed.Limit < 0 {
		return errors.New("config: feed.limit must not be negative")
	}
	if c.Feed.Buffer <= 0 {
		return errors.New("config: feed.buffer must be positive")
	}
	if s := strings.TrimSpace(c.Feed.Interval); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil || d < 0 {
			return fmt.Errorf("config: feed.interval %q is not a valid duration", c.Feed.Interval)
		}
		c.interval = d
	}
	return nil
}

// applyDefaults fills what go-zero leaves unset when an optional section such
// as Output or Feed is absent from the file.
func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.Output.Path) == "" {
		c.Output.Path = defaultOutputPath
	}
	if strings.TrimSpace(c.Output.Format) == "" {
		c.Output.Format = string(journal.FormatJSON)
	}
	if c.Feed.Buffer == 0 {
		c.Feed.Buffer = defaultFeedBuffer
	}
}

// validateFeed checks handler names against the hydrated pricing section.
func (c *Config) validateFeed() error {
	if !c.Pricing.Loaded() {
		return nil
	}
	for _, name := range c.Feed.Handlers {
		if _, ok := c.Pricing.Value.Handlers[name]; !ok {
			return fmt.Errorf("config: feed handler %q not defined in %s", name, c.Pricing.File)
		}
	}
	return nil
}

// HandlerNames returns the handlers to run: the configured list, else the
// pricing default.
func (c *Config) HandlerNames() []string {
	if len(c.Feed.Handlers) > 0 {
		return c.Feed.Handlers
	}
	if c.Pricing.Loaded() && c.Pricing.Value.Default != "" {
		return []string{c.Pricing.Value.Default}
	}
	return nil
}

// Interval is the parsed Feed.Interval.
func (c *Config) Interval() time.Duration {
	return c.interval
}

func (c *Config) MainPath() string {
	return c.mainPath
}

func (c *Config) BaseDir() string {
	return c.baseDir
}

// DefaultPricingPath is etc/pricing.yaml under the project root.
func DefaultPricingPath() string {
	return confkit.MustProjectPath("etc/pricing.yaml")
}

// MustLoadPricing loads etc/pricing.yaml from the project root and panics on error.
func MustLoadPricing() *pricing.Config {
	return pricing.MustLoad()
}
