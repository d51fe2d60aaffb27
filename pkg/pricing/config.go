package pricing

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"fxfeed/pkg/confkit"
)

// Config describes the set of price handlers available to the application.
type Config struct {
	Default  string                    `yaml:"default"`
	Handlers map[string]*HandlerConfig `yaml:"handlers"`
}

// HandlerConfig is the configuration passed to Handler.Initialize. Fields not
// used by a handler type are ignored by it.
type HandlerConfig struct {
	Type  string   `yaml:"type"`
	Pairs []string `yaml:"pairs"`

	// historic
	CSVDir    string `yaml:"csv_dir"`
	Extension string `yaml:"extension"`
	Location  string `yaml:"location"`

	// oanda
	Environment       string        `yaml:"environment"`
	Domain            string        `yaml:"domain"`
	BaseURL           string        `yaml:"base_url"`
	AccessToken       string        `yaml:"access_token"`
	AccountID         string        `yaml:"account_id"`
	DatetimeFormat    string        `yaml:"datetime_format"`
	ConnectTimeoutRaw string        `yaml:"connect_timeout"`
	ConnectTimeout    time.Duration `yaml:"-"`

	// synthetic
	Instrument   string          `yaml:"instrument"`
	BasePriceRaw string          `yaml:"base_price"`
	BasePrice    decimal.Decimal `yaml:"-"`
	SpreadRaw    string          `yaml:"spread"`
	Spread       decimal.Decimal `yaml:"-"`
	StartTimeRaw string          `yaml:"start_time"`
	StartTime    time.Time       `yaml:"-"`
	GapMeanMs    *float64        `yaml:"gap_mean_ms"`
	GapStdDevMs  *float64        `yaml:"gap_stddev_ms"`
	Seed         *int64          `yaml:"seed"`
}

// HandlerBuilder constructs an uninitialized Handler from configuration.
type HandlerBuilder func(name string, cfg *HandlerConfig) (Handler, error)

var (
	handlerRegistry   = make(map[string]HandlerBuilder)
	handlerRegistryMu sync.RWMutex
)

// RegisterHandler registers a handler constructor under a type name.
func RegisterHandler(typeName string, builder HandlerBuilder) {
	handlerRegistryMu.Lock()
	defer handlerRegistryMu.Unlock()
	handlerRegistry[strings.ToLower(strings.TrimSpace(typeName))] = builder
}

func lookupHandlerBuilder(typeName string) (HandlerBuilder, bool) {
	handlerRegistryMu.RLock()
	defer handlerRegistryMu.RUnlock()
	builder, ok := handlerRegistry[strings.ToLower(strings.TrimSpace(typeName))]
	return builder, ok
}

// LoadConfig reads pricing configuration from disk.
func LoadConfig(path string) (*Config, error) {
	confkit.LoadDotenvOnce()
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pricing config: %w", err)
	}
	defer file.Close()
	return LoadConfigFromReader(file)
}

// MustLoad reads etc/pricing.yaml from the project root and panics on error.
func MustLoad() *Config {
	cfg, err := LoadConfig(confkit.MustProjectPath("etc/pricing.yaml"))
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadConfigFromReader constructs a Config from an io.Reader.
func LoadConfigFromReader(r io.Reader) (*Config, error) {
	confkit.LoadDotenvOnce()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read pricing config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal pricing config: %w", err)
	}
	if err := cfg.normalise(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalise() error {
	if c.Handlers == nil {
		c.Handlers = make(map[string]*HandlerConfig)
	}
	c.Default = strings.TrimSpace(os.ExpandEnv(c.Default))
	for name, handler := range c.Handlers {
		if handler == nil {
			handler = &HandlerConfig{}
			c.Handlers[name] = handler
		}
		if err := handler.Normalise(name); err != nil {
			return err
		}
	}
	return nil
}

// Normalise expands environment placeholders, canonicalises pair symbols and
// parses the raw duration, price and time fields. It is safe to call repeatedly.
func (h *HandlerConfig) Normalise(name string) error {
	h.expandEnv()
	pairs := make([]string, 0, len(h.Pairs))
	seen := make(map[string]struct{}, len(h.Pairs))
	for _, p := range h.Pairs {
		p = NormalizeInstrument(os.ExpandEnv(p))
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		pairs = append(pairs, p)
	}
	h.Pairs = pairs
	if h.Instrument != "" {
		h.Instrument = NormalizeInstrument(h.Instrument)
	}
	return h.parseRaw(name)
}

func (h *HandlerConfig) expandEnv() {
	h.Type = strings.TrimSpace(os.ExpandEnv(h.Type))
	h.CSVDir = strings.TrimSpace(os.ExpandEnv(h.CSVDir))
	h.Extension = strings.TrimPrefix(strings.TrimSpace(os.ExpandEnv(h.Extension)), ".")
	h.Location = strings.TrimSpace(os.ExpandEnv(h.Location))
	h.Environment = strings.ToLower(strings.TrimSpace(os.ExpandEnv(h.Environment)))
	h.Domain = strings.TrimSpace(os.ExpandEnv(h.Domain))
	h.BaseURL = strings.TrimRight(strings.TrimSpace(os.ExpandEnv(h.BaseURL)), "/")
	h.AccessToken = strings.TrimSpace(os.ExpandEnv(h.AccessToken))
	h.AccountID = strings.TrimSpace(os.ExpandEnv(h.AccountID))
	h.DatetimeFormat = strings.ToUpper(strings.TrimSpace(os.ExpandEnv(h.DatetimeFormat)))
	h.ConnectTimeoutRaw = strings.TrimSpace(os.ExpandEnv(h.ConnectTimeoutRaw))
	h.Instrument = strings.TrimSpace(os.ExpandEnv(h.Instrument))
	h.BasePriceRaw = strings.TrimSpace(os.ExpandEnv(h.BasePriceRaw))
	h.SpreadRaw = strings.TrimSpace(os.ExpandEnv(h.SpreadRaw))
	h.StartTimeRaw = strings.TrimSpace(os.ExpandEnv(h.StartTimeRaw))
}

func (h *HandlerConfig) parseRaw(name string) error {
	if h.ConnectTimeoutRaw != "" {
		d, err := time.ParseDuration(h.ConnectTimeoutRaw)
		if err != nil {
			return fmt.Errorf("pricing handler %s: invalid connect_timeout %q: %w", name, h.ConnectTimeoutRaw, err)
		}
		if d <= 0 {
			return fmt.Errorf("pricing handler %s: connect_timeout must be positive, got %s", name, d)
		}
		h.ConnectTimeout = d
	}
	if h.BasePriceRaw != "" {
		d, err := decimal.NewFromString(h.BasePriceRaw)
		if err != nil {
			return fmt.Errorf("pricing handler %s: invalid base_price %q: %w", name, h.BasePriceRaw, err)
		}
		h.BasePrice = d
	}
	if h.SpreadRaw != "" {
		d, err := decimal.NewFromString(h.SpreadRaw)
		if err != nil {
			return fmt.Errorf("pricing handler %s: invalid spread %q: %w", name, h.SpreadRaw, err)
		}
		h.Spread = d
	}
	if h.StartTimeRaw != "" {
		ts, err := time.Parse(time.RFC3339Nano, h.StartTimeRaw)
		if err != nil {
			return fmt.Errorf("pricing handler %s: invalid start_time %q: %w", name, h.StartTimeRaw, err)
		}
		h.StartTime = ts
	}
	return nil
}

// Validate ensures the configuration is structurally sound.
func (c *Config) Validate() error {
	if len(c.Handlers) == 0 {
		return fmt.Errorf("pricing config: handlers cannot be empty")
	}
	if c.Default != "" {
		if _, ok := c.Handlers[c.Default]; !ok {
			return fmt.Errorf("pricing config: default handler %q not defined", c.Default)
		}
	}
	for name, handler := range c.Handlers {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("pricing config: handler name cannot be empty")
		}
		if err := handler.validate(name); err != nil {
			return err
		}
	}
	return nil
}

func (h *HandlerConfig) validate(name string) error {
	if h == nil {
		return fmt.Errorf("pricing config: handler %s is nil", name)
	}
	if h.Type == "" {
		return fmt.Errorf("pricing config: handler %s must specify type", name)
	}
	if _, ok := lookupHandlerBuilder(h.Type); !ok {
		return fmt.Errorf("pricing config: handler %s has unsupported type %q", name, h.Type)
	}
	for _, p := range h.Pairs {
		if err := ValidatePair(p); err != nil {
			return fmt.Errorf("pricing config: handler %s: %w", name, err)
		}
	}
	return nil
}

// BuildHandlers instantiates every configured handler. The handlers still need
// Initialize with their HandlerConfig before use.
func (c *Config) BuildHandlers() (map[string]Handler, error) {
	result := make(map[string]Handler, len(c.Handlers))
	for name, handlerCfg := range c.Handlers {
		builder, ok := lookupHandlerBuilder(handlerCfg.Type)
		if !ok {
			return nil, fmt.Errorf("pricing handler %s: unsupported type %q", name, handlerCfg.Type)
		}
		handler, err := builder(name, handlerCfg)
		if err != nil {
			return nil, fmt.Errorf("pricing handler %s: %w", name, err)
		}
		result[name] = handler
	}
	return result, nil
}
