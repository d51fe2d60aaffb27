package svc

import (
	"errors"
	"fmt"

	"fxfeed/internal/config"
	"fxfeed/pkg/pricing"
	_ "fxfeed/pkg/pricing/historic"
	"fxfeed/pkg/pricing/oanda"
	_ "fxfeed/pkg/pricing/synthetic"
)

type ServiceContext struct {
	Config config.Config

	PricingConfig *pricing.Config
	// Handlers holds the handlers selected by Feed.Handlers (or the pricing
	// default), built but not yet initialized.
	Handlers map[string]pricing.Handler
	// Order lists Handlers keys in configuration order.
	Order []string
}

func NewServiceContext(c config.Config) (*ServiceContext, error) {
	pricingCfg := c.Pricing.Value
	if pricingCfg == nil {
		var err error
		if pricingCfg, err = pricing.LoadConfig(config.DefaultPricingPath()); err != nil {
			return nil, fmt.Errorf("load pricing config: %w", err)
		}
	}

	// Apply test environment defaults: streams never reach the live environment.
	if c.IsTestEnv() {
		for _, h := range pricingCfg.Handlers {
			if h.Type == oanda.TypeName && h.Environment == "live" {
				h.Environment = "practice"
				h.Domain = ""
			}
		}
	}

	names := c.HandlerNames()
	if len(names) == 0 && pricingCfg.Default != "" {
		names = []string{pricingCfg.Default}
	}
	if len(names) == 0 {
		return nil, errors.New("no price handlers selected")
	}

	all, err := pricingCfg.BuildHandlers()
	if err != nil {
		return nil, err
	}
	selected := make(map[string]pricing.Handler, len(names))
	for _, name := range names {
		h, ok := all[name]
		if !ok {
			return nil, fmt.Errorf("price handler %q not defined", name)
		}
		selected[name] = h
	}

	return &ServiceContext{
		Config:        c,
		PricingConfig: pricingCfg,
		Handlers:      selected,
		Order:         names,
	}, nil
}

// HandlerConfig returns the configuration for a selected handler.
func (s *ServiceContext) HandlerConfig(name string) *pricing.HandlerConfig {
	return s.PricingConfig.Handlers[name]
}
