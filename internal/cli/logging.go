package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"fxfeed/internal/config"
	"fxfeed/pkg/confkit"
	"fxfeed/pkg/pricing"
)

// ConfigSummaryLines returns human readable lines describing the loaded app config.
func ConfigSummaryLines(cfg *config.Config) []string {
	if cfg == nil {
		return []string{"Configuration: <nil>"}
	}

	interval := "unpaced"
	if d := cfg.Interval(); d > 0 {
		interval = d.String()
	}
	limit := "unlimited"
	if cfg.Feed.Limit > 0 {
		limit = fmt.Sprintf("%d ticks", cfg.Feed.Limit)
	}

	lines := []string{
		fmt.Sprintf("Environment: %s", cfg.Env),
		fmt.Sprintf("Output: %s (%s)", cfg.Output.Path, cfg.Output.Format),
		fmt.Sprintf("Feed: handlers=%s limit=%s interval=%s", strings.Join(cfg.HandlerNames(), ","), limit, interval),
		sectionLine("Pricing config", cfg.Pricing),
	}
	if cfg.Pricing.Loaded() {
		lines = append(lines, HandlerSummaryLines(cfg.Pricing.Value)...)
	}
	return lines
}

// HandlerSummaryLines describes each configured price handler, sorted by name.
func HandlerSummaryLines(cfg *pricing.Config) []string {
	names := make([]string, 0, len(cfg.Handlers))
	for name := range cfg.Handlers {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]string, 0, len(names))
	for _, name := range names {
		h := cfg.Handlers[name]
		marker := ""
		if name == cfg.Default {
			marker = " (default)"
		}
		var detail string
		switch h.Type {
		case "historic":
			detail = fmt.Sprintf("dir=%s pairs=%s", h.CSVDir, strings.Join(h.Pairs, ","))
		case "oanda":
			detail = fmt.Sprintf("env=%s pairs=%s token=%s", orDefault(h.Environment, "practice"), strings.Join(h.Pairs, ","), presence(h.AccessToken != ""))
		case "synthetic":
			detail = fmt.Sprintf("instrument=%s", orDefault(h.Instrument, "EURUSD"))
		default:
			detail = fmt.Sprintf("pairs=%s", strings.Join(h.Pairs, ","))
		}
		lines = append(lines, fmt.Sprintf("Handler %s%s: %s %s", name, marker, h.Type, detail))
	}
	return lines
}

// LogConfigSummary emits the configuration summary using logx.
func LogConfigSummary(cfg *config.Config) {
	lines := ConfigSummaryLines(cfg)
	if len(lines) == 0 {
		return
	}
	logx.Info("configuration summary")
	for _, line := range lines {
		logx.Infof("config • %s", line)
	}
}

// QuoteSummaryLines describes the latest quote of every symbol in a handler's
// price table. Symbols without a quote yet are reported as pending.
func QuoteSummaryLines(handler string, table *pricing.PriceTable) []string {
	if table == nil {
		return nil
	}
	snap := table.Snapshot()
	lines := make([]string, 0, len(snap))
	for _, sym := range table.Symbols() {
		entry := snap[sym]
		if !entry.Ready() {
			lines = append(lines, fmt.Sprintf("%s %s: pending", handler, sym))
			continue
		}
		lines = append(lines, fmt.Sprintf("%s %s: bid=%s ask=%s at %s", handler, sym,
			pricing.FormatPrice(entry.Bid.Decimal), pricing.FormatPrice(entry.Ask.Decimal), entry.Time.Format(time.RFC3339Nano)))
	}
	return lines
}

// LogQuoteSummary emits the last quotes held by a handler.
func LogQuoteSummary(handler string, table *pricing.PriceTable) {
	for _, line := range QuoteSummaryLines(handler, table) {
		logx.Infof("quotes • %s", line)
	}
}

func presence(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

func sectionLine[T any](name string, section confkit.Section[T]) string {
	switch {
	case strings.TrimSpace(section.File) != "":
		return fmt.Sprintf("%s: %s", name, section.File)
	case section.Value != nil:
		return fmt.Sprintf("%s: inline", name)
	default:
		return fmt.Sprintf("%s: not configured", name)
	}
}
