package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "fxfeed/pkg/pricing/historic"
	_ "fxfeed/pkg/pricing/oanda"
	_ "fxfeed/pkg/pricing/synthetic"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadHydratesPricing(t *testing.T) {
	t.Setenv("NO_DOTENV", "1")
	t.Setenv("FXFEED_TEST_ENV", "DEV")
	t.Setenv("FXFEED_TEST_CSV", "/data/ticks")
	dir := t.TempDir()
	writeFile(t, dir, "pricing.yaml", `
default: walk
handlers:
  walk:
    type: synthetic
    seed: 1
  replay:
    type: historic
    pairs: [EURUSD]
    csv_dir: ${FXFEED_TEST_CSV}
`)
	mainPath := writeFile(t, dir, "fxfeed.yaml", `
Env: ${FXFEED_TEST_ENV}
Output:
  Format: msgpack
  Path: ticks.mp
Feed:
  Handlers: [walk, replay]
  Interval: 250ms
Pricing:
  File: pricing.yaml
`)

	cfg, err := Load(mainPath)
	require.NoError(t, err)
	assert.Equal(t, "dev", cfg.Env)
	assert.False(t, cfg.IsTestEnv())
	assert.Equal(t, "fxfeed", cfg.Name)
	assert.Equal(t, "msgpack", cfg.Output.Format)
	assert.Equal(t, 256, cfg.Feed.Buffer)
	assert.Equal(t, 250*time.Millisecond, cfg.Interval())
	assert.Equal(t, []string{"walk", "replay"}, cfg.HandlerNames())
	assert.Equal(t, dir, cfg.BaseDir())
	assert.Equal(t, mainPath, cfg.MainPath())

	require.True(t, cfg.Pricing.Loaded())
	assert.Equal(t, filepath.Join(dir, "pricing.yaml"), cfg.Pricing.File)
	assert.Equal(t, "/data/ticks", cfg.Pricing.Value.Handlers["replay"].CSVDir)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("NO_DOTENV", "1")
	dir := t.TempDir()
	writeFile(t, dir, "pricing.yaml", "default: walk\nhandlers:\n  walk:\n    type: synthetic\n")
	mainPath := writeFile(t, dir, "fxfeed.yaml", "Pricing:\n  File: pricing.yaml\n")

	cfg, err := Load(mainPath)
	require.NoError(t, err)
	assert.True(t, cfg.IsTestEnv())
	assert.Equal(t, "-", cfg.Output.Path)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.Zero(t, cfg.Interval())
	assert.Equal(t, 256, cfg.Feed.Buffer)
	assert.Zero(t, cfg.Feed.Limit)
	assert.Equal(t, []string{"walk"}, cfg.HandlerNames())
}

func TestLoadPartialFeedKeepsBufferDefault(t *testing.T) {
	t.Setenv("NO_DOTENV", "1")
	dir := t.TempDir()
	writeFile(t, dir, "pricing.yaml", "default: walk\nhandlers:\n  walk:\n    type: synthetic\n")
	mainPath := writeFile(t, dir, "fxfeed.yaml", "Feed:\n  Limit: 3\nPricing:\n  File: pricing.yaml\n")

	cfg, err := Load(mainPath)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Feed.Limit)
	assert.Equal(t, 256, cfg.Feed.Buffer)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("NO_DOTENV", "1")
	cases := map[string]string{
		"env":             "Env: staging\n",
		"interval":        "Feed:\n  Interval: soon\n",
		"buffer":          "Feed:\n  Buffer: -1\n",
		"limit":           "Feed:\n  Limit: -5\n",
		"unknown handler": "Feed:\n  Handlers: [nope]\nPricing:\n  File: pricing.yaml\n",
		"missing pricing": "Pricing:\n  File: absent.yaml\n",
		"bad output":      "Output:\n  Format: xml\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, "pricing.yaml", "handlers:\n  walk:\n    type: synthetic\n")
			_, err := Load(writeFile(t, dir, "fxfeed.yaml", body))
			assert.Error(t, err)
		})
	}
}

func TestRepositoryConfigLoads(t *testing.T) {
	t.Setenv("NO_DOTENV", "1")
	cfg, err := Load(filepath.Join("..", "..", "etc", "fxfeed.yaml"))
	require.NoError(t, err)
	require.True(t, cfg.Pricing.Loaded())
	assert.Contains(t, cfg.Pricing.Value.Handlers, "walk")
	assert.Equal(t, []string{"walk"}, cfg.HandlerNames())
	assert.NotNil(t, MustLoadPricing())
}
