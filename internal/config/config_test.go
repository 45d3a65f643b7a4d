package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/forcelab/internal/graph"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Placement != "uniform" {
		t.Errorf("expected placement uniform, got %s", cfg.Placement)
	}
	if cfg.Steps <= 0 {
		t.Error("steps should be positive")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantMsg string
	}{
		{"bad placement", func(c *Config) { c.Placement = "grid" }, "placement must be one of"},
		{"negative steps", func(c *Config) { c.Steps = -1 }, "steps must be >= 0"},
		{"fps too high", func(c *Config) { c.FPS = 1000 }, "fps must be <= 240"},
		{"zero gain", func(c *Config) { c.Params.C4 = 0 }, "params.c4 must be > 0"},
		{"bad repulsion", func(c *Config) { c.Repulsion.Mode = "fmm" }, "repulsion.mode must be one of"},
		{"missing addr", func(c *Config) { c.Server.Addr = "" }, "server.addr is required"},
		{"bad level", func(c *Config) { c.Log.Level = "trace" }, "log.level must be one of"},
		{"too many workers", func(c *Config) { c.Workers = 1000 }, "workers must be <= 256"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestLoadAndSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "forcelab.yaml")

	require.NoError(t, os.WriteFile(path, []byte("steps: 42\nrepulsion:\n  mode: barneshut\n"), 0644))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.Steps)
	assert.Equal(t, "barneshut", cfg.Repulsion.Mode)
	assert.Equal(t, DefaultTheta, cfg.Repulsion.Theta, "unset fields keep defaults")

	out := filepath.Join(dir, "saved.yaml")
	require.NoError(t, Save(out, cfg))
	back, err := Load(out)
	require.NoError(t, err)
	assert.Equal(t, cfg, back)

	require.NoError(t, os.WriteFile(path, []byte("placement: grid\n"), 0644))
	_, err = Load(path)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("large")
	require.NotNil(t, cfg)
	assert.Equal(t, "barneshut", cfg.Repulsion.Mode)

	cfg.Steps = 1
	assert.NotEqual(t, 1, Presets["large"].Steps, "preset must be copied")

	assert.Nil(t, GetPreset("nonexistent"))
}

func TestPresetsValid(t *testing.T) {
	names := ListPresets()
	require.NotEmpty(t, names)
	for _, name := range names {
		assert.NoError(t, GetPreset(name).Validate(), name)
	}
}

func TestSimConfig(t *testing.T) {
	cfg := DefaultConfig()
	sc := cfg.SimConfig()
	assert.True(t, sc.AutoTune)
	assert.Equal(t, DefaultSteps, sc.Steps)
	assert.Equal(t, DefaultFPS, sc.FPS)
	assert.Equal(t, graph.Params{C1: DefaultC1, C2: DefaultC2, C3: DefaultC3, C4: DefaultC4}, sc.Params)

	assert.IsType(t, &graph.ExactRepulsion{}, cfg.NewRepulsion())
	cfg.Repulsion.Mode = "barneshut"
	assert.IsType(t, &graph.BarnesHutRepulsion{}, cfg.NewRepulsion())
}

func TestWorkerCount(t *testing.T) {
	cfg := DefaultConfig()
	assert.GreaterOrEqual(t, cfg.WorkerCount(), 1)
	cfg.Workers = 3
	assert.Equal(t, 3, cfg.WorkerCount())
}
