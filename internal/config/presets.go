package config

import "sort"

func preset(apply func(c *Config)) *Config {
	c := DefaultConfig()
	apply(c)
	return c
}

var Presets = map[string]*Config{
	"default": DefaultConfig(),
	"fixed": preset(func(c *Config) {
		c.AutoTune = false
	}),
	"large": preset(func(c *Config) {
		c.Steps = 2000
		c.Repulsion = RepulsionConfig{Mode: "barneshut", Theta: 0.7}
	}),
	"precise": preset(func(c *Config) {
		c.Steps = 1200
		c.Repulsion = RepulsionConfig{Mode: "barneshut", Theta: 0.3}
	}),
	"ring": preset(func(c *Config) {
		c.Placement = "circle"
	}),
	"organic": preset(func(c *Config) {
		c.Placement = "noise"
		c.Params.C3 = 5000
		c.AutoTune = false
	}),
	"headless": preset(func(c *Config) {
		c.FPS = 0
		c.Steps = 5000
	}),
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := *p
	return &cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
