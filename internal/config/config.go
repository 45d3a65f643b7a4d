package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/forcelab/internal/graph"
	"github.com/san-kum/forcelab/internal/sim"
)

const (
	DefaultSteps      = 600
	DefaultFPS        = 60
	DefaultPublishFPS = 30
	DefaultTheta      = 0.5
	DefaultAddr       = ":8080"
	DefaultC1         = 0.5
	DefaultC2         = 20.0
	DefaultC3         = 1000.0
	DefaultC4         = 1.0
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("config: invalid")

var validate = validator.New()

type Config struct {
	Graph     string          `yaml:"graph"`
	Placement string          `yaml:"placement" validate:"oneof=uniform noise circle"`
	Seed      int64           `yaml:"seed"`
	Steps     int             `yaml:"steps" validate:"gte=0"`
	FPS       int             `yaml:"fps" validate:"gte=0,lte=240"`
	AutoTune  bool            `yaml:"auto_tune"`
	Workers   int             `yaml:"workers" validate:"gte=0,lte=256"`
	Params    ParamsConfig    `yaml:"params"`
	Repulsion RepulsionConfig `yaml:"repulsion"`
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
}

type ParamsConfig struct {
	C1 float64 `yaml:"c1" validate:"gte=0"`
	C2 float64 `yaml:"c2"`
	C3 float64 `yaml:"c3" validate:"gte=0"`
	C4 float64 `yaml:"c4" validate:"gt=0"`
}

type RepulsionConfig struct {
	Mode  string  `yaml:"mode" validate:"oneof=exact barneshut"`
	Theta float64 `yaml:"theta" validate:"gte=0,lte=2"`
}

type ServerConfig struct {
	Addr       string `yaml:"addr" validate:"required"`
	PublishFPS int    `yaml:"publish_fps" validate:"gte=1,lte=120"`
}

type LogConfig struct {
	Level       string `yaml:"level" validate:"oneof=debug info warn error"`
	Development bool   `yaml:"development"`
}

func DefaultConfig() *Config {
	return &Config{
		Placement: "uniform",
		Seed:      1,
		Steps:     DefaultSteps,
		FPS:       DefaultFPS,
		AutoTune:  true,
		Params: ParamsConfig{
			C1: DefaultC1,
			C2: DefaultC2,
			C3: DefaultC3,
			C4: DefaultC4,
		},
		Repulsion: RepulsionConfig{
			Mode:  "exact",
			Theta: DefaultTheta,
		},
		Server: ServerConfig{
			Addr:       DefaultAddr,
			PublishFPS: DefaultPublishFPS,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load overlays the YAML file at path onto the defaults and validates it.
func Load(path string) (*Config, error) {
	return LoadOnto(DefaultConfig(), path)
}

// LoadOnto overlays the YAML file at path onto base and validates it.
func LoadOnto(base *Config, path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := *base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, formatFieldError(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
}

func formatFieldError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Namespace())
	field = strings.TrimPrefix(field, "config.")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be >= %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be > %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be <= %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// SimConfig returns the driver settings. With auto-tuning on the driver
// derives the constants from the graph size on every step.
func (c *Config) SimConfig() sim.Config {
	return sim.Config{
		Steps:    c.Steps,
		FPS:      c.FPS,
		AutoTune: c.AutoTune,
		Params:   graph.Params{C1: c.Params.C1, C2: c.Params.C2, C3: c.Params.C3, C4: c.Params.C4},
	}
}

// WorkerCount resolves Workers, where 0 means one per usable CPU.
func (c *Config) WorkerCount() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// NewRepulsion builds the configured repulsion pass.
func (c *Config) NewRepulsion() graph.Repulsion {
	if c.Repulsion.Mode == "barneshut" {
		return &graph.BarnesHutRepulsion{Theta: c.Repulsion.Theta}
	}
	return &graph.ExactRepulsion{}
}
