package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/tribofit/internal/friction"
	"github.com/san-kum/tribofit/internal/params"
)

const (
	DefaultModel   = "lugre"
	DefaultRelTol  = 1e-8
	DefaultAbsTol  = 1e-6
	DefaultMaxStep = 1e-3
	DefaultMethod  = "trbdf2"
	DefaultMaxIter = 200
)

// Config describes a run for the CLI: the model variant, its parameter
// vector in codec order, and solver settings.
type Config struct {
	Model   string    `yaml:"model"`
	Params  []float64 `yaml:"params,flow"`
	Lower   []float64 `yaml:"lower,omitempty,flow"`
	Upper   []float64 `yaml:"upper,omitempty,flow"`
	Z0      []float64 `yaml:"z0,omitempty,flow"`
	RelTol  float64   `yaml:"reltol"`
	AbsTol  float64   `yaml:"abstol"`
	MaxStep float64   `yaml:"dtmax"`
	Method  string    `yaml:"method"`
	MaxIter int       `yaml:"max_iter"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:   DefaultModel,
		RelTol:  DefaultRelTol,
		AbsTol:  DefaultAbsTol,
		MaxStep: DefaultMaxStep,
		Method:  DefaultMethod,
		MaxIter: DefaultMaxIter,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// BuildModel decodes the configured parameter vector, falling back to the
// variant's stock parameters when none is given.
func (c *Config) BuildModel() (friction.Model, error) {
	kind, err := params.KindFromString(c.Model)
	if err != nil {
		return nil, err
	}
	if len(c.Params) == 0 {
		return stockModel(kind), nil
	}
	m, err := params.Decode(kind, c.Params)
	if err != nil {
		return nil, err
	}
	return m, m.Validate()
}

func stockModel(kind friction.Kind) friction.Model {
	switch kind {
	case friction.KindCoulomb:
		return friction.NewCoulomb()
	case friction.KindHyperbolic:
		return friction.NewHyperbolic()
	case friction.KindElastoPlastic:
		return friction.NewElastoPlastic()
	case friction.KindGMS:
		return friction.NewGeneralizedMaxwellSlip(3)
	default:
		return friction.NewLuGre()
	}
}
