// Package config loads the experiment settings of the elastic command.
//
// Settings are layered: Default(), then an optional YAML or TOML file, then
// environment variables prefixed with MATPIPE (MATPIPE_DATASET_PATH,
// MATPIPE_CV_SEED, MATPIPE_LOG_LEVEL, ...).
package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/matpipe/matpipe/pkg/errors"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "MATPIPE"

type Config struct {
	Dataset  DatasetConfig  `yaml:"dataset" toml:"dataset" json:"dataset"`
	Features FeaturesConfig `yaml:"features" toml:"features" json:"features"`
	Model    ModelConfig    `yaml:"model" toml:"model" json:"model"`
	CV       CVConfig       `yaml:"cv" toml:"cv" json:"cv"`
	Search   SearchConfig   `yaml:"search" toml:"search" json:"search"`
	Log      LogConfig      `yaml:"log" toml:"log" json:"log"`
	Report   ReportConfig   `yaml:"report" toml:"report" json:"report"`
}

type DatasetConfig struct {
	Path   string `yaml:"path" toml:"path" json:"path"`
	Target string `yaml:"target" toml:"target" json:"target"`
	// Drop is removed right after loading. Unknown names are ignored.
	Drop []string `yaml:"drop" toml:"drop" json:"drop"`
	// Exclude is left out of the remaining-numeric feature block.
	Exclude []string `yaml:"exclude" toml:"exclude" json:"exclude"`
}

type FeaturesConfig struct {
	// Properties and Stats configure the element block; empty means all.
	Properties []string `yaml:"properties" toml:"properties" json:"properties"`
	Stats      []string `yaml:"stats" toml:"stats" json:"stats"`
	NJobs      int      `yaml:"n_jobs" toml:"n_jobs" json:"n_jobs" envconfig:"N_JOBS"`
}

type ModelConfig struct {
	// Estimator is "linear" or "ridge".
	Estimator string `yaml:"estimator" toml:"estimator" json:"estimator"`
	// Scaler is "none", "standard" or "minmax".
	Scaler       string  `yaml:"scaler" toml:"scaler" json:"scaler"`
	FitIntercept bool    `yaml:"fit_intercept" toml:"fit_intercept" json:"fit_intercept" envconfig:"FIT_INTERCEPT"`
	Alpha        float64 `yaml:"alpha" toml:"alpha" json:"alpha"`
}

type CVConfig struct {
	NSplits  int    `yaml:"n_splits" toml:"n_splits" json:"n_splits" envconfig:"N_SPLITS"`
	NRepeats int    `yaml:"n_repeats" toml:"n_repeats" json:"n_repeats" envconfig:"N_REPEATS"`
	Seed     uint64 `yaml:"seed" toml:"seed" json:"seed"`
	Scoring  string `yaml:"scoring" toml:"scoring" json:"scoring"`
	NJobs    int    `yaml:"n_jobs" toml:"n_jobs" json:"n_jobs" envconfig:"N_JOBS"`
}

type SearchConfig struct {
	// Kind is "none", "grid" or "random".
	Kind          string                        `yaml:"kind" toml:"kind" json:"kind"`
	Grid          map[string][]interface{}      `yaml:"grid" toml:"grid" json:"grid,omitempty" ignored:"true"`
	Distributions map[string]DistributionConfig `yaml:"distributions" toml:"distributions" json:"distributions,omitempty" ignored:"true"`
	NIter         int                           `yaml:"n_iter" toml:"n_iter" json:"n_iter" envconfig:"N_ITER"`
	Seed          uint64                        `yaml:"seed" toml:"seed" json:"seed"`
	Refit         bool                          `yaml:"refit" toml:"refit" json:"refit"`
}

type LogConfig struct {
	Level  string `yaml:"level" toml:"level" json:"level"`
	Pretty bool   `yaml:"pretty" toml:"pretty" json:"pretty"`
}

type ReportConfig struct {
	// Store is the bbolt file runs are saved to; empty disables it.
	Store string `yaml:"store" toml:"store" json:"store"`
	// Plot is the PNG/SVG/PDF path of the predicted-vs-actual plot; empty disables it.
	Plot    string  `yaml:"plot" toml:"plot" json:"plot"`
	R2Min   float64 `yaml:"r2_min" toml:"r2_min" json:"r2_min" envconfig:"R2_MIN"`
	R2Max   float64 `yaml:"r2_max" toml:"r2_max" json:"r2_max" envconfig:"R2_MAX"`
	RMSEMin float64 `yaml:"rmse_min" toml:"rmse_min" json:"rmse_min" envconfig:"RMSE_MIN"`
	RMSEMax float64 `yaml:"rmse_max" toml:"rmse_max" json:"rmse_max" envconfig:"RMSE_MAX"`
}

// Default returns the settings of the bulk-modulus walkthrough.
func Default() *Config {
	return &Config{
		Dataset: DatasetConfig{
			Path:   "elastic_tensor_2015.json.gz",
			Target: "K_VRH",
			Drop: []string{
				"volume", "nsites", "compliance_tensor", "elastic_tensor",
				"elastic_tensor_original", "K_Voigt", "G_Voigt", "K_Reuss", "G_Reuss",
			},
			Exclude: []string{
				"G_VRH", "K_VRH", "elastic_anisotropy", "formula", "material_id",
				"poisson_ratio", "structure", "composition", "composition_oxid",
			},
		},
		Features: FeaturesConfig{NJobs: 1},
		Model: ModelConfig{
			Estimator:    "linear",
			Scaler:       "none",
			FitIntercept: true,
			Alpha:        1,
		},
		CV: CVConfig{
			NSplits:  5,
			NRepeats: 1,
			Seed:     1,
			Scoring:  "neg_root_mean_squared_error",
		},
		Search: SearchConfig{
			Kind:  "none",
			NIter: 10,
			Seed:  1,
			Refit: true,
		},
		Log: LogConfig{Level: "info"},
		Report: ReportConfig{
			R2Min:   0.90,
			R2Max:   0.95,
			RMSEMin: 15,
			RMSEMax: 25,
		},
	}
}

// Load reads path over Default(), applies MATPIPE_* environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
		if err := decode(cfg, data, filepath.Ext(path)); err != nil {
			return nil, errors.Wrapf(err, "parse config %s", path)
		}
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, errors.Wrap(err, "environment overrides")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(cfg *Config, data []byte, ext string) error {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		// An empty document leaves the defaults untouched.
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil
	case ".toml":
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return err
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return errors.NewValidationError("config", "unknown keys", undecoded[0].String())
		}
		return nil
	default:
		return errors.NewValidationError("config", "unsupported config format (want .yaml, .yml or .toml)", ext)
	}
}
