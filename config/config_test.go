package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matpipe/matpipe/pkg/errors"
	"github.com/matpipe/matpipe/preprocessing"
	"github.com/matpipe/matpipe/selection"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\"): %v", err)
	}
	if cfg.Dataset.Target != "K_VRH" || cfg.CV.NSplits != 5 || !cfg.Model.FitIntercept {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "run.yaml", `
dataset:
  path: data/elastic.json.xz
model:
  estimator: ridge
  scaler: standard
  alpha: 0.5
cv:
  n_repeats: 3
search:
  kind: grid
  grid:
    model__alpha: [0.1, 1, 10]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Dataset.Path != "data/elastic.json.xz" {
		t.Errorf("path = %q", cfg.Dataset.Path)
	}
	if len(cfg.Dataset.Drop) != len(Default().Dataset.Drop) {
		t.Error("unset keys should keep their defaults")
	}
	if cfg.Model.Estimator != EstimatorRidge || cfg.Model.Alpha != 0.5 {
		t.Errorf("model = %+v", cfg.Model)
	}
	if g := cfg.Search.ParamGrid(); g.Len() != 3 {
		t.Errorf("grid = %v", g)
	}
	if _, ok := cfg.CV.Splitter().(*selection.RepeatedKFold); !ok {
		t.Errorf("splitter = %T, want RepeatedKFold", cfg.CV.Splitter())
	}

	p, err := cfg.Model.Pipeline()
	if err != nil {
		t.Fatal(err)
	}
	est, ok := p.Named("scaler")
	if !ok {
		t.Fatal("no scaler step")
	}
	if _, ok := est.(*preprocessing.StandardScaler); !ok {
		t.Errorf("scaler = %T", est)
	}
	if got := p.GetParams()["model__alpha"]; got != 0.5 {
		t.Errorf("model__alpha = %v", got)
	}
}

func TestLoadTOML(t *testing.T) {
	path := writeConfig(t, "run.toml", `
[model]
fit_intercept = false

[search]
kind = "random"
n_iter = 5

[search.distributions.model__fit_intercept]
kind = "list"
values = [true, false]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Model.FitIntercept {
		t.Error("fit_intercept should be false")
	}
	dists, err := cfg.Search.ParamDistributions()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := dists["model__fit_intercept"].(selection.List); !ok {
		t.Errorf("distribution = %T", dists["model__fit_intercept"])
	}
	if _, ok := cfg.CV.Splitter().(*selection.KFold); !ok {
		t.Errorf("splitter = %T, want KFold", cfg.CV.Splitter())
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MATPIPE_DATASET_PATH", "/tmp/elastic.json")
	t.Setenv("MATPIPE_CV_SEED", "7")
	t.Setenv("MATPIPE_CV_N_SPLITS", "10")
	t.Setenv("MATPIPE_LOG_LEVEL", "debug")
	t.Setenv("MATPIPE_MODEL_FIT_INTERCEPT", "false")
	t.Setenv("MATPIPE_REPORT_RMSE_MAX", "30")

	path := writeConfig(t, "run.yml", "cv:\n  seed: 3\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Dataset.Path != "/tmp/elastic.json" {
		t.Errorf("path = %q", cfg.Dataset.Path)
	}
	if cfg.CV.Seed != 7 || cfg.CV.NSplits != 10 {
		t.Errorf("cv = %+v", cfg.CV)
	}
	if cfg.Log.Level != "debug" || cfg.Model.FitIntercept || cfg.Report.RMSEMax != 30 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
	}{
		{"unknown yaml key", "a.yaml", "model:\n  estimater: ridge\n"},
		{"unknown toml key", "a.toml", "[cv]\nnsplits = 3\n"},
		{"unsupported format", "a.json", "{}"},
		{"bad estimator", "a.yaml", "model:\n  estimator: forest\n"},
		{"bad scaler", "a.yaml", "model:\n  scaler: robust\n"},
		{"negative alpha", "a.yaml", "model:\n  alpha: -1\n"},
		{"one split", "a.yaml", "cv:\n  n_splits: 1\n"},
		{"bad scoring", "a.yaml", "cv:\n  scoring: accuracy\n"},
		{"empty grid", "a.yaml", "search:\n  kind: grid\n"},
		{"bad distribution", "a.yaml", "search:\n  kind: random\n  distributions:\n    model__alpha: {kind: log_range, low: 0, high: 1}\n"},
		{"bad search kind", "a.yaml", "search:\n  kind: bayes\n"},
		{"bad log level", "a.yaml", "log:\n  level: loud\n"},
		{"inverted band", "a.yaml", "report:\n  r2_min: 0.99\n  r2_max: 0.5\n"},
		{"dropped target", "a.yaml", "dataset:\n  drop: [K_VRH]\n"},
		{"bad property", "a.yaml", "features:\n  properties: [Spin]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.file, tt.body)); err == nil {
				t.Error("expected an error")
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file should fail")
	}
}

func TestDistributionConfig(t *testing.T) {
	tests := []struct {
		cfg  DistributionConfig
		want selection.Distribution
	}{
		{DistributionConfig{Kind: "range", Low: 0, High: 1}, selection.Range{Low: 0, High: 1}},
		{DistributionConfig{Kind: "log_range", Low: 0.01, High: 10}, selection.LogRange{Low: 0.01, High: 10}},
		{DistributionConfig{Kind: "int_range", Low: 1, High: 4}, selection.IntRange{Low: 1, High: 4}},
		{DistributionConfig{Kind: "value", Value: "x"}, selection.Value{V: "x"}},
	}
	for _, tt := range tests {
		got, err := tt.cfg.Distribution()
		if err != nil {
			t.Errorf("%s: %v", tt.cfg.Kind, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%s: got %#v, want %#v", tt.cfg.Kind, got, tt.want)
		}
	}

	var ve *errors.ValidationError
	if _, err := (DistributionConfig{Kind: "int_range", Low: 0.5, High: 3}).Distribution(); !errors.As(err, &ve) {
		t.Errorf("fractional int_range: got %v", err)
	}
	if _, err := (DistributionConfig{Kind: "normal"}).Distribution(); !errors.As(err, &ve) {
		t.Errorf("unknown kind: got %v", err)
	}
}
