package main

import (
	"context"
	"io"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/matpipe/matpipe/config"
	"github.com/matpipe/matpipe/dataset"
	"github.com/matpipe/matpipe/featurize"
	"github.com/matpipe/matpipe/linear"
	"github.com/matpipe/matpipe/metrics"
	"github.com/matpipe/matpipe/pipeline"
	"github.com/matpipe/matpipe/pkg/errors"
	"github.com/matpipe/matpipe/pkg/log"
	"github.com/matpipe/matpipe/report"
	"github.com/matpipe/matpipe/selection"
)

// options are the command-line overrides applied on top of the config file.
type options struct {
	ConfigPath  string
	DatasetPath string
	StorePath   string
	PlotPath    string
	WeightsPath string
	LogLevel    string
}

func loadConfig(opts options) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.DatasetPath != "" {
		cfg.Dataset.Path = opts.DatasetPath
	}
	if opts.StorePath != "" {
		cfg.Report.Store = opts.StorePath
	}
	if opts.PlotPath != "" {
		cfg.Report.Plot = opts.PlotPath
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(ctx context.Context, opts options, stdout, stderr io.Writer) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	provider, err := log.Setup(cfg.Log.Level, cfg.Log.Pretty, stderr)
	if err != nil {
		return err
	}
	errors.SetZerologWarnFunc(provider.WarnError)
	defer errors.SetZerologWarnFunc(nil)

	r, err := execute(ctx, cfg)
	if err != nil {
		return err
	}

	if opts.WeightsPath != "" {
		if err := r.Weights.WriteFile(opts.WeightsPath); err != nil {
			return err
		}
	}
	if cfg.Report.Store != "" {
		store, err := report.Open(cfg.Report.Store)
		if err != nil {
			return err
		}
		if err := store.Save(r); err != nil {
			_ = store.Close()
			return err
		}
		if err := store.Close(); err != nil {
			return err
		}
	}
	return report.Summary(stdout, r)
}

// execute runs the experiment and returns its unsaved record.
func execute(ctx context.Context, cfg *config.Config) (*report.Run, error) {
	logger := log.GetLoggerWithName("elastic")
	start := time.Now()
	r := report.NewRun()
	r.Dataset = cfg.Dataset.Path
	r.Config = cfg

	// Load, drop the unwanted fields and derive the composition fields.
	df, err := dataset.Load(cfg.Dataset.Path)
	if err != nil {
		return nil, err
	}
	df = df.Drop(cfg.Dataset.Drop...)
	if err := (featurize.StrToComposition{}).Convert(df); err != nil {
		return nil, err
	}
	if err := (featurize.CompositionToOxidComposition{}).Convert(df); err != nil {
		return nil, err
	}
	y, err := df.Target(cfg.Dataset.Target)
	if err != nil {
		return nil, err
	}

	union, err := featureUnion(cfg)
	if err != nil {
		return nil, err
	}
	if err := union.Fit(df, y); err != nil {
		return nil, err
	}
	X, err := union.Featurize(df)
	if err != nil {
		return nil, err
	}
	r.Samples, r.Features = X.Dims()

	// Training fit of the plain linear model on every feature.
	lr := linear.NewLinearRegression()
	if err := lr.Fit(X, y); err != nil {
		return nil, err
	}
	pred, err := lr.Predict(X)
	if err != nil {
		return nil, err
	}
	if r.Training, err = report.ComputeMetrics(y, pred); err != nil {
		return nil, err
	}
	if r.Weights, err = lr.ExportWeights(union.FeatureLabels()); err != nil {
		return nil, err
	}
	r.Bands = report.CheckBands(r.Training, cfg.Report)
	for _, v := range r.Bands {
		logger.Warn("training metric outside sanity band",
			"metric", v.Metric,
			"value", v.Value,
			"min", v.Min,
			"max", v.Max,
		)
	}
	logger.Info("training fit",
		log.PhaseKey, "training",
		log.R2ScoreKey, r.Training.R2,
		log.RMSEKey, r.Training.RMSE,
		log.SamplesKey, r.Samples,
		log.FeaturesKey, r.Features,
	)

	// Cross-validation of the configured matrix pipeline.
	pipe, err := cfg.Model.Pipeline()
	if err != nil {
		return nil, err
	}
	scorer, err := cfg.CV.Scorer()
	if err != nil {
		return nil, err
	}
	scores, err := selection.CrossValScore(ctx, pipe, X, y, cfg.CV.Splitter(), scorer, cfg.CV.NJobs)
	if err != nil {
		return nil, err
	}
	r.CV = report.NewCVSummary(scorer.Name, scores)

	if r.Search, err = search(ctx, cfg, pipe, scorer, X, y); err != nil {
		return nil, err
	}

	if cfg.Report.Plot != "" {
		// Out-of-fold predictions need a partition, so a single shuffled k-fold.
		cv := selection.NewKFold(cfg.CV.NSplits, true, cfg.CV.Seed)
		oof, err := selection.CrossValPredict(ctx, pipe, X, y, cv, cfg.CV.NJobs)
		if err != nil {
			return nil, err
		}
		title := "cross-validated " + cfg.Dataset.Target
		if err := report.PlotPredictions(cfg.Report.Plot, title, y.RawVector().Data, oof.RawVector().Data); err != nil {
			return nil, err
		}
	}

	logger.Info("run finished",
		log.RunIDKey, r.ID,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return r, nil
}

// featureUnion assembles the four feature blocks: structure density, element
// property statistics, oxidation-state statistics and the remaining numeric
// fields.
func featureUnion(cfg *config.Config) (*pipeline.FeatureUnion, error) {
	ep, err := featurize.NewElementProperty("", cfg.Features.Properties, cfg.Features.Stats)
	if err != nil {
		return nil, err
	}
	union, err := pipeline.NewFeatureUnion(
		pipeline.Block{Name: "density", Featurizer: pipeline.Select("structure", featurize.DensityFeatures{})},
		pipeline.Block{Name: "element", Featurizer: pipeline.Select("composition", ep)},
		pipeline.Block{Name: "oxidation", Featurizer: pipeline.Select("composition_oxid", featurize.OxidationStates{})},
		pipeline.Block{Name: "remaining", Featurizer: pipeline.Exclude(cfg.Dataset.Exclude, &featurize.NumericColumns{})},
	)
	if err != nil {
		return nil, err
	}
	union.NJobs = cfg.Features.NJobs
	return union, nil
}

// search tunes the matrix pipeline when a search kind is configured. Folds are
// the same as the cross-validation ones.
func search(ctx context.Context, cfg *config.Config, pipe *pipeline.Pipeline, scorer metrics.Scorer, X, y mat.Matrix) (*selection.SearchResult, error) {
	switch cfg.Search.Kind {
	case config.SearchGrid:
		gs := &selection.GridSearchCV{
			Estimator: pipe,
			Grid:      cfg.Search.ParamGrid(),
			CV:        cfg.CV.Splitter(),
			Scorer:    scorer,
			NJobs:     cfg.CV.NJobs,
			Refit:     cfg.Search.Refit,
		}
		return gs.Fit(ctx, X, y)
	case config.SearchRandom:
		dists, err := cfg.Search.ParamDistributions()
		if err != nil {
			return nil, err
		}
		rs := &selection.RandomizedSearchCV{
			Estimator:     pipe,
			Distributions: dists,
			NIter:         cfg.Search.NIter,
			Seed:          cfg.Search.Seed,
			CV:            cfg.CV.Splitter(),
			Scorer:        scorer,
			NJobs:         cfg.CV.NJobs,
			Refit:         cfg.Search.Refit,
		}
		return rs.Fit(ctx, X, y)
	default:
		return nil, nil
	}
}
