// Package matpipe is a materials-property regression toolkit for Go: it
// loads tabular materials datasets, turns formulas and crystal structures
// into numeric features, and fits and cross-validates linear models on them
// with a scikit-learn-like API.
//
// # Installation
//
//	go get github.com/matpipe/matpipe
//
// # Quick Start
//
// Featurize a dataset and cross-validate a scaled ridge model:
//
//	package main
//
//	import (
//	    "context"
//	    "fmt"
//	    "log"
//
//	    "github.com/matpipe/matpipe/dataset"
//	    "github.com/matpipe/matpipe/featurize"
//	    "github.com/matpipe/matpipe/linear"
//	    "github.com/matpipe/matpipe/metrics"
//	    "github.com/matpipe/matpipe/pipeline"
//	    "github.com/matpipe/matpipe/preprocessing"
//	    "github.com/matpipe/matpipe/selection"
//	)
//
//	func main() {
//	    df, err := dataset.Load("elastic_tensor_2015.json.gz")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    if err := (featurize.StrToComposition{}).Convert(df); err != nil {
//	        log.Fatal(err)
//	    }
//	    y, err := df.Target("K_VRH")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    ep, _ := featurize.NewElementProperty("composition", nil, nil)
//	    union, _ := pipeline.NewFeatureUnion(pipeline.Block{Name: "element", Featurizer: ep})
//	    X, err := union.Featurize(df)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    pipe, _ := pipeline.NewPipeline(
//	        pipeline.Step{Name: "scaler", Estimator: preprocessing.NewStandardScalerDefault()},
//	        pipeline.Step{Name: "model", Estimator: linear.NewRidge(linear.WithAlpha(1))},
//	    )
//	    scorer, _ := metrics.GetScorer("neg_root_mean_squared_error")
//	    scores, err := selection.CrossValScore(context.Background(), pipe, X, y,
//	        selection.NewKFold(5, true, 1), scorer, -1)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(selection.MeanStd(scores))
//	}
//
// # Packages
//
//   - chem: elements, formula parsing, oxidation-state guesses, structures
//   - dataset: column-oriented frames loaded from split-orientation JSON
//   - featurize: composition, oxidation-state, structure and numeric featurizers
//   - pipeline: feature unions over frames and sequential matrix pipelines
//   - preprocessing: StandardScaler and MinMaxScaler
//   - linear: LinearRegression and Ridge
//   - metrics: regression metrics and named scorers
//   - selection: k-fold splitters, cross-validation and hyper-parameter search
//   - config: YAML/TOML experiment files with environment overrides
//   - report: run records in a bbolt store, summaries and prediction plots
//   - core/model: estimator interfaces, parameters and persistence
//   - core/parallel: bounded parallel loops
//
// The cmd/elastic command runs the bulk-modulus walkthrough end to end.
package matpipe
