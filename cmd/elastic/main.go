// Command elastic predicts the bulk modulus (K_VRH) of the elastic-tensor
// dataset from composition, oxidation-state and structure features with a
// linear model, then cross-validates and optionally tunes it.
//
//	elastic -config run.yaml -dataset elastic_tensor_2015.json.gz -store runs.db -plot pred.png -weights weights.json
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/matpipe/matpipe/pkg/log"
)

func main() {
	var opts options
	flag.StringVar(&opts.ConfigPath, "config", "", "experiment file (.yaml, .yml or .toml)")
	flag.StringVar(&opts.DatasetPath, "dataset", "", "dataset file; overrides dataset.path")
	flag.StringVar(&opts.StorePath, "store", "", "bbolt run store; overrides report.store")
	flag.StringVar(&opts.PlotPath, "plot", "", "predicted-vs-actual plot; overrides report.plot")
	flag.StringVar(&opts.WeightsPath, "weights", "", "write the training fit's coefficients as JSON")
	flag.StringVar(&opts.LogLevel, "log-level", "", "debug, info, warn or error; overrides log.level")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts, os.Stdout, os.Stderr); err != nil {
		log.GetLogger().Error("elastic failed", err)
		fmt.Fprintln(os.Stderr, "elastic:", err)
		stop()
		os.Exit(1)
	}
}
