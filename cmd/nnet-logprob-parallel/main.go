package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/ib-77/nnlogprob/pkg/logprob"
	"github.com/ib-77/nnlogprob/pkg/nnet"
	"github.com/ib-77/nnlogprob/pkg/sequence"
	"github.com/ib-77/nnlogprob/pkg/table"
)

const usage = `Do the forward computation for a neural net acoustic model, and output
a matrix of log-probs (including division by prior).

Usage: nnet-logprob-parallel [options] <model-in> <features-rspecifier> <logprobs-wspecifier>

e.g.: nnet-logprob-parallel final.json ark:feats.ark ark:-

Options:
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("nnet-logprob-parallel", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}

	var (
		configFile  = fs.String("config", "", "Path to run config JSON file")
		spkVecs     = fs.String("spk-vecs", "", "Rspecifier for a vector that describes each speaker; only needed if the neural net was trained this way")
		utt2spk     = fs.String("utt2spk", "", "Rspecifier for map from utterance to speaker; only relevant in conjunction with --spk-vecs")
		numThreads  = fs.Int("num-threads", 0, "Number of threads computing the network (overrides config)")
		maxInFlight = fs.Int("max-in-flight", 0, "Maximum tasks between submission and output; 0 for twice --num-threads (overrides config)")
		missing     = fs.String("missing-spk-vec", "", `What to do with an utterance without a speaker vector: "skip" or "abort" (overrides config)`)
		verbose     = fs.Bool("verbose", false, "Enable verbose logging to stderr")
	)
	if err := fs.Parse(args); err != nil {
		return logprob.ExitNoItems
	}
	if fs.NArg() != 3 {
		fs.Usage()
		return logprob.ExitNoItems
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	cfg := logprob.DefaultConfig()
	if *configFile != "" {
		loaded, err := logprob.LoadConfig(*configFile)
		if err != nil {
			logger.Error("failed to load config", "error", err)
			return logprob.ExitFatal
		}
		cfg = *loaded
	}
	cfg.Merge(&logprob.Config{
		SpkVecs:       *spkVecs,
		Utt2Spk:       *utt2spk,
		MissingSpkVec: logprob.MissingPolicy(*missing),
	})
	cfg.Sequencer.Merge(&sequence.Config{NumThreads: *numThreads, MaxInFlight: *maxInFlight})

	sum, err := process(ctx, cfg, fs.Arg(0), fs.Arg(1), fs.Arg(2), logger)
	if err != nil {
		logger.Error("nnet-logprob-parallel failed", "error", err)
	}
	return logprob.ExitCode(sum, err)
}

func process(ctx context.Context, cfg logprob.Config, modelIn, featsIn, logprobsOut string,
	logger *slog.Logger) (sum logprob.Summary, err error) {

	if err := cfg.Validate(); err != nil {
		return sum, err
	}

	model, err := nnet.Load(modelIn)
	if err != nil {
		return sum, err
	}

	feats, err := table.OpenMatrixReader(featsIn)
	if err != nil {
		return sum, err
	}
	defer feats.Close()

	// an empty rspecifier means no speaker vectors; keep vecs a nil interface
	var vecs logprob.SpeakerVectors
	if cfg.SpkVecs != "" {
		mapped, err := table.NewMappedVectorReader(cfg.SpkVecs, cfg.Utt2Spk)
		if err != nil {
			return sum, err
		}
		logger.Debug("loaded speaker vectors", "count", mapped.Len())
		vecs = mapped
	}

	out, err := table.OpenMatrixWriter(logprobsOut)
	if err != nil {
		return sum, err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", logprobsOut, cerr)
		}
	}()

	return logprob.Run(ctx, cfg, model, model.Priors(), feats, vecs, out, logprob.WithLogger(logger))
}
