// Offline training job for gamerec.
// Loads the cleaned corpus, trains the similarity engine and writes the
// artifact pair to the configured sources. The API server picks the new
// model up on its next restart.
//
// Usage:
//
//	gamerec-train -corpus data/games.json -target both
//	gamerec-train -object corpus/games.json -target primary -pushgateway http://pushgateway:9091
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"go.uber.org/zap"

	"github.com/kailas-cloud/gamerec/internal/artifact"
	"github.com/kailas-cloud/gamerec/internal/artifact/source"
	"github.com/kailas-cloud/gamerec/internal/config"
	"github.com/kailas-cloud/gamerec/internal/corpus"
	"github.com/kailas-cloud/gamerec/internal/engine"
	logpkg "github.com/kailas-cloud/gamerec/internal/logger"
	"github.com/kailas-cloud/gamerec/internal/metrics"
	"github.com/kailas-cloud/gamerec/internal/modelstore"
	"github.com/kailas-cloud/gamerec/internal/version"
)

// Save targets.
const (
	targetPrimary  = "primary"
	targetFallback = "fallback"
	targetBoth     = "both"
)

type flags struct {
	corpusPath   string
	corpusObject string
	target       string
	evalSample   int
	pushgateway  string
	showVersion  bool
}

func parseFlags(cfg config.Config) flags {
	f := flags{}
	flag.StringVar(&f.corpusPath, "corpus", cfg.Training.CorpusPath, "path to the cleaned corpus JSON")
	flag.StringVar(&f.corpusObject, "object", cfg.Training.CorpusObject, "corpus object name in the primary source (overrides -corpus)")
	flag.StringVar(&f.target, "target", targetBoth, "where to save artifacts: primary, fallback or both")
	flag.IntVar(&f.evalSample, "eval-sample", 100, "games evaluated after training (0 disables)")
	flag.StringVar(&f.pushgateway, "pushgateway", "", "Prometheus Pushgateway URL for training metrics")
	flag.BoolVar(&f.showVersion, "version", false, "print version and exit")
	flag.Parse()
	return f
}

func main() {
	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	f := parseFlags(cfg)
	if f.showVersion {
		fmt.Println("gamerec-train", version.String())
		return
	}

	logger, err := logpkg.New(env, logpkg.ComponentTrain, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	if err := run(ctx, cfg, f, logger); err != nil {
		cancel()
		logger.Fatal("Training failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, f flags, logger *zap.Logger) error {
	logger.Info("Starting gamerec training",
		zap.String("version", version.Version),
		zap.String("target", f.target),
	)

	primary, closePrimary, err := source.Open(ctx, cfg.Artifacts.Primary)
	if err != nil {
		return fmt.Errorf("open primary source: %w", err)
	}
	defer closePrimary()
	fallback, closeFallback, err := source.Open(ctx, cfg.Artifacts.Fallback)
	if err != nil {
		return fmt.Errorf("open fallback source: %w", err)
	}
	defer closeFallback()

	targets, err := saveTargets(f.target, primary, fallback)
	if err != nil {
		return err
	}

	res, err := loadCorpus(ctx, f, primary, logger)
	if err != nil {
		return err
	}
	if len(res.Games) == 0 {
		return fmt.Errorf("corpus has no valid records: %w", res.Err())
	}

	eng := engine.New(cfg.Model.Engine(), logger)
	report, err := eng.Train(ctx, res.Games)
	if err != nil {
		return fmt.Errorf("train: %w", err)
	}
	metrics.TrainingDuration.Observe(report.Duration.Seconds())
	logger.Info("Model trained",
		zap.Int("samples", report.Samples),
		zap.Int("dropped", report.Dropped),
		zap.Int("features", report.Features),
		zap.Float64("similarity_mean", report.Similarity.Mean),
		zap.Float64("similarity_min", report.Similarity.Min),
		zap.Float64("similarity_max", report.Similarity.Max),
		zap.Int("rated", report.Rating.Rated),
		zap.Float64("rating_mean", report.Rating.Mean),
		zap.Duration("took", report.Duration),
	)

	if n := min(f.evalSample, len(res.Games)); n > 0 {
		ev, err := eng.Evaluate(res.Games[:n])
		if err != nil {
			return fmt.Errorf("evaluate: %w", err)
		}
		logger.Info("Model evaluated",
			zap.Int("samples", ev.Samples),
			zap.Int("covered", ev.Covered),
			zap.Float64("coverage", ev.Coverage),
			zap.Float64("mean_top_score", ev.MeanTopScore),
		)
	}

	models, err := modelstore.New(primary, fallback, cfg.Artifacts.Names, logger)
	if err != nil {
		return err
	}
	saved, err := models.Save(ctx, eng, targets...)
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	logger.Info("Training complete",
		zap.String("model_id", saved.ModelID),
		zap.Strings("locations", saved.Locations),
	)

	if f.pushgateway != "" {
		pushMetrics(f.pushgateway, logger)
	}
	return nil
}

func loadCorpus(ctx context.Context, f flags, primary artifact.Store, logger *zap.Logger) (corpus.Result, error) {
	start := time.Now()
	var (
		res corpus.Result
		err error
	)
	switch {
	case f.corpusObject != "":
		if primary == nil {
			return corpus.Result{}, errors.New("-object requires a primary artifact source")
		}
		res, err = corpus.LoadArtifact(ctx, primary, f.corpusObject, logger)
	case f.corpusPath != "":
		res, err = corpus.LoadFile(f.corpusPath, logger)
	default:
		return corpus.Result{}, errors.New("no corpus given: set -corpus or -object")
	}
	if err != nil {
		return corpus.Result{}, fmt.Errorf("load corpus: %w", err)
	}
	logger.Info("Corpus loaded",
		zap.Int("games", len(res.Games)),
		zap.Int("skipped", res.Skipped),
		zap.Duration("took", time.Since(start)),
	)
	return res, nil
}

func saveTargets(target string, primary, fallback artifact.Store) ([]artifact.Store, error) {
	var out []artifact.Store
	switch target {
	case targetPrimary:
		out = append(out, primary)
	case targetFallback:
		out = append(out, fallback)
	case targetBoth:
		out = append(out, primary, fallback)
	default:
		return nil, fmt.Errorf("unknown target %q", target)
	}
	targets := out[:0]
	for _, s := range out {
		if s != nil {
			targets = append(targets, s)
		}
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("target %q has no configured artifact source", target)
	}
	return targets, nil
}

func pushMetrics(url string, logger *zap.Logger) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(metrics.TrainingDuration)
	err := push.New(url, "gamerec_train").Gatherer(reg).Push()
	if err != nil {
		logger.Warn("Failed to push training metrics", zap.String("url", url), zap.Error(err))
		return
	}
	logger.Info("Training metrics pushed", zap.String("url", url))
}
