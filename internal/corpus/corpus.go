// Package corpus reads the cleaned game corpus and validates it once at the
// ingestion boundary.
package corpus

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/kailas-cloud/gamerec/internal/artifact"
	"github.com/kailas-cloud/gamerec/internal/domain/game"
)

// maxReportedErrors bounds Result.Errors.
const maxReportedErrors = 20

// Result is the outcome of reading a corpus.
type Result struct {
	Games   []game.Game
	Skipped int
	// Errors holds the first rejections, for logging.
	Errors []error
}

// Decode reads a JSON array of game records. Records that fail to decode or
// validate are skipped and counted; a malformed array is an error.
func Decode(r io.Reader) (Result, error) {
	var raw []json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return Result{}, fmt.Errorf("decode corpus: %w", err)
	}

	res := Result{Games: make([]game.Game, 0, len(raw))}
	seen := make(map[int64]struct{}, len(raw))
	for i, msg := range raw {
		var g game.Game
		if err := json.Unmarshal(msg, &g); err != nil {
			res.reject(fmt.Errorf("record %d: %w", i, err))
			continue
		}
		g = g.Normalize()
		if err := g.Validate(); err != nil {
			res.reject(fmt.Errorf("record %d: %w", i, err))
			continue
		}
		if _, dup := seen[g.ID]; dup {
			res.reject(fmt.Errorf("record %d: duplicate id %d", i, g.ID))
			continue
		}
		seen[g.ID] = struct{}{}
		res.Games = append(res.Games, g)
	}
	return res, nil
}

func (r *Result) reject(err error) {
	r.Skipped++
	if len(r.Errors) < maxReportedErrors {
		r.Errors = append(r.Errors, err)
	}
}

// Err joins the reported rejections, or returns nil.
func (r *Result) Err() error { return errors.Join(r.Errors...) }

// LoadFile reads a corpus from a local JSON file.
func LoadFile(path string, logger *zap.Logger) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("open corpus: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only

	res, err := Decode(f)
	if err != nil {
		return Result{}, err
	}
	logResult(logger, path, res)
	return res, nil
}

// LoadArtifact reads a corpus object from an artifact store.
func LoadArtifact(ctx context.Context, store artifact.Store, name string, logger *zap.Logger) (Result, error) {
	data, err := store.Get(ctx, name)
	if err != nil {
		return Result{}, fmt.Errorf("fetch corpus %s from %s: %w", name, store.Describe(), err)
	}
	res, err := Decode(bytes.NewReader(data))
	if err != nil {
		return Result{}, err
	}
	logResult(logger, store.Describe()+"/"+name, res)
	return res, nil
}

func logResult(logger *zap.Logger, source string, res Result) {
	if logger == nil {
		return
	}
	logger.Info("corpus loaded",
		zap.String("source", source),
		zap.Int("games", len(res.Games)),
		zap.Int("skipped", res.Skipped),
	)
	if res.Skipped > 0 {
		logger.Warn("corpus records rejected", zap.Int("skipped", res.Skipped), zap.Error(res.Err()))
	}
}
