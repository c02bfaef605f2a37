// Package modelstore persists a trained engine as a paired set of artifacts
// and restores it at startup with a single fallback hop.
package modelstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/gamerec/internal/artifact"
	"github.com/kailas-cloud/gamerec/internal/domain"
	"github.com/kailas-cloud/gamerec/internal/domain/game"
	"github.com/kailas-cloud/gamerec/internal/engine"
	"github.com/kailas-cloud/gamerec/internal/features"
	"github.com/kailas-cloud/gamerec/internal/matrix"
)

// Names are the artifact names of a pair.
type Names struct {
	Engine    string `yaml:"engine"`
	Extractor string `yaml:"extractor"`
}

// DefaultNames returns the production artifact names.
func DefaultNames() Names {
	return Names{
		Engine:    "recommendation_model.grec",
		Extractor: "recommendation_model_feature_extractor.grec",
	}
}

// Sources.
const (
	SourcePrimary  = "primary"
	SourceFallback = "fallback"
)

type extractorMeta struct {
	State features.State `json:"state"`
}

type engineMeta struct {
	Config            engine.Config `json:"config"`
	Games             []game.Game   `json:"games"`
	TrainedAt         time.Time     `json:"trained_at"`
	ExtractorChecksum string        `json:"extractor_checksum"`
}

// Store saves and loads artifact pairs.
type Store struct {
	primary  artifact.Store
	fallback artifact.Store
	names    Names
	logger   *zap.Logger
	now      func() time.Time
}

// New creates a Store. Either source may be nil, but not both.
func New(primary, fallback artifact.Store, names Names, logger *zap.Logger) (*Store, error) {
	if primary == nil && fallback == nil {
		return nil, fmt.Errorf("at least one artifact source is required")
	}
	if names.Engine == "" || names.Extractor == "" || names.Engine == names.Extractor {
		return nil, fmt.Errorf("engine and extractor artifact names must be set and distinct")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		primary:  primary,
		fallback: fallback,
		names:    names,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Names returns the configured artifact names.
func (s *Store) Names() Names { return s.names }

// Pair is an encoded artifact pair.
type Pair struct {
	ModelID   string
	Extractor []byte
	Engine    []byte
}

// Encode serializes a trained engine.
func (s *Store) Encode(eng *engine.Engine) (Pair, error) {
	snap, err := eng.Snapshot()
	if err != nil {
		return Pair{}, fmt.Errorf("snapshot: %w", err)
	}
	st, err := snap.Extractor.State()
	if err != nil {
		return Pair{}, fmt.Errorf("extractor state: %w", err)
	}

	id := uuid.NewString()
	created := s.now().UTC()

	xmeta, err := json.Marshal(extractorMeta{State: st})
	if err != nil {
		return Pair{}, fmt.Errorf("marshal extractor metadata: %w", err)
	}
	xblob, err := encode(KindExtractor, Header{ModelID: id, CreatedAt: created, Metadata: xmeta}, []section{
		f64Section("summary_idf", 1, len(st.Summary.IDF), st.Summary.IDF),
		f64Section("name_idf", 1, len(st.Name.IDF), st.Name.IDF),
	})
	if err != nil {
		return Pair{}, fmt.Errorf("encode extractor: %w", err)
	}

	emeta, err := json.Marshal(engineMeta{
		Config:            snap.Config,
		Games:             snap.Games,
		TrainedAt:         snap.TrainedAt,
		ExtractorChecksum: checksumOf(xblob),
	})
	if err != nil {
		return Pair{}, fmt.Errorf("marshal engine metadata: %w", err)
	}
	n, cols := snap.Features.Rows(), snap.Features.Cols()
	eblob, err := encode(KindEngine, Header{ModelID: id, CreatedAt: created, Metadata: emeta}, []section{
		f64Section("features", n, cols, snap.Features.Data()),
		f32Section("similarity", n, n, snap.Similarity),
	})
	if err != nil {
		return Pair{}, fmt.Errorf("encode engine: %w", err)
	}
	return Pair{ModelID: id, Extractor: xblob, Engine: eblob}, nil
}

// Decode rebuilds an engine from a pair, rejecting blobs that were not
// written together.
func (s *Store) Decode(extractorBlob, engineBlob []byte) (*engine.Engine, string, error) {
	xb, err := decode(extractorBlob, KindExtractor)
	if err != nil {
		return nil, "", &domain.ArtifactError{Name: s.names.Extractor, Source: "decode", Err: err}
	}
	eb, err := decode(engineBlob, KindEngine)
	if err != nil {
		return nil, "", &domain.ArtifactError{Name: s.names.Engine, Source: "decode", Err: err}
	}

	var em engineMeta
	if err := json.Unmarshal(eb.header.Metadata, &em); err != nil {
		return nil, "", corrupt("engine metadata: %v", err)
	}
	if eb.header.ModelID != xb.header.ModelID || em.ExtractorChecksum != xb.checksum {
		return nil, "", fmt.Errorf("%w: engine %s expects extractor %s, got %s",
			domain.ErrArtifactMismatch, eb.header.ModelID, em.ExtractorChecksum, xb.checksum)
	}

	var xm extractorMeta
	if err := json.Unmarshal(xb.header.Metadata, &xm); err != nil {
		return nil, "", corrupt("extractor metadata: %v", err)
	}
	sidf, err := xb.section("summary_idf", dtypeF64)
	if err != nil {
		return nil, "", err
	}
	nidf, err := xb.section("name_idf", dtypeF64)
	if err != nil {
		return nil, "", err
	}
	xm.State.Summary.IDF = sidf.f64
	xm.State.Name.IDF = nidf.f64
	extractor, err := features.FromState(xm.State, s.logger)
	if err != nil {
		return nil, "", corrupt("%v", err)
	}

	fs, err := eb.section("features", dtypeF64)
	if err != nil {
		return nil, "", err
	}
	sim, err := eb.section("similarity", dtypeF32)
	if err != nil {
		return nil, "", err
	}
	fm, err := matrix.FromData(fs.desc.Rows, fs.desc.Cols, fs.f64)
	if err != nil {
		return nil, "", corrupt("%v", err)
	}

	eng := engine.New(em.Config, s.logger)
	err = eng.Restore(engine.Snapshot{
		Config:     em.Config,
		Extractor:  extractor,
		Games:      em.Games,
		Features:   fm,
		Similarity: sim.f32,
		TrainedAt:  em.TrainedAt,
	})
	if err != nil {
		return nil, "", corrupt("%v", err)
	}
	return eng, eb.header.ModelID, nil
}

// SaveResult reports where a pair was written.
type SaveResult struct {
	ModelID   string
	Locations []string
}

// Save encodes eng once and writes the pair to every target, extractor first.
// With no targets the primary source is used, or the fallback without one.
func (s *Store) Save(ctx context.Context, eng *engine.Engine, targets ...artifact.Store) (SaveResult, error) {
	if len(targets) == 0 {
		dst := s.primary
		if dst == nil {
			dst = s.fallback
		}
		targets = []artifact.Store{dst}
	}
	pair, err := s.Encode(eng)
	if err != nil {
		return SaveResult{}, err
	}

	res := SaveResult{ModelID: pair.ModelID}
	for _, dst := range targets {
		if err := dst.Put(ctx, s.names.Extractor, pair.Extractor); err != nil {
			return res, &domain.ArtifactError{Name: s.names.Extractor, Source: dst.Describe(), Err: err}
		}
		if err := dst.Put(ctx, s.names.Engine, pair.Engine); err != nil {
			return res, &domain.ArtifactError{Name: s.names.Engine, Source: dst.Describe(), Err: err}
		}
		res.Locations = append(res.Locations, dst.Describe())
		s.logger.Info("model artifacts saved",
			zap.String("model_id", pair.ModelID),
			zap.String("location", dst.Describe()),
			zap.Int("extractor_bytes", len(pair.Extractor)),
			zap.Int("engine_bytes", len(pair.Engine)),
		)
	}
	return res, nil
}

// LoadResult reports which source served the model.
type LoadResult struct {
	ModelID  string
	Source   string
	Location string
}

// Load restores the model from the primary source, falling back once to the
// secondary source on any failure. Both failing yields ErrModelUnavailable.
func (s *Store) Load(ctx context.Context) (*engine.Engine, LoadResult, error) {
	var primaryErr error
	if s.primary != nil {
		eng, id, err := s.loadFrom(ctx, s.primary)
		if err == nil {
			return eng, LoadResult{ModelID: id, Source: SourcePrimary, Location: s.primary.Describe()}, nil
		}
		primaryErr = fmt.Errorf("primary %s: %w", s.primary.Describe(), err)
		if s.fallback != nil {
			s.logger.Warn("primary artifact source failed, using fallback",
				zap.String("primary", s.primary.Describe()),
				zap.String("fallback", s.fallback.Describe()),
				zap.Error(err),
			)
		}
	}
	if s.fallback == nil {
		return nil, LoadResult{}, fmt.Errorf("%w: %w", domain.ErrModelUnavailable, primaryErr)
	}

	eng, id, err := s.loadFrom(ctx, s.fallback)
	if err != nil {
		fallbackErr := fmt.Errorf("fallback %s: %w", s.fallback.Describe(), err)
		return nil, LoadResult{}, fmt.Errorf("%w: %w", domain.ErrModelUnavailable, errors.Join(primaryErr, fallbackErr))
	}
	return eng, LoadResult{ModelID: id, Source: SourceFallback, Location: s.fallback.Describe()}, nil
}

func (s *Store) loadFrom(ctx context.Context, src artifact.Store) (*engine.Engine, string, error) {
	xblob, err := src.Get(ctx, s.names.Extractor)
	if err != nil {
		return nil, "", &domain.ArtifactError{Name: s.names.Extractor, Source: src.Describe(), Err: err}
	}
	eblob, err := src.Get(ctx, s.names.Engine)
	if err != nil {
		return nil, "", &domain.ArtifactError{Name: s.names.Engine, Source: src.Describe(), Err: err}
	}
	return s.Decode(xblob, eblob)
}
