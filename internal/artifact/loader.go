// Package artifact loads the feature schema, preprocessing pipeline and
// classifier the service scores with. They are read once at startup.
package artifact

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/heartrisk/heartrisk/internal/classifier"
	"github.com/heartrisk/heartrisk/internal/config"
	"github.com/heartrisk/heartrisk/internal/model"
	"github.com/heartrisk/heartrisk/internal/pipeline"
	"github.com/heartrisk/heartrisk/internal/storage"
)

// Fetcher reads the raw bytes of an artifact location.
type Fetcher interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// Sources reads local files, and s3:// locations through Objects.
type Sources struct {
	Objects *storage.O3Client
}

func (s Sources) Fetch(ctx context.Context, location string) ([]byte, error) {
	if !storage.IsObjectURI(location) {
		return os.ReadFile(location)
	}
	if s.Objects == nil {
		return nil, fmt.Errorf("%s: object storage is not configured", location)
	}
	bucket, key, err := storage.ParseObjectURI(location)
	if err != nil {
		return nil, err
	}
	return s.Objects.GetObject(ctx, bucket, key)
}

// Bundle is the loaded, read-only artifact set.
type Bundle struct {
	Schema   model.FeatureSchema
	Pipeline *pipeline.Pipeline
	Model    *classifier.Network
}

// Load reads and cross-checks all three artifacts. Any failure is returned;
// callers must not serve with a partial bundle.
func Load(ctx context.Context, cfg config.ArtifactsConfig, f Fetcher, log zerolog.Logger) (*Bundle, error) {
	raw, err := f.Fetch(ctx, cfg.ColumnsPath)
	if err != nil {
		log.Error().Err(err).Str("path", cfg.ColumnsPath).Msg("failed to load feature columns")
		return nil, fmt.Errorf("load columns %s: %w", cfg.ColumnsPath, err)
	}
	schema, err := model.ParseFeatureSchema(raw)
	if err != nil {
		log.Error().Err(err).Str("path", cfg.ColumnsPath).Msg("failed to parse data_columns")
		return nil, fmt.Errorf("load columns %s: %w", cfg.ColumnsPath, err)
	}
	log.Info().Int("columns", schema.Len()).Msg("feature columns loaded")

	raw, err = f.Fetch(ctx, cfg.PipelinePath)
	if err != nil {
		log.Error().Err(err).Str("path", cfg.PipelinePath).Msg("failed to load preprocessing pipeline")
		return nil, fmt.Errorf("load pipeline %s: %w", cfg.PipelinePath, err)
	}
	pipe, err := pipeline.Load(raw, schema, pipeline.GlobalRegistry)
	if err != nil {
		log.Error().Err(err).Str("path", cfg.PipelinePath).Msg("failed to build preprocessing pipeline")
		return nil, fmt.Errorf("load pipeline %s: %w", cfg.PipelinePath, err)
	}
	log.Info().Int("width", pipe.Width()).Msg("preprocessing pipeline loaded")

	raw, err = f.Fetch(ctx, cfg.ModelPath)
	if err != nil {
		log.Error().Err(err).Str("path", cfg.ModelPath).Msg("failed to load model")
		return nil, fmt.Errorf("load model %s: %w", cfg.ModelPath, err)
	}
	network, err := classifier.Load(raw)
	if err != nil {
		log.Error().Err(err).Str("path", cfg.ModelPath).Msg("failed to build model")
		return nil, fmt.Errorf("load model %s: %w", cfg.ModelPath, err)
	}
	log.Info().Int("layers", network.LayerCount()).Int("input_dim", network.InputDim()).Msg("model loaded")

	if pipe.Width() != network.InputDim() {
		return nil, fmt.Errorf("pipeline produces %d features but model expects %d", pipe.Width(), network.InputDim())
	}

	return &Bundle{Schema: schema, Pipeline: pipe, Model: network}, nil
}
