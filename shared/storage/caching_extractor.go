package storage

import (
	"context"
	"log/slog"

	"scene-validator/internal/models"
)

// Extractor matches the feature extraction contract of the validator; it is
// redeclared here so the cache layer stays free of orchestration imports.
type Extractor interface {
	ExtractFeatures(ctx context.Context, framePath string) models.FeatureResult
}

// CachingExtractor wraps an Extractor with the on-disk feature cache. Only
// successful extractions are cached; error markers are always retried on
// the next run.
type CachingExtractor struct {
	Inner  Extractor
	Cache  *FeatureCache
	Logger *slog.Logger
}

func (e *CachingExtractor) ExtractFeatures(ctx context.Context, framePath string) models.FeatureResult {
	digest, err := DigestFile(framePath)
	if err != nil {
		// Unreadable frames go straight to the inner extractor, which
		// produces the error marker.
		return e.Inner.ExtractFeatures(ctx, framePath)
	}

	if features, ok := e.Cache.Lookup(digest); ok {
		e.Logger.Debug("feature cache hit", "frame", framePath)
		return models.FeatureResult{Features: features}
	}

	result := e.Inner.ExtractFeatures(ctx, framePath)
	if !result.Failed() {
		if err := e.Cache.Store(digest, result.Features); err != nil {
			e.Logger.Warn("failed to store features in cache", "frame", framePath, "error", err)
		}
	}
	return result
}
