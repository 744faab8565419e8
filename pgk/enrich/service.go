package enrich

import (
	"context"
	"sync/atomic"

	"github.com/saveblush/gallery-node/core/utils/logger"
	"github.com/saveblush/gallery-node/models"
	"github.com/saveblush/gallery-node/pgk/boorusource"
)

// Result one tooltip render, tagged with the generation that issued it
type Result struct {
	PostID     string            `json:"post_id"`
	Tags       []string          `json:"tags"`
	Translated map[string]string `json:"translated"`
	Generation uint64            `json:"-"`
}

// Service race-safe tag enrichment for hover tooltips.
// Every hover or unhover advances a strictly increasing generation; a
// completed fetch renders only while its generation is still the latest,
// so a slow response for one post can never paint onto another.
type Service interface {
	Advance() uint64
	Current() uint64
	Resolve(ctx context.Context, generation uint64, post *models.Post, settings *models.UISettings) (*Result, bool)
}

type service struct {
	source     boorusource.Service
	generation atomic.Uint64
}

func NewService(source boorusource.Service) Service {
	return &service{
		source: source,
	}
}

// Advance invalidate anything in flight and return the new generation
func (s *service) Advance() uint64 {
	return s.generation.Add(1)
}

// Current latest issued generation
func (s *service) Current() uint64 {
	return s.generation.Load()
}

// Resolve fetch translations for the hovered post's tags.
// The second return is false when the result was superseded and must be
// dropped without any output. A network failure degrades to rendering
// the untranslated source tags.
func (s *service) Resolve(ctx context.Context, generation uint64, post *models.Post, settings *models.UISettings) (*Result, bool) {
	if post == nil || !settings.TooltipEnabled {
		return nil, false
	}

	tags := models.SplitTokens(post.TagGeneral)
	if len(tags) == 0 {
		tags = models.SplitTokens(post.TagString)
	}

	result := &Result{
		PostID:     post.ID,
		Tags:       tags,
		Generation: generation,
	}

	if settings.TranslationEnabled && len(tags) > 0 {
		translated, err := s.source.TranslateTags(ctx, tags, settings.Language)
		if err != nil {
			logger.Log.Warnf("translate tags for %s error: %s", post.ID, err)
		}
		result.Translated = translated
	}

	if generation != s.Current() {
		// a newer hover won the race, drop silently
		return nil, false
	}

	return result, true
}
