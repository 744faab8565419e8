package editsession

import (
	"context"
	"errors"
	"strings"

	"github.com/saveblush/gallery-node/core/utils/logger"
	"github.com/saveblush/gallery-node/models"
	"github.com/saveblush/gallery-node/pgk/boorusource"
	"github.com/saveblush/gallery-node/pgk/postcache"
)

var (
	ErrOriginalMissing = errors.New("error: original could not be recovered, retry manually")
)

// Service edit overlay and diff engine for one gallery session.
// The overlay is a sparse map from post id to a mutable working copy;
// absence of a working copy means "unedited".
type Service interface {
	GetOrCreateWorkingCopy(id interface{}) *models.Post
	WorkingCopy(id interface{}) *models.Post
	MutateTagCategory(id interface{}, category models.TagCategory, tokens []string) bool
	ComputeEditedStatus(id interface{}) bool
	CommitOrDiscard(id interface{}) bool
	ResetToOriginal(ctx context.Context, id interface{}) (*models.Post, error)
	Reset()
}

type service struct {
	cache   postcache.Service
	source  boorusource.Service
	overlay map[string]*models.Post
}

func NewService(cache postcache.Service, source boorusource.Service) Service {
	return &service{
		cache:   cache,
		source:  source,
		overlay: make(map[string]*models.Post),
	}
}

// GetOrCreateWorkingCopy existing working copy, or a fresh deep copy of
// the cache entry (or the original snapshot if the entry is gone).
func (s *service) GetOrCreateWorkingCopy(id interface{}) *models.Post {
	key := models.NormalizeID(id)
	if copy, exists := s.overlay[key]; exists {
		return copy
	}

	base := s.cache.FindByID(key)
	if base == nil {
		base = s.cache.Snapshot(key)
	}
	if base == nil {
		return nil
	}

	copy := base.Clone()
	s.overlay[key] = copy

	return copy
}

// WorkingCopy working copy for id, nil when unedited
func (s *service) WorkingCopy(id interface{}) *models.Post {
	return s.overlay[models.NormalizeID(id)]
}

// MutateTagCategory replace one category's token list on the working copy
func (s *service) MutateTagCategory(id interface{}, category models.TagCategory, tokens []string) bool {
	copy := s.GetOrCreateWorkingCopy(id)
	if copy == nil {
		return false
	}

	copy.SetCategoryTags(category, strings.Join(tokens, " "))

	return true
}

// ComputeEditedStatus derived, never cached across mutations.
// Per-category order-independent multiset diff against the original
// snapshot; falls back to the flat tag string only when neither side
// carries any categorised tags.
func (s *service) ComputeEditedStatus(id interface{}) bool {
	key := models.NormalizeID(id)
	copy, exists := s.overlay[key]
	if !exists {
		return false
	}

	original := s.cache.Snapshot(key)
	if original == nil {
		original = s.cache.FindByID(key)
	}
	if original == nil {
		return false
	}

	if original.HasCategoryTags() || copy.HasCategoryTags() {
		for _, category := range models.Categories {
			if !models.EqualTokenSets(original.CategoryTags(category), copy.CategoryTags(category)) {
				return true
			}
		}

		return false
	}

	return !models.EqualTokenSets(original.TagString, copy.TagString)
}

// CommitOrDiscard end of an edit session. A working copy diff-equal to
// the original is discarded; an edited one supersedes the cache entry,
// the snapshot stays untouched.
func (s *service) CommitOrDiscard(id interface{}) bool {
	key := models.NormalizeID(id)
	copy, exists := s.overlay[key]
	if !exists {
		return false
	}

	if !s.ComputeEditedStatus(key) {
		delete(s.overlay, key)
		return false
	}

	s.cache.Replace(key, copy)

	return true
}

// ResetToOriginal restore the visible entry from the original snapshot.
// A missing snapshot is recovered by one remote re-fetch; if that also
// fails the caller must surface a manual retry.
func (s *service) ResetToOriginal(ctx context.Context, id interface{}) (*models.Post, error) {
	key := models.NormalizeID(id)

	original := s.cache.Snapshot(key)
	if original == nil {
		fetch, err := s.source.FindByID(ctx, key)
		if err != nil || fetch == nil {
			logger.Log.Warnf("re-fetch original %s error: %v", key, err)
			return nil, ErrOriginalMissing
		}
		s.cache.CaptureSnapshot(fetch)
		original = s.cache.Snapshot(key)
	}

	restored := original.Clone()
	s.cache.Replace(key, restored)
	delete(s.overlay, key)

	return restored, nil
}

// Reset drop all working copies, used when a new search clears the cache
func (s *service) Reset() {
	s.overlay = make(map[string]*models.Post)
}
