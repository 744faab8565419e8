package editsession

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/saveblush/gallery-node/core/utils/logger"
	"github.com/saveblush/gallery-node/models"
	"github.com/saveblush/gallery-node/pgk/boorusource"
	"github.com/saveblush/gallery-node/pgk/postcache"
)

func TestMain(m *testing.M) {
	logger.InitLogger()
	os.Exit(m.Run())
}

// fakeSource canned remote source
type fakeSource struct {
	boorusource.Service
	post     *models.Post
	findErr  error
	requests int
}

func (f *fakeSource) FindByID(ctx context.Context, id string) (*models.Post, error) {
	f.requests++
	if f.findErr != nil {
		return nil, f.findErr
	}

	return f.post, nil
}

func newSession(posts ...*models.Post) (Service, postcache.Service, *fakeSource) {
	cache := postcache.NewService()
	cache.Append(posts)
	source := &fakeSource{}
	return NewService(cache, source), cache, source
}

func post(id, general string) *models.Post {
	return &models.Post{ID: id, TagGeneral: general, TagArtist: "artist_a"}
}

func TestUneditedPostHasNoWorkingCopy(t *testing.T) {
	s, _, _ := newSession(post("1", "a b"))

	assert.Nil(t, s.WorkingCopy("1"))
	assert.False(t, s.ComputeEditedStatus("1"))
}

func TestGetOrCreateWorkingCopyIdempotent(t *testing.T) {
	s, _, _ := newSession(post("1", "a b"))

	first := s.GetOrCreateWorkingCopy("1")
	second := s.GetOrCreateWorkingCopy("1")
	assert.Same(t, first, second)

	// an untouched working copy never reports edited
	assert.False(t, s.ComputeEditedStatus("1"))
}

func TestEditedStatusOrderIndependent(t *testing.T) {
	s, _, _ := newSession(post("1", "a b c"))

	s.MutateTagCategory("1", models.CategoryGeneral, []string{"c", "a", "b"})
	assert.False(t, s.ComputeEditedStatus("1"))

	s.MutateTagCategory("1", models.CategoryGeneral, []string{"c", "a", "d"})
	assert.True(t, s.ComputeEditedStatus("1"))
}

func TestEditedStatusEmptyEquivalence(t *testing.T) {
	s, _, _ := newSession(&models.Post{ID: "1", TagGeneral: "a", TagMeta: ""})

	s.MutateTagCategory("1", models.CategoryMeta, []string{})
	assert.False(t, s.ComputeEditedStatus("1"))
}

func TestEditedStatusFlatFallback(t *testing.T) {
	// no categorised tags on either side: the flat tag string decides
	s, _, _ := newSession(&models.Post{ID: "1", TagString: "a b"})

	copy := s.GetOrCreateWorkingCopy("1")
	assert.False(t, s.ComputeEditedStatus("1"))

	copy.TagString = "b a"
	assert.False(t, s.ComputeEditedStatus("1"))

	copy.TagString = "b z"
	assert.True(t, s.ComputeEditedStatus("1"))
}

func TestEditedStatusPartialCategories(t *testing.T) {
	// one populated category is enough to use category diffing
	s, _, _ := newSession(&models.Post{ID: "1", TagString: "a b", TagGeneral: "a b"})

	copy := s.GetOrCreateWorkingCopy("1")
	copy.TagString = "changed completely"
	assert.False(t, s.ComputeEditedStatus("1"))

	s.MutateTagCategory("1", models.CategoryGeneral, []string{"a", "z"})
	assert.True(t, s.ComputeEditedStatus("1"))
}

func TestCommitOrDiscardDropsCleanCopy(t *testing.T) {
	s, _, _ := newSession(post("1", "a b"))

	s.MutateTagCategory("1", models.CategoryGeneral, []string{"b", "a"})
	committed := s.CommitOrDiscard("1")
	assert.False(t, committed)
	assert.Nil(t, s.WorkingCopy("1"))
}

func TestCommitOrDiscardSupersedesCacheEntry(t *testing.T) {
	s, cache, _ := newSession(post("1", "a b"))

	s.MutateTagCategory("1", models.CategoryGeneral, []string{"a", "z"})
	committed := s.CommitOrDiscard("1")
	assert.True(t, committed)

	assert.Equal(t, "a z", cache.FindByID("1").TagGeneral)
	// snapshot stays untouched, so the edited indicator keeps showing
	assert.Equal(t, "a b", cache.Snapshot("1").TagGeneral)
	assert.True(t, s.ComputeEditedStatus("1"))
}

func TestResetToOriginal(t *testing.T) {
	s, cache, _ := newSession(post("1", "a b"))

	s.MutateTagCategory("1", models.CategoryGeneral, []string{"x"})
	s.CommitOrDiscard("1")

	restored, err := s.ResetToOriginal(context.Background(), "1")
	assert.NoError(t, err)
	assert.Equal(t, "a b", restored.TagGeneral)
	assert.Equal(t, "a b", cache.FindByID("1").TagGeneral)
	assert.False(t, s.ComputeEditedStatus("1"))
	assert.Nil(t, s.WorkingCopy("1"))
}

func TestResetToOriginalRefetchesMissingSnapshot(t *testing.T) {
	cache := postcache.NewService()
	source := &fakeSource{post: post("1", "server truth")}
	s := NewService(cache, source)

	restored, err := s.ResetToOriginal(context.Background(), "1")
	assert.NoError(t, err)
	assert.Equal(t, 1, source.requests)
	assert.Equal(t, "server truth", restored.TagGeneral)
	assert.NotNil(t, cache.Snapshot("1"))
}

func TestResetToOriginalRefetchFailure(t *testing.T) {
	cache := postcache.NewService()
	source := &fakeSource{findErr: boorusource.ErrRemoteStatus}
	s := NewService(cache, source)

	_, err := s.ResetToOriginal(context.Background(), "1")
	assert.ErrorIs(t, err, ErrOriginalMissing)
}

func TestResetClearsOverlay(t *testing.T) {
	s, _, _ := newSession(post("1", "a b"))

	s.MutateTagCategory("1", models.CategoryGeneral, []string{"x"})
	s.Reset()
	assert.Nil(t, s.WorkingCopy("1"))
	assert.False(t, s.ComputeEditedStatus("1"))
}
