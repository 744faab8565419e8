package enrich

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/saveblush/gallery-node/core/utils/logger"
	"github.com/saveblush/gallery-node/models"
	"github.com/saveblush/gallery-node/pgk/boorusource"
)

func TestMain(m *testing.M) {
	logger.InitLogger()
	os.Exit(m.Run())
}

// fakeSource canned translation source
type fakeSource struct {
	boorusource.Service
	translated map[string]string
	err        error
	calls      int
}

func (f *fakeSource) TranslateTags(ctx context.Context, names []string, lang string) (map[string]string, error) {
	f.calls++

	result := make(map[string]string, len(names))
	for _, name := range names {
		result[name] = name
	}
	for k, v := range f.translated {
		result[k] = v
	}

	return result, f.err
}

func settings() *models.UISettings {
	s := models.DefaultUISettings()
	s.TooltipEnabled = true
	s.TranslationEnabled = true

	return s
}

func TestResolveRendersLatestGeneration(t *testing.T) {
	source := &fakeSource{translated: map[string]string{"flower": "花"}}
	s := NewService(source)

	gen := s.Advance()
	result, ok := s.Resolve(context.Background(), gen, &models.Post{ID: "1", TagGeneral: "flower sky"}, settings())
	assert.True(t, ok)
	assert.Equal(t, "1", result.PostID)
	assert.Equal(t, []string{"flower", "sky"}, result.Tags)
	assert.Equal(t, "花", result.Translated["flower"])
	assert.Equal(t, "sky", result.Translated["sky"])
}

func TestResolveDropsSupersededGeneration(t *testing.T) {
	source := &fakeSource{}
	s := NewService(source)

	// hover A, then hover B before A's fetch completes
	genA := s.Advance()
	genB := s.Advance()

	result, ok := s.Resolve(context.Background(), genA, &models.Post{ID: "a", TagGeneral: "x"}, settings())
	assert.False(t, ok)
	assert.Nil(t, result)

	result, ok = s.Resolve(context.Background(), genB, &models.Post{ID: "b", TagGeneral: "y"}, settings())
	assert.True(t, ok)
	assert.Equal(t, "b", result.PostID)
}

func TestUnhoverInvalidatesPendingResolve(t *testing.T) {
	s := NewService(&fakeSource{})

	gen := s.Advance()
	s.Advance() // pointer left the post

	_, ok := s.Resolve(context.Background(), gen, &models.Post{ID: "1", TagGeneral: "x"}, settings())
	assert.False(t, ok)
}

func TestResolveDegradesOnTranslateFailure(t *testing.T) {
	source := &fakeSource{err: boorusource.ErrRemoteStatus}
	s := NewService(source)

	gen := s.Advance()
	result, ok := s.Resolve(context.Background(), gen, &models.Post{ID: "1", TagGeneral: "flower"}, settings())
	assert.True(t, ok)
	assert.Equal(t, "flower", result.Translated["flower"])
}

func TestResolveFlatTagFallback(t *testing.T) {
	s := NewService(&fakeSource{})

	gen := s.Advance()
	result, ok := s.Resolve(context.Background(), gen, &models.Post{ID: "1", TagString: "a b"}, settings())
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, result.Tags)
}

func TestResolveDisabledTooltip(t *testing.T) {
	source := &fakeSource{}
	s := NewService(source)

	off := settings()
	off.TooltipEnabled = false

	gen := s.Advance()
	_, ok := s.Resolve(context.Background(), gen, &models.Post{ID: "1", TagGeneral: "x"}, settings())
	assert.True(t, ok)

	_, ok = s.Resolve(context.Background(), s.Advance(), &models.Post{ID: "1", TagGeneral: "x"}, off)
	assert.False(t, ok)
}

func TestTranslationDisabledSkipsFetch(t *testing.T) {
	source := &fakeSource{}
	s := NewService(source)

	plain := settings()
	plain.TranslationEnabled = false

	gen := s.Advance()
	result, ok := s.Resolve(context.Background(), gen, &models.Post{ID: "1", TagGeneral: "x"}, plain)
	assert.True(t, ok)
	assert.Nil(t, result.Translated)
	assert.Equal(t, 0, source.calls)
}
