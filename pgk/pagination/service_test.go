package pagination

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/saveblush/gallery-node/core/config"
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
	pages     [][]*models.Post
	err       error
	calls     int
	requests  []*boorusource.SearchRequest
	entered   chan struct{}
	blockOn   chan struct{}
}

func (f *fakeSource) Search(ctx context.Context, req *boorusource.SearchRequest) ([]*models.Post, error) {
	f.calls++
	f.requests = append(f.requests, req)

	if f.entered != nil {
		close(f.entered)
		f.entered = nil
	}
	if f.blockOn != nil {
		<-f.blockOn
	}

	if f.err != nil {
		return nil, f.err
	}

	if len(f.pages) == 0 {
		return nil, nil
	}
	page := f.pages[0]
	f.pages = f.pages[1:]

	return page, nil
}

func initConfig() {
	config.CF.Booru.PageSize = 3
	config.CF.Booru.MaxQueryTags = 2
	config.CF.Booru.AllowedFileExts = []string{"jpg", "png"}
	config.CF.Booru.DefaultRating = "safe"
}

func newController(source *fakeSource) (Service, postcache.Service) {
	initConfig()
	cache := postcache.NewService()

	return NewService(cache, source), cache
}

func post(id, ext, general string) *models.Post {
	return &models.Post{ID: id, FileExt: ext, TagGeneral: general}
}

func TestSetQueryTagLimit(t *testing.T) {
	s, _ := newController(&fakeSource{})

	hint := s.SetQuery("a, b, c, d", "")
	assert.NotEmpty(t, hint)
	assert.Contains(t, hint, "c, d")
	assert.Equal(t, []string{"a", "b"}, s.Query())

	hint = s.SetQuery("a b", "")
	assert.Empty(t, hint)
	assert.Equal(t, []string{"a", "b"}, s.Query())
}

func TestLoadNextPageSendsOnlyHonoredTags(t *testing.T) {
	source := &fakeSource{pages: [][]*models.Post{{post("1", "jpg", "a")}}}
	s, _ := newController(source)

	s.SetQuery("a, b, c, d", "")
	_, err := s.LoadNextPage(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, source.requests[0].Tags)
}

func TestMutualExclusion(t *testing.T) {
	source := &fakeSource{
		pages:   [][]*models.Post{{post("1", "jpg", "a")}},
		entered: make(chan struct{}),
		blockOn: make(chan struct{}),
	}
	s, _ := newController(source)

	entered := source.entered
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.LoadNextPage(context.Background())
	}()

	<-entered
	assert.True(t, s.IsLoading())

	// second request while one is outstanding: zero network calls
	res, err := s.LoadNextPage(context.Background())
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrLoadInFlight)
	assert.Equal(t, 1, source.calls)

	close(source.blockOn)
	<-done
	assert.False(t, s.IsLoading())
}

func TestCursorAdvancesOnlyOnSuccess(t *testing.T) {
	source := &fakeSource{err: boorusource.ErrRemoteStatus}
	s, _ := newController(source)

	assert.Equal(t, 1, s.CurrentPage())
	_, err := s.LoadNextPage(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 1, s.CurrentPage())

	source.err = nil
	source.pages = [][]*models.Post{{post("1", "jpg", "a"), post("2", "jpg", "b"), post("3", "jpg", "c")}}
	res, err := s.LoadNextPage(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 2, s.CurrentPage())
	assert.True(t, res.Page.HasMore)
}

func TestFileTypeFilter(t *testing.T) {
	source := &fakeSource{pages: [][]*models.Post{{
		post("1", "jpg", "a"),
		post("2", "swf", "b"),
		post("3", "PNG", "c"),
	}}}
	s, cache := newController(source)

	res, err := s.LoadNextPage(context.Background())
	assert.NoError(t, err)
	assert.Len(t, res.Appended, 2)
	assert.Nil(t, cache.FindByID("2"))
}

func TestBlacklistFilter(t *testing.T) {
	source := &fakeSource{pages: [][]*models.Post{{
		post("1", "jpg", "flower sky"),
		post("2", "jpg", "blood Gore knife"),
		post("3", "jpg", "portrait"),
	}}}
	s, cache := newController(source)
	s.SetBlacklist([]string{"gore"})

	res, err := s.LoadNextPage(context.Background())
	assert.NoError(t, err)
	assert.Len(t, res.Appended, 2)
	assert.Equal(t, 2, cache.Len())
	assert.Nil(t, cache.FindByID("2"))
}

func TestEmptyFirstPageIsNoResults(t *testing.T) {
	source := &fakeSource{}
	s, _ := newController(source)

	res, err := s.LoadNextPage(context.Background())
	assert.NoError(t, err)
	assert.True(t, res.NoResults)

	// a later empty page is just the end of the result set
	source.pages = [][]*models.Post{{post("1", "jpg", "a")}}
	_, err = s.LoadNextPage(context.Background())
	assert.NoError(t, err)

	res, err = s.LoadNextPage(context.Background())
	assert.NoError(t, err)
	assert.False(t, res.NoResults)
}

func TestSetFilterValidation(t *testing.T) {
	s, _ := newController(&fakeSource{})

	start := models.Timestamp(200)
	end := models.Timestamp(100)
	err := s.SetFilter(&models.SearchFilter{StartTime: &start, EndTime: &end})
	assert.ErrorIs(t, err, models.ErrFilterTimeRange)
	// invalid input leaves the active filter untouched
	assert.False(t, s.Filter().IsTimeRange())

	page := -1
	err = s.SetFilter(&models.SearchFilter{StartPage: &page})
	assert.ErrorIs(t, err, models.ErrFilterStartPage)
	assert.False(t, s.Filter().IsStartPage())
}

func TestSetFilterNilResets(t *testing.T) {
	s, _ := newController(&fakeSource{})

	start := models.Timestamp(100)
	assert.NoError(t, s.SetFilter(&models.SearchFilter{StartTime: &start}))
	assert.True(t, s.Filter().IsTimeRange())

	assert.NoError(t, s.SetFilter(nil))
	assert.False(t, s.Filter().IsTimeRange())
	assert.False(t, s.Filter().IsStartPage())
}

func TestSetFilterMutuallyExclusive(t *testing.T) {
	s, _ := newController(&fakeSource{})

	start := models.Timestamp(100)
	assert.NoError(t, s.SetFilter(&models.SearchFilter{StartTime: &start}))
	assert.True(t, s.Filter().IsTimeRange())

	page := 5
	assert.NoError(t, s.SetFilter(&models.SearchFilter{StartPage: &page, StartTime: &start}))
	assert.False(t, s.Filter().IsTimeRange())
	assert.Equal(t, 5, s.Filter().FirstPage())
}

func TestResetAndReload(t *testing.T) {
	source := &fakeSource{pages: [][]*models.Post{
		{post("1", "jpg", "a"), post("2", "jpg", "b"), post("3", "jpg", "c")},
		{post("4", "jpg", "d")},
	}}
	s, cache := newController(source)

	_, err := s.LoadNextPage(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 3, cache.Len())

	res, err := s.ResetAndReload(context.Background())
	assert.NoError(t, err)
	assert.Len(t, res.Appended, 1)
	assert.Equal(t, 1, cache.Len())
	assert.Nil(t, cache.FindByID("1"))
	assert.NotNil(t, cache.FindByID("4"))
}
