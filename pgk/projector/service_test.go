package projector

import (
	"os"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"

	"github.com/saveblush/gallery-node/core/utils/logger"
	"github.com/saveblush/gallery-node/models"
	"github.com/saveblush/gallery-node/pgk/boorusource"
	"github.com/saveblush/gallery-node/pgk/editsession"
	"github.com/saveblush/gallery-node/pgk/postcache"
)

func TestMain(m *testing.M) {
	logger.InitLogger()
	os.Exit(m.Run())
}

// captureChannel records everything pushed to the host
type captureChannel struct {
	values  []string
	changes int
}

func (c *captureChannel) SetValue(v string) {
	c.values = append(c.values, v)
}

func (c *captureChannel) NotifyChanged() {
	c.changes++
}

func (c *captureChannel) last() string {
	if len(c.values) == 0 {
		return ""
	}

	return c.values[len(c.values)-1]
}

type fakeSource struct {
	boorusource.Service
}

func newProjector(posts ...*models.Post) (Service, editsession.Service, *captureChannel) {
	cache := postcache.NewService()
	cache.Append(posts)
	edits := editsession.NewService(cache, &fakeSource{})
	channel := &captureChannel{}

	return NewService(cache, edits, channel), edits, channel
}

func TestComputePromptFormatting(t *testing.T) {
	s, _, _ := newProjector(&models.Post{ID: "1", TagGeneral: "long_hair solo_(duo)"})

	settings := models.DefaultUISettings()
	settings.ReplaceUnderscore = true
	settings.EscapeBrackets = true
	s.SetSettings(settings)

	// underscores become spaces before brackets are escaped
	assert.Equal(t, `long hair, solo \(duo\)`, s.ComputePrompt("1"))
}

func TestComputePromptRawTokens(t *testing.T) {
	s, _, _ := newProjector(&models.Post{ID: "1", TagGeneral: "long_hair solo_(duo)"})

	settings := models.DefaultUISettings()
	settings.ReplaceUnderscore = false
	settings.EscapeBrackets = false
	s.SetSettings(settings)

	assert.Equal(t, "long_hair, solo_(duo)", s.ComputePrompt("1"))
}

func TestComputePromptCategoryOrder(t *testing.T) {
	s, _, _ := newProjector(&models.Post{
		ID:           "1",
		TagArtist:    "painter",
		TagCharacter: "hero",
		TagGeneral:   "sky",
		TagMeta:      "highres",
	})

	settings := models.DefaultUISettings()
	settings.Categories = []models.TagCategory{models.CategoryArtist, models.CategoryCharacter, models.CategoryGeneral}
	s.SetSettings(settings)

	// enabled categories in order, meta excluded
	assert.Equal(t, "painter, hero, sky", s.ComputePrompt("1"))
}

func TestComputePromptFlatFallback(t *testing.T) {
	s, _, _ := newProjector(&models.Post{ID: "1", TagString: "flat_one flat_two"})

	assert.Equal(t, "flat one, flat two", s.ComputePrompt("1"))
}

func TestComputePromptFilterSubtract(t *testing.T) {
	s, _, _ := newProjector(&models.Post{ID: "1", TagGeneral: "flower watermark sky"})
	s.SetPromptFilter([]string{"Watermark"})

	settings := models.DefaultUISettings()
	settings.PromptFilterEnabled = true
	s.SetSettings(settings)
	assert.Equal(t, "flower, sky", s.ComputePrompt("1"))

	settings.PromptFilterEnabled = false
	s.SetSettings(settings)
	assert.Equal(t, "flower, watermark, sky", s.ComputePrompt("1"))
}

func TestComputePromptUsesWorkingCopy(t *testing.T) {
	s, edits, _ := newProjector(&models.Post{ID: "1", TagGeneral: "before"})

	edits.MutateTagCategory("1", models.CategoryGeneral, []string{"after"})
	assert.Equal(t, "after", s.ComputePrompt("1"))
}

func TestProjectEmptySelection(t *testing.T) {
	s, _, channel := newProjector()

	assert.NoError(t, s.Project())
	assert.Equal(t, "{}", channel.last())
	assert.Equal(t, 1, channel.changes)
}

func TestProjectSingleSelectReplaces(t *testing.T) {
	s, _, channel := newProjector(
		&models.Post{ID: "1", TagGeneral: "alpha", FileURL: "https://x/1.jpg"},
		&models.Post{ID: "2", TagGeneral: "beta", FileURL: "https://x/2.jpg"},
	)

	s.Toggle("1", true)
	assert.NoError(t, s.Project())

	value := models.SelectionValue{}
	assert.NoError(t, json.Unmarshal([]byte(channel.last()), &value))
	assert.Equal(t, "alpha", value.PromptText)
	assert.Equal(t, "https://x/1.jpg", value.ImageURL)

	// selecting another post in single-select mode replaces the first
	s.Toggle(2, true)
	assert.Equal(t, []string{"2"}, s.Selected())
	assert.NoError(t, s.Project())

	value = models.SelectionValue{}
	assert.NoError(t, json.Unmarshal([]byte(channel.last()), &value))
	assert.Equal(t, "beta", value.PromptText)
	assert.Equal(t, "https://x/2.jpg", value.ImageURL)
}

func TestProjectMultiSelect(t *testing.T) {
	s, edits, channel := newProjector(
		&models.Post{ID: "1", TagGeneral: "alpha"},
		&models.Post{ID: "2", TagGeneral: "beta"},
	)

	settings := models.DefaultUISettings()
	settings.MultiSelect = true
	s.SetSettings(settings)

	s.Toggle("1", true)
	s.Toggle("2", true)
	edits.MutateTagCategory("2", models.CategoryGeneral, []string{"beta", "edited"})

	assert.NoError(t, s.Project())

	value := models.MultiSelectionValue{}
	assert.NoError(t, json.Unmarshal([]byte(channel.last()), &value))
	assert.Len(t, value.Selections, 2)
	assert.Equal(t, "1", value.Selections[0].PostID)
	assert.Equal(t, "alpha", value.Selections[0].PromptText)
	assert.Equal(t, "beta, edited", value.Selections[1].PromptText)
}

func TestProjectMultiSelectEmptyIsBareObject(t *testing.T) {
	s, _, channel := newProjector()

	settings := models.DefaultUISettings()
	settings.MultiSelect = true
	s.SetSettings(settings)

	assert.NoError(t, s.Project())
	assert.Equal(t, "{}", channel.last())
}

func TestToggleDeselect(t *testing.T) {
	s, _, channel := newProjector(&models.Post{ID: "1", TagGeneral: "alpha"})

	s.Toggle("1", true)
	assert.True(t, s.IsSelected("1"))
	assert.True(t, s.IsSelected(1))

	s.Toggle("1", false)
	assert.False(t, s.IsSelected("1"))

	assert.NoError(t, s.Project())
	assert.Equal(t, "{}", channel.last())
}

func TestToggleIgnoresDuplicates(t *testing.T) {
	s, _, _ := newProjector(&models.Post{ID: "1", TagGeneral: "alpha"})

	settings := models.DefaultUISettings()
	settings.MultiSelect = true
	s.SetSettings(settings)

	s.Toggle("1", true)
	s.Toggle(1, true)
	assert.Equal(t, []string{"1"}, s.Selected())
}
