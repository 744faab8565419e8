package projector

import (
	"strings"

	"github.com/goccy/go-json"

	"github.com/saveblush/gallery-node/core/utils/logger"
	"github.com/saveblush/gallery-node/models"
	"github.com/saveblush/gallery-node/pgk/editsession"
	"github.com/saveblush/gallery-node/pgk/postcache"
)

// Channel host-facing serialization channel.
// Projection is the sole path by which host-visible state changes.
type Channel interface {
	SetValue(json string)
	NotifyChanged()
}

// Service computes the exported payload (prompt text + image url) from
// cache, overlay and settings, and publishes it to the channel.
type Service interface {
	SetSettings(settings *models.UISettings)
	SetPromptFilter(tags []string)
	Toggle(id interface{}, selected bool)
	Selected() []string
	IsSelected(id interface{}) bool
	ClearSelection()
	ComputePrompt(id interface{}) string
	Project() error
}

type service struct {
	cache    postcache.Service
	edits    editsession.Service
	channel  Channel
	settings *models.UISettings

	promptFilter []string
	selected     []string
}

func NewService(cache postcache.Service, edits editsession.Service, channel Channel) Service {
	return &service{
		cache:    cache,
		edits:    edits,
		channel:  channel,
		settings: models.DefaultUISettings(),
	}
}

func (s *service) SetSettings(settings *models.UISettings) {
	if settings != nil {
		s.settings = settings
	}
}

func (s *service) SetPromptFilter(tags []string) {
	s.promptFilter = tags
}

// Toggle mark or unmark a post selected. Single-select mode deselects
// the previous post when a new one is selected.
func (s *service) Toggle(id interface{}, selected bool) {
	key := models.NormalizeID(id)
	if key == "" {
		return
	}

	if !selected {
		for i, v := range s.selected {
			if v == key {
				s.selected = append(s.selected[:i], s.selected[i+1:]...)
				break
			}
		}
		return
	}

	if s.IsSelected(key) {
		return
	}

	if s.settings.MultiSelect {
		s.selected = append(s.selected, key)
	} else {
		s.selected = []string{key}
	}
}

func (s *service) Selected() []string {
	return s.selected
}

func (s *service) IsSelected(id interface{}) bool {
	key := models.NormalizeID(id)
	for _, v := range s.selected {
		if v == key {
			return true
		}
	}

	return false
}

func (s *service) ClearSelection() {
	s.selected = nil
}

// effectivePost working copy when present, else the cache entry
func (s *service) effectivePost(id string) *models.Post {
	if copy := s.edits.WorkingCopy(id); copy != nil {
		return copy
	}

	return s.cache.FindByID(id)
}

// ComputePrompt assemble the exported prompt text for one post.
// Tokens come from the enabled categories (flat tag string when none of
// them exist on the post), minus the prompt-filter blacklist, then the
// formatting transforms run in a fixed order: underscore to space first,
// bracket escaping second, so escaping sees the humanised text.
func (s *service) ComputePrompt(id interface{}) string {
	post := s.effectivePost(models.NormalizeID(id))
	if post == nil {
		return ""
	}

	tokens := []string{}
	for _, category := range s.settings.Categories {
		tokens = append(tokens, models.SplitTokens(post.CategoryTags(category))...)
	}
	if len(tokens) == 0 {
		tokens = models.SplitTokens(post.TagString)
	}

	if s.settings.PromptFilterEnabled && len(s.promptFilter) > 0 {
		tokens = s.subtractFiltered(tokens)
	}

	for i, token := range tokens {
		if s.settings.ReplaceUnderscore {
			token = strings.ReplaceAll(token, "_", " ")
		}
		if s.settings.EscapeBrackets {
			token = strings.ReplaceAll(token, "(", `\(`)
			token = strings.ReplaceAll(token, ")", `\)`)
		}
		tokens[i] = token
	}

	return strings.Join(tokens, ", ")
}

func (s *service) subtractFiltered(tokens []string) []string {
	filtered := tokens[:0]
	for _, token := range tokens {
		blocked := false
		for _, v := range s.promptFilter {
			if strings.EqualFold(strings.TrimSpace(v), token) {
				blocked = true
				break
			}
		}
		if !blocked {
			filtered = append(filtered, token)
		}
	}

	return filtered
}

// Project publish the current selection to the serialization channel.
// Called synchronously after every mutation that can affect the export.
func (s *service) Project() error {
	var payload interface{}

	if s.settings.MultiSelect && len(s.selected) > 0 {
		items := []models.SelectionItem{}
		for _, id := range s.selected {
			post := s.effectivePost(id)
			if post == nil {
				continue
			}
			items = append(items, models.SelectionItem{
				PostID:     id,
				PromptText: s.ComputePrompt(id),
				ImageURL:   post.ImageURL(),
			})
		}
		payload = &models.MultiSelectionValue{Selections: items}
	} else if len(s.selected) > 0 {
		post := s.effectivePost(s.selected[0])
		if post != nil {
			payload = &models.SelectionValue{
				PromptText: s.ComputePrompt(s.selected[0]),
				ImageURL:   post.ImageURL(),
			}
		}
	}

	if payload == nil {
		payload = struct{}{}
	}

	b, err := json.Marshal(payload)
	if err != nil {
		logger.Log.Errorf("marshal selection error: %s", err)
		return err
	}

	s.channel.SetValue(string(b))
	s.channel.NotifyChanged()

	return nil
}
