package models

import "gorm.io/gorm"

// UISettings per-node settings constraining projection and enrichment
type UISettings struct {
	Categories          []TagCategory `json:"categories"`
	ReplaceUnderscore   bool          `json:"replace_underscore"`
	EscapeBrackets      bool          `json:"escape_brackets"`
	TooltipEnabled      bool          `json:"tooltip_enabled"`
	TranslationEnabled  bool          `json:"translation_enabled"`
	AutocompleteLimit   int           `json:"autocomplete_limit"`
	MultiSelect         bool          `json:"multi_select"`
	PromptFilterEnabled bool          `json:"prompt_filter_enabled"`
	Language            string        `json:"language"`
}

// DefaultUISettings settings used before a stored row exists
func DefaultUISettings() *UISettings {
	return &UISettings{
		Categories:        []TagCategory{CategoryArtist, CategoryCharacter, CategoryGeneral},
		ReplaceUnderscore: true,
		TooltipEnabled:    true,
		AutocompleteLimit: 10,
		Language:          "en",
	}
}

// StoredFilter persisted filter state per node
type StoredFilter struct {
	gorm.Model
	NodeKey   string `json:"node_key" gorm:"type:varchar(64);uniqueIndex"`
	StartTime *int64 `json:"start_time"`
	EndTime   *int64 `json:"end_time"`
	StartPage *int   `json:"start_page"`
}

func (StoredFilter) TableName() string {
	return "gallery_filters"
}

// StoredSettings persisted UI settings per node, opaque json blob
type StoredSettings struct {
	gorm.Model
	NodeKey string `json:"node_key" gorm:"type:varchar(64);uniqueIndex"`
	Data    string `json:"data"`
}

func (StoredSettings) TableName() string {
	return "gallery_settings"
}

// BlacklistTag post blacklist token
type BlacklistTag struct {
	gorm.Model
	Tag string `json:"tag" gorm:"type:varchar(255);uniqueIndex"`
}

func (BlacklistTag) TableName() string {
	return "gallery_blacklist_tags"
}

// PromptFilterTag token removed from exported prompts
type PromptFilterTag struct {
	gorm.Model
	Tag string `json:"tag" gorm:"type:varchar(255);uniqueIndex"`
}

func (PromptFilterTag) TableName() string {
	return "gallery_prompt_filter_tags"
}

// FavoritePost local cache of favorited post ids
type FavoritePost struct {
	gorm.Model
	PostID string `json:"post_id" gorm:"type:varchar(32);uniqueIndex"`
}

func (FavoritePost) TableName() string {
	return "gallery_favorites"
}
