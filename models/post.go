package models

import (
	"strconv"
	"strings"
)

// TagCategory one of the categorised tag groups on a post.
type TagCategory string

const (
	CategoryArtist    TagCategory = "artist"
	CategoryCopyright TagCategory = "copyright"
	CategoryCharacter TagCategory = "character"
	CategoryGeneral   TagCategory = "general"
	CategoryMeta      TagCategory = "meta"
)

// Categories all tag categories in display order
var Categories = []TagCategory{
	CategoryArtist,
	CategoryCopyright,
	CategoryCharacter,
	CategoryGeneral,
	CategoryMeta,
}

// Post one image-board item plus its categorised tag metadata.
// Immutable once fetched except through the edit overlay.
type Post struct {
	ID           string     `json:"id"`
	CreatedAt    *Timestamp `json:"created_at"`
	Width        int        `json:"width"`
	Height       int        `json:"height"`
	FileExt      string     `json:"file_ext"`
	Rating       string     `json:"rating"`
	Score        int        `json:"score"`
	PreviewURL   string     `json:"preview_url"`
	SampleURL    string     `json:"sample_url"`
	FileURL      string     `json:"file_url"`
	TagString    string     `json:"tag_string"`
	TagArtist    string     `json:"tag_string_artist"`
	TagCopyright string     `json:"tag_string_copyright"`
	TagCharacter string     `json:"tag_string_character"`
	TagGeneral   string     `json:"tag_string_general"`
	TagMeta      string     `json:"tag_string_meta"`
	IsFavorited  bool       `json:"is_favorited"`
}

// CategoryTags get the tag string of one category
func (p *Post) CategoryTags(category TagCategory) string {
	switch category {
	case CategoryArtist:
		return p.TagArtist
	case CategoryCopyright:
		return p.TagCopyright
	case CategoryCharacter:
		return p.TagCharacter
	case CategoryGeneral:
		return p.TagGeneral
	case CategoryMeta:
		return p.TagMeta
	}

	return ""
}

// SetCategoryTags set the tag string of one category
func (p *Post) SetCategoryTags(category TagCategory, tags string) {
	switch category {
	case CategoryArtist:
		p.TagArtist = tags
	case CategoryCopyright:
		p.TagCopyright = tags
	case CategoryCharacter:
		p.TagCharacter = tags
	case CategoryGeneral:
		p.TagGeneral = tags
	case CategoryMeta:
		p.TagMeta = tags
	}
}

// HasCategoryTags true if any categorised tag field is populated
func (p *Post) HasCategoryTags() bool {
	for _, category := range Categories {
		if strings.TrimSpace(p.CategoryTags(category)) != "" {
			return true
		}
	}

	return false
}

// ImageURL best full-size url for export
func (p *Post) ImageURL() string {
	if p.FileURL != "" {
		return p.FileURL
	}
	if p.SampleURL != "" {
		return p.SampleURL
	}

	return p.PreviewURL
}

// Clone structural copy, field by field.
// Kept explicit so ownership of every copied field is visible.
func (p *Post) Clone() *Post {
	if p == nil {
		return nil
	}

	v := *p
	if p.CreatedAt != nil {
		createdAt := *p.CreatedAt
		v.CreatedAt = &createdAt
	}

	return &v
}

// NormalizeID canonical string form of a post identifier.
// The remote source emits numeric ids while the front end holds strings;
// every lookup funnels through here.
func NormalizeID(id interface{}) string {
	switch v := id.(type) {
	case string:
		return strings.TrimSpace(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatInt(int64(v), 10)
	}

	return ""
}
