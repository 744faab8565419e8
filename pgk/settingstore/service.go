package settingstore

import (
	"github.com/goccy/go-json"
	"github.com/jinzhu/copier"

	"github.com/saveblush/gallery-node/core/cctx"
	"github.com/saveblush/gallery-node/core/config"
	"github.com/saveblush/gallery-node/core/generic"
	"github.com/saveblush/gallery-node/core/sql"
	"github.com/saveblush/gallery-node/core/utils"
	"github.com/saveblush/gallery-node/core/utils/logger"
	"github.com/saveblush/gallery-node/models"
)

// Service persisted per-node filter state, UI settings and token lists.
// Store unavailability is never fatal: loads fall back to defaults and
// writes become no-ops.
type Service interface {
	LoadFilter(c *cctx.Context, nodeKey string) *models.SearchFilter
	SaveFilter(c *cctx.Context, nodeKey string, filter *models.SearchFilter) error
	LoadSettings(c *cctx.Context, nodeKey string) *models.UISettings
	SaveSettings(c *cctx.Context, nodeKey string, settings *models.UISettings) error
	Blacklist(c *cctx.Context) []string
	AddBlacklistTag(c *cctx.Context, tag string) error
	RemoveBlacklistTag(c *cctx.Context, tag string) error
	PromptFilter(c *cctx.Context) []string
	AddPromptFilterTag(c *cctx.Context, tag string) error
	RemovePromptFilterTag(c *cctx.Context, tag string) error
}

type service struct {
	config     *config.Configs
	repository Repository
}

func NewService() Service {
	return &service{
		config:     config.CF,
		repository: NewRepository(),
	}
}

// LoadFilter persisted filter state for a node, empty filter when absent
func (s *service) LoadFilter(c *cctx.Context, nodeKey string) *models.SearchFilter {
	filter := &models.SearchFilter{}
	if !sql.Connected {
		return filter
	}

	stored, err := s.repository.FindFilter(c.GetDatabase(), nodeKey)
	if err != nil {
		logger.Log.Warnf("load filter error: %s", err)
		return filter
	}
	if generic.IsEmpty(stored.NodeKey) {
		return filter
	}

	if stored.StartTime != nil {
		filter.StartTime = utils.Pointer(models.Timestamp(*stored.StartTime))
	}
	if stored.EndTime != nil {
		filter.EndTime = utils.Pointer(models.Timestamp(*stored.EndTime))
	}
	filter.StartPage = stored.StartPage

	return filter
}

// SaveFilter write the filter state on every filter change
func (s *service) SaveFilter(c *cctx.Context, nodeKey string, filter *models.SearchFilter) error {
	if !sql.Connected {
		return nil
	}

	stored := &models.StoredFilter{NodeKey: nodeKey}
	if filter != nil {
		if filter.StartTime != nil {
			v := int64(*filter.StartTime)
			stored.StartTime = &v
		}
		if filter.EndTime != nil {
			v := int64(*filter.EndTime)
			stored.EndTime = &v
		}
		stored.StartPage = filter.StartPage
	}

	err := s.repository.UpsertFilter(c.GetDatabase(), stored)
	if err != nil {
		logger.Log.Errorf("save filter error: %s", err)
		return err
	}

	return nil
}

// LoadSettings stored settings merged over the defaults
func (s *service) LoadSettings(c *cctx.Context, nodeKey string) *models.UISettings {
	settings := models.DefaultUISettings()
	settings.TooltipEnabled = s.config.Enrich.TooltipEnabled
	settings.TranslationEnabled = s.config.Enrich.TranslationEnabled
	settings.AutocompleteLimit = s.config.Enrich.AutocompleteLimit
	settings.Language = s.config.Enrich.Language

	if !sql.Connected {
		return settings
	}

	stored, err := s.repository.FindSettings(c.GetDatabase(), nodeKey)
	if err != nil {
		logger.Log.Warnf("load settings error: %s", err)
		return settings
	}
	if generic.IsEmpty(stored.Data) {
		return settings
	}

	loaded := &models.UISettings{}
	err = json.Unmarshal([]byte(stored.Data), loaded)
	if err != nil {
		logger.Log.Warnf("decode settings error: %s", err)
		return settings
	}

	err = copier.Copy(settings, loaded)
	if err != nil {
		logger.Log.Warnf("merge settings error: %s", err)
	}

	return settings
}

// SaveSettings persist the settings blob for a node
func (s *service) SaveSettings(c *cctx.Context, nodeKey string, settings *models.UISettings) error {
	if !sql.Connected {
		return nil
	}

	b, err := json.Marshal(settings)
	if err != nil {
		return err
	}

	err = s.repository.UpsertSettings(c.GetDatabase(), &models.StoredSettings{
		NodeKey: nodeKey,
		Data:    string(b),
	})
	if err != nil {
		logger.Log.Errorf("save settings error: %s", err)
		return err
	}

	return nil
}

// Blacklist all blacklist tokens
func (s *service) Blacklist(c *cctx.Context) []string {
	if !sql.Connected {
		return nil
	}

	fetch, err := s.repository.FindBlacklistTags(c.GetDatabase())
	if err != nil {
		logger.Log.Warnf("load blacklist error: %s", err)
		return nil
	}

	tags := []string{}
	for _, v := range fetch {
		tags = append(tags, v.Tag)
	}

	return tags
}

func (s *service) AddBlacklistTag(c *cctx.Context, tag string) error {
	if !sql.Connected {
		return nil
	}

	return s.repository.InsertBlacklistTag(c.GetDatabase(), &models.BlacklistTag{Tag: tag})
}

func (s *service) RemoveBlacklistTag(c *cctx.Context, tag string) error {
	if !sql.Connected {
		return nil
	}

	return s.repository.DeleteBlacklistTag(c.GetDatabase(), tag)
}

// PromptFilter tokens removed from exported prompts
func (s *service) PromptFilter(c *cctx.Context) []string {
	if !sql.Connected {
		return nil
	}

	fetch, err := s.repository.FindPromptFilterTags(c.GetDatabase())
	if err != nil {
		logger.Log.Warnf("load prompt filter error: %s", err)
		return nil
	}

	tags := []string{}
	for _, v := range fetch {
		tags = append(tags, v.Tag)
	}

	return tags
}

func (s *service) AddPromptFilterTag(c *cctx.Context, tag string) error {
	if !sql.Connected {
		return nil
	}

	return s.repository.InsertPromptFilterTag(c.GetDatabase(), &models.PromptFilterTag{Tag: tag})
}

func (s *service) RemovePromptFilterTag(c *cctx.Context, tag string) error {
	if !sql.Connected {
		return nil
	}

	return s.repository.DeletePromptFilterTag(c.GetDatabase(), tag)
}
