package gallery

import (
	"context"
	"sync"
	"time"

	"github.com/saveblush/gallery-node/core/cctx"
	"github.com/saveblush/gallery-node/core/config"
	"github.com/saveblush/gallery-node/models"
	"github.com/saveblush/gallery-node/pgk/boorusource"
	"github.com/saveblush/gallery-node/pgk/cron"
	"github.com/saveblush/gallery-node/pgk/editsession"
	"github.com/saveblush/gallery-node/pgk/enrich"
	"github.com/saveblush/gallery-node/pgk/favorites"
	"github.com/saveblush/gallery-node/pgk/pagination"
	"github.com/saveblush/gallery-node/pgk/postcache"
	"github.com/saveblush/gallery-node/pgk/projector"
	"github.com/saveblush/gallery-node/pgk/settingstore"
)

// session one gallery node bound to one websocket connection.
// It owns every piece of per-node mutable state; sub-services receive it
// by reference so multiple simultaneous gallery nodes never share state.
type session struct {
	cctx    *cctx.Context
	config  *config.Configs
	conn    *Conn
	muRes   sync.Mutex
	nodeKey string

	source    boorusource.Service
	cron      cron.Service
	cache     postcache.Service
	edits     editsession.Service
	pages     pagination.Service
	enrich    enrich.Service
	favorites favorites.Service
	store     settingstore.Service
	projector projector.Service

	settings *models.UISettings
	value    string
}

// newSession new session
func newSession(conn *Conn, nodeKey string, source boorusource.Service, cron cron.Service) *session {
	s := &session{
		cctx:    cctx.New(),
		config:  config.CF,
		conn:    conn,
		nodeKey: nodeKey,

		source:    source,
		cron:      cron,
		store:     settingstore.NewService(),
		favorites: favorites.NewService(source),
		enrich:    enrich.NewService(source),
	}

	s.cache = postcache.NewService()
	s.edits = editsession.NewService(s.cache, source)
	s.pages = pagination.NewService(s.cache, source)
	s.projector = projector.NewService(s.cache, s.edits, s)
	s.settings = models.DefaultUISettings()

	return s
}

// init restore persisted node state and publish the empty selection
func (s *session) init() {
	s.settings = s.store.LoadSettings(s.cctx, s.nodeKey)
	s.projector.SetSettings(s.settings)
	s.projector.SetPromptFilter(s.store.PromptFilter(s.cctx))
	s.pages.SetBlacklist(s.store.Blacklist(s.cctx))

	filter := s.store.LoadFilter(s.cctx, s.nodeKey)
	if err := s.pages.SetFilter(filter); err == nil {
		_ = s.responseSettings(s.settings, filter)
	}

	// the channel starts out holding "nothing selected"
	_ = s.projector.Project()
}

// requestContext deadline-bound context for one remote call
func (s *session) requestContext() (context.Context, context.CancelFunc) {
	timeout := s.config.Booru.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return context.WithTimeout(context.Background(), timeout)
}

// SetValue implement the serialization channel: keep the opaque value
func (s *session) SetValue(v string) {
	s.value = v
}

// NotifyChanged implement the serialization channel: push the value to
// the host front end
func (s *session) NotifyChanged() {
	_ = s.responseValue(s.value)
}
