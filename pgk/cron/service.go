package cron

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/saveblush/gallery-node/core/cctx"
	"github.com/saveblush/gallery-node/core/config"
	"github.com/saveblush/gallery-node/core/utils/logger"
	"github.com/saveblush/gallery-node/pgk/boorusource"
	"github.com/saveblush/gallery-node/pgk/favorites"
)

// Service service interface
type Service interface {
	Start()
	Stop()
	Online() bool
}

type service struct {
	cctx      *cctx.Context
	config    *config.Configs
	cron      *cron.Cron
	source    boorusource.Service
	favorites favorites.Service
	online    atomic.Bool
}

func NewService(source boorusource.Service) Service {
	s := &service{
		cctx:      cctx.New(),
		config:    config.CF,
		cron:      cron.New(),
		source:    source,
		favorites: favorites.NewService(source),
	}
	s.online.Store(true)

	return s
}

func (s *service) Start() {
	logger.Log.Info("Cron init...")
	s.probe()
	s.schedule()
	s.cron.Start()
}

func (s *service) Stop() {
	s.cron.Stop()
}

// Online last observed connectivity of the remote source
func (s *service) Online() bool {
	return s.online.Load()
}

func (s *service) schedule() {
	// probe connectivity every 5 minutes
	s.cron.AddFunc("*/5 * * * *", func() {
		s.probe()
	})

	// reconcile favorites every 30 minutes
	s.cron.AddFunc("*/30 * * * *", func() {
		if s.config.Booru.Login == "" {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), s.config.Booru.RequestTimeout)
		defer cancel()
		s.favorites.Sync(s.cctx, ctx)
	})
}

func (s *service) probe() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	online := s.source.Connectivity(ctx)
	if online != s.online.Load() {
		logger.Log.Infof("remote source connectivity changed: online=%v", online)
	}
	s.online.Store(online)
}
