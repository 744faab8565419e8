package favorites

import (
	"context"

	"github.com/saveblush/gallery-node/core/cctx"
	"github.com/saveblush/gallery-node/core/config"
	"github.com/saveblush/gallery-node/core/generic"
	"github.com/saveblush/gallery-node/core/sql"
	"github.com/saveblush/gallery-node/core/utils/logger"
	"github.com/saveblush/gallery-node/models"
	"github.com/saveblush/gallery-node/pgk/boorusource"
)

// Service authenticated favorites, remote first with a local cache so
// favorite marks render without a round trip per post.
type Service interface {
	Toggle(c *cctx.Context, ctx context.Context, id string, on bool) error
	IsFavorite(c *cctx.Context, id string) bool
	Sync(c *cctx.Context, ctx context.Context) error
}

type service struct {
	config     *config.Configs
	source     boorusource.Service
	repository Repository
}

func NewService(source boorusource.Service) Service {
	return &service{
		config:     config.CF,
		source:     source,
		repository: NewRepository(),
	}
}

// Toggle add or remove a favorite remotely, then mirror the local cache
func (s *service) Toggle(c *cctx.Context, ctx context.Context, id string, on bool) error {
	id = models.NormalizeID(id)

	var err error
	if on {
		err = s.source.AddFavorite(ctx, id)
	} else {
		err = s.source.RemoveFavorite(ctx, id)
	}
	if err != nil {
		logger.Log.Errorf("favorite %s error: %s", id, err)
		return err
	}

	if !sql.Connected {
		return nil
	}

	if on {
		err = s.repository.Insert(c.GetDatabase(), &models.FavoritePost{PostID: id})
	} else {
		err = s.repository.Delete(c.GetDatabase(), id)
	}
	if err != nil {
		logger.Log.Warnf("favorite cache %s error: %s", id, err)
	}

	return nil
}

// IsFavorite check the local cache
func (s *service) IsFavorite(c *cctx.Context, id string) bool {
	if !sql.Connected {
		return false
	}

	fetch, err := s.repository.Find(c.GetDatabase(), models.NormalizeID(id))
	if err != nil {
		return false
	}

	return !generic.IsEmpty(fetch.PostID)
}

// Sync reconcile the local cache against the remote favorites list
func (s *service) Sync(c *cctx.Context, ctx context.Context) error {
	if !sql.Connected {
		return nil
	}

	remote, err := s.source.ListFavorites(ctx)
	if err != nil {
		logger.Log.Warnf("list favorites error: %s", err)
		return err
	}

	remoteSet := make(map[string]bool, len(remote))
	for _, id := range remote {
		remoteSet[id] = true
	}

	local, err := s.repository.FindAll(c.GetDatabase())
	if err != nil {
		return err
	}

	for _, v := range local {
		if !remoteSet[v.PostID] {
			_ = s.repository.Delete(c.GetDatabase(), v.PostID)
		}
		delete(remoteSet, v.PostID)
	}

	for id := range remoteSet {
		_ = s.repository.Insert(c.GetDatabase(), &models.FavoritePost{PostID: id})
	}

	return nil
}
