package pagination

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/saveblush/gallery-node/core/config"
	"github.com/saveblush/gallery-node/core/utils/logger"
	"github.com/saveblush/gallery-node/models"
	"github.com/saveblush/gallery-node/pgk/boorusource"
	"github.com/saveblush/gallery-node/pgk/postcache"
)

var (
	// ErrLoadInFlight a load is already outstanding; the caller drops the request
	ErrLoadInFlight = errors.New("busy: page load already in flight")
)

// RejectPost client-side filter funcs applied before posts reach the cache
type RejectPost []func(post *models.Post) (reject bool, reason string)

// LoadResult outcome of one successful page load
type LoadResult struct {
	Appended  []*models.Post
	Page      *models.PageInformation
	NoResults bool
}

// Service drives incremental page loads for one gallery session.
// At most one remote request is outstanding at any time; scroll
// continuations and explicit refreshes share the same guard.
type Service interface {
	SetQuery(query, rating string) (hint string)
	SetFilter(filter *models.SearchFilter) error
	SetBlacklist(tags []string)
	Filter() *models.SearchFilter
	Query() []string
	IsLoading() bool
	CurrentPage() int
	LoadNextPage(ctx context.Context) (*LoadResult, error)
	ResetAndReload(ctx context.Context) (*LoadResult, error)
}

type service struct {
	config *config.Configs
	cache  postcache.Service
	source boorusource.Service

	queryTags []string
	rating    string
	filter    *models.SearchFilter
	blacklist []string
	page      int
	started   bool
	loading   atomic.Bool
}

func NewService(cache postcache.Service, source boorusource.Service) Service {
	cf := config.CF

	return &service{
		config: cf,
		cache:  cache,
		source: source,
		rating: cf.Booru.DefaultRating,
		filter: &models.SearchFilter{},
		page:   1,
	}
}

// SetQuery set the free-text tag query. Only the first MaxQueryTags tags
// are honoured; excess tags are dropped from the query and reported as a
// hint, never as a failure.
func (s *service) SetQuery(query, rating string) string {
	fields := strings.FieldsFunc(query, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == ','
	})

	tags := []string{}
	for _, v := range fields {
		v = strings.TrimSpace(v)
		if v != "" {
			tags = append(tags, v)
		}
	}

	var hint string
	max := s.config.Booru.MaxQueryTags
	if len(tags) > max {
		hint = fmt.Sprintf("query limited to %d tags, dropped: %s", max, strings.Join(tags[max:], ", "))
		tags = tags[:max]
	}

	s.queryTags = tags
	if rating != "" {
		s.rating = rating
	}

	return hint
}

// SetFilter validate and replace the active date/page filter.
// Invalid input leaves the current filter untouched.
func (s *service) SetFilter(filter *models.SearchFilter) error {
	if filter == nil {
		filter = &models.SearchFilter{}
	}

	err := filter.Validate()
	if err != nil {
		return err
	}

	// time range and start page are mutually exclusive, last write wins
	if filter.IsStartPage() {
		filter.StartTime = nil
		filter.EndTime = nil
	}
	s.filter = filter

	return nil
}

// SetBlacklist replace the blacklist tokens used by the client-side filter
func (s *service) SetBlacklist(tags []string) {
	s.blacklist = tags
}

func (s *service) Filter() *models.SearchFilter {
	return s.filter
}

func (s *service) Query() []string {
	return s.queryTags
}

func (s *service) IsLoading() bool {
	return s.loading.Load()
}

func (s *service) CurrentPage() int {
	return s.page
}

// LoadNextPage issue one remote query and append the filtered result.
// Fails fast with ErrLoadInFlight while another load is outstanding; the
// page cursor advances only on success.
func (s *service) LoadNextPage(ctx context.Context) (*LoadResult, error) {
	if !s.loading.CompareAndSwap(false, true) {
		return nil, ErrLoadInFlight
	}
	defer s.loading.Store(false)

	req := &boorusource.SearchRequest{
		Tags:   s.queryTags,
		Rating: s.rating,
		Filter: s.filter,
		Page:   s.page,
		Limit:  s.config.Booru.PageSize,
	}

	fetch, err := s.source.Search(ctx, req)
	if err != nil {
		logger.Log.Errorf("load page %d error: %s", s.page, err)
		return nil, err
	}

	// empty first page is "no results", not an error
	if len(fetch) == 0 {
		if !s.started {
			return &LoadResult{NoResults: true, Page: s.pageInfo(0, false)}, nil
		}
		return &LoadResult{Page: s.pageInfo(0, false)}, nil
	}

	rejectPost := append(RejectPost{}, s.rejectFileType, s.rejectBlacklisted)

	accepted := []*models.Post{}
	for _, post := range fetch {
		rejected := false
		for _, rejectFunc := range rejectPost {
			if reject, reason := rejectFunc(post); reject {
				logger.Log.Debugf("post %s filtered: %s", post.ID, reason)
				rejected = true
				break
			}
		}
		if !rejected {
			accepted = append(accepted, post)
		}
	}

	s.cache.Append(accepted)
	s.page++
	s.started = true

	return &LoadResult{
		Appended: accepted,
		Page:     s.pageInfo(len(accepted), len(fetch) >= s.config.Booru.PageSize),
	}, nil
}

// ResetAndReload clear the cache, rewind to the filter's start page and
// load the first page of the new query.
func (s *service) ResetAndReload(ctx context.Context) (*LoadResult, error) {
	if s.loading.Load() {
		return nil, ErrLoadInFlight
	}

	s.cache.Reset()
	s.page = s.filter.FirstPage()
	s.started = false

	return s.LoadNextPage(ctx)
}

func (s *service) pageInfo(appended int, hasMore bool) *models.PageInformation {
	return &models.PageInformation{
		Page:    s.page,
		Size:    appended,
		Count:   s.cache.Len(),
		HasMore: hasMore,
	}
}

// rejectFileType reject non-allowed image file types
func (s *service) rejectFileType(post *models.Post) (bool, string) {
	ext := strings.ToLower(strings.TrimPrefix(post.FileExt, "."))
	for _, allowed := range s.config.Booru.AllowedFileExts {
		if ext == strings.ToLower(allowed) {
			return false, ""
		}
	}

	return true, fmt.Sprintf("file type %q not allowed", post.FileExt)
}

// rejectBlacklisted reject posts carrying any blacklisted tag in any
// category, case-insensitive exact token match
func (s *service) rejectBlacklisted(post *models.Post) (bool, string) {
	for _, tag := range s.blacklist {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}

		for _, category := range models.Categories {
			if models.ContainsTokenFold(post.CategoryTags(category), tag) {
				return true, fmt.Sprintf("blacklisted tag %q", tag)
			}
		}
		if models.ContainsTokenFold(post.TagString, tag) {
			return true, fmt.Sprintf("blacklisted tag %q", tag)
		}
	}

	return false, ""
}
