package boorusource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/saveblush/gallery-node/core/config"
	"github.com/saveblush/gallery-node/core/utils"
	"github.com/saveblush/gallery-node/core/utils/limiter"
	"github.com/saveblush/gallery-node/core/utils/logger"
	"github.com/saveblush/gallery-node/models"
)

var (
	ErrInvalidResponse = errors.New("error: remote source returned an unexpected shape")
	ErrRemoteStatus    = errors.New("error: remote source request failed")

	// ErrNotFound wraps ErrRemoteStatus so callers that only care that
	// the remote call failed still match
	ErrNotFound = fmt.Errorf("%w: not found", ErrRemoteStatus)
)

// Suggestion one autocomplete entry
type Suggestion struct {
	Label     string `json:"label"`
	Value     string `json:"value"`
	Category  string `json:"category"`
	PostCount int64  `json:"post_count"`
}

// Service service interface
type Service interface {
	Search(ctx context.Context, req *SearchRequest) ([]*models.Post, error)
	FindByID(ctx context.Context, id string) (*models.Post, error)
	Connectivity(ctx context.Context) bool
	TranslateTags(ctx context.Context, names []string, lang string) (map[string]string, error)
	Autocomplete(ctx context.Context, query string, limit int) ([]*Suggestion, error)
	AddFavorite(ctx context.Context, id string) error
	RemoveFavorite(ctx context.Context, id string) error
	ListFavorites(ctx context.Context) ([]string, error)
}

type service struct {
	config  *config.Configs
	client  *http.Client
	limiter *limiter.HostRateLimiter
}

func NewService() Service {
	cf := config.CF

	return &service{
		config: cf,
		client: &http.Client{
			Timeout: cf.Booru.RequestTimeout,
		},
		limiter: limiter.NewHostRateLimiter(rate.Limit(cf.Booru.RatePerSecond), cf.Booru.RateBurst),
	}
}

// get rate-limited GET returning the raw body
func (s *service) get(ctx context.Context, path string, values url.Values) ([]byte, error) {
	base := s.config.Booru.BaseURL
	u, err := url.Parse(base)
	if err != nil {
		return nil, err
	}

	err = s.limiter.Wait(ctx, u.Host)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, joinURL(base, path), nil)
	if err != nil {
		return nil, err
	}
	req.URL.RawQuery = values.Encode()
	req.Header.Set("User-Agent", s.config.App.Name+"/"+s.config.App.Version)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, ErrRemoteStatus
	}

	return io.ReadAll(resp.Body)
}

// Search fetch one page of posts
func (s *service) Search(ctx context.Context, req *SearchRequest) ([]*models.Post, error) {
	body, err := s.get(ctx, "/posts.json", req.values(s.config.Booru.Login, s.config.Booru.APIKey))
	if err != nil {
		return nil, err
	}

	parsed := gjson.ParseBytes(body)
	if !parsed.IsArray() {
		return nil, ErrInvalidResponse
	}

	posts := []*models.Post{}
	for _, v := range parsed.Array() {
		post := parsePost(v)
		if post != nil {
			posts = append(posts, post)
		}
	}

	return posts, nil
}

// FindByID fetch a single post, nil when the remote source no longer has it
func (s *service) FindByID(ctx context.Context, id string) (*models.Post, error) {
	values := url.Values{}
	setAuth(values, s.config.Booru.Login, s.config.Booru.APIKey)

	body, err := s.get(ctx, "/posts/"+id+".json", values)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	parsed := gjson.ParseBytes(body)
	if !parsed.IsObject() {
		return nil, ErrInvalidResponse
	}

	return parsePost(parsed), nil
}

// Connectivity probe the remote source
func (s *service) Connectivity(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, s.config.Booru.BaseURL, nil)
	if err != nil {
		return false
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode < http.StatusInternalServerError
}

// TranslateTags resolve other-language names for tags.
// A name that cannot be resolved keeps its source form.
func (s *service) TranslateTags(ctx context.Context, names []string, lang string) (map[string]string, error) {
	result := make(map[string]string, len(names))
	for _, name := range names {
		result[name] = name
	}

	for _, name := range names {
		values := url.Values{}
		values.Set("search[title_normalize]", name)
		values.Set("limit", "1")
		setAuth(values, s.config.Booru.Login, s.config.Booru.APIKey)

		body, err := s.get(ctx, "/wiki_pages.json", values)
		if err != nil {
			// degrade to the untranslated source tag
			logger.Log.Warnf("translate tag %q error: %s", name, err)
			return result, err
		}

		parsed := gjson.ParseBytes(body)
		if !parsed.IsArray() {
			continue
		}

		other := parsed.Get("0.other_names.0")
		if other.Exists() && other.String() != "" {
			result[name] = other.String()
		}
	}

	return result, nil
}

// Autocomplete tag suggestions for a partial query
func (s *service) Autocomplete(ctx context.Context, query string, limit int) ([]*Suggestion, error) {
	values := url.Values{}
	values.Set("search[query]", query)
	values.Set("search[type]", "tag_query")
	values.Set("limit", strconv.Itoa(limit))
	setAuth(values, s.config.Booru.Login, s.config.Booru.APIKey)

	body, err := s.get(ctx, "/autocomplete.json", values)
	if err != nil {
		return nil, err
	}

	parsed := gjson.ParseBytes(body)
	if !parsed.IsArray() {
		return nil, ErrInvalidResponse
	}

	suggestions := []*Suggestion{}
	for _, v := range parsed.Array() {
		suggestions = append(suggestions, &Suggestion{
			Label:     v.Get("label").String(),
			Value:     v.Get("value").String(),
			Category:  v.Get("category").String(),
			PostCount: v.Get("post_count").Int(),
		})
		if limit > 0 && len(suggestions) >= limit {
			break
		}
	}

	return suggestions, nil
}

// AddFavorite mark a post favorited, authenticated
func (s *service) AddFavorite(ctx context.Context, id string) error {
	values := url.Values{}
	values.Set("post_id", id)
	setAuth(values, s.config.Booru.Login, s.config.Booru.APIKey)

	return s.send(ctx, http.MethodPost, "/favorites.json", values)
}

// RemoveFavorite unmark a favorited post, authenticated
func (s *service) RemoveFavorite(ctx context.Context, id string) error {
	values := url.Values{}
	setAuth(values, s.config.Booru.Login, s.config.Booru.APIKey)

	return s.send(ctx, http.MethodDelete, "/favorites/"+id+".json", values)
}

// ListFavorites favorited post ids of the configured account
func (s *service) ListFavorites(ctx context.Context) ([]string, error) {
	values := url.Values{}
	values.Set("search[user_name]", s.config.Booru.Login)
	setAuth(values, s.config.Booru.Login, s.config.Booru.APIKey)

	body, err := s.get(ctx, "/favorites.json", values)
	if err != nil {
		return nil, err
	}

	parsed := gjson.ParseBytes(body)
	if !parsed.IsArray() {
		return nil, ErrInvalidResponse
	}

	ids := []string{}
	for _, v := range parsed.Array() {
		ids = append(ids, models.NormalizeID(v.Get("post_id").Value()))
	}

	return ids, nil
}

func (s *service) send(ctx context.Context, method, path string, values url.Values) error {
	base := s.config.Booru.BaseURL
	u, err := url.Parse(base)
	if err != nil {
		return err
	}

	err = s.limiter.Wait(ctx, u.Host)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, joinURL(base, path), nil)
	if err != nil {
		return err
	}
	req.URL.RawQuery = values.Encode()

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return ErrRemoteStatus
	}

	return nil
}

// parsePost tolerant parse of one post object
func parsePost(v gjson.Result) *models.Post {
	id := models.NormalizeID(v.Get("id").Value())
	if id == "" {
		return nil
	}

	post := &models.Post{
		ID:           id,
		Width:        int(v.Get("image_width").Int()),
		Height:       int(v.Get("image_height").Int()),
		FileExt:      v.Get("file_ext").String(),
		Rating:       v.Get("rating").String(),
		Score:        int(v.Get("score").Int()),
		PreviewURL:   v.Get("preview_file_url").String(),
		SampleURL:    v.Get("large_file_url").String(),
		FileURL:      v.Get("file_url").String(),
		TagString:    v.Get("tag_string").String(),
		TagArtist:    v.Get("tag_string_artist").String(),
		TagCopyright: v.Get("tag_string_copyright").String(),
		TagCharacter: v.Get("tag_string_character").String(),
		TagGeneral:   v.Get("tag_string_general").String(),
		TagMeta:      v.Get("tag_string_meta").String(),
		IsFavorited:  v.Get("is_favorited").Bool(),
	}

	if created := v.Get("created_at"); created.Exists() {
		t := created.Time()
		if !t.IsZero() {
			post.CreatedAt = utils.Pointer(models.Timestamp(t.Unix()))
		}
	}

	return post
}
