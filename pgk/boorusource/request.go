package boorusource

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/saveblush/gallery-node/models"
)

// SearchRequest one page query against the remote source
type SearchRequest struct {
	Tags   []string
	Rating string
	Filter *models.SearchFilter
	Page   int
	Limit  int
}

var ratingTags = map[string]string{
	"safe":         "rating:s",
	"questionable": "rating:q",
	"explicit":     "rating:e",
}

// queryTags assemble the tags parameter: user tags, rating, date range
func (req *SearchRequest) queryTags() string {
	tags := append([]string{}, req.Tags...)

	if v, ok := ratingTags[strings.ToLower(req.Rating)]; ok {
		tags = append(tags, v)
	}

	// date range is inclusive-exclusive as sent to the remote source
	if req.Filter.IsTimeRange() {
		if req.Filter.StartTime != nil {
			tags = append(tags, "date:>="+req.Filter.StartTime.Time().UTC().Format("2006-01-02"))
		}
		if req.Filter.EndTime != nil {
			tags = append(tags, "date:<"+req.Filter.EndTime.Time().UTC().Format("2006-01-02"))
		}
	}

	return strings.Join(tags, " ")
}

// values request query string values
func (req *SearchRequest) values(login, apiKey string) url.Values {
	v := url.Values{}
	v.Set("tags", req.queryTags())
	v.Set("page", strconv.Itoa(req.Page))
	v.Set("limit", strconv.Itoa(req.Limit))
	setAuth(v, login, apiKey)

	return v
}

func setAuth(v url.Values, login, apiKey string) {
	if login != "" && apiKey != "" {
		v.Set("login", login)
		v.Set("api_key", apiKey)
	}
}

func joinURL(base, path string) string {
	return fmt.Sprintf("%s%s", strings.TrimRight(base, "/"), path)
}
