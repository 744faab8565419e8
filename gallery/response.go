package gallery

import (
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/saveblush/gallery-node/core/utils/logger"
	"github.com/saveblush/gallery-node/models"
	"github.com/saveblush/gallery-node/pgk/boorusource"
	"github.com/saveblush/gallery-node/pgk/enrich"
)

// postState one post plus its render marks
type postState struct {
	Post      *models.Post `json:"post"`
	Edited    bool         `json:"edited"`
	Selected  bool         `json:"selected"`
	Favorited bool         `json:"favorited"`
}

// websocket response
func (s *session) response(v interface{}) error {
	s.muRes.Lock()
	defer s.muRes.Unlock()

	return s.write(v)
}

// write marshal and send one envelope, the caller holds muRes
func (s *session) write(v interface{}) error {
	b, err := json.Marshal(&v)
	if err != nil {
		return err
	}

	err = s.conn.WriteMessage(websocket.TextMessage, b)
	if err != nil {
		logger.Log.Errorf("write msg error: %s", err)
		return err
	}

	return nil
}

func (s *session) responsePosts(posts []*postState, page *models.PageInformation) error {
	return s.response(&struct {
		Type  string                  `json:"type"`
		Posts []*postState            `json:"posts"`
		Page  *models.PageInformation `json:"page"`
	}{Type: "posts", Posts: posts, Page: page})
}

func (s *session) responseNoResults() error {
	return s.response(&struct {
		Type string `json:"type"`
	}{Type: "no_results"})
}

func (s *session) responseValue(value string) error {
	return s.response(&struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	}{Type: "value", Value: value})
}

func (s *session) responseState(id string, edited, selected, favorited bool) error {
	return s.response(&struct {
		Type      string `json:"type"`
		PostID    string `json:"post_id"`
		Edited    bool   `json:"edited"`
		Selected  bool   `json:"selected"`
		Favorited bool   `json:"favorited"`
	}{Type: "state", PostID: id, Edited: edited, Selected: selected, Favorited: favorited})
}

func (s *session) responseHint(msg string) error {
	return s.response(&struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}{Type: "hint", Message: msg})
}

func (s *session) responseNotice(msg string) error {
	return s.response(&struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}{Type: "notice", Message: msg})
}

func (s *session) responseError(msg string) error {
	return s.response(&struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}{Type: "error", Message: msg})
}

func (s *session) responseTooltip(res *enrich.Result) error {
	s.muRes.Lock()
	defer s.muRes.Unlock()

	// hover state may have moved while this result waited for the
	// writer; only the latest generation may paint
	if res.Generation != s.enrich.Current() {
		return nil
	}

	return s.write(&struct {
		Type string         `json:"type"`
		Data *enrich.Result `json:"data"`
	}{Type: "tooltip", Data: res})
}

func (s *session) responseSuggestions(suggestions []*boorusource.Suggestion) error {
	return s.response(&struct {
		Type        string                    `json:"type"`
		Suggestions []*boorusource.Suggestion `json:"suggestions"`
	}{Type: "suggestions", Suggestions: suggestions})
}

func (s *session) responseFavorited(id string, on bool) error {
	return s.response(&struct {
		Type      string `json:"type"`
		PostID    string `json:"post_id"`
		Favorited bool   `json:"favorited"`
	}{Type: "favorited", PostID: id, Favorited: on})
}

func (s *session) responseFilterOK(filter *models.SearchFilter) error {
	return s.response(&struct {
		Type   string               `json:"type"`
		Filter *models.SearchFilter `json:"filter"`
	}{Type: "filter_ok", Filter: filter})
}

func (s *session) responseFilterError(msg string) error {
	return s.response(&struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}{Type: "filter_error", Message: msg})
}

func (s *session) responseSettings(settings *models.UISettings, filter *models.SearchFilter) error {
	return s.response(&struct {
		Type     string               `json:"type"`
		Settings *models.UISettings   `json:"settings"`
		Filter   *models.SearchFilter `json:"filter"`
	}{Type: "settings", Settings: settings, Filter: filter})
}
