package gallery

import (
	"errors"

	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"

	"github.com/saveblush/gallery-node/core/utils"
	"github.com/saveblush/gallery-node/core/utils/logger"
	"github.com/saveblush/gallery-node/models"
	"github.com/saveblush/gallery-node/pgk/pagination"
)

var (
	errInvalidMessage = errors.New("error: invalid message")
	errUnknownCommand = errors.New("error: unknown command")
	errPostNotFound   = errors.New("error: post not found")
)

type searchRequest struct {
	Tags   string `json:"tags"`
	Rating string `json:"rating"`
}

type filterRequest struct {
	StartTime *int64 `json:"start_time"`
	EndTime   *int64 `json:"end_time"`
	StartPage *int   `json:"start_page"`
}

type selectRequest struct {
	PostID   interface{} `json:"post_id"`
	Selected bool        `json:"selected"`
}

type editRequest struct {
	PostID   interface{} `json:"post_id"`
	Category string      `json:"category"`
	Tokens   []string    `json:"tokens"`
}

type postRequest struct {
	PostID interface{} `json:"post_id"`
}

type favoriteRequest struct {
	PostID interface{} `json:"post_id"`
	On     bool        `json:"on"`
}

type settingsRequest struct {
	Settings     *models.UISettings `json:"settings"`
	Blacklist    []string           `json:"blacklist"`
	PromptFilter []string           `json:"prompt_filter"`
}

type autocompleteRequest struct {
	Query string `json:"query"`
}

// handleCommand dispatch one command envelope
func (s *session) handleCommand(msg []byte) error {
	parsed := gjson.ParseBytes(msg)
	if !parsed.IsObject() {
		_ = s.responseError(errInvalidMessage.Error())
		return errInvalidMessage
	}

	cmd := parsed.Get("cmd").String()
	switch cmd {
	case "search":
		return s.onSearch(msg)
	case "page":
		return s.onPage()
	case "filter":
		return s.onFilter(msg)
	case "select":
		return s.onSelect(msg)
	case "edit":
		return s.onEdit(msg)
	case "edit_done":
		return s.onEditDone(msg)
	case "reset_post":
		return s.onResetPost(msg)
	case "hover":
		return s.onHover(msg)
	case "unhover":
		return s.onUnhover()
	case "favorite":
		return s.onFavorite(msg)
	case "settings":
		return s.onSettings(msg)
	case "autocomplete":
		return s.onAutocomplete(msg)
	}

	_ = s.responseError(errUnknownCommand.Error())
	return errUnknownCommand
}

// onSearch new query: drop the old page state, reload from page one
func (s *session) onSearch(msg []byte) error {
	req := &searchRequest{}
	err := json.Unmarshal(msg, req)
	if err != nil {
		_ = s.responseError(errInvalidMessage.Error())
		return err
	}

	hint := s.pages.SetQuery(req.Tags, req.Rating)
	if hint != "" {
		_ = s.responseHint(hint)
	}

	return s.reload()
}

// reload clear cache, overlay and selection, then load the first page
func (s *session) reload() error {
	if !s.cron.Online() {
		_ = s.responseNotice("remote source appears offline, results may be stale")
	}

	s.edits.Reset()
	s.projector.ClearSelection()
	_ = s.projector.Project()

	ctx, cancel := s.requestContext()
	defer cancel()

	res, err := s.pages.ResetAndReload(ctx)
	if errors.Is(err, pagination.ErrLoadInFlight) {
		return nil
	}
	if err != nil {
		_ = s.responseError("search failed, try again")
		return err
	}

	if res.NoResults {
		return s.responseNoResults()
	}

	return s.respondLoaded(res)
}

// onPage scroll continuation; silently dropped while a load is in flight
func (s *session) onPage() error {
	ctx, cancel := s.requestContext()
	defer cancel()

	res, err := s.pages.LoadNextPage(ctx)
	if errors.Is(err, pagination.ErrLoadInFlight) {
		return nil
	}
	if err != nil {
		_ = s.responseError("page load failed, scroll to retry")
		return err
	}

	if res.NoResults {
		return s.responseNoResults()
	}

	return s.respondLoaded(res)
}

func (s *session) respondLoaded(res *pagination.LoadResult) error {
	states := make([]*postState, 0, len(res.Appended))
	for _, post := range res.Appended {
		states = append(states, &postState{
			Post:      post,
			Edited:    s.edits.ComputeEditedStatus(post.ID),
			Selected:  s.projector.IsSelected(post.ID),
			Favorited: post.IsFavorited || s.favorites.IsFavorite(s.cctx, post.ID),
		})
	}

	return s.responsePosts(states, res.Page)
}

// onFilter validated filter replacement; invalid input leaves state alone
func (s *session) onFilter(msg []byte) error {
	req := &filterRequest{}
	err := json.Unmarshal(msg, req)
	if err != nil {
		_ = s.responseError(errInvalidMessage.Error())
		return err
	}

	filter := &models.SearchFilter{StartPage: req.StartPage}
	if req.StartTime != nil {
		filter.StartTime = utils.Pointer(models.Timestamp(*req.StartTime))
	}
	if req.EndTime != nil {
		filter.EndTime = utils.Pointer(models.Timestamp(*req.EndTime))
	}

	err = s.pages.SetFilter(filter)
	if err != nil {
		return s.responseFilterError(err.Error())
	}

	_ = s.store.SaveFilter(s.cctx, s.nodeKey, filter)
	_ = s.responseFilterOK(filter)

	return s.reload()
}

// onSelect selection toggle, projected synchronously
func (s *session) onSelect(msg []byte) error {
	req := &selectRequest{}
	err := json.Unmarshal(msg, req)
	if err != nil {
		_ = s.responseError(errInvalidMessage.Error())
		return err
	}

	id := models.NormalizeID(req.PostID)
	if s.cache.FindByID(id) == nil {
		_ = s.responseError(errPostNotFound.Error())
		return errPostNotFound
	}

	previous := append([]string{}, s.projector.Selected()...)
	s.projector.Toggle(id, req.Selected)
	_ = s.projector.Project()

	// posts that lost selection in single-select mode need their mark back
	for _, v := range previous {
		if !s.projector.IsSelected(v) {
			_ = s.responseState(v, s.edits.ComputeEditedStatus(v), false, s.favorites.IsFavorite(s.cctx, v))
		}
	}

	return s.responseState(id, s.edits.ComputeEditedStatus(id), s.projector.IsSelected(id), s.favorites.IsFavorite(s.cctx, id))
}

// onEdit one tag-category replacement on the working copy.
// The diff engine and, for selected posts, the projector re-run before
// control returns to the read loop.
func (s *session) onEdit(msg []byte) error {
	req := &editRequest{}
	err := json.Unmarshal(msg, req)
	if err != nil {
		_ = s.responseError(errInvalidMessage.Error())
		return err
	}

	id := models.NormalizeID(req.PostID)
	ok := s.edits.MutateTagCategory(id, models.TagCategory(req.Category), req.Tokens)
	if !ok {
		_ = s.responseError(errPostNotFound.Error())
		return errPostNotFound
	}

	if s.projector.IsSelected(id) {
		_ = s.projector.Project()
	}

	return s.responseState(id, s.edits.ComputeEditedStatus(id), s.projector.IsSelected(id), s.favorites.IsFavorite(s.cctx, id))
}

// onEditDone end of an edit session: commit or discard the working copy
func (s *session) onEditDone(msg []byte) error {
	req := &postRequest{}
	err := json.Unmarshal(msg, req)
	if err != nil {
		_ = s.responseError(errInvalidMessage.Error())
		return err
	}

	id := models.NormalizeID(req.PostID)
	s.edits.CommitOrDiscard(id)

	if s.projector.IsSelected(id) {
		_ = s.projector.Project()
	}

	return s.responseState(id, s.edits.ComputeEditedStatus(id), s.projector.IsSelected(id), s.favorites.IsFavorite(s.cctx, id))
}

// onResetPost restore a post from its original snapshot
func (s *session) onResetPost(msg []byte) error {
	req := &postRequest{}
	err := json.Unmarshal(msg, req)
	if err != nil {
		_ = s.responseError(errInvalidMessage.Error())
		return err
	}

	ctx, cancel := s.requestContext()
	defer cancel()

	id := models.NormalizeID(req.PostID)
	_, err = s.edits.ResetToOriginal(ctx, id)
	if err != nil {
		_ = s.responseError(err.Error())
		return err
	}

	if s.projector.IsSelected(id) {
		_ = s.projector.Project()
	}

	return s.responseState(id, false, s.projector.IsSelected(id), s.favorites.IsFavorite(s.cctx, id))
}

// onHover advance the enrichment generation and fetch translations.
// The fetch runs off the loop; its result renders only while its
// generation is still the latest.
func (s *session) onHover(msg []byte) error {
	req := &postRequest{}
	err := json.Unmarshal(msg, req)
	if err != nil {
		_ = s.responseError(errInvalidMessage.Error())
		return err
	}

	generation := s.enrich.Advance()

	id := models.NormalizeID(req.PostID)
	post := s.edits.WorkingCopy(id)
	if post == nil {
		post = s.cache.FindByID(id)
	}
	if post == nil || !s.settings.TooltipEnabled {
		return nil
	}

	snapshot := post.Clone()
	settings := s.settings

	go func() {
		ctx, cancel := s.requestContext()
		defer cancel()

		res, ok := s.enrich.Resolve(ctx, generation, snapshot, settings)
		if !ok {
			return
		}
		_ = s.responseTooltip(res)
	}()

	return nil
}

// onUnhover leaving hover invalidates anything still in flight
func (s *session) onUnhover() error {
	s.enrich.Advance()
	return nil
}

// onFavorite authenticated favorite toggle
func (s *session) onFavorite(msg []byte) error {
	req := &favoriteRequest{}
	err := json.Unmarshal(msg, req)
	if err != nil {
		_ = s.responseError(errInvalidMessage.Error())
		return err
	}

	ctx, cancel := s.requestContext()
	defer cancel()

	id := models.NormalizeID(req.PostID)
	err = s.favorites.Toggle(s.cctx, ctx, id, req.On)
	if err != nil {
		_ = s.responseError("favorite update failed")
		return err
	}

	return s.responseFavorited(id, req.On)
}

// onSettings replace UI settings and token lists, re-project if needed
func (s *session) onSettings(msg []byte) error {
	req := &settingsRequest{}
	err := json.Unmarshal(msg, req)
	if err != nil {
		_ = s.responseError(errInvalidMessage.Error())
		return err
	}

	if req.Settings != nil {
		s.settings = req.Settings
		s.projector.SetSettings(s.settings)
		_ = s.store.SaveSettings(s.cctx, s.nodeKey, s.settings)
	}

	if req.Blacklist != nil {
		s.replaceBlacklist(req.Blacklist)
		s.pages.SetBlacklist(req.Blacklist)
	}

	if req.PromptFilter != nil {
		s.replacePromptFilter(req.PromptFilter)
		s.projector.SetPromptFilter(req.PromptFilter)
	}

	if len(s.projector.Selected()) > 0 {
		_ = s.projector.Project()
	}

	return s.responseSettings(s.settings, s.pages.Filter())
}

// onAutocomplete tag suggestions capped by the settings limit
func (s *session) onAutocomplete(msg []byte) error {
	req := &autocompleteRequest{}
	err := json.Unmarshal(msg, req)
	if err != nil {
		_ = s.responseError(errInvalidMessage.Error())
		return err
	}

	ctx, cancel := s.requestContext()
	defer cancel()

	suggestions, err := s.source.Autocomplete(ctx, req.Query, s.settings.AutocompleteLimit)
	if err != nil {
		logger.Log.Warnf("autocomplete error: %s", err)
		return s.responseSuggestions(nil)
	}

	return s.responseSuggestions(suggestions)
}

func (s *session) replaceBlacklist(tags []string) {
	current := s.store.Blacklist(s.cctx)
	next := make(map[string]bool, len(tags))
	for _, v := range tags {
		next[v] = true
	}

	for _, v := range current {
		if !next[v] {
			_ = s.store.RemoveBlacklistTag(s.cctx, v)
		}
		delete(next, v)
	}
	for v := range next {
		_ = s.store.AddBlacklistTag(s.cctx, v)
	}
}

func (s *session) replacePromptFilter(tags []string) {
	current := s.store.PromptFilter(s.cctx)
	next := make(map[string]bool, len(tags))
	for _, v := range tags {
		next[v] = true
	}

	for _, v := range current {
		if !next[v] {
			_ = s.store.RemovePromptFilterTag(s.cctx, v)
		}
		delete(next, v)
	}
	for v := range next {
		_ = s.store.AddPromptFilterTag(s.cctx, v)
	}
}
