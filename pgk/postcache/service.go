package postcache

import (
	"github.com/saveblush/gallery-node/models"
)

// Service holds the ordered list of loaded posts for one gallery session,
// plus the immutable original snapshots used as diff/reset baselines.
// Snapshots are keyed independently of the visible list so they survive
// Reset() for the lifetime of the session.
type Service interface {
	Append(posts []*models.Post)
	Reset()
	Posts() []*models.Post
	Len() int
	FindByID(id interface{}) *models.Post
	Replace(id interface{}, post *models.Post) bool
	Snapshot(id interface{}) *models.Post
	CaptureSnapshot(post *models.Post)
}

type service struct {
	posts     []*models.Post
	index     map[string]int
	snapshots map[string]*models.Post
}

func NewService() Service {
	return &service{
		index:     make(map[string]int),
		snapshots: make(map[string]*models.Post),
	}
}

// Append add newly fetched, already-filtered posts, preserving server order.
// First sight of an id captures its original snapshot.
func (s *service) Append(posts []*models.Post) {
	for _, post := range posts {
		if post == nil {
			continue
		}

		id := models.NormalizeID(post.ID)
		if id == "" {
			continue
		}
		post.ID = id

		s.CaptureSnapshot(post)

		if _, exists := s.index[id]; exists {
			continue
		}
		s.index[id] = len(s.posts)
		s.posts = append(s.posts, post)
	}
}

// Reset clear the visible list. Snapshots are kept.
func (s *service) Reset() {
	s.posts = nil
	s.index = make(map[string]int)
}

// Posts visible posts in server order
func (s *service) Posts() []*models.Post {
	return s.posts
}

func (s *service) Len() int {
	return len(s.posts)
}

// FindByID id-normalised O(1) lookup
func (s *service) FindByID(id interface{}) *models.Post {
	i, ok := s.index[models.NormalizeID(id)]
	if !ok {
		return nil
	}

	return s.posts[i]
}

// Replace swap the visible entry for id in place
func (s *service) Replace(id interface{}, post *models.Post) bool {
	i, ok := s.index[models.NormalizeID(id)]
	if !ok {
		return false
	}
	s.posts[i] = post

	return true
}

// Snapshot original snapshot for id, nil if never seen
func (s *service) Snapshot(id interface{}) *models.Post {
	return s.snapshots[models.NormalizeID(id)]
}

// CaptureSnapshot keep a deep copy of the post as first observed.
// A later fetch of the same id never overwrites the first snapshot.
func (s *service) CaptureSnapshot(post *models.Post) {
	id := models.NormalizeID(post.ID)
	if id == "" {
		return
	}

	if _, exists := s.snapshots[id]; exists {
		return
	}
	s.snapshots[id] = post.Clone()
}
