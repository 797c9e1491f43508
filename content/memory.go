package content

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

var _ Store = (*MemoryStore)(nil)

type MemoryStore struct {
	mu    sync.RWMutex
	posts map[uuid.UUID]Post
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{posts: map[uuid.UUID]Post{}}
}

func (s *MemoryStore) CreateDraft(_ context.Context, post *Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if post.Slug == "" {
		post.Slug = Slugify(post.Title)
	}
	post.ID = uuid.New()
	post.Status = PostStatusDraft
	now := time.Now()
	post.CreatedAt = now
	post.UpdatedAt = now

	s.posts[post.ID] = *post
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[id]
	if !ok {
		return Post{}, ErrPostNotFound
	}
	return p, nil
}

func (s *MemoryStore) MarkPublished(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	if !ok {
		return ErrPostNotFound
	}
	p.Status = PostStatusPublished
	p.UpdatedAt = time.Now()
	s.posts[id] = p
	return nil
}
