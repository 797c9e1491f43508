package content

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Roofing 101", "roofing-101"},
		{"  Spring Paint Colors!  ", "spring-paint-colors"},
		{"Why--Choose__Us?", "why-choose-us"},
		{"Déjà vu", "d-j-vu"},
		{"", ""},
		{"---", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.in), "input %q", tt.in)
	}
}

func TestMemoryStore_DraftLifecycle(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	post := Post{Title: "Exterior Painting Guide", Content: "body"}
	require.NoError(t, s.CreateDraft(ctx, &post))
	assert.NotEqual(t, uuid.Nil, post.ID)
	assert.Equal(t, PostStatusDraft, post.Status)
	assert.Equal(t, "exterior-painting-guide", post.Slug)
	assert.False(t, post.CreatedAt.IsZero())

	got, err := s.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.Title, got.Title)

	require.NoError(t, s.MarkPublished(ctx, post.ID))
	got, err = s.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, PostStatusPublished, got.Status)
}

func TestMemoryStore_NotFound(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrPostNotFound)
	assert.ErrorIs(t, s.MarkPublished(ctx, uuid.New()), ErrPostNotFound)
}

func TestMemoryStore_KeepsExplicitSlug(t *testing.T) {
	s := NewMemoryStore()

	post := Post{Title: "Some Title", Slug: "custom-slug", Content: "body"}
	require.NoError(t, s.CreateDraft(context.Background(), &post))
	assert.Equal(t, "custom-slug", post.Slug)
}
