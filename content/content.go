// Package content persists the draft posts produced by the generation
// handler. It is a collaborator of the job engine, not part of it: handlers
// talk to it through the Store interface.
package content

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrPostNotFound = errors.New("content: post not found")

type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusPublished PostStatus = "published"
)

type Post struct {
	ID      uuid.UUID
	Title   string
	Slug    string
	Content string
	Tags    []string

	SEOTitle       string
	SEODescription string

	AuthorID *string
	Status   PostStatus

	CreatedAt time.Time
	UpdatedAt time.Time
}

type Store interface {
	// CreateDraft inserts the post with status draft, assigning ID, Slug and
	// timestamps.
	CreateDraft(ctx context.Context, post *Post) error

	// Get returns the post, or ErrPostNotFound.
	Get(ctx context.Context, id uuid.UUID) (Post, error)

	// MarkPublished flips a post to published. Returns ErrPostNotFound for
	// unknown ids.
	MarkPublished(ctx context.Context, id uuid.UUID) error
}

// Slugify lowercases the title and collapses anything that is not a letter
// or digit into single hyphens.
func Slugify(title string) string {
	var sb strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			sb.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				sb.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(sb.String(), "-")
}
