package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/usman-manii/wallpaintingservices-sub000/content"
	"github.com/usman-manii/wallpaintingservices-sub000/llm"
)

type GenerateContentPayload struct {
	Topic    string `json:"topic"`
	AuthorID string `json:"authorId,omitempty"`
}

// GenerateContentResult is the job result callers poll for. ContentID points
// at the draft persisted in the content store.
type GenerateContentResult struct {
	ContentID      string   `json:"contentId"`
	Title          string   `json:"title"`
	Content        string   `json:"content"`
	Tags           []string `json:"tags"`
	SEOTitle       string   `json:"seoTitle"`
	SEODescription string   `json:"seoDescription"`
}

func (a *App) handleGenerateContent(ctx context.Context, payload json.RawMessage) (any, error) {
	var p GenerateContentPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	if strings.TrimSpace(p.Topic) == "" {
		return nil, fmt.Errorf("topic is required")
	}

	generated, err := a.generator.GeneratePost(ctx, llm.GenerateRequest{
		Topic:    p.Topic,
		AuthorID: p.AuthorID,
	})
	if err != nil {
		return nil, fmt.Errorf("content generation failed: %w", err)
	}

	post := content.Post{
		Title:          generated.Title,
		Content:        generated.Content,
		Tags:           generated.Tags,
		SEOTitle:       generated.SEOTitle,
		SEODescription: generated.SEODescription,
	}
	if p.AuthorID != "" {
		post.AuthorID = &p.AuthorID
	}

	if err := a.posts.CreateDraft(ctx, &post); err != nil {
		return nil, fmt.Errorf("persisting draft: %w", err)
	}

	a.logger.Info("draft created",
		slog.String("post_id", post.ID.String()),
		slog.String("topic", p.Topic),
	)

	return GenerateContentResult{
		ContentID:      post.ID.String(),
		Title:          generated.Title,
		Content:        generated.Content,
		Tags:           generated.Tags,
		SEOTitle:       generated.SEOTitle,
		SEODescription: generated.SEODescription,
	}, nil
}
