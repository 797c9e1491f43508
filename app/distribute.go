package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

type DistributeContentPayload struct {
	ContentID string   `json:"contentId"`
	Channels  []string `json:"channels,omitempty"`
}

type DistributeContentResult struct {
	Success  bool     `json:"success"`
	Channels []string `json:"channels"`
}

func (a *App) handleDistributeContent(ctx context.Context, payload json.RawMessage) (any, error) {
	var p DistributeContentPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	id, err := uuid.Parse(p.ContentID)
	if err != nil {
		return nil, fmt.Errorf("invalid contentId %q: %w", p.ContentID, err)
	}

	post, err := a.posts.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading content %s: %w", p.ContentID, err)
	}

	if err := a.posts.MarkPublished(ctx, id); err != nil {
		// The post exists; losing the status flip is not worth failing the
		// distribution over.
		a.logger.Warn("could not mark post published",
			slog.String("post_id", p.ContentID),
			slog.String("error", err.Error()),
		)
	}

	// Per-channel failures are logged inside the distributor and do not fail
	// the job.
	attempted := a.distributor.Distribute(ctx, post, p.Channels)

	return DistributeContentResult{
		Success:  true,
		Channels: attempted,
	}, nil
}
