package distribute

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/usman-manii/wallpaintingservices-sub000/content"
	"github.com/usman-manii/wallpaintingservices-sub000/resilience"
)

// WebhookChannel POSTs the post as JSON to a configured endpoint, e.g. a
// social cross-posting bridge. Delivery goes through the resilient caller so
// flaky endpoints get retried with backoff.
type WebhookChannel struct {
	name   string
	url    string
	client *http.Client
	caller *resilience.Caller
}

func NewWebhookChannel(name, url string, caller *resilience.Caller) *WebhookChannel {
	return &WebhookChannel{
		name:   name,
		url:    url,
		client: &http.Client{},
		caller: caller,
	}
}

func (c *WebhookChannel) Name() string { return c.name }

func (c *WebhookChannel) Publish(ctx context.Context, post content.Post) error {
	body, err := json.Marshal(map[string]any{
		"id":      post.ID.String(),
		"title":   post.Title,
		"slug":    post.Slug,
		"tags":    post.Tags,
		"channel": c.name,
	})
	if err != nil {
		return err
	}

	return c.caller.Do(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
		if err != nil {
			return resilience.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return resilience.StatusError{Code: resp.StatusCode, Msg: fmt.Sprintf("webhook %s: %s", c.url, string(b))}
		}
		return nil
	})
}
