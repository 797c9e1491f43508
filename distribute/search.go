package distribute

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	elasticsearch "github.com/elastic/go-elasticsearch/v8"

	"github.com/usman-manii/wallpaintingservices-sub000/content"
)

// SearchChannel indexes published posts into Elasticsearch so the public
// site's search can find them.
type SearchChannel struct {
	es    *elasticsearch.Client
	index string
}

type SearchConfig struct {
	Addresses []string
	Username  string
	Password  string
	Index     string
}

func NewSearchChannel(cfg SearchConfig) (*SearchChannel, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, err
	}

	index := cfg.Index
	if index == "" {
		index = "posts"
	}
	return &SearchChannel{es: es, index: index}, nil
}

// NewSearchChannelWithClient is used by tests to inject a client with a
// stubbed transport.
func NewSearchChannelWithClient(es *elasticsearch.Client, index string) *SearchChannel {
	return &SearchChannel{es: es, index: index}
}

func (c *SearchChannel) Name() string { return "search" }

type postDocument struct {
	Title          string    `json:"title"`
	Slug           string    `json:"slug"`
	Content        string    `json:"content"`
	Tags           []string  `json:"tags"`
	SEOTitle       string    `json:"seo_title"`
	SEODescription string    `json:"seo_description"`
	PublishedAt    time.Time `json:"published_at"`
}

func (c *SearchChannel) Publish(ctx context.Context, post content.Post) error {
	body, err := json.Marshal(postDocument{
		Title:          post.Title,
		Slug:           post.Slug,
		Content:        post.Content,
		Tags:           post.Tags,
		SEOTitle:       post.SEOTitle,
		SEODescription: post.SEODescription,
		PublishedAt:    post.UpdatedAt,
	})
	if err != nil {
		return err
	}

	res, err := c.es.Index(
		c.index,
		bytes.NewReader(body),
		c.es.Index.WithDocumentID(post.ID.String()),
		c.es.Index.WithContext(ctx),
		c.es.Index.WithRefresh("false"),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		b, _ := io.ReadAll(res.Body)
		return fmt.Errorf("es index error: %s %s", res.Status(), string(b))
	}
	return nil
}
