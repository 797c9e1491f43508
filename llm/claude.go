package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/go-playground/validator/v10"

	"github.com/usman-manii/wallpaintingservices-sub000/resilience"
)

type ClaudeConfig struct {
	APIKey    string
	Model     string
	MaxTokens int
}

func (c *ClaudeConfig) setDefaults() {
	if c.Model == "" {
		c.Model = "claude-sonnet-4-20250514"
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 4096
	}
}

// Claude generates posts with the Anthropic API. All network attempts go
// through the resilient caller, so rate limiting and outages surface as
// classified errors and trip the shared breaker.
type Claude struct {
	cfg      ClaudeConfig
	client   anthropic.Client
	caller   *resilience.Caller
	validate *validator.Validate
	logger   *slog.Logger
}

func NewClaude(cfg ClaudeConfig, caller *resilience.Caller, logger *slog.Logger) (*Claude, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic api key is required")
	}
	cfg.setDefaults()

	return &Claude{
		cfg:      cfg,
		client:   anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		caller:   caller,
		validate: validator.New(),
		logger:   logger,
	}, nil
}

const systemPrompt = `You are a content writer for a painting and home services company.
Respond with a single JSON object and nothing else, using exactly these keys:
"title", "content", "tags", "seoTitle", "seoDescription".
"content" is the full article in markdown, "tags" is an array of 3-6 short
lowercase strings, "seoTitle" is at most 60 characters and "seoDescription"
at most 155 characters.`

func (c *Claude) GeneratePost(ctx context.Context, req GenerateRequest) (GeneratedPost, error) {
	if strings.TrimSpace(req.Topic) == "" {
		return GeneratedPost{}, fmt.Errorf("topic must not be empty")
	}

	c.logger.Debug("generating post", slog.String("topic", req.Topic))

	var raw string
	err := c.caller.Do(ctx, func(ctx context.Context) error {
		var err error
		raw, err = c.complete(ctx, req.Topic)
		return err
	})
	if err != nil {
		return GeneratedPost{}, err
	}

	post, err := parseGeneratedPost(raw)
	if err != nil {
		return GeneratedPost{}, err
	}
	if err := c.validate.Struct(post); err != nil {
		return GeneratedPost{}, fmt.Errorf("generated post failed validation: %w", err)
	}

	c.logger.Info("post generated",
		slog.String("topic", req.Topic),
		slog.String("title", post.Title),
		slog.Int("content_length", len(post.Content)),
	)
	return post, nil
}

func (c *Claude) complete(ctx context.Context, topic string) (string, error) {
	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.cfg.Model),
		MaxTokens: int64(c.cfg.MaxTokens),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewTextBlock(fmt.Sprintf("Write a blog post about: %s", topic)),
			),
		},
	})
	if err != nil {
		return "", classifyAPIError(err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", resilience.Retryable(fmt.Errorf("empty completion"))
	}
	return sb.String(), nil
}

// classifyAPIError maps Anthropic API errors onto the resilience taxonomy so
// the retry loop treats 429/5xx as transient and other client errors as
// terminal.
func classifyAPIError(err error) error {
	var apierr *anthropic.Error
	if errors.As(err, &apierr) {
		return resilience.StatusError{Code: apierr.StatusCode, Msg: apierr.Error()}
	}
	return err
}

// parseGeneratedPost tolerates models that wrap the JSON in a markdown fence.
func parseGeneratedPost(raw string) (GeneratedPost, error) {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}

	var post GeneratedPost
	if err := json.Unmarshal([]byte(s), &post); err != nil {
		return GeneratedPost{}, fmt.Errorf("unmarshal generated post: %w", err)
	}
	return post, nil
}
