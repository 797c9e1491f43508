// Package llm generates draft blog content through an external AI API.
package llm

import "context"

type GenerateRequest struct {
	Topic    string
	AuthorID string
}

// GeneratedPost is the structured output the GENERATE_CONTENT handler
// persists and reports as the job result.
type GeneratedPost struct {
	Title          string   `json:"title" validate:"required"`
	Content        string   `json:"content" validate:"required"`
	Tags           []string `json:"tags" validate:"required,min=1"`
	SEOTitle       string   `json:"seoTitle" validate:"required"`
	SEODescription string   `json:"seoDescription" validate:"required"`
}

// Generator produces a complete draft post for a topic.
type Generator interface {
	GeneratePost(ctx context.Context, req GenerateRequest) (GeneratedPost, error)
}
