package content

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schema string

var _ Store = (*PostgresStore)(nil)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) InitSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("applying posts schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateDraft(ctx context.Context, post *Post) error {
	if post.Slug == "" {
		post.Slug = Slugify(post.Title)
	}
	post.Status = PostStatusDraft

	err := s.pool.QueryRow(ctx, `
		INSERT INTO posts(title, slug, content, tags, seo_title, seo_description, author_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'draft')
		RETURNING id, created_at, updated_at
	`, post.Title, post.Slug, post.Content, post.Tags, post.SEOTitle, post.SEODescription, post.AuthorID).
		Scan(&post.ID, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return err
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (Post, error) {
	var p Post
	var updatedAt time.Time

	err := s.pool.QueryRow(ctx, `
		SELECT id, title, slug, content, tags, seo_title, seo_description, author_id, status, created_at, updated_at
		FROM posts
		WHERE id=$1
	`, id).Scan(
		&p.ID,
		&p.Title,
		&p.Slug,
		&p.Content,
		&p.Tags,
		&p.SEOTitle,
		&p.SEODescription,
		&p.AuthorID,
		&p.Status,
		&p.CreatedAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Post{}, ErrPostNotFound
		}
		return Post{}, err
	}

	p.UpdatedAt = updatedAt
	return p, nil
}

func (s *PostgresStore) MarkPublished(ctx context.Context, id uuid.UUID) error {
	ct, err := s.pool.Exec(ctx, `
		UPDATE posts
		SET status='published', updated_at=now()
		WHERE id=$1
	`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrPostNotFound
	}
	return nil
}
