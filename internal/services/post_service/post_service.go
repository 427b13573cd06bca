package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"zozotech/internal/domain/models"
	"zozotech/internal/lib/logger/sl"
	"zozotech/internal/repository"
	"zozotech/internal/storage"
	"zozotech/internal/transport/http/dto"

	"github.com/google/uuid"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

const maxIconLength = 8

type PostService struct {
	log  *slog.Logger
	repo repository.PostRepository
}

func NewPostService(log *slog.Logger, repo repository.PostRepository) *PostService {
	return &PostService{
		log:  log,
		repo: repo,
	}
}

func buildPost(req dto.PostRequest) (models.Post, error) {
	var verrs models.ValidationErrors

	slug := strings.TrimSpace(req.Slug)
	switch {
	case len(slug) < 3:
		verrs.Add("slug", "must be at least 3 characters")
	case !slugPattern.MatchString(slug):
		verrs.Add("slug", "may only contain lowercase letters, digits and dashes")
	}

	title := strings.TrimSpace(req.Title)
	if utf8.RuneCountInString(title) < 3 {
		verrs.Add("title", "must be at least 3 characters")
	}

	date := strings.TrimSpace(req.Date)
	if _, err := time.Parse(time.DateOnly, date); err != nil {
		verrs.Add("date", "must be YYYY-MM-DD")
	}

	icon := trimmed(req.Icon)
	if icon != nil && utf8.RuneCountInString(*icon) > maxIconLength {
		verrs.Add("icon", fmt.Sprintf("must be at most %d characters", maxIconLength))
	}

	if err := verrs.Err(); err != nil {
		return models.Post{}, err
	}

	published := true
	if req.Published != nil {
		published = *req.Published
	}

	return models.Post{
		Slug:      slug,
		Title:     title,
		Date:      date,
		Excerpt:   trimmed(req.Excerpt),
		Content:   trimmed(req.Content),
		Icon:      icon,
		Published: published,
	}, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}

	return &v
}

func (s *PostService) CreatePost(ctx context.Context, req dto.PostRequest) (models.Post, error) {
	const op = "service.PostService.CreatePost"

	log := s.log.With(
		slog.String("op", op),
		slog.String("slug", req.Slug),
	)

	p, err := buildPost(req)
	if err != nil {
		log.Warn("invalid post", sl.Err(err))
		return models.Post{}, fmt.Errorf("%s: %w", op, err)
	}

	taken, err := s.repo.SlugTaken(ctx, p.Slug, uuid.Nil)
	if err != nil {
		log.Error("failed to check slug", sl.Err(err))
		return models.Post{}, fmt.Errorf("%s: %w", op, err)
	}
	if taken {
		return models.Post{}, fmt.Errorf("%s: %w", op, storage.ErrSlugTaken)
	}

	created, err := s.repo.SavePost(ctx, p)
	if err != nil {
		log.Error("failed to save post", sl.Err(err))
		return models.Post{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("post created", slog.String("id", created.ID.String()))

	return created, nil
}

func (s *PostService) UpdatePost(ctx context.Context, id uuid.UUID, req dto.PostRequest) (models.Post, error) {
	const op = "service.PostService.UpdatePost"

	log := s.log.With(
		slog.String("op", op),
		slog.String("id", id.String()),
	)

	p, err := buildPost(req)
	if err != nil {
		log.Warn("invalid post", sl.Err(err))
		return models.Post{}, fmt.Errorf("%s: %w", op, err)
	}
	p.ID = id

	taken, err := s.repo.SlugTaken(ctx, p.Slug, id)
	if err != nil {
		log.Error("failed to check slug", sl.Err(err))
		return models.Post{}, fmt.Errorf("%s: %w", op, err)
	}
	if taken {
		return models.Post{}, fmt.Errorf("%s: %w", op, storage.ErrSlugTaken)
	}

	updated, err := s.repo.UpdatePost(ctx, p)
	if err != nil {
		if !errors.Is(err, storage.ErrPostNotFound) {
			log.Error("failed to update post", sl.Err(err))
		}
		return models.Post{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("post updated")

	return updated, nil
}

func (s *PostService) DeletePost(ctx context.Context, id uuid.UUID) error {
	const op = "service.PostService.DeletePost"

	if err := s.repo.DeletePost(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("post deleted", slog.String("op", op), slog.String("id", id.String()))

	return nil
}

func (s *PostService) GetPost(ctx context.Context, id uuid.UUID) (models.Post, error) {
	const op = "service.PostService.GetPost"

	p, err := s.repo.GetPostByID(ctx, id)
	if err != nil {
		return models.Post{}, fmt.Errorf("%s: %w", op, err)
	}

	return p, nil
}

// GetPublishedPost hides drafts behind not-found.
func (s *PostService) GetPublishedPost(ctx context.Context, slug string) (models.Post, error) {
	const op = "service.PostService.GetPublishedPost"

	p, err := s.repo.GetPostBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		return models.Post{}, fmt.Errorf("%s: %w", op, err)
	}
	if !p.Published {
		return models.Post{}, fmt.Errorf("%s: %w", op, storage.ErrPostNotFound)
	}

	return p, nil
}

func (s *PostService) ListPublished(ctx context.Context, limit int) ([]models.Post, error) {
	const op = "service.PostService.ListPublished"

	posts, err := s.repo.ListPosts(ctx, true, limit)
	if err != nil {
		s.log.Error("failed to list posts", slog.String("op", op), sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return posts, nil
}

func (s *PostService) ListAll(ctx context.Context) ([]models.Post, error) {
	const op = "service.PostService.ListAll"

	posts, err := s.repo.ListPosts(ctx, false, 0)
	if err != nil {
		s.log.Error("failed to list posts", slog.String("op", op), sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return posts, nil
}
