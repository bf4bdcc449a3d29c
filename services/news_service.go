package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/chimucheck/backend/models"
	"github.com/chimucheck/backend/repositories"
	"github.com/chimucheck/backend/storage"
	"github.com/google/uuid"
)

type NewsService interface {
	CreateNews(ctx context.Context, input CreateNewsInput) (*models.News, error)
	GetNewsByID(ctx context.Context, id int) (*models.News, error)
	ListNews(ctx context.Context, publishedOnly bool, limit, offset int) ([]models.News, error)
	UpdateNews(ctx context.Context, id int, input UpdateNewsInput) (*models.News, error)
	UploadNewsCover(ctx context.Context, id int, contentType string, file io.Reader) (*models.News, error)
	DeleteNews(ctx context.Context, id int) error
}

type CreateNewsInput struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	Published bool   `json:"published"`
}

type UpdateNewsInput struct {
	Title     *string `json:"title,omitempty"`
	Body      *string `json:"body,omitempty"`
	Published *bool   `json:"published,omitempty"`
}

type newsService struct {
	newsRepo repositories.NewsRepository
	uploader storage.FileUploader
	logger   *slog.Logger
}

func NewNewsService(newsRepo repositories.NewsRepository, uploader storage.FileUploader, logger *slog.Logger) NewsService {
	return &newsService{newsRepo: newsRepo, uploader: uploader, logger: logger}
}

func (s *newsService) CreateNews(ctx context.Context, input CreateNewsInput) (*models.News, error) {
	if input.Title == "" {
		return nil, fmt.Errorf("%w: news title is required", ErrValidationFailed)
	}
	news := &models.News{
		Title:     input.Title,
		Body:      input.Body,
		Published: input.Published,
	}
	if err := s.newsRepo.Create(ctx, news); err != nil {
		return nil, fmt.Errorf("failed to create news post: %w", err)
	}
	return news, nil
}

func (s *newsService) GetNewsByID(ctx context.Context, id int) (*models.News, error) {
	news, err := s.newsRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNewsNotFound) {
			return nil, ErrNewsNotFound
		}
		return nil, err
	}
	populateNewsCoverURL(news, s.uploader)
	return news, nil
}

func (s *newsService) ListNews(ctx context.Context, publishedOnly bool, limit, offset int) ([]models.News, error) {
	posts, err := s.newsRepo.List(ctx, publishedOnly, limit, offset)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		populateNewsCoverURL(&posts[i], s.uploader)
	}
	return posts, nil
}

func (s *newsService) UpdateNews(ctx context.Context, id int, input UpdateNewsInput) (*models.News, error) {
	news, err := s.newsRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNewsNotFound) {
			return nil, ErrNewsNotFound
		}
		return nil, err
	}

	if input.Title != nil {
		if *input.Title == "" {
			return nil, fmt.Errorf("%w: news title is required", ErrValidationFailed)
		}
		news.Title = *input.Title
	}
	if input.Body != nil {
		news.Body = *input.Body
	}
	if input.Published != nil {
		news.Published = *input.Published
	}

	if err := s.newsRepo.Update(ctx, news); err != nil {
		if errors.Is(err, repositories.ErrNewsNotFound) {
			return nil, ErrNewsNotFound
		}
		return nil, err
	}
	populateNewsCoverURL(news, s.uploader)
	return news, nil
}

func (s *newsService) UploadNewsCover(ctx context.Context, id int, contentType string, file io.Reader) (*models.News, error) {
	news, err := s.newsRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNewsNotFound) {
			return nil, ErrNewsNotFound
		}
		return nil, err
	}

	ext, err := GetExtensionFromContentType(contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	key := fmt.Sprintf("news/%d/%s%s", id, uuid.NewString(), ext)
	if _, err := s.uploader.Upload(ctx, key, contentType, file); err != nil {
		return nil, fmt.Errorf("failed to upload news cover: %w", err)
	}

	oldKey := news.CoverKey
	if err := s.newsRepo.UpdateCoverKey(ctx, id, &key); err != nil {
		return nil, err
	}
	if oldKey != nil && *oldKey != "" {
		if err := s.uploader.Delete(ctx, *oldKey); err != nil {
			s.logger.WarnContext(ctx, "failed to delete old news cover", slog.String("key", *oldKey), slog.Any("error", err))
		}
	}

	news.CoverKey = &key
	populateNewsCoverURL(news, s.uploader)
	return news, nil
}

func (s *newsService) DeleteNews(ctx context.Context, id int) error {
	if err := s.newsRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNewsNotFound) {
			return ErrNewsNotFound
		}
		return err
	}
	return nil
}
