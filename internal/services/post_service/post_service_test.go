package services

import (
	"context"
	"log/slog"
	"testing"

	"zozotech/internal/domain/models"
	"zozotech/internal/storage"
	"zozotech/internal/transport/http/dto"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPostRepository struct {
	mock.Mock
}

func (m *MockPostRepository) SavePost(ctx context.Context, p models.Post) (models.Post, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(models.Post), args.Error(1)
}

func (m *MockPostRepository) UpdatePost(ctx context.Context, p models.Post) (models.Post, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(models.Post), args.Error(1)
}

func (m *MockPostRepository) DeletePost(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPostRepository) GetPostByID(ctx context.Context, id uuid.UUID) (models.Post, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.Post), args.Error(1)
}

func (m *MockPostRepository) GetPostBySlug(ctx context.Context, slug string) (models.Post, error) {
	args := m.Called(ctx, slug)
	return args.Get(0).(models.Post), args.Error(1)
}

func (m *MockPostRepository) ListPosts(ctx context.Context, publishedOnly bool, limit int) ([]models.Post, error) {
	args := m.Called(ctx, publishedOnly, limit)
	return args.Get(0).([]models.Post), args.Error(1)
}

func (m *MockPostRepository) SlugTaken(ctx context.Context, slug string, exclude uuid.UUID) (bool, error) {
	args := m.Called(ctx, slug, exclude)
	return args.Bool(0), args.Error(1)
}

func strPtr(s string) *string { return &s }

func TestPostService_CreatePost(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		req        dto.PostRequest
		mockSetup  func(repo *MockPostRepository)
		wantFields []string
		wantErr    error
	}{
		{
			name: "published by default",
			req:  dto.PostRequest{Slug: "kasir-offline", Title: "Kasir offline", Date: "2024-01-10", Icon: strPtr("🧾")},
			mockSetup: func(repo *MockPostRepository) {
				repo.On("SlugTaken", ctx, "kasir-offline", uuid.Nil).Return(false, nil).Once()
				repo.On("SavePost", ctx, mock.MatchedBy(func(p models.Post) bool {
					return p.Published && p.Icon != nil && *p.Icon == "🧾" && p.Excerpt == nil
				})).Return(models.Post{ID: uuid.New(), Slug: "kasir-offline"}, nil).Once()
			},
		},
		{
			name:       "invalid fields",
			req:        dto.PostRequest{Slug: "Bad Slug", Title: "ab", Date: "10/01/2024", Icon: strPtr("123456789")},
			mockSetup:  func(repo *MockPostRepository) {},
			wantFields: []string{"slug", "title", "date", "icon"},
		},
		{
			name:       "short slug",
			req:        dto.PostRequest{Slug: "ab", Title: "Judul", Date: "2024-01-10"},
			mockSetup:  func(repo *MockPostRepository) {},
			wantFields: []string{"slug"},
		},
		{
			name: "slug taken",
			req:  dto.PostRequest{Slug: "kasir-offline", Title: "Kasir offline", Date: "2024-01-10"},
			mockSetup: func(repo *MockPostRepository) {
				repo.On("SlugTaken", ctx, "kasir-offline", uuid.Nil).Return(true, nil).Once()
			},
			wantErr: storage.ErrSlugTaken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockPostRepository)
			tt.mockSetup(repo)

			_, err := NewPostService(slog.Default(), repo).CreatePost(ctx, tt.req)

			switch {
			case tt.wantFields != nil:
				var verrs models.ValidationErrors
				require.ErrorAs(t, err, &verrs)
				fields := make([]string, 0, len(verrs))
				for _, v := range verrs {
					fields = append(fields, v.Field)
				}
				assert.Equal(t, tt.wantFields, fields)
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			default:
				assert.NoError(t, err)
			}

			repo.AssertExpectations(t)
		})
	}
}

func TestPostService_GetPublishedPost(t *testing.T) {
	ctx := context.Background()

	repo := new(MockPostRepository)
	repo.On("GetPostBySlug", ctx, "draft").Return(models.Post{Slug: "draft", Published: false}, nil).Once()
	repo.On("GetPostBySlug", ctx, "live").Return(models.Post{Slug: "live", Published: true}, nil).Once()

	svc := NewPostService(slog.Default(), repo)

	_, err := svc.GetPublishedPost(ctx, "draft")
	assert.ErrorIs(t, err, storage.ErrPostNotFound)

	p, err := svc.GetPublishedPost(ctx, "live")
	require.NoError(t, err)
	assert.Equal(t, "live", p.Slug)
}

func TestPostService_UpdatePost(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	req := dto.PostRequest{Slug: "stok-opname", Title: "Stok opname", Date: "2024-03-01", Published: boolPtr(false)}

	repo := new(MockPostRepository)
	repo.On("SlugTaken", ctx, "stok-opname", id).Return(false, nil).Once()
	repo.On("UpdatePost", ctx, mock.MatchedBy(func(p models.Post) bool { return p.ID == id && !p.Published })).
		Return(models.Post{}, storage.ErrPostNotFound).Once()

	_, err := NewPostService(slog.Default(), repo).UpdatePost(ctx, id, req)
	assert.ErrorIs(t, err, storage.ErrPostNotFound)
	repo.AssertExpectations(t)
}

func boolPtr(b bool) *bool { return &b }
