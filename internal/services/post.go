package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/komodohub/komodo-hub-backend/internal/data/repos"
	types "github.com/komodohub/komodo-hub-backend/internal/domain"
	"github.com/komodohub/komodo-hub-backend/internal/platform/apierr"
	"github.com/komodohub/komodo-hub-backend/internal/platform/logger"
)

const AnonymousAuthor = "Anonymous"

type PostView struct {
	ID          string            `json:"_id"`
	Title       string            `json:"title"`
	Content     string            `json:"content"`
	Media       []types.MediaItem `json:"media"`
	CreatedAt   time.Time         `json:"createdAt"`
	Author      string            `json:"author"`
	AuthorImage string            `json:"authorImage"`
	UserID      string            `json:"userId"`
}

type PostInput struct {
	Title   string            `json:"title"`
	Content string            `json:"content"`
	Media   []types.MediaItem `json:"media"`
}

type PostService interface {
	List(ctx context.Context) ([]PostView, error)
	Create(ctx context.Context, author *types.User, in PostInput) (*PostView, error)
	Delete(ctx context.Context, requesterID uuid.UUID, postID string) error
}

type postService struct {
	log      *logger.Logger
	postRepo repos.PostRepo
}

func NewPostService(log *logger.Logger, postRepo repos.PostRepo) PostService {
	return &postService{
		log:      log.With("service", "PostService"),
		postRepo: postRepo,
	}
}

func newPostView(p *types.Post, author *types.User) PostView {
	media := []types.MediaItem(p.Media)
	if media == nil {
		media = []types.MediaItem{}
	}
	v := PostView{
		ID:        p.ID.String(),
		Title:     p.Title,
		Content:   p.Content,
		Media:     media,
		CreatedAt: p.CreatedAt,
		Author:    AnonymousAuthor,
	}
	if author != nil {
		v.Author = author.DisplayName(AnonymousAuthor)
		v.AuthorImage = author.ImageURL
		v.UserID = author.ClerkID
	}
	return v
}

func (s *postService) List(ctx context.Context) ([]PostView, error) {
	rows, err := s.postRepo.ListFeed(withCtx(ctx))
	if err != nil {
		return nil, apierr.Internal("posts_fetch_failed", err)
	}
	out := make([]PostView, 0, len(rows))
	for _, r := range rows {
		var author *types.User
		if r.AuthorClerkID != "" {
			author = &types.User{
				ClerkID:   r.AuthorClerkID,
				FirstName: r.AuthorFirstName,
				LastName:  r.AuthorLastName,
				ImageURL:  r.AuthorImageURL,
			}
		}
		out = append(out, newPostView(&r.Post, author))
	}
	return out, nil
}

func (s *postService) Create(ctx context.Context, author *types.User, in PostInput) (*PostView, error) {
	if author == nil {
		return nil, apierr.Unauthorized("unauthorized", "Unauthorized")
	}
	content := strings.TrimSpace(in.Content)
	media := make(datatypes.JSONSlice[types.MediaItem], 0, len(in.Media))
	for _, m := range in.Media {
		t := strings.ToLower(strings.TrimSpace(m.Type))
		u := strings.TrimSpace(m.URL)
		if (t != types.MediaTypeImage && t != types.MediaTypeVideo) || u == "" {
			return nil, apierr.BadRequest("invalid_media", "Media items need a type of image or video and a url")
		}
		media = append(media, types.MediaItem{Type: t, URL: u})
	}
	if content == "" && len(media) == 0 {
		return nil, apierr.BadRequest("empty_post", "Post must have content or media")
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = types.DefaultPostTitle
	}
	p := &types.Post{
		Title:    title,
		Content:  content,
		AuthorID: author.ID,
		Media:    media,
	}
	if _, err := s.postRepo.Create(withCtx(ctx), p); err != nil {
		return nil, apierr.Internal("post_create_failed", err)
	}
	v := newPostView(p, author)
	return &v, nil
}

func (s *postService) Delete(ctx context.Context, requesterID uuid.UUID, postID string) error {
	if strings.TrimSpace(postID) == "" {
		return apierr.BadRequest("missing_post_id", "Post ID is required")
	}
	id, ok := parseID(postID)
	if !ok {
		return apierr.NotFound("post_not_found", "Post not found")
	}
	dbc := withCtx(ctx)

	p, err := s.postRepo.GetByID(dbc, id)
	if err != nil {
		return apierr.Internal("post_delete_failed", err)
	}
	if p == nil {
		return apierr.NotFound("post_not_found", "Post not found")
	}
	if p.AuthorID != requesterID {
		return apierr.Unauthorized("not_author", "Unauthorized - you can only delete your own posts")
	}
	if err := s.postRepo.FullDeleteByID(dbc, id); err != nil {
		return apierr.Internal("post_delete_failed", err)
	}
	s.log.Info("Post deleted", "post_id", id, "user_id", requesterID)
	return nil
}
