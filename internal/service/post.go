package service

import (
	"context"
	"fmt"
	"log"
	"mime/multipart"

	"yochat/internal/model"
	"yochat/internal/repository"
)

type PostService struct {
	postRepo repository.PostRepository
	media    MediaStore
}

func NewPostService(postRepo repository.PostRepository, media MediaStore) *PostService {
	return &PostService{
		postRepo: postRepo,
		media:    media,
	}
}

func validatePost(caption *string, imageCount int) error {
	if imageCount == 0 {
		return model.ErrNoImageProvided
	}
	if imageCount > model.MaxPostImageCount {
		return model.ErrTooManyImages
	}
	if caption != nil && len(*caption) > model.MaxPostCaptionLength {
		return model.ErrCaptionTooLong
	}
	return nil
}

// CreateFromUploads stores each multipart image and then the post.
// Objects already stored are deleted again if any later step fails.
func (s *PostService) CreateFromUploads(ctx context.Context, userID int64, caption *string, files []*multipart.FileHeader) (*model.Post, error) {
	if err := validatePost(caption, len(files)); err != nil {
		return nil, err
	}

	images := make([]model.NewPostImage, 0, len(files))
	cleanup := func() {
		for _, img := range images {
			if err := s.media.DeleteObject(ctx, img.Key); err != nil {
				log.Printf("[PostService] Failed to clean up image: key=%s err=%v", img.Key, err)
			}
		}
	}

	for i, fh := range files {
		f, err := fh.Open()
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("open image %d: %w", i, err)
		}
		uploaded, err := s.media.UploadPostImage(ctx, userID, f, fh)
		f.Close()
		if err != nil {
			cleanup()
			return nil, err
		}
		images = append(images, model.NewPostImage{URL: uploaded.URL, Key: uploaded.Key})
	}

	post, err := s.postRepo.Create(ctx, userID, caption, images)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("create post: %w", err)
	}

	log.Printf("[PostService] Post created: post=%d author=%d images=%d", post.ID, userID, len(images))
	return post, nil
}

// CreateFromKeys creates a post from images uploaded through presigned URLs.
// Every key must have been issued to userID.
func (s *PostService) CreateFromKeys(ctx context.Context, userID int64, req model.CreatePostRequest) (*model.Post, error) {
	if err := validatePost(req.Caption, len(req.ImageKeys)); err != nil {
		return nil, err
	}

	images := make([]model.NewPostImage, len(req.ImageKeys))
	for i, key := range req.ImageKeys {
		if !OwnsPostImageKey(userID, key) {
			return nil, model.ErrInvalidImageKey
		}
		images[i] = model.NewPostImage{URL: s.media.PublicURL(key), Key: key}
	}

	post, err := s.postRepo.Create(ctx, userID, req.Caption, images)
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	log.Printf("[PostService] Post created: post=%d author=%d images=%d", post.ID, userID, len(images))
	return post, nil
}

// ListMyPosts returns the caller's own posts annotated with the caller's reaction state.
func (s *PostService) ListMyPosts(ctx context.Context, userID int64) ([]model.FeedPost, error) {
	return s.postRepo.GetByAuthor(ctx, userID, userID)
}
