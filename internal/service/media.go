package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"yochat/internal/config"
	domain "yochat/internal/model"
)

// MediaStore stores image bytes and resolves stored keys to public URLs.
// The database only ever holds keys and the URLs derived from them.
type MediaStore interface {
	UploadProfileImage(ctx context.Context, file multipart.File, header *multipart.FileHeader) (*domain.UploadResult, error)
	UploadPostImage(ctx context.Context, userID int64, file multipart.File, header *multipart.FileHeader) (*domain.UploadResult, error)
	PresignPostUpload(ctx context.Context, userID int64, req domain.PresignPostUploadRequest) (*domain.PresignPostUploadResponse, error)
	PublicURL(key string) string
	DeleteObject(ctx context.Context, key string) error
}

// MediaService stores media in Cloudflare R2 through the S3 API.
type MediaService struct {
	s3Client  *s3.Client
	presigner *s3.PresignClient
	bucket    string
	publicURL string
}

// NewMediaService constructs an S3-compatible client for Cloudflare R2.
func NewMediaService(ctx context.Context, cfg *config.Config) (*MediaService, error) {
	if cfg.R2AccountID == "" || cfg.R2AccessKeyID == "" || cfg.R2SecretAccessKey == "" || cfg.R2BucketName == "" || cfg.R2PublicURL == "" {
		return nil, fmt.Errorf("missing Cloudflare R2 configuration")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.R2AccessKeyID, cfg.R2SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config for R2: %w", err)
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.R2AccountID)
	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	return &MediaService{
		s3Client:  s3Client,
		presigner: s3.NewPresignClient(s3Client),
		bucket:    cfg.R2BucketName,
		publicURL: strings.TrimSuffix(cfg.R2PublicURL, "/"),
	}, nil
}

// UploadProfileImage enforces size/type, normalizes to a square JPEG and uploads it.
func (s *MediaService) UploadProfileImage(ctx context.Context, file multipart.File, header *multipart.FileHeader) (*domain.UploadResult, error) {
	data, _, err := readAndValidateImage(file, header, domain.MaxProfileImageSize)
	if err != nil {
		return nil, err
	}

	jpegBytes, err := resizeToJPEG(data, domain.ProfileImageWidth, domain.ProfileImageHeight, 85)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s/%s%s", domain.ProfileImageFolder, uuid.NewString(), domain.ProfileImageExt)
	if err := s.putObject(ctx, key, jpegBytes, domain.ContentTypeJPEG); err != nil {
		return nil, err
	}
	return &domain.UploadResult{URL: s.PublicURL(key), Key: key}, nil
}

// UploadPostImage stores a post image as-is under the owner's prefix.
func (s *MediaService) UploadPostImage(ctx context.Context, userID int64, file multipart.File, header *multipart.FileHeader) (*domain.UploadResult, error) {
	data, contentType, err := readAndValidateImage(file, header, domain.MaxPostImageSize)
	if err != nil {
		return nil, err
	}

	key := PostImageKey(userID, contentType)
	if err := s.putObject(ctx, key, data, contentType); err != nil {
		return nil, err
	}
	return &domain.UploadResult{URL: s.PublicURL(key), Key: key}, nil
}

// PresignPostUpload returns a short-lived PUT URL so clients can upload post images directly.
func (s *MediaService) PresignPostUpload(ctx context.Context, userID int64, req domain.PresignPostUploadRequest) (*domain.PresignPostUploadResponse, error) {
	if !domain.IsAllowedImageType(req.ContentType) {
		return nil, domain.ErrInvalidImageType
	}
	if req.FileSize > domain.MaxPostImageSize {
		return nil, domain.ErrFileTooLarge
	}

	key := PostImageKey(userID, req.ContentType)
	presigned, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		ContentType:  aws.String(req.ContentType),
		CacheControl: aws.String(domain.ImageCacheControl),
	}, s3.WithPresignExpires(domain.PresignExpirySecs*time.Second))
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload: %w", err)
	}

	return &domain.PresignPostUploadResponse{
		UploadURL:  presigned.URL,
		PublicURL:  s.PublicURL(key),
		Key:        key,
		ExpiresInS: domain.PresignExpirySecs,
	}, nil
}

func (s *MediaService) PublicURL(key string) string {
	return fmt.Sprintf("%s/%s", s.publicURL, key)
}

// PostImageKey builds the object key for a new post image owned by userID.
func PostImageKey(userID int64, contentType string) string {
	return fmt.Sprintf("%s/%d/%s%s", domain.PostImageFolder, userID, uuid.NewString(), domain.ImageExtension(contentType))
}

// OwnsPostImageKey reports whether key was issued under userID's post prefix.
func OwnsPostImageKey(userID int64, key string) bool {
	prefix := fmt.Sprintf("%s/%d/", domain.PostImageFolder, userID)
	rest, ok := strings.CutPrefix(key, prefix)
	return ok && rest != "" && !strings.Contains(rest, "/") && !strings.Contains(rest, "..")
}

// readAndValidateImage loads the upload into memory with size and type checks.
func readAndValidateImage(file multipart.File, header *multipart.FileHeader, maxSize int64) ([]byte, string, error) {
	if header.Size > maxSize {
		return nil, "", domain.ErrFileTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > maxSize {
		return nil, "", domain.ErrFileTooLarge
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" && len(data) > 0 {
		contentType = http.DetectContentType(data[:min(len(data), 512)])
	}
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = strings.TrimSpace(contentType[:idx])
	}
	if !domain.IsAllowedImageType(contentType) {
		return nil, "", domain.ErrInvalidImageType
	}

	return data, contentType, nil
}

// resizeToJPEG centers/crops to target size and encodes as JPEG.
func resizeToJPEG(data []byte, width, height, quality int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	resized := imaging.Fill(img, width, height, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *MediaService) putObject(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(body),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String(domain.ImageCacheControl),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to r2: %w", err)
	}
	return nil
}

// DeleteObject removes an object by key. An empty key is a no-op.
func (s *MediaService) DeleteObject(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	_, err := s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from r2: %w", err)
	}
	log.Printf("[MediaService] Deleted object: key=%s", key)
	return nil
}
