package model

import "errors"

const (
	MaxProfileImageSize = 5 * 1024 * 1024
	ProfileImageWidth   = 200
	ProfileImageHeight  = 200
	ProfileImageFolder  = "profile-images"
	ProfileImageExt     = ".jpg"
	ImageCacheControl   = "public, max-age=31536000"
	PresignExpirySecs   = 900
)

// Supported image content types for upload validation
const (
	ContentTypeJPEG = "image/jpeg"
	ContentTypePNG  = "image/png"
	ContentTypeGIF  = "image/gif"
	ContentTypeWebP = "image/webp"
)

var imageExtensions = map[string]string{
	ContentTypeJPEG: ".jpg",
	ContentTypePNG:  ".png",
	ContentTypeGIF:  ".gif",
	ContentTypeWebP: ".webp",
}

// Error codes for HTTP responses
const (
	CodeFileTooLarge     = "FILE_TOO_LARGE"
	CodeInvalidImageType = "INVALID_IMAGE_TYPE"
)

var (
	ErrFileTooLarge     = errors.New("file too large")
	ErrInvalidImageType = errors.New("invalid image type")
)

// UploadResult is a stored object: its bucket key and the public URL it is served from.
type UploadResult struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// PresignPostUploadRequest requests a presigned URL for uploading a post image directly to storage.
// Client uploads bytes to UploadURL, then sends Key in POST /feed/posts image_keys.
type PresignPostUploadRequest struct {
	ContentType string `json:"content_type"`
	FileSize    int64  `json:"file_size"`
}

// PresignPostUploadResponse returns upload details for a direct upload.
type PresignPostUploadResponse struct {
	UploadURL  string `json:"upload_url"`
	PublicURL  string `json:"public_url"`
	Key        string `json:"key"`
	ExpiresInS int    `json:"expires_in"`
}

// IsAllowedImageType reports if the provided content type is supported
func IsAllowedImageType(contentType string) bool {
	_, ok := imageExtensions[contentType]
	return ok
}

// ImageExtension returns the file extension used for objects of contentType.
func ImageExtension(contentType string) string {
	return imageExtensions[contentType]
}
