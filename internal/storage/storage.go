// Package storage uploads user media to the configured object store.
package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/Curious-3/EchoesOfArt-sub000/internal/config"
)

// Folders media is grouped under.
const (
	FolderPosts      = "posts"
	FolderThumbnails = "thumbnails"
	FolderAvatars    = "avatars"
)

// File is an upload payload.
type File struct {
	Reader      io.Reader
	Filename    string
	ContentType string
	Size        int64
}

// UploadResult describes a stored object. Key is what Delete expects.
type UploadResult struct {
	Key  string `json:"key"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

// MediaUploader stores and removes media objects.
type MediaUploader interface {
	Upload(ctx context.Context, folder string, file File) (*UploadResult, error)
	Delete(ctx context.Context, key string) error
}

var (
	_ MediaUploader = (*CloudinaryUploader)(nil)
	_ MediaUploader = (*S3Uploader)(nil)
	_ MediaUploader = (*LocalUploader)(nil)
	_ MediaUploader = (*MockUploader)(nil)
)

// NewUploader builds the uploader selected by cfg.Provider.
func NewUploader(cfg config.MediaConfig) (MediaUploader, error) {
	switch cfg.Provider {
	case "cloudinary":
		return NewCloudinaryUploader(cfg.CloudinaryURL, "echoes")
	case "s3":
		baseURL := cfg.CDNBaseURL
		if baseURL == "" {
			baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3Bucket, cfg.AWSRegion)
		}
		return NewS3Uploader(cfg.AWSRegion, cfg.S3Bucket, baseURL)
	case "local", "":
		return NewLocalUploader(cfg.UploadDir, strings.TrimSuffix(cfg.PublicBaseURL, "/")+"/uploads")
	default:
		return nil, fmt.Errorf("unknown media provider %q", cfg.Provider)
	}
}

// ContentTypeFor returns the MIME type for a file name's extension.
func ContentTypeFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".svg":
		return "image/svg+xml"
	case ".mp4":
		return "video/mp4"
	case ".webm":
		return "video/webm"
	case ".mov":
		return "video/quicktime"
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	case ".ogg":
		return "audio/ogg"
	case ".m4a":
		return "audio/mp4"
	case ".txt":
		return "text/plain"
	case ".md":
		return "text/markdown"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

func extensionOf(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}
