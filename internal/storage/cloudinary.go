package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
)

// cloudinaryAPI is the part of the Cloudinary upload API used here.
type cloudinaryAPI interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
	Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error)
}

// CloudinaryUploader stores media on Cloudinary. Keys have the form
// "<resource_type>/<public_id>" because deletes need the resource type.
type CloudinaryUploader struct {
	api        cloudinaryAPI
	rootFolder string
}

// NewCloudinaryUploader reads credentials from a cloudinary:// URL.
func NewCloudinaryUploader(cloudinaryURL, rootFolder string) (*CloudinaryUploader, error) {
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("cloudinary configuration error: %w", err)
	}
	return &CloudinaryUploader{api: &cld.Upload, rootFolder: rootFolder}, nil
}

func (u *CloudinaryUploader) Upload(ctx context.Context, folder string, file File) (*UploadResult, error) {
	res, err := u.api.Upload(ctx, file.Reader, uploader.UploadParams{
		Folder:       u.rootFolder + "/" + folder,
		PublicID:     uuid.New().String(),
		ResourceType: "auto",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to Cloudinary: %w", err)
	}
	if res.Error.Message != "" {
		return nil, fmt.Errorf("cloudinary rejected upload: %s", res.Error.Message)
	}
	return &UploadResult{
		Key:  res.ResourceType + "/" + res.PublicID,
		URL:  res.SecureURL,
		Size: int64(res.Bytes),
	}, nil
}

func (u *CloudinaryUploader) Delete(ctx context.Context, key string) error {
	resourceType, publicID, ok := strings.Cut(key, "/")
	if !ok || publicID == "" {
		return fmt.Errorf("malformed cloudinary key %q", key)
	}
	if _, err := u.api.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: resourceType,
	}); err != nil {
		return fmt.Errorf("failed to delete from Cloudinary: %w", err)
	}
	return nil
}
