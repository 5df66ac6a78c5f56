package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Curious-3/EchoesOfArt-sub000/internal/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentTypeFor(t *testing.T) {
	tests := map[string]string{
		"photo.JPG":  "image/jpeg",
		"clip.mp4":   "video/mp4",
		"song.mp3":   "audio/mpeg",
		"notes.txt":  "text/plain",
		"blob":       "application/octet-stream",
		"image.webp": "image/webp",
	}
	for name, want := range tests {
		assert.Equal(t, want, ContentTypeFor(name), name)
	}
}

func TestLocalUploaderRoundTrip(t *testing.T) {
	dir := t.TempDir()
	u, err := NewLocalUploader(dir, "http://localhost:8787/uploads/")
	require.NoError(t, err)

	res, err := u.Upload(context.Background(), FolderPosts, File{
		Reader:   strings.NewReader("pixels"),
		Filename: "art.PNG",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.Key, "posts/"))
	assert.True(t, strings.HasSuffix(res.Key, ".png"))
	assert.Equal(t, "http://localhost:8787/uploads/"+res.Key, res.URL)
	assert.Equal(t, int64(6), res.Size)

	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(res.Key)))
	require.NoError(t, err)
	assert.Equal(t, "pixels", string(data))

	require.NoError(t, u.Delete(context.Background(), res.Key))
	require.NoError(t, u.Delete(context.Background(), res.Key), "delete is idempotent")
	_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(res.Key)))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLocalUploaderKeepsKeysInsideDir(t *testing.T) {
	dir := t.TempDir()
	u, err := NewLocalUploader(dir, "/uploads")
	require.NoError(t, err)

	path, err := u.pathFor("../../etc/passwd")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, dir))

	_, err = u.pathFor("")
	assert.Error(t, err)
}

type fakeS3 struct {
	puts    []*s3.PutObjectInput
	deletes []string
	body    string
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	b, _ := io.ReadAll(in.Body)
	f.body = string(b)
	f.puts = append(f.puts, in)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deletes = append(f.deletes, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) HeadBucket(context.Context, *s3.HeadBucketInput, ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, nil
}

func TestS3UploaderKeyLayout(t *testing.T) {
	fake := &fakeS3{}
	u := &S3Uploader{
		client:  fake,
		bucket:  "echoes-media",
		baseURL: "https://cdn.echoes.test",
		now:     func() time.Time { return time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC) },
	}

	res, err := u.Upload(context.Background(), FolderAvatars, File{Reader: strings.NewReader("face"), Filename: "me.jpeg", Size: 4})
	require.NoError(t, err)

	assert.Regexp(t, `^avatars/2024/03/[0-9a-f-]{36}\.jpeg$`, res.Key)
	assert.Equal(t, "https://cdn.echoes.test/"+res.Key, res.URL)
	require.Len(t, fake.puts, 1)
	assert.Equal(t, "image/jpeg", aws.ToString(fake.puts[0].ContentType))
	assert.Equal(t, "face", fake.body)

	require.NoError(t, u.Delete(context.Background(), res.Key))
	assert.Equal(t, []string{res.Key}, fake.deletes)
	assert.NoError(t, u.CheckBucketAccess(context.Background()))
}

type fakeCloudinary struct {
	uploadParams  uploader.UploadParams
	destroyParams uploader.DestroyParams
}

func (f *fakeCloudinary) Upload(_ context.Context, _ interface{}, p uploader.UploadParams) (*uploader.UploadResult, error) {
	f.uploadParams = p
	return &uploader.UploadResult{
		PublicID:     p.Folder + "/" + p.PublicID,
		ResourceType: "video",
		SecureURL:    "https://res.cloudinary.com/demo/video/upload/" + p.PublicID + ".mp4",
		Bytes:        42,
	}, nil
}

func (f *fakeCloudinary) Destroy(_ context.Context, p uploader.DestroyParams) (*uploader.DestroyResult, error) {
	f.destroyParams = p
	return &uploader.DestroyResult{Result: "ok"}, nil
}

func TestCloudinaryUploaderKeyCarriesResourceType(t *testing.T) {
	fake := &fakeCloudinary{}
	u := &CloudinaryUploader{api: fake, rootFolder: "echoes"}

	res, err := u.Upload(context.Background(), FolderPosts, File{Reader: strings.NewReader("v"), Filename: "clip.mp4"})
	require.NoError(t, err)
	assert.Equal(t, "echoes/posts", fake.uploadParams.Folder)
	assert.Equal(t, "auto", fake.uploadParams.ResourceType)
	assert.True(t, strings.HasPrefix(res.Key, "video/echoes/posts/"))
	assert.Equal(t, int64(42), res.Size)

	require.NoError(t, u.Delete(context.Background(), res.Key))
	assert.Equal(t, "video", fake.destroyParams.ResourceType)
	assert.True(t, strings.HasPrefix(fake.destroyParams.PublicID, "echoes/posts/"))

	assert.Error(t, u.Delete(context.Background(), "no-slash"))
}

func TestNewUploaderRejectsUnknownProvider(t *testing.T) {
	_, err := NewUploader(config.MediaConfig{Provider: "ftp"})
	assert.Error(t, err)

	u, err := NewUploader(config.MediaConfig{Provider: "local", UploadDir: t.TempDir(), PublicBaseURL: "http://x"})
	require.NoError(t, err)
	assert.IsType(t, &LocalUploader{}, u)
}
