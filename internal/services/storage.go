package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/rosettahomes/rosetta-backend/internal/config"
)

const maxImageSize = 5 << 20

var (
	ErrImageTooLarge   = errors.New("image exceeds 5MB")
	ErrUnsupportedType = errors.New("only JPEG, PNG, WebP and GIF images are allowed")
)

var imageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// NewStorage returns S3 storage when AWS is configured and falls back to
// the local upload directory otherwise.
func NewStorage(cfg *config.Config, log *slog.Logger) (ImageStore, error) {
	if log == nil {
		log = slog.Default()
	}
	if cfg.S3.Configured() {
		sess, err := session.NewSession(&aws.Config{
			Region:      aws.String(cfg.S3.Region),
			Credentials: credentials.NewStaticCredentials(cfg.S3.AccessKey, cfg.S3.SecretKey, ""),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create AWS session: %w", err)
		}
		log.Info("image storage: s3", "bucket", cfg.S3.Bucket, "region", cfg.S3.Region)
		return &S3Storage{
			client:   s3.New(sess),
			uploader: s3manager.NewUploader(sess),
			bucket:   cfg.S3.Bucket,
			region:   cfg.S3.Region,
		}, nil
	}

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	log.Warn("AWS S3 not configured, using local file storage", "dir", cfg.UploadDir)
	return NewLocalStorage(cfg.UploadDir, cfg.BaseURL), nil
}

// readImage loads an upload and checks its size and sniffed content type.
func readImage(file *multipart.FileHeader) ([]byte, string, error) {
	if file.Size > maxImageSize {
		return nil, "", ErrImageTooLarge
	}
	src, err := file.Open()
	if err != nil {
		return nil, "", fmt.Errorf("failed to open file: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, maxImageSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read file: %w", err)
	}
	if len(data) > maxImageSize {
		return nil, "", ErrImageTooLarge
	}
	contentType := http.DetectContentType(data)
	if !imageTypes[contentType] {
		return nil, "", ErrUnsupportedType
	}
	return data, contentType, nil
}

func objectName(folder, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return fmt.Sprintf("%s/%d%s", strings.Trim(folder, "/"), time.Now().UnixNano(), ext)
}

type S3Storage struct {
	client   *s3.S3
	uploader *s3manager.Uploader
	bucket   string
	region   string
}

func (s *S3Storage) UploadImage(ctx context.Context, file *multipart.FileHeader, folder string) (string, error) {
	data, contentType, err := readImage(file)
	if err != nil {
		return "", err
	}

	key := objectName(folder, file.Filename)
	_, err = s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key), nil
}

func (s *S3Storage) DeleteImage(ctx context.Context, imageURL string) error {
	key, err := keyFromURL(imageURL)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return err
}

// keyFromURL returns the object path of an uploaded image URL.
func keyFromURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid image url: %w", err)
	}
	key := strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return "", fmt.Errorf("invalid image url %q", raw)
	}
	return key, nil
}

// LocalStorage writes images under dir and serves them from baseURL/uploads.
type LocalStorage struct {
	dir     string
	baseURL string
}

func NewLocalStorage(dir, baseURL string) *LocalStorage {
	return &LocalStorage{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *LocalStorage) UploadImage(ctx context.Context, file *multipart.FileHeader, folder string) (string, error) {
	data, _, err := readImage(file)
	if err != nil {
		return "", err
	}

	name := objectName(folder, file.Filename)
	path := filepath.Join(s.dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create folder directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	return s.baseURL + "/uploads/" + name, nil
}

func (s *LocalStorage) DeleteImage(ctx context.Context, imageURL string) error {
	key, err := keyFromURL(imageURL)
	if err != nil {
		return err
	}
	rel := strings.TrimPrefix(key, "uploads/")
	path := filepath.Join(s.dir, filepath.FromSlash(rel))

	// Refuse paths that escape the upload directory.
	root, err := filepath.Abs(s.dir)
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(abs, root+string(filepath.Separator)) {
		return fmt.Errorf("image %q is outside the upload directory", imageURL)
	}

	if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
