package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"carrental/internal/utils"
	"carrental/pkg/logger"
	"carrental/pkg/storage"
)

// ImageUpload is an image file received from a client.
type ImageUpload struct {
	Filename string
	Reader   io.Reader
	Size     int64
}

type StoredImage struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type ImageConfig struct {
	MaxFileSize int64
	MaxSide     uint
	URLExpiry   time.Duration
}

// ImageService validates, shrinks and stores user-supplied images.
type ImageService interface {
	Store(ctx context.Context, folder string, upload *ImageUpload) (*StoredImage, error)
	Delete(ctx context.Context, key string)
}

type imageService struct {
	storage storage.StorageProvider
	config  ImageConfig
	logger  *logger.Logger
}

func NewImageService(provider storage.StorageProvider, config ImageConfig, logger *logger.Logger) ImageService {
	return &imageService{
		storage: provider,
		config:  config,
		logger:  logger,
	}
}

func (s *imageService) Store(ctx context.Context, folder string, upload *ImageUpload) (*StoredImage, error) {
	if upload == nil || upload.Reader == nil {
		return nil, invalidInput("file is required")
	}
	if !utils.IsImageFile(upload.Filename) {
		return nil, invalidInput("File must be an image")
	}

	maxSize := s.config.MaxFileSize
	if maxSize <= 0 {
		maxSize = utils.MaxImageSize
	}
	if upload.Size > maxSize {
		return nil, invalidInput("File exceeds the %d byte limit", maxSize)
	}

	processed, err := utils.ProcessImage(io.LimitReader(upload.Reader, maxSize+1), s.config.MaxSide)
	if err != nil {
		if errors.Is(err, utils.ErrUnsupportedImage) {
			return nil, invalidInput("File must be an image")
		}
		return nil, err
	}

	key := utils.GenerateStorageKey(folder, processed.Extension)
	response, err := s.storage.Upload(ctx, &storage.UploadRequest{
		Key:          key,
		Reader:       bytes.NewReader(processed.Data),
		ContentType:  processed.ContentType,
		Size:         int64(len(processed.Data)),
		CacheControl: "public, max-age=31536000",
		Metadata: map[string]string{
			"original-name": upload.Filename,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", utils.ErrFileUploadFailed, err)
	}

	url := response.URL
	if s.config.URLExpiry > 0 {
		if signed, err := s.storage.GetURL(ctx, key, s.config.URLExpiry); err == nil {
			url = signed
		}
	}

	return &StoredImage{Key: response.Key, URL: url}, nil
}

// Delete removes a stored image; failures are logged only.
func (s *imageService) Delete(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.storage.Delete(ctx, key); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Failed to delete stored image")
	}
}
