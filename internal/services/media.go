package services

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	BucketLessons = "lessons"

	MaxImageBytes = 10 << 20
)

var imageExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type MediaAsset struct {
	AssetID   string `json:"assetId"`
	URL       string `json:"url"`
	SizeBytes int64  `json:"sizeBytes"`
	SHA256    string `json:"sha256"`
}

// MediaService keeps lesson images on local disk under BasePath/<bucket>.
type MediaService struct {
	BasePath string
}

func EnsureStoragePath(base string, bucket string) (string, error) {
	path := filepath.Join(base, bucket)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", err
	}
	return path, nil
}

func (m MediaService) SaveLessonImage(actor Actor, contentType string, body io.Reader) (MediaAsset, error) {
	if err := requireAdmin(actor); err != nil {
		return MediaAsset{}, err
	}
	ext, ok := imageExtensions[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		return MediaAsset{}, ErrBadRequest("Only PNG, JPEG, GIF or WebP images are accepted")
	}
	bucketPath, err := EnsureStoragePath(m.BasePath, BucketLessons)
	if err != nil {
		return MediaAsset{}, WrapError(err, "prepare media storage")
	}
	assetID := uuid.NewString()
	targetPath := filepath.Join(bucketPath, assetID+ext)

	file, err := os.Create(targetPath)
	if err != nil {
		return MediaAsset{}, WrapError(err, "create media file")
	}
	hasher := sha256.New()
	writer := io.MultiWriter(file, hasher)
	size, err := io.Copy(writer, io.LimitReader(body, MaxImageBytes+1))
	_ = file.Close()
	if err != nil {
		_ = os.Remove(targetPath)
		return MediaAsset{}, WrapError(err, "write media file")
	}
	if size == 0 {
		_ = os.Remove(targetPath)
		return MediaAsset{}, ErrBadRequest("The file is empty")
	}
	if size > MaxImageBytes {
		_ = os.Remove(targetPath)
		return MediaAsset{}, ErrBadRequest("The image is larger than 10 MiB")
	}
	return MediaAsset{
		AssetID:   assetID,
		URL:       BuildAssetURL(assetID),
		SizeBytes: size,
		SHA256:    hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}

func BuildAssetURL(assetID string) string {
	return "/api/media/" + assetID
}

// LocateAsset returns the file path of a stored image.
func (m MediaService) LocateAsset(assetID string) (string, error) {
	if _, err := uuid.Parse(assetID); err != nil {
		return "", ErrNotFound("Asset not found")
	}
	dir := filepath.Join(m.BasePath, BucketLessons)
	for _, ext := range imageExtensions {
		path := filepath.Join(dir, assetID+ext)
		info, err := os.Stat(path)
		if err == nil && info.Mode().IsRegular() {
			return path, nil
		}
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", WrapError(err, "stat media file")
		}
	}
	return "", ErrNotFound("Asset not found")
}

func (m MediaService) DeleteAsset(actor Actor, assetID string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	path, err := m.LocateAsset(assetID)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return WrapError(err, "remove media file")
	}
	return nil
}
