package storage

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	// MaxImageSizeMB is the maximum allowed image size in megabytes.
	MaxImageSizeMB = 5

	// MaxImageSize is the maximum allowed image size in bytes.
	MaxImageSize = MaxImageSizeMB * 1024 * 1024

	// UploadPrefix is the key prefix of every uploaded image.
	UploadPrefix = "uploads/"
)

var (
	ErrEmptyImage        = errors.New("the submitted file is empty")
	ErrImageTooLarge     = fmt.Errorf("the image exceeds %d MB", MaxImageSizeMB)
	ErrNotImage          = errors.New("upload a valid image; the file was either not an image or a corrupted image")
	ErrExtensionMismatch = errors.New("the file extension does not match the image type")
)

// AllowedMIMETypes defines the set of permitted image types.
var AllowedMIMETypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
	"image/gif":  {},
}

// ExtToMIME maps file extensions to their corresponding MIME types.
var ExtToMIME = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
}

// Image is an uploaded image that passed validation.
type Image struct {
	Data        []byte
	Filename    string
	ContentType string
	Ext         string
}

// Key returns a fresh storage key for the image.
func (img *Image) Key() string {
	return UploadPrefix + uuid.New().String() + img.Ext
}

// Size returns the image size in bytes.
func (img *Image) Size() int64 {
	return int64(len(img.Data))
}

// ReadImage reads and validates a multipart upload.
func ReadImage(fh *multipart.FileHeader) (*Image, error) {
	if fh.Size > MaxImageSize {
		return nil, ErrImageTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	return DecodeImage(fh.Filename, f)
}

// DecodeImage validates the content of r as an image named filename.
// The type is sniffed from the content; the extension must agree with it.
func DecodeImage(filename string, r io.Reader) (*Image, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	if err := ValidateFileSize(int64(len(data))); err != nil {
		return nil, err
	}

	mimeType := http.DetectContentType(data)
	if err := ValidateFileType(filename, mimeType); err != nil {
		return nil, err
	}

	// webp has no decoder in the standard library; sniffing is all we check.
	if mimeType != "image/webp" {
		if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
			return nil, ErrNotImage
		}
	}

	return &Image{
		Data:        data,
		Filename:    filename,
		ContentType: mimeType,
		Ext:         strings.ToLower(filepath.Ext(filename)),
	}, nil
}

// ValidateFileSize checks if the provided file size is within acceptable limits.
func ValidateFileSize(fileSize int64) error {
	if fileSize <= 0 {
		return ErrEmptyImage
	}

	if fileSize > MaxImageSize {
		return ErrImageTooLarge
	}

	return nil
}

// ValidateFileType checks if the provided file name and MIME type are allowed.
func ValidateFileType(fileName string, mimeType string) error {
	lowerMimeType := strings.ToLower(mimeType)

	if _, ok := AllowedMIMETypes[lowerMimeType]; !ok {
		return ErrNotImage
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == "" || len(ext) < 2 {
		return ErrExtensionMismatch
	}

	expectedMIME, ok := ExtToMIME[ext]
	if !ok {
		return ErrExtensionMismatch
	}

	if expectedMIME != lowerMimeType {
		return ErrExtensionMismatch
	}

	return nil
}
