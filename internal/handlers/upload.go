package handlers

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // register GIF decoder
	"image/jpeg"
	_ "image/png" // register PNG decoder
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
)

const (
	// maxUploadSize is the maximum allowed image upload size. It matches
	// the flyer size the posting pipeline will attach.
	maxUploadSize = 5 << 20

	// thumbMaxWidth is the maximum thumbnail width in pixels.
	thumbMaxWidth = 400

	// thumbQuality is the JPEG quality for generated thumbnails.
	thumbQuality = 80

	// maxImagePixels caps the number of pixels to prevent memory bombs.
	maxImagePixels = 100_000_000
)

// allowedImageTypes defines MIME types accepted for upload. Flyers and
// artwork only; no documents.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// thumbableTypes are image types that support thumbnail generation.
// GIF is excluded to preserve animation.
var thumbableTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// UploadImage handles multipart flyer/artwork upload to S3. Returns the
// public URL to paste into the site document.
func (a *Admin) UploadImage(w http.ResponseWriter, r *http.Request) {
	if a.storage == nil {
		respondError(w, errUnavailable("object storage is not configured"))
		return
	}

	// Limit request body to maxUploadSize + some overhead for form fields.
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+1024)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondError(w, &APIError{Status: http.StatusRequestEntityTooLarge, Message: "file too large, maximum size is 5 MB"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, errValidation("no file provided"))
		return
	}
	defer file.Close()

	if header.Size == 0 {
		respondError(w, errValidation("file is empty"))
		return
	}
	if header.Size > maxUploadSize {
		respondError(w, &APIError{Status: http.StatusRequestEntityTooLarge, Message: "file too large, maximum size is 5 MB"})
		return
	}

	// Detect content type by sniffing the first 512 bytes.
	sniffBuf := make([]byte, 512)
	n, err := file.Read(sniffBuf)
	if err != nil && err != io.EOF {
		respondError(w, fmt.Errorf("read upload: %w", err))
		return
	}
	contentType := http.DetectContentType(sniffBuf[:n])
	if !allowedImageTypes[contentType] {
		respondError(w, errValidation("file type %q is not allowed", contentType))
		return
	}

	// Seek back to start after sniffing.
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		respondError(w, fmt.Errorf("seek upload: %w", err))
		return
	}

	fileBytes, err := io.ReadAll(file)
	if err != nil {
		respondError(w, fmt.Errorf("read upload: %w", err))
		return
	}

	// Generate a unique storage key, grouped by upload day.
	now := time.Now()
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext == "" {
		ext = extensionFromType(contentType)
	}
	fileID := uuid.New().String()
	key := fmt.Sprintf("uploads/%s/%s%s", now.Format("20060102"), fileID, ext)

	ctx := r.Context()
	if err := a.storage.Upload(ctx, key, contentType, bytes.NewReader(fileBytes), int64(len(fileBytes))); err != nil {
		slog.Error("s3 upload failed", "error", err, "key", key)
		respondError(w, errUpstream("upload failed"))
		return
	}

	// Generate and upload a thumbnail for supported image types.
	var thumbURL string
	if thumbableTypes[contentType] {
		thumbData, err := generateThumbnail(bytes.NewReader(fileBytes), thumbMaxWidth)
		if err != nil {
			slog.Warn("thumbnail generation failed", "error", err, "key", key)
		} else if thumbData != nil {
			thumbKey := fmt.Sprintf("uploads/%s/%s_thumb.jpg", now.Format("20060102"), fileID)
			if err := a.storage.Upload(ctx, thumbKey, "image/jpeg", bytes.NewReader(thumbData), int64(len(thumbData))); err != nil {
				slog.Warn("thumbnail upload failed", "error", err, "key", thumbKey)
			} else {
				thumbURL = a.storage.FileURL(thumbKey)
			}
		}
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"ok":       true,
		"key":      key,
		"url":      a.storage.FileURL(key),
		"thumbUrl": thumbURL,
		"size":     len(fileBytes),
		"type":     contentType,
	})
}

// generateThumbnail creates a JPEG thumbnail from an image, constrained
// to maxWidth while preserving aspect ratio. Returns nil if the image is
// already smaller than maxWidth.
func generateThumbnail(src io.ReadSeeker, maxWidth int) ([]byte, error) {
	// Decode config first to check dimensions without full decode.
	imgCfg, _, err := image.DecodeConfig(src)
	if err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	// Check for image bombs.
	if int64(imgCfg.Width)*int64(imgCfg.Height) > maxImagePixels {
		return nil, fmt.Errorf("image too large: %dx%d exceeds %d pixels", imgCfg.Width, imgCfg.Height, maxImagePixels)
	}

	// Skip thumbnail if image is already small enough.
	if imgCfg.Width <= maxWidth {
		return nil, nil
	}

	// Seek back to start for full decode.
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek: %w", err)
	}

	img, _, err := image.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	// Calculate thumbnail dimensions preserving aspect ratio.
	bounds := img.Bounds()
	ratio := float64(maxWidth) / float64(bounds.Dx())
	newWidth := maxWidth
	newHeight := int(float64(bounds.Dy()) * ratio)

	// Resize using CatmullRom (high quality).
	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: thumbQuality}); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}

	return buf.Bytes(), nil
}

// extensionFromType returns a file extension for known MIME types.
func extensionFromType(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}
