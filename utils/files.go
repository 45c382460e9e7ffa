package utils

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
)

type FileValidator struct {
	allowedExt   map[string]bool
	allowedMime  map[string]bool
	maxSize      int64
	maxVideoSize int64
}

func NewFileValidator(extensions, mimeTypes []string, maxSizeMB, maxVideoSizeMB int) *FileValidator {
	allowedExt := make(map[string]bool)
	for _, ext := range extensions {
		if ext = strings.TrimSpace(strings.ToLower(ext)); ext != "" {
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			allowedExt[ext] = true
		}
	}

	allowedMime := make(map[string]bool)
	for _, m := range mimeTypes {
		if m = strings.TrimSpace(strings.ToLower(m)); m != "" {
			allowedMime[m] = true
		}
	}

	if maxSizeMB <= 0 {
		maxSizeMB = 5
	}
	if maxVideoSizeMB < maxSizeMB {
		maxVideoSizeMB = maxSizeMB
	}

	return &FileValidator{
		allowedExt:   allowedExt,
		allowedMime:  allowedMime,
		maxSize:      int64(maxSizeMB) << 20,
		maxVideoSize: int64(maxVideoSizeMB) << 20,
	}
}

var videoExtensions = map[string]bool{".mp4": true, ".mov": true, ".webm": true, ".mkv": true, ".avi": true}

// IsVideo looks at both the sniffed MIME type and the extension; containers such as .mov
// are sniffed as application/octet-stream.
func IsVideo(fileName, mimeType string) bool {
	return strings.HasPrefix(mimeType, "video/") || videoExtensions[strings.ToLower(filepath.Ext(fileName))]
}

// ValidateFile checks extension, size and the sniffed content type; it returns the sniffed type.
func (v *FileValidator) ValidateFile(fileHeader *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !v.allowedExt[ext] {
		return "", fmt.Errorf("invalid file extension")
	}

	limit := v.maxSize
	if videoExtensions[ext] {
		limit = v.maxVideoSize
	}
	if fileHeader.Size > limit {
		return "", fmt.Errorf("file too large (max %d MB)", limit>>20)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", err
	}
	defer file.Close()

	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && n == 0 {
		return "", fmt.Errorf("failed to read file header")
	}

	detectedMime := strings.ToLower(http.DetectContentType(buffer[:n]))
	if i := strings.Index(detectedMime, ";"); i >= 0 {
		detectedMime = strings.TrimSpace(detectedMime[:i])
	}
	if !v.allowedMime[detectedMime] {
		return "", fmt.Errorf("invalid file type")
	}

	return detectedMime, nil
}
