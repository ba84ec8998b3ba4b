package service

import (
	"path/filepath"
	"strings"
)

const fallbackContentType = "application/octet-stream"

// allowedMimeTypes is the upload policy: PDF, JPEG, PNG and Word documents.
var allowedMimeTypes = map[string]struct{}{
	"application/pdf":    {},
	"image/jpeg":         {},
	"image/png":          {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
}

var contentTypesByExt = map[string]string{
	".pdf":  "application/pdf",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// IsAllowedMimeType reports whether a declared MIME type may be uploaded.
func IsAllowedMimeType(mimeType string) bool {
	_, ok := allowedMimeTypes[strings.ToLower(strings.TrimSpace(mimeType))]
	return ok
}

// ContentTypeFor derives the delivery content type from a file name's extension.
func ContentTypeFor(name string) string {
	if ct, ok := contentTypesByExt[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	return fallbackContentType
}
