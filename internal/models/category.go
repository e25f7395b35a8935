package models

import "strings"

// Category buckets a file by its declared content type. It is derived once at
// upload time and stored denormalized on the File record.
type Category string

const (
	CategoryDocument     Category = "document"
	CategoryImage        Category = "image"
	CategoryVideoOrAudio Category = "video-or-audio"
	CategoryOther        Category = "other"
)

// CategoryForContentType classifies a declared MIME type.
func CategoryForContentType(contentType string) Category {
	ct := strings.ToLower(contentType)
	switch {
	case strings.HasPrefix(ct, "image/"):
		return CategoryImage
	case strings.HasPrefix(ct, "video/"), strings.HasPrefix(ct, "audio/"):
		return CategoryVideoOrAudio
	case strings.Contains(ct, "pdf"), strings.Contains(ct, "word"), strings.Contains(ct, "excel"):
		return CategoryDocument
	default:
		return CategoryOther
	}
}
