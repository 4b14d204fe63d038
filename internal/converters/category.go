package converters

import (
	"path/filepath"
	"strings"
)

// Category is the coarse routing class for an input file.
type Category string

const (
	CategoryDocument    Category = "document"
	CategoryPDF         Category = "pdf"
	CategoryImage       Category = "image"
	CategoryText        Category = "text"
	CategoryEmail       Category = "email"
	CategoryUnsupported Category = "unsupported"
)

var documentExtensions = map[string]struct{}{
	".doc": {}, ".docx": {}, ".rtf": {}, ".odt": {},
	".xls": {}, ".xlsx": {}, ".ods": {},
	".ppt": {}, ".pptx": {}, ".odp": {},
}

var imageExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {},
	".bmp": {}, ".tiff": {}, ".tif": {},
}

var textExtensions = map[string]struct{}{
	".txt": {}, ".md": {}, ".csv": {}, ".json": {}, ".xml": {},
	".html": {}, ".css": {}, ".js": {}, ".py": {}, ".c": {},
	".cpp": {}, ".java": {}, ".go": {}, ".rb": {}, ".sh": {},
}

// Detect classifies a path by its extension alone. Content sniffing is
// deliberately out of scope; misnamed files fail at conversion time and
// produce an error artifact like any other failure.
func Detect(path string) Category {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case ext == ".eml":
		return CategoryEmail
	case ext == ".pdf":
		return CategoryPDF
	default:
	}
	if _, ok := documentExtensions[ext]; ok {
		return CategoryDocument
	}
	if _, ok := imageExtensions[ext]; ok {
		return CategoryImage
	}
	if _, ok := textExtensions[ext]; ok {
		return CategoryText
	}
	return CategoryUnsupported
}

// MIMEType returns the upload media type for categories that are sent to the
// hosted API as raw bytes. Empty for everything else.
func MIMEType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".bmp":
		return "image/bmp"
	case ".tiff", ".tif":
		return "image/tiff"
	case ".webp":
		return "image/webp"
	default:
		return ""
	}
}
