package constants

import "strings"

// FileCategory is the coarse file classification used to pick a processor.
type FileCategory string

const (
	PDF   FileCategory = "PDF"
	IMAGE FileCategory = "IMAGE"
	EXCEL FileCategory = "EXCEL"
)

// SupportedImageExts holds the image extensions the OCR paths accept.
var SupportedImageExts = map[string]struct{}{
	"png":  {},
	"jpg":  {},
	"jpeg": {},
	"tiff": {},
	"bmp":  {},
	"gif":  {},
	"webp": {},
	"avif": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToCategory maps a file extension to a category. Returns "" for
// unsupported extensions.
func MapExtToCategory(ext string) FileCategory {
	ext = NormalizeExt(ext)
	switch {
	case ext == "pdf":
		return PDF
	case ext == "xlsx" || ext == "xls":
		return EXCEL
	default:
		if _, ok := SupportedImageExts[ext]; ok {
			return IMAGE
		}
		return ""
	}
}

// MimeType returns the MIME type for a file extension, falling back to
// application/octet-stream.
func MimeType(ext string) string {
	switch NormalizeExt(ext) {
	case "pdf":
		return "application/pdf"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "tiff":
		return "image/tiff"
	case "bmp":
		return "image/bmp"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	case "avif":
		return "image/avif"
	default:
		return "application/octet-stream"
	}
}
