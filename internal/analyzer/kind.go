package analyzer

import (
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Kind is the analyzer branch an attachment is routed to.
type Kind int

const (
	KindUnsupported Kind = iota
	KindDocument
	KindImage
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindDocument:
		return "document"
	case KindImage:
		return "image"
	case KindText:
		return "text"
	default:
		return "unsupported"
	}
}

var imageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true,
	".bmp": true, ".tif": true, ".tiff": true, ".heic": true,
}

var textExtensions = map[string]bool{
	".txt": true, ".md": true, ".csv": true, ".json": true, ".log": true,
}

// Detect picks the branch for a file: PDF first, then image, then anything
// that reads as text.
func Detect(name, mimeType string, data []byte) Kind {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	ext := strings.ToLower(filepath.Ext(name))

	switch {
	case mimeType == "application/pdf" || ext == ".pdf":
		return KindDocument
	case strings.HasPrefix(mimeType, "image/") || imageExtensions[ext]:
		return KindImage
	case strings.HasPrefix(mimeType, "text/") || textExtensions[ext]:
		return KindText
	case utf8.Valid(data) && strings.TrimSpace(string(data)) != "":
		return KindText
	default:
		return KindUnsupported
	}
}

// ImageMIMEType returns the media type to send with an image: the declared
// type when it is an image type, else the one implied by the extension, else
// the one sniffed from the bytes.
func ImageMIMEType(name, declared string, data []byte) string {
	if t := mediaType(declared); strings.HasPrefix(t, "image/") {
		return t
	}

	ext := strings.ToLower(filepath.Ext(name))
	if t := mediaType(mime.TypeByExtension(ext)); strings.HasPrefix(t, "image/") {
		return t
	}
	if t := mediaType(http.DetectContentType(data)); strings.HasPrefix(t, "image/") {
		return t
	}

	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".tif":
		return "image/tiff"
	case "":
		return "image/png"
	default:
		return "image/" + strings.TrimPrefix(ext, ".")
	}
}

func mediaType(t string) string {
	t, _, _ = strings.Cut(t, ";")
	return strings.ToLower(strings.TrimSpace(t))
}
