package constants

import "strings"

// Document formats understood by the text extractor.
const (
	PDF  = "PDF"
	DOCX = "DOCX"
	DOC  = "DOC"
	TXT  = "TXT"
)

// FileTypes holds the formats a syllabus upload may be stored as.
var FileTypes = []string{PDF, DOCX, DOC, TXT}

// MaxUploadMBDefault caps a single syllabus upload.
const MaxUploadMBDefault = 10

// AllowedExtensions holds the extensions accepted by the upload path.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"docx": {},
	"doc":  {},
	"txt":  {},
}

const DocxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// AllowedContentTypes gates uploads before any bytes hit the disk.
var AllowedContentTypes = map[string]string{
	"application/pdf":    PDF,
	DocxContentType:      DOCX,
	"application/msword": DOC,
	"text/plain":         TXT,
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat returns the document format for an extension, or "" when unknown.
func MapExtToFormat(ext string) string {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	case "docx":
		return DOCX
	case "doc":
		return DOC
	case "txt", "text", "md":
		return TXT
	default:
		return ""
	}
}

// FormatForContentType strips parameters (e.g. "; charset=utf-8") before the lookup.
func FormatForContentType(contentType string) (string, bool) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	f, ok := AllowedContentTypes[ct]
	return f, ok
}

// ExtForFormat is used when naming temp files for uploads.
func ExtForFormat(format string) string {
	switch format {
	case PDF:
		return ".pdf"
	case DOCX:
		return ".docx"
	case DOC:
		return ".doc"
	default:
		return ".txt"
	}
}
