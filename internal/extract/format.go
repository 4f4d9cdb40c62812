package extract

import (
	"path/filepath"
	"strings"
)

// Format is the closed set of upload formats the extractor understands.
// Unknown extensions map to FormatUnsupported; the extension itself is kept
// on the Document for diagnostics.
type Format int

const (
	FormatText Format = iota
	FormatPDF
	FormatDocx
	FormatXLSX
	FormatODS
	FormatCSV
	FormatPPTX
	FormatImage
	FormatMedia
	FormatUnsupported
)

func (f Format) String() string {
	switch f {
	case FormatText:
		return "text"
	case FormatPDF:
		return "pdf"
	case FormatDocx:
		return "docx"
	case FormatXLSX:
		return "xlsx"
	case FormatODS:
		return "ods"
	case FormatCSV:
		return "csv"
	case FormatPPTX:
		return "pptx"
	case FormatImage:
		return "image"
	case FormatMedia:
		return "media"
	default:
		return "unsupported"
	}
}

// Document is one uploaded file held in memory for the duration of a query.
type Document struct {
	Name   string
	Format Format
	Ext    string
	Data   []byte
}

// NewDocument detects the format from the filename and wraps the raw bytes.
func NewDocument(filename string, data []byte) Document {
	format, ext := DetectFormat(filename)
	return Document{Name: filename, Format: format, Ext: ext, Data: data}
}

// DetectFormat maps a filename extension to a Format. The lowercased
// extension is returned alongside for placeholder messages.
func DetectFormat(filename string) (Format, string) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt", ".md", ".text", ".log":
		return FormatText, ext
	case ".pdf":
		return FormatPDF, ext
	case ".docx":
		return FormatDocx, ext
	case ".xlsx":
		return FormatXLSX, ext
	case ".ods":
		return FormatODS, ext
	case ".csv", ".tsv":
		return FormatCSV, ext
	case ".pptx":
		return FormatPPTX, ext
	case ".png", ".jpg", ".jpeg", ".gif":
		return FormatImage, ext
	case ".mp3", ".wav", ".ogg", ".mp4", ".avi", ".mkv", ".mov":
		return FormatMedia, ext
	default:
		return FormatUnsupported, ext
	}
}
