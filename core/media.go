package core

import (
	"fmt"
	"path/filepath"
	"strings"
)

// MediaType is the IANA media type of a document or binary payload.
type MediaType string

const (
	MediaTypeUnknown MediaType = ""
	MediaTypePDF     MediaType = "application/pdf"
	MediaTypeJPEG    MediaType = "image/jpeg"
	MediaTypePNG     MediaType = "image/png"
	MediaTypeCSV     MediaType = "text/csv"
	MediaTypeXLS     MediaType = "application/vnd.ms-excel"
	MediaTypeXLSX    MediaType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var knownMediaTypes = map[MediaType]bool{
	MediaTypePDF:  true,
	MediaTypeJPEG: true,
	MediaTypePNG:  true,
	MediaTypeCSV:  true,
	MediaTypeXLS:  true,
	MediaTypeXLSX: true,
}

var extensionMediaTypes = map[string]MediaType{
	".pdf":  MediaTypePDF,
	".jpg":  MediaTypeJPEG,
	".jpeg": MediaTypeJPEG,
	".png":  MediaTypePNG,
	".csv":  MediaTypeCSV,
	".xls":  MediaTypeXLS,
	".xlsx": MediaTypeXLSX,
}

// ParseMediaType normalizes s (case, parameters) and returns the matching supported type.
func ParseMediaType(s string) (MediaType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if i := strings.IndexByte(s, ';'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	mt := MediaType(s)
	if !knownMediaTypes[mt] {
		return MediaTypeUnknown, fmt.Errorf("%w: %q", ErrUnsupportedMediaType, s)
	}
	return mt, nil
}

// MediaTypeFromFilename maps a file extension to a supported media type.
func MediaTypeFromFilename(name string) (MediaType, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if mt, ok := extensionMediaTypes[ext]; ok {
		return mt, nil
	}
	return MediaTypeUnknown, fmt.Errorf("%w: extension %q", ErrUnsupportedMediaType, ext)
}

// IsImage reports whether the media type is a raster image.
func (mt MediaType) IsImage() bool {
	return mt == MediaTypeJPEG || mt == MediaTypePNG
}

// IsSpreadsheet reports whether the media type is a legacy or OOXML workbook.
func (mt MediaType) IsSpreadsheet() bool {
	return mt == MediaTypeXLS || mt == MediaTypeXLSX
}

func (mt MediaType) String() string {
	if mt == MediaTypeUnknown {
		return "unknown"
	}
	return string(mt)
}
