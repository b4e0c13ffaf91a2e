package models

import "strings"

// Format is an output document format.
type Format string

const (
	FormatXML Format = "xml"
	FormatRSS Format = "rss"
	FormatTXT Format = "txt"
)

var contentTypes = map[Format]string{
	FormatXML: "application/xml",
	FormatRSS: "application/rss+xml",
	FormatTXT: "text/plain",
}

// ContentType returns the MIME type for the format, or "" when the format
// is not recognized.
func (f Format) ContentType() string {
	return contentTypes[f]
}

// ParseFormat normalizes a format name. Unknown names are kept as-is so
// callers may register their own renderers for them.
func ParseFormat(s string) Format {
	return Format(strings.ToLower(strings.TrimSpace(s)))
}
