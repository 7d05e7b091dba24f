package parser

import (
	"errors"
	"path/filepath"
	"strings"
)

// ErrUnsupported is returned for file types the pipeline does not parse.
var ErrUnsupported = errors.New("unsupported file type")

// RawRecord is one statement row before canonicalization, keyed by
// lower-cased header name.
type RawRecord map[string]string

// Parse dispatches on the file extension and returns raw statement rows.
func Parse(data []byte, filename string) ([]RawRecord, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return ParseCSV(data)
	case ".ofx", ".qfx":
		return ParseOFX(data)
	default:
		return nil, ErrUnsupported
	}
}
