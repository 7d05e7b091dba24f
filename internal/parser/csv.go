package parser

import (
	"encoding/csv"
	"errors"
	"strings"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

// ParseCSV decodes bank CSV exports of unknown provenance: the character set
// is sniffed, the delimiter is sniffed from the header line, and headers are
// lower-cased so downstream field lookups are case-insensitive.
func ParseCSV(data []byte) ([]RawRecord, error) {
	text := decodeText(data)

	firstLine := text
	if i := strings.IndexAny(text, "\r\n"); i >= 0 {
		firstLine = text[:i]
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = sniffDelimiter(firstLine)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.New("empty csv")
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.ToLower(strings.TrimSpace(stripBOM(h)))
	}

	var result []RawRecord
	for _, row := range rows[1:] {
		record := RawRecord{}
		for i, field := range row {
			if i >= len(headers) {
				break
			}
			record[headers[i]] = strings.TrimSpace(field)
		}
		if len(record) > 0 {
			result = append(result, record)
		}
	}
	return result, nil
}

// decodeText converts the file to UTF-8 using the detected character set.
// Detection failures fall back to treating the bytes as UTF-8 as-is.
func decodeText(data []byte) string {
	detector := chardet.NewTextDetector()
	best, err := detector.DetectBest(data)
	if err != nil || best == nil {
		return string(data)
	}
	enc, err := ianaindex.IANA.Encoding(best.Charset)
	if err != nil || enc == nil {
		return string(data)
	}
	decoded, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return string(data)
	}
	return string(decoded)
}

// sniffDelimiter picks the separator that occurs most often in the header
// line, defaulting to comma.
func sniffDelimiter(header string) rune {
	best := ','
	bestCount := strings.Count(header, ",")
	for _, candidate := range []string{";", "\t", "|"} {
		if count := strings.Count(header, candidate); count > bestCount {
			best = rune(candidate[0])
			bestCount = count
		}
	}
	return best
}

func stripBOM(s string) string {
	return strings.TrimPrefix(s, "\ufeff")
}
