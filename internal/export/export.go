// file: internal/export/export.go
// version: 1.0.0
// guid: e47e9dfd-7543-4e17-8304-200297eeb7c3

// Package export writes catalog collections as CSV or NDJSON downloads.
//
// The CSV dialect matches what the admin dashboard has always produced: the
// header is the JSON keys of the first record in declaration order, each cell
// is the JSON encoding of the value (nulls become ""), and lines are joined
// with CRLF without a trailing terminator.
package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jdfalk/cliqbook/internal/models"
)

// Formats.
const (
	FormatCSV    = "csv"
	FormatNDJSON = "ndjson"
)

// ErrNoData is returned when there is nothing to export.
var ErrNoData = errors.New("no data to export")

// ContentType returns the MIME type of a format.
func ContentType(format string) string {
	if format == FormatNDJSON {
		return "application/x-ndjson"
	}
	return "text/csv; charset=utf-8"
}

// Books writes the book collection in format.
func Books(w io.Writer, format string, books []models.Book) error {
	return Write(w, format, books)
}

// Users writes the user collection in format. Password hashes are stripped
// even when the caller passes full records.
func Users(w io.Writer, format string, users []models.User) error {
	public := make([]models.User, len(users))
	for i, u := range users {
		public[i] = u.Public()
	}
	return Write(w, format, public)
}

// Write encodes records in format.
func Write[T any](w io.Writer, format string, records []T) error {
	switch format {
	case FormatCSV, "":
		return WriteCSV(w, records)
	case FormatNDJSON:
		return WriteNDJSON(w, records)
	default:
		return fmt.Errorf("unsupported export format: %s", format)
	}
}

// WriteNDJSON writes one JSON document per line.
func WriteNDJSON[T any](w io.Writer, records []T) error {
	if len(records) == 0 {
		return ErrNoData
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for i := range records {
		if err := enc.Encode(records[i]); err != nil {
			return fmt.Errorf("encode record %d: %w", i, err)
		}
	}
	return nil
}

// WriteCSV writes records as CSV. Records must encode to JSON objects.
func WriteCSV[T any](w io.Writer, records []T) error {
	if len(records) == 0 {
		return ErrNoData
	}

	rows := make([]map[string]json.RawMessage, len(records))
	var header []string
	for i := range records {
		raw, err := marshal(records[i])
		if err != nil {
			return fmt.Errorf("encode record %d: %w", i, err)
		}
		if i == 0 {
			if header, err = objectKeys(raw); err != nil {
				return err
			}
		}
		if err := json.Unmarshal(raw, &rows[i]); err != nil {
			return fmt.Errorf("decode record %d: %w", i, err)
		}
	}

	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, strings.Join(header, ","))
	for _, row := range rows {
		cells := make([]string, len(header))
		for j, key := range header {
			v, ok := row[key]
			if !ok {
				continue
			}
			cell, err := cellValue(v)
			if err != nil {
				return fmt.Errorf("encode field %s: %w", key, err)
			}
			cells[j] = cell
		}
		lines = append(lines, strings.Join(cells, ","))
	}
	_, err := io.WriteString(w, strings.Join(lines, "\r\n"))
	return err
}

func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// objectKeys returns the top-level keys of a JSON object in document order.
func objectKeys(raw []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("export record is not a JSON object")
	}
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		keys = append(keys, tok.(string))
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

// cellValue JSON-encodes v with every null replaced by an empty string.
func cellValue(v json.RawMessage) (string, error) {
	if !bytes.Contains(v, []byte("null")) {
		return string(v), nil
	}
	dec := json.NewDecoder(bytes.NewReader(v))
	dec.UseNumber()
	var decoded any
	if err := dec.Decode(&decoded); err != nil {
		return "", err
	}
	out, err := marshal(replaceNulls(decoded))
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func replaceNulls(v any) any {
	switch t := v.(type) {
	case nil:
		return ""
	case []any:
		for i := range t {
			t[i] = replaceNulls(t[i])
		}
		return t
	case map[string]any:
		for k := range t {
			t[k] = replaceNulls(t[k])
		}
		return t
	default:
		return v
	}
}
