// Package csvio reads and writes the delimited text files that back every table.
//
// Files are UTF-8, optionally prefixed with a byte-order mark. Readers strip the
// mark and replace invalid byte sequences instead of failing, so a file saved by
// a legacy editor still loads. Writers replace files atomically.
package csvio

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"unicode/utf8"
)

// bom is the UTF-8 byte-order mark written by Windows tools.
var bom = []byte{0xEF, 0xBB, 0xBF}

// Info describes how a file was decoded.
type Info struct {
	HadBOM      bool // File started with a UTF-8 byte-order mark
	Sanitized   bool // Invalid UTF-8 sequences were replaced with U+FFFD
	RecordCount int  // Number of records including the header
}

// Decode strips a leading BOM and repairs invalid UTF-8.
func Decode(data []byte) ([]byte, Info) {
	var info Info
	if bytes.HasPrefix(data, bom) {
		data = data[len(bom):]
		info.HadBOM = true
	}
	if !utf8.Valid(data) {
		data = bytes.ToValidUTF8(data, []byte(string(utf8.RuneError)))
		info.Sanitized = true
	}
	return data, info
}

// NewReader returns a csv.Reader configured for hand-edited files:
// ragged rows are allowed and stray quotes are tolerated.
func NewReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = false
	return cr
}

// ReadRecords reads every record from r after decoding it.
// The first record is the header. Blank lines are skipped by encoding/csv.
func ReadRecords(r io.Reader) ([][]string, Info, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, Info{}, fmt.Errorf("read: %w", err)
	}

	data, info := Decode(raw)

	records, err := NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		return nil, info, fmt.Errorf("invalid csv: %w", err)
	}

	info.RecordCount = len(records)
	return records, info, nil
}
