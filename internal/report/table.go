package report

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// ErrDecode is returned when a file parses under none of the supported
// text encodings. Terminal for that upload, never retried.
var ErrDecode = errors.New("could not decode file under any supported encoding")

// RawTable is an ordered sequence of rows keyed by the column names
// exactly as they appear in the source file. It lives only for the
// duration of classification and aggregation.
type RawTable struct {
	Columns []string
	Rows    []map[string]string
}

// Len returns the number of data rows.
func (t *RawTable) Len() int { return len(t.Rows) }

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// legacyEncodings are tried, in order, when the payload is not valid
// UTF-8. Windows-1251 covers Cyrillic partner exports.
var legacyEncodings = []*charmap.Charmap{
	charmap.Windows1252,
	charmap.ISO8859_1,
	charmap.Windows1251,
}

// ParseCSV decodes and parses a CSV payload into a RawTable. Encodings
// are tried in a fixed order; the first one under which the payload
// parses as well-formed tabular data wins.
func ParseCSV(data []byte) (*RawTable, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrDecode)
	}

	if bytes.HasPrefix(data, utf8BOM) {
		data = data[len(utf8BOM):]
	}

	if utf8.Valid(data) {
		if t, err := parseTable(string(data)); err == nil {
			return t, nil
		}
	}

	for _, cm := range legacyEncodings {
		decoded, err := decodeWith(cm.NewDecoder(), data)
		if err != nil {
			continue
		}
		if t, err := parseTable(decoded); err == nil {
			return t, nil
		}
	}

	return nil, ErrDecode
}

func decodeWith(dec *encoding.Decoder, data []byte) (string, error) {
	out, _, err := transform.Bytes(dec, data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// parseTable parses decoded CSV text. The header row is preserved
// verbatim; normalization is the column resolver's job.
func parseTable(text string) (*RawTable, error) {
	r := csv.NewReader(strings.NewReader(text))
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) == 0 {
		return nil, errors.New("empty header")
	}

	t := &RawTable{Columns: header}
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// parseNumber converts a cell to a float, tolerating currency symbols,
// thousands separators and surrounding whitespace. Unparseable cells
// count as 0 rather than failing the upload.
func parseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	s = strings.NewReplacer("$", "", ",", "", "%", "", " ", "").Replace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
