// Package preview builds the bounded, display-only view of an uploaded CSV.
// The preview never decides what is sent for scoring; the full file is
// uploaded untouched.
package preview

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Veraticus/bounce-back/internal/common"
)

// MaxLines is the number of data line indices examined after the header.
// Blank lines inside the window still use up their index, so a preview can
// hold fewer than MaxLines rows even when the file is longer.
const MaxLines = 9

// Field is one cell of a preview row. Present is false when the line ended
// before this column and Value was defaulted to the empty string.
type Field struct {
	Value   string
	Present bool
}

// Row maps trimmed header names to cells.
type Row map[string]Field

// Get returns the cell value, or "" when the column is absent.
func (r Row) Get(header string) string {
	return r[header].Value
}

// Missing lists the headers that were defaulted for this row, in header order.
func (r Row) Missing(headers []string) []string {
	var out []string
	for _, h := range headers {
		if f, ok := r[h]; ok && !f.Present {
			out = append(out, h)
		}
	}
	return out
}

// Preview is the parsed head of a CSV file.
type Preview struct {
	Headers []string
	Rows    []Row
}

// Parse splits text on newlines and commas without quote handling. The first
// line is the header line. Data lines at indices 1 through MaxLines are
// considered; blank ones are skipped. Short lines are padded with empty,
// non-present fields and extra fields are ignored. Parse never fails.
func Parse(text string) *Preview {
	lines := strings.Split(text, "\n")
	headers := splitHeaders(strings.Split(lines[0], ","))

	p := &Preview{Headers: headers, Rows: []Row{}}
	for i := 1; i < len(lines) && i <= MaxLines; i++ {
		if strings.TrimSpace(lines[i]) == "" {
			continue
		}
		p.Rows = append(p.Rows, buildRow(headers, strings.Split(lines[i], ",")))
	}

	return p
}

// ParseQuoted is Parse with an RFC 4180 tokenizer, so quoted fields may hold
// commas and line breaks. The window is measured on the physical line where
// each record starts. Stray quotes are tolerated.
func ParseQuoted(text string) (*Preview, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return &Preview{Headers: []string{""}, Rows: []Row{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	headers := splitHeaders(header)

	p := &Preview{Headers: headers, Rows: []Row{}}
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}

		line, _ := r.FieldPos(0)
		if line-1 > MaxLines {
			break
		}
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}
		p.Rows = append(p.Rows, buildRow(headers, record))
	}

	return p, nil
}

// ReadFile validates the file name and previews the first lines of the file.
// At most MaxLines+1 lines are read, whatever the size of the file.
func ReadFile(path string, quoted bool) (*Preview, error) {
	if err := ValidateName(path); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", filepath.Base(path), err)
	}
	defer func() { _ = f.Close() }()

	head, err := readHead(f, MaxLines+1)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}

	if quoted {
		return ParseQuoted(head)
	}
	return Parse(head), nil
}

// ValidateName rejects files that do not carry the .csv suffix.
func ValidateName(path string) error {
	if path == "" || !strings.HasSuffix(path, ".csv") {
		return common.NewUserError("Please upload a CSV file", common.ErrInvalidInput)
	}
	return nil
}

// readHead returns the first n lines of r, joined with their newlines.
func readHead(r io.Reader, n int) (string, error) {
	br := bufio.NewReader(r)
	var b strings.Builder
	for i := 0; i < n; i++ {
		line, err := br.ReadString('\n')
		b.WriteString(line)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

func splitHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	for i, h := range raw {
		headers[i] = strings.TrimSpace(h)
	}
	return headers
}

func buildRow(headers, values []string) Row {
	row := make(Row, len(headers))
	for i, h := range headers {
		if i < len(values) {
			row[h] = Field{Value: strings.TrimSpace(values[i]), Present: true}
			continue
		}
		row[h] = Field{}
	}
	return row
}
