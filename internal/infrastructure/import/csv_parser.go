package feedimport

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// encodingSniff is how much of the decoded stream is checked for valid UTF-8.
const encodingSniff = 4096

var charsets = map[string]encoding.Encoding{
	"windows-1251": charmap.Windows1251,
	"cp1251":       charmap.Windows1251,
}

// CSVParser reads a flat price list. The first record is the header;
// column names are lower-cased and trimmed before lookup.
type CSVParser struct {
	delimiter rune
	charset   string

	reader  *csv.Reader
	columns []string
	index   map[string]int
	line    int
}

type CSVOption func(*CSVParser)

// WithDelimiter overrides the comma separator.
func WithDelimiter(d rune) CSVOption {
	return func(p *CSVParser) { p.delimiter = d }
}

// WithCharset sets the source encoding. utf-8 and windows-1251 are known.
func WithCharset(charset string) CSVOption {
	return func(p *CSVParser) { p.charset = charset }
}

// NewCSVParser decodes r to UTF-8, drops a leading BOM and checks the
// first block decodes cleanly. An empty source yields ErrEmptyFile.
func NewCSVParser(r io.Reader, opts ...CSVOption) (*CSVParser, error) {
	p := &CSVParser{delimiter: ','}
	for _, opt := range opts {
		opt(p)
	}

	src, err := toUTF8(r, p.charset)
	if err != nil {
		return nil, err
	}
	br := bufio.NewReader(src)
	if err := skipBOMAndSniff(br); err != nil {
		return nil, err
	}

	p.reader = csv.NewReader(br)
	p.reader.Comma = p.delimiter
	p.reader.LazyQuotes = true
	p.reader.TrimLeadingSpace = true
	p.reader.FieldsPerRecord = -1
	return p, nil
}

func toUTF8(r io.Reader, charset string) (io.Reader, error) {
	name := strings.ToLower(charset)
	switch name {
	case "", "utf-8", "utf8":
		return r, nil
	}
	enc, ok := charsets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedEncoding, charset)
	}
	return transform.NewReader(r, enc.NewDecoder()), nil
}

func skipBOMAndSniff(br *bufio.Reader) error {
	if head, _ := br.Peek(len(utf8BOM)); bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	block, err := br.Peek(encodingSniff)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return fmt.Errorf("failed to read feed: %w", err)
	}
	if len(block) == 0 {
		return ErrEmptyFile
	}
	// a full block may end inside a multi-byte rune
	if len(block) == encodingSniff {
		for range utf8.UTFMax - 1 {
			if utf8.Valid(block) {
				break
			}
			block = block[:len(block)-1]
		}
	}
	if !utf8.Valid(block) {
		return ErrInvalidEncoding
	}
	return nil
}

// ParseHeader consumes the header record. A header with no named column
// counts as missing.
func (p *CSVParser) ParseHeader() error {
	record, err := p.reader.Read()
	switch {
	case errors.Is(err, io.EOF):
		return ErrMissingHeader
	case err != nil:
		return fmt.Errorf("failed to read header: %w", err)
	}

	p.columns = make([]string, len(record))
	p.index = make(map[string]int, len(record))
	for i, raw := range record {
		name := strings.ToLower(strings.TrimSpace(raw))
		p.columns[i] = name
		if name != "" {
			p.index[name] = i
		}
	}
	if len(p.index) == 0 {
		return ErrMissingHeader
	}
	p.line = 1
	return nil
}

func (p *CSVParser) Headers() []string { return p.columns }

func (p *CSVParser) HasHeader(name string) bool {
	_, ok := p.index[name]
	return ok
}

// Row is one CSV record keyed by column name. Columns missing from a short
// record are absent from Data.
type Row struct {
	LineNumber int
	Data       map[string]string
}

func (r *Row) Get(column string) string { return r.Data[column] }

func (r *Row) Has(column string) bool {
	_, ok := r.Data[column]
	return ok
}

func (r *Row) IsEmpty() bool {
	for _, v := range r.Data {
		if v != "" {
			return false
		}
	}
	return true
}

// ReadRow returns io.EOF after the last record. Malformed records come back
// as a RowError carrying their line number.
func (p *CSVParser) ReadRow() (*Row, error) {
	record, err := p.reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	p.line++
	if err != nil {
		return nil, NewRowError(p.line, "", ErrCodeImportCSVParsing, err.Error())
	}

	data := make(map[string]string, len(p.index))
	for name, i := range p.index {
		if i < len(record) {
			data[name] = strings.TrimSpace(record[i])
		}
	}
	return &Row{LineNumber: p.line, Data: data}, nil
}

// ReadAllRows reads to the end, skipping blank records. Rows read before a
// malformed record are returned alongside its error.
func (p *CSVParser) ReadAllRows() ([]*Row, error) {
	var rows []*Row
	for {
		row, err := p.ReadRow()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return rows, err
		}
		if !row.IsEmpty() {
			rows = append(rows, row)
		}
	}
}

// CurrentRow is the line number of the last record read; the header is 1.
func (p *CSVParser) CurrentRow() int { return p.line }
