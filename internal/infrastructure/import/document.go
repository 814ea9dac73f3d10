package feedimport

import (
	"bytes"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shop/backend/internal/infrastructure/config"
	"github.com/shopspring/decimal"
)

// Format is the layout of a price-list file
type Format string

const (
	// FormatYAML is a structured feed: shop, categories and goods
	FormatYAML Format = "yaml"
	// FormatCSV is a flat feed with one offer per line
	FormatCSV Format = "csv"
	// FormatJSON is a flat feed given as a list of row objects
	FormatJSON Format = "json"
)

// IsStructured reports whether the format carries a shop/categories/goods tree
func (f Format) IsStructured() bool {
	return f == FormatYAML
}

// Flat feed columns
const (
	ColumnShop       = "shop"
	ColumnCategory   = "category"
	ColumnProduct    = "product"
	ColumnSKU        = "sku"
	ColumnPrice      = "price"
	ColumnPriceRRC   = "price_rrc"
	ColumnQuantity   = "quantity"
	ColumnParams     = "params"
	ColumnParameters = "parameters"
)

// DetectFormat chooses the feed format from the file name extension
func DetectFormat(fileName string) (Format, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".csv":
		return FormatCSV, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", ErrUnsupportedFormat
}

// Options controls feed parsing
type Options struct {
	// Charset of CSV feeds: utf-8 (default) or windows-1251
	Charset string
	// Delimiter of CSV feeds, comma by default
	Delimiter rune
	// MaxSize rejects larger inputs when positive
	MaxSize int64
	// MaxErrors caps the row errors kept in the report
	MaxErrors int
}

// OptionsFrom maps the [feed] configuration section onto parser options
func OptionsFrom(cfg config.FeedConfig) Options {
	opts := Options{
		Charset: cfg.CSVCharset,
		MaxSize: cfg.MaxSize,
	}
	if r, _ := utf8.DecodeRuneInString(cfg.CSVDelimiter); r != utf8.RuneError {
		opts.Delimiter = r
	}
	return opts
}

// Feed is a parsed structured price list
type Feed struct {
	Shop       string
	Categories []FeedCategory
	Goods      []FeedGood
}

// FeedCategory is a category declared by a structured feed with its explicit id
type FeedCategory struct {
	ID   int64
	Name string
}

// FeedGood is one offer of a structured feed
type FeedGood struct {
	Row        int
	ExternalID string
	Name       string
	CategoryID int64
	Model      string
	Price      decimal.Decimal
	PriceRRC   decimal.Decimal
	Quantity   int
	Parameters map[string]string
}

// CategoryName returns the name the feed declares for a category id
func (f *Feed) CategoryName(id int64) string {
	for _, c := range f.Categories {
		if c.ID == id {
			return c.Name
		}
	}
	return ""
}

// FlatRow is one offer of a CSV or JSON feed
type FlatRow struct {
	Row        int
	Shop       string
	Category   string
	Product    string
	SKU        string
	Price      decimal.Decimal
	PriceRRC   decimal.Decimal
	Quantity   int
	Parameters map[string]string
}

// Document is a parsed feed of any format. Exactly one of Feed and Rows is set.
type Document struct {
	Format Format
	Feed   *Feed
	Rows   []FlatRow
}

// TotalRows returns the number of offers in the document
func (d *Document) TotalRows() int {
	if d.Feed != nil {
		return len(d.Feed.Goods)
	}
	return len(d.Rows)
}

// Parse detects the format from fileName and parses data.
// Row-level problems are reported together as an *ErrorCollection.
func Parse(fileName string, data []byte, opts Options) (*Document, error) {
	format, err := DetectFormat(fileName)
	if err != nil {
		return nil, err
	}
	return ParseAs(format, data, opts)
}

// ParseAs parses data in the given format, ignoring any file name.
func ParseAs(format Format, data []byte, opts Options) (*Document, error) {
	var err error
	switch format {
	case FormatYAML, FormatCSV, FormatJSON:
	default:
		return nil, ErrUnsupportedFormat
	}
	if opts.MaxSize > 0 && int64(len(data)) > opts.MaxSize {
		return nil, ErrFileTooLarge
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyFile
	}

	doc := &Document{Format: format}
	switch format {
	case FormatYAML:
		doc.Feed, err = ParseYAMLFeed(data, opts.MaxErrors)
	case FormatCSV:
		doc.Rows, err = ParseCSVRows(data, opts)
	case FormatJSON:
		doc.Rows, err = ParseJSONRows(data, opts.MaxErrors)
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ParseCSVRows parses a flat CSV feed
func ParseCSVRows(data []byte, opts Options) ([]FlatRow, error) {
	csvOpts := []CSVOption{WithCharset(opts.Charset)}
	if opts.Delimiter != 0 {
		csvOpts = append(csvOpts, WithDelimiter(opts.Delimiter))
	}
	parser, err := NewCSVParser(bytes.NewReader(data), csvOpts...)
	if err != nil {
		return nil, err
	}
	if err := parser.ParseHeader(); err != nil {
		return nil, err
	}
	rows, err := parser.ReadAllRows()
	if err != nil {
		return nil, err
	}

	validator := NewFieldValidator(flatRowRules(), opts.MaxErrors)
	result := make([]FlatRow, 0, len(rows))
	for _, row := range rows {
		params := row.Get(ColumnParams)
		if params == "" {
			params = row.Get(ColumnParameters)
		}
		if flat, ok := buildFlatRow(validator, row, parseParamsString(params)); ok {
			result = append(result, flat)
		}
	}
	if err := validator.Errors().Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// buildFlatRow validates a row and converts it; price_rrc falls back to price
// and missing numbers are zero
func buildFlatRow(validator *FieldValidator, row *Row, params map[string]string) (FlatRow, bool) {
	if !validator.ValidateRow(row) {
		return FlatRow{}, false
	}

	flat := FlatRow{
		Row:        row.LineNumber,
		Shop:       row.Get(ColumnShop),
		Category:   row.Get(ColumnCategory),
		Product:    row.Get(ColumnProduct),
		SKU:        row.Get(ColumnSKU),
		Price:      decimalOrZero(row.Get(ColumnPrice)),
		Quantity:   intOrZero(row.Get(ColumnQuantity)),
		Parameters: params,
	}
	flat.PriceRRC = flat.Price
	if v := row.Get(ColumnPriceRRC); v != "" {
		flat.PriceRRC = decimalOrZero(v)
	}
	return flat, true
}

func decimalOrZero(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func intOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
