package feedimport

import (
	"errors"
	"testing"

	"github.com/shop/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exampleFeed = `
shop: S
categories:
  - id: 1
    name: C
goods:
  - id: 5
    name: P
    category: 1
    price: 100
    price_rrc: 120
    quantity: 3
    parameters:
      color: red
      "Диагональ (дюйм)": 6.1
`

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name   string
		want   Format
		wantOK bool
	}{
		{"feed.yaml", FormatYAML, true},
		{"FEED.YML", FormatYAML, true},
		{"prices.csv", FormatCSV, true},
		{"prices.json", FormatJSON, true},
		{"prices.xlsx", "", false},
		{"noext", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectFormat(tt.name)
			if !tt.wantOK {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_YAML(t *testing.T) {
	doc, err := Parse("shop1.yaml", []byte(exampleFeed), Options{})
	require.NoError(t, err)
	require.NotNil(t, doc.Feed)
	assert.Equal(t, FormatYAML, doc.Format)
	assert.Equal(t, 1, doc.TotalRows())

	feed := doc.Feed
	assert.Equal(t, "S", feed.Shop)
	assert.Equal(t, []FeedCategory{{ID: 1, Name: "C"}}, feed.Categories)
	assert.Equal(t, "C", feed.CategoryName(1))
	assert.Equal(t, "", feed.CategoryName(2))

	good := feed.Goods[0]
	assert.Equal(t, "5", good.ExternalID)
	assert.Equal(t, "P", good.Name)
	assert.Equal(t, int64(1), good.CategoryID)
	assert.Equal(t, "", good.Model)
	assert.Equal(t, "100", good.Price.String())
	assert.Equal(t, "120", good.PriceRRC.String())
	assert.Equal(t, 3, good.Quantity)
	assert.Equal(t, map[string]string{"color": "red", "Диагональ (дюйм)": "6.1"}, good.Parameters)
}

func TestParse_YAMLDefaultsAndErrors(t *testing.T) {
	t.Run("missing numbers default to zero", func(t *testing.T) {
		doc, err := Parse("f.yml", []byte("shop: S\ngoods:\n  - id: 1\n    name: P\n    category: 2\n"), Options{})
		require.NoError(t, err)
		good := doc.Feed.Goods[0]
		assert.True(t, good.Price.IsZero())
		assert.True(t, good.PriceRRC.IsZero())
		assert.Equal(t, 0, good.Quantity)
		assert.Empty(t, good.Parameters)
	})

	t.Run("row errors are collected", func(t *testing.T) {
		input := "shop: S\ngoods:\n  - id: 1\n    name: P\n    category: 2\n    price: -5\n  - name: Q\n    category: 2\n    quantity: many\n"
		_, err := Parse("f.yaml", []byte(input), Options{})
		require.Error(t, err)

		var collection *ErrorCollection
		require.True(t, errors.As(err, &collection))
		assert.Equal(t, 3, collection.TotalCount())
		assert.Equal(t, 1, collection.FirstRow())
		assert.Equal(t, ErrCodeImportInvalidRange, collection.Errors()[0].Code)
		assert.Equal(t, ErrCodeImportRequiredField, collection.Errors()[1].Code)
		assert.Equal(t, ErrCodeImportInvalidType, collection.Errors()[2].Code)
	})

	t.Run("shop is required", func(t *testing.T) {
		_, err := Parse("f.yaml", []byte("goods: []\n"), Options{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "field 'shop' is required")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Parse("f.yaml", []byte("shop: [unterminated"), Options{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), ErrCodeImportInvalidFile)
	})
}

func TestParse_YAMLParameterValues(t *testing.T) {
	input := `
shop: S
categories:
  - id: "1"
    name: C
goods:
  - id: 7
    name: P
    category: "1"
    parameters:
      color: red
      sizes: [S, M]
      wifi: true
      dims: {w: 10}
      note: ~
`
	doc, err := Parse("f.yaml", []byte(input), Options{})
	require.NoError(t, err)
	require.Len(t, doc.Feed.Goods, 1)
	assert.Equal(t, []FeedCategory{{ID: 1, Name: "C"}}, doc.Feed.Categories)

	good := doc.Feed.Goods[0]
	assert.Equal(t, int64(1), good.CategoryID)
	assert.Equal(t, map[string]string{
		"color": "red",
		"sizes": `["S","M"]`,
		"wifi":  "true",
		"dims":  `{"w":10}`,
		"note":  "",
	}, good.Parameters)

	// the same values through the JSON reader come out identical
	jsonDoc, err := Parse("f.json", []byte(`[{"category":"C","product":"P","sku":"7","params":{"color":"red","sizes":["S","M"],"wifi":true,"dims":{"w":10},"note":null}}]`), Options{})
	require.NoError(t, err)
	require.Len(t, jsonDoc.Rows, 1)
	assert.Equal(t, good.Parameters, jsonDoc.Rows[0].Parameters)
}

func TestParse_YAMLCategoryMustBeNumeric(t *testing.T) {
	_, err := Parse("f.yaml", []byte("shop: S\ngoods:\n  - id: 1\n    name: P\n    category: phones\n"), Options{})
	require.Error(t, err)

	var collection *ErrorCollection
	require.True(t, errors.As(err, &collection))
	assert.Equal(t, ErrCodeImportInvalidType, collection.Errors()[0].Code)
}

func TestParse_CSV(t *testing.T) {
	input := "shop,category,product,sku,price,price_rrc,quantity,params\n" +
		"S,Phones,Phone,p-1,100,,2,\"{\"\"color\"\":\"\"red\"\",\"\"ram\"\":8}\"\n" +
		"S,Phones,Cable,c-1,,,,not-json\n"

	doc, err := Parse("prices.csv", []byte(input), Options{})
	require.NoError(t, err)
	require.Len(t, doc.Rows, 2)

	phone := doc.Rows[0]
	assert.Equal(t, 2, phone.Row)
	assert.Equal(t, "S", phone.Shop)
	assert.Equal(t, "Phones", phone.Category)
	assert.Equal(t, "p-1", phone.SKU)
	assert.Equal(t, "100", phone.Price.String())
	assert.Equal(t, "100", phone.PriceRRC.String(), "price_rrc defaults to price")
	assert.Equal(t, 2, phone.Quantity)
	assert.Equal(t, map[string]string{"color": "red", "ram": "8"}, phone.Parameters)

	cable := doc.Rows[1]
	assert.True(t, cable.Price.IsZero())
	assert.Equal(t, 0, cable.Quantity)
	assert.Empty(t, cable.Parameters, "malformed params become an empty set")
}

func TestParse_CSVRowErrors(t *testing.T) {
	input := "category,product,sku,price\nPhones,Phone,,abc\n"
	_, err := Parse("prices.csv", []byte(input), Options{})

	var collection *ErrorCollection
	require.True(t, errors.As(err, &collection))
	require.Equal(t, 2, collection.Count())
	assert.Equal(t, RowError{Row: 2, Column: "sku", Code: ErrCodeImportRequiredField, Message: "field 'sku' is required"}, collection.Errors()[0])
	assert.Equal(t, "price", collection.Errors()[1].Column)
}

func TestParse_JSON(t *testing.T) {
	t.Run("list of rows", func(t *testing.T) {
		input := `[{"shop":"S","category":"Phones","product":"Phone","sku":17,"price":99.5,"quantity":4,"params":{"color":"black","nfc":true}}]`
		doc, err := Parse("prices.json", []byte(input), Options{})
		require.NoError(t, err)
		require.Len(t, doc.Rows, 1)

		row := doc.Rows[0]
		assert.Equal(t, "17", row.SKU)
		assert.Equal(t, "99.5", row.Price.String())
		assert.Equal(t, "99.5", row.PriceRRC.String())
		assert.Equal(t, 4, row.Quantity)
		assert.Equal(t, map[string]string{"color": "black", "nfc": "true"}, row.Parameters)
	})

	t.Run("object with items", func(t *testing.T) {
		input := `{"items":[{"category":"C","product":"P","sku":"x","parameters":"{\"size\":\"L\"}"}]}`
		doc, err := Parse("prices.json", []byte(input), Options{})
		require.NoError(t, err)
		require.Len(t, doc.Rows, 1)
		assert.Equal(t, map[string]string{"size": "L"}, doc.Rows[0].Parameters)
	})

	t.Run("object with products", func(t *testing.T) {
		input := `{"products":[{"category":"C","product":"P","sku":"x"}]}`
		doc, err := Parse("prices.json", []byte(input), Options{})
		require.NoError(t, err)
		assert.Len(t, doc.Rows, 1)
	})

	t.Run("object without rows is empty", func(t *testing.T) {
		doc, err := Parse("prices.json", []byte(`{"other":1}`), Options{})
		require.NoError(t, err)
		assert.Equal(t, 0, doc.TotalRows())
	})

	t.Run("non-object row", func(t *testing.T) {
		_, err := Parse("prices.json", []byte(`[1]`), Options{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "row is not an object")
	})
}

func TestParse_Guards(t *testing.T) {
	_, err := Parse("prices.xml", []byte("<x/>"), Options{})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Parse("prices.csv", []byte("   "), Options{})
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, err = Parse("prices.csv", []byte("shop,sku\nS,1\n"), Options{MaxSize: 4})
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestParseAs(t *testing.T) {
	doc, err := ParseAs(FormatYAML, []byte(exampleFeed), Options{})
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, doc.Format)
	assert.Equal(t, 1, doc.TotalRows())

	_, err = ParseAs(Format("xml"), []byte("<x/>"), Options{})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestOptionsFrom(t *testing.T) {
	opts := OptionsFrom(config.FeedConfig{CSVCharset: "windows-1251", CSVDelimiter: ";", MaxSize: 1024})
	assert.Equal(t, Options{Charset: "windows-1251", Delimiter: ';', MaxSize: 1024}, opts)

	assert.Zero(t, OptionsFrom(config.FeedConfig{}).Delimiter)
}
