package feedimport

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

type yamlFeed struct {
	Shop       string         `yaml:"shop"`
	Categories []yamlCategory `yaml:"categories"`
	Goods      []yamlGood     `yaml:"goods"`
}

type yamlCategory struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// yamlGood keeps scalars as text; yaml.v3 decodes any scalar into a string field.
// Parameter values may be any node and are flattened by paramText.
type yamlGood struct {
	ID         string               `yaml:"id"`
	Name       string               `yaml:"name"`
	Category   string               `yaml:"category"`
	Model      string               `yaml:"model"`
	Price      string               `yaml:"price"`
	PriceRRC   string               `yaml:"price_rrc"`
	Quantity   string               `yaml:"quantity"`
	Parameters map[string]yaml.Node `yaml:"parameters"`
}

// paramText renders a parameter value the way the JSON feed does: scalars
// as written, null as empty, sequences and mappings as compact JSON.
func paramText(n *yaml.Node) string {
	if n.Kind == yaml.ScalarNode {
		if n.ShortTag() == "!!null" {
			return ""
		}
		return n.Value
	}
	var v any
	if err := n.Decode(&v); err != nil {
		return n.Value
	}
	return stringify(v)
}

// ParseYAMLFeed parses a structured feed. Missing numbers are zero and a
// missing model is empty.
func ParseYAMLFeed(data []byte, maxErrors int) (*Feed, error) {
	var raw yamlFeed
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%s: invalid YAML: %w", ErrCodeImportInvalidFile, err)
	}

	validator := NewFieldValidator(goodRules(), maxErrors)
	errs := validator.Errors()
	if raw.Shop == "" {
		errs.AddRequiredError(0, "shop")
	} else if utf8.RuneCountInString(raw.Shop) > 50 {
		errs.AddLengthError(0, "shop", 50)
	}

	feed := &Feed{
		Shop:       raw.Shop,
		Categories: make([]FeedCategory, 0, len(raw.Categories)),
		Goods:      make([]FeedGood, 0, len(raw.Goods)),
	}
	for i, c := range raw.Categories {
		id, err := strconv.ParseInt(strings.TrimSpace(c.ID), 10, 64)
		if err != nil || id <= 0 || c.Name == "" {
			errs.Add(NewRowError(i+1, "categories", ErrCodeImportRequiredField, "category needs a positive id and a name"))
			continue
		}
		feed.Categories = append(feed.Categories, FeedCategory{ID: id, Name: c.Name})
	}

	for i, g := range raw.Goods {
		row := &Row{
			LineNumber: i + 1,
			Data: map[string]string{
				"id":        g.ID,
				"name":      g.Name,
				"model":     g.Model,
				"price":     g.Price,
				"price_rrc": g.PriceRRC,
				"quantity":  g.Quantity,
			},
		}
		// zero counts as missing; anything unparsable is left for the Int rule
		category := strings.TrimSpace(g.Category)
		categoryID, err := strconv.ParseInt(category, 10, 64)
		if err != nil || categoryID > 0 {
			row.Data["category"] = category
		}
		if !validator.ValidateRow(row) {
			continue
		}

		params := make(map[string]string, len(g.Parameters))
		for name, node := range g.Parameters {
			params[name] = paramText(&node)
		}
		feed.Goods = append(feed.Goods, FeedGood{
			Row:        row.LineNumber,
			ExternalID: g.ID,
			Name:       g.Name,
			CategoryID: categoryID,
			Model:      g.Model,
			Price:      decimalOrZero(g.Price),
			PriceRRC:   decimalOrZero(g.PriceRRC),
			Quantity:   intOrZero(g.Quantity),
			Parameters: params,
		})
	}

	if err := errs.Err(); err != nil {
		return nil, err
	}
	return feed, nil
}
