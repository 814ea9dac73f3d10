package feedimport

import (
	"strconv"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// FieldType represents the expected type of a field
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeInt     FieldType = "int"
	TypeDecimal FieldType = "decimal"
)

// FieldRule defines validation rules for a field
type FieldRule struct {
	Column    string
	Type      FieldType
	Required  bool
	MaxLength int
	MinValue  *decimal.Decimal
}

// FieldRuleBuilder helps build field rules fluently
type FieldRuleBuilder struct {
	rule FieldRule
}

// Field creates a new field rule builder
func Field(column string) *FieldRuleBuilder {
	return &FieldRuleBuilder{
		rule: FieldRule{
			Column: column,
			Type:   TypeString,
		},
	}
}

// Required marks the field as required
func (b *FieldRuleBuilder) Required() *FieldRuleBuilder {
	b.rule.Required = true
	return b
}

// Int sets the field type to integer
func (b *FieldRuleBuilder) Int() *FieldRuleBuilder {
	b.rule.Type = TypeInt
	return b
}

// Decimal sets the field type to decimal
func (b *FieldRuleBuilder) Decimal() *FieldRuleBuilder {
	b.rule.Type = TypeDecimal
	return b
}

// MaxLength sets the maximum length in characters
func (b *FieldRuleBuilder) MaxLength(n int) *FieldRuleBuilder {
	b.rule.MaxLength = n
	return b
}

// NonNegative requires a numeric value of at least zero
func (b *FieldRuleBuilder) NonNegative() *FieldRuleBuilder {
	zero := decimal.Zero
	b.rule.MinValue = &zero
	return b
}

// Build returns the built rule
func (b *FieldRuleBuilder) Build() FieldRule {
	return b.rule
}

// FieldValidator validates rows against an ordered rule set
type FieldValidator struct {
	rules  []FieldRule
	errors *ErrorCollection
}

// NewFieldValidator creates a new field validator
func NewFieldValidator(rules []FieldRule, maxErrors int) *FieldValidator {
	return &FieldValidator{
		rules:  rules,
		errors: NewErrorCollection(maxErrors),
	}
}

// ValidateRow validates all fields in a row and reports whether it is clean
func (v *FieldValidator) ValidateRow(row *Row) bool {
	valid := true

	for _, rule := range v.rules {
		value := row.Get(rule.Column)

		if value == "" {
			if rule.Required {
				v.errors.AddRequiredError(row.LineNumber, rule.Column)
				valid = false
			}
			continue
		}

		if rule.MaxLength > 0 && utf8.RuneCountInString(value) > rule.MaxLength {
			v.errors.AddLengthError(row.LineNumber, rule.Column, rule.MaxLength)
			valid = false
			continue
		}

		switch rule.Type {
		case TypeInt:
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				v.errors.AddTypeError(row.LineNumber, rule.Column, string(rule.Type), value)
				valid = false
				continue
			}
			if rule.MinValue != nil && decimal.NewFromInt(n).LessThan(*rule.MinValue) {
				v.errors.AddRangeError(row.LineNumber, rule.Column, rule.MinValue.String(), value)
				valid = false
			}
		case TypeDecimal:
			d, err := decimal.NewFromString(value)
			if err != nil {
				v.errors.AddTypeError(row.LineNumber, rule.Column, string(rule.Type), value)
				valid = false
				continue
			}
			if rule.MinValue != nil && d.LessThan(*rule.MinValue) {
				v.errors.AddRangeError(row.LineNumber, rule.Column, rule.MinValue.String(), value)
				valid = false
			}
		}
	}

	return valid
}

// Errors returns the error collection
func (v *FieldValidator) Errors() *ErrorCollection {
	return v.errors
}

// flatRowRules validate rows of CSV and JSON feeds
func flatRowRules() []FieldRule {
	return []FieldRule{
		Field(ColumnShop).MaxLength(50).Build(),
		Field(ColumnCategory).Required().MaxLength(40).Build(),
		Field(ColumnProduct).Required().MaxLength(80).Build(),
		Field(ColumnSKU).Required().MaxLength(64).Build(),
		Field(ColumnPrice).Decimal().NonNegative().Build(),
		Field(ColumnPriceRRC).Decimal().NonNegative().Build(),
		Field(ColumnQuantity).Int().NonNegative().Build(),
	}
}

// goodRules validate goods of a structured feed
func goodRules() []FieldRule {
	return []FieldRule{
		Field("id").Required().MaxLength(64).Build(),
		Field("name").Required().MaxLength(80).Build(),
		Field("category").Required().Int().Build(),
		Field("model").MaxLength(80).Build(),
		Field("price").Decimal().NonNegative().Build(),
		Field("price_rrc").Decimal().NonNegative().Build(),
		Field("quantity").Int().NonNegative().Build(),
	}
}
