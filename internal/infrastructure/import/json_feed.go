package feedimport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ParseJSONRows parses a flat JSON feed: either a list of row objects or an
// object holding the list under "items" or "products"
func ParseJSONRows(data []byte, maxErrors int) ([]FlatRow, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%s: invalid JSON: %w", ErrCodeImportInvalidFile, err)
	}

	var items []any
	switch v := doc.(type) {
	case []any:
		items = v
	case map[string]any:
		items = firstList(v, "items", "products")
	default:
		return nil, fmt.Errorf("%s: expected a list of rows", ErrCodeImportInvalidFile)
	}

	validator := NewFieldValidator(flatRowRules(), maxErrors)
	result := make([]FlatRow, 0, len(items))
	for i, item := range items {
		line := i + 1
		obj, ok := item.(map[string]any)
		if !ok {
			validator.Errors().Add(NewRowError(line, "", ErrCodeImportMalformedRow, "row is not an object"))
			continue
		}

		row := &Row{LineNumber: line, Data: make(map[string]string, len(obj))}
		for key, value := range obj {
			if key == ColumnParams || key == ColumnParameters {
				continue
			}
			row.Data[key] = stringify(value)
		}

		params := obj[ColumnParams]
		if isEmptyValue(params) {
			params = obj[ColumnParameters]
		}
		if flat, ok := buildFlatRow(validator, row, paramsFromValue(params)); ok {
			result = append(result, flat)
		}
	}
	if err := validator.Errors().Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// firstList returns the first non-empty list found under keys
func firstList(obj map[string]any, keys ...string) []any {
	for _, key := range keys {
		if list, ok := obj[key].([]any); ok && len(list) > 0 {
			return list
		}
	}
	return nil
}

// paramsFromValue accepts an object or a string holding a JSON object.
// Anything else, including malformed JSON, yields no parameters.
func paramsFromValue(v any) map[string]string {
	switch p := v.(type) {
	case map[string]any:
		params := make(map[string]string, len(p))
		for name, value := range p {
			params[name] = stringify(value)
		}
		return params
	case string:
		return parseParamsString(p)
	}
	return map[string]string{}
}

// parseParamsString decodes a JSON object of parameters
func parseParamsString(s string) map[string]string {
	if s == "" {
		return map[string]string{}
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return map[string]string{}
	}
	return paramsFromValue(obj)
}

func isEmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case map[string]any:
		return len(t) == 0
	}
	return false
}

// stringify coerces a decoded JSON value to its text form
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
