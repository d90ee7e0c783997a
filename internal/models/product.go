package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// ErrMissingCode marks a listing entry without a product code. Such an entry
// cannot be deduplicated or enriched, so it halts the run.
var ErrMissingCode = errors.New("product entry has no code")

// RawProductEntry is one product object as returned by the vendor listing API.
// The object is kept as-is so the sample file round-trips every vendor field.
type RawProductEntry map[string]json.RawMessage

type Category struct {
	Text *string `json:"text"`
}

type AttributeValue struct {
	Text FlexString `json:"text"`
}

type Attribute struct {
	Name   string           `json:"name"`
	Values []AttributeValue `json:"values"`
}

// FlexString decodes from either a JSON string or a JSON number.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

func (f FlexString) String() string {
	return string(f)
}

func (e RawProductEntry) decode(key string, v any) bool {
	raw, ok := e[key]
	if !ok || len(raw) == 0 || string(bytes.TrimSpace(raw)) == "null" {
		return false
	}
	return json.Unmarshal(raw, v) == nil
}

// Code returns the product code and whether the entry carries one.
func (e RawProductEntry) Code() (string, bool) {
	var code FlexString
	if !e.decode("code", &code) {
		return "", false
	}
	return code.String(), true
}

func (e RawProductEntry) Categories() []Category {
	var categories []Category
	e.decode("categories", &categories)
	return categories
}

func (e RawProductEntry) Description() string {
	var description string
	e.decode("description", &description)
	return description
}

func (e RawProductEntry) Attributes() []Attribute {
	var attributes []Attribute
	e.decode("attributes", &attributes)
	return attributes
}

func (e RawProductEntry) ImageID() string {
	var id FlexString
	e.decode("imageId", &id)
	return strings.TrimSpace(id.String())
}

type Specs struct {
	HP      []string `json:"hp"`
	Voltage []string `json:"voltage"`
	RPM     []string `json:"rpm"`
	Frame   string   `json:"frame"`
}

func (s Specs) MarshalJSON() ([]byte, error) {
	type specs Specs
	out := specs(s)
	out.HP = nonNil(out.HP)
	out.Voltage = nonNil(out.Voltage)
	out.RPM = nonNil(out.RPM)
	return json.Marshal(out)
}

type BOMItem struct {
	PartNumber  string `json:"part_number"`
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
}

// NormalizedProduct is the per-product output record.
type NormalizedProduct struct {
	ProductID   string    `json:"product_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Specs       Specs     `json:"specs"`
	BOM         []BOMItem `json:"bom"`
	Assets      Assets    `json:"assets"`
}

func (p NormalizedProduct) MarshalJSON() ([]byte, error) {
	type product NormalizedProduct
	out := product(p)
	if out.BOM == nil {
		out.BOM = []BOMItem{}
	}
	return json.Marshal(out)
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
