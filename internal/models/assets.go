package models

import "encoding/json"

type AssetCategory string

const (
	DimensionSheet    AssetCategory = "DimensionSheet"
	ConnectionDiagram AssetCategory = "ConnectionDiagram"
	Literature        AssetCategory = "Literature"
)

// AssetCategories lists the drawing kinds that are downloaded, in output order.
var AssetCategories = []AssetCategory{DimensionSheet, ConnectionDiagram, Literature}

func ParseAssetCategory(kind string) (AssetCategory, bool) {
	for _, c := range AssetCategories {
		if string(c) == kind {
			return c, true
		}
	}
	return "", false
}

// Drawing is one entry of a product's drawings manifest.
type Drawing struct {
	Kind   string     `json:"kind"`
	Number FlexString `json:"number"`
}

// Assets maps each drawing category to saved file paths, plus the product image URL.
// All three category keys are always encoded, empty or not.
type Assets struct {
	DimensionSheet    []string `json:"DimensionSheet"`
	ConnectionDiagram []string `json:"ConnectionDiagram"`
	Literature        []string `json:"Literature"`
	Image             string   `json:"image"`
}

func NewAssets(image string) Assets {
	return Assets{
		DimensionSheet:    []string{},
		ConnectionDiagram: []string{},
		Literature:        []string{},
		Image:             image,
	}
}

func (a *Assets) Add(category AssetCategory, path string) {
	switch category {
	case DimensionSheet:
		a.DimensionSheet = append(a.DimensionSheet, path)
	case ConnectionDiagram:
		a.ConnectionDiagram = append(a.ConnectionDiagram, path)
	case Literature:
		a.Literature = append(a.Literature, path)
	}
}

func (a Assets) Paths(category AssetCategory) []string {
	switch category {
	case DimensionSheet:
		return nonNil(a.DimensionSheet)
	case ConnectionDiagram:
		return nonNil(a.ConnectionDiagram)
	case Literature:
		return nonNil(a.Literature)
	}
	return nil
}

func (a Assets) Count() int {
	return len(a.DimensionSheet) + len(a.ConnectionDiagram) + len(a.Literature)
}

func (a Assets) MarshalJSON() ([]byte, error) {
	type assets Assets
	out := assets(a)
	out.DimensionSheet = nonNil(out.DimensionSheet)
	out.ConnectionDiagram = nonNil(out.ConnectionDiagram)
	out.Literature = nonNil(out.Literature)
	return json.Marshal(out)
}
