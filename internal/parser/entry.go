package parser

import (
	"fmt"

	"github.com/maltedev/motor-catalog-collector/internal/models"
)

const (
	AttrOutput  = "output_at_frequency"
	AttrVoltage = "voltage_at_frequency"
	AttrSpeed   = "synchronous_speed_at_freq"
	AttrFrame   = "frame"

	UnknownName = "Unknown"
)

// EntryMapper maps listing entries to NormalizedProduct skeletons. It does no I/O.
type EntryMapper struct {
	imageURL string
}

// NewEntryMapper takes the image endpoint prefix the imageId is appended to.
func NewEntryMapper(imageURL string) *EntryMapper {
	return &EntryMapper{imageURL: imageURL}
}

func (m *EntryMapper) Map(entry models.RawProductEntry) (*models.NormalizedProduct, error) {
	code, ok := entry.Code()
	if !ok {
		return nil, models.ErrMissingCode
	}
	if err := models.CheckFileName(code); err != nil {
		return nil, fmt.Errorf("product code: %w", err)
	}

	frame := ""
	if values := AttributeValues(entry, AttrFrame); len(values) > 0 {
		frame = values[0]
	}

	image := ""
	if id := entry.ImageID(); id != "" {
		image = m.imageURL + id
	}

	return &models.NormalizedProduct{
		ProductID:   code,
		Name:        productName(entry),
		Description: entry.Description(),
		Specs: models.Specs{
			HP:      AttributeValues(entry, AttrOutput),
			Voltage: AttributeValues(entry, AttrVoltage),
			RPM:     AttributeValues(entry, AttrSpeed),
			Frame:   frame,
		},
		BOM:    []models.BOMItem{},
		Assets: models.NewAssets(image),
	}, nil
}

// AttributeValues collects the value texts of every attribute group named
// name, in order. Groups with the same name are flattened together.
func AttributeValues(entry models.RawProductEntry, name string) []string {
	values := []string{}
	for _, attr := range entry.Attributes() {
		if attr.Name != name {
			continue
		}
		for _, v := range attr.Values {
			values = append(values, v.Text.String())
		}
	}
	return values
}

func productName(entry models.RawProductEntry) string {
	categories := entry.Categories()
	if len(categories) == 0 || categories[0].Text == nil {
		return UnknownName
	}
	return *categories[0].Text
}
