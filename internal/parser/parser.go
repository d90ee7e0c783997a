package parser

import (
	"github.com/maltedev/motor-catalog-collector/internal/models"
)

type Mapper interface {
	Map(entry models.RawProductEntry) (*models.NormalizedProduct, error)
}
