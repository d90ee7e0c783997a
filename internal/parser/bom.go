package parser

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/maltedev/motor-catalog-collector/internal/models"
)

const bomColumns = 3

// BOMFromRows turns table rows (cell texts per row) into BOM items. The first
// row is the header and is dropped; rows with fewer than three cells are skipped.
func BOMFromRows(rows [][]string) []models.BOMItem {
	bom := []models.BOMItem{}
	if len(rows) <= 1 {
		return bom
	}

	for _, cells := range rows[1:] {
		if len(cells) < bomColumns {
			continue
		}
		bom = append(bom, models.BOMItem{
			PartNumber:  strings.TrimSpace(cells[0]),
			Description: strings.TrimSpace(cells[1]),
			Quantity:    strings.TrimSpace(cells[2]),
		})
	}

	return bom
}

// RowsFromHTML reads every table row of a rendered page, header included,
// with the text of its data cells. Header cells (th) are not data cells,
// matching what an accessibility "cell" query returns.
func RowsFromHTML(html string) ([][]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var rows [][]string
	doc.Find("table tr").Each(func(_ int, tr *goquery.Selection) {
		cells := []string{}
		tr.ChildrenFiltered("td").Each(func(_ int, td *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(td.Text()))
		})
		rows = append(rows, cells)
	})

	return rows, nil
}
