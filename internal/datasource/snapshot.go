package datasource

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/seenimoa/finmetrics/pkg/models"
)

// snapshotSelector matches the Finviz key statistics table.
const snapshotSelector = "table.snapshot-table2"

// SnapshotTable is the ordered list of label/value pairs read from a quote
// page. Labels may repeat; lookups return the first occurrence.
type SnapshotTable []models.SnapshotPair

// Lookup returns the value of the first pair whose label equals label.
func (t SnapshotTable) Lookup(label string) (string, error) {
	for _, p := range t {
		if p.Label == label {
			return p.Value, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrMetricNotFound, label)
}

// Record converts the table into a fundamentals record. Repeated labels
// keep their first value.
func (t SnapshotTable) Record() models.Fundamentals {
	rec := make(models.Fundamentals, len(t))
	for _, p := range t {
		if _, ok := rec[p.Label]; !ok {
			rec[p.Label] = p.Value
		}
	}
	return rec
}

// ParseSnapshot reads an HTML quote page and returns its snapshot table.
func ParseSnapshot(r io.Reader) (SnapshotTable, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}
	return parseSnapshotDoc(doc)
}

// parseSnapshotDoc scans every row of the first snapshot table, taking the
// cells two at a time as (label, value). A row with an odd number of cells
// yields a final pair with an empty value.
func parseSnapshotDoc(doc *goquery.Document) (SnapshotTable, error) {
	table := doc.Find(snapshotSelector).First()
	if table.Length() == 0 {
		return nil, ErrTableNotFound
	}

	var pairs SnapshotTable
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		var cells []string
		row.Find("td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(cell.Text()))
		})

		for i := 0; i < len(cells); i += 2 {
			p := models.SnapshotPair{Label: cells[i]}
			if i+1 < len(cells) {
				p.Value = cells[i+1]
			}
			pairs = append(pairs, p)
		}
	})

	return pairs, nil
}
