// Package export renders items and movements as spreadsheet-friendly CSV:
// UTF-8 with a byte order mark, CRLF line endings and RFC 4180 quoting.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/99minutos/inventory-system/internal/core/domain"
)

const (
	ItemsFilename     = "items.csv"
	MovementsFilename = "movements.csv"

	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02T15:04:05.000Z"
)

// bom makes spreadsheet applications detect UTF-8.
var bom = []byte{0xEF, 0xBB, 0xBF}

var (
	itemsHeader     = []string{"Name", "Category", "Unit", "Quantity", "Min", "Max", "Supplier", "Expiry"}
	movementsHeader = []string{"Date", "Item", "Unit", "Type", "Quantity", "Reason"}
)

// WriteItems writes one row per item.
func WriteItems(w io.Writer, items []*domain.Item) error {
	return write(w, itemsHeader, len(items), func(i int) []string {
		it := items[i]
		maxQty := ""
		if it.MaxQuantity != nil {
			maxQty = formatQuantity(*it.MaxQuantity)
		}
		expiry := ""
		if it.ExpiryDate != nil {
			expiry = it.ExpiryDate.UTC().Format(dateLayout)
		}
		return []string{
			it.Name,
			it.CategoryName,
			it.Unit,
			formatQuantity(it.Quantity),
			formatQuantity(it.MinQuantity),
			maxQty,
			it.Supplier,
			expiry,
		}
	})
}

// WriteMovements writes one row per movement in the order given.
func WriteMovements(w io.Writer, movements []*domain.Movement) error {
	return write(w, movementsHeader, len(movements), func(i int) []string {
		m := movements[i]
		return []string{
			m.CreatedAt.UTC().Format(timestampLayout),
			m.ItemName,
			m.ItemUnit,
			string(m.Type),
			formatQuantity(m.Quantity),
			m.Reason,
		}
	})
}

func write(w io.Writer, header []string, n int, row func(int) []string) error {
	if _, err := w.Write(bom); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	cw.UseCRLF = true
	if err := cw.Write(header); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := cw.Write(row(i)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// formatQuantity prints the shortest exact representation (4, 2.5, 0.125).
func formatQuantity(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
