// Package export renders a user's habits as a downloadable CSV file.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
)

const ContentType = "text/csv; charset=utf-8"

var header = []string{"Name", "Category", "Color", "CompletedDates"}

// WriteCSV writes one row per habit. Completion dates are joined with ";"
// so the date list stays inside a single cell.
func WriteCSV(w io.Writer, habits []*domain.Habit) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("export: write header: %w", err)
	}

	for _, h := range habits {
		if h == nil {
			continue
		}
		row := []string{h.Name, h.Category, h.Color, strings.Join(domain.NormalizeDates(h.CompletedDates), ";")}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("export: write habit %s: %w", h.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func FileName(day string) string {
	return fmt.Sprintf("kanso-habits-%s.csv", day)
}
