package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/weiwei-tsao/campus-assets-report/internal/business/analytics"
	"github.com/weiwei-tsao/campus-assets-report/pkg/model"
)

// InventoryColumns is the CSV header row.
var InventoryColumns = []string{"id", "description", "department", "location", "cost", "created_at"}

// WriteInventoryCSV writes every asset, most expensive first.
func WriteInventoryCSV(w io.Writer, assets []model.Asset) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(InventoryColumns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, a := range analytics.SortByCost(assets) {
		var created string
		if a.HasCreatedAt() {
			created = a.CreatedAt.UTC().Format(time.RFC3339)
		}
		row := []string{
			a.ID,
			a.Description,
			a.Department,
			a.Location,
			fmt.Sprintf("%.2f", a.Cost),
			created,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}
