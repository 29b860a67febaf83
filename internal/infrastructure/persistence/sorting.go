package persistence

import "strings"

// Sortable column sets per entity. A requested order_by outside the set
// falls back to created_at, so caller input never reaches the ORDER BY
// clause verbatim.
var (
	orderSortColumns = map[string]bool{
		"created_at":     true,
		"updated_at":     true,
		"number":         true,
		"name":           true,
		"total_price":    true,
		"payment_method": true,
	}

	productSortColumns = map[string]bool{
		"created_at": true,
		"updated_at": true,
		"name":       true,
		"price":      true,
		"stock":      true,
	}
)

func sortColumn(requested string, allowed map[string]bool) string {
	column := strings.TrimSpace(requested)
	if allowed[column] {
		return column
	}
	return "created_at"
}

func sortDirection(requested string) string {
	if strings.EqualFold(strings.TrimSpace(requested), "asc") {
		return "asc"
	}
	return "desc"
}
