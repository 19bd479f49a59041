package analytics

import (
	"context"

	"qa-analytics/internal/records"
)

// RecordProvider supplies point-in-time reads of the record graph. Defects come
// back with their order, fabric, style, brand and order-joined wash recipes
// already attached. Implementations own freshness and retries.
type RecordProvider interface {
	Defects(ctx context.Context) ([]records.DefectRecord, error)
	// Orders returns the orders with the given ids. Unknown ids are skipped.
	Orders(ctx context.Context, ids []string) ([]records.OrderRecord, error)
	// WashRecipes returns every recipe, each carrying the OrderID it belongs to.
	WashRecipes(ctx context.Context) ([]records.WashRecipeRecord, error)
	DefectTypes(ctx context.Context) ([]records.NamedRef, error)
}
