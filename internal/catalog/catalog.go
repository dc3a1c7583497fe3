package catalog

import (
	"context"

	"curbside/internal/model"
)

// Gateway is the read-only catalog collaborator. Checkout treats its
// answers as authoritative at call time.
type Gateway interface {
	// GetProduct fetches the current product record by id. Returns
	// model.ErrProductNotFound when the product does not exist and
	// model.ErrCatalogUnavailable on transport failures or timeouts.
	GetProduct(ctx context.Context, id int64) (*model.Product, error)
}
