package model

// Product is the catalog view of a product as returned by the Catalog
// Gateway. Price and availability are authoritative at fetch time only.
type Product struct {
	ID          int64   `json:"id"`
	PartnerID   int64   `json:"partnerId"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	IsAvailable bool    `json:"isAvailable"`
}
