package model

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON        = "INVALID_JSON"
	ErrCodeProductNotFound    = "PRODUCT_NOT_FOUND"
	ErrCodeProductUnavailable = "PRODUCT_UNAVAILABLE"
	ErrCodeCatalogUnavailable = "CATALOG_UNAVAILABLE"
	ErrCodeInvalidTransition  = "INVALID_TRANSITION"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeOrderNotFound      = "ORDER_NOT_FOUND"
	ErrCodeInvalidQuantity    = "INVALID_QUANTITY"
	ErrCodeUnauthorised       = "UNAUTHORIZED"
	ErrCodeInternalError      = "INTERNAL_ERROR"
)

// DomainError is a typed business-logic error.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	// ErrProductNotFound: the catalog has no such product for the partner.
	ErrProductNotFound = NewDomainError(ErrCodeProductNotFound, "Product not found")
	// ErrProductUnavailable: the product exists but is flagged unavailable.
	ErrProductUnavailable = NewDomainError(ErrCodeProductUnavailable, "Product is not available")
	// ErrCatalogUnavailable: transient catalog failure; the whole checkout
	// may be retried by the client.
	ErrCatalogUnavailable = NewDomainError(ErrCodeCatalogUnavailable, "Catalog is temporarily unavailable")
	// ErrInvalidTransition: the requested move is not permitted from the
	// order's current status. Not retriable.
	ErrInvalidTransition = NewDomainError(ErrCodeInvalidTransition, "Transition not permitted from current status")
	// ErrConflict: a concurrent transition won the race. Safe to retry once.
	ErrConflict = NewDomainError(ErrCodeConflict, "Order was modified concurrently")
	// ErrOrderNotFound: no order with that id visible to the caller.
	ErrOrderNotFound = NewDomainError(ErrCodeOrderNotFound, "Order not found")
	// ErrInvalidQuantity: cart line quantity must be at least 1.
	ErrInvalidQuantity = NewDomainError(ErrCodeInvalidQuantity, "Quantity must be greater than zero")
	// ErrUnauthorised: missing/invalid credential or ownership violation.
	ErrUnauthorised = NewDomainError(ErrCodeUnauthorised, "Not authorised")
)
