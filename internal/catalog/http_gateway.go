package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"curbside/internal/model"

	"github.com/rs/zerolog"
)

// httpGateway implements Gateway against the catalog service's REST API.
type httpGateway struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
	logger  zerolog.Logger
}

// NewHTTPGateway creates a catalog gateway client. Every call is bounded
// by the configured timeout; a slow catalog fails the call, it never
// hangs a checkout.
func NewHTTPGateway(baseURL string, timeout time.Duration, logger zerolog.Logger) Gateway {
	return &httpGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
		logger:  logger.With().Str("gateway", "catalog").Logger(),
	}
}

// GetProduct fetches the current product record by id.
func (g *httpGateway) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	url := fmt.Sprintf("%s/api/products/%d", g.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Warn().Err(err).Int64("product_id", id).Msg("catalog request failed")
		return nil, model.ErrCatalogUnavailable
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		g.logger.Debug().Int64("product_id", id).Msg("product not found in catalog")
		return nil, model.ErrProductNotFound
	default:
		g.logger.Warn().
			Int("status", resp.StatusCode).
			Int64("product_id", id).
			Msg("unexpected catalog response")
		return nil, model.ErrCatalogUnavailable
	}

	var product model.Product
	if err := json.NewDecoder(resp.Body).Decode(&product); err != nil {
		g.logger.Warn().Err(err).Int64("product_id", id).Msg("failed to decode catalog response")
		return nil, model.ErrCatalogUnavailable
	}

	return &product, nil
}
