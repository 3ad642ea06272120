package shadow

import (
	"context"

	"github.com/finops-claw-gang/api-parity/internal/connectors/endpoint"
)

// Fetcher issues GET requests against an API endpoint.
type Fetcher interface {
	Get(ctx context.Context, url string, headers map[string]string) (*endpoint.Response, error)
}
