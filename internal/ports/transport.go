package ports

import "context"

// Transport performs a request against the data service.
type Transport interface {
	// Do sends body (JSON encoded when non-nil) to path with the given
	// method and decodes a successful response into out when non-nil.
	// A non-2xx answer is returned as *domain.ServiceError.
	Do(ctx context.Context, method, path string, body, out any) error
}
