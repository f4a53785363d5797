package provider

import "context"

// Provider is the base interface all providers must implement.
type Provider interface {
	// Name returns the provider's unique name.
	Name() string
	// IsAvailable checks if the provider is ready to handle requests.
	IsAvailable(ctx context.Context) bool
}

// RequestResponse represents a provider that takes one input and returns one output.
type RequestResponse[I, O any] interface {
	Provider
	Execute(ctx context.Context, input I) (O, error)
}

// Closeable is optionally implemented by providers that hold resources
// requiring explicit cleanup (idle connections, file handles).
type Closeable interface {
	Close(ctx context.Context) error
}

// CloseAll closes every provider in ps that implements Closeable and returns
// the first error encountered.
func CloseAll[P any](ctx context.Context, ps ...P) error {
	var first error
	for _, p := range ps {
		c, ok := any(p).(Closeable)
		if !ok {
			continue
		}
		if err := c.Close(ctx); err != nil && first == nil {
			first = err
		}
	}
	return first
}
