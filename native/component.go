package native

import (
	"context"
	"fmt"

	"github.com/kbukum/pinch/component"
)

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// Component wraps the HTTP backend with lifecycle management.
// The backend is created in Start.
type Component struct {
	config Config
	opts   []Option
	http   *HTTP
}

// NewComponent creates a native backend component.
func NewComponent(cfg Config, opts ...Option) *Component {
	return &Component{config: cfg, opts: opts}
}

// Name returns the component name.
func (c *Component) Name() string {
	return componentName
}

// Start builds the backend.
func (c *Component) Start(_ context.Context) error {
	h, err := NewHTTP(c.config, c.opts...)
	if err != nil {
		return err
	}
	c.http = h
	return nil
}

// Stop drains in-flight fetches and releases connections.
func (c *Component) Stop(ctx context.Context) error {
	if c.http == nil {
		return nil
	}
	return c.http.Close(ctx)
}

// Health reports unhealthy before Start and after Stop.
func (c *Component) Health(_ context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	switch {
	case c.http == nil:
		h.Status = component.StatusUnhealthy
		h.Message = "not started"
	case c.http.isClosed():
		h.Status = component.StatusUnhealthy
		h.Message = "closed"
	default:
		h.Message = fmt.Sprintf("%d transport(s)", c.http.Transports())
	}
	return h
}

// Describe returns a one-line summary for startup logs.
func (c *Component) Describe() component.Description {
	cfg := c.config
	cfg.ApplyDefaults()
	certDir := cfg.CertDir
	if certDir == "" {
		certDir = "."
	}
	return component.Description{
		Name:    c.Name(),
		Type:    "fetcher",
		Details: fmt.Sprintf("certs=%s timeout=%s", certDir, cfg.Timeout),
	}
}

// Fetcher returns the backend. Must be called after Start.
func (c *Component) Fetcher() *HTTP {
	return c.http
}
