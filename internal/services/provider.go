package services

import "context"

// Provider is a dependency the service needs before it can take traffic
type Provider interface {
	// Type returns the dependency kind, e.g. "postgres"
	Type() string

	// HealthCheck checks if the dependency is available
	HealthCheck(ctx context.Context) error
}

// BaseProvider provides common functionality for providers
type BaseProvider struct {
	serviceType string
}

// Type returns the service type
func (p *BaseProvider) Type() string {
	return p.serviceType
}

// CheckFunc adapts a ping function, such as a repository's Ping, to a Provider
type CheckFunc struct {
	BaseProvider
	check func(ctx context.Context) error
}

// NewCheckFunc wraps check as a Provider of the given type
func NewCheckFunc(serviceType string, check func(ctx context.Context) error) *CheckFunc {
	return &CheckFunc{
		BaseProvider: BaseProvider{serviceType: serviceType},
		check:        check,
	}
}

// HealthCheck runs the wrapped function
func (p *CheckFunc) HealthCheck(ctx context.Context) error {
	return p.check(ctx)
}
