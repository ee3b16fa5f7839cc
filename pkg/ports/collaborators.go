package ports

import "context"

// PricingProvider answers what a transition to a destination costs.
//
// The engine itself never calls this: affordability is the caller's
// decision. The interface lives here so frontends (CLI, HTTP) share one
// capability shape instead of reflecting into host-defined pricing classes.
type PricingProvider interface {
	Price(ctx context.Context, destinationID string) (float64, error)
}
