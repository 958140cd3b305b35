// Package delivery defines the contract every inbound surface of the service
// fulfils, whether it listens on a socket or on a clock.
package delivery

import "context"

// Delivery is a long-running entry point into the application. Serve blocks
// until the delivery stops or fails.
type Delivery interface {
	Serve(ctx context.Context) error
}
