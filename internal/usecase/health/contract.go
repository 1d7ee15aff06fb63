package health

import "context"

// DBPinger checks shared store availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// GatewayChecker checks the upstream listings gateway availability.
type GatewayChecker interface {
	HealthCheck(ctx context.Context) error
}
