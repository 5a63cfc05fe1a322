package health

import "context"

// DBPinger is the store connectivity probe.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// Checker probes an outbound dependency such as the predictor or the chat model.
type Checker interface {
	HealthCheck(ctx context.Context) error
}
