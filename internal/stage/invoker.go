package stage

import "context"

// Request carries everything a capability role needs to execute one stage:
// the stage name, the resolved role name, run-level parameters, and the
// accumulated payloads of all prior stages keyed by stage name.
type Request struct {
	Stage   string
	Role    string
	Depth   string
	Target  string
	Context map[string]any
	Params  map[string]any
}

// Invoker executes the analytical work behind a single stage. Implementations
// may block for the full stage timeout; the engine bounds each call with a
// deadline and treats a deadline expiry like any other failure.
type Invoker interface {
	Invoke(ctx context.Context, req Request) (map[string]any, error)
}

// InvokerFunc adapts a function to the Invoker interface.
type InvokerFunc func(ctx context.Context, req Request) (map[string]any, error)

func (f InvokerFunc) Invoke(ctx context.Context, req Request) (map[string]any, error) {
	return f(ctx, req)
}

// Health summarizes the readiness of a capability backing a workflow stage.
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

// Healthy constructs a ready Health record.
func Healthy(name string) Health {
	return Health{Name: name, Ready: true}
}

// Unhealthy constructs an unhealthy Health record with context detail.
func Unhealthy(name, detail string) Health {
	return Health{Name: name, Ready: false, Detail: detail}
}
