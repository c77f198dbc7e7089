package capability

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"argus/internal/services"
	"argus/internal/stage"
)

// Role executes the analytical work behind one stage. Implementations must be
// safe for reuse across runs.
type Role interface {
	Execute(ctx context.Context, req stage.Request) (map[string]any, error)
}

// RoleFunc adapts a function to the Role interface.
type RoleFunc func(ctx context.Context, req stage.Request) (map[string]any, error)

func (f RoleFunc) Execute(ctx context.Context, req stage.Request) (map[string]any, error) {
	return f(ctx, req)
}

// Registry resolves capability role names to implementations.
type Registry struct {
	mu    sync.RWMutex
	roles map[string]Role
}

func NewRegistry() *Registry {
	return &Registry{roles: make(map[string]Role)}
}

// Register installs a role under a name, replacing any previous registration.
func (r *Registry) Register(name string, role Role) {
	if name == "" || role == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.roles[name] = role
}

// Resolve returns the role registered under name. A missing role is a
// configuration error: plans must only reference registered roles.
func (r *Registry) Resolve(name string) (Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	role, ok := r.roles[name]
	if !ok {
		return nil, services.Wrap(services.ErrConfiguration, "capability", "resolve",
			fmt.Sprintf("no capability registered for role %q", name), nil)
	}
	return role, nil
}

// Names returns the registered role names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.roles))
	for name := range r.roles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoker adapts the registry to the stage invoker contract: the request's
// role name is resolved and executed.
func (r *Registry) Invoker() stage.Invoker {
	return stage.InvokerFunc(func(ctx context.Context, req stage.Request) (map[string]any, error) {
		role, err := r.Resolve(req.Role)
		if err != nil {
			return nil, err
		}
		return role.Execute(ctx, req)
	})
}
