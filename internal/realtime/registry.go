package realtime

import (
	"sync"

	"github.com/sangamlabs/sangam/pkg/metrics"
)

// Conn is the transport surface the registry tracks: enough to push one JSON
// event and tear the connection down. Concrete wire framing lives behind it.
type Conn interface {
	Send(Event) error
	Close() error
}

// Registry tracks live connections per user plus a separate admin namespace.
// A user may hold several concurrent connections (multi-device); a user id
// never maps to an empty set. The registry is constructed explicitly and
// passed by reference, there is no package-level instance.
type Registry struct {
	mu     sync.RWMutex
	users  map[string]map[Conn]struct{}
	admins map[Conn]struct{}
}

// NewRegistry constructs an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{
		users:  make(map[string]map[Conn]struct{}),
		admins: make(map[Conn]struct{}),
	}
}

// Register adds a connection under the supplied subject. Admin connections
// live in their own namespace and ignore the subject id.
func (r *Registry) Register(conn Conn, subjectID string, admin bool) {
	if conn == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if admin {
		r.admins[conn] = struct{}{}
		metrics.LiveConnections.WithLabelValues("admin").Inc()
		return
	}

	if subjectID == "" {
		return
	}
	if r.users[subjectID] == nil {
		r.users[subjectID] = make(map[Conn]struct{})
	}
	r.users[subjectID][conn] = struct{}{}
	metrics.LiveConnections.WithLabelValues("user").Inc()
}

// Deregister removes a connection, pruning the subject's entry once empty.
func (r *Registry) Deregister(conn Conn, subjectID string, admin bool) {
	if conn == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if admin {
		if _, ok := r.admins[conn]; ok {
			delete(r.admins, conn)
			metrics.LiveConnections.WithLabelValues("admin").Dec()
		}
		return
	}

	conns := r.users[subjectID]
	if conns == nil {
		return
	}
	if _, ok := conns[conn]; !ok {
		return
	}
	delete(conns, conn)
	metrics.LiveConnections.WithLabelValues("user").Dec()
	if len(conns) == 0 {
		delete(r.users, subjectID)
	}
}

// Connections returns a snapshot of the live connections for a user.
func (r *Registry) Connections(subjectID string) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := r.users[subjectID]
	if len(conns) == 0 {
		return nil
	}
	out := make([]Conn, 0, len(conns))
	for conn := range conns {
		out = append(out, conn)
	}
	return out
}

// AdminConnections returns a snapshot of the admin namespace.
func (r *Registry) AdminConnections() []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.admins) == 0 {
		return nil
	}
	out := make([]Conn, 0, len(r.admins))
	for conn := range r.admins {
		out = append(out, conn)
	}
	return out
}

// Subjects returns the number of user ids with at least one live connection.
func (r *Registry) Subjects() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}
