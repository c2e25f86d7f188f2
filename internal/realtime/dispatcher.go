package realtime

import (
	"go.uber.org/zap"

	"github.com/sangamlabs/sangam/pkg/logger"
	"github.com/sangamlabs/sangam/pkg/metrics"
)

// Dispatcher fans events out to live connections. Delivery is best effort and
// at most once: a connection that fails a send is pruned from the registry and
// the failure never propagates to the caller. Durability comes from the
// persisted notification row, not from the push.
type Dispatcher struct {
	registry *Registry
	log      *zap.Logger
}

// NewDispatcher constructs a dispatcher over the supplied registry.
func NewDispatcher(registry *Registry) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		log:      logger.WithModule("realtime"),
	}
}

// SendToUser pushes an event to every live connection of the subject. Silent
// no-op when the subject has no connection.
func (d *Dispatcher) SendToUser(subjectID string, event Event) {
	if d == nil || subjectID == "" {
		return
	}
	for _, conn := range d.registry.Connections(subjectID) {
		if err := conn.Send(event); err != nil {
			d.prune(conn, subjectID, false, err)
		}
	}
}

// BroadcastToAdmins pushes an event to every admin connection.
func (d *Dispatcher) BroadcastToAdmins(event Event) {
	if d == nil {
		return
	}
	for _, conn := range d.registry.AdminConnections() {
		if err := conn.Send(event); err != nil {
			d.prune(conn, "", true, err)
		}
	}
}

func (d *Dispatcher) prune(conn Conn, subjectID string, admin bool, err error) {
	namespace := "user"
	if admin {
		namespace = "admin"
	}
	metrics.EventsDropped.WithLabelValues(namespace).Inc()
	d.log.Debug("pruning dead connection",
		zap.String("namespace", namespace),
		zap.String("subject", subjectID),
		zap.Error(err),
	)

	d.registry.Deregister(conn, subjectID, admin)
	_ = conn.Close()
}
