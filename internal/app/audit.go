package app

import (
	log "github.com/sirupsen/logrus"
	"github.com/treso/treso/internal/event_bus"
)

// RegisterAuditSubscribers logs every workflow and ledger event. Failures here
// never fail the business operation; publishers ignore the returned error.
func RegisterAuditSubscribers(bus *event_bus.EventBus) {
	auditTypes := []event_bus.EventType{
		event_bus.TypeExecutionRecorded,
		event_bus.TypeExecutionAmended,
		event_bus.TypeExecutionDeleted,
		event_bus.TypeAdjustmentRecorded,
		event_bus.TypeRequestReviewed,
		event_bus.TypeTransferCompleted,
	}
	for _, eventType := range auditTypes {
		bus.Subscribe(eventType, func(e event_bus.Event) error {
			log.WithField("event", string(e.Type)).Infof("audit: %+v", e.Data)
			return nil
		})
	}
}
