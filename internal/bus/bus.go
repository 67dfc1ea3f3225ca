// Package bus carries adjudicator events and intake messages between
// components: Go channels in one process, NATS or Kafka across replicas.
package bus

import (
	"fmt"

	"github.com/opensource-finance/adjudicator/internal/domain"
)

// New selects the bus implementation named by cfg.Type. An empty type is
// the in-process channel bus.
func New(cfg domain.EventBusConfig) (domain.EventBus, error) {
	switch cfg.Type {
	case "", "channel":
		return NewChannelBus(cfg.ChannelBufferSize), nil
	case "nats":
		return NewNATSBus(cfg)
	case "kafka":
		return NewKafkaBus(cfg)
	default:
		return nil, fmt.Errorf("unsupported event bus type: %s", cfg.Type)
	}
}
