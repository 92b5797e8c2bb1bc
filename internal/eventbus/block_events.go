package eventbus

import (
	"context"
	"fmt"

	"github.com/vuongle2609/Minecraft/internal/config"
	"github.com/vuongle2609/Minecraft/internal/vec"
)

// Типы событий правки мира
const (
	TypeBlockPlaced = "block.placed"
	TypeBlockBroken = "block.broken"
)

// BlockEvent полезная нагрузка событий block.placed / block.broken
type BlockEvent struct {
	Position vec.Vec3 `json:"position"`
	Type     string   `json:"type"`
	Previous string   `json:"previous,omitempty"`
	Chunk    string   `json:"chunk"`
}

// NewBlockEvent упаковывает правку блока в конверт
func NewBlockEvent(source, eventType string, pos vec.Vec3, typeName, previous string) (*Envelope, error) {
	return NewEnvelope(source, eventType, BlockEvent{
		Position: pos,
		Type:     typeName,
		Previous: previous,
		Chunk:    pos.ToChunkCoords().Key(),
	})
}

// Open создаёт шину по конфигурации
func Open(cfg config.EventBusConfig) (EventBus, error) {
	switch cfg.Backend {
	case "memory", "":
		return NewMemoryBus(1024), nil
	case "nats":
		bus, err := NewJetStreamBus(cfg.URL, cfg.Stream, retention(cfg.Retention))
		if err != nil {
			return nil, fmt.Errorf("шина JetStream %s: %w", cfg.URL, err)
		}
		return bus, nil
	default:
		return nil, fmt.Errorf("неизвестный backend шины событий: %q", cfg.Backend)
	}
}

// SubscribeBlockEvents подписывает обработчик на правки блоков
func SubscribeBlockEvents(ctx context.Context, bus EventBus, h func(eventType string, ev BlockEvent)) (Subscription, error) {
	return bus.Subscribe(ctx, Filter{Types: []string{TypeBlockPlaced, TypeBlockBroken}}, func(ctx context.Context, env *Envelope) {
		var ev BlockEvent
		if err := env.Decode(&ev); err != nil {
			return
		}
		h(env.EventType, ev)
	})
}
