package game

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.opentelemetry.io/otel/attribute"

	"github.com/vuongle2609/Minecraft/internal/config"
	"github.com/vuongle2609/Minecraft/internal/eventbus"
	"github.com/vuongle2609/Minecraft/internal/feedback"
	"github.com/vuongle2609/Minecraft/internal/logging"
	"github.com/vuongle2609/Minecraft/internal/metrics"
	"github.com/vuongle2609/Minecraft/internal/observability"
	"github.com/vuongle2609/Minecraft/internal/physics"
	"github.com/vuongle2609/Minecraft/internal/player"
	"github.com/vuongle2609/Minecraft/internal/render"
	"github.com/vuongle2609/Minecraft/internal/storage"
	"github.com/vuongle2609/Minecraft/internal/streaming"
	"github.com/vuongle2609/Minecraft/internal/vec"
	"github.com/vuongle2609/Minecraft/internal/world"
	"github.com/vuongle2609/Minecraft/internal/world/block"
)

// Options необязательные зависимости сессии. Пустые поля создаются по конфигурации.
type Options struct {
	Store     storage.ChunkStore
	Bus       eventbus.EventBus
	Generator world.Generator
	Cues      feedback.CueSink
}

// Session связывает мир, резолвер физики, стриминг чанков и игрока.
// Tick и правки мира вызываются из одного (основного) контекста.
type Session struct {
	cfg    *config.Config
	store  storage.ChunkStore
	bus    eventbus.EventBus
	world  *world.World
	res    *physics.Resolver
	stream *streaming.Controller
	player *player.Mirror
	export *metrics.Exporter
	cues   feedback.CueSink

	subs   []eventbus.Subscription
	cancel context.CancelFunc
	active atomic.Int64
	closed bool
	logger *logging.Logger
}

// NewSession поднимает все подсистемы, загружает окрестность точки появления
// и запрашивает высоту появления.
func NewSession(ctx context.Context, cfg *config.Config, opts Options) (*Session, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Logging.Dir != "" {
		logging.SetLogDir(cfg.Logging.Dir)
	}
	logging.SetDefaultLevel(logging.ParseLevel(cfg.Logging.Level))

	s := &Session{
		cfg:    cfg,
		store:  opts.Store,
		bus:    opts.Bus,
		cues:   opts.Cues,
		logger: logging.GetComponentLogger("game"),
	}
	if s.cues == nil {
		s.cues = feedback.Discard
	}

	var err error
	if s.store == nil {
		if s.store, err = storage.Open(cfg.Storage); err != nil {
			return nil, fmt.Errorf("хранилище чанков: %w", err)
		}
	}
	if s.bus == nil {
		if s.bus, err = eventbus.Open(cfg.EventBus); err != nil {
			s.store.Close()
			return nil, err
		}
	}

	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	if sub, err := eventbus.StartLoggingListener(runCtx, s.bus); err == nil {
		s.subs = append(s.subs, sub)
	} else {
		s.logger.Warn("лог-подписчик шины не запущен: %v", err)
	}
	if sub, err := eventbus.SubscribeBlockEvents(runCtx, s.bus, s.onBlockEvent); err == nil {
		s.subs = append(s.subs, sub)
	} else {
		s.logger.Warn("подписка на правки блоков: %v", err)
	}

	gen := opts.Generator
	if gen == nil {
		gen = world.NewFlatGenerator()
	}
	alloc := render.NewAllocator()
	s.world = world.NewWorld(world.NewChunkIndex(gen, s.store), alloc)
	s.world.SetEventBus(s.bus)

	s.res = physics.NewResolver(physics.ParamsFromConfig(cfg.Physics), cfg.Physics.InboxSize, cfg.Physics.OutboxSize)
	s.world.SetReplica(s.res)
	go s.res.Run(runCtx)

	s.stream = streaming.NewController(s.world, cfg.World.RenderDistance)
	start := mgl64.Vec3{vec.ChunkSize / 2, cfg.Physics.CharacterHeight + 0.5, vec.ChunkSize / 2}
	s.player = player.NewMirror(s.res, s.stream, feedback.NewSlot(s.cues), start)

	s.export = metrics.NewExporter(metrics.Sources{
		Faces:    alloc,
		Resolver: s.res,
		Bus:      s.bus,
		Process:  metrics.NewProcessStats(),
		Chunks:   func() int { return int(s.active.Load()) },
	})
	if port := cfg.Metrics.GetMetricsPort(); port > 0 {
		s.export.StartHTTP(fmt.Sprintf(":%d", port))
	} else {
		s.export.Start(time.Second)
	}

	if _, err := s.stream.Update(ctx, start); err != nil {
		s.Close(context.Background())
		return nil, err
	}
	s.syncActive()
	if err := s.player.RequestSpawn(ctx); err != nil {
		s.Close(context.Background())
		return nil, err
	}

	s.logger.Info("Сессия запущена: радиус %d, хранилище %s, шина %s",
		cfg.World.RenderDistance, cfg.Storage.Backend, cfg.EventBus.Backend)
	return s, nil
}

func (s *Session) World() *world.World              { return s.world }
func (s *Session) Player() *player.Mirror           { return s.player }
func (s *Session) Streaming() *streaming.Controller { return s.stream }
func (s *Session) Resolver() *physics.Resolver      { return s.res }
func (s *Session) Metrics() *metrics.Exporter       { return s.export }

// Tick один кадр: ответы резолвера, запрос движения, стриминг
func (s *Session) Tick(ctx context.Context, delta float64, intent player.Intent, forward mgl64.Vec3) error {
	err := s.player.Tick(ctx, delta, intent, forward)
	s.syncActive()
	return err
}

// Place ставит блок вплотную к грани hitKey
func (s *Session) Place(hitKey string, t block.Type, distance float64) (vec.Vec3, error) {
	return s.world.PlaceAgainst(hitKey, t, distance)
}

// Break разрушает блок грани hitKey
func (s *Session) Break(hitKey string, distance float64) (block.Type, error) {
	return s.world.BreakAt(hitKey, distance)
}

// Flush изменения батчей граней для рендерера
func (s *Session) Flush() []render.Upload {
	return s.world.Allocator().Flush()
}

// Save сохраняет изменённые чанки
func (s *Session) Save(ctx context.Context) (int, error) {
	ctx, span := observability.StartSpan(ctx, "chunks.save")
	defer span.End()

	n, err := s.world.Index().Save(ctx)
	span.SetAttributes(attribute.Int("chunks.saved", n))
	if err != nil {
		span.RecordError(err)
	}
	return n, err
}

// Close сохраняет правки и останавливает все подсистемы
func (s *Session) Close(ctx context.Context) error {
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	if n, err := s.Save(ctx); err != nil {
		errs = append(errs, fmt.Errorf("сохранение чанков: %w", err))
	} else if n > 0 {
		s.logger.Info("Сохранено чанков: %d", n)
	}

	for _, sub := range s.subs {
		sub.Unsubscribe()
	}
	s.cancel()
	<-s.res.Done()

	if err := s.export.Stop(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := s.bus.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.store.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s *Session) syncActive() {
	s.active.Store(int64(len(s.stream.Active())))
}

func (s *Session) onBlockEvent(eventType string, ev eventbus.BlockEvent) {
	kind, ok := block.ByName(ev.Type)
	if !ok {
		return
	}
	switch eventType {
	case eventbus.TypeBlockPlaced:
		feedback.Trigger(s.cues, feedback.Cue(kind.Cues.Place))
	case eventbus.TypeBlockBroken:
		feedback.Trigger(s.cues, feedback.Cue(kind.Cues.Break))
	}
}
