package physics

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vuongle2609/Minecraft/internal/logging"
	"github.com/vuongle2609/Minecraft/internal/vec"
	"github.com/vuongle2609/Minecraft/internal/world/block"
)

// ResolverStats счётчики резолвера, безопасные для чтения из любой горутины
type ResolverStats struct {
	Handled        uint64
	Gated          uint64
	Ignored        uint64
	RepliesDropped uint64
}

type inbound struct {
	cmd Command
	raw []byte
}

// Resolver запускает Engine в собственной горутине. Общение только сообщениями:
// команды по порядку через входной канал, ответы в ограниченный выходной канал.
// При переполнении выхода вытесняется самый старый ответ.
type Resolver struct {
	engine *Engine
	inbox  chan inbound
	outbox chan Reply
	logger *logging.Logger

	handled atomic.Uint64
	gated   atomic.Uint64
	ignored atomic.Uint64
	dropped atomic.Uint64

	done     chan struct{}
	stopOnce sync.Once
}

// NewResolver создаёт резолвер; Run запускает обработку
func NewResolver(params Params, inboxSize, outboxSize int) *Resolver {
	if inboxSize <= 0 {
		inboxSize = 256
	}
	if outboxSize <= 0 {
		outboxSize = 16
	}
	return &Resolver{
		engine: NewEngine(params),
		inbox:  make(chan inbound, inboxSize),
		outbox: make(chan Reply, outboxSize),
		logger: logging.GetPhysicsLogger(),
		done:   make(chan struct{}),
	}
}

// SetClock подменяет источник времени. Вызывать до Run.
func (r *Resolver) SetClock(now func() time.Time) {
	r.engine.SetClock(now)
}

// Replies канал ответов резолвера
func (r *Resolver) Replies() <-chan Reply {
	return r.outbox
}

// Done закрывается после выхода из Run
func (r *Resolver) Done() <-chan struct{} {
	return r.done
}

// Stats возвращает счётчики
func (r *Resolver) Stats() ResolverStats {
	return ResolverStats{
		Handled:        r.handled.Load(),
		Gated:          r.gated.Load(),
		Ignored:        r.ignored.Load(),
		RepliesDropped: r.dropped.Load(),
	}
}

// Run обрабатывает команды до отмены контекста
func (r *Resolver) Run(ctx context.Context) error {
	defer r.stopOnce.Do(func() { close(r.done) })
	r.logger.Info("Резолвер физики запущен")

	var warmup *time.Timer
	var warmupC <-chan time.Time
	defer func() {
		if warmup != nil {
			warmup.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Резолвер физики остановлен")
			return ctx.Err()

		case msg := <-r.inbox:
			var replies []Reply
			if msg.raw != nil {
				replies = r.engine.HandleRaw(msg.raw)
			} else {
				replies = r.engine.Handle(msg.cmd)
			}
			r.publish(replies)
			r.syncStats()

			if warmup == nil {
				if left := r.engine.WarmupRemaining(); left > 0 {
					warmup = time.NewTimer(left)
					warmupC = warmup.C
				}
			}

		case <-warmupC:
			warmupC = nil
			replies := r.engine.Poll()
			if len(replies) == 0 {
				// Часы подменены или сдвинулись: повторяем проверку позже
				if left := r.engine.WarmupRemaining(); left > 0 {
					warmup.Reset(left)
					warmupC = warmup.C
				}
			}
			r.publish(replies)
		}
	}
}

func (r *Resolver) syncStats() {
	s := r.engine.Stats()
	r.handled.Store(s.Handled)
	r.gated.Store(s.Gated)
	r.ignored.Store(s.Ignored)
}

// publish отправляет ответы, не блокируясь
func (r *Resolver) publish(replies []Reply) {
	for _, rep := range replies {
		r.offer(rep)
		if _, ok := rep.(GridReady); ok {
			r.logger.Info("Реплика готова, движение включено")
		}
	}
}

// offer кладёт ответ в выходной канал; при полном канале вытесняет самый старый
func (r *Resolver) offer(rep Reply) {
	for {
		select {
		case r.outbox <- rep:
			return
		default:
		}
		select {
		case <-r.outbox:
			r.dropped.Add(1)
		default:
		}
	}
}

// Send ставит команду в очередь. Блокируется, только пока очередь полна.
func (r *Resolver) Send(ctx context.Context, cmd Command) error {
	select {
	case r.inbox <- inbound{cmd: cmd}:
		return nil
	case <-r.done:
		return context.Canceled
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TrySend ставит команду в очередь без ожидания
func (r *Resolver) TrySend(cmd Command) bool {
	select {
	case r.inbox <- inbound{cmd: cmd}:
		return true
	default:
		return false
	}
}

// SendRaw ставит в очередь сообщение в форме {type, data}
func (r *Resolver) SendRaw(ctx context.Context, data []byte) error {
	msg := inbound{raw: append([]byte(nil), data...)}
	select {
	case r.inbox <- msg:
		return nil
	case <-r.done:
		return context.Canceled
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AddBlock зеркалирует установку блока в реплику
func (r *Resolver) AddBlock(pos vec.Vec3, t block.Type) {
	r.mirror(AddBlock{Position: pos, Type: t})
}

// RemoveBlock зеркалирует удаление блока из реплики
func (r *Resolver) RemoveBlock(pos vec.Vec3) {
	r.mirror(RemoveBlock{Position: pos})
}

// BulkAddBlock отправляет реплике весь чанк одним сообщением.
// Карта копируется: после отправки у сторон нет общей памяти.
func (r *Resolver) BulkAddBlock(blocks map[vec.Vec3]block.Type) {
	cp := make(map[vec.Vec3]block.Type, len(blocks))
	for p, t := range blocks {
		cp[p] = t
	}
	r.mirror(BulkAddBlock{Blocks: cp})
}

func (r *Resolver) mirror(cmd Command) {
	if err := r.Send(context.Background(), cmd); err != nil {
		r.logger.Warn("зеркальная правка %s не доставлена: %v", cmd.Kind(), err)
	}
}
