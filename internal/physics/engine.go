package physics

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/vuongle2609/Minecraft/internal/config"
	"github.com/vuongle2609/Minecraft/internal/vec"
	"github.com/vuongle2609/Minecraft/internal/world/block"
)

// SpawnClearance добавка к первой свободной высоте колонки появления
const SpawnClearance = 1

// Params физические константы резолвера
type Params struct {
	Speed            float64
	Gravity          float64
	GravityScale     float64
	JumpForce        float64
	TerminalVelocity float64 // Отрицательная скорость предельного падения
	Radius           float64
	Height           float64
	Warmup           time.Duration
	SpawnX, SpawnZ   int
}

// DefaultParams возвращает параметры по умолчанию
func DefaultParams() Params {
	return ParamsFromConfig(config.Default().Physics)
}

// ParamsFromConfig переносит секцию physics конфигурации
func ParamsFromConfig(cfg config.PhysicsConfig) Params {
	return Params{
		Speed:            cfg.Speed,
		Gravity:          cfg.Gravity,
		GravityScale:     cfg.GravityScale,
		JumpForce:        cfg.JumpForce,
		TerminalVelocity: cfg.TerminalVelocity,
		Radius:           cfg.CharacterRadius,
		Height:           cfg.CharacterHeight,
		Warmup:           cfg.Warmup(),
		SpawnX:           vec.ChunkSize / 2,
		SpawnZ:           vec.ChunkSize / 2,
	}
}

// Stats счётчики обработки сообщений
type Stats struct {
	Handled uint64 // Обработано команд
	Gated   uint64 // Шагов движения отклонено до готовности
	Ignored uint64 // Сообщений неизвестного типа
}

// Engine синхронная машина состояний резолвера. Владеет репликой занятости и
// физическим состоянием персонажа; не потокобезопасна и живёт в одной горутине.
type Engine struct {
	params   Params
	collider *BoxCollider
	cells    map[vec.Vec3]block.Type

	velocityY float64
	onGround  bool

	loadedAt     time.Time // Момент первого слияния чанка
	loaded       bool
	enabled      bool
	pendingSpawn bool

	now   func() time.Time
	stats Stats
}

// NewEngine создаёт резолвер с пустой репликой
func NewEngine(params Params) *Engine {
	return &Engine{
		params:    params,
		collider:  NewBoxCollider(params.Radius, params.Height),
		cells:     make(map[vec.Vec3]block.Type),
		velocityY: params.TerminalVelocity,
		now:       time.Now,
	}
}

// SetClock подменяет источник времени
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// Stats возвращает счётчики
func (e *Engine) Stats() Stats { return e.stats }

// Enabled сообщает, принимает ли резолвер шаги движения
func (e *Engine) Enabled() bool { return e.enabled }

// VelocityY текущая вертикальная скорость
func (e *Engine) VelocityY() float64 { return e.velocityY }

// OnGround состояние касания земли
func (e *Engine) OnGround() bool { return e.onGround }

// Occupied возвращает тип ячейки реплики
func (e *Engine) Occupied(cell vec.Vec3) block.Type {
	return e.cells[cell]
}

// Handle обрабатывает одну команду целиком и возвращает ответы
func (e *Engine) Handle(cmd Command) []Reply {
	replies := e.Poll()

	switch m := cmd.(type) {
	case CalculateMovement:
		if !e.enabled {
			e.stats.Gated++
			return replies
		}
		replies = append(replies, e.calculateMovement(m))
	case JumpCharacter:
		e.jump()
	case AddBlock:
		if m.Type == block.Air {
			delete(e.cells, m.Position)
		} else {
			e.cells[m.Position] = m.Type
		}
	case RemoveBlock:
		delete(e.cells, m.Position)
	case BulkAddBlock:
		replies = append(replies, e.bulkAdd(m)...)
	case RequestSpawnHeight:
		// До первого слияния чанка реплика может быть частичной
		if !e.loaded {
			e.pendingSpawn = true
		} else {
			replies = append(replies, e.spawn())
		}
	default:
		e.stats.Ignored++
		return replies
	}

	e.stats.Handled++
	return replies
}

// Poll включает обработку движения, когда истекла задержка прогрева
func (e *Engine) Poll() []Reply {
	if e.enabled || !e.loaded {
		return nil
	}
	if e.now().Sub(e.loadedAt) < e.params.Warmup {
		return nil
	}
	e.enabled = true
	return []Reply{GridReady{}}
}

// WarmupRemaining сколько ещё ждать до включения движения; 0 если ждать нечего
func (e *Engine) WarmupRemaining() time.Duration {
	if e.enabled || !e.loaded {
		return 0
	}
	left := e.params.Warmup - e.now().Sub(e.loadedAt)
	if left < 0 {
		return 0
	}
	return left
}

func (e *Engine) bulkAdd(m BulkAddBlock) []Reply {
	for p, t := range m.Blocks {
		if t == block.Air {
			delete(e.cells, p)
			continue
		}
		e.cells[p] = t
	}

	var replies []Reply
	if !e.loaded {
		e.loaded = true
		e.loadedAt = e.now()
		replies = append(replies, e.Poll()...)
	}
	if e.pendingSpawn {
		replies = append(replies, e.spawn())
	}
	return replies
}

// spawn сканирует колонку появления вверх от y=0, пока ячейки заняты
func (e *Engine) spawn() Reply {
	e.pendingSpawn = false
	y := 0
	for e.cells[vec.Vec3{X: e.params.SpawnX, Y: y, Z: e.params.SpawnZ}] != block.Air {
		y += vec.BlockWidth
	}
	return ChangePosition{Position: mgl64.Vec3{
		float64(e.params.SpawnX),
		float64(y + SpawnClearance),
		float64(e.params.SpawnZ),
	}}
}

func (e *Engine) jump() {
	if e.onGround {
		e.velocityY = e.params.JumpForce
		e.onGround = false
	}
}

func (e *Engine) calculateMovement(m CalculateMovement) Reply {
	delta := m.Delta
	if delta < 0 || math.IsNaN(delta) {
		delta = 0
	}

	move := horizontalMove(m.Forward, m.Direction).Mul(e.params.Speed * delta)

	if e.velocityY > e.params.TerminalVelocity {
		e.velocityY -= e.params.Gravity * e.params.GravityScale * delta
		if e.velocityY < e.params.TerminalVelocity {
			e.velocityY = e.params.TerminalVelocity
		}
	}
	move[1] = e.velocityY * delta

	res := e.collider.Resolve(m.Position, move, e.solid)
	e.onGround = res.OnGround
	if res.HitHead && e.velocityY > 0 {
		e.velocityY = 0
	}

	return UpdatePosition{
		Position:  res.Position,
		OnGround:  res.OnGround,
		Collided:  res.Collided,
		VelocityY: e.velocityY,
	}
}

func (e *Engine) solid(cell vec.Vec3) block.Type {
	return e.cells[cell]
}

// horizontalMove строит единичный вектор движения в плоскости XZ по направлению
// камеры и намерению. Нулевое намерение даёт нулевой вектор.
func horizontalMove(forward, direction mgl64.Vec3) mgl64.Vec3 {
	f := mgl64.Vec3{forward[0], 0, forward[2]}
	if f.Len() < 1e-9 {
		return mgl64.Vec3{}
	}
	f = f.Normalize()
	left := mgl64.Vec3{0, 1, 0}.Cross(f)

	move := f.Mul(direction[2]).Add(left.Mul(direction[0]))
	if move.Len() < 1e-9 {
		return mgl64.Vec3{}
	}
	return move.Normalize()
}

// HandleRaw разбирает сообщение в форме {type, data} и обрабатывает его.
// Неизвестные и повреждённые сообщения молча отбрасываются.
func (e *Engine) HandleRaw(data []byte) []Reply {
	cmd, err := DecodeCommand(data)
	if err != nil {
		e.stats.Ignored++
		return e.Poll()
	}
	return e.Handle(cmd)
}
