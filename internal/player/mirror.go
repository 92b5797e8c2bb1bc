package player

import (
	"context"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/vuongle2609/Minecraft/internal/feedback"
	"github.com/vuongle2609/Minecraft/internal/physics"
	"github.com/vuongle2609/Minecraft/internal/world/block"
)

// Intent намерение игрока за один кадр
type Intent struct {
	Left, Right, Forward, Backward bool
	Jump                           bool
}

// Direction вектор намерения: влево +x, вправо -x, вперёд +z, назад -z
func (i Intent) Direction() mgl64.Vec3 {
	var d mgl64.Vec3
	if i.Left {
		d[0]++
	}
	if i.Right {
		d[0]--
	}
	if i.Forward {
		d[2]++
	}
	if i.Backward {
		d[2]--
	}
	return d
}

// Walking истинно, если нажата хотя бы одна клавиша направления
func (i Intent) Walking() bool {
	return i.Left || i.Right || i.Forward || i.Backward
}

// Resolver сторона резолвера, видимая игроку
type Resolver interface {
	Send(ctx context.Context, cmd physics.Command) error
	TrySend(cmd physics.Command) bool
	Replies() <-chan physics.Reply
}

// Streamer получает позицию игрока после каждого применённого ответа
type Streamer interface {
	Update(ctx context.Context, pos mgl64.Vec3) (bool, error)
}

// Mirror копия состояния персонажа на первичной стороне. Состояние меняется
// только ответами резолвера; сам Mirror ничего не вычисляет.
type Mirror struct {
	resolver Resolver
	stream   Streamer
	step     *feedback.Slot

	position  mgl64.Vec3
	velocityY float64
	onGround  bool
	stepType  block.Type
	prevStep  block.Type
	walking   bool
	ready     bool
	spawning  bool

	applied uint64
	skipped uint64
}

// NewMirror создаёт зеркало с начальной позицией start. stream и step могут быть nil.
func NewMirror(res Resolver, stream Streamer, step *feedback.Slot, start mgl64.Vec3) *Mirror {
	if step == nil {
		step = feedback.NewSlot(nil)
	}
	return &Mirror{resolver: res, stream: stream, step: step, position: start}
}

func (m *Mirror) Position() mgl64.Vec3 { return m.position }
func (m *Mirror) VelocityY() float64   { return m.velocityY }
func (m *Mirror) OnGround() bool       { return m.onGround }
func (m *Mirror) StepType() block.Type { return m.stepType }
func (m *Mirror) Ready() bool          { return m.ready }

// Applied число применённых ответов
func (m *Mirror) Applied() uint64 { return m.applied }

// Skipped число кадров, когда очередь резолвера была полна
func (m *Mirror) Skipped() uint64 { return m.skipped }

// RequestSpawn запрашивает высоту появления. До ответа запросы движения
// не отправляются: они несли бы устаревшую позицию.
func (m *Mirror) RequestSpawn(ctx context.Context) error {
	if err := m.resolver.Send(ctx, physics.RequestSpawnHeight{}); err != nil {
		return err
	}
	m.spawning = true
	return nil
}

// Tick применяет накопившиеся ответы и отправляет запрос движения за кадр
func (m *Mirror) Tick(ctx context.Context, delta float64, intent Intent, forward mgl64.Vec3) error {
	if err := m.Sync(ctx); err != nil {
		return err
	}

	m.walking = intent.Walking()
	if m.spawning {
		m.updateStepCue()
		return nil
	}

	if intent.Jump {
		m.resolver.TrySend(physics.JumpCharacter{})
	}
	ok := m.resolver.TrySend(physics.CalculateMovement{
		Forward:   forward,
		Direction: intent.Direction(),
		Position:  m.position,
		Delta:     delta,
	})
	if !ok {
		m.skipped++
	}

	m.updateStepCue()
	return nil
}

// Sync забирает все готовые ответы без ожидания и применяет их по порядку.
// Побеждает последний.
func (m *Mirror) Sync(ctx context.Context) error {
	moved := false
	for {
		select {
		case rep, ok := <-m.resolver.Replies():
			if !ok {
				return m.follow(ctx, moved)
			}
			if m.apply(rep) {
				moved = true
			}
		default:
			return m.follow(ctx, moved)
		}
	}
}

func (m *Mirror) apply(rep physics.Reply) bool {
	m.applied++
	switch r := rep.(type) {
	case physics.UpdatePosition:
		m.prevStep = m.stepType
		m.stepType = r.Collided
		m.onGround = r.OnGround
		m.velocityY = r.VelocityY
		m.position = r.Position
		return true
	case physics.ChangePosition:
		m.position = r.Position
		m.spawning = false
		return true
	case physics.GridReady:
		m.ready = true
	}
	return false
}

func (m *Mirror) follow(ctx context.Context, moved bool) error {
	if !moved || m.stream == nil {
		return nil
	}
	_, err := m.stream.Update(ctx, m.position)
	return err
}

func (m *Mirror) updateStepCue() {
	if m.stepType != m.prevStep && m.stepType != block.Air {
		m.step.Select(StepCue(m.stepType))
	}
	if m.walking && m.onGround {
		m.step.Play()
		return
	}
	m.step.Stop()
}

// StepCue сигнал шагов по блоку; пустой для неизвестного типа
func StepCue(t block.Type) feedback.Cue {
	kind, ok := block.Get(t)
	if !ok {
		return ""
	}
	return feedback.Cue(kind.Cues.Step)
}
