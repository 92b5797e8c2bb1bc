package physics

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/vuongle2609/Minecraft/internal/vec"
	"github.com/vuongle2609/Minecraft/internal/world/block"
)

// Типы сообщений протокола резолвера
const (
	TypeCalculateMovement = "calculateMovement"
	TypeJumpCharacter     = "jumpCharacter"
	TypeAddBlock          = "addBlock"
	TypeRemoveBlock       = "removeBlock"
	TypeBulkAddBlock      = "bulkAddBlock"
	TypeRequestPosY       = "requestPosY"

	TypeUpdatePosition = "updatePosition"
	TypeChangePosition = "changePosition"
	TypeGridReady      = "gridReady"
)

// Command сообщение основного контекста резолверу
type Command interface {
	Kind() string
	command()
}

// Reply сообщение резолвера основному контексту
type Reply interface {
	Kind() string
	reply()
}

// CalculateMovement запрос шага движения персонажа
type CalculateMovement struct {
	Forward   mgl64.Vec3 // Направление камеры
	Direction mgl64.Vec3 // Намерение: x влево(+)/вправо(-), z вперёд(+)/назад(-)
	Position  mgl64.Vec3
	Delta     float64 // Секунды с прошлого шага
}

// JumpCharacter запрос прыжка
type JumpCharacter struct{}

// AddBlock добавление ячейки в реплику
type AddBlock struct {
	Position vec.Vec3
	Type     block.Type
}

// RemoveBlock удаление ячейки из реплики
type RemoveBlock struct {
	Position vec.Vec3
}

// BulkAddBlock слияние всего чанка с репликой
type BulkAddBlock struct {
	Blocks map[vec.Vec3]block.Type
}

// RequestSpawnHeight запрос высоты появления
type RequestSpawnHeight struct{}

func (CalculateMovement) Kind() string  { return TypeCalculateMovement }
func (JumpCharacter) Kind() string      { return TypeJumpCharacter }
func (AddBlock) Kind() string           { return TypeAddBlock }
func (RemoveBlock) Kind() string        { return TypeRemoveBlock }
func (BulkAddBlock) Kind() string       { return TypeBulkAddBlock }
func (RequestSpawnHeight) Kind() string { return TypeRequestPosY }

func (CalculateMovement) command()  {}
func (JumpCharacter) command()      {}
func (AddBlock) command()           {}
func (RemoveBlock) command()        {}
func (BulkAddBlock) command()       {}
func (RequestSpawnHeight) command() {}

// UpdatePosition результат шага движения
type UpdatePosition struct {
	Position  mgl64.Vec3
	OnGround  bool
	Collided  block.Type // Air если касания земли не было
	VelocityY float64
}

// ChangePosition телепорт персонажа (ответ на запрос высоты появления)
type ChangePosition struct {
	Position mgl64.Vec3
}

// GridReady резолвер принял первые данные и начал обрабатывать движение
type GridReady struct{}

func (UpdatePosition) Kind() string { return TypeUpdatePosition }
func (ChangePosition) Kind() string { return TypeChangePosition }
func (GridReady) Kind() string      { return TypeGridReady }

func (UpdatePosition) reply() {}
func (ChangePosition) reply() {}
func (GridReady) reply()      {}
