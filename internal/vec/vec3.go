package vec

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// BlockWidth шаг решётки: расстояние между центрами соседних блоков
const BlockWidth = 2

// Vec3 представляет позицию ячейки решётки с целочисленными координатами.
// Все координаты кратны BlockWidth.
type Vec3 struct {
	X int
	Y int
	Z int
}

// Add складывает два вектора
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{
		X: v.X + other.X,
		Y: v.Y + other.Y,
		Z: v.Z + other.Z,
	}
}

// Equals проверяет равенство векторов
func (v Vec3) Equals(other Vec3) bool {
	return v.X == other.X && v.Y == other.Y && v.Z == other.Z
}

// OnLattice проверяет, что позиция лежит на решётке
func (v Vec3) OnLattice() bool {
	return v.X%BlockWidth == 0 && v.Y%BlockWidth == 0 && v.Z%BlockWidth == 0
}

// ToFloat возвращает центр ячейки в мировых координатах
func (v Vec3) ToFloat() mgl64.Vec3 {
	return mgl64.Vec3{float64(v.X), float64(v.Y), float64(v.Z)}
}

// ToChunkCoords возвращает координаты чанка, которому принадлежит позиция
func (v Vec3) ToChunkCoords() Vec2 {
	return ChunkCoordinate(float64(v.X), float64(v.Z))
}

// Snap нормализует мировую позицию к ближайшей ячейке решётки.
// Любой дрейф плавающей точки убирается до поиска по ключу.
func Snap(p mgl64.Vec3) Vec3 {
	return Vec3{
		X: snapAxis(p.X()),
		Y: snapAxis(p.Y()),
		Z: snapAxis(p.Z()),
	}
}

// SnapInts нормализует целочисленные координаты к решётке
func SnapInts(x, y, z int) Vec3 {
	return Snap(mgl64.Vec3{float64(x), float64(y), float64(z)})
}

func snapAxis(v float64) int {
	return int(math.Round(v/BlockWidth)) * BlockWidth
}

// CellIndex возвращает индекс ячейки вдоль оси, содержащей координату v.
// Ячейка n занимает [n*W - W/2, n*W + W/2).
func CellIndex(v float64) int {
	return int(math.Floor((v + BlockWidth/2.0) / BlockWidth))
}
