package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/vuongle2609/Minecraft/internal/vec"
	"github.com/vuongle2609/Minecraft/internal/world/block"
)

// epsilon зазор при проверке пересечений, чтобы касание граней не считалось столкновением
const epsilon = 1e-6

// maxStep максимальный шаг перемещения за одну итерацию разрешения коллизий
const maxStep = vec.BlockWidth / 4.0

// BlockChecker возвращает тип блока в ячейке решётки; Air - ячейка пуста
type BlockChecker func(cell vec.Vec3) block.Type

// BoxCollider выровненный по осям коллайдер персонажа.
// Позиция коллайдера - центр его объёма.
type BoxCollider struct {
	HalfWidth  float64 // Половина ширины по X и Z
	HalfHeight float64 // Половина высоты по Y
}

// NewBoxCollider создаёт коллайдер по радиусу и полной высоте
func NewBoxCollider(radius, height float64) *BoxCollider {
	return &BoxCollider{HalfWidth: radius, HalfHeight: height / 2}
}

func (bc *BoxCollider) halfExtents() mgl64.Vec3 {
	return mgl64.Vec3{bc.HalfWidth, bc.HalfHeight, bc.HalfWidth}
}

// cellRange возвращает диапазон индексов ячеек, которые пересекает отрезок [lo, hi]
func cellRange(lo, hi float64) (int, int) {
	return vec.CellIndex(lo + epsilon), vec.CellIndex(hi - epsilon)
}

// hit описывает столкновение на одной оси
type hit struct {
	cell  vec.Vec3
	btype block.Type
}

// firstHit ищет занятую ячейку в объёме коллайдера, ближайшую по направлению движения
func (bc *BoxCollider) firstHit(pos mgl64.Vec3, axis int, dir float64, solid BlockChecker) (hit, bool) {
	ext := bc.halfExtents()
	var lo, hi [3]int
	for i := 0; i < 3; i++ {
		lo[i], hi[i] = cellRange(pos[i]-ext[i], pos[i]+ext[i])
	}

	best := hit{}
	found := false
	for x := lo[0]; x <= hi[0]; x++ {
		for y := lo[1]; y <= hi[1]; y++ {
			for z := lo[2]; z <= hi[2]; z++ {
				cell := vec.Vec3{X: x * vec.BlockWidth, Y: y * vec.BlockWidth, Z: z * vec.BlockWidth}
				t := solid(cell)
				if t == block.Air {
					continue
				}
				coord := [3]int{cell.X, cell.Y, cell.Z}[axis]
				if !found {
					best, found = hit{cell: cell, btype: t}, true
					continue
				}
				bestCoord := [3]int{best.cell.X, best.cell.Y, best.cell.Z}[axis]
				// при движении вниз важна самая высокая ячейка, вверх - самая низкая
				if (dir < 0 && coord > bestCoord) || (dir > 0 && coord < bestCoord) {
					best = hit{cell: cell, btype: t}
				}
			}
		}
	}
	return best, found
}

// IsBlocked проверяет, пересекает ли коллайдер в позиции хотя бы одну занятую ячейку
func (bc *BoxCollider) IsBlocked(pos mgl64.Vec3, solid BlockChecker) bool {
	_, found := bc.firstHit(pos, 1, -1, solid)
	return found
}

// MoveResult результат разрешения перемещения
type MoveResult struct {
	Position mgl64.Vec3
	OnGround bool
	Collided block.Type // Тип блока под ногами при касании земли
	HitHead  bool
}

// Resolve перемещает коллайдер на disp, разрешая столкновения по осям в порядке Y, X, Z.
// Большие перемещения дробятся на шаги не длиннее maxStep.
func (bc *BoxCollider) Resolve(pos, disp mgl64.Vec3, solid BlockChecker) MoveResult {
	steps := int(math.Ceil(math.Max(math.Abs(disp[0]), math.Max(math.Abs(disp[1]), math.Abs(disp[2]))) / maxStep))
	if steps < 1 {
		steps = 1
	}
	step := disp.Mul(1 / float64(steps))

	res := MoveResult{Position: pos}
	for i := 0; i < steps; i++ {
		for _, axis := range [3]int{1, 0, 2} {
			d := step[axis]
			if d == 0 {
				continue
			}
			if bc.moveAxis(&res, axis, d, solid) {
				// дальше по этой оси не двигаемся
				step[axis] = 0
			}
		}
	}

	if !res.OnGround && disp[1] == 0 {
		below := res.Position
		below[1] -= 2 * epsilon
		if h, ok := bc.firstHit(below, 1, -1, solid); ok {
			res.OnGround = true
			res.Collided = h.btype
		}
	}
	return res
}

// moveAxis смещает позицию вдоль оси и возвращает true при столкновении
func (bc *BoxCollider) moveAxis(res *MoveResult, axis int, d float64, solid BlockChecker) bool {
	next := res.Position
	next[axis] += d

	h, blocked := bc.firstHit(next, axis, d, solid)
	if !blocked {
		res.Position = next
		return false
	}

	ext := bc.halfExtents()[axis]
	face := float64([3]int{h.cell.X, h.cell.Y, h.cell.Z}[axis])
	half := vec.BlockWidth / 2.0
	if d < 0 {
		next[axis] = face + half + ext
	} else {
		next[axis] = face - half - ext
	}
	// Прижатие не должно отбрасывать назад дальше исходной позиции
	if (d < 0 && next[axis] > res.Position[axis]) || (d > 0 && next[axis] < res.Position[axis]) {
		next[axis] = res.Position[axis]
	}
	res.Position = next

	if axis == 1 {
		if d < 0 {
			res.OnGround = true
			res.Collided = h.btype
		} else {
			res.HitHead = true
		}
	}
	return true
}
