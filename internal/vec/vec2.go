package vec

import "math"

// ChunkSize количество ячеек по стороне чанка
const ChunkSize = 16

// ChunkSpan ширина чанка в мировых единицах
const ChunkSpan = ChunkSize * BlockWidth

// Vec2 представляет координаты чанка (X, Z)
type Vec2 struct {
	X, Z int
}

// ChunkCoordinate преобразует мировые координаты x/z в координаты чанка
func ChunkCoordinate(x, z float64) Vec2 {
	return Vec2{
		X: int(math.Floor(x / ChunkSpan)),
		Z: int(math.Floor(z / ChunkSpan)),
	}
}

// Origin возвращает позицию первой ячейки чанка
func (v Vec2) Origin() Vec3 {
	return Vec3{X: v.X * ChunkSpan, Y: 0, Z: v.Z * ChunkSpan}
}

// ChebyshevDistance возвращает расстояние до другого чанка в метрике max(|dx|, |dz|)
func (v Vec2) ChebyshevDistance(other Vec2) int {
	dx := v.X - other.X
	if dx < 0 {
		dx = -dx
	}
	dz := v.Z - other.Z
	if dz < 0 {
		dz = -dz
	}
	if dx > dz {
		return dx
	}
	return dz
}

// Neighborhood возвращает чанки в квадрате радиуса r вокруг v, начиная с центра
func (v Vec2) Neighborhood(r int) []Vec2 {
	result := make([]Vec2, 0, (2*r+1)*(2*r+1))
	result = append(result, v)
	for ring := 1; ring <= r; ring++ {
		for dx := -ring; dx <= ring; dx++ {
			for dz := -ring; dz <= ring; dz++ {
				if max(abs(dx), abs(dz)) != ring {
					continue
				}
				result = append(result, Vec2{X: v.X + dx, Z: v.Z + dz})
			}
		}
	}
	return result
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
