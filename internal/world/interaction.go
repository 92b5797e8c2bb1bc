package world

import (
	"fmt"

	"github.com/vuongle2609/Minecraft/internal/vec"
	"github.com/vuongle2609/Minecraft/internal/world/block"
)

// InteractionDistance максимальная дистанция установки и разрушения блоков
const InteractionDistance = 12.0

// WithinReach сообщает, доступна ли цель на указанной дистанции
func WithinReach(distance float64) bool {
	return distance >= 0 && distance <= InteractionDistance
}

// PlaceTarget возвращает ячейку, соседнюю с гранью из ключа "x_y_z_type_face"
func PlaceTarget(hitKey string) (vec.Vec3, error) {
	detail, err := vec.DetailFromName(hitKey)
	if err != nil {
		return vec.Vec3{}, err
	}
	return detail.Pos.Neighbor(detail.Face), nil
}

// Pick возвращает тип блока, которому принадлежит грань
func (w *World) Pick(hitKey string) (block.Type, bool) {
	detail, err := vec.DetailFromName(hitKey)
	if err != nil {
		return block.Air, false
	}
	t := w.grid.Get(detail.Pos)
	return t, t != block.Air
}

// PlaceAgainst ставит блок вплотную к грани, в которую попал луч
func (w *World) PlaceAgainst(hitKey string, t block.Type, distance float64) (vec.Vec3, error) {
	if !WithinReach(distance) {
		return vec.Vec3{}, fmt.Errorf("цель вне досягаемости: %.1f", distance)
	}
	target, err := PlaceTarget(hitKey)
	if err != nil {
		return vec.Vec3{}, err
	}
	if w.grid.Occupied(target) {
		return target, fmt.Errorf("ячейка %s занята", target.Key())
	}
	if !w.PlaceBlock(target, t) {
		return target, fmt.Errorf("чанк ячейки %s недоступен", target.Key())
	}
	return target, nil
}

// BreakAt разрушает блок, которому принадлежит грань
func (w *World) BreakAt(hitKey string, distance float64) (block.Type, error) {
	if !WithinReach(distance) {
		return block.Air, fmt.Errorf("цель вне досягаемости: %.1f", distance)
	}
	detail, err := vec.DetailFromName(hitKey)
	if err != nil {
		return block.Air, err
	}
	return w.BreakBlock(detail.Pos), nil
}
