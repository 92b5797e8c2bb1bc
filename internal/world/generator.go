package world

import (
	"github.com/vuongle2609/Minecraft/internal/vec"
	"github.com/vuongle2609/Minecraft/internal/world/block"
)

// Generator заполняет чанк исходным содержимым
type Generator interface {
	Generate(coord vec.Vec2) map[vec.Vec3]block.Type
}

// FlatGenerator генерирует плоский слой одного типа на высоте Height
type FlatGenerator struct {
	Surface block.Type
	Height  int
}

// NewFlatGenerator создаёт генератор травяной плоскости на y=0
func NewFlatGenerator() *FlatGenerator {
	return &FlatGenerator{Surface: block.Grass}
}

// Generate заполняет все ChunkSize x ChunkSize ячеек чанка
func (g *FlatGenerator) Generate(coord vec.Vec2) map[vec.Vec3]block.Type {
	origin := coord.Origin()
	out := make(map[vec.Vec3]block.Type, vec.ChunkSize*vec.ChunkSize)
	for i := 0; i < vec.ChunkSize; i++ {
		for j := 0; j < vec.ChunkSize; j++ {
			pos := vec.Vec3{
				X: origin.X + i*vec.BlockWidth,
				Y: g.Height,
				Z: origin.Z + j*vec.BlockWidth,
			}
			out[pos] = g.Surface
		}
	}
	return out
}

