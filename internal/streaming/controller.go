package streaming

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"go.opentelemetry.io/otel/attribute"

	"github.com/vuongle2609/Minecraft/internal/logging"
	"github.com/vuongle2609/Minecraft/internal/observability"
	"github.com/vuongle2609/Minecraft/internal/vec"
)

// ChunkActivator выставляет и снимает чанки мира
type ChunkActivator interface {
	ActivateChunk(ctx context.Context, coord vec.Vec2) (int, error)
	DeactivateChunk(coord vec.Vec2) int
}

// Controller следит за чанком движущейся сущности и при пересечении границы
// загружает окрестность радиуса Radius и выгружает чанки дальше Radius+1.
type Controller struct {
	world  ChunkActivator
	radius int

	current vec.Vec2
	started bool
	active  map[vec.Vec2]struct{}

	crossings uint64
	logger    *logging.Logger
}

// NewController создаёт контроллер с радиусом загрузки в чанках
func NewController(world ChunkActivator, radius int) *Controller {
	if radius < 0 {
		radius = 0
	}
	return &Controller{
		world:  world,
		radius: radius,
		active: make(map[vec.Vec2]struct{}),
		logger: logging.GetStreamingLogger(),
	}
}

// Current текущий чанк сущности
func (c *Controller) Current() vec.Vec2 { return c.current }

// Crossings число пересечений границ чанков
func (c *Controller) Crossings() uint64 { return c.crossings }

// Active активные чанки в детерминированном порядке
func (c *Controller) Active() []vec.Vec2 {
	out := make([]vec.Vec2, 0, len(c.active))
	for coord := range c.active {
		out = append(out, coord)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].X != out[j].X {
			return out[i].X < out[j].X
		}
		return out[i].Z < out[j].Z
	})
	return out
}

// ChunkOf возвращает чанк мировой позиции; позиция округляется до целых
func ChunkOf(pos mgl64.Vec3) vec.Vec2 {
	return vec.ChunkCoordinate(math.Round(pos.X()), math.Round(pos.Z()))
}

// Update сообщает контроллеру новую позицию. Возвращает true, если чанк сменился.
func (c *Controller) Update(ctx context.Context, pos mgl64.Vec3) (bool, error) {
	coord := ChunkOf(pos)
	if c.started && coord == c.current {
		return false, nil
	}
	from := c.current
	c.current = coord
	c.started = true
	c.crossings++

	if err := c.refresh(ctx); err != nil {
		return true, err
	}
	c.logger.Debug("Чанк %s -> %s, активно %d", from.Key(), coord.Key(), len(c.active))
	return true, nil
}

func (c *Controller) refresh(ctx context.Context) error {
	ctx, span := observability.StartSpan(ctx, "streaming.refresh")
	defer span.End()
	span.SetAttributes(attribute.String("chunk", c.current.Key()))

	for coord := range c.active {
		if coord.ChebyshevDistance(c.current) > c.radius+1 {
			c.world.DeactivateChunk(coord)
			delete(c.active, coord)
		}
	}

	for _, coord := range c.current.Neighborhood(c.radius) {
		if _, ok := c.active[coord]; ok {
			continue
		}
		if _, err := c.world.ActivateChunk(ctx, coord); err != nil {
			return fmt.Errorf("загрузка окрестности %s: %w", c.current.Key(), err)
		}
		c.active[coord] = struct{}{}
	}
	return nil
}
