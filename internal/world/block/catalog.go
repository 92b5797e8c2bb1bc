package block

// Константы ID блоков
const (
	Air Type = iota // 0 - пусто / удалён
	Grass
	Dirt
	Stone
	Cobblestone
	OakLog
	OakPlanks
	OakLeaves
	Sand
	Glass
	Brick
)

// Регистрируем все типы блоков при импорте пакета
func init() {
	Register(&Kind{ID: Grass, Name: "grass",
		Textures: column("grass_top", "grass_side", "dirt"),
		Cues:     Cues{Place: "grass_place", Break: "grass_break", Step: "grass_step"}})
	Register(&Kind{ID: Dirt, Name: "dirt",
		Textures: uniform("dirt"),
		Cues:     Cues{Place: "gravel_place", Break: "gravel_break", Step: "gravel_step"}})
	Register(&Kind{ID: Stone, Name: "stone",
		Textures: uniform("stone"),
		Cues:     Cues{Place: "stone_place", Break: "stone_break", Step: "stone_step"}})
	Register(&Kind{ID: Cobblestone, Name: "cobblestone",
		Textures: uniform("cobblestone"),
		Cues:     Cues{Place: "stone_place", Break: "stone_break", Step: "stone_step"}})
	Register(&Kind{ID: OakLog, Name: "oak_log",
		Textures: column("oak_log_top", "oak_log_side", "oak_log_top"),
		Cues:     Cues{Place: "wood_place", Break: "wood_break", Step: "wood_step"}})
	Register(&Kind{ID: OakPlanks, Name: "oak_planks",
		Textures: uniform("oak_planks"),
		Cues:     Cues{Place: "wood_place", Break: "wood_break", Step: "wood_step"}})
	Register(&Kind{ID: OakLeaves, Name: "oak_leaves",
		Textures: uniform("oak_leaves"),
		Cues:     Cues{Place: "grass_place", Break: "grass_break", Step: "grass_step"}})
	Register(&Kind{ID: Sand, Name: "sand",
		Textures: uniform("sand"),
		Cues:     Cues{Place: "sand_place", Break: "sand_break", Step: "sand_step"}})
	Register(&Kind{ID: Glass, Name: "glass",
		Textures: uniform("glass"),
		Cues:     Cues{Place: "stone_place", Break: "glass_break", Step: "stone_step"}})
	Register(&Kind{ID: Brick, Name: "brick",
		Textures: uniform("brick"),
		Cues:     Cues{Place: "stone_place", Break: "stone_break", Step: "stone_step"}})
}
