package block

import (
	"strconv"

	"github.com/vuongle2609/Minecraft/internal/vec"
)

// Type представляет идентификатор типа блока.
// Нулевое значение (Air) означает пустую ячейку и одновременно метку удаления.
type Type uint16

// TextureClass класс текстуры; ключ батча инстансов при отрисовке
type TextureClass string

// Cues имена звуковых сигналов блока
type Cues struct {
	Place string
	Break string
	Step  string
}

// Kind описывает тип блока: текстуру каждой грани и звуки
type Kind struct {
	ID       Type
	Name     string
	Textures [vec.FaceCount]TextureClass
	Cues     Cues
}

// TextureFor возвращает класс текстуры для грани
func (k *Kind) TextureFor(face vec.Face) TextureClass {
	if !face.Valid() {
		return ""
	}
	return k.Textures[face]
}

// String возвращает имя типа блока
func (t Type) String() string {
	if t == Air {
		return "air"
	}
	if k, ok := Get(t); ok {
		return k.Name
	}
	return "unknown(" + strconv.Itoa(int(t)) + ")"
}

// uniform заполняет все шесть граней одним классом
func uniform(c TextureClass) [vec.FaceCount]TextureClass {
	return [vec.FaceCount]TextureClass{c, c, c, c, c, c}
}

// column задаёт отдельные классы для верха, низа и боковых граней
func column(top, side, bottom TextureClass) [vec.FaceCount]TextureClass {
	var t [vec.FaceCount]TextureClass
	t[vec.FaceFront] = side
	t[vec.FaceBack] = side
	t[vec.FaceLeft] = side
	t[vec.FaceRight] = side
	t[vec.FaceTop] = top
	t[vec.FaceBottom] = bottom
	return t
}
