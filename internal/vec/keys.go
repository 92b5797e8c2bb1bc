package vec

import (
	"fmt"
	"strconv"
	"strings"
)

// NameFromCoordinate возвращает канонический ключ позиции "x_y_z"
func NameFromCoordinate(x, y, z int) string {
	return strconv.Itoa(x) + "_" + strconv.Itoa(y) + "_" + strconv.Itoa(z)
}

// Key возвращает канонический ключ позиции
func (v Vec3) Key() string {
	return NameFromCoordinate(v.X, v.Y, v.Z)
}

// FaceName возвращает ключ грани "x_y_z_type_face"
func FaceName(pos Vec3, blockType string, face Face) string {
	return pos.Key() + "_" + blockType + "_" + strconv.Itoa(int(face))
}

// NameChunkFromCoordinate возвращает ключ чанка "cx_cz"
func NameChunkFromCoordinate(x, z int) string {
	return strconv.Itoa(x) + "_" + strconv.Itoa(z)
}

// Key возвращает ключ чанка
func (v Vec2) Key() string {
	return NameChunkFromCoordinate(v.X, v.Z)
}

// ParseKey разбирает ключ позиции "x_y_z"
func ParseKey(key string) (Vec3, error) {
	parts := strings.Split(key, "_")
	if len(parts) != 3 {
		return Vec3{}, fmt.Errorf("некорректный ключ позиции %q", key)
	}
	return parseXYZ(parts)
}

// ParseChunkKey разбирает ключ чанка "cx_cz"
func ParseChunkKey(key string) (Vec2, error) {
	parts := strings.Split(key, "_")
	if len(parts) != 2 {
		return Vec2{}, fmt.Errorf("некорректный ключ чанка %q", key)
	}
	x, err := strconv.Atoi(parts[0])
	if err != nil {
		return Vec2{}, fmt.Errorf("ключ чанка %q: %w", key, err)
	}
	z, err := strconv.Atoi(parts[1])
	if err != nil {
		return Vec2{}, fmt.Errorf("ключ чанка %q: %w", key, err)
	}
	return Vec2{X: x, Z: z}, nil
}

// FaceDetail результат разбора ключа грани
type FaceDetail struct {
	Pos  Vec3
	Type string
	Face Face
}

// DetailFromName разбирает ключ грани "x_y_z_type_face".
// Имя типа может само содержать подчёркивания.
func DetailFromName(name string) (FaceDetail, error) {
	parts := strings.Split(name, "_")
	if len(parts) < 5 {
		return FaceDetail{}, fmt.Errorf("некорректный ключ грани %q", name)
	}
	pos, err := parseXYZ(parts[:3])
	if err != nil {
		return FaceDetail{}, err
	}
	faceIdx, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil || faceIdx < 0 || faceIdx >= FaceCount {
		return FaceDetail{}, fmt.Errorf("некорректная грань в ключе %q", name)
	}
	return FaceDetail{
		Pos:  pos,
		Type: strings.Join(parts[3:len(parts)-1], "_"),
		Face: Face(faceIdx),
	}, nil
}

func parseXYZ(parts []string) (Vec3, error) {
	var coords [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Vec3{}, fmt.Errorf("координата %q: %w", p, err)
		}
		coords[i] = n
	}
	return Vec3{X: coords[0], Y: coords[1], Z: coords[2]}, nil
}
