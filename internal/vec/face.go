package vec

// Face индекс грани блока
type Face uint8

const (
	FaceFront  Face = iota // +x
	FaceBack               // -x
	FaceLeft               // +z
	FaceRight              // -z
	FaceTop                // +y
	FaceBottom             // -y
)

// FaceCount число граней блока
const FaceCount = 6

// Faces все грани в каноническом порядке
var Faces = [FaceCount]Face{FaceFront, FaceBack, FaceLeft, FaceRight, FaceTop, FaceBottom}

var faceOffsets = [FaceCount]Vec3{
	FaceFront:  {X: BlockWidth},
	FaceBack:   {X: -BlockWidth},
	FaceLeft:   {Z: BlockWidth},
	FaceRight:  {Z: -BlockWidth},
	FaceTop:    {Y: BlockWidth},
	FaceBottom: {Y: -BlockWidth},
}

var faceNames = [FaceCount]string{"front", "back", "left", "right", "top", "bottom"}

// Offset возвращает смещение к соседней ячейке в направлении грани
func (f Face) Offset() Vec3 {
	if f >= FaceCount {
		return Vec3{}
	}
	return faceOffsets[f]
}

// Opposite возвращает противоположную грань
func (f Face) Opposite() Face {
	// грани идут парами: чётная и следующая нечётная
	return f ^ 1
}

// Valid проверяет, что индекс грани допустим
func (f Face) Valid() bool {
	return f < FaceCount
}

// String возвращает имя грани
func (f Face) String() string {
	if f >= FaceCount {
		return "unknown"
	}
	return faceNames[f]
}

// Neighbor возвращает соседнюю позицию в направлении грани
func (v Vec3) Neighbor(f Face) Vec3 {
	return v.Add(f.Offset())
}
