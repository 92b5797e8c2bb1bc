package render

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/vuongle2609/Minecraft/internal/vec"
)

// Локальная нормаль единичного квада направлена по +x; геометрия квада
// смещена на половину ширины блока вдоль нормали.
var faceRotations = [vec.FaceCount]mgl32.Mat4{
	vec.FaceFront:  mgl32.Ident4(),
	vec.FaceBack:   mgl32.HomogRotate3DY(math.Pi),
	vec.FaceLeft:   mgl32.HomogRotate3DY(-math.Pi / 2),
	vec.FaceRight:  mgl32.HomogRotate3DY(math.Pi / 2),
	vec.FaceTop:    mgl32.HomogRotate3DZ(math.Pi / 2),
	vec.FaceBottom: mgl32.HomogRotate3DZ(-math.Pi / 2),
}

// FaceRotation возвращает поворот грани
func FaceRotation(face vec.Face) mgl32.Mat4 {
	if !face.Valid() {
		return mgl32.Ident4()
	}
	return faceRotations[face]
}

// FaceTransform возвращает трансформацию грани: перенос в центр блока и поворот
func FaceTransform(pos vec.Vec3, face vec.Face) mgl32.Mat4 {
	t := mgl32.Translate3D(float32(pos.X), float32(pos.Y), float32(pos.Z))
	return t.Mul4(FaceRotation(face))
}

// FaceNormal возвращает направление, в котором смотрит грань после поворота
func FaceNormal(face vec.Face) mgl32.Vec3 {
	return FaceRotation(face).Mul4x1(mgl32.Vec4{1, 0, 0, 0}).Vec3()
}
