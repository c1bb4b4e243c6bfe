package vec

import "math"

// Vec3Float представляет трёхмерный вектор с плавающими координатами.
// Используется физикой и для позиций сущностей.
type Vec3Float struct {
	X, Y, Z float64
}

// ToBlockPos возвращает позицию блока, содержащего точку.
// Округление всегда вниз, чтобы отрицательные координаты
// попадали в правильный блок.
func (v Vec3Float) ToBlockPos() BlockPos {
	return BlockPos{
		X: int(math.Floor(v.X)),
		Y: int(math.Floor(v.Y)),
		Z: int(math.Floor(v.Z)),
	}
}

// FromBlockPos создаёт Vec3Float из позиции блока (угол блока).
func FromBlockPos(p BlockPos) Vec3Float {
	return Vec3Float{X: float64(p.X), Y: float64(p.Y), Z: float64(p.Z)}
}

// Add складывает два вектора.
func (v Vec3Float) Add(other Vec3Float) Vec3Float {
	return Vec3Float{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

// Sub вычитает вектор.
func (v Vec3Float) Sub(other Vec3Float) Vec3Float {
	return Vec3Float{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Mul умножает вектор на скаляр.
func (v Vec3Float) Mul(scalar float64) Vec3Float {
	return Vec3Float{X: v.X * scalar, Y: v.Y * scalar, Z: v.Z * scalar}
}

// Length возвращает длину вектора.
func (v Vec3Float) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Normalized возвращает нормализованный вектор.
func (v Vec3Float) Normalized() Vec3Float {
	length := v.Length()
	if length == 0 {
		return Vec3Float{}
	}
	return Vec3Float{X: v.X / length, Y: v.Y / length, Z: v.Z / length}
}

// DistanceTo возвращает расстояние до другой точки.
func (v Vec3Float) DistanceTo(other Vec3Float) float64 {
	return v.Sub(other).Length()
}
