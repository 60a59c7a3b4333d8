package noise

import "math"

func valueNoise(x, y float64, seed int64) float64 {
	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	x1 := x0 + 1
	y1 := y0 + 1

	sx := smooth(x - float64(x0))
	sy := smooth(y - float64(y0))

	ix0 := lerp(latticeValue(x0, y0, seed), latticeValue(x1, y0, seed), sx)
	ix1 := lerp(latticeValue(x0, y1, seed), latticeValue(x1, y1, seed), sx)

	return lerp(ix0, ix1, sy)
}

func smooth(t float64) float64 {
	return t * t * (3 - 2*t)
}

func lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

// latticeValue returns a hashed value in [-1, 1] for an integer point.
func latticeValue(x, y int, seed int64) float64 {
	return float64(hash3(x, y, int(seed)))/math.MaxUint32*2 - 1
}

func hash3(x, y, z int) uint32 {
	h := uint32(x*374761393 + y*668265263 + z*2147483647)
	h = (h ^ (h >> 13)) * 1274126177
	return h ^ (h >> 16)
}
