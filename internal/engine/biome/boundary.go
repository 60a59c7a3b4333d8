package biome

// Neighbour offsets in (dx, dy) grid steps. The first four are the edge
// neighbours; the diagonals follow.
var neighbourOffsets = [8][2]int{
	{-1, 0}, {1, 0}, {0, -1}, {0, 1},
	{-1, -1}, {1, -1}, {-1, 1}, {1, 1},
}

// Boundaries marks every vertex of a side x side row-major grid whose
// primary biome differs from one of its neighbours inside the grid.
// neighbours is 4 or 8; any other value is treated as 4. A boundary
// vertex takes the first differing neighbour's biome as its secondary;
// every other vertex uses its own primary.
//
// primary must be fully populated before the call.
func Boundaries(primary []uint8, side, neighbours int) (boundary []bool, secondary []uint8) {
	n := side * side
	boundary = make([]bool, n)
	secondary = make([]uint8, n)
	if side <= 0 || len(primary) < n {
		return boundary, secondary
	}

	count := 4
	if neighbours == 8 {
		count = 8
	}

	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			i := y*side + x
			secondary[i] = primary[i]
			for _, off := range neighbourOffsets[:count] {
				nx, ny := x+off[0], y+off[1]
				if nx < 0 || ny < 0 || nx >= side || ny >= side {
					continue
				}
				if p := primary[ny*side+nx]; p != primary[i] {
					boundary[i] = true
					secondary[i] = p
					break
				}
			}
		}
	}
	return boundary, secondary
}
