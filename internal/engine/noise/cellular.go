package noise

import "math"

// cellJitter is how far a feature point may move from its cell corner,
// as a fraction of the cell size.
const cellJitter = 0.9

// Salts keep the per-cell hashes independent of each other.
const (
	saltFeatureX = 0x5bd1e995
	saltFeatureY = 0x1b873593
	saltValue    = 0x27d4eb2f
)

// cellValue returns the label of the Voronoi cell containing (x, y).
// Every point whose nearest feature point is the same gets the same value.
func cellValue(x, y float64, seed int64) float64 {
	cx, cy := nearestCell(x, y, seed)
	return float64(hash3(cx, cy, int(seed)^saltValue))/math.MaxUint32*2 - 1
}

// nearestCell returns the lattice cell whose jittered feature point is
// closest to (x, y). Candidates are the 3x3 cells around the point.
func nearestCell(x, y float64, seed int64) (int, int) {
	ix := int(math.Floor(x))
	iy := int(math.Floor(y))

	bestX, bestY := ix, iy
	bestDist := math.Inf(1)
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			cx, cy := ix+dx, iy+dy
			fx, fy := featurePoint(cx, cy, seed)
			d := (fx-x)*(fx-x) + (fy-y)*(fy-y)
			if d < bestDist {
				bestDist = d
				bestX, bestY = cx, cy
			}
		}
	}
	return bestX, bestY
}

func featurePoint(cx, cy int, seed int64) (float64, float64) {
	jx := float64(hash3(cx, cy, int(seed)^saltFeatureX)) / math.MaxUint32
	jy := float64(hash3(cx, cy, int(seed)^saltFeatureY)) / math.MaxUint32
	return float64(cx) + 0.5 + (jx-0.5)*cellJitter, float64(cy) + 0.5 + (jy-0.5)*cellJitter
}
