package network

import "math"

const earthRadiusKM = 6371.0

// HaversineKM returns the great-circle distance between two points in kilometers.
func HaversineKM(a, b Coord) float64 {
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180
	la1 := a.Lat * math.Pi / 180
	la2 := b.Lat * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(la1)*math.Cos(la2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKM * c
}

// HaversineM returns the great-circle distance between two points in meters.
func HaversineM(a, b Coord) float64 {
	return HaversineKM(a, b) * 1000
}

// distToSegmentM returns the distance in meters from point p to the segment
// a-b, using a local flat-earth projection around p. Good enough at street
// scale; snapping never spans more than a few kilometers.
func distToSegmentM(p, a, b Coord) float64 {
	mPerDegLat := 111320.0
	mPerDegLon := 111320.0 * math.Cos(p.Lat*math.Pi/180)

	ax := (a.Lon - p.Lon) * mPerDegLon
	ay := (a.Lat - p.Lat) * mPerDegLat
	bx := (b.Lon - p.Lon) * mPerDegLon
	by := (b.Lat - p.Lat) * mPerDegLat

	dx := bx - ax
	dy := by - ay
	segLenSq := dx*dx + dy*dy
	if segLenSq == 0 {
		return math.Sqrt(ax*ax + ay*ay)
	}
	// Projection parameter of the origin (the point p) onto a-b, clamped.
	t := -(ax*dx + ay*dy) / segLenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	cx := ax + t*dx
	cy := ay + t*dy
	return math.Sqrt(cx*cx + cy*cy)
}
