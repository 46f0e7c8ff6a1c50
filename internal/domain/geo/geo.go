package geo

import (
	"fmt"
	"math"
)

// EarthRadiusMeters is the mean radius of Earth used for Haversine distance.
const EarthRadiusMeters = 6_371_000.0

// metersPerDegreeLat is the length of one degree of latitude.
const metersPerDegreeLat = 111_320.0

// Point is a WGS84 coordinate in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Validate checks that latitude is in [-90,90] and longitude in [-180,180].
func (p Point) Validate() error {
	if !ValidateCoordinates(p.Lat, p.Lng) {
		return fmt.Errorf("coordinates out of range: lat=%f lng=%f", p.Lat, p.Lng)
	}
	return nil
}

// DistanceTo returns the great-circle distance to q in meters.
func (p Point) DistanceTo(q Point) float64 {
	return Haversine(p.Lat, p.Lng, q.Lat, q.Lng)
}

// Haversine returns the great-circle distance in meters between two points
// specified by latitude and longitude in degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1r := lat1 * math.Pi / 180
	lat2r := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1r)*math.Cos(lat2r)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

// ValidateCoordinates checks that latitude is in [-90,90] and longitude in [-180,180].
func ValidateCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// Cell identifies a square-ish grid cell of roughly sizeMeters per side.
// Points closer than the cell size usually share a cell; that collision is
// what lets nearby identical searches reuse one cached upstream response.
type Cell struct {
	Row  int64
	Col  int64
	Size int
}

// CellOf snaps p onto a grid of sizeMeters cells. Longitude cell width is
// widened by 1/cos(lat) so cells stay roughly square away from the equator.
func CellOf(p Point, sizeMeters int) Cell {
	if sizeMeters <= 0 {
		sizeMeters = 150
	}
	latStep := float64(sizeMeters) / metersPerDegreeLat
	row := int64(math.Floor(p.Lat / latStep))
	col := int64(math.Floor(p.Lng / lngStep(row, latStep)))
	return Cell{Row: row, Col: col, Size: sizeMeters}
}

// lngStep is the cell width in degrees for row, taken at the row's center so
// every point in a row agrees.
func lngStep(row int64, latStep float64) float64 {
	rowLat := (float64(row) + 0.5) * latStep
	cosLat := math.Cos(rowLat * math.Pi / 180)
	if cosLat < 0.01 {
		cosLat = 0.01
	}
	return latStep / cosLat
}

// bounds returns the south-west and north-east corners.
func (c Cell) bounds() (sw, ne Point) {
	latStep := float64(c.Size) / metersPerDegreeLat
	w := lngStep(c.Row, latStep)
	sw = Point{Lat: float64(c.Row) * latStep, Lng: float64(c.Col) * w}
	ne = Point{Lat: float64(c.Row+1) * latStep, Lng: float64(c.Col+1) * w}
	return sw, ne
}

// Center returns the midpoint of the cell.
func (c Cell) Center() Point {
	sw, ne := c.bounds()
	return Point{Lat: (sw.Lat + ne.Lat) / 2, Lng: (sw.Lng + ne.Lng) / 2}
}

// HalfDiagonal returns the distance in meters from the center to the farthest
// corner. Every point of the cell lies within it.
func (c Cell) HalfDiagonal() float64 {
	sw, ne := c.bounds()
	center := c.Center()
	var d float64
	for _, corner := range []Point{sw, ne, {Lat: sw.Lat, Lng: ne.Lng}, {Lat: ne.Lat, Lng: sw.Lng}} {
		d = math.Max(d, center.DistanceTo(corner))
	}
	return d
}

// String renders the cell as a stable key fragment.
func (c Cell) String() string {
	return fmt.Sprintf("%d:%d@%d", c.Row, c.Col, c.Size)
}
