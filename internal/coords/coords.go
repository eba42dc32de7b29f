package coords

import (
	"fmt"
	"math"
)

/*
	Standard Web Mercator tile math (https://en.m.wikipedia.org/wiki/Web_Mercator_projection#Formulas):

	    x = 2^z * (longitude + 180) / 360
	    y = 2^z * (1 - ln[ tan(lat) + 1/cos(lat) ] / π) / 2

	with lat in radians, (0,0) the north-west corner of the world and
	(2^z, 2^z) the south-east. Latitudes beyond ±~85.05° have no tile.
*/

// LatMax is the northern edge of the Web Mercator domain in degrees.
var LatMax = rad2deg(2*math.Atan(math.Pow(math.E, math.Pi)) - math.Pi/2)

func rad2deg(rad float64) float64 { return rad * (180.0 / math.Pi) }
func deg2rad(deg float64) float64 { return deg * (math.Pi / 180.0) }

// LatLng holds latitude and longitude in degrees.
type LatLng struct {
	Latitude  float64
	Longitude float64
}

// TileXY is a tile coordinate at some zoom level.
type TileXY struct {
	X int
	Y int
}

// LatLng2Tile returns the tile containing pos at zoom z.
func LatLng2Tile(z int, pos LatLng) (TileXY, error) {
	if math.Abs(pos.Latitude) > LatMax {
		return TileXY{}, fmt.Errorf("latitude must be within ±%f", LatMax)
	}

	n := float64(int(1) << uint(z))
	lat := deg2rad(pos.Latitude)
	fx := (pos.Longitude + 180) / 360 * n
	fy := (1 - math.Log(math.Tan(lat)+1/math.Cos(lat))/math.Pi) / 2 * n

	x := int(math.Floor(fx))
	y := int(math.Floor(fy))
	if x >= int(n) {
		x = int(n) - 1
	}
	if y >= int(n) {
		y = int(n) - 1
	}
	return TileXY{X: x, Y: y}, nil
}

// Tile2LatLng returns the north-west corner of tile (x, y) at zoom z.
func Tile2LatLng(z, x, y int) LatLng {
	n := float64(int(1) << uint(z))
	lng := float64(x)/n*360 - 180
	lat := rad2deg(math.Atan(math.Sinh(math.Pi * (1 - 2*float64(y)/n))))
	return LatLng{Latitude: lat, Longitude: lng}
}
