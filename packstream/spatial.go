package packstream

// Point2D is a point in the coordinate system identified by SRID.
type Point2D struct {
	SRID int32
	X    float64
	Y    float64
}

// Point3D is a point with three coordinates.
type Point3D struct {
	SRID int32
	X    float64
	Y    float64
	Z    float64
}
