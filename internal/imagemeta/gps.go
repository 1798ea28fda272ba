package imagemeta

// Rational mirrors the EXIF rational type: a numerator/denominator pair.
type Rational struct {
	Num int64
	Den int64
}

// Float converts the rational, returning 0 for a zero denominator rather
// than dividing by zero. Cheap cameras do write 0/0 rationals.
func (r Rational) Float() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

// GPSTags carries the raw positional tags from an EXIF block before
// conversion to signed decimal degrees. Every tag is optional; receivers
// frequently write altitude without a fix, or a single coordinate.
type GPSTags struct {
	LatRef      string
	Lat         *[3]Rational
	LonRef      string
	Lon         *[3]Rational
	Altitude    *Rational
	AltitudeRef *int
}

// GPSPosition is a converted position. Each component is independently
// optional so a partial fix keeps whatever the camera recorded.
type GPSPosition struct {
	Latitude  *float64
	Longitude *float64
	Altitude  *float64
}

// Empty reports whether no component was recorded at all.
func (p GPSPosition) Empty() bool {
	return p.Latitude == nil && p.Longitude == nil && p.Altitude == nil
}

// Convert turns degree/minute/second rationals into signed decimal degrees,
// component by component. Southern latitudes and western longitudes are
// negated per their reference tags; altitude is negated only when the
// reference marks below sea level.
func (g GPSTags) Convert() GPSPosition {
	var pos GPSPosition

	if g.Lat != nil {
		lat := dmsToDecimal(*g.Lat)
		if g.LatRef == "S" {
			lat = -lat
		}
		pos.Latitude = &lat
	}
	if g.Lon != nil {
		lon := dmsToDecimal(*g.Lon)
		if g.LonRef == "W" {
			lon = -lon
		}
		pos.Longitude = &lon
	}
	if g.Altitude != nil {
		alt := g.Altitude.Float()
		if g.AltitudeRef != nil && *g.AltitudeRef == 1 {
			alt = -alt
		}
		pos.Altitude = &alt
	}

	return pos
}

func dmsToDecimal(dms [3]Rational) float64 {
	return dms[0].Float() + dms[1].Float()/60 + dms[2].Float()/3600
}
