package crs

import "math"

// GRS80 ellipsoid, shared by every NAD83-based CRS here. NAD83 and WGS84
// differ by under a meter at city scale, which is below the resolution of
// every analysis this tool performs, so datum shifts are treated as identity.
const (
	semiMajorM = 6378137.0
	eccSq      = 0.00669438002290
)

// webMercatorMaxLat is the latitude at which the square Web Mercator world
// ends; inputs beyond it are clamped rather than rejected.
const webMercatorMaxLat = 85.05112878

// projection converts between geographic coordinates (lon/lat degrees) and
// projected coordinates (meters, or degrees for the geographic case).
type projection interface {
	forward(lon, lat float64) (x, y float64)
	inverse(x, y float64) (lon, lat float64)
}

// geographic is the identity projection for lon/lat CRSs such as EPSG:4326.
type geographic struct{}

func (geographic) forward(lon, lat float64) (float64, float64) { return lon, lat }
func (geographic) inverse(x, y float64) (float64, float64)     { return x, y }

// webMercator implements the spherical Mercator used by EPSG:3857.
type webMercator struct{}

func (webMercator) forward(lon, lat float64) (float64, float64) {
	if lat > webMercatorMaxLat {
		lat = webMercatorMaxLat
	}
	if lat < -webMercatorMaxLat {
		lat = -webMercatorMaxLat
	}
	x := semiMajorM * rad(lon)
	y := semiMajorM * math.Log(math.Tan(math.Pi/4+rad(lat)/2))
	return x, y
}

func (webMercator) inverse(x, y float64) (float64, float64) {
	lon := deg(x / semiMajorM)
	lat := deg(2*math.Atan(math.Exp(y/semiMajorM)) - math.Pi/2)
	return lon, lat
}

// albers implements the ellipsoidal Albers equal-area conic projection
// (Snyder, Map Projections: A Working Manual, p. 101-102).
type albers struct {
	lat0, lon0     float64 // origin, degrees
	lat1, lat2     float64 // standard parallels, degrees
	falseE, falseN float64 // meters

	// derived once in newAlbers
	n, c, rho0 float64
}

func newAlbers(lat0, lon0, lat1, lat2, falseE, falseN float64) *albers {
	p := &albers{lat0: lat0, lon0: lon0, lat1: lat1, lat2: lat2, falseE: falseE, falseN: falseN}
	m1 := albersM(rad(lat1))
	m2 := albersM(rad(lat2))
	q0 := albersQ(rad(lat0))
	q1 := albersQ(rad(lat1))
	q2 := albersQ(rad(lat2))
	p.n = (m1*m1 - m2*m2) / (q2 - q1)
	p.c = m1*m1 + p.n*q1
	p.rho0 = semiMajorM * math.Sqrt(p.c-p.n*q0) / p.n
	return p
}

func albersM(phi float64) float64 {
	s := math.Sin(phi)
	return math.Cos(phi) / math.Sqrt(1-eccSq*s*s)
}

func albersQ(phi float64) float64 {
	e := math.Sqrt(eccSq)
	s := math.Sin(phi)
	return (1 - eccSq) * (s/(1-eccSq*s*s) - (1/(2*e))*math.Log((1-e*s)/(1+e*s)))
}

func (p *albers) forward(lon, lat float64) (float64, float64) {
	q := albersQ(rad(lat))
	rho := semiMajorM * math.Sqrt(p.c-p.n*q) / p.n
	theta := p.n * rad(lon-p.lon0)
	x := p.falseE + rho*math.Sin(theta)
	y := p.falseN + p.rho0 - rho*math.Cos(theta)
	return x, y
}

func (p *albers) inverse(x, y float64) (float64, float64) {
	dx := x - p.falseE
	dy := p.rho0 - (y - p.falseN)
	rho := math.Hypot(dx, dy)
	theta := math.Atan2(dx, dy)
	if p.n < 0 {
		rho = -rho
		theta = math.Atan2(-dx, -dy)
	}
	q := (p.c - (rho*p.n/semiMajorM)*(rho*p.n/semiMajorM)) / p.n
	lat := albersPhi(q)
	lon := p.lon0 + deg(theta/p.n)
	return lon, lat
}

// albersPhi inverts q(phi) by Newton iteration; converges in a handful of
// steps for any q inside the valid projection area.
func albersPhi(q float64) float64 {
	e := math.Sqrt(eccSq)
	phi := math.Asin(q / 2)
	for i := 0; i < 25; i++ {
		s := math.Sin(phi)
		cosPhi := math.Cos(phi)
		if math.Abs(cosPhi) < 1e-12 {
			break
		}
		denom := 1 - eccSq*s*s
		delta := (denom * denom / (2 * cosPhi)) *
			(q/(1-eccSq) - s/denom + (1/(2*e))*math.Log((1-e*s)/(1+e*s)))
		phi += delta
		// sub-micrometer on the ellipsoid; keeps reproject-to-self exact
		// to well under 1e-6 m
		if math.Abs(delta) < 1e-14 {
			break
		}
	}
	return deg(phi)
}

func rad(d float64) float64 { return d * math.Pi / 180 }
func deg(r float64) float64 { return r * 180 / math.Pi }
