// Package astro answers the one astronomical question the signal needs:
// is Mercury in apparent retrograde motion on a given day.
//
// Positions come from the JPL approximate Keplerian elements (Standish,
// table 1), which are valid for 1800-2050. Dates outside that window have
// no ephemeris and report Unavailable.
package astro

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Outcome is the typed result of an astronomical condition check.
type Outcome int

const (
	Unavailable Outcome = iota
	Inactive
	Active
)

func (o Outcome) String() string {
	switch o {
	case Active:
		return "ACTIVE"
	case Inactive:
		return "INACTIVE"
	default:
		return "UNAVAILABLE"
	}
}

var (
	ErrZeroDate   = errors.New("astro: zero date")
	ErrOutOfRange = errors.New("astro: date outside ephemeris range")
)

const (
	j2000      = 2451545.0
	unixEpoch  = 2440587.5
	minYear    = 1800
	maxYear    = 2050
	deg        = math.Pi / 180
	halfWindow = 0.5 // days either side of the sample instant
)

// elements holds J2000 values and per-century rates:
// a (AU), e, I, L, long. perihelion, long. ascending node (degrees).
type elements struct {
	a, e, i, l, peri, node       float64
	da, de, di, dl, dperi, dnode float64
}

var (
	mercury = elements{
		a: 0.38709927, e: 0.20563593, i: 7.00497902,
		l: 252.25032350, peri: 77.45779628, node: 48.33076593,
		da: 0.00000037, de: 0.00001906, di: -0.00594749,
		dl: 149472.67411175, dperi: 0.16047689, dnode: -0.12534081,
	}
	earth = elements{
		a: 1.00000261, e: 0.01671123, i: -0.00001531,
		l: 100.46457166, peri: 102.93768193, node: 0,
		da: 0.00000562, de: -0.00004392, di: -0.01294668,
		dl: 35999.37244981, dperi: 0.32327364, dnode: 0,
	}
)

// MercuryRetrograde reports whether Mercury's geocentric ecliptic longitude
// is decreasing on the calendar day of date. The day is sampled at 00:00 UTC
// of date's own year/month/day, whatever location date carries.
func MercuryRetrograde(date time.Time) (Outcome, error) {
	if date.IsZero() {
		return Unavailable, ErrZeroDate
	}
	y, m, d := date.Date()
	if y < minYear || y > maxYear {
		return Unavailable, fmt.Errorf("%w: year %d", ErrOutOfRange, y)
	}

	jd := julianDay(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
	before := geocentricLongitude(mercury, jd-halfWindow)
	after := geocentricLongitude(mercury, jd+halfWindow)
	motion := wrap180(after - before)
	if math.IsNaN(motion) || math.IsInf(motion, 0) {
		return Unavailable, fmt.Errorf("astro: non-finite motion for %s", date.Format("2006-01-02"))
	}

	if motion < 0 {
		return Active, nil
	}
	return Inactive, nil
}

func julianDay(t time.Time) float64 {
	return float64(t.Unix())/86400.0 + unixEpoch
}

// geocentricLongitude returns the ecliptic longitude of p seen from the
// Earth-Moon barycenter, in degrees.
func geocentricLongitude(p elements, jd float64) float64 {
	px, py, _ := heliocentric(p, jd)
	ex, ey, _ := heliocentric(earth, jd)
	return math.Atan2(py-ey, px-ex) / deg
}

func heliocentric(p elements, jd float64) (x, y, z float64) {
	t := (jd - j2000) / 36525.0

	a := p.a + p.da*t
	e := p.e + p.de*t
	inc := (p.i + p.di*t) * deg
	l := p.l + p.dl*t
	peri := p.peri + p.dperi*t
	node := (p.node + p.dnode*t) * deg

	argPeri := peri*deg - node
	mean := math.Mod(l-peri, 360) * deg

	ecc := kepler(mean, e)
	xp := a * (math.Cos(ecc) - e)
	yp := a * math.Sqrt(1-e*e) * math.Sin(ecc)

	cw, sw := math.Cos(argPeri), math.Sin(argPeri)
	cn, sn := math.Cos(node), math.Sin(node)
	ci, si := math.Cos(inc), math.Sin(inc)

	x = (cw*cn-sw*sn*ci)*xp + (-sw*cn-cw*sn*ci)*yp
	y = (cw*sn+sw*cn*ci)*xp + (-sw*sn+cw*cn*ci)*yp
	z = (sw*si)*xp + (cw*si)*yp
	return x, y, z
}

// kepler solves M = E - e*sin(E) for E by Newton iteration.
func kepler(mean, e float64) float64 {
	ecc := mean + e*math.Sin(mean)
	for i := 0; i < 30; i++ {
		delta := (ecc - e*math.Sin(ecc) - mean) / (1 - e*math.Cos(ecc))
		ecc -= delta
		if math.Abs(delta) < 1e-12 {
			break
		}
	}
	return ecc
}

func wrap180(d float64) float64 {
	d = math.Mod(d, 360)
	if d > 180 {
		d -= 360
	} else if d <= -180 {
		d += 360
	}
	return d
}
