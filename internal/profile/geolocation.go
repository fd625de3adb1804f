package profile

import (
	"math"
	"slices"
	"strings"

	"github.com/couchcryptid/argo-profile-etl/internal/domain"
)

// Fallback position for profiles without a usable fix.
const (
	FallbackLatitude  = -90.0
	FallbackLongitude = 0.0
)

var (
	latitudeFills  = []float64{99999, -99.999, -999}
	longitudeFills = []float64{99999, -999.999, -999}
)

// NormalizeGeolocation turns a raw latitude/longitude pair into a GeoJSON point.
// Fill values, NaN and infinities on either coordinate yield the fallback point;
// otherwise the longitude is wrapped into [-180, 180].
func NormalizeGeolocation(lat, lon float64) domain.GeoPoint {
	if !usable(lat, latitudeFills) || !usable(lon, longitudeFills) {
		return domain.NewPoint(FallbackLatitude, FallbackLongitude)
	}
	return domain.NewPoint(lat, NormalizeLongitude(lon))
}

// NormalizeLongitude wraps lon into [-180, 180] by whole turns. Values
// already in range, including both ends, are returned unchanged.
func NormalizeLongitude(lon float64) float64 {
	if lon >= -180 && lon <= 180 {
		return lon
	}
	w := math.Mod(lon+180, 360)
	if w < 0 {
		w += 360
	}
	if w == 0 && lon > 0 {
		return 180
	}
	return w - 180
}

func usable(v float64, fills []float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && !slices.Contains(fills, v)
}

// SplitDelimited splits a joined text field on sep and trims each piece.
// Blank input yields an empty list.
func SplitDelimited(s string, sep string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	parts := strings.Split(s, sep)
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
