package geo

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/geotrace/geotrace-go/internal/model"
)

// Source identifies the provider on every snapshot.
const Source = "ipinfo"

// snapshotFrom maps a loose provider payload onto a GeoSnapshot. Fields with
// an unexpected type or an empty value are left nil.
func snapshotFrom(ip string, raw map[string]any, now time.Time) *model.GeoSnapshot {
	snap := &model.GeoSnapshot{
		IP:         ip,
		Hostname:   stringField(raw, "hostname"),
		City:       stringField(raw, "city"),
		Region:     stringField(raw, "region"),
		Country:    stringField(raw, "country"),
		Postal:     stringField(raw, "postal"),
		Timezone:   stringField(raw, "timezone"),
		Org:        stringField(raw, "org"),
		Source:     Source,
		ResolvedAt: now.UTC(),
	}

	snap.Latitude, snap.Longitude = location(raw)
	snap.ASN, snap.ASName = autonomousSystem(raw, snap.Org)

	return snap
}

func stringField(raw map[string]any, key string) *string {
	return asString(raw[key])
}

func asString(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func asFloat(v any) *float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint64:
		f = float64(n)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// location reads "loc" ("lat,lon") and falls back to explicit
// latitude/longitude keys. Out-of-range coordinates are dropped.
func location(raw map[string]any) (lat, lon *float64) {
	if loc, ok := raw["loc"].(string); ok {
		if a, b, found := strings.Cut(loc, ","); found {
			lat, lon = asFloat(a), asFloat(b)
		}
	}
	if lat == nil {
		lat = asFloat(raw["latitude"])
	}
	if lon == nil {
		lon = asFloat(raw["longitude"])
	}

	if lat != nil && math.Abs(*lat) > 90 {
		lat = nil
	}
	if lon != nil && math.Abs(*lon) > 180 {
		lon = nil
	}
	return lat, lon
}

// autonomousSystem prefers the structured "asn" object and otherwise parses
// an org string such as "AS15169 Google LLC".
func autonomousSystem(raw map[string]any, org *string) (asn, name *string) {
	if obj, ok := raw["asn"].(map[string]any); ok {
		asn = asString(obj["asn"])
		name = asString(obj["name"])
	}
	if asn != nil || org == nil {
		return asn, name
	}

	head, rest, _ := strings.Cut(*org, " ")
	if !isASN(head) {
		return nil, name
	}
	asn = &head
	if name == nil {
		name = asString(rest)
	}
	return asn, name
}

func isASN(s string) bool {
	if len(s) < 3 || !strings.EqualFold(s[:2], "AS") {
		return false
	}
	for _, r := range s[2:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
