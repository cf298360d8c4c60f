package domain

import (
	"sort"
	"strings"
)

// Coordinate is a WGS-84 latitude/longitude pair.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// regionCoordinates maps region names and their Korean aliases to a map
// position. It is read-only after package init.
var regionCoordinates = map[string]Coordinate{
	"Incheon":   {Lat: 37.456, Lon: 126.705},
	"인천":        {Lat: 37.456, Lon: 126.705},
	"Geoje":     {Lat: 34.880, Lon: 128.620},
	"거제":        {Lat: 34.880, Lon: 128.620},
	"Ulleungdo": {Lat: 37.5, Lon: 130.9},
	"울릉도":       {Lat: 37.5, Lon: 130.9},
	"울릉":        {Lat: 37.5, Lon: 130.9},
}

// LookupRegion returns the map position of a region. The second result is
// false for unmapped regions, which are left out of spatial views.
func LookupRegion(name string) (Coordinate, bool) {
	c, ok := regionCoordinates[strings.TrimSpace(name)]
	return c, ok
}

// MappedRegions lists every name and alias in the coordinate table.
func MappedRegions() []string {
	names := make([]string, 0, len(regionCoordinates))
	for n := range regionCoordinates {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
