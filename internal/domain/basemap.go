package domain

import "context"

// BaseMapSource names where a boundary payload came from.
type BaseMapSource string

const (
	BaseMapNetwork BaseMapSource = "network"
	BaseMapCache   BaseMapSource = "cache"
	BaseMapStale   BaseMapSource = "stale"
	BaseMapStatic  BaseMapSource = "static"
)

// BaseMap is a GeoJSON boundary description for the map background.
type BaseMap struct {
	GeoJSON []byte
	Source  BaseMapSource
}

// BaseMapProvider fetches the province boundary GeoJSON drawn under the risk
// map. Implementations may depend on the network and may fail; the
// aggregation code never calls them.
type BaseMapProvider interface {
	BoundaryGeoJSON(ctx context.Context) (BaseMap, error)
}
