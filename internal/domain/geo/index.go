package geo

import (
	"bytes"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// kmPerLatDegree is close enough for cell sizing; exact distances always go
// through HaversineKm.
const kmPerLatDegree = 111.0

// Match is one radius-query hit.
type Match struct {
	ID         uuid.UUID
	Location   Location
	DistanceKm float64
}

type cellKey struct {
	row int
	col int
}

// Index is a grid-bucketed spatial index. Entries land in fixed-size
// lat/lon cells so a radius query only visits the cells under the query's
// bounding box instead of scanning every entry. Upsert and Remove take
// effect before the next Query returns; there is no staleness window
// inside the process.
type Index struct {
	mu      sync.RWMutex
	cellDeg float64
	cells   map[cellKey]map[uuid.UUID]Location
	byID    map[uuid.UUID]Location
}

// NewIndex builds an index with cells sized for the given typical query
// radius. Radii at or below zero fall back to ~25km cells.
func NewIndex(typicalRadiusKm float64) *Index {
	if typicalRadiusKm <= 0 {
		typicalRadiusKm = 25
	}
	return &Index{
		cellDeg: typicalRadiusKm / kmPerLatDegree,
		cells:   make(map[cellKey]map[uuid.UUID]Location),
		byID:    make(map[uuid.UUID]Location),
	}
}

func (ix *Index) cellFor(loc Location) cellKey {
	return cellKey{
		row: int(math.Floor(loc.Lat / ix.cellDeg)),
		col: int(math.Floor(loc.Lon / ix.cellDeg)),
	}
}

func (ix *Index) Upsert(id uuid.UUID, loc Location) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if old, ok := ix.byID[id]; ok {
		ix.dropLocked(id, old)
	}
	key := ix.cellFor(loc)
	cell, ok := ix.cells[key]
	if !ok {
		cell = make(map[uuid.UUID]Location)
		ix.cells[key] = cell
	}
	cell[id] = loc
	ix.byID[id] = loc
}

func (ix *Index) Remove(id uuid.UUID) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if old, ok := ix.byID[id]; ok {
		ix.dropLocked(id, old)
		delete(ix.byID, id)
	}
}

func (ix *Index) dropLocked(id uuid.UUID, loc Location) {
	key := ix.cellFor(loc)
	if cell, ok := ix.cells[key]; ok {
		delete(cell, id)
		if len(cell) == 0 {
			delete(ix.cells, key)
		}
	}
}

func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.byID)
}

// Query returns every entry within radiusKm of center, ascending by
// distance, ties broken by id so identical inputs always order identically.
//
// The cell sweep does not wrap longitude at the +-180 meridian: a radius
// straddling it misses entries on the far side. Service areas here are
// city-scale, nowhere near the antimeridian.
func (ix *Index) Query(center Location, radiusKm float64) []Match {
	if radiusKm <= 0 {
		return nil
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	latSpan := radiusKm / kmPerLatDegree
	cosLat := math.Cos(center.Lat * math.Pi / 180)
	if cosLat < 0.01 {
		cosLat = 0.01
	}
	lonSpan := radiusKm / (kmPerLatDegree * cosLat)

	minRow := int(math.Floor((center.Lat - latSpan) / ix.cellDeg))
	maxRow := int(math.Floor((center.Lat + latSpan) / ix.cellDeg))
	minCol := int(math.Floor((center.Lon - lonSpan) / ix.cellDeg))
	maxCol := int(math.Floor((center.Lon + lonSpan) / ix.cellDeg))

	out := make([]Match, 0)
	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			cell, ok := ix.cells[cellKey{row: row, col: col}]
			if !ok {
				continue
			}
			for id, loc := range cell {
				d := HaversineKm(center, loc)
				if d <= radiusKm {
					out = append(out, Match{ID: id, Location: loc, DistanceKm: d})
				}
			}
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].DistanceKm != out[j].DistanceKm {
			return out[i].DistanceKm < out[j].DistanceKm
		}
		return bytes.Compare(out[i].ID[:], out[j].ID[:]) < 0
	})
	return out
}
