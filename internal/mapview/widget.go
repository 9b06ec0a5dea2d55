package mapview

import (
	"math"
	"sync"

	"scriptures/mapped/internal/domain"
)

// Bounds is the box FitToMarkers encloses.
type Bounds struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// Snapshot is the state the page mirrors onto its map.
type Snapshot struct {
	Ready    bool            `json:"ready"`
	Markers  []domain.Marker `json:"markers"`
	Viewport domain.Viewport `json:"viewport"`
	Bounds   *Bounds         `json:"bounds,omitempty"`
}

// Map is the server-side copy of the page's map widget. The page reports
// when its map has loaded; until then IsReady is false.
type Map struct {
	mu       sync.RWMutex
	ready    bool
	markers  []domain.Marker
	viewport domain.Viewport
	bounds   *Bounds
}

func New(initial domain.Viewport) *Map {
	return &Map{viewport: initial}
}

func (m *Map) SetReady(ready bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ready = ready
}

func (m *Map) IsReady() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ready
}

func (m *Map) PlaceMarker(marker domain.Marker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	marker.Label = append([]string(nil), marker.Label...)
	m.markers = append(m.markers, marker)
}

func (m *Map) ClearMarkers() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markers = nil
	m.bounds = nil
}

func (m *Map) PanTo(latitude, longitude float64, zoom int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.viewport = domain.Viewport{Latitude: latitude, Longitude: longitude, Zoom: zoom}
	m.bounds = nil
}

// FitToMarkers centers on the bounding box of markers and picks the largest
// zoom at which the box still fits.
func (m *Map) FitToMarkers(markers []domain.Marker) {
	if len(markers) == 0 {
		return
	}

	b := Bounds{North: -90, South: 90, East: -180, West: 180}
	for _, marker := range markers {
		b.North = math.Max(b.North, marker.Latitude)
		b.South = math.Min(b.South, marker.Latitude)
		b.East = math.Max(b.East, marker.Longitude)
		b.West = math.Min(b.West, marker.Longitude)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.bounds = &b
	m.viewport = domain.Viewport{
		Latitude:  (b.North + b.South) / 2,
		Longitude: (b.East + b.West) / 2,
		Zoom:      zoomForSpan(math.Max(b.North-b.South, b.East-b.West)),
	}
}

func (m *Map) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	markers := make([]domain.Marker, len(m.markers))
	copy(markers, m.markers)

	var bounds *Bounds
	if m.bounds != nil {
		b := *m.bounds
		bounds = &b
	}

	return Snapshot{
		Ready:    m.ready,
		Markers:  markers,
		Viewport: m.viewport,
		Bounds:   bounds,
	}
}

const (
	minZoom = 1
	maxZoom = 18
)

func zoomForSpan(degrees float64) int {
	if degrees <= 0 {
		return maxZoom
	}
	return clampZoom(int(math.Floor(math.Log2(360 / degrees))))
}

// ZoomForAltitude converts a camera altitude in meters to a map zoom level.
func ZoomForAltitude(altitude float64, fallback int) int {
	if altitude <= 0 {
		return fallback
	}
	return clampZoom(int(math.Round(math.Log2(40_000_000 / altitude))))
}

func clampZoom(zoom int) int {
	return max(minZoom, min(maxZoom, zoom))
}
