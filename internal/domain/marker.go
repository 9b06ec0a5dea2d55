package domain

import "strings"

// Marker is one pin on the map. Markers are keyed by exact coordinates; every
// place name found at the same coordinates ends up in Label.
type Marker struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Label     []string `json:"label"`
	Title     string   `json:"title"`
}

// AddName appends name to the label unless it is already there.
func (m *Marker) AddName(name string) {
	for _, existing := range m.Label {
		if existing == name {
			return
		}
	}
	m.Label = append(m.Label, name)
	m.Title = strings.Join(m.Label, ", ")
}

// Viewport is where the map camera points.
type Viewport struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Zoom      int     `json:"zoom"`
}
