package markers

import (
	"context"
	"sync"

	"scriptures/mapped/internal/domain"
	"scriptures/mapped/internal/poller"

	log "github.com/sirupsen/logrus"
)

// Widget is the map capability set the aggregator drives.
type Widget interface {
	IsReady() bool
	PlaceMarker(marker domain.Marker)
	ClearMarkers()
	FitToMarkers(markers []domain.Marker)
	PanTo(latitude, longitude float64, zoom int)
}

// Waiter defers fn until the widget is ready. *poller.Poller satisfies it.
type Waiter interface {
	WhenReady(ctx context.Context, target poller.Readiness, fn func())
}

// Viewport defaults used when there is nothing or only one place to show.
type ViewportPolicy struct {
	DefaultLatitude  float64
	DefaultLongitude float64
	DefaultZoom      int
	SingleMarkerZoom int
}

type Aggregator struct {
	widget Widget
	waiter Waiter
	policy ViewportPolicy

	mu sync.Mutex
}

func NewAggregator(widget Widget, waiter Waiter, policy ViewportPolicy) *Aggregator {
	return &Aggregator{
		widget: widget,
		waiter: waiter,
		policy: policy,
	}
}

// Build merges geotags into markers by exact coordinates, keeping first-seen
// order. Names at an existing coordinate are appended once.
func Build(geotags []domain.Geotag) []domain.Marker {
	type coordinate struct{ lat, lon float64 }

	markers := make([]domain.Marker, 0, len(geotags))
	index := make(map[coordinate]int, len(geotags))

	for _, g := range geotags {
		key := coordinate{g.Latitude, g.Longitude}
		if i, ok := index[key]; ok {
			markers[i].AddName(g.DisplayName())
			continue
		}

		marker := domain.Marker{Latitude: g.Latitude, Longitude: g.Longitude}
		marker.AddName(g.DisplayName())
		index[key] = len(markers)
		markers = append(markers, marker)
	}

	return markers
}

// Commit replaces every marker on the widget with the chapter's markers and
// adjusts the viewport. The widget must be ready.
func (a *Aggregator) Commit(geotags []domain.Geotag) []domain.Marker {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.commit(geotags)
}

func (a *Aggregator) commit(geotags []domain.Geotag) []domain.Marker {
	markers := Build(geotags)

	a.widget.ClearMarkers()
	for _, marker := range markers {
		a.widget.PlaceMarker(marker)
	}

	switch len(markers) {
	case 0:
		a.widget.PanTo(a.policy.DefaultLatitude, a.policy.DefaultLongitude, a.policy.DefaultZoom)
	case 1:
		a.widget.PanTo(markers[0].Latitude, markers[0].Longitude, a.policy.SingleMarkerZoom)
	default:
		a.widget.FitToMarkers(markers)
	}

	log.Debugf("📍 Placed %d markers from %d geotags", len(markers), len(geotags))
	return markers
}

// Refresh commits geotags once the widget is ready. current is checked right
// before committing; when it reports false the chapter has been replaced in
// the meantime and nothing is placed.
func (a *Aggregator) Refresh(ctx context.Context, geotags []domain.Geotag, current func() bool) {
	a.waiter.WhenReady(ctx, a.widget, func() {
		a.commitIf(current, geotags)
	})
}

// commitIf holds the lock across the check and the commit, so a commit that
// passed its check always lands before the next chapter's commit.
func (a *Aggregator) commitIf(current func() bool, geotags []domain.Geotag) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if current != nil && !current() {
		log.Debugf("Discarding markers for a chapter that is no longer shown")
		return false
	}
	a.commit(geotags)
	return true
}

// ShowLocation centers the map on a clicked geotag.
func (a *Aggregator) ShowLocation(latitude, longitude float64, zoom int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.widget.PanTo(latitude, longitude, zoom)
}
