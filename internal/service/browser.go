package service

import (
	"context"
	"fmt"

	"scriptures/mapped/internal/catalog"
	"scriptures/mapped/internal/display"
	"scriptures/mapped/internal/domain"
	"scriptures/mapped/internal/mapview"
	"scriptures/mapped/internal/markers"
	"scriptures/mapped/internal/repository"
	"scriptures/mapped/internal/router"
	"scriptures/mapped/internal/state"

	log "github.com/sirupsen/logrus"
)

// Browser is one browsing session: the entry points the host page calls.
type Browser struct {
	store        *catalog.Store
	navigator    *router.Navigator
	aggregator   *markers.Aggregator
	panel        *display.Panel
	widget       *mapview.Map
	stateManager state.StateManager
	places       repository.PlaceRepository // optional
	session      string
	closeZoom    int
}

func NewBrowser(
	store *catalog.Store,
	navigator *router.Navigator,
	aggregator *markers.Aggregator,
	panel *display.Panel,
	widget *mapview.Map,
	stateManager state.StateManager,
	places repository.PlaceRepository,
	session string,
	closeZoom int,
) *Browser {
	return &Browser{
		store:        store,
		navigator:    navigator,
		aggregator:   aggregator,
		panel:        panel,
		widget:       widget,
		stateManager: stateManager,
		places:       places,
		session:      session,
		closeZoom:    closeZoom,
	}
}

// Initialize loads the catalog and calls onReady once it is usable. On
// failure onReady is not called.
func (b *Browser) Initialize(ctx context.Context, onReady func()) error {
	log.Info("📚 Loading scripture catalog...")
	if err := b.store.Load(ctx); err != nil {
		log.Errorf("❌ Failed to load catalog: %v", err)
		return fmt.Errorf("failed to initialize browser: %w", err)
	}
	if onReady != nil {
		onReady()
	}
	return nil
}

// Resume navigates to the fragment the session was last on.
func (b *Browser) Resume(ctx context.Context) (router.View, error) {
	fragment, err := b.stateManager.GetLastFragment(ctx, b.session)
	if err != nil {
		log.Warnf("⚠️ Could not read last fragment, starting at home: %v", err)
		fragment = ""
	}
	if fragment != "" {
		log.Infof("🔄 Resuming session %s at %s", b.session, fragment)
	}
	return b.HandleFragmentChange(ctx, fragment)
}

// HandleFragmentChange navigates to fragment and returns the view on screen
// afterwards. On error the previous view is still on screen and returned.
func (b *Browser) HandleFragmentChange(ctx context.Context, fragment string) (router.View, error) {
	current, err := b.navigator.HandleFragmentChange(ctx, fragment)
	view, _ := b.panel.Current()
	if err != nil {
		return view, err
	}

	if err := b.stateManager.SetLastFragment(ctx, b.session, current.Fragment()); err != nil {
		log.Warnf("⚠️ Failed to save last fragment: %v", err)
	}

	if b.places != nil && current.Kind == domain.StateChapter && view.State == current && view.Content != nil {
		if err := b.places.SavePlaces(ctx, current.BookID, current.Chapter, view.Content.Geotags); err != nil {
			log.Warnf("⚠️ Failed to record places for %s: %v", current, err)
		}
	}

	return view, nil
}

// ShowLocation handles a click on a geotag link: the map is centered on the
// geotag's camera position.
func (b *Browser) ShowLocation(ctx context.Context, geotag domain.Geotag) {
	zoom := mapview.ZoomForAltitude(geotag.ViewAltitude, b.closeZoom)
	log.Debugf("📍 Showing %s at %v,%v zoom %d", geotag.DisplayName(), geotag.ViewLatitude, geotag.ViewLongitude, zoom)
	b.aggregator.ShowLocation(geotag.ViewLatitude, geotag.ViewLongitude, zoom)
}

// View returns the view on screen; false before the first navigation.
func (b *Browser) View() (router.View, bool) {
	return b.panel.Current()
}

func (b *Browser) Volumes() []*domain.Volume {
	return b.store.Volumes()
}

func (b *Browser) Map() mapview.Snapshot {
	return b.widget.Snapshot()
}

// SetMapReady is called when the page's map widget has loaded.
func (b *Browser) SetMapReady() {
	b.widget.SetReady(true)
	log.Info("🗺️ Map widget ready")
}

func (b *Browser) Loaded() bool {
	return b.store.Loaded()
}
