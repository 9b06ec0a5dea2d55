package router

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"scriptures/mapped/internal/domain"
	"scriptures/mapped/internal/sequencer"

	log "github.com/sirupsen/logrus"
)

// ChapterSource fetches chapter text. client.ScripturesClient satisfies it.
type ChapterSource interface {
	GetChapter(ctx context.Context, bookID, chapter int) (*domain.ChapterContent, error)
}

// MarkerRefresher plots a chapter's geotags once the map can take them.
// *markers.Aggregator satisfies it.
type MarkerRefresher interface {
	Refresh(ctx context.Context, geotags []domain.Geotag, current func() bool)
}

// Navigator turns navigation states into rendered views. Every navigation
// gets a generation number; a chapter response that arrives after a newer
// navigation started is dropped, so a slow fetch never overwrites newer
// content. Markers are committed only while their view is still shown.
type Navigator struct {
	catalog   Catalog
	sequencer *sequencer.Sequencer
	chapters  ChapterSource
	renderer  Renderer
	markers   MarkerRefresher

	// lifetime of marker polling; outlives individual requests
	baseCtx context.Context

	generation atomic.Uint64

	mu         sync.Mutex
	current    domain.NavigationState
	shown      uint64 // generation of the view on screen
	cancelPoll context.CancelFunc
}

func NewNavigator(
	ctx context.Context,
	catalog Catalog,
	sequencer *sequencer.Sequencer,
	chapters ChapterSource,
	renderer Renderer,
	markers MarkerRefresher,
) *Navigator {
	return &Navigator{
		catalog:   catalog,
		sequencer: sequencer,
		chapters:  chapters,
		renderer:  renderer,
		markers:   markers,
		baseCtx:   ctx,
		current:   domain.Home(),
	}
}

// HandleFragmentChange parses fragment and navigates to it. It returns the
// state that is on screen afterwards.
func (n *Navigator) HandleFragmentChange(ctx context.Context, fragment string) (domain.NavigationState, error) {
	state := Parse(fragment, n.catalog)
	log.Debugf("Fragment %q resolved to %s", fragment, state)
	return n.Navigate(ctx, state)
}

// Navigate renders state. A chapter fetch failure is logged and returned and
// the previous view stays on screen.
func (n *Navigator) Navigate(ctx context.Context, state domain.NavigationState) (domain.NavigationState, error) {
	gen := n.generation.Add(1)

	switch state.Kind {
	case domain.StateVolume:
		volume, ok := n.catalog.Volume(state.VolumeID)
		if !ok {
			n.render(gen, n.homeView())
			break
		}
		n.render(gen, View{
			State:       state,
			Title:       volume.FullName,
			Breadcrumbs: breadcrumbs(n.catalog, state),
			Volumes:     []*domain.Volume{volume},
		})

	case domain.StateBook:
		book, ok := n.catalog.Book(state.BookID)
		if !ok {
			n.render(gen, n.homeView())
			break
		}
		if book.NumChapters <= 1 {
			return n.navigateChapter(ctx, gen, domain.ChapterState(state.VolumeID, book.ID, book.NumChapters))
		}
		chapters := make([]int, book.NumChapters)
		for i := range chapters {
			chapters[i] = i + 1
		}
		n.render(gen, View{
			State:       state,
			Title:       book.FullName,
			Breadcrumbs: breadcrumbs(n.catalog, state),
			Book:        book,
			Chapters:    chapters,
		})

	case domain.StateChapter:
		return n.navigateChapter(ctx, gen, state)

	default:
		n.render(gen, n.homeView())
	}

	return n.Current(), nil
}

// Current returns the state that was rendered last.
func (n *Navigator) Current() domain.NavigationState {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

func (n *Navigator) homeView() View {
	return View{
		State:       domain.Home(),
		Title:       homeTitle,
		Breadcrumbs: breadcrumbs(n.catalog, domain.Home()),
		Volumes:     n.catalog.Volumes(),
	}
}

func (n *Navigator) navigateChapter(ctx context.Context, gen uint64, state domain.NavigationState) (domain.NavigationState, error) {
	book, ok := n.catalog.Book(state.BookID)
	if !ok || !ValidChapter(book, state.Chapter) {
		n.render(gen, n.homeView())
		return n.Current(), nil
	}

	content, err := n.chapters.GetChapter(ctx, book.ID, state.Chapter)
	if err != nil {
		if !n.isCurrent(gen) {
			log.Debugf("Ignoring failed fetch for superseded %s: %v", state, err)
			return n.Current(), nil
		}
		log.Errorf("❌ Failed to load %s: %v", state, err)
		return n.Current(), fmt.Errorf("failed to load chapter %d:%d: %w", book.ID, state.Chapter, err)
	}

	view := View{
		State:       state,
		Title:       sequencer.Title(book, state.Chapter),
		Breadcrumbs: breadcrumbs(n.catalog, state),
		Book:        book,
		Content:     content,
	}
	if prev, ok := n.sequencer.Previous(book.ID, state.Chapter); ok {
		view.Previous = &prev
	}
	if next, ok := n.sequencer.Next(book.ID, state.Chapter); ok {
		view.Next = &next
	}

	pollCtx, rendered := n.render(gen, view)
	if !rendered {
		log.Debugf("Discarding stale response for %s", state)
		return n.Current(), nil
	}

	n.markers.Refresh(pollCtx, content.Geotags, func() bool { return n.isShown(gen) })
	return state, nil
}

// render shows view unless a newer navigation has started. It cancels the
// marker polling of the view it replaces and returns the context for the new
// view's polling.
func (n *Navigator) render(gen uint64, view View) (context.Context, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.isCurrent(gen) {
		return nil, false
	}

	if n.cancelPoll != nil {
		n.cancelPoll()
	}
	pollCtx, cancel := context.WithCancel(n.baseCtx)
	n.cancelPoll = cancel

	n.renderer.Render(view)
	n.current = view.State
	n.shown = gen

	log.Infof("📖 Showing %s", view.State)
	return pollCtx, true
}

// isShown reports whether the view rendered by gen is still on screen. A
// failed navigation leaves the previous view shown.
func (n *Navigator) isShown(gen uint64) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.shown == gen
}

func (n *Navigator) isCurrent(gen uint64) bool {
	return n.generation.Load() == gen
}
