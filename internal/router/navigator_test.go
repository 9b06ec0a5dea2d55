package router

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"testing"

	"scriptures/mapped/internal/domain"
	"scriptures/mapped/internal/sequencer"
)

type recorder struct {
	mu    sync.Mutex
	views []View
}

func (r *recorder) Render(v View) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views = append(r.views, v)
}

func (r *recorder) last() View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.views[len(r.views)-1]
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

type fakeChapters struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error
	// gates block a fetch until closed
	gates map[string]chan struct{}
}

func key(bookID, chapter int) string { return fmt.Sprintf("%d:%d", bookID, chapter) }

func (f *fakeChapters) GetChapter(ctx context.Context, bookID, chapter int) (*domain.ChapterContent, error) {
	k := key(bookID, chapter)
	f.mu.Lock()
	f.calls = append(f.calls, k)
	gate := f.gates[k]
	err := f.fail[k]
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return &domain.ChapterContent{
		BookID:  bookID,
		Chapter: chapter,
		Markup:  "<p>" + k + "</p>",
		Geotags: []domain.Geotag{{PlaceName: k, Latitude: float64(bookID), Longitude: float64(chapter)}},
	}, nil
}

type fakeMarkers struct {
	mu      sync.Mutex
	batches [][]domain.Geotag
	// checks keeps every currency check for use after later navigations
	checks []func() bool
}

func (f *fakeMarkers) Refresh(ctx context.Context, geotags []domain.Geotag, current func() bool) {
	f.mu.Lock()
	f.checks = append(f.checks, current)
	f.mu.Unlock()

	if !current() {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, geotags)
}

func (f *fakeMarkers) check(i int) bool {
	f.mu.Lock()
	current := f.checks[i]
	f.mu.Unlock()
	return current()
}

func (f *fakeMarkers) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.batches)
}

type harness struct {
	nav      *Navigator
	view     *recorder
	chapters *fakeChapters
	markers  *fakeMarkers
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := loadedStore(t)
	h := &harness{
		view:     &recorder{},
		chapters: &fakeChapters{fail: map[string]error{}, gates: map[string]chan struct{}{}},
		markers:  &fakeMarkers{},
	}
	h.nav = NewNavigator(context.Background(), store, sequencer.New(store), h.chapters, h.view, h.markers)
	return h
}

func TestNavigateChapterEndToEnd(t *testing.T) {
	h := newHarness(t)

	state, err := h.nav.HandleFragmentChange(context.Background(), "#1:5:3")
	if err != nil {
		t.Fatalf("HandleFragmentChange: %v", err)
	}
	if state != domain.ChapterState(1, 5, 3) {
		t.Fatalf("state = %v", state)
	}

	v := h.view.last()
	if v.Content == nil || v.Content.Markup != "<p>5:3</p>" {
		t.Fatalf("chapter 3 content not rendered: %+v", v.Content)
	}
	if v.Previous == nil || v.Previous.BookID != 5 || v.Previous.Chapter != 2 {
		t.Errorf("previous link: %+v", v.Previous)
	}
	if v.Next == nil || v.Next.BookID != 5 || v.Next.Chapter != 4 {
		t.Errorf("next link: %+v", v.Next)
	}
	if v.Title != "Five 3" {
		t.Errorf("title: %q", v.Title)
	}
	if len(v.Breadcrumbs) != 4 || v.Breadcrumbs[2].Title != "Five" || v.Breadcrumbs[3].Fragment != "#1:5:3" {
		t.Errorf("breadcrumbs: %+v", v.Breadcrumbs)
	}
	if h.markers.count() != 1 {
		t.Errorf("expected markers refreshed once, got %d", h.markers.count())
	}
}

func TestNavigateOutOfRangeChapterGoesHome(t *testing.T) {
	h := newHarness(t)

	state, err := h.nav.HandleFragmentChange(context.Background(), "#1:5:11")
	if err != nil {
		t.Fatalf("HandleFragmentChange: %v", err)
	}
	if state.Kind != domain.StateHome {
		t.Fatalf("state = %v, want home", state)
	}
	v := h.view.last()
	if len(v.Volumes) != 3 {
		t.Errorf("home should list every volume, got %d", len(v.Volumes))
	}
	if len(h.chapters.calls) != 0 {
		t.Errorf("no chapter should be fetched, got %v", h.chapters.calls)
	}
}

func TestNavigateVolumeScopesGrid(t *testing.T) {
	h := newHarness(t)

	if _, err := h.nav.HandleFragmentChange(context.Background(), "#2"); err != nil {
		t.Fatalf("HandleFragmentChange: %v", err)
	}
	v := h.view.last()
	if len(v.Volumes) != 1 || v.Volumes[0].ID != 2 {
		t.Errorf("volume view should show only volume 2, got %+v", v.Volumes)
	}
	if v.Title != "Volume Two" {
		t.Errorf("title: %q", v.Title)
	}
}

func TestNavigateBookWithManyChaptersShowsPicker(t *testing.T) {
	h := newHarness(t)

	state, err := h.nav.HandleFragmentChange(context.Background(), "#1:5")
	if err != nil {
		t.Fatalf("HandleFragmentChange: %v", err)
	}
	if state != domain.BookState(1, 5) {
		t.Fatalf("state = %v", state)
	}
	v := h.view.last()
	if len(v.Chapters) != 10 || v.Chapters[0] != 1 || v.Chapters[9] != 10 {
		t.Errorf("chapter picker: %v", v.Chapters)
	}
}

func TestNavigateBookAutoAdvances(t *testing.T) {
	tests := []struct {
		fragment string
		want     domain.NavigationState
	}{
		{"#1:6", domain.ChapterState(1, 6, 1)},
		{"#2:7", domain.ChapterState(2, 7, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.fragment, func(t *testing.T) {
			h := newHarness(t)
			state, err := h.nav.HandleFragmentChange(context.Background(), tt.fragment)
			if err != nil {
				t.Fatalf("HandleFragmentChange: %v", err)
			}
			if state != tt.want {
				t.Errorf("state = %v, want %v", state, tt.want)
			}
			if v := h.view.last(); v.Content == nil {
				t.Error("expected chapter content to be rendered")
			}
		})
	}
}

func TestChapterFetchFailureKeepsPreviousView(t *testing.T) {
	h := newHarness(t)
	h.chapters.fail[key(5, 4)] = errors.New("network down")

	if _, err := h.nav.HandleFragmentChange(context.Background(), "#1:5:3"); err != nil {
		t.Fatalf("first navigation: %v", err)
	}
	rendered := h.view.count()

	state, err := h.nav.HandleFragmentChange(context.Background(), "#1:5:4")
	if err == nil {
		t.Fatal("expected fetch error")
	}
	if state != domain.ChapterState(1, 5, 3) {
		t.Errorf("current state should stay on 5:3, got %v", state)
	}
	if h.view.count() != rendered {
		t.Error("nothing should be rendered on fetch failure")
	}
	if h.nav.Current() != domain.ChapterState(1, 5, 3) {
		t.Errorf("Current() = %v", h.nav.Current())
	}
}

func TestChapterFetchFailureKeepsPreviousMarkersCurrent(t *testing.T) {
	h := newHarness(t)
	h.chapters.fail[key(5, 4)] = errors.New("network down")

	if _, err := h.nav.HandleFragmentChange(context.Background(), "#1:5:3"); err != nil {
		t.Fatalf("first navigation: %v", err)
	}
	if _, err := h.nav.HandleFragmentChange(context.Background(), "#1:5:4"); err == nil {
		t.Fatal("expected fetch error")
	}

	// the map becomes ready only now
	if !h.markers.check(0) {
		t.Fatal("markers of the chapter still on screen must stay current after a failed navigation")
	}

	if _, err := h.nav.HandleFragmentChange(context.Background(), "#1:5:9"); err != nil {
		t.Fatalf("third navigation: %v", err)
	}
	if h.markers.check(0) {
		t.Error("markers of a replaced chapter must not be current")
	}
	if !h.markers.check(1) {
		t.Error("markers of the chapter on screen must be current")
	}
}

func TestStaleChapterResponseIsDiscarded(t *testing.T) {
	h := newHarness(t)
	gate := make(chan struct{})
	h.chapters.gates[key(5, 2)] = gate

	done := make(chan error, 1)
	go func() {
		_, err := h.nav.HandleFragmentChange(context.Background(), "#1:5:2")
		done <- err
	}()

	// wait until the slow fetch is in flight
	for {
		h.chapters.mu.Lock()
		n := len(h.chapters.calls)
		h.chapters.mu.Unlock()
		if n > 0 {
			break
		}
		runtime.Gosched()
	}

	if _, err := h.nav.HandleFragmentChange(context.Background(), "#1:5:9"); err != nil {
		t.Fatalf("fast navigation: %v", err)
	}

	close(gate)
	if err := <-done; err != nil {
		t.Fatalf("slow navigation: %v", err)
	}

	v := h.view.last()
	if v.State != domain.ChapterState(1, 5, 9) {
		t.Errorf("stale response overwrote newer content: showing %v", v.State)
	}
	if h.view.count() != 1 {
		t.Errorf("expected exactly one render, got %d", h.view.count())
	}
	if h.markers.count() != 1 {
		t.Errorf("expected markers only for the newer chapter, got %d batches", h.markers.count())
	}
	if h.nav.Current() != domain.ChapterState(1, 5, 9) {
		t.Errorf("Current() = %v", h.nav.Current())
	}
}
