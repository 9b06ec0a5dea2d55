package router

import (
	"strconv"

	"scriptures/mapped/internal/domain"
)

// View is the structured content for one navigation state. The renderer
// turns it into markup.
type View struct {
	State       domain.NavigationState `json:"state"`
	Title       string                 `json:"title"`
	Breadcrumbs []Crumb                `json:"breadcrumbs"`

	// Home and volume grids.
	Volumes []*domain.Volume `json:"volumes,omitempty"`

	// Chapter picker and chapter text.
	Book     *domain.Book           `json:"book,omitempty"`
	Chapters []int                  `json:"chapters,omitempty"`
	Content  *domain.ChapterContent `json:"content,omitempty"`
	Previous *domain.ChapterLink    `json:"previous,omitempty"`
	Next     *domain.ChapterLink    `json:"next,omitempty"`
}

type Crumb struct {
	Title    string `json:"title"`
	Fragment string `json:"fragment"`
}

// Renderer displays views.
type Renderer interface {
	Render(view View)
}

const homeTitle = "The Scriptures"

func breadcrumbs(catalog Catalog, state domain.NavigationState) []Crumb {
	crumbs := []Crumb{{Title: homeTitle, Fragment: domain.Home().Fragment()}}
	if state.Kind == domain.StateHome {
		return crumbs
	}

	if volume, ok := catalog.Volume(state.VolumeID); ok {
		crumbs = append(crumbs, Crumb{Title: volume.FullName, Fragment: domain.VolumeState(volume.ID).Fragment()})
	}
	if state.Kind == domain.StateVolume {
		return crumbs
	}

	book, ok := catalog.Book(state.BookID)
	if !ok {
		return crumbs
	}
	crumbs = append(crumbs, Crumb{Title: book.TocName, Fragment: domain.BookState(state.VolumeID, book.ID).Fragment()})

	if state.Kind == domain.StateChapter && state.Chapter > 0 {
		crumbs = append(crumbs, Crumb{Title: strconv.Itoa(state.Chapter), Fragment: state.Fragment()})
	}
	return crumbs
}
