package router

import (
	"math"
	"strconv"
	"strings"

	"scriptures/mapped/internal/domain"
)

// Catalog is the part of the catalog store the router reads.
type Catalog interface {
	Book(id int) (*domain.Book, bool)
	Volume(id int) (*domain.Volume, bool)
	Volumes() []*domain.Volume
	VolumeIDRange() (minID, maxID int, ok bool)
}

// Parse resolves a URL fragment ("#", "#v", "#v:b", "#v:b:c") to a
// navigation state. Anything it cannot validate against the catalog
// resolves to Home; it never fails.
func Parse(fragment string, catalog Catalog) domain.NavigationState {
	fragment = strings.TrimPrefix(strings.TrimSpace(fragment), "#")
	if fragment == "" {
		return domain.Home()
	}

	ids := strings.Split(fragment, ":")

	if len(ids) == 1 {
		volumeID, ok := parseID(ids[0])
		if !ok {
			return domain.Home()
		}
		minID, maxID, ok := catalog.VolumeIDRange()
		if !ok || volumeID < minID || volumeID > maxID {
			return domain.Home()
		}
		// ids can have gaps inside the range
		if _, ok := catalog.Volume(volumeID); !ok {
			return domain.Home()
		}
		return domain.VolumeState(volumeID)
	}

	bookID, ok := parseID(ids[1])
	if !ok {
		return domain.Home()
	}
	book, ok := catalog.Book(bookID)
	if !ok {
		return domain.Home()
	}

	// The volume token is not checked against the book's volume.
	volumeID, ok := parseID(ids[0])
	if !ok {
		volumeID = book.ParentBookID
	}

	if len(ids) == 2 {
		return domain.BookState(volumeID, bookID)
	}

	chapter, ok := parseID(ids[2])
	if !ok || !ValidChapter(book, chapter) {
		return domain.Home()
	}
	return domain.ChapterState(volumeID, bookID, chapter)
}

// ValidChapter reports whether chapter exists in book. Chapter 0 is only
// valid for books without chapters.
func ValidChapter(book *domain.Book, chapter int) bool {
	if book == nil || chapter < 0 || chapter > book.NumChapters {
		return false
	}
	if chapter == 0 && book.NumChapters > 0 {
		return false
	}
	return true
}

// parseID reads a fragment token as a whole number. "3.0" is 3 and an empty
// token is 0; fractions, NaN and infinities are rejected.
func parseID(token string) (int, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, true
	}
	f, err := strconv.ParseFloat(token, 64)
	if err != nil || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}
