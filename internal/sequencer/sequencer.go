package sequencer

import (
	"fmt"

	"scriptures/mapped/internal/domain"
)

// Catalog is the read-only view of the catalog the sequencer needs.
// *catalog.Store satisfies it.
type Catalog interface {
	Book(id int) (*domain.Book, bool)
	NextBook(id int) (*domain.Book, bool)
	PreviousBook(id int) (*domain.Book, bool)
}

type Sequencer struct {
	catalog Catalog
}

func New(catalog Catalog) *Sequencer {
	return &Sequencer{catalog: catalog}
}

// Next returns the chapter after (bookID, chapter). Past the last chapter it
// moves to the first chapter of the next book in catalog order, or chapter 0
// when that book has none. There is no wraparound at the end of the catalog.
func (s *Sequencer) Next(bookID, chapter int) (domain.ChapterLink, bool) {
	book, ok := s.catalog.Book(bookID)
	if !ok {
		return domain.ChapterLink{}, false
	}

	if chapter < book.NumChapters {
		return Link(book, chapter+1), true
	}

	next, ok := s.catalog.NextBook(book.ID)
	if !ok {
		return domain.ChapterLink{}, false
	}
	if next.NumChapters == 0 {
		return Link(next, 0), true
	}
	return Link(next, 1), true
}

// Previous mirrors Next: it steps back within the book and otherwise lands on
// the last chapter of the previous book.
func (s *Sequencer) Previous(bookID, chapter int) (domain.ChapterLink, bool) {
	book, ok := s.catalog.Book(bookID)
	if !ok {
		return domain.ChapterLink{}, false
	}

	if chapter > 1 {
		return Link(book, chapter-1), true
	}

	prev, ok := s.catalog.PreviousBook(book.ID)
	if !ok {
		return domain.ChapterLink{}, false
	}
	return Link(prev, prev.NumChapters), true
}

// Link builds the navigation link for a chapter of book.
func Link(book *domain.Book, chapter int) domain.ChapterLink {
	return domain.ChapterLink{
		BookID:   book.ID,
		Chapter:  chapter,
		Title:    Title(book, chapter),
		Fragment: domain.ChapterState(book.ParentBookID, book.ID, chapter).Fragment(),
	}
}

func Title(book *domain.Book, chapter int) string {
	if chapter > 0 {
		return fmt.Sprintf("%s %d", book.TocName, chapter)
	}
	return book.TocName
}
