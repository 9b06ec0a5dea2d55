package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"scriptures/mapped/internal/domain"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var ErrNotLoaded = errors.New("catalog not loaded")

// Source fetches the raw catalogs. client.ScripturesClient satisfies it.
type Source interface {
	GetBooks(ctx context.Context) ([]domain.Book, error)
	GetVolumes(ctx context.Context) ([]domain.Volume, error)
}

// Store holds the book and volume catalogs. It is empty until Load succeeds
// and read-only afterwards: before that every lookup reports not found and
// Loaded returns false.
type Store struct {
	source Source

	loadMu   sync.Mutex
	snapshot atomic.Pointer[snapshot]
}

type snapshot struct {
	books    map[int]*domain.Book
	order    []*domain.Book // catalog order, by book id
	position map[int]int    // book id -> index in order
	volumes  []*domain.Volume
	volumeBy map[int]*domain.Volume
}

func NewStore(source Source) *Store {
	return &Store{source: source}
}

// Load fetches books and volumes concurrently and publishes the derived
// catalog once both have arrived. Either fetch failing fails the load and
// nothing is published. Loading an already loaded store is a no-op.
func (s *Store) Load(ctx context.Context) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	if s.Loaded() {
		return nil
	}

	var (
		books   []domain.Book
		volumes []domain.Volume
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		books, err = s.source.GetBooks(gctx)
		if err != nil {
			return fmt.Errorf("failed to load books: %w", err)
		}
		log.Debugf("📚 Books loaded (%d)", len(books))
		return nil
	})
	g.Go(func() error {
		var err error
		volumes, err = s.source.GetVolumes(gctx)
		if err != nil {
			return fmt.Errorf("failed to load volumes: %w", err)
		}
		log.Debugf("📚 Volumes loaded (%d)", len(volumes))
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	snap := derive(books, volumes)
	s.snapshot.Store(snap)

	log.Infof("✅ Catalog ready: %d volumes, %d books", len(snap.volumes), len(snap.order))
	return nil
}

func derive(books []domain.Book, volumes []domain.Volume) *snapshot {
	snap := &snapshot{
		books:    make(map[int]*domain.Book, len(books)),
		order:    make([]*domain.Book, 0, len(books)),
		position: make(map[int]int, len(books)),
		volumes:  make([]*domain.Volume, 0, len(volumes)),
		volumeBy: make(map[int]*domain.Volume, len(volumes)),
	}

	for i := range books {
		book := books[i]
		snap.books[book.ID] = &book
		snap.order = append(snap.order, &book)
	}
	sort.Slice(snap.order, func(i, j int) bool { return snap.order[i].ID < snap.order[j].ID })
	for i, book := range snap.order {
		snap.position[book.ID] = i
	}

	for i := range volumes {
		volume := volumes[i]
		volume.Books = make([]*domain.Book, 0, max(0, volume.MaxBookID-volume.MinBookID+1))
		for id := volume.MinBookID; id <= volume.MaxBookID; id++ {
			if book, ok := snap.books[id]; ok {
				volume.Books = append(volume.Books, book)
			}
		}
		snap.volumes = append(snap.volumes, &volume)
		snap.volumeBy[volume.ID] = &volume
	}
	sort.Slice(snap.volumes, func(i, j int) bool { return snap.volumes[i].ID < snap.volumes[j].ID })

	return snap
}

func (s *Store) Loaded() bool {
	return s.snapshot.Load() != nil
}

func (s *Store) Book(id int) (*domain.Book, bool) {
	snap := s.snapshot.Load()
	if snap == nil {
		return nil, false
	}
	book, ok := snap.books[id]
	return book, ok
}

func (s *Store) Volume(id int) (*domain.Volume, bool) {
	snap := s.snapshot.Load()
	if snap == nil {
		return nil, false
	}
	volume, ok := snap.volumeBy[id]
	return volume, ok
}

// Volumes returns the volumes ordered by id.
func (s *Store) Volumes() []*domain.Volume {
	snap := s.snapshot.Load()
	if snap == nil {
		return nil
	}
	return snap.volumes
}

// ChapterCount reports how many chapters a book has.
func (s *Store) ChapterCount(bookID int) (int, error) {
	if !s.Loaded() {
		return 0, ErrNotLoaded
	}
	book, ok := s.Book(bookID)
	if !ok {
		return 0, fmt.Errorf("unknown book %d", bookID)
	}
	return book.NumChapters, nil
}

// VolumeIDRange returns the ids of the first and last loaded volumes.
func (s *Store) VolumeIDRange() (minID, maxID int, ok bool) {
	volumes := s.Volumes()
	if len(volumes) == 0 {
		return 0, 0, false
	}
	return volumes[0].ID, volumes[len(volumes)-1].ID, true
}

// NextBook returns the book after id in catalog order, crossing volume
// boundaries.
func (s *Store) NextBook(id int) (*domain.Book, bool) {
	return s.adjacent(id, 1)
}

// PreviousBook returns the book before id in catalog order.
func (s *Store) PreviousBook(id int) (*domain.Book, bool) {
	return s.adjacent(id, -1)
}

func (s *Store) adjacent(id, step int) (*domain.Book, bool) {
	snap := s.snapshot.Load()
	if snap == nil {
		return nil, false
	}
	pos, ok := snap.position[id]
	if !ok {
		return nil, false
	}
	next := pos + step
	if next < 0 || next >= len(snap.order) {
		return nil, false
	}
	return snap.order[next], true
}
