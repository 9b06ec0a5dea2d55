package catalog

import (
	"context"

	"scriptures/mapped/internal/domain"
)

// StaticSource serves a fixed catalog. Useful for tests and fixtures.
type StaticSource struct {
	Books   []domain.Book
	Volumes []domain.Volume
}

func (s StaticSource) GetBooks(ctx context.Context) ([]domain.Book, error) {
	return append([]domain.Book(nil), s.Books...), nil
}

func (s StaticSource) GetVolumes(ctx context.Context) ([]domain.Volume, error) {
	return append([]domain.Volume(nil), s.Volumes...), nil
}

// NewLoadedStore loads a store from a static catalog.
func NewLoadedStore(ctx context.Context, books []domain.Book, volumes []domain.Volume) (*Store, error) {
	store := NewStore(StaticSource{Books: books, Volumes: volumes})
	if err := store.Load(ctx); err != nil {
		return nil, err
	}
	return store, nil
}
