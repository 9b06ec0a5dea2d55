package repository

import (
	"context"
	"fmt"

	"scriptures/mapped/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PlaceRepository records every geotagged place seen in a chapter, building
// up a gazetteer of where each place is mentioned.
type PlaceRepository interface {
	EnsureSchema(ctx context.Context) error
	SavePlaces(ctx context.Context, bookID, chapter int, geotags []domain.Geotag) error
}

type placeRepository struct {
	db *pgxpool.Pool
}

func NewPlaceRepository(db *pgxpool.Pool) PlaceRepository {
	return &placeRepository{
		db: db,
	}
}

func (r *placeRepository) EnsureSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS places (
		geotag_id  INTEGER          NOT NULL,
		book_id    INTEGER          NOT NULL,
		chapter    INTEGER          NOT NULL,
		place_name TEXT             NOT NULL,
		flag       TEXT             NOT NULL DEFAULT '',
		latitude   DOUBLE PRECISION NOT NULL,
		longitude  DOUBLE PRECISION NOT NULL,
		data       JSONB            NOT NULL,
		PRIMARY KEY (geotag_id, book_id, chapter)
	)`
	if _, err := r.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create places table: %w", err)
	}
	return nil
}

const upsertPlace = `
	INSERT INTO places (geotag_id, book_id, chapter, place_name, flag, latitude, longitude, data)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (geotag_id, book_id, chapter)
	DO UPDATE SET place_name = $4, flag = $5, latitude = $6, longitude = $7, data = $8`

// placeBatch queues one upsert per geotag. The whole geotag goes into the
// JSONB data column.
func placeBatch(bookID, chapter int, geotags []domain.Geotag) *pgx.Batch {
	batch := &pgx.Batch{}
	for _, g := range geotags {
		batch.Queue(upsertPlace, g.ID, bookID, chapter, g.PlaceName, g.Flag, g.Latitude, g.Longitude, g)
	}
	return batch
}

func (r *placeRepository) SavePlaces(ctx context.Context, bookID, chapter int, geotags []domain.Geotag) error {
	if len(geotags) == 0 {
		return nil
	}

	batch := placeBatch(bookID, chapter, geotags)

	if err := r.db.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to save places for %d:%d: %w", bookID, chapter, err)
	}

	return nil
}
