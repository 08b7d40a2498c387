package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/tripforge/itinerary-ai/internal/core/domain"
)

type ItineraryRepository struct {
	db *sql.DB
}

func NewItineraryRepository(db *sql.DB) *ItineraryRepository {
	return &ItineraryRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *ItineraryRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083001)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS itineraries (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	destination TEXT NOT NULL,
	start_date TEXT NOT NULL,
	end_date TEXT NOT NULL,
	total_days INTEGER NOT NULL DEFAULT 0,
	total_cost JSONB NOT NULL DEFAULT '{}'::jsonb,
	days JSONB NOT NULL DEFAULT '[]'::jsonb,
	travelers JSONB NOT NULL DEFAULT '{}'::jsonb,
	metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_itineraries_destination ON itineraries(destination);
CREATE INDEX IF NOT EXISTS idx_itineraries_created_at ON itineraries(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *ItineraryRepository) Create(ctx context.Context, itinerary *domain.Itinerary) error {
	costJSON, daysJSON, travelersJSON, metadataJSON, err := marshalItineraryColumns(itinerary)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err = r.db.ExecContext(ctx, `
INSERT INTO itineraries (
	id, title, destination, start_date, end_date, total_days, total_cost, days, travelers, metadata, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
`,
		itinerary.ID, itinerary.Title, itinerary.Destination, itinerary.StartDate, itinerary.EndDate,
		itinerary.TotalDays, costJSON, daysJSON, travelersJSON, metadataJSON, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert itinerary: %w", err)
	}
	return nil
}

func (r *ItineraryRepository) GetByID(ctx context.Context, id string) (*domain.Itinerary, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, title, destination, start_date, end_date, total_days, total_cost, days, travelers, metadata
FROM itineraries
WHERE id = $1
`, id)

	var itinerary domain.Itinerary
	var costRaw, daysRaw, travelersRaw, metadataRaw []byte

	err := row.Scan(
		&itinerary.ID, &itinerary.Title, &itinerary.Destination, &itinerary.StartDate, &itinerary.EndDate,
		&itinerary.TotalDays, &costRaw, &daysRaw, &travelersRaw, &metadataRaw,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrItineraryNotFound, "get itinerary", err)
		}
		return nil, fmt.Errorf("scan itinerary: %w", err)
	}

	if err := json.Unmarshal(costRaw, &itinerary.TotalCost); err != nil {
		return nil, fmt.Errorf("unmarshal total_cost: %w", err)
	}
	if err := json.Unmarshal(daysRaw, &itinerary.Days); err != nil {
		return nil, fmt.Errorf("unmarshal days: %w", err)
	}
	if err := json.Unmarshal(travelersRaw, &itinerary.Travelers); err != nil {
		return nil, fmt.Errorf("unmarshal travelers: %w", err)
	}
	if err := json.Unmarshal(metadataRaw, &itinerary.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	return &itinerary, nil
}

func (r *ItineraryRepository) Update(ctx context.Context, itinerary *domain.Itinerary) error {
	costJSON, daysJSON, travelersJSON, metadataJSON, err := marshalItineraryColumns(itinerary)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, `
UPDATE itineraries
SET title = $2, destination = $3, start_date = $4, end_date = $5, total_days = $6,
	total_cost = $7, days = $8, travelers = $9, metadata = $10, updated_at = $11
WHERE id = $1
`,
		itinerary.ID, itinerary.Title, itinerary.Destination, itinerary.StartDate, itinerary.EndDate,
		itinerary.TotalDays, costJSON, daysJSON, travelersJSON, metadataJSON, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("update itinerary: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return domain.WrapError(domain.ErrItineraryNotFound, "update itinerary", sql.ErrNoRows)
	}
	return nil
}

func marshalItineraryColumns(itinerary *domain.Itinerary) (cost, days, travelers, metadata []byte, err error) {
	if cost, err = json.Marshal(itinerary.TotalCost); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal total_cost: %w", err)
	}
	if days, err = json.Marshal(itinerary.Days); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal days: %w", err)
	}
	if travelers, err = json.Marshal(itinerary.Travelers); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal travelers: %w", err)
	}
	if metadata, err = json.Marshal(itinerary.Metadata); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal metadata: %w", err)
	}
	return cost, days, travelers, metadata, nil
}
